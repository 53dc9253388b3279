package handler

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/pesio-ai/be-dealer-workflow/internal/errors"
	"github.com/pesio-ai/be-dealer-workflow/internal/service"
)

// AccountsCustomers lists customers awaiting or past accounts review.
func (h *HTTPHandler) AccountsCustomers(w http.ResponseWriter, r *http.Request) {
	list, err := h.svc.Accounts.List(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"customers": list})
}

// AccountsVerify handles accounts verification HTTP requests
func (h *HTTPHandler) AccountsVerify(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	c, err := h.svc.Accounts.Verify(r.Context(), principal(r), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, customerResponse{Message: "Customer verified by accounts", Customer: c})
}

// AccountsFinance edits or removes the finance details.
func (h *HTTPHandler) AccountsFinance(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req struct {
		FinanceCompany *string             `json:"finance_company"`
		FinanceAmount  decimal.NullDecimal `json:"finance_amount"`
		Remove         bool                `json:"remove"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	c, err := h.svc.Accounts.UpdateFinance(r.Context(), principal(r), id, &service.FinanceRequest{
		FinanceCompany: req.FinanceCompany,
		FinanceAmount:  req.FinanceAmount,
		Remove:         req.Remove,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, customerResponse{Message: "Finance details updated successfully", Customer: c})
}

// AccountsPayment sets the absolute amount paid.
func (h *HTTPHandler) AccountsPayment(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req amountRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	c, err := h.svc.Accounts.SetPayment(r.Context(), principal(r), id, req.Amount)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, customerResponse{Message: "Payment updated successfully", Customer: c})
}

// RTOCustomers lists customers by RTO state (?state=pending|verified).
func (h *HTTPHandler) RTOCustomers(w http.ResponseWriter, r *http.Request) {
	list, err := h.svc.RTO.List(r.Context(), r.URL.Query().Get("state"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"message":   "Customers fetched successfully",
		"customers": list,
	})
}

// RTOByChassis finds a customer by chassis number.
func (h *HTTPHandler) RTOByChassis(w http.ResponseWriter, r *http.Request) {
	c, err := h.svc.RTO.ByChassis(r.Context(), chi.URLParam(r, "number"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, customerResponse{Message: "Customer fetched successfully", Customer: c})
}

// RTOVerify handles RTO verification HTTP requests
func (h *HTTPHandler) RTOVerify(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	c, err := h.svc.RTO.Verify(r.Context(), principal(r), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, customerResponse{Message: "Customer verified by RTO", Customer: c})
}

// RTOChassis records the chassis number and image (multipart).
func (h *HTTPHandler) RTOChassis(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	f, err := readForm(w, r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	req := &service.ChassisRequest{}
	if n := f.str("chassis_number"); n != nil {
		req.ChassisNumber = *n
	}
	if req.ChassisImage, err = f.file("chassis_image"); err != nil {
		writeError(w, r, err)
		return
	}

	c, err := h.svc.RTO.UpdateChassis(r.Context(), principal(r), id, req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, customerResponse{Message: "Chassis details updated successfully", Customer: c})
}

// RTOChassisImage returns the chassis image as base64.
func (h *HTTPHandler) RTOChassisImage(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	img, err := h.svc.RTO.ChassisImage(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	// []byte marshals as base64.
	writeJSON(w, http.StatusOK, map[string]any{
		"message": "Chassis image fetched successfully",
		"image":   img,
	})
}

// ListBookings lists the caller's service bookings.
func (h *HTTPHandler) ListBookings(w http.ResponseWriter, r *http.Request) {
	list, err := h.svc.Bookings.List(r.Context(), principal(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

// UpdateBookingStatus handles booking status HTTP requests
func (h *HTTPHandler) UpdateBookingStatus(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req struct {
		Status string  `json:"status"`
		Notes  *string `json:"notes"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	b, err := h.svc.Bookings.UpdateStatus(r.Context(), principal(r), id, req.Status, req.Notes)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"message": "Status updated successfully", "booking": b})
}

// BookingHistory returns a booking's status ledger.
func (h *HTTPHandler) BookingHistory(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	hist, err := h.svc.Bookings.History(r.Context(), principal(r), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"history": hist})
}

// CreateBooking schedules a service booking (admin).
func (h *HTTPHandler) CreateBooking(w http.ResponseWriter, r *http.Request) {
	var req struct {
		CustomerID        int64   `json:"customer_id"`
		ServiceEmployeeID int64   `json:"service_employee_id"`
		BookingDate       string  `json:"booking_date"`
		Notes             *string `json:"notes"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	when, err := parseBookingDate(req.BookingDate)
	if err != nil {
		writeError(w, r, err)
		return
	}

	b, err := h.svc.Bookings.Create(r.Context(), principal(r), &service.CreateBookingRequest{
		CustomerID:        req.CustomerID,
		ServiceEmployeeID: req.ServiceEmployeeID,
		BookingDate:       when,
		Notes:             req.Notes,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, b)
}

func parseBookingDate(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02T15:04", "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, errors.InvalidInput("booking_date", "must be a date or RFC 3339 timestamp")
}
