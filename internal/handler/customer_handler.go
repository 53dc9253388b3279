package handler

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/pesio-ai/be-dealer-workflow/internal/auth"
	"github.com/pesio-ai/be-dealer-workflow/internal/errors"
	"github.com/pesio-ai/be-dealer-workflow/internal/repository"
	"github.com/pesio-ai/be-dealer-workflow/internal/service"
)

type customerResponse struct {
	Message    string               `json:"message"`
	Customer   *repository.Customer `json:"customer"`
	UniqueLink string               `json:"unique_link,omitempty"`
}

// CreateCustomer handles create customer HTTP requests
func (h *HTTPHandler) CreateCustomer(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name        string              `json:"customer_name"`
		PhoneNumber string              `json:"phone_number"`
		Vehicle     string              `json:"vehicle"`
		Variant     *string             `json:"variant"`
		Color       *string             `json:"color"`
		Price       decimal.NullDecimal `json:"price"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	c, err := h.svc.Customers.Create(r.Context(), principal(r), &service.CreateCustomerRequest{
		Name:        req.Name,
		PhoneNumber: req.PhoneNumber,
		Vehicle:     req.Vehicle,
		Variant:     req.Variant,
		Color:       req.Color,
		Price:       req.Price,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, customerResponse{
		Message:    "Customer created successfully",
		Customer:   c,
		UniqueLink: h.svc.Customers.UniqueLink(c.ID),
	})
}

// ListCustomers handles list customers HTTP requests
func (h *HTTPHandler) ListCustomers(w http.ResponseWriter, r *http.Request) {
	list, err := h.svc.Customers.List(r.Context(), principal(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"customers": list})
}

// GetCustomer serves the public summary a customer sees through their link.
func (h *HTTPHandler) GetCustomer(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	c, err := h.svc.Customers.Summary(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, customerResponse{Message: "Customer details fetched successfully", Customer: c})
}

// CustomerImage streams one stored image.
func (h *HTTPHandler) CustomerImage(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	img, err := h.svc.Customers.Image(r.Context(), principal(r), id, chi.URLParam(r, "kind"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", service.ImageContentType(img))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(img)
}

// UpdateCustomer is dual mode: with a bearer token it is the sales pricing
// update, without one it is the customer's own submission.
func (h *HTTPHandler) UpdateCustomer(w http.ResponseWriter, r *http.Request) {
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

	if header := strings.TrimSpace(r.Header.Get("Authorization")); header != "" {
		p, err := h.authenticator.Verify(auth.BearerToken(header))
		if err != nil {
			writeError(w, r, err)
			return
		}
		if p.Role != repository.RoleSales {
			writeError(w, r, errors.Forbidden("insufficient permissions"))
			return
		}
		h.salesUpdate(w, r, p, id, f)
		return
	}
	h.customerSubmission(w, r, id, f)
}

func (h *HTTPHandler) salesUpdate(w http.ResponseWriter, r *http.Request, p auth.Principal, id int64, f *form) {
	req := &service.SalesUpdateRequest{Status: f.str("status")}
	for name, dst := range map[string]*decimal.NullDecimal{
		"ex_showroom": &req.ExShowroom,
		"tax":         &req.Tax,
		"insurance":   &req.Insurance,
		"booking_fee": &req.BookingFee,
		"accessories": &req.Accessories,
	} {
		v, err := f.decimal(name)
		if err != nil {
			writeError(w, r, err)
			return
		}
		*dst = v
	}

	c, err := h.svc.Customers.SalesUpdate(r.Context(), p, id, req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, customerResponse{Message: "Customer updated successfully", Customer: c})
}

func (h *HTTPHandler) customerSubmission(w http.ResponseWriter, r *http.Request, id int64, f *form) {
	dob, err := f.date("dob")
	if err != nil {
		writeError(w, r, err)
		return
	}
	financeAmount, err := f.decimal("finance_amount")
	if err != nil {
		writeError(w, r, err)
		return
	}
	req := &service.SubmissionRequest{
		DOB:             dob,
		Address:         f.str("address"),
		Mobile1:         f.str("mobile_1"),
		Mobile2:         f.str("mobile_2"),
		Email:           f.str("email"),
		Nominee:         f.str("nominee"),
		NomineeRelation: f.str("nominee_relation"),
		PaymentMode:     f.str("payment_mode"),
		FinanceCompany:  f.str("finance_company"),
		FinanceAmount:   financeAmount,
	}
	for name, dst := range map[string]*[]byte{
		repository.ColAadharFront:   &req.AadharFront,
		repository.ColAadharBack:    &req.AadharBack,
		repository.ColPassportPhoto: &req.PassportPhoto,
	} {
		if *dst, err = f.file(name); err != nil {
			writeError(w, r, err)
			return
		}
	}

	c, err := h.svc.Customers.Submit(r.Context(), id, req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, customerResponse{Message: "Customer details updated successfully", Customer: c})
}

// VerifyCustomer handles sales verification HTTP requests
func (h *HTTPHandler) VerifyCustomer(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	c, err := h.svc.Customers.Verify(r.Context(), principal(r), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, customerResponse{Message: "Customer verified successfully", Customer: c})
}

type amountRequest struct {
	Amount decimal.NullDecimal `json:"amount"`
}

// AddPayment handles incremental payment HTTP requests
func (h *HTTPHandler) AddPayment(w http.ResponseWriter, r *http.Request) {
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
	c, err := h.svc.Customers.AddPayment(r.Context(), principal(r), id, req.Amount)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, customerResponse{Message: "Payment updated successfully", Customer: c})
}

// MarkDelivered handles delivery HTTP requests with the delivery photos.
func (h *HTTPHandler) MarkDelivered(w http.ResponseWriter, r *http.Request) {
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
	req := &service.DeliveryRequest{}
	for name, dst := range map[string]*[]byte{
		repository.ColFrontDeliveryPhoto: &req.FrontDeliveryPhoto,
		repository.ColBackDeliveryPhoto:  &req.BackDeliveryPhoto,
		repository.ColDeliveryPhoto:      &req.DeliveryPhoto,
	} {
		if *dst, err = f.file(name); err != nil {
			writeError(w, r, err)
			return
		}
	}

	c, err := h.svc.Customers.MarkDelivered(r.Context(), principal(r), id, req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, customerResponse{Message: "Customer marked as delivered successfully", Customer: c})
}

// DeleteCustomer handles delete customer HTTP requests
func (h *HTTPHandler) DeleteCustomer(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	c, err := h.svc.Customers.Delete(r.Context(), principal(r), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, customerResponse{Message: "Customer deleted successfully", Customer: c})
}
