package handler

import (
	"net/http"
	"strconv"

	"github.com/pesio-ai/be-dealer-workflow/internal/errors"
	"github.com/pesio-ai/be-dealer-workflow/internal/repository"
	"github.com/pesio-ai/be-dealer-workflow/internal/service"
)

type branchRequest struct {
	Name string `json:"name"`
}

// CreateBranch handles create branch HTTP requests
func (h *HTTPHandler) CreateBranch(w http.ResponseWriter, r *http.Request) {
	var req branchRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	b, err := h.svc.Admin.CreateBranch(r.Context(), req.Name)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"message": "Branch created", "branch": b})
}

// ListBranches handles list branches HTTP requests
func (h *HTTPHandler) ListBranches(w http.ResponseWriter, r *http.Request) {
	list, err := h.svc.Admin.ListBranches(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"branches": list})
}

// RenameBranch handles rename branch HTTP requests
func (h *HTTPHandler) RenameBranch(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req branchRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	b, err := h.svc.Admin.RenameBranch(r.Context(), id, req.Name)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"message": "Branch updated", "branch": b})
}

// DeleteBranch handles delete branch HTTP requests
func (h *HTTPHandler) DeleteBranch(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := h.svc.Admin.DeleteBranch(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// CreateEmployee handles create employee HTTP requests
func (h *HTTPHandler) CreateEmployee(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name     string `json:"name"`
		Email    string `json:"email"`
		Phone    string `json:"phone"`
		BranchID *int64 `json:"branch_id"`
		Role     string `json:"role"`
		Password string `json:"password"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	e, err := h.svc.Admin.CreateEmployee(r.Context(), &service.CreateEmployeeRequest{
		Name:     req.Name,
		Email:    req.Email,
		Phone:    req.Phone,
		BranchID: req.BranchID,
		Role:     req.Role,
		Password: req.Password,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"message": "Employee created", "employee": e})
}

// ListEmployees handles list employees HTTP requests (?role=&branch_id=).
func (h *HTTPHandler) ListEmployees(w http.ResponseWriter, r *http.Request) {
	var filter repository.EmployeeFilter
	if role := r.URL.Query().Get("role"); role != "" {
		rl := repository.Role(role)
		if !rl.Valid() {
			writeError(w, r, errors.InvalidInput("role", "invalid role"))
			return
		}
		filter.Role = &rl
	}
	if branch := r.URL.Query().Get("branch_id"); branch != "" {
		id, err := strconv.ParseInt(branch, 10, 64)
		if err != nil {
			writeError(w, r, errors.InvalidInput("branch_id", "invalid id"))
			return
		}
		filter.BranchID = &id
	}

	list, err := h.svc.Admin.ListEmployees(r.Context(), filter)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"employees": list})
}

// GetEmployee handles get employee HTTP requests
func (h *HTTPHandler) GetEmployee(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	e, err := h.svc.Admin.GetEmployee(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"employee": e})
}

// UpdateEmployee applies the provided fields.
func (h *HTTPHandler) UpdateEmployee(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req struct {
		Name     *string `json:"name"`
		Email    *string `json:"email"`
		Phone    *string `json:"phone"`
		BranchID *int64  `json:"branch_id"`
		Role     *string `json:"role"`
		Password *string `json:"password"`
		Status   *string `json:"status"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	e, err := h.svc.Admin.UpdateEmployee(r.Context(), id, &service.UpdateEmployeeRequest{
		Name:     req.Name,
		Email:    req.Email,
		Phone:    req.Phone,
		BranchID: req.BranchID,
		Role:     req.Role,
		Password: req.Password,
		Status:   req.Status,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"message": "Employee updated", "employee": e})
}

// DeleteEmployee handles delete employee HTTP requests
func (h *HTTPHandler) DeleteEmployee(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := h.svc.Admin.DeleteEmployee(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Analytics serves the admin dashboard.
func (h *HTTPHandler) Analytics(w http.ResponseWriter, r *http.Request) {
	a, err := h.svc.Admin.Analytics(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, a)
}
