package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/mstgnz/paybridge/infra/response"
	"github.com/mstgnz/paybridge/provider"
)

// CustomerService is the part of provider.CustomerResolver the handlers use
type CustomerService interface {
	Resolve(ctx context.Context, email, knownID string) (*provider.Customer, error)
	FindByEmail(ctx context.Context, email string) (*provider.Customer, error)
	UpdateCustomer(ctx context.Context, id string, update provider.CustomerUpdate) (*provider.Customer, error)
}

// CustomerHandler handles customer resolution requests
type CustomerHandler struct {
	customers CustomerService
	validate  *validator.Validate
}

// NewCustomerHandler creates a new customer handler
func NewCustomerHandler(customers CustomerService, validate *validator.Validate) *CustomerHandler {
	return &CustomerHandler{customers: customers, validate: validate}
}

type resolveCustomerRequest struct {
	Email      string `json:"email" validate:"required,email"`
	CustomerID string `json:"customerId,omitempty"`
}

// Resolve handles POST /customers/resolve
func (h *CustomerHandler) Resolve(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	var req resolveCustomerRequest
	if !decodeJSON(w, r, "resolve_customer", &req) {
		return
	}
	if err := h.validate.Struct(req); err != nil {
		response.FromError(w, "Validation error", provider.InvalidRequestf("resolve_customer", "a valid email is required"), nil)
		return
	}

	customer, err := h.customers.Resolve(ctx, req.Email, req.CustomerID)
	if err != nil {
		response.FromError(w, "Failed to resolve customer", err, nil)
		return
	}

	response.Success(w, http.StatusOK, "Customer resolved", customer)
}

// Find handles GET /customers?email=...
func (h *CustomerHandler) Find(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	email := r.URL.Query().Get("email")
	if email == "" {
		response.FromError(w, "Missing email", provider.InvalidRequestf("find_customer", "email query parameter is required"), nil)
		return
	}

	customer, err := h.customers.FindByEmail(ctx, email)
	if err != nil {
		response.FromError(w, "Failed to find customer", err, nil)
		return
	}

	response.Success(w, http.StatusOK, "Customer found", customer)
}

// Update handles PATCH /customers/{customerID}
func (h *CustomerHandler) Update(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	var update provider.CustomerUpdate
	if !decodeJSON(w, r, "update_customer", &update) {
		return
	}

	customer, err := h.customers.UpdateCustomer(ctx, chi.URLParam(r, "customerID"), update)
	if err != nil {
		response.FromError(w, "Failed to update customer", err, nil)
		return
	}

	response.Success(w, http.StatusOK, "Customer updated", customer)
}
