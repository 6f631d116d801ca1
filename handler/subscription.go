package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/mstgnz/paybridge/infra/response"
	"github.com/mstgnz/paybridge/provider"
)

// SubscriptionService is the part of provider.SubscriptionService the
// handlers use
type SubscriptionService interface {
	GetSubscription(ctx context.Context, id string) (*provider.Subscription, error)
	ChargeSubscription(ctx context.Context, subscriptionID, source string) (*provider.Subscription, error)
	CreateSubscription(ctx context.Context, customerID, planID string, opts provider.SubscriptionOptions) (*provider.Subscription, error)
	CancelSubscription(ctx context.Context, subscriptionID string, opts provider.CancelOptions) (*provider.Subscription, error)
	GetPlan(ctx context.Context, planID string) (*provider.Plan, error)
}

// AccountService is the part of provider.AccountService the handlers use
type AccountService interface {
	CreateDeferredAccount(ctx context.Context, email, country string) (*provider.Account, error)
}

// SubscriptionHandler handles subscription, plan and account requests
type SubscriptionHandler struct {
	subscriptions SubscriptionService
	accounts      AccountService
	validate      *validator.Validate
}

// NewSubscriptionHandler creates a new subscription handler
func NewSubscriptionHandler(subscriptions SubscriptionService, accounts AccountService, validate *validator.Validate) *SubscriptionHandler {
	return &SubscriptionHandler{subscriptions: subscriptions, accounts: accounts, validate: validate}
}

// Get handles GET /subscriptions/{subscriptionID}
func (h *SubscriptionHandler) Get(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	sub, err := h.subscriptions.GetSubscription(ctx, chi.URLParam(r, "subscriptionID"))
	if err != nil {
		response.FromError(w, "Failed to get subscription", err, nil)
		return
	}

	response.Success(w, http.StatusOK, "Subscription retrieved", sub)
}

type chargeSubscriptionRequest struct {
	Source string `json:"source,omitempty"`
}

// Charge handles POST /subscriptions/{subscriptionID}/charge
func (h *SubscriptionHandler) Charge(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	var req chargeSubscriptionRequest
	if !decodeOptionalJSON(w, r, "charge_subscription", &req) {
		return
	}

	sub, err := h.subscriptions.ChargeSubscription(ctx, chi.URLParam(r, "subscriptionID"), req.Source)
	if err != nil {
		response.FromError(w, "Failed to charge subscription", err, nil)
		return
	}

	response.Success(w, http.StatusOK, "Subscription charged", sub)
}

type createSubscriptionRequest struct {
	CustomerID string                       `json:"customerId" validate:"required"`
	PlanID     string                       `json:"planId" validate:"required"`
	Options    provider.SubscriptionOptions `json:"options"`
}

// Create handles POST /subscriptions
func (h *SubscriptionHandler) Create(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	var req createSubscriptionRequest
	if !decodeJSON(w, r, "create_subscription", &req) {
		return
	}
	if err := h.validate.Struct(req); err != nil {
		response.FromError(w, "Validation error", provider.InvalidRequestf("create_subscription", "customer id and plan id are required"), nil)
		return
	}

	sub, err := h.subscriptions.CreateSubscription(ctx, req.CustomerID, req.PlanID, req.Options)
	if err != nil {
		response.FromError(w, "Failed to create subscription", err, nil)
		return
	}

	response.Success(w, http.StatusCreated, "Subscription created", sub)
}

// Cancel handles POST /subscriptions/{subscriptionID}/cancel
func (h *SubscriptionHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	var opts provider.CancelOptions
	if !decodeOptionalJSON(w, r, "cancel_subscription", &opts) {
		return
	}

	sub, err := h.subscriptions.CancelSubscription(ctx, chi.URLParam(r, "subscriptionID"), opts)
	if err != nil {
		response.FromError(w, "Failed to cancel subscription", err, nil)
		return
	}

	response.Success(w, http.StatusOK, "Subscription canceled", sub)
}

// GetPlan handles GET /plans/{planID}
func (h *SubscriptionHandler) GetPlan(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	plan, err := h.subscriptions.GetPlan(ctx, chi.URLParam(r, "planID"))
	if err != nil {
		response.FromError(w, "Failed to get plan", err, nil)
		return
	}

	response.Success(w, http.StatusOK, "Plan retrieved", plan)
}

type createAccountRequest struct {
	Email   string `json:"email"`
	Country string `json:"country"`
}

// CreateAccount handles POST /accounts
func (h *SubscriptionHandler) CreateAccount(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	var req createAccountRequest
	if !decodeJSON(w, r, "create_account", &req) {
		return
	}

	acct, err := h.accounts.CreateDeferredAccount(ctx, req.Email, req.Country)
	if err != nil {
		response.FromError(w, "Failed to create account", err, nil)
		return
	}

	response.Success(w, http.StatusCreated, "Account created", acct)
}
