package handler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/mstgnz/paybridge/infra/response"
	"github.com/mstgnz/paybridge/provider"
)

// requestTimeout bounds one HTTP request including provider retries
const requestTimeout = 60 * time.Second

// IdempotencyKeyHeader lets callers supply the key outside the body
const IdempotencyKeyHeader = "Idempotency-Key"

// TransactionService is the part of provider.TransactionService the
// handlers use
type TransactionService interface {
	Charge(ctx context.Context, req provider.ChargeRequest) (*provider.ChargeResult, error)
	Refund(ctx context.Context, req provider.RefundRequest) (*provider.RefundResult, error)
	BeginRedirectPayment(ctx context.Context, req provider.RedirectPaymentRequest) (*provider.RedirectPaymentStart, error)
	CompleteRedirectPayment(ctx context.Context, intentID, payerID string) (*provider.RedirectPaymentResult, error)
	GetRedirectPayment(ctx context.Context, intentID string) (*provider.PendingPayment, error)
}

// PaymentHandler handles charge, refund and redirect payment requests
type PaymentHandler struct {
	transactions TransactionService
	validate     *validator.Validate
}

// NewPaymentHandler creates a new payment handler
func NewPaymentHandler(transactions TransactionService, validate *validator.Validate) *PaymentHandler {
	return &PaymentHandler{
		transactions: transactions,
		validate:     validate,
	}
}

// Charge handles POST /charges
func (h *PaymentHandler) Charge(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	var req provider.ChargeRequest
	if !decodeJSON(w, r, "charge", &req) {
		return
	}
	if req.IdempotencyKey == "" {
		req.IdempotencyKey = r.Header.Get(IdempotencyKeyHeader)
	}

	resp, err := h.transactions.Charge(ctx, req)
	if err != nil {
		response.FromError(w, "Charge failed", err, nil)
		return
	}

	response.Success(w, http.StatusCreated, "Charge processed", resp)
}

// Refund handles POST /refunds
func (h *PaymentHandler) Refund(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	var req provider.RefundRequest
	if !decodeJSON(w, r, "refund", &req) {
		return
	}
	if req.IdempotencyKey == "" {
		req.IdempotencyKey = r.Header.Get(IdempotencyKeyHeader)
	}

	resp, err := h.transactions.Refund(ctx, req)
	if err != nil {
		response.FromError(w, "Refund failed", err, nil)
		return
	}

	response.Success(w, http.StatusCreated, "Refund processed", resp)
}

// BeginRedirect handles POST /redirect
func (h *PaymentHandler) BeginRedirect(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	var req provider.RedirectPaymentRequest
	if !decodeJSON(w, r, "begin_redirect_payment", &req) {
		return
	}
	if req.IdempotencyKey == "" {
		req.IdempotencyKey = r.Header.Get(IdempotencyKeyHeader)
	}

	resp, err := h.transactions.BeginRedirectPayment(ctx, req)
	if err != nil {
		response.FromError(w, "Redirect payment could not be started", err, nil)
		return
	}

	response.Success(w, http.StatusCreated, "Redirect payer to approval URL", resp)
}

type completeRedirectRequest struct {
	PayerID string `json:"payerId" validate:"required"`
}

// CompleteRedirect handles POST /redirect/{intentID}/complete
func (h *PaymentHandler) CompleteRedirect(w http.ResponseWriter, r *http.Request) {
	var req completeRedirectRequest
	if !decodeJSON(w, r, "complete_redirect_payment", &req) {
		return
	}
	if err := h.validate.Struct(req); err != nil {
		response.FromError(w, "Validation error", provider.InvalidRequestf("complete_redirect_payment", "payer id is required"), nil)
		return
	}

	h.complete(w, r, chi.URLParam(r, "intentID"), req.PayerID)
}

// RedirectReturn handles the payer landing on the return URL:
// GET /redirect/return?paymentId=...&PayerID=...
func (h *PaymentHandler) RedirectReturn(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	h.complete(w, r, q.Get("paymentId"), q.Get("PayerID"))
}

func (h *PaymentHandler) complete(w http.ResponseWriter, r *http.Request, intentID, payerID string) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	resp, err := h.transactions.CompleteRedirectPayment(ctx, intentID, payerID)
	if err != nil {
		// a failed execution still reports the invoice reference
		var data any
		if resp != nil {
			data = resp
		}
		response.FromError(w, "Redirect payment failed", err, data)
		return
	}

	response.Success(w, http.StatusOK, "Redirect payment completed", resp)
}

// GetRedirect handles GET /redirect/{intentID}
func (h *PaymentHandler) GetRedirect(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	resp, err := h.transactions.GetRedirectPayment(ctx, chi.URLParam(r, "intentID"))
	if err != nil {
		response.FromError(w, "Failed to get redirect payment", err, nil)
		return
	}

	response.Success(w, http.StatusOK, "Redirect payment retrieved", resp)
}

// decodeJSON decodes the body into v, answering 400 on malformed input
func decodeJSON(w http.ResponseWriter, r *http.Request, op string, v any) bool {
	return decode(w, r, op, v, false)
}

// decodeOptionalJSON is decodeJSON for endpoints whose body may be empty
func decodeOptionalJSON(w http.ResponseWriter, r *http.Request, op string, v any) bool {
	return decode(w, r, op, v, true)
}

func decode(w http.ResponseWriter, r *http.Request, op string, v any, optional bool) bool {
	if r.Body == nil {
		r.Body = http.NoBody
	}
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		if optional && errors.Is(err, io.EOF) {
			return true
		}
		response.FromError(w, "Invalid request format", provider.InvalidRequestf(op, "malformed request body: %v", err), nil)
		return false
	}
	return true
}
