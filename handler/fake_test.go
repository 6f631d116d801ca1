package handler

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/require"

	"github.com/mstgnz/paybridge/infra/response"
	"github.com/mstgnz/paybridge/provider"
)

type fakeTransactions struct {
	charge   func(provider.ChargeRequest) (*provider.ChargeResult, error)
	refund   func(provider.RefundRequest) (*provider.RefundResult, error)
	begin    func(provider.RedirectPaymentRequest) (*provider.RedirectPaymentStart, error)
	complete func(intentID, payerID string) (*provider.RedirectPaymentResult, error)
	get      func(intentID string) (*provider.PendingPayment, error)
}

func (f *fakeTransactions) Charge(_ context.Context, req provider.ChargeRequest) (*provider.ChargeResult, error) {
	return f.charge(req)
}

func (f *fakeTransactions) Refund(_ context.Context, req provider.RefundRequest) (*provider.RefundResult, error) {
	return f.refund(req)
}

func (f *fakeTransactions) BeginRedirectPayment(_ context.Context, req provider.RedirectPaymentRequest) (*provider.RedirectPaymentStart, error) {
	return f.begin(req)
}

func (f *fakeTransactions) CompleteRedirectPayment(_ context.Context, intentID, payerID string) (*provider.RedirectPaymentResult, error) {
	return f.complete(intentID, payerID)
}

func (f *fakeTransactions) GetRedirectPayment(_ context.Context, intentID string) (*provider.PendingPayment, error) {
	return f.get(intentID)
}

type fakeCustomers struct {
	resolve func(email, knownID string) (*provider.Customer, error)
	find    func(email string) (*provider.Customer, error)
	update  func(id string, update provider.CustomerUpdate) (*provider.Customer, error)
}

func (f *fakeCustomers) Resolve(_ context.Context, email, knownID string) (*provider.Customer, error) {
	return f.resolve(email, knownID)
}

func (f *fakeCustomers) FindByEmail(_ context.Context, email string) (*provider.Customer, error) {
	return f.find(email)
}

func (f *fakeCustomers) UpdateCustomer(_ context.Context, id string, update provider.CustomerUpdate) (*provider.Customer, error) {
	return f.update(id, update)
}

type fakeSubscriptions struct {
	get     func(id string) (*provider.Subscription, error)
	charge  func(id, source string) (*provider.Subscription, error)
	create  func(customerID, planID string, opts provider.SubscriptionOptions) (*provider.Subscription, error)
	cancel  func(id string, opts provider.CancelOptions) (*provider.Subscription, error)
	getPlan func(id string) (*provider.Plan, error)
}

func (f *fakeSubscriptions) GetSubscription(_ context.Context, id string) (*provider.Subscription, error) {
	return f.get(id)
}

func (f *fakeSubscriptions) ChargeSubscription(_ context.Context, id, source string) (*provider.Subscription, error) {
	return f.charge(id, source)
}

func (f *fakeSubscriptions) CreateSubscription(_ context.Context, customerID, planID string, opts provider.SubscriptionOptions) (*provider.Subscription, error) {
	return f.create(customerID, planID, opts)
}

func (f *fakeSubscriptions) CancelSubscription(_ context.Context, id string, opts provider.CancelOptions) (*provider.Subscription, error) {
	return f.cancel(id, opts)
}

func (f *fakeSubscriptions) GetPlan(_ context.Context, id string) (*provider.Plan, error) {
	return f.getPlan(id)
}

type fakeAccounts struct {
	create func(email, country string) (*provider.Account, error)
}

func (f *fakeAccounts) CreateDeferredAccount(_ context.Context, email, country string) (*provider.Account, error) {
	return f.create(email, country)
}

type fakeAudit struct {
	provider string
	since    time.Time
	entries  []AuditEntry
	err      error
}

func (f *fakeAudit) RecentErrors(_ context.Context, providerName string, since time.Time) ([]AuditEntry, error) {
	f.provider = providerName
	f.since = since
	return f.entries, f.err
}

// serve routes one request through a chi mux so URL params resolve
func serve(t *testing.T, method, pattern string, h http.HandlerFunc, target, body string, headers ...string) (*httptest.ResponseRecorder, response.Response) {
	t.Helper()

	r := chi.NewRouter()
	r.MethodFunc(method, pattern, h)

	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	req.Header.Set("Content-Type", "application/json")
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var resp response.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp), w.Body.String())
	return w, resp
}

func newValidator() *validator.Validate {
	return validator.New()
}
