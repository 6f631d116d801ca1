package handler

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/mstgnz/paybridge/provider"
)

func TestSubscriptionHandler_Get(t *testing.T) {
	subs := &fakeSubscriptions{get: func(id string) (*provider.Subscription, error) {
		return &provider.Subscription{ID: id, Status: provider.SubscriptionActive}, nil
	}}
	h := NewSubscriptionHandler(subs, nil, newValidator())

	w, resp := serve(t, "GET", "/v1/subscriptions/{subscriptionID}", h.Get, "/v1/subscriptions/sub_1", "")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "sub_1", resp.Data.(map[string]any)["id"])
}

func TestSubscriptionHandler_Charge(t *testing.T) {
	var gotID, gotSource string
	subs := &fakeSubscriptions{charge: func(id, source string) (*provider.Subscription, error) {
		gotID, gotSource = id, source
		return &provider.Subscription{ID: id, Status: provider.SubscriptionActive}, nil
	}}
	h := NewSubscriptionHandler(subs, nil, newValidator())

	t.Run("without body", func(t *testing.T) {
		w, _ := serve(t, "POST", "/v1/subscriptions/{subscriptionID}/charge", h.Charge, "/v1/subscriptions/sub_1/charge", "")
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "sub_1", gotID)
		assert.Empty(t, gotSource)
	})

	t.Run("with source", func(t *testing.T) {
		w, _ := serve(t, "POST", "/v1/subscriptions/{subscriptionID}/charge", h.Charge, "/v1/subscriptions/sub_2/charge", `{"source":"tok_new"}`)
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "tok_new", gotSource)
	})

	t.Run("malformed body", func(t *testing.T) {
		w, _ := serve(t, "POST", "/v1/subscriptions/{subscriptionID}/charge", h.Charge, "/v1/subscriptions/sub_2/charge", `{"source":`)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestSubscriptionHandler_Create(t *testing.T) {
	var gotOpts provider.SubscriptionOptions
	subs := &fakeSubscriptions{create: func(customerID, planID string, opts provider.SubscriptionOptions) (*provider.Subscription, error) {
		gotOpts = opts
		return &provider.Subscription{ID: "sub_new", CustomerID: customerID, PlanID: planID, Status: provider.SubscriptionTrialing}, nil
	}}
	h := NewSubscriptionHandler(subs, nil, newValidator())

	w, resp := serve(t, "POST", "/v1/subscriptions", h.Create, "/v1/subscriptions",
		`{"customerId":"cus_1","planId":"price_gold","options":{"trialDays":14,"extra":{"tax_percent":"8"}}}`)

	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "trialing", resp.Data.(map[string]any)["status"])
	assert.Equal(t, int64(14), gotOpts.TrialDays)
	assert.Equal(t, "8", gotOpts.Extra["tax_percent"])

	w, _ = serve(t, "POST", "/v1/subscriptions", h.Create, "/v1/subscriptions", `{"customerId":"cus_1"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSubscriptionHandler_Cancel(t *testing.T) {
	subs := &fakeSubscriptions{cancel: func(id string, opts provider.CancelOptions) (*provider.Subscription, error) {
		if id == "sub_done" {
			return nil, provider.NewError(provider.KindConflict, "cancel_subscription", "subscription already canceled")
		}
		return &provider.Subscription{ID: id, CancelAtPeriodEnd: opts.AtPeriodEnd, Status: provider.SubscriptionActive}, nil
	}}
	h := NewSubscriptionHandler(subs, nil, newValidator())

	w, resp := serve(t, "POST", "/v1/subscriptions/{subscriptionID}/cancel", h.Cancel, "/v1/subscriptions/sub_1/cancel", `{"atPeriodEnd":true}`)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, resp.Data.(map[string]any)["cancelAtPeriodEnd"])

	w, resp = serve(t, "POST", "/v1/subscriptions/{subscriptionID}/cancel", h.Cancel, "/v1/subscriptions/sub_done/cancel", "")
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "conflict", resp.Kind)
}

func TestSubscriptionHandler_GetPlan(t *testing.T) {
	subs := &fakeSubscriptions{getPlan: func(id string) (*provider.Plan, error) {
		return &provider.Plan{ID: id, Amount: 999, Currency: "usd", Interval: "month", Active: true}, nil
	}}
	h := NewSubscriptionHandler(subs, nil, newValidator())

	w, resp := serve(t, "GET", "/v1/plans/{planID}", h.GetPlan, "/v1/plans/price_gold", "")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "month", resp.Data.(map[string]any)["interval"])
}

func TestSubscriptionHandler_CreateAccount(t *testing.T) {
	accounts := &fakeAccounts{create: func(email, country string) (*provider.Account, error) {
		if email == "" {
			return nil, provider.InvalidRequestf("create_account", "email is required")
		}
		return &provider.Account{ID: "acct_1", Email: email, Country: country, Type: "custom"}, nil
	}}
	h := NewSubscriptionHandler(nil, accounts, newValidator())

	w, resp := serve(t, "POST", "/v1/accounts", h.CreateAccount, "/v1/accounts", `{"email":"shop@example.com","country":"US"}`)
	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "acct_1", resp.Data.(map[string]any)["id"])

	w, _ = serve(t, "POST", "/v1/accounts", h.CreateAccount, "/v1/accounts", `{"country":"US"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
