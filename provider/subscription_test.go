package provider

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSubscriptionService_ChargeSubscription(t *testing.T) {
	tests := []struct {
		name        string
		status      string
		source      string
		wantEndNow  bool
		wantSource  string
		wantStatus  string
		wantUpdates int
	}{
		{"trialing ends trial", SubscriptionTrialing, "", true, "", SubscriptionActive, 1},
		{"trialing with new source", SubscriptionTrialing, "card_2", true, "card_2", SubscriptionActive, 1},
		{"active keeps trial untouched", SubscriptionActive, "card_3", false, "card_3", SubscriptionActive, 1},
		{"active without source still persists", SubscriptionActive, "", false, "", SubscriptionActive, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			card := newFakeCard()
			card.subs["sub_1"] = &Subscription{ID: "sub_1", CustomerID: "cus_1", Status: tt.status}
			svc := NewSubscriptionService(card, testOptions())

			sub, err := svc.ChargeSubscription(context.Background(), "sub_1", tt.source)
			require.NoError(t, err)

			require.Len(t, card.subChanges, tt.wantUpdates)
			assert.Equal(t, tt.wantEndNow, card.subChanges[0].EndTrialNow)
			assert.Equal(t, tt.wantSource, card.subChanges[0].DefaultSource)
			assert.Equal(t, tt.wantStatus, sub.Status)
		})
	}
}

func TestSubscriptionService_ChargeSubscriptionRetriesWithSameKey(t *testing.T) {
	card := newFakeCard()
	card.subs["sub_1"] = &Subscription{ID: "sub_1", Status: SubscriptionTrialing}
	card.subChangeErrs = []error{&Error{Kind: KindTransient, Message: "timeout"}}
	svc := NewSubscriptionService(card, testOptions())

	sub, err := svc.ChargeSubscription(context.Background(), "sub_1", "")
	require.NoError(t, err)
	assert.Equal(t, SubscriptionActive, sub.Status)

	require.Len(t, card.subChanges, 2)
	key := card.subChanges[0].IdempotencyKey
	assert.NotEmpty(t, key)
	assert.Equal(t, key, card.subChanges[1].IdempotencyKey)
}

func TestSubscriptionService_CancelRetriesWithSameKey(t *testing.T) {
	card := newFakeCard()
	card.subs["sub_1"] = &Subscription{ID: "sub_1", Status: SubscriptionActive}
	card.subCancelErrs = []error{&Error{Kind: KindTransient, Message: "timeout"}}
	svc := NewSubscriptionService(card, testOptions())

	_, err := svc.CancelSubscription(context.Background(), "sub_1", CancelOptions{InvoiceNow: true})
	require.NoError(t, err)

	require.Len(t, card.subCancels, 2)
	assert.NotEmpty(t, card.subCancels[0].IdempotencyKey)
	assert.Equal(t, card.subCancels[0].IdempotencyKey, card.subCancels[1].IdempotencyKey)
}

func TestSubscriptionService_ChargeSubscriptionNotFound(t *testing.T) {
	card := newFakeCard()
	svc := NewSubscriptionService(card, testOptions())

	_, err := svc.ChargeSubscription(context.Background(), "sub_missing", "")
	assert.True(t, errors.Is(err, ErrNotFound))
	assert.Empty(t, card.subChanges)
}

func TestSubscriptionService_CreateSubscription(t *testing.T) {
	card := newFakeCard()
	events := &recordingPublisher{}
	opts := testOptions()
	opts.Events = events
	svc := NewSubscriptionService(card, opts)

	sub, err := svc.CreateSubscription(context.Background(), "cus_1", "plan_gold", SubscriptionOptions{
		Quantity: 2,
		Coupon:   "WELCOME",
		Extra:    map[string]string{"collection_method": "charge_automatically"},
	})
	require.NoError(t, err)
	assert.Equal(t, "sub_new", sub.ID)

	require.Len(t, card.subCreates, 1)
	got := card.subCreates[0]
	assert.Equal(t, "cus_1", got.CustomerID)
	assert.Equal(t, "plan_gold", got.PlanID)
	assert.Equal(t, int64(2), got.Quantity)
	assert.Equal(t, "WELCOME", got.Coupon)
	assert.Equal(t, "charge_automatically", got.Extra["collection_method"])
	assert.Equal(t, []string{EventSubscriptionCreated}, events.events)
}

func TestSubscriptionService_CreateRejectsCoreOverrides(t *testing.T) {
	for _, key := range []string{"customer", "items", "items[0][plan]", "plan"} {
		t.Run(key, func(t *testing.T) {
			card := newFakeCard()
			svc := NewSubscriptionService(card, testOptions())

			_, err := svc.CreateSubscription(context.Background(), "cus_1", "plan_gold", SubscriptionOptions{
				Extra: map[string]string{key: "x"},
			})
			assert.True(t, errors.Is(err, ErrInvalidRequest))
			assert.Empty(t, card.subCreates)
		})
	}
}

func TestSubscriptionService_CreateRequiresIDs(t *testing.T) {
	svc := NewSubscriptionService(newFakeCard(), testOptions())

	_, err := svc.CreateSubscription(context.Background(), "", "plan", SubscriptionOptions{})
	assert.True(t, errors.Is(err, ErrInvalidRequest))
	_, err = svc.CreateSubscription(context.Background(), "cus", "", SubscriptionOptions{})
	assert.True(t, errors.Is(err, ErrInvalidRequest))
}

func TestSubscriptionService_CancelSubscription(t *testing.T) {
	card := newFakeCard()
	card.subs["sub_1"] = &Subscription{ID: "sub_1", Status: SubscriptionActive}
	svc := NewSubscriptionService(card, testOptions())

	sub, err := svc.CancelSubscription(context.Background(), "sub_1", CancelOptions{InvoiceNow: true, Prorate: true})
	require.NoError(t, err)
	assert.Equal(t, SubscriptionCanceled, sub.Status)
	require.Len(t, card.subCancels, 1)
	assert.True(t, card.subCancels[0].InvoiceNow)
	assert.True(t, card.subCancels[0].Prorate)
	assert.NotEmpty(t, card.subCancels[0].IdempotencyKey)

	_, err = svc.CancelSubscription(context.Background(), "sub_1", CancelOptions{})
	assert.True(t, errors.Is(err, ErrConflict))
	assert.Len(t, card.subCancels, 1)
}

func TestSubscriptionService_CancelAtPeriodEnd(t *testing.T) {
	card := newFakeCard()
	card.subs["sub_1"] = &Subscription{ID: "sub_1", Status: SubscriptionActive}
	svc := NewSubscriptionService(card, testOptions())

	sub, err := svc.CancelSubscription(context.Background(), "sub_1", CancelOptions{AtPeriodEnd: true})
	require.NoError(t, err)
	assert.True(t, sub.CancelAtPeriodEnd)
	assert.Empty(t, card.subCancels)
	require.Len(t, card.subChanges, 1)
	require.NotNil(t, card.subChanges[0].CancelAtPeriodEnd)
}

func TestSubscriptionService_GetPlan(t *testing.T) {
	card := newFakeCard()
	card.plans["gold"] = &Plan{ID: "gold", Amount: 2000, Currency: "usd", Interval: "month", Active: true}
	svc := NewSubscriptionService(card, testOptions())

	plan, err := svc.GetPlan(context.Background(), "gold")
	require.NoError(t, err)
	assert.Equal(t, int64(2000), plan.Amount)

	_, err = svc.GetPlan(context.Background(), "silver")
	assert.True(t, errors.Is(err, ErrNotFound))

	_, err = svc.GetPlan(context.Background(), "")
	assert.True(t, errors.Is(err, ErrInvalidRequest))
}

func TestAccountService_CreateDeferredAccount(t *testing.T) {
	card := newFakeCard()
	svc := NewAccountService(card, testOptions())

	acct, err := svc.CreateDeferredAccount(context.Background(), "owner@example.com", "gb")
	require.NoError(t, err)
	assert.Equal(t, "GB", acct.Country)

	require.Len(t, card.accountsReqs, 1)
	assert.Equal(t, AccountRequest{Email: "owner@example.com", Country: "GB", Type: "standard", DefaultCurrency: "usd"}, card.accountsReqs[0])

	_, err = svc.CreateDeferredAccount(context.Background(), "owner@example.com", "GBR")
	assert.True(t, errors.Is(err, ErrInvalidRequest))
	_, err = svc.CreateDeferredAccount(context.Background(), "", "US")
	assert.True(t, errors.Is(err, ErrInvalidRequest))
}
