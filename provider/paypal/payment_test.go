package paypal

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/mstgnz/paybridge/provider"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pendingSpec() provider.PendingPaymentSpec {
	return provider.PendingPaymentSpec{
		PayeeEmail: "merchant@example.com",
		Items: []provider.LineItem{
			{Name: "Widget", SKU: "W-1", UnitPrice: 1000, Quantity: 2},
			{Name: "Gadget", SKU: "G-1", UnitPrice: 1000, Quantity: 1},
		},
		Total:            provider.Money{Amount: 3000, Currency: "usd"},
		InvoiceReference: "INV-1",
		Description:      "Order INV-1",
		ReturnURL:        "https://shop.example.com/return",
		CancelURL:        "https://shop.example.com/cancel",
	}
}

func TestPayPalProvider_CreatePendingPayment(t *testing.T) {
	fake := newFakePayPal(t)
	p := newTestProvider(t, fake)

	created, err := p.CreatePendingPayment(context.Background(), pendingSpec(), "begin-key-1")
	require.NoError(t, err)

	assert.Equal(t, "PAY-1", created.IntentID)
	assert.Equal(t, "created", created.State)
	assert.Contains(t, created.ApprovalURL, "token=EC-1")
	assert.Equal(t, "begin-key-1", fake.requestIDs["POST "+endpointPayments])

	body := fake.bodies[endpointPayments]
	require.NotNil(t, body)
	assert.Equal(t, "sale", body["intent"])
	assert.Equal(t, map[string]any{"payment_method": "paypal"}, body["payer"])
	assert.Equal(t, map[string]any{
		"return_url": "https://shop.example.com/return",
		"cancel_url": "https://shop.example.com/cancel",
	}, body["redirect_urls"])

	txs := body["transactions"].([]any)
	require.Len(t, txs, 1)
	tx := txs[0].(map[string]any)
	assert.Equal(t, map[string]any{"total": "30.00", "currency": "USD"}, tx["amount"])
	assert.Equal(t, map[string]any{"email": "merchant@example.com"}, tx["payee"])
	assert.Equal(t, "INV-1", tx["invoice_number"])

	items := tx["item_list"].(map[string]any)["items"].([]any)
	require.Len(t, items, 2)
	assert.Equal(t, map[string]any{
		"name":     "Widget",
		"sku":      "W-1",
		"price":    "10.00",
		"currency": "USD",
		"quantity": "2",
	}, items[0])
}

func TestPayPalProvider_CreatePendingPaymentZeroDecimalCurrency(t *testing.T) {
	fake := newFakePayPal(t)
	p := newTestProvider(t, fake)

	spec := pendingSpec()
	spec.Total = provider.Money{Amount: 3000, Currency: "jpy"}
	_, err := p.CreatePendingPayment(context.Background(), spec, "")
	require.NoError(t, err)

	tx := fake.bodies[endpointPayments]["transactions"].([]any)[0].(map[string]any)
	assert.Equal(t, map[string]any{"total": "3000", "currency": "JPY"}, tx["amount"])
	assert.Empty(t, fake.requestIDs["POST "+endpointPayments])
}

func TestPayPalProvider_CreatePendingPaymentWithoutApprovalLink(t *testing.T) {
	fake := newFakePayPal(t)
	fake.routes["POST "+endpointPayments] = func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusCreated, payment{ID: "PAY-9", State: "created"})
	}
	p := newTestProvider(t, fake)

	_, err := p.CreatePendingPayment(context.Background(), pendingSpec(), "k")
	assert.True(t, errors.Is(err, provider.ErrTransient))
}

func TestPayPalProvider_LookupPendingPayment(t *testing.T) {
	tests := []struct {
		state string
		want  provider.IntentState
	}{
		{"created", provider.IntentAwaitingPayerConfirmation},
		{"approved", provider.IntentCompleted},
		{"failed", provider.IntentFailed},
		{"expired", provider.IntentFailed},
	}

	for _, tt := range tests {
		t.Run(tt.state, func(t *testing.T) {
			fake := newFakePayPal(t)
			fake.payments["PAY-7"] = payment{
				ID:    "PAY-7",
				State: tt.state,
				Transactions: []transaction{{
					Amount:        amount{Total: "12.34", Currency: "EUR"},
					InvoiceNumber: "INV-7",
				}},
			}
			p := newTestProvider(t, fake)

			details, err := p.LookupPendingPayment(context.Background(), "PAY-7")
			require.NoError(t, err)
			assert.Equal(t, tt.want, details.State)
			assert.Equal(t, "INV-7", details.InvoiceReference)
			assert.Equal(t, provider.Money{Amount: 1234, Currency: "eur"}, details.Total)
		})
	}
}

func TestPayPalProvider_LookupUnknownPayment(t *testing.T) {
	p := newTestProvider(t, newFakePayPal(t))

	_, err := p.LookupPendingPayment(context.Background(), "PAY-404")
	assert.True(t, errors.Is(err, provider.ErrNotFound))
}

func TestPayPalProvider_ExecutePendingPayment(t *testing.T) {
	fake := newFakePayPal(t)
	p := newTestProvider(t, fake)

	created, err := p.CreatePendingPayment(context.Background(), pendingSpec(), "begin")
	require.NoError(t, err)

	charge, err := p.ExecutePendingPayment(context.Background(), created.IntentID, "PAYER-1", "execute-PAY-1")
	require.NoError(t, err)

	assert.Equal(t, "SALE-1", charge.ChargeID)
	assert.Equal(t, provider.ChargeSucceeded, charge.Status)
	assert.Equal(t, int64(3000), charge.Amount)
	assert.Equal(t, "usd", charge.Currency)
	assert.Equal(t, "paypal", charge.Provider)
	assert.Equal(t, "PAY-1", charge.Raw["paymentId"])

	assert.Equal(t, "execute-PAY-1", fake.requestIDs["POST "+endpointPayments+"/PAY-1/execute"])
	assert.Equal(t, map[string]any{"payer_id": "PAYER-1"}, fake.bodies[endpointPayments+"/PAY-1/execute"])

	// a second execution reports the payment as already done
	_, err = p.ExecutePendingPayment(context.Background(), created.IntentID, "PAYER-1", "execute-PAY-1-b")
	assert.True(t, errors.Is(err, provider.ErrConflict))
}

func TestPayPalProvider_ExecuteDeniedSale(t *testing.T) {
	fake := newFakePayPal(t)
	fake.routes["POST "+endpointPayments+"/PAY-2/execute"] = func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, payment{
			ID:    "PAY-2",
			State: "approved",
			Transactions: []transaction{{
				Amount:           amount{Total: "5.00", Currency: "USD"},
				RelatedResources: []relatedResource{{Sale: &sale{ID: "SALE-2", State: "denied"}}},
			}},
		})
	}
	p := newTestProvider(t, fake)

	_, err := p.ExecutePendingPayment(context.Background(), "PAY-2", "PAYER-1", "k")
	assert.True(t, errors.Is(err, provider.ErrDeclined))
}

func TestPayPalProvider_ExecutePendingSale(t *testing.T) {
	fake := newFakePayPal(t)
	fake.routes["POST "+endpointPayments+"/PAY-3/execute"] = func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, payment{
			ID:    "PAY-3",
			State: "approved",
			Transactions: []transaction{{
				Amount:           amount{Total: "5.00", Currency: "USD"},
				RelatedResources: []relatedResource{{Sale: &sale{ID: "SALE-3", State: "pending"}}},
			}},
		})
	}
	p := newTestProvider(t, fake)

	charge, err := p.ExecutePendingPayment(context.Background(), "PAY-3", "PAYER-1", "k")
	require.NoError(t, err)
	assert.Equal(t, provider.ChargePending, charge.Status)
	assert.Equal(t, "SALE-3", charge.ChargeID)
}

func TestPayPalProvider_RedirectRoundTrip(t *testing.T) {
	fake := newFakePayPal(t)
	p := newTestProvider(t, fake)
	svc := provider.NewTransactionService(nil, nil, p, provider.Options{Retry: provider.NoRetry()})

	start, err := svc.BeginRedirectPayment(context.Background(), provider.RedirectPaymentRequest{
		PayeeEmail: "merchant@example.com",
		Items: []provider.LineItem{
			{Name: "Widget", SKU: "W-1", UnitPrice: 1000, Quantity: 3},
		},
		Total:            3000,
		Currency:         "usd",
		InvoiceReference: "INV-1",
		ReturnURL:        "https://shop.example.com/return",
		CancelURL:        "https://shop.example.com/cancel",
	})
	require.NoError(t, err)
	assert.Equal(t, provider.IntentAwaitingPayerConfirmation, start.State)

	result, err := svc.CompleteRedirectPayment(context.Background(), start.IntentID, "PAYER-1")
	require.NoError(t, err)
	assert.Equal(t, provider.IntentCompleted, result.State)
	assert.Equal(t, "INV-1", result.InvoiceReference)
	assert.Equal(t, "SALE-1", result.ChargeID)

	_, err = svc.CompleteRedirectPayment(context.Background(), start.IntentID, "PAYER-1")
	assert.True(t, errors.Is(err, provider.ErrConflict))
}
