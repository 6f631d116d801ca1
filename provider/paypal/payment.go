package paypal

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/mstgnz/paybridge/provider"
)

const endpointPayments = "/v1/payments/payment"

type payment struct {
	ID           string        `json:"id,omitempty"`
	Intent       string        `json:"intent,omitempty"`
	State        string        `json:"state,omitempty"`
	Payer        *payer        `json:"payer,omitempty"`
	Transactions []transaction `json:"transactions,omitempty"`
	RedirectURLs *redirectURLs `json:"redirect_urls,omitempty"`
	Links        []link        `json:"links,omitempty"`
}

type payer struct {
	PaymentMethod string `json:"payment_method"`
}

type transaction struct {
	Amount           amount            `json:"amount"`
	ItemList         *itemList         `json:"item_list,omitempty"`
	Payee            *payee            `json:"payee,omitempty"`
	InvoiceNumber    string            `json:"invoice_number,omitempty"`
	Description      string            `json:"description,omitempty"`
	RelatedResources []relatedResource `json:"related_resources,omitempty"`
}

type amount struct {
	Total    string `json:"total"`
	Currency string `json:"currency"`
}

type itemList struct {
	Items []item `json:"items"`
}

type item struct {
	Name     string `json:"name"`
	SKU      string `json:"sku,omitempty"`
	Price    string `json:"price"`
	Currency string `json:"currency"`
	Quantity string `json:"quantity"`
}

type payee struct {
	Email string `json:"email"`
}

type redirectURLs struct {
	ReturnURL string `json:"return_url"`
	CancelURL string `json:"cancel_url"`
}

type link struct {
	Href   string `json:"href"`
	Rel    string `json:"rel"`
	Method string `json:"method"`
}

type relatedResource struct {
	Sale *sale `json:"sale,omitempty"`
}

type sale struct {
	ID     string `json:"id"`
	State  string `json:"state"`
	Amount amount `json:"amount"`
}

type execution struct {
	PayerID string `json:"payer_id"`
}

// CreatePendingPayment creates a sale the payer approves on PayPal. The
// idempotency key is sent as PayPal-Request-Id.
func (p *PayPalProvider) CreatePendingPayment(ctx context.Context, spec provider.PendingPaymentSpec, idempotencyKey string) (*provider.PendingPaymentCreated, error) {
	const op = "create_pending_payment"
	currency := strings.ToUpper(provider.NormalizeCurrency(spec.Total.Currency))

	items := make([]item, 0, len(spec.Items))
	for _, li := range spec.Items {
		items = append(items, item{
			Name:     li.Name,
			SKU:      li.SKU,
			Price:    provider.FormatAmount(li.UnitPrice, currency),
			Currency: currency,
			Quantity: strconv.Itoa(li.Quantity),
		})
	}

	tx := transaction{
		Amount:        amount{Total: provider.FormatAmount(spec.Total.Amount, currency), Currency: currency},
		ItemList:      &itemList{Items: items},
		InvoiceNumber: spec.InvoiceReference,
		Description:   spec.Description,
	}
	if spec.PayeeEmail != "" {
		tx.Payee = &payee{Email: spec.PayeeEmail}
	}

	body := payment{
		Intent:       "sale",
		Payer:        &payer{PaymentMethod: "paypal"},
		Transactions: []transaction{tx},
		RedirectURLs: &redirectURLs{ReturnURL: spec.ReturnURL, CancelURL: spec.CancelURL},
	}

	var created payment
	if err := p.call(ctx, op, &provider.HTTPRequest{
		Method:   http.MethodPost,
		Endpoint: endpointPayments,
		Headers:  requestID(idempotencyKey),
		Body:     body,
	}, &created); err != nil {
		return nil, err
	}

	approval := created.link("approval_url")
	if approval == "" {
		return nil, &provider.Error{Kind: provider.KindTransient, Op: op, Provider: providerName, Message: "response carries no approval link"}
	}

	return &provider.PendingPaymentCreated{
		IntentID:    created.ID,
		ApprovalURL: approval,
		State:       created.State,
	}, nil
}

// LookupPendingPayment fetches a payment and maps its state
func (p *PayPalProvider) LookupPendingPayment(ctx context.Context, intentID string) (*provider.PendingPaymentDetails, error) {
	const op = "lookup_pending_payment"

	var found payment
	if err := p.call(ctx, op, &provider.HTTPRequest{
		Method:   http.MethodGet,
		Endpoint: endpointPayments + "/" + url.PathEscape(intentID),
	}, &found); err != nil {
		return nil, err
	}

	details := &provider.PendingPaymentDetails{
		IntentID: found.ID,
		State:    mapState(found.State),
	}
	if len(found.Transactions) > 0 {
		tx := found.Transactions[0]
		details.InvoiceReference = tx.InvoiceNumber
		details.Total = toMoney(tx.Amount)
	}
	return details, nil
}

// ExecutePendingPayment captures an approved payment. The sale id of the
// first transaction becomes the charge id.
func (p *PayPalProvider) ExecutePendingPayment(ctx context.Context, intentID, payerID, idempotencyKey string) (*provider.ChargeResult, error) {
	const op = "execute_pending_payment"

	var executed payment
	if err := p.call(ctx, op, &provider.HTTPRequest{
		Method:   http.MethodPost,
		Endpoint: endpointPayments + "/" + url.PathEscape(intentID) + "/execute",
		Headers:  requestID(idempotencyKey),
		Body:     execution{PayerID: payerID},
	}, &executed); err != nil {
		return nil, err
	}

	if executed.State == "failed" {
		return nil, &provider.Error{Kind: provider.KindDeclined, Op: op, Provider: providerName, Code: "PAYMENT_FAILED", Message: "payment execution failed"}
	}

	result := &provider.ChargeResult{
		ChargeID: executed.ID,
		Status:   provider.ChargePending,
		Provider: providerName,
		Raw:      map[string]any{"paymentId": executed.ID, "state": executed.State},
	}
	if executed.State == "approved" {
		result.Status = provider.ChargeSucceeded
	}

	if len(executed.Transactions) > 0 {
		tx := executed.Transactions[0]
		money := toMoney(tx.Amount)
		result.Amount, result.Currency = money.Amount, money.Currency
		for _, rr := range tx.RelatedResources {
			if rr.Sale == nil {
				continue
			}
			result.ChargeID = rr.Sale.ID
			result.Raw["saleState"] = rr.Sale.State
			switch rr.Sale.State {
			case "completed":
				result.Status = provider.ChargeSucceeded
			case "pending":
				result.Status = provider.ChargePending
			case "denied", "failed":
				return nil, &provider.Error{Kind: provider.KindDeclined, Op: op, Provider: providerName, Code: strings.ToUpper(rr.Sale.State), Message: "sale was " + rr.Sale.State}
			}
			break
		}
	}

	return result, nil
}

func (p payment) link(rel string) string {
	for _, l := range p.Links {
		if l.Rel == rel {
			return l.Href
		}
	}
	return ""
}

func mapState(state string) provider.IntentState {
	switch state {
	case "approved":
		return provider.IntentCompleted
	case "failed", "canceled", "expired":
		return provider.IntentFailed
	default:
		return provider.IntentAwaitingPayerConfirmation
	}
}

func toMoney(a amount) provider.Money {
	currency := provider.NormalizeCurrency(a.Currency)
	minor, err := provider.ParseAmount(a.Total, currency)
	if err != nil {
		return provider.Money{Currency: currency}
	}
	return provider.Money{Amount: minor, Currency: currency}
}

func requestID(key string) map[string]string {
	if key == "" {
		return nil
	}
	return map[string]string{"PayPal-Request-Id": key}
}
