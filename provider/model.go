package provider

import "time"

// DefaultCurrency is applied when a request leaves the currency empty
const DefaultCurrency = "usd"

// Money is an amount in the currency's minor units
type Money struct {
	Amount   int64  `json:"amount" validate:"gte=0"`
	Currency string `json:"currency" validate:"omitempty,currency"`
}

// MetadataItem is a single caller-supplied key/value pair
type MetadataItem struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// Metadata is passed through to providers untouched and in order
type Metadata []MetadataItem

// Get returns the first value stored under key
func (m Metadata) Get(key string) (string, bool) {
	for _, item := range m {
		if item.Key == key {
			return item.Value, true
		}
	}
	return "", false
}

// Map flattens metadata for providers that only accept maps
func (m Metadata) Map() map[string]string {
	if len(m) == 0 {
		return nil
	}
	out := make(map[string]string, len(m))
	for _, item := range m {
		out[item.Key] = item.Value
	}
	return out
}

// ChargeRequest is a one-shot card charge
type ChargeRequest struct {
	Amount             int64    `json:"amount" validate:"gt=0"`
	Currency           string   `json:"currency" validate:"currency"`
	Source             string   `json:"source" validate:"required"`
	DestinationAccount string   `json:"destinationAccount,omitempty"`
	ApplicationFee     int64    `json:"applicationFee,omitempty" validate:"gte=0"`
	Description        string   `json:"description,omitempty"`
	Metadata           Metadata `json:"metadata,omitempty"`
	IdempotencyKey     string   `json:"idempotencyKey,omitempty"`
}

// ChargeStatus is the normalized charge outcome
type ChargeStatus string

const (
	ChargeSucceeded ChargeStatus = "succeeded"
	ChargePending   ChargeStatus = "pending"
	ChargeFailed    ChargeStatus = "failed"
)

// ChargeResult is the normalized outcome of a charge
type ChargeResult struct {
	ChargeID string         `json:"chargeId"`
	Status   ChargeStatus   `json:"status"`
	Amount   int64          `json:"amount"`
	Currency string         `json:"currency"`
	Provider string         `json:"provider"`
	Raw      map[string]any `json:"raw,omitempty"`
}

// Refund reasons understood by every provider
const (
	ReasonRequestedByCustomer = "requested_by_customer"
	ReasonDuplicate           = "duplicate"
	ReasonFraudulent          = "fraudulent"
)

// RefundRequest refunds all or part of a charge. Amount zero refunds the
// remaining balance.
type RefundRequest struct {
	ChargeID             string   `json:"chargeId" validate:"required"`
	Amount               int64    `json:"amount,omitempty" validate:"gte=0"`
	Reason               string   `json:"reason,omitempty" validate:"omitempty,oneof=requested_by_customer duplicate fraudulent"`
	ReverseTransfer      bool     `json:"reverseTransfer,omitempty"`
	RefundApplicationFee bool     `json:"refundApplicationFee,omitempty"`
	Metadata             Metadata `json:"metadata,omitempty"`
	IdempotencyKey       string   `json:"idempotencyKey,omitempty"`
}

// RefundResult is the normalized outcome of a refund
type RefundResult struct {
	RefundID string         `json:"refundId"`
	ChargeID string         `json:"chargeId"`
	Status   string         `json:"status"`
	Amount   int64          `json:"amount"`
	Currency string         `json:"currency"`
	Provider string         `json:"provider"`
	Raw      map[string]any `json:"raw,omitempty"`
}

// Customer is a payer as known to the provider
type Customer struct {
	ID          string            `json:"id"`
	Email       string            `json:"email"`
	Name        string            `json:"name,omitempty"`
	Description string            `json:"description,omitempty"`
	Metadata    map[string]string `json:"metadata,omitempty"`
	Deleted     bool              `json:"deleted,omitempty"`
}

// CustomerListQuery selects one page of the remote customer list
type CustomerListQuery struct {
	Limit         int
	StartingAfter string
}

// CustomerPage is one page of the remote customer list
type CustomerPage struct {
	Customers []Customer
	HasMore   bool
}

// CustomerUpdate carries the mutable customer fields. Nil pointers are left
// untouched.
type CustomerUpdate struct {
	Email       *string  `json:"email,omitempty" validate:"omitempty,email"`
	Name        *string  `json:"name,omitempty"`
	Description *string  `json:"description,omitempty"`
	Source      *string  `json:"source,omitempty"`
	Metadata    Metadata `json:"metadata,omitempty"`
}

// LineItem is a product line of a redirect payment
type LineItem struct {
	Name      string `json:"name" validate:"required"`
	SKU       string `json:"sku,omitempty"`
	UnitPrice int64  `json:"unitPrice" validate:"gte=0"`
	Quantity  int    `json:"quantity" validate:"gt=0"`
	// Currency defaults to the payment total's currency and must match it
	Currency string `json:"currency,omitempty" validate:"omitempty,currency"`
}

// PendingPaymentSpec describes a payment the payer approves off-site
type PendingPaymentSpec struct {
	PayeeEmail       string
	Items            []LineItem
	Total            Money
	InvoiceReference string
	Description      string
	ReturnURL        string
	CancelURL        string
}

// PendingPaymentCreated is what the wallet provider hands back when an
// approval-pending payment has been created
type PendingPaymentCreated struct {
	IntentID    string
	ApprovalURL string
	State       string
}

// PendingPaymentDetails is the provider's view of a pending payment, with
// the provider state mapped onto IntentState
type PendingPaymentDetails struct {
	IntentID         string
	State            IntentState
	InvoiceReference string
	Total            Money
}

// IntentState tracks a pending payment through the redirect handshake
type IntentState string

const (
	IntentCreated                   IntentState = "created"
	IntentAwaitingPayerConfirmation IntentState = "awaiting_payer_confirmation"
	IntentExecuting                 IntentState = "executing"
	IntentCompleted                 IntentState = "completed"
	IntentFailed                    IntentState = "failed"
)

// IsTerminal reports whether no further transition is possible
func (s IntentState) IsTerminal() bool {
	return s == IntentCompleted || s == IntentFailed
}

// PendingPayment is the local record of a redirect payment
type PendingPayment struct {
	IntentID         string      `json:"intentId"`
	Provider         string      `json:"provider"`
	ApprovalURL      string      `json:"approvalUrl,omitempty"`
	PayeeEmail       string      `json:"payeeEmail"`
	InvoiceReference string      `json:"invoiceReference"`
	Total            Money       `json:"total"`
	State            IntentState `json:"state"`
	ChargeID         string      `json:"chargeId,omitempty"`
	FailureKind      ErrorKind   `json:"failureKind,omitempty"`
	FailureMessage   string      `json:"failureMessage,omitempty"`
	CreatedAt        time.Time   `json:"createdAt"`
	UpdatedAt        time.Time   `json:"updatedAt"`
}

// Subscription is a recurring billing arrangement
type Subscription struct {
	ID                string     `json:"id"`
	CustomerID        string     `json:"customerId"`
	PlanID            string     `json:"planId,omitempty"`
	Status            string     `json:"status"`
	TrialEnd          *time.Time `json:"trialEnd,omitempty"`
	CancelAtPeriodEnd bool       `json:"cancelAtPeriodEnd,omitempty"`
	DefaultSource     string     `json:"defaultSource,omitempty"`
}

// Subscription statuses the orchestrators act on
const (
	SubscriptionTrialing = "trialing"
	SubscriptionActive   = "active"
	SubscriptionCanceled = "canceled"
)

// SubscriptionCreate is the provider-level create request
type SubscriptionCreate struct {
	CustomerID string
	PlanID     string
	Quantity   int64
	TrialDays  int64
	Coupon     string
	Metadata   Metadata
	// Extra holds additional provider parameters passed through verbatim
	Extra      map[string]string
}

// SubscriptionChange is the provider-level update request
type SubscriptionChange struct {
	EndTrialNow       bool
	DefaultSource     string
	CancelAtPeriodEnd *bool
	Metadata          Metadata
	// IdempotencyKey is reused on every retry of the same change
	IdempotencyKey    string
}

// SubscriptionCancel carries cancellation options
type SubscriptionCancel struct {
	InvoiceNow     bool   `json:"invoiceNow,omitempty"`
	Prorate        bool   `json:"prorate,omitempty"`
	IdempotencyKey string `json:"idempotencyKey,omitempty"`
}

// Plan is a read-only billing plan
type Plan struct {
	ID       string `json:"id"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	Interval string `json:"interval"`
	Active   bool   `json:"active"`
	Nickname string `json:"nickname,omitempty"`
}

// AccountRequest creates a connected merchant account
type AccountRequest struct {
	Email           string
	Country         string
	Type            string
	DefaultCurrency string
}

// Account is a connected merchant account
type Account struct {
	ID              string `json:"id"`
	Email           string `json:"email"`
	Country         string `json:"country"`
	Type            string `json:"type"`
	DefaultCurrency string `json:"defaultCurrency"`
}
