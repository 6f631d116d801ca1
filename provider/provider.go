package provider

import "context"

// Provider is the common surface of every payment provider adapter.
// Initialize authenticates once with the credential map; afterwards the
// adapter is safe for concurrent use.
type Provider interface {
	Name() string
	Initialize(ctx context.Context, conf map[string]string) error
	GetRequiredConfig() []ConfigField
	ValidateConfig(conf map[string]string) error
}

// Charger charges a tokenized card
type Charger interface {
	Name() string
	ChargeCard(ctx context.Context, req ChargeRequest) (*ChargeResult, error)
}

// Refunder refunds a previous charge
type Refunder interface {
	Name() string
	Refund(ctx context.Context, req RefundRequest) (*RefundResult, error)
}

// CustomerDirectory exposes the provider's customer list
type CustomerDirectory interface {
	Name() string
	GetCustomer(ctx context.Context, id string) (*Customer, error)
	ListCustomers(ctx context.Context, query CustomerListQuery) (*CustomerPage, error)
	CreateCustomer(ctx context.Context, email string) (*Customer, error)
	UpdateCustomer(ctx context.Context, id string, update CustomerUpdate) (*Customer, error)
}

// RedirectPayments drives the approve-off-site wallet flow
type RedirectPayments interface {
	Name() string
	CreatePendingPayment(ctx context.Context, spec PendingPaymentSpec, idempotencyKey string) (*PendingPaymentCreated, error)
	LookupPendingPayment(ctx context.Context, intentID string) (*PendingPaymentDetails, error)
	ExecutePendingPayment(ctx context.Context, intentID, payerID, idempotencyKey string) (*ChargeResult, error)
}

// SubscriptionBilling manages recurring billing
type SubscriptionBilling interface {
	Name() string
	GetSubscription(ctx context.Context, id string) (*Subscription, error)
	CreateSubscription(ctx context.Context, req SubscriptionCreate) (*Subscription, error)
	UpdateSubscription(ctx context.Context, id string, change SubscriptionChange) (*Subscription, error)
	CancelSubscription(ctx context.Context, id string, opts SubscriptionCancel) (*Subscription, error)
	GetPlan(ctx context.Context, id string) (*Plan, error)
}

// AccountCreator opens connected merchant accounts
type AccountCreator interface {
	Name() string
	CreateAccount(ctx context.Context, req AccountRequest) (*Account, error)
}

// ConfigField describes one credential or setting a provider needs
type ConfigField struct {
	Key         string   `json:"key"`
	Required    bool     `json:"required"`
	Type        string   `json:"type"`
	Description string   `json:"description"`
	Example     string   `json:"example,omitempty"`
	Pattern     string   `json:"pattern,omitempty"`
	Enum        []string `json:"enum,omitempty"`
	MinLength   int      `json:"minLength,omitempty"`
	MaxLength   int      `json:"maxLength,omitempty"`
}

// ProviderFactory builds an uninitialized provider
type ProviderFactory func() Provider
