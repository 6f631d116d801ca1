package stripe

import (
	"context"
	"net/http"
	"time"

	"github.com/mstgnz/paybridge/provider"
	stripe "github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/client"
)

const (
	providerName   = "stripe"
	defaultBaseURL = "https://api.stripe.com"
	defaultTimeout = 30 * time.Second
)

// StripeProvider is the card charge adapter
type StripeProvider struct {
	appID     string
	secretKey string
	publicKey string
	baseURL   string
	timeout   time.Duration
	api       *client.API
}

// NewProvider creates an uninitialized Stripe provider
func NewProvider() provider.Provider {
	return &StripeProvider{}
}

// Name implements provider.Provider
func (p *StripeProvider) Name() string {
	return providerName
}

// GetRequiredConfig returns the credential schema
func (p *StripeProvider) GetRequiredConfig() []provider.ConfigField {
	return []provider.ConfigField{
		{
			Key:         "appId",
			Required:    true,
			Type:        "string",
			Description: "Stripe Connect application client id",
			Example:     "ca_1234567890",
			MinLength:   3,
		},
		{
			Key:         "appSecret",
			Required:    true,
			Type:        "string",
			Description: "Stripe secret API key",
			Example:     "sk_test_4eC39HqLyjWDarjtT1zdp7dc",
			Pattern:     `^(sk|rk)_(test|live)_`,
		},
		{
			Key:         "publicKey",
			Required:    true,
			Type:        "string",
			Description: "Stripe publishable key handed to front-ends",
			Example:     "pk_test_TYooMQauvdEDq54NiTphI7jx",
			Pattern:     `^pk_(test|live)_`,
		},
		{
			Key:         "baseURL",
			Required:    false,
			Type:        "url",
			Description: "API host override",
			Example:     defaultBaseURL,
		},
		{
			Key:         "timeout",
			Required:    false,
			Type:        "duration",
			Description: "Per-call timeout",
			Example:     "30s",
		},
	}
}

// ValidateConfig checks conf against GetRequiredConfig
func (p *StripeProvider) ValidateConfig(conf map[string]string) error {
	return provider.ValidateConfigFields(providerName, conf, p.GetRequiredConfig())
}

// Initialize stores the credentials and builds the API client. Vendor
// retries are disabled; the orchestrators own the retry policy.
func (p *StripeProvider) Initialize(_ context.Context, conf map[string]string) error {
	var err error
	if p.appID, err = provider.RequiredConfigValue(providerName, conf, "appId"); err != nil {
		return err
	}
	if p.secretKey, err = provider.RequiredConfigValue(providerName, conf, "appSecret"); err != nil {
		return err
	}
	if p.publicKey, err = provider.RequiredConfigValue(providerName, conf, "publicKey"); err != nil {
		return err
	}

	p.baseURL = conf["baseURL"]
	if p.baseURL == "" {
		p.baseURL = defaultBaseURL
	}
	p.timeout = provider.ConfigDuration(conf, "timeout", defaultTimeout)

	backend := stripe.GetBackendWithConfig(stripe.APIBackend, &stripe.BackendConfig{
		URL:               stripe.String(p.baseURL),
		HTTPClient:        &http.Client{Timeout: p.timeout},
		MaxNetworkRetries: stripe.Int64(0),
	})
	p.api = client.New(p.secretKey, &stripe.Backends{API: backend, Connect: backend, Uploads: backend})

	return nil
}

// PublicKey returns the publishable key for client-side tokenization
func (p *StripeProvider) PublicKey() string {
	return p.publicKey
}

// AppID returns the Connect application id
func (p *StripeProvider) AppID() string {
	return p.appID
}

// callContext bounds a single API call by the configured timeout
func (p *StripeProvider) callContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, p.timeout)
}

func (p *StripeProvider) ready(op string) error {
	if p.api == nil {
		return &provider.Error{Kind: provider.KindProviderUnavailable, Op: op, Provider: providerName, Message: "provider is not initialized"}
	}
	return nil
}

func addMetadata(params *stripe.Params, md provider.Metadata) {
	for _, item := range md {
		params.AddMetadata(item.Key, item.Value)
	}
}

func unixTime(sec int64) *time.Time {
	if sec <= 0 {
		return nil
	}
	t := time.Unix(sec, 0).UTC()
	return &t
}
