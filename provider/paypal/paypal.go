package paypal

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/mstgnz/paybridge/provider"
)

const (
	providerName   = "paypal"
	sandboxBaseURL = "https://api-m.sandbox.paypal.com"
	liveBaseURL    = "https://api-m.paypal.com"
	defaultTimeout = 30 * time.Second

	endpointToken = "/v1/oauth2/token"

	// tokens are refreshed this long before PayPal expires them
	tokenSkew = 60 * time.Second
)

// PayPalProvider is the redirect wallet adapter over the PayPal REST API
type PayPalProvider struct {
	clientID string
	secret   string
	mode     string
	baseURL  string
	client   *provider.ProviderHTTPClient
	now      func() time.Time

	mu          sync.Mutex
	token       string
	tokenExpiry time.Time
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int64  `json:"expires_in"`
}

// NewProvider creates an uninitialized PayPal provider
func NewProvider() provider.Provider {
	return &PayPalProvider{now: time.Now}
}

// Name implements provider.Provider
func (p *PayPalProvider) Name() string {
	return providerName
}

// GetRequiredConfig returns the credential schema
func (p *PayPalProvider) GetRequiredConfig() []provider.ConfigField {
	return []provider.ConfigField{
		{
			Key:         "clientId",
			Required:    true,
			Type:        "string",
			Description: "PayPal REST application client id",
			Example:     "AZDxjDScFpQtjWTOUtWKbyN_bDt4OgqaF4eYXlewfBP4",
			MinLength:   10,
		},
		{
			Key:         "secret",
			Required:    true,
			Type:        "string",
			Description: "PayPal REST application secret",
			Example:     "EGnHDxD_qRPdaLdZz8iCr8N7_MzF-YHPTkjs6NKYQvQSBngp4PTTVWkPZRbL",
			MinLength:   10,
		},
		{
			Key:         "mode",
			Required:    true,
			Type:        "string",
			Description: "API environment",
			Example:     "sandbox",
			Enum:        []string{"sandbox", "live"},
		},
		{
			Key:         "baseURL",
			Required:    false,
			Type:        "url",
			Description: "API host override",
			Example:     sandboxBaseURL,
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
func (p *PayPalProvider) ValidateConfig(conf map[string]string) error {
	return provider.ValidateConfigFields(providerName, conf, p.GetRequiredConfig())
}

// Initialize stores the credentials and selects the API host from mode.
// The access token is fetched on first use and cached until shortly before
// it expires.
func (p *PayPalProvider) Initialize(_ context.Context, conf map[string]string) error {
	var err error
	if p.clientID, err = provider.RequiredConfigValue(providerName, conf, "clientId"); err != nil {
		return err
	}
	if p.secret, err = provider.RequiredConfigValue(providerName, conf, "secret"); err != nil {
		return err
	}
	if p.mode, err = provider.RequiredConfigValue(providerName, conf, "mode"); err != nil {
		return err
	}

	switch p.mode {
	case "sandbox":
		p.baseURL = sandboxBaseURL
	case "live":
		p.baseURL = liveBaseURL
	default:
		return &provider.Error{
			Kind:     provider.KindProviderUnavailable,
			Op:       "initialize",
			Provider: providerName,
			Message:  "mode must be one of: sandbox, live",
		}
	}
	if override := conf["baseURL"]; override != "" {
		p.baseURL = override
	}

	timeout := provider.ConfigDuration(conf, "timeout", defaultTimeout)
	p.client = provider.NewProviderHTTPClient(provider.CreateHTTPClientConfig(p.baseURL, timeout))
	if p.now == nil {
		p.now = time.Now
	}

	p.mu.Lock()
	p.token = ""
	p.tokenExpiry = time.Time{}
	p.mu.Unlock()

	return nil
}

// ClientID returns the REST application client id
func (p *PayPalProvider) ClientID() string {
	return p.clientID
}

// Mode returns sandbox or live
func (p *PayPalProvider) Mode() string {
	return p.mode
}

func (p *PayPalProvider) ready(op string) error {
	if p.client == nil {
		return &provider.Error{Kind: provider.KindProviderUnavailable, Op: op, Provider: providerName, Message: "provider is not initialized"}
	}
	return nil
}

// accessToken returns a cached bearer token, fetching a new one when the
// cached token is missing or about to expire
func (p *PayPalProvider) accessToken(ctx context.Context, op string) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.token != "" && p.now().Before(p.tokenExpiry) {
		return p.token, nil
	}

	resp, err := p.client.SendForm(ctx, &provider.HTTPRequest{
		Method:    http.MethodPost,
		Endpoint:  endpointToken,
		FormData:  map[string]string{"grant_type": "client_credentials"},
		BasicAuth: &provider.BasicAuth{Username: p.clientID, Password: p.secret},
	})
	if err != nil {
		return "", mapTokenError(op, resp, err)
	}

	var token tokenResponse
	if err := p.client.ParseJSONResponse(resp, &token); err != nil || token.AccessToken == "" {
		return "", &provider.Error{Kind: provider.KindProviderUnavailable, Op: op, Provider: providerName, Message: "token response carries no access token"}
	}

	p.token = token.AccessToken
	p.tokenExpiry = p.now().Add(time.Duration(token.ExpiresIn)*time.Second - tokenSkew)
	return p.token, nil
}

func (p *PayPalProvider) invalidateToken(token string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.token == token {
		p.token = ""
	}
}

// call sends an authenticated JSON request and decodes the response into
// out. A 401 on a cached token refreshes it and retries once.
func (p *PayPalProvider) call(ctx context.Context, op string, req *provider.HTTPRequest, out any) error {
	if err := p.ready(op); err != nil {
		return err
	}

	for attempt := 0; ; attempt++ {
		token, err := p.accessToken(ctx, op)
		if err != nil {
			return err
		}

		headers := map[string]string{"Authorization": "Bearer " + token}
		for k, v := range req.Headers {
			headers[k] = v
		}
		sent := *req
		sent.Headers = headers

		resp, err := p.client.SendJSON(ctx, &sent)
		if err != nil {
			var se *provider.StatusError
			if attempt == 0 && errors.As(err, &se) && se.StatusCode == http.StatusUnauthorized {
				p.invalidateToken(token)
				continue
			}
			return mapError(op, resp, err)
		}

		if out == nil {
			return nil
		}
		if err := p.client.ParseJSONResponse(resp, out); err != nil {
			return &provider.Error{Kind: provider.KindTransient, Op: op, Provider: providerName, Message: "malformed response", Err: err}
		}
		return nil
	}
}
