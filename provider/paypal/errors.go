package paypal

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/mstgnz/paybridge/provider"
)

// apiError is the REST error body
type apiError struct {
	Name    string `json:"name"`
	Message string `json:"message"`
	DebugID string `json:"debug_id"`
	Details []struct {
		Field string `json:"field"`
		Issue string `json:"issue"`
	} `json:"details"`

	// OAuth endpoints use a different shape
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
}

var (
	notFoundNames = map[string]bool{
		"INVALID_RESOURCE_ID": true,
		"RESOURCE_NOT_FOUND":  true,
	}
	conflictNames = map[string]bool{
		"PAYMENT_ALREADY_DONE":  true,
		"DUPLICATE_REQUEST_ID":  true,
		"DUPLICATE_TRANSACTION": true,
		"PAYMENT_STATE_INVALID": true,
	}
	declinedNames = map[string]bool{
		"INSTRUMENT_DECLINED":                true,
		"PAYMENT_NOT_APPROVED_FOR_EXECUTION": true,
		"TRANSACTION_REFUSED":                true,
		"PAYER_CANNOT_PAY":                   true,
		"CREDIT_CARD_REFUSED":                true,
		"PAYMENT_DENIED":                     true,
	}
)

// mapError translates a failed REST call into the normalized taxonomy
func mapError(op string, resp *provider.HTTPResponse, err error) error {
	var se *provider.StatusError
	if !errors.As(err, &se) {
		return &provider.Error{Kind: provider.KindTransient, Op: op, Provider: providerName, Err: err}
	}

	body := decodeError(resp)
	return &provider.Error{
		Kind:     classify(se.StatusCode, body.Name),
		Op:       op,
		Provider: providerName,
		Code:     body.Name,
		Message:  body.message(),
	}
}

// mapTokenError reports credential failures as ProviderUnavailable so
// callers stop retrying a misconfigured adapter
func mapTokenError(op string, resp *provider.HTTPResponse, err error) error {
	var se *provider.StatusError
	if !errors.As(err, &se) {
		return &provider.Error{Kind: provider.KindTransient, Op: op, Provider: providerName, Message: "token request failed", Err: err}
	}

	kind := provider.KindProviderUnavailable
	if se.StatusCode == http.StatusTooManyRequests || se.StatusCode >= http.StatusInternalServerError {
		kind = provider.KindTransient
	}

	body := decodeError(resp)
	return &provider.Error{
		Kind:     kind,
		Op:       op,
		Provider: providerName,
		Code:     body.Error,
		Message:  "authentication failed: " + body.message(),
	}
}

func classify(status int, name string) provider.ErrorKind {
	switch {
	case notFoundNames[name]:
		return provider.KindNotFound
	case conflictNames[name]:
		return provider.KindConflict
	case declinedNames[name]:
		return provider.KindDeclined
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return provider.KindProviderUnavailable
	case status == http.StatusTooManyRequests || status >= http.StatusInternalServerError:
		return provider.KindTransient
	case status == http.StatusNotFound:
		return provider.KindNotFound
	default:
		return provider.KindInvalidRequest
	}
}

func decodeError(resp *provider.HTTPResponse) apiError {
	var body apiError
	if resp != nil && len(resp.Body) > 0 {
		_ = json.Unmarshal(resp.Body, &body)
	}
	return body
}

func (e apiError) message() string {
	msg := e.Message
	if msg == "" {
		msg = e.ErrorDescription
	}
	if len(e.Details) > 0 {
		issues := make([]string, 0, len(e.Details))
		for _, d := range e.Details {
			if d.Field != "" {
				issues = append(issues, d.Field+": "+d.Issue)
			} else {
				issues = append(issues, d.Issue)
			}
		}
		msg += " [" + strings.Join(issues, "; ") + "]"
	}
	return msg
}
