package stripe

import (
	"errors"
	"net/http"

	"github.com/mstgnz/paybridge/provider"
	stripe "github.com/stripe/stripe-go/v82"
)

// error codes that mean the request conflicts with the resource state
var conflictCodes = map[string]bool{
	"charge_already_refunded": true,
	"charge_disputed":         true,
	"amount_too_large":        true,
	"refund_disputed_payment": true,
}

// mapError translates an SDK failure into the normalized taxonomy. The
// vendor error itself is not retained.
func mapError(op string, err error) error {
	var se *stripe.Error
	if !errors.As(err, &se) {
		// network failures, deadlines and malformed responses
		return &provider.Error{Kind: provider.KindTransient, Op: op, Provider: providerName, Err: err}
	}

	code := string(se.Code)
	if code == "" && se.DeclineCode != "" {
		code = string(se.DeclineCode)
	}

	return &provider.Error{
		Kind:     classify(op, se),
		Op:       op,
		Provider: providerName,
		Code:     code,
		Message:  se.Msg,
	}
}

func classify(op string, se *stripe.Error) provider.ErrorKind {
	code := string(se.Code)
	status := se.HTTPStatusCode

	switch {
	case string(se.Type) == "card_error":
		return provider.KindDeclined
	case string(se.Type) == "idempotency_error":
		return provider.KindConflict
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return provider.KindProviderUnavailable
	case status == http.StatusTooManyRequests || status >= http.StatusInternalServerError || string(se.Type) == "api_error":
		return provider.KindTransient
	case conflictCodes[code]:
		return provider.KindConflict
	case op == "refund" && se.Param == "amount":
		return provider.KindConflict
	case code == "resource_missing" || status == http.StatusNotFound:
		if op == "charge" && se.Param == "source" {
			return provider.KindDeclined
		}
		return provider.KindNotFound
	default:
		return provider.KindInvalidRequest
	}
}
