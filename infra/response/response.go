package response

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/mstgnz/paybridge/provider"
)

// Response is a standardized API response structure
type Response struct {
	Code    int    `json:"code"`
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
	Kind    string `json:"kind,omitempty"`
	Data    any    `json:"data,omitempty"`
}

// WriteJSON writes v as a JSON body with the given status
func WriteJSON(w http.ResponseWriter, statusCode int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(v)
}

// Success writes a successful response with data
func Success(w http.ResponseWriter, statusCode int, message string, data any) {
	resp := Response{
		Code:    statusCode,
		Success: true,
		Message: message,
		Data:    data,
	}
	WriteJSON(w, statusCode, resp)
}

// Error writes an error response
func Error(w http.ResponseWriter, statusCode int, message string, err error) {
	resp := Response{
		Code:    statusCode,
		Success: false,
		Message: message,
	}

	if err != nil {
		resp.Error = err.Error()
		var pe *provider.Error
		if errors.As(err, &pe) {
			resp.Kind = string(pe.Kind)
		}
	}

	WriteJSON(w, statusCode, resp)
}

// FromError writes err with the status matching its kind. data, when not
// nil, is included so callers see partial results such as the invoice of a
// failed redirect payment.
func FromError(w http.ResponseWriter, message string, err error, data any) {
	statusCode := StatusFor(err)
	resp := Response{
		Code:    statusCode,
		Success: false,
		Message: message,
		Kind:    string(provider.KindOf(err)),
		Data:    data,
	}
	if err != nil {
		resp.Error = err.Error()
	}
	WriteJSON(w, statusCode, resp)
}

// StatusFor maps an error kind onto an HTTP status
func StatusFor(err error) int {
	if err == nil {
		return http.StatusOK
	}

	switch provider.KindOf(err) {
	case provider.KindInvalidRequest:
		return http.StatusBadRequest
	case provider.KindDeclined:
		return http.StatusPaymentRequired
	case provider.KindNotFound:
		return http.StatusNotFound
	case provider.KindConflict:
		return http.StatusConflict
	case provider.KindTransient:
		return http.StatusServiceUnavailable
	case provider.KindProviderUnavailable:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
