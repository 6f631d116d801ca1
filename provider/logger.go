package provider

import (
	"context"
	"encoding/json"
	"strings"
)

// PaymentLogger records an audit trail of provider calls. LogRequest returns
// an id that correlates the later LogResponse or LogError.
type PaymentLogger interface {
	LogRequest(ctx context.Context, providerName, operation string, request any) (string, error)
	LogResponse(ctx context.Context, logID string, response any, processingMs int64) error
	LogError(ctx context.Context, logID string, errorKind, errorMsg string, processingMs int64) error
}

// NopPaymentLogger discards all audit records
type NopPaymentLogger struct{}

func (NopPaymentLogger) LogRequest(context.Context, string, string, any) (string, error) {
	return "", nil
}

func (NopPaymentLogger) LogResponse(context.Context, string, any, int64) error { return nil }

func (NopPaymentLogger) LogError(context.Context, string, string, string, int64) error { return nil }

var sensitiveKeys = []string{"source", "secret", "token", "payerid", "password", "apikey", "authorization"}

func isSensitive(key string) bool {
	k := strings.ToLower(strings.ReplaceAll(key, "_", ""))
	for _, s := range sensitiveKeys {
		if strings.Contains(k, s) {
			return true
		}
	}
	return false
}

// SanitizeForLog renders v as a generic JSON value with sensitive keys masked
func SanitizeForLog(v any) any {
	if v == nil {
		return nil
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return nil
	}
	var generic any
	if err := json.Unmarshal(raw, &generic); err != nil {
		return nil
	}
	return mask(generic)
}

func mask(v any) any {
	switch t := v.(type) {
	case map[string]any:
		for k, val := range t {
			if isSensitive(k) {
				if s, ok := val.(string); ok && s != "" {
					t[k] = "***"
				}
				continue
			}
			t[k] = mask(val)
		}
		return t
	case []any:
		for i := range t {
			t[i] = mask(t[i])
		}
		return t
	default:
		return v
	}
}
