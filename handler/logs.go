package handler

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/mstgnz/paybridge/infra/response"
	"github.com/mstgnz/paybridge/provider"
)

const (
	defaultErrorWindow = 24 * time.Hour
	maxErrorWindow     = 7 * 24 * time.Hour
)

// AuditEntry is one failed provider call from the audit trail
type AuditEntry struct {
	LogID        string    `json:"logId"`
	Provider     string    `json:"provider"`
	Operation    string    `json:"operation"`
	ErrorKind    string    `json:"errorKind,omitempty"`
	ErrorMessage string    `json:"errorMessage,omitempty"`
	ProcessingMs int64     `json:"processingMs"`
	Timestamp    time.Time `json:"timestamp"`
}

// AuditReader reads failed calls back from the audit backend.
// provider "" matches every provider.
type AuditReader interface {
	RecentErrors(ctx context.Context, provider string, since time.Time) ([]AuditEntry, error)
}

// LogsHandler serves the audit trail
type LogsHandler struct {
	audit AuditReader
	now   func() time.Time
}

// NewLogsHandler creates a new logs handler. audit may be nil when no
// audit backend is configured.
func NewLogsHandler(audit AuditReader) *LogsHandler {
	return &LogsHandler{audit: audit, now: time.Now}
}

// RecentErrors handles GET /audit/errors?provider=...&hours=...
func (h *LogsHandler) RecentErrors(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
	defer cancel()

	if h.audit == nil {
		response.Error(w, http.StatusNotImplemented, "Audit log is not configured", nil)
		return
	}

	window := defaultErrorWindow
	if hours := r.URL.Query().Get("hours"); hours != "" {
		n, err := strconv.Atoi(hours)
		if err != nil || n <= 0 {
			response.FromError(w, "Invalid hours", provider.InvalidRequestf("audit_errors", "hours must be a positive integer"), nil)
			return
		}
		window = time.Duration(n) * time.Hour
		if window > maxErrorWindow {
			window = maxErrorWindow
		}
	}

	entries, err := h.audit.RecentErrors(ctx, r.URL.Query().Get("provider"), h.now().Add(-window))
	if err != nil {
		response.Error(w, http.StatusInternalServerError, "Failed to read audit log", err)
		return
	}
	if entries == nil {
		entries = []AuditEntry{}
	}

	response.Success(w, http.StatusOK, "Recent provider errors", map[string]any{
		"count":  len(entries),
		"hours":  int(window / time.Hour),
		"errors": entries,
	})
}
