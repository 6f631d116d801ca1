package opensearch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/opensearch-project/opensearch-go/v2/opensearchapi"
)

// Audit entry statuses
const (
	StatusPending = "pending"
	StatusOK      = "ok"
	StatusError   = "error"
)

// PaymentLog is one audited provider call
type PaymentLog struct {
	Timestamp        time.Time  `json:"timestamp"`
	LogID            string     `json:"log_id"`
	Provider         string     `json:"provider"`
	Operation        string     `json:"operation"`
	Request          string     `json:"request,omitempty"`
	Response         string     `json:"response,omitempty"`
	ProcessingTimeMs int64      `json:"processing_time_ms"`
	Status           string     `json:"status"`
	Error            *ErrorInfo `json:"error,omitempty"`
}

// ErrorInfo represents error details
type ErrorInfo struct {
	Kind    string `json:"kind,omitempty"`
	Message string `json:"message,omitempty"`
}

// Logger writes the audit trail and system logs to OpenSearch
type Logger struct {
	client *Client
	// index of each open log id, dropped once the call is finished
	logIndex sync.Map
	now      func() time.Time
}

// NewLogger creates a new OpenSearch logger
func NewLogger(client *Client) *Logger {
	return &Logger{client: client, now: func() time.Time { return time.Now().UTC() }}
}

// LogRequest indexes the start of a provider call and returns its log id
func (l *Logger) LogRequest(ctx context.Context, providerName, operation string, request any) (string, error) {
	body, err := json.Marshal(request)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	entry := PaymentLog{
		Timestamp: l.now(),
		LogID:     ulid.Make().String(),
		Provider:  providerName,
		Operation: operation,
		Request:   string(body),
		Status:    StatusPending,
	}

	indexName := l.client.GetLogIndexName(providerName)
	if err := l.index(ctx, indexName, entry.LogID, entry); err != nil {
		return "", err
	}

	l.logIndex.Store(entry.LogID, indexName)
	return entry.LogID, nil
}

// LogResponse records the successful outcome of a logged call
func (l *Logger) LogResponse(ctx context.Context, logID string, response any, processingMs int64) error {
	body, err := json.Marshal(response)
	if err != nil {
		return fmt.Errorf("failed to marshal response: %w", err)
	}

	return l.finish(ctx, logID, map[string]any{
		"response":           string(body),
		"processing_time_ms": processingMs,
		"status":             StatusOK,
	})
}

// LogError records the failure of a logged call
func (l *Logger) LogError(ctx context.Context, logID string, errorKind, errorMsg string, processingMs int64) error {
	return l.finish(ctx, logID, map[string]any{
		"error":              ErrorInfo{Kind: errorKind, Message: errorMsg},
		"processing_time_ms": processingMs,
		"status":             StatusError,
	})
}

func (l *Logger) finish(ctx context.Context, logID string, doc map[string]any) error {
	v, ok := l.logIndex.LoadAndDelete(logID)
	if !ok {
		return fmt.Errorf("unknown log id %q", logID)
	}

	body, err := json.Marshal(map[string]any{"doc": doc})
	if err != nil {
		return fmt.Errorf("failed to marshal update: %w", err)
	}

	req := opensearchapi.UpdateRequest{
		Index:      v.(string),
		DocumentID: logID,
		Body:       bytes.NewReader(body),
	}

	res, err := req.Do(ctx, l.client.GetClient())
	if err != nil {
		return fmt.Errorf("failed to update log: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return fmt.Errorf("opensearch error: %s", res.String())
	}

	return nil
}

func (l *Logger) index(ctx context.Context, indexName, id string, doc any) error {
	logJSON, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to marshal log: %w", err)
	}

	req := opensearchapi.IndexRequest{
		Index:      indexName,
		DocumentID: id,
		Body:       bytes.NewReader(logJSON),
	}

	res, err := req.Do(ctx, l.client.GetClient())
	if err != nil {
		return fmt.Errorf("failed to index log: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return fmt.Errorf("opensearch error: %s", res.String())
	}

	return nil
}

// SearchLogs searches a provider's audit trail, newest first
func (l *Logger) SearchLogs(ctx context.Context, provider string, query map[string]any) ([]PaymentLog, error) {
	searchQuery := map[string]any{
		"query": query,
		"sort": []map[string]any{
			{"timestamp": map[string]string{"order": "desc"}},
		},
		"size": 100,
	}

	queryJSON, err := json.Marshal(searchQuery)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal query: %w", err)
	}

	req := opensearchapi.SearchRequest{
		Index: []string{l.client.GetLogIndexName(provider)},
		Body:  bytes.NewReader(queryJSON),
	}

	res, err := req.Do(ctx, l.client.GetClient())
	if err != nil {
		return nil, fmt.Errorf("search failed: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return nil, fmt.Errorf("opensearch search error: %s", res.String())
	}

	var searchResult struct {
		Hits struct {
			Hits []struct {
				Source PaymentLog `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}

	if err := json.NewDecoder(res.Body).Decode(&searchResult); err != nil {
		return nil, fmt.Errorf("failed to decode search results: %w", err)
	}

	logs := make([]PaymentLog, len(searchResult.Hits.Hits))
	for i, hit := range searchResult.Hits.Hits {
		logs[i] = hit.Source
	}

	return logs, nil
}

// GetRecentErrorLogs returns the failed calls of the last hours
func (l *Logger) GetRecentErrorLogs(ctx context.Context, provider string, hours int) ([]PaymentLog, error) {
	query := map[string]any{
		"bool": map[string]any{
			"must": []map[string]any{
				{
					"range": map[string]any{
						"timestamp": map[string]any{
							"gte": fmt.Sprintf("now-%dh", hours),
						},
					},
				},
				{
					"term": map[string]any{
						"status": StatusError,
					},
				},
			},
		},
	}

	return l.SearchLogs(ctx, provider, query)
}

// LogSystemEvent indexes an application log entry
func (l *Logger) LogSystemEvent(ctx context.Context, entry any) error {
	return l.index(ctx, l.client.SystemIndexName(), ulid.Make().String(), entry)
}
