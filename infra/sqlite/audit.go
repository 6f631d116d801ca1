package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/oklog/ulid/v2"

	"github.com/mstgnz/paybridge/infra/logger"
)

// Audit entry statuses
const (
	StatusPending = "pending"
	StatusOK      = "ok"
	StatusError   = "error"
)

// AuditLog is one audited provider call
type AuditLog struct {
	LogID        string    `json:"log_id"`
	Provider     string    `json:"provider"`
	Operation    string    `json:"operation"`
	Request      string    `json:"request,omitempty"`
	Response     string    `json:"response,omitempty"`
	Status       string    `json:"status"`
	ErrorKind    string    `json:"error_kind,omitempty"`
	ErrorMessage string    `json:"error_message,omitempty"`
	ProcessingMs int64     `json:"processing_ms"`
	CreatedAt    time.Time `json:"created_at"`
}

// AuditLogger keeps the audit trail of provider calls in a SQLite file
type AuditLogger struct {
	db   *sql.DB
	path string
	mu   sync.Mutex
	now  func() time.Time
}

// NewAuditLogger opens (or creates) the audit database at dbPath
func NewAuditLogger(dbPath string) (*AuditLogger, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	// multi-process friendly settings
	connStr := fmt.Sprintf("%s?_journal_mode=WAL&_synchronous=NORMAL&_cache_size=1000&_timeout=20000&_txlock=immediate", dbPath)

	db, err := sql.Open("sqlite3", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(0)

	a := &AuditLogger{
		db:   db,
		path: dbPath,
		now:  func() time.Time { return time.Now().UTC() },
	}

	if err := a.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	a.applyPragmas()

	logger.Info("SQLite audit log initialized", logger.LogContext{
		Fields: map[string]any{"path": dbPath},
	})
	return a, nil
}

func (a *AuditLogger) initSchema() error {
	query := `
	CREATE TABLE IF NOT EXISTS audit_logs (
		log_id TEXT PRIMARY KEY,
		provider TEXT NOT NULL,
		operation TEXT NOT NULL,
		request TEXT,
		response TEXT,
		status TEXT NOT NULL,
		error_kind TEXT,
		error_message TEXT,
		processing_ms INTEGER NOT NULL DEFAULT 0,
		created_at DATETIME NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_audit_provider_status ON audit_logs(provider, status, created_at);
	`

	_, err := a.db.Exec(query)
	return err
}

func (a *AuditLogger) applyPragmas() {
	pragmas := []string{
		"PRAGMA journal_mode = WAL;",
		"PRAGMA synchronous = NORMAL;",
		"PRAGMA busy_timeout = 30000;",
		"PRAGMA temp_store = memory;",
	}

	for _, pragma := range pragmas {
		if _, err := a.db.Exec(pragma); err != nil {
			logger.Warn("Failed to apply SQLite pragma", logger.LogContext{
				Fields: map[string]any{"pragma": pragma, "error": err.Error()},
			})
		}
	}
}

// retryOperation retries op while SQLite reports the database as busy
func (a *AuditLogger) retryOperation(op func() error, maxRetries int) error {
	var lastErr error

	for attempt := 0; attempt <= maxRetries; attempt++ {
		err := op()
		if err == nil {
			return nil
		}
		if !isBusy(err) {
			return err
		}

		lastErr = err
		if attempt < maxRetries {
			// 10ms, 20ms, 40ms
			time.Sleep(time.Duration(10*(1<<attempt)) * time.Millisecond)
		}
	}

	return fmt.Errorf("operation failed after %d retries, last error: %w", maxRetries+1, lastErr)
}

func isBusy(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "SQLITE_BUSY") || strings.Contains(msg, "database is locked")
}

// LogRequest stores the start of a provider call and returns its log id
func (a *AuditLogger) LogRequest(ctx context.Context, providerName, operation string, request any) (string, error) {
	body, err := json.Marshal(request)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	logID := ulid.Make().String()
	err = a.retryOperation(func() error {
		_, err := a.db.ExecContext(ctx, `
		INSERT INTO audit_logs (log_id, provider, operation, request, status, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
		`, logID, providerName, operation, string(body), StatusPending, a.now())
		if err != nil {
			return fmt.Errorf("failed to insert audit log: %w", err)
		}
		return nil
	}, 3)
	if err != nil {
		return "", err
	}

	return logID, nil
}

// LogResponse records the successful outcome of a logged call
func (a *AuditLogger) LogResponse(ctx context.Context, logID string, response any, processingMs int64) error {
	body, err := json.Marshal(response)
	if err != nil {
		return fmt.Errorf("failed to marshal response: %w", err)
	}

	return a.finish(ctx, logID, `
	UPDATE audit_logs SET response = ?, status = ?, processing_ms = ?
	WHERE log_id = ?
	`, string(body), StatusOK, processingMs, logID)
}

// LogError records the failure of a logged call
func (a *AuditLogger) LogError(ctx context.Context, logID string, errorKind, errorMsg string, processingMs int64) error {
	return a.finish(ctx, logID, `
	UPDATE audit_logs SET error_kind = ?, error_message = ?, status = ?, processing_ms = ?
	WHERE log_id = ?
	`, errorKind, errorMsg, StatusError, processingMs, logID)
}

func (a *AuditLogger) finish(ctx context.Context, logID, query string, args ...any) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	return a.retryOperation(func() error {
		result, err := a.db.ExecContext(ctx, query, args...)
		if err != nil {
			return fmt.Errorf("failed to update audit log: %w", err)
		}

		rows, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to get rows affected: %w", err)
		}
		if rows == 0 {
			return fmt.Errorf("unknown log id %q", logID)
		}
		return nil
	}, 3)
}

// Get loads one audit entry
func (a *AuditLogger) Get(ctx context.Context, logID string) (*AuditLog, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	row := a.db.QueryRowContext(ctx, `
	SELECT log_id, provider, operation, request, response, status, error_kind, error_message, processing_ms, created_at
	FROM audit_logs WHERE log_id = ?
	`, logID)

	entry, err := scanLog(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("no audit log found for id %s", logID)
	}
	return entry, err
}

// RecentErrors returns failed calls of a provider since the given time,
// newest first. An empty provider matches all providers.
func (a *AuditLogger) RecentErrors(ctx context.Context, providerName string, since time.Time) ([]AuditLog, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	rows, err := a.db.QueryContext(ctx, `
	SELECT log_id, provider, operation, request, response, status, error_kind, error_message, processing_ms, created_at
	FROM audit_logs
	WHERE status = ? AND created_at >= ? AND (? = '' OR provider = ?)
	ORDER BY created_at DESC, log_id DESC
	LIMIT 100
	`, StatusError, since.UTC(), providerName, providerName)
	if err != nil {
		return nil, fmt.Errorf("failed to query audit logs: %w", err)
	}
	defer rows.Close()

	var logs []AuditLog
	for rows.Next() {
		entry, err := scanLog(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		logs = append(logs, *entry)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}
	return logs, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanLog(s scanner) (*AuditLog, error) {
	var entry AuditLog
	var request, response, errorKind, errorMessage sql.NullString
	err := s.Scan(&entry.LogID, &entry.Provider, &entry.Operation, &request, &response,
		&entry.Status, &errorKind, &errorMessage, &entry.ProcessingMs, &entry.CreatedAt)
	if err != nil {
		return nil, err
	}

	entry.Request = request.String
	entry.Response = response.String
	entry.ErrorKind = errorKind.String
	entry.ErrorMessage = errorMessage.String
	return &entry, nil
}

// Close closes the database connection
func (a *AuditLogger) Close() error {
	if a.db != nil {
		return a.db.Close()
	}
	return nil
}
