package handler

import (
	"fmt"
	"net/http"
	"runtime"
	"sort"
	"time"

	"github.com/mstgnz/paybridge/infra/response"
)

// HealthHandler handles health check requests
type HealthHandler struct {
	info      HealthInfo
	startTime time.Time
}

// HealthInfo is what the process knows about itself at startup
type HealthInfo struct {
	Version     string
	Environment string
	// Providers are the initialized provider names
	Providers []string
	// Services maps a supporting service (audit, intents, lock, events)
	// to the backend serving it, "" when disabled
	Services map[string]string
}

// HealthStatus represents overall system health
type HealthStatus struct {
	Status      string                    `json:"status"`
	Version     string                    `json:"version"`
	Timestamp   time.Time                 `json:"timestamp"`
	Uptime      string                    `json:"uptime"`
	Environment string                    `json:"environment"`
	Providers   []string                  `json:"providers"`
	Services    map[string]*ServiceHealth `json:"services"`
	System      *SystemHealth             `json:"system"`
}

// ServiceHealth represents individual service health
type ServiceHealth struct {
	Status  string `json:"status"`
	Backend string `json:"backend,omitempty"`
}

// SystemHealth represents system resource health
type SystemHealth struct {
	Alloc      string `json:"alloc"`
	Sys        string `json:"sys"`
	GCRuns     uint32 `json:"gc_runs"`
	GoRoutines int    `json:"goroutines"`
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(info HealthInfo) *HealthHandler {
	if info.Environment == "" {
		info.Environment = "development"
	}
	return &HealthHandler{info: info, startTime: time.Now()}
}

// CheckHealth reports liveness. The service is unhealthy when no provider
// was initialized.
func (h *HealthHandler) CheckHealth(w http.ResponseWriter, r *http.Request) {
	providers := append([]string(nil), h.info.Providers...)
	sort.Strings(providers)

	health := &HealthStatus{
		Version:     h.info.Version,
		Timestamp:   time.Now().UTC(),
		Uptime:      time.Since(h.startTime).Round(time.Second).String(),
		Environment: h.info.Environment,
		Providers:   providers,
		Services:    make(map[string]*ServiceHealth, len(h.info.Services)),
		System:      systemHealth(),
	}

	for name, backend := range h.info.Services {
		if backend == "" {
			health.Services[name] = &ServiceHealth{Status: "not_configured"}
			continue
		}
		health.Services[name] = &ServiceHealth{Status: "healthy", Backend: backend}
	}

	health.Status = "healthy"
	statusCode := http.StatusOK
	if len(providers) == 0 {
		health.Status = "unhealthy"
		statusCode = http.StatusServiceUnavailable
	}

	response.WriteJSON(w, statusCode, response.Response{
		Code:    statusCode,
		Success: statusCode == http.StatusOK,
		Message: fmt.Sprintf("Service is %s", health.Status),
		Data:    health,
	})
}

func systemHealth() *SystemHealth {
	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)

	return &SystemHealth{
		Alloc:      formatBytes(memStats.Alloc),
		Sys:        formatBytes(memStats.Sys),
		GCRuns:     memStats.NumGC,
		GoRoutines: runtime.NumGoroutine(),
	}
}

func formatBytes(bytes uint64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(bytes)/float64(div), "KMGTPE"[exp])
}
