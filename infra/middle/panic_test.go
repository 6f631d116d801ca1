package middle

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/mstgnz/paybridge/infra/response"
)

func TestPanicRecoveryMiddleware(t *testing.T) {
	tests := []struct {
		name           string
		handler        http.HandlerFunc
		expectedStatus int
		shouldPanic    bool
	}{
		{
			name: "Normal request - no panic",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusOK)
				w.Write([]byte("success"))
			},
			expectedStatus: http.StatusOK,
			shouldPanic:    false,
		},
		{
			name: "Handler panics with string",
			handler: func(w http.ResponseWriter, r *http.Request) {
				panic("test panic")
			},
			expectedStatus: http.StatusInternalServerError,
			shouldPanic:    true,
		},
		{
			name: "Handler panics with error",
			handler: func(w http.ResponseWriter, r *http.Request) {
				panic(errors.New("provider exploded"))
			},
			expectedStatus: http.StatusInternalServerError,
			shouldPanic:    true,
		},
		{
			name: "Handler dereferences nil",
			handler: func(w http.ResponseWriter, r *http.Request) {
				var m map[string]int
				m["x"] = 1
			},
			expectedStatus: http.StatusInternalServerError,
			shouldPanic:    true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			wrappedHandler := RequestIDMiddleware()(PanicRecoveryMiddleware()(tt.handler))

			req := httptest.NewRequest("GET", "/test", nil)
			req.Header.Set("X-Request-ID", "test-request-123")
			w := httptest.NewRecorder()

			wrappedHandler.ServeHTTP(w, req)

			if w.Code != tt.expectedStatus {
				t.Errorf("Expected status %d, got %d", tt.expectedStatus, w.Code)
			}

			if tt.shouldPanic {
				contentType := w.Header().Get("Content-Type")
				if !strings.Contains(contentType, "application/json") {
					t.Error("Expected JSON content type for panic response")
				}

				cacheControl := w.Header().Get("Cache-Control")
				if cacheControl != "no-cache, no-store, must-revalidate" {
					t.Error("Expected no-cache header for panic response")
				}

				var resp response.Response
				if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
					t.Errorf("Failed to decode panic response: %v", err)
				}

				if resp.Success {
					t.Error("Expected success=false for panic response")
				}

				if resp.Code != http.StatusInternalServerError {
					t.Errorf("Expected code %d, got %d", http.StatusInternalServerError, resp.Code)
				}

				if resp.Error != "an unexpected error occurred" {
					t.Errorf("Expected error 'an unexpected error occurred', got '%s'", resp.Error)
				}
			}
		})
	}
}

func TestPanicRecoveryMiddleware_AbortHandler(t *testing.T) {
	handler := PanicRecoveryMiddleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic(http.ErrAbortHandler)
	}))

	defer func() {
		if rec := recover(); rec != http.ErrAbortHandler {
			t.Errorf("Expected ErrAbortHandler to propagate, got %v", rec)
		}
	}()

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/test", nil))
	t.Error("Expected panic to propagate")
}

func TestPanicRecoveryWithCustomHandler(t *testing.T) {
	customHandlerCalled := false
	var capturedPanic any

	customHandler := func(w http.ResponseWriter, r *http.Request, panicValue any) {
		customHandlerCalled = true
		capturedPanic = panicValue
		w.WriteHeader(http.StatusTeapot)
		w.Write([]byte("custom panic handler"))
	}

	panicHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("custom test panic")
	})

	w := httptest.NewRecorder()
	PanicRecoveryWithCustomHandler(customHandler)(panicHandler).ServeHTTP(w, httptest.NewRequest("GET", "/test", nil))

	if !customHandlerCalled {
		t.Error("Expected custom handler to be called")
	}
	if capturedPanic != "custom test panic" {
		t.Errorf("Expected captured panic 'custom test panic', got %v", capturedPanic)
	}
	if w.Code != http.StatusTeapot {
		t.Errorf("Expected status %d, got %d", http.StatusTeapot, w.Code)
	}
}
