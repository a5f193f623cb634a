package httpx

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(new(bytes.Buffer), nil))
}

func TestChain(t *testing.T) {
	t.Run("applies middleware in declared order", func(t *testing.T) {
		var order []string

		mk := func(name string) Middleware {
			return func(next http.Handler) http.Handler {
				return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
					order = append(order, name)
					next.ServeHTTP(w, r)
				})
			}
		}

		handler := Chain(mk("outer"), mk("middle"), mk("inner"))(
			http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				order = append(order, "handler")
			}))

		handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/", nil))

		want := []string{"outer", "middle", "inner", "handler"}
		if len(order) != len(want) {
			t.Fatalf("order = %v, want %v", order, want)
		}
		for i := range want {
			if order[i] != want[i] {
				t.Fatalf("order = %v, want %v", order, want)
			}
		}
	})

	t.Run("empty chain is the identity", func(t *testing.T) {
		called := false
		handler := Chain()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			called = true
		}))

		handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/", nil))
		if !called {
			t.Error("handler not invoked through empty chain")
		}
	})
}

func TestRequestID(t *testing.T) {
	t.Run("generates an ID when header absent", func(t *testing.T) {
		var ctxID string
		handler := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctxID = GetRequestID(r.Context())
		}))

		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, httptest.NewRequest("GET", "/", nil))

		if ctxID == "" {
			t.Error("request ID missing from context")
		}
		if got := rr.Header().Get(RequestIDHeader); got != ctxID {
			t.Errorf("response header = %q, context = %q", got, ctxID)
		}
	})

	t.Run("honors an existing header", func(t *testing.T) {
		var ctxID string
		handler := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctxID = GetRequestID(r.Context())
		}))

		req := httptest.NewRequest("GET", "/", nil)
		req.Header.Set(RequestIDHeader, "client-supplied-id")
		handler.ServeHTTP(httptest.NewRecorder(), req)

		if ctxID != "client-supplied-id" {
			t.Errorf("context ID = %q, want client-supplied-id", ctxID)
		}
	})
}

func TestGetRequestID(t *testing.T) {
	t.Run("returns empty string without middleware", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/", nil)
		if got := GetRequestID(req.Context()); got != "" {
			t.Errorf("GetRequestID() = %q, want empty", got)
		}
	})

	t.Run("round-trips through WithRequestID", func(t *testing.T) {
		ctx := WithRequestID(httptest.NewRequest("GET", "/", nil).Context(), "abc")
		if got := GetRequestID(ctx); got != "abc" {
			t.Errorf("GetRequestID() = %q, want abc", got)
		}
	})
}

func TestLogger(t *testing.T) {
	t.Run("logs method, path and captured status", func(t *testing.T) {
		var buf bytes.Buffer
		logger := slog.New(slog.NewJSONHandler(&buf, nil))

		handler := Logger(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNoContent)
		}))

		handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("DELETE", "/t/ba", nil))

		var entry map[string]any
		if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
			t.Fatalf("log line is not JSON: %v", err)
		}
		if entry["method"] != "DELETE" {
			t.Errorf("method = %v", entry["method"])
		}
		if entry["path"] != "/t/ba" {
			t.Errorf("path = %v", entry["path"])
		}
		if entry["status"] != float64(http.StatusNoContent) {
			t.Errorf("status = %v, want 204", entry["status"])
		}
	})
}

func TestRecovery(t *testing.T) {
	t.Run("converts panics into 500 responses", func(t *testing.T) {
		handler := Recovery(discardLogger())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			panic("boom")
		}))

		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, httptest.NewRequest("GET", "/", nil))

		if rr.Code != http.StatusInternalServerError {
			t.Errorf("status = %d, want 500", rr.Code)
		}

		var resp ErrorResponse
		if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
			t.Fatalf("body is not JSON: %v", err)
		}
		if resp.Error != "internal_error" {
			t.Errorf("error code = %q", resp.Error)
		}
	})

	t.Run("passes through normal responses", func(t *testing.T) {
		handler := Recovery(discardLogger())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
		}))

		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, httptest.NewRequest("GET", "/", nil))

		if rr.Code != http.StatusOK {
			t.Errorf("status = %d, want 200", rr.Code)
		}
	})
}

func TestCORS(t *testing.T) {
	t.Run("allows all origins when none configured", func(t *testing.T) {
		handler := CORS(nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, httptest.NewRequest("GET", "/", nil))

		if got := rr.Header().Get("Access-Control-Allow-Origin"); got != "*" {
			t.Errorf("Allow-Origin = %q, want *", got)
		}
	})

	t.Run("echoes only allowed origins", func(t *testing.T) {
		handler := CORS([]string{"https://good.example"})(
			http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

		req := httptest.NewRequest("GET", "/", nil)
		req.Header.Set("Origin", "https://evil.example")
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)

		if got := rr.Header().Get("Access-Control-Allow-Origin"); got != "" {
			t.Errorf("Allow-Origin = %q, want unset", got)
		}
	})

	t.Run("short-circuits preflight requests", func(t *testing.T) {
		reached := false
		handler := CORS(nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			reached = true
		}))

		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, httptest.NewRequest(http.MethodOptions, "/", nil))

		if rr.Code != http.StatusNoContent {
			t.Errorf("status = %d, want 204", rr.Code)
		}
		if reached {
			t.Error("preflight request reached the inner handler")
		}
	})
}
