package httpx

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

type paveBody struct {
	URL      string `json:"url"`
	Lifetime int    `json:"lifetime,omitempty"`
}

func newJSONRequest(t *testing.T, body string) *http.Request {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/pave", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func TestDecodeJSON(t *testing.T) {
	t.Run("decodes a valid body", func(t *testing.T) {
		req := newJSONRequest(t, `{"url":"https://example.com/","lifetime":24}`)

		got, err := DecodeJSON[paveBody](req)
		if err != nil {
			t.Fatalf("DecodeJSON() unexpected error: %v", err)
		}
		if got.URL != "https://example.com/" {
			t.Errorf("URL = %q", got.URL)
		}
		if got.Lifetime != 24 {
			t.Errorf("Lifetime = %d, want 24", got.Lifetime)
		}
	})

	t.Run("rejects empty body", func(t *testing.T) {
		req := newJSONRequest(t, "")

		_, err := DecodeJSON[paveBody](req)
		if err == nil {
			t.Fatal("DecodeJSON() expected error for empty body")
		}
		if err.Error() != "request body is empty" {
			t.Errorf("error = %q", err.Error())
		}
	})

	t.Run("rejects malformed JSON", func(t *testing.T) {
		req := newJSONRequest(t, `{"url": "https://example.com/"`)

		if _, err := DecodeJSON[paveBody](req); err == nil {
			t.Fatal("DecodeJSON() expected error for malformed JSON")
		}
	})

	t.Run("rejects wrong field type", func(t *testing.T) {
		req := newJSONRequest(t, `{"url":"https://example.com/","lifetime":"24"}`)

		_, err := DecodeJSON[paveBody](req)
		if err == nil {
			t.Fatal("DecodeJSON() expected error for wrong field type")
		}
		if !strings.Contains(err.Error(), "lifetime") {
			t.Errorf("error should name the field, got %q", err.Error())
		}
	})

	t.Run("rejects unknown fields", func(t *testing.T) {
		req := newJSONRequest(t, `{"url":"https://example.com/","bogus":true}`)

		if _, err := DecodeJSON[paveBody](req); err == nil {
			t.Fatal("DecodeJSON() expected error for unknown field")
		}
	})

	t.Run("rejects trailing JSON objects", func(t *testing.T) {
		req := newJSONRequest(t, `{"url":"a"}{"url":"b"}`)

		_, err := DecodeJSON[paveBody](req)
		if err == nil {
			t.Fatal("DecodeJSON() expected error for multiple objects")
		}
		if err.Error() != "request body contains multiple JSON objects" {
			t.Errorf("error = %q", err.Error())
		}
	})

	t.Run("rejects oversized body", func(t *testing.T) {
		big := `{"url":"` + strings.Repeat("x", MaxRequestBodySize) + `"}`
		req := newJSONRequest(t, big)

		_, err := DecodeJSON[paveBody](req)
		if err == nil {
			t.Fatal("DecodeJSON() expected error for oversized body")
		}
		if !strings.Contains(err.Error(), "too large") {
			t.Errorf("error = %q", err.Error())
		}
	})
}
