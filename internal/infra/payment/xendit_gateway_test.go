//go:build !integration

package payment

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"qris-payment-service/internal/domain"
	"qris-payment-service/internal/domain/model"
)

func newTestGateway(baseURL string) *XenditGateway {
	return NewXenditGateway("xnd_test_secret", baseURL, "cbtoken", 2*time.Second)
}

func TestXenditGateway_CreateQR(t *testing.T) {
	ctx := context.Background()

	t.Run("success decodes qr_string and sends the wire format", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodPost || r.URL.Path != "/qr_codes" {
				t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
			}
			user, _, ok := r.BasicAuth()
			if !ok || user != "xnd_test_secret" {
				t.Errorf("expected basic auth with the secret key, got user %q", user)
			}

			var body map[string]interface{}
			if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
				t.Fatalf("decode request body: %v", err)
			}
			if body["external_id"] != "QRIS-1000" {
				t.Errorf("external_id = %v", body["external_id"])
			}
			if body["type"] != "DYNAMIC" {
				t.Errorf("type = %v", body["type"])
			}
			if body["callback_url"] != "https://pay.example.com/webhook/xendit" {
				t.Errorf("callback_url = %v", body["callback_url"])
			}
			if body["amount"] != float64(15000) {
				t.Errorf("amount = %v", body["amount"])
			}

			w.WriteHeader(http.StatusCreated)
			_ = json.NewEncoder(w).Encode(map[string]string{
				"id": "qr-abc", "external_id": "QRIS-1000", "qr_string": "QR123", "status": "ACTIVE",
			})
		}))
		defer srv.Close()

		qr, err := newTestGateway(srv.URL).CreateQR(ctx, "QRIS-1000", 15000, "https://pay.example.com/webhook/xendit")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if qr != "QR123" {
			t.Errorf("expected QR123, got %q", qr)
		}
	})

	t.Run("transport failure is ProviderUnavailable", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
		srv.Close() // refuse connections

		_, err := newTestGateway(srv.URL).CreateQR(ctx, "QRIS-1", 15000, "cb")
		if !errors.Is(err, domain.ErrProviderUnavailable) {
			t.Fatalf("expected ErrProviderUnavailable, got %v", err)
		}
	})

	t.Run("provider 5xx is ProviderUnavailable", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "upstream exploded", http.StatusBadGateway)
		}))
		defer srv.Close()

		_, err := newTestGateway(srv.URL).CreateQR(ctx, "QRIS-1", 15000, "cb")
		if !errors.Is(err, domain.ErrProviderUnavailable) {
			t.Fatalf("expected ErrProviderUnavailable, got %v", err)
		}
	})

	t.Run("provider 4xx is ProviderMalformedResponse", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, `{"error_code":"API_VALIDATION_ERROR"}`, http.StatusBadRequest)
		}))
		defer srv.Close()

		_, err := newTestGateway(srv.URL).CreateQR(ctx, "QRIS-1", 15000, "cb")
		if !errors.Is(err, domain.ErrProviderMalformedResponse) {
			t.Fatalf("expected ErrProviderMalformedResponse, got %v", err)
		}
	})

	t.Run("2xx with undecodable body is ProviderMalformedResponse", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte("<html>not json</html>"))
		}))
		defer srv.Close()

		_, err := newTestGateway(srv.URL).CreateQR(ctx, "QRIS-1", 15000, "cb")
		if !errors.Is(err, domain.ErrProviderMalformedResponse) {
			t.Fatalf("expected ErrProviderMalformedResponse, got %v", err)
		}
	})

	t.Run("2xx with empty qr_string is ProviderMalformedResponse", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_ = json.NewEncoder(w).Encode(map[string]string{"id": "qr-abc", "status": "ACTIVE"})
		}))
		defer srv.Close()

		_, err := newTestGateway(srv.URL).CreateQR(ctx, "QRIS-1", 15000, "cb")
		if !errors.Is(err, domain.ErrProviderMalformedResponse) {
			t.Fatalf("expected ErrProviderMalformedResponse, got %v", err)
		}
	})
}

func TestXenditGateway_QRStatus(t *testing.T) {
	ctx := context.Background()

	t.Run("success returns provider status", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/qr_codes/QRIS-1000" {
				t.Errorf("unexpected path %s", r.URL.Path)
			}
			_ = json.NewEncoder(w).Encode(map[string]string{
				"id": "qr-abc", "external_id": "QRIS-1000", "qr_string": "QR123", "status": "COMPLETED",
			})
		}))
		defer srv.Close()

		status, err := newTestGateway(srv.URL).QRStatus(ctx, "QRIS-1000")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if status != "COMPLETED" {
			t.Errorf("expected COMPLETED, got %q", status)
		}
	})

	t.Run("404 is NotFound", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, `{"error_code":"QR_CODE_NOT_FOUND_ERROR"}`, http.StatusNotFound)
		}))
		defer srv.Close()

		_, err := newTestGateway(srv.URL).QRStatus(ctx, "QRIS-missing")
		if !errors.Is(err, domain.ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	})
}

func TestXenditGateway_VerifyCallbackToken(t *testing.T) {
	gw := newTestGateway("http://unused")

	req := httptest.NewRequest(http.MethodPost, "/webhook/xendit", nil)
	req.Header.Set("x-callback-token", "cbtoken")
	if !gw.VerifyCallbackToken(req) {
		t.Error("expected matching token to verify")
	}

	req.Header.Set("x-callback-token", "forged")
	if gw.VerifyCallbackToken(req) {
		t.Error("expected mismatched token to fail")
	}

	req.Header.Del("x-callback-token")
	if gw.VerifyCallbackToken(req) {
		t.Error("expected missing token to fail")
	}

	// Empty configured token skips the check (dev only).
	dev := NewXenditGateway("key", "http://unused", "", time.Second)
	if !dev.VerifyCallbackToken(req) {
		t.Error("expected empty configured token to pass")
	}
}

func TestMapProviderStatus(t *testing.T) {
	cases := []struct {
		raw      string
		want     model.SessionStatus
		terminal bool
	}{
		{"COMPLETED", model.SessionStatusCompleted, true},
		{"SUCCEEDED", model.SessionStatusCompleted, true},
		{"PAID", model.SessionStatusCompleted, true},
		{"FAILED", model.SessionStatusFailed, true},
		{"EXPIRED", model.SessionStatusExpired, true},
		{"INACTIVE", model.SessionStatusExpired, true},
		{"ACTIVE", "", false},
		{"", "", false},
	}
	for _, tc := range cases {
		got, ok := MapProviderStatus(tc.raw)
		if ok != tc.terminal || got != tc.want {
			t.Errorf("MapProviderStatus(%q) = (%q, %v), want (%q, %v)", tc.raw, got, ok, tc.want, tc.terminal)
		}
	}
}
