package payment

import (
	"bytes"
	"context"
	"crypto/subtle"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"qris-payment-service/internal/domain"
	"qris-payment-service/internal/domain/ports/adapter"
	"qris-payment-service/internal/infra/metrics"
)

const defaultBaseURL = "https://api.xendit.co"

var _ adapter.QRGateway = (*XenditGateway)(nil)

// XenditGateway implements adapter.QRGateway against the Xendit QR Codes API.
// It classifies failures into domain.ErrProviderUnavailable and
// domain.ErrProviderMalformedResponse so callers can decide retry policy; it
// never writes to the session store.
type XenditGateway struct {
	secretKey     string
	baseURL       string
	callbackToken string
	client        *http.Client
}

func NewXenditGateway(secretKey, baseURL, callbackToken string, timeout time.Duration) *XenditGateway {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &XenditGateway{
		secretKey:     secretKey,
		baseURL:       baseURL,
		callbackToken: callbackToken,
		client:        &http.Client{Timeout: timeout},
	}
}

func (g *XenditGateway) Name() string { return "xendit" }

type xenditQRResponse struct {
	ID         string `json:"id"`
	ExternalID string `json:"external_id"`
	QRString   string `json:"qr_string"`
	Status     string `json:"status"`
}

// CreateQR requests a dynamic QR code tied to our external id.
func (g *XenditGateway) CreateQR(ctx context.Context, externalID string, amount int64, callbackURL string) (string, error) {
	body := map[string]interface{}{
		"external_id":  externalID,
		"type":         "DYNAMIC",
		"callback_url": callbackURL,
		"amount":       amount,
	}
	jsonBody, err := json.Marshal(body)
	if err != nil {
		return "", fmt.Errorf("marshal qr request: %w", err)
	}

	start := time.Now()
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+"/qr_codes", bytes.NewBuffer(jsonBody))
	if err != nil {
		return "", fmt.Errorf("build qr request: %w", err)
	}
	req.SetBasicAuth(g.secretKey, "")
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.client.Do(req)
	if err != nil {
		metrics.ObserveProviderCall("create_qr", "unavailable", time.Since(start).Milliseconds())
		return "", fmt.Errorf("%w: %v", domain.ErrProviderUnavailable, err)
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		metrics.ObserveProviderCall("create_qr", "unavailable", time.Since(start).Milliseconds())
		return "", fmt.Errorf("%w: read response: %v", domain.ErrProviderUnavailable, err)
	}

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		outcome := "unavailable"
		kind := domain.ErrProviderUnavailable
		if resp.StatusCode >= 400 && resp.StatusCode < 500 {
			// Provider understood us and said no; treat as malformed exchange,
			// not an outage.
			outcome = "malformed"
			kind = domain.ErrProviderMalformedResponse
		}
		metrics.ObserveProviderCall("create_qr", outcome, time.Since(start).Milliseconds())
		return "", fmt.Errorf("%w: status %d: %s", kind, resp.StatusCode, string(bodyBytes))
	}

	var res xenditQRResponse
	if err := json.Unmarshal(bodyBytes, &res); err != nil {
		metrics.ObserveProviderCall("create_qr", "malformed", time.Since(start).Milliseconds())
		return "", fmt.Errorf("%w: decode: %v", domain.ErrProviderMalformedResponse, err)
	}
	if res.QRString == "" {
		metrics.ObserveProviderCall("create_qr", "malformed", time.Since(start).Milliseconds())
		return "", fmt.Errorf("%w: empty qr_string", domain.ErrProviderMalformedResponse)
	}

	metrics.ObserveProviderCall("create_qr", "ok", time.Since(start).Milliseconds())
	return res.QRString, nil
}

// QRStatus pulls the provider-side QR status by external id.
func (g *XenditGateway) QRStatus(ctx context.Context, externalID string) (string, error) {
	start := time.Now()
	url := fmt.Sprintf("%s/qr_codes/%s", g.baseURL, externalID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("build status request: %w", err)
	}
	req.SetBasicAuth(g.secretKey, "")

	resp, err := g.client.Do(req)
	if err != nil {
		metrics.ObserveProviderCall("qr_status", "unavailable", time.Since(start).Milliseconds())
		return "", fmt.Errorf("%w: %v", domain.ErrProviderUnavailable, err)
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		metrics.ObserveProviderCall("qr_status", "unavailable", time.Since(start).Milliseconds())
		return "", fmt.Errorf("%w: read response: %v", domain.ErrProviderUnavailable, err)
	}
	if resp.StatusCode == http.StatusNotFound {
		metrics.ObserveProviderCall("qr_status", "malformed", time.Since(start).Milliseconds())
		return "", fmt.Errorf("%w: qr code not found", domain.ErrNotFound)
	}
	if resp.StatusCode != http.StatusOK {
		metrics.ObserveProviderCall("qr_status", "unavailable", time.Since(start).Milliseconds())
		return "", fmt.Errorf("%w: status %d: %s", domain.ErrProviderUnavailable, resp.StatusCode, string(bodyBytes))
	}

	var res xenditQRResponse
	if err := json.Unmarshal(bodyBytes, &res); err != nil {
		metrics.ObserveProviderCall("qr_status", "malformed", time.Since(start).Milliseconds())
		return "", fmt.Errorf("%w: decode: %v", domain.ErrProviderMalformedResponse, err)
	}
	if res.Status == "" {
		metrics.ObserveProviderCall("qr_status", "malformed", time.Since(start).Milliseconds())
		return "", fmt.Errorf("%w: empty status", domain.ErrProviderMalformedResponse)
	}

	metrics.ObserveProviderCall("qr_status", "ok", time.Since(start).Milliseconds())
	return res.Status, nil
}

// VerifyCallbackToken checks the x-callback-token header Xendit sends with
// webhooks. The callback endpoint is public; the payload must not be trusted
// before this check passes. An empty configured token only passes in dev
// setups and callers should refuse to start in that state in production.
func (g *XenditGateway) VerifyCallbackToken(r *http.Request) bool {
	if g.callbackToken == "" {
		return true
	}
	got := r.Header.Get("x-callback-token")
	return subtle.ConstantTimeCompare([]byte(got), []byte(g.callbackToken)) == 1
}
