package web

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"qris-payment-service/internal/domain"
	"qris-payment-service/internal/domain/model"
	"qris-payment-service/internal/infra/logging"
	"qris-payment-service/internal/infra/metrics"
)

type createRequest struct {
	Amount int64 `json:"amount"`
}

type createResponse struct {
	ExternalID string `json:"external_id"`
	QRString   string `json:"qr_string"`
	Amount     int64  `json:"amount"`
}

type statusResponse struct {
	ExternalID string `json:"external_id"`
	Status     string `json:"status"`
}

// callbackRequest is the provider-pushed payload. Both fields are required.
type callbackRequest struct {
	ExternalID string `json:"external_id"`
	Status     string `json:"status"`
}

type callbackResponse struct {
	Status string `json:"status"` // "success" | "error"
}

func writeJSON(w http.ResponseWriter, code int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]string{"error": msg})
}

func (s *Server) handleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req createRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	sess, err := s.sessionUC.Create(ctx, req.Amount)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrInvalidAmount):
			writeError(w, http.StatusBadRequest, err.Error())
		case errors.Is(err, domain.ErrProviderUnavailable),
			errors.Is(err, domain.ErrProviderMalformedResponse):
			// User-visible "try again"; we do not retry the provider ourselves.
			writeError(w, http.StatusBadGateway, "payment provider unavailable, please try again")
		default:
			writeError(w, http.StatusInternalServerError, "failed to create payment session")
		}
		return
	}

	writeJSON(w, http.StatusCreated, createResponse{
		ExternalID: sess.ExternalID,
		QRString:   sess.QRPayload,
		Amount:     sess.Amount,
	})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	externalID := chi.URLParam(r, "externalID")

	status, err := s.sessionUC.Status(ctx, externalID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			writeError(w, http.StatusNotFound, "unknown payment session")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to query payment session")
		return
	}

	writeJSON(w, http.StatusOK, statusResponse{ExternalID: externalID, Status: string(status)})
}

// handleCallback receives asynchronous status pushes from the provider. The
// route is public, so the shared callback token is verified before the payload
// is trusted; a forged completion is the worst failure mode of this service.
func (s *Server) handleCallback(w http.ResponseWriter, r *http.Request) {
	log := logging.With(r.Context(), s.log)

	if !s.verifier.VerifyCallbackToken(r) {
		metrics.IncCallback("rejected")
		log.Warn().Str("remote", r.RemoteAddr).Msg("callback with invalid token rejected")
		writeJSON(w, http.StatusUnauthorized, callbackResponse{Status: "error"})
		return
	}

	var req callbackRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		metrics.IncCallback("rejected")
		writeJSON(w, http.StatusBadRequest, callbackResponse{Status: "error"})
		return
	}
	if req.ExternalID == "" || req.Status == "" {
		metrics.IncCallback("rejected")
		writeJSON(w, http.StatusBadRequest, callbackResponse{Status: "error"})
		return
	}

	status, ok := model.ParseSessionStatus(req.Status)
	if !ok || !status.IsTerminal() {
		metrics.IncCallback("rejected")
		log.Warn().Str("external_id", req.ExternalID).Str("status", req.Status).Msg("callback with unknown status")
		writeJSON(w, http.StatusBadRequest, callbackResponse{Status: "error"})
		return
	}

	res, err := s.sessionUC.Reconcile(r.Context(), req.ExternalID, status)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			// An id we never issued; surfacing 404 lets genuine delivery bugs
			// show up instead of being silently swallowed.
			metrics.IncCallback("unknown")
			log.Warn().Str("external_id", req.ExternalID).Msg("callback for unknown session")
			writeJSON(w, http.StatusNotFound, callbackResponse{Status: "error"})
			return
		}
		metrics.IncCallback("error")
		writeJSON(w, http.StatusInternalServerError, callbackResponse{Status: "error"})
		return
	}

	// Duplicates and late deliveries ack with 200 so the provider stops
	// retrying.
	if res.Applied {
		metrics.IncCallback("acked")
	} else {
		metrics.IncCallback("duplicate")
	}
	writeJSON(w, http.StatusOK, callbackResponse{Status: "success"})
}
