package payment

import "qris-payment-service/internal/domain/model"

// MapProviderStatus translates a provider-side QR status into a domain status.
// The second return is false for states that carry no terminal meaning for us
// (e.g. the QR is still ACTIVE and awaiting payment).
func MapProviderStatus(raw string) (model.SessionStatus, bool) {
	switch raw {
	case "COMPLETED", "SUCCEEDED", "PAID":
		return model.SessionStatusCompleted, true
	case "FAILED":
		return model.SessionStatusFailed, true
	case "EXPIRED", "INACTIVE":
		return model.SessionStatusExpired, true
	}
	return "", false
}
