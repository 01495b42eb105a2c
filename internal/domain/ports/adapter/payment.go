package adapter

import "context"

// QRGateway is the hex port for the external QR payment provider.
//
// Implementations classify failures into domain.ErrProviderUnavailable
// (transport errors, timeouts, provider 5xx) and
// domain.ErrProviderMalformedResponse (2xx with an undecodable or empty
// payload), and never touch the session store.
type QRGateway interface {
	Name() string

	// CreateQR requests a dynamic QR code for the given amount. externalID is
	// our correlation id; the provider echoes it back on the callback.
	CreateQR(ctx context.Context, externalID string, amount int64, callbackURL string) (qrPayload string, err error)

	// QRStatus pulls the provider-side status of a previously created QR
	// payment. Used by the reconciler when callbacks were lost.
	QRStatus(ctx context.Context, externalID string) (status string, err error)
}
