package platform

import "context"

// Adapter translates between one platform's wire format and the
// canonical message types. Implementations must be safe for
// concurrent use; the registry hands out a single instance per
// platform.
type Adapter interface {
	// Type reports the platform this adapter serves.
	Type() Type

	// ParseInbound converts a raw webhook body into a canonical
	// message. It returns ErrIgnorablePayload for well-formed
	// payloads that contain nothing to ingest and a ValidationError
	// for bodies that do not parse at all.
	ParseInbound(payload []byte) (InboundMessage, error)

	// SendOutbound delivers msg using creds and returns the
	// platform's echo of the delivered message in canonical form, so
	// the caller can record it exactly as a webhook would have.
	// Failures are classified as *DeliveryError or *RejectedError.
	SendOutbound(ctx context.Context, creds Credentials, msg OutboundMessage) (InboundMessage, error)
}
