package platform

import (
	"errors"
	"fmt"
)

// ErrIgnorablePayload marks webhook payloads that are structurally
// valid for the platform but carry nothing to ingest, such as edited
// message notifications or delivery receipts. Handlers acknowledge
// these without touching storage.
var ErrIgnorablePayload = errors.New("payload carries no ingestible message")

// ValidationError reports malformed caller input.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// DeliveryError wraps transient outbound failures: timeouts, network
// errors, platform 5xx responses. The caller may retry.
type DeliveryError struct {
	Platform Type
	Err      error
}

func (e *DeliveryError) Error() string {
	return fmt.Sprintf("%s delivery failed: %v", e.Platform, e.Err)
}

func (e *DeliveryError) Unwrap() error { return e.Err }

func (e *DeliveryError) Retryable() bool { return true }

// RejectedError wraps permanent outbound failures where the platform
// refused the message, such as a revoked token or a chat the bot was
// kicked from. Retrying the same send will not help.
type RejectedError struct {
	Platform Type
	Code     int
	Err      error
}

func (e *RejectedError) Error() string {
	return fmt.Sprintf("%s rejected message (code %d): %v", e.Platform, e.Code, e.Err)
}

func (e *RejectedError) Unwrap() error { return e.Err }

func (e *RejectedError) Retryable() bool { return false }
