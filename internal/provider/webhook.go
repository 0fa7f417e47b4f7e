package provider

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
)

// ErrBadSignature is returned when the webhook signature does not verify.
var ErrBadSignature = errors.New("webhook signature mismatch")

// SignatureHeader carries the hex HMAC-SHA256 of the raw request body.
const SignatureHeader = "X-Provider-Signature"

// EventKind is the closed set of webhook event categories this service
// reacts to. Unrecognized provider types map to EventUnknown and are only
// logged.
type EventKind string

const (
	EventTerminalActionSucceeded EventKind = "terminal.action_succeeded"
	EventPaymentSucceeded        EventKind = "payment_intent.succeeded"
	EventChargeSucceeded         EventKind = "charge.succeeded"
	EventPaymentFailed           EventKind = "payment_intent.payment_failed"
	EventPaymentCanceled         EventKind = "payment_intent.canceled"
	EventUnknown                 EventKind = "unknown"
)

var eventKinds = map[string]EventKind{
	"terminal.action_succeeded":     EventTerminalActionSucceeded,
	"payment_intent.succeeded":      EventPaymentSucceeded,
	"charge.succeeded":              EventChargeSucceeded,
	"payment_intent.payment_failed": EventPaymentFailed,
	"payment_intent.canceled":       EventPaymentCanceled,
}

// Event is the webhook envelope. The payload object is only a trigger; the
// handler re-fetches the transaction before acting on it.
type Event struct {
	ID      string `json:"id"`
	Type    string `json:"type"`
	Created int64  `json:"created"`
	Data    struct {
		Object EventObject `json:"object"`
	} `json:"data"`
}

// EventObject is the subset of the embedded object the service reads.
// Terminal action events reference the intent indirectly; payment and charge
// events carry it as the object id or a back-reference.
type EventObject struct {
	ID            string `json:"id"`
	Status        string `json:"status,omitempty"`
	PaymentIntent string `json:"payment_intent,omitempty"`
	Action        struct {
		Type          string `json:"type,omitempty"`
		PaymentIntent string `json:"payment_intent,omitempty"`
		Status        string `json:"status,omitempty"`
	} `json:"action,omitempty"`
}

// Kind maps the provider's type string onto the closed event set.
func (e *Event) Kind() EventKind {
	if k, ok := eventKinds[e.Type]; ok {
		return k
	}
	return EventUnknown
}

// IntentID resolves the transaction id the event refers to, whichever field
// the provider put it in.
func (e *Event) IntentID() string {
	if e.Data.Object.Action.PaymentIntent != "" {
		return e.Data.Object.Action.PaymentIntent
	}
	if e.Data.Object.PaymentIntent != "" {
		return e.Data.Object.PaymentIntent
	}
	return e.Data.Object.ID
}

// VerifySignature checks the signature header against the raw body. It must
// run before the payload is parsed or any event branch executes.
func VerifySignature(payload []byte, signature, secret string) error {
	if signature == "" {
		return ErrBadSignature
	}
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)
	expected := hex.EncodeToString(mac.Sum(nil))
	if !hmac.Equal([]byte(expected), []byte(signature)) {
		return ErrBadSignature
	}
	return nil
}

// Sign computes the signature for a payload. Used by tests and local tooling.
func Sign(payload []byte, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)
	return hex.EncodeToString(mac.Sum(nil))
}

// ParseEvent decodes a verified payload into the event envelope.
func ParseEvent(payload []byte) (*Event, error) {
	var evt Event
	if err := json.Unmarshal(payload, &evt); err != nil {
		return nil, fmt.Errorf("parse webhook event: %w", err)
	}
	if evt.Type == "" {
		return nil, errors.New("webhook event missing type")
	}
	return &evt, nil
}
