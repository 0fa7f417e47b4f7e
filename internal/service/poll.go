package service

import (
	"time"

	"github.com/sebestral-solio/elip-pos-sub000/internal/provider"
)

// PollOutcome tells a polling client what to do next.
type PollOutcome int

const (
	KeepPolling PollOutcome = iota
	TerminalSuccess
	TerminalFailure
)

// Provider error codes that mean the presentment will never complete, so the
// poller should stop immediately instead of waiting out the threshold.
var fatalIntentErrors = map[string]bool{
	"card_declined":        true,
	"expired_card":         true,
	"reader_timeout":       true,
	"reader_offline":       true,
	"intent_invalid_state": true,
}

// derivePollOutcome is the poll-stop heuristic as a pure function of the
// provider status and how long the transaction has sat in it. Elapsed time is
// a parameter so tests never depend on the wall clock. stuckThreshold is the
// configured wait in requires_payment_method before the transaction is
// reported as never going to succeed.
func derivePollOutcome(status, lastErrorCode string, elapsedInState, stuckThreshold time.Duration) PollOutcome {
	switch status {
	case provider.IntentStatusSucceeded:
		return TerminalSuccess
	case provider.IntentStatusCanceled:
		return TerminalFailure
	case provider.IntentStatusRequiresPaymentMethod:
		if fatalIntentErrors[lastErrorCode] {
			return TerminalFailure
		}
		if stuckThreshold > 0 && elapsedInState >= stuckThreshold {
			return TerminalFailure
		}
		return KeepPolling
	default:
		// requires_confirmation, requires_capture, processing: in flight.
		return KeepPolling
	}
}
