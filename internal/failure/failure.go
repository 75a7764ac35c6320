// Package failure defines the error taxonomy shared by the wallet, network and
// flow layers, and the one place where free-text wallet errors are mapped to
// a typed kind.
package failure

import (
	"errors"
	"fmt"
	"strings"
)

// Kind identifies a category of failure that a caller can act on.
type Kind int

const (
	KindUnknown Kind = iota
	KindValidation
	KindNoIncome
	KindBelowFloor
	KindDuplicate
	KindNotConnected
	KindNotInstalled
	KindUserRejected
	KindUnrecognizedResponse
	KindStaleRecord
	KindRecordUnavailable
	KindPermissionDenied
	KindNoBadge
	KindIneligible
	KindNetwork
	KindTimeout
	KindBusy
)

var kindNames = map[Kind]string{
	KindUnknown:              "unknown",
	KindValidation:           "validation_error",
	KindNoIncome:             "no_income_found",
	KindBelowFloor:           "income_below_floor",
	KindDuplicate:            "duplicate_email",
	KindNotConnected:         "wallet_not_connected",
	KindNotInstalled:         "wallet_not_installed",
	KindUserRejected:         "transaction_rejected",
	KindUnrecognizedResponse: "unrecognized_wallet_response",
	KindStaleRecord:          "stale_record",
	KindRecordUnavailable:    "record_unavailable",
	KindPermissionDenied:     "permission_denied",
	KindNoBadge:              "no_badge",
	KindIneligible:           "not_eligible",
	KindNetwork:              "network_error",
	KindTimeout:              "timeout",
	KindBusy:                 "operation_in_progress",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return kindNames[KindUnknown]
}

// Remedy is the recovery action offered to the user for a Kind.
type Remedy string

const (
	RemedyNone      Remedy = ""
	RemedyRetry     Remedy = "retry"
	RemedyReconnect Remedy = "reconnect"
	RemedyRefresh   Remedy = "refresh"
	RemedyInstall   Remedy = "install"
	RemedyReverify  Remedy = "reverify"
	RemedyWait      Remedy = "wait"
)

// Remedy returns the recovery action for the kind.
func (k Kind) Remedy() Remedy {
	switch k {
	case KindValidation, KindNoIncome, KindBelowFloor, KindUnknown, KindNetwork:
		return RemedyRetry
	case KindNotConnected, KindUnrecognizedResponse, KindPermissionDenied, KindRecordUnavailable:
		return RemedyReconnect
	case KindStaleRecord:
		return RemedyRefresh
	case KindNotInstalled:
		return RemedyInstall
	case KindNoBadge, KindDuplicate:
		return RemedyReverify
	case KindTimeout, KindBusy:
		return RemedyWait
	}
	return RemedyNone
}

// Error is a classified error. Message is safe to show to the user; Err keeps
// the underlying cause for logs.
type Error struct {
	Kind    Kind
	Op      string
	Message string
	Err     error
}

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	}
	if e.Op != "" {
		return fmt.Sprintf("%s: %s", e.Op, msg)
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// New returns a classified error with a user-facing message. An empty
// message falls back to the canned message for the kind.
func New(kind Kind, op, message string) *Error {
	if message == "" {
		message = messages[kind]
	}
	return &Error{Kind: kind, Op: op, Message: message}
}

// Wrap attaches a kind to err. The user-facing message defaults to the
// canned message for the kind, if any.
func Wrap(kind Kind, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Message: messages[kind], Err: err}
}

// KindOf returns the kind of the first *Error in err's chain, or KindUnknown.
func KindOf(err error) Kind {
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Kind
	}
	return KindUnknown
}

// Message returns the user-facing message for err.
func Message(err error) string {
	var fe *Error
	if errors.As(err, &fe) && fe.Message != "" {
		return fe.Message
	}
	if err == nil {
		return ""
	}
	return err.Error()
}

var messages = map[Kind]string{
	KindNotConnected:         "Wallet not connected. Please connect your wallet and try again.",
	KindNotInstalled:         "No wallet extension found. Please install Leo Wallet.",
	KindUserRejected:         "Transaction was rejected by wallet.",
	KindUnrecognizedResponse: "The wallet returned a response that could not be understood. Please reconnect your wallet.",
	KindStaleRecord:          "Your CreditBadge was already used in a previous transaction. Please refresh your records by reconnecting your wallet, or verify your income again to get a new badge.",
	KindRecordUnavailable:    "Your wallet cannot find the CreditBadge record. This can happen if: (1) The verify income transaction is still pending, (2) Your wallet needs to sync with the network. Try reconnecting or waiting a few minutes.",
	KindPermissionDenied:     "Wallet permission denied. Please reconnect with OnChainHistory permission to access your records.",
	KindNoBadge:              "No CreditBadge found. Please verify your income first on the Verify page, and wait for the transaction to confirm.",
}

// classification maps substrings of wallet error text to kinds. Order
// matters: the first matching rule wins.
var classification = []struct {
	needles []string
	kind    Kind
}{
	{[]string{"Unspent record not found", "record not found"}, KindStaleRecord},
	{[]string{"not a valid record type", "INVALID_PARAMS"}, KindRecordUnavailable},
	{[]string{"Permission Not Granted", "NOT_GRANTED"}, KindPermissionDenied},
	{[]string{"No CreditBadge found"}, KindNoBadge},
	{[]string{"Wallet not connected", "NOT_CONNECTED"}, KindNotConnected},
	{[]string{"User rejected", "user rejected", "denied by user", "Transaction was rejected"}, KindUserRejected},
	// The extension wraps most record failures in a generic message; in
	// practice these are spent records.
	{[]string{"unknown error", "Unknown error"}, KindStaleRecord},
}

// Classify maps an error from the wallet extension to a classified error.
// Errors that already carry a kind are returned unchanged. This is a
// best-effort heuristic over the extension's free-text messages, which offer
// no structured codes.
func Classify(op string, err error) *Error {
	if err == nil {
		return nil
	}
	var fe *Error
	if errors.As(err, &fe) {
		return fe
	}

	text := err.Error()
	for _, rule := range classification {
		for _, needle := range rule.needles {
			if strings.Contains(text, needle) {
				return Wrap(rule.kind, op, err)
			}
		}
	}
	return &Error{Kind: KindUnknown, Op: op, Message: text, Err: err}
}
