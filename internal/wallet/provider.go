// Package wallet wraps an injected wallet provider behind a small state
// machine and normalizes the loosely shaped values providers return.
package wallet

import (
	"context"

	"aura-protocol-go/internal/transaction"
)

// Provider is the injected wallet object. A provider may support any subset
// of the capability interfaces below; the gateway discovers them with type
// assertions and tolerates the rest being absent. A nil Provider means no
// wallet extension is installed.
//
// Results are returned as decoded JSON (string, map[string]any, []any)
// because providers disagree on their shapes.
type Provider any

// ConnectOptions are the arguments of a connect request. The zero value asks
// the provider to connect with its own defaults.
type ConnectOptions struct {
	DecryptPermission string
	Network           string
	Programs          []string
}

// Connector can open a session.
type Connector interface {
	Connect(ctx context.Context, opts ConnectOptions) (any, error)
}

// AccessRequester is the alternate connect call some providers expose.
type AccessRequester interface {
	RequestAccess(ctx context.Context) (any, error)
}

// Disconnector can close a session.
type Disconnector interface {
	Disconnect(ctx context.Context) error
}

// TransactionRequester signs and broadcasts a transaction request.
type TransactionRequester interface {
	RequestTransaction(ctx context.Context, req *transaction.Request) (any, error)
}

// RecordRequester lists the records a program has issued to the account.
type RecordRequester interface {
	RequestRecords(ctx context.Context, programID string) (any, error)
}

// PlaintextRequester lists decrypted record plaintexts.
type PlaintextRequester interface {
	RequestRecordPlaintexts(ctx context.Context, programID string) (any, error)
}

// MessageSigner signs arbitrary bytes with the account key.
type MessageSigner interface {
	SignMessage(ctx context.Context, message []byte) (any, error)
}

// PublicKeyHolder exposes the provider's publicKey property.
type PublicKeyHolder interface {
	PublicKey() string
}

// AddressHolder exposes the provider's address property.
type AddressHolder interface {
	Address() string
}

// AccountSelector returns the account currently selected in the wallet.
type AccountSelector interface {
	GetSelectedAccount(ctx context.Context) (any, error)
}

// Wallet events.
const (
	EventAccountChange = "accountChange"
	EventDisconnect    = "disconnect"
)

// EventSource delivers wallet events to handlers.
type EventSource interface {
	On(event string, handler func(payload any))
}
