package network

import (
	"context"
	"encoding/json"
	"net/url"
	"time"

	"aura-protocol-go/internal/transaction"
)

// TxStatus is the confirmation state of a submitted transaction.
type TxStatus string

const (
	StatusConfirmed TxStatus = "confirmed"
	StatusRejected  TxStatus = "rejected"
	StatusPending   TxStatus = "pending"
	StatusTimeout   TxStatus = "timeout"
	StatusInvalid   TxStatus = "invalid"
)

// Transaction is the subset of an explorer transaction used for status.
type Transaction struct {
	ID     string          `json:"id"`
	Type   string          `json:"type"`
	Status string          `json:"status"`
	Raw    json.RawMessage `json:"-"`
}

// status classifies a fetched transaction. A deploy or execute type means it
// was included in a block.
func (t *Transaction) status() TxStatus {
	switch {
	case t.Type == "deploy" || t.Type == "execute":
		return StatusConfirmed
	case t.Status == "confirmed":
		return StatusConfirmed
	case t.Status == "rejected":
		return StatusRejected
	default:
		return StatusPending
	}
}

// GetTransaction fetches a transaction by id.
func (c *Client) GetTransaction(ctx context.Context, id string) (*Transaction, error) {
	body, err := c.get(ctx, "/transaction/"+url.PathEscape(id))
	if err != nil {
		return nil, err
	}
	var tx Transaction
	if err := json.Unmarshal(body, &tx); err != nil {
		return nil, err
	}
	tx.Raw = body
	return &tx, nil
}

// GetTransactionStatus returns the current status of id without waiting.
// Ids the ledger cannot resolve, and ids not found yet, are pending.
func (c *Client) GetTransactionStatus(ctx context.Context, id string) (TxStatus, error) {
	if id == "" {
		return StatusInvalid, nil
	}
	if !transaction.IsLedgerID(id) {
		return StatusPending, nil
	}
	tx, err := c.GetTransaction(ctx, id)
	if err != nil {
		c.logFields("transaction status").WithError(err).WithField("tx_id", id).Debug("Transaction not available yet")
		return StatusPending, nil
	}
	return tx.status(), nil
}

// WaitResult is the outcome of WaitForTransaction. Timeout and pending are
// results, not errors: confirmation latency is expected.
type WaitResult struct {
	ID          string       `json:"id"`
	Status      TxStatus     `json:"status"`
	Attempts    int          `json:"attempts"`
	Message     string       `json:"message,omitempty"`
	Transaction *Transaction `json:"-"`
}

// Success reports whether the transaction was confirmed.
func (r *WaitResult) Success() bool { return r.Status == StatusConfirmed }

// Pending reports whether the outcome is still unknown.
func (r *WaitResult) Pending() bool {
	return r.Status == StatusPending || r.Status == StatusTimeout
}

// WaitForTransaction polls for id up to maxAttempts times, interval apart.
// Ids without the ledger prefix return pending at once without any request.
// The only error is ctx's, returned together with the result so far.
func (c *Client) WaitForTransaction(ctx context.Context, id string, maxAttempts int, interval time.Duration) (*WaitResult, error) {
	log := c.logFields("wait for transaction").WithField("tx_id", id)

	if id == "" {
		return &WaitResult{Status: StatusInvalid, Message: "Invalid transaction ID"}, nil
	}
	if !transaction.IsLedgerID(id) {
		log.Warn("Transaction id is not a ledger id; cannot poll")
		return &WaitResult{
			ID:      id,
			Status:  StatusPending,
			Message: "Transaction submitted to wallet. Check your wallet for status.",
		}, nil
	}

	result := &WaitResult{ID: id, Status: StatusTimeout, Message: "Transaction timeout"}
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		result.Attempts = attempt

		tx, err := c.GetTransaction(ctx, id)
		if err == nil {
			switch tx.status() {
			case StatusConfirmed:
				log.Info("Transaction confirmed")
				result.Status, result.Message, result.Transaction = StatusConfirmed, "", tx
				return result, nil
			case StatusRejected:
				log.Warn("Transaction rejected")
				result.Status, result.Message, result.Transaction = StatusRejected, "Transaction rejected", tx
				return result, nil
			}
		}

		if attempt == maxAttempts {
			break
		}
		timer := time.NewTimer(interval)
		select {
		case <-ctx.Done():
			timer.Stop()
			result.Status, result.Message = StatusPending, "Polling cancelled"
			return result, ctx.Err()
		case <-timer.C:
		}
	}

	log.WithField("attempts", result.Attempts).Info("Transaction not confirmed before timeout")
	return result, nil
}
