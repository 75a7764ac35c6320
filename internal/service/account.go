package service

import (
	"context"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"aura-protocol-go/internal/failure"
	"aura-protocol-go/internal/mailbox"
	"aura-protocol-go/internal/model"
	"aura-protocol-go/internal/network"
	"aura-protocol-go/internal/store"
	"aura-protocol-go/internal/transaction"
	"aura-protocol-go/internal/wallet"
)

// Connect opens a wallet session and loads the account's records. A failed
// record load does not fail the connection.
func (s *Service) Connect(ctx context.Context) (wallet.Status, error) {
	status, err := s.wallet.Connect(ctx)
	if err != nil {
		return status, err
	}
	s.refreshAfter(ctx)
	return status, nil
}

// Disconnect ends the wallet session. User data is cleared by the
// gateway's disconnect hook.
func (s *Service) Disconnect(ctx context.Context) error {
	return s.wallet.Disconnect(ctx)
}

// Reconnect re-grants wallet permissions and reloads records.
func (s *Service) Reconnect(ctx context.Context) (wallet.Status, error) {
	status, err := s.wallet.Reconnect(ctx)
	if err != nil {
		return status, err
	}
	s.refreshAfter(ctx)
	return status, nil
}

// WalletStatus returns the wallet session state.
func (s *Service) WalletStatus() wallet.Status {
	return s.wallet.Status()
}

// Refresh rebuilds badges and loans from the wallet's records.
func (s *Service) Refresh(ctx context.Context) ([]store.Badge, error) {
	records, err := s.wallet.RequestRecords(ctx, s.builder.ProgramID)
	if err != nil {
		return nil, err
	}

	badges, _ := s.store.ApplyRecords(records)
	s.metrics.RecordRefreshes.Inc()

	active := 0
	for _, b := range badges {
		if b.IsActive {
			active++
		}
	}
	s.metrics.ActiveBadges.Set(float64(active))
	return badges, nil
}

// Balance returns the public balance of the connected account. Explorer
// failures read as zero so the rest of the page keeps working.
func (s *Service) Balance(ctx context.Context) (decimal.Decimal, error) {
	address, err := s.requireAddress("get balance")
	if err != nil {
		return decimal.Zero, err
	}

	balance, err := s.chain.GetBalance(ctx, address)
	if err != nil {
		logrus.WithFields(logrus.Fields{
			"component": "service",
			"address":   network.FormatAddress(address, 10, 6),
		}).WithError(err).Warn("Failed to fetch balance")
		return decimal.Zero, nil
	}
	return balance, nil
}

// Sign signs message with the connected account.
func (s *Service) Sign(ctx context.Context, message string) (string, error) {
	if message == "" {
		return "", failure.New(failure.KindValidation, "sign message", "Message must not be empty.")
	}
	return s.wallet.SignMessage(ctx, message)
}

// Transactions returns the local transaction history, newest first.
func (s *Service) Transactions() []store.TxEntry {
	return s.store.Transactions()
}

// TransactionStatus checks the ledger once for id and records a final
// outcome.
func (s *Service) TransactionStatus(ctx context.Context, id string) (network.TxStatus, error) {
	status, err := s.chain.GetTransactionStatus(ctx, id)
	if err != nil {
		return network.StatusPending, err
	}
	if status == network.StatusConfirmed || status == network.StatusRejected {
		if s.store.UpdateTransactionStatus(id, string(status)) {
			s.updateSubmission(id, &network.WaitResult{ID: id, Status: status})
		}
	}
	return status, nil
}

// Submissions returns the persisted submission log.
func (s *Service) Submissions(action string, limit int) ([]model.SubmissionLog, error) {
	return s.repo.ListSubmissions(action, limit)
}

// Fees returns the fee of each program function.
func (s *Service) Fees() map[string]string {
	out := make(map[string]string, len(transaction.Fees))
	for fn, fee := range transaction.Fees {
		out[fn] = transaction.FormatFee(fee)
	}
	return out
}

// MailboxEnabled reports whether messages can be fetched from a mailbox.
func (s *Service) MailboxEnabled() bool {
	return s.mailbox != nil
}

// SearchMailbox lists candidate income emails.
func (s *Service) SearchMailbox(ctx context.Context, query string, limit int) ([]mailbox.Message, error) {
	if s.mailbox == nil {
		return nil, failure.New(failure.KindValidation, "search mailbox", "Mailbox access is not configured.")
	}
	messages, err := s.mailbox.Search(ctx, query, limit)
	if err != nil {
		return nil, failure.Wrap(failure.KindNetwork, "search mailbox", err)
	}
	return messages, nil
}
