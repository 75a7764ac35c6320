// Package service runs the user-facing flows: income verification and the
// lending actions. Each flow validates locally, builds a transaction, hands
// it to the wallet, waits for the ledger and then refreshes state from the
// wallet's records.
package service

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"aura-protocol-go/internal/config"
	"aura-protocol-go/internal/failure"
	"aura-protocol-go/internal/mailbox"
	"aura-protocol-go/internal/metrics"
	"aura-protocol-go/internal/model"
	"aura-protocol-go/internal/network"
	"aura-protocol-go/internal/store"
	"aura-protocol-go/internal/transaction"
	"aura-protocol-go/internal/wallet"
)

// Wallet is the wallet session used by the flows. *wallet.Gateway
// implements it.
type Wallet interface {
	Status() wallet.Status
	Address() string
	Connect(ctx context.Context) (wallet.Status, error)
	Disconnect(ctx context.Context) error
	Reconnect(ctx context.Context) (wallet.Status, error)
	RequestTransaction(ctx context.Context, req *transaction.Request) (string, error)
	RequestRecords(ctx context.Context, programID string) ([]wallet.Record, error)
	RequestRecordPlaintexts(ctx context.Context, programID string) ([]any, error)
	SignMessage(ctx context.Context, message string) (string, error)
}

// Chain is the ledger view used by the flows. *network.Client implements it.
type Chain interface {
	GetBalance(ctx context.Context, address string) (decimal.Decimal, error)
	GetTransactionStatus(ctx context.Context, id string) (network.TxStatus, error)
	WaitForTransaction(ctx context.Context, id string, maxAttempts int, interval time.Duration) (*network.WaitResult, error)
	ExplorerURL(id, kind string) string
}

// Repository persists the submission log and the used-email ledger.
// *repository.Repository implements it.
type Repository interface {
	IsEmailVerified(sourceHash string) (bool, error)
	MarkEmailVerified(sourceHash, tier, transactionID string) error
	LogSubmission(entry *model.SubmissionLog) error
	UpdateSubmissionStatus(transactionID, status, errorMsg string) error
	ListSubmissions(action string, limit int) ([]model.SubmissionLog, error)
}

// Deps are the collaborators of a Service. Mailbox may be nil.
type Deps struct {
	Wallet  Wallet
	Chain   Chain
	Repo    Repository
	Mailbox mailbox.Source
	Store   *store.Store
	Builder *transaction.Builder
	Metrics *metrics.Metrics
	Polling config.PollingConfig
}

// Service is safe for concurrent use; the store's operation guard lets only
// one submitting flow run at a time.
type Service struct {
	wallet  Wallet
	chain   Chain
	repo    Repository
	mailbox mailbox.Source
	store   *store.Store
	builder *transaction.Builder
	metrics *metrics.Metrics
	polling config.PollingConfig
	now     func() time.Time
}

// New creates a new service
func New(deps Deps) *Service {
	return &Service{
		wallet:  deps.Wallet,
		chain:   deps.Chain,
		repo:    deps.Repo,
		mailbox: deps.Mailbox,
		store:   deps.Store,
		builder: deps.Builder,
		metrics: deps.Metrics,
		polling: deps.Polling,
		now:     time.Now,
	}
}

// SetClock replaces the time source.
func (s *Service) SetClock(now func() time.Time) {
	s.now = now
}

// Store returns the application state.
func (s *Service) Store() *store.Store { return s.store }

// OperationResult describes a submitted transaction.
type OperationResult struct {
	Action        string           `json:"action"`
	TransactionID string           `json:"transaction_id"`
	Status        network.TxStatus `json:"status"`
	Message       string           `json:"message"`
	Fee           string           `json:"fee"`
	ExplorerURL   string           `json:"explorer_url,omitempty"`
}

// requireAddress returns the connected address.
func (s *Service) requireAddress(op string) (string, error) {
	address := s.wallet.Address()
	if address == "" {
		return "", failure.New(failure.KindNotConnected, op, "")
	}
	return address, nil
}

// submit hands req to the wallet and records the submission.
func (s *Service) submit(ctx context.Context, req *transaction.Request) (string, error) {
	action := req.Function()
	log := logrus.WithFields(logrus.Fields{"component": "service", "action": action})

	txID, err := s.wallet.RequestTransaction(ctx, req)
	if err != nil {
		s.metrics.SubmissionErrors.WithLabelValues(action, failure.KindOf(err).String()).Inc()
		s.logSubmission(&model.SubmissionLog{
			Action:   action,
			Address:  req.Address,
			Status:   model.SubmissionFailed,
			ErrorMsg: err.Error(),
		})
		return "", err
	}

	s.metrics.Submissions.WithLabelValues(action).Inc()
	s.logSubmission(&model.SubmissionLog{
		TransactionID: txID,
		Action:        action,
		Address:       req.Address,
		Status:        model.SubmissionSubmitted,
	})
	s.store.AddTransaction(store.TxEntry{
		ID:     txID,
		Type:   action,
		Status: string(network.StatusPending),
		Data:   map[string]any{"fee": req.Fee},
	})

	log.WithField("tx_id", txID).Info("Transaction submitted")
	return txID, nil
}

// waitFor polls the ledger for txID and records the outcome. A cancelled
// ctx leaves the transaction pending.
func (s *Service) waitFor(ctx context.Context, txID string) *network.WaitResult {
	start := time.Now()
	result, err := s.chain.WaitForTransaction(ctx, txID, s.polling.MaxAttempts, s.polling.Interval)
	if err != nil {
		logrus.WithField("tx_id", txID).WithError(err).Warn("Stopped waiting for transaction")
	}
	if result == nil {
		result = &network.WaitResult{ID: txID, Status: network.StatusPending}
	}

	s.metrics.Confirmations.WithLabelValues(string(result.Status)).Inc()
	s.metrics.ConfirmationTime.Observe(time.Since(start).Seconds())

	s.store.UpdateTransactionStatus(txID, string(result.Status))
	s.updateSubmission(txID, result)
	return result
}

func (s *Service) updateSubmission(txID string, result *network.WaitResult) {
	status := model.SubmissionPending
	errMsg := ""
	switch result.Status {
	case network.StatusConfirmed:
		status = model.SubmissionConfirmed
	case network.StatusRejected:
		status = model.SubmissionRejected
		errMsg = result.Message
	}
	if err := s.repo.UpdateSubmissionStatus(txID, status, errMsg); err != nil {
		logrus.WithField("tx_id", txID).WithError(err).Warn("Failed to update submission log")
	}
}

func (s *Service) logSubmission(entry *model.SubmissionLog) {
	if err := s.repo.LogSubmission(entry); err != nil {
		logrus.WithField("action", entry.Action).WithError(err).Warn("Failed to write submission log")
	}
}

// finish turns a wait result into the operation result returned to callers.
// A rejected transaction is an error.
func (s *Service) finish(action string, fee int64, result *network.WaitResult, success string) (*OperationResult, error) {
	out := &OperationResult{
		Action:        action,
		TransactionID: result.ID,
		Status:        result.Status,
		Fee:           transaction.FormatFee(fee),
	}
	if transaction.IsLedgerID(result.ID) {
		out.ExplorerURL = s.chain.ExplorerURL(result.ID, "transaction")
	}

	switch result.Status {
	case network.StatusRejected:
		return out, failure.New(failure.KindUserRejected, action, "Transaction was rejected by the network.")
	case network.StatusConfirmed:
		out.Message = success
	default:
		out.Message = "Transaction submitted. Waiting for confirmation; check your wallet for status."
	}
	return out, nil
}

// refreshAfter rebuilds state once a transaction went through. Failures are
// logged; the transaction itself already succeeded.
func (s *Service) refreshAfter(ctx context.Context) {
	if _, err := s.Refresh(ctx); err != nil {
		logrus.WithField("component", "service").WithError(err).Warn("Failed to refresh records after transaction")
	}
}
