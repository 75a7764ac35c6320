package store

import (
	"github.com/sirupsen/logrus"
)

// Verification returns the verification flow state.
func (s *Store) Verification() VerificationState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.verification
}

// StartVerification resets the flow to its first step.
func (s *Store) StartVerification() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.verification = VerificationState{
		InProgress: true,
		Status:     VerifyParsing,
		Message:    "Parsing email headers...",
	}
}

// UpdateVerification moves the flow to status.
func (s *Store) UpdateVerification(status string, progress int, message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.verification.Status = status
	s.verification.Progress = progress
	s.verification.Message = message
}

// SetVerificationTransaction records the submitted transaction id.
func (s *Store) SetVerificationTransaction(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.verification.TransactionID = id
}

// CompleteVerification finishes the flow. No badge is added here: badges
// only come from wallet records.
func (s *Store) CompleteVerification(result *VerificationResult, txID string) {
	s.mu.Lock()
	s.verification = VerificationState{
		Status:        VerifyComplete,
		Progress:      100,
		Message:       "Verification complete!",
		Result:        result,
		TransactionID: txID,
	}
	s.mu.Unlock()
}

// FailVerification ends the flow with a user-facing message. The flow can be
// started again.
func (s *Store) FailVerification(message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.verification = VerificationState{Status: VerifyError, Message: message}
}

// ResetVerification returns the flow to idle.
func (s *Store) ResetVerification() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.verification = VerificationState{Status: VerifyIdle}
}

// AddTransaction prepends tx to the history, keeping the newest
// MaxTransactions entries.
func (s *Store) AddTransaction(tx TxEntry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if tx.Timestamp.IsZero() {
		tx.Timestamp = s.now()
	}
	s.transactions = append([]TxEntry{tx}, s.transactions...)
	if len(s.transactions) > MaxTransactions {
		s.transactions = s.transactions[:MaxTransactions]
	}
}

// UpdateTransactionStatus sets the status of the history entry with id.
func (s *Store) UpdateTransactionStatus(id, status string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.transactions {
		if s.transactions[i].ID == id {
			s.transactions[i].Status = status
			return true
		}
	}
	return false
}

// Transactions returns the history, newest first.
func (s *Store) Transactions() []TxEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]TxEntry(nil), s.transactions...)
}

// SetNetworkConnected records whether the explorer is reachable.
func (s *Store) SetNetworkConnected(connected bool, endpoint string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.network.Connected != connected {
		logrus.WithFields(logrus.Fields{"component": "store", "connected": connected, "endpoint": endpoint}).Info("Network status changed")
	}
	s.network.Initialized = true
	s.network.Connected = connected
	s.network.Endpoint = endpoint
}

// SetLatestHeight records the latest known block height.
func (s *Store) SetLatestHeight(height int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.network.LatestHeight = height
}

// Network returns the explorer status.
func (s *Store) Network() NetworkStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.network
}
