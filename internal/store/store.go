// Package store holds the in-memory application state: the wallet-derived
// badges and loans, lending pools, verification progress and transaction
// history. Nothing is persisted; badges and loans are rebuilt from wallet
// records on every refresh.
package store

import (
	"fmt"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"aura-protocol-go/internal/failure"
	"aura-protocol-go/internal/income"
	"aura-protocol-go/internal/transaction"
	"aura-protocol-go/internal/wallet"
)

// MaxTransactions is the length of the kept transaction history.
const MaxTransactions = 50

// Store is safe for concurrent use.
type Store struct {
	mu           sync.RWMutex
	badges       []Badge
	loans        []LoanPosition
	lpTokens     []LPToken
	pools        []LendingPool
	verification VerificationState
	transactions []TxEntry
	network      NetworkStatus
	operation    string

	now func() time.Time
}

// New creates an initialized store with the default pools.
func New() *Store {
	return &Store{
		pools:        DefaultPools(),
		verification: VerificationState{Status: VerifyIdle},
		now:          time.Now,
	}
}

// SetClock replaces the time source.
func (s *Store) SetClock(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
}

// Clear drops all user data. It is called when the wallet disconnects.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.badges = nil
	s.loans = nil
	s.lpTokens = nil
	s.transactions = nil
	s.verification = VerificationState{Status: VerifyIdle}
	logrus.WithField("component", "store").Debug("User data cleared")
}

// ApplyRecords rebuilds badges, loans and LP tokens from wallet records.
// Spent records are dropped. Expired badges are kept, inactive, so they can
// still be renewed.
func (s *Store) ApplyRecords(records []wallet.Record) ([]Badge, []LoanPosition) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	var (
		badges []Badge
		loans  []LoanPosition
		tokens []LPToken
	)
	for i := range records {
		rec := &records[i]
		if rec.Spent {
			continue
		}
		switch rec.RecordName {
		case wallet.RecordCreditBadge:
			badges = append(badges, badgeFromRecord(rec, now))
		case wallet.RecordLoanPosition:
			loans = append(loans, s.loanFromRecord(rec))
		case wallet.RecordLPToken:
			tokens = append(tokens, lpTokenFromRecord(rec))
		}
	}

	s.badges, s.loans, s.lpTokens = badges, loans, tokens
	logrus.WithFields(logrus.Fields{
		"component": "store",
		"records":   len(records),
		"badges":    len(badges),
		"loans":     len(loans),
		"lp_tokens": len(tokens),
	}).Info("Refreshed state from wallet records")

	return copyBadges(badges), copyLoans(loans)
}

func badgeFromRecord(rec *wallet.Record, now time.Time) Badge {
	bracket, ok := rec.IntField("income_bracket")
	if !ok {
		bracket = 1
	}
	tier := income.TierFromBracket(int(bracket))
	if tier == income.TierNone {
		// Out-of-range brackets read as the nearest tier.
		tier = income.Bronze
		if bracket > int64(income.Gold) {
			tier = income.Gold
		}
	}

	expiry, _ := rec.IntField("expiry_timestamp")
	expiresAt := time.Unix(expiry, 0).UTC()

	return Badge{
		ID:          rec.ID,
		Tier:        tier,
		TierNum:     tier.Bracket(),
		SourceLabel: "verified",
		VerifiedAt:  now,
		ExpiresAt:   expiresAt,
		IsActive:    now.Before(expiresAt),
		Record:      rec,
	}
}

func (s *Store) loanFromRecord(rec *wallet.Record) LoanPosition {
	principal, _ := rec.IntField("principal")
	// Basis points.
	rateBps, _ := rec.IntField("interest_rate")
	poolID, ok := rec.IntField("pool_id")
	if !ok {
		poolID = 1
	}
	start, _ := rec.IntField("start_timestamp")

	name := fmt.Sprintf("Pool %d", poolID)
	for _, p := range s.pools {
		if int64(p.ID) == poolID {
			name = p.Name
		}
	}

	return LoanPosition{
		ID:         rec.ID,
		PoolID:     int(poolID),
		PoolName:   name,
		Principal:  transaction.FromMicrocredits(principal),
		APYPercent: decimal.New(rateBps, -2),
		Status:     "active",
		StartedAt:  time.Unix(start, 0).UTC(),
		Record:     rec,
	}
}

func lpTokenFromRecord(rec *wallet.Record) LPToken {
	amount, _ := rec.IntField("amount")
	poolID, _ := rec.IntField("pool_id")
	return LPToken{
		ID:     rec.ID,
		PoolID: int(poolID),
		Amount: transaction.FromMicrocredits(amount),
		Record: rec,
	}
}

// Badges returns the current badges.
func (s *Store) Badges() []Badge {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return copyBadges(s.badges)
}

// Badge returns the badge with id.
func (s *Store) Badge(id string) (Badge, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, b := range s.badges {
		if b.ID == id {
			return b, true
		}
	}
	return Badge{}, false
}

// Loans returns the current loan positions.
func (s *Store) Loans() []LoanPosition {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return copyLoans(s.loans)
}

// Loan returns the loan with id.
func (s *Store) Loan(id string) (LoanPosition, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, l := range s.loans {
		if l.ID == id {
			return l, true
		}
	}
	return LoanPosition{}, false
}

// LPTokens returns the current LP tokens.
func (s *Store) LPTokens() []LPToken {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]LPToken(nil), s.lpTokens...)
}

// HighestTier returns the best tier among active badges.
func (s *Store) HighestTier() income.Tier {
	s.mu.RLock()
	defer s.mu.RUnlock()
	best := income.TierNone
	for _, b := range s.badges {
		if b.IsActive && b.Tier > best {
			best = b.Tier
		}
	}
	return best
}

// HasMinTier reports whether an active badge meets required.
func (s *Store) HasMinTier(required income.Tier) bool {
	best := s.HighestTier()
	return best != income.TierNone && best >= required
}

// BestBadge returns the active badge with the highest tier.
func (s *Store) BestBadge() (Badge, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var best Badge
	found := false
	for _, b := range s.badges {
		if b.IsActive && (!found || b.Tier > best.Tier) {
			best, found = b, true
		}
	}
	return best, found
}

// Pools returns the lending pools.
func (s *Store) Pools() []LendingPool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]LendingPool(nil), s.pools...)
}

// Pool returns the pool with id.
func (s *Store) Pool(id int) (LendingPool, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, p := range s.pools {
		if p.ID == id {
			return p, true
		}
	}
	return LendingPool{}, false
}

// SetPoolLiquidity records the on-chain liquidity of a pool.
func (s *Store) SetPoolLiquidity(id int, liquidity decimal.Decimal) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.pools {
		if s.pools[i].ID == id {
			s.pools[i].TotalLiquidity = liquidity
		}
	}
}

// BeginOperation marks name as the one outstanding operation. It fails with
// a Busy error while another is running. The returned func ends it.
func (s *Store) BeginOperation(name string) (func(), error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.operation != "" {
		return nil, failure.New(failure.KindBusy, name,
			fmt.Sprintf("Another operation (%s) is in progress. Please wait for it to finish.", s.operation))
	}
	s.operation = name

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			s.operation = ""
			s.mu.Unlock()
		})
	}, nil
}

// Processing returns the name of the outstanding operation, or "".
func (s *Store) Processing() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.operation
}

func copyBadges(in []Badge) []Badge { return append([]Badge(nil), in...) }

func copyLoans(in []LoanPosition) []LoanPosition { return append([]LoanPosition(nil), in...) }
