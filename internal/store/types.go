package store

import (
	"time"

	"github.com/shopspring/decimal"

	"aura-protocol-go/internal/income"
	"aura-protocol-go/internal/wallet"
)

// Badge is the client-side view of an unspent CreditBadge record.
type Badge struct {
	ID          string         `json:"id"`
	Tier        income.Tier    `json:"tier"`
	TierNum     int            `json:"tier_num"`
	SourceLabel string         `json:"source"`
	VerifiedAt  time.Time      `json:"verified_at"`
	ExpiresAt   time.Time      `json:"expires_at"`
	IsActive    bool           `json:"is_active"`
	Record      *wallet.Record `json:"-"`
}

// LoanPosition is the client-side view of an unspent LoanPosition record.
type LoanPosition struct {
	ID         string          `json:"id"`
	PoolID     int             `json:"pool_id"`
	PoolName   string          `json:"pool_name"`
	Principal  decimal.Decimal `json:"principal"`
	APYPercent decimal.Decimal `json:"apy"`
	Status     string          `json:"status"`
	StartedAt  time.Time       `json:"started_at"`
	Record     *wallet.Record  `json:"-"`
}

// LPToken is a liquidity provider's claim on a pool deposit.
type LPToken struct {
	ID     string          `json:"id"`
	PoolID int             `json:"pool_id"`
	Amount decimal.Decimal `json:"amount"`
	Record *wallet.Record  `json:"-"`
}

// LendingPool is a pool borrowers can draw from.
type LendingPool struct {
	ID             int             `json:"id"`
	Name           string          `json:"name"`
	APY            decimal.Decimal `json:"apy"`
	MaxLoan        decimal.Decimal `json:"max_loan"`
	RequiredTier   income.Tier     `json:"required_tier"`
	TotalLiquidity decimal.Decimal `json:"total_liquidity"`
	Utilized       decimal.Decimal `json:"utilized"`
}

// Available is the liquidity not yet lent out.
func (p LendingPool) Available() decimal.Decimal {
	return p.TotalLiquidity.Sub(p.Utilized)
}

// DefaultPools is the pool table used until liquidity is read from chain.
func DefaultPools() []LendingPool {
	return []LendingPool{
		{ID: 1, Name: "Aura Gold Pool", APY: decimal.NewFromInt(6), MaxLoan: decimal.NewFromInt(30000), RequiredTier: income.Gold, TotalLiquidity: decimal.NewFromInt(500000), Utilized: decimal.NewFromInt(125000)},
		{ID: 2, Name: "Aura Silver Pool", APY: decimal.NewFromInt(9), MaxLoan: decimal.NewFromInt(20000), RequiredTier: income.Silver, TotalLiquidity: decimal.NewFromInt(300000), Utilized: decimal.NewFromInt(75000)},
		{ID: 3, Name: "Aura Bronze Pool", APY: decimal.NewFromInt(12), MaxLoan: decimal.NewFromInt(10000), RequiredTier: income.Bronze, TotalLiquidity: decimal.NewFromInt(150000), Utilized: decimal.NewFromInt(35000)},
	}
}

// Verification flow statuses.
const (
	VerifyIdle       = "idle"
	VerifyParsing    = "parsing"
	VerifyVerifying  = "verifying"
	VerifyGenerating = "generating"
	VerifyMinting    = "minting"
	VerifyComplete   = "complete"
	VerifyError      = "error"
)

// VerificationResult is what a completed verification produced.
type VerificationResult struct {
	Tier             income.Tier     `json:"tier"`
	Bracket          int             `json:"bracket"`
	AnnualIncome     decimal.Decimal `json:"annual_income"`
	Frequency        string          `json:"frequency"`
	Source           string          `json:"source"`
	Domain           string          `json:"domain"`
	DomainHash       string          `json:"domain_hash"`
	VerificationHash string          `json:"verification_hash"`
	HasSignature     bool            `json:"has_dkim_signature"`
	Confirmation     string          `json:"confirmation"`
	TransactionID    string          `json:"transaction_id"`
}

// VerificationState is the progress of the verification flow.
type VerificationState struct {
	InProgress    bool                `json:"in_progress"`
	Status        string              `json:"status"`
	Progress      int                 `json:"progress"`
	Message       string              `json:"message"`
	Result        *VerificationResult `json:"result,omitempty"`
	TransactionID string              `json:"transaction_id,omitempty"`
}

// TxEntry is one entry of the local transaction history.
type TxEntry struct {
	ID        string         `json:"id"`
	Type      string         `json:"type"`
	Status    string         `json:"status"`
	Timestamp time.Time      `json:"timestamp"`
	Data      map[string]any `json:"data,omitempty"`
}

// NetworkStatus describes the explorer connection.
type NetworkStatus struct {
	Initialized  bool   `json:"initialized"`
	Connected    bool   `json:"connected"`
	Endpoint     string `json:"endpoint,omitempty"`
	LatestHeight int64  `json:"latest_height"`
}
