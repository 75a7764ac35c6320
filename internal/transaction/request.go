// Package transaction builds the payloads handed to the wallet for each
// program function. Nothing here talks to the wallet or the network.
package transaction

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"aura-protocol-go/internal/failure"
	"aura-protocol-go/internal/income"
)

// Program function names.
const (
	FnVerifyIncome     = "verify_income"
	FnRequestLoan      = "request_loan"
	FnRepayLoan        = "repay_loan"
	FnRenewBadge       = "renew_badge"
	FnDepositToPool    = "deposit_to_pool"
	FnWithdrawFromPool = "withdraw_from_pool"
)

// Transition is a single program call inside a transaction request.
type Transition struct {
	Program      string   `json:"program"`
	FunctionName string   `json:"functionName"`
	Inputs       []string `json:"inputs"`
}

// Request is the payload submitted to the wallet's requestTransaction.
type Request struct {
	Address     string       `json:"address"`
	ChainID     string       `json:"chainId"`
	Transitions []Transition `json:"transitions"`
	Fee         int64        `json:"fee"`
	FeePrivate  bool         `json:"feePrivate"`
}

// Function returns the function name of the first transition.
func (r *Request) Function() string {
	if len(r.Transitions) == 0 {
		return ""
	}
	return r.Transitions[0].FunctionName
}

// Builder creates requests for one program on one chain.
type Builder struct {
	ProgramID string
	ChainID   string
	// Clock supplies timestamps; defaults to time.Now.
	Clock func() time.Time
}

// NewBuilder creates a new transaction builder
func NewBuilder(programID, chainID string) *Builder {
	return &Builder{
		ProgramID: programID,
		ChainID:   chainID,
		Clock:     time.Now,
	}
}

// MonthlyIncomeForTier is the representative monthly income sent on-chain
// for a tier. The real parsed figure never leaves the client.
func MonthlyIncomeForTier(tier income.Tier) int64 {
	switch tier {
	case income.Gold:
		return 15000
	case income.Silver:
		return 8000
	default:
		return 4000
	}
}

// ToMicrocredits converts an amount to integer micro-units, flooring any
// remainder.
func ToMicrocredits(amount decimal.Decimal) int64 {
	return amount.Shift(6).Floor().IntPart()
}

// FromMicrocredits converts micro-units back to a decimal amount.
func FromMicrocredits(micro int64) decimal.Decimal {
	return decimal.New(micro, -6)
}

// VerifyIncome builds verify_income(domain_hash u128, income_amount u64,
// timestamp u64).
func (b *Builder) VerifyIncome(address string, tier income.Tier, domainHash string) (*Request, error) {
	if err := requireAddress(FnVerifyIncome, address); err != nil {
		return nil, err
	}
	if tier == income.TierNone {
		return nil, failure.New(failure.KindValidation, FnVerifyIncome, "an income tier is required to verify income")
	}
	if domainHash == "" {
		return nil, failure.New(failure.KindValidation, FnVerifyIncome, "domain hash is required")
	}

	inputs := []string{
		domainHash + "u128",
		fmt.Sprintf("%du64", MonthlyIncomeForTier(tier)),
		fmt.Sprintf("%du64", b.now().Unix()),
	}
	return b.build(address, FnVerifyIncome, inputs), nil
}

// RequestLoan builds request_loan(badge record, amount u64, pool_id u8,
// current_time u32). amount is in credits.
func (b *Builder) RequestLoan(address, badgeRecord string, amount decimal.Decimal, poolID int) (*Request, error) {
	if err := requireAddress(FnRequestLoan, address); err != nil {
		return nil, err
	}
	if badgeRecord == "" {
		return nil, failure.New(failure.KindNoBadge, FnRequestLoan, "")
	}
	if err := requirePositive(FnRequestLoan, amount); err != nil {
		return nil, err
	}
	if err := requirePool(FnRequestLoan, poolID); err != nil {
		return nil, err
	}

	inputs := []string{
		badgeRecord,
		fmt.Sprintf("%du64", ToMicrocredits(amount)),
		fmt.Sprintf("%du8", poolID),
		fmt.Sprintf("%du32", b.now().Unix()),
	}
	return b.build(address, FnRequestLoan, inputs), nil
}

// RepayLoan builds repay_loan(loan record, payment_amount u64).
func (b *Builder) RepayLoan(address, loanRecord string, payment decimal.Decimal) (*Request, error) {
	if err := requireAddress(FnRepayLoan, address); err != nil {
		return nil, err
	}
	if loanRecord == "" {
		return nil, failure.New(failure.KindRecordUnavailable, FnRepayLoan, "")
	}
	if err := requirePositive(FnRepayLoan, payment); err != nil {
		return nil, err
	}

	inputs := []string{
		loanRecord,
		fmt.Sprintf("%du64", ToMicrocredits(payment)),
	}
	return b.build(address, FnRepayLoan, inputs), nil
}

// RenewBadge builds renew_badge(badge record, new_timestamp u64).
func (b *Builder) RenewBadge(address, badgeRecord string) (*Request, error) {
	if err := requireAddress(FnRenewBadge, address); err != nil {
		return nil, err
	}
	if badgeRecord == "" {
		return nil, failure.New(failure.KindNoBadge, FnRenewBadge, "")
	}

	inputs := []string{
		badgeRecord,
		fmt.Sprintf("%du64", b.now().Unix()),
	}
	return b.build(address, FnRenewBadge, inputs), nil
}

// DepositToPool builds deposit_to_pool(amount u64, pool_id u8,
// current_time u32). amount is in credits.
func (b *Builder) DepositToPool(address string, amount decimal.Decimal, poolID int) (*Request, error) {
	if err := requireAddress(FnDepositToPool, address); err != nil {
		return nil, err
	}
	if err := requirePositive(FnDepositToPool, amount); err != nil {
		return nil, err
	}
	if err := requirePool(FnDepositToPool, poolID); err != nil {
		return nil, err
	}

	inputs := []string{
		fmt.Sprintf("%du64", ToMicrocredits(amount)),
		fmt.Sprintf("%du8", poolID),
		fmt.Sprintf("%du32", b.now().Unix()),
	}
	return b.build(address, FnDepositToPool, inputs), nil
}

// WithdrawFromPool builds withdraw_from_pool(lp token record).
func (b *Builder) WithdrawFromPool(address, lpTokenRecord string) (*Request, error) {
	if err := requireAddress(FnWithdrawFromPool, address); err != nil {
		return nil, err
	}
	if lpTokenRecord == "" {
		return nil, failure.New(failure.KindRecordUnavailable, FnWithdrawFromPool, "")
	}
	return b.build(address, FnWithdrawFromPool, []string{lpTokenRecord}), nil
}

func (b *Builder) build(address, function string, inputs []string) *Request {
	return &Request{
		Address: address,
		ChainID: b.ChainID,
		Transitions: []Transition{{
			Program:      b.ProgramID,
			FunctionName: function,
			Inputs:       inputs,
		}},
		Fee:        EstimateFee(function),
		FeePrivate: false,
	}
}

func (b *Builder) now() time.Time {
	if b.Clock == nil {
		return time.Now()
	}
	return b.Clock()
}

func requireAddress(op, address string) error {
	if strings.TrimSpace(address) == "" {
		return failure.New(failure.KindNotConnected, op, "")
	}
	return nil
}

func requirePositive(op string, amount decimal.Decimal) error {
	if ToMicrocredits(amount) <= 0 {
		return failure.New(failure.KindValidation, op, "amount must be greater than zero")
	}
	return nil
}

// Pool ids are u8 on-chain.
func requirePool(op string, poolID int) error {
	if poolID < 1 || poolID > 255 {
		return failure.New(failure.KindValidation, op, fmt.Sprintf("invalid pool id %d", poolID))
	}
	return nil
}
