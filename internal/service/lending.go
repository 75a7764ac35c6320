package service

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"aura-protocol-go/internal/failure"
	"aura-protocol-go/internal/income"
	"aura-protocol-go/internal/store"
	"aura-protocol-go/internal/transaction"
	"aura-protocol-go/internal/wallet"
)

// MsgNoBadgeFound is shown on the lending view when the wallet holds no
// usable CreditBadge.
const MsgNoBadgeFound = "No CreditBadge Found"

// TierMaxLoan is the largest loan a tier can take from any pool.
func TierMaxLoan(tier income.Tier) decimal.Decimal {
	switch tier {
	case income.Gold:
		return decimal.NewFromInt(30000)
	case income.Silver:
		return decimal.NewFromInt(20000)
	case income.Bronze:
		return decimal.NewFromInt(10000)
	default:
		return decimal.Zero
	}
}

// PoolView is a pool together with the connected user's access to it.
type PoolView struct {
	store.LendingPool
	Available    decimal.Decimal `json:"available"`
	CanAccess    bool            `json:"can_access"`
	EffectiveMax decimal.Decimal `json:"effective_max"`
}

// LendingView is the lending page.
type LendingView struct {
	HasBadge bool                 `json:"has_badge"`
	Tier     income.Tier          `json:"tier"`
	Message  string               `json:"message,omitempty"`
	Pools    []PoolView           `json:"pools"`
	Loans    []store.LoanPosition `json:"loans"`
	LPTokens []store.LPToken      `json:"lp_tokens"`
}

// Lending returns the pools and the user's eligibility for each.
func (s *Service) Lending() LendingView {
	tier := s.store.HighestTier()
	view := LendingView{
		HasBadge: tier != income.TierNone,
		Tier:     tier,
		Loans:    s.store.Loans(),
		LPTokens: s.store.LPTokens(),
	}
	if !view.HasBadge {
		view.Message = MsgNoBadgeFound
	}

	for _, pool := range s.store.Pools() {
		pv := PoolView{
			LendingPool: pool,
			Available:   pool.Available(),
			CanAccess:   view.HasBadge && tier >= pool.RequiredTier,
		}
		if pv.CanAccess {
			pv.EffectiveMax = effectiveMax(tier, pool)
		}
		view.Pools = append(view.Pools, pv)
	}
	return view
}

// effectiveMax is the smallest of the tier limit, the pool limit and the
// pool's free liquidity.
func effectiveMax(tier income.Tier, pool store.LendingPool) decimal.Decimal {
	return decimal.Min(TierMaxLoan(tier), pool.MaxLoan, pool.Available())
}

// RequestLoan borrows amount credits from a pool, spending the user's best
// CreditBadge as proof of income.
func (s *Service) RequestLoan(ctx context.Context, poolID int, amount decimal.Decimal) (*OperationResult, error) {
	const op = "request loan"

	done, err := s.store.BeginOperation(transaction.FnRequestLoan)
	if err != nil {
		return nil, err
	}
	defer done()

	address, err := s.requireAddress(op)
	if err != nil {
		return nil, err
	}

	pool, ok := s.store.Pool(poolID)
	if !ok {
		return nil, failure.New(failure.KindValidation, op, fmt.Sprintf("Unknown lending pool %d.", poolID))
	}
	if !amount.IsPositive() {
		return nil, failure.New(failure.KindValidation, op, "Loan amount must be greater than zero.")
	}

	badge, ok := s.store.BestBadge()
	if !ok {
		return nil, failure.New(failure.KindNoBadge, op, "")
	}
	if badge.Tier < pool.RequiredTier {
		return nil, failure.New(failure.KindIneligible, op,
			fmt.Sprintf("%s requires a %s CreditBadge; yours is %s.", pool.Name, pool.RequiredTier, badge.Tier))
	}
	if limit := effectiveMax(badge.Tier, pool); amount.GreaterThan(limit) {
		return nil, failure.New(failure.KindValidation, op,
			fmt.Sprintf("Maximum loan from %s is $%s.", pool.Name, income.FormatUSD(limit)))
	}

	badgeInput, err := s.recordInput(ctx, wallet.RecordCreditBadge, badge.ID)
	if err != nil {
		return nil, err
	}
	req, err := s.builder.RequestLoan(address, badgeInput, amount, poolID)
	if err != nil {
		return nil, err
	}
	return s.execute(ctx, req, "Loan submitted! Your records have been updated.")
}

// RepayLoan pays back part or all of a loan.
func (s *Service) RepayLoan(ctx context.Context, loanID string, payment decimal.Decimal) (*OperationResult, error) {
	const op = "repay loan"

	done, err := s.store.BeginOperation(transaction.FnRepayLoan)
	if err != nil {
		return nil, err
	}
	defer done()

	address, err := s.requireAddress(op)
	if err != nil {
		return nil, err
	}
	if !payment.IsPositive() {
		return nil, failure.New(failure.KindValidation, op, "Payment must be greater than zero.")
	}

	loanInput, err := s.namedRecordInput(ctx, wallet.RecordLoanPosition, loanID)
	if err != nil {
		return nil, err
	}
	req, err := s.builder.RepayLoan(address, loanInput, payment)
	if err != nil {
		return nil, err
	}
	return s.execute(ctx, req, "Repayment confirmed.")
}

// RenewBadge extends the expiry of a CreditBadge, including an expired one.
func (s *Service) RenewBadge(ctx context.Context, badgeID string) (*OperationResult, error) {
	const op = "renew badge"

	done, err := s.store.BeginOperation(transaction.FnRenewBadge)
	if err != nil {
		return nil, err
	}
	defer done()

	address, err := s.requireAddress(op)
	if err != nil {
		return nil, err
	}

	badgeInput, err := s.namedRecordInput(ctx, wallet.RecordCreditBadge, badgeID)
	if err != nil {
		return nil, err
	}
	req, err := s.builder.RenewBadge(address, badgeInput)
	if err != nil {
		return nil, err
	}
	return s.execute(ctx, req, "CreditBadge renewed.")
}

// Deposit adds liquidity to a pool in exchange for an LP token.
func (s *Service) Deposit(ctx context.Context, poolID int, amount decimal.Decimal) (*OperationResult, error) {
	const op = "deposit to pool"

	done, err := s.store.BeginOperation(transaction.FnDepositToPool)
	if err != nil {
		return nil, err
	}
	defer done()

	address, err := s.requireAddress(op)
	if err != nil {
		return nil, err
	}
	if _, ok := s.store.Pool(poolID); !ok {
		return nil, failure.New(failure.KindValidation, op, fmt.Sprintf("Unknown lending pool %d.", poolID))
	}

	req, err := s.builder.DepositToPool(address, amount, poolID)
	if err != nil {
		return nil, err
	}
	return s.execute(ctx, req, "Deposit confirmed.")
}

// Withdraw redeems an LP token.
func (s *Service) Withdraw(ctx context.Context, lpTokenID string) (*OperationResult, error) {
	const op = "withdraw from pool"

	done, err := s.store.BeginOperation(transaction.FnWithdrawFromPool)
	if err != nil {
		return nil, err
	}
	defer done()

	address, err := s.requireAddress(op)
	if err != nil {
		return nil, err
	}

	lpInput, err := s.namedRecordInput(ctx, wallet.RecordLPToken, lpTokenID)
	if err != nil {
		return nil, err
	}
	req, err := s.builder.WithdrawFromPool(address, lpInput)
	if err != nil {
		return nil, err
	}
	return s.execute(ctx, req, "Withdrawal confirmed.")
}

// execute submits req, waits for the ledger and refreshes records.
func (s *Service) execute(ctx context.Context, req *transaction.Request, success string) (*OperationResult, error) {
	txID, err := s.submit(ctx, req)
	if err != nil {
		return nil, err
	}
	result, err := s.finish(req.Function(), req.Fee, s.waitFor(ctx, txID), success)
	if err != nil {
		return result, err
	}
	s.refreshAfter(ctx)
	return result, nil
}

// recordInput finds an unspent record of the given name and returns the
// string to pass for it as a transaction input. Decrypted plaintexts are
// preferred; the record list is the fallback. A non-empty id selects that
// record when the wallet reports it.
func (s *Service) recordInput(ctx context.Context, name, id string) (string, error) {
	return s.selectRecordInput(ctx, name, id, false)
}

// namedRecordInput is recordInput for a record the caller chose: a non-empty
// id that the wallet does not report is an error, never another record.
func (s *Service) namedRecordInput(ctx context.Context, name, id string) (string, error) {
	return s.selectRecordInput(ctx, name, id, true)
}

func (s *Service) selectRecordInput(ctx context.Context, name, id string, exact bool) (string, error) {
	const op = "select record"
	log := logrus.WithFields(logrus.Fields{"component": "service", "record": name, "id": id})
	programID := s.builder.ProgramID

	var candidates []wallet.Record
	entries, err := s.wallet.RequestRecordPlaintexts(ctx, programID)
	if err != nil {
		if failure.KindOf(err) == failure.KindNotConnected {
			return "", err
		}
		log.WithError(err).Warn("Record plaintexts unavailable, falling back to records")
	} else {
		decoded, _ := wallet.DecodeRecords(entries)
		candidates = unspent(decoded, name)
	}

	if len(candidates) == 0 || (id != "" && !containsID(candidates, id)) {
		records, err := s.wallet.RequestRecords(ctx, programID)
		if err != nil {
			if len(candidates) == 0 {
				return "", err
			}
			log.WithError(err).Warn("Record list unavailable")
		} else if listed := unspent(records, name); len(listed) > 0 {
			candidates = listed
		}
	}

	if len(candidates) == 0 {
		if name == wallet.RecordCreditBadge {
			return "", failure.New(failure.KindNoBadge, op, "")
		}
		return "", failure.New(failure.KindRecordUnavailable, op,
			fmt.Sprintf("No unspent %s record found in your wallet. Refresh your records and try again.", name))
	}

	if exact && id != "" && !containsID(candidates, id) {
		if name == wallet.RecordCreditBadge {
			return "", failure.New(failure.KindNoBadge, op,
				fmt.Sprintf("CreditBadge %s was not found among your unspent records.", id))
		}
		return "", failure.New(failure.KindRecordUnavailable, op,
			fmt.Sprintf("No unspent %s record with id %s found in your wallet. Refresh your records and try again.", name, id))
	}

	chosen := pick(candidates, id)
	input, err := chosen.Input()
	if err != nil {
		return "", failure.Wrap(failure.KindRecordUnavailable, op, err)
	}
	log.WithField("chosen", chosen.ID).Debug("Selected record input")
	return input, nil
}

func unspent(records []wallet.Record, name string) []wallet.Record {
	var out []wallet.Record
	for _, rec := range records {
		if !rec.Spent && rec.RecordName == name {
			out = append(out, rec)
		}
	}
	return out
}

func containsID(records []wallet.Record, id string) bool {
	for _, rec := range records {
		if rec.ID == id {
			return true
		}
	}
	return false
}

// pick returns the record with id, else the badge with the highest bracket,
// else the first record.
func pick(records []wallet.Record, id string) *wallet.Record {
	best := 0
	var bestBracket int64
	for i := range records {
		if id != "" && records[i].ID == id {
			return &records[i]
		}
		if b, ok := records[i].IntField("income_bracket"); ok && b > bestBracket {
			best, bestBracket = i, b
		}
	}
	return &records[best]
}
