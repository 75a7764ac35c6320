package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"aura-protocol-go/internal/config"
	"aura-protocol-go/internal/failure"
	"aura-protocol-go/internal/income"
	"aura-protocol-go/internal/mailbox"
	"aura-protocol-go/internal/metrics"
	"aura-protocol-go/internal/model"
	"aura-protocol-go/internal/network"
	"aura-protocol-go/internal/store"
	"aura-protocol-go/internal/transaction"
	"aura-protocol-go/internal/wallet"
)

const testAddress = "aleo1qqqqqqqqqqqqqqqqqqqqqqqqqqqqqqqqqqqqqqqqqqqqqqqqqqqqqqqqqq"

const bankEmail = "Received: from mail.chase.com by mx.example.com\r\n" +
	"DKIM-Signature: v=1; a=rsa-sha256; d=chase.com; s=selector1;\r\n" +
	"\th=from:to:subject:date; bh=47DEQpj8HBSa+/TImW+5JCeuQeRkm5NMpJWZG3hSuFU=;\r\n" +
	"\tb=dGVzdHNpZ25hdHVyZQ==\r\n" +
	"From: Chase Alerts <no.reply.alerts@chase.com>\r\n" +
	"To: user@example.com\r\n" +
	"Subject: Your direct deposit has posted\r\n" +
	"Date: Mon, 1 Jan 2024 09:00:00 -0500\r\n" +
	"\r\n" +
	"Your deposit of $6,250.00 was credited to your account ending in 1234.\r\n"

// 2100-01-01, far enough ahead that badges stay active.
const farExpiry = "4102444800u64.private"

// fakeWallet stands in for the wallet gateway.
type fakeWallet struct {
	mu           sync.Mutex
	address      string
	txID         string
	txErr        error
	requests     []*transaction.Request
	records      []wallet.Record
	recordsErr   error
	recordCalls  int
	plaintexts   []any
	plaintextErr error
	connectErr   error
}

func (f *fakeWallet) Status() wallet.Status {
	f.mu.Lock()
	defer f.mu.Unlock()
	st := wallet.Status{Address: f.address, Connected: f.address != "", Available: true}
	if st.Connected {
		st.State = wallet.Connected.String()
	}
	return st
}

func (f *fakeWallet) Address() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.address
}

func (f *fakeWallet) Connect(ctx context.Context) (wallet.Status, error) {
	if f.connectErr != nil {
		return wallet.Status{}, f.connectErr
	}
	f.mu.Lock()
	f.address = testAddress
	f.mu.Unlock()
	return f.Status(), nil
}

func (f *fakeWallet) Disconnect(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.address = ""
	return nil
}

func (f *fakeWallet) Reconnect(ctx context.Context) (wallet.Status, error) {
	_ = f.Disconnect(ctx)
	return f.Connect(ctx)
}

func (f *fakeWallet) RequestTransaction(ctx context.Context, req *transaction.Request) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, req)
	if f.txErr != nil {
		return "", f.txErr
	}
	return f.txID, nil
}

func (f *fakeWallet) RequestRecords(ctx context.Context, programID string) ([]wallet.Record, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.recordCalls++
	return f.records, f.recordsErr
}

func (f *fakeWallet) RequestRecordPlaintexts(ctx context.Context, programID string) ([]any, error) {
	return f.plaintexts, f.plaintextErr
}

func (f *fakeWallet) SignMessage(ctx context.Context, message string) (string, error) {
	return "sign1" + message, nil
}

func (f *fakeWallet) lastRequest(t *testing.T) *transaction.Request {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	require.NotEmpty(t, f.requests)
	return f.requests[len(f.requests)-1]
}

// fakeChain answers like the explorer client: ids without the ledger prefix
// are pending without polling.
type fakeChain struct {
	status     network.TxStatus
	waits      int
	balance    decimal.Decimal
	balanceErr error
}

func (f *fakeChain) GetBalance(ctx context.Context, address string) (decimal.Decimal, error) {
	return f.balance, f.balanceErr
}

func (f *fakeChain) GetTransactionStatus(ctx context.Context, id string) (network.TxStatus, error) {
	return f.status, nil
}

func (f *fakeChain) WaitForTransaction(ctx context.Context, id string, maxAttempts int, interval time.Duration) (*network.WaitResult, error) {
	if !transaction.IsLedgerID(id) {
		return &network.WaitResult{ID: id, Status: network.StatusPending}, nil
	}
	f.waits++
	return &network.WaitResult{ID: id, Status: f.status, Attempts: 1}, nil
}

func (f *fakeChain) ExplorerURL(id, kind string) string {
	return "https://explorer.test/" + kind + "/" + id
}

type fakeRepo struct {
	verified map[string]string
	logs     []model.SubmissionLog
	statuses map[string]string
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{verified: map[string]string{}, statuses: map[string]string{}}
}

func (r *fakeRepo) IsEmailVerified(sourceHash string) (bool, error) {
	_, ok := r.verified[sourceHash]
	return ok, nil
}

func (r *fakeRepo) MarkEmailVerified(sourceHash, tier, transactionID string) error {
	r.verified[sourceHash] = tier
	return nil
}

func (r *fakeRepo) LogSubmission(entry *model.SubmissionLog) error {
	r.logs = append(r.logs, *entry)
	return nil
}

func (r *fakeRepo) UpdateSubmissionStatus(transactionID, status, errorMsg string) error {
	r.statuses[transactionID] = status
	return nil
}

func (r *fakeRepo) ListSubmissions(action string, limit int) ([]model.SubmissionLog, error) {
	return r.logs, nil
}

type fakeMailbox struct {
	raw map[string]string
}

func (m *fakeMailbox) Search(ctx context.Context, query string, limit int) ([]mailbox.Message, error) {
	return []mailbox.Message{{ID: "m1", Subject: "Direct deposit"}}, nil
}

func (m *fakeMailbox) Raw(ctx context.Context, id string) (string, error) {
	raw, ok := m.raw[id]
	if !ok {
		return "", errors.New("not found")
	}
	return raw, nil
}

func (m *fakeMailbox) Close() error { return nil }

type harness struct {
	svc     *Service
	wallet  *fakeWallet
	chain   *fakeChain
	repo    *fakeRepo
	store   *store.Store
	metrics *metrics.Metrics
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	h := &harness{
		wallet:  &fakeWallet{address: testAddress, txID: "at1abc"},
		chain:   &fakeChain{status: network.StatusConfirmed},
		repo:    newFakeRepo(),
		store:   store.New(),
		metrics: metrics.NewMetrics(prometheus.NewRegistry()),
	}
	builder := transaction.NewBuilder("aurav2zkp.aleo", "testnetbeta")
	builder.Clock = func() time.Time { return time.Unix(1700000000, 0) }

	h.svc = New(Deps{
		Wallet:  h.wallet,
		Chain:   h.chain,
		Repo:    h.repo,
		Store:   h.store,
		Builder: builder,
		Metrics: h.metrics,
		Polling: config.PollingConfig{MaxAttempts: 3, Interval: time.Millisecond},
	})
	return h
}

func badgeRecord(id string, bracket string, expiry string, spent bool) wallet.Record {
	plaintext := "{ owner: " + testAddress + ".private, income_bracket: " + bracket + ", expiry_timestamp: " + expiry + " }"
	return wallet.Record{
		ID:         id,
		Spent:      spent,
		RecordName: wallet.RecordCreditBadge,
		Data:       map[string]any{"income_bracket": bracket, "expiry_timestamp": expiry},
		Raw:        map[string]any{"id": id, "plaintext": plaintext},
	}
}

func (h *harness) loadRecords(t *testing.T, records ...wallet.Record) {
	t.Helper()
	h.wallet.records = records
	_, err := h.svc.Refresh(context.Background())
	require.NoError(t, err)
}

func TestVerifySubmitsTierNotAmount(t *testing.T) {
	h := newHarness(t)

	result, err := h.svc.Verify(context.Background(), bankEmail)
	require.NoError(t, err)

	assert.Equal(t, income.Silver, result.Tier)
	assert.Equal(t, 2, result.Bracket)
	assert.True(t, decimal.NewFromInt(75000).Equal(result.AnnualIncome))
	assert.Equal(t, "Monthly", result.Frequency)
	assert.Equal(t, "Bank Deposit", result.Source)
	assert.Equal(t, "chase.com", result.Domain)
	assert.True(t, result.HasSignature)
	assert.Equal(t, "confirmed", result.Confirmation)
	assert.Equal(t, "at1abc", result.TransactionID)
	assert.True(t, strings.HasPrefix(result.VerificationHash, "0x"))

	req := h.wallet.lastRequest(t)
	assert.Equal(t, transaction.FnVerifyIncome, req.Function())
	assert.Equal(t, testAddress, req.Address)
	assert.Equal(t, []string{"87386999528321u128", "8000u64", "1700000000u64"}, req.Transitions[0].Inputs)
	for _, in := range req.Transitions[0].Inputs {
		assert.NotContains(t, in, "6250")
	}

	state := h.store.Verification()
	assert.Equal(t, store.VerifyComplete, state.Status)
	assert.Equal(t, 100, state.Progress)
	assert.False(t, state.InProgress)

	require.Len(t, h.repo.logs, 1)
	assert.Equal(t, model.SubmissionSubmitted, h.repo.logs[0].Status)
	assert.Equal(t, model.SubmissionConfirmed, h.repo.statuses["at1abc"])
	assert.Len(t, h.repo.verified, 1)

	txs := h.store.Transactions()
	require.Len(t, txs, 1)
	assert.Equal(t, "confirmed", txs[0].Status)

	assert.Equal(t, 1, h.wallet.recordCalls, "records refreshed after verification")
	assert.Empty(t, h.store.Processing())
	assert.Equal(t, 1.0, testutil.ToFloat64(h.metrics.Verifications.WithLabelValues("success")))
}

func TestVerifyRejectsShortInputWithoutWalletCall(t *testing.T) {
	h := newHarness(t)

	_, err := h.svc.Verify(context.Background(), "Your deposit of $6,250.00")
	require.Error(t, err)
	assert.Equal(t, failure.KindValidation, failure.KindOf(err))
	assert.Empty(t, h.wallet.requests)
	assert.Zero(t, h.wallet.recordCalls)

	state := h.store.Verification()
	assert.Equal(t, store.VerifyError, state.Status)
	assert.Contains(t, state.Message, "too short")
}

func TestVerifyRequiresConnectedWallet(t *testing.T) {
	h := newHarness(t)
	h.wallet.address = ""

	_, err := h.svc.Verify(context.Background(), bankEmail)
	assert.Equal(t, failure.KindNotConnected, failure.KindOf(err))
	assert.Equal(t, store.VerifyIdle, h.store.Verification().Status)
}

func TestVerifyRefusesUsedEmail(t *testing.T) {
	h := newHarness(t)
	h.repo.verified[hashSource(strings.TrimSpace(bankEmail))] = "silver"

	_, err := h.svc.Verify(context.Background(), bankEmail)
	assert.Equal(t, failure.KindDuplicate, failure.KindOf(err))
	assert.Empty(t, h.wallet.requests)
}

func TestVerifyBelowFloor(t *testing.T) {
	h := newHarness(t)
	raw := "From: Payroll <payroll@gusto.com>\r\n" +
		"Subject: Payment notice\r\n" +
		"Date: Mon, 1 Jan 2024 09:00:00 -0500\r\n" +
		"\r\n" +
		"Your deposit of $1,500.00 has been processed for this period.\r\n"

	_, err := h.svc.Verify(context.Background(), raw)
	require.Error(t, err)
	assert.Equal(t, failure.KindBelowFloor, failure.KindOf(err))
	assert.Contains(t, failure.Message(err), "$18,000")
	assert.Empty(t, h.wallet.requests)
}

func TestVerifyWithWalletRequestIDStaysPending(t *testing.T) {
	h := newHarness(t)
	h.wallet.txID = "req-7f3a"

	result, err := h.svc.Verify(context.Background(), bankEmail)
	require.NoError(t, err)
	assert.Equal(t, "pending", result.Confirmation)
	assert.Zero(t, h.chain.waits, "request ids are never polled")
	assert.Equal(t, model.SubmissionPending, h.repo.statuses["req-7f3a"])
	assert.Len(t, h.repo.verified, 1)
}

func TestVerifyRejectedOnChain(t *testing.T) {
	h := newHarness(t)
	h.chain.status = network.StatusRejected

	_, err := h.svc.Verify(context.Background(), bankEmail)
	assert.Equal(t, failure.KindUserRejected, failure.KindOf(err))
	assert.Empty(t, h.repo.verified)
	assert.Equal(t, model.SubmissionRejected, h.repo.statuses["at1abc"])
	assert.Equal(t, store.VerifyError, h.store.Verification().Status)
}

func TestVerifyWalletError(t *testing.T) {
	h := newHarness(t)
	h.wallet.txErr = failure.Classify("request transaction", errors.New("User rejected the request"))

	_, err := h.svc.Verify(context.Background(), bankEmail)
	assert.Equal(t, failure.KindUserRejected, failure.KindOf(err))

	require.Len(t, h.repo.logs, 1)
	assert.Equal(t, model.SubmissionFailed, h.repo.logs[0].Status)
	assert.Equal(t, 1.0, testutil.ToFloat64(
		h.metrics.SubmissionErrors.WithLabelValues(transaction.FnVerifyIncome, failure.KindUserRejected.String())))
	assert.Empty(t, h.store.Transactions())
}

func TestVerifyWhileBusy(t *testing.T) {
	h := newHarness(t)
	done, err := h.store.BeginOperation(transaction.FnRequestLoan)
	require.NoError(t, err)
	defer done()

	_, err = h.svc.Verify(context.Background(), bankEmail)
	assert.Equal(t, failure.KindBusy, failure.KindOf(err))
	assert.Empty(t, h.wallet.requests)
}

func TestVerifyMessage(t *testing.T) {
	h := newHarness(t)

	_, err := h.svc.VerifyMessage(context.Background(), "m1")
	assert.Equal(t, failure.KindValidation, failure.KindOf(err))

	h.svc.mailbox = &fakeMailbox{raw: map[string]string{"m1": bankEmail}}
	result, err := h.svc.VerifyMessage(context.Background(), "m1")
	require.NoError(t, err)
	assert.Equal(t, income.Silver, result.Tier)

	_, err = h.svc.VerifyMessage(context.Background(), "missing")
	assert.Equal(t, failure.KindNetwork, failure.KindOf(err))

	messages, err := h.svc.SearchMailbox(context.Background(), "", 0)
	require.NoError(t, err)
	assert.Len(t, messages, 1)
}

func TestResetVerification(t *testing.T) {
	h := newHarness(t)
	h.store.FailVerification("nope")

	require.NoError(t, h.svc.ResetVerification())
	assert.Equal(t, store.VerifyIdle, h.svc.Verification().Status)

	done, err := h.store.BeginOperation(transaction.FnVerifyIncome)
	require.NoError(t, err)
	defer done()
	assert.Equal(t, failure.KindBusy, failure.KindOf(h.svc.ResetVerification()))
}

func TestSpentBadgeLeavesNoBadge(t *testing.T) {
	h := newHarness(t)
	h.loadRecords(t, badgeRecord("b1", "3u8.private", farExpiry, true))

	assert.Empty(t, h.store.Badges())
	view := h.svc.Lending()
	assert.False(t, view.HasBadge)
	assert.Equal(t, MsgNoBadgeFound, view.Message)
	require.Len(t, view.Pools, 3)
	for _, p := range view.Pools {
		assert.False(t, p.CanAccess)
	}
}

func TestLendingEligibility(t *testing.T) {
	h := newHarness(t)
	h.loadRecords(t, badgeRecord("b1", "2u8.private", farExpiry, false))

	view := h.svc.Lending()
	assert.True(t, view.HasBadge)
	assert.Equal(t, income.Silver, view.Tier)
	assert.Empty(t, view.Message)

	byID := map[int]PoolView{}
	for _, p := range view.Pools {
		byID[p.ID] = p
	}
	assert.False(t, byID[1].CanAccess)
	assert.True(t, byID[2].CanAccess)
	assert.True(t, decimal.NewFromInt(20000).Equal(byID[2].EffectiveMax))
	assert.True(t, byID[3].CanAccess)
	assert.True(t, decimal.NewFromInt(10000).Equal(byID[3].EffectiveMax))
	assert.Equal(t, 1.0, testutil.ToFloat64(h.metrics.ActiveBadges))
}

func TestRequestLoan(t *testing.T) {
	h := newHarness(t)
	badge := badgeRecord("b1", "2u8.private", farExpiry, false)
	h.loadRecords(t, badge)

	result, err := h.svc.RequestLoan(context.Background(), 2, decimal.NewFromInt(5000))
	require.NoError(t, err)
	assert.Equal(t, network.StatusConfirmed, result.Status)
	assert.Equal(t, "0.30 credits", result.Fee)
	assert.Equal(t, "https://explorer.test/transaction/at1abc", result.ExplorerURL)

	req := h.wallet.lastRequest(t)
	assert.Equal(t, transaction.FnRequestLoan, req.Function())
	inputs := req.Transitions[0].Inputs
	assert.Equal(t, badge.Raw.(map[string]any)["plaintext"], inputs[0])
	assert.Equal(t, []string{"5000000000u64", "2u8", "1700000000u32"}, inputs[1:])
	assert.Empty(t, h.store.Processing())
}

func TestRequestLoanChecks(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	_, err := h.svc.RequestLoan(ctx, 3, decimal.NewFromInt(100))
	assert.Equal(t, failure.KindNoBadge, failure.KindOf(err))

	h.loadRecords(t, badgeRecord("b1", "2u8.private", farExpiry, false))

	_, err = h.svc.RequestLoan(ctx, 1, decimal.NewFromInt(100))
	assert.Equal(t, failure.KindIneligible, failure.KindOf(err))

	_, err = h.svc.RequestLoan(ctx, 2, decimal.NewFromInt(25000))
	assert.Equal(t, failure.KindValidation, failure.KindOf(err))
	assert.Equal(t, "Maximum loan from Aura Silver Pool is $20,000.", failure.Message(err))

	_, err = h.svc.RequestLoan(ctx, 9, decimal.NewFromInt(100))
	assert.Equal(t, failure.KindValidation, failure.KindOf(err))

	_, err = h.svc.RequestLoan(ctx, 2, decimal.Zero)
	assert.Equal(t, failure.KindValidation, failure.KindOf(err))

	assert.Empty(t, h.wallet.requests)
}

func TestRequestLoanStaleBadge(t *testing.T) {
	h := newHarness(t)
	h.loadRecords(t, badgeRecord("b1", "1u8.private", farExpiry, false))
	h.wallet.txErr = failure.Classify("request transaction", errors.New("Unspent record not found"))

	_, err := h.svc.RequestLoan(context.Background(), 3, decimal.NewFromInt(500))
	assert.Equal(t, failure.KindStaleRecord, failure.KindOf(err))
	assert.Equal(t, failure.RemedyRefresh, failure.KindOf(err).Remedy())
}

func TestRecordInputPrefersPlaintexts(t *testing.T) {
	h := newHarness(t)
	plaintext := "{ owner: " + testAddress + ".private, income_bracket: 1u8.private, expiry_timestamp: " + farExpiry + " }"
	better := "{ owner: " + testAddress + ".private, income_bracket: 3u8.private, expiry_timestamp: " + farExpiry + " }"
	h.wallet.plaintexts = []any{plaintext, better}

	input, err := h.svc.recordInput(context.Background(), wallet.RecordCreditBadge, "")
	require.NoError(t, err)
	assert.Equal(t, better, input, "highest bracket wins")
	assert.Zero(t, h.wallet.recordCalls)
}

func TestRecordInputFallsBackToRecords(t *testing.T) {
	h := newHarness(t)
	h.wallet.plaintextErr = errors.New("Permission Not Granted")
	badge := badgeRecord("b1", "2u8.private", farExpiry, false)
	h.wallet.records = []wallet.Record{badgeRecord("b0", "3u8.private", farExpiry, true), badge}

	input, err := h.svc.recordInput(context.Background(), wallet.RecordCreditBadge, "")
	require.NoError(t, err)
	assert.Equal(t, badge.Raw.(map[string]any)["plaintext"], input)

	h.wallet.records = nil
	_, err = h.svc.recordInput(context.Background(), wallet.RecordCreditBadge, "")
	assert.Equal(t, failure.KindNoBadge, failure.KindOf(err))

	_, err = h.svc.recordInput(context.Background(), wallet.RecordLoanPosition, "")
	assert.Equal(t, failure.KindRecordUnavailable, failure.KindOf(err))
}

func TestRepayLoanSelectsLoanByID(t *testing.T) {
	h := newHarness(t)
	loan := func(id string) wallet.Record {
		return wallet.Record{
			ID:         id,
			RecordName: wallet.RecordLoanPosition,
			Data:       map[string]any{"principal": "1000000000u64.private", "pool_id": "3u8.private"},
			Raw:        map[string]any{"id": id, "ciphertext": "record1" + id},
		}
	}
	h.loadRecords(t, loan("l1"), loan("l2"))

	_, err := h.svc.RepayLoan(context.Background(), "l2", decimal.NewFromInt(100))
	require.NoError(t, err)

	req := h.wallet.lastRequest(t)
	assert.Equal(t, transaction.FnRepayLoan, req.Function())
	assert.Equal(t, []string{"record1l2", "100000000u64"}, req.Transitions[0].Inputs)

	_, err = h.svc.RepayLoan(context.Background(), "l1", decimal.NewFromInt(-1))
	assert.Equal(t, failure.KindValidation, failure.KindOf(err))
}

func TestNamedRecordMustExist(t *testing.T) {
	h := newHarness(t)
	h.loadRecords(t,
		wallet.Record{
			ID:         "loan-a",
			RecordName: wallet.RecordLoanPosition,
			Data:       map[string]any{"principal": "1000000000u64.private", "pool_id": "3u8.private"},
			Raw:        map[string]any{"id": "loan-a", "ciphertext": "record1loana"},
		},
		badgeRecord("b1", "2u8.private", farExpiry, false),
	)
	ctx := context.Background()

	_, err := h.svc.RepayLoan(ctx, "loan-missing", decimal.NewFromInt(1))
	require.Error(t, err)
	assert.Equal(t, failure.KindRecordUnavailable, failure.KindOf(err))
	assert.Contains(t, failure.Message(err), "loan-missing")

	_, err = h.svc.RenewBadge(ctx, "b-missing")
	assert.Equal(t, failure.KindNoBadge, failure.KindOf(err))

	_, err = h.svc.Withdraw(ctx, "lp-missing")
	assert.Equal(t, failure.KindRecordUnavailable, failure.KindOf(err))

	assert.Empty(t, h.wallet.requests, "nothing submitted for unknown records")
}

func TestRenewExpiredBadge(t *testing.T) {
	h := newHarness(t)
	expired := badgeRecord("b1", "3u8.private", "1000u64.private", false)
	h.loadRecords(t, expired)
	require.False(t, h.store.Badges()[0].IsActive)

	result, err := h.svc.RenewBadge(context.Background(), "b1")
	require.NoError(t, err)
	assert.Equal(t, "CreditBadge renewed.", result.Message)

	req := h.wallet.lastRequest(t)
	assert.Equal(t, transaction.FnRenewBadge, req.Function())
	assert.Equal(t, "1700000000u64", req.Transitions[0].Inputs[1])
}

func TestDepositAndWithdraw(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	_, err := h.svc.Deposit(ctx, 7, decimal.NewFromInt(250))
	assert.Equal(t, failure.KindValidation, failure.KindOf(err))

	_, err = h.svc.Deposit(ctx, 1, decimal.NewFromInt(250))
	require.NoError(t, err)
	req := h.wallet.lastRequest(t)
	assert.Equal(t, []string{"250000000u64", "1u8", "1700000000u32"}, req.Transitions[0].Inputs)

	h.loadRecords(t, wallet.Record{
		ID:         "lp1",
		RecordName: wallet.RecordLPToken,
		Data:       map[string]any{"amount": "250000000u64.private", "pool_id": "1u8.private"},
		Raw:        map[string]any{"id": "lp1", "record_plaintext": "{ owner: x.private, amount: 250000000u64.private, pool_id: 1u8.private }"},
	})
	h.chain.status = network.StatusPending

	result, err := h.svc.Withdraw(ctx, "lp1")
	require.NoError(t, err)
	assert.Equal(t, network.StatusPending, result.Status)
	assert.Contains(t, result.Message, "Waiting for confirmation")
	req = h.wallet.lastRequest(t)
	assert.Equal(t, transaction.FnWithdrawFromPool, req.Function())
}

func TestBalance(t *testing.T) {
	h := newHarness(t)
	h.chain.balance = decimal.RequireFromString("12.5")

	bal, err := h.svc.Balance(context.Background())
	require.NoError(t, err)
	assert.True(t, decimal.RequireFromString("12.5").Equal(bal))

	h.chain.balanceErr = errors.New("API request failed: 500")
	bal, err = h.svc.Balance(context.Background())
	require.NoError(t, err)
	assert.True(t, bal.IsZero())

	h.wallet.address = ""
	_, err = h.svc.Balance(context.Background())
	assert.Equal(t, failure.KindNotConnected, failure.KindOf(err))
}

func TestConnectRefreshesRecords(t *testing.T) {
	h := newHarness(t)
	h.wallet.address = ""
	h.wallet.records = []wallet.Record{badgeRecord("b1", "1u8.private", farExpiry, false)}

	status, err := h.svc.Connect(context.Background())
	require.NoError(t, err)
	assert.True(t, status.Connected)
	assert.Len(t, h.store.Badges(), 1)

	h.wallet.recordsErr = errors.New("Permission Not Granted")
	_, err = h.svc.Reconnect(context.Background())
	assert.NoError(t, err, "a failed refresh does not fail the connection")

	h.wallet.connectErr = failure.New(failure.KindNotInstalled, "connect", "")
	_, err = h.svc.Connect(context.Background())
	assert.Equal(t, failure.KindNotInstalled, failure.KindOf(err))
}

func TestTransactionStatus(t *testing.T) {
	h := newHarness(t)
	h.store.AddTransaction(store.TxEntry{ID: "at1x", Status: "pending"})
	h.chain.status = network.StatusConfirmed

	status, err := h.svc.TransactionStatus(context.Background(), "at1x")
	require.NoError(t, err)
	assert.Equal(t, network.StatusConfirmed, status)
	assert.Equal(t, "confirmed", h.svc.Transactions()[0].Status)
	assert.Equal(t, model.SubmissionConfirmed, h.repo.statuses["at1x"])
}

func TestSignAndFees(t *testing.T) {
	h := newHarness(t)

	sig, err := h.svc.Sign(context.Background(), "hello")
	require.NoError(t, err)
	assert.Equal(t, "sign1hello", sig)

	_, err = h.svc.Sign(context.Background(), "")
	assert.Equal(t, failure.KindValidation, failure.KindOf(err))

	fees := h.svc.Fees()
	assert.Equal(t, "0.50 credits", fees[transaction.FnVerifyIncome])
}
