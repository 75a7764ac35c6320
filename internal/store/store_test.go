package store

import (
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"aura-protocol-go/internal/failure"
	"aura-protocol-go/internal/income"
	"aura-protocol-go/internal/wallet"
)

var testNow = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

func newTestStore() *Store {
	s := New()
	s.SetClock(func() time.Time { return testNow })
	return s
}

func badgeRecord(id string, bracket int, expiry time.Time, spent bool) wallet.Record {
	return wallet.Record{
		ID:         id,
		Spent:      spent,
		RecordName: wallet.RecordCreditBadge,
		Data: map[string]any{
			"income_bracket":   fmt.Sprintf("%du8.private", bracket),
			"expiry_timestamp": fmt.Sprintf("%du64.private", expiry.Unix()),
		},
	}
}

func TestApplyRecordsDropsSpent(t *testing.T) {
	s := newTestStore()

	badges, loans := s.ApplyRecords([]wallet.Record{badgeRecord("b1", 3, testNow.Add(time.Hour), true)})
	assert.Empty(t, badges)
	assert.Empty(t, loans)
	assert.Equal(t, income.TierNone, s.HighestTier())
	assert.False(t, s.HasMinTier(income.Bronze))
}

func TestApplyRecordsBuildsBadgesAndLoans(t *testing.T) {
	s := newTestStore()

	records := []wallet.Record{
		badgeRecord("gold-expired", 3, testNow.Add(-time.Hour), false),
		badgeRecord("silver", 2, testNow.Add(365*24*time.Hour), false),
		{
			ID:         "loan1",
			RecordName: wallet.RecordLoanPosition,
			Data: map[string]any{
				"principal":       "2500000000u64.private",
				"interest_rate":   "900u16.private",
				"pool_id":         "2u8.private",
				"start_timestamp": "1717200000u32.private",
			},
		},
		{
			ID:         "lp1",
			RecordName: wallet.RecordLPToken,
			Data:       map[string]any{"amount": "1000000u64.private", "pool_id": "3u8.private"},
		},
		{ID: "other", RecordName: "Unknown"},
	}

	badges, loans := s.ApplyRecords(records)
	require.Len(t, badges, 2)
	require.Len(t, loans, 1)

	assert.False(t, badges[0].IsActive)
	assert.Equal(t, income.Gold, badges[0].Tier)
	assert.True(t, badges[1].IsActive)
	assert.Equal(t, 2, badges[1].TierNum)

	// The expired gold badge does not count.
	assert.Equal(t, income.Silver, s.HighestTier())
	assert.True(t, s.HasMinTier(income.Bronze))
	assert.True(t, s.HasMinTier(income.Silver))
	assert.False(t, s.HasMinTier(income.Gold))

	best, ok := s.BestBadge()
	require.True(t, ok)
	assert.Equal(t, "silver", best.ID)

	loan := loans[0]
	assert.Equal(t, "Aura Silver Pool", loan.PoolName)
	assert.True(t, decimal.NewFromInt(2500).Equal(loan.Principal))
	assert.True(t, decimal.NewFromInt(9).Equal(loan.APYPercent))
	assert.Equal(t, int64(1717200000), loan.StartedAt.Unix())

	tokens := s.LPTokens()
	require.Len(t, tokens, 1)
	assert.Equal(t, 3, tokens[0].PoolID)
	assert.True(t, decimal.NewFromInt(1).Equal(tokens[0].Amount))
}

func TestApplyRecordsReplacesPreviousState(t *testing.T) {
	s := newTestStore()
	s.ApplyRecords([]wallet.Record{badgeRecord("b1", 1, testNow.Add(time.Hour), false)})
	require.Len(t, s.Badges(), 1)

	s.ApplyRecords(nil)
	assert.Empty(t, s.Badges())
}

func TestBadgeDefaultsAndUnknownPool(t *testing.T) {
	s := newTestStore()
	badges, loans := s.ApplyRecords([]wallet.Record{
		{ID: "b", RecordName: wallet.RecordCreditBadge},
		{ID: "l", RecordName: wallet.RecordLoanPosition, Data: map[string]any{"pool_id": "9u8"}},
	})

	require.Len(t, badges, 1)
	assert.Equal(t, income.Bronze, badges[0].Tier)
	assert.False(t, badges[0].IsActive)
	assert.Equal(t, "Pool 9", loans[0].PoolName)
}

func TestClear(t *testing.T) {
	s := newTestStore()
	s.ApplyRecords([]wallet.Record{badgeRecord("b1", 2, testNow.Add(time.Hour), false)})
	s.AddTransaction(TxEntry{ID: "at1x", Type: "verify_income"})
	s.StartVerification()

	s.Clear()
	assert.Empty(t, s.Badges())
	assert.Empty(t, s.Transactions())
	assert.Equal(t, VerifyIdle, s.Verification().Status)
	assert.Len(t, s.Pools(), 3)
}

func TestTransactionHistoryCap(t *testing.T) {
	s := newTestStore()
	for i := 0; i < MaxTransactions+5; i++ {
		s.AddTransaction(TxEntry{ID: fmt.Sprintf("tx%d", i)})
	}

	txs := s.Transactions()
	require.Len(t, txs, MaxTransactions)
	assert.Equal(t, fmt.Sprintf("tx%d", MaxTransactions+4), txs[0].ID)
	assert.Equal(t, testNow, txs[0].Timestamp)

	assert.True(t, s.UpdateTransactionStatus("tx54", "confirmed"))
	assert.Equal(t, "confirmed", s.Transactions()[0].Status)
	assert.False(t, s.UpdateTransactionStatus("tx0", "confirmed"))
}

func TestVerificationLifecycle(t *testing.T) {
	s := newTestStore()
	assert.Equal(t, VerifyIdle, s.Verification().Status)

	s.StartVerification()
	assert.True(t, s.Verification().InProgress)

	s.UpdateVerification(VerifyGenerating, 60, "Generating proof...")
	s.SetVerificationTransaction("at1v")
	st := s.Verification()
	assert.Equal(t, 60, st.Progress)
	assert.Equal(t, "at1v", st.TransactionID)

	s.CompleteVerification(&VerificationResult{Tier: income.Silver, Bracket: 2}, "at1v")
	st = s.Verification()
	assert.False(t, st.InProgress)
	assert.Equal(t, VerifyComplete, st.Status)
	assert.Equal(t, 100, st.Progress)
	assert.Empty(t, s.Badges(), "badges only come from wallet records")

	s.FailVerification("nope")
	assert.Equal(t, VerifyError, s.Verification().Status)
	assert.Equal(t, "nope", s.Verification().Message)

	s.ResetVerification()
	assert.Equal(t, VerifyIdle, s.Verification().Status)
}

func TestBeginOperationGuard(t *testing.T) {
	s := newTestStore()

	done, err := s.BeginOperation("request_loan")
	require.NoError(t, err)
	assert.Equal(t, "request_loan", s.Processing())

	_, err = s.BeginOperation("verify_income")
	assert.Equal(t, failure.KindBusy, failure.KindOf(err))

	done()
	done()
	assert.Empty(t, s.Processing())

	done, err = s.BeginOperation("verify_income")
	require.NoError(t, err)
	done()
}

func TestPools(t *testing.T) {
	s := newTestStore()

	pool, ok := s.Pool(1)
	require.True(t, ok)
	assert.Equal(t, "Aura Gold Pool", pool.Name)
	assert.Equal(t, income.Gold, pool.RequiredTier)
	assert.True(t, decimal.NewFromInt(375000).Equal(pool.Available()))

	s.SetPoolLiquidity(1, decimal.NewFromInt(600000))
	pool, _ = s.Pool(1)
	assert.True(t, decimal.NewFromInt(600000).Equal(pool.TotalLiquidity))

	_, ok = s.Pool(42)
	assert.False(t, ok)
}

func TestNetworkStatus(t *testing.T) {
	s := newTestStore()
	assert.False(t, s.Network().Initialized)

	s.SetNetworkConnected(true, "https://api.explorer.provable.com/v1/testnet")
	s.SetLatestHeight(99)
	n := s.Network()
	assert.True(t, n.Initialized)
	assert.True(t, n.Connected)
	assert.Equal(t, int64(99), n.LatestHeight)
}
