package transaction

// DefaultFee is charged for functions without an entry in Fees.
const DefaultFee int64 = 200_000

// Fees per program function, in microcredits.
var Fees = map[string]int64{
	FnVerifyIncome:     500_000,
	FnRequestLoan:      300_000,
	FnRepayLoan:        300_000,
	FnRenewBadge:       200_000,
	FnDepositToPool:    200_000,
	FnWithdrawFromPool: 200_000,
}

// EstimateFee returns the fee for a function in microcredits.
func EstimateFee(function string) int64 {
	if fee, ok := Fees[function]; ok {
		return fee
	}
	return DefaultFee
}

// FormatFee renders a microcredit fee as e.g. "0.50 credits".
func FormatFee(micro int64) string {
	return FromMicrocredits(micro).StringFixed(2) + " credits"
}
