package income

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"aura-protocol-go/internal/failure"
)

// Tier is the credit tier. Its numeric value is the on-chain income bracket.
type Tier int

const (
	TierNone Tier = iota
	Bronze
	Silver
	Gold
)

func (t Tier) String() string {
	switch t {
	case Bronze:
		return "bronze"
	case Silver:
		return "silver"
	case Gold:
		return "gold"
	default:
		return "none"
	}
}

// Bracket is the income bracket number sent to the ledger (0 for no tier).
func (t Tier) Bracket() int { return int(t) }

// TierFromBracket maps a bracket number back to a Tier.
func TierFromBracket(bracket int) Tier {
	if bracket < int(Bronze) || bracket > int(Gold) {
		return TierNone
	}
	return Tier(bracket)
}

// MarshalText renders the tier as its lowercase name.
func (t Tier) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

var (
	// MinimumAnnualIncome is the floor below which no tier is granted.
	MinimumAnnualIncome = decimal.NewFromInt(25000)

	breakpoints = []struct {
		tier Tier
		min  decimal.Decimal
	}{
		{Gold, decimal.NewFromInt(150000)},
		{Silver, decimal.NewFromInt(75000)},
		{Bronze, MinimumAnnualIncome},
	}
)

// TierResult is the outcome of classifying an annual income.
type TierResult struct {
	Tier          Tier            `json:"tier"`
	Bracket       int             `json:"bracket"`
	ThresholdUsed decimal.Decimal `json:"threshold_used"`
}

// Classify maps annual income to a tier using inclusive lower bounds.
// Income below the floor returns a BelowFloor error naming the amount.
func Classify(annual decimal.Decimal) (TierResult, error) {
	for _, bp := range breakpoints {
		if annual.GreaterThanOrEqual(bp.min) {
			return TierResult{Tier: bp.tier, Bracket: bp.tier.Bracket(), ThresholdUsed: bp.min}, nil
		}
	}

	msg := fmt.Sprintf("Income of $%s/year is below the minimum threshold of $%s/year required for a CreditBadge.",
		FormatUSD(annual), FormatUSD(MinimumAnnualIncome))
	return TierResult{Tier: TierNone, ThresholdUsed: decimal.Zero}, failure.New(failure.KindBelowFloor, "classify income", msg)
}

// FormatUSD renders an amount with thousands separators and at most two
// decimal places, e.g. 24999.5 -> "24,999.5".
func FormatUSD(amount decimal.Decimal) string {
	s := amount.Round(2).String()

	sign := ""
	if strings.HasPrefix(s, "-") {
		sign, s = "-", s[1:]
	}
	whole, frac, hasFrac := strings.Cut(s, ".")

	var b strings.Builder
	for i, r := range whole {
		if i > 0 && (len(whole)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	if hasFrac {
		b.WriteString("." + frac)
	}
	return sign + b.String()
}
