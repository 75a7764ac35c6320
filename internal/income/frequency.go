package income

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Frequency is how often the extracted amount is paid.
type Frequency int

const (
	Weekly Frequency = iota + 1
	BiWeekly
	Monthly
	Annual
)

func (f Frequency) String() string {
	switch f {
	case Weekly:
		return "Weekly"
	case BiWeekly:
		return "Bi-weekly"
	case Monthly:
		return "Monthly"
	case Annual:
		return "Annual"
	default:
		return "Unknown"
	}
}

// PaymentsPerYear is the annualization multiplier. Unknown values are
// treated as monthly.
func (f Frequency) PaymentsPerYear() int64 {
	switch f {
	case Weekly:
		return 52
	case BiWeekly:
		return 26
	case Annual:
		return 1
	default:
		return 12
	}
}

var frequencyKeywords = []struct {
	freq     Frequency
	keywords []string
}{
	// Bi-weekly goes first: "bi-weekly" contains "weekly".
	{BiWeekly, []string{"bi-weekly", "biweekly", "every two weeks"}},
	{Weekly, []string{"weekly", "week ending"}},
	{Monthly, []string{"monthly", "month of"}},
	{Annual, []string{"annual", "yearly", "per year"}},
}

// DetectFrequency searches subject and body for pay-period keywords and
// defaults to Monthly.
func DetectFrequency(body, subject string) Frequency {
	text := strings.ToLower(subject + " " + body)
	for _, entry := range frequencyKeywords {
		for _, kw := range entry.keywords {
			if strings.Contains(text, kw) {
				return entry.freq
			}
		}
	}
	return Monthly
}

// Annualize converts a per-period amount into annual income.
func Annualize(amount decimal.Decimal, freq Frequency) decimal.Decimal {
	return amount.Mul(decimal.NewFromInt(freq.PaymentsPerYear()))
}
