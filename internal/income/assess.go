package income

import (
	"github.com/shopspring/decimal"

	"aura-protocol-go/internal/failure"
)

const msgNoIncome = `Could not extract income amount from email. Please ensure this is a deposit notification, payslip, or offer letter that contains a dollar amount (e.g., "$5,000", "salary: $80,000")`

// Assessment is the full classification of one email body.
type Assessment struct {
	Income       ExtractedIncome `json:"income"`
	Frequency    Frequency       `json:"frequency"`
	FrequencyTag string          `json:"frequency_label"`
	AnnualIncome decimal.Decimal `json:"annual_income"`
	TierResult
}

// Assess runs extraction, frequency detection, annualization and tier
// classification in sequence.
func Assess(subject, body string) (*Assessment, error) {
	extracted := ExtractIncome(body)
	if extracted == nil {
		return nil, failure.New(failure.KindNoIncome, "extract income", msgNoIncome)
	}

	freq := DetectFrequency(body, subject)
	annual := Annualize(extracted.Amount, freq)

	result, err := Classify(annual)
	if err != nil {
		return nil, err
	}

	return &Assessment{
		Income:       *extracted,
		Frequency:    freq,
		FrequencyTag: freq.String(),
		AnnualIncome: annual,
		TierResult:   result,
	}, nil
}
