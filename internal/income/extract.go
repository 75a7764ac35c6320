// Package income extracts an income figure from email text and classifies
// the annualized amount into a credit tier.
package income

import (
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

// ExtractedIncome is the first income figure found in an email body.
type ExtractedIncome struct {
	Amount   decimal.Decimal `json:"amount"`
	RawMatch string          `json:"raw_match"`
	Pattern  string          `json:"pattern"`
}

type incomePattern struct {
	id string
	re *regexp.Regexp
}

// incomePatterns are tried in order; the first usable match wins even when
// a later pattern would find a larger amount.
var incomePatterns = []incomePattern{
	{"direct_deposit", regexp.MustCompile(`(?i)your (?:direct )?deposit of \$?([\d,]+(?:\.\d{2})?)`)},
	{"deposit", regexp.MustCompile(`(?i)deposit (?:of )?\$?([\d,]+(?:\.\d{2})?)`)},
	{"received_deposit", regexp.MustCompile(`(?i)received a deposit of \$?([\d,]+(?:\.\d{2})?)`)},
	{"pay_or_salary", regexp.MustCompile(`(?i)(?:net pay|gross pay|salary)[:\s]+\$?([\d,]+(?:\.\d{2})?)`)},
	{"payment", regexp.MustCompile(`(?i)(?:amount paid|payment)[:\s]+\$?([\d,]+(?:\.\d{2})?)`)},
	{"annual_salary", regexp.MustCompile(`(?i)annual (?:salary|compensation)[:\s]+\$?([\d,]+)`)},
	{"base_salary", regexp.MustCompile(`(?i)base salary[:\s]+\$?([\d,]+)`)},
	{"starting_salary", regexp.MustCompile(`(?i)starting salary[:\s]+\$?([\d,]+)`)},
	{"dollar_amount", regexp.MustCompile(`(?i)\$\s*([\d,]+(?:\.\d{2})?)`)},
}

// PatternIDs lists the extraction patterns in priority order.
func PatternIDs() []string {
	ids := make([]string, len(incomePatterns))
	for i, p := range incomePatterns {
		ids[i] = p.id
	}
	return ids
}

// ExtractIncome returns the amount captured by the first pattern that matches
// body with a positive value, or nil when nothing usable is found.
func ExtractIncome(body string) *ExtractedIncome {
	for _, p := range incomePatterns {
		m := p.re.FindStringSubmatch(body)
		if m == nil {
			continue
		}

		amount, err := decimal.NewFromString(strings.ReplaceAll(m[1], ",", ""))
		if err != nil || !amount.IsPositive() {
			continue
		}

		return &ExtractedIncome{
			Amount:   amount,
			RawMatch: m[0],
			Pattern:  p.id,
		}
	}
	return nil
}
