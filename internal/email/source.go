package email

import "strings"

// SourceType describes where an income email came from.
type SourceType struct {
	Code  int    `json:"code"`
	Label string `json:"label"`
}

var (
	SourceUnknown     = SourceType{Code: 0, Label: "Unknown"}
	SourcePayroll     = SourceType{Code: 1, Label: "Payroll"}
	SourceBank        = SourceType{Code: 2, Label: "Bank Deposit"}
	SourceOfferLetter = SourceType{Code: 3, Label: "Offer Letter"}
)

var (
	bankDomains    = []string{"chase.com", "bankofamerica.com", "wellsfargo.com", "citi.com", "usbank.com"}
	payrollDomains = []string{"adp.com", "gusto.com", "workday.com", "paychex.com", "paylocity.com"}
	offerKeywords  = []string{"offer", "compensation", "starting salary"}
)

// DetectSourceType classifies the sender from the signing domain, falling back
// to offer-letter keywords in the body.
func DetectSourceType(domain, body string) SourceType {
	domain = strings.ToLower(domain)
	body = strings.ToLower(body)

	if containsAny(domain, bankDomains) {
		return SourceBank
	}
	if containsAny(domain, payrollDomains) {
		return SourcePayroll
	}
	if containsAny(body, offerKeywords) {
		return SourceOfferLetter
	}
	return SourceUnknown
}

func containsAny(s string, needles []string) bool {
	for _, n := range needles {
		if strings.Contains(s, n) {
			return true
		}
	}
	return false
}
