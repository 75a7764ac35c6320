package network

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

var (
	addressPattern = regexp.MustCompile(`^aleo1[a-z0-9]{58}$`)
	recordBody     = regexp.MustCompile(`\{([^}]+)\}`)
	whitespace     = regexp.MustCompile(`\s+`)
)

// IsValidAddress reports whether address is a well-formed account address.
func IsValidAddress(address string) bool {
	return addressPattern.MatchString(address)
}

// ParseRecord reads a plaintext record of the form "{ key: value, ... }"
// into a map. It returns nil when there are no braces.
func ParseRecord(plaintext string) map[string]string {
	cleaned := strings.TrimSpace(whitespace.ReplaceAllString(plaintext, " "))
	m := recordBody.FindStringSubmatch(cleaned)
	if m == nil {
		return nil
	}

	fields := make(map[string]string)
	for _, part := range strings.Split(m[1], ",") {
		key, value, ok := strings.Cut(part, ":")
		key, value = strings.TrimSpace(key), strings.TrimSpace(value)
		if !ok || key == "" || value == "" {
			continue
		}
		fields[key] = value
	}
	return fields
}

// FormatCredits renders microcredits as credits with thousands separators
// and at most decimals fraction digits.
func FormatCredits(micro int64, decimals int32) string {
	credits := decimal.New(micro, -6).Round(decimals)

	whole, frac, _ := strings.Cut(credits.Abs().String(), ".")
	var b strings.Builder
	if credits.IsNegative() {
		b.WriteByte('-')
	}
	for i, r := range whole {
		if i > 0 && (len(whole)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	if frac != "" {
		b.WriteString("." + frac)
	}
	return b.String()
}

// FormatAddress shortens an address to "aleo1q...yjh9".
func FormatAddress(address string, start, end int) string {
	if len(address) <= start+end {
		return address
	}
	return address[:start] + "..." + address[len(address)-end:]
}

// ExplorerURL returns the web explorer page for a transaction, program or
// address.
func (c *Client) ExplorerURL(id, kind string) string {
	base := "https://testnet.explorer.provable.com"
	if c.network == "mainnet" {
		base = "https://explorer.provable.com"
	}

	switch kind {
	case "transaction", "program", "address":
		return fmt.Sprintf("%s/%s/%s", base, kind, id)
	default:
		return base
	}
}
