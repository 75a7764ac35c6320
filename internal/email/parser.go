// Package email turns raw email source into structured headers, DKIM tags
// and body text.
//
// No cryptographic DKIM verification is performed anywhere in this package.
// A DKIM-Signature header is only parsed into its tags; the presence of the
// "b" tag is the only signal treated as "has a signature".
package email

import (
	"regexp"
	"strings"
)

// ParsedEmail is the structured form of a raw email. It is created once per
// verification attempt and not modified afterwards.
type ParsedEmail struct {
	// Headers maps lower-cased header names to values. The last occurrence
	// of a repeated header wins; continuation lines are folded in.
	Headers map[string]string `json:"headers"`
	// DKIM maps DKIM-Signature tags to values. Empty when the header is absent.
	DKIM    map[string]string `json:"dkim_fields"`
	Body    string            `json:"body"`
	From    string            `json:"from"`
	Subject string            `json:"subject"`
	Date    string            `json:"date"`
	Domain  string            `json:"domain"`
}

var (
	headerLine   = regexp.MustCompile(`^([^:]+):\s*(.*)$`)
	angleAddress = regexp.MustCompile(`<([^>]+)>`)
)

// Parse splits raw email text into headers and body. It never fails: input
// without the expected structure yields empty fields.
func Parse(raw string) *ParsedEmail {
	lines := strings.Split(raw, "\n")

	headers := make(map[string]string)
	var bodyLines []string
	inBody := false
	current := ""

	for _, line := range lines {
		line = strings.TrimSuffix(line, "\r")

		if inBody {
			bodyLines = append(bodyLines, line)
			continue
		}

		if line == "" {
			inBody = true
			continue
		}

		// Folded continuation of the previous header.
		if current != "" && startsWithSpace(line) {
			headers[current] += " " + strings.TrimSpace(line)
			continue
		}

		m := headerLine.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		current = strings.ToLower(strings.TrimSpace(m[1]))
		headers[current] = m[2]
	}

	parsed := &ParsedEmail{
		Headers: headers,
		DKIM:    parseDKIM(headers["dkim-signature"]),
		Body:    strings.TrimSpace(strings.Join(bodyLines, "\n")),
		From:    extractAddress(headers["from"]),
		Subject: headers["subject"],
		Date:    headers["date"],
	}
	parsed.Domain = parsed.DKIM["d"]
	return parsed
}

// HasSignature reports whether a DKIM signature payload is present.
func (p *ParsedEmail) HasSignature() bool {
	return p.DKIM["b"] != ""
}

// IsMIME reports whether the message declares a MIME structure that needs
// decoding before its body can be read as text.
func (p *ParsedEmail) IsMIME() bool {
	ct := strings.ToLower(p.Headers["content-type"])
	if strings.HasPrefix(ct, "multipart/") {
		return true
	}
	switch strings.ToLower(strings.TrimSpace(p.Headers["content-transfer-encoding"])) {
	case "quoted-printable", "base64":
		return true
	}
	return false
}

func parseDKIM(value string) map[string]string {
	fields := make(map[string]string)
	if value == "" {
		return fields
	}
	for _, part := range strings.Split(value, ";") {
		key, val, ok := strings.Cut(strings.TrimSpace(part), "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			continue
		}
		fields[key] = strings.TrimSpace(val)
	}
	return fields
}

func extractAddress(value string) string {
	if m := angleAddress.FindStringSubmatch(value); m != nil {
		return m[1]
	}
	return strings.TrimSpace(value)
}

func startsWithSpace(line string) bool {
	return line[0] == ' ' || line[0] == '\t'
}
