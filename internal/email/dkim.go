package email

import (
	"fmt"
	"strings"
)

var requiredDKIMTags = []string{"v", "a", "d", "s", "h", "bh", "b"}

// DKIMCheck is the outcome of a structural look at DKIM tags. It says nothing
// about whether the signature is cryptographically valid: no DNS key lookup,
// canonicalization or RSA check is done. It is a proof-of-concept signal only.
type DKIMCheck struct {
	Present     bool     `json:"present"`
	WellFormed  bool     `json:"well_formed"`
	MissingTags []string `json:"missing_tags,omitempty"`
	Problem     string   `json:"problem,omitempty"`
	Domain      string   `json:"domain,omitempty"`
	Selector    string   `json:"selector,omitempty"`
	Algorithm   string   `json:"algorithm,omitempty"`
}

// CheckDKIM inspects the tags of a parsed DKIM-Signature header.
func CheckDKIM(fields map[string]string) DKIMCheck {
	check := DKIMCheck{
		Present:   fields["b"] != "",
		Domain:    fields["d"],
		Selector:  fields["s"],
		Algorithm: fields["a"],
	}

	for _, tag := range requiredDKIMTags {
		if fields[tag] == "" {
			check.MissingTags = append(check.MissingTags, tag)
		}
	}

	switch {
	case len(check.MissingTags) > 0:
		check.Problem = fmt.Sprintf("missing DKIM fields: %s", strings.Join(check.MissingTags, ", "))
	case fields["a"] != "rsa-sha256":
		check.Problem = fmt.Sprintf("unsupported algorithm: %s", fields["a"])
	case fields["v"] != "1":
		check.Problem = fmt.Sprintf("unsupported DKIM version: %s", fields["v"])
	default:
		check.WellFormed = true
	}
	return check
}
