package transaction

import (
	"encoding/json"
	"fmt"
	"strings"
)

// RecordInput chooses the string passed to the wallet for a record input.
// The wallet may hand back records as plaintext strings or as objects of
// several shapes; the first usable form is taken in this order:
//
//	plaintext string containing "owner:"  -> as is
//	{plaintext} / {record_plaintext}      -> that field
//	{ciphertext} / {record_ciphertext}    -> that field
//	{data: {_nonce, ...}, owner}          -> plaintext rebuilt from data
//	anything else                         -> JSON of the record
func RecordInput(record any) (string, error) {
	switch r := record.(type) {
	case nil:
		return "", fmt.Errorf("record is nil")
	case string:
		if strings.Contains(r, "owner:") {
			return r, nil
		}
		return "", fmt.Errorf("record string is not a plaintext record")
	case map[string]any:
		for _, key := range []string{"plaintext", "record_plaintext", "ciphertext", "record_ciphertext"} {
			if s, ok := r[key].(string); ok && s != "" {
				return s, nil
			}
		}
		if data, ok := r["data"].(map[string]any); ok && data["_nonce"] != nil {
			return rebuildPlaintext(r["owner"], data), nil
		}
	}

	b, err := json.Marshal(record)
	if err != nil {
		return "", fmt.Errorf("failed to encode record: %w", err)
	}
	return string(b), nil
}

// rebuildPlaintext renders a CreditBadge plaintext from decrypted record data.
func rebuildPlaintext(owner any, data map[string]any) string {
	var b strings.Builder
	b.WriteString("{\n")
	fmt.Fprintf(&b, "  owner: %s.private,\n", bareValue(owner))
	fmt.Fprintf(&b, "  income_bracket: %s.private,\n", bareValue(data["income_bracket"]))
	fmt.Fprintf(&b, "  expiry_timestamp: %s.private,\n", bareValue(data["expiry_timestamp"]))
	fmt.Fprintf(&b, "  nonce: %s.private,\n", withType(bareValue(data["nonce"]), "field"))
	fmt.Fprintf(&b, "  _nonce: %s.public\n", withType(bareValue(data["_nonce"]), "group"))
	b.WriteString("}")
	return b.String()
}

func bareValue(v any) string {
	if v == nil {
		return ""
	}
	s := fmt.Sprint(v)
	s = strings.Replace(s, ".private", "", 1)
	return strings.Replace(s, ".public", "", 1)
}

func withType(v, typ string) string {
	if strings.HasSuffix(v, typ) {
		return v
	}
	return v + typ
}
