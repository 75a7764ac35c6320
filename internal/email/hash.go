package email

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math/big"
	"strings"
	"unicode/utf16"
)

var u128Modulus = new(big.Int).Lsh(big.NewInt(1), 128)

// HashDomain folds a domain name into a u128 commitment (polynomial hash,
// base 31, over UTF-16 code units) and returns it as a decimal string.
func HashDomain(domain string) string {
	hash := new(big.Int)
	base := big.NewInt(31)
	for _, unit := range utf16.Encode([]rune(domain)) {
		hash.Mul(hash, base)
		hash.Add(hash, big.NewInt(int64(unit)))
		hash.Mod(hash, u128Modulus)
	}
	return hash.String()
}

// VerificationData is the payload summarized by VerificationHash.
type VerificationData struct {
	Domain    string `json:"domain"`
	Tier      string `json:"tier"`
	Timestamp int64  `json:"timestamp"`
}

// VerificationHash returns a short display hash of data: a 32-bit rolling
// hash of its JSON encoding, rendered as 0x followed by 40 hex digits.
// It is an identifier for display, not a cryptographic commitment.
func VerificationHash(data VerificationData) string {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(data); err != nil {
		return ""
	}
	encoded := strings.TrimSuffix(buf.String(), "\n")

	var hash int32
	for _, unit := range utf16.Encode([]rune(encoded)) {
		hash = (hash << 5) - hash + int32(unit)
	}

	abs := int64(hash)
	if abs < 0 {
		abs = -abs
	}
	return fmt.Sprintf("0x%040x", abs)
}
