package wallet

import (
	"encoding/hex"
	"fmt"
)

// Provider results come in several historical shapes. Each extractor below
// walks one fixed table of shapes and takes the first non-empty string.
//
// Address (connect result):
//
//	"aleo1..."                 -> the string
//	{"address": "aleo1..."}    -> address
//	{"publicKey": "aleo1..."}  -> publicKey
//
// Transaction id (requestTransaction result):
//
//	"at1..."                   -> the string
//	{"transactionId": ...}     -> transactionId
//	{"id": ...}                -> id
//	{"txId": ...}              -> txId
//	{"transaction_id": ...}    -> transaction_id
//
// Record list (requestRecords result):
//
//	[...]                      -> the list
//	{"records": [...]}         -> records
//
// Signature (signMessage result):
//
//	"..."                      -> the string
//	{"signature": "..."}       -> signature
//	{"signature": [bytes]}     -> hex of the bytes
//	[bytes]                    -> hex of the bytes

var (
	addressFields       = []string{"address", "publicKey"}
	transactionIDFields = []string{"transactionId", "id", "txId", "transaction_id"}
)

// ExtractAddress returns the account address carried by a connect-style
// result, or "".
func ExtractAddress(result any) string {
	return firstString(result, addressFields)
}

// ExtractTransactionID returns the transaction id carried by a
// requestTransaction result, or "".
func ExtractTransactionID(result any) string {
	return firstString(result, transactionIDFields)
}

// RecordList returns the record entries of a requestRecords result. The
// second value is false when the shape is not recognized.
func RecordList(result any) ([]any, bool) {
	switch r := result.(type) {
	case nil:
		return nil, true
	case []any:
		return r, true
	case map[string]any:
		if r["records"] == nil {
			return nil, true
		}
		list, ok := r["records"].([]any)
		return list, ok
	}
	return nil, false
}

// ExtractSignature returns the signature of a signMessage result, hex
// encoding raw bytes.
func ExtractSignature(result any) string {
	switch r := result.(type) {
	case string:
		return r
	case []byte:
		return hex.EncodeToString(r)
	case []any:
		if b, ok := bytesOf(r); ok {
			return hex.EncodeToString(b)
		}
	case map[string]any:
		return ExtractSignature(r["signature"])
	}
	return ""
}

func firstString(result any, fields []string) string {
	switch r := result.(type) {
	case string:
		return r
	case map[string]any:
		for _, f := range fields {
			if s, ok := r[f].(string); ok && s != "" {
				return s
			}
		}
	}
	return ""
}

// bytesOf converts a decoded JSON array of numbers into bytes.
func bytesOf(list []any) ([]byte, bool) {
	out := make([]byte, len(list))
	for i, v := range list {
		n, ok := v.(float64)
		if !ok || n < 0 || n > 255 || n != float64(int(n)) {
			return nil, false
		}
		out[i] = byte(n)
	}
	return out, true
}

func describe(result any) string {
	return fmt.Sprintf("%T", result)
}
