package wallet

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/mitchellh/mapstructure"

	"aura-protocol-go/internal/network"
	"aura-protocol-go/internal/transaction"
)

// Record names issued by the program.
const (
	RecordCreditBadge  = "CreditBadge"
	RecordLoanPosition = "LoanPosition"
	RecordLPToken      = "LPToken"
)

// Record is one wallet record. Data values are the decorated literals the
// wallet reports, e.g. "3u8.private".
type Record struct {
	ID         string         `mapstructure:"id" json:"id"`
	Spent      bool           `mapstructure:"spent" json:"spent"`
	RecordName string         `mapstructure:"recordName" json:"recordName"`
	ProgramID  string         `mapstructure:"program_id" json:"program_id,omitempty"`
	Owner      string         `mapstructure:"owner" json:"owner,omitempty"`
	Plaintext  string         `mapstructure:"plaintext" json:"plaintext,omitempty"`
	Ciphertext string         `mapstructure:"ciphertext" json:"ciphertext,omitempty"`
	Data       map[string]any `mapstructure:"data" json:"data"`

	// Raw is the entry exactly as the wallet returned it.
	Raw any `mapstructure:"-" json:"-"`
}

var digits = regexp.MustCompile(`\d+`)

// Field returns a data field as a string.
func (r *Record) Field(name string) string {
	v, ok := r.Data[name]
	if !ok || v == nil {
		return ""
	}
	return fmt.Sprint(v)
}

// IntField captures the first run of digits in a data field.
func (r *Record) IntField(name string) (int64, bool) {
	m := digits.FindString(r.Field(name))
	if m == "" {
		return 0, false
	}
	n, err := strconv.ParseInt(m, 10, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}

// Input returns the string to pass for this record as a transaction input.
func (r *Record) Input() (string, error) {
	return transaction.RecordInput(r.Raw)
}

// DecodeRecords converts the entries of a record list into Records. Entries
// may be record objects or plaintext strings. Entries that cannot be decoded
// are skipped and counted in the second return value.
func DecodeRecords(entries []any) ([]Record, int) {
	records := make([]Record, 0, len(entries))
	skipped := 0
	for _, entry := range entries {
		rec, err := decodeRecord(entry)
		if err != nil {
			skipped++
			continue
		}
		records = append(records, rec)
	}
	return records, skipped
}

func decodeRecord(entry any) (Record, error) {
	switch e := entry.(type) {
	case string:
		return recordFromPlaintext(e)
	case map[string]any:
		var rec Record
		decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
			WeaklyTypedInput: true,
			Result:           &rec,
		})
		if err != nil {
			return Record{}, err
		}
		if err := decoder.Decode(e); err != nil {
			return Record{}, fmt.Errorf("failed to decode record: %w", err)
		}
		if rec.Plaintext == "" {
			if s, ok := e["record_plaintext"].(string); ok {
				rec.Plaintext = s
			}
		}
		rec.Raw = e
		return rec, nil
	default:
		return Record{}, fmt.Errorf("unsupported record entry %s", describe(entry))
	}
}

// recordFromPlaintext builds a Record from a decrypted plaintext. Plaintexts
// carry no name, so it is inferred from the fields present.
func recordFromPlaintext(plaintext string) (Record, error) {
	fields := network.ParseRecord(plaintext)
	if fields == nil || fields["owner"] == "" {
		return Record{}, fmt.Errorf("not a plaintext record")
	}

	data := make(map[string]any, len(fields))
	for k, v := range fields {
		data[k] = v
	}

	sum := sha256.Sum256([]byte(plaintext))
	return Record{
		ID:         hex.EncodeToString(sum[:8]),
		RecordName: inferRecordName(fields),
		Owner:      strings.TrimSuffix(fields["owner"], ".private"),
		Plaintext:  plaintext,
		Data:       data,
		Raw:        plaintext,
	}, nil
}

func inferRecordName(fields map[string]string) string {
	switch {
	case fields["principal"] != "":
		return RecordLoanPosition
	case fields["income_bracket"] != "":
		return RecordCreditBadge
	case fields["pool_id"] != "" && fields["amount"] != "":
		return RecordLPToken
	default:
		return ""
	}
}
