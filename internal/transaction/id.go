package transaction

import "strings"

// LedgerIDPrefix starts every transaction id the ledger can resolve. Other
// ids handed back by a wallet are its own request-tracking ids.
const LedgerIDPrefix = "at1"

// IsLedgerID reports whether id can be looked up on the explorer.
func IsLedgerID(id string) bool {
	return strings.HasPrefix(id, LedgerIDPrefix)
}
