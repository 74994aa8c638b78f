package enums

import "fmt"

// LedgerReason classifies an inventory ledger entry. Entries are append-only;
// the reason never changes after the write.
type LedgerReason string

const (
	LedgerReasonInitialStock     LedgerReason = "initial_stock"
	LedgerReasonManualAdjustment LedgerReason = "manual_adjustment"
	LedgerReasonOrderPlaced      LedgerReason = "order_placed"
	LedgerReasonOrderCancelled   LedgerReason = "order_cancelled"
)

var validLedgerReasons = []LedgerReason{
	LedgerReasonInitialStock,
	LedgerReasonManualAdjustment,
	LedgerReasonOrderPlaced,
	LedgerReasonOrderCancelled,
}

// IsValid reports whether the value matches a known ledger reason.
func (r LedgerReason) IsValid() bool {
	for _, candidate := range validLedgerReasons {
		if candidate == r {
			return true
		}
	}
	return false
}

// ParseLedgerReason converts raw input into a LedgerReason.
func ParseLedgerReason(value string) (LedgerReason, error) {
	for _, candidate := range validLedgerReasons {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid ledger reason %q", value)
}
