package checkout

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Metadata keys attached to the Stripe Checkout Session so the webhook can
// rebuild the order without trusting the client again.
const (
	MetadataTenantID     = "tenant_id"
	MetadataCustomerName = "customer_name"
	MetadataItems        = "items"
)

// CartLine is one priced line carried through session metadata.
type CartLine struct {
	TireID    uuid.UUID       `json:"tire_id"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
}

// EncodeCartMetadata serializes priced lines for session metadata.
func EncodeCartMetadata(lines []CartLine) (string, error) {
	raw, err := json.Marshal(lines)
	if err != nil {
		return "", fmt.Errorf("encode cart metadata: %w", err)
	}
	return string(raw), nil
}

// DecodeCartMetadata parses the metadata written by EncodeCartMetadata.
func DecodeCartMetadata(raw string) ([]CartLine, error) {
	if raw == "" {
		return nil, fmt.Errorf("cart metadata is empty")
	}
	var lines []CartLine
	if err := json.Unmarshal([]byte(raw), &lines); err != nil {
		return nil, fmt.Errorf("decode cart metadata: %w", err)
	}
	if len(lines) == 0 {
		return nil, fmt.Errorf("cart metadata has no lines")
	}
	return lines, nil
}

// CartTotal sums the line totals.
func CartTotal(lines []CartLine) decimal.Decimal {
	total := decimal.Zero
	for _, line := range lines {
		total = total.Add(line.UnitPrice.Mul(decimal.NewFromInt(int64(line.Quantity))))
	}
	return total
}
