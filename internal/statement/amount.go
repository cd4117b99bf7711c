package statement

import (
	"strings"

	"github.com/shopspring/decimal"
)

// ParseAmount parses a statement amount cell. The exports use an apostrophe
// as the thousands separator and a comma as the decimal separator:
// "1'234,56" parses to 1234.56.
func ParseAmount(s string) (decimal.Decimal, error) {
	cleaned := strings.ReplaceAll(s, "'", "")
	cleaned = strings.ReplaceAll(cleaned, ",", ".")
	cleaned = strings.TrimSpace(cleaned)
	return decimal.NewFromString(cleaned)
}
