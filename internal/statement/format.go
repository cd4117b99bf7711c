package statement

import "strings"

// Variant identifies one of the known export layouts. Classification happens
// once per file; every row is then normalized by that variant's rules.
type Variant int

const (
	VariantUnknown Variant = iota

	// VariantCardStatement is the credit-card export with Italian column
	// names ("Data transazione", "Importo", ...). Dates are DD.MM.YYYY and
	// amounts arrive already signed.
	VariantCardStatement

	// VariantDottedDate is the bank export whose "Date" column uses
	// DD.MM.YY with an implied 2000s century. Negative source amounts are
	// incomes and keep their sign.
	VariantDottedDate

	// VariantISODate is the bank export whose "Date" column is already
	// YYYY-MM-DD. Positive source amounts are incomes and get their sign
	// flipped; the convention is the opposite of VariantDottedDate.
	VariantISODate
)

func (v Variant) String() string {
	switch v {
	case VariantCardStatement:
		return "card-statement"
	case VariantDottedDate:
		return "dotted-date"
	case VariantISODate:
		return "iso-date"
	default:
		return "unknown"
	}
}

// Column names as they appear in the supported exports.
const (
	colCardDate      = "Data transazione"
	colCardDesc      = "Descrizione"
	colCardAmount    = "Importo"
	colCardDirection = "Debito/Credito"
	colCardMerchant  = "Categoria commerciante"

	colDate     = "Date"
	colDesc     = "Description"
	colAmount   = "Amount"
	colMerchant = "Category"
)

// requiredColumns lists the columns that must be present for field extraction
// to proceed. Description and merchant-category columns are optional in every
// layout and default to "".
var requiredColumns = map[Variant][]string{
	VariantCardStatement: {colCardDate, colCardAmount},
	VariantDottedDate:    {colDate, colAmount},
	VariantISODate:       {colDate, colAmount},
}

// Classify determines the export layout from the header row and the first
// data row. The card layout is recognized by its dedicated transaction-date
// column; the two remaining layouts share a header shape and are told apart
// by the date separator in the data.
func Classify(header []string, first Row) (Variant, error) {
	cols := make(map[string]bool, len(header))
	for _, h := range header {
		cols[strings.TrimSpace(h)] = true
	}

	var v Variant
	switch {
	case cols[colCardDate]:
		v = VariantCardStatement
	case cols[colDate]:
		if strings.Contains(first[colDate], ".") {
			v = VariantDottedDate
		} else {
			v = VariantISODate
		}
	default:
		return VariantUnknown, &InputFormatError{
			Reason: "header matches no supported export (no \"" + colCardDate + "\" or \"" + colDate + "\" column)",
		}
	}

	for _, c := range requiredColumns[v] {
		if !cols[c] {
			return VariantUnknown, missingColumn(v, c)
		}
	}
	return v, nil
}
