package domain

import (
	"github.com/shopspring/decimal"
)

// Amounts travel as JSON numbers on the wire: clients edit previewed records
// and post them back, and the save payload decodes amount as a number.
func init() {
	decimal.MarshalJSONWithoutQuotes = true
}

// TransactionRecord is one normalized statement line, ready for the user to
// review. This is a domain struct, not a Firestore document; the importer maps
// confirmed records into the Expenses/Incomes collections on save.
//
// Amount sign convention: positive = expense, negative = income.
type TransactionRecord struct {
	// TempID identifies the record within one preview session only.
	TempID string `json:"id"`

	Date        string          `json:"date"` // YYYY-MM-DD
	Description string          `json:"description"`
	Amount      decimal.Decimal `json:"amount"`

	// MerchantCategory is the raw category label from the bank export,
	// used as the binding-table lookup key.
	MerchantCategory string `json:"merchantCategory"`

	// Direction carries the card statement's Debito/Credito flag when the
	// source format has one. Informational; amounts arrive already signed.
	Direction string `json:"direction,omitempty"`

	// MacroCategory/MicroCategory are pre-filled from the binding table,
	// nil when the merchant category has no binding yet.
	MacroCategory *int64 `json:"macroCategory"`
	MicroCategory *int64 `json:"microCategory"`
}

// SubmittedRecord is a record as confirmed by the user and posted for saving.
type SubmittedRecord struct {
	Date          string  `json:"date"`
	Description   string  `json:"description"`
	Amount        float64 `json:"amount"`
	MacroCategory int64   `json:"macroCategory"`
	MicroCategory int64   `json:"microCategory"`
}

// CategoryBinding maps a raw merchant-category label to a macro/micro pair.
// At most one binding exists per merchant category.
type CategoryBinding struct {
	MerchantCategory string `json:"merchantCategory"`
	MacroCategory    int64  `json:"macroCategory"`
	MicroCategory    int64  `json:"microCategory,omitempty"`
}

// MacroCategory is a top-level spending category.
type MacroCategory struct {
	ID   int64  `json:"_id"`
	Name string `json:"name"`
}

// MicroCategory is a sub-category nested under a macro category.
type MicroCategory struct {
	ID      int64  `json:"_id"`
	Name    string `json:"name"`
	MacroID int64  `json:"macroCategory"`
}
