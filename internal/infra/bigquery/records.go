// Package bigquery mirrors saved expense and income records into an
// analytics table. Firestore remains the system of record; the mirror exists
// for date-range reporting queries.
package bigquery

import (
	"math/big"
	"time"

	"cloud.google.com/go/bigquery"
	"cloud.google.com/go/civil"
)

// Record kinds in the mirror table.
const (
	KindExpense = "EXPENSE"
	KindIncome  = "INCOME"
)

type RecordRow struct {
	RecordID int64  `bigquery:"record_id"` // REQUIRED, counter-allocated ID
	Kind     string `bigquery:"kind"`      // REQUIRED, EXPENSE or INCOME

	RecordDate  civil.Date `bigquery:"record_date"` // REQUIRED
	Description string     `bigquery:"description"` // REQUIRED
	Amount      *big.Rat   `bigquery:"amount"`      // REQUIRED NUMERIC, stored positive for incomes

	MicroCategory bigquery.NullInt64 `bigquery:"micro_category"` // NULLABLE

	ImportID  string    `bigquery:"import_id"`  // REQUIRED, groups one save batch
	CreatedTS time.Time `bigquery:"created_ts"` // REQUIRED
}
