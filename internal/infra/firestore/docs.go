package firestore

// Collection names match the collections created by the original importer
// database, so an existing dataset keeps working unchanged.
const (
	expensesCollection        = "Expenses"
	incomesCollection         = "Incomes"
	macroCategoriesCollection = "MacroCategories"
	microCategoriesCollection = "MicroCategories"
	countersCollection        = "Counters"
)

// Counter kinds. The counter document ID is the kind itself.
const (
	KindExpenses = "Expenses"
	KindIncomes  = "Incomes"
)

// ExpenseDoc is one document in the Expenses collection. The document ID is
// the decimal form of ID.
type ExpenseDoc struct {
	ID            int64   `firestore:"-" json:"_id"`
	Date          string  `firestore:"Date" json:"date"` // YYYY-MM-DD
	Description   string  `firestore:"Description" json:"description"`
	Amount        float64 `firestore:"Amount" json:"amount"`
	MicroCategory int64   `firestore:"MicroCategory" json:"microCategory"`
	Recurrent     int64   `firestore:"Recurrent" json:"recurrent"`
}

// IncomeDoc is one document in the Incomes collection. Amounts are stored
// positive; the expense/income split happens before insertion.
type IncomeDoc struct {
	ID            int64   `firestore:"-" json:"_id"`
	Date          string  `firestore:"Date" json:"date"` // YYYY-MM-DD
	Description   string  `firestore:"Description" json:"description"`
	Amount        float64 `firestore:"Amount" json:"amount"`
	MicroCategory int64   `firestore:"MicroCategory" json:"microCategory"`
	Recurrent     int64   `firestore:"Recurrent" json:"recurrent"`
}

// MacroCategoryDoc is one document in the MacroCategories collection.
type MacroCategoryDoc struct {
	ID   int64  `firestore:"-" json:"_id"`
	Name string `firestore:"Name" json:"name"`
}

// MicroCategoryDoc is one document in the MicroCategories collection,
// referencing its parent macro category by ID.
type MicroCategoryDoc struct {
	ID      int64  `firestore:"-" json:"_id"`
	Name    string `firestore:"Name" json:"name"`
	MacroID int64  `firestore:"MacroID" json:"macroCategory"`
}

type counterDoc struct {
	Seq int64 `firestore:"seq"`
}
