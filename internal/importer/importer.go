// Package importer orchestrates the two halves of an import: previewing a
// raw statement (parse, normalize, pre-fill categories) and saving the
// confirmed records (split by sign, allocate IDs, persist, mirror).
package importer

import (
	"context"
	"fmt"
	"io"
	"math"
	"math/big"
	"time"

	bigquerylib "cloud.google.com/go/bigquery"
	"cloud.google.com/go/civil"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/dvloznov/easybudget/internal/bindings"
	"github.com/dvloznov/easybudget/internal/domain"
	"github.com/dvloznov/easybudget/internal/infra/bigquery"
	"github.com/dvloznov/easybudget/internal/infra/firestore"
	"github.com/dvloznov/easybudget/internal/jobs"
	"github.com/dvloznov/easybudget/internal/statement"
)

// BindingSource reads the current merchant-category binding set.
type BindingSource interface {
	Load() ([]domain.CategoryBinding, error)
}

// Service wires the normalizer, the binding table, the document store and
// the mirror queue together.
type Service struct {
	store     firestore.Store
	bindings  BindingSource
	publisher jobs.Publisher
	log       zerolog.Logger
}

// New creates an import service. publisher may be nil when the analytics
// mirror is disabled.
func New(store firestore.Store, bindings BindingSource, publisher jobs.Publisher, log zerolog.Logger) *Service {
	return &Service{
		store:     store,
		bindings:  bindings,
		publisher: publisher,
		log:       log,
	}
}

// Preview parses and normalizes a statement CSV and pre-fills category
// assignments from the binding table. Records whose merchant category has no
// binding come back with nil categories; the UI requires the user to assign
// them before saving.
func (s *Service) Preview(ctx context.Context, r io.Reader) ([]domain.TransactionRecord, error) {
	records, err := statement.Decode(r)
	if err != nil {
		return nil, err
	}

	set, err := s.bindings.Load()
	if err != nil {
		return nil, &PersistenceError{Op: "Preview: loading bindings", Err: err}
	}
	idx := bindings.Lookup(set)

	for i := range records {
		records[i].TempID = uuid.New().String()
		if b, ok := idx[records[i].MerchantCategory]; ok {
			macro, micro := b.MacroCategory, b.MicroCategory
			records[i].MacroCategory = &macro
			records[i].MicroCategory = &micro
		}
	}

	s.log.Info().Int("records", len(records)).Msg("Statement previewed")
	return records, nil
}

// Result summarizes one save.
type Result struct {
	ImportID      string `json:"importId"`
	ExpensesCount int    `json:"expensesCount"`
	IncomesCount  int    `json:"incomesCount"`
	Message       string `json:"message"`
}

// Save persists a batch of confirmed records. Records with a negative amount
// are incomes and are stored positive in the income collection; the rest are
// expenses. IDs come from the per-kind counters. There is no rollback: a
// failure after some documents are written leaves them in place and the
// reserved ID block stays burned.
func (s *Service) Save(ctx context.Context, submitted []domain.SubmittedRecord) (*Result, error) {
	if len(submitted) == 0 {
		return nil, &ValidationError{Msg: "Invalid expenses data"}
	}

	var expenses, incomes []domain.SubmittedRecord
	for _, item := range submitted {
		if item.Amount < 0 {
			incomes = append(incomes, item)
		} else {
			expenses = append(expenses, item)
		}
	}

	importID := uuid.New().String()
	now := time.Now()
	var mirrorRows []*bigquery.RecordRow

	if len(expenses) > 0 {
		start, err := s.store.AllocateIDs(ctx, firestore.KindExpenses, len(expenses))
		if err != nil {
			return nil, &PersistenceError{Op: "Save: allocating expense IDs", Err: err}
		}

		docs := make([]firestore.ExpenseDoc, len(expenses))
		for i, item := range expenses {
			docs[i] = firestore.ExpenseDoc{
				ID:            start + int64(i),
				Date:          item.Date,
				Description:   item.Description,
				Amount:        item.Amount,
				MicroCategory: item.MicroCategory,
				Recurrent:     0,
			}
			mirrorRows = append(mirrorRows, mirrorRow(bigquery.KindExpense, docs[i].ID, item.Date, item.Description, item.Amount, item.MicroCategory, importID, now))
		}
		if err := s.store.InsertExpenses(ctx, docs); err != nil {
			return nil, &PersistenceError{Op: "Save: inserting expenses", Err: err}
		}
	}

	if len(incomes) > 0 {
		start, err := s.store.AllocateIDs(ctx, firestore.KindIncomes, len(incomes))
		if err != nil {
			return nil, &PersistenceError{Op: "Save: allocating income IDs", Err: err}
		}

		docs := make([]firestore.IncomeDoc, len(incomes))
		for i, item := range incomes {
			docs[i] = firestore.IncomeDoc{
				ID:            start + int64(i),
				Date:          item.Date,
				Description:   item.Description,
				Amount:        math.Abs(item.Amount),
				MicroCategory: item.MicroCategory,
				Recurrent:     0,
			}
			mirrorRows = append(mirrorRows, mirrorRow(bigquery.KindIncome, docs[i].ID, item.Date, item.Description, docs[i].Amount, item.MicroCategory, importID, now))
		}
		if err := s.store.InsertIncomes(ctx, docs); err != nil {
			return nil, &PersistenceError{Op: "Save: inserting incomes", Err: err}
		}
	}

	s.publishMirror(ctx, importID, mirrorRows)

	result := &Result{
		ImportID:      importID,
		ExpensesCount: len(expenses),
		IncomesCount:  len(incomes),
		Message:       summaryMessage(len(expenses), len(incomes)),
	}
	s.log.Info().
		Str("import_id", importID).
		Int("expenses", result.ExpensesCount).
		Int("incomes", result.IncomesCount).
		Msg("Import saved")
	return result, nil
}

// publishMirror enqueues the analytics mirror job. Mirroring is best-effort;
// a publish failure is logged and does not fail the save.
func (s *Service) publishMirror(ctx context.Context, importID string, rows []*bigquery.RecordRow) {
	if s.publisher == nil || len(rows) == 0 {
		return
	}
	job := &jobs.MirrorRecordsJob{ImportID: importID, Rows: rows}
	if err := s.publisher.PublishMirrorRecords(ctx, job); err != nil {
		s.log.Warn().Err(err).Str("import_id", importID).Msg("Failed to enqueue mirror job")
	}
}

func mirrorRow(kind string, id int64, date, description string, amount float64, microCategory int64, importID string, ts time.Time) *bigquery.RecordRow {
	row := &bigquery.RecordRow{
		RecordID:      id,
		Kind:          kind,
		Description:   description,
		Amount:        new(big.Rat).SetFloat64(amount),
		MicroCategory: bigquerylib.NullInt64{Int64: microCategory, Valid: true},
		ImportID:      importID,
		CreatedTS:     ts,
	}
	if d, err := civil.ParseDate(date); err == nil {
		row.RecordDate = d
	}
	return row
}

func summaryMessage(expensesCount, incomesCount int) string {
	switch {
	case expensesCount > 0 && incomesCount > 0:
		return fmt.Sprintf("Successfully imported %d expenses and %d incomes", expensesCount, incomesCount)
	case expensesCount > 0:
		return fmt.Sprintf("Successfully imported %d expenses", expensesCount)
	case incomesCount > 0:
		return fmt.Sprintf("Successfully imported %d incomes", incomesCount)
	default:
		return "No records were imported"
	}
}
