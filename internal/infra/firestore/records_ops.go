package firestore

import (
	"context"
	"fmt"
	"strconv"

	"cloud.google.com/go/firestore"
)

// InsertExpensesWithClient writes a batch of expense documents. IDs must
// already be allocated. There is no rollback: a mid-batch failure leaves the
// documents written so far in place and is surfaced to the caller.
func InsertExpensesWithClient(ctx context.Context, client *firestore.Client, docs []ExpenseDoc) error {
	if len(docs) == 0 {
		return nil
	}

	bw := client.BulkWriter(ctx)
	jobs := make([]*firestore.BulkWriterJob, 0, len(docs))
	for _, d := range docs {
		ref := client.Collection(expensesCollection).Doc(strconv.FormatInt(d.ID, 10))
		job, err := bw.Set(ref, d)
		if err != nil {
			return fmt.Errorf("InsertExpenses: enqueueing doc %d: %w", d.ID, err)
		}
		jobs = append(jobs, job)
	}
	bw.End()

	for i, job := range jobs {
		if _, err := job.Results(); err != nil {
			return fmt.Errorf("InsertExpenses: writing doc %d: %w", docs[i].ID, err)
		}
	}
	return nil
}

// InsertIncomesWithClient writes a batch of income documents. Same contract
// as InsertExpensesWithClient.
func InsertIncomesWithClient(ctx context.Context, client *firestore.Client, docs []IncomeDoc) error {
	if len(docs) == 0 {
		return nil
	}

	bw := client.BulkWriter(ctx)
	jobs := make([]*firestore.BulkWriterJob, 0, len(docs))
	for _, d := range docs {
		ref := client.Collection(incomesCollection).Doc(strconv.FormatInt(d.ID, 10))
		job, err := bw.Set(ref, d)
		if err != nil {
			return fmt.Errorf("InsertIncomes: enqueueing doc %d: %w", d.ID, err)
		}
		jobs = append(jobs, job)
	}
	bw.End()

	for i, job := range jobs {
		if _, err := job.Results(); err != nil {
			return fmt.Errorf("InsertIncomes: writing doc %d: %w", docs[i].ID, err)
		}
	}
	return nil
}
