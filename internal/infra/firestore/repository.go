// Package firestore implements the document store for imported records:
// expense/income collections, the category taxonomy and the per-kind ID
// counters.
package firestore

import (
	"context"
	"fmt"

	"cloud.google.com/go/firestore"
)

// Store is the interface the importer and the API handlers program against.
// It enables mocking in tests without a Firestore emulator.
type Store interface {
	ListMacroCategories(ctx context.Context) ([]MacroCategoryDoc, error)
	ListMicroCategories(ctx context.Context) ([]MicroCategoryDoc, error)

	// AllocateIDs reserves count consecutive IDs of the given kind and
	// returns the first one.
	AllocateIDs(ctx context.Context, kind string, count int) (int64, error)

	InsertExpenses(ctx context.Context, docs []ExpenseDoc) error
	InsertIncomes(ctx context.Context, docs []IncomeDoc) error
}

// Repository is the concrete Store backed by a shared Firestore client.
type Repository struct {
	client *firestore.Client
}

// NewRepository creates a Repository with a shared Firestore client.
func NewRepository(ctx context.Context, projectID string) (*Repository, error) {
	client, err := firestore.NewClient(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("NewRepository: creating client: %w", err)
	}
	return &Repository{client: client}, nil
}

// Close closes the Firestore client connection.
func (r *Repository) Close() error {
	if r.client != nil {
		return r.client.Close()
	}
	return nil
}

// ListMacroCategories delegates to ListMacroCategoriesWithClient with the shared client.
func (r *Repository) ListMacroCategories(ctx context.Context) ([]MacroCategoryDoc, error) {
	return ListMacroCategoriesWithClient(ctx, r.client)
}

// ListMicroCategories delegates to ListMicroCategoriesWithClient with the shared client.
func (r *Repository) ListMicroCategories(ctx context.Context) ([]MicroCategoryDoc, error) {
	return ListMicroCategoriesWithClient(ctx, r.client)
}

// AllocateIDs delegates to AllocateIDsWithClient with the shared client.
func (r *Repository) AllocateIDs(ctx context.Context, kind string, count int) (int64, error) {
	return AllocateIDsWithClient(ctx, r.client, kind, count)
}

// InsertExpenses delegates to InsertExpensesWithClient with the shared client.
func (r *Repository) InsertExpenses(ctx context.Context, docs []ExpenseDoc) error {
	return InsertExpensesWithClient(ctx, r.client, docs)
}

// InsertIncomes delegates to InsertIncomesWithClient with the shared client.
func (r *Repository) InsertIncomes(ctx context.Context, docs []IncomeDoc) error {
	return InsertIncomesWithClient(ctx, r.client, docs)
}

var _ Store = (*Repository)(nil)
