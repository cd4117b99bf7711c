package firestore

import (
	"context"
	"fmt"
	"strconv"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
)

// ListMacroCategoriesWithClient returns all macro categories ordered by name.
func ListMacroCategoriesWithClient(ctx context.Context, client *firestore.Client) ([]MacroCategoryDoc, error) {
	it := client.Collection(macroCategoriesCollection).OrderBy("Name", firestore.Asc).Documents(ctx)
	defer it.Stop()

	var docs []MacroCategoryDoc
	for {
		snap, err := it.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("ListMacroCategories: iter next: %w", err)
		}

		var d MacroCategoryDoc
		if err := snap.DataTo(&d); err != nil {
			return nil, fmt.Errorf("ListMacroCategories: decoding %s: %w", snap.Ref.ID, err)
		}
		d.ID, err = parseDocID(snap.Ref.ID)
		if err != nil {
			return nil, fmt.Errorf("ListMacroCategories: %w", err)
		}
		docs = append(docs, d)
	}
	return docs, nil
}

// ListMicroCategoriesWithClient returns all micro categories ordered by name,
// each referencing its parent macro category by ID.
func ListMicroCategoriesWithClient(ctx context.Context, client *firestore.Client) ([]MicroCategoryDoc, error) {
	it := client.Collection(microCategoriesCollection).OrderBy("Name", firestore.Asc).Documents(ctx)
	defer it.Stop()

	var docs []MicroCategoryDoc
	for {
		snap, err := it.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("ListMicroCategories: iter next: %w", err)
		}

		var d MicroCategoryDoc
		if err := snap.DataTo(&d); err != nil {
			return nil, fmt.Errorf("ListMicroCategories: decoding %s: %w", snap.Ref.ID, err)
		}
		d.ID, err = parseDocID(snap.Ref.ID)
		if err != nil {
			return nil, fmt.Errorf("ListMicroCategories: %w", err)
		}
		docs = append(docs, d)
	}
	return docs, nil
}

func parseDocID(id string) (int64, error) {
	n, err := strconv.ParseInt(id, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("non-integer document ID %q: %w", id, err)
	}
	return n, nil
}
