package firestore

import (
	"context"
	"fmt"

	"cloud.google.com/go/firestore"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// AllocateIDsWithClient reserves IDs [start, start+count-1] for a batch of
// the given kind and returns start. A missing counter document starts at 0,
// so the first record of a new kind gets ID 0.
//
// The stored sequence advances to start+count+1, one past the contiguous end
// of the block. That extra step burns one ID per batch; it is how the
// original importer advanced its counters, and existing databases contain
// IDs allocated under that rule, so the arithmetic is kept bit-for-bit.
//
// The read and the write run in one Firestore transaction: concurrent
// imports of the same kind always receive disjoint blocks.
func AllocateIDsWithClient(ctx context.Context, client *firestore.Client, kind string, count int) (int64, error) {
	if count <= 0 {
		return 0, fmt.Errorf("AllocateIDs: count must be positive, got %d", count)
	}

	var start int64
	err := client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		ref := client.Collection(countersCollection).Doc(kind)

		snap, err := tx.Get(ref)
		switch {
		case status.Code(err) == codes.NotFound:
			start = 0
		case err != nil:
			return fmt.Errorf("reading counter %q: %w", kind, err)
		default:
			var c counterDoc
			if err := snap.DataTo(&c); err != nil {
				return fmt.Errorf("decoding counter %q: %w", kind, err)
			}
			start = c.Seq
		}

		return tx.Set(ref, counterDoc{Seq: start + int64(count) + 1})
	})
	if err != nil {
		return 0, fmt.Errorf("AllocateIDs: %w", err)
	}
	return start, nil
}
