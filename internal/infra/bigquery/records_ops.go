package bigquery

import (
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/bigquery"
	"google.golang.org/api/iterator"
)

const (
	datasetID    = "budget"
	recordsTable = "records"
	dateFormat   = "2006-01-02"
)

// Mirror is the interface the mirror job and the reports handler program
// against.
type Mirror interface {
	InsertRecords(ctx context.Context, rows []*RecordRow) error
	QueryRecordsByDateRange(ctx context.Context, startDate, endDate time.Time) ([]*RecordRow, error)
}

// MirrorRepository is the concrete Mirror backed by a shared BigQuery client.
type MirrorRepository struct {
	client *bigquery.Client
}

// NewMirrorRepository creates a MirrorRepository with a shared BigQuery client.
func NewMirrorRepository(ctx context.Context, projectID string) (*MirrorRepository, error) {
	client, err := bigquery.NewClient(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("NewMirrorRepository: creating client: %w", err)
	}
	return &MirrorRepository{client: client}, nil
}

// Close closes the BigQuery client connection.
func (r *MirrorRepository) Close() error {
	if r.client != nil {
		return r.client.Close()
	}
	return nil
}

// InsertRecords delegates to InsertRecordsWithClient with the shared client.
func (r *MirrorRepository) InsertRecords(ctx context.Context, rows []*RecordRow) error {
	return InsertRecordsWithClient(ctx, r.client, rows)
}

// QueryRecordsByDateRange delegates to QueryRecordsByDateRangeWithClient with the shared client.
func (r *MirrorRepository) QueryRecordsByDateRange(ctx context.Context, startDate, endDate time.Time) ([]*RecordRow, error) {
	return QueryRecordsByDateRangeWithClient(ctx, r.client, startDate, endDate)
}

var _ Mirror = (*MirrorRepository)(nil)

// InsertRecordsWithClient inserts a batch of RecordRow into budget.records.
func InsertRecordsWithClient(ctx context.Context, client *bigquery.Client, rows []*RecordRow) error {
	if len(rows) == 0 {
		return nil
	}

	inserter := client.Dataset(datasetID).Table(recordsTable).Inserter()
	if err := inserter.Put(ctx, rows); err != nil {
		return fmt.Errorf("InsertRecords: inserting rows: %w", err)
	}
	return nil
}

// QueryRecordsByDateRangeWithClient returns mirrored records whose date falls
// within [startDate, endDate], oldest first.
func QueryRecordsByDateRangeWithClient(ctx context.Context, client *bigquery.Client, startDate, endDate time.Time) ([]*RecordRow, error) {
	q := client.Query(`
		SELECT
			record_id,
			kind,
			record_date,
			description,
			amount,
			micro_category,
			import_id,
			created_ts
		FROM budget.records
		WHERE record_date >= @start_date
		  AND record_date <= @end_date
		ORDER BY record_date, record_id
	`)
	q.Parameters = []bigquery.QueryParameter{
		{Name: "start_date", Value: startDate.Format(dateFormat)},
		{Name: "end_date", Value: endDate.Format(dateFormat)},
	}

	it, err := q.Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("QueryRecordsByDateRange: query read: %w", err)
	}

	var rows []*RecordRow
	for {
		var r RecordRow
		err := it.Next(&r)
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("QueryRecordsByDateRange: iter next: %w", err)
		}
		rows = append(rows, &r)
	}
	return rows, nil
}
