// Package notionsync exports mirrored budget records to a Notion database.
// Pages are keyed by record ID so repeated runs update rather than duplicate,
// and pages whose record no longer exists in the mirror are archived.
package notionsync

import (
	"context"
	"fmt"
	"time"

	"github.com/jomei/notionapi"

	"github.com/dvloznov/easybudget/internal/infra/bigquery"
	"github.com/dvloznov/easybudget/internal/logger"
)

// RecordSource is the slice of the analytics mirror the exporter reads from.
type RecordSource interface {
	QueryRecordsByDateRange(ctx context.Context, startDate, endDate time.Time) ([]*bigquery.RecordRow, error)
}

// SyncRecords exports all mirrored records in [startDate, endDate] to the
// Notion database notionDBID. Existing pages are matched by record ID and
// updated in place; pages for records outside the current mirror set are
// archived. With dryRun set, every write is logged but skipped.
func SyncRecords(ctx context.Context, source RecordSource, notion NotionService, notionDBID string, startDate, endDate time.Time, dryRun bool) error {
	log := logger.FromContext(ctx)

	log.Info().
		Time("start_date", startDate).
		Time("end_date", endDate).
		Bool("dry_run", dryRun).
		Msg("Starting record export to Notion")

	records, err := source.QueryRecordsByDateRange(ctx, startDate, endDate)
	if err != nil {
		return fmt.Errorf("SyncRecords: query mirror: %w", err)
	}
	log.Info().Int("record_count", len(records)).Msg("Retrieved records from mirror")

	validKeys := make(map[string]bool, len(records))
	for _, rec := range records {
		validKeys[RecordKey(rec)] = true
	}

	pages, err := queryAllPages(ctx, notion, notionDBID)
	if err != nil {
		return fmt.Errorf("SyncRecords: query Notion pages: %w", err)
	}
	log.Info().Int("notion_page_count", len(pages)).Msg("Retrieved existing Notion pages")

	// Map record key -> page ID for upserts.
	pageIDs := make(map[string]string, len(pages))
	var archived int
	for _, page := range pages {
		key := extractRecordKey(page)
		if key != "" && validKeys[key] {
			pageIDs[key] = string(page.ID)
			continue
		}

		if dryRun {
			log.Info().
				Str("record_key", key).
				Str("page_id", string(page.ID)).
				Msg("[DRY RUN] Would archive stale Notion page")
			archived++
			continue
		}
		if err := notion.ArchivePage(ctx, string(page.ID)); err != nil {
			log.Warn().
				Err(err).
				Str("record_key", key).
				Str("page_id", string(page.ID)).
				Msg("Failed to archive stale Notion page")
			continue
		}
		archived++
	}
	if archived > 0 {
		log.Info().Int("archived", archived).Msg("Archived stale Notion pages")
	}

	var created, updated int
	for _, rec := range records {
		key := RecordKey(rec)
		props := RecordToNotionProperties(rec)

		if pageID, ok := pageIDs[key]; ok {
			if dryRun {
				log.Info().Str("record_key", key).Msg("[DRY RUN] Would update Notion page")
			} else if _, err := notion.UpdatePage(ctx, pageID, props); err != nil {
				log.Warn().Err(err).Str("record_key", key).Msg("Failed to update Notion page")
				continue
			}
			updated++
			continue
		}

		if dryRun {
			log.Info().Str("record_key", key).Msg("[DRY RUN] Would create Notion page")
		} else if _, err := notion.CreatePage(ctx, notionDBID, props); err != nil {
			log.Warn().Err(err).Str("record_key", key).Msg("Failed to create Notion page")
			continue
		}
		created++
	}

	log.Info().
		Int("created", created).
		Int("updated", updated).
		Int("archived", archived).
		Msg("Record export to Notion complete")

	return nil
}

// queryAllPages pages through the full Notion database.
func queryAllPages(ctx context.Context, notion NotionService, databaseID string) ([]notionapi.Page, error) {
	var pages []notionapi.Page
	var cursor notionapi.Cursor

	for {
		req := &notionapi.DatabaseQueryRequest{
			StartCursor: cursor,
			PageSize:    100,
		}
		resp, err := notion.QueryDatabase(ctx, databaseID, req)
		if err != nil {
			return nil, err
		}
		pages = append(pages, resp.Results...)

		if !resp.HasMore {
			return pages, nil
		}
		cursor = resp.NextCursor
	}
}
