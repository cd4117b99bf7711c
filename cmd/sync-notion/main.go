// Command sync-notion exports mirrored budget records to a Notion database.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"

	infraBQ "github.com/dvloznov/easybudget/internal/infra/bigquery"
	"github.com/dvloznov/easybudget/internal/logger"
	"github.com/dvloznov/easybudget/internal/notionsync"
)

func main() {
	_ = godotenv.Load()

	log := logger.New()

	startDateStr := flag.String("start-date", "", "Start date in YYYY-MM-DD format (required)")
	endDateStr := flag.String("end-date", "", "End date in YYYY-MM-DD format (required)")
	project := flag.String("project", os.Getenv("GOOGLE_CLOUD_PROJECT"), "GCP project ID (or set GOOGLE_CLOUD_PROJECT env)")
	notionToken := flag.String("notion-token", os.Getenv("NOTION_TOKEN"), "Notion API token (or set NOTION_TOKEN env)")
	notionDBID := flag.String("notion-db-id", os.Getenv("NOTION_DB_ID"), "Notion database ID (or set NOTION_DB_ID env)")
	dryRun := flag.Bool("dry-run", false, "Dry run mode - preview changes without writing")
	flag.Parse()

	if *startDateStr == "" {
		log.Fatal().Msg("Error: --start-date is required")
	}
	if *endDateStr == "" {
		log.Fatal().Msg("Error: --end-date is required")
	}
	if *project == "" {
		log.Fatal().Msg("Error: --project is required")
	}
	if *notionToken == "" {
		log.Fatal().Msg("Error: --notion-token is required")
	}
	if *notionDBID == "" {
		log.Fatal().Msg("Error: --notion-db-id is required")
	}

	startDate, err := time.Parse("2006-01-02", *startDateStr)
	if err != nil {
		log.Fatal().Err(err).Str("start_date", *startDateStr).Msg("Error: invalid start-date format, expected YYYY-MM-DD")
	}

	endDate, err := time.Parse("2006-01-02", *endDateStr)
	if err != nil {
		log.Fatal().Err(err).Str("end_date", *endDateStr).Msg("Error: invalid end-date format, expected YYYY-MM-DD")
	}

	if endDate.Before(startDate) {
		log.Fatal().
			Time("start_date", startDate).
			Time("end_date", endDate).
			Msg("Error: end-date must be after start-date")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()
	ctx = logger.WithContext(ctx, log)

	mirror, err := infraBQ.NewMirrorRepository(ctx, *project)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize BigQuery mirror repository")
	}
	defer mirror.Close()

	notionClient := notionsync.NewNotionClient(*notionToken)

	if err := notionsync.SyncRecords(ctx, mirror, notionClient, *notionDBID, startDate, endDate, *dryRun); err != nil {
		log.Fatal().Err(err).Msg("Export failed")
	}

	fmt.Println("Export completed successfully.")
}
