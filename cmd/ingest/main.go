// Command ingest previews or saves a statement CSV from the command line,
// bypassing the HTTP API. Useful for backfilling archived statements.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/dvloznov/easybudget/internal/bindings"
	"github.com/dvloznov/easybudget/internal/domain"
	"github.com/dvloznov/easybudget/internal/gcsarchive"
	"github.com/dvloznov/easybudget/internal/importer"
	infraFS "github.com/dvloznov/easybudget/internal/infra/firestore"
	"github.com/dvloznov/easybudget/internal/logger"
)

func main() {
	_ = godotenv.Load()

	var (
		file         = flag.String("file", "", "path to a local statement CSV")
		gcsURI       = flag.String("gcs-uri", "", "GCS URI of an archived statement (e.g. gs://bucket/statements/.../file.csv)")
		project      = flag.String("project", os.Getenv("GOOGLE_CLOUD_PROJECT"), "GCP project ID (required with -save)")
		bindingsPath = flag.String("bindings-file", "category-bindings.json", "path to the category bindings file")
		save         = flag.Bool("save", false, "persist the records instead of printing the preview")
	)
	flag.Parse()

	log := logger.New()

	if (*file == "") == (*gcsURI == "") {
		log.Fatal().Msg("Exactly one of -file or -gcs-uri is required")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()
	ctx = logger.WithContext(ctx, log)

	var data []byte
	var err error
	if *file != "" {
		data, err = os.ReadFile(*file)
		if err != nil {
			log.Fatal().Err(err).Str("file", *file).Msg("Failed to read statement")
		}
	} else {
		data, err = gcsarchive.Fetch(ctx, *gcsURI)
		if err != nil {
			log.Fatal().Err(err).Str("gcs_uri", *gcsURI).Msg("Failed to fetch statement")
		}
	}

	var store infraFS.Store
	if *save {
		if *project == "" {
			log.Fatal().Msg("-save requires a GCP project - set GOOGLE_CLOUD_PROJECT or pass -project")
		}
		repo, err := infraFS.NewRepository(ctx, *project)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to create Firestore repository")
		}
		defer repo.Close()
		store = repo
	}

	svc := importer.New(store, bindings.NewFileStore(*bindingsPath), nil, log)

	records, err := svc.Preview(ctx, bytes.NewReader(data))
	if err != nil {
		log.Fatal().Err(err).Msg("Preview failed")
	}

	if !*save {
		out, err := json.MarshalIndent(records, "", "  ")
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to render preview")
		}
		fmt.Println(string(out))
		return
	}

	submitted, unbound := toSubmitted(records)
	if len(unbound) > 0 {
		log.Fatal().
			Strs("merchant_categories", unbound).
			Msg("Cannot save: some merchant categories have no binding - add bindings first")
	}

	result, err := svc.Save(ctx, submitted)
	if err != nil {
		log.Fatal().Err(err).Msg("Save failed")
	}

	fmt.Println(result.Message)
}

// toSubmitted converts previewed records into the save payload. Records whose
// merchant category has no binding are collected so the caller can report
// them before anything is written.
func toSubmitted(records []domain.TransactionRecord) ([]domain.SubmittedRecord, []string) {
	var submitted []domain.SubmittedRecord
	seen := make(map[string]bool)
	var unbound []string

	for _, rec := range records {
		if rec.MacroCategory == nil || rec.MicroCategory == nil {
			label := strings.TrimSpace(rec.MerchantCategory)
			if label == "" {
				label = rec.Description
			}
			if !seen[label] {
				seen[label] = true
				unbound = append(unbound, label)
			}
			continue
		}
		amount, _ := rec.Amount.Float64()
		submitted = append(submitted, domain.SubmittedRecord{
			Date:          rec.Date,
			Description:   rec.Description,
			Amount:        amount,
			MacroCategory: *rec.MacroCategory,
			MicroCategory: *rec.MicroCategory,
		})
	}
	return submitted, unbound
}
