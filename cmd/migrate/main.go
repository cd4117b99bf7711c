// Command migrate prepares a project for the import service: it seeds the
// Firestore category taxonomy and counters from a JSON seed file and ensures
// the BigQuery analytics dataset and records table exist.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"strconv"

	"cloud.google.com/go/bigquery"
	"cloud.google.com/go/firestore"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/dvloznov/easybudget/internal/domain"
)

// Seed is the on-disk seed file layout. IDs use the same field names as the
// API responses so a categories dump can be replayed as a seed.
type Seed struct {
	MacroCategories []domain.MacroCategory `json:"macroCategories"`
	MicroCategories []domain.MicroCategory `json:"microCategories"`
}

var (
	projectID = flag.String("project", os.Getenv("GOOGLE_CLOUD_PROJECT"), "GCP project ID (required)")
	seedPath  = flag.String("seed", "", "path to a taxonomy seed JSON file (optional)")
	dataset   = flag.String("dataset", "budget", "BigQuery dataset for the analytics mirror")
)

func main() {
	flag.Parse()

	ctx := context.Background()

	if *projectID == "" {
		log.Fatal("Error: -project flag is required. Please specify your GCP project ID.")
	}

	fsClient, err := firestore.NewClient(ctx, *projectID)
	if err != nil {
		log.Fatalf("Failed to create Firestore client: %v", err)
	}
	defer fsClient.Close()

	log.Printf("Connected to Firestore project: %s", *projectID)

	if *seedPath != "" {
		seed, err := readSeed(*seedPath)
		if err != nil {
			log.Fatalf("Failed to read seed file: %v", err)
		}
		if err := seedTaxonomy(ctx, fsClient, seed); err != nil {
			log.Fatalf("Failed to seed taxonomy: %v", err)
		}
		log.Printf("Seeded %d macro and %d micro categories", len(seed.MacroCategories), len(seed.MicroCategories))
	}

	if err := ensureCounters(ctx, fsClient); err != nil {
		log.Fatalf("Failed to ensure counters: %v", err)
	}
	log.Println("Counters ready")

	bqClient, err := bigquery.NewClient(ctx, *projectID)
	if err != nil {
		log.Fatalf("Failed to create BigQuery client: %v", err)
	}
	defer bqClient.Close()

	if err := ensureRecordsTable(ctx, bqClient); err != nil {
		log.Fatalf("Failed to ensure records table: %v", err)
	}
	log.Printf("Analytics table %s.records ready", *dataset)

	log.Println("Migration complete")
}

func readSeed(path string) (*Seed, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var seed Seed
	if err := json.Unmarshal(data, &seed); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return &seed, nil
}

// seedTaxonomy writes the macro and micro categories. Existing documents with
// the same ID are overwritten, so re-running the seed is safe.
func seedTaxonomy(ctx context.Context, client *firestore.Client, seed *Seed) error {
	for _, macro := range seed.MacroCategories {
		ref := client.Collection("MacroCategories").Doc(strconv.FormatInt(macro.ID, 10))
		if _, err := ref.Set(ctx, map[string]interface{}{"Name": macro.Name}); err != nil {
			return fmt.Errorf("writing macro category %d: %w", macro.ID, err)
		}
		log.Printf("  [OK] MacroCategories/%d %s", macro.ID, macro.Name)
	}
	for _, micro := range seed.MicroCategories {
		ref := client.Collection("MicroCategories").Doc(strconv.FormatInt(micro.ID, 10))
		if _, err := ref.Set(ctx, map[string]interface{}{"Name": micro.Name, "MacroID": micro.MacroID}); err != nil {
			return fmt.Errorf("writing micro category %d: %w", micro.ID, err)
		}
		log.Printf("  [OK] MicroCategories/%d %s", micro.ID, micro.Name)
	}
	return nil
}

// ensureCounters creates the Expenses and Incomes counters at zero when they
// don't exist yet. Existing counters are never touched.
func ensureCounters(ctx context.Context, client *firestore.Client) error {
	for _, kind := range []string{"Expenses", "Incomes"} {
		ref := client.Collection("Counters").Doc(kind)
		_, err := ref.Create(ctx, map[string]interface{}{"seq": 0})
		if status.Code(err) == codes.AlreadyExists {
			log.Printf("  [SKIP] Counters/%s (already exists)", kind)
			continue
		}
		if err != nil {
			return fmt.Errorf("creating counter %s: %w", kind, err)
		}
		log.Printf("  [OK] Counters/%s", kind)
	}
	return nil
}

// ensureRecordsTable creates the analytics dataset and records table when
// missing. DDL is idempotent; re-running is safe.
func ensureRecordsTable(ctx context.Context, client *bigquery.Client) error {
	stmts := []string{
		fmt.Sprintf("CREATE SCHEMA IF NOT EXISTS `%s.%s`", *projectID, *dataset),
		fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS `+"`%s.%s.records`"+` (
				record_id      INT64 NOT NULL,
				kind           STRING NOT NULL,
				record_date    DATE NOT NULL,
				description    STRING NOT NULL,
				amount         NUMERIC NOT NULL,
				micro_category INT64,
				import_id      STRING NOT NULL,
				created_ts     TIMESTAMP NOT NULL
			)`, *projectID, *dataset),
	}

	for _, stmt := range stmts {
		job, err := client.Query(stmt).Run(ctx)
		if err != nil {
			return err
		}
		st, err := job.Wait(ctx)
		if err != nil {
			return err
		}
		if st.Err() != nil {
			return st.Err()
		}
	}
	return nil
}
