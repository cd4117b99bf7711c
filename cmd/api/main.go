package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/dvloznov/easybudget/internal/api/handlers"
	"github.com/dvloznov/easybudget/internal/api/middleware"
	"github.com/dvloznov/easybudget/internal/bindings"
	"github.com/dvloznov/easybudget/internal/gcsarchive"
	"github.com/dvloznov/easybudget/internal/importer"
	infraBQ "github.com/dvloznov/easybudget/internal/infra/bigquery"
	infraFS "github.com/dvloznov/easybudget/internal/infra/firestore"
	"github.com/dvloznov/easybudget/internal/jobs"
	"github.com/dvloznov/easybudget/internal/jobs/inmemory"
	"github.com/dvloznov/easybudget/internal/logger"
	"github.com/dvloznov/easybudget/internal/suggest"
)

func main() {
	// .env is optional; real deployments use the environment directly.
	_ = godotenv.Load()

	var (
		port         = flag.String("port", "8080", "HTTP server port")
		project      = flag.String("project", os.Getenv("GOOGLE_CLOUD_PROJECT"), "GCP project ID (or set GOOGLE_CLOUD_PROJECT env)")
		bucket       = flag.String("bucket", os.Getenv("GCS_BUCKET"), "GCS bucket for statement archival (or set GCS_BUCKET env)")
		bindingsPath = flag.String("bindings-file", envOr("BINDINGS_FILE", "category-bindings.json"), "path to the category bindings file")
	)
	flag.Parse()

	log := logger.New()

	if *project == "" {
		log.Fatal().Msg("No GCP project configured - set GOOGLE_CLOUD_PROJECT or pass -project")
	}
	if *bucket == "" {
		log.Warn().Msg("No GCS bucket configured - statement archival will be disabled")
	}

	ctx := context.Background()

	store, err := infraFS.NewRepository(ctx, *project)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create Firestore repository")
	}
	defer store.Close()

	mirror, err := infraBQ.NewMirrorRepository(ctx, *project)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create BigQuery mirror repository")
	}
	defer mirror.Close()

	bindingStore := bindings.NewFileStore(*bindingsPath)

	// Job infrastructure for the analytics mirror.
	jobStore := inmemory.NewStore()
	jobQueue := inmemory.NewQueue(100, jobStore)

	workerCtx, cancelWorker := context.WithCancel(ctx)
	defer cancelWorker()

	jobHandler := func(ctx context.Context, job jobs.Job) error {
		mirrorJob, ok := job.(*jobs.MirrorRecordsJob)
		if !ok {
			return fmt.Errorf("unexpected job type: %T", job)
		}

		log.Info().
			Str("job_id", mirrorJob.JobID).
			Str("import_id", mirrorJob.ImportID).
			Int("rows", len(mirrorJob.Rows)).
			Msg("Mirroring records to BigQuery")

		if err := mirror.InsertRecords(ctx, mirrorJob.Rows); err != nil {
			log.Error().
				Err(err).
				Str("job_id", mirrorJob.JobID).
				Str("import_id", mirrorJob.ImportID).
				Msg("Mirror insert failed")
			return err
		}
		return nil
	}

	go func() {
		log.Info().Msg("Starting mirror worker")
		if err := jobQueue.Start(workerCtx, jobHandler); err != nil {
			log.Error().Err(err).Msg("Mirror worker stopped with error")
		}
	}()

	importSvc := importer.New(store, bindingStore, jobQueue, log)

	var archiver gcsarchive.Archiver
	if *bucket != "" {
		archiver = gcsarchive.NewBucketArchiver(*bucket)
	}

	categoriesHandler := handlers.NewCategoriesHandler(store, log)
	bindingsHandler := handlers.NewBindingsHandler(bindingStore, log)
	expensesHandler := handlers.NewExpensesHandler(importSvc, log)
	statementsHandler := handlers.NewStatementsHandler(importSvc, archiver, log)
	reportsHandler := handlers.NewReportsHandler(mirror, log)
	suggestionsHandler := handlers.NewSuggestionsHandler(suggest.NewGeminiSuggester(store), log)
	jobsHandler := handlers.NewJobsHandler(jobStore, log)

	mux := http.NewServeMux()

	mux.HandleFunc("/api/categories", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			categoriesHandler.ListCategories(w, r)
		} else {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	mux.HandleFunc("/api/categoryBindings", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			bindingsHandler.ListBindings(w, r)
		case http.MethodPost:
			bindingsHandler.ReplaceBindings(w, r)
		default:
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	mux.HandleFunc("/api/categoryBindings/suggest", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			suggestionsHandler.SuggestBindings(w, r)
		} else {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	mux.HandleFunc("/api/expenses", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			expensesHandler.SaveExpenses(w, r)
		} else {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	mux.HandleFunc("/api/statements", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			statementsHandler.PreviewStatement(w, r)
		} else {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	mux.HandleFunc("/api/reports/records", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			reportsHandler.ListRecords(w, r)
		} else {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	mux.HandleFunc("/api/jobs", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			jobsHandler.ListJobs(w, r)
		} else {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	mux.HandleFunc("/api/jobs/", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			jobID := strings.TrimPrefix(r.URL.Path, "/api/jobs/")
			if jobID == "" {
				middleware.WriteError(w, http.StatusBadRequest, "Job ID is required")
				return
			}
			jobsHandler.GetJob(w, r, jobID)
		} else {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		middleware.WriteJSON(w, http.StatusOK, map[string]string{
			"status": "healthy",
			"time":   time.Now().Format(time.RFC3339),
		})
	})

	handler := middleware.Recovery(log)(
		middleware.Logger(log)(
			middleware.RequestID(
				middleware.CORS(mux),
			),
		),
	)

	server := &http.Server{
		Addr:         ":" + *port,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().Str("port", *port).Msg("Starting API server")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	cancelWorker()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	// Drain in-flight mirror jobs before exiting.
	if err := jobQueue.Stop(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Error stopping job queue")
	}
	if err := jobQueue.Close(); err != nil {
		log.Error().Err(err).Msg("Failed to close job queue")
	}

	log.Info().Msg("Server exited")
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
