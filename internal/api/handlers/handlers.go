// Package handlers wires the import pipeline to its HTTP surface.
package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/dvloznov/easybudget/internal/api/middleware"
	"github.com/dvloznov/easybudget/internal/domain"
	"github.com/dvloznov/easybudget/internal/gcsarchive"
	"github.com/dvloznov/easybudget/internal/importer"
	"github.com/dvloznov/easybudget/internal/infra/bigquery"
	"github.com/dvloznov/easybudget/internal/infra/firestore"
	"github.com/dvloznov/easybudget/internal/jobs"
	"github.com/dvloznov/easybudget/internal/statement"
	"github.com/dvloznov/easybudget/internal/suggest"
)

// maxStatementBytes caps the accepted statement upload size.
const maxStatementBytes = 10 << 20

// CategoryStore is the slice of the document store the category endpoints read.
type CategoryStore interface {
	ListMacroCategories(ctx context.Context) ([]firestore.MacroCategoryDoc, error)
	ListMicroCategories(ctx context.Context) ([]firestore.MicroCategoryDoc, error)
}

// CategoriesHandler handles the category taxonomy endpoints.
type CategoriesHandler struct {
	store CategoryStore
	log   zerolog.Logger
}

// NewCategoriesHandler creates a new categories handler.
func NewCategoriesHandler(store CategoryStore, log zerolog.Logger) *CategoriesHandler {
	return &CategoriesHandler{
		store: store,
		log:   log,
	}
}

// ListCategories handles GET /api/categories
func (h *CategoriesHandler) ListCategories(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	macros, err := h.store.ListMacroCategories(ctx)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to list macro categories")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to fetch categories")
		return
	}
	micros, err := h.store.ListMicroCategories(ctx)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to list micro categories")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to fetch categories")
		return
	}

	if macros == nil {
		macros = []firestore.MacroCategoryDoc{}
	}
	if micros == nil {
		micros = []firestore.MicroCategoryDoc{}
	}
	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"macroCategories": macros,
		"microCategories": micros,
	})
}

// BindingStore is the binding-set persistence the bindings endpoints use.
type BindingStore interface {
	Load() ([]domain.CategoryBinding, error)
	Replace(set []domain.CategoryBinding) error
}

// BindingsHandler handles the merchant-category binding endpoints.
type BindingsHandler struct {
	store BindingStore
	log   zerolog.Logger
}

// NewBindingsHandler creates a new bindings handler.
func NewBindingsHandler(store BindingStore, log zerolog.Logger) *BindingsHandler {
	return &BindingsHandler{
		store: store,
		log:   log,
	}
}

// ListBindings handles GET /api/categoryBindings
func (h *BindingsHandler) ListBindings(w http.ResponseWriter, r *http.Request) {
	set, err := h.store.Load()
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to load category bindings")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to fetch category bindings")
		return
	}

	if set == nil {
		set = []domain.CategoryBinding{}
	}
	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"bindings": set,
	})
}

// ReplaceBindings handles POST /api/categoryBindings. The posted set replaces
// the stored one entirely; an empty array deletes all bindings.
func (h *BindingsHandler) ReplaceBindings(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Bindings json.RawMessage `json:"bindings"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid data format")
		return
	}

	var set []domain.CategoryBinding
	if err := json.Unmarshal(req.Bindings, &set); err != nil || set == nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid data format")
		return
	}

	if err := h.store.Replace(set); err != nil {
		h.log.Error().Err(err).Msg("Failed to save category bindings")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to save category bindings")
		return
	}

	h.log.Info().Int("bindings", len(set)).Msg("Category bindings replaced")
	middleware.WriteJSON(w, http.StatusOK, map[string]string{
		"message": "Category bindings saved successfully",
	})
}

// ImportService is the slice of the importer the HTTP layer calls.
type ImportService interface {
	Preview(ctx context.Context, r io.Reader) ([]domain.TransactionRecord, error)
	Save(ctx context.Context, submitted []domain.SubmittedRecord) (*importer.Result, error)
}

// ExpensesHandler handles the record submission endpoint.
type ExpensesHandler struct {
	svc ImportService
	log zerolog.Logger
}

// NewExpensesHandler creates a new expenses handler.
func NewExpensesHandler(svc ImportService, log zerolog.Logger) *ExpensesHandler {
	return &ExpensesHandler{
		svc: svc,
		log: log,
	}
}

// SaveExpenses handles POST /api/expenses. Negative amounts are routed into
// the income collection by the import service.
func (h *ExpensesHandler) SaveExpenses(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Expenses json.RawMessage `json:"expenses"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid expenses data")
		return
	}

	var submitted []domain.SubmittedRecord
	if err := json.Unmarshal(req.Expenses, &submitted); err != nil || submitted == nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid expenses data")
		return
	}

	result, err := h.svc.Save(r.Context(), submitted)
	if err != nil {
		var verr *importer.ValidationError
		if errors.As(err, &verr) {
			middleware.WriteError(w, http.StatusBadRequest, verr.Msg)
			return
		}
		h.log.Error().Err(err).Msg("Failed to save expenses")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to save expenses")
		return
	}

	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"success":       true,
		"expensesCount": result.ExpensesCount,
		"incomesCount":  result.IncomesCount,
		"message":       result.Message,
		"importId":      result.ImportID,
	})
}

// StatementsHandler handles the statement upload/preview endpoint.
type StatementsHandler struct {
	svc      ImportService
	archiver gcsarchive.Archiver
	log      zerolog.Logger
}

// NewStatementsHandler creates a new statements handler. archiver may be nil
// when no archive bucket is configured.
func NewStatementsHandler(svc ImportService, archiver gcsarchive.Archiver, log zerolog.Logger) *StatementsHandler {
	return &StatementsHandler{
		svc:      svc,
		archiver: archiver,
		log:      log,
	}
}

// PreviewStatement handles POST /api/statements. The body is the raw CSV; the
// response carries the normalized records with binding pre-fill applied. The
// raw file is archived best-effort, a failed archive never fails the preview.
func (h *StatementsHandler) PreviewStatement(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxStatementBytes))
	if err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Failed to read statement body")
		return
	}

	records, err := h.svc.Preview(ctx, bytes.NewReader(body))
	if err != nil {
		var formatErr *statement.InputFormatError
		var parseErr *statement.ParseError
		switch {
		case errors.As(err, &formatErr), errors.As(err, &parseErr):
			middleware.WriteError(w, http.StatusBadRequest, err.Error())
		default:
			h.log.Error().Err(err).Msg("Failed to preview statement")
			middleware.WriteError(w, http.StatusInternalServerError, "Failed to process statement")
		}
		return
	}

	documentID := uuid.New().String()
	var gcsURI string
	if h.archiver != nil {
		filename := r.URL.Query().Get("filename")
		if filename == "" {
			filename = "statement.csv"
		}
		gcsURI, err = h.archiver.Archive(ctx, documentID, filename, body)
		if err != nil {
			h.log.Warn().Err(err).Str("document_id", documentID).Msg("Failed to archive statement")
			gcsURI = ""
		}
	}

	if records == nil {
		records = []domain.TransactionRecord{}
	}
	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"records":    records,
		"count":      len(records),
		"documentId": documentID,
		"gcsUri":     gcsURI,
	})
}

// RecordQuerier is the slice of the analytics mirror the reports endpoint reads.
type RecordQuerier interface {
	QueryRecordsByDateRange(ctx context.Context, startDate, endDate time.Time) ([]*bigquery.RecordRow, error)
}

// ReportsHandler handles the analytics reporting endpoints.
type ReportsHandler struct {
	mirror RecordQuerier
	log    zerolog.Logger
}

// NewReportsHandler creates a new reports handler.
func NewReportsHandler(mirror RecordQuerier, log zerolog.Logger) *ReportsHandler {
	return &ReportsHandler{
		mirror: mirror,
		log:    log,
	}
}

// ListRecords handles GET /api/reports/records
func (h *ReportsHandler) ListRecords(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	query := r.URL.Query()
	startDateStr := query.Get("start_date")
	endDateStr := query.Get("end_date")

	var startDate, endDate time.Time
	var err error

	if startDateStr != "" {
		startDate, err = time.Parse("2006-01-02", startDateStr)
		if err != nil {
			middleware.WriteError(w, http.StatusBadRequest, "Invalid start_date format")
			return
		}
	} else {
		startDate = time.Now().AddDate(-1, 0, 0) // 1 year ago
	}

	if endDateStr != "" {
		endDate, err = time.Parse("2006-01-02", endDateStr)
		if err != nil {
			middleware.WriteError(w, http.StatusBadRequest, "Invalid end_date format")
			return
		}
	} else {
		endDate = time.Now()
	}

	records, err := h.mirror.QueryRecordsByDateRange(ctx, startDate, endDate)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to query records")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to query records")
		return
	}

	if records == nil {
		records = []*bigquery.RecordRow{}
	}
	middleware.WriteJSON(w, http.StatusOK, records)
}

// SuggestionsHandler handles the binding suggestion endpoint.
type SuggestionsHandler struct {
	suggester suggest.Suggester
	log       zerolog.Logger
}

// NewSuggestionsHandler creates a new suggestions handler.
func NewSuggestionsHandler(suggester suggest.Suggester, log zerolog.Logger) *SuggestionsHandler {
	return &SuggestionsHandler{
		suggester: suggester,
		log:       log,
	}
}

// SuggestBindings handles POST /api/categoryBindings/suggest. Nothing is
// persisted; the caller reviews the suggestions and saves bindings through
// the normal replace endpoint.
func (h *SuggestionsHandler) SuggestBindings(w http.ResponseWriter, r *http.Request) {
	var req struct {
		MerchantCategories []string `json:"merchantCategories"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if len(req.MerchantCategories) == 0 {
		middleware.WriteError(w, http.StatusBadRequest, "merchantCategories is required")
		return
	}

	suggestions, err := h.suggester.SuggestBindings(r.Context(), req.MerchantCategories)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to suggest bindings")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to suggest bindings")
		return
	}

	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"suggestions": suggestions,
		"count":       len(suggestions),
	})
}

// JobsHandler handles job inspection endpoints.
type JobsHandler struct {
	store jobs.JobStore
	log   zerolog.Logger
}

// NewJobsHandler creates a new jobs handler.
func NewJobsHandler(store jobs.JobStore, log zerolog.Logger) *JobsHandler {
	return &JobsHandler{
		store: store,
		log:   log,
	}
}

// GetJob handles GET /api/jobs/{id}
func (h *JobsHandler) GetJob(w http.ResponseWriter, r *http.Request, jobID string) {
	ctx := r.Context()

	job, err := h.store.GetJob(ctx, jobID)
	if err != nil {
		h.log.Error().Err(err).Str("job_id", jobID).Msg("Failed to get job")
		middleware.WriteError(w, http.StatusNotFound, "Job not found")
		return
	}

	middleware.WriteJSON(w, http.StatusOK, job)
}

// ListJobs handles GET /api/jobs
func (h *JobsHandler) ListJobs(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	query := r.URL.Query()
	filter := jobs.JobFilter{
		ImportID: query.Get("import_id"),
		Status:   jobs.JobStatus(query.Get("status")),
	}

	if limitStr := query.Get("limit"); limitStr != "" {
		if limit, err := strconv.Atoi(limitStr); err == nil {
			filter.Limit = limit
		}
	}

	if offsetStr := query.Get("offset"); offsetStr != "" {
		if offset, err := strconv.Atoi(offsetStr); err == nil {
			filter.Offset = offset
		}
	}

	jobsList, err := h.store.ListJobs(ctx, filter)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to list jobs")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to list jobs")
		return
	}

	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"jobs":  jobsList,
		"count": len(jobsList),
	})
}
