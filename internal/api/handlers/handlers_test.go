package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/dvloznov/easybudget/internal/domain"
	"github.com/dvloznov/easybudget/internal/importer"
	"github.com/dvloznov/easybudget/internal/infra/bigquery"
	"github.com/dvloznov/easybudget/internal/infra/firestore"
	"github.com/dvloznov/easybudget/internal/statement"
)

type mockImportService struct {
	previewFunc func(ctx context.Context, r io.Reader) ([]domain.TransactionRecord, error)
	saveFunc    func(ctx context.Context, submitted []domain.SubmittedRecord) (*importer.Result, error)
}

func (m *mockImportService) Preview(ctx context.Context, r io.Reader) ([]domain.TransactionRecord, error) {
	return m.previewFunc(ctx, r)
}

func (m *mockImportService) Save(ctx context.Context, submitted []domain.SubmittedRecord) (*importer.Result, error) {
	return m.saveFunc(ctx, submitted)
}

type mockBindingStore struct {
	loadFunc    func() ([]domain.CategoryBinding, error)
	replaceFunc func(set []domain.CategoryBinding) error
}

func (m *mockBindingStore) Load() ([]domain.CategoryBinding, error) {
	return m.loadFunc()
}

func (m *mockBindingStore) Replace(set []domain.CategoryBinding) error {
	return m.replaceFunc(set)
}

type mockCategoryStore struct {
	macros []firestore.MacroCategoryDoc
	micros []firestore.MicroCategoryDoc
	err    error
}

func (m *mockCategoryStore) ListMacroCategories(ctx context.Context) ([]firestore.MacroCategoryDoc, error) {
	return m.macros, m.err
}

func (m *mockCategoryStore) ListMicroCategories(ctx context.Context) ([]firestore.MicroCategoryDoc, error) {
	return m.micros, m.err
}

type mockRecordQuerier struct {
	queryFunc func(ctx context.Context, startDate, endDate time.Time) ([]*bigquery.RecordRow, error)
}

func (m *mockRecordQuerier) QueryRecordsByDateRange(ctx context.Context, startDate, endDate time.Time) ([]*bigquery.RecordRow, error) {
	return m.queryFunc(ctx, startDate, endDate)
}

func testLogger() zerolog.Logger {
	return zerolog.New(io.Discard)
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode response body: %v", err)
	}
	return body
}

func TestSaveExpenses_RejectsInvalidPayloads(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{name: "not json", body: `not json`},
		{name: "expenses is not an array", body: `{"expenses": "nope"}`},
		{name: "expenses is null", body: `{"expenses": null}`},
		{name: "missing expenses key", body: `{}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			saveCalled := false
			h := NewExpensesHandler(&mockImportService{
				saveFunc: func(ctx context.Context, submitted []domain.SubmittedRecord) (*importer.Result, error) {
					saveCalled = true
					return nil, nil
				},
			}, testLogger())

			req := httptest.NewRequest(http.MethodPost, "/api/expenses", strings.NewReader(tt.body))
			rec := httptest.NewRecorder()
			h.SaveExpenses(rec, req)

			if rec.Code != http.StatusBadRequest {
				t.Errorf("expected 400, got %d", rec.Code)
			}
			if saveCalled {
				t.Error("save must not be reached for invalid payloads")
			}
		})
	}
}

func TestSaveExpenses_EmptyArrayRejectedBeforePersistence(t *testing.T) {
	h := NewExpensesHandler(&mockImportService{
		saveFunc: func(ctx context.Context, submitted []domain.SubmittedRecord) (*importer.Result, error) {
			if len(submitted) != 0 {
				t.Fatalf("expected empty batch, got %d records", len(submitted))
			}
			return nil, &importer.ValidationError{Msg: "Invalid expenses data"}
		},
	}, testLogger())

	req := httptest.NewRequest(http.MethodPost, "/api/expenses", strings.NewReader(`{"expenses": []}`))
	rec := httptest.NewRecorder()
	h.SaveExpenses(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", rec.Code)
	}
	if body := decodeBody(t, rec); body["error"] != "Invalid expenses data" {
		t.Errorf("unexpected error message: %v", body["error"])
	}
}

func TestSaveExpenses_Success(t *testing.T) {
	h := NewExpensesHandler(&mockImportService{
		saveFunc: func(ctx context.Context, submitted []domain.SubmittedRecord) (*importer.Result, error) {
			if len(submitted) != 2 {
				t.Fatalf("expected 2 records, got %d", len(submitted))
			}
			return &importer.Result{
				ImportID:      "imp-1",
				ExpensesCount: 1,
				IncomesCount:  1,
				Message:       "Successfully imported 1 expenses and 1 incomes",
			}, nil
		},
	}, testLogger())

	payload := `{"expenses": [
		{"date":"2024-03-05","description":"Groceries","amount":42.5,"macroCategory":1,"microCategory":10},
		{"date":"2024-03-06","description":"Salary","amount":-1200,"macroCategory":2,"microCategory":20}
	]}`
	req := httptest.NewRequest(http.MethodPost, "/api/expenses", strings.NewReader(payload))
	rec := httptest.NewRecorder()
	h.SaveExpenses(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	body := decodeBody(t, rec)
	if body["success"] != true {
		t.Errorf("expected success=true, got %v", body["success"])
	}
	if body["expensesCount"] != float64(1) || body["incomesCount"] != float64(1) {
		t.Errorf("unexpected counts: %v / %v", body["expensesCount"], body["incomesCount"])
	}
	if body["message"] != "Successfully imported 1 expenses and 1 incomes" {
		t.Errorf("unexpected message: %v", body["message"])
	}
}

func TestSaveExpenses_PersistenceFailure(t *testing.T) {
	h := NewExpensesHandler(&mockImportService{
		saveFunc: func(ctx context.Context, submitted []domain.SubmittedRecord) (*importer.Result, error) {
			return nil, &importer.PersistenceError{Op: "inserting expenses", Err: errors.New("store down")}
		},
	}, testLogger())

	req := httptest.NewRequest(http.MethodPost, "/api/expenses",
		strings.NewReader(`{"expenses": [{"date":"2024-03-05","description":"x","amount":1,"macroCategory":1,"microCategory":1}]}`))
	rec := httptest.NewRecorder()
	h.SaveExpenses(rec, req)

	if rec.Code != http.StatusInternalServerError {
		t.Errorf("expected 500, got %d", rec.Code)
	}
	if body := decodeBody(t, rec); body["error"] != "Failed to save expenses" {
		t.Errorf("unexpected error message: %v", body["error"])
	}
}

func TestReplaceBindings(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		replaceErr error
		wantStatus int
		wantSaved  *int // length of saved set, nil when Replace must not run
	}{
		{
			name:       "valid set",
			body:       `{"bindings": [{"merchantCategory":"GROCERY STORES","macroCategory":1,"microCategory":10}]}`,
			wantStatus: http.StatusOK,
			wantSaved:  intPtr(1),
		},
		{
			name:       "empty array deletes all",
			body:       `{"bindings": []}`,
			wantStatus: http.StatusOK,
			wantSaved:  intPtr(0),
		},
		{
			name:       "non-array rejected",
			body:       `{"bindings": {"merchantCategory":"X"}}`,
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "null rejected",
			body:       `{"bindings": null}`,
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "write failure",
			body:       `{"bindings": []}`,
			replaceErr: errors.New("disk full"),
			wantStatus: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var saved []domain.CategoryBinding
			replaceCalled := false
			h := NewBindingsHandler(&mockBindingStore{
				replaceFunc: func(set []domain.CategoryBinding) error {
					replaceCalled = true
					saved = set
					return tt.replaceErr
				},
			}, testLogger())

			req := httptest.NewRequest(http.MethodPost, "/api/categoryBindings", strings.NewReader(tt.body))
			rec := httptest.NewRecorder()
			h.ReplaceBindings(rec, req)

			if rec.Code != tt.wantStatus {
				t.Errorf("expected %d, got %d", tt.wantStatus, rec.Code)
			}
			if tt.wantSaved == nil {
				if tt.wantStatus == http.StatusBadRequest && replaceCalled {
					t.Error("Replace must not run for rejected payloads")
				}
				return
			}
			if len(saved) != *tt.wantSaved {
				t.Errorf("expected %d saved bindings, got %d", *tt.wantSaved, len(saved))
			}
		})
	}
}

func intPtr(v int) *int { return &v }

func TestListBindings(t *testing.T) {
	h := NewBindingsHandler(&mockBindingStore{
		loadFunc: func() ([]domain.CategoryBinding, error) {
			return []domain.CategoryBinding{
				{MerchantCategory: "GROCERY STORES", MacroCategory: 1, MicroCategory: 10},
			}, nil
		},
	}, testLogger())

	req := httptest.NewRequest(http.MethodGet, "/api/categoryBindings", nil)
	rec := httptest.NewRecorder()
	h.ListBindings(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	body := decodeBody(t, rec)
	bindings, ok := body["bindings"].([]interface{})
	if !ok || len(bindings) != 1 {
		t.Errorf("unexpected bindings payload: %v", body["bindings"])
	}
}

func TestListCategories(t *testing.T) {
	h := NewCategoriesHandler(&mockCategoryStore{
		macros: []firestore.MacroCategoryDoc{{ID: 1, Name: "CASA"}},
		micros: []firestore.MicroCategoryDoc{{ID: 10, Name: "AFFITTO", MacroID: 1}},
	}, testLogger())

	req := httptest.NewRequest(http.MethodGet, "/api/categories", nil)
	rec := httptest.NewRecorder()
	h.ListCategories(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	body := decodeBody(t, rec)
	macros, ok := body["macroCategories"].([]interface{})
	if !ok || len(macros) != 1 {
		t.Fatalf("unexpected macroCategories payload: %v", body["macroCategories"])
	}
	macro := macros[0].(map[string]interface{})
	if macro["_id"] != float64(1) || macro["name"] != "CASA" {
		t.Errorf("unexpected macro category shape: %v", macro)
	}
	micros := body["microCategories"].([]interface{})
	micro := micros[0].(map[string]interface{})
	if micro["macroCategory"] != float64(1) {
		t.Errorf("expected micro to reference parent macro by ID, got %v", micro)
	}
}

func TestPreviewStatement_ErrorMapping(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{
			name:       "unrecognized layout",
			err:        &statement.InputFormatError{Reason: "unrecognized column layout"},
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "bad cell",
			err:        &statement.ParseError{Line: 3, Field: "Amount", Value: "abc", Err: errors.New("bad number")},
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "bindings unavailable",
			err:        &importer.PersistenceError{Op: "loading bindings", Err: errors.New("io error")},
			wantStatus: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewStatementsHandler(&mockImportService{
				previewFunc: func(ctx context.Context, r io.Reader) ([]domain.TransactionRecord, error) {
					return nil, tt.err
				},
			}, nil, testLogger())

			req := httptest.NewRequest(http.MethodPost, "/api/statements", strings.NewReader("Date;Description;Amount;Category\n"))
			rec := httptest.NewRecorder()
			h.PreviewStatement(rec, req)

			if rec.Code != tt.wantStatus {
				t.Errorf("expected %d, got %d", tt.wantStatus, rec.Code)
			}
		})
	}
}

func TestPreviewStatement_Success(t *testing.T) {
	h := NewStatementsHandler(&mockImportService{
		previewFunc: func(ctx context.Context, r io.Reader) ([]domain.TransactionRecord, error) {
			return []domain.TransactionRecord{{TempID: "t1", Date: "2024-03-05"}}, nil
		},
	}, nil, testLogger())

	req := httptest.NewRequest(http.MethodPost, "/api/statements", strings.NewReader("csv body"))
	rec := httptest.NewRecorder()
	h.PreviewStatement(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	body := decodeBody(t, rec)
	if body["count"] != float64(1) {
		t.Errorf("expected count 1, got %v", body["count"])
	}
	if body["documentId"] == "" {
		t.Error("expected a document ID")
	}
}

func TestListRecords_DateValidation(t *testing.T) {
	h := NewReportsHandler(&mockRecordQuerier{
		queryFunc: func(ctx context.Context, startDate, endDate time.Time) ([]*bigquery.RecordRow, error) {
			return nil, nil
		},
	}, testLogger())

	req := httptest.NewRequest(http.MethodGet, "/api/reports/records?start_date=03-05-2024", nil)
	rec := httptest.NewRecorder()
	h.ListRecords(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for malformed start_date, got %d", rec.Code)
	}
}

func TestListRecords_ReturnsEmptyArrayNotNull(t *testing.T) {
	h := NewReportsHandler(&mockRecordQuerier{
		queryFunc: func(ctx context.Context, startDate, endDate time.Time) ([]*bigquery.RecordRow, error) {
			return nil, nil
		},
	}, testLogger())

	req := httptest.NewRequest(http.MethodGet, "/api/reports/records", nil)
	rec := httptest.NewRecorder()
	h.ListRecords(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if got := strings.TrimSpace(rec.Body.String()); got != "[]" {
		t.Errorf("expected empty array body, got %q", got)
	}
}
