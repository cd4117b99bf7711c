package suggest

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/dvloznov/easybudget/internal/infra/firestore"
)

type mockCategorySource struct {
	listMacroFunc func(ctx context.Context) ([]firestore.MacroCategoryDoc, error)
	listMicroFunc func(ctx context.Context) ([]firestore.MicroCategoryDoc, error)
}

func (m *mockCategorySource) ListMacroCategories(ctx context.Context) ([]firestore.MacroCategoryDoc, error) {
	return m.listMacroFunc(ctx)
}

func (m *mockCategorySource) ListMicroCategories(ctx context.Context) ([]firestore.MicroCategoryDoc, error) {
	return m.listMicroFunc(ctx)
}

func TestCleanModelJSON(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "raw json untouched",
			in:   `[{"merchant_category":"GROCERY"}]`,
			want: `[{"merchant_category":"GROCERY"}]`,
		},
		{
			name: "json code fence",
			in:   "```json\n[{\"merchant_category\":\"GROCERY\"}]\n```",
			want: `[{"merchant_category":"GROCERY"}]`,
		},
		{
			name: "bare code fence",
			in:   "```\n[]\n```",
			want: "[]",
		},
		{
			name: "leading prose before array",
			in:   "Here is the result:\n[{\"merchant_category\":\"FUEL\"}]",
			want: `[{"merchant_category":"FUEL"}]`,
		},
		{
			name: "surrounding whitespace",
			in:   "  \n[]\n  ",
			want: "[]",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := cleanModelJSON(tt.in)
			if got != tt.want {
				t.Errorf("cleanModelJSON() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestBuildTaxonomyPrompt(t *testing.T) {
	source := &mockCategorySource{
		listMacroFunc: func(ctx context.Context) ([]firestore.MacroCategoryDoc, error) {
			return []firestore.MacroCategoryDoc{
				{ID: 1, Name: "CASA"},
				{ID: 2, Name: "SVAGO"},
			}, nil
		},
		listMicroFunc: func(ctx context.Context) ([]firestore.MicroCategoryDoc, error) {
			return []firestore.MicroCategoryDoc{
				{ID: 10, Name: "AFFITTO", MacroID: 1},
				{ID: 11, Name: "BOLLETTE", MacroID: 1},
			}, nil
		},
	}

	prompt, err := buildTaxonomyPrompt(context.Background(), source)
	if err != nil {
		t.Fatalf("buildTaxonomyPrompt() error = %v", err)
	}

	for _, want := range []string{"CASA:", "  - AFFITTO", "  - BOLLETTE", "SVAGO:", "(no micro categories", "ASSIGNMENT RULES:"} {
		if !strings.Contains(prompt, want) {
			t.Errorf("prompt missing %q:\n%s", want, prompt)
		}
	}
}

func TestBuildTaxonomyPrompt_NoMacros(t *testing.T) {
	source := &mockCategorySource{
		listMacroFunc: func(ctx context.Context) ([]firestore.MacroCategoryDoc, error) {
			return nil, nil
		},
		listMicroFunc: func(ctx context.Context) ([]firestore.MicroCategoryDoc, error) {
			return nil, nil
		},
	}

	if _, err := buildTaxonomyPrompt(context.Background(), source); err == nil {
		t.Fatal("expected error for empty taxonomy, got nil")
	}
}

func TestBuildTaxonomyPrompt_SourceError(t *testing.T) {
	wantErr := errors.New("store down")
	source := &mockCategorySource{
		listMacroFunc: func(ctx context.Context) ([]firestore.MacroCategoryDoc, error) {
			return nil, wantErr
		},
		listMicroFunc: func(ctx context.Context) ([]firestore.MicroCategoryDoc, error) {
			return nil, nil
		},
	}

	if _, err := buildTaxonomyPrompt(context.Background(), source); !errors.Is(err, wantErr) {
		t.Fatalf("expected wrapped source error, got %v", err)
	}
}

func TestResolve_MapsNamesToIDs(t *testing.T) {
	source := &mockCategorySource{
		listMacroFunc: func(ctx context.Context) ([]firestore.MacroCategoryDoc, error) {
			return []firestore.MacroCategoryDoc{{ID: 1, Name: "CASA"}}, nil
		},
		listMicroFunc: func(ctx context.Context) ([]firestore.MicroCategoryDoc, error) {
			return []firestore.MicroCategoryDoc{{ID: 10, Name: "Affitto", MacroID: 1}}, nil
		},
	}
	s := NewGeminiSuggester(source)

	parsed := []modelSuggestion{
		{MerchantCategory: "RENT PAYMENTS", MacroCategory: "casa", MicroCategory: "AFFITTO"},
		{MerchantCategory: "UNKNOWN SHOP", MacroCategory: "", MicroCategory: ""},
	}

	got, err := s.resolve(context.Background(), parsed)
	if err != nil {
		t.Fatalf("resolve() error = %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 suggestions, got %d", len(got))
	}
	if got[0].MacroCategory != 1 || got[0].MicroCategory != 10 {
		t.Errorf("expected resolved IDs 1/10, got %d/%d", got[0].MacroCategory, got[0].MicroCategory)
	}
	if got[1].MacroCategory != 0 || got[1].MicroCategory != 0 {
		t.Errorf("expected zero IDs for unresolved names, got %d/%d", got[1].MacroCategory, got[1].MicroCategory)
	}
}
