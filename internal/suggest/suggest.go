// Package suggest proposes macro/micro category bindings for merchant labels
// that have no saved binding yet, using Gemini constrained to the stored
// taxonomy. Suggestions are advisory; the user still confirms and saves the
// binding set through the normal endpoint.
package suggest

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"github.com/dvloznov/easybudget/internal/infra/firestore"
)

// DefaultModelName is the Gemini model used for binding suggestions.
const DefaultModelName = "gemini-2.5-flash"

// CategorySource is the slice of the document store the suggester needs.
type CategorySource interface {
	ListMacroCategories(ctx context.Context) ([]firestore.MacroCategoryDoc, error)
	ListMicroCategories(ctx context.Context) ([]firestore.MicroCategoryDoc, error)
}

// BindingSuggestion is one proposed binding. IDs are resolved against the
// taxonomy; they stay zero when the model answered with an unknown name.
type BindingSuggestion struct {
	MerchantCategory string `json:"merchantCategory"`
	MacroName        string `json:"macroName"`
	MicroName        string `json:"microName"`
	MacroCategory    int64  `json:"macroCategory"`
	MicroCategory    int64  `json:"microCategory"`
}

// Suggester proposes bindings for merchant labels.
type Suggester interface {
	SuggestBindings(ctx context.Context, merchants []string) ([]BindingSuggestion, error)
}

// GeminiSuggester is the concrete Suggester backed by the Gemini API.
type GeminiSuggester struct {
	source CategorySource
	model  string
}

// NewGeminiSuggester creates a suggester reading the taxonomy from source.
func NewGeminiSuggester(source CategorySource) *GeminiSuggester {
	return &GeminiSuggester{source: source, model: DefaultModelName}
}

// SuggestBindings implements the Suggester interface.
func (s *GeminiSuggester) SuggestBindings(ctx context.Context, merchants []string) ([]BindingSuggestion, error) {
	taxonomyPrompt, err := buildTaxonomyPrompt(ctx, s.source)
	if err != nil {
		return nil, fmt.Errorf("SuggestBindings: %w", err)
	}

	basePrompt :=
		"You are classifying merchant-category labels from bank statement exports\n" +
			"into a personal-budget taxonomy.\n\n" +
			"Task:\n" +
			"- For EVERY label listed below, propose the best macro/micro category pair.\n" +
			"- Output STRICT JSON only (no comments, no trailing commas, no extra text).\n" +
			"- Output a JSON array of objects.\n\n" +
			"Each object must have these fields:\n" +
			"- \"merchant_category\": string, the label exactly as given\n" +
			"- \"macro_category\": string\n" +
			"- \"micro_category\": string\n\n"

	var labels strings.Builder
	labels.WriteString("Labels to classify:\n")
	for _, m := range merchants {
		labels.WriteString("- " + m + "\n")
	}

	rulesPrompt :=
		"\nReturn ONLY valid raw JSON.\n" +
			"Do NOT wrap the response in code fences.\n" +
			"Do NOT use ```json or any Markdown.\n" +
			"Output must begin with \"[\" and end with \"]\".\n"

	fullPrompt := basePrompt + taxonomyPrompt + "\n" + labels.String() + rulesPrompt

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		HTTPOptions: genai.HTTPOptions{APIVersion: "v1"},
	})
	if err != nil {
		return nil, fmt.Errorf("SuggestBindings: create genai client: %w", err)
	}

	contents := []*genai.Content{
		{
			Role:  "user",
			Parts: []*genai.Part{{Text: fullPrompt}},
		},
	}

	resp, err := client.Models.GenerateContent(ctx, s.model, contents, nil)
	if err != nil {
		return nil, fmt.Errorf("SuggestBindings: generate content: %w", err)
	}

	rawText := resp.Text()
	if rawText == "" {
		return nil, fmt.Errorf("SuggestBindings: empty response from model")
	}

	var parsed []modelSuggestion
	clean := cleanModelJSON(rawText)
	if err := json.Unmarshal([]byte(clean), &parsed); err != nil {
		return nil, fmt.Errorf("SuggestBindings: unmarshal JSON: %w\nraw response: %s", err, rawText)
	}

	return s.resolve(ctx, parsed)
}

// modelSuggestion is the raw JSON shape the model is instructed to output.
type modelSuggestion struct {
	MerchantCategory string `json:"merchant_category"`
	MacroCategory    string `json:"macro_category"`
	MicroCategory    string `json:"micro_category"`
}

func (s *GeminiSuggester) resolve(ctx context.Context, parsed []modelSuggestion) ([]BindingSuggestion, error) {
	macros, err := s.source.ListMacroCategories(ctx)
	if err != nil {
		return nil, fmt.Errorf("resolve: list macro categories: %w", err)
	}
	micros, err := s.source.ListMicroCategories(ctx)
	if err != nil {
		return nil, fmt.Errorf("resolve: list micro categories: %w", err)
	}

	macroIDs := make(map[string]int64, len(macros))
	for _, m := range macros {
		macroIDs[normalizeName(m.Name)] = m.ID
	}
	microIDs := make(map[string]int64, len(micros))
	for _, m := range micros {
		microIDs[normalizeName(m.Name)] = m.ID
	}

	suggestions := make([]BindingSuggestion, 0, len(parsed))
	for _, p := range parsed {
		suggestions = append(suggestions, BindingSuggestion{
			MerchantCategory: p.MerchantCategory,
			MacroName:        p.MacroCategory,
			MicroName:        p.MicroCategory,
			MacroCategory:    macroIDs[normalizeName(p.MacroCategory)],
			MicroCategory:    microIDs[normalizeName(p.MicroCategory)],
		})
	}
	return suggestions, nil
}

// normalizeName normalizes a category name for lookup: uppercase, trimmed.
func normalizeName(name string) string {
	return strings.ToUpper(strings.TrimSpace(name))
}

// cleanModelJSON strips Markdown fences and surrounding junk when the model
// ignores the raw-JSON instruction.
func cleanModelJSON(raw string) string {
	s := strings.TrimSpace(raw)

	if strings.HasPrefix(s, "```") {
		if idx := strings.Index(s, "\n"); idx != -1 {
			s = s[idx+1:]
		} else {
			return s
		}
		s = strings.TrimSpace(s)
	}

	if idx := strings.LastIndex(s, "```"); idx != -1 {
		s = s[:idx]
	}
	s = strings.TrimSpace(s)

	if start := strings.Index(s, "["); start != -1 {
		if end := strings.LastIndex(s, "]"); end != -1 && end > start {
			s = strings.TrimSpace(s[start : end+1])
		}
	}
	return s
}
