package suggest

import (
	"context"
	"fmt"
	"strings"
)

// buildTaxonomyPrompt renders the stored category taxonomy into a prompt
// section the model must stay within.
func buildTaxonomyPrompt(ctx context.Context, source CategorySource) (string, error) {
	macros, err := source.ListMacroCategories(ctx)
	if err != nil {
		return "", fmt.Errorf("buildTaxonomyPrompt: list macro categories: %w", err)
	}
	if len(macros) == 0 {
		return "", fmt.Errorf("buildTaxonomyPrompt: no macro categories found")
	}
	micros, err := source.ListMicroCategories(ctx)
	if err != nil {
		return "", fmt.Errorf("buildTaxonomyPrompt: list micro categories: %w", err)
	}

	microsByMacro := make(map[int64][]string)
	for _, m := range micros {
		microsByMacro[m.MacroID] = append(microsByMacro[m.MacroID], m.Name)
	}

	var b strings.Builder
	b.WriteString("Use ONLY the following macro and micro categories:\n\n")
	for _, macro := range macros {
		b.WriteString(macro.Name + ":\n")
		subs := microsByMacro[macro.ID]
		if len(subs) == 0 {
			b.WriteString("  (no micro categories - use empty string \"\")\n\n")
			continue
		}
		for _, s := range subs {
			b.WriteString("  - " + s + "\n")
		}
		b.WriteString("\n")
	}

	b.WriteString("ASSIGNMENT RULES:\n")
	b.WriteString("1. macro_category must be EXACTLY one of the macro names shown above.\n")
	b.WriteString("2. If a macro has micro categories listed, pick the best-fitting one.\n")
	b.WriteString("3. If a macro shows \"(no micro categories)\", use empty string \"\" for micro_category.\n")
	b.WriteString("4. If unsure about a merchant label, leave both fields as empty strings.\n")

	return b.String(), nil
}
