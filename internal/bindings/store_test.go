package bindings

import (
	"path/filepath"
	"testing"

	"github.com/dvloznov/easybudget/internal/domain"
)

func TestFileStore_LoadMissingFile(t *testing.T) {
	store := NewFileStore(filepath.Join(t.TempDir(), "bindings.json"))

	set, err := store.Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if len(set) != 0 {
		t.Errorf("Load() on missing file = %v, want empty set", set)
	}
}

func TestFileStore_ReplaceAndLoad(t *testing.T) {
	store := NewFileStore(filepath.Join(t.TempDir(), "bindings.json"))

	want := []domain.CategoryBinding{
		{MerchantCategory: "Groceries", MacroCategory: 1, MicroCategory: 12},
		{MerchantCategory: "Ristoranti", MacroCategory: 1, MicroCategory: 13},
	}
	if err := store.Replace(want); err != nil {
		t.Fatalf("Replace() error = %v", err)
	}

	got, err := store.Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if len(got) != len(want) {
		t.Fatalf("Load() returned %d bindings, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("binding %d = %+v, want %+v", i, got[i], want[i])
		}
	}
}

func TestFileStore_ReplaceWithEmptySetRemovesAll(t *testing.T) {
	store := NewFileStore(filepath.Join(t.TempDir(), "bindings.json"))

	if err := store.Replace([]domain.CategoryBinding{{MerchantCategory: "Groceries", MacroCategory: 1}}); err != nil {
		t.Fatalf("Replace() error = %v", err)
	}
	if err := store.Replace(nil); err != nil {
		t.Fatalf("Replace(nil) error = %v", err)
	}

	set, err := store.Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if len(set) != 0 {
		t.Errorf("Load() after empty replace = %v, want empty set", set)
	}
}

func TestLookup_IsCaseSensitive(t *testing.T) {
	idx := Lookup([]domain.CategoryBinding{
		{MerchantCategory: "Groceries", MacroCategory: 1, MicroCategory: 12},
	})

	if _, ok := idx["Groceries"]; !ok {
		t.Error("exact key not found")
	}
	if _, ok := idx["groceries"]; ok {
		t.Error("lowercased key matched; lookup must be case-sensitive")
	}
}
