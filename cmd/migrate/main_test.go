package main

import (
	"os"
	"path/filepath"
	"testing"
)

func TestReadSeed(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "seed.json")
	content := `{
		"macroCategories": [{"_id": 1, "name": "CASA"}],
		"microCategories": [{"_id": 10, "name": "AFFITTO", "macroCategory": 1}]
	}`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	seed, err := readSeed(path)
	if err != nil {
		t.Fatalf("readSeed() error = %v", err)
	}
	if len(seed.MacroCategories) != 1 || seed.MacroCategories[0].ID != 1 || seed.MacroCategories[0].Name != "CASA" {
		t.Errorf("unexpected macro categories: %+v", seed.MacroCategories)
	}
	if len(seed.MicroCategories) != 1 || seed.MicroCategories[0].MacroID != 1 {
		t.Errorf("unexpected micro categories: %+v", seed.MicroCategories)
	}
}

func TestReadSeed_Malformed(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "seed.json")
	if err := os.WriteFile(path, []byte(`{"macroCategories": "nope"}`), 0o644); err != nil {
		t.Fatal(err)
	}

	if _, err := readSeed(path); err == nil {
		t.Fatal("expected error for malformed seed, got nil")
	}
}

func TestReadSeed_MissingFile(t *testing.T) {
	if _, err := readSeed(filepath.Join(t.TempDir(), "absent.json")); err == nil {
		t.Fatal("expected error for missing file, got nil")
	}
}
