package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestFirstParagraph(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "book.txt")
	text := "\n\n  It was a bright cold day\nin April.\n\nThe clocks were striking thirteen.\n"
	if err := os.WriteFile(path, []byte(text), 0o644); err != nil {
		t.Fatal(err)
	}

	got, err := firstParagraph(path, 300)
	if err != nil {
		t.Fatalf("firstParagraph: %v", err)
	}
	if got != "It was a bright cold day in April." {
		t.Fatalf("got %q", got)
	}

	got, _ = firstParagraph(path, 10)
	if got != "It was ..." {
		t.Fatalf("truncated = %q", got)
	}
}

func TestManifestOverridesBuiltin(t *testing.T) {
	dir := t.TempDir()
	manifest := `{"1984.txt": {"title": "Nineteen Eighty-Four", "author": "George Orwell", "publishYear": 1949},
		"dune.txt": {"title": "Dune", "author": "Frank Herbert"}}`
	if err := os.WriteFile(filepath.Join(dir, "manifest.json"), []byte(manifest), 0o644); err != nil {
		t.Fatal(err)
	}

	meta, err := loadManifest(dir)
	if err != nil {
		t.Fatalf("loadManifest: %v", err)
	}
	if e := meta["1984.txt"]; e.Title != "Nineteen Eighty-Four" || e.PublishYear == nil || *e.PublishYear != 1949 {
		t.Fatalf("1984.txt = %+v", e)
	}
	if meta["dune.txt"].Author != "Frank Herbert" {
		t.Fatalf("dune.txt missing")
	}
	if meta["animal_farm.txt"].Title != "Animal Farm" {
		t.Fatalf("builtin entries lost")
	}
	if builtin["1984.txt"].Title != "1984" {
		t.Fatalf("manifest modified the builtin list")
	}
}

func TestMissingManifestUsesBuiltin(t *testing.T) {
	meta, err := loadManifest(t.TempDir())
	if err != nil {
		t.Fatalf("loadManifest: %v", err)
	}
	if len(meta) != len(builtin) {
		t.Fatalf("got %d entries", len(meta))
	}
	for name := range meta {
		if !strings.HasSuffix(name, ".txt") {
			t.Fatalf("unexpected entry %q", name)
		}
	}
}
