package catalog

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

const restoPage = `{
  "page": "resto-menu",
  "redirects": {"drinks-desserts": "coffee-menu"},
  "categories": [
    {"id": "starters", "name": "Starters"},
    {"id": "drinks-desserts", "name": "Drinks & Desserts"}
  ],
  "items": [
    {"id": "hummus", "name": "Hummus", "price": 6.5, "category": "starters", "ingredients": "Chickpeas, tahini, lemon"},
    {"id": "coffee-note", "name": "Check Coffee Bar Menu", "category": "drinks-desserts", "isNote": true}
  ]
}`

func writePage(t *testing.T, dir, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write %s: %v", name, err)
	}
}

func TestLoadDir(t *testing.T) {
	dir := t.TempDir()
	writePage(t, dir, "resto-menu.json", restoPage)
	writePage(t, dir, "notes.txt", "ignored")

	store, err := LoadDir(dir)
	if err != nil {
		t.Fatalf("LoadDir returned error: %v", err)
	}

	if pages := store.Pages(); len(pages) != 1 || pages[0] != "resto-menu" {
		t.Fatalf("unexpected pages %v", pages)
	}

	page, err := store.Page("resto-menu")
	if err != nil {
		t.Fatalf("Page returned error: %v", err)
	}
	if len(page.Categories) != 2 || len(page.Items) != 2 {
		t.Fatalf("unexpected catalog shape: %d categories, %d items", len(page.Categories), len(page.Items))
	}
	if page.Redirects["drinks-desserts"] != "coffee-menu" {
		t.Errorf("expected drinks-desserts redirect, got %v", page.Redirects)
	}

	item, ok := page.ItemByID("hummus")
	if !ok {
		t.Fatal("expected hummus item")
	}
	if item.PriceCents != 650 {
		t.Errorf("expected price 650 cents, got %d", item.PriceCents)
	}
	if !item.Purchasable() {
		t.Error("expected hummus to be purchasable")
	}

	note, ok := page.ItemByID("coffee-note")
	if !ok {
		t.Fatal("expected note item")
	}
	if note.Purchasable() {
		t.Error("expected note item to be non-purchasable")
	}
}

func TestLoadDirUnknownPage(t *testing.T) {
	dir := t.TempDir()
	writePage(t, dir, "resto-menu.json", restoPage)

	store, err := LoadDir(dir)
	if err != nil {
		t.Fatalf("LoadDir returned error: %v", err)
	}
	if _, err := store.Page("missing"); !errors.Is(err, ErrCatalogNotFound) {
		t.Fatalf("expected ErrCatalogNotFound, got %v", err)
	}
}

func TestLoadDirEmpty(t *testing.T) {
	if _, err := LoadDir(t.TempDir()); !errors.Is(err, ErrCatalogInvalid) {
		t.Fatalf("expected ErrCatalogInvalid, got %v", err)
	}
}

func TestParseRejectsDuplicateItems(t *testing.T) {
	_, err := Parse([]byte(`{
  "page": "p",
  "categories": [{"id": "c", "name": "C"}],
  "items": [
    {"id": "a", "name": "A", "price": 1, "category": "c"},
    {"id": "a", "name": "A again", "price": 2, "category": "c"}
  ]
}`))
	if !errors.Is(err, ErrCatalogInvalid) {
		t.Fatalf("expected ErrCatalogInvalid, got %v", err)
	}
}

func TestParseRejectsUnknownCategoryReference(t *testing.T) {
	_, err := Parse([]byte(`{
  "page": "p",
  "categories": [{"id": "c", "name": "C"}],
  "items": [{"id": "a", "name": "A", "price": 1, "category": "other"}]
}`))
	if !errors.Is(err, ErrCatalogInvalid) {
		t.Fatalf("expected ErrCatalogInvalid, got %v", err)
	}
}

func TestParseRejectsReservedCategoryID(t *testing.T) {
	_, err := Parse([]byte(`{
  "page": "p",
  "categories": [{"id": "all", "name": "Everything"}],
  "items": []
}`))
	if !errors.Is(err, ErrCatalogInvalid) {
		t.Fatalf("expected ErrCatalogInvalid, got %v", err)
	}
}

func TestParseRoundsPricesToCents(t *testing.T) {
	page, err := Parse([]byte(`{
  "page": "p",
  "categories": [{"id": "c", "name": "C"}],
  "items": [{"id": "a", "name": "A", "price": 10.995, "category": "c"}]
}`))
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}
	if page.Items[0].PriceCents != 1100 {
		t.Fatalf("expected 1100 cents, got %d", page.Items[0].PriceCents)
	}
}
