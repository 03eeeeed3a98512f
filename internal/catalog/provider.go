// Package catalog loads the menu data files that drive the site. Each page
// (restaurant menu, coffee bar menu) ships as one JSON document.
package catalog

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/cedarhouse/menu-api/internal/domain"
)

// Sentinel errors returned by the loader.
var (
	ErrCatalogNotFound = errors.New("catalog: page not found")
	ErrCatalogInvalid  = errors.New("catalog: invalid data")
)

type categoryDocument struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Image string `json:"image,omitempty"`
}

type itemDocument struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Price       float64 `json:"price"`
	Category    string  `json:"category"`
	Ingredients string  `json:"ingredients,omitempty"`
	Image       string  `json:"image,omitempty"`
	IsNote      bool    `json:"isNote,omitempty"`
	IsHeader    bool    `json:"isHeader,omitempty"`
}

type pageDocument struct {
	Page       string             `json:"page"`
	Redirects  map[string]string  `json:"redirects,omitempty"`
	Categories []categoryDocument `json:"categories"`
	Items      []itemDocument     `json:"items"`
}

// Store holds every loaded page catalog, keyed by page identifier.
type Store struct {
	pages map[string]domain.Catalog
}

// LoadDir reads every *.json file in dir and assembles the page catalogs.
func LoadDir(dir string) (*Store, error) {
	trimmed := strings.TrimSpace(dir)
	if trimmed == "" {
		return nil, fmt.Errorf("%w: directory is required", ErrCatalogInvalid)
	}

	entries, err := os.ReadDir(trimmed)
	if err != nil {
		return nil, fmt.Errorf("catalog: read dir %s: %w", trimmed, err)
	}

	pages := make(map[string]domain.Catalog)
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		path := filepath.Join(trimmed, entry.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("catalog: read %s: %w", path, err)
		}
		page, err := parsePage(data)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", entry.Name(), err)
		}
		if _, exists := pages[page.Page]; exists {
			return nil, fmt.Errorf("%w: duplicate page %q", ErrCatalogInvalid, page.Page)
		}
		pages[page.Page] = page
	}

	if len(pages) == 0 {
		return nil, fmt.Errorf("%w: no catalog files in %s", ErrCatalogInvalid, trimmed)
	}
	return &Store{pages: pages}, nil
}

// Parse decodes a single page catalog from raw JSON. Exposed for tests and
// for callers embedding catalog data.
func Parse(data []byte) (domain.Catalog, error) {
	return parsePage(data)
}

// Page returns the catalog for the given page identifier.
func (s *Store) Page(page string) (domain.Catalog, error) {
	catalog, ok := s.pages[strings.TrimSpace(page)]
	if !ok {
		return domain.Catalog{}, fmt.Errorf("%w: %q", ErrCatalogNotFound, page)
	}
	return catalog, nil
}

// Pages lists the loaded page identifiers in sorted order.
func (s *Store) Pages() []string {
	out := make([]string, 0, len(s.pages))
	for page := range s.pages {
		out = append(out, page)
	}
	sort.Strings(out)
	return out
}

func parsePage(data []byte) (domain.Catalog, error) {
	var doc pageDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return domain.Catalog{}, fmt.Errorf("%w: %v", ErrCatalogInvalid, err)
	}

	page := strings.TrimSpace(doc.Page)
	if page == "" {
		return domain.Catalog{}, fmt.Errorf("%w: page identifier is required", ErrCatalogInvalid)
	}

	categories := make([]domain.Category, 0, len(doc.Categories))
	categoryIDs := make(map[string]struct{}, len(doc.Categories))
	for _, category := range doc.Categories {
		id := strings.TrimSpace(category.ID)
		name := strings.TrimSpace(category.Name)
		if id == "" || name == "" {
			return domain.Catalog{}, fmt.Errorf("%w: category requires id and name", ErrCatalogInvalid)
		}
		if id == domain.FilterAll {
			return domain.Catalog{}, fmt.Errorf("%w: category id %q is reserved", ErrCatalogInvalid, id)
		}
		if _, exists := categoryIDs[id]; exists {
			return domain.Catalog{}, fmt.Errorf("%w: duplicate category %q", ErrCatalogInvalid, id)
		}
		categoryIDs[id] = struct{}{}
		categories = append(categories, domain.Category{
			ID:    id,
			Name:  name,
			Image: strings.TrimSpace(category.Image),
		})
	}

	items := make([]domain.MenuItem, 0, len(doc.Items))
	itemIDs := make(map[string]struct{}, len(doc.Items))
	for _, item := range doc.Items {
		id := strings.TrimSpace(item.ID)
		name := strings.TrimSpace(item.Name)
		if id == "" || name == "" {
			return domain.Catalog{}, fmt.Errorf("%w: item requires id and name", ErrCatalogInvalid)
		}
		if _, exists := itemIDs[id]; exists {
			return domain.Catalog{}, fmt.Errorf("%w: duplicate item %q", ErrCatalogInvalid, id)
		}
		itemIDs[id] = struct{}{}

		categoryID := strings.TrimSpace(item.Category)
		if _, known := categoryIDs[categoryID]; categoryID != "" && !known {
			return domain.Catalog{}, fmt.Errorf("%w: item %q references unknown category %q", ErrCatalogInvalid, id, categoryID)
		}
		if item.Price < 0 {
			return domain.Catalog{}, fmt.Errorf("%w: item %q has negative price", ErrCatalogInvalid, id)
		}

		items = append(items, domain.MenuItem{
			ID:          id,
			Name:        name,
			PriceCents:  dollarsToCents(item.Price),
			Category:    categoryID,
			Ingredients: strings.TrimSpace(item.Ingredients),
			Image:       strings.TrimSpace(item.Image),
			IsNote:      item.IsNote,
			IsHeader:    item.IsHeader,
		})
	}

	redirects := make(map[string]string, len(doc.Redirects))
	for from, to := range doc.Redirects {
		from = strings.TrimSpace(from)
		to = strings.TrimSpace(to)
		if from == "" || to == "" {
			continue
		}
		redirects[from] = to
	}

	return domain.Catalog{
		Page:       page,
		Categories: categories,
		Items:      items,
		Redirects:  redirects,
	}, nil
}

func dollarsToCents(price float64) int64 {
	return int64(math.Round(price * 100))
}
