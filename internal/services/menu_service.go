package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	domain "github.com/cedarhouse/menu-api/internal/domain"
)

var errMenuCatalogRequired = errors.New("menu service: catalog is required")

// ErrMenuInvalidInput indicates the caller supplied invalid input.
var ErrMenuInvalidInput = errors.New("menu service: invalid input")

// ErrMenuPageNotFound indicates the requested menu page does not exist.
var ErrMenuPageNotFound = errors.New("menu service: page not found")

// MenuServiceDeps wires the catalog for menu rendering.
type MenuServiceDeps struct {
	Catalog pageProvider
	Logger  func(context.Context, string, map[string]any)
}

type menuService struct {
	catalog pageProvider
	logger  func(context.Context, string, map[string]any)

	// Filter selections are per session and per page, keyed by both.
	mu         sync.Mutex
	selections map[string]string
}

// NewMenuService constructs a MenuService enforcing dependency validation.
func NewMenuService(deps MenuServiceDeps) (MenuService, error) {
	if deps.Catalog == nil {
		return nil, errMenuCatalogRequired
	}

	logger := deps.Logger
	if logger == nil {
		logger = func(context.Context, string, map[string]any) {}
	}

	return &menuService{
		catalog:    deps.Catalog,
		logger:     logger,
		selections: make(map[string]string),
	}, nil
}

// View renders the menu page using the session's current filter selection.
func (s *menuService) View(ctx context.Context, cmd ViewMenuCommand) (MenuView, error) {
	sid := strings.TrimSpace(cmd.SessionID)
	page := strings.TrimSpace(cmd.Page)
	if sid == "" || page == "" {
		return MenuView{}, ErrMenuInvalidInput
	}

	catalog, err := s.catalog.Page(page)
	if err != nil {
		return MenuView{}, fmt.Errorf("%w: %q", ErrMenuPageNotFound, page)
	}

	return buildMenuView(catalog, s.selection(sid, page)), nil
}

// SelectFilter applies a category filter for the session, or reports a
// navigation request when the category redirects to another page.
func (s *menuService) SelectFilter(ctx context.Context, cmd SelectFilterCommand) (FilterResult, error) {
	sid := strings.TrimSpace(cmd.SessionID)
	page := strings.TrimSpace(cmd.Page)
	categoryID := strings.TrimSpace(cmd.CategoryID)
	if sid == "" || page == "" || categoryID == "" {
		return FilterResult{}, ErrMenuInvalidInput
	}

	catalog, err := s.catalog.Page(page)
	if err != nil {
		return FilterResult{}, fmt.Errorf("%w: %q", ErrMenuPageNotFound, page)
	}

	// Redirect categories navigate away instead of filtering in place. The
	// session's selection on this page is left untouched.
	if target, ok := catalog.Redirects[categoryID]; ok {
		s.logger(ctx, "menu.redirect", map[string]any{
			"category": categoryID,
			"target":   target,
		})
		return FilterResult{
			View:     buildMenuView(catalog, s.selection(sid, page)),
			Redirect: &NavigationRequest{CategoryID: categoryID, Target: target},
		}, nil
	}

	s.setSelection(sid, page, categoryID)
	return FilterResult{View: buildMenuView(catalog, categoryID)}, nil
}

// ShowAll resets the session's filter selection for the page.
func (s *menuService) ShowAll(ctx context.Context, cmd ViewMenuCommand) (MenuView, error) {
	sid := strings.TrimSpace(cmd.SessionID)
	page := strings.TrimSpace(cmd.Page)
	if sid == "" || page == "" {
		return MenuView{}, ErrMenuInvalidInput
	}

	catalog, err := s.catalog.Page(page)
	if err != nil {
		return MenuView{}, fmt.Errorf("%w: %q", ErrMenuPageNotFound, page)
	}

	s.setSelection(sid, page, domain.FilterAll)
	return buildMenuView(catalog, domain.FilterAll), nil
}

func (s *menuService) selection(sessionID, page string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if selection, ok := s.selections[selectionKey(sessionID, page)]; ok {
		return selection
	}
	return domain.FilterAll
}

func (s *menuService) setSelection(sessionID, page, selection string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if selection == domain.FilterAll {
		delete(s.selections, selectionKey(sessionID, page))
		return
	}
	s.selections[selectionKey(sessionID, page)] = selection
}

func selectionKey(sessionID, page string) string {
	return sessionID + "\x00" + page
}

// buildMenuView assembles the filtered item list grouped by category.
// Under an active filter only the selected category's header survives;
// "all" announces every populated category.
func buildMenuView(catalog domain.Catalog, selection string) MenuView {
	populated := make(map[string]bool, len(catalog.Categories))
	for _, item := range catalog.Items {
		if item.Category != "" && !item.IsHeader {
			populated[item.Category] = true
		}
	}

	headers := make([]SectionHeader, 0, len(catalog.Categories))
	for _, category := range catalog.Categories {
		if !populated[category.ID] {
			continue
		}
		if selection != domain.FilterAll && category.ID != selection {
			continue
		}
		headers = append(headers, SectionHeader{
			CategoryID: category.ID,
			Title:      strings.ToUpper(category.Name),
		})
	}

	items := make([]MenuItem, 0, len(catalog.Items))
	for _, item := range catalog.Items {
		if item.IsHeader {
			continue
		}
		if selection == domain.FilterAll || item.Category == selection {
			items = append(items, item)
		}
	}

	groups := make(map[string][]MenuItem)
	for _, item := range items {
		if item.Category == "" {
			continue
		}
		groups[item.Category] = append(groups[item.Category], item)
	}

	// Group order follows the catalog's category order, not item order.
	groupIDs := make([]string, 0, len(groups))
	for _, category := range catalog.Categories {
		if _, ok := groups[category.ID]; ok {
			groupIDs = append(groupIDs, category.ID)
		}
	}

	return MenuView{
		Page:      catalog.Page,
		Selection: selection,
		Headers:   headers,
		Items:     items,
		Groups:    groups,
		GroupIDs:  groupIDs,
	}
}
