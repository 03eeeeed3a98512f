package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"
)

var (
	errDetailCatalogRequired = errors.New("detail service: catalog is required")
	errDetailClockRequired   = errors.New("detail service: clock is required")
)

// ErrDetailInvalidInput indicates the caller supplied invalid input.
var ErrDetailInvalidInput = errors.New("detail service: invalid input")

// ErrDetailNotExpandable indicates the item has no detail view (notes, headers).
var ErrDetailNotExpandable = errors.New("detail service: item is not expandable")

// DetailServiceDeps wires the catalog and timing for the quick-view state.
type DetailServiceDeps struct {
	Catalog pageProvider
	Clock   func() time.Time
	// CollapseCleanup is how long the collapsed card keeps its residual
	// state before it is cleared. Re-expanding within the window cancels
	// the pending cleanup.
	CollapseCleanup time.Duration
	PriceFormatter  func(int64) string
}

type sessionDetail struct {
	view    ExpandedItemView
	open    bool
	cleanup *time.Timer
}

type detailService struct {
	catalog     pageProvider
	now         func() time.Time
	cleanupWait time.Duration
	formatPrice func(int64) string

	mu       sync.Mutex
	sessions map[string]*sessionDetail
}

// NewDetailService constructs a DetailService enforcing dependency validation.
func NewDetailService(deps DetailServiceDeps) (DetailService, error) {
	if deps.Catalog == nil {
		return nil, errDetailCatalogRequired
	}
	if deps.Clock == nil {
		return nil, errDetailClockRequired
	}

	cleanupWait := deps.CollapseCleanup
	if cleanupWait <= 0 {
		cleanupWait = 400 * time.Millisecond
	}

	formatPrice := deps.PriceFormatter
	if formatPrice == nil {
		formatPrice = func(cents int64) string {
			return fmt.Sprintf("$%d.%02d", cents/100, cents%100)
		}
	}

	return &detailService{
		catalog:     deps.Catalog,
		now:         func() time.Time { return deps.Clock().UTC() },
		cleanupWait: cleanupWait,
		formatPrice: formatPrice,
		sessions:    make(map[string]*sessionDetail),
	}, nil
}

// Expand opens the quick view for the item, replacing any currently expanded
// item for the session.
func (s *detailService) Expand(ctx context.Context, cmd ExpandItemCommand) (ExpandedItemView, error) {
	sid := strings.TrimSpace(cmd.SessionID)
	page := strings.TrimSpace(cmd.Page)
	itemID := strings.TrimSpace(cmd.ItemID)
	if sid == "" || page == "" || itemID == "" {
		return ExpandedItemView{}, ErrDetailInvalidInput
	}

	catalog, err := s.catalog.Page(page)
	if err != nil {
		return ExpandedItemView{}, fmt.Errorf("%w: unknown page %q", ErrDetailInvalidInput, page)
	}
	item, ok := catalog.ItemByID(itemID)
	if !ok {
		return ExpandedItemView{}, fmt.Errorf("%w: unknown item %q", ErrDetailInvalidInput, itemID)
	}
	if item.IsNote || item.IsHeader {
		return ExpandedItemView{}, ErrDetailNotExpandable
	}

	view := ExpandedItemView{
		Item:        item,
		SourceRef:   page + "/" + item.ID,
		PriceText:   s.formatPrice(item.PriceCents),
		Ingredients: item.Ingredients,
		ExpandedAt:  s.now(),
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	state, ok := s.sessions[sid]
	if !ok {
		state = &sessionDetail{}
		s.sessions[sid] = state
	}
	// A pending cleanup from an earlier collapse must not clear the new view.
	if state.cleanup != nil {
		state.cleanup.Stop()
		state.cleanup = nil
	}
	state.view = view
	state.open = true

	return view, nil
}

// Collapse closes the session's quick view. Collapsing when nothing is
// expanded is a no-op.
func (s *detailService) Collapse(ctx context.Context, sessionID string) error {
	sid := strings.TrimSpace(sessionID)
	if sid == "" {
		return ErrDetailInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	state, ok := s.sessions[sid]
	if !ok || !state.open {
		return nil
	}
	state.open = false

	if state.cleanup != nil {
		state.cleanup.Stop()
	}
	state.cleanup = time.AfterFunc(s.cleanupWait, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		current, ok := s.sessions[sid]
		if !ok || current.open {
			return
		}
		delete(s.sessions, sid)
	})

	return nil
}

// Current returns the expanded view for the session when one is open.
func (s *detailService) Current(ctx context.Context, sessionID string) (ExpandedItemView, bool) {
	sid := strings.TrimSpace(sessionID)
	if sid == "" {
		return ExpandedItemView{}, false
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	state, ok := s.sessions[sid]
	if !ok || !state.open {
		return ExpandedItemView{}, false
	}
	return state.view, true
}
