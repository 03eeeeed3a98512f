package memory

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/cedarhouse/menu-api/internal/repositories"
)

// CartRepository provides an in-memory key-value backend useful for testing
// and local development. Payloads are copied on the way in and out so callers
// can never alias stored state.
type CartRepository struct {
	mu      sync.Mutex
	records map[string][]byte
}

// NewCartRepository constructs an empty memory-backed cart repository.
func NewCartRepository() *CartRepository {
	return &CartRepository{records: make(map[string][]byte)}
}

// Load implements the CartRepository port.
func (r *CartRepository) Load(_ context.Context, key string) ([]byte, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return nil, &notFoundError{key: key}
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	payload, ok := r.records[key]
	if !ok {
		return nil, &notFoundError{key: key}
	}
	return append([]byte(nil), payload...), nil
}

// Save implements the CartRepository port.
func (r *CartRepository) Save(_ context.Context, key string, payload []byte) error {
	key = strings.TrimSpace(key)
	if key == "" {
		return fmt.Errorf("memory cart repository: key is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.records[key] = append([]byte(nil), payload...)
	return nil
}

// Delete implements the CartRepository port. Deleting an absent key is a no-op.
func (r *CartRepository) Delete(_ context.Context, key string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.records, strings.TrimSpace(key))
	return nil
}

// Close implements the CartRepository port.
func (r *CartRepository) Close(context.Context) error {
	return nil
}

// Len reports the number of stored carts, used by tests.
func (r *CartRepository) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.records)
}

type notFoundError struct {
	key string
}

func (e *notFoundError) Error() string {
	return fmt.Sprintf("memory cart repository: no record for %q", e.key)
}

func (e *notFoundError) IsNotFound() bool    { return true }
func (e *notFoundError) IsConflict() bool    { return false }
func (e *notFoundError) IsUnavailable() bool { return false }

var _ repositories.CartRepository = (*CartRepository)(nil)
var _ repositories.RepositoryError = (*notFoundError)(nil)
