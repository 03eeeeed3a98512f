// Package firestore persists cart payloads in Cloud Firestore, one document
// per browsing session.
package firestore

import (
	"context"
	"errors"
	"strings"
	"time"

	"cloud.google.com/go/firestore"

	"github.com/cedarhouse/menu-api/internal/platform/gcfs"
)

const cartCollection = "carts"

type cartDocument struct {
	Payload   []byte    `firestore:"payload"`
	UpdatedAt time.Time `firestore:"updatedAt"`
}

// CartRepository stores serialized cart snapshots keyed by session id.
type CartRepository struct {
	provider *gcfs.Provider
}

// NewCartRepository constructs a repository backed by the given provider.
func NewCartRepository(provider *gcfs.Provider) (*CartRepository, error) {
	if provider == nil {
		return nil, errors.New("firestore: provider is required")
	}
	return &CartRepository{provider: provider}, nil
}

// Load returns the stored payload for key.
func (r *CartRepository) Load(ctx context.Context, key string) ([]byte, error) {
	docRef, err := r.doc(ctx, key)
	if err != nil {
		return nil, err
	}

	snapshot, err := docRef.Get(ctx)
	if err != nil {
		return nil, gcfs.WrapError("firestore: load cart", err)
	}

	var doc cartDocument
	if err := snapshot.DataTo(&doc); err != nil {
		return nil, gcfs.WrapError("firestore: decode cart", err)
	}
	return doc.Payload, nil
}

// Save upserts the payload for key.
func (r *CartRepository) Save(ctx context.Context, key string, payload []byte) error {
	docRef, err := r.doc(ctx, key)
	if err != nil {
		return err
	}

	doc := cartDocument{
		Payload:   append([]byte(nil), payload...),
		UpdatedAt: time.Now().UTC(),
	}
	if _, err := docRef.Set(ctx, doc); err != nil {
		return gcfs.WrapError("firestore: save cart", err)
	}
	return nil
}

// Delete removes the stored payload for key. Deleting a missing key is not
// an error.
func (r *CartRepository) Delete(ctx context.Context, key string) error {
	docRef, err := r.doc(ctx, key)
	if err != nil {
		return err
	}
	if _, err := docRef.Delete(ctx); err != nil {
		return gcfs.WrapError("firestore: delete cart", err)
	}
	return nil
}

// Close releases the underlying client.
func (r *CartRepository) Close(ctx context.Context) error {
	if r == nil || r.provider == nil {
		return nil
	}
	return r.provider.Close(ctx)
}

func (r *CartRepository) doc(ctx context.Context, key string) (*firestore.DocumentRef, error) {
	trimmed := strings.TrimSpace(key)
	if trimmed == "" {
		return nil, errors.New("firestore: cart key is required")
	}

	client, err := r.provider.Client(ctx)
	if err != nil {
		return nil, err
	}
	return client.Collection(cartCollection).Doc(trimmed), nil
}
