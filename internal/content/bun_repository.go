package content

import (
	"context"
	"fmt"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-repository-bun"
	"github.com/goliatone/go-repository-cache/cache"
	repositorycache "github.com/goliatone/go-repository-cache/repositorycache"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

const cacheNamespace = "document"

// BunRepository implements Repository on bun with optional caching.
type BunRepository struct {
	repo         repository.Repository[*Document]
	cacheService cache.CacheService
}

// NewBunRepository builds an uncached repository.
func NewBunRepository(db *bun.DB) *BunRepository {
	return NewBunRepositoryWithCache(db, nil, nil)
}

// NewBunRepositoryWithCache wraps the base repository with go-repository-cache
// when both collaborators are supplied.
func NewBunRepositoryWithCache(db *bun.DB, cacheService cache.CacheService, serializer cache.KeySerializer) *BunRepository {
	base := NewDocumentRepository(db)
	var svc cache.CacheService
	if cacheService != nil && serializer != nil {
		base = repositorycache.New(base, cacheService, serializer)
		svc = cacheService
	}
	return &BunRepository{repo: base, cacheService: svc}
}

func (r *BunRepository) Create(ctx context.Context, doc *Document) (*Document, error) {
	record, err := r.repo.Create(ctx, doc)
	if err != nil {
		return nil, mapRepositoryError(err, doc.Slug)
	}
	r.invalidate(ctx)
	return record, nil
}

func (r *BunRepository) Update(ctx context.Context, doc *Document) (*Document, error) {
	record, err := r.repo.Update(ctx, doc)
	if err != nil {
		return nil, mapRepositoryError(err, doc.ID.String())
	}
	r.invalidate(ctx)
	return record, nil
}

func (r *BunRepository) GetByID(ctx context.Context, id uuid.UUID) (*Document, error) {
	record, err := r.repo.GetByID(ctx, id.String())
	if err != nil {
		return nil, mapRepositoryError(err, id.String())
	}
	return record, nil
}

func (r *BunRepository) GetBySlug(ctx context.Context, slug string) (*Document, error) {
	record, err := r.repo.GetByIdentifier(ctx, slug)
	if err != nil {
		return nil, mapRepositoryError(err, slug)
	}
	return record, nil
}

func (r *BunRepository) List(ctx context.Context) ([]*Document, error) {
	records, _, err := r.repo.List(ctx,
		repository.SelectRawProcessor(func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.OrderExpr("?TableAlias.slug ASC")
		}),
	)
	if err != nil {
		return nil, mapRepositoryError(err, "")
	}
	return records, nil
}

func (r *BunRepository) Delete(ctx context.Context, id uuid.UUID) error {
	if err := r.repo.Delete(ctx, &Document{ID: id}); err != nil {
		return mapRepositoryError(err, id.String())
	}
	r.invalidate(ctx)
	return nil
}

// invalidate drops cached reads after a write so drafts are never served stale.
func (r *BunRepository) invalidate(ctx context.Context) {
	if r.cacheService == nil {
		return
	}
	_ = r.cacheService.DeleteByPrefix(ctx, cacheNamespace+cache.KeySeparator)
}

func mapRepositoryError(err error, key string) error {
	if err == nil {
		return nil
	}
	if goerrors.IsCategory(err, repository.CategoryDatabaseNotFound) {
		return &NotFoundError{Resource: "document", Key: key}
	}
	return fmt.Errorf("document repository error: %w", err)
}
