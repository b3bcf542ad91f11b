package contenttypes

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

const cacheNamespace = "content_type"

// BunRepository implements Repository on bun with optional caching.
type BunRepository struct {
	repo         repository.Repository[*ContentType]
	cacheService cache.CacheService
}

// NewBunRepository builds an uncached repository.
func NewBunRepository(db *bun.DB) *BunRepository {
	return NewBunRepositoryWithCache(db, nil, nil)
}

// NewBunRepositoryWithCache wraps the base repository with go-repository-cache
// when both collaborators are supplied.
func NewBunRepositoryWithCache(db *bun.DB, cacheService cache.CacheService, serializer cache.KeySerializer) *BunRepository {
	base := NewContentTypeRepository(db)
	var svc cache.CacheService
	if cacheService != nil && serializer != nil {
		base = repositorycache.New(base, cacheService, serializer)
		svc = cacheService
	}
	return &BunRepository{repo: base, cacheService: svc}
}

func (r *BunRepository) Create(ctx context.Context, ct *ContentType) (*ContentType, error) {
	return r.repo.Create(ctx, ct)
}

func (r *BunRepository) Update(ctx context.Context, ct *ContentType) (*ContentType, error) {
	record, err := r.repo.Update(ctx, ct)
	if err != nil {
		return nil, mapRepositoryError(err, ct.ID.String())
	}
	return record, nil
}

func (r *BunRepository) GetByID(ctx context.Context, id uuid.UUID) (*ContentType, error) {
	record, err := r.repo.GetByID(ctx, id.String())
	if err != nil {
		return nil, mapRepositoryError(err, id.String())
	}
	return record, nil
}

func (r *BunRepository) GetByAlias(ctx context.Context, alias string) (*ContentType, error) {
	record, err := r.repo.GetByIdentifier(ctx, alias)
	if err != nil {
		return nil, mapRepositoryError(err, alias)
	}
	return record, nil
}

func (r *BunRepository) List(ctx context.Context) ([]*ContentType, error) {
	records, _, err := r.repo.List(ctx,
		repository.SelectRawProcessor(func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.OrderExpr("?TableAlias.alias ASC")
		}),
	)
	return records, err
}

func (r *BunRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.repo.Delete(ctx, &ContentType{ID: id})
}

// InvalidateCache drops cached content type reads.
func (r *BunRepository) InvalidateCache(ctx context.Context) error {
	if r.cacheService == nil {
		return nil
	}
	return r.cacheService.DeleteByPrefix(ctx, cacheNamespace+cache.KeySeparator)
}

func mapRepositoryError(err error, key string) error {
	if err == nil {
		return nil
	}
	if goerrors.IsCategory(err, repository.CategoryDatabaseNotFound) {
		return &NotFoundError{Resource: "content_type", Key: key}
	}
	return fmt.Errorf("content type repository error: %w", err)
}
