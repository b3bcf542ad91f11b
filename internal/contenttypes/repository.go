package contenttypes

import (
	"context"
	"fmt"

	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Repository persists content types.
type Repository interface {
	Create(ctx context.Context, ct *ContentType) (*ContentType, error)
	Update(ctx context.Context, ct *ContentType) (*ContentType, error)
	GetByID(ctx context.Context, id uuid.UUID) (*ContentType, error)
	GetByAlias(ctx context.Context, alias string) (*ContentType, error)
	List(ctx context.Context) ([]*ContentType, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// NotFoundError is returned when a content type cannot be located.
type NotFoundError struct {
	Resource string
	Key      string
}

func (e *NotFoundError) Error() string {
	if e.Key == "" {
		return fmt.Sprintf("%s not found", e.Resource)
	}
	return fmt.Sprintf("%s %q not found", e.Resource, e.Key)
}

// NewContentTypeRepository builds the go-repository-bun repository.
func NewContentTypeRepository(db *bun.DB) repository.Repository[*ContentType] {
	return repository.MustNewRepository(db, repository.ModelHandlers[*ContentType]{
		NewRecord: func() *ContentType { return &ContentType{} },
		GetID: func(ct *ContentType) uuid.UUID {
			return ct.ID
		},
		SetID: func(ct *ContentType, id uuid.UUID) {
			ct.ID = id
		},
		GetIdentifier: func() string {
			return "alias"
		},
		GetIdentifierValue: func(ct *ContentType) string {
			return ct.Alias
		},
	})
}
