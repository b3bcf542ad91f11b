package cultures

import (
	"context"
	"fmt"

	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Repository persists culture rows.
type Repository interface {
	Create(ctx context.Context, culture *Culture) (*Culture, error)
	Update(ctx context.Context, culture *Culture) (*Culture, error)
	GetByCode(ctx context.Context, code string) (*Culture, error)
	List(ctx context.Context) ([]*Culture, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// NotFoundError is returned when a culture cannot be located.
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

// NewCultureRepository builds the go-repository-bun repository for cultures.
func NewCultureRepository(db *bun.DB) repository.Repository[*Culture] {
	return repository.MustNewRepository(db, repository.ModelHandlers[*Culture]{
		NewRecord: func() *Culture { return &Culture{} },
		GetID: func(c *Culture) uuid.UUID {
			return c.ID
		},
		SetID: func(c *Culture, id uuid.UUID) {
			c.ID = id
		},
		GetIdentifier: func() string {
			return "code"
		},
		GetIdentifierValue: func(c *Culture) string {
			return c.Code
		},
	})
}
