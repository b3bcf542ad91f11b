package metadata

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/goliatone/go-blockeditor/internal/contenttypes"
	"github.com/goliatone/go-blockeditor/internal/cultures"
	"github.com/goliatone/go-blockeditor/pkg/interfaces"
)

// ErrProviderUnavailable is returned when a Provider lacks a collaborator.
var ErrProviderUnavailable = errors.New("metadata: provider unavailable")

// Metadata is the read-only view of element types and cultures that every
// block algorithm receives. It is built once per operation.
type Metadata struct {
	types    *contenttypes.Catalog
	cultures cultures.Set
}

// New builds a Metadata snapshot.
func New(types *contenttypes.Catalog, set cultures.Set) *Metadata {
	if types == nil {
		types = contenttypes.NewCatalog()
	}
	return &Metadata{types: types, cultures: set}
}

// ElementType returns the type stored under key.
func (m *Metadata) ElementType(key uuid.UUID) (*contenttypes.ContentType, bool) {
	if m == nil {
		return nil, false
	}
	return m.types.ByID(key)
}

// ElementTypeByAlias returns the type with alias.
func (m *Metadata) ElementTypeByAlias(alias string) (*contenttypes.ContentType, bool) {
	if m == nil {
		return nil, false
	}
	return m.types.ByAlias(alias)
}

// ContentType is an alias of ElementType for document types.
func (m *Metadata) ContentType(key uuid.UUID) (*contenttypes.ContentType, bool) {
	return m.ElementType(key)
}

// DefaultCulture returns the configured default culture or "".
func (m *Metadata) DefaultCulture() string {
	if m == nil {
		return ""
	}
	return m.cultures.Default()
}

// Cultures returns the configured cultures in order.
func (m *Metadata) Cultures() []string {
	if m == nil {
		return nil
	}
	return m.cultures.Codes()
}

// IsCulture reports whether code is configured.
func (m *Metadata) IsCulture(code string) bool {
	if m == nil {
		return false
	}
	return m.cultures.Contains(code)
}

// NormalizeCulture returns the configured casing of code.
func (m *Metadata) NormalizeCulture(code string) (string, bool) {
	if m == nil {
		return "", false
	}
	return m.cultures.Normalize(code)
}

// CultureSet exposes the underlying set.
func (m *Metadata) CultureSet() cultures.Set {
	if m == nil {
		return cultures.Set{}
	}
	return m.cultures
}

// CatalogSource supplies content type snapshots.
type CatalogSource interface {
	Catalog(ctx context.Context) (*contenttypes.Catalog, error)
}

// Provider builds Metadata snapshots from live collaborators.
type Provider struct {
	types    CatalogSource
	registry interfaces.CultureRegistry
}

// NewProvider constructs a Provider.
func NewProvider(types CatalogSource, registry interfaces.CultureRegistry) *Provider {
	return &Provider{types: types, registry: registry}
}

// Snapshot reads the current catalog and cultures.
func (p *Provider) Snapshot(ctx context.Context) (*Metadata, error) {
	if p == nil || p.types == nil || p.registry == nil {
		return nil, ErrProviderUnavailable
	}
	catalog, err := p.types.Catalog(ctx)
	if err != nil {
		return nil, err
	}
	set, err := cultures.Resolve(ctx, p.registry)
	if err != nil {
		return nil, err
	}
	return New(catalog, set), nil
}
