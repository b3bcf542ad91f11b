package contenttypes

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"

	"github.com/goliatone/go-blockeditor/internal/variance"
)

// ContentType describes a document type or, when IsElement is set, an
// element type used by blocks.
type ContentType struct {
	bun.BaseModel `bun:"table:block_content_types,alias:bct"`

	ID         uuid.UUID          `bun:",pk,type:uuid"                                 json:"key"`
	Alias      string             `bun:"alias,notnull,unique"                          json:"alias"`
	Name       string             `bun:"name"                                          json:"name,omitempty"`
	IsElement  bool               `bun:"is_element,notnull,default:false"              json:"isElement"`
	Variation  variance.Variation `bun:"variation,notnull"                             json:"variation"`
	Properties []PropertyType     `bun:"properties,type:jsonb"                         json:"properties"`
	CreatedAt  time.Time          `bun:"created_at,nullzero,default:current_timestamp" json:"createdAt"`
	UpdatedAt  time.Time          `bun:"updated_at,nullzero,default:current_timestamp" json:"updatedAt"`
}

// PropertyType is one property of a content type.
type PropertyType struct {
	Alias       string             `json:"alias"`
	Name        string             `json:"name,omitempty"`
	EditorAlias string             `json:"editorAlias"`
	Variation   variance.Variation `json:"variation"`
	Mandatory   bool               `json:"mandatory,omitempty"`
	Pattern     string             `json:"pattern,omitempty"`
	SortOrder   int                `json:"sortOrder,omitempty"`
}

// Property returns the property with the given alias.
func (ct *ContentType) Property(alias string) (*PropertyType, bool) {
	if ct == nil {
		return nil, false
	}
	alias = strings.TrimSpace(alias)
	for i := range ct.Properties {
		if ct.Properties[i].Alias == alias {
			return &ct.Properties[i], true
		}
	}
	return nil, false
}

func cloneContentType(src *ContentType) *ContentType {
	if src == nil {
		return nil
	}
	copied := *src
	if src.Properties != nil {
		copied.Properties = append([]PropertyType(nil), src.Properties...)
	}
	return &copied
}

// Catalog is a read-only snapshot of content types indexed by id and alias.
type Catalog struct {
	byID    map[uuid.UUID]*ContentType
	byAlias map[string]*ContentType
}

// NewCatalog indexes the given content types. Later entries win on conflict.
func NewCatalog(types ...*ContentType) *Catalog {
	catalog := &Catalog{
		byID:    make(map[uuid.UUID]*ContentType, len(types)),
		byAlias: make(map[string]*ContentType, len(types)),
	}
	for _, ct := range types {
		if ct == nil {
			continue
		}
		cloned := cloneContentType(ct)
		catalog.byID[cloned.ID] = cloned
		catalog.byAlias[strings.ToLower(cloned.Alias)] = cloned
	}
	return catalog
}

// ByID returns the content type with the given key.
func (c *Catalog) ByID(id uuid.UUID) (*ContentType, bool) {
	if c == nil {
		return nil, false
	}
	ct, ok := c.byID[id]
	return ct, ok
}

// ByAlias returns the content type with the given alias.
func (c *Catalog) ByAlias(alias string) (*ContentType, bool) {
	if c == nil {
		return nil, false
	}
	ct, ok := c.byAlias[strings.ToLower(strings.TrimSpace(alias))]
	return ct, ok
}

// Len returns the number of indexed types.
func (c *Catalog) Len() int {
	if c == nil {
		return 0
	}
	return len(c.byID)
}
