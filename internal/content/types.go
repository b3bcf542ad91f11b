package content

import (
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"

	"github.com/goliatone/go-blockeditor/internal/domain"
	"github.com/goliatone/go-blockeditor/internal/variance"
)

// PropertyValue is one stored document property variant. Value is opaque to
// the repositories; block editor properties hold their JSON document.
type PropertyValue struct {
	Alias   string  `json:"alias"`
	Culture *string `json:"culture,omitempty"`
	Segment *string `json:"segment,omitempty"`
	Value   string  `json:"value"`
}

// Document is a content item whose properties may hold block values.
type Document struct {
	bun.BaseModel `bun:"table:block_documents,alias:bd"`

	ID                uuid.UUID       `bun:",pk,type:uuid" json:"id"`
	ContentTypeID     uuid.UUID       `bun:"content_type_id,notnull,type:uuid" json:"content_type_id"`
	Slug              string          `bun:"slug,notnull,unique" json:"slug"`
	Name              string          `bun:"name" json:"name"`
	Status            domain.Status   `bun:"status,notnull,default:'draft'" json:"status"`
	Values            []PropertyValue `bun:"values,type:jsonb" json:"values"`
	Published         []PropertyValue `bun:"published,type:jsonb" json:"published,omitempty"`
	PublishedCultures []string        `bun:"published_cultures,type:jsonb" json:"published_cultures,omitempty"`
	PublishedAt       *time.Time      `bun:"published_at,nullzero" json:"published_at,omitempty"`
	CreatedAt         time.Time       `bun:"created_at,nullzero,default:current_timestamp" json:"created_at"`
	UpdatedAt         time.Time       `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at"`
}

// ValueFor returns the stored value of alias for culture and segment.
func ValueFor(values []PropertyValue, alias string, culture, segment *string) (PropertyValue, bool) {
	for _, value := range values {
		if value.Alias == alias && variance.SameCulture(value.Culture, culture) && variance.SameSegment(value.Segment, segment) {
			return value, true
		}
	}
	return PropertyValue{}, false
}

// IsCulturePublished reports whether culture has a published snapshot.
func (d *Document) IsCulturePublished(culture string) bool {
	for _, code := range d.PublishedCultures {
		if variance.SameCulture(&code, &culture) {
			return true
		}
	}
	return false
}

func cloneValues(values []PropertyValue) []PropertyValue {
	if values == nil {
		return nil
	}
	out := make([]PropertyValue, len(values))
	for i, value := range values {
		out[i] = PropertyValue{
			Alias:   value.Alias,
			Culture: cloneString(value.Culture),
			Segment: cloneString(value.Segment),
			Value:   value.Value,
		}
	}
	return out
}

func cloneString(value *string) *string {
	if value == nil {
		return nil
	}
	copied := *value
	return &copied
}

func cloneTimePtr(value *time.Time) *time.Time {
	if value == nil {
		return nil
	}
	copied := *value
	return &copied
}

func cloneDocument(doc *Document) *Document {
	if doc == nil {
		return nil
	}
	cloned := *doc
	cloned.Values = cloneValues(doc.Values)
	cloned.Published = cloneValues(doc.Published)
	cloned.PublishedCultures = append([]string(nil), doc.PublishedCultures...)
	cloned.PublishedAt = cloneTimePtr(doc.PublishedAt)
	return &cloned
}
