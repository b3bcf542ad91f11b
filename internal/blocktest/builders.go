// Package blocktest holds builders shared by the block package tests.
package blocktest

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/goliatone/go-blockeditor/internal/blockvalue"
	"github.com/goliatone/go-blockeditor/internal/contenttypes"
	"github.com/goliatone/go-blockeditor/internal/cultures"
	"github.com/goliatone/go-blockeditor/internal/identity"
	"github.com/goliatone/go-blockeditor/internal/metadata"
	"github.com/goliatone/go-blockeditor/internal/variance"
)

// Key returns a stable content key for n.
func Key(n int) uuid.UUID {
	return uuid.MustParse(fmt.Sprintf("00000000-0000-4000-8000-%012d", n))
}

// Prop builds a property type.
func Prop(alias, editor string, v variance.Variation) contenttypes.PropertyType {
	if editor == "" {
		editor = "Umbraco.TextBox"
	}
	return contenttypes.PropertyType{Alias: alias, EditorAlias: editor, Variation: v}
}

// Mandatory marks a property type as required.
func Mandatory(p contenttypes.PropertyType) contenttypes.PropertyType {
	p.Mandatory = true
	return p
}

// Element builds an element type with a deterministic id.
func Element(alias string, v variance.Variation, props ...contenttypes.PropertyType) *contenttypes.ContentType {
	for i := range props {
		props[i].SortOrder = i
	}
	return &contenttypes.ContentType{
		ID:         identity.ContentTypeUUID(alias),
		Alias:      alias,
		IsElement:  true,
		Variation:  v,
		Properties: props,
	}
}

// Meta builds a metadata snapshot.
func Meta(types []*contenttypes.ContentType, codes []string, def string) *metadata.Metadata {
	return metadata.New(contenttypes.NewCatalog(types...), cultures.NewSet(codes, def))
}

// Val builds a property value; blank culture or segment means nil.
func Val(alias, culture, segment string, value any) *blockvalue.BlockPropertyValue {
	return &blockvalue.BlockPropertyValue{
		Alias:   alias,
		Culture: variance.Ptr(culture),
		Segment: variance.Ptr(segment),
		Value:   value,
	}
}

// Item builds a content item of element type ct.
func Item(key uuid.UUID, ct *contenttypes.ContentType, values ...*blockvalue.BlockPropertyValue) *blockvalue.BlockItemData {
	return &blockvalue.BlockItemData{
		Key:              key,
		ContentTypeKey:   ct.ID,
		ContentTypeAlias: ct.Alias,
		Values:           values,
	}
}

// Expose builds an expose entry.
func Expose(key uuid.UUID, culture, segment string) blockvalue.BlockItemVariation {
	return blockvalue.BlockItemVariation{
		ContentKey: key,
		Culture:    variance.Ptr(culture),
		Segment:    variance.Ptr(segment),
	}
}

// Layout builds flat layout items.
func Layout(keys ...uuid.UUID) []blockvalue.LayoutItem {
	out := make([]blockvalue.LayoutItem, 0, len(keys))
	for _, key := range keys {
		out = append(out, blockvalue.LayoutItem{ContentKey: key})
	}
	return out
}

// GridItem builds a grid layout item with a single area.
func GridItem(key, area uuid.UUID, children ...uuid.UUID) blockvalue.LayoutItem {
	span := 12
	item := blockvalue.LayoutItem{ContentKey: key, ColumnSpan: &span}
	if area != uuid.Nil {
		item.Areas = []blockvalue.LayoutArea{{Key: area, Items: Layout(children...)}}
	}
	return item
}

// Value assembles a block value.
func Value(editor blockvalue.EditorAlias, layout []blockvalue.LayoutItem, content []*blockvalue.BlockItemData, expose ...blockvalue.BlockItemVariation) *blockvalue.BlockValue {
	v := blockvalue.New(editor)
	v.Layout = layout
	v.ContentData = content
	v.Expose = append(v.Expose, expose...)
	return v
}

// StringValue returns the string stored for alias under culture/segment.
func StringValue(item *blockvalue.BlockItemData, alias, culture, segment string) (string, bool) {
	for _, value := range item.ValuesFor(alias) {
		if variance.SameCulture(value.Culture, variance.Ptr(culture)) && variance.SameSegment(value.Segment, variance.Ptr(segment)) {
			s, ok := value.Value.(string)
			return s, ok
		}
	}
	return "", false
}
