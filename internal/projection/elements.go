package projection

import (
	"context"

	"github.com/google/uuid"

	"github.com/goliatone/go-blockeditor/internal/blockvalue"
	"github.com/goliatone/go-blockeditor/internal/metadata"
)

// Element is the render model of one block.
type Element struct {
	Key              uuid.UUID      `json:"key"`
	ContentTypeKey   uuid.UUID      `json:"contentTypeKey"`
	ContentTypeAlias string         `json:"contentTypeAlias"`
	Properties       map[string]any `json:"properties"`
	Settings         *Element       `json:"settings,omitempty"`
	ColumnSpan       *int           `json:"columnSpan,omitempty"`
	RowSpan          *int           `json:"rowSpan,omitempty"`
	Areas            []Area         `json:"areas,omitempty"`
}

// Area is a rendered grid area.
type Area struct {
	Key   uuid.UUID  `json:"key"`
	Items []*Element `json:"items"`
}

// RichText is a rendered rich text value: the stored markup and the visible
// blocks in markup order.
type RichText struct {
	Markup string     `json:"markup"`
	Blocks []*Element `json:"blocks"`
}

// ProjectElements builds the render tree of the visible blocks of value in
// layout order. Nested block properties become []*Element or *RichText.
func (p *Projector) ProjectElements(ctx context.Context, value *blockvalue.BlockValue, meta *metadata.Metadata, req Request) []*Element {
	out := []*Element{}
	if value == nil {
		return out
	}
	return p.layoutElements(ctx, value, value.Layout, meta, req)
}

// ProjectRichText renders a rich text value.
func (p *Projector) ProjectRichText(ctx context.Context, value *blockvalue.RichTextValue, meta *metadata.Metadata, req Request) *RichText {
	out := &RichText{Blocks: []*Element{}}
	if value == nil {
		return out
	}
	out.Markup = value.Markup
	if value.Blocks == nil {
		return out
	}
	for _, key := range blockvalue.PlaceholderKeys(value.Markup) {
		for i := range value.Blocks.Layout {
			item := &value.Blocks.Layout[i]
			if item.ContentKey != key || !visible(value.Blocks, item, meta, req) {
				continue
			}
			out.Blocks = append(out.Blocks, p.element(ctx, value.Blocks, item, meta, req))
			break
		}
	}
	return out
}

func (p *Projector) layoutElements(ctx context.Context, value *blockvalue.BlockValue, items []blockvalue.LayoutItem, meta *metadata.Metadata, req Request) []*Element {
	out := []*Element{}
	for i := range items {
		item := &items[i]
		if !visible(value, item, meta, req) {
			continue
		}
		element := p.element(ctx, value, item, meta, req)
		for _, area := range item.Areas {
			element.Areas = append(element.Areas, Area{
				Key:   area.Key,
				Items: p.layoutElements(ctx, value, area.Items, meta, req),
			})
		}
		out = append(out, element)
	}
	return out
}

func (p *Projector) element(ctx context.Context, value *blockvalue.BlockValue, item *blockvalue.LayoutItem, meta *metadata.Metadata, req Request) *Element {
	element := p.itemElement(ctx, value.ContentByKey(item.ContentKey), meta, req)
	element.ColumnSpan = cloneInt(item.ColumnSpan)
	element.RowSpan = cloneInt(item.RowSpan)
	if item.SettingsKey != nil {
		if settings := value.SettingsByKey(*item.SettingsKey); settings != nil {
			element.Settings = p.itemElement(ctx, settings, meta, req)
		}
	}
	return element
}

func (p *Projector) itemElement(ctx context.Context, item *blockvalue.BlockItemData, meta *metadata.Metadata, req Request) *Element {
	element := &Element{
		Key:              item.Key,
		ContentTypeKey:   item.ContentTypeKey,
		ContentTypeAlias: item.ContentTypeAlias,
		Properties:       map[string]any{},
	}
	if elementType, ok := meta.ElementType(item.ContentTypeKey); ok {
		element.ContentTypeAlias = elementType.Alias
	}
	for _, property := range properties(item, meta, req.Context) {
		stored, ok := propertyValue(item, property.PropertyType, property.effective, req)
		if !ok {
			continue
		}
		nested, isBlocks := blockvalue.Nested(property.EditorAlias, stored.Value, p.contextLogger(ctx))
		if !isBlocks {
			element.Properties[property.Alias] = blockvalue.CloneAny(stored.Value)
			continue
		}
		nestedReq := req
		nestedReq.Context = req.Context.Nested(property.effective)
		blocks, richText := blockvalue.NestedBlocks(nested)
		if richText != nil {
			element.Properties[property.Alias] = p.ProjectRichText(ctx, richText, meta, nestedReq)
			continue
		}
		element.Properties[property.Alias] = p.ProjectElements(ctx, blocks, meta, nestedReq)
	}
	return element
}

func cloneInt(v *int) *int {
	if v == nil {
		return nil
	}
	value := *v
	return &value
}
