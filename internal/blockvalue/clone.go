package blockvalue

import (
	"encoding/json"

	"github.com/google/uuid"
)

// Clone returns a deep copy. Nested block values are copied too, so the
// result never shares mutable state with v.
func (v *BlockValue) Clone() *BlockValue {
	if v == nil {
		return nil
	}
	out := &BlockValue{
		Editor:        v.Editor,
		Layout:        cloneLayout(v.Layout),
		ContentData:   cloneItems(v.ContentData),
		SettingsData:  cloneItems(v.SettingsData),
		Expose:        CloneExpose(v.Expose),
		SourceVersion: v.SourceVersion,
		ExposeMissing: v.ExposeMissing,
	}
	if len(v.extraLayouts) > 0 {
		out.extraLayouts = make(map[string]json.RawMessage, len(v.extraLayouts))
		for k, raw := range v.extraLayouts {
			out.extraLayouts[k] = append(json.RawMessage(nil), raw...)
		}
	}
	return out
}

func cloneLayout(items []LayoutItem) []LayoutItem {
	if items == nil {
		return []LayoutItem{}
	}
	out := make([]LayoutItem, len(items))
	for i, item := range items {
		out[i] = item.Clone()
	}
	return out
}

// Clone returns a deep copy of the layout item.
func (i LayoutItem) Clone() LayoutItem {
	out := LayoutItem{ContentKey: i.ContentKey}
	if i.SettingsKey != nil {
		key := *i.SettingsKey
		out.SettingsKey = &key
	}
	out.ColumnSpan = cloneInt(i.ColumnSpan)
	out.RowSpan = cloneInt(i.RowSpan)
	if i.Areas != nil {
		out.Areas = make([]LayoutArea, len(i.Areas))
		for a, area := range i.Areas {
			out.Areas[a] = LayoutArea{Key: area.Key, Items: cloneLayout(area.Items)}
		}
	}
	return out
}

func cloneInt(v *int) *int {
	if v == nil {
		return nil
	}
	copied := *v
	return &copied
}

func cloneItems(items []*BlockItemData) []*BlockItemData {
	out := make([]*BlockItemData, 0, len(items))
	for _, item := range items {
		if item == nil {
			continue
		}
		out = append(out, item.Clone())
	}
	return out
}

// Clone returns a deep copy of the item.
func (d *BlockItemData) Clone() *BlockItemData {
	if d == nil {
		return nil
	}
	out := &BlockItemData{
		Key:              d.Key,
		ContentTypeKey:   d.ContentTypeKey,
		ContentTypeAlias: d.ContentTypeAlias,
		Values:           make([]*BlockPropertyValue, 0, len(d.Values)),
	}
	for _, value := range d.Values {
		if value == nil {
			continue
		}
		out.Values = append(out.Values, value.Clone())
	}
	return out
}

// Clone returns a deep copy of the property value.
func (p *BlockPropertyValue) Clone() *BlockPropertyValue {
	if p == nil {
		return nil
	}
	return &BlockPropertyValue{
		Alias:       p.Alias,
		Culture:     cloneString(p.Culture),
		Segment:     cloneString(p.Segment),
		EditorAlias: p.EditorAlias,
		Value:       CloneAny(p.Value),
	}
}

// CloneExpose copies an expose list.
func CloneExpose(entries []BlockItemVariation) []BlockItemVariation {
	out := make([]BlockItemVariation, len(entries))
	for i, entry := range entries {
		out[i] = BlockItemVariation{
			ContentKey: entry.ContentKey,
			Culture:    cloneString(entry.Culture),
			Segment:    cloneString(entry.Segment),
		}
	}
	return out
}

func cloneString(v *string) *string {
	if v == nil {
		return nil
	}
	copied := *v
	return &copied
}

// CloneAny deep copies decoded JSON and typed nested values.
func CloneAny(value any) any {
	switch typed := value.(type) {
	case *BlockValue:
		return typed.Clone()
	case *RichTextValue:
		return typed.Clone()
	case map[string]any:
		out := make(map[string]any, len(typed))
		for k, v := range typed {
			out[k] = CloneAny(v)
		}
		return out
	case []any:
		out := make([]any, len(typed))
		for i, v := range typed {
			out[i] = CloneAny(v)
		}
		return out
	case json.RawMessage:
		return append(json.RawMessage(nil), typed...)
	case []uuid.UUID:
		return append([]uuid.UUID(nil), typed...)
	default:
		return typed
	}
}
