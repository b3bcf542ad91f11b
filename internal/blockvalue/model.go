package blockvalue

import (
	"encoding/json"
	"strings"

	"github.com/google/uuid"
)

// EditorAlias identifies a block editor family.
type EditorAlias string

const (
	BlockList   EditorAlias = "Umbraco.BlockList"
	BlockGrid   EditorAlias = "Umbraco.BlockGrid"
	SingleBlock EditorAlias = "Umbraco.SingleBlock"
	RichText    EditorAlias = "Umbraco.RichText"
)

// legacyRichTextLayout is the layout key older rich text values were stored under.
const legacyRichTextLayout = "Umbraco.TinyMCE"

// ParseEditorAlias maps a property editor alias to a block family. The
// second result is false for editors that do not store block values.
func ParseEditorAlias(alias string) (EditorAlias, bool) {
	switch strings.TrimSpace(alias) {
	case string(BlockList):
		return BlockList, true
	case string(BlockGrid):
		return BlockGrid, true
	case string(SingleBlock):
		return SingleBlock, true
	case string(RichText), legacyRichTextLayout:
		return RichText, true
	default:
		return "", false
	}
}

// IsBlockEditor reports whether alias stores a BlockValue or RichTextValue.
func IsBlockEditor(alias string) bool {
	_, ok := ParseEditorAlias(alias)
	return ok
}

func (e EditorAlias) String() string { return string(e) }

// SupportsAreas reports whether layout items may carry spans and areas.
func (e EditorAlias) SupportsAreas() bool { return e == BlockGrid }

// SchemaVersion identifies the persisted format a value was read from.
type SchemaVersion int

const (
	// VersionCurrent is the format written by Marshal.
	VersionCurrent SchemaVersion = 2
	// VersionLegacy marks udi based values without expose data.
	VersionLegacy SchemaVersion = 1
)

// BlockValue is the content of one block editor property variant.
type BlockValue struct {
	Editor       EditorAlias
	Layout       []LayoutItem
	ContentData  []*BlockItemData
	SettingsData []*BlockItemData
	Expose       []BlockItemVariation

	// SourceVersion records the format the value was parsed from.
	SourceVersion SchemaVersion
	// ExposeMissing is set when the parsed document carried no expose list.
	ExposeMissing bool

	extraLayouts map[string]json.RawMessage
}

// LayoutItem references a content item and optionally its settings.
type LayoutItem struct {
	ContentKey  uuid.UUID
	SettingsKey *uuid.UUID
	ColumnSpan  *int
	RowSpan     *int
	Areas       []LayoutArea
}

// LayoutArea is a named grid area holding nested layout items.
type LayoutArea struct {
	Key   uuid.UUID
	Items []LayoutItem
}

// BlockItemData is one content or settings element.
type BlockItemData struct {
	Key              uuid.UUID
	ContentTypeKey   uuid.UUID
	ContentTypeAlias string
	Values           []*BlockPropertyValue
}

// BlockPropertyValue is one stored property value. Culture and Segment are
// nil when the value does not vary by them.
type BlockPropertyValue struct {
	Alias       string
	Culture     *string
	Segment     *string
	EditorAlias string
	Value       any
}

// BlockItemVariation records that a content item is exposed under a culture
// and segment.
type BlockItemVariation struct {
	ContentKey uuid.UUID
	Culture    *string
	Segment    *string
}

// New returns an empty value for editor.
func New(editor EditorAlias) *BlockValue {
	return &BlockValue{
		Editor:        editor,
		Layout:        []LayoutItem{},
		ContentData:   []*BlockItemData{},
		SettingsData:  []*BlockItemData{},
		Expose:        []BlockItemVariation{},
		SourceVersion: VersionCurrent,
	}
}

// IsEmpty reports whether the value holds no layout and no data.
func (v *BlockValue) IsEmpty() bool {
	return v == nil || (len(v.Layout) == 0 && len(v.ContentData) == 0 && len(v.SettingsData) == 0)
}

// ContentByKey returns the content item with key.
func (v *BlockValue) ContentByKey(key uuid.UUID) *BlockItemData {
	if v == nil {
		return nil
	}
	return findItem(v.ContentData, key)
}

// SettingsByKey returns the settings item with key.
func (v *BlockValue) SettingsByKey(key uuid.UUID) *BlockItemData {
	if v == nil {
		return nil
	}
	return findItem(v.SettingsData, key)
}

// ContentIndex returns the position of key in ContentData or -1.
func (v *BlockValue) ContentIndex(key uuid.UUID) int {
	if v == nil {
		return -1
	}
	for i, item := range v.ContentData {
		if item != nil && item.Key == key {
			return i
		}
	}
	return -1
}

func findItem(items []*BlockItemData, key uuid.UUID) *BlockItemData {
	for _, item := range items {
		if item != nil && item.Key == key {
			return item
		}
	}
	return nil
}

// WalkLayout visits layout items depth first in document order: an item is
// visited before the items of its areas.
func (v *BlockValue) WalkLayout(fn func(item *LayoutItem, depth int) bool) {
	if v == nil {
		return
	}
	walkItems(v.Layout, 0, fn)
}

func walkItems(items []LayoutItem, depth int, fn func(*LayoutItem, int) bool) bool {
	for i := range items {
		if !fn(&items[i], depth) {
			return false
		}
		for a := range items[i].Areas {
			if !walkItems(items[i].Areas[a].Items, depth+1, fn) {
				return false
			}
		}
	}
	return true
}

// LayoutKeys returns every content key referenced by the layout in
// document order.
func (v *BlockValue) LayoutKeys() []uuid.UUID {
	var keys []uuid.UUID
	v.WalkLayout(func(item *LayoutItem, _ int) bool {
		keys = append(keys, item.ContentKey)
		return true
	})
	return keys
}

// LayoutKeySet returns the layout content keys as a set.
func (v *BlockValue) LayoutKeySet() map[uuid.UUID]struct{} {
	set := map[uuid.UUID]struct{}{}
	v.WalkLayout(func(item *LayoutItem, _ int) bool {
		set[item.ContentKey] = struct{}{}
		return true
	})
	return set
}

// ExposeFor returns the expose entries of key.
func (v *BlockValue) ExposeFor(key uuid.UUID) []BlockItemVariation {
	if v == nil {
		return nil
	}
	var out []BlockItemVariation
	for _, entry := range v.Expose {
		if entry.ContentKey == key {
			out = append(out, entry)
		}
	}
	return out
}

// ValuesFor returns the stored values for alias in stored order.
func (d *BlockItemData) ValuesFor(alias string) []*BlockPropertyValue {
	if d == nil {
		return nil
	}
	var out []*BlockPropertyValue
	for _, value := range d.Values {
		if value != nil && value.Alias == alias {
			out = append(out, value)
		}
	}
	return out
}

// Aliases returns the distinct property aliases in first-seen order.
func (d *BlockItemData) Aliases() []string {
	if d == nil {
		return nil
	}
	seen := map[string]struct{}{}
	var out []string
	for _, value := range d.Values {
		if value == nil {
			continue
		}
		if _, ok := seen[value.Alias]; ok {
			continue
		}
		seen[value.Alias] = struct{}{}
		out = append(out, value.Alias)
	}
	return out
}
