package blockvalue

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/goliatone/go-blockeditor/internal/logging"
	"github.com/goliatone/go-blockeditor/internal/variance"
	"github.com/goliatone/go-blockeditor/pkg/interfaces"
)

// ErrMalformed wraps every decoding failure.
var ErrMalformed = errors.New("blockvalue: malformed value")

const udiPrefix = "umb://"

// Decoder parses persisted block values.
type Decoder struct {
	logger interfaces.Logger
	strict bool
}

// NewDecoder returns a lenient decoder: items with invalid keys are dropped
// and logged instead of failing the whole value.
func NewDecoder(logger interfaces.Logger) *Decoder {
	return &Decoder{logger: logging.OrNoOp(logger)}
}

// Parse decodes data strictly. Any invalid key fails the whole value.
func Parse(data []byte, editor EditorAlias) (*BlockValue, error) {
	return strictDecoder().Decode(data, editor)
}

// ParseLenient never fails: malformed documents produce an empty value and a
// warning.
func ParseLenient(data []byte, editor EditorAlias, logger interfaces.Logger) *BlockValue {
	return NewDecoder(logger).DecodeLenient(data, editor)
}

// DecodeLenient decodes data and falls back to an empty value on error.
func (d *Decoder) DecodeLenient(data []byte, editor EditorAlias) *BlockValue {
	value, err := d.Decode(data, editor)
	if err != nil {
		d.logger.Warn("blockvalue.parse.malformed", "editor", string(editor), "error", err)
		return New(editor)
	}
	return value
}

// Decode parses data. Blank input and JSON null produce an empty value. When
// editor is empty the family is detected from the layout keys.
func (d *Decoder) Decode(data []byte, editor EditorAlias) (*BlockValue, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return New(editor), nil
	}
	if trimmed[0] == '"' {
		var inner string
		if err := json.Unmarshal(trimmed, &inner); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
		}
		return d.Decode([]byte(inner), editor)
	}
	if err := CheckEnvelope(trimmed, BlockList); err != nil {
		return nil, err
	}

	var wire wireValue
	if err := json.Unmarshal(trimmed, &wire); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	if editor == "" {
		editor = detectEditor(wire.Layout)
	}
	value := New(editor)

	legacy := false
	for _, key := range layoutKeys(wire.Layout) {
		raw := wire.Layout[key]
		family, known := ParseEditorAlias(key)
		if !known || family != editor {
			if value.extraLayouts == nil {
				value.extraLayouts = map[string]json.RawMessage{}
			}
			value.extraLayouts[key] = append(json.RawMessage(nil), raw...)
			continue
		}
		items, isLegacy, err := d.decodeLayout(raw)
		if err != nil {
			return nil, err
		}
		legacy = legacy || isLegacy
		value.Layout = append(value.Layout, items...)
	}
	if editor == SingleBlock && len(value.Layout) > 1 {
		d.logger.Warn("blockvalue.single_block.truncated", "items", len(value.Layout))
		value.Layout = value.Layout[:1]
	}

	content, contentLegacy, err := d.decodeItems(wire.ContentData)
	if err != nil {
		return nil, err
	}
	settings, settingsLegacy, err := d.decodeItems(wire.SettingsData)
	if err != nil {
		return nil, err
	}
	value.ContentData = content
	value.SettingsData = settings
	legacy = legacy || contentLegacy || settingsLegacy

	if wire.Expose == nil || bytes.Equal(bytes.TrimSpace(wire.Expose), []byte("null")) {
		value.ExposeMissing = true
		for _, key := range value.LayoutKeys() {
			value.Expose = append(value.Expose, BlockItemVariation{ContentKey: key})
		}
	} else {
		entries, err := d.decodeExpose(wire.Expose)
		if err != nil {
			return nil, err
		}
		value.Expose = entries
	}

	if legacy {
		value.SourceVersion = VersionLegacy
	}
	return value, nil
}

// layoutKeys orders layout keys so a family's current alias is read before
// its legacy alias.
func layoutKeys(layout map[string]json.RawMessage) []string {
	keys := make([]string, 0, len(layout))
	for key := range layout {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool {
		ri, rj := layoutRank(keys[i]), layoutRank(keys[j])
		if ri != rj {
			return ri < rj
		}
		return keys[i] < keys[j]
	})
	return keys
}

func layoutRank(key string) int {
	if key == legacyRichTextLayout {
		return 1
	}
	return 0
}

func detectEditor(layout map[string]json.RawMessage) EditorAlias {
	for _, candidate := range []EditorAlias{BlockGrid, BlockList, SingleBlock, RichText} {
		if _, ok := layout[string(candidate)]; ok {
			return candidate
		}
	}
	if _, ok := layout[legacyRichTextLayout]; ok {
		return RichText
	}
	return BlockList
}

func (d *Decoder) decodeLayout(raw json.RawMessage) ([]LayoutItem, bool, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil, false, nil
	}
	var wireItems []wireLayoutItem
	if trimmed[0] == '{' {
		var single wireLayoutItem
		if err := json.Unmarshal(trimmed, &single); err != nil {
			return nil, false, fmt.Errorf("%w: layout: %v", ErrMalformed, err)
		}
		wireItems = []wireLayoutItem{single}
	} else if err := json.Unmarshal(trimmed, &wireItems); err != nil {
		return nil, false, fmt.Errorf("%w: layout: %v", ErrMalformed, err)
	}
	return d.convertLayout(wireItems)
}

func (d *Decoder) convertLayout(wireItems []wireLayoutItem) ([]LayoutItem, bool, error) {
	items := make([]LayoutItem, 0, len(wireItems))
	legacy := false
	for _, wi := range wireItems {
		rawKey := wi.ContentKey
		if rawKey == "" && wi.ContentUdi != "" {
			rawKey = wi.ContentUdi
			legacy = true
		}
		key, err := ParseKey(rawKey)
		if err != nil {
			if d.strict {
				return nil, false, fmt.Errorf("%w: layout content key: %v", ErrMalformed, err)
			}
			d.logger.Warn("blockvalue.layout.invalid_key", "key", rawKey, "error", err)
			continue
		}
		item := LayoutItem{ContentKey: key, ColumnSpan: wi.ColumnSpan, RowSpan: wi.RowSpan}

		rawSettings := wi.SettingsKey
		if rawSettings == "" && wi.SettingsUdi != "" {
			rawSettings = wi.SettingsUdi
			legacy = true
		}
		if rawSettings != "" {
			settingsKey, err := ParseKey(rawSettings)
			if err != nil {
				if d.strict {
					return nil, false, fmt.Errorf("%w: layout settings key: %v", ErrMalformed, err)
				}
				d.logger.Warn("blockvalue.layout.invalid_settings_key", "key", rawSettings, "error", err)
			} else {
				item.SettingsKey = &settingsKey
			}
		}

		for _, wa := range wi.Areas {
			areaKey, err := ParseKey(wa.Key)
			if err != nil {
				if d.strict {
					return nil, false, fmt.Errorf("%w: area key: %v", ErrMalformed, err)
				}
				d.logger.Warn("blockvalue.layout.invalid_area_key", "key", wa.Key, "error", err)
				continue
			}
			children, childLegacy, err := d.convertLayout(wa.Items)
			if err != nil {
				return nil, false, err
			}
			legacy = legacy || childLegacy
			item.Areas = append(item.Areas, LayoutArea{Key: areaKey, Items: children})
		}
		items = append(items, item)
	}
	return items, legacy, nil
}

func (d *Decoder) decodeItems(raws []json.RawMessage) ([]*BlockItemData, bool, error) {
	items := make([]*BlockItemData, 0, len(raws))
	legacy := false
	for _, raw := range raws {
		item, isLegacy, err := d.decodeItem(raw)
		if err != nil {
			if d.strict {
				return nil, false, err
			}
			d.logger.Warn("blockvalue.item.dropped", "error", err)
			continue
		}
		legacy = legacy || isLegacy
		items = append(items, item)
	}
	return items, legacy, nil
}

var reservedItemKeys = map[string]struct{}{
	"key":              {},
	"udi":              {},
	"contentTypeKey":   {},
	"contentTypeAlias": {},
	"values":           {},
}

func (d *Decoder) decodeItem(raw json.RawMessage) (*BlockItemData, bool, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, false, fmt.Errorf("%w: item: %v", ErrMalformed, err)
	}

	legacy := false
	rawKey := unquote(fields["key"])
	if rawKey == "" {
		rawKey = unquote(fields["udi"])
		legacy = rawKey != ""
	}
	key, err := ParseKey(rawKey)
	if err != nil {
		return nil, false, fmt.Errorf("%w: item key: %v", ErrMalformed, err)
	}
	typeKey, err := ParseKey(unquote(fields["contentTypeKey"]))
	if err != nil {
		return nil, false, fmt.Errorf("%w: item %s content type key: %v", ErrMalformed, key, err)
	}
	item := &BlockItemData{
		Key:              key,
		ContentTypeKey:   typeKey,
		ContentTypeAlias: unquote(fields["contentTypeAlias"]),
		Values:           []*BlockPropertyValue{},
	}

	if rawValues, ok := fields["values"]; ok {
		var wireValues []wirePropertyValue
		if err := decodeNumbers(rawValues, &wireValues); err != nil {
			return nil, false, fmt.Errorf("%w: item %s values: %v", ErrMalformed, key, err)
		}
		for _, wv := range wireValues {
			alias := strings.TrimSpace(wv.Alias)
			if alias == "" {
				continue
			}
			item.Values = append(item.Values, &BlockPropertyValue{
				Alias:       alias,
				Culture:     variance.Ptr(variance.Deref(wv.Culture)),
				Segment:     variance.Ptr(variance.Deref(wv.Segment)),
				EditorAlias: wv.EditorAlias,
				Value:       wv.Value,
			})
		}
		return item, legacy, nil
	}

	aliases := make([]string, 0, len(fields))
	for alias := range fields {
		if _, reserved := reservedItemKeys[alias]; reserved {
			continue
		}
		aliases = append(aliases, alias)
	}
	sort.Strings(aliases)
	for _, alias := range aliases {
		var decoded any
		if err := decodeNumbers(fields[alias], &decoded); err != nil {
			return nil, false, fmt.Errorf("%w: item %s property %s: %v", ErrMalformed, key, alias, err)
		}
		item.Values = append(item.Values, &BlockPropertyValue{Alias: alias, Value: decoded})
	}
	return item, true, nil
}

func (d *Decoder) decodeExpose(raw json.RawMessage) ([]BlockItemVariation, error) {
	var wireEntries []wireExpose
	if err := json.Unmarshal(raw, &wireEntries); err != nil {
		return nil, fmt.Errorf("%w: expose: %v", ErrMalformed, err)
	}
	entries := make([]BlockItemVariation, 0, len(wireEntries))
	for _, we := range wireEntries {
		key, err := ParseKey(we.ContentKey)
		if err != nil {
			if d.strict {
				return nil, fmt.Errorf("%w: expose key: %v", ErrMalformed, err)
			}
			d.logger.Warn("blockvalue.expose.invalid_key", "key", we.ContentKey, "error", err)
			continue
		}
		entries = append(entries, BlockItemVariation{
			ContentKey: key,
			Culture:    variance.Ptr(variance.Deref(we.Culture)),
			Segment:    variance.Ptr(variance.Deref(we.Segment)),
		})
	}
	return entries, nil
}

// ParseKey accepts a GUID in any form google/uuid understands or a legacy
// udi such as "umb://element/1b2c...".
func ParseKey(raw string) (uuid.UUID, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return uuid.Nil, errors.New("empty key")
	}
	if strings.HasPrefix(strings.ToLower(trimmed), udiPrefix) {
		idx := strings.LastIndex(trimmed, "/")
		trimmed = trimmed[idx+1:]
	}
	key, err := uuid.Parse(trimmed)
	if err != nil {
		return uuid.Nil, err
	}
	if key == uuid.Nil {
		return uuid.Nil, errors.New("nil key")
	}
	return key, nil
}

func unquote(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var out string
	if err := json.Unmarshal(raw, &out); err != nil {
		return ""
	}
	return out
}

func decodeNumbers(raw json.RawMessage, target any) error {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	return dec.Decode(target)
}

// MarshalJSON writes the current persisted format.
func (v *BlockValue) MarshalJSON() ([]byte, error) {
	if v == nil {
		return []byte("null"), nil
	}
	editor := v.Editor
	if editor == "" {
		editor = BlockList
	}

	layout := make(map[string]any, 1+len(v.extraLayouts))
	for key, raw := range v.extraLayouts {
		layout[key] = raw
	}
	layout[string(editor)] = encodeLayout(v.Layout)

	out := wireValueOut{
		Layout:       layout,
		ContentData:  encodeItems(v.ContentData),
		SettingsData: encodeItems(v.SettingsData),
		Expose:       make([]wireExpose, 0, len(v.Expose)),
	}
	for _, entry := range v.Expose {
		out.Expose = append(out.Expose, wireExpose{
			ContentKey: entry.ContentKey.String(),
			Culture:    entry.Culture,
			Segment:    entry.Segment,
		})
	}
	return json.Marshal(out)
}

// UnmarshalJSON decodes strictly, keeping Editor when already set.
func (v *BlockValue) UnmarshalJSON(data []byte) error {
	parsed, err := Parse(data, v.Editor)
	if err != nil {
		return err
	}
	*v = *parsed
	return nil
}

// Marshal encodes v, returning "" for nil.
func Marshal(v *BlockValue) (string, error) {
	if v == nil {
		return "", nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func encodeLayout(items []LayoutItem) []wireLayoutItem {
	out := make([]wireLayoutItem, 0, len(items))
	for _, item := range items {
		wi := wireLayoutItem{
			ContentKey: item.ContentKey.String(),
			ColumnSpan: item.ColumnSpan,
			RowSpan:    item.RowSpan,
		}
		if item.SettingsKey != nil {
			wi.SettingsKey = item.SettingsKey.String()
		}
		for _, area := range item.Areas {
			wi.Areas = append(wi.Areas, wireLayoutArea{
				Key:   area.Key.String(),
				Items: encodeLayout(area.Items),
			})
		}
		out = append(out, wi)
	}
	return out
}

func encodeItems(items []*BlockItemData) []wireItemOut {
	out := make([]wireItemOut, 0, len(items))
	for _, item := range items {
		if item == nil {
			continue
		}
		wi := wireItemOut{
			Key:              item.Key.String(),
			ContentTypeKey:   item.ContentTypeKey.String(),
			ContentTypeAlias: item.ContentTypeAlias,
			Values:           make([]wirePropertyValue, 0, len(item.Values)),
		}
		for _, value := range item.Values {
			if value == nil {
				continue
			}
			wi.Values = append(wi.Values, wirePropertyValue{
				Alias:       value.Alias,
				Culture:     value.Culture,
				Segment:     value.Segment,
				EditorAlias: value.EditorAlias,
				Value:       value.Value,
			})
		}
		out = append(out, wi)
	}
	return out
}

type wireValue struct {
	Layout       map[string]json.RawMessage `json:"layout"`
	ContentData  []json.RawMessage          `json:"contentData"`
	SettingsData []json.RawMessage          `json:"settingsData"`
	Expose       json.RawMessage            `json:"expose"`
}

type wireValueOut struct {
	Layout       map[string]any `json:"layout"`
	ContentData  []wireItemOut  `json:"contentData"`
	SettingsData []wireItemOut  `json:"settingsData"`
	Expose       []wireExpose   `json:"expose"`
}

type wireLayoutItem struct {
	ContentKey  string           `json:"contentKey,omitempty"`
	ContentUdi  string           `json:"contentUdi,omitempty"`
	SettingsKey string           `json:"settingsKey,omitempty"`
	SettingsUdi string           `json:"settingsUdi,omitempty"`
	ColumnSpan  *int             `json:"columnSpan,omitempty"`
	RowSpan     *int             `json:"rowSpan,omitempty"`
	Areas       []wireLayoutArea `json:"areas,omitempty"`
}

type wireLayoutArea struct {
	Key   string           `json:"key"`
	Items []wireLayoutItem `json:"items"`
}

type wireItemOut struct {
	Key              string              `json:"key"`
	ContentTypeKey   string              `json:"contentTypeKey"`
	ContentTypeAlias string              `json:"contentTypeAlias,omitempty"`
	Values           []wirePropertyValue `json:"values"`
}

type wirePropertyValue struct {
	Alias       string  `json:"alias"`
	Culture     *string `json:"culture"`
	Segment     *string `json:"segment"`
	EditorAlias string  `json:"editorAlias,omitempty"`
	Value       any     `json:"value"`
}

type wireExpose struct {
	ContentKey string  `json:"contentKey"`
	Culture    *string `json:"culture"`
	Segment    *string `json:"segment"`
}
