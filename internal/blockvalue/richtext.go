package blockvalue

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/net/html"

	"github.com/goliatone/go-blockeditor/pkg/interfaces"
)

const (
	blockTag       = "umb-rte-block"
	inlineBlockTag = "umb-rte-block-inline"
	contentKeyAttr = "data-content-key"
	contentUdiAttr = "data-content-udi"
)

// RichTextValue is markup with embedded blocks referenced by placeholders.
type RichTextValue struct {
	Markup string
	Blocks *BlockValue
}

// NewRichText returns an empty rich text value.
func NewRichText() *RichTextValue {
	return &RichTextValue{Blocks: New(RichText)}
}

// ParseRichText decodes a rich text value. Plain markup strings from older
// installs are accepted and produce a value without blocks.
func ParseRichText(data []byte) (*RichTextValue, error) {
	return parseRichText(data, strictDecoder())
}

// ParseRichTextLenient never fails; malformed input yields an empty value.
func ParseRichTextLenient(data []byte, logger interfaces.Logger) *RichTextValue {
	d := NewDecoder(logger)
	value, err := parseRichText(data, d)
	if err != nil {
		d.logger.Warn("blockvalue.parse.malformed", "editor", string(RichText), "error", err)
		return NewRichText()
	}
	return value
}

func parseRichText(data []byte, d *Decoder) (*RichTextValue, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return NewRichText(), nil
	}
	if trimmed[0] == '"' {
		var inner string
		if err := json.Unmarshal(trimmed, &inner); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
		}
		if strings.HasPrefix(strings.TrimSpace(inner), "{") {
			return parseRichText([]byte(inner), d)
		}
		return &RichTextValue{Markup: inner, Blocks: New(RichText)}, nil
	}
	if trimmed[0] != '{' {
		return &RichTextValue{Markup: string(trimmed), Blocks: New(RichText)}, nil
	}
	if err := CheckEnvelope(trimmed, RichText); err != nil {
		return nil, err
	}

	var wire struct {
		Markup *string         `json:"markup"`
		Blocks json.RawMessage `json:"blocks"`
	}
	if err := json.Unmarshal(trimmed, &wire); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	blocks, err := d.Decode(wire.Blocks, RichText)
	if err != nil {
		return nil, err
	}
	blocks.Editor = RichText
	out := &RichTextValue{Blocks: blocks}
	if wire.Markup != nil {
		out.Markup = *wire.Markup
	}
	return out, nil
}

// MarshalJSON writes {"markup": ..., "blocks": ...}.
func (r *RichTextValue) MarshalJSON() ([]byte, error) {
	if r == nil {
		return []byte("null"), nil
	}
	blocks := r.Blocks
	if blocks == nil {
		blocks = New(RichText)
	}
	blocks.Editor = RichText
	return json.Marshal(struct {
		Markup string      `json:"markup"`
		Blocks *BlockValue `json:"blocks"`
	}{Markup: r.Markup, Blocks: blocks})
}

// UnmarshalJSON decodes strictly.
func (r *RichTextValue) UnmarshalJSON(data []byte) error {
	parsed, err := ParseRichText(data)
	if err != nil {
		return err
	}
	*r = *parsed
	return nil
}

// Clone returns a deep copy.
func (r *RichTextValue) Clone() *RichTextValue {
	if r == nil {
		return nil
	}
	return &RichTextValue{Markup: r.Markup, Blocks: r.Blocks.Clone()}
}

// PlaceholderKeys returns the content keys referenced by block placeholders
// in markup order. Duplicates keep their first position.
func PlaceholderKeys(markup string) []uuid.UUID {
	var keys []uuid.UUID
	seen := map[uuid.UUID]struct{}{}
	tokenizer := html.NewTokenizer(strings.NewReader(markup))
	for {
		tt := tokenizer.Next()
		if tt == html.ErrorToken {
			return keys
		}
		if tt != html.StartTagToken && tt != html.SelfClosingTagToken {
			continue
		}
		key, ok := placeholderKey(tokenizer.Token())
		if !ok {
			continue
		}
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		keys = append(keys, key)
	}
}

// IsPlaceholder reports whether tag names a block placeholder.
func IsPlaceholder(tag string) bool {
	return tag == blockTag || tag == inlineBlockTag
}

// PlaceholderKey extracts the content key from a placeholder token.
func PlaceholderKey(token html.Token) (uuid.UUID, bool) {
	return placeholderKey(token)
}

func placeholderKey(token html.Token) (uuid.UUID, bool) {
	if !IsPlaceholder(token.Data) {
		return uuid.Nil, false
	}
	var raw string
	for _, attr := range token.Attr {
		switch attr.Key {
		case contentKeyAttr:
			raw = attr.Val
		case contentUdiAttr:
			if raw == "" {
				raw = attr.Val
			}
		}
	}
	key, err := ParseKey(raw)
	if err != nil {
		return uuid.Nil, false
	}
	return key, true
}

// SyncLayout makes the block layout follow the markup: layout items are
// ordered by placeholder position, placeholders without layout get one when
// their content exists, and blocks no longer referenced are removed along
// with their content and settings data.
func (r *RichTextValue) SyncLayout() {
	if r == nil {
		return
	}
	if r.Blocks == nil {
		r.Blocks = New(RichText)
	}
	keys := PlaceholderKeys(r.Markup)

	existing := make(map[uuid.UUID]LayoutItem, len(r.Blocks.Layout))
	for _, item := range r.Blocks.Layout {
		existing[item.ContentKey] = item
	}

	layout := make([]LayoutItem, 0, len(keys))
	for _, key := range keys {
		if item, ok := existing[key]; ok {
			layout = append(layout, item)
			continue
		}
		if r.Blocks.ContentByKey(key) != nil {
			layout = append(layout, LayoutItem{ContentKey: key})
		}
	}
	r.Blocks.Layout = layout
	r.Blocks.PruneUnreferenced()
}

// PruneUnreferenced removes content and settings items the layout does not
// reference.
func (v *BlockValue) PruneUnreferenced() {
	if v == nil {
		return
	}
	contentKeys := map[uuid.UUID]struct{}{}
	settingsKeys := map[uuid.UUID]struct{}{}
	v.WalkLayout(func(item *LayoutItem, _ int) bool {
		contentKeys[item.ContentKey] = struct{}{}
		if item.SettingsKey != nil {
			settingsKeys[*item.SettingsKey] = struct{}{}
		}
		return true
	})
	v.ContentData = filterItems(v.ContentData, contentKeys)
	v.SettingsData = filterItems(v.SettingsData, settingsKeys)
}

func filterItems(items []*BlockItemData, keep map[uuid.UUID]struct{}) []*BlockItemData {
	out := items[:0]
	for _, item := range items {
		if item == nil {
			continue
		}
		if _, ok := keep[item.Key]; ok {
			out = append(out, item)
		}
	}
	return out
}
