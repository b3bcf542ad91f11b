package blockvalue

import (
	"encoding/json"
	"fmt"

	"github.com/goliatone/go-blockeditor/internal/logging"
	"github.com/goliatone/go-blockeditor/pkg/interfaces"
)

// Coerce converts a stored property value into a BlockValue. It accepts a
// typed value, a JSON string, raw bytes or decoded JSON. Decoding is strict.
func Coerce(editor EditorAlias, raw any) (*BlockValue, error) {
	return strictDecoder().coerce(editor, raw)
}

// CoerceRichText converts a stored property value into a RichTextValue.
// Decoding is strict.
func CoerceRichText(raw any) (*RichTextValue, error) {
	return strictDecoder().coerceRichText(raw)
}

func strictDecoder() *Decoder {
	return &Decoder{logger: logging.NoOp(), strict: true}
}

func (d *Decoder) coerce(editor EditorAlias, raw any) (*BlockValue, error) {
	switch typed := raw.(type) {
	case nil:
		return New(editor), nil
	case *BlockValue:
		if typed == nil {
			return New(editor), nil
		}
		return typed, nil
	case *RichTextValue:
		if typed == nil || typed.Blocks == nil {
			return New(editor), nil
		}
		return typed.Blocks, nil
	case string:
		return d.Decode([]byte(typed), editor)
	case []byte:
		return d.Decode(typed, editor)
	case json.RawMessage:
		return d.Decode(typed, editor)
	case map[string]any, []any:
		data, err := json.Marshal(typed)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
		}
		return d.Decode(data, editor)
	default:
		return nil, fmt.Errorf("%w: unsupported nested value %T", ErrMalformed, raw)
	}
}

func (d *Decoder) coerceRichText(raw any) (*RichTextValue, error) {
	switch typed := raw.(type) {
	case nil:
		return NewRichText(), nil
	case *RichTextValue:
		if typed == nil {
			return NewRichText(), nil
		}
		return typed, nil
	case string:
		return parseRichText([]byte(typed), d)
	case []byte:
		return parseRichText(typed, d)
	case json.RawMessage:
		return parseRichText(typed, d)
	case map[string]any:
		data, err := json.Marshal(typed)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
		}
		return parseRichText(data, d)
	default:
		return nil, fmt.Errorf("%w: unsupported rich text value %T", ErrMalformed, raw)
	}
}

// Nested returns the typed nested value of a block editor property: a
// *BlockValue or a *RichTextValue. Nested values decode leniently: items with
// invalid keys are dropped and their siblings kept. Values that fail to
// decode as a whole are logged and replaced by an empty value of the family. The second result is false when
// editorAlias is not a block editor.
func Nested(editorAlias string, raw any, logger interfaces.Logger) (any, bool) {
	family, ok := ParseEditorAlias(editorAlias)
	if !ok {
		switch typed := raw.(type) {
		case *BlockValue:
			return typed, typed != nil
		case *RichTextValue:
			return typed, typed != nil
		}
		return nil, false
	}
	d := NewDecoder(logger)
	logger = d.logger
	if family == RichText {
		value, err := d.coerceRichText(raw)
		if err != nil {
			logger.Warn("blockvalue.parse.malformed", "editor", string(family), "error", err)
			return NewRichText(), true
		}
		return value, true
	}
	value, err := d.coerce(family, raw)
	if err != nil {
		logger.Warn("blockvalue.parse.malformed", "editor", string(family), "error", err)
		return New(family), true
	}
	return value, true
}

// NestedBlocks returns the BlockValue held by a nested value and, for rich
// text, the owning RichTextValue.
func NestedBlocks(nested any) (*BlockValue, *RichTextValue) {
	switch typed := nested.(type) {
	case *BlockValue:
		return typed, nil
	case *RichTextValue:
		if typed == nil {
			return nil, nil
		}
		if typed.Blocks == nil {
			typed.Blocks = New(RichText)
		}
		return typed.Blocks, typed
	}
	return nil, nil
}
