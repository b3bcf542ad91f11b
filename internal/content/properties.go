package content

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/goliatone/go-blockeditor/internal/blockvalue"
	"github.com/goliatone/go-blockeditor/internal/contenttypes"
	"github.com/goliatone/go-blockeditor/internal/metadata"
	"github.com/goliatone/go-blockeditor/internal/variance"
)

// property pairs a document property type with its variance inside the
// document and the context its block values are resolved in.
type property struct {
	contenttypes.PropertyType
	effective variance.Variation
	vctx      variance.Context
	family    blockvalue.EditorAlias
	blocks    bool
}

func documentProperties(docType *contenttypes.ContentType) []property {
	out := make([]property, 0, len(docType.Properties))
	owner := variance.Context{Owner: docType.Variation}
	for _, propertyType := range docType.Properties {
		effective := owner.Effective(docType.Variation, propertyType.Variation)
		family, blocks := blockvalue.ParseEditorAlias(propertyType.EditorAlias)
		out = append(out, property{
			PropertyType: propertyType,
			effective:    effective,
			vctx:         owner.Nested(effective),
			family:       family,
			blocks:       blocks,
		})
	}
	return out
}

// alignValues tags submitted values with the cultures and segments the
// property actually varies by. Unknown cultures are dropped; invariant
// submissions of a culture variant property go to the default culture.
// Values collapsing onto one invariant slot keep the invariant entry, then
// the default culture's.
func alignValues(values []PropertyValue, prop property, meta *metadata.Metadata) []PropertyValue {
	out := make([]PropertyValue, 0, len(values))
	ranks := map[string]int{}
	for _, value := range values {
		aligned := PropertyValue{Alias: prop.Alias, Value: value.Value}
		rank := 0
		if prop.effective.VariesByCulture() {
			code := variance.Deref(value.Culture)
			if strings.TrimSpace(code) == "" {
				code = meta.DefaultCulture()
			}
			canonical, ok := meta.NormalizeCulture(code)
			if !ok {
				continue
			}
			aligned.Culture = &canonical
		} else {
			switch code := strings.TrimSpace(variance.Deref(value.Culture)); {
			case code == "":
				rank += 4
			case strings.EqualFold(code, meta.DefaultCulture()):
				rank += 2
			}
		}
		if prop.effective.VariesBySegment() {
			aligned.Segment = variance.Ptr(variance.Deref(value.Segment))
		} else if strings.TrimSpace(variance.Deref(value.Segment)) == "" {
			rank++
		}

		slot := variance.CultureKey(aligned.Culture) + "|" + variance.Deref(aligned.Segment)
		if best, seen := ranks[slot]; seen && best > rank {
			continue
		}
		ranks[slot] = rank
		out = upsertValue(out, aligned)
	}
	return out
}

// propertyValues returns the stored values of prop aligned to its current
// variance.
func propertyValues(values []PropertyValue, prop property, meta *metadata.Metadata) []PropertyValue {
	return alignValues(valuesFor(values, prop.Alias), prop, meta)
}

// upsertValue replaces the entry with the same culture and segment.
func upsertValue(values []PropertyValue, value PropertyValue) []PropertyValue {
	for i := range values {
		if values[i].Alias == value.Alias &&
			variance.SameCulture(values[i].Culture, value.Culture) &&
			variance.SameSegment(values[i].Segment, value.Segment) {
			values[i] = value
			return values
		}
	}
	return append(values, value)
}

func valuesFor(values []PropertyValue, alias string) []PropertyValue {
	var out []PropertyValue
	for _, value := range values {
		if strings.EqualFold(value.Alias, alias) {
			out = append(out, value)
		}
	}
	return out
}

// pickValue selects the value of prop for culture and segment, falling back
// to the default segment.
func pickValue(values []PropertyValue, prop property, culture, segment *string) (PropertyValue, bool) {
	var wantCulture *string
	if prop.effective.VariesByCulture() {
		wantCulture = culture
	}
	if prop.effective.VariesBySegment() && segment != nil {
		if value, ok := ValueFor(values, prop.Alias, wantCulture, segment); ok {
			return value, true
		}
	}
	return ValueFor(values, prop.Alias, wantCulture, nil)
}

// decodeBlocks parses a stored block property value leniently.
func (s *service) decodeBlocks(raw string, prop property) (*blockvalue.BlockValue, *blockvalue.RichTextValue) {
	if prop.family == blockvalue.RichText {
		value := blockvalue.ParseRichTextLenient([]byte(raw), s.logger)
		return value.Blocks, value
	}
	return s.decoder.DecodeLenient([]byte(raw), prop.family), nil
}

// resolveBlocks decodes a stored block property value and resolves it
// against meta. Every read path goes through here so values stored under an
// older variance are folded before they are validated, split or projected.
func (s *service) resolveBlocks(ctx context.Context, raw string, prop property, meta *metadata.Metadata) (*blockvalue.BlockValue, *blockvalue.RichTextValue) {
	blocks, richText := s.decodeBlocks(raw, prop)
	if richText != nil {
		richText = s.resolver.ResolveRichText(ctx, richText, meta, prop.vctx)
		return richText.Blocks, richText
	}
	return s.resolver.ResolveValue(ctx, blocks, meta, prop.vctx), nil
}

// normalizeBlocks resolves a block property value against the current
// metadata and reconciles its exposure with previous.
func (s *service) normalizeBlocks(ctx context.Context, raw, previous string, prop property, meta *metadata.Metadata, edited []string) (string, error) {
	if strings.TrimSpace(raw) == "" {
		return "", nil
	}
	var prevBlocks *blockvalue.BlockValue
	if strings.TrimSpace(previous) != "" {
		prevBlocks, _ = s.decodeBlocks(previous, prop)
	}

	blocks, richText := s.decodeBlocks(raw, prop)
	if richText != nil {
		resolved := s.resolver.ResolveRichText(ctx, richText, meta, prop.vctx)
		s.tracker.ReconcileTree(ctx, resolved.Blocks, prevBlocks, meta, prop.vctx, edited)
		data, err := json.Marshal(resolved)
		if err != nil {
			return "", err
		}
		return string(data), nil
	}

	resolved := s.resolver.ResolveValue(ctx, blocks, meta, prop.vctx)
	s.tracker.ReconcileTree(ctx, resolved, prevBlocks, meta, prop.vctx, edited)
	return blockvalue.Marshal(resolved)
}

func (s *service) encodeBlocks(blocks *blockvalue.BlockValue, richText *blockvalue.RichTextValue) (string, error) {
	if richText != nil {
		data, err := json.Marshal(richText)
		if err != nil {
			return "", err
		}
		return string(data), nil
	}
	return blockvalue.Marshal(blocks)
}
