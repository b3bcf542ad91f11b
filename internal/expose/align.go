package expose

import (
	"strings"

	"github.com/google/uuid"

	"github.com/goliatone/go-blockeditor/internal/blockvalue"
	"github.com/goliatone/go-blockeditor/internal/metadata"
	"github.com/goliatone/go-blockeditor/internal/variance"
)

// elementVariation returns the effective variance of the block's element
// type. Blocks without content data or with unknown types are invariant.
func elementVariation(value *blockvalue.BlockValue, key uuid.UUID, meta *metadata.Metadata, vctx variance.Context) variance.Variation {
	ev, _ := meta.ElementVariation(value.ContentByKey(key), vctx)
	return ev
}

// align normalises entries to the element variance: culture-invariant
// elements collapse to a nil culture, a nil culture on a culture-variant
// element becomes the default culture, unknown cultures are dropped and
// segment-invariant elements get a nil segment.
func align(entries []blockvalue.BlockItemVariation, ev variance.Variation, meta *metadata.Metadata) []blockvalue.BlockItemVariation {
	out := make([]blockvalue.BlockItemVariation, 0, len(entries))
	for _, entry := range entries {
		aligned := blockvalue.BlockItemVariation{ContentKey: entry.ContentKey}
		if ev.VariesByCulture() {
			code := variance.Deref(entry.Culture)
			if code == "" {
				code = meta.DefaultCulture()
			}
			canonical, ok := meta.NormalizeCulture(code)
			if !ok {
				continue
			}
			aligned.Culture = &canonical
		}
		if ev.VariesBySegment() && entry.Segment != nil {
			segment := *entry.Segment
			aligned.Segment = &segment
		}
		out = append(out, aligned)
	}
	return dedupe(out)
}

func dedupe(entries []blockvalue.BlockItemVariation) []blockvalue.BlockItemVariation {
	seen := map[string]struct{}{}
	out := make([]blockvalue.BlockItemVariation, 0, len(entries))
	for _, entry := range entries {
		id := entry.ContentKey.String() + "\x00" + variance.CultureKey(entry.Culture) + "\x00" + variance.Deref(entry.Segment)
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, entry)
	}
	return out
}

// normalizeCultures maps lowercased codes to their configured casing.
// Unknown cultures are ignored.
func normalizeCultures(codes []string, meta *metadata.Metadata) map[string]string {
	out := make(map[string]string, len(codes))
	for _, code := range codes {
		canonical, ok := meta.NormalizeCulture(code)
		if !ok {
			continue
		}
		out[strings.ToLower(canonical)] = canonical
	}
	return out
}

func contains(set map[string]string, culture *string) bool {
	_, ok := set[variance.CultureKey(culture)]
	return ok
}
