package resolver

import (
	"github.com/goliatone/go-blockeditor/internal/blockvalue"
	"github.com/goliatone/go-blockeditor/internal/metadata"
	"github.com/goliatone/go-blockeditor/internal/variance"
)

// align reconciles the stored entries of one alias with the effective
// variance of its property. Entries are cloned; the result keeps stored
// order and holds at most one entry per (culture, segment).
func (r *Resolver) align(entries []*blockvalue.BlockPropertyValue, effective variance.Variation, meta *metadata.Metadata) []*blockvalue.BlockPropertyValue {
	candidates := make([]*blockvalue.BlockPropertyValue, 0, len(entries))
	restrictCultures := len(meta.Cultures()) > 0
	for _, entry := range entries {
		clone := entry.Clone()
		if clone.Culture != nil {
			canonical, ok := meta.NormalizeCulture(*clone.Culture)
			if !ok && restrictCultures {
				continue
			}
			if ok {
				clone.Culture = &canonical
			}
		}
		candidates = append(candidates, clone)
	}

	if effective.VariesByCulture() {
		candidates = retagInvariant(candidates, meta.DefaultCulture())
	} else {
		candidates = r.foldCultures(candidates, meta)
	}

	if !effective.VariesBySegment() {
		candidates = foldSegments(candidates)
	}
	return dedupe(candidates)
}

// retagInvariant moves nil-culture entries to the default culture unless the
// default culture already has an entry for that segment.
func retagInvariant(entries []*blockvalue.BlockPropertyValue, defaultCulture string) []*blockvalue.BlockPropertyValue {
	if defaultCulture == "" {
		return entries
	}
	hasDefault := map[string]bool{}
	for _, entry := range entries {
		if entry.Culture != nil && variance.SameCulture(entry.Culture, &defaultCulture) {
			hasDefault[variance.Deref(entry.Segment)] = true
		}
	}
	out := entries[:0]
	for _, entry := range entries {
		if entry.Culture == nil {
			if hasDefault[variance.Deref(entry.Segment)] {
				continue
			}
			code := defaultCulture
			entry.Culture = &code
			hasDefault[variance.Deref(entry.Segment)] = true
		}
		out = append(out, entry)
	}
	return out
}

// foldCultures keeps one invariant entry per segment. An existing invariant
// entry always wins so a folded value is never folded again.
func (r *Resolver) foldCultures(entries []*blockvalue.BlockPropertyValue, meta *metadata.Metadata) []*blockvalue.BlockPropertyValue {
	type winner struct {
		index int
		rank  int
	}
	winners := map[string]winner{}
	for i, entry := range entries {
		segment := variance.Deref(entry.Segment)
		rank := -1
		if entry.Culture != nil {
			var ok bool
			rank, ok = r.policy.rank(entry.Culture, meta)
			if !ok {
				continue
			}
		}
		current, exists := winners[segment]
		if !exists || rank < current.rank {
			winners[segment] = winner{index: i, rank: rank}
		}
	}

	out := make([]*blockvalue.BlockPropertyValue, 0, len(winners))
	for i, entry := range entries {
		w, ok := winners[variance.Deref(entry.Segment)]
		if !ok || w.index != i {
			continue
		}
		entry.Culture = nil
		out = append(out, entry)
	}
	return out
}

// foldSegments keeps one default-segment entry per culture, preferring an
// existing default-segment entry over the first stored segment.
func foldSegments(entries []*blockvalue.BlockPropertyValue) []*blockvalue.BlockPropertyValue {
	chosen := map[string]int{}
	for i, entry := range entries {
		culture := variance.CultureKey(entry.Culture)
		current, exists := chosen[culture]
		switch {
		case !exists:
			chosen[culture] = i
		case entry.Segment == nil && entries[current].Segment != nil:
			chosen[culture] = i
		}
	}
	out := make([]*blockvalue.BlockPropertyValue, 0, len(chosen))
	for i, entry := range entries {
		if chosen[variance.CultureKey(entry.Culture)] != i {
			continue
		}
		entry.Segment = nil
		out = append(out, entry)
	}
	return out
}

func dedupe(entries []*blockvalue.BlockPropertyValue) []*blockvalue.BlockPropertyValue {
	seen := map[string]struct{}{}
	out := make([]*blockvalue.BlockPropertyValue, 0, len(entries))
	for _, entry := range entries {
		key := variance.CultureKey(entry.Culture) + "\x00" + variance.Deref(entry.Segment)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, entry)
	}
	return out
}
