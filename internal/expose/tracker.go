package expose

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/goliatone/go-blockeditor/internal/blockvalue"
	"github.com/goliatone/go-blockeditor/internal/logging"
	"github.com/goliatone/go-blockeditor/internal/metadata"
	"github.com/goliatone/go-blockeditor/internal/variance"
	"github.com/goliatone/go-blockeditor/pkg/interfaces"
)

// Tracker maintains the expose list of block values.
type Tracker struct {
	logger        interfaces.Logger
	autoExposeNew bool
}

// Option configures a Tracker.
type Option func(*Tracker)

// WithLogger sets the tracker logger.
func WithLogger(logger interfaces.Logger) Option {
	return func(t *Tracker) {
		t.logger = logging.OrNoOp(logger)
	}
}

// WithAutoExposeNew controls whether blocks added without expose entries are
// exposed under the edited cultures. Enabled by default.
func WithAutoExposeNew(enabled bool) Option {
	return func(t *Tracker) {
		t.autoExposeNew = enabled
	}
}

// New constructs a Tracker.
func New(opts ...Option) *Tracker {
	t := &Tracker{logger: logging.NoOp(), autoExposeNew: true}
	for _, opt := range opts {
		if opt != nil {
			opt(t)
		}
	}
	return t
}

// ComputeVisibility returns the aligned expose set of value: entries for
// keys missing from the layout are dropped and every entry is aligned with
// the variance of its element type. value is not modified.
func (t *Tracker) ComputeVisibility(value *blockvalue.BlockValue, meta *metadata.Metadata, vctx variance.Context) []blockvalue.BlockItemVariation {
	out := []blockvalue.BlockItemVariation{}
	if value == nil {
		return out
	}
	for _, key := range value.LayoutKeys() {
		ev := elementVariation(value, key, meta, vctx)
		out = append(out, align(value.ExposeFor(key), ev, meta)...)
	}
	return dedupe(out)
}

// Reconcile computes the expose list to store on save. For cultures in
// edited the submitted entries win; entries of other cultures are carried
// over from previous; invariant entries come from the submitted value.
// An empty edited list means every culture was edited.
func (t *Tracker) Reconcile(value, previous *blockvalue.BlockValue, meta *metadata.Metadata, vctx variance.Context, edited []string) []blockvalue.BlockItemVariation {
	out := []blockvalue.BlockItemVariation{}
	if value == nil {
		return out
	}
	editedSet := normalizeCultures(edited, meta)
	allEdited := len(editedSet) == 0

	var previousKeys map[uuid.UUID]struct{}
	if previous != nil {
		previousKeys = previous.LayoutKeySet()
	}

	for _, key := range value.LayoutKeys() {
		ev := elementVariation(value, key, meta, vctx)
		submitted := align(value.ExposeFor(key), ev, meta)
		entries := make([]blockvalue.BlockItemVariation, 0, len(submitted))
		for _, entry := range submitted {
			if entry.Culture == nil || allEdited || contains(editedSet, entry.Culture) {
				entries = append(entries, entry)
			}
		}
		if previous != nil && !allEdited {
			for _, entry := range align(previous.ExposeFor(key), ev, meta) {
				if entry.Culture != nil && !contains(editedSet, entry.Culture) {
					entries = append(entries, entry)
				}
			}
		}

		_, known := previousKeys[key]
		if !known && len(value.ExposeFor(key)) == 0 && t.autoExposeNew {
			entries = append(entries, t.autoExpose(key, ev, meta, editedSet, edited)...)
		}
		out = append(out, entries...)
	}
	return dedupe(out)
}

func (t *Tracker) autoExpose(key uuid.UUID, ev variance.Variation, meta *metadata.Metadata, editedSet map[string]string, edited []string) []blockvalue.BlockItemVariation {
	if !ev.VariesByCulture() {
		t.logger.Debug("expose.auto", "content_key", key.String())
		return []blockvalue.BlockItemVariation{{ContentKey: key}}
	}
	var codes []string
	for _, raw := range edited {
		if canonical, ok := editedSet[strings.ToLower(strings.TrimSpace(raw))]; ok {
			codes = append(codes, canonical)
		}
	}
	if len(codes) == 0 && meta.DefaultCulture() != "" {
		codes = []string{meta.DefaultCulture()}
	}
	out := make([]blockvalue.BlockItemVariation, 0, len(codes))
	for _, code := range codes {
		culture := code
		out = append(out, blockvalue.BlockItemVariation{ContentKey: key, Culture: &culture})
	}
	t.logger.Debug("expose.auto", "content_key", key.String(), "cultures", codes)
	return out
}

// Widen duplicates invariant entries across cultures for blocks whose element
// type now varies by culture. It runs only when a content type change widened
// variance; cultures defaults to every configured culture.
func (t *Tracker) Widen(value *blockvalue.BlockValue, meta *metadata.Metadata, vctx variance.Context, cultures []string) []blockvalue.BlockItemVariation {
	out := []blockvalue.BlockItemVariation{}
	if value == nil {
		return out
	}
	targets := make([]string, 0, len(cultures))
	for _, code := range cultures {
		if canonical, ok := meta.NormalizeCulture(code); ok {
			targets = append(targets, canonical)
		}
	}
	if len(targets) == 0 {
		targets = meta.Cultures()
	}

	for _, key := range value.LayoutKeys() {
		ev := elementVariation(value, key, meta, vctx)
		var widened []blockvalue.BlockItemVariation
		for _, entry := range value.ExposeFor(key) {
			if entry.Culture != nil || !ev.VariesByCulture() {
				widened = append(widened, entry)
				continue
			}
			for _, code := range targets {
				culture := code
				widened = append(widened, blockvalue.BlockItemVariation{
					ContentKey: key,
					Culture:    &culture,
					Segment:    entry.Segment,
				})
			}
		}
		out = append(out, align(widened, ev, meta)...)
	}
	return dedupe(out)
}

// IsExposed reports whether key is visible for the requested culture and
// segment. A nil segment is the default segment; an entry with a nil segment
// matches only the default segment unless the element does not vary by
// segment. Culture is ignored for culture-invariant elements.
func IsExposed(value *blockvalue.BlockValue, key uuid.UUID, culture, segment *string, meta *metadata.Metadata, vctx variance.Context) bool {
	if value == nil {
		return false
	}
	ev := elementVariation(value, key, meta, vctx)
	for _, entry := range value.ExposeFor(key) {
		if !cultureMatches(entry.Culture, culture, ev, meta) {
			continue
		}
		if !ev.VariesBySegment() || variance.SameSegment(entry.Segment, segment) {
			return true
		}
	}
	return false
}

func cultureMatches(stored, requested *string, ev variance.Variation, meta *metadata.Metadata) bool {
	if !ev.VariesByCulture() {
		return true
	}
	if stored == nil {
		def := meta.DefaultCulture()
		return def != "" && variance.SameCulture(requested, &def)
	}
	return variance.SameCulture(stored, requested)
}

// ReconcileTree reconciles value and every nested block value in place.
// Nested values are matched to their previous counterparts by block key,
// alias, culture and segment.
func (t *Tracker) ReconcileTree(ctx context.Context, value, previous *blockvalue.BlockValue, meta *metadata.Metadata, vctx variance.Context, edited []string) {
	if value == nil {
		return
	}
	logger := t.logger.WithContext(contextOrBackground(ctx))
	value.Expose = t.Reconcile(value, previous, meta, vctx, edited)
	value.ExposeMissing = false

	for _, item := range value.ContentData {
		var previousItem *blockvalue.BlockItemData
		if previous != nil {
			previousItem = previous.ContentByKey(item.Key)
		}
		for _, entry := range item.Values {
			eff, propertyType, ok := meta.PropertyVariation(item, entry.Alias, vctx)
			if !ok {
				continue
			}
			nested, ok := blockvalue.Nested(propertyType.EditorAlias, entry.Value, logger)
			if !ok {
				continue
			}
			entry.Value = nested
			blocks, _ := blockvalue.NestedBlocks(nested)
			previousBlocks := previousNested(previousItem, entry, propertyType.EditorAlias)
			t.ReconcileTree(ctx, blocks, previousBlocks, meta, vctx.Nested(eff), edited)
		}
	}
}

// WidenTree applies Widen to value and every nested block value in place.
func (t *Tracker) WidenTree(value *blockvalue.BlockValue, meta *metadata.Metadata, vctx variance.Context, cultures []string) {
	if value == nil {
		return
	}
	value.Expose = t.Widen(value, meta, vctx, cultures)
	for _, item := range value.ContentData {
		for _, entry := range item.Values {
			eff, propertyType, ok := meta.PropertyVariation(item, entry.Alias, vctx)
			if !ok {
				continue
			}
			nested, ok := blockvalue.Nested(propertyType.EditorAlias, entry.Value, t.logger)
			if !ok {
				continue
			}
			entry.Value = nested
			blocks, _ := blockvalue.NestedBlocks(nested)
			t.WidenTree(blocks, meta, vctx.Nested(eff), cultures)
		}
	}
}

func previousNested(item *blockvalue.BlockItemData, entry *blockvalue.BlockPropertyValue, editorAlias string) *blockvalue.BlockValue {
	if item == nil {
		return nil
	}
	for _, candidate := range item.ValuesFor(entry.Alias) {
		if !variance.SameCulture(candidate.Culture, entry.Culture) || !variance.SameSegment(candidate.Segment, entry.Segment) {
			continue
		}
		nested, ok := blockvalue.Nested(editorAlias, candidate.Value, nil)
		if !ok {
			return nil
		}
		blocks, _ := blockvalue.NestedBlocks(nested)
		return blocks
	}
	return nil
}

func contextOrBackground(ctx context.Context) context.Context {
	if ctx == nil {
		return context.Background()
	}
	return ctx
}
