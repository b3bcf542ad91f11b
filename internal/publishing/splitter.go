package publishing

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

// Splitter builds the published block value of a partial (per culture)
// publish from the edited draft and the previously published value.
type Splitter struct {
	logger interfaces.Logger
}

// Option configures a Splitter.
type Option func(*Splitter)

// WithLogger sets the splitter logger.
func WithLogger(logger interfaces.Logger) Option {
	return func(s *Splitter) {
		s.logger = logging.OrNoOp(logger)
	}
}

// New constructs a Splitter.
func New(opts ...Option) *Splitter {
	s := &Splitter{logger: logging.NoOp()}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

// publishScope describes which cultures a publish covers.
type publishScope struct {
	all            bool
	cultures       map[string]struct{}
	includeDefault bool
}

func newScope(meta *metadata.Metadata, vctx variance.Context, cultures []string) publishScope {
	scope := publishScope{cultures: map[string]struct{}{}}
	for _, code := range cultures {
		canonical, ok := meta.NormalizeCulture(code)
		if !ok {
			canonical = strings.TrimSpace(code)
		}
		if canonical == "" {
			continue
		}
		scope.cultures[strings.ToLower(canonical)] = struct{}{}
	}
	if !vctx.Owner.VariesByCulture() || len(scope.cultures) == 0 {
		scope.all = true
		scope.includeDefault = true
		return scope
	}
	if def := meta.DefaultCulture(); def != "" {
		_, scope.includeDefault = scope.cultures[strings.ToLower(def)]
	}
	return scope
}

func (p publishScope) publishes(culture *string) bool {
	if p.all {
		return true
	}
	_, ok := p.cultures[variance.CultureKey(culture)]
	return ok
}

// Split returns the new published value. Culture tagged data of published
// cultures comes from edited, other cultures keep their previous data.
// Invariant data comes from edited, except on blocks whose element type
// varies by culture: those follow the default culture. An empty cultures
// list, or an owner that does not vary by culture, publishes everything.
// Neither input is modified.
func (s *Splitter) Split(ctx context.Context, edited, previous *blockvalue.BlockValue, meta *metadata.Metadata, vctx variance.Context, cultures []string) *blockvalue.BlockValue {
	scope := newScope(meta, vctx, cultures)
	out := s.split(ctx, edited, previous, meta, vctx, scope)
	s.logger.WithContext(contextOrBackground(ctx)).Debug("publishing.split",
		"cultures", cultures,
		"all", scope.all,
		"blocks", len(out.ContentData),
	)
	return out
}

// SplitRichText splits the blocks of a rich text value. The markup always
// comes from edited.
func (s *Splitter) SplitRichText(ctx context.Context, edited, previous *blockvalue.RichTextValue, meta *metadata.Metadata, vctx variance.Context, cultures []string) *blockvalue.RichTextValue {
	scope := newScope(meta, vctx, cultures)
	return s.splitRichText(ctx, edited, previous, meta, vctx, scope)
}

func (s *Splitter) splitRichText(ctx context.Context, edited, previous *blockvalue.RichTextValue, meta *metadata.Metadata, vctx variance.Context, scope publishScope) *blockvalue.RichTextValue {
	out := blockvalue.NewRichText()
	var editedBlocks, previousBlocks *blockvalue.BlockValue
	if edited != nil {
		out.Markup = edited.Markup
		editedBlocks = edited.Blocks
	}
	if previous != nil {
		previousBlocks = previous.Blocks
	}
	out.Blocks = s.split(ctx, editedBlocks, previousBlocks, meta, vctx, scope)
	out.Blocks.Editor = blockvalue.RichText
	return out
}

func (s *Splitter) split(ctx context.Context, edited, previous *blockvalue.BlockValue, meta *metadata.Metadata, vctx variance.Context, scope publishScope) *blockvalue.BlockValue {
	editor := blockvalue.BlockList
	switch {
	case edited != nil:
		editor = edited.Editor
	case previous != nil:
		editor = previous.Editor
	}
	if edited == nil {
		edited = blockvalue.New(editor)
	}
	if previous == nil {
		previous = blockvalue.New(editor)
	}
	out := blockvalue.New(editor)

	expose := mergeExpose(edited, previous, scope)
	exposed := map[uuid.UUID]struct{}{}
	for _, entry := range expose {
		exposed[entry.ContentKey] = struct{}{}
	}

	editedKeys := edited.LayoutKeySet()
	retain := func(key uuid.UUID) bool {
		if scope.all {
			return false
		}
		if _, ok := editedKeys[key]; ok {
			return false
		}
		if previous.ContentByKey(key) == nil {
			return false
		}
		_, ok := exposed[key]
		return ok
	}

	out.Layout = mergeLayout(edited.Layout, previous.Layout, previousItems(previous), retain)
	if editor == blockvalue.SingleBlock && len(out.Layout) > 1 {
		out.Layout = out.Layout[:1]
	}

	seen := map[uuid.UUID]struct{}{}
	out.WalkLayout(func(item *blockvalue.LayoutItem, _ int) bool {
		if _, dup := seen[item.ContentKey]; dup {
			return true
		}
		seen[item.ContentKey] = struct{}{}

		_, fromEdited := editedKeys[item.ContentKey]
		if !fromEdited {
			if content := previous.ContentByKey(item.ContentKey); content != nil {
				out.ContentData = append(out.ContentData, content.Clone())
			}
			if item.SettingsKey != nil {
				if settings := previous.SettingsByKey(*item.SettingsKey); settings != nil {
					out.SettingsData = append(out.SettingsData, settings.Clone())
				}
			}
			return true
		}

		if content := edited.ContentByKey(item.ContentKey); content != nil {
			out.ContentData = append(out.ContentData, s.splitItem(ctx, content, previous.ContentByKey(item.ContentKey), meta, vctx, scope))
		}
		if item.SettingsKey != nil {
			if settings := edited.SettingsByKey(*item.SettingsKey); settings != nil {
				out.SettingsData = append(out.SettingsData, s.splitItem(ctx, settings, previous.SettingsByKey(*item.SettingsKey), meta, vctx, scope))
			}
		}
		return true
	})

	for _, entry := range expose {
		if _, ok := seen[entry.ContentKey]; ok {
			out.Expose = append(out.Expose, entry)
		}
	}
	return out
}

// splitItem merges the property values of one block.
func (s *Splitter) splitItem(ctx context.Context, edited, previous *blockvalue.BlockItemData, meta *metadata.Metadata, vctx variance.Context, scope publishScope) *blockvalue.BlockItemData {
	out := &blockvalue.BlockItemData{
		Key:              edited.Key,
		ContentTypeKey:   edited.ContentTypeKey,
		ContentTypeAlias: edited.ContentTypeAlias,
		Values:           []*blockvalue.BlockPropertyValue{},
	}
	ev, _ := meta.ElementVariation(edited, vctx)
	// Invariant values of a culture variant block belong to the default culture.
	invariantFromEdited := scope.includeDefault || !ev.VariesByCulture()

	for _, value := range edited.Values {
		if value.Culture != nil {
			if scope.publishes(value.Culture) {
				out.Values = append(out.Values, value.Clone())
			}
			continue
		}
		if split, ok := s.splitNested(ctx, edited, value, previous, meta, vctx, scope); ok {
			out.Values = append(out.Values, split)
			continue
		}
		if invariantFromEdited {
			out.Values = append(out.Values, value.Clone())
		}
	}

	if previous == nil {
		return out
	}
	for _, value := range previous.Values {
		if value.Culture != nil {
			if !scope.publishes(value.Culture) {
				out.Values = append(out.Values, value.Clone())
			}
			continue
		}
		if invariantFromEdited || hasValue(out, value) {
			continue
		}
		out.Values = append(out.Values, value.Clone())
	}
	return out
}

// splitNested recurses into an invariant block editor property.
func (s *Splitter) splitNested(ctx context.Context, item *blockvalue.BlockItemData, value *blockvalue.BlockPropertyValue, previous *blockvalue.BlockItemData, meta *metadata.Metadata, vctx variance.Context, scope publishScope) (*blockvalue.BlockPropertyValue, bool) {
	eff, editorAlias, ok := nestedProperty(item, value.Alias, meta, vctx)
	if !ok {
		return nil, false
	}
	editedNested, ok := blockvalue.Nested(editorAlias, value.Value, s.logger)
	if !ok {
		return nil, false
	}
	var previousNested any
	if previous != nil {
		for _, candidate := range previous.ValuesFor(value.Alias) {
			if candidate.Culture == nil && variance.SameSegment(candidate.Segment, value.Segment) {
				previousNested, _ = blockvalue.Nested(editorAlias, candidate.Value, s.logger)
				break
			}
		}
	}

	out := value.Clone()
	nestedCtx := vctx.Nested(eff)
	editedBlocks, editedText := blockvalue.NestedBlocks(editedNested)
	previousBlocks, previousText := blockvalue.NestedBlocks(previousNested)
	if editedText != nil {
		out.Value = s.splitRichText(ctx, editedText, previousText, meta, nestedCtx, scope)
		return out, true
	}
	out.Value = s.split(ctx, editedBlocks, previousBlocks, meta, nestedCtx, scope)
	return out, true
}

func nestedProperty(item *blockvalue.BlockItemData, alias string, meta *metadata.Metadata, vctx variance.Context) (variance.Variation, string, bool) {
	eff, propertyType, ok := meta.PropertyVariation(item, alias, vctx)
	if !ok || !blockvalue.IsBlockEditor(propertyType.EditorAlias) {
		return variance.Nothing, "", false
	}
	return eff, propertyType.EditorAlias, true
}

func hasValue(item *blockvalue.BlockItemData, value *blockvalue.BlockPropertyValue) bool {
	for _, existing := range item.Values {
		if strings.EqualFold(existing.Alias, value.Alias) &&
			variance.SameCulture(existing.Culture, value.Culture) &&
			variance.SameSegment(existing.Segment, value.Segment) {
			return true
		}
	}
	return false
}

func contextOrBackground(ctx context.Context) context.Context {
	if ctx == nil {
		return context.Background()
	}
	return ctx
}
