package resolver

import (
	"context"

	"github.com/google/uuid"

	"github.com/goliatone/go-blockeditor/internal/blockvalue"
	"github.com/goliatone/go-blockeditor/internal/contenttypes"
	"github.com/goliatone/go-blockeditor/internal/logging"
	"github.com/goliatone/go-blockeditor/internal/metadata"
	"github.com/goliatone/go-blockeditor/internal/variance"
	"github.com/goliatone/go-blockeditor/pkg/interfaces"
)

// Resolver reconciles stored block values with the current variance of
// their element types.
type Resolver struct {
	policy FoldPolicy
	logger interfaces.Logger
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithFoldPolicy overrides the fold policy.
func WithFoldPolicy(policy FoldPolicy) Option {
	return func(r *Resolver) {
		if policy.Mode == "" {
			policy.Mode = FoldDefaultThenFallback
		}
		r.policy = policy
	}
}

// WithLogger sets the resolver logger.
func WithLogger(logger interfaces.Logger) Option {
	return func(r *Resolver) {
		r.logger = logging.OrNoOp(logger)
	}
}

// New constructs a Resolver.
func New(opts ...Option) *Resolver {
	r := &Resolver{policy: DefaultFoldPolicy(), logger: logging.NoOp()}
	for _, opt := range opts {
		if opt != nil {
			opt(r)
		}
	}
	return r
}

// Policy returns the configured fold policy.
func (r *Resolver) Policy() FoldPolicy { return r.policy }

// ResolveValue returns a reconciled copy of value. Items of unknown element
// types are dropped together with the layout items that reference them, and
// settings references to dropped items are cleared. The input is not
// modified.
func (r *Resolver) ResolveValue(ctx context.Context, value *blockvalue.BlockValue, meta *metadata.Metadata, vctx variance.Context) *blockvalue.BlockValue {
	if value == nil {
		return nil
	}
	out := value.Clone()
	logger := r.logger.WithContext(contextOrBackground(ctx))

	out.ContentData = r.resolveItems(ctx, value.ContentData, meta, vctx)
	out.SettingsData = r.resolveItems(ctx, value.SettingsData, meta, vctx)

	content := keySet(out.ContentData)
	settings := keySet(out.SettingsData)
	out.Layout = pruneLayout(out.Layout, content, settings, map[uuid.UUID]struct{}{}, func(key uuid.UUID) {
		logger.Debug("resolver.layout.dropped", "content_key", key.String())
	})
	if value.Editor == blockvalue.SingleBlock && len(out.Layout) > 1 {
		out.Layout = out.Layout[:1]
	}
	return out
}

// ResolveRichText reconciles the blocks of a rich text value and syncs its
// layout with the markup.
func (r *Resolver) ResolveRichText(ctx context.Context, value *blockvalue.RichTextValue, meta *metadata.Metadata, vctx variance.Context) *blockvalue.RichTextValue {
	if value == nil {
		return nil
	}
	blocks := value.Blocks
	if blocks == nil {
		blocks = blockvalue.New(blockvalue.RichText)
	}
	out := &blockvalue.RichTextValue{
		Markup: value.Markup,
		Blocks: r.ResolveValue(ctx, blocks, meta, vctx),
	}
	out.SyncLayout()
	return out
}

// ResolveItem reconciles one content or settings item. The second result is
// false when the element type is unknown and the item must be dropped.
func (r *Resolver) ResolveItem(ctx context.Context, item *blockvalue.BlockItemData, meta *metadata.Metadata, vctx variance.Context) (*blockvalue.BlockItemData, bool) {
	if item == nil {
		return nil, false
	}
	logger := r.logger.WithContext(contextOrBackground(ctx))

	elementType, ok := meta.ElementType(item.ContentTypeKey)
	if !ok {
		logger.Debug("resolver.item.dropped",
			"content_key", item.Key.String(),
			"content_type_key", item.ContentTypeKey.String(),
		)
		return nil, false
	}

	out := &blockvalue.BlockItemData{
		Key:              item.Key,
		ContentTypeKey:   item.ContentTypeKey,
		ContentTypeAlias: elementType.Alias,
		Values:           []*blockvalue.BlockPropertyValue{},
	}

	for _, alias := range item.Aliases() {
		propertyType, ok := elementType.Property(alias)
		if !ok {
			logger.Debug("resolver.value.dropped",
				"content_key", item.Key.String(),
				"alias", alias,
			)
			continue
		}
		effective := vctx.Effective(elementType.Variation, propertyType.Variation)
		for _, entry := range r.align(item.ValuesFor(alias), effective, meta) {
			entry.EditorAlias = propertyType.EditorAlias
			r.resolveNested(ctx, entry, propertyType, meta, vctx.Nested(effective))
			out.Values = append(out.Values, entry)
		}
	}
	return out, true
}

func (r *Resolver) resolveItems(ctx context.Context, items []*blockvalue.BlockItemData, meta *metadata.Metadata, vctx variance.Context) []*blockvalue.BlockItemData {
	out := make([]*blockvalue.BlockItemData, 0, len(items))
	seen := map[uuid.UUID]struct{}{}
	for _, item := range items {
		if item == nil {
			continue
		}
		if _, dup := seen[item.Key]; dup {
			continue
		}
		seen[item.Key] = struct{}{}
		resolved, ok := r.ResolveItem(ctx, item, meta, vctx)
		if !ok {
			continue
		}
		out = append(out, resolved)
	}
	return out
}

func (r *Resolver) resolveNested(ctx context.Context, entry *blockvalue.BlockPropertyValue, propertyType *contenttypes.PropertyType, meta *metadata.Metadata, nested variance.Context) {
	typed, ok := blockvalue.Nested(propertyType.EditorAlias, entry.Value, r.logger)
	if !ok {
		return
	}
	switch value := typed.(type) {
	case *blockvalue.BlockValue:
		entry.Value = r.ResolveValue(ctx, value, meta, nested)
	case *blockvalue.RichTextValue:
		entry.Value = r.ResolveRichText(ctx, value, meta, nested)
	}
}

func keySet(items []*blockvalue.BlockItemData) map[uuid.UUID]struct{} {
	out := make(map[uuid.UUID]struct{}, len(items))
	for _, item := range items {
		out[item.Key] = struct{}{}
	}
	return out
}

func pruneLayout(items []blockvalue.LayoutItem, content, settings, seen map[uuid.UUID]struct{}, dropped func(uuid.UUID)) []blockvalue.LayoutItem {
	out := make([]blockvalue.LayoutItem, 0, len(items))
	for _, item := range items {
		if _, ok := content[item.ContentKey]; !ok {
			dropped(item.ContentKey)
			continue
		}
		if _, dup := seen[item.ContentKey]; dup {
			continue
		}
		seen[item.ContentKey] = struct{}{}
		if item.SettingsKey != nil {
			if _, ok := settings[*item.SettingsKey]; !ok {
				item.SettingsKey = nil
			}
		}
		for a := range item.Areas {
			item.Areas[a].Items = pruneLayout(item.Areas[a].Items, content, settings, seen, dropped)
		}
		out = append(out, item)
	}
	return out
}

func contextOrBackground(ctx context.Context) context.Context {
	if ctx == nil {
		return context.Background()
	}
	return ctx
}
