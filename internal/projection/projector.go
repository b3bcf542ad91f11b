package projection

import (
	"context"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"github.com/goliatone/go-blockeditor/internal/blockvalue"
	"github.com/goliatone/go-blockeditor/internal/contenttypes"
	"github.com/goliatone/go-blockeditor/internal/expose"
	"github.com/goliatone/go-blockeditor/internal/logging"
	"github.com/goliatone/go-blockeditor/internal/metadata"
	"github.com/goliatone/go-blockeditor/internal/variance"
	"github.com/goliatone/go-blockeditor/pkg/interfaces"
)

// MarkdownEditor is the property editor whose values are markdown source.
const MarkdownEditor = "Umbraco.MarkdownEditor"

// Request selects the variant to project.
type Request struct {
	Culture *string
	Segment *string
	// Published switches on the expose filter. Draft projections include
	// every stored block.
	Published bool
	Context   variance.Context
}

// Projector flattens block values into index text or render trees.
type Projector struct {
	logger    interfaces.Logger
	markdown  goldmark.Markdown
	separator string
}

// Option configures a Projector.
type Option func(*Projector)

// WithLogger sets the projector logger.
func WithLogger(logger interfaces.Logger) Option {
	return func(p *Projector) {
		p.logger = logging.OrNoOp(logger)
	}
}

// WithMarkdown overrides the goldmark engine used for markdown properties.
func WithMarkdown(engine goldmark.Markdown) Option {
	return func(p *Projector) {
		if engine != nil {
			p.markdown = engine
		}
	}
}

// WithSeparator overrides the newline used between projected text parts.
func WithSeparator(separator string) Option {
	return func(p *Projector) {
		p.separator = separator
	}
}

// New constructs a Projector with GFM markdown support.
func New(opts ...Option) *Projector {
	p := &Projector{
		logger:    logging.NoOp(),
		markdown:  goldmark.New(goldmark.WithExtensions(extension.GFM)),
		separator: "\n",
	}
	for _, opt := range opts {
		if opt != nil {
			opt(p)
		}
	}
	return p
}

// visible reports whether a layout item is projected for req.
func visible(value *blockvalue.BlockValue, item *blockvalue.LayoutItem, meta *metadata.Metadata, req Request) bool {
	if value.ContentByKey(item.ContentKey) == nil {
		return false
	}
	if !req.Published {
		return true
	}
	return expose.IsExposed(value, item.ContentKey, req.Culture, req.Segment, meta, req.Context)
}

// propertyValue picks the stored value of alias for req. Segment variant
// properties fall back to the default segment.
func propertyValue(item *blockvalue.BlockItemData, propertyType contenttypes.PropertyType, eff variance.Variation, req Request) (*blockvalue.BlockPropertyValue, bool) {
	var fallback *blockvalue.BlockPropertyValue
	for _, value := range item.ValuesFor(propertyType.Alias) {
		if eff.VariesByCulture() {
			if !variance.SameCulture(value.Culture, req.Culture) {
				continue
			}
		} else if value.Culture != nil {
			continue
		}
		if !eff.VariesBySegment() {
			if value.Segment == nil {
				return value, true
			}
			continue
		}
		if variance.SameSegment(value.Segment, req.Segment) {
			return value, true
		}
		if value.Segment == nil && fallback == nil {
			fallback = value
		}
	}
	return fallback, fallback != nil
}

// properties returns the property types of item in sort order together with
// their effective variance. Unknown element types yield nothing.
func properties(item *blockvalue.BlockItemData, meta *metadata.Metadata, vctx variance.Context) []resolvedProperty {
	elementType, ok := meta.ElementType(item.ContentTypeKey)
	if !ok {
		return nil
	}
	out := make([]resolvedProperty, 0, len(elementType.Properties))
	for _, propertyType := range elementType.Properties {
		out = append(out, resolvedProperty{
			PropertyType: propertyType,
			effective:    vctx.Effective(elementType.Variation, propertyType.Variation),
		})
	}
	return out
}

type resolvedProperty struct {
	contenttypes.PropertyType
	effective variance.Variation
}

func (p resolvedProperty) isMarkdown() bool {
	return strings.EqualFold(strings.TrimSpace(p.EditorAlias), MarkdownEditor)
}

func (p *Projector) contextLogger(ctx context.Context) interfaces.Logger {
	if ctx == nil {
		return p.logger
	}
	return p.logger.WithContext(ctx)
}
