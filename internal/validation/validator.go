package validation

import (
	"context"
	"errors"
	"regexp"
	"strings"

	ozzo "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/google/uuid"

	"github.com/goliatone/go-blockeditor/internal/blockvalue"
	"github.com/goliatone/go-blockeditor/internal/contenttypes"
	"github.com/goliatone/go-blockeditor/internal/expose"
	"github.com/goliatone/go-blockeditor/internal/logging"
	"github.com/goliatone/go-blockeditor/internal/metadata"
	"github.com/goliatone/go-blockeditor/internal/variance"
	"github.com/goliatone/go-blockeditor/pkg/interfaces"
)

// Request selects what a validation run covers.
type Request struct {
	// Cultures to validate. Empty means every configured culture.
	Cultures []string
	Segment  *string
	Context  variance.Context
}

// Validator checks mandatory and pattern rules of block properties. Blocks
// that are not exposed for a validated culture are skipped.
type Validator struct {
	logger interfaces.Logger
}

// Option configures a Validator.
type Option func(*Validator)

// WithLogger sets the validator logger.
func WithLogger(logger interfaces.Logger) Option {
	return func(v *Validator) {
		v.logger = logging.OrNoOp(logger)
	}
}

// New constructs a Validator.
func New(opts ...Option) *Validator {
	v := &Validator{logger: logging.NoOp()}
	for _, opt := range opts {
		if opt != nil {
			opt(v)
		}
	}
	return v
}

// ValidateJSON checks the envelope of a stored value before it is decoded.
func (v *Validator) ValidateJSON(data []byte, editor blockvalue.EditorAlias) error {
	if err := blockvalue.CheckEnvelope(data, editor); err != nil {
		return &ValidationError{
			Issues: []Issue{{JSONPath: rootPath, Code: CodeEnvelope, Message: err.Error()}},
			Cause:  errors.Join(ErrEnvelopeInvalid, err),
		}
	}
	return nil
}

// ValidateValue validates value and every nested value. It returns a
// *ValidationError when at least one rule fails.
func (v *Validator) ValidateValue(ctx context.Context, value *blockvalue.BlockValue, meta *metadata.Metadata, req Request) error {
	run := v.newRun(meta, req)
	run.value(value, rootPath, req.Context, run.cultures)
	return v.finish(ctx, run)
}

// ValidateRichText validates the blocks of a rich text value.
func (v *Validator) ValidateRichText(ctx context.Context, value *blockvalue.RichTextValue, meta *metadata.Metadata, req Request) error {
	run := v.newRun(meta, req)
	if value != nil {
		run.value(value.Blocks, rootPath+".blocks", req.Context, run.cultures)
	}
	return v.finish(ctx, run)
}

func (v *Validator) newRun(meta *metadata.Metadata, req Request) *run {
	r := &run{
		meta:     meta,
		segment:  req.Segment,
		seen:     map[string]struct{}{},
		patterns: map[string]*regexp.Regexp{},
		logger:   v.logger,
	}
	if !req.Context.Owner.VariesByCulture() {
		r.cultures = []*string{nil}
		return r
	}
	codes := req.Cultures
	if len(codes) == 0 {
		codes = meta.Cultures()
	}
	for _, code := range codes {
		if canonical, ok := meta.NormalizeCulture(code); ok {
			r.cultures = append(r.cultures, &canonical)
		}
	}
	if len(r.cultures) == 0 {
		r.cultures = []*string{nil}
	}
	return r
}

func (v *Validator) finish(ctx context.Context, r *run) error {
	logger := v.logger
	if ctx != nil {
		logger = logger.WithContext(ctx)
	}
	logger.Debug("validation.completed", "issues", len(r.issues))
	if len(r.issues) == 0 {
		return nil
	}
	return &ValidationError{Issues: r.issues}
}

type run struct {
	meta     *metadata.Metadata
	cultures []*string
	segment  *string
	issues   []Issue
	seen     map[string]struct{}
	patterns map[string]*regexp.Regexp
	logger   interfaces.Logger
}

func (r *run) value(value *blockvalue.BlockValue, path string, vctx variance.Context, cultures []*string) {
	if value == nil {
		return
	}
	visited := map[uuid.UUID]struct{}{}
	value.WalkLayout(func(layout *blockvalue.LayoutItem, _ int) bool {
		if _, dup := visited[layout.ContentKey]; dup {
			return true
		}
		visited[layout.ContentKey] = struct{}{}

		index := value.ContentIndex(layout.ContentKey)
		if index < 0 {
			return true
		}
		for _, culture := range cultures {
			if !expose.IsExposed(value, layout.ContentKey, culture, r.segment, r.meta, vctx) {
				continue
			}
			content := value.ContentData[index]
			r.item(content, itemPath(path, "contentData", index), vctx, culture)
			if layout.SettingsKey != nil {
				if settingsIndex := settingsIndex(value, *layout.SettingsKey); settingsIndex >= 0 {
					r.item(value.SettingsData[settingsIndex], itemPath(path, "settingsData", settingsIndex), vctx, culture)
				}
			}
		}
		return true
	})
}

func (r *run) item(item *blockvalue.BlockItemData, path string, vctx variance.Context, culture *string) {
	elementType, ok := r.meta.ElementType(item.ContentTypeKey)
	if !ok {
		return
	}
	for _, propertyType := range elementType.Properties {
		eff := vctx.Effective(elementType.Variation, propertyType.Variation)
		var valueCulture, valueSegment *string
		if eff.VariesByCulture() {
			valueCulture = culture
		}
		if eff.VariesBySegment() {
			valueSegment = r.segment
		}
		stored := findValue(item, propertyType.Alias, valueCulture, valueSegment)
		propertyPath := valuePath(path, propertyType.Alias, valueCulture, valueSegment)

		var raw any
		if stored != nil {
			raw = stored.Value
		}
		r.rules(propertyType, raw, propertyPath, valueCulture, valueSegment)

		if stored == nil {
			continue
		}
		nested, ok := blockvalue.Nested(propertyType.EditorAlias, stored.Value, r.logger)
		if !ok {
			continue
		}
		blocks, richText := blockvalue.NestedBlocks(nested)
		nestedPath := propertyPath
		if richText != nil {
			nestedPath += ".blocks"
		}
		r.value(blocks, nestedPath, vctx.Nested(eff), []*string{culture})
	}
}

func (r *run) rules(propertyType contenttypes.PropertyType, raw any, path string, culture, segment *string) {
	if propertyType.Mandatory {
		if err := ozzo.Validate(requiredValue(propertyType, raw), ozzo.Required); err != nil {
			r.add(propertyType.Alias, culture, segment, path, CodeRequired, err)
			return
		}
	}
	pattern := strings.TrimSpace(propertyType.Pattern)
	if pattern == "" {
		return
	}
	text, ok := raw.(string)
	if !ok || text == "" {
		return
	}
	re, ok := r.patterns[pattern]
	if !ok {
		compiled, err := regexp.Compile(pattern)
		if err != nil {
			r.logger.Warn("validation.pattern.invalid", "alias", propertyType.Alias, "error", err)
			return
		}
		re = compiled
		r.patterns[pattern] = re
	}
	if err := ozzo.Validate(text, ozzo.Match(re)); err != nil {
		r.add(propertyType.Alias, culture, segment, path, CodePattern, err)
	}
}

// requiredValue maps empty block values to nil so Required rejects them.
func requiredValue(propertyType contenttypes.PropertyType, raw any) any {
	if raw == nil {
		return nil
	}
	if text, ok := raw.(string); ok {
		return strings.TrimSpace(text)
	}
	nested, ok := blockvalue.Nested(propertyType.EditorAlias, raw, nil)
	if !ok {
		return raw
	}
	blocks, richText := blockvalue.NestedBlocks(nested)
	if richText != nil && strings.TrimSpace(richText.Markup) != "" {
		return richText.Markup
	}
	if blocks == nil || len(blocks.Layout) == 0 {
		return nil
	}
	return blocks.Layout
}

func (r *run) add(alias string, culture, segment *string, path, code string, err error) {
	if _, dup := r.seen[path]; dup {
		return
	}
	r.seen[path] = struct{}{}
	message := err.Error()
	var ozzoErr ozzo.Error
	if errors.As(err, &ozzoErr) {
		message = ozzoErr.Message()
	}
	r.issues = append(r.issues, Issue{
		PropertyAlias: alias,
		Culture:       culture,
		Segment:       segment,
		JSONPath:      path,
		Code:          code,
		Message:       message,
	})
}

func findValue(item *blockvalue.BlockItemData, alias string, culture, segment *string) *blockvalue.BlockPropertyValue {
	for _, value := range item.ValuesFor(alias) {
		if variance.SameCulture(value.Culture, culture) && variance.SameSegment(value.Segment, segment) {
			return value
		}
	}
	return nil
}

func settingsIndex(value *blockvalue.BlockValue, key uuid.UUID) int {
	for i, item := range value.SettingsData {
		if item != nil && item.Key == key {
			return i
		}
	}
	return -1
}
