package content

import (
	"context"
	"errors"
	"strings"

	"github.com/goliatone/go-blockeditor/internal/contenttypes"
	"github.com/goliatone/go-blockeditor/internal/metadata"
	"github.com/goliatone/go-blockeditor/internal/projection"
	"github.com/goliatone/go-blockeditor/internal/validation"
	"github.com/goliatone/go-blockeditor/internal/variance"
)

// Validate checks the draft of a document for the requested cultures.
func (s *service) Validate(ctx context.Context, req ValidateRequest) error {
	doc, meta, docType, err := s.load(ctx, req.ID)
	if err != nil {
		return err
	}
	cultures, err := publishCultures(req.Cultures, docType, meta)
	if err != nil {
		return err
	}
	return s.validateDocument(ctx, doc, docType, meta, cultures)
}

func (s *service) validateDocument(ctx context.Context, doc *Document, docType *contenttypes.ContentType, meta *metadata.Metadata, cultures []string) error {
	targets := []*string{nil}
	if docType.Variation.VariesByCulture() {
		targets = targets[:0]
		for _, code := range cultures {
			culture := code
			targets = append(targets, &culture)
		}
	}

	var issues []validation.Issue
	for _, prop := range documentProperties(docType) {
		stored := propertyValues(doc.Values, prop, meta)
		checked := map[string]struct{}{}
		for _, culture := range targets {
			var valueCulture *string
			if prop.effective.VariesByCulture() {
				valueCulture = culture
			}
			key := variance.CultureKey(valueCulture)
			if _, ok := checked[key]; ok {
				continue
			}
			checked[key] = struct{}{}

			value, ok := ValueFor(stored, prop.Alias, valueCulture, nil)
			if !ok || strings.TrimSpace(value.Value) == "" {
				if prop.Mandatory {
					issues = appendIssue(issues, validation.Issue{
						Property: prop.Alias,
						Culture:  valueCulture,
						JSONPath: "$",
						Code:     validation.CodeRequired,
						Message:  "cannot be blank",
					})
				}
				continue
			}
			if !prop.blocks {
				continue
			}

			blockCultures := cultures
			if valueCulture != nil {
				blockCultures = []string{*valueCulture}
			}
			found, err := s.validateBlocks(ctx, value.Value, prop, meta, blockCultures)
			if err != nil {
				return err
			}
			for _, issue := range found {
				issues = appendIssue(issues, issue)
			}
		}
	}
	if len(issues) == 0 {
		return nil
	}
	s.log(ctx).Warn("content.validation.failed", "document_id", doc.ID.String(), "issues", len(issues))
	return &validation.ValidationError{Issues: issues}
}

func (s *service) validateBlocks(ctx context.Context, raw string, prop property, meta *metadata.Metadata, cultures []string) ([]validation.Issue, error) {
	if err := s.validator.ValidateJSON([]byte(raw), prop.family); err != nil {
		return stampIssues(err, prop.Alias)
	}
	req := validation.Request{Cultures: cultures, Context: prop.vctx}
	blocks, richText := s.resolveBlocks(ctx, raw, prop, meta)
	if richText != nil {
		return stampIssues(s.validator.ValidateRichText(ctx, richText, meta, req), prop.Alias)
	}
	return stampIssues(s.validator.ValidateValue(ctx, blocks, meta, req), prop.Alias)
}

func stampIssues(err error, alias string) ([]validation.Issue, error) {
	if err == nil {
		return nil, nil
	}
	var validationErr *validation.ValidationError
	if !errors.As(err, &validationErr) {
		return nil, err
	}
	out := make([]validation.Issue, 0, len(validationErr.Issues))
	for _, issue := range validationErr.Issues {
		issue.Property = alias
		out = append(out, issue)
	}
	return out, nil
}

func appendIssue(issues []validation.Issue, issue validation.Issue) []validation.Issue {
	for _, existing := range issues {
		if existing.Property == issue.Property && existing.JSONPath == issue.JSONPath &&
			variance.SameCulture(existing.Culture, issue.Culture) && existing.Code == issue.Code {
			return issues
		}
	}
	return append(issues, issue)
}

// Index returns the search text of a document variant.
func (s *service) Index(ctx context.Context, req ProjectRequest) (string, error) {
	doc, meta, docType, err := s.load(ctx, req.ID)
	if err != nil {
		return "", err
	}
	values, err := projectedValues(doc, docType, req)
	if err != nil {
		return "", err
	}

	var parts []string
	for _, prop := range documentProperties(docType) {
		value, ok := pickValue(propertyValues(values, prop, meta), prop, variance.Ptr(req.Culture), variance.Ptr(req.Segment))
		if !ok || strings.TrimSpace(value.Value) == "" {
			continue
		}
		text := s.propertyText(ctx, value, prop, meta, req)
		if text != "" {
			parts = append(parts, text)
		}
	}
	return strings.Join(parts, "\n"), nil
}

func (s *service) propertyText(ctx context.Context, value PropertyValue, prop property, meta *metadata.Metadata, req ProjectRequest) string {
	if !prop.blocks {
		return s.projector.ProjectPropertyText(ctx, prop.EditorAlias, value.Value)
	}
	projectReq := projectionRequest(prop, req)
	blocks, richText := s.resolveBlocks(ctx, value.Value, prop, meta)
	if richText != nil {
		return s.projector.ProjectRichTextText(ctx, richText, meta, projectReq)
	}
	return s.projector.ProjectText(ctx, blocks, meta, projectReq)
}

// Render returns the render model of a document variant keyed by property
// alias. Block properties become element trees.
func (s *service) Render(ctx context.Context, req ProjectRequest) (map[string]any, error) {
	doc, meta, docType, err := s.load(ctx, req.ID)
	if err != nil {
		return nil, err
	}
	values, err := projectedValues(doc, docType, req)
	if err != nil {
		return nil, err
	}

	out := map[string]any{}
	for _, prop := range documentProperties(docType) {
		value, ok := pickValue(propertyValues(values, prop, meta), prop, variance.Ptr(req.Culture), variance.Ptr(req.Segment))
		if !ok {
			continue
		}
		if !prop.blocks {
			out[prop.Alias] = value.Value
			continue
		}
		projectReq := projectionRequest(prop, req)
		blocks, richText := s.resolveBlocks(ctx, value.Value, prop, meta)
		if richText != nil {
			out[prop.Alias] = s.projector.ProjectRichText(ctx, richText, meta, projectReq)
			continue
		}
		out[prop.Alias] = s.projector.ProjectElements(ctx, blocks, meta, projectReq)
	}
	return out, nil
}

func projectedValues(doc *Document, docType *contenttypes.ContentType, req ProjectRequest) ([]PropertyValue, error) {
	if !req.Published {
		return doc.Values, nil
	}
	if docType.Variation.VariesByCulture() && !doc.IsCulturePublished(req.Culture) {
		return nil, ErrCultureNotPublished
	}
	if !doc.Status.IsPublished() {
		return nil, ErrCultureNotPublished
	}
	return doc.Published, nil
}

func projectionRequest(prop property, req ProjectRequest) projection.Request {
	return projection.Request{
		Culture:   variance.Ptr(req.Culture),
		Segment:   variance.Ptr(req.Segment),
		Published: req.Published,
		Context:   prop.vctx,
	}
}
