package content

import (
	"context"
	"strings"

	"github.com/goliatone/go-blockeditor/internal/blockvalue"
	"github.com/goliatone/go-blockeditor/internal/contenttypes"
	"github.com/goliatone/go-blockeditor/internal/domain"
	"github.com/goliatone/go-blockeditor/internal/metadata"
	"github.com/goliatone/go-blockeditor/internal/variance"
)

// Publish validates the draft for the requested cultures and builds the new
// published snapshot. Cultures outside the request keep their previously
// published values.
func (s *service) Publish(ctx context.Context, req PublishRequest) (*Document, error) {
	doc, meta, docType, err := s.load(ctx, req.ID)
	if err != nil {
		return nil, err
	}
	cultures, err := publishCultures(req.Cultures, docType, meta)
	if err != nil {
		return nil, err
	}

	if !req.SkipValidation {
		if err := s.validateDocument(ctx, doc, docType, meta, cultures); err != nil {
			return nil, err
		}
	}

	published, err := s.splitDocument(ctx, doc, docType, meta, cultures)
	if err != nil {
		return nil, err
	}

	now := s.now()
	doc.Published = published
	if docType.Variation.VariesByCulture() {
		doc.PublishedCultures = mergeCultures(doc.PublishedCultures, cultures)
	} else {
		doc.PublishedCultures = nil
	}
	doc.Status = domain.StatusAfterPublish(doc.Status, docType.Variation.VariesByCulture(), len(doc.PublishedCultures))
	doc.PublishedAt = &now
	doc.UpdatedAt = now

	updated, err := s.docs.Update(ctx, doc)
	if err != nil {
		return nil, err
	}
	s.log(ctx).Info("content.published",
		"document_id", updated.ID.String(),
		"cultures", cultures,
		"published_cultures", updated.PublishedCultures,
	)
	return updated, nil
}

// publishCultures normalizes the requested cultures. Invariant documents
// ignore the list.
func publishCultures(requested []string, docType *contenttypes.ContentType, meta *metadata.Metadata) ([]string, error) {
	if !docType.Variation.VariesByCulture() {
		return nil, nil
	}
	if len(requested) == 0 {
		return meta.Cultures(), nil
	}
	out := make([]string, 0, len(requested))
	for _, code := range requested {
		canonical, ok := meta.NormalizeCulture(code)
		if !ok {
			return nil, ErrUnknownCulture
		}
		out = append(out, canonical)
	}
	return out, nil
}

func (s *service) splitDocument(ctx context.Context, doc *Document, docType *contenttypes.ContentType, meta *metadata.Metadata, cultures []string) ([]PropertyValue, error) {
	publishSet := variance.CultureSet(cultures)
	publishes := func(culture *string) bool {
		if !docType.Variation.VariesByCulture() {
			return true
		}
		_, ok := publishSet[variance.CultureKey(culture)]
		return ok
	}

	var out []PropertyValue
	for _, prop := range documentProperties(docType) {
		drafts := propertyValues(doc.Values, prop, meta)
		previous := propertyValues(doc.Published, prop, meta)

		if prop.effective.VariesByCulture() {
			for _, value := range drafts {
				if publishes(value.Culture) {
					out = append(out, value)
				}
			}
			for _, value := range previous {
				if value.Culture != nil && !publishes(value.Culture) {
					out = append(out, value)
				}
			}
			continue
		}

		for _, value := range drafts {
			if !prop.blocks || strings.TrimSpace(value.Value) == "" {
				out = append(out, value)
				continue
			}
			prior, _ := ValueFor(previous, prop.Alias, nil, value.Segment)
			split, err := s.splitBlocks(ctx, value.Value, prior.Value, prop, meta, cultures)
			if err != nil {
				return nil, err
			}
			value.Value = split
			out = append(out, value)
		}
	}
	return cloneValues(out), nil
}

func (s *service) splitBlocks(ctx context.Context, draft, previous string, prop property, meta *metadata.Metadata, cultures []string) (string, error) {
	editedBlocks, editedText := s.resolveBlocks(ctx, draft, prop, meta)
	var previousBlocks *blockvalue.BlockValue
	var previousText *blockvalue.RichTextValue
	if strings.TrimSpace(previous) != "" {
		previousBlocks, previousText = s.resolveBlocks(ctx, previous, prop, meta)
	}
	if editedText != nil {
		return s.encodeBlocks(nil, s.splitter.SplitRichText(ctx, editedText, previousText, meta, prop.vctx, cultures))
	}
	return s.encodeBlocks(s.splitter.Split(ctx, editedBlocks, previousBlocks, meta, prop.vctx, cultures), nil)
}

func mergeCultures(existing, added []string) []string {
	out := append([]string(nil), existing...)
	seen := variance.CultureSet(existing)
	for _, code := range added {
		key := strings.ToLower(code)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, code)
	}
	return out
}
