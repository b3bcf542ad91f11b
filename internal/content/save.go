package content

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"

	"github.com/goliatone/go-blockeditor/internal/contenttypes"
	"github.com/goliatone/go-blockeditor/internal/domain"
	"github.com/goliatone/go-blockeditor/internal/metadata"
	"github.com/goliatone/go-blockeditor/internal/variance"
)

// Save resolves every block property of the submitted draft against the
// current element types, reconciles exposure and stores the draft.
func (s *service) Save(ctx context.Context, req SaveRequest) (*Document, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	meta, err := s.meta.Snapshot(ctx)
	if err != nil {
		return nil, err
	}

	var existing *Document
	if req.ID != uuid.Nil {
		existing, err = s.docs.GetByID(ctx, req.ID)
		var notFound *NotFoundError
		if err != nil && !errors.As(err, &notFound) {
			return nil, err
		}
	}

	docType, err := s.documentType(meta, req, existing)
	if err != nil {
		return nil, err
	}

	slug := req.Slug
	if slug == "" && existing != nil {
		slug = existing.Slug
	}
	slug, err = deriveSlug(slug, req.Name)
	if err != nil {
		return nil, err
	}
	if other, lookupErr := s.docs.GetBySlug(ctx, slug); lookupErr == nil && other != nil {
		if existing == nil || other.ID != existing.ID {
			return nil, ErrSlugExists
		}
	}

	edited, err := normalizeEdited(req.EditedCultures, meta)
	if err != nil {
		return nil, err
	}

	var previousValues []PropertyValue
	if existing != nil {
		previousValues = existing.Values
	}
	values, err := s.mergeValues(ctx, req.Values, previousValues, docType, meta, edited)
	if err != nil {
		return nil, err
	}

	now := s.now()
	logger := s.log(ctx)
	if existing == nil {
		id := req.ID
		if id == uuid.Nil {
			id = s.id()
		}
		doc := &Document{
			ID:            id,
			ContentTypeID: docType.ID,
			Slug:          slug,
			Name:          strings.TrimSpace(req.Name),
			Status:        domain.StatusDraft,
			Values:        values,
			CreatedAt:     now,
			UpdatedAt:     now,
		}
		created, err := s.docs.Create(ctx, doc)
		if err != nil {
			return nil, err
		}
		logger.Info("content.created", "document_id", created.ID.String(), "slug", created.Slug, "content_type", docType.Alias)
		return created, nil
	}

	existing.ContentTypeID = docType.ID
	existing.Slug = slug
	if name := strings.TrimSpace(req.Name); name != "" {
		existing.Name = name
	}
	existing.Values = values
	existing.UpdatedAt = now
	updated, err := s.docs.Update(ctx, existing)
	if err != nil {
		return nil, err
	}
	logger.Info("content.saved", "document_id", updated.ID.String(), "edited_cultures", edited)
	return updated, nil
}

// documentType picks the type named by the request, falling back to the
// type of the stored document on updates.
func (s *service) documentType(meta *metadata.Metadata, req SaveRequest, existing *Document) (*contenttypes.ContentType, error) {
	var (
		docType *contenttypes.ContentType
		ok      bool
	)
	switch {
	case req.ContentTypeID != uuid.Nil:
		docType, ok = meta.ContentType(req.ContentTypeID)
	case strings.TrimSpace(req.ContentTypeAlias) != "":
		docType, ok = meta.ElementTypeByAlias(req.ContentTypeAlias)
	case existing != nil:
		docType, ok = meta.ContentType(existing.ContentTypeID)
	}
	if !ok {
		return nil, ErrContentTypeRequired
	}
	if docType.IsElement {
		return nil, ErrElementTypeNotDocument
	}
	return docType, nil
}

func normalizeEdited(codes []string, meta *metadata.Metadata) ([]string, error) {
	out := make([]string, 0, len(codes))
	for _, code := range codes {
		if strings.TrimSpace(code) == "" {
			continue
		}
		canonical, ok := meta.NormalizeCulture(code)
		if !ok {
			return nil, ErrUnknownCulture
		}
		out = append(out, canonical)
	}
	return out, nil
}

// mergeValues builds the stored draft values. Culture tagged values of
// cultures outside edited are kept from previous.
func (s *service) mergeValues(ctx context.Context, submitted, previous []PropertyValue, docType *contenttypes.ContentType, meta *metadata.Metadata, edited []string) ([]PropertyValue, error) {
	editedSet := variance.CultureSet(edited)
	isEdited := func(culture *string) bool {
		if culture == nil || len(editedSet) == 0 {
			return true
		}
		_, ok := editedSet[variance.CultureKey(culture)]
		return ok
	}

	var out []PropertyValue
	for _, prop := range documentProperties(docType) {
		aligned := propertyValues(submitted, prop, meta)
		kept := propertyValues(previous, prop, meta)

		var merged []PropertyValue
		for _, value := range aligned {
			if !isEdited(value.Culture) {
				continue
			}
			if prop.blocks {
				prior, _ := ValueFor(kept, prop.Alias, value.Culture, value.Segment)
				normalized, err := s.normalizeBlocks(ctx, value.Value, prior.Value, prop, meta, edited)
				if err != nil {
					return nil, err
				}
				value.Value = normalized
			}
			merged = upsertValue(merged, value)
		}
		for _, value := range kept {
			if isEdited(value.Culture) {
				continue
			}
			merged = upsertValue(merged, value)
		}
		out = append(out, merged...)
	}
	return out, nil
}
