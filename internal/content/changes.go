package content

import (
	"context"
	"fmt"
	"strings"

	"github.com/goliatone/go-blockeditor/internal/contenttypes"
	"github.com/goliatone/go-blockeditor/internal/metadata"
)

// HandleContentTypeChange re-resolves the drafts and published snapshots
// affected by a variance change. When an element type or property widens to culture variance,
// invariant exposure is duplicated across every culture before alignment so
// blocks stay visible; values are never duplicated.
func (s *service) HandleContentTypeChange(ctx context.Context, evt contenttypes.ChangeEvent) error {
	if err := s.ready(); err != nil {
		return err
	}
	if evt.Type != contenttypes.ChangeUpdated || evt.ContentType == nil || !evt.VarianceChanged() {
		return nil
	}
	meta, err := s.meta.Snapshot(ctx)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrContentTypeChangeFailed, err)
	}
	docs, err := s.docs.List(ctx)
	if err != nil {
		return fmt.Errorf("%w: list documents: %w", ErrContentTypeChangeFailed, err)
	}

	logger := s.log(ctx)
	widen := evt.CultureWidened()
	typeKey := evt.ContentType.ID.String()
	refreshed := 0
	for _, doc := range docs {
		if doc.ContentTypeID != evt.ContentType.ID && !referencesType(doc, typeKey) {
			continue
		}
		docType, ok := meta.ContentType(doc.ContentTypeID)
		if !ok {
			logger.Warn("content.variance.skipped", "document_id", doc.ID.String(), "reason", "unknown content type")
			continue
		}
		values, err := s.refreshValues(ctx, doc.Values, docType, meta, widen)
		if err != nil {
			return fmt.Errorf("%w: document %s: %w", ErrContentTypeChangeFailed, doc.ID, err)
		}
		doc.Values = values
		if len(doc.Published) > 0 {
			published, err := s.refreshValues(ctx, doc.Published, docType, meta, widen)
			if err != nil {
				return fmt.Errorf("%w: document %s published: %w", ErrContentTypeChangeFailed, doc.ID, err)
			}
			doc.Published = published
		}
		doc.UpdatedAt = s.now()
		if _, err := s.docs.Update(ctx, doc); err != nil {
			return fmt.Errorf("%w: document %s: %w", ErrContentTypeChangeFailed, doc.ID, err)
		}
		refreshed++
	}
	logger.Info("content.variance.refreshed",
		"content_type", evt.ContentType.Alias,
		"widened", widen,
		"documents", refreshed,
	)
	return nil
}

func referencesType(doc *Document, typeKey string) bool {
	for _, value := range doc.Values {
		if strings.Contains(value.Value, typeKey) {
			return true
		}
	}
	return false
}

func (s *service) refreshValues(ctx context.Context, stored []PropertyValue, docType *contenttypes.ContentType, meta *metadata.Metadata, widen bool) ([]PropertyValue, error) {
	var out []PropertyValue
	for _, prop := range documentProperties(docType) {
		for _, value := range propertyValues(stored, prop, meta) {
			if prop.blocks && strings.TrimSpace(value.Value) != "" {
				refreshed, err := s.refreshBlocks(ctx, value.Value, prop, meta, widen)
				if err != nil {
					return nil, err
				}
				value.Value = refreshed
			}
			out = upsertValue(out, value)
		}
	}
	return out, nil
}

func (s *service) refreshBlocks(ctx context.Context, raw string, prop property, meta *metadata.Metadata, widen bool) (string, error) {
	blocks, richText := s.resolveBlocks(ctx, raw, prop, meta)
	if widen {
		s.tracker.WidenTree(blocks, meta, prop.vctx, nil)
	}
	s.tracker.ReconcileTree(ctx, blocks, blocks.Clone(), meta, prop.vctx, nil)
	return s.encodeBlocks(blocks, richText)
}

// Watch applies content type changes from source until ctx is done.
func (s *service) Watch(ctx context.Context, source ChangeSource) {
	if s == nil || source == nil {
		return
	}
	if ctx == nil {
		ctx = context.Background()
	}
	events := source.Subscribe(ctx)
	go func() {
		for evt := range events {
			if err := s.HandleContentTypeChange(ctx, evt); err != nil {
				s.log(ctx).Error("content.variance.failed", "content_type", evt.ContentType.Alias, "error", err)
			}
		}
	}()
}
