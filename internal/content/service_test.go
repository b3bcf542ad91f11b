package content_test

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/goliatone/go-blockeditor/internal/blocktest"
	"github.com/goliatone/go-blockeditor/internal/blockvalue"
	"github.com/goliatone/go-blockeditor/internal/content"
	"github.com/goliatone/go-blockeditor/internal/contenttypes"
	"github.com/goliatone/go-blockeditor/internal/domain"
	"github.com/goliatone/go-blockeditor/internal/identity"
	"github.com/goliatone/go-blockeditor/internal/metadata"
	"github.com/goliatone/go-blockeditor/internal/projection"
	"github.com/goliatone/go-blockeditor/internal/validation"
	"github.com/goliatone/go-blockeditor/internal/variance"
)

var cultureCodes = []string{"en-US", "da-DK"}

type staticMeta struct {
	mu   sync.Mutex
	meta *metadata.Metadata
}

func (s *staticMeta) Snapshot(context.Context) (*metadata.Metadata, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.meta, nil
}

func (s *staticMeta) set(meta *metadata.Metadata) {
	s.mu.Lock()
	s.meta = meta
	s.mu.Unlock()
}

func pageType(v variance.Variation, props ...contenttypes.PropertyType) *contenttypes.ContentType {
	return &contenttypes.ContentType{
		ID:         identity.ContentTypeUUID("page"),
		Alias:      "page",
		Variation:  v,
		Properties: props,
	}
}

func fixedClock() func() time.Time {
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	return func() time.Time { return now }
}

func newService(t *testing.T, source *staticMeta) content.Service {
	t.Helper()
	return content.NewService(content.NewMemoryRepository(), source, content.WithClock(fixedClock()))
}

func marshal(t *testing.T, value *blockvalue.BlockValue) string {
	t.Helper()
	data, err := blockvalue.Marshal(value)
	if err != nil {
		t.Fatalf("marshal block value: %v", err)
	}
	return data
}

func decode(t *testing.T, raw string) *blockvalue.BlockValue {
	t.Helper()
	value, err := blockvalue.Parse([]byte(raw), blockvalue.BlockList)
	if err != nil {
		t.Fatalf("parse block value: %v", err)
	}
	return value
}

func storedBlocks(t *testing.T, values []content.PropertyValue) *blockvalue.BlockValue {
	t.Helper()
	value, ok := content.ValueFor(values, "blocks", nil, nil)
	if !ok {
		t.Fatal("expected a stored blocks value")
	}
	return decode(t, value.Value)
}

func TestServicePublishesBlockCulturesIndependently(t *testing.T) {
	ctx := context.Background()
	element := blocktest.Element("text", variance.Culture, blocktest.Prop("title", "", variance.Culture))
	page := pageType(variance.Culture,
		blocktest.Prop("title", "", variance.Culture),
		blocktest.Prop("blocks", string(blockvalue.BlockList), variance.Nothing),
	)
	source := &staticMeta{meta: blocktest.Meta([]*contenttypes.ContentType{element, page}, cultureCodes, "en-US")}
	svc := newService(t, source)

	key := blocktest.Key(1)
	first := blocktest.Value(blockvalue.BlockList, blocktest.Layout(key),
		[]*blockvalue.BlockItemData{blocktest.Item(key, element, blocktest.Val("title", "en-US", "", "Hello"))},
		blocktest.Expose(key, "en-US", ""),
	)
	doc, err := svc.Save(ctx, content.SaveRequest{
		ContentTypeAlias: "page",
		Name:             "Home Page",
		Values: []content.PropertyValue{
			{Alias: "title", Culture: variance.Ptr("en-US"), Value: "Home"},
			{Alias: "blocks", Value: marshal(t, first)},
		},
	})
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if doc.Slug != "home-page" {
		t.Fatalf("expected derived slug, got %q", doc.Slug)
	}

	if _, err := svc.Publish(ctx, content.PublishRequest{ID: doc.ID, Cultures: []string{"en-US"}}); err != nil {
		t.Fatalf("publish en-US: %v", err)
	}
	text, err := svc.Index(ctx, content.ProjectRequest{ID: doc.ID, Culture: "en-US", Published: true})
	if err != nil {
		t.Fatalf("index en-US: %v", err)
	}
	if !strings.Contains(text, "Home") || !strings.Contains(text, "Hello") {
		t.Fatalf("unexpected en-US index text %q", text)
	}
	if _, err := svc.Index(ctx, content.ProjectRequest{ID: doc.ID, Culture: "da-DK", Published: true}); !errors.Is(err, content.ErrCultureNotPublished) {
		t.Fatalf("expected ErrCultureNotPublished, got %v", err)
	}

	second := blocktest.Value(blockvalue.BlockList, blocktest.Layout(key),
		[]*blockvalue.BlockItemData{blocktest.Item(key, element,
			blocktest.Val("title", "en-US", "", "Hello draft"),
			blocktest.Val("title", "da-DK", "", "Hej"),
		)},
		blocktest.Expose(key, "en-US", ""),
		blocktest.Expose(key, "da-DK", ""),
	)
	if _, err := svc.Save(ctx, content.SaveRequest{
		ID:             doc.ID,
		ContentTypeID:  page.ID,
		EditedCultures: []string{"da-dk"},
		Values: []content.PropertyValue{
			{Alias: "title", Culture: variance.Ptr("da-DK"), Value: "Hjem"},
			{Alias: "blocks", Value: marshal(t, second)},
		},
	}); err != nil {
		t.Fatalf("save da-DK: %v", err)
	}

	published, err := svc.Publish(ctx, content.PublishRequest{ID: doc.ID, Cultures: []string{"da-DK"}})
	if err != nil {
		t.Fatalf("publish da-DK: %v", err)
	}
	if published.Status != domain.StatusPublished {
		t.Fatalf("expected published status, got %q", published.Status)
	}
	if len(published.PublishedCultures) != 2 {
		t.Fatalf("expected two published cultures, got %v", published.PublishedCultures)
	}

	danish, err := svc.Index(ctx, content.ProjectRequest{ID: doc.ID, Culture: "da-DK", Published: true})
	if err != nil {
		t.Fatalf("index da-DK: %v", err)
	}
	if !strings.Contains(danish, "Hjem") || !strings.Contains(danish, "Hej") {
		t.Fatalf("unexpected da-DK index text %q", danish)
	}
	english, err := svc.Index(ctx, content.ProjectRequest{ID: doc.ID, Culture: "en-US", Published: true})
	if err != nil {
		t.Fatalf("index en-US: %v", err)
	}
	if strings.Contains(english, "Hello draft") || !strings.Contains(english, "Hello") {
		t.Fatalf("en-US publish leaked the unpublished draft: %q", english)
	}

	draft, err := svc.Index(ctx, content.ProjectRequest{ID: doc.ID, Culture: "en-US"})
	if err != nil {
		t.Fatalf("draft index: %v", err)
	}
	if !strings.Contains(draft, "Hello draft") {
		t.Fatalf("draft index should read the draft, got %q", draft)
	}
}

func TestServiceRemovingBlockInOneCultureKeepsOthersPublished(t *testing.T) {
	ctx := context.Background()
	element := blocktest.Element("text", variance.Culture, blocktest.Prop("title", "", variance.Culture))
	page := pageType(variance.Culture, blocktest.Prop("blocks", string(blockvalue.BlockList), variance.Nothing))
	source := &staticMeta{meta: blocktest.Meta([]*contenttypes.ContentType{element, page}, cultureCodes, "en-US")}
	svc := newService(t, source)

	key := blocktest.Key(1)
	value := blocktest.Value(blockvalue.BlockList, blocktest.Layout(key),
		[]*blockvalue.BlockItemData{blocktest.Item(key, element,
			blocktest.Val("title", "en-US", "", "Hello"),
			blocktest.Val("title", "da-DK", "", "Hej"),
		)},
		blocktest.Expose(key, "en-US", ""),
		blocktest.Expose(key, "da-DK", ""),
	)
	doc, err := svc.Save(ctx, content.SaveRequest{
		ContentTypeAlias: "page",
		Name:             "About",
		Values:           []content.PropertyValue{{Alias: "blocks", Value: marshal(t, value)}},
	})
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if _, err := svc.Publish(ctx, content.PublishRequest{ID: doc.ID}); err != nil {
		t.Fatalf("publish all: %v", err)
	}

	emptied := blocktest.Value(blockvalue.BlockList, nil, nil)
	if _, err := svc.Save(ctx, content.SaveRequest{
		ID:             doc.ID,
		ContentTypeID:  page.ID,
		EditedCultures: []string{"en-US"},
		Values:         []content.PropertyValue{{Alias: "blocks", Value: marshal(t, emptied)}},
	}); err != nil {
		t.Fatalf("save removal: %v", err)
	}
	if _, err := svc.Publish(ctx, content.PublishRequest{ID: doc.ID, Cultures: []string{"en-US"}}); err != nil {
		t.Fatalf("publish en-US: %v", err)
	}

	english, err := svc.Index(ctx, content.ProjectRequest{ID: doc.ID, Culture: "en-US", Published: true})
	if err != nil {
		t.Fatalf("index en-US: %v", err)
	}
	if strings.Contains(english, "Hello") {
		t.Fatalf("removed block still indexed for en-US: %q", english)
	}
	danish, err := svc.Index(ctx, content.ProjectRequest{ID: doc.ID, Culture: "da-DK", Published: true})
	if err != nil {
		t.Fatalf("index da-DK: %v", err)
	}
	if !strings.Contains(danish, "Hej") {
		t.Fatalf("da-DK lost its published block: %q", danish)
	}
}

func TestServicePublishReportsNestedValidationPath(t *testing.T) {
	ctx := context.Background()
	child := blocktest.Element("child", variance.Culture, blocktest.Mandatory(blocktest.Prop("title", "", variance.Culture)))
	parent := blocktest.Element("parent", variance.Culture, blocktest.Prop("items", string(blockvalue.BlockList), variance.Nothing))
	page := pageType(variance.Culture, blocktest.Prop("blocks", string(blockvalue.BlockList), variance.Nothing))
	source := &staticMeta{meta: blocktest.Meta([]*contenttypes.ContentType{child, parent, page}, cultureCodes, "en-US")}
	svc := newService(t, source)

	childKey, parentKey := blocktest.Key(2), blocktest.Key(1)
	nested := blocktest.Value(blockvalue.BlockList, blocktest.Layout(childKey),
		[]*blockvalue.BlockItemData{blocktest.Item(childKey, child, blocktest.Val("title", "en-US", "", "Only english"))},
		blocktest.Expose(childKey, "en-US", ""),
		blocktest.Expose(childKey, "da-DK", ""),
	)
	root := blocktest.Value(blockvalue.BlockList, blocktest.Layout(parentKey),
		[]*blockvalue.BlockItemData{blocktest.Item(parentKey, parent, blocktest.Val("items", "", "", nested))},
		blocktest.Expose(parentKey, "en-US", ""),
		blocktest.Expose(parentKey, "da-DK", ""),
	)
	doc, err := svc.Save(ctx, content.SaveRequest{
		ContentTypeAlias: "page",
		Name:             "Nested",
		Values:           []content.PropertyValue{{Alias: "blocks", Value: marshal(t, root)}},
	})
	if err != nil {
		t.Fatalf("save: %v", err)
	}

	if err := svc.Validate(ctx, content.ValidateRequest{ID: doc.ID, Cultures: []string{"en-US"}}); err != nil {
		t.Fatalf("en-US should be valid: %v", err)
	}

	_, err = svc.Publish(ctx, content.PublishRequest{ID: doc.ID, Cultures: []string{"da-DK"}})
	if !errors.Is(err, validation.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	issues := validation.Issues(err)
	if len(issues) != 1 {
		t.Fatalf("expected one issue, got %+v", issues)
	}
	want := "$.contentData[0].values[?(@.alias == 'items' && @.culture == null && @.segment == null)].value" +
		".contentData[0].values[?(@.alias == 'title' && @.culture == 'da-DK' && @.segment == null)].value"
	if issues[0].JSONPath != want {
		t.Fatalf("unexpected path\n got: %s\nwant: %s", issues[0].JSONPath, want)
	}
	if issues[0].Property != "blocks" || issues[0].Code != validation.CodeRequired {
		t.Fatalf("unexpected issue %+v", issues[0])
	}
}

func TestServiceRenderBuildsElementTree(t *testing.T) {
	ctx := context.Background()
	element := blocktest.Element("text", variance.Nothing, blocktest.Prop("title", "", variance.Nothing))
	page := pageType(variance.Nothing,
		blocktest.Prop("title", "", variance.Nothing),
		blocktest.Prop("blocks", string(blockvalue.BlockList), variance.Nothing),
	)
	source := &staticMeta{meta: blocktest.Meta([]*contenttypes.ContentType{element, page}, cultureCodes, "en-US")}
	svc := newService(t, source)

	key := blocktest.Key(1)
	value := blocktest.Value(blockvalue.BlockList, blocktest.Layout(key),
		[]*blockvalue.BlockItemData{blocktest.Item(key, element, blocktest.Val("title", "", "", "Block title"))},
	)
	doc, err := svc.Save(ctx, content.SaveRequest{
		ContentTypeAlias: "page",
		Slug:             "render-me",
		Values: []content.PropertyValue{
			{Alias: "title", Value: "Page title"},
			{Alias: "blocks", Value: marshal(t, value)},
		},
	})
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if _, err := svc.Publish(ctx, content.PublishRequest{ID: doc.ID}); err != nil {
		t.Fatalf("publish: %v", err)
	}

	model, err := svc.Render(ctx, content.ProjectRequest{ID: doc.ID, Published: true})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if model["title"] != "Page title" {
		t.Fatalf("unexpected title %v", model["title"])
	}
	elements, ok := model["blocks"].([]*projection.Element)
	if !ok || len(elements) != 1 {
		t.Fatalf("expected one rendered element, got %#v", model["blocks"])
	}
	if elements[0].Key != key || elements[0].Properties["title"] != "Block title" {
		t.Fatalf("unexpected element %+v", elements[0])
	}
}

func TestServiceWidensExposureWhenElementBecomesCultureVariant(t *testing.T) {
	ctx := context.Background()
	before := blocktest.Element("text", variance.Nothing, blocktest.Prop("title", "", variance.Nothing))
	page := pageType(variance.Culture, blocktest.Prop("blocks", string(blockvalue.BlockList), variance.Nothing))
	source := &staticMeta{meta: blocktest.Meta([]*contenttypes.ContentType{before, page}, cultureCodes, "en-US")}
	svc := newService(t, source)

	key := blocktest.Key(1)
	value := blocktest.Value(blockvalue.BlockList, blocktest.Layout(key),
		[]*blockvalue.BlockItemData{blocktest.Item(key, before, blocktest.Val("title", "", "", "Hello"))},
		blocktest.Expose(key, "", ""),
	)
	doc, err := svc.Save(ctx, content.SaveRequest{
		ContentTypeAlias: "page",
		Name:             "Widen",
		Values:           []content.PropertyValue{{Alias: "blocks", Value: marshal(t, value)}},
	})
	if err != nil {
		t.Fatalf("save: %v", err)
	}

	after := blocktest.Element("text", variance.Culture, blocktest.Prop("title", "", variance.Culture))
	source.set(blocktest.Meta([]*contenttypes.ContentType{after, page}, cultureCodes, "en-US"))

	evt := contenttypes.ChangeEvent{Type: contenttypes.ChangeUpdated, ContentType: after, Previous: before}
	if err := svc.HandleContentTypeChange(ctx, evt); err != nil {
		t.Fatalf("handle change: %v", err)
	}

	stored, err := svc.Get(ctx, doc.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	blocks := storedBlocks(t, stored.Values)
	exposed := map[string]bool{}
	for _, entry := range blocks.ExposeFor(key) {
		exposed[variance.Deref(entry.Culture)] = true
	}
	if !exposed["en-US"] || !exposed["da-DK"] || len(exposed) != 2 {
		t.Fatalf("expected exposure in both cultures, got %+v", blocks.Expose)
	}
	item := blocks.ContentByKey(key)
	if got, _ := blocktest.StringValue(item, "title", "en-US", ""); got != "Hello" {
		t.Fatalf("expected invariant title moved to default culture, got %q", got)
	}
	if _, ok := blocktest.StringValue(item, "title", "da-DK", ""); ok {
		t.Fatal("values must not be duplicated across cultures")
	}
}

func TestServiceRejectsDuplicateSlugAndUnknownCulture(t *testing.T) {
	ctx := context.Background()
	page := pageType(variance.Culture, blocktest.Prop("title", "", variance.Culture))
	source := &staticMeta{meta: blocktest.Meta([]*contenttypes.ContentType{page}, cultureCodes, "en-US")}
	svc := newService(t, source)

	if _, err := svc.Save(ctx, content.SaveRequest{ContentTypeAlias: "page", Name: "Same"}); err != nil {
		t.Fatalf("save: %v", err)
	}
	if _, err := svc.Save(ctx, content.SaveRequest{ContentTypeAlias: "page", Name: "Same"}); !errors.Is(err, content.ErrSlugExists) {
		t.Fatalf("expected ErrSlugExists, got %v", err)
	}
	if _, err := svc.Save(ctx, content.SaveRequest{ContentTypeAlias: "page", Name: "Other", EditedCultures: []string{"fr-FR"}}); !errors.Is(err, content.ErrUnknownCulture) {
		t.Fatalf("expected ErrUnknownCulture, got %v", err)
	}
	if _, err := svc.Publish(ctx, content.PublishRequest{ID: uuid.New()}); err == nil {
		t.Fatal("expected missing document error")
	}
}

func publishedIndex(t *testing.T, svc content.Service, id uuid.UUID, culture string) string {
	t.Helper()
	text, err := svc.Index(context.Background(), content.ProjectRequest{ID: id, Culture: culture, Published: true})
	if err != nil {
		t.Fatalf("index %s: %v", culture, err)
	}
	return text
}

func TestServiceFoldsPublishedValuesAfterElementBecomesInvariant(t *testing.T) {
	ctx := context.Background()
	before := blocktest.Element("text", variance.Culture, blocktest.Prop("title", "", variance.Culture))
	page := pageType(variance.Culture, blocktest.Prop("blocks", string(blockvalue.BlockList), variance.Nothing))
	source := &staticMeta{meta: blocktest.Meta([]*contenttypes.ContentType{before, page}, cultureCodes, "en-US")}
	svc := newService(t, source)

	key := blocktest.Key(1)
	value := blocktest.Value(blockvalue.BlockList, blocktest.Layout(key),
		[]*blockvalue.BlockItemData{blocktest.Item(key, before,
			blocktest.Val("title", "en-US", "", "Hello"),
			blocktest.Val("title", "da-DK", "", "Hej"),
		)},
		blocktest.Expose(key, "en-US", ""),
		blocktest.Expose(key, "da-DK", ""),
	)
	doc, err := svc.Save(ctx, content.SaveRequest{
		ContentTypeAlias: "page",
		Name:             "Narrowed",
		Values:           []content.PropertyValue{{Alias: "blocks", Value: marshal(t, value)}},
	})
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if _, err := svc.Publish(ctx, content.PublishRequest{ID: doc.ID}); err != nil {
		t.Fatalf("publish: %v", err)
	}
	if text := publishedIndex(t, svc, doc.ID, "en-US"); text != "Hello" {
		t.Fatalf("unexpected en-US text before the change %q", text)
	}

	after := blocktest.Element("text", variance.Nothing, blocktest.Prop("title", "", variance.Nothing))
	source.set(blocktest.Meta([]*contenttypes.ContentType{after, page}, cultureCodes, "en-US"))

	// No change event yet: reads must still fold the stored values.
	if text := publishedIndex(t, svc, doc.ID, "en-US"); text != "Hello" {
		t.Fatalf("expected published value folded to the default culture, got %q", text)
	}
	if text := publishedIndex(t, svc, doc.ID, "da-DK"); text != "Hello" {
		t.Fatalf("expected the folded invariant value in da-DK, got %q", text)
	}

	evt := contenttypes.ChangeEvent{Type: contenttypes.ChangeUpdated, ContentType: after, Previous: before}
	if err := svc.HandleContentTypeChange(ctx, evt); err != nil {
		t.Fatalf("handle change: %v", err)
	}

	stored, err := svc.Get(ctx, doc.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	published, ok := content.ValueFor(stored.Published, "blocks", nil, nil)
	if !ok {
		t.Fatal("expected a published blocks value")
	}
	item := decode(t, published.Value).ContentByKey(key)
	if got, _ := blocktest.StringValue(item, "title", "", ""); got != "Hello" {
		t.Fatalf("expected stored published value folded, got %q", got)
	}
	if _, ok := blocktest.StringValue(item, "title", "da-DK", ""); ok {
		t.Fatal("culture entries must be discarded after folding")
	}

	model, err := svc.Render(ctx, content.ProjectRequest{ID: doc.ID, Culture: "da-DK", Published: true})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	elements, ok := model["blocks"].([]*projection.Element)
	if !ok || len(elements) != 1 || elements[0].Properties["title"] != "Hello" {
		t.Fatalf("unexpected render model %#v", model["blocks"])
	}
}

func TestServiceReadsPublishedValuesAfterElementBecomesCultureVariant(t *testing.T) {
	ctx := context.Background()
	before := blocktest.Element("text", variance.Nothing, blocktest.Prop("title", "", variance.Nothing))
	page := pageType(variance.Culture, blocktest.Prop("blocks", string(blockvalue.BlockList), variance.Nothing))
	source := &staticMeta{meta: blocktest.Meta([]*contenttypes.ContentType{before, page}, cultureCodes, "en-US")}
	svc := newService(t, source)

	key := blocktest.Key(1)
	value := blocktest.Value(blockvalue.BlockList, blocktest.Layout(key),
		[]*blockvalue.BlockItemData{blocktest.Item(key, before, blocktest.Val("title", "", "", "Hello"))},
		blocktest.Expose(key, "", ""),
	)
	doc, err := svc.Save(ctx, content.SaveRequest{
		ContentTypeAlias: "page",
		Name:             "Widened",
		Values:           []content.PropertyValue{{Alias: "blocks", Value: marshal(t, value)}},
	})
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if _, err := svc.Publish(ctx, content.PublishRequest{ID: doc.ID}); err != nil {
		t.Fatalf("publish: %v", err)
	}

	after := blocktest.Element("text", variance.Culture, blocktest.Prop("title", "", variance.Culture))
	source.set(blocktest.Meta([]*contenttypes.ContentType{after, page}, cultureCodes, "en-US"))

	if text := publishedIndex(t, svc, doc.ID, "en-US"); text != "Hello" {
		t.Fatalf("expected the invariant value under the default culture, got %q", text)
	}
	if text := publishedIndex(t, svc, doc.ID, "da-DK"); text != "" {
		t.Fatalf("values must not be duplicated into da-DK, got %q", text)
	}
	if err := svc.Validate(ctx, content.ValidateRequest{ID: doc.ID}); err != nil {
		t.Fatalf("validate: %v", err)
	}
}

func TestServiceUpdatesDocumentByIDAlone(t *testing.T) {
	ctx := context.Background()
	page := pageType(variance.Culture, blocktest.Prop("title", "", variance.Culture))
	source := &staticMeta{meta: blocktest.Meta([]*contenttypes.ContentType{page}, cultureCodes, "en-US")}
	svc := newService(t, source)

	doc, err := svc.Save(ctx, content.SaveRequest{
		ContentTypeAlias: "page",
		Name:             "Original",
		Values:           []content.PropertyValue{{Alias: "title", Culture: variance.Ptr("en-US"), Value: "First"}},
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	updated, err := svc.Save(ctx, content.SaveRequest{
		ID:     doc.ID,
		Values: []content.PropertyValue{{Alias: "title", Culture: variance.Ptr("en-US"), Value: "Second"}},
	})
	if err != nil {
		t.Fatalf("update by id: %v", err)
	}
	if updated.ContentTypeID != page.ID || updated.Slug != "original" || updated.Name != "Original" {
		t.Fatalf("unexpected document after update %+v", updated)
	}
	value, ok := content.ValueFor(updated.Values, "title", variance.Ptr("en-US"), nil)
	if !ok || value.Value != "Second" {
		t.Fatalf("expected updated title, got %+v", updated.Values)
	}

	if _, err := svc.Save(ctx, content.SaveRequest{ID: uuid.New()}); !errors.Is(err, content.ErrContentTypeRequired) {
		t.Fatalf("expected ErrContentTypeRequired for an unknown id, got %v", err)
	}
}

func TestServiceWrapsContentTypeChangeFailures(t *testing.T) {
	ctx := context.Background()
	before := blocktest.Element("text", variance.Nothing, blocktest.Prop("title", "", variance.Nothing))
	after := blocktest.Element("text", variance.Culture, blocktest.Prop("title", "", variance.Culture))
	page := pageType(variance.Culture, blocktest.Prop("blocks", string(blockvalue.BlockList), variance.Nothing))
	source := &staticMeta{meta: blocktest.Meta([]*contenttypes.ContentType{after, page}, cultureCodes, "en-US")}

	repo := &failingListRepository{Repository: content.NewMemoryRepository(), err: errors.New("store offline")}
	svc := content.NewService(repo, source, content.WithClock(fixedClock()))

	evt := contenttypes.ChangeEvent{Type: contenttypes.ChangeUpdated, ContentType: after, Previous: before}
	err := svc.HandleContentTypeChange(ctx, evt)
	if !errors.Is(err, content.ErrContentTypeChangeFailed) || !errors.Is(err, repo.err) {
		t.Fatalf("expected wrapped change failure, got %v", err)
	}
}

type failingListRepository struct {
	content.Repository
	err error
}

func (r *failingListRepository) List(context.Context) ([]*content.Document, error) {
	return nil, r.err
}
