package contenttypes_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/goliatone/go-blockeditor/internal/contenttypes"
	"github.com/goliatone/go-blockeditor/internal/identity"
	"github.com/goliatone/go-blockeditor/internal/variance"
	"github.com/goliatone/go-blockeditor/pkg/testsupport"
)

func headlineRequest(v variance.Variation) contenttypes.SaveRequest {
	return contenttypes.SaveRequest{
		Alias:     "headline",
		IsElement: true,
		Variation: v,
		Properties: []contenttypes.PropertyType{
			{Alias: "title", EditorAlias: "Umbraco.TextBox", Variation: v, Mandatory: true},
			{Alias: "body", EditorAlias: "Umbraco.MarkdownEditor"},
		},
	}
}

func TestServiceSaveEmitsWideningEvent(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	svc := contenttypes.NewService(contenttypes.NewMemoryRepository())
	events := svc.Subscribe(ctx)

	created, err := svc.Save(ctx, headlineRequest(variance.Nothing))
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if created.ID != identity.ContentTypeUUID("headline") {
		t.Fatalf("expected deterministic id, got %s", created.ID)
	}
	evt := nextEvent(t, events)
	if evt.Type != contenttypes.ChangeCreated || evt.CultureWidened() {
		t.Fatalf("unexpected create event %+v", evt)
	}

	updated, err := svc.Save(ctx, headlineRequest(variance.Culture))
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.ID != created.ID {
		t.Fatalf("expected update to keep id")
	}
	evt = nextEvent(t, events)
	if evt.Type != contenttypes.ChangeUpdated || !evt.CultureWidened() {
		t.Fatalf("expected widening update, got %+v", evt)
	}
	if props := evt.WidenedProperties(); len(props) != 1 || props[0] != "title" {
		t.Fatalf("unexpected widened properties %v", props)
	}
}

func TestServiceCatalogRefreshesAfterWrite(t *testing.T) {
	ctx := context.Background()
	svc := contenttypes.NewService(contenttypes.NewMemoryRepository())

	if _, err := svc.Save(ctx, headlineRequest(variance.Nothing)); err != nil {
		t.Fatalf("save: %v", err)
	}
	catalog, err := svc.Catalog(ctx)
	if err != nil {
		t.Fatalf("catalog: %v", err)
	}
	ct, ok := catalog.ByAlias("Headline")
	if !ok || ct.Variation != variance.Nothing {
		t.Fatalf("unexpected catalog entry %+v", ct)
	}

	if _, err := svc.Save(ctx, headlineRequest(variance.Culture)); err != nil {
		t.Fatalf("update: %v", err)
	}
	catalog, _ = svc.Catalog(ctx)
	ct, _ = catalog.ByID(identity.ContentTypeUUID("headline"))
	if ct.Variation != variance.Culture {
		t.Fatalf("expected refreshed catalog, got %v", ct.Variation)
	}
}

func TestServiceSaveValidation(t *testing.T) {
	svc := contenttypes.NewService(contenttypes.NewMemoryRepository())

	if _, err := svc.Save(context.Background(), contenttypes.SaveRequest{}); err == nil {
		t.Fatal("expected alias error")
	}

	req := headlineRequest(variance.Nothing)
	req.Properties = append(req.Properties, contenttypes.PropertyType{Alias: "title"})
	if _, err := svc.Save(context.Background(), req); err == nil {
		t.Fatal("expected duplicate property error")
	}

	req = headlineRequest(variance.Nothing)
	req.Properties[0].Pattern = "("
	if _, err := svc.Save(context.Background(), req); err == nil {
		t.Fatal("expected pattern error")
	}
}

func TestServiceDelete(t *testing.T) {
	ctx := context.Background()
	svc := contenttypes.NewService(contenttypes.NewMemoryRepository())
	created, err := svc.Save(ctx, headlineRequest(variance.Nothing))
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := svc.Delete(ctx, created.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	var notFound *contenttypes.NotFoundError
	if _, err := svc.Get(ctx, created.ID); !errors.As(err, &notFound) {
		t.Fatalf("expected NotFoundError, got %v", err)
	}
}

func TestBunRepositoryStoresProperties(t *testing.T) {
	ctx := context.Background()
	db := testsupport.NewBunDB(t, (*contenttypes.ContentType)(nil))
	repo := contenttypes.NewBunRepository(db)
	svc := contenttypes.NewService(repo)

	if _, err := svc.Save(ctx, headlineRequest(variance.CultureAndSegment)); err != nil {
		t.Fatalf("save: %v", err)
	}
	stored, err := repo.GetByAlias(ctx, "headline")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if stored.Variation != variance.CultureAndSegment {
		t.Fatalf("unexpected variation %v", stored.Variation)
	}
	prop, ok := stored.Property("title")
	if !ok || prop.Variation != variance.CultureAndSegment || !prop.Mandatory {
		t.Fatalf("unexpected property %+v", prop)
	}

	var notFound *contenttypes.NotFoundError
	if _, err := repo.GetByAlias(ctx, "missing"); !errors.As(err, &notFound) {
		t.Fatalf("expected NotFoundError, got %v", err)
	}
}

func nextEvent(t *testing.T, events <-chan contenttypes.ChangeEvent) contenttypes.ChangeEvent {
	t.Helper()
	select {
	case evt := <-events:
		return evt
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for change event")
	}
	return contenttypes.ChangeEvent{}
}
