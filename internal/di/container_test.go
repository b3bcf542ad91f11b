package di_test

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/goliatone/go-command/dispatcher"

	"github.com/goliatone/go-blockeditor/internal/blocktest"
	"github.com/goliatone/go-blockeditor/internal/blockvalue"
	contentcmd "github.com/goliatone/go-blockeditor/internal/commands/content"
	"github.com/goliatone/go-blockeditor/internal/content"
	"github.com/goliatone/go-blockeditor/internal/contenttypes"
	"github.com/goliatone/go-blockeditor/internal/di"
	"github.com/goliatone/go-blockeditor/internal/logging/gologger"
	"github.com/goliatone/go-blockeditor/internal/runtimeconfig"
	"github.com/goliatone/go-blockeditor/internal/variance"
)

func bilingualConfig() runtimeconfig.Config {
	cfg := runtimeconfig.DefaultConfig()
	cfg.Cultures = []string{"en-US", "da-DK"}
	return cfg
}

func startContainer(t *testing.T, cfg runtimeconfig.Config, opts ...di.Option) *di.Container {
	t.Helper()
	container, err := di.NewContainer(cfg, opts...)
	if err != nil {
		t.Fatalf("NewContainer returned error: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(func() {
		cancel()
		if err := container.Close(); err != nil {
			t.Errorf("close container: %v", err)
		}
	})
	if err := container.Start(ctx); err != nil {
		t.Fatalf("Start returned error: %v", err)
	}
	return container
}

func saveTypes(t *testing.T, container *di.Container, element *contenttypes.ContentType) {
	t.Helper()
	ctx := context.Background()
	types := container.ContentTypeService()
	if _, err := types.Save(ctx, contenttypes.SaveRequest{
		ID:         element.ID,
		Alias:      element.Alias,
		IsElement:  true,
		Variation:  element.Variation,
		Properties: element.Properties,
	}); err != nil {
		t.Fatalf("save element type: %v", err)
	}
	if _, err := types.Save(ctx, contenttypes.SaveRequest{
		Alias:     "page",
		Variation: variance.Culture,
		Properties: []contenttypes.PropertyType{
			blocktest.Prop("blocks", string(blockvalue.BlockList), variance.Nothing),
		},
	}); err != nil {
		t.Fatalf("save page type: %v", err)
	}
}

func blockJSON(t *testing.T, value *blockvalue.BlockValue) string {
	t.Helper()
	data, err := blockvalue.Marshal(value)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	return data
}

func TestNewContainerRejectsInvalidConfig(t *testing.T) {
	cfg := runtimeconfig.DefaultConfig()
	cfg.Variance.FoldMode = "newest"

	if _, err := di.NewContainer(cfg); !errors.Is(err, runtimeconfig.ErrFoldModeInvalid) {
		t.Fatalf("expected ErrFoldModeInvalid, got %v", err)
	}
}

func TestContainerUsesGoLoggerProvider(t *testing.T) {
	cfg := runtimeconfig.DefaultConfig()
	cfg.Features.Logger = true
	cfg.Logging.Level = "debug"

	container, err := di.NewContainer(cfg)
	if err != nil {
		t.Fatalf("NewContainer returned error: %v", err)
	}
	if _, ok := container.LoggerProvider().(*gologger.Provider); !ok {
		t.Fatalf("expected go-logger provider, got %T", container.LoggerProvider())
	}
}

func TestContainerPublishesAndIndexesInMemory(t *testing.T) {
	ctx := context.Background()
	container := startContainer(t, bilingualConfig())

	element := blocktest.Element("text", variance.Culture, blocktest.Prop("title", "", variance.Culture))
	saveTypes(t, container, element)

	key := blocktest.Key(1)
	value := blocktest.Value(blockvalue.BlockList, blocktest.Layout(key),
		[]*blockvalue.BlockItemData{blocktest.Item(key, element,
			blocktest.Val("title", "en-US", "", "Hello"),
			blocktest.Val("title", "da-DK", "", "Hej"),
		)},
		blocktest.Expose(key, "en-US", ""),
		blocktest.Expose(key, "da-DK", ""),
	)

	svc := container.ContentService()
	doc, err := svc.Save(ctx, content.SaveRequest{
		ContentTypeAlias: "page",
		Name:             "Front",
		Values:           []content.PropertyValue{{Alias: "blocks", Value: blockJSON(t, value)}},
	})
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if _, err := svc.Publish(ctx, content.PublishRequest{ID: doc.ID, Cultures: []string{"da-DK"}}); err != nil {
		t.Fatalf("publish: %v", err)
	}

	text, err := svc.Index(ctx, content.ProjectRequest{ID: doc.ID, Culture: "da-DK", Published: true})
	if err != nil {
		t.Fatalf("index: %v", err)
	}
	if !strings.Contains(text, "Hej") || strings.Contains(text, "Hello") {
		t.Fatalf("unexpected published da-DK text %q", text)
	}
}

func TestContainerDispatchesPublishCommand(t *testing.T) {
	ctx := context.Background()
	cfg := bilingualConfig()
	cfg.Features.Commands = true
	container := startContainer(t, cfg)

	element := blocktest.Element("text", variance.Culture, blocktest.Prop("title", "", variance.Culture))
	saveTypes(t, container, element)

	svc := container.ContentService()
	doc, err := svc.Save(ctx, content.SaveRequest{ContentTypeAlias: "page", Name: "Dispatched"})
	if err != nil {
		t.Fatalf("save: %v", err)
	}

	if err := dispatcher.Dispatch(ctx, contentcmd.PublishContentCommand{ContentID: doc.ID, Cultures: []string{"en-US"}}); err != nil {
		t.Fatalf("dispatch publish: %v", err)
	}

	stored, err := svc.Get(ctx, doc.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if !stored.IsCulturePublished("en-US") || stored.IsCulturePublished("da-DK") {
		t.Fatalf("unexpected published cultures %v", stored.PublishedCultures)
	}
}

func TestContainerWatchWidensExposureAfterVarianceChange(t *testing.T) {
	ctx := context.Background()
	container := startContainer(t, bilingualConfig())

	before := blocktest.Element("text", variance.Nothing, blocktest.Prop("title", "", variance.Nothing))
	saveTypes(t, container, before)

	key := blocktest.Key(7)
	value := blocktest.Value(blockvalue.BlockList, blocktest.Layout(key),
		[]*blockvalue.BlockItemData{blocktest.Item(key, before, blocktest.Val("title", "", "", "Hello"))},
		blocktest.Expose(key, "", ""),
	)
	svc := container.ContentService()
	doc, err := svc.Save(ctx, content.SaveRequest{
		ContentTypeAlias: "page",
		Name:             "Watched",
		Values:           []content.PropertyValue{{Alias: "blocks", Value: blockJSON(t, value)}},
	})
	if err != nil {
		t.Fatalf("save: %v", err)
	}

	if _, err := container.ContentTypeService().Save(ctx, contenttypes.SaveRequest{
		Alias:      "text",
		IsElement:  true,
		Variation:  variance.Culture,
		Properties: []contenttypes.PropertyType{blocktest.Prop("title", "", variance.Culture)},
	}); err != nil {
		t.Fatalf("update element type: %v", err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for {
		stored, err := svc.Get(ctx, doc.ID)
		if err != nil {
			t.Fatalf("get: %v", err)
		}
		raw, _ := content.ValueFor(stored.Values, "blocks", nil, nil)
		blocks, err := blockvalue.Parse([]byte(raw.Value), blockvalue.BlockList)
		if err != nil {
			t.Fatalf("parse: %v", err)
		}
		if len(blocks.ExposeFor(key)) == 2 {
			return
		}
		if time.Now().After(deadline) {
			t.Fatalf("exposure was not widened: %s", fmt.Sprint(blocks.Expose))
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestContainerOpensSQLiteStorage(t *testing.T) {
	ctx := context.Background()
	cfg := bilingualConfig()
	cfg.Storage.Provider = runtimeconfig.StorageSQLite
	cfg.Storage.DSN = fmt.Sprintf("file:di_container_%d?mode=memory&cache=shared&_fk=1", time.Now().UnixNano())
	container := startContainer(t, cfg)

	if container.BunDB() == nil {
		t.Fatal("expected a bun connection for sqlite storage")
	}
	element := blocktest.Element("text", variance.Culture, blocktest.Prop("title", "", variance.Culture))
	saveTypes(t, container, element)

	doc, err := container.ContentService().Save(ctx, content.SaveRequest{ContentTypeAlias: "page", Name: "Stored"})
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	loaded, err := container.ContentService().GetBySlug(ctx, "stored")
	if err != nil {
		t.Fatalf("get by slug: %v", err)
	}
	if loaded.ID != doc.ID {
		t.Fatalf("expected %s, got %s", doc.ID, loaded.ID)
	}
	codes, err := container.CultureRegistry().Cultures(ctx)
	if err != nil || len(codes) != 2 {
		t.Fatalf("expected seeded cultures, got %v (%v)", codes, err)
	}
}
