package validation_test

import (
	"context"
	"errors"
	"testing"

	"github.com/goliatone/go-blockeditor/internal/blocktest"
	"github.com/goliatone/go-blockeditor/internal/blockvalue"
	"github.com/goliatone/go-blockeditor/internal/contenttypes"
	"github.com/goliatone/go-blockeditor/internal/validation"
	"github.com/goliatone/go-blockeditor/internal/variance"
)

var (
	cultureCodes = []string{"en-US", "da-DK"}
	docContext   = variance.Context{Owner: variance.Culture}
)

func TestGrandchildIssuePath(t *testing.T) {
	leaf := blocktest.Element("leaf", variance.Nothing, blocktest.Mandatory(blocktest.Prop("title", "", variance.Nothing)))
	container := blocktest.Element("container", variance.Nothing, blocktest.Prop("items", string(blockvalue.BlockList), variance.Nothing))
	meta := blocktest.Meta([]*contenttypes.ContentType{leaf, container}, cultureCodes, "en-US")

	grandchildren := blocktest.Value(blockvalue.BlockList, blocktest.Layout(blocktest.Key(4), blocktest.Key(3)),
		[]*blockvalue.BlockItemData{
			blocktest.Item(blocktest.Key(3), leaf),
			blocktest.Item(blocktest.Key(4), leaf, blocktest.Val("title", "", "", "ok")),
		},
		blocktest.Expose(blocktest.Key(3), "", ""),
		blocktest.Expose(blocktest.Key(4), "", ""),
	)
	children := blocktest.Value(blockvalue.BlockList, blocktest.Layout(blocktest.Key(2)),
		[]*blockvalue.BlockItemData{blocktest.Item(blocktest.Key(2), container, blocktest.Val("items", "", "", grandchildren))},
		blocktest.Expose(blocktest.Key(2), "", ""),
	)
	root := blocktest.Value(blockvalue.BlockList, blocktest.Layout(blocktest.Key(1)),
		[]*blockvalue.BlockItemData{blocktest.Item(blocktest.Key(1), container, blocktest.Val("items", "", "", children))},
		blocktest.Expose(blocktest.Key(1), "", ""),
	)

	err := validation.New().ValidateValue(context.Background(), root, meta, validation.Request{Context: docContext})
	if !errors.Is(err, validation.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	issues := validation.Issues(err)
	if len(issues) != 1 {
		t.Fatalf("expected one issue, got %+v", issues)
	}
	items := "values[?(@.alias == 'items' && @.culture == null && @.segment == null)].value"
	want := "$.contentData[0]." + items + ".contentData[0]." + items +
		".contentData[0].values[?(@.alias == 'title' && @.culture == null && @.segment == null)].value"
	if issues[0].JSONPath != want {
		t.Fatalf("unexpected path\n got: %s\nwant: %s", issues[0].JSONPath, want)
	}
	if issues[0].Code != validation.CodeRequired || issues[0].PropertyAlias != "title" {
		t.Fatalf("unexpected issue %+v", issues[0])
	}
}

func TestValidationSkipsUnexposedBlocks(t *testing.T) {
	element := blocktest.Element("text", variance.Culture, blocktest.Mandatory(blocktest.Prop("title", "", variance.Culture)))
	meta := blocktest.Meta([]*contenttypes.ContentType{element}, cultureCodes, "en-US")
	value := blocktest.Value(blockvalue.BlockList, blocktest.Layout(blocktest.Key(1)),
		[]*blockvalue.BlockItemData{blocktest.Item(blocktest.Key(1), element, blocktest.Val("title", "en-US", "", "Hello"))},
		blocktest.Expose(blocktest.Key(1), "en-US", ""),
	)

	validator := validation.New()
	if err := validator.ValidateValue(context.Background(), value, meta, validation.Request{Context: docContext}); err != nil {
		t.Fatalf("block is not exposed in da-DK, expected no error, got %v", err)
	}

	value.Expose = append(value.Expose, blocktest.Expose(blocktest.Key(1), "da-DK", ""))
	err := validator.ValidateValue(context.Background(), value, meta, validation.Request{Context: docContext, Cultures: []string{"da-dk"}})
	issues := validation.Issues(err)
	if len(issues) != 1 || variance.Deref(issues[0].Culture) != "da-DK" {
		t.Fatalf("expected a da-DK issue, got %+v", issues)
	}
	if issues[0].JSONPath != "$.contentData[0].values[?(@.alias == 'title' && @.culture == 'da-DK' && @.segment == null)].value" {
		t.Fatalf("unexpected path %s", issues[0].JSONPath)
	}
}

func TestValidationPattern(t *testing.T) {
	prop := blocktest.Prop("sku", "", variance.Nothing)
	prop.Pattern = `^[A-Z]{3}-\d+$`
	element := blocktest.Element("product", variance.Nothing, prop)
	meta := blocktest.Meta([]*contenttypes.ContentType{element}, cultureCodes, "en-US")

	settingsKey := blocktest.Key(9)
	value := blocktest.Value(blockvalue.BlockList,
		[]blockvalue.LayoutItem{{ContentKey: blocktest.Key(1), SettingsKey: &settingsKey}},
		[]*blockvalue.BlockItemData{blocktest.Item(blocktest.Key(1), element, blocktest.Val("sku", "", "", "ABC-1"))},
		blocktest.Expose(blocktest.Key(1), "", ""),
	)
	value.SettingsData = []*blockvalue.BlockItemData{blocktest.Item(settingsKey, element, blocktest.Val("sku", "", "", "bad"))}

	err := validation.New().ValidateValue(context.Background(), value, meta, validation.Request{Context: docContext})
	issues := validation.Issues(err)
	if len(issues) != 1 || issues[0].Code != validation.CodePattern {
		t.Fatalf("expected one pattern issue, got %+v", issues)
	}
	if issues[0].JSONPath != "$.settingsData[0].values[?(@.alias == 'sku' && @.culture == null && @.segment == null)].value" {
		t.Fatalf("unexpected path %s", issues[0].JSONPath)
	}
}

func TestValidateRichTextPath(t *testing.T) {
	element := blocktest.Element("quote", variance.Nothing, blocktest.Mandatory(blocktest.Prop("text", "", variance.Nothing)))
	meta := blocktest.Meta([]*contenttypes.ContentType{element}, cultureCodes, "en-US")
	value := blockvalue.NewRichText()
	value.Blocks = blocktest.Value(blockvalue.RichText, blocktest.Layout(blocktest.Key(1)),
		[]*blockvalue.BlockItemData{blocktest.Item(blocktest.Key(1), element)},
		blocktest.Expose(blocktest.Key(1), "", ""),
	)
	err := validation.New().ValidateRichText(context.Background(), value, meta, validation.Request{Context: docContext})
	issues := validation.Issues(err)
	if len(issues) != 1 || issues[0].JSONPath != "$.blocks.contentData[0].values[?(@.alias == 'text' && @.culture == null && @.segment == null)].value" {
		t.Fatalf("unexpected issues %+v", issues)
	}
}

func TestValidateJSONEnvelope(t *testing.T) {
	validator := validation.New()
	if err := validator.ValidateJSON([]byte(`{"layout": {}, "contentData": [], "settingsData": []}`), blockvalue.BlockList); err != nil {
		t.Fatalf("expected valid envelope, got %v", err)
	}
	err := validator.ValidateJSON([]byte(`{"layout": [], "contentData": {}}`), blockvalue.BlockList)
	if !errors.Is(err, validation.ErrValidation) {
		t.Fatalf("expected envelope error, got %v", err)
	}
	if issues := validation.Issues(err); len(issues) != 1 || issues[0].Code != validation.CodeEnvelope {
		t.Fatalf("unexpected issues %+v", issues)
	}
}
