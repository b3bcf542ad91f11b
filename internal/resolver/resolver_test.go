package resolver_test

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"

	"github.com/goliatone/go-blockeditor/internal/blocktest"
	"github.com/goliatone/go-blockeditor/internal/blockvalue"
	"github.com/goliatone/go-blockeditor/internal/resolver"
	"github.com/goliatone/go-blockeditor/internal/variance"
)

var (
	cultureCodes = []string{"en-US", "da-DK", "de-DE"}
	docContext   = variance.Context{Owner: variance.CultureAndSegment}
)

func TestFoldPrefersDefaultCulture(t *testing.T) {
	element := blocktest.Element("text", variance.Nothing, blocktest.Prop("title", "", variance.Culture))
	meta := blocktest.Meta(metaTypes(element), cultureCodes, "en-US")

	item := blocktest.Item(blocktest.Key(1), element,
		blocktest.Val("title", "da-DK", "", "Hej"),
		blocktest.Val("title", "en-US", "", "Hello"),
	)
	resolved, ok := resolver.New().ResolveItem(context.Background(), item, meta, docContext)
	if !ok {
		t.Fatal("expected item")
	}
	if len(resolved.Values) != 1 {
		t.Fatalf("expected single folded value, got %d", len(resolved.Values))
	}
	got := resolved.Values[0]
	if got.Culture != nil || got.Segment != nil || got.Value != "Hello" {
		t.Fatalf("expected invariant Hello, got %+v", got)
	}
	if got.EditorAlias != "Umbraco.TextBox" {
		t.Fatalf("expected editor alias from property type, got %q", got.EditorAlias)
	}
}

func TestFoldPolicies(t *testing.T) {
	element := blocktest.Element("text", variance.Nothing, blocktest.Prop("title", "", variance.Nothing))
	meta := blocktest.Meta(metaTypes(element), cultureCodes, "en-US")
	item := blocktest.Item(blocktest.Key(1), element,
		blocktest.Val("title", "da-DK", "", "Hej"),
		blocktest.Val("title", "de-DE", "", "Hallo"),
	)

	fallback := resolver.New(resolver.WithFoldPolicy(resolver.FoldPolicy{FallbackOrder: []string{"de-DE"}}))
	resolved, _ := fallback.ResolveItem(context.Background(), item, meta, docContext)
	if len(resolved.Values) != 1 || resolved.Values[0].Value != "Hallo" {
		t.Fatalf("expected fallback order to pick de-DE, got %+v", resolved.Values)
	}

	configured, _ := resolver.New().ResolveItem(context.Background(), item, meta, docContext)
	if len(configured.Values) != 1 || configured.Values[0].Value != "Hej" {
		t.Fatalf("expected configured order to pick da-DK, got %+v", configured.Values)
	}

	strict := resolver.New(resolver.WithFoldPolicy(resolver.FoldPolicy{Mode: resolver.FoldDefaultOnly}))
	dropped, _ := strict.ResolveItem(context.Background(), item, meta, docContext)
	if len(dropped.Values) != 0 {
		t.Fatalf("default_only must drop values without a default culture entry, got %+v", dropped.Values)
	}
}

func TestInvariantToVariantDoesNotFabricate(t *testing.T) {
	element := blocktest.Element("text", variance.Culture, blocktest.Prop("title", "", variance.Culture))
	meta := blocktest.Meta(metaTypes(element), cultureCodes, "en-US")
	item := blocktest.Item(blocktest.Key(1), element, blocktest.Val("title", "", "", "Hello"))

	resolved, _ := resolver.New().ResolveItem(context.Background(), item, meta, docContext)
	if len(resolved.Values) != 1 {
		t.Fatalf("expected one value, got %d", len(resolved.Values))
	}
	if culture := variance.Deref(resolved.Values[0].Culture); culture != "en-US" {
		t.Fatalf("expected value re-tagged to default culture, got %q", culture)
	}
	if _, ok := blocktest.StringValue(resolved, "title", "da-DK", ""); ok {
		t.Fatal("non-default culture must stay empty")
	}

	existing := blocktest.Item(blocktest.Key(2), element,
		blocktest.Val("title", "", "", "Stale"),
		blocktest.Val("title", "en-US", "", "Fresh"),
	)
	resolved, _ = resolver.New().ResolveItem(context.Background(), existing, meta, docContext)
	if len(resolved.Values) != 1 || resolved.Values[0].Value != "Fresh" {
		t.Fatalf("existing default culture entry must win, got %+v", resolved.Values)
	}
}

func TestVarianceRoundTripCollapses(t *testing.T) {
	variant := blocktest.Element("text", variance.Culture, blocktest.Prop("title", "", variance.Culture))
	invariant := blocktest.Element("text", variance.Nothing, blocktest.Prop("title", "", variance.Nothing))
	r := resolver.New()

	item := blocktest.Item(blocktest.Key(1), variant, blocktest.Val("title", "", "", "Hello"))
	widened, _ := r.ResolveItem(context.Background(), item, blocktest.Meta(metaTypes(variant), cultureCodes, "en-US"), docContext)
	widened.Values = append(widened.Values, blocktest.Val("title", "da-DK", "", "Hej"))

	narrowed, _ := r.ResolveItem(context.Background(), widened, blocktest.Meta(metaTypes(invariant), cultureCodes, "en-US"), docContext)
	if len(narrowed.Values) != 1 || narrowed.Values[0].Value != "Hello" || narrowed.Values[0].Culture != nil {
		t.Fatalf("expected single invariant Hello, got %+v", narrowed.Values)
	}
}

func TestUnknownCulturesAndDuplicatesDropped(t *testing.T) {
	element := blocktest.Element("text", variance.Culture, blocktest.Prop("title", "", variance.Culture))
	meta := blocktest.Meta(metaTypes(element), cultureCodes, "en-US")
	item := blocktest.Item(blocktest.Key(1), element,
		blocktest.Val("title", "sv-SE", "", "Hej"),
		blocktest.Val("title", "en-us", "", "First"),
		blocktest.Val("title", "en-US", "", "Second"),
	)
	resolved, _ := resolver.New().ResolveItem(context.Background(), item, meta, docContext)
	if len(resolved.Values) != 1 {
		t.Fatalf("expected one value, got %+v", resolved.Values)
	}
	if resolved.Values[0].Value != "First" || variance.Deref(resolved.Values[0].Culture) != "en-US" {
		t.Fatalf("expected first entry with canonical culture, got %+v", resolved.Values[0])
	}
}

func TestSegmentFolding(t *testing.T) {
	element := blocktest.Element("text", variance.Culture, blocktest.Prop("title", "", variance.Culture))
	meta := blocktest.Meta(metaTypes(element), cultureCodes, "en-US")
	item := blocktest.Item(blocktest.Key(1), element,
		blocktest.Val("title", "en-US", "mobile", "Mobile"),
		blocktest.Val("title", "en-US", "", "Default"),
		blocktest.Val("title", "da-DK", "mobile", "Mobil"),
	)
	resolved, _ := resolver.New().ResolveItem(context.Background(), item, meta, docContext)
	if v, _ := blocktest.StringValue(resolved, "title", "en-US", ""); v != "Default" {
		t.Fatalf("expected default segment to win, got %q", v)
	}
	if v, _ := blocktest.StringValue(resolved, "title", "da-DK", ""); v != "Mobil" {
		t.Fatalf("expected da-DK segment value promoted, got %q", v)
	}
	for _, value := range resolved.Values {
		if value.Segment != nil {
			t.Fatalf("segment must be cleared, got %+v", value)
		}
	}
}

func TestStaleReferencesDropped(t *testing.T) {
	element := blocktest.Element("text", variance.Nothing, blocktest.Prop("title", "", variance.Nothing))
	deleted := blocktest.Element("deleted", variance.Nothing)
	meta := blocktest.Meta(metaTypes(element), cultureCodes, "en-US")

	keep, gone := blocktest.Key(1), blocktest.Key(2)
	settingsKey := blocktest.Key(3)
	value := blocktest.Value(blockvalue.BlockList, blocktest.Layout(keep, gone), []*blockvalue.BlockItemData{
		blocktest.Item(keep, element, blocktest.Val("title", "", "", "Hi"), blocktest.Val("removed", "", "", "x")),
		blocktest.Item(gone, deleted),
	})
	value.Layout[0].SettingsKey = &settingsKey

	resolved := resolver.New().ResolveValue(context.Background(), value, meta, docContext)
	if len(resolved.ContentData) != 1 || resolved.ContentData[0].Key != keep {
		t.Fatalf("expected unknown element item dropped, got %+v", resolved.ContentData)
	}
	if len(resolved.ContentData[0].Values) != 1 || resolved.ContentData[0].Values[0].Alias != "title" {
		t.Fatalf("expected unknown property dropped, got %+v", resolved.ContentData[0].Values)
	}
	if len(resolved.Layout) != 1 || resolved.Layout[0].SettingsKey != nil {
		t.Fatalf("expected stale layout and settings references removed, got %+v", resolved.Layout)
	}
	if len(value.ContentData) != 2 {
		t.Fatal("input must not be modified")
	}
}

func TestNestedValuesUseNestedContext(t *testing.T) {
	inner := blocktest.Element("inner", variance.Culture, blocktest.Prop("caption", "", variance.Culture))
	outer := blocktest.Element("outer", variance.Culture,
		blocktest.Prop("items", string(blockvalue.BlockList), variance.Culture),
	)
	meta := blocktest.Meta(metaTypes(inner, outer), cultureCodes, "en-US")

	nested := blocktest.Value(blockvalue.BlockList, blocktest.Layout(blocktest.Key(10)), []*blockvalue.BlockItemData{
		blocktest.Item(blocktest.Key(10), inner,
			blocktest.Val("caption", "da-DK", "", "Billede"),
			blocktest.Val("caption", "en-US", "", "Picture"),
		),
	})
	raw, err := json.Marshal(nested)
	if err != nil {
		t.Fatalf("marshal nested: %v", err)
	}
	var decoded any
	_ = json.Unmarshal(raw, &decoded)

	value := blocktest.Value(blockvalue.BlockList, blocktest.Layout(blocktest.Key(1)), []*blockvalue.BlockItemData{
		blocktest.Item(blocktest.Key(1), outer, blocktest.Val("items", "en-US", "", decoded)),
	})

	resolved := resolver.New().ResolveValue(context.Background(), value, meta, docContext)
	items := resolved.ContentData[0].Values[0]
	if variance.Deref(items.Culture) != "en-US" {
		t.Fatalf("outer value keeps its culture, got %+v", items)
	}
	nestedValue, ok := items.Value.(*blockvalue.BlockValue)
	if !ok {
		t.Fatalf("expected typed nested value, got %T", items.Value)
	}
	captions := nestedValue.ContentData[0].Values
	if len(captions) != 1 || captions[0].Culture != nil || captions[0].Value != "Picture" {
		t.Fatalf("nested values inside a culture container must fold to invariant, got %+v", captions)
	}
}

func TestNestedValueKeepsValidSiblingOfMalformedItem(t *testing.T) {
	inner := blocktest.Element("inner", variance.Nothing, blocktest.Prop("caption", "", variance.Nothing))
	outer := blocktest.Element("outer", variance.Nothing,
		blocktest.Prop("items", string(blockvalue.BlockList), variance.Nothing),
	)
	meta := blocktest.Meta(metaTypes(inner, outer), cultureCodes, "en-US")

	validKey := blocktest.Key(10)
	raw := fmt.Sprintf(`{"layout":{"Umbraco.BlockList":[{"contentKey":%q},{"contentKey":"broken"}]},
	"contentData":[
		{"key":%q,"contentTypeKey":%q,"values":[{"alias":"caption","value":"Picture"}]},
		{"key":"broken","contentTypeKey":%q,"values":[]}
	],"expose":[{"contentKey":%q}]}`, validKey, validKey, inner.ID, inner.ID, validKey)

	value := blocktest.Value(blockvalue.BlockList, blocktest.Layout(blocktest.Key(1)), []*blockvalue.BlockItemData{
		blocktest.Item(blocktest.Key(1), outer, blocktest.Val("items", "", "", raw)),
	})

	resolved := resolver.New().ResolveValue(context.Background(), value, meta, docContext)
	nestedValue, ok := resolved.ContentData[0].Values[0].Value.(*blockvalue.BlockValue)
	if !ok {
		t.Fatalf("expected typed nested value, got %T", resolved.ContentData[0].Values[0].Value)
	}
	if len(nestedValue.ContentData) != 1 || nestedValue.ContentData[0].Key != validKey {
		t.Fatalf("expected the valid nested item to survive, got %+v", nestedValue.ContentData)
	}
	if keys := nestedValue.LayoutKeys(); len(keys) != 1 || keys[0] != validKey {
		t.Fatalf("expected the valid layout item to survive, got %v", keys)
	}
	if got, _ := blocktest.StringValue(nestedValue.ContentData[0], "caption", "", ""); got != "Picture" {
		t.Fatalf("expected nested caption, got %q", got)
	}
}

func TestResolveIsIdempotent(t *testing.T) {
	inner := blocktest.Element("inner", variance.Culture, blocktest.Prop("caption", "", variance.CultureAndSegment))
	outer := blocktest.Element("outer", variance.Culture,
		blocktest.Prop("title", "", variance.Culture),
		blocktest.Prop("count", "", variance.Nothing),
		blocktest.Prop("items", string(blockvalue.BlockList), variance.Nothing),
	)
	meta := blocktest.Meta(metaTypes(inner, outer), cultureCodes, "en-US")

	nested := blocktest.Value(blockvalue.BlockList, blocktest.Layout(blocktest.Key(10)), []*blockvalue.BlockItemData{
		blocktest.Item(blocktest.Key(10), inner,
			blocktest.Val("caption", "", "", "Shared"),
			blocktest.Val("caption", "da-DK", "mobile", "Mobil"),
		),
	})
	value := blocktest.Value(blockvalue.BlockList, blocktest.Layout(blocktest.Key(1)), []*blockvalue.BlockItemData{
		blocktest.Item(blocktest.Key(1), outer,
			blocktest.Val("title", "", "", "Hello"),
			blocktest.Val("title", "da-DK", "", "Hej"),
			blocktest.Val("count", "en-US", "", 1),
			blocktest.Val("count", "da-DK", "", 2),
			blocktest.Val("items", "", "", nested),
		),
	})

	r := resolver.New()
	once := r.ResolveValue(context.Background(), value, meta, docContext)
	twice := r.ResolveValue(context.Background(), once, meta, docContext)

	a, _ := json.Marshal(once)
	b, _ := json.Marshal(twice)
	if string(a) != string(b) {
		t.Fatalf("resolve is not idempotent:\n%s\n%s", a, b)
	}
}

func TestParseFoldMode(t *testing.T) {
	if mode, err := resolver.ParseFoldMode(""); err != nil || mode != resolver.FoldDefaultThenFallback {
		t.Fatalf("unexpected default mode %q %v", mode, err)
	}
	if _, err := resolver.ParseFoldMode("random"); err == nil {
		t.Fatal("expected error")
	}
}
