package variance

import "testing"

func TestParseVariation(t *testing.T) {
	cases := map[string]Variation{
		"":                    Nothing,
		"nothing":             Nothing,
		"Culture":             Culture,
		"segment":             Segment,
		"CultureAndSegment":   CultureAndSegment,
		"culture-and-segment": CultureAndSegment,
	}
	for input, want := range cases {
		got, err := ParseVariation(input)
		if err != nil {
			t.Fatalf("ParseVariation(%q) error = %v", input, err)
		}
		if got != want {
			t.Fatalf("ParseVariation(%q) = %v, want %v", input, got, want)
		}
	}
	if _, err := ParseVariation("weekday"); err == nil {
		t.Fatal("expected error for unknown variation")
	}
}

func TestVariationTextRoundTrip(t *testing.T) {
	for _, v := range []Variation{Nothing, Culture, Segment, CultureAndSegment} {
		text, err := v.MarshalText()
		if err != nil {
			t.Fatalf("MarshalText: %v", err)
		}
		var parsed Variation
		if err := parsed.UnmarshalText(text); err != nil {
			t.Fatalf("UnmarshalText(%s): %v", text, err)
		}
		if parsed != v {
			t.Fatalf("round trip %v -> %s -> %v", v, text, parsed)
		}
	}
}

func TestContextEffective(t *testing.T) {
	ctx := Context{Owner: Culture}
	if got := ctx.Effective(Culture, Culture); got != Culture {
		t.Fatalf("expected culture variance, got %v", got)
	}
	if got := ctx.Effective(Nothing, Culture); got != Nothing {
		t.Fatalf("invariant element must mask property variance, got %v", got)
	}
	if got := ctx.Effective(CultureAndSegment, CultureAndSegment); got != Culture {
		t.Fatalf("owner without segments must mask segment variance, got %v", got)
	}

	container := Context{Owner: Culture, Container: Culture}
	if got := container.Effective(Culture, Culture); got != Nothing {
		t.Fatalf("culture container must mask culture variance, got %v", got)
	}

	nested := ctx.Nested(Culture)
	if nested.Container != Culture || nested.Owner != Culture {
		t.Fatalf("unexpected nested context %+v", nested)
	}
}

func TestCultureHelpers(t *testing.T) {
	if !SameCulture(Ptr("en-US"), Ptr("EN-us")) {
		t.Fatal("expected case-insensitive culture match")
	}
	if !SameCulture(nil, Ptr("  ")) {
		t.Fatal("expected nil to equal blank culture")
	}
	if SameSegment(Ptr("mobile"), nil) {
		t.Fatal("expected segment mismatch")
	}
	set := CultureSet([]string{"en-US", " da-DK ", ""})
	if _, ok := set["da-dk"]; !ok || len(set) != 2 {
		t.Fatalf("unexpected culture set %v", set)
	}
}
