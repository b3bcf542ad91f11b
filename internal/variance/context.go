package variance

import "strings"

// Context captures the variance of the document that owns a block value and
// of the property that holds it. A container that already varies by a flag
// stores one whole block value per variant, so values inside it never vary by
// that flag again.
type Context struct {
	Owner     Variation
	Container Variation
}

// ElementVariation returns the variance a block of the given element type
// effectively has inside this context.
func (c Context) ElementVariation(element Variation) Variation {
	return (c.Owner & element) &^ c.Container
}

// Effective returns the variance a property value stored on an element
// effectively has inside this context.
func (c Context) Effective(element, property Variation) Variation {
	return (c.Owner & element & property) &^ c.Container
}

// Nested returns the context used for a block value stored inside a property
// whose effective variance is propertyEffective.
func (c Context) Nested(propertyEffective Variation) Context {
	return Context{
		Owner:     c.Owner,
		Container: c.Container | propertyEffective,
	}
}

// NormalizeCulture trims a culture code. Comparison is case-insensitive, the
// stored casing is kept.
func NormalizeCulture(code string) string {
	return strings.TrimSpace(code)
}

// Ptr returns nil for blank strings and a pointer to the trimmed value otherwise.
func Ptr(value string) *string {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

// Deref returns the pointed string or "".
func Deref(value *string) string {
	if value == nil {
		return ""
	}
	return *value
}

// SameCulture compares culture codes case-insensitively; nil equals "".
func SameCulture(a, b *string) bool {
	return strings.EqualFold(strings.TrimSpace(Deref(a)), strings.TrimSpace(Deref(b)))
}

// SameSegment compares segment aliases; nil equals "".
func SameSegment(a, b *string) bool {
	return strings.TrimSpace(Deref(a)) == strings.TrimSpace(Deref(b))
}

// CultureKey is the map key used for culture lookups.
func CultureKey(code *string) string {
	return strings.ToLower(strings.TrimSpace(Deref(code)))
}

// CultureSet builds a lookup set from culture codes.
func CultureSet(codes []string) map[string]struct{} {
	out := make(map[string]struct{}, len(codes))
	for _, code := range codes {
		key := strings.ToLower(strings.TrimSpace(code))
		if key == "" {
			continue
		}
		out[key] = struct{}{}
	}
	return out
}
