package content

import (
	"strings"

	"github.com/goliatone/go-slug"
)

// NormalizeSlug applies the default go-slug rules to value.
func NormalizeSlug(value string) (string, error) {
	return slug.Normalize(strings.TrimSpace(value))
}

// IsValidSlug reports whether value matches the default rules.
func IsValidSlug(value string) bool {
	return slug.IsValid(value)
}

// deriveSlug prefers the explicit slug and falls back to the name.
func deriveSlug(explicit, name string) (string, error) {
	source := strings.TrimSpace(explicit)
	if source == "" {
		source = strings.TrimSpace(name)
	}
	if source == "" {
		return "", ErrSlugRequired
	}
	if IsValidSlug(source) {
		return source, nil
	}
	normalized, err := NormalizeSlug(source)
	if err != nil || normalized == "" || !IsValidSlug(normalized) {
		return "", ErrSlugInvalid
	}
	return normalized, nil
}
