package domain

import "strings"

// NormalizeStatus coerces arbitrary status strings into a known Status.
// Blank and unknown input maps to StatusDraft.
func NormalizeStatus(input string) Status {
	switch Status(strings.ToLower(strings.TrimSpace(input))) {
	case StatusPublished:
		return StatusPublished
	case StatusUnpublished:
		return StatusUnpublished
	default:
		return StatusDraft
	}
}

// IsPublished reports whether status carries a published snapshot.
func (s Status) IsPublished() bool {
	return s == StatusPublished
}

// StatusAfterPublish returns the status a document moves to after a publish.
// Culture variant documents are published once any culture is.
func StatusAfterPublish(current Status, variant bool, publishedCultures int) Status {
	if !variant || publishedCultures > 0 {
		return StatusPublished
	}
	return NormalizeStatus(string(current))
}
