package domain

// Status represents the lifecycle state of a block document.
type Status string

const (
	// StatusDraft indicates a document that was never published
	StatusDraft Status = "draft"
	// StatusPublished identifies a document with at least one published culture
	StatusPublished Status = "published"
	// StatusUnpublished marks a document whose published snapshot was withdrawn
	StatusUnpublished Status = "unpublished"
)
