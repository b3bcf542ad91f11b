package interfaces

import "context"

// CultureRegistry exposes the cultures configured for an installation.
// Cultures returns active codes in display order; DefaultCulture returns the
// code values fall back to when a variance change folds or re-tags them.
type CultureRegistry interface {
	Cultures(ctx context.Context) ([]string, error)
	DefaultCulture(ctx context.Context) (string, error)
}
