package resolver

import (
	"fmt"
	"strings"

	"github.com/goliatone/go-blockeditor/internal/metadata"
	"github.com/goliatone/go-blockeditor/internal/variance"
)

// FoldMode selects which culture wins when culture-tagged values collapse
// into one invariant value.
type FoldMode string

const (
	// FoldDefaultOnly keeps the default culture's value and drops the
	// property when the default culture has none.
	FoldDefaultOnly FoldMode = "default_only"
	// FoldDefaultThenFallback prefers the default culture, then the
	// fallback order, then the configured culture order.
	FoldDefaultThenFallback FoldMode = "default_then_fallback"
)

// ParseFoldMode validates a configured mode. Blank selects the default.
func ParseFoldMode(raw string) (FoldMode, error) {
	switch FoldMode(strings.ToLower(strings.TrimSpace(raw))) {
	case "", FoldDefaultThenFallback:
		return FoldDefaultThenFallback, nil
	case FoldDefaultOnly:
		return FoldDefaultOnly, nil
	default:
		return "", fmt.Errorf("resolver: unknown fold mode %q", raw)
	}
}

// FoldPolicy configures culture folding.
type FoldPolicy struct {
	Mode          FoldMode
	FallbackOrder []string
}

// DefaultFoldPolicy returns the policy used when none is configured.
func DefaultFoldPolicy() FoldPolicy {
	return FoldPolicy{Mode: FoldDefaultThenFallback}
}

const unranked = 1 << 20

// rank orders cultures for folding; lower wins. ok is false when the
// culture may not win under the policy.
func (p FoldPolicy) rank(culture *string, meta *metadata.Metadata) (int, bool) {
	code := variance.Deref(culture)
	if strings.EqualFold(code, meta.DefaultCulture()) && code != "" {
		return 0, true
	}
	if p.Mode == FoldDefaultOnly {
		return unranked, false
	}
	for i, candidate := range p.FallbackOrder {
		if strings.EqualFold(strings.TrimSpace(candidate), code) {
			return 1 + i, true
		}
	}
	for i, candidate := range meta.Cultures() {
		if strings.EqualFold(candidate, code) {
			return 1 + len(p.FallbackOrder) + i, true
		}
	}
	return unranked, true
}
