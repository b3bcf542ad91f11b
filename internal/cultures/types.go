package cultures

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Culture is a language configured for the installation.
type Culture struct {
	bun.BaseModel `bun:"table:block_cultures,alias:bc"`

	ID        uuid.UUID `bun:",pk,type:uuid"                                 json:"id"`
	Code      string    `bun:"code,notnull,unique"                           json:"code"`
	Name      string    `bun:"name"                                          json:"name,omitempty"`
	IsDefault bool      `bun:"is_default,notnull,default:false"              json:"is_default"`
	IsActive  bool      `bun:"is_active,notnull,default:true"                json:"is_active"`
	SortOrder int       `bun:"sort_order,notnull,default:0"                  json:"sort_order"`
	CreatedAt time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at"`
}

// Set is an immutable view of the configured cultures. Codes keep their
// configured casing and order; lookups are case-insensitive.
type Set struct {
	codes []string
	index map[string]string
	deflt string
}

// NewSet builds a Set. Blank and duplicate codes are dropped. When def is
// blank or not part of codes the first code becomes the default.
func NewSet(codes []string, def string) Set {
	set := Set{index: make(map[string]string, len(codes))}
	for _, code := range codes {
		trimmed := strings.TrimSpace(code)
		if trimmed == "" {
			continue
		}
		key := strings.ToLower(trimmed)
		if _, ok := set.index[key]; ok {
			continue
		}
		set.index[key] = trimmed
		set.codes = append(set.codes, trimmed)
	}
	if canonical, ok := set.index[strings.ToLower(strings.TrimSpace(def))]; ok {
		set.deflt = canonical
	} else if len(set.codes) > 0 {
		set.deflt = set.codes[0]
	}
	return set
}

// Codes returns the configured codes in order.
func (s Set) Codes() []string {
	return append([]string(nil), s.codes...)
}

// Default returns the default culture code or "".
func (s Set) Default() string { return s.deflt }

// Len returns the number of configured cultures.
func (s Set) Len() int { return len(s.codes) }

// Contains reports whether code is configured.
func (s Set) Contains(code string) bool {
	_, ok := s.index[strings.ToLower(strings.TrimSpace(code))]
	return ok
}

// Normalize returns the configured casing of code.
func (s Set) Normalize(code string) (string, bool) {
	canonical, ok := s.index[strings.ToLower(strings.TrimSpace(code))]
	return canonical, ok
}

// IsDefault reports whether code is the default culture.
func (s Set) IsDefault(code string) bool {
	return s.deflt != "" && strings.EqualFold(strings.TrimSpace(code), s.deflt)
}

func cloneCulture(src *Culture) *Culture {
	if src == nil {
		return nil
	}
	copied := *src
	return &copied
}
