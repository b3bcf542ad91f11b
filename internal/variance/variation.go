package variance

import (
	"database/sql/driver"
	"errors"
	"fmt"
	"strings"
)

// Variation is the flag set describing what a content type, element type or
// property type varies by.
type Variation uint8

const (
	Nothing           Variation = 0
	Culture           Variation = 1
	Segment           Variation = 2
	CultureAndSegment           = Culture | Segment
)

// ErrVariationInvalid reports an unknown variation label.
var ErrVariationInvalid = errors.New("variance: unknown variation")

// VariesByCulture reports whether the culture flag is set.
func (v Variation) VariesByCulture() bool { return v&Culture != 0 }

// VariesBySegment reports whether the segment flag is set.
func (v Variation) VariesBySegment() bool { return v&Segment != 0 }

func (v Variation) String() string {
	switch v & CultureAndSegment {
	case Culture:
		return "culture"
	case Segment:
		return "segment"
	case CultureAndSegment:
		return "culture_and_segment"
	default:
		return "nothing"
	}
}

// ParseVariation converts a label into a Variation. Labels are matched
// case-insensitively and accept the dotted/camel variants used by older
// payloads ("CultureAndSegment", "culture-and-segment").
func ParseVariation(input string) (Variation, error) {
	normalized := strings.ToLower(strings.TrimSpace(input))
	normalized = strings.NewReplacer("-", "_", " ", "_").Replace(normalized)
	switch normalized {
	case "", "nothing", "invariant", "none":
		return Nothing, nil
	case "culture":
		return Culture, nil
	case "segment":
		return Segment, nil
	case "culture_and_segment", "cultureandsegment", "culture_segment":
		return CultureAndSegment, nil
	default:
		return Nothing, fmt.Errorf("%w: %q", ErrVariationInvalid, input)
	}
}

// MarshalText renders the variation label.
func (v Variation) MarshalText() ([]byte, error) {
	return []byte(v.String()), nil
}

// UnmarshalText parses a variation label.
func (v *Variation) UnmarshalText(data []byte) error {
	parsed, err := ParseVariation(string(data))
	if err != nil {
		return err
	}
	*v = parsed
	return nil
}

// Value implements driver.Valuer so bun stores the label.
func (v Variation) Value() (driver.Value, error) {
	return v.String(), nil
}

// Scan implements sql.Scanner.
func (v *Variation) Scan(src any) error {
	switch typed := src.(type) {
	case nil:
		*v = Nothing
		return nil
	case string:
		return v.UnmarshalText([]byte(typed))
	case []byte:
		return v.UnmarshalText(typed)
	case int64:
		*v = Variation(typed) & CultureAndSegment
		return nil
	default:
		return fmt.Errorf("variance: cannot scan %T", src)
	}
}
