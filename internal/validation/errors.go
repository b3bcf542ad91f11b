package validation

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrValidation is the sentinel every ValidationError unwraps to.
	ErrValidation = errors.New("validation failed")
	// ErrEnvelopeInvalid reports a stored value whose JSON shape is wrong.
	ErrEnvelopeInvalid = errors.New("validation: block value envelope invalid")
)

// Issue codes.
const (
	CodeRequired = "required"
	CodePattern  = "pattern"
	CodeEnvelope = "envelope"
)

// Issue is one failed rule. JSONPath addresses the failing value inside the
// stored property JSON; Property names that document property when the issue
// was collected by a document level validation.
type Issue struct {
	Property      string  `json:"property,omitempty"`
	PropertyAlias string  `json:"propertyAlias"`
	Culture       *string `json:"culture"`
	Segment       *string `json:"segment"`
	JSONPath      string  `json:"jsonPath"`
	Code          string  `json:"code"`
	Message       string  `json:"message"`
}

// ValidationError aggregates the issues found in one block value.
type ValidationError struct {
	Issues []Issue
	Cause  error
}

func (e *ValidationError) Error() string {
	if len(e.Issues) == 0 {
		if e.Cause != nil {
			return e.Cause.Error()
		}
		return ErrValidation.Error()
	}
	parts := make([]string, 0, len(e.Issues))
	for _, issue := range e.Issues {
		location := strings.TrimSpace(issue.JSONPath)
		if location == "" {
			location = "$"
		}
		if issue.Message == "" {
			parts = append(parts, location)
			continue
		}
		parts = append(parts, fmt.Sprintf("%s: %s", location, issue.Message))
	}
	return strings.Join(parts, "; ")
}

func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

// Issues extracts validation issues from an error.
func Issues(err error) []Issue {
	if err == nil {
		return nil
	}
	var validationErr *ValidationError
	if errors.As(err, &validationErr) && validationErr != nil {
		return validationErr.Issues
	}
	return []Issue{{Message: err.Error()}}
}
