package commands

import (
	"context"
	"errors"

	goerrors "github.com/goliatone/go-errors"

	"github.com/goliatone/go-blockeditor/internal/validation"
)

const (
	commandValidationCode   = "BLOCKS_COMMAND_VALIDATION_FAILED"
	commandContentInvalid   = "BLOCKS_CONTENT_INVALID"
	commandContextCanceled  = "BLOCKS_COMMAND_CANCELED"
	commandContextTimeout   = "BLOCKS_COMMAND_TIMEOUT"
	commandContextErrorCode = "BLOCKS_COMMAND_CONTEXT_ERROR"
	commandExecuteFailed    = "BLOCKS_COMMAND_FAILED"
)

func wrapValidationError(err error) error {
	if err == nil {
		return nil
	}
	if goerrors.IsWrapped(err) {
		return err
	}
	return goerrors.Wrap(err, goerrors.CategoryValidation, "command validation failed").
		WithTextCode(commandValidationCode)
}

func wrapContextError(err error) error {
	if err == nil {
		return nil
	}
	if goerrors.IsWrapped(err) {
		return err
	}
	switch {
	case errors.Is(err, context.Canceled):
		return goerrors.Wrap(err, goerrors.CategoryCommand, "command execution cancelled").
			WithTextCode(commandContextCanceled)
	case errors.Is(err, context.DeadlineExceeded):
		return goerrors.Wrap(err, goerrors.CategoryCommand, "command execution deadline exceeded").
			WithTextCode(commandContextTimeout)
	default:
		return goerrors.Wrap(err, goerrors.CategoryCommand, "command context error").
			WithTextCode(commandContextErrorCode)
	}
}

// wrapExecuteError reports block validation failures in the validation
// category so callers can surface the issue paths.
func wrapExecuteError(err error) error {
	if err == nil {
		return nil
	}
	if goerrors.IsWrapped(err) {
		return err
	}
	if errors.Is(err, validation.ErrValidation) {
		return goerrors.Wrap(err, goerrors.CategoryValidation, "block content failed validation").
			WithTextCode(commandContentInvalid)
	}
	return goerrors.Wrap(err, goerrors.CategoryCommand, "command execution failed").
		WithTextCode(commandExecuteFailed)
}
