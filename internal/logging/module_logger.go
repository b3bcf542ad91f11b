package logging

import (
	"context"
	"strings"

	"github.com/goliatone/go-blockeditor/pkg/interfaces"
)

const (
	rootModule        = "blocks"
	valueModule       = "blocks.value"
	resolverModule    = "blocks.resolver"
	exposeModule      = "blocks.expose"
	publishingModule  = "blocks.publishing"
	projectionModule  = "blocks.projection"
	validationModule  = "blocks.validation"
	contentModule     = "blocks.content"
	contentTypeModule = "blocks.content_types"
)

const (
	fieldContentKey = "content_key"
	fieldEditor     = "editor"
	fieldCulture    = "culture"
	fieldSegment    = "segment"
)

// ModuleLogger returns a module-scoped logger, falling back to the no-op
// logger when no provider is configured. The module name is attached as the
// "module" field.
func ModuleLogger(provider interfaces.LoggerProvider, module string) interfaces.Logger {
	if module == "" {
		module = rootModule
	}

	logger := NoOp()
	if provider != nil {
		if provided := provider.GetLogger(module); provided != nil {
			logger = provided
		}
	}

	return WithFields(logger, map[string]any{
		"module": module,
	})
}

// ValueLogger is used by the block value codec.
func ValueLogger(provider interfaces.LoggerProvider) interfaces.Logger {
	return ModuleLogger(provider, valueModule)
}

// ResolverLogger is used by the variance resolver.
func ResolverLogger(provider interfaces.LoggerProvider) interfaces.Logger {
	return ModuleLogger(provider, resolverModule)
}

// ExposeLogger is used by the expose tracker.
func ExposeLogger(provider interfaces.LoggerProvider) interfaces.Logger {
	return ModuleLogger(provider, exposeModule)
}

// PublishingLogger is used by the publish splitter.
func PublishingLogger(provider interfaces.LoggerProvider) interfaces.Logger {
	return ModuleLogger(provider, publishingModule)
}

// ProjectionLogger is used by the index/render projector.
func ProjectionLogger(provider interfaces.LoggerProvider) interfaces.Logger {
	return ModuleLogger(provider, projectionModule)
}

// ValidationLogger is used by the block validator.
func ValidationLogger(provider interfaces.LoggerProvider) interfaces.Logger {
	return ModuleLogger(provider, validationModule)
}

// ContentLogger is used by the host content service.
func ContentLogger(provider interfaces.LoggerProvider) interfaces.Logger {
	return ModuleLogger(provider, contentModule)
}

// ContentTypeLogger is used by the content type service.
func ContentTypeLogger(provider interfaces.LoggerProvider) interfaces.Logger {
	return ModuleLogger(provider, contentTypeModule)
}

// WithBlockContext enriches a logger with the block being processed. Empty
// values are skipped.
func WithBlockContext(logger interfaces.Logger, contentKey, editor, culture, segment string) interfaces.Logger {
	fields := map[string]any{}
	if trimmed := strings.TrimSpace(contentKey); trimmed != "" {
		fields[fieldContentKey] = trimmed
	}
	if trimmed := strings.TrimSpace(editor); trimmed != "" {
		fields[fieldEditor] = trimmed
	}
	if trimmed := strings.TrimSpace(culture); trimmed != "" {
		fields[fieldCulture] = trimmed
	}
	if trimmed := strings.TrimSpace(segment); trimmed != "" {
		fields[fieldSegment] = trimmed
	}
	return WithFields(logger, fields)
}

// NoOp returns a logger that drops every entry.
func NoOp() interfaces.Logger {
	return noopLogger{}
}

type noopLogger struct{}

var _ interfaces.Logger = noopLogger{}

func (noopLogger) Trace(string, ...any) {}
func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}
func (noopLogger) Fatal(string, ...any) {}

func (n noopLogger) WithFields(map[string]any) interfaces.Logger {
	return n
}

func (n noopLogger) WithContext(context.Context) interfaces.Logger {
	return n
}
