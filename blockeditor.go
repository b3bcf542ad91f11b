package blockeditor

import (
	"context"

	"github.com/goliatone/go-blockeditor/internal/blockvalue"
	"github.com/goliatone/go-blockeditor/internal/content"
	"github.com/goliatone/go-blockeditor/internal/contenttypes"
	"github.com/goliatone/go-blockeditor/internal/di"
	"github.com/goliatone/go-blockeditor/internal/projection"
	"github.com/goliatone/go-blockeditor/internal/validation"
	"github.com/goliatone/go-blockeditor/internal/variance"
)

// ContentService exports the block document service contract.
type ContentService = content.Service

// ContentTypeService exports the content type service contract.
type ContentTypeService = contenttypes.Service

// Request and value types used with the services.
type (
	SaveRequest        = content.SaveRequest
	PublishRequest     = content.PublishRequest
	ValidateRequest    = content.ValidateRequest
	ProjectRequest     = content.ProjectRequest
	Document           = content.Document
	PropertyValue      = content.PropertyValue
	ContentType        = contenttypes.ContentType
	PropertyType       = contenttypes.PropertyType
	ContentTypeRequest = contenttypes.SaveRequest
	BlockValue         = blockvalue.BlockValue
	RichTextValue      = blockvalue.RichTextValue
	Element            = projection.Element
	RichText           = projection.RichText
	ValidationError    = validation.ValidationError
	Issue              = validation.Issue
	Variation          = variance.Variation
)

// Variation flags.
const (
	VaryNothing           = variance.Nothing
	VaryCulture           = variance.Culture
	VarySegment           = variance.Segment
	VaryCultureAndSegment = variance.CultureAndSegment
)

// Editor aliases of the block editor families.
const (
	BlockListEditor = blockvalue.BlockList
	BlockGridEditor = blockvalue.BlockGrid
	RichTextEditor  = blockvalue.RichText
)

// Module is the top level block editor runtime.
type Module struct {
	container *di.Container
}

// New constructs a module using the provided configuration and optional DI overrides.
func New(cfg Config, opts ...di.Option) (*Module, error) {
	container, err := di.NewContainer(cfg, opts...)
	if err != nil {
		return nil, err
	}
	return &Module{container: container}, nil
}

// Start seeds cultures and starts background collaborators.
func (m *Module) Start(ctx context.Context) error {
	return m.container.Start(ctx)
}

// Close stops background collaborators and releases storage.
func (m *Module) Close() error {
	return m.container.Close()
}

// Container exposes the underlying DI container for advanced integrations.
func (m *Module) Container() *di.Container {
	return m.container
}

// Content returns the block document service.
func (m *Module) Content() ContentService {
	return m.container.ContentService()
}

// ContentTypes returns the content type service.
func (m *Module) ContentTypes() ContentTypeService {
	return m.container.ContentTypeService()
}
