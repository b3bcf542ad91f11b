package content

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/goliatone/go-blockeditor/internal/blockvalue"
	"github.com/goliatone/go-blockeditor/internal/contenttypes"
	"github.com/goliatone/go-blockeditor/internal/expose"
	"github.com/goliatone/go-blockeditor/internal/logging"
	"github.com/goliatone/go-blockeditor/internal/metadata"
	"github.com/goliatone/go-blockeditor/internal/projection"
	"github.com/goliatone/go-blockeditor/internal/publishing"
	"github.com/goliatone/go-blockeditor/internal/resolver"
	"github.com/goliatone/go-blockeditor/internal/validation"
	"github.com/goliatone/go-blockeditor/pkg/interfaces"
)

// Service exposes the block document use-cases.
type Service interface {
	Save(ctx context.Context, req SaveRequest) (*Document, error)
	Get(ctx context.Context, id uuid.UUID) (*Document, error)
	GetBySlug(ctx context.Context, slug string) (*Document, error)
	List(ctx context.Context) ([]*Document, error)
	Delete(ctx context.Context, id uuid.UUID) error
	Publish(ctx context.Context, req PublishRequest) (*Document, error)
	Validate(ctx context.Context, req ValidateRequest) error
	Index(ctx context.Context, req ProjectRequest) (string, error)
	Render(ctx context.Context, req ProjectRequest) (map[string]any, error)
	HandleContentTypeChange(ctx context.Context, evt contenttypes.ChangeEvent) error
	Watch(ctx context.Context, source ChangeSource)
}

// SaveRequest creates or updates a document draft. EditedCultures lists the
// cultures the editor worked on; values and exposure of other cultures are
// kept from the stored draft. Empty means every culture was edited.
type SaveRequest struct {
	ID               uuid.UUID
	ContentTypeID    uuid.UUID
	ContentTypeAlias string
	Slug             string
	Name             string
	Values           []PropertyValue
	EditedCultures   []string
}

// PublishRequest publishes the draft of a document for Cultures. Empty
// Cultures publishes every configured culture.
type PublishRequest struct {
	ID             uuid.UUID
	Cultures       []string
	SkipValidation bool
}

// ValidateRequest validates the draft of a document for Cultures.
type ValidateRequest struct {
	ID       uuid.UUID
	Cultures []string
}

// ProjectRequest selects the document variant to index or render.
type ProjectRequest struct {
	ID        uuid.UUID
	Culture   string
	Segment   string
	Published bool
}

// ChangeSource streams content type changes.
type ChangeSource interface {
	Subscribe(ctx context.Context) <-chan contenttypes.ChangeEvent
}

// MetadataSource builds metadata snapshots.
type MetadataSource interface {
	Snapshot(ctx context.Context) (*metadata.Metadata, error)
}

var (
	ErrServiceUnavailable      = errors.New("content: service unavailable")
	ErrContentTypeRequired     = errors.New("content: content type does not exist")
	ErrElementTypeNotDocument  = errors.New("content: element types cannot be used as document types")
	ErrContentIDRequired       = errors.New("content: document id required")
	ErrSlugRequired            = errors.New("content: slug is required")
	ErrSlugInvalid             = errors.New("content: slug contains invalid characters")
	ErrSlugExists              = errors.New("content: slug already exists")
	ErrUnknownCulture          = errors.New("content: unknown culture")
	ErrCultureNotPublished     = errors.New("content: culture is not published")
	ErrContentTypeChangeFailed = errors.New("content: content type change could not be applied")
)

// IDGenerator produces document identifiers.
type IDGenerator func() uuid.UUID

// ServiceOption mutates the service configuration.
type ServiceOption func(*service)

// WithClock overrides the clock used by the service.
func WithClock(clock func() time.Time) ServiceOption {
	return func(s *service) {
		if clock != nil {
			s.now = clock
		}
	}
}

// WithIDGenerator overrides the document id generator.
func WithIDGenerator(generator IDGenerator) ServiceOption {
	return func(s *service) {
		if generator != nil {
			s.id = generator
		}
	}
}

// WithLogger sets the service logger.
func WithLogger(logger interfaces.Logger) ServiceOption {
	return func(s *service) {
		s.logger = logging.OrNoOp(logger)
	}
}

// WithResolver overrides the variance resolver.
func WithResolver(r *resolver.Resolver) ServiceOption {
	return func(s *service) {
		if r != nil {
			s.resolver = r
		}
	}
}

// WithTracker overrides the expose tracker.
func WithTracker(t *expose.Tracker) ServiceOption {
	return func(s *service) {
		if t != nil {
			s.tracker = t
		}
	}
}

// WithSplitter overrides the publish splitter.
func WithSplitter(sp *publishing.Splitter) ServiceOption {
	return func(s *service) {
		if sp != nil {
			s.splitter = sp
		}
	}
}

// WithProjector overrides the index/render projector.
func WithProjector(p *projection.Projector) ServiceOption {
	return func(s *service) {
		if p != nil {
			s.projector = p
		}
	}
}

// WithValidator overrides the block validator.
func WithValidator(v *validation.Validator) ServiceOption {
	return func(s *service) {
		if v != nil {
			s.validator = v
		}
	}
}

type service struct {
	docs      Repository
	meta      MetadataSource
	now       func() time.Time
	id        IDGenerator
	logger    interfaces.Logger
	decoder   *blockvalue.Decoder
	resolver  *resolver.Resolver
	tracker   *expose.Tracker
	splitter  *publishing.Splitter
	projector *projection.Projector
	validator *validation.Validator
}

// NewService constructs the document service.
func NewService(docs Repository, meta MetadataSource, opts ...ServiceOption) Service {
	svc := &service{
		docs:      docs,
		meta:      meta,
		now:       func() time.Time { return time.Now().UTC() },
		id:        uuid.New,
		logger:    logging.NoOp(),
		resolver:  resolver.New(),
		tracker:   expose.New(),
		splitter:  publishing.New(),
		projector: projection.New(),
		validator: validation.New(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(svc)
		}
	}
	svc.decoder = blockvalue.NewDecoder(svc.logger)
	return svc
}

func (s *service) ready() error {
	if s == nil || s.docs == nil || s.meta == nil {
		return ErrServiceUnavailable
	}
	return nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*Document, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	if id == uuid.Nil {
		return nil, ErrContentIDRequired
	}
	return s.docs.GetByID(ctx, id)
}

func (s *service) GetBySlug(ctx context.Context, slug string) (*Document, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	return s.docs.GetBySlug(ctx, slug)
}

func (s *service) List(ctx context.Context) ([]*Document, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	return s.docs.List(ctx)
}

func (s *service) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.ready(); err != nil {
		return err
	}
	if id == uuid.Nil {
		return ErrContentIDRequired
	}
	if err := s.docs.Delete(ctx, id); err != nil {
		return err
	}
	s.log(ctx).Info("content.deleted", "document_id", id.String())
	return nil
}

// load returns the document, a metadata snapshot and the document type.
func (s *service) load(ctx context.Context, id uuid.UUID) (*Document, *metadata.Metadata, *contenttypes.ContentType, error) {
	if err := s.ready(); err != nil {
		return nil, nil, nil, err
	}
	if id == uuid.Nil {
		return nil, nil, nil, ErrContentIDRequired
	}
	doc, err := s.docs.GetByID(ctx, id)
	if err != nil {
		return nil, nil, nil, err
	}
	meta, err := s.meta.Snapshot(ctx)
	if err != nil {
		return nil, nil, nil, err
	}
	docType, ok := meta.ContentType(doc.ContentTypeID)
	if !ok {
		return nil, nil, nil, ErrContentTypeRequired
	}
	return doc, meta, docType, nil
}

func (s *service) log(ctx context.Context) interfaces.Logger {
	if ctx == nil {
		return s.logger
	}
	return s.logger.WithContext(ctx)
}
