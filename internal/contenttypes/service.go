package contenttypes

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"sync"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/google/uuid"

	"github.com/goliatone/go-blockeditor/internal/identity"
	"github.com/goliatone/go-blockeditor/internal/logging"
	"github.com/goliatone/go-blockeditor/internal/variance"
	"github.com/goliatone/go-blockeditor/pkg/interfaces"
)

var (
	ErrServiceUnavailable = errors.New("content type: service unavailable")
	ErrAliasRequired      = errors.New("content type: alias is required")
	ErrDuplicateProperty  = errors.New("content type: duplicate property alias")
)

var aliasPattern = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9_]*$`)

// Service manages content and element types and keeps a catalog snapshot
// for the block algorithms.
type Service interface {
	Save(ctx context.Context, req SaveRequest) (*ContentType, error)
	Get(ctx context.Context, id uuid.UUID) (*ContentType, error)
	GetByAlias(ctx context.Context, alias string) (*ContentType, error)
	List(ctx context.Context) ([]*ContentType, error)
	Delete(ctx context.Context, id uuid.UUID) error
	Catalog(ctx context.Context) (*Catalog, error)
	Subscribe(ctx context.Context) <-chan ChangeEvent
}

// SaveRequest creates or replaces a content type, matched by alias.
type SaveRequest struct {
	ID         uuid.UUID
	Alias      string
	Name       string
	IsElement  bool
	Variation  variance.Variation
	Properties []PropertyType
}

// Validate checks the request with ozzo-validation.
func (r SaveRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Alias, validation.Required.ErrorObject(validation.NewError("content_type.alias_required", ErrAliasRequired.Error())), validation.Match(aliasPattern)),
		validation.Field(&r.Properties, validation.By(validateProperties)),
	)
}

func validateProperties(value any) error {
	props, _ := value.([]PropertyType)
	seen := map[string]struct{}{}
	for _, prop := range props {
		if err := validation.Validate(prop.Alias, validation.Required, validation.Match(aliasPattern)); err != nil {
			return err
		}
		if _, ok := seen[prop.Alias]; ok {
			return ErrDuplicateProperty
		}
		seen[prop.Alias] = struct{}{}
		if prop.Pattern != "" {
			if _, err := regexp.Compile(prop.Pattern); err != nil {
				return validation.NewError("content_type.pattern_invalid", "pattern does not compile: "+err.Error())
			}
		}
	}
	return nil
}

// ServiceOption mutates the service.
type ServiceOption func(*service)

// WithClock overrides the clock used by the service.
func WithClock(clock func() time.Time) ServiceOption {
	return func(s *service) {
		if clock != nil {
			s.now = clock
		}
	}
}

// WithLogger sets the service logger.
func WithLogger(logger interfaces.Logger) ServiceOption {
	return func(s *service) {
		s.logger = logging.OrNoOp(logger)
	}
}

// WithCacheInvalidator registers a hook invoked after every write, used to
// drop go-repository-cache entries.
func WithCacheInvalidator(fn func(context.Context) error) ServiceOption {
	return func(s *service) {
		s.invalidate = fn
	}
}

// NewService constructs a content type service.
func NewService(repo Repository, opts ...ServiceOption) Service {
	svc := &service{
		repo:        repo,
		now:         func() time.Time { return time.Now().UTC() },
		logger:      logging.NoOp(),
		broadcaster: newChangeBroadcaster(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(svc)
		}
	}
	return svc
}

type service struct {
	repo        Repository
	now         func() time.Time
	logger      interfaces.Logger
	invalidate  func(context.Context) error
	broadcaster *changeBroadcaster

	mu      sync.RWMutex
	catalog *Catalog
}

func (s *service) Save(ctx context.Context, req SaveRequest) (*ContentType, error) {
	if s == nil || s.repo == nil {
		return nil, ErrServiceUnavailable
	}
	req.Alias = strings.TrimSpace(req.Alias)
	if err := req.Validate(); err != nil {
		return nil, err
	}

	previous, err := s.repo.GetByAlias(ctx, req.Alias)
	var notFound *NotFoundError
	if err != nil && !errors.As(err, &notFound) {
		return nil, err
	}

	now := s.now()
	record := &ContentType{
		ID:         req.ID,
		Alias:      req.Alias,
		Name:       strings.TrimSpace(req.Name),
		IsElement:  req.IsElement,
		Variation:  req.Variation & variance.CultureAndSegment,
		Properties: normalizeProperties(req.Properties),
		UpdatedAt:  now,
	}
	if record.Name == "" {
		record.Name = record.Alias
	}

	var (
		stored *ContentType
		evt    ChangeEvent
	)
	if previous == nil {
		if record.ID == uuid.Nil {
			record.ID = identity.ContentTypeUUID(record.Alias)
		}
		record.CreatedAt = now
		stored, err = s.repo.Create(ctx, record)
		evt = ChangeEvent{Type: ChangeCreated}
	} else {
		record.ID = previous.ID
		record.CreatedAt = previous.CreatedAt
		stored, err = s.repo.Update(ctx, record)
		evt = ChangeEvent{Type: ChangeUpdated, Previous: previous}
	}
	if err != nil {
		return nil, err
	}
	evt.ContentType = cloneContentType(stored)

	s.afterWrite(ctx, evt)
	return stored, nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*ContentType, error) {
	if s == nil || s.repo == nil {
		return nil, ErrServiceUnavailable
	}
	return s.repo.GetByID(ctx, id)
}

func (s *service) GetByAlias(ctx context.Context, alias string) (*ContentType, error) {
	if s == nil || s.repo == nil {
		return nil, ErrServiceUnavailable
	}
	return s.repo.GetByAlias(ctx, alias)
}

func (s *service) List(ctx context.Context) ([]*ContentType, error) {
	if s == nil || s.repo == nil {
		return nil, ErrServiceUnavailable
	}
	return s.repo.List(ctx)
}

func (s *service) Delete(ctx context.Context, id uuid.UUID) error {
	if s == nil || s.repo == nil {
		return ErrServiceUnavailable
	}
	existing, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.afterWrite(ctx, ChangeEvent{Type: ChangeDeleted, Previous: existing})
	return nil
}

// Catalog returns a snapshot of every stored type. The snapshot is rebuilt
// after the next write.
func (s *service) Catalog(ctx context.Context) (*Catalog, error) {
	if s == nil || s.repo == nil {
		return nil, ErrServiceUnavailable
	}
	s.mu.RLock()
	cached := s.catalog
	s.mu.RUnlock()
	if cached != nil {
		return cached, nil
	}

	records, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	catalog := NewCatalog(records...)

	s.mu.Lock()
	s.catalog = catalog
	s.mu.Unlock()
	return catalog, nil
}

func (s *service) Subscribe(ctx context.Context) <-chan ChangeEvent {
	return s.broadcaster.Subscribe(ctx)
}

func (s *service) afterWrite(ctx context.Context, evt ChangeEvent) {
	s.mu.Lock()
	s.catalog = nil
	s.mu.Unlock()

	if s.invalidate != nil {
		if err := s.invalidate(ctx); err != nil {
			s.logger.Warn("content_types.cache.invalidate_failed", "error", err)
		}
	}

	alias := ""
	if evt.ContentType != nil {
		alias = evt.ContentType.Alias
	} else if evt.Previous != nil {
		alias = evt.Previous.Alias
	}
	s.logger.Info("content_types.changed",
		"change", string(evt.Type),
		"alias", alias,
		"variance_changed", evt.VarianceChanged(),
	)
	s.broadcaster.Broadcast(evt)
}

func normalizeProperties(props []PropertyType) []PropertyType {
	out := make([]PropertyType, 0, len(props))
	for i, prop := range props {
		prop.Alias = strings.TrimSpace(prop.Alias)
		prop.EditorAlias = strings.TrimSpace(prop.EditorAlias)
		prop.Variation &= variance.CultureAndSegment
		if prop.Name == "" {
			prop.Name = prop.Alias
		}
		if prop.SortOrder == 0 {
			prop.SortOrder = i
		}
		out = append(out, prop)
	}
	return out
}
