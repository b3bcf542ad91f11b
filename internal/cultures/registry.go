package cultures

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/goliatone/go-blockeditor/internal/identity"
	"github.com/goliatone/go-blockeditor/internal/logging"
	"github.com/goliatone/go-blockeditor/pkg/interfaces"
)

// ErrNoCultures is returned when no active culture is configured.
var ErrNoCultures = errors.New("cultures: no active culture configured")

var (
	_ interfaces.CultureRegistry = (*Registry)(nil)
	_ interfaces.CultureRegistry = Static{}
)

// Registry serves the configured cultures from a Repository.
type Registry struct {
	repo   Repository
	now    func() time.Time
	logger interfaces.Logger
}

// RegistryOption configures a Registry.
type RegistryOption func(*Registry)

// WithClock overrides the timestamp source used when seeding.
func WithClock(clock func() time.Time) RegistryOption {
	return func(r *Registry) {
		if clock != nil {
			r.now = clock
		}
	}
}

// WithLogger sets the registry logger.
func WithLogger(logger interfaces.Logger) RegistryOption {
	return func(r *Registry) {
		r.logger = logging.OrNoOp(logger)
	}
}

// NewRegistry constructs a Registry backed by repo.
func NewRegistry(repo Repository, opts ...RegistryOption) *Registry {
	r := &Registry{
		repo:   repo,
		now:    func() time.Time { return time.Now().UTC() },
		logger: logging.NoOp(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Seed upserts the given cultures using deterministic ids. Existing cultures
// missing from codes are deactivated rather than removed so stored values
// tagged with them keep resolving until the next save.
func (r *Registry) Seed(ctx context.Context, codes []string, def string) error {
	set := NewSet(codes, def)
	if set.Len() == 0 {
		return ErrNoCultures
	}

	existing, err := r.repo.List(ctx)
	if err != nil {
		return err
	}
	byCode := make(map[string]*Culture, len(existing))
	for _, record := range existing {
		byCode[strings.ToLower(record.Code)] = record
	}

	for order, code := range set.Codes() {
		key := strings.ToLower(code)
		record, ok := byCode[key]
		delete(byCode, key)
		if !ok {
			if _, err := r.repo.Create(ctx, &Culture{
				ID:        identity.CultureUUID(code),
				Code:      code,
				Name:      code,
				IsDefault: set.IsDefault(code),
				IsActive:  true,
				SortOrder: order,
				CreatedAt: r.now(),
			}); err != nil {
				return err
			}
			r.logger.Debug("cultures.seed.created", "culture", code)
			continue
		}
		record.Code = code
		record.IsDefault = set.IsDefault(code)
		record.IsActive = true
		record.SortOrder = order
		if _, err := r.repo.Update(ctx, record); err != nil {
			return err
		}
	}

	for _, stale := range byCode {
		if !stale.IsActive && !stale.IsDefault {
			continue
		}
		stale.IsActive = false
		stale.IsDefault = false
		if _, err := r.repo.Update(ctx, stale); err != nil {
			return err
		}
		r.logger.Info("cultures.seed.deactivated", "culture", stale.Code)
	}
	return nil
}

// Snapshot returns the active cultures as a Set.
func (r *Registry) Snapshot(ctx context.Context) (Set, error) {
	records, err := r.repo.List(ctx)
	if err != nil {
		return Set{}, err
	}
	codes := make([]string, 0, len(records))
	def := ""
	for _, record := range records {
		if !record.IsActive {
			continue
		}
		codes = append(codes, record.Code)
		if record.IsDefault && def == "" {
			def = record.Code
		}
	}
	if len(codes) == 0 {
		return Set{}, ErrNoCultures
	}
	return NewSet(codes, def), nil
}

// Cultures implements interfaces.CultureRegistry.
func (r *Registry) Cultures(ctx context.Context) ([]string, error) {
	set, err := r.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	return set.Codes(), nil
}

// DefaultCulture implements interfaces.CultureRegistry.
func (r *Registry) DefaultCulture(ctx context.Context) (string, error) {
	set, err := r.Snapshot(ctx)
	if err != nil {
		return "", err
	}
	return set.Default(), nil
}

// Static is a CultureRegistry over a fixed Set, used when cultures come from
// configuration only.
type Static struct {
	Set Set
}

// NewStatic builds a Static registry.
func NewStatic(codes []string, def string) Static {
	return Static{Set: NewSet(codes, def)}
}

func (s Static) Cultures(context.Context) ([]string, error) {
	if s.Set.Len() == 0 {
		return nil, ErrNoCultures
	}
	return s.Set.Codes(), nil
}

func (s Static) DefaultCulture(context.Context) (string, error) {
	if s.Set.Len() == 0 {
		return "", ErrNoCultures
	}
	return s.Set.Default(), nil
}

// Resolve reads a Set from any CultureRegistry.
func Resolve(ctx context.Context, registry interfaces.CultureRegistry) (Set, error) {
	if registry == nil {
		return Set{}, ErrNoCultures
	}
	if snapshotter, ok := registry.(interface {
		Snapshot(context.Context) (Set, error)
	}); ok {
		return snapshotter.Snapshot(ctx)
	}
	if static, ok := registry.(Static); ok {
		return static.Set, nil
	}
	codes, err := registry.Cultures(ctx)
	if err != nil {
		return Set{}, err
	}
	def, err := registry.DefaultCulture(ctx)
	if err != nil {
		return Set{}, err
	}
	return NewSet(codes, def), nil
}
