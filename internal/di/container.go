package di

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/goliatone/go-command/dispatcher"
	"github.com/goliatone/go-command/runner"
	repocache "github.com/goliatone/go-repository-cache/cache"
	"github.com/uptrace/bun"

	"github.com/goliatone/go-blockeditor/internal/commands"
	contentcmd "github.com/goliatone/go-blockeditor/internal/commands/content"
	"github.com/goliatone/go-blockeditor/internal/content"
	"github.com/goliatone/go-blockeditor/internal/contenttypes"
	"github.com/goliatone/go-blockeditor/internal/cultures"
	"github.com/goliatone/go-blockeditor/internal/expose"
	"github.com/goliatone/go-blockeditor/internal/logging"
	"github.com/goliatone/go-blockeditor/internal/logging/gologger"
	"github.com/goliatone/go-blockeditor/internal/metadata"
	"github.com/goliatone/go-blockeditor/internal/projection"
	"github.com/goliatone/go-blockeditor/internal/publishing"
	"github.com/goliatone/go-blockeditor/internal/resolver"
	"github.com/goliatone/go-blockeditor/internal/runtimeconfig"
	"github.com/goliatone/go-blockeditor/internal/validation"
	"github.com/goliatone/go-blockeditor/pkg/interfaces"
	"github.com/goliatone/go-blockeditor/pkg/storage"
)

// CommandRetries is the retry budget given to dispatcher subscriptions.
const CommandRetries = 1

// Subscription is returned by the command dispatcher.
type Subscription interface {
	Unsubscribe()
}

// Container wires module dependencies.
type Container struct {
	Config runtimeconfig.Config

	loggerProvider interfaces.LoggerProvider

	bunDB         *bun.DB
	ownsDB        bool
	cacheService  repocache.CacheService
	keySerializer repocache.KeySerializer

	cultureRepo     cultures.Repository
	contentTypeRepo contenttypes.Repository
	documentRepo    content.Repository

	cultureRegistry *cultures.Registry
	contentTypeSvc  contenttypes.Service
	metadata        *metadata.Provider

	resolver  *resolver.Resolver
	tracker   *expose.Tracker
	splitter  *publishing.Splitter
	projector *projection.Projector
	validator *validation.Validator

	contentSvc content.Service

	saveHandler    *contentcmd.SaveContentHandler
	publishHandler *contentcmd.PublishContentHandler

	mu            sync.Mutex
	started       bool
	subscriptions []Subscription
	watchCancel   context.CancelFunc
}

// Option mutates the container before it is finalised.
type Option func(*Container)

// WithBunDB uses an existing bun connection instead of opening one from
// the storage configuration. The caller keeps ownership of db.
func WithBunDB(db *bun.DB) Option {
	return func(c *Container) {
		c.bunDB = db
	}
}

// WithCache overrides the default repository cache.
func WithCache(service repocache.CacheService, serializer repocache.KeySerializer) Option {
	return func(c *Container) {
		c.cacheService = service
		c.keySerializer = serializer
	}
}

// WithLoggerProvider overrides the logger provider built from configuration.
func WithLoggerProvider(provider interfaces.LoggerProvider) Option {
	return func(c *Container) {
		c.loggerProvider = provider
	}
}

// WithContentTypeRepository overrides the content type repository.
func WithContentTypeRepository(repo contenttypes.Repository) Option {
	return func(c *Container) {
		c.contentTypeRepo = repo
	}
}

// WithDocumentRepository overrides the document repository.
func WithDocumentRepository(repo content.Repository) Option {
	return func(c *Container) {
		c.documentRepo = repo
	}
}

// WithContentService overrides the default content service binding.
func WithContentService(svc content.Service) Option {
	return func(c *Container) {
		c.contentSvc = svc
	}
}

// NewContainer creates a container with the provided configuration.
func NewContainer(cfg runtimeconfig.Config, opts ...Option) (*Container, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	c := &Container{Config: cfg}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}

	if err := c.configureLoggerProvider(); err != nil {
		return nil, err
	}
	c.configureCacheDefaults()
	if err := c.configureRepositories(); err != nil {
		return nil, err
	}
	if err := c.configureServices(); err != nil {
		return nil, err
	}
	c.configureCommands()
	return c, nil
}

func (c *Container) configureLoggerProvider() error {
	if c.loggerProvider != nil || !c.Config.Features.Logger {
		return nil
	}
	provider, err := gologger.NewProvider(gologger.Config{
		Level:     c.Config.Logging.Level,
		Format:    c.Config.Logging.Format,
		AddSource: c.Config.Logging.AddSource,
		Focus:     c.Config.Logging.Focus,
	})
	if err != nil {
		return fmt.Errorf("di: configure logger: %w", err)
	}
	c.loggerProvider = provider
	return nil
}

func (c *Container) configureCacheDefaults() {
	if !c.Config.Cache.Enabled {
		return
	}

	if c.cacheService == nil {
		cfg := repocache.DefaultConfig()
		if c.Config.Cache.DefaultTTL > 0 {
			cfg.TTL = c.Config.Cache.DefaultTTL
		}
		service, err := repocache.NewCacheService(cfg)
		if err == nil {
			c.cacheService = service
		}
	}

	if c.cacheService != nil && c.keySerializer == nil {
		c.keySerializer = repocache.NewDefaultKeySerializer()
	}
}

func (c *Container) configureRepositories() error {
	provider := strings.ToLower(strings.TrimSpace(c.Config.Storage.Provider))
	if c.bunDB == nil && provider != "" && provider != runtimeconfig.StorageMemory {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		db, err := storage.Open(ctx, storage.Config{Driver: provider, DSN: c.Config.Storage.DSN})
		if err != nil {
			return err
		}
		if err := storage.CreateTables(ctx, db, (*cultures.Culture)(nil), (*contenttypes.ContentType)(nil), (*content.Document)(nil)); err != nil {
			_ = db.Close()
			return err
		}
		c.bunDB = db
		c.ownsDB = true
	}

	if c.bunDB == nil {
		if c.cultureRepo == nil {
			c.cultureRepo = cultures.NewMemoryRepository()
		}
		if c.contentTypeRepo == nil {
			c.contentTypeRepo = contenttypes.NewMemoryRepository()
		}
		if c.documentRepo == nil {
			c.documentRepo = content.NewMemoryRepository()
		}
		return nil
	}

	if c.cultureRepo == nil {
		c.cultureRepo = cultures.NewBunRepositoryWithCache(c.bunDB, c.cacheService, c.keySerializer)
	}
	if c.contentTypeRepo == nil {
		c.contentTypeRepo = contenttypes.NewBunRepositoryWithCache(c.bunDB, c.cacheService, c.keySerializer)
	}
	if c.documentRepo == nil {
		c.documentRepo = content.NewBunRepositoryWithCache(c.bunDB, c.cacheService, c.keySerializer)
	}
	return nil
}

func (c *Container) configureServices() error {
	provider := c.loggerProvider

	c.cultureRegistry = cultures.NewRegistry(c.cultureRepo, cultures.WithLogger(logging.ModuleLogger(provider, "blocks.cultures")))

	typeOpts := []contenttypes.ServiceOption{
		contenttypes.WithLogger(logging.ContentTypeLogger(provider)),
	}
	if invalidator, ok := c.contentTypeRepo.(interface {
		InvalidateCache(context.Context) error
	}); ok {
		typeOpts = append(typeOpts, contenttypes.WithCacheInvalidator(invalidator.InvalidateCache))
	}
	c.contentTypeSvc = contenttypes.NewService(c.contentTypeRepo, typeOpts...)
	c.metadata = metadata.NewProvider(c.contentTypeSvc, c.cultureRegistry)

	mode, err := resolver.ParseFoldMode(c.Config.Variance.FoldMode)
	if err != nil {
		return err
	}
	c.resolver = resolver.New(
		resolver.WithFoldPolicy(resolver.FoldPolicy{Mode: mode, FallbackOrder: c.Config.Variance.FallbackOrder}),
		resolver.WithLogger(logging.ResolverLogger(provider)),
	)
	c.tracker = expose.New(
		expose.WithAutoExposeNew(c.Config.Variance.AutoExposeNewBlocks),
		expose.WithLogger(logging.ExposeLogger(provider)),
	)
	c.splitter = publishing.New(publishing.WithLogger(logging.PublishingLogger(provider)))
	c.projector = projection.New(projection.WithLogger(logging.ProjectionLogger(provider)))
	c.validator = validation.New(validation.WithLogger(logging.ValidationLogger(provider)))

	if c.contentSvc == nil {
		c.contentSvc = content.NewService(c.documentRepo, c.metadata,
			content.WithLogger(logging.ContentLogger(provider)),
			content.WithResolver(c.resolver),
			content.WithTracker(c.tracker),
			content.WithSplitter(c.splitter),
			content.WithProjector(c.projector),
			content.WithValidator(c.validator),
		)
	}
	return nil
}

func (c *Container) configureCommands() {
	if !c.Config.Features.Commands || c.contentSvc == nil {
		return
	}
	logger := commands.CommandLogger(c.loggerProvider, "content")
	c.saveHandler = contentcmd.NewSaveContentHandler(c.contentSvc, logger)
	c.publishHandler = contentcmd.NewPublishContentHandler(c.contentSvc, logger)
}

// Start seeds the configured cultures, subscribes command handlers to the
// go-command dispatcher and starts watching content type changes. The
// watcher stops when ctx is cancelled or Close is called.
func (c *Container) Start(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.started {
		return nil
	}

	if err := c.cultureRegistry.Seed(ctx, c.Config.CultureList(), c.Config.DefaultCulture); err != nil {
		return fmt.Errorf("di: seed cultures: %w", err)
	}

	if c.saveHandler != nil {
		c.subscriptions = append(c.subscriptions, dispatcher.SubscribeCommand(c.saveHandler, runner.WithMaxRetries(CommandRetries)))
	}
	if c.publishHandler != nil {
		c.subscriptions = append(c.subscriptions, dispatcher.SubscribeCommand(c.publishHandler, runner.WithMaxRetries(CommandRetries)))
	}

	if c.Config.Features.WatchContentTypes {
		watchCtx, cancel := context.WithCancel(ctx)
		c.watchCancel = cancel
		c.contentSvc.Watch(watchCtx, c.contentTypeSvc)
	}

	c.started = true
	return nil
}

// Close releases subscriptions, the change watcher and any database the
// container opened itself.
func (c *Container) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, sub := range c.subscriptions {
		sub.Unsubscribe()
	}
	c.subscriptions = nil
	if c.watchCancel != nil {
		c.watchCancel()
		c.watchCancel = nil
	}
	c.started = false

	var errs error
	if c.ownsDB && c.bunDB != nil {
		errs = errors.Join(errs, c.bunDB.Close())
		c.bunDB = nil
	}
	return errs
}

// LoggerProvider exposes the configured logger provider, nil when logging
// is disabled.
func (c *Container) LoggerProvider() interfaces.LoggerProvider {
	return c.loggerProvider
}

// BunDB exposes the database connection, nil for in-memory storage.
func (c *Container) BunDB() *bun.DB {
	return c.bunDB
}

// CultureRegistry returns the culture registry.
func (c *Container) CultureRegistry() *cultures.Registry {
	return c.cultureRegistry
}

// ContentTypeService returns the content type service.
func (c *Container) ContentTypeService() contenttypes.Service {
	return c.contentTypeSvc
}

// Metadata returns the metadata snapshot provider.
func (c *Container) Metadata() *metadata.Provider {
	return c.metadata
}

// Resolver returns the variance resolver.
func (c *Container) Resolver() *resolver.Resolver {
	return c.resolver
}

// Tracker returns the expose tracker.
func (c *Container) Tracker() *expose.Tracker {
	return c.tracker
}

// Splitter returns the publish splitter.
func (c *Container) Splitter() *publishing.Splitter {
	return c.splitter
}

// Projector returns the index and render projector.
func (c *Container) Projector() *projection.Projector {
	return c.projector
}

// Validator returns the block validator.
func (c *Container) Validator() *validation.Validator {
	return c.validator
}

// ContentService returns the configured content service.
func (c *Container) ContentService() content.Service {
	return c.contentSvc
}

// SaveHandler returns the save command handler, nil when commands are
// disabled.
func (c *Container) SaveHandler() *contentcmd.SaveContentHandler {
	return c.saveHandler
}

// PublishHandler returns the publish command handler, nil when commands are
// disabled.
func (c *Container) PublishHandler() *contentcmd.PublishContentHandler {
	return c.publishHandler
}
