package locator

import (
	"context"
	"fmt"
	"log"
	"os"
	"sync"

	"github.com/GoogleCloudPlatform/functions-framework-go/functions"

	"github.com/refugee-resources/resource-locator/internal/cache"
	"github.com/refugee-resources/resource-locator/internal/catalog"
	"github.com/refugee-resources/resource-locator/internal/chat"
	"github.com/refugee-resources/resource-locator/internal/config"
	"github.com/refugee-resources/resource-locator/internal/extract"
	"github.com/refugee-resources/resource-locator/internal/resource"
	"github.com/refugee-resources/resource-locator/internal/search"
)

var (
	configPath = os.Getenv("LOCATOR_CONFIG")

	appMu sync.RWMutex
	app   *App
)

func init() {
	functions.HTTP("read-data", withApp((*App).readData))
	functions.HTTP("chat", withApp((*App).converse))
	functions.HTTP("markers", withApp((*App).markers))
	functions.CloudEvent("reload-resources", reloadResources)

	cfg, err := config.LoadOrEnv(configPath)
	if err != nil {
		log.Printf("Error loading config: %v", err)
		return
	}
	if err := Configure(cfg); err != nil {
		log.Printf("Error configuring locator: %v", err)
	}
}

// App holds the collaborators shared by every function.
type App struct {
	cfg       *config.Config
	store     *cache.Store
	source    resource.Source
	catalog   *catalog.Catalog
	assistant *chat.Assistant
}

// Configure replaces the app used by the registered functions.
func Configure(cfg *config.Config) error {
	a, err := NewApp(cfg)
	if err != nil {
		return err
	}
	appMu.Lock()
	app = a
	appMu.Unlock()
	return nil
}

// Ping checks that the configured Redis answers.
func Ping(ctx context.Context) error {
	a := currentApp()
	if a == nil {
		return errNotConfigured
	}
	if err := a.store.Ping(ctx); err != nil {
		return fmt.Errorf("redis %s:%s: %w", a.cfg.Redis.Host, a.cfg.Redis.Port, err)
	}
	return nil
}

func currentApp() *App {
	appMu.RLock()
	defer appMu.RUnlock()
	return app
}

// NewApp wires Redis, the dataset source, the catalog and the assistant. No
// network call is made until a request needs one.
func NewApp(cfg *config.Config) (*App, error) {
	src, err := NewSource(cfg.Dataset)
	if err != nil {
		return nil, err
	}

	store := cache.New(cache.Options{
		Host:     cfg.Redis.Host,
		Port:     cfg.Redis.Port,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	cat := catalog.New(src, store, IndexOptions(cfg))
	cat.SetRefreshInterval(cfg.Search.RefreshInterval)
	extractor := extract.NewOpenAI(ExtractOptions(cfg), store)
	sessions := chat.NewRedisStore(store, cfg.Redis.SessionTTL, cfg.Redis.LockTTL)

	return &App{
		cfg:       cfg,
		store:     store,
		source:    src,
		catalog:   cat,
		assistant: chat.NewAssistant(extractor, cat, sessions, cfg.Chat.MaxInput),
	}, nil
}

// NewSource builds the dataset source named by cfg.
func NewSource(cfg config.DatasetConfig) (resource.Source, error) {
	switch cfg.Source {
	case config.SourceFile:
		return resource.FileSource{Path: cfg.Path}, nil
	case config.SourceHTTP:
		return resource.HTTPSource{URL: cfg.URL}, nil
	case config.SourceS3:
		return resource.NewS3Source(resource.S3Options{
			Endpoint:  cfg.S3.Endpoint,
			Region:    cfg.S3.Region,
			Bucket:    cfg.S3.Bucket,
			Key:       cfg.S3.Key,
			AccessKey: cfg.S3.AccessKey,
			SecretKey: cfg.S3.SecretKey,
			UseSSL:    cfg.S3.UseSSL,
		})
	}
	return nil, fmt.Errorf("unknown dataset source %q", cfg.Source)
}

// IndexOptions maps the search section onto the fuzzy index.
func IndexOptions(cfg *config.Config) search.IndexOptions {
	return search.IndexOptions{Weights: cfg.Search.Weights, Threshold: cfg.Search.Threshold}
}

// ExtractOptions maps the openai section onto the extractor.
func ExtractOptions(cfg *config.Config) extract.Options {
	return extract.Options{
		APIKey:      cfg.OpenAI.APIKey,
		BaseURL:     cfg.OpenAI.BaseURL,
		Model:       cfg.OpenAI.Model,
		Temperature: cfg.OpenAI.Temperature,
		Timeout:     cfg.OpenAI.Timeout,
		MaxRetries:  cfg.OpenAI.MaxRetries,
		RetryDelay:  cfg.OpenAI.RetryDelay,
		RateLimit:   cfg.OpenAI.RateLimit,
		Burst:       cfg.OpenAI.Burst,
		CacheTTL:    cfg.Redis.ExtractionTTL,
	}
}
