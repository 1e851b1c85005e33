package bootstrap

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/gin-gonic/gin"

	"medvault-backend/internal/account"
	"medvault-backend/internal/chat"
	"medvault-backend/internal/classify"
	"medvault-backend/internal/documents"
	"medvault-backend/internal/llm"
	"medvault-backend/internal/llm/gemini"
	"medvault-backend/internal/llm/openai"
	"medvault-backend/internal/ocr"
	"medvault-backend/internal/report"
	"medvault-backend/internal/services/health"
	"medvault-backend/internal/shared/cache"
	"medvault-backend/internal/shared/config"
	"medvault-backend/internal/shared/server"
	"medvault-backend/internal/shared/storage/db"
	"medvault-backend/internal/shared/storage/object"
	gcsstore "medvault-backend/internal/shared/storage/object/gcs"
	localstore "medvault-backend/internal/shared/storage/object/local"
	s3store "medvault-backend/internal/shared/storage/object/s3"
	"medvault-backend/internal/shared/telemetry"
	"medvault-backend/internal/usage"
)

// App holds shared dependencies and the wired router.
type App struct {
	Config config.Config
	Router *gin.Engine
	DB     *sql.DB
	Store  object.ObjectStore
	Cache  cache.Cache
	LLM    llm.Client

	DocumentsRepo documents.Repo
	ChatRepo      chat.Repo

	OCR              *ocr.Service
	Classifier       classify.AI
	DocumentsService *documents.Service
	ChatService      *chat.Service
	ReportService    *report.Service
	UsageService     *usage.Service
	AccountService   *account.Service
	HealthService    *health.Service

	DocumentsHandler *documents.Handler
	ChatHandler      *chat.Handler
	ReportHandler    *report.Handler
	UsageHandler     *usage.Handler
	AccountHandler   *account.Handler
}

// Build connects infrastructure, constructs services and wires the router.
func Build(cfg config.Config) (*App, error) {
	if strings.TrimSpace(cfg.Env) == "" {
		cfg.Env = "dev"
	}
	if strings.TrimSpace(cfg.ObjectStoreType) == "" {
		cfg.ObjectStoreType = "local"
	}
	ctx := context.Background()

	sqlDB, err := buildDB(ctx, cfg)
	if err != nil {
		return nil, err
	}

	store, err := buildStore(ctx, cfg)
	if err != nil {
		return nil, err
	}

	kv, err := buildCache(ctx, cfg)
	if err != nil {
		return nil, err
	}

	client, err := BuildLLM(cfg)
	if err != nil {
		return nil, err
	}

	app := &App{
		Config: cfg,
		DB:     sqlDB,
		Store:  store,
		Cache:  kv,
		LLM:    client,
	}
	buildServices(app)

	app.Router = server.NewRouter(server.RouterDeps{
		Config:          app.Config,
		Health:          app.HealthService,
		DocumentHandler: app.DocumentsHandler,
		ChatHandler:     app.ChatHandler,
		ReportHandler:   app.ReportHandler,
		UsageHandler:    app.UsageHandler,
		AccountHandler:  app.AccountHandler,
	})

	return app, nil
}

// Close releases the database pool and any store client.
func (a *App) Close() error {
	var errs []error
	if a.DB != nil && !db.IsLambdaRuntime() {
		errs = append(errs, a.DB.Close())
	}
	if closer, ok := a.Store.(interface{ Close() error }); ok {
		errs = append(errs, closer.Close())
	}
	return errors.Join(errs...)
}

func buildDB(ctx context.Context, cfg config.Config) (*sql.DB, error) {
	if strings.TrimSpace(cfg.DatabaseURL) == "" {
		if isDevLike(cfg.Env) {
			telemetry.Warn("bootstrap.memory_repos", map[string]any{"reason": "DATABASE_URL empty"})
			return nil, nil
		}
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	var (
		sqlDB *sql.DB
		err   error
	)
	if db.IsLambdaRuntime() {
		sqlDB, err = db.Shared(ctx, cfg.DatabaseURL, db.OptionsFor(db.ProfileLambda))
	} else {
		sqlDB, err = db.Connect(ctx, cfg.DatabaseURL, db.OptionsFor(db.ProfileServer))
	}
	if err != nil {
		if isDevLike(cfg.Env) {
			telemetry.Warn("bootstrap.memory_repos", map[string]any{"reason": "connect failed", "error": err.Error()})
			return nil, nil
		}
		return nil, err
	}

	if isDevLike(cfg.Env) {
		if err := db.RunMigrations(ctx, sqlDB); err != nil {
			return nil, fmt.Errorf("run migrations: %w", err)
		}
	}
	return sqlDB, nil
}

func buildStore(ctx context.Context, cfg config.Config) (object.ObjectStore, error) {
	switch cfg.ObjectStoreType {
	case "s3":
		if strings.TrimSpace(cfg.S3Bucket) == "" {
			return nil, fmt.Errorf("OBJECT_STORE=s3 requires S3_BUCKET")
		}
		return s3store.New(ctx, cfg.AWSRegion, cfg.S3Bucket, cfg.S3Prefix, cfg.SSEKMSKeyID)
	case "gcs":
		if strings.TrimSpace(cfg.GCSBucket) == "" {
			return nil, fmt.Errorf("OBJECT_STORE=gcs requires GCS_BUCKET")
		}
		return gcsstore.New(ctx, cfg.GCSBucket, cfg.GCSPrefix)
	default:
		return localstore.New(cfg.LocalStoreDir), nil
	}
}

func buildCache(ctx context.Context, cfg config.Config) (cache.Cache, error) {
	kv, err := cache.New(ctx, cfg.RedisURL)
	if err != nil {
		if isDevLike(cfg.Env) {
			telemetry.Warn("bootstrap.memory_cache", map[string]any{"error": err.Error()})
			return cache.NewMemory(), nil
		}
		return nil, err
	}
	return kv, nil
}

// BuildLLM returns the configured provider wrapped with timeout and retry
// handling, or llm.Disabled when no provider is configured.
func BuildLLM(cfg config.Config) (llm.Client, error) {
	var (
		client llm.Client
		err    error
	)
	switch cfg.LLMProvider {
	case "openai":
		client, err = openai.NewClient(cfg.OpenAIAPIKey, cfg.OpenAIBaseURL, cfg.ChatModel)
	case "gemini":
		client, err = gemini.NewClient(cfg.GeminiAPIKey, cfg.GeminiBaseURL, cfg.ChatModel)
	default:
		return llm.Disabled{}, nil
	}
	if err != nil {
		if isDevLike(cfg.Env) {
			telemetry.Warn("bootstrap.llm_disabled", map[string]any{"provider": cfg.LLMProvider, "error": err.Error()})
			return llm.Disabled{}, nil
		}
		return nil, err
	}
	return llm.WithPolicy(client, cfg.LLMProvider, llm.Policy{
		Timeout:    cfg.LLMTimeout,
		MaxRetries: cfg.LLMMaxRetries,
	}), nil
}

func buildServices(app *App) {
	cfg := app.Config

	var (
		docRepo  documents.Repo
		chatRepo chat.Repo
		usageSvc *usage.Service
	)
	policy := usage.Policy{Plan: usage.DefaultPolicy.Plan, Limit: cfg.UsageLimit, Period: cfg.UsagePeriod}
	if app.DB != nil {
		docRepo = &documents.PGRepo{DB: app.DB}
		chatRepo = &chat.PGRepo{DB: app.DB}
		usageSvc = usage.NewPostgresService(app.DB, policy)
	} else {
		docRepo = documents.NewMemoryRepo()
		chatRepo = chat.NewMemoryRepo()
		usageSvc = usage.NewService(policy)
	}

	app.OCR = &ocr.Service{
		Store:      app.Store,
		LLM:        app.LLM,
		Model:      cfg.VisionModel,
		Cache:      app.Cache,
		CacheTTL:   cfg.OCRCacheTTL,
		PDFEnabled: cfg.OCRPDFEnabled,
	}
	app.Classifier = classify.AI{LLM: app.LLM, Model: cfg.ClassifierModel}

	app.DocumentsRepo = docRepo
	app.ChatRepo = chatRepo
	app.UsageService = usageSvc
	app.DocumentsService = &documents.Service{
		Repo:             docRepo,
		Store:            app.Store,
		OCR:              app.OCR,
		Classifier:       app.Classifier,
		PresignDownloads: cfg.S3PresignDownload,
	}
	app.ChatService = &chat.Service{
		Repo:      chatRepo,
		Documents: docRepo,
		LLM:       app.LLM,
		Model:     cfg.ChatModel,
		Usage:     usageSvc,
	}
	app.ReportService = &report.Service{
		Documents: docRepo,
		LLM:       app.LLM,
		Model:     cfg.ReportModel,
		Usage:     usageSvc,
	}
	app.AccountService = account.NewService(docRepo, chatRepo)
	app.HealthService = health.NewService(app.DB, app.Cache)

	app.DocumentsHandler = documents.NewHandler(app.DocumentsService)
	app.ChatHandler = chat.NewHandler(app.ChatService)
	app.ReportHandler = report.NewHandler(app.ReportService)
	app.UsageHandler = usage.NewHandler(usageSvc)
	app.AccountHandler = account.NewHandler(app.AccountService)
}

func isDevLike(env string) bool {
	switch strings.ToLower(strings.TrimSpace(env)) {
	case "dev", "local":
		return true
	default:
		return false
	}
}
