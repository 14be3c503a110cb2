// Package bootstrap wires configuration into the services shared by the API,
// the worker and the Lambda entry points.
package bootstrap

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	googleauth "github.com/zii786/pitchframe/internal/auth"
	"github.com/zii786/pitchframe/internal/documents"
	"github.com/zii786/pitchframe/internal/engine"
	"github.com/zii786/pitchframe/internal/events"
	"github.com/zii786/pitchframe/internal/pitches"
	"github.com/zii786/pitchframe/internal/queue"
	"github.com/zii786/pitchframe/internal/shared/cache"
	"github.com/zii786/pitchframe/internal/shared/config"
	"github.com/zii786/pitchframe/internal/shared/server"
	"github.com/zii786/pitchframe/internal/shared/storage/db"
	"github.com/zii786/pitchframe/internal/shared/storage/object"
	localstore "github.com/zii786/pitchframe/internal/shared/storage/object/local"
	miniostore "github.com/zii786/pitchframe/internal/shared/storage/object/minio"
	s3store "github.com/zii786/pitchframe/internal/shared/storage/object/s3"
	"github.com/zii786/pitchframe/internal/shared/telemetry"
	"github.com/zii786/pitchframe/internal/users"
)

// App holds shared dependencies.
type App struct {
	Config     config.Config
	Router     *gin.Engine
	DB         *sql.DB
	Store      object.Store
	Redis      *redis.Client
	Engine     *engine.Engine
	Events     events.Publisher
	SQS        queue.SQSAPI
	Documents  *documents.Service
	Pitches    *pitches.Service
	Users      *users.Service
	GoogleAuth *googleauth.GoogleService
}

// Build connects every configured backend and assembles the services and the
// HTTP router. Optional backends (Redis, Kafka, SQS) are skipped when unset.
func Build(ctx context.Context, cfg config.Config) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	level := cfg.LogLevel
	if cfg.DebugMode {
		level = "debug"
	}
	telemetry.SetLevel(level)

	app := &App{Config: cfg, Events: events.Nop{}}
	var err error

	if app.DB, err = buildDB(ctx, cfg); err != nil {
		return nil, err
	}
	if app.Store, err = buildStore(ctx, cfg); err != nil {
		return nil, err
	}
	if app.Redis, err = buildRedis(ctx, cfg); err != nil {
		return nil, err
	}
	if len(cfg.KafkaBrokers) > 0 {
		pub, err := events.NewKafkaPublisher(cfg.KafkaBrokers, cfg.KafkaTopic)
		if err != nil {
			return nil, err
		}
		app.Events = pub
	}

	engineOpts := []engine.Option{engine.WithMockSeed(cfg.MockSeed)}
	if app.Redis != nil {
		engineOpts = append(engineOpts, engine.WithCache(cache.NewRedisCache(app.Redis), cfg.LLMCacheTTL))
	} else {
		engineOpts = append(engineOpts, engine.WithCache(cache.NewMemoryCache(), cfg.LLMCacheTTL))
	}
	app.Engine = engine.New(engineOpts...)

	var sender queue.Sender
	if cfg.SQSQueueURL != "" {
		api, err := queue.NewSQSAPI(ctx, cfg.SQSRegion)
		if err != nil {
			return nil, err
		}
		app.SQS = api
		if sender, err = queue.NewSQSSender(api, cfg.SQSQueueURL); err != nil {
			return nil, err
		}
	}

	buildServices(app, sender)

	app.Router = server.NewRouter(cfg, server.RouterDeps{
		Routes: []server.Routes{
			documents.NewHandler(app.Documents),
			pitches.NewHandler(app.Pitches),
			users.NewHandler(app.Users),
			app.GoogleAuth,
		},
		Ready: app.Ready,
	})
	return app, nil
}

func buildServices(app *App, sender queue.Sender) {
	var (
		docRepo   documents.Repo
		pitchRepo pitches.Repo
		userRepo  users.Repo
	)
	if app.DB != nil {
		docRepo = &documents.PGRepo{DB: app.DB}
		pitchRepo = &pitches.PGRepo{DB: app.DB}
		userRepo = &users.PGRepo{DB: app.DB}
	} else {
		docRepo = documents.NewMemoryRepo()
		pitchRepo = pitches.NewMemoryRepo()
		userRepo = users.NewMemoryRepo()
	}

	app.Documents = &documents.Service{Store: app.Store, Repo: docRepo}
	app.Pitches = &pitches.Service{
		Repo:      pitchRepo,
		Documents: app.Documents,
		Engine:    app.Engine,
		Scoring:   app.Config.Scoring(),
		Inline:    !app.Config.ProcessAsync,
		Events:    app.Events,
		Reports:   app.Store,
	}
	// A nil *SQSSender must not become a non-nil interface.
	if sender != nil {
		app.Pitches.Queue = sender
	}
	app.GoogleAuth = googleauth.NewGoogleService(
		app.Config.GoogleClientID,
		app.Config.GoogleClientSecret,
		app.Config.GoogleRedirectURL,
		app.Config.UIRedirectURL,
	)
	app.Users = users.NewService(userRepo)
	app.GoogleAuth.Users = app.Users
}

func buildDB(ctx context.Context, cfg config.Config) (*sql.DB, error) {
	if strings.TrimSpace(cfg.DatabaseURL) == "" {
		if devLike(cfg) {
			telemetry.Warn("bootstrap.db_memory_fallback", map[string]any{"reason": "DATABASE_URL empty"})
			return nil, nil
		}
		return nil, db.ErrNoDatabaseURL
	}

	var (
		sqlDB *sql.DB
		err   error
	)
	if db.IsLambdaRuntime() {
		sqlDB, err = db.GetSingleton(ctx, cfg.DatabaseURL, db.OptionsFromEnv(db.DefaultLambdaOptions()))
	} else {
		sqlDB, err = db.Connect(ctx, cfg.DatabaseURL, db.OptionsFromEnv(db.DefaultServerOptions()))
	}
	if err != nil {
		if devLike(cfg) {
			telemetry.Warn("bootstrap.db_memory_fallback", map[string]any{"error": err.Error()})
			return nil, nil
		}
		return nil, err
	}

	if cfg.AutoMigrate {
		if err := db.RunMigrations(ctx, sqlDB); err != nil {
			return nil, fmt.Errorf("migrate: %w", err)
		}
	}
	return sqlDB, nil
}

func buildStore(ctx context.Context, cfg config.Config) (object.Store, error) {
	switch cfg.ObjectStoreType {
	case object.ProviderS3:
		return s3store.New(ctx, cfg.AWSRegion, cfg.S3Bucket, cfg.S3Prefix, cfg.SSEKMSKeyID)
	case object.ProviderMinio:
		return miniostore.New(ctx, miniostore.Config{
			Endpoint:  cfg.MinioEndpoint,
			AccessKey: cfg.MinioAccessKey,
			SecretKey: cfg.MinioSecretKey,
			Bucket:    cfg.MinioBucket,
			UseSSL:    cfg.MinioUseSSL,
		})
	default:
		return localstore.New(cfg.LocalStoreDir), nil
	}
}

func buildRedis(ctx context.Context, cfg config.Config) (*redis.Client, error) {
	if strings.TrimSpace(cfg.RedisURL) == "" {
		return nil, nil
	}
	client, err := cache.NewRedisClient(ctx, cfg.RedisURL)
	if err != nil {
		if devLike(cfg) {
			telemetry.Warn("bootstrap.redis_unavailable", map[string]any{"error": err.Error()})
			return nil, nil
		}
		return nil, err
	}
	return client, nil
}

func devLike(cfg config.Config) bool {
	return cfg.DevMode || cfg.Env == "dev" || cfg.Env == "local"
}

// Ready reports whether the database answers. It backs /health.
func (a *App) Ready(ctx context.Context) error {
	if a.DB == nil {
		return nil
	}
	return db.Ping(ctx, a.DB, 2*time.Second)
}

// Close waits for in-process pitch work and releases backend connections.
func (a *App) Close() error {
	if a.Pitches != nil {
		a.Pitches.Wait()
	}
	var errs []error
	if a.Engine != nil {
		errs = append(errs, a.Engine.Close())
	}
	if a.Events != nil {
		errs = append(errs, a.Events.Close())
	}
	if a.Redis != nil {
		errs = append(errs, a.Redis.Close())
	}
	if a.DB != nil && !db.IsLambdaRuntime() {
		errs = append(errs, a.DB.Close())
	}
	telemetry.Sync()
	return errors.Join(errs...)
}
