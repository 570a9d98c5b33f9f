package main

import (
	"context"
	"fmt"

	"github.com/hibiken/asynq"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"go.uber.org/zap"

	"github.com/appforge/appforge/internal/config"
	"github.com/appforge/appforge/internal/handler"
	"github.com/appforge/appforge/internal/middleware"
	"github.com/appforge/appforge/internal/payhere"
	"github.com/appforge/appforge/internal/pkg/database"
	"github.com/appforge/appforge/internal/pkg/id"
	chrepo "github.com/appforge/appforge/internal/repository/clickhouse"
	pgrepo "github.com/appforge/appforge/internal/repository/postgres"
	"github.com/appforge/appforge/internal/service"
	"github.com/appforge/appforge/internal/worker"
)

// Dependencies holds all application dependencies
type Dependencies struct {
	Config *config.Config
	Logger *zap.Logger

	// Database connections
	Postgres   *database.PostgresDB
	ClickHouse *database.ClickHouseDB
	Redis      *database.RedisDB
	Minio      *minio.Client

	// Repositories
	ProjectRepo      *pgrepo.ProjectRepository
	ExecutionRepo    *pgrepo.ExecutionRepository
	DeploymentRepo   *pgrepo.DeploymentRepository
	SubscriptionRepo *pgrepo.SubscriptionRepository
	EventRepo        *chrepo.EventRepository

	// Services
	ProjectService      *service.ProjectService
	ExecutionService    *service.ExecutionService
	DeploymentService   *service.DeploymentService
	SubscriptionService *service.SubscriptionService

	// Dispatchers bridge the API to the asynq queues
	ExecutionDispatcher  *worker.ExecutionDispatcher
	DeploymentDispatcher *worker.DeploymentDispatcher

	// Handlers
	HealthHandler        *handler.HealthHandler
	ProjectsHandler      *handler.ProjectsHandler
	ExecutionsHandler    *handler.ExecutionsHandler
	DeploymentsHandler   *handler.DeploymentsHandler
	SubscriptionsHandler *handler.SubscriptionsHandler
	WebhookHandler       *handler.PayHereWebhookHandler
	EventsHandler        *handler.EventsHandler

	// Middleware
	AuthMiddleware      *middleware.AuthMiddleware
	RateLimitMiddleware *middleware.RateLimitMiddleware

	// Asynq client
	AsynqClient *asynq.Client
}

// initDependencies initializes all dependencies
func initDependencies(cfg *config.Config, logger *zap.Logger) (*Dependencies, error) {
	deps := &Dependencies{
		Config: cfg,
		Logger: logger,
	}

	ctx := context.Background()

	// Initialize PostgreSQL using database wrapper
	pgDB, err := database.NewPostgres(ctx, cfg.Postgres)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize PostgreSQL: %w", err)
	}
	deps.Postgres = pgDB

	// Initialize ClickHouse using database wrapper
	chDB, err := database.NewClickHouse(ctx, cfg.ClickHouse)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize ClickHouse: %w", err)
	}
	deps.ClickHouse = chDB

	// Initialize Redis
	redisDB, err := database.NewRedis(ctx, cfg.Redis)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Redis: %w", err)
	}
	deps.Redis = redisDB

	// Initialize MinIO
	minioClient, err := initMinio(cfg)
	if err != nil {
		logger.Warn("failed to initialize MinIO, artifact storage will be unavailable", zap.Error(err))
	}
	deps.Minio = minioClient

	// Initialize repositories
	deps.ProjectRepo = pgrepo.NewProjectRepository(pgDB)
	deps.ExecutionRepo = pgrepo.NewExecutionRepository(pgDB)
	deps.DeploymentRepo = pgrepo.NewDeploymentRepository(pgDB)
	deps.SubscriptionRepo = pgrepo.NewSubscriptionRepository(pgDB)
	deps.EventRepo = chrepo.NewEventRepository(chDB)

	// Initialize Asynq client
	asynqClient := asynq.NewClient(asynq.RedisClientOpt{
		Addr:     cfg.Redis.Addr(),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	deps.AsynqClient = asynqClient

	// Initialize services
	recorder := chrepo.NewRecorder(deps.EventRepo, logger)
	idGen := id.NewGenerator()
	planner := service.NewPlanResolver(deps.SubscriptionRepo, cfg.Plans)
	signer := payhere.NewSigner(cfg.PayHere.MerchantSecret, nil)

	deps.ProjectService = service.NewProjectService(deps.ProjectRepo, planner, idGen, recorder)
	deps.ExecutionService = service.NewExecutionService(deps.ExecutionRepo, deps.ProjectRepo, planner, idGen, recorder)
	deps.DeploymentService = service.NewDeploymentService(deps.DeploymentRepo, deps.ProjectRepo, idGen, recorder)
	deps.SubscriptionService = service.NewSubscriptionService(deps.SubscriptionRepo, signer, cfg.PayHere, cfg.Plans, idGen, recorder)

	deps.ExecutionDispatcher = worker.NewExecutionDispatcher(deps.ExecutionService, asynqClient, logger)
	deps.DeploymentDispatcher = worker.NewDeploymentDispatcher(deps.DeploymentService, asynqClient, logger)

	// Initialize handlers
	deps.HealthHandler = handler.NewHealthHandler(
		pgDB.Pool,
		chDB.Conn,
		redisDB.Client,
		appVersion,
	)
	deps.ProjectsHandler = handler.NewProjectsHandler(deps.ProjectService, logger)
	deps.ExecutionsHandler = handler.NewExecutionsHandler(deps.ExecutionDispatcher, logger)
	deps.DeploymentsHandler = handler.NewDeploymentsHandler(deps.DeploymentDispatcher, logger)
	deps.SubscriptionsHandler = handler.NewSubscriptionsHandler(deps.SubscriptionService, logger)
	deps.WebhookHandler = handler.NewPayHereWebhookHandler(deps.SubscriptionService, logger)
	deps.EventsHandler = handler.NewEventsHandler(deps.EventRepo, logger)

	// Initialize middleware
	deps.AuthMiddleware = middleware.NewAuthMiddleware(cfg.JWT)
	deps.RateLimitMiddleware = middleware.NewRateLimitMiddleware(redisDB.Client)

	return deps, nil
}

// Close closes all dependencies
func (d *Dependencies) Close() {
	if d.Postgres != nil {
		d.Postgres.Close()
	}
	if d.ClickHouse != nil {
		_ = d.ClickHouse.Close()
	}
	if d.Redis != nil {
		_ = d.Redis.Close()
	}
	if d.AsynqClient != nil {
		d.AsynqClient.Close()
	}
}

// initMinio initializes MinIO client
func initMinio(cfg *config.Config) (*minio.Client, error) {
	if cfg.MinIO.Endpoint == "" {
		return nil, nil // MinIO not configured
	}

	client, err := minio.New(cfg.MinIO.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.MinIO.AccessKey, cfg.MinIO.SecretKey, ""),
		Secure: cfg.MinIO.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create minio client: %w", err)
	}

	// Ensure bucket exists
	ctx := context.Background()
	exists, err := client.BucketExists(ctx, cfg.MinIO.Bucket)
	if err != nil {
		return nil, fmt.Errorf("failed to check bucket existence: %w", err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, cfg.MinIO.Bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("failed to create bucket: %w", err)
		}
	}

	return client, nil
}
