package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"go.uber.org/zap"

	"github.com/appforge/appforge/internal/config"
	"github.com/appforge/appforge/internal/pkg/database"
	"github.com/appforge/appforge/internal/pkg/id"
	"github.com/appforge/appforge/internal/pkg/logger"
	chrepo "github.com/appforge/appforge/internal/repository/clickhouse"
	pgrepo "github.com/appforge/appforge/internal/repository/postgres"
	"github.com/appforge/appforge/internal/service"
	"github.com/appforge/appforge/internal/worker"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	if err := logger.Init(logger.Config{Level: cfg.Log.Level, Format: cfg.Log.Format}); err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()
	log := logger.Log

	log.Info("starting worker service")

	// Initialize dependencies
	deps, cleanup, err := initWorkerDependencies(cfg, log)
	if err != nil {
		log.Fatal("failed to initialize dependencies", zap.Error(err))
	}
	defer cleanup()

	// Create worker server
	workerServer, err := worker.NewServer(log, cfg, deps)
	if err != nil {
		log.Fatal("failed to create worker server", zap.Error(err))
	}

	// Start worker in a goroutine
	errCh := make(chan error, 1)
	go func() {
		errCh <- workerServer.Start()
	}()

	// Wait for shutdown signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-quit:
		log.Info("shutting down worker...")
		workerServer.Stop()
	case err := <-errCh:
		if err != nil {
			log.Error("worker server error", zap.Error(err))
		}
	}

	log.Info("worker stopped")
}

// initWorkerDependencies initializes dependencies for the worker
func initWorkerDependencies(cfg *config.Config, log *zap.Logger) (*worker.Dependencies, func(), error) {
	ctx := context.Background()

	// Initialize PostgreSQL using database wrapper
	pgDB, err := database.NewPostgres(ctx, cfg.Postgres)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize PostgreSQL: %w", err)
	}

	// Initialize ClickHouse using database wrapper
	chDB, err := database.NewClickHouse(ctx, cfg.ClickHouse)
	if err != nil {
		pgDB.Close()
		return nil, nil, fmt.Errorf("failed to initialize ClickHouse: %w", err)
	}

	// Initialize MinIO
	minioClient, err := initMinio(cfg)
	if err != nil {
		log.Warn("failed to initialize MinIO, artifact uploads will be skipped", zap.Error(err))
	}

	// Initialize repositories
	projectRepo := pgrepo.NewProjectRepository(pgDB)
	executionRepo := pgrepo.NewExecutionRepository(pgDB)
	deploymentRepo := pgrepo.NewDeploymentRepository(pgDB)
	subscriptionRepo := pgrepo.NewSubscriptionRepository(pgDB)
	eventRepo := chrepo.NewEventRepository(chDB)

	// Initialize services
	recorder := chrepo.NewRecorder(eventRepo, log)
	idGen := id.NewGenerator()
	planner := service.NewPlanResolver(subscriptionRepo, cfg.Plans)

	projectService := service.NewProjectService(projectRepo, planner, idGen, recorder)
	executionService := service.NewExecutionService(executionRepo, projectRepo, planner, idGen, recorder)
	deploymentService := service.NewDeploymentService(deploymentRepo, projectRepo, idGen, recorder)

	deps := &worker.Dependencies{
		ExecutionService:  executionService,
		DeploymentService: deploymentService,
		ProjectService:    projectService,
		MinioClient:       minioClient,
		MinioBucket:       cfg.MinIO.Bucket,
	}

	cleanup := func() {
		pgDB.Close()
		_ = chDB.Close()
	}

	return deps, cleanup, nil
}

// initMinio initializes MinIO client
func initMinio(cfg *config.Config) (*minio.Client, error) {
	if cfg.MinIO.Endpoint == "" {
		return nil, nil
	}

	client, err := minio.New(cfg.MinIO.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.MinIO.AccessKey, cfg.MinIO.SecretKey, ""),
		Secure: cfg.MinIO.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create minio client: %w", err)
	}

	return client, nil
}
