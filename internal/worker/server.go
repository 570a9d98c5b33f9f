// Package worker runs the background side of AppForge: the generation
// pipeline that advances agent executions step by step, and the staged
// rollout of deployments. Tasks travel through asynq on Redis.
package worker

import (
	"context"
	"fmt"

	"github.com/hibiken/asynq"
	"github.com/minio/minio-go/v7"
	"go.uber.org/zap"

	"github.com/appforge/appforge/internal/config"
	"github.com/appforge/appforge/internal/service"
)

// Server is the worker server
type Server struct {
	logger *zap.Logger
	config *config.Config
	server *asynq.Server
	mux    *asynq.ServeMux
	client *asynq.Client
}

// Dependencies holds everything the workers call into
type Dependencies struct {
	ExecutionService  *service.ExecutionService
	DeploymentService *service.DeploymentService
	ProjectService    *service.ProjectService
	MinioClient       *minio.Client
	MinioBucket       string
}

// NewServer creates a new worker server
func NewServer(
	logger *zap.Logger,
	cfg *config.Config,
	deps *Dependencies,
) (*Server, error) {
	redisOpt := asynq.RedisClientOpt{
		Addr:     cfg.Redis.Addr(),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	}

	server := asynq.NewServer(
		redisOpt,
		asynq.Config{
			Concurrency: cfg.Worker.Concurrency,
			Queues: map[string]int{
				"critical": 6,
				"default":  3,
				"low":      1,
			},
			ErrorHandler: asynq.ErrorHandlerFunc(func(ctx context.Context, task *asynq.Task, err error) {
				logger.Error("task processing failed",
					zap.String("type", task.Type()),
					zap.Error(err),
				)
			}),
			Logger: &asynqLogger{logger: logger},
		},
	)

	client := asynq.NewClient(redisOpt)

	pipelineWorker := NewPipelineWorker(logger, deps.ExecutionService, client)
	deployWorker := NewDeployWorker(
		logger,
		deps.DeploymentService,
		deps.ProjectService,
		deps.MinioClient,
		deps.MinioBucket,
		client,
	)

	mux := asynq.NewServeMux()
	mux.HandleFunc(TypePipelineStep, pipelineWorker.ProcessStepTask)
	mux.HandleFunc(TypeDeploymentStage, deployWorker.ProcessStageTask)

	return &Server{
		logger: logger,
		config: cfg,
		server: server,
		mux:    mux,
		client: client,
	}, nil
}

// Start starts the worker server and blocks until shutdown
func (s *Server) Start() error {
	s.logger.Info("starting worker server",
		zap.Int("concurrency", s.config.Worker.Concurrency),
	)

	return s.server.Run(s.mux)
}

// Stop stops the worker server
func (s *Server) Stop() {
	s.server.Shutdown()
	s.client.Close()
}

// Client returns the asynq client for enqueuing tasks
func (s *Server) Client() *asynq.Client {
	return s.client
}

// asynqLogger adapts zap.Logger to asynq.Logger
type asynqLogger struct {
	logger *zap.Logger
}

func (l *asynqLogger) Debug(args ...interface{}) {
	l.logger.Debug(fmt.Sprint(args...))
}

func (l *asynqLogger) Info(args ...interface{}) {
	l.logger.Info(fmt.Sprint(args...))
}

func (l *asynqLogger) Warn(args ...interface{}) {
	l.logger.Warn(fmt.Sprint(args...))
}

func (l *asynqLogger) Error(args ...interface{}) {
	l.logger.Error(fmt.Sprint(args...))
}

func (l *asynqLogger) Fatal(args ...interface{}) {
	l.logger.Fatal(fmt.Sprint(args...))
}
