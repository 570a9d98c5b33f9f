package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/hibiken/asynq"
	"github.com/minio/minio-go/v7"
	"go.uber.org/zap"

	"github.com/appforge/appforge/internal/domain"
	"github.com/appforge/appforge/internal/middleware"
	apperrors "github.com/appforge/appforge/internal/pkg/errors"
	"github.com/appforge/appforge/internal/service"
)

// appsDomain is where generated applications are served from
const appsDomain = "apps.appforge.dev"

type deploymentControl interface {
	Get(ctx context.Context, tenantID domain.TenantID, deploymentID domain.DeploymentID) (domain.Deployment, error)
	Update(ctx context.Context, tenantID domain.TenantID, deploymentID domain.DeploymentID, input service.UpdateDeploymentInput) (domain.Deployment, error)
	AppendLog(ctx context.Context, tenantID domain.TenantID, deploymentID domain.DeploymentID, message string) (domain.Deployment, error)
}

type projectControl interface {
	UpdateStatus(ctx context.Context, tenantID domain.TenantID, projectID domain.ProjectID, input service.UpdateProjectStatusInput) (domain.Project, error)
}

// DeployWorker drives deployments through bootstrap, deploy and verify
type DeployWorker struct {
	logger      *zap.Logger
	deployments deploymentControl
	projects    projectControl
	minioClient *minio.Client
	bucket      string
	client      taskEnqueuer
}

// NewDeployWorker creates a new deploy worker
func NewDeployWorker(
	logger *zap.Logger,
	deployments deploymentControl,
	projects projectControl,
	minioClient *minio.Client,
	bucket string,
	client taskEnqueuer,
) *DeployWorker {
	return &DeployWorker{
		logger:      logger,
		deployments: deployments,
		projects:    projects,
		minioClient: minioClient,
		bucket:      bucket,
		client:      client,
	}
}

// ProcessStageTask processes one deployment stage
func (w *DeployWorker) ProcessStageTask(ctx context.Context, t *asynq.Task) error {
	var payload DeploymentStagePayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("failed to unmarshal deployment stage payload: %w", err)
	}

	tenantID, err := domain.NewTenantID(payload.TenantID)
	if err != nil {
		return fmt.Errorf("invalid tenant id in payload: %w", err)
	}
	deploymentID, err := domain.NewDeploymentID(payload.DeploymentID)
	if err != nil {
		return fmt.Errorf("invalid deployment id in payload: %w", err)
	}

	switch payload.Stage {
	case StageBootstrap:
		return w.bootstrap(ctx, tenantID, deploymentID, payload)
	case StageDeploy:
		return w.deploy(ctx, tenantID, deploymentID, payload)
	case StageVerify:
		return w.verify(ctx, tenantID, deploymentID, payload)
	default:
		w.logger.Error("dropping task with unknown deployment stage",
			zap.String("deployment_id", payload.DeploymentID),
			zap.String("stage", payload.Stage),
		)
		return nil
	}
}

func (w *DeployWorker) bootstrap(ctx context.Context, tenantID domain.TenantID, deploymentID domain.DeploymentID, payload DeploymentStagePayload) error {
	if _, err := w.deployments.Update(ctx, tenantID, deploymentID, service.UpdateDeploymentInput{
		Action: string(domain.DeploymentActionStartBootstrap),
	}); err != nil {
		return w.failDeployment(ctx, tenantID, deploymentID, err)
	}

	if _, err := w.deployments.AppendLog(ctx, tenantID, deploymentID,
		"provisioning runtime for version "+payload.Version); err != nil {
		return err
	}

	payload.Stage = StageDeploy
	return w.next(payload)
}

func (w *DeployWorker) deploy(ctx context.Context, tenantID domain.TenantID, deploymentID domain.DeploymentID, payload DeploymentStagePayload) error {
	if _, err := w.deployments.Update(ctx, tenantID, deploymentID, service.UpdateDeploymentInput{
		Action: string(domain.DeploymentActionStartDeploy),
	}); err != nil {
		return w.failDeployment(ctx, tenantID, deploymentID, err)
	}

	if payload.ArtifactPath != "" {
		objectName := fmt.Sprintf("artifacts/%s/%s-%s%s",
			payload.ProjectID, payload.DeploymentID, payload.Version, filepath.Ext(payload.ArtifactPath))

		info, err := w.minioClient.FPutObject(ctx, w.bucket, objectName, payload.ArtifactPath, minio.PutObjectOptions{
			ContentType: "application/gzip",
		})
		if err != nil {
			return w.failDeployment(ctx, tenantID, deploymentID,
				fmt.Errorf("artifact upload failed: %w", err))
		}

		if _, err := w.deployments.AppendLog(ctx, tenantID, deploymentID,
			fmt.Sprintf("uploaded artifact %s (%d bytes)", objectName, info.Size)); err != nil {
			return err
		}
	}

	if _, err := w.deployments.AppendLog(ctx, tenantID, deploymentID,
		"rolling out version "+payload.Version); err != nil {
		return err
	}

	payload.Stage = StageVerify
	return w.next(payload)
}

func (w *DeployWorker) verify(ctx context.Context, tenantID domain.TenantID, deploymentID domain.DeploymentID, payload DeploymentStagePayload) error {
	if _, err := w.deployments.Update(ctx, tenantID, deploymentID, service.UpdateDeploymentInput{
		Action: string(domain.DeploymentActionStartVerification),
	}); err != nil {
		return w.failDeployment(ctx, tenantID, deploymentID, err)
	}

	deployedURL := deployedURLFor(payload.ProjectID)

	if _, err := w.deployments.AppendLog(ctx, tenantID, deploymentID,
		"health check passed at "+deployedURL); err != nil {
		return err
	}

	if _, err := w.deployments.Update(ctx, tenantID, deploymentID, service.UpdateDeploymentInput{
		Action:      string(domain.DeploymentActionMarkSucceeded),
		DeployedURL: deployedURL,
	}); err != nil {
		return w.failDeployment(ctx, tenantID, deploymentID, err)
	}
	middleware.RecordDeploymentFinished(string(domain.DeploymentStatusSucceeded))

	w.logger.Info("deployment succeeded",
		zap.String("deployment_id", payload.DeploymentID),
		zap.String("version", payload.Version),
		zap.String("url", deployedURL),
	)

	w.markProjectLive(ctx, tenantID, payload.ProjectID, deployedURL)
	return nil
}

// markProjectLive promotes the owning project. A project that is not in the
// deploying state (a redeployment of a live app, for instance) is left alone.
func (w *DeployWorker) markProjectLive(ctx context.Context, tenantID domain.TenantID, rawProjectID, deployedURL string) {
	projectID, err := domain.NewProjectID(rawProjectID)
	if err != nil {
		return
	}

	_, err = w.projects.UpdateStatus(ctx, tenantID, projectID, service.UpdateProjectStatusInput{
		Action:      string(domain.ProjectActionMarkLive),
		DeployedURL: deployedURL,
	})
	if err != nil && !apperrors.IsInvalidTransition(err) {
		w.logger.Warn("could not mark project live",
			zap.String("project_id", rawProjectID),
			zap.Error(err),
		)
	}
}

// failDeployment records the failure on the aggregate. The original error is
// swallowed so asynq does not retry a deployment already marked failed.
func (w *DeployWorker) failDeployment(ctx context.Context, tenantID domain.TenantID, deploymentID domain.DeploymentID, cause error) error {
	w.logger.Error("deployment stage failed",
		zap.String("deployment_id", deploymentID.String()),
		zap.Error(cause),
	)

	if _, err := w.deployments.Update(ctx, tenantID, deploymentID, service.UpdateDeploymentInput{
		Action:       string(domain.DeploymentActionMarkFailed),
		ErrorMessage: cause.Error(),
	}); err != nil {
		w.logger.Error("could not mark deployment failed",
			zap.String("deployment_id", deploymentID.String()),
			zap.Error(err),
		)
	}
	middleware.RecordDeploymentFinished(string(domain.DeploymentStatusFailed))
	return nil
}

func (w *DeployWorker) next(payload DeploymentStagePayload) error {
	task, err := NewDeploymentStageTask(payload)
	if err != nil {
		return err
	}
	_, err = w.client.Enqueue(task, asynq.Queue("critical"))
	return err
}

// deployedURLFor derives the public URL of a deployed application. ID
// prefixes use underscores, which are not valid in hostnames.
func deployedURLFor(projectID string) string {
	return fmt.Sprintf("https://%s.%s", strings.ReplaceAll(projectID, "_", "-"), appsDomain)
}
