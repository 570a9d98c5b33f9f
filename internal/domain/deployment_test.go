package domain

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/appforge/appforge/internal/pkg/errors"
)

func newTestDeployment() Deployment {
	return NewDeployment(
		"dep_test0000000000000000",
		"prj_test0000000000000000",
		"ten_test0000000000000000",
		"v1",
	)
}

func TestDeploymentHappyPath(t *testing.T) {
	d := newTestDeployment()
	assert.Equal(t, DeploymentStatusPending, d.Status)
	assert.Empty(t, d.Logs)

	d, err := d.StartBootstrap()
	require.NoError(t, err)
	assert.Equal(t, DeploymentStatusBootstrapping, d.Status)

	d, err = d.StartDeploy()
	require.NoError(t, err)
	assert.Equal(t, DeploymentStatusDeploying, d.Status)

	d, err = d.StartVerification()
	require.NoError(t, err)
	assert.Equal(t, DeploymentStatusVerifying, d.Status)

	d, err = d.MarkSucceeded("https://app.example.dev")
	require.NoError(t, err)
	assert.Equal(t, DeploymentStatusSucceeded, d.Status)
	assert.Equal(t, "https://app.example.dev", d.DeployedURL)
	assert.NotNil(t, d.CompletedAt)
	assert.True(t, d.IsTerminal())
	assert.False(t, d.IsInProgress())
}

func TestDeploymentFailRollbackRetry(t *testing.T) {
	// Fail mid-rollout, roll back, retry and the deployment is back at
	// pending with a clean slate except for the log.
	d := newTestDeployment()
	d, err := d.StartBootstrap()
	require.NoError(t, err)
	d, err = d.StartDeploy()
	require.NoError(t, err)

	d, err = d.MarkFailed("network error")
	require.NoError(t, err)
	assert.Equal(t, DeploymentStatusFailed, d.Status)
	assert.Equal(t, "network error", d.ErrorMessage)
	assert.NotNil(t, d.CompletedAt)

	d, err = d.StartRollback()
	require.NoError(t, err)
	assert.Equal(t, DeploymentStatusRollingBack, d.Status)

	d, err = d.Retry()
	require.NoError(t, err)
	assert.Equal(t, DeploymentStatusPending, d.Status)
	assert.Empty(t, d.ErrorMessage)
	assert.Nil(t, d.CompletedAt)

	// And the cycle can start again.
	d, err = d.StartBootstrap()
	require.NoError(t, err)
	assert.Equal(t, DeploymentStatusBootstrapping, d.Status)
}

func TestDeploymentRetryWithoutRollback(t *testing.T) {
	d := newTestDeployment()
	d, err := d.StartBootstrap()
	require.NoError(t, err)
	d, err = d.MarkFailed("provisioning timeout")
	require.NoError(t, err)

	d, err = d.Retry()
	require.NoError(t, err)
	assert.Equal(t, DeploymentStatusPending, d.Status)
	assert.Empty(t, d.ErrorMessage)
}

func TestDeploymentInvalidTransitions(t *testing.T) {
	d := newTestDeployment()

	// Steps cannot be skipped.
	_, err := d.StartDeploy()
	assert.True(t, apperrors.IsInvalidTransition(err))
	_, err = d.StartVerification()
	assert.True(t, apperrors.IsInvalidTransition(err))
	_, err = d.MarkSucceeded("https://x")
	assert.True(t, apperrors.IsInvalidTransition(err))

	// A pending deployment can fail (the kickoff task may never be queued)
	// but cannot roll back.
	failed, err := d.MarkFailed("boom")
	assert.NoError(t, err)
	assert.Equal(t, DeploymentStatusFailed, failed.Status)
	_, err = d.StartRollback()
	assert.True(t, apperrors.IsInvalidTransition(err))

	// Succeeded is terminal.
	done := newTestDeployment()
	done, err = done.StartBootstrap()
	require.NoError(t, err)
	done, err = done.StartDeploy()
	require.NoError(t, err)
	done, err = done.StartVerification()
	require.NoError(t, err)
	done, err = done.MarkSucceeded("https://x")
	require.NoError(t, err)
	_, err = done.MarkFailed("too late")
	assert.True(t, apperrors.IsInvalidTransition(err))
	_, err = done.Retry()
	assert.True(t, apperrors.IsInvalidTransition(err))
}

func TestDeploymentMarkRequiresDetail(t *testing.T) {
	d := newTestDeployment()
	d, err := d.StartBootstrap()
	require.NoError(t, err)

	_, err = d.MarkFailed("")
	assert.True(t, apperrors.IsValidation(err))

	d, err = d.StartDeploy()
	require.NoError(t, err)
	d, err = d.StartVerification()
	require.NoError(t, err)
	_, err = d.MarkSucceeded("")
	assert.True(t, apperrors.IsValidation(err))
}

func TestDeploymentAppendLog(t *testing.T) {
	t.Run("entries are timestamped and ordered", func(t *testing.T) {
		d := newTestDeployment()
		d = d.AppendLog("pulling image")
		d = d.AppendLog("image pulled")

		require.Len(t, d.Logs, 2)
		assert.True(t, strings.HasSuffix(d.Logs[0], "pulling image"))
		assert.True(t, strings.HasSuffix(d.Logs[1], "image pulled"))
		assert.True(t, strings.HasPrefix(d.Logs[0], "["))
	})

	t.Run("logging never changes status", func(t *testing.T) {
		d := newTestDeployment()
		d, err := d.StartBootstrap()
		require.NoError(t, err)
		d, err = d.MarkFailed("disk full")
		require.NoError(t, err)

		// Failed deployments still accept log entries.
		d = d.AppendLog("cleanup scheduled")
		assert.Equal(t, DeploymentStatusFailed, d.Status)
		assert.Len(t, d.Logs, 1)
	})

	t.Run("status changes preserve the log", func(t *testing.T) {
		d := newTestDeployment()
		d = d.AppendLog("queued")
		d, err := d.StartBootstrap()
		require.NoError(t, err)
		d = d.AppendLog("bootstrapping")

		require.Len(t, d.Logs, 2)
		assert.True(t, strings.HasSuffix(d.Logs[0], "queued"))
	})

	t.Run("returns a new instance", func(t *testing.T) {
		d := newTestDeployment()
		next := d.AppendLog("hello")
		assert.Empty(t, d.Logs)
		assert.Len(t, next.Logs, 1)
	})
}

func TestDeploymentApply(t *testing.T) {
	d := newTestDeployment()

	d, err := d.Apply(DeploymentActionStartBootstrap, "", "")
	require.NoError(t, err)
	d, err = d.Apply(DeploymentActionStartDeploy, "", "")
	require.NoError(t, err)
	d, err = d.Apply(DeploymentActionStartVerification, "", "")
	require.NoError(t, err)
	d, err = d.Apply(DeploymentActionMarkSucceeded, "https://app.example.dev", "")
	require.NoError(t, err)
	assert.Equal(t, DeploymentStatusSucceeded, d.Status)

	_, err = newTestDeployment().Apply("explode", "", "")
	assert.True(t, apperrors.IsValidation(err))
}

func TestReconstituteDeployment(t *testing.T) {
	d := newTestDeployment()
	d = d.AppendLog("first")

	got := ReconstituteDeployment(d)
	assert.Equal(t, d, got)

	// Mutating the returned log must not reach the original snapshot.
	got.Logs[0] = "tampered"
	assert.True(t, strings.HasSuffix(d.Logs[0], "first"))
}
