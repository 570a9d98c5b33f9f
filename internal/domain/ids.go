package domain

import (
	"strings"

	apperrors "github.com/appforge/appforge/internal/pkg/errors"
)

// Identifier prefixes. IDs are opaque strings of the form "<prefix>_<random>".
const (
	TenantIDPrefix       = "ten"
	ProjectIDPrefix      = "prj"
	ExecutionIDPrefix    = "exe"
	DeploymentIDPrefix   = "dep"
	SubscriptionIDPrefix = "sub"
)

// TenantID identifies a tenant. Every lookup and mutation is scoped by one.
type TenantID string

// ProjectID identifies a Project aggregate.
type ProjectID string

// ExecutionID identifies an AgentExecution aggregate.
type ExecutionID string

// DeploymentID identifies a Deployment aggregate.
type DeploymentID string

// SubscriptionID identifies a Subscription aggregate.
type SubscriptionID string

// NewTenantID validates and wraps a tenant identifier.
func NewTenantID(s string) (TenantID, error) {
	if err := checkID(s, TenantIDPrefix, "tenant id"); err != nil {
		return "", err
	}
	return TenantID(s), nil
}

// NewProjectID validates and wraps a project identifier.
func NewProjectID(s string) (ProjectID, error) {
	if err := checkID(s, ProjectIDPrefix, "project id"); err != nil {
		return "", err
	}
	return ProjectID(s), nil
}

// NewExecutionID validates and wraps an execution identifier.
func NewExecutionID(s string) (ExecutionID, error) {
	if err := checkID(s, ExecutionIDPrefix, "execution id"); err != nil {
		return "", err
	}
	return ExecutionID(s), nil
}

// NewDeploymentID validates and wraps a deployment identifier.
func NewDeploymentID(s string) (DeploymentID, error) {
	if err := checkID(s, DeploymentIDPrefix, "deployment id"); err != nil {
		return "", err
	}
	return DeploymentID(s), nil
}

// NewSubscriptionID validates and wraps a subscription identifier.
func NewSubscriptionID(s string) (SubscriptionID, error) {
	if err := checkID(s, SubscriptionIDPrefix, "subscription id"); err != nil {
		return "", err
	}
	return SubscriptionID(s), nil
}

func (id TenantID) String() string       { return string(id) }
func (id ProjectID) String() string      { return string(id) }
func (id ExecutionID) String() string    { return string(id) }
func (id DeploymentID) String() string   { return string(id) }
func (id SubscriptionID) String() string { return string(id) }

func checkID(s, prefix, what string) error {
	if s == "" {
		return apperrors.Validation(what + " is required")
	}
	if !strings.HasPrefix(s, prefix+"_") || len(s) <= len(prefix)+1 {
		return apperrors.Validation("invalid " + what + " format")
	}
	return nil
}
