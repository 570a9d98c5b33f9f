package domain

import (
	"strings"

	apperrors "github.com/appforge/appforge/internal/pkg/errors"
)

const (
	projectNameMinLength = 2
	projectNameMaxLength = 100
	descriptionMaxLength = 2000
)

// ProjectName is a validated short text field. Surrounding whitespace is
// trimmed before length checks.
type ProjectName string

// NewProjectName validates and normalizes a project name.
func NewProjectName(s string) (ProjectName, error) {
	s = strings.TrimSpace(s)
	if len(s) < projectNameMinLength {
		return "", apperrors.Validation("name must be at least 2 characters")
	}
	if len(s) > projectNameMaxLength {
		return "", apperrors.Validation("name must be at most 100 characters")
	}
	return ProjectName(s), nil
}

func (n ProjectName) String() string { return string(n) }

// Description is a validated bounded text field. It may be empty.
type Description string

// NewDescription validates and normalizes a description.
func NewDescription(s string) (Description, error) {
	s = strings.TrimSpace(s)
	if len(s) > descriptionMaxLength {
		return "", apperrors.Validation("description must be at most 2000 characters")
	}
	return Description(s), nil
}

func (d Description) String() string { return string(d) }
