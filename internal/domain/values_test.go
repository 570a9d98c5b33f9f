package domain

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/appforge/appforge/internal/pkg/errors"
)

func TestNewProjectName(t *testing.T) {
	t.Run("trims whitespace", func(t *testing.T) {
		got, err := NewProjectName("  Invoice Portal  ")
		require.NoError(t, err)
		assert.Equal(t, "Invoice Portal", got.String())
	})

	t.Run("too short", func(t *testing.T) {
		_, err := NewProjectName("a")
		assert.True(t, apperrors.IsValidation(err))
		// Whitespace does not count toward the minimum.
		_, err = NewProjectName("   a   ")
		assert.True(t, apperrors.IsValidation(err))
	})

	t.Run("too long", func(t *testing.T) {
		_, err := NewProjectName(strings.Repeat("x", 101))
		assert.True(t, apperrors.IsValidation(err))
		_, err = NewProjectName(strings.Repeat("x", 100))
		assert.NoError(t, err)
	})
}

func TestNewDescription(t *testing.T) {
	t.Run("empty is allowed", func(t *testing.T) {
		got, err := NewDescription("")
		require.NoError(t, err)
		assert.Empty(t, got.String())
	})

	t.Run("too long", func(t *testing.T) {
		_, err := NewDescription(strings.Repeat("x", 2001))
		assert.True(t, apperrors.IsValidation(err))
		_, err = NewDescription(strings.Repeat("x", 2000))
		assert.NoError(t, err)
	})
}
