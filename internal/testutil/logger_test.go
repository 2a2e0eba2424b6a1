package testutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewCapturingLogger(t *testing.T) {
	logger, logs := NewCapturingLogger(t)

	logger.Debug("preload reloaded", "rows", 3)
	logger.Info("second line")

	assert.True(t, logs.Contains("preload reloaded"))
	assert.True(t, logs.Contains("rows=3"))
	assert.True(t, logs.Contains("level=DEBUG"))
	assert.False(t, logs.Contains("missing"))
}
