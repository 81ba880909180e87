package logger

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_FileOutput(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "app.log")

	l, err := New("debug", path)
	require.NoError(t, err)
	l.Component("pricing").Info().Str("model", "PROJECT").Msg("quote computed")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"component":"pricing"`)
	assert.Contains(t, string(data), "quote computed")
}

func TestNew_BadLevelFallsBackToInfo(t *testing.T) {
	l, err := New("loud", "")
	require.NoError(t, err)
	assert.Equal(t, zerolog.InfoLevel, l.GetLevel())
}

func TestGet_WithoutInit(t *testing.T) {
	Global = nil
	assert.NotNil(t, Get())
	assert.NotNil(t, OrGlobal(nil))

	own := Nop()
	assert.Same(t, own, OrGlobal(own))
}
