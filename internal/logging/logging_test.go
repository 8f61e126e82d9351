package logging

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, zerolog.DebugLevel, ParseLevel("debug"))
	assert.Equal(t, zerolog.WarnLevel, ParseLevel(" WARN "))
	assert.Equal(t, zerolog.InfoLevel, ParseLevel(""))
	assert.Equal(t, zerolog.InfoLevel, ParseLevel("nonsense"))
}

func TestNew_JSONOutput(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Options{Level: "info", Out: &buf})

	logger.Info().Str("provider", "gemini").Msg("provider enabled")
	logger.Debug().Msg("hidden")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "provider enabled", entry["message"])
	assert.Equal(t, "gemini", entry["provider"])
	assert.NotContains(t, buf.String(), "hidden")
}

func TestNew_Pretty(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Options{Pretty: true, Out: &buf})
	logger.Warn().Msg("degraded")
	assert.Contains(t, buf.String(), "degraded")
}
