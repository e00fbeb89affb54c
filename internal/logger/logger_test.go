package logger

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewJSON(t *testing.T) {
	var buf bytes.Buffer
	log := New(&buf, "warn", FormatJSON)

	log.Info().Msg("hidden")
	log.Warn().Str("component", "test").Msg("shown")

	var line map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "shown", line["message"])
	assert.Equal(t, "schoolhub", line["service"])
	assert.Equal(t, "test", line["component"])
	assert.Equal(t, zerolog.WarnLevel, zerolog.GlobalLevel())
}

func TestNewUnknownLevelFallsBackToInfo(t *testing.T) {
	var buf bytes.Buffer
	New(&buf, "chatty", FormatJSON)

	assert.Equal(t, zerolog.InfoLevel, zerolog.GlobalLevel())
	assert.Contains(t, buf.String(), "Unknown log level")
}
