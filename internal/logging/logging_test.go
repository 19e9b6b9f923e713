package logging

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewJSONLogger(t *testing.T) {
	buf := &bytes.Buffer{}
	logger := New(buf, "info", "json")
	logger.Debug().Msg("hidden")
	require.Equal(t, 0, buf.Len())

	logger.Info().Str("module", "PROGRAM").Msg("loaded")
	out := buf.String()
	require.Contains(t, out, `"module":"PROGRAM"`)
	require.Contains(t, out, `"message":"loaded"`)
}

func TestNewInvalidLevelFallsBackToInfo(t *testing.T) {
	buf := &bytes.Buffer{}
	logger := New(buf, "chatty", "console")
	logger.Info().Msg("visible")
	require.True(t, strings.Contains(buf.String(), "visible"))
}
