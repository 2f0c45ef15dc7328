package logging

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    zerolog.Level
		wantErr bool
	}{
		{in: "", want: zerolog.InfoLevel},
		{in: "debug", want: zerolog.DebugLevel},
		{in: " WARN ", want: zerolog.WarnLevel},
		{in: "trace", want: zerolog.TraceLevel},
		{in: "loud", want: zerolog.InfoLevel, wantErr: true},
	}
	for _, tt := range tests {
		got, err := ParseLevel(tt.in)
		if tt.wantErr {
			assert.Error(t, err, tt.in)
		} else {
			assert.NoError(t, err, tt.in)
		}
		assert.Equal(t, tt.want, got, tt.in)
	}
}

func TestNewWritesFileAtLevel(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "test.log")
	log, closer, err := New(Options{Level: "warn", File: path})
	require.NoError(t, err)

	log.Info().Msg("hidden")
	log.Warn().Str("hotkey", "Ctrl+A").Msg("visible")
	require.NoError(t, closer.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "hidden")
	assert.Contains(t, string(data), `"hotkey":"Ctrl+A"`)
	assert.Contains(t, string(data), `"session":"`)
}

func TestNewRejectsBadLevel(t *testing.T) {
	_, closer, err := New(Options{Level: "loud", File: "-"})
	assert.Error(t, err)
	assert.NoError(t, closer.Close())
}

func TestNewWithoutFile(t *testing.T) {
	log, closer, err := New(Options{File: "-"})
	require.NoError(t, err)
	log.Info().Msg("discarded")
	assert.NoError(t, closer.Close())
}

func TestLogPath(t *testing.T) {
	assert.Equal(t, "hotkey-tray.log", filepath.Base(LogPath()))
}
