package logging

import (
	"os"
	"path/filepath"
	"testing"

	log "github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetLevel(t *testing.T) {
	assert.Equal(t, log.DebugLevel, GetLevel("DEBUG"))
	assert.Equal(t, log.WarnLevel, GetLevel("warn"))
	assert.Equal(t, log.InfoLevel, GetLevel("whatever"))
}

func TestSetupWritesToFile(t *testing.T) {
	t.Cleanup(func() { log.SetOutput(os.Stderr) })

	base := filepath.Join(t.TempDir(), "liftlog")
	closer := Setup(Params{LogFileName: base, LogLevel: "info"})

	log.Info("hello from test")
	require.NoError(t, closer.Close())

	data, err := os.ReadFile(base + ".log")
	require.NoError(t, err)
	assert.Contains(t, string(data), "hello from test")
}

func TestSetupWithoutFileDiscards(t *testing.T) {
	t.Cleanup(func() { log.SetOutput(os.Stderr) })

	closer := Setup(Params{LogLevel: "error"})
	assert.NoError(t, closer.Close())
	assert.Equal(t, log.ErrorLevel, log.GetLevel())
}
