package logging

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
)

func TestGetLevel(t *testing.T) {
	require.Equal(t, logrus.DebugLevel, GetLevel("DEBUG"))
	require.Equal(t, logrus.WarnLevel, GetLevel("warning"))
	require.Equal(t, logrus.InfoLevel, GetLevel(""))
	require.Equal(t, logrus.InfoLevel, GetLevel("chatty"))
}

func TestSetupWritesJSONToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "progress.log")
	logger := logrus.New()

	closer := Setup(logger, Params{Level: "warn", Format: "json", File: path})
	logger.Info("dropped")
	logger.WithField("user_id", "u1").Warn("kept")
	require.NoError(t, closer.Close())

	contents, err := os.ReadFile(path)
	require.NoError(t, err)
	require.NotContains(t, string(contents), "dropped")
	require.Contains(t, string(contents), `"msg":"kept"`)
	require.Contains(t, string(contents), `"user_id":"u1"`)
}

func TestSetupWithoutFile(t *testing.T) {
	logger := logrus.New()
	closer := Setup(logger, Params{Level: "debug"})

	require.Equal(t, logrus.DebugLevel, logger.GetLevel())
	require.IsType(t, &logrus.TextFormatter{}, logger.Formatter)
	require.NoError(t, closer.Close())
}
