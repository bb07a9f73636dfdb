package logger

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLevels(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Level = "debug"
	log, err := NewWithStdout(cfg, &bytes.Buffer{})
	require.NoError(t, err)
	assert.Equal(t, logrus.DebugLevel, log.GetLevel())

	cfg.Level = "loud"
	log, err = NewWithStdout(cfg, &bytes.Buffer{})
	require.NoError(t, err)
	assert.Equal(t, logrus.InfoLevel, log.GetLevel())
}

func TestNewJSONFormat(t *testing.T) {
	var buf bytes.Buffer
	cfg := DefaultConfig()
	cfg.Format = "json"
	log, err := NewWithStdout(cfg, &buf)
	require.NoError(t, err)

	log.WithField("post_id", 7).Info("post published")

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "post published", entry["message"])
	assert.Equal(t, float64(7), entry["post_id"])
	assert.Contains(t, entry, "timestamp")
}

func TestNewFileOutput(t *testing.T) {
	var buf bytes.Buffer
	cfg := DefaultConfig()
	cfg.Output = "both"
	cfg.File = filepath.Join(t.TempDir(), "nested", "app.log")
	log, err := NewWithStdout(cfg, &buf)
	require.NoError(t, err)

	log.Info("hello file")

	data, err := os.ReadFile(cfg.File)
	require.NoError(t, err)
	assert.Contains(t, string(data), "hello file")
	assert.Contains(t, buf.String(), "hello file")
}

func TestNewRejectsBadSettings(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Format = "xml"
	_, err := New(cfg)
	assert.Error(t, err)

	cfg = DefaultConfig()
	cfg.Output = "syslog"
	_, err = New(cfg)
	assert.Error(t, err)

	cfg = DefaultConfig()
	cfg.Output = "file"
	cfg.File = ""
	_, err = New(cfg)
	assert.Error(t, err)
}
