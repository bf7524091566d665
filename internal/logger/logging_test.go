package logger

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewWithWriterUsesPrefix(t *testing.T) {
	var buf bytes.Buffer
	l := NewWithWriter(&buf, "ipc")
	l.SetLevel(log.InfoLevel)
	l.Info("ready")

	assert.Contains(t, buf.String(), "ipc")
	assert.Contains(t, buf.String(), "ready")
}

func TestRedirectToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "addrcomplete.log")

	file, err := RedirectToFile(path)
	require.NoError(t, err)
	t.Cleanup(func() {
		log.SetOutput(os.Stderr)
		log.SetFormatter(log.TextFormatter)
		file.Close()
	})

	log.Warn("lookup failed", "query", "main")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "lookup failed")
	assert.Contains(t, string(data), "query=main")
}
