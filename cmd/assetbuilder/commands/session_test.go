package commands

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenSessionWiresIntegrations(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "assetbuilder.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte(`
sources:
  ordered:
    entries: [main.js]
metrics:
  enabled: true
history:
  enabled: true
  path: state/history.db
notify:
  enabled: true
  url: nats://127.0.0.1:1
`), 0o600))

	s, err := openSession(context.Background(), cfgPath, io.Discard)
	require.NoError(t, err, "an unreachable notification server must not block runs")
	defer s.Close()

	assert.NotNil(t, s.registry)
	assert.NotNil(t, s.executor)
	assert.FileExists(t, filepath.Join(dir, "state", "history.db"))
}

func TestOpenSessionMetricsDisabled(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "assetbuilder.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("sources:\n  ordered:\n    entries: [main.js]\n"), 0o600))

	s, err := openSession(context.Background(), cfgPath, io.Discard)
	require.NoError(t, err)
	defer s.Close()
	assert.Nil(t, s.registry)
}
