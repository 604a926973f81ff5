package application

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// TestFileConfigLoader_Load verifies strict decoding through the
// ConfigLoader port.
func TestFileConfigLoader_Load(t *testing.T) {
	path := writeConfigFile(t, `
server:
  addr: ":7070"
  page_size: 5
`)

	loader := NewFileConfigLoader(path, zap.NewNop())

	config := DefaultConfig()
	err := loader.Load(context.Background(), &config)

	require.NoError(t, err, "load should succeed")
	assert.Equal(t, ":7070", config.Server.Addr, "file value should be applied")
	assert.Equal(t, 5, config.Server.PageSize, "file value should be applied")
}

// TestFileConfigLoader_Load_MissingFile verifies the error path.
func TestFileConfigLoader_Load_MissingFile(t *testing.T) {
	loader := NewFileConfigLoader(filepath.Join(t.TempDir(), "nope.yaml"), zap.NewNop())

	var config Config
	err := loader.Load(context.Background(), &config)

	require.Error(t, err, "missing file should be an error")
}

// TestFileConfigLoader_Watch verifies that a file rewrite triggers the
// callback with the freshly decoded configuration.
func TestFileConfigLoader_Watch(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server:\n  addr: \":8080\"\n  page_size: 20\n"), 0o644),
		"initial config should be written")

	loader := NewFileConfigLoader(path, zap.NewNop())

	updates := make(chan any, 4)
	stop, err := loader.Watch(context.Background(), &Config{}, func(fresh any) {
		updates <- fresh
	})
	require.NoError(t, err, "watch should start")
	defer stop()

	// Give the watcher a moment to register before the write.
	time.Sleep(50 * time.Millisecond)

	require.NoError(t, os.WriteFile(path, []byte("server:\n  addr: \":9999\"\n  page_size: 20\n"), 0o644),
		"updated config should be written")

	select {
	case fresh := <-updates:
		config, ok := fresh.(*Config)
		require.True(t, ok, "callback should receive a *Config")
		assert.Equal(t, ":9999", config.Server.Addr, "callback should see the new value")
	case <-time.After(3 * time.Second):
		t.Fatal("expected a reload callback after the file changed")
	}
}

// TestFileConfigLoader_Watch_SeedsFromTemplate verifies that a reload
// merges the changed file over the template, so values the file leaves
// out keep the running configuration's settings.
func TestFileConfigLoader_Watch_SeedsFromTemplate(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server:\n  page_size: 20\n"), 0o644),
		"initial config should be written")

	loader := NewFileConfigLoader(path, zap.NewNop())

	template := DefaultConfig()
	updates := make(chan any, 4)
	stop, err := loader.Watch(context.Background(), &template, func(fresh any) {
		updates <- fresh
	})
	require.NoError(t, err, "watch should start")
	defer stop()

	time.Sleep(50 * time.Millisecond)

	require.NoError(t, os.WriteFile(path, []byte("server:\n  page_size: 7\n"), 0o644),
		"partial config should be written")

	select {
	case fresh := <-updates:
		config, ok := fresh.(*Config)
		require.True(t, ok, "callback should receive a *Config")
		assert.Equal(t, 7, config.Server.PageSize, "changed value should be applied")
		assert.Equal(t, ":8080", config.Server.Addr, "unspecified values should keep the template's settings")
		assert.Equal(t, "info", config.Logging.Level, "unrelated sections should keep the template's settings")
	case <-time.After(3 * time.Second):
		t.Fatal("expected a reload callback after the file changed")
	}
}

// TestFileConfigLoader_Watch_IgnoresBrokenRewrite verifies that an
// invalid rewrite keeps the previous configuration instead of invoking
// the callback.
func TestFileConfigLoader_Watch_IgnoresBrokenRewrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server:\n  addr: \":8080\"\n"), 0o644),
		"initial config should be written")

	loader := NewFileConfigLoader(path, zap.NewNop())

	updates := make(chan any, 4)
	stop, err := loader.Watch(context.Background(), &Config{}, func(fresh any) {
		updates <- fresh
	})
	require.NoError(t, err, "watch should start")
	defer stop()

	time.Sleep(50 * time.Millisecond)

	require.NoError(t, os.WriteFile(path, []byte("server: [not: a: mapping\n"), 0o644),
		"broken config should be written")

	select {
	case <-updates:
		t.Fatal("broken config must not reach the callback")
	case <-time.After(500 * time.Millisecond):
	}
}
