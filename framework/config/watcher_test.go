package config_test

import (
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/km-arc/go-autoproxy/framework/config"
)

type settingsSink struct {
	mu   sync.Mutex
	last *config.FileSettings
	hits int
}

func (s *settingsSink) set(fs config.FileSettings) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.last = &fs
	s.hits++
}

func (s *settingsSink) get() (*config.FileSettings, int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.last, s.hits
}

func writeFile(t *testing.T, path, body string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
}

func TestWatcher_ReloadsOnWrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "autoproxy.yaml")
	writeFile(t, path, "autoproxy:\n  objectNames: [\"a*\"]\n")

	sink := &settingsSink{}
	w, err := config.WatchAutoProxyFile(path, sink.set)
	require.NoError(t, err)
	t.Cleanup(func() { _ = w.Close() })
	assert.True(t, filepath.IsAbs(w.Path()))

	writeFile(t, path, "autoproxy:\n  objectNames: [\"b*\", \"&c\"]\n")

	require.Eventually(t, func() bool {
		last, _ := sink.get()
		return last != nil && len(last.ObjectNames) == 2
	}, 3*time.Second, 20*time.Millisecond)

	last, _ := sink.get()
	assert.Equal(t, []string{"b*", "&c"}, last.ObjectNames)
}

func TestWatcher_IgnoresOtherFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "autoproxy.yaml")
	writeFile(t, path, "autoproxy:\n  objectNames: []\n")

	sink := &settingsSink{}
	w, err := config.WatchAutoProxyFile(path, sink.set)
	require.NoError(t, err)
	t.Cleanup(func() { _ = w.Close() })

	writeFile(t, filepath.Join(dir, "other.yaml"), "x: 1\n")
	time.Sleep(300 * time.Millisecond)

	_, hits := sink.get()
	assert.Zero(t, hits)
}

func TestWatcher_KeepsGoingAfterBadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "autoproxy.yaml")
	writeFile(t, path, "autoproxy:\n  objectNames: []\n")

	sink := &settingsSink{}
	w, err := config.WatchAutoProxyFile(path, sink.set)
	require.NoError(t, err)
	t.Cleanup(func() { _ = w.Close() })

	writeFile(t, path, "autoproxy: [broken")
	time.Sleep(300 * time.Millisecond)
	_, hits := sink.get()
	assert.Zero(t, hits, "a parse failure must not reach the callback")

	writeFile(t, path, "autoproxy:\n  objectNames: [\"ok\"]\n")
	require.Eventually(t, func() bool {
		last, _ := sink.get()
		return last != nil && len(last.ObjectNames) == 1 && last.ObjectNames[0] == "ok"
	}, 3*time.Second, 20*time.Millisecond)
}

func TestWatchAutoProxyFile_MissingDirectory(t *testing.T) {
	_, err := config.WatchAutoProxyFile(filepath.Join(t.TempDir(), "nope", "autoproxy.yaml"), func(config.FileSettings) {})
	assert.Error(t, err)
}
