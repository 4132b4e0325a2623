package daemon

import (
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/ytdlpd/internal/store"
)

type recordingNormalizer struct {
	mu    sync.Mutex
	names []string
}

func (r *recordingNormalizer) Normalize(name string) (store.NormalizeResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.names = append(r.names, name)
	return store.NormalizeResult{Name: name}, nil
}

func (r *recordingNormalizer) seen() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.names...)
}

func TestConfigName(t *testing.T) {
	tests := []struct {
		path string
		name string
		ok   bool
	}{
		{"/c/music.conf", "music", true},
		{"/c/.music.conf.1234.tmp", "", false},
		{"/c/.hidden.conf", "", false},
		{"/c/notes.txt", "", false},
		{"/c/.conf", "", false},
	}
	for _, tt := range tests {
		name, ok := configName(tt.path)
		require.Equal(t, tt.ok, ok, tt.path)
		require.Equal(t, tt.name, name, tt.path)
	}
}

func TestConfigWatcher_DebouncesWrites(t *testing.T) {
	dir := t.TempDir()
	rec := &recordingNormalizer{}
	w, err := NewConfigWatcher(dir, rec, 100*time.Millisecond)
	require.NoError(t, err)
	require.NoError(t, w.Start(t.Context()))
	t.Cleanup(func() { _ = w.Stop() })

	path := filepath.Join(dir, "music.conf")
	for range 5 {
		require.NoError(t, os.WriteFile(path, []byte("-x"), 0o644))
	}
	require.NoError(t, os.WriteFile(filepath.Join(dir, "ignored.txt"), []byte("-x"), 0o644))

	require.Eventually(t, func() bool { return len(rec.seen()) > 0 }, 5*time.Second, 10*time.Millisecond)
	time.Sleep(200 * time.Millisecond)
	require.Equal(t, []string{"music"}, rec.seen())
}

func TestConfigWatcher_StopIsIdempotent(t *testing.T) {
	w, err := NewConfigWatcher(t.TempDir(), &recordingNormalizer{}, time.Millisecond)
	require.NoError(t, err)
	require.NoError(t, w.Start(t.Context()))

	require.NoError(t, w.Stop())
	require.NoError(t, w.Stop())
	w.enqueue("late")
	require.Nil(t, w.timer)
}
