package store

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/ytdlpd/internal/confnorm"
	"git.home.luguber.info/inful/ytdlpd/internal/foundation/errors"
)

func newTestConfigStore(t *testing.T) *ConfigStore {
	t.Helper()
	n := confnorm.New(confnorm.Folders{Downloads: "/data/downloads/", Archive: "/data/archive/"})
	return NewConfigStore(t.TempDir(), n, nil)
}

func TestConfigStore_CreateNormalizes(t *testing.T) {
	s := newTestConfigStore(t)

	got, err := s.Create("music", `--format best -o "%(title)s.%(ext)s"`)
	require.NoError(t, err)
	require.Equal(t, "--format best\n-o \"/data/downloads/%(title)s.%(ext)s\"", got)

	stored, err := s.Get("music")
	require.NoError(t, err)
	require.Equal(t, got, stored)

	_, err = s.Create("music", "-x")
	require.True(t, errors.HasCategory(err, errors.CategoryAlreadyExists))
}

func TestConfigStore_UpdateAndDelete(t *testing.T) {
	s := newTestConfigStore(t)

	_, err := s.Update("missing", "-x")
	require.True(t, errors.HasCategory(err, errors.CategoryNotFound))

	_, err = s.Create("music", "-x")
	require.NoError(t, err)
	_, err = s.Update("music.conf", "--no-playlist")
	require.NoError(t, err)

	content, err := s.Get("music")
	require.NoError(t, err)
	require.Equal(t, "--no-playlist", content)

	require.NoError(t, s.Delete("music"))
	require.False(t, s.Exists("music"))
	require.True(t, errors.HasCategory(s.Delete("music"), errors.CategoryNotFound))
}

func TestConfigStore_List(t *testing.T) {
	s := newTestConfigStore(t)

	for _, f := range []string{"b.conf", "a.conf", "notes.txt", ".hidden.conf"} {
		require.NoError(t, os.WriteFile(filepath.Join(s.Dir(), f), []byte("-x"), 0o644))
	}
	require.NoError(t, os.Mkdir(filepath.Join(s.Dir(), "dir.conf"), 0o755))

	names, err := s.List()
	require.NoError(t, err)
	require.Equal(t, []string{"a", "b"}, names)
}

func TestConfigStore_ListMissingDir(t *testing.T) {
	s := NewConfigStore(filepath.Join(t.TempDir(), "nope"), confnorm.New(confnorm.Folders{}), nil)

	names, err := s.List()
	require.NoError(t, err)
	require.Empty(t, names)
}

func TestConfigStore_InvalidNames(t *testing.T) {
	s := newTestConfigStore(t)

	for _, name := range []string{"", "   ", "../etc", "a/b", "..", ".hidden", "a b"} {
		_, err := s.Path(name)
		require.True(t, errors.HasCategory(err, errors.CategoryValidation), "name %q", name)
	}
}

func TestConfigStore_Normalize(t *testing.T) {
	s := newTestConfigStore(t)
	path := filepath.Join(s.Dir(), "raw.conf")
	require.NoError(t, os.WriteFile(path, []byte("# keep\n-o clip.mp4 --no-mtime"), 0o644))

	res, err := s.Normalize("raw")
	require.NoError(t, err)
	require.True(t, res.Changed)
	require.Equal(t, "# keep\n-o \"/data/downloads/clip.mp4\"\n--no-mtime", res.Content)

	info, err := os.Stat(path)
	require.NoError(t, err)
	mtime := info.ModTime()

	res, err = s.Normalize("raw")
	require.NoError(t, err)
	require.False(t, res.Changed)

	info, err = os.Stat(path)
	require.NoError(t, err)
	require.Equal(t, mtime, info.ModTime())
}

func TestConfigStore_NormalizeAll(t *testing.T) {
	s := newTestConfigStore(t)
	require.NoError(t, os.WriteFile(filepath.Join(s.Dir(), "a.conf"), []byte("-o a.mp4"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(s.Dir(), "b.conf"), []byte("--no-mtime"), 0o644))

	results, err := s.NormalizeAll()
	require.NoError(t, err)
	require.Equal(t, []NormalizeResult{
		{Name: "a", Changed: true},
		{Name: "b", Changed: false},
	}, results)
}
