package store

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/ytdlpd/internal/foundation/errors"
)

const netscapeCookies = "# Netscape HTTP Cookie File\n.youtube.com\tTRUE\t/\tTRUE\t0\tPREF\tf1=1\n"

func TestValidCookieFormat(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    bool
	}{
		{"netscape header", netscapeCookies, true},
		{"netscape slashes header", "// Netscape HTTP Cookie File\n", true},
		{"tab separated lines", ".a.com\tTRUE\t/\tFALSE\t0\tk\tv\n.b.com\tTRUE\t/\tFALSE\t0\tk\tv", true},
		{"json array", `[{"name":"k","value":"v"}]`, true},
		{"json object", ` {"cookies":[]}`, true},
		{"broken json", `[{"name":`, false},
		{"wrong field count", ".a.com\tTRUE\t/", false},
		{"plain text", "hello world", false},
		{"empty", "  \n", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, ValidCookieFormat(tt.content))
		})
	}
}

func TestCookieStore_CRUD(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "cookies")
	s := NewCookieStore(dir)

	names, err := s.List()
	require.NoError(t, err)
	require.Empty(t, names)

	require.NoError(t, s.Create("youtube.txt", netscapeCookies))
	require.True(t, errors.HasCategory(s.Create("youtube.txt", netscapeCookies), errors.CategoryAlreadyExists))

	info, err := os.Stat(filepath.Join(dir, "youtube.txt"))
	require.NoError(t, err)
	require.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	require.True(t, errors.HasCategory(s.Update("youtube.txt", "garbage"), errors.CategoryValidation))
	require.NoError(t, s.Update("youtube.txt", `[{"name":"k"}]`))

	content, err := s.Get("youtube.txt")
	require.NoError(t, err)
	require.Equal(t, `[{"name":"k"}]`, content)

	names, err = s.List()
	require.NoError(t, err)
	require.Equal(t, []string{"youtube.txt"}, names)

	require.NoError(t, s.Delete("youtube.txt"))
	_, err = s.Get("youtube.txt")
	require.True(t, errors.HasCategory(err, errors.CategoryNotFound))
}

func TestCookieStore_Rejects(t *testing.T) {
	s := NewCookieStore(t.TempDir())

	require.True(t, errors.HasCategory(s.Create("../x", netscapeCookies), errors.CategoryValidation))
	require.True(t, errors.HasCategory(s.Create("x", " "), errors.CategoryValidation))
	require.True(t, errors.HasCategory(s.Update("missing", netscapeCookies), errors.CategoryNotFound))
}
