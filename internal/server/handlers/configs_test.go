package handlers

import (
	"net/http"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/ytdlpd/internal/server/responses"
)

func TestConfigHandlers_CRUD(t *testing.T) {
	s := newConfigStore(t)
	h := NewConfigHandlers(s)

	rec := serve(t, "POST /api/configs/{name}", h.HandleCreate, http.MethodPost, "/api/configs/music",
		"text/plain", `--format best -o "%(title)s.%(ext)s"`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	created := decode[responses.FileResponse](t, rec)
	require.Equal(t, "--format best\n-o \"/data/downloads/%(title)s.%(ext)s\"", created.Content)

	rec = serve(t, "POST /api/configs/{name}", h.HandleCreate, http.MethodPost, "/api/configs/music", "text/plain", "-x")
	require.Equal(t, http.StatusConflict, rec.Code)

	rec = serve(t, "PUT /api/configs/{name}", h.HandleUpdate, http.MethodPut, "/api/configs/music",
		"application/json", `{"content": "--no-playlist"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = serve(t, "GET /api/configs/{name}", h.HandleGet, http.MethodGet, "/api/configs/music", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "--no-playlist", decode[responses.FileResponse](t, rec).Content)

	rec = serve(t, "GET /api/configs", h.HandleList, http.MethodGet, "/api/configs", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	list := decode[responses.NameListResponse](t, rec)
	require.Equal(t, []string{"music"}, list.Names)

	rec = serve(t, "DELETE /api/configs/{name}", h.HandleDelete, http.MethodDelete, "/api/configs/music", "", "")
	require.Equal(t, http.StatusOK, rec.Code)

	rec = serve(t, "GET /api/configs/{name}", h.HandleGet, http.MethodGet, "/api/configs/music", "", "")
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestConfigHandlers_InvalidName(t *testing.T) {
	h := NewConfigHandlers(newConfigStore(t))

	rec := serve(t, "POST /api/configs/{name}", h.HandleCreate, http.MethodPost, "/api/configs/..hidden", "text/plain", "-x")
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestConfigHandlers_Normalize(t *testing.T) {
	s := newConfigStore(t)
	h := NewConfigHandlers(s)
	require.NoError(t, os.WriteFile(filepath.Join(s.Dir(), "raw.conf"), []byte("-o out.mp4 -x"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(s.Dir(), "clean.conf"), []byte("-x"), 0o644))

	rec := serve(t, "POST /api/configs/{name}/normalize", h.HandleNormalize, http.MethodPost, "/api/configs/raw/normalize", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	res := decode[responses.NormalizeResponse](t, rec)
	require.True(t, res.Changed)
	require.Equal(t, "-o \"/data/downloads/out.mp4\"\n-x", res.Content)

	rec = serve(t, "POST /api/configs/normalize-all", h.HandleNormalizeAll, http.MethodPost, "/api/configs/normalize-all", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	all := decode[responses.NormalizeAllResponse](t, rec)
	require.Len(t, all.Results, 2)
	require.Zero(t, all.Changed)
	require.Empty(t, all.Errors)
}

func TestConfigHandlers_Preview(t *testing.T) {
	s := newConfigStore(t)
	h := NewConfigHandlers(s)

	rec := serve(t, "POST /api/configs/normalize", h.HandlePreview, http.MethodPost, "/api/configs/normalize",
		"text/plain", "# keep\n--format best -o \"%(title)s.%(ext)s\"")
	require.Equal(t, http.StatusOK, rec.Code)

	res := decode[responses.NormalizeResponse](t, rec)
	require.True(t, res.Changed)
	require.Equal(t, "# keep\n--format best\n-o \"/data/downloads/%(title)s.%(ext)s\"", res.Content)
	require.Len(t, res.Lines, 2)
	require.True(t, res.Lines[0].PassThrough)
	require.True(t, res.Lines[1].Changed)
	require.Len(t, res.Lines[1].Output, 2)

	names, err := s.List()
	require.NoError(t, err)
	require.Empty(t, names)
}
