package handlers

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/ytdlpd/internal/server/responses"
	"git.home.luguber.info/inful/ytdlpd/internal/store"
)

const netscapeCookies = "# Netscape HTTP Cookie File\n.example.com\tTRUE\t/\tFALSE\t0\tSID\tabc\n"

func TestCookieHandlers_CRUD(t *testing.T) {
	s := store.NewCookieStore(t.TempDir())
	h := NewCookieHandlers(s)

	rec := serve(t, "POST /api/cookies/{name}", h.HandleCreate, http.MethodPost, "/api/cookies/yt.txt", "text/plain", netscapeCookies)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	require.Equal(t, "Cookie file 'yt.txt' created successfully.", decode[responses.MessageResponse](t, rec).Message)

	rec = serve(t, "GET /api/cookies/{name}", h.HandleGet, http.MethodGet, "/api/cookies/yt.txt", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, netscapeCookies, decode[responses.FileResponse](t, rec).Content)

	rec = serve(t, "PUT /api/cookies/{name}", h.HandleUpdate, http.MethodPut, "/api/cookies/yt.txt",
		"application/json", `{"content": "[{\"name\": \"SID\"}]"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = serve(t, "GET /api/cookies", h.HandleList, http.MethodGet, "/api/cookies", "", "")
	require.Equal(t, []string{"yt.txt"}, decode[responses.NameListResponse](t, rec).Names)

	rec = serve(t, "DELETE /api/cookies/{name}", h.HandleDelete, http.MethodDelete, "/api/cookies/yt.txt", "", "")
	require.Equal(t, http.StatusOK, rec.Code)

	rec = serve(t, "DELETE /api/cookies/{name}", h.HandleDelete, http.MethodDelete, "/api/cookies/yt.txt", "", "")
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCookieHandlers_RejectsInvalidFormat(t *testing.T) {
	h := NewCookieHandlers(store.NewCookieStore(t.TempDir()))

	rec := serve(t, "POST /api/cookies/{name}", h.HandleCreate, http.MethodPost, "/api/cookies/bad", "text/plain", "not a cookie file")
	require.Equal(t, http.StatusBadRequest, rec.Code)
}
