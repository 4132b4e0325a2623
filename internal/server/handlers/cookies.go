package handlers

import (
	"log/slog"
	"net/http"

	"git.home.luguber.info/inful/ytdlpd/internal/foundation/errors"
	"git.home.luguber.info/inful/ytdlpd/internal/server/responses"
	"git.home.luguber.info/inful/ytdlpd/internal/store"
)

// CookieHandlers serves /api/cookies.
type CookieHandlers struct {
	store        *store.CookieStore
	errorAdapter *errors.HTTPErrorAdapter
}

// NewCookieHandlers creates cookie handlers backed by s.
func NewCookieHandlers(s *store.CookieStore) *CookieHandlers {
	return &CookieHandlers{store: s, errorAdapter: errors.NewHTTPErrorAdapter(slog.Default())}
}

// HandleList serves GET /api/cookies.
func (h *CookieHandlers) HandleList(w http.ResponseWriter, r *http.Request) {
	names, err := h.store.List()
	if err != nil {
		h.errorAdapter.WriteErrorResponse(w, r, err)
		return
	}
	respond(h.errorAdapter, w, r, http.StatusOK, &responses.NameListResponse{Names: names, Count: len(names)})
}

// HandleGet serves GET /api/cookies/{name}.
func (h *CookieHandlers) HandleGet(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	content, err := h.store.Get(name)
	if err != nil {
		h.errorAdapter.WriteErrorResponse(w, r, err)
		return
	}
	respond(h.errorAdapter, w, r, http.StatusOK, &responses.FileResponse{Name: name, Content: content})
}

// HandleCreate serves POST /api/cookies/{name}.
func (h *CookieHandlers) HandleCreate(w http.ResponseWriter, r *http.Request) {
	h.put(w, r, http.StatusCreated, "created", h.store.Create)
}

// HandleUpdate serves PUT /api/cookies/{name}.
func (h *CookieHandlers) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	h.put(w, r, http.StatusOK, "updated", h.store.Update)
}

func (h *CookieHandlers) put(w http.ResponseWriter, r *http.Request, status int, verb string, write func(name, content string) error) {
	name := r.PathValue("name")
	content, err := decodeText(r, "content")
	if err != nil {
		h.errorAdapter.WriteErrorResponse(w, r, err)
		return
	}
	if err := write(name, content); err != nil {
		h.errorAdapter.WriteErrorResponse(w, r, err)
		return
	}
	respond(h.errorAdapter, w, r, status, &responses.MessageResponse{Message: "Cookie file '" + name + "' " + verb + " successfully."})
}

// HandleDelete serves DELETE /api/cookies/{name}.
func (h *CookieHandlers) HandleDelete(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	if err := h.store.Delete(name); err != nil {
		h.errorAdapter.WriteErrorResponse(w, r, err)
		return
	}
	respond(h.errorAdapter, w, r, http.StatusOK, &responses.MessageResponse{Message: "Cookie file '" + name + "' deleted successfully."})
}
