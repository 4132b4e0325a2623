package handlers

import (
	"log/slog"
	"net/http"

	"git.home.luguber.info/inful/ytdlpd/internal/foundation/errors"
	"git.home.luguber.info/inful/ytdlpd/internal/server/responses"
	"git.home.luguber.info/inful/ytdlpd/internal/store"
)

// ConfigHandlers serves /api/configs.
type ConfigHandlers struct {
	store        *store.ConfigStore
	errorAdapter *errors.HTTPErrorAdapter
}

// NewConfigHandlers creates config handlers backed by s.
func NewConfigHandlers(s *store.ConfigStore) *ConfigHandlers {
	return &ConfigHandlers{store: s, errorAdapter: errors.NewHTTPErrorAdapter(slog.Default())}
}

// HandleList serves GET /api/configs.
func (h *ConfigHandlers) HandleList(w http.ResponseWriter, r *http.Request) {
	names, err := h.store.List()
	if err != nil {
		h.errorAdapter.WriteErrorResponse(w, r, err)
		return
	}
	respond(h.errorAdapter, w, r, http.StatusOK, &responses.NameListResponse{Names: names, Count: len(names)})
}

// HandleGet serves GET /api/configs/{name}.
func (h *ConfigHandlers) HandleGet(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	content, err := h.store.Get(name)
	if err != nil {
		h.errorAdapter.WriteErrorResponse(w, r, err)
		return
	}
	respond(h.errorAdapter, w, r, http.StatusOK, &responses.FileResponse{Name: name, Content: content})
}

// HandleCreate serves POST /api/configs/{name}. The stored content is normalized.
func (h *ConfigHandlers) HandleCreate(w http.ResponseWriter, r *http.Request) {
	h.put(w, r, http.StatusCreated, h.store.Create)
}

// HandleUpdate serves PUT /api/configs/{name}.
func (h *ConfigHandlers) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	h.put(w, r, http.StatusOK, h.store.Update)
}

func (h *ConfigHandlers) put(w http.ResponseWriter, r *http.Request, status int, write func(name, content string) (string, error)) {
	name := r.PathValue("name")
	content, err := decodeText(r, "content")
	if err != nil {
		h.errorAdapter.WriteErrorResponse(w, r, err)
		return
	}
	normalized, err := write(name, content)
	if err != nil {
		h.errorAdapter.WriteErrorResponse(w, r, err)
		return
	}
	respond(h.errorAdapter, w, r, status, &responses.FileResponse{Name: name, Content: normalized})
}

// HandleDelete serves DELETE /api/configs/{name}.
func (h *ConfigHandlers) HandleDelete(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	if err := h.store.Delete(name); err != nil {
		h.errorAdapter.WriteErrorResponse(w, r, err)
		return
	}
	respond(h.errorAdapter, w, r, http.StatusOK, &responses.MessageResponse{Message: "Config '" + name + "' deleted successfully."})
}

// HandleNormalize serves POST /api/configs/{name}/normalize, rewriting the stored file.
func (h *ConfigHandlers) HandleNormalize(w http.ResponseWriter, r *http.Request) {
	res, err := h.store.Normalize(r.PathValue("name"))
	if err != nil {
		h.errorAdapter.WriteErrorResponse(w, r, err)
		return
	}
	respond(h.errorAdapter, w, r, http.StatusOK, &responses.NormalizeResponse{
		Name:    res.Name,
		Changed: res.Changed,
		Content: res.Content,
	})
}

// HandleNormalizeAll serves POST /api/configs/normalize-all.
func (h *ConfigHandlers) HandleNormalizeAll(w http.ResponseWriter, r *http.Request) {
	results, err := h.store.NormalizeAll()
	if results == nil && err != nil {
		h.errorAdapter.WriteErrorResponse(w, r, err)
		return
	}
	out := &responses.NormalizeAllResponse{Results: make([]responses.NormalizeResponse, 0, len(results))}
	for _, res := range results {
		if res.Changed {
			out.Changed++
		}
		out.Results = append(out.Results, responses.NormalizeResponse{Name: res.Name, Changed: res.Changed})
	}
	if err != nil {
		out.Errors = append(out.Errors, err.Error())
	}
	respond(h.errorAdapter, w, r, http.StatusOK, out)
}

// HandlePreview serves POST /api/configs/normalize: it normalizes the
// request body without touching storage and reports every line.
func (h *ConfigHandlers) HandlePreview(w http.ResponseWriter, r *http.Request) {
	content, err := decodeText(r, "content")
	if err != nil {
		h.errorAdapter.WriteErrorResponse(w, r, err)
		return
	}
	n := h.store.Normalizer()
	normalized := n.Normalize(content)
	respond(h.errorAdapter, w, r, http.StatusOK, &responses.NormalizeResponse{
		Changed: normalized != content,
		Content: normalized,
		Lines:   n.NormalizeLines(content),
	})
}
