package handlers

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"strings"

	"git.home.luguber.info/inful/ytdlpd/internal/foundation/errors"
	"git.home.luguber.info/inful/ytdlpd/internal/logfields"
)

// maxBodyBytes bounds request bodies for config, cookie and download requests.
const maxBodyBytes = 1 << 20

// writeJSON serializes the provided value to JSON and writes it with the given
// status code. Encoding is performed into an intermediate buffer so that we
// don't send partial responses if serialization fails.
func writeJSON(w http.ResponseWriter, status int, v any) error {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(true)
	if err := enc.Encode(v); err != nil {
		return err
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if _, err := w.Write(buf.Bytes()); err != nil {
		slog.Error("failed writing JSON response body", logfields.Error(err))
		return err
	}
	return nil
}

// writeJSONPretty optionally pretty prints when pretty=true via query parameter.
func writeJSONPretty(w http.ResponseWriter, r *http.Request, status int, v any) error {
	if r != nil {
		if p := r.URL.Query().Get("pretty"); p == "1" || p == "true" {
			b, err := json.MarshalIndent(v, "", "  ")
			if err == nil {
				w.Header().Set("Content-Type", "application/json; charset=utf-8")
				w.WriteHeader(status)
				if _, werr := w.Write(append(b, '\n')); werr != nil {
					slog.Error("failed writing pretty JSON", logfields.Error(werr))
					return werr
				}
				return nil
			}
			slog.Warn("pretty JSON marshal failed, falling back to standard encode", logfields.Error(err))
		}
	}
	return writeJSON(w, status, v)
}

// respond writes v and reports encoding failures through the adapter.
func respond(adapter *errors.HTTPErrorAdapter, w http.ResponseWriter, r *http.Request, status int, v any) {
	if err := writeJSONPretty(w, r, status, v); err != nil {
		adapter.WriteErrorResponse(w, r, errors.WrapError(err, errors.CategoryInternal, "failed to write response").Build())
	}
}

func readBody(r *http.Request) ([]byte, error) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes+1))
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryValidation, "failed to read request body").Build()
	}
	if len(body) > maxBodyBytes {
		return nil, errors.ValidationError("request body too large").
			WithContext("max_bytes", maxBodyBytes).Build()
	}
	return body, nil
}

func mediaType(r *http.Request) string {
	mt, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if err != nil {
		return ""
	}
	return mt
}

// decodeText extracts a text payload. JSON bodies may be a string or an
// object holding the value under field. text/* bodies are taken verbatim;
// without a content type a body that looks like JSON is decoded as JSON.
func decodeText(r *http.Request, field string) (string, error) {
	body, err := readBody(r)
	if err != nil {
		return "", err
	}
	trimmed := bytes.TrimSpace(body)
	mt := mediaType(r)
	isJSON := mt == "application/json" || strings.HasSuffix(mt, "+json")
	looksJSON := len(trimmed) > 0 && (trimmed[0] == '"' || trimmed[0] == '{')
	if strings.HasPrefix(mt, "text/") || (!isJSON && !looksJSON) {
		return string(body), nil
	}
	if len(trimmed) == 0 {
		return "", nil
	}

	if trimmed[0] == '"' {
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return "", errors.WrapError(err, errors.CategoryValidation, "invalid JSON string body").Build()
		}
		return s, nil
	}

	var obj map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &obj); err != nil {
		return "", errors.WrapError(err, errors.CategoryValidation, "invalid JSON body").Build()
	}
	raw, ok := obj[field]
	if !ok {
		return "", errors.ValidationError("missing field in JSON body").WithContext("field", field).Build()
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return "", errors.ValidationError("field must be a string").WithContext("field", field).Build()
	}
	return s, nil
}
