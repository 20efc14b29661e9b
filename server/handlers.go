package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/iedon/wikimarkup-go/pagestore"
	"github.com/iedon/wikimarkup-go/pipeline"
	"github.com/iedon/wikimarkup-go/site"
)

// maxBodyBytes bounds request payloads carrying page content.
const maxBodyBytes = 4 << 20

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "dialect": s.svc.Pipeline().Dialect()})
}

func (s *Server) handlePreview(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	var payload struct {
		Content string `json:"content"`
	}
	if err := decodeJSON(w, r, &payload); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	rendered, err := s.svc.RenderPreview(payload.Content)
	if err != nil {
		s.writeRenderError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rendered)
}

func (s *Server) handleSyntax(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	writeJSON(w, http.StatusOK, s.svc.Syntax())
}

func (s *Server) handleMenu(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	menu, err := s.svc.RenderMenu(r.Context())
	if err != nil {
		if errors.Is(err, site.ErrMenuMissing) {
			writeError(w, http.StatusNotFound, err.Error())
			return
		}
		s.writeRenderError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, menu)
}

func (s *Server) handlePage(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	raw := strings.Trim(strings.TrimPrefix(r.URL.Path, "/api/pages/"), "/")
	id, err := strconv.Atoi(raw)
	if err != nil || id <= 0 {
		writeError(w, http.StatusBadRequest, "invalid page id")
		return
	}
	doc, err := s.svc.RenderPage(r.Context(), id)
	if err != nil {
		if errors.Is(err, pagestore.ErrNotFound) {
			writeError(w, http.StatusNotFound, "page not found")
			return
		}
		s.writeRenderError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

func (s *Server) handleCreatePage(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	var payload struct {
		Title   string `json:"title"`
		Content string `json:"content"`
	}
	if err := decodeJSON(w, r, &payload); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	if strings.TrimSpace(payload.Title) == "" {
		writeError(w, http.StatusBadRequest, "title required")
		return
	}
	doc, err := s.svc.SavePage(r.Context(), payload.Title, payload.Content)
	if err != nil {
		if errors.Is(err, pagestore.ErrDuplicateTitle) {
			writeError(w, http.StatusConflict, err.Error())
			return
		}
		s.writeRenderError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, doc)
}

func (s *Server) writeRenderError(w http.ResponseWriter, r *http.Request, err error) {
	var parseErr *pipeline.ParseError
	if errors.As(err, &parseErr) {
		writeError(w, http.StatusUnprocessableEntity, parseErr.Error())
		return
	}
	s.logger.Error("render", "id", r.Header.Get(requestIDHeader), "path", r.URL.Path, "error", err)
	writeError(w, http.StatusInternalServerError, err.Error())
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	return json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(dst)
}
