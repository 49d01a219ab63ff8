package provider

import (
	"net/http"
	"strings"
)

const maxQueryLen = 200

func readQuery(w http.ResponseWriter, r *http.Request) (string, bool) {
	q := strings.TrimSpace(r.URL.Query().Get("query"))
	if q == "" {
		writeError(w, http.StatusBadRequest, "query is required")
		return "", false
	}
	if len(q) > maxQueryLen {
		writeError(w, http.StatusBadRequest, "query is too long")
		return "", false
	}
	return q, true
}

func (s *Server) HandleSearch(w http.ResponseWriter, r *http.Request) {
	q, ok := readQuery(w, r)
	if !ok {
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"items": s.catalog.SearchMusic(r.Context(), q),
	})
}

func (s *Server) HandleSuggest(w http.ResponseWriter, r *http.Request) {
	q, ok := readQuery(w, r)
	if !ok {
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"items": s.catalog.Suggestions(r.Context(), q),
	})
}
