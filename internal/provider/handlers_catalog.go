package provider

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
)

func (s *Server) HandleHome(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.catalog.HomeData(r.Context()))
}

func (s *Server) HandleArtistSongs(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimSpace(chi.URLParam(r, "id"))
	if id == "" {
		writeError(w, http.StatusBadRequest, "artist id is required")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"items": s.catalog.ArtistSongs(r.Context(), id),
	})
}

// HandleStream redirects the player to the resolved media URL. The URL is
// resolved on every request since the extractor's URLs expire.
func (s *Server) HandleStream(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimSpace(chi.URLParam(r, "id"))
	if id == "" {
		writeError(w, http.StatusBadRequest, "video id is required")
		return
	}

	u := s.catalog.StreamURL(r.Context(), id)
	if u == "" {
		writeError(w, http.StatusNotFound, "no playable stream")
		return
	}
	w.Header().Set("Cache-Control", "no-store")
	http.Redirect(w, r, u, http.StatusFound)
}

func (s *Server) HandleLyrics(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimSpace(chi.URLParam(r, "id"))
	if id == "" {
		writeError(w, http.StatusBadRequest, "video id is required")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"lyrics": s.catalog.Lyrics(r.Context(), id),
	})
}
