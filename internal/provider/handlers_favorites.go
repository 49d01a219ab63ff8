package provider

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"

	"catalog-gateway/internal/favorites"
	"catalog-gateway/internal/gateway"
)

const (
	favoritesEvent = "FAV_RES"
	maxBodyBytes   = 64 << 10
)

func (s *Server) HandleListFavorites(w http.ResponseWriter, r *http.Request) {
	userID := strings.TrimSpace(chi.URLParam(r, "userId"))
	if userID == "" {
		writeError(w, http.StatusBadRequest, "user id is required")
		return
	}

	items, err := s.favorites.List(r.Context(), userID)
	if err != nil {
		s.log.WithField("user_id", userID).WithError(err).Error("list favorites")
		writeError(w, http.StatusInternalServerError, "failed to load favorites")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"items": items,
	})
}

func (s *Server) HandleToggleFavorite(w http.ResponseWriter, r *http.Request) {
	userID := strings.TrimSpace(chi.URLParam(r, "userId"))
	if userID == "" {
		writeError(w, http.StatusBadRequest, "user id is required")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	var track gateway.TrackSummary
	if err := json.NewDecoder(r.Body).Decode(&track); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	liked, err := s.favorites.Toggle(r.Context(), userID, track)
	if errors.Is(err, favorites.ErrInvalidTrack) {
		writeError(w, http.StatusBadRequest, "track id is required")
		return
	}
	if err != nil {
		s.log.WithFields(logrus.Fields{"user_id": userID, "track_id": track.ID}).WithError(err).Error("toggle favorite")
		writeError(w, http.StatusInternalServerError, "failed to update favorites")
		return
	}

	items, err := s.favorites.List(r.Context(), userID)
	if err != nil {
		s.log.WithField("user_id", userID).WithError(err).Error("list favorites")
		writeError(w, http.StatusInternalServerError, "failed to load favorites")
		return
	}

	s.publishEvent(r.Context(), map[string]any{
		"type":    favoritesEvent,
		"user_id": userID,
		"data":    items,
	})

	writeJSON(w, http.StatusOK, map[string]any{
		"liked": liked,
		"items": items,
	})
}
