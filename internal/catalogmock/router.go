// Package catalogmock serves canned ytmusicapi-shaped responses for local
// development and end-to-end tests.
package catalogmock

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
)

type Artist struct {
	Name string `json:"name"`
	ID   string `json:"id,omitempty"`
}

type Thumbnail struct {
	URL    string `json:"url"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

type Song struct {
	VideoID         string      `json:"videoId"`
	Title           string      `json:"title"`
	Artists         []Artist    `json:"artists"`
	Thumbnails      []Thumbnail `json:"thumbnails"`
	Duration        string      `json:"duration"`
	DurationSeconds int         `json:"duration_seconds"`
	ResultType      string      `json:"resultType"`
}

type ArtistPage struct {
	Name  string `json:"name"`
	Songs *struct {
		BrowseID string `json:"browseId"`
		Results  []Song `json:"results"`
	} `json:"songs,omitempty"`
}

// Identifiers with special behaviour.
const (
	// ArtistWithoutSongs has no songs section.
	ArtistWithoutSongs = "UCnosongs"
	// VideoWithoutLyrics has no lyrics browse id.
	VideoWithoutLyrics = "nolyrics01"
	// QueryFailing makes /search return 500.
	QueryFailing = "fail"
)

func SetupRouter() chi.Router {
	r := chi.NewRouter()

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]any{
			"status":  "ok",
			"service": "mock-catalog",
		})
	})

	r.Get("/search", func(w http.ResponseWriter, r *http.Request) {
		q := strings.ToLower(strings.TrimSpace(r.URL.Query().Get("query")))
		if q == QueryFailing {
			http.Error(w, "upstream exploded", http.StatusInternalServerError)
			return
		}
		limit := 20
		if v, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil && v > 0 {
			limit = v
		}

		out := []Song{}
		for _, s := range sampleSongs() {
			if len(out) == limit {
				break
			}
			if q == "" || strings.Contains(strings.ToLower(s.Title+" "+s.Artists[0].Name), q) || strings.Contains(q, "hits") || strings.Contains(q, "trending") {
				out = append(out, s)
			}
		}
		writeJSON(w, out)
	})

	r.Get("/search/suggestions", func(w http.ResponseWriter, r *http.Request) {
		q := strings.ToLower(strings.TrimSpace(r.URL.Query().Get("query")))
		out := []string{}
		for _, s := range sampleSongs() {
			title := strings.ToLower(s.Title)
			if strings.HasPrefix(title, q) {
				out = append(out, title)
			}
		}
		writeJSON(w, out)
	})

	r.Get("/artists/{id}", func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		if id == ArtistWithoutSongs {
			writeJSON(w, ArtistPage{Name: "Quiet Artist"})
			return
		}
		page := ArtistPage{Name: "Mock Band"}
		page.Songs = &struct {
			BrowseID string `json:"browseId"`
			Results  []Song `json:"results"`
		}{BrowseID: "VL" + id, Results: sampleSongs()[:3]}
		writeJSON(w, page)
	})

	r.Get("/watch", func(w http.ResponseWriter, r *http.Request) {
		id := r.URL.Query().Get("videoId")
		body := map[string]any{"tracks": []Song{}, "lyrics": nil}
		if id != VideoWithoutLyrics {
			body["lyrics"] = "MPLYt_" + id
		}
		writeJSON(w, body)
	})

	r.Get("/lyrics/{id}", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]any{
			"lyrics": "Mock lyrics for " + strings.TrimPrefix(chi.URLParam(r, "id"), "MPLYt_"),
			"source": "Source: Mock",
		})
	})

	return r
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func sampleSongs() []Song {
	mk := func(id, title, artist string, secs int) Song {
		return Song{
			VideoID: id,
			Title:   title,
			Artists: []Artist{{Name: artist, ID: "UC" + strings.ToLower(strings.ReplaceAll(artist, " ", ""))}},
			Thumbnails: []Thumbnail{
				{URL: "https://img.example/" + id + "/60.jpg", Width: 60, Height: 60},
				{URL: "https://img.example/" + id + "/120.jpg", Width: 120, Height: 120},
			},
			Duration:        strconv.Itoa(secs/60) + ":" + twoDigits(secs%60),
			DurationSeconds: secs,
			ResultType:      "song",
		}
	}
	return []Song{
		mk("lofi000001", "Lofi Track 1", "Beat Maker", 142),
		mk("lofi000002", "Lofi Track 2", "Beat Maker", 171),
		mk("banger0001", "Banger 1", "DJ Boom", 203),
		mk("banger0002", "Banger 2", "DJ Boom", 187),
		mk("chill00001", "Chill Vibes", "Sea Breeze", 244),
	}
}

func twoDigits(n int) string {
	if n < 10 {
		return "0" + strconv.Itoa(n)
	}
	return strconv.Itoa(n)
}
