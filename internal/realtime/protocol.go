package realtime

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"

	"catalog-gateway/internal/gateway"
)

// Message types understood on the socket.
const (
	TypeInitHome = "INIT_HOME"
	TypeSearch   = "SEARCH"
	TypeSuggest  = "SUGGEST"
	TypeGetFav   = "GET_FAV"
	TypeLike     = "LIKE"
	TypeLyrics   = "LYRICS"

	TypeSearchRes  = "SEARCH_RES"
	TypeSuggestRes = "SUGGEST_RES"
	TypeFavRes     = "FAV_RES"
	TypeLyricsRes  = "LYRICS_RES"
	TypeError      = "ERROR"
)

// flexibleID accepts both "42" and 42, since mobile clients send user ids as
// numbers.
type flexibleID string

func (f *flexibleID) UnmarshalJSON(b []byte) error {
	if bytes.Equal(b, []byte("null")) {
		*f = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*f = flexibleID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return errors.New("user_id must be a string or a number")
	}
	*f = flexibleID(n.String())
	return nil
}

type inbound struct {
	Type     string     `json:"type"`
	Query    string     `json:"query"`
	UserID   flexibleID `json:"user_id"`
	ID       string     `json:"id"`
	Title    string     `json:"title"`
	Artist   string     `json:"artist"`
	ArtistID string     `json:"artistId"`
	Thumb    string     `json:"thumb"`
	Cover    string     `json:"cover"`
	Duration int        `json:"duration"`
}

func (m inbound) track() gateway.TrackSummary {
	cover := m.Cover
	if cover == "" {
		cover = m.Thumb
	}
	return gateway.TrackSummary{
		ID:       strings.TrimSpace(m.ID),
		Title:    m.Title,
		Artist:   m.Artist,
		ArtistID: m.ArtistID,
		Cover:    cover,
		Duration: m.Duration,
	}
}

// wireTrack repeats the cover under "thumb" for clients that read that key.
type wireTrack struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	Artist   string `json:"artist"`
	ArtistID string `json:"artistId,omitempty"`
	Cover    string `json:"cover"`
	Thumb    string `json:"thumb"`
	Duration int    `json:"duration,omitempty"`
}

func wireTracks(in []gateway.TrackSummary) []wireTrack {
	out := make([]wireTrack, 0, len(in))
	for _, t := range in {
		out = append(out, wireTrack{
			ID:       t.ID,
			Title:    t.Title,
			Artist:   t.Artist,
			ArtistID: t.ArtistID,
			Cover:    t.Cover,
			Thumb:    t.Cover,
			Duration: t.Duration,
		})
	}
	return out
}

type wireHome struct {
	Rec []wireTrack `json:"rec"`
	New []wireTrack `json:"new"`
}

type reply struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

// favoritesEvent is published on Redis so the user's other devices pick up
// the change.
type favoritesEvent struct {
	Type   string      `json:"type"`
	UserID string      `json:"user_id"`
	Origin string      `json:"origin,omitempty"`
	Data   []wireTrack `json:"data"`
}

type errorReply struct {
	Type  string `json:"type"`
	Error string `json:"error"`
}
