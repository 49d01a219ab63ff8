package gateway

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/tidwall/gjson"
)

// ErrMalformed is returned when a catalog document lacks a field the
// projection depends on.
var ErrMalformed = errors.New("malformed catalog response")

func requireString(r gjson.Result, path string) (string, error) {
	v := r.Get(path)
	if !v.Exists() || v.Type == gjson.Null {
		return "", fmt.Errorf("%w: missing %q", ErrMalformed, path)
	}
	return v.String(), nil
}

// bestThumbnail picks the last (largest) thumbnail, or the placeholder when
// there is none.
func bestThumbnail(thumbs gjson.Result, placeholder string) string {
	list := thumbs.Array()
	if len(list) == 0 {
		return placeholder
	}
	if u := list[len(list)-1].Get("url").String(); u != "" {
		return u
	}
	return placeholder
}

// maxDurationSeconds bounds any duration we report; larger or negative
// values are treated as unknown.
const maxDurationSeconds = math.MaxInt32

// durationSeconds prefers duration_seconds and falls back to the "m:ss" or
// "h:mm:ss" display string.
func durationSeconds(item gjson.Result) int {
	if d := item.Get("duration_seconds"); d.Exists() && d.Type == gjson.Number {
		f := d.Float()
		if f < 0 || f > maxDurationSeconds {
			return 0
		}
		return int(f)
	}
	return parseClock(item.Get("duration").String())
}

func parseClock(s string) int {
	if s == "" {
		return 0
	}
	total := 0
	for _, part := range strings.Split(s, ":") {
		n, err := strconv.Atoi(part)
		if err != nil || n < 0 || n > maxDurationSeconds {
			return 0
		}
		if total > (maxDurationSeconds-n)/60 {
			return 0
		}
		total = total*60 + n
	}
	return total
}

func videoID(item gjson.Result) (string, bool) {
	id := item.Get("videoId")
	if !id.Exists() || id.Type == gjson.Null || id.String() == "" {
		return "", false
	}
	return id.String(), true
}

// projectSearch turns a song search result list into track summaries. Entries
// without a video id are dropped; any other missing field fails the whole list.
func projectSearch(items gjson.Result, limit int, placeholder string) ([]TrackSummary, error) {
	if !items.IsArray() {
		return nil, fmt.Errorf("%w: search result is not a list", ErrMalformed)
	}

	out := make([]TrackSummary, 0, limit)
	for _, item := range items.Array() {
		if len(out) == limit {
			break
		}
		id, ok := videoID(item)
		if !ok {
			continue
		}

		title, err := requireString(item, "title")
		if err != nil {
			return nil, err
		}
		artist := item.Get("artists.0")
		if !artist.Exists() {
			return nil, fmt.Errorf("%w: %s has no artists", ErrMalformed, id)
		}
		artistName, err := requireString(artist, "name")
		if err != nil {
			return nil, err
		}

		out = append(out, TrackSummary{
			ID:       id,
			Title:    title,
			Artist:   artistName,
			ArtistID: artist.Get("id").String(),
			Cover:    bestThumbnail(item.Get("thumbnails"), placeholder),
			Duration: durationSeconds(item),
		})
	}
	return out, nil
}

// projectArtistSongs reads songs.results of an artist page. The artist's own
// display name is used for every track.
func projectArtistSongs(artist gjson.Result, artistID, placeholder string) ([]TrackSummary, error) {
	name, err := requireString(artist, "name")
	if err != nil {
		return nil, err
	}
	results := artist.Get("songs.results")
	if !results.IsArray() {
		return nil, fmt.Errorf("%w: artist %s has no songs section", ErrMalformed, artistID)
	}

	songs := results.Array()
	out := make([]TrackSummary, 0, len(songs))
	for _, song := range songs {
		id, ok := videoID(song)
		if !ok {
			if !song.Get("videoId").Exists() {
				return nil, fmt.Errorf("%w: artist %s song without videoId", ErrMalformed, artistID)
			}
			continue
		}
		title, err := requireString(song, "title")
		if err != nil {
			return nil, err
		}

		out = append(out, TrackSummary{
			ID:       id,
			Title:    title,
			Artist:   name,
			ArtistID: artistID,
			Cover:    bestThumbnail(song.Get("thumbnails"), placeholder),
			Duration: durationSeconds(song),
		})
	}
	return out, nil
}

func projectSuggestions(res gjson.Result) ([]string, error) {
	if !res.IsArray() {
		return nil, fmt.Errorf("%w: suggestions are not a list", ErrMalformed)
	}
	out := []string{}
	for _, s := range res.Array() {
		switch {
		case s.Type == gjson.String:
			out = append(out, s.String())
		case s.IsObject() && s.Get("text").Exists():
			out = append(out, s.Get("text").String())
		}
	}
	return out, nil
}
