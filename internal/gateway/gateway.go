// Package gateway is the catalog facade used by the HTTP and WebSocket
// surfaces. Every operation calls the catalog and/or the extractor, projects
// the result into flat records, and never returns an error: failures are
// logged, counted and replaced by the operation's documented empty value.
package gateway

import (
	"context"

	"github.com/sirupsen/logrus"
	"github.com/tidwall/gjson"
	"golang.org/x/sync/errgroup"

	"catalog-gateway/internal/catalog"
)

const (
	opSearch      = "search_music"
	opHome        = "get_home_data"
	opArtistSongs = "get_artist_songs"
	opStreamURL   = "get_stream_url"
	opLyrics      = "get_lyrics"
	opSuggestions = "get_suggestions"
)

type Catalog interface {
	Search(ctx context.Context, query, filter string, limit int) (gjson.Result, error)
	SearchSuggestions(ctx context.Context, query string) (gjson.Result, error)
	GetArtist(ctx context.Context, browseID string) (gjson.Result, error)
	GetWatchPlaylist(ctx context.Context, videoID string) (gjson.Result, error)
	GetLyrics(ctx context.Context, browseID string) (gjson.Result, error)
}

type Extractor interface {
	StreamURL(ctx context.Context, videoID string) (string, error)
}

type Options struct {
	SearchLimit      int
	HomeLimit        int
	HomeRecQuery     string
	HomeNewQuery     string
	PlaceholderCover string
}

type Gateway struct {
	catalog   Catalog
	extractor Extractor
	opts      Options
	log       logrus.FieldLogger
	metrics   *Metrics
}

func New(c Catalog, e Extractor, opts Options, log logrus.FieldLogger, m *Metrics) *Gateway {
	if log == nil {
		l := logrus.New()
		l.SetLevel(logrus.PanicLevel)
		log = l
	}
	return &Gateway{
		catalog:   c,
		extractor: e,
		opts:      opts,
		log:       log,
		metrics:   m,
	}
}

// suppressed records the outcome of op and reports whether it failed.
func (g *Gateway) suppressed(op string, err error, fields logrus.Fields) bool {
	g.metrics.observe(op, err)
	if err == nil {
		return false
	}
	g.log.WithFields(fields).WithField("operation", op).WithError(err).Warn("upstream failure suppressed")
	return true
}

// SearchMusic returns up to SearchLimit songs matching query, or an empty
// slice on any failure.
func (g *Gateway) SearchMusic(ctx context.Context, query string) []TrackSummary {
	tracks, err := g.searchSongs(ctx, query, g.opts.SearchLimit)
	if g.suppressed(opSearch, err, logrus.Fields{"query": query}) {
		return []TrackSummary{}
	}
	return tracks
}

func (g *Gateway) searchSongs(ctx context.Context, query string, limit int) ([]TrackSummary, error) {
	res, err := g.catalog.Search(ctx, query, catalog.FilterSongs, limit)
	if err != nil {
		return nil, err
	}
	return projectSearch(res, limit, g.opts.PlaceholderCover)
}

// HomeData runs the recommended and new-releases searches. If either fails
// both lists come back empty.
func (g *Gateway) HomeData(ctx context.Context) HomeFeed {
	feed, err := g.homeData(ctx)
	if g.suppressed(opHome, err, nil) {
		return emptyHomeFeed()
	}
	return feed
}

func (g *Gateway) homeData(ctx context.Context) (HomeFeed, error) {
	var feed HomeFeed
	eg, ctx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		rec, err := g.searchSongs(ctx, g.opts.HomeRecQuery, g.opts.HomeLimit)
		feed.Rec = rec
		return err
	})
	eg.Go(func() error {
		latest, err := g.searchSongs(ctx, g.opts.HomeNewQuery, g.opts.HomeLimit)
		feed.New = latest
		return err
	})
	if err := eg.Wait(); err != nil {
		return HomeFeed{}, err
	}
	return feed, nil
}

// ArtistSongs lists the songs section of an artist page.
func (g *Gateway) ArtistSongs(ctx context.Context, artistID string) []TrackSummary {
	tracks, err := g.artistSongs(ctx, artistID)
	if g.suppressed(opArtistSongs, err, logrus.Fields{"artist_id": artistID}) {
		return []TrackSummary{}
	}
	return tracks
}

func (g *Gateway) artistSongs(ctx context.Context, artistID string) ([]TrackSummary, error) {
	artist, err := g.catalog.GetArtist(ctx, artistID)
	if err != nil {
		return nil, err
	}
	return projectArtistSongs(artist, artistID, g.opts.PlaceholderCover)
}

// StreamURL resolves a playable audio URL. The empty string means there is
// no playable stream.
func (g *Gateway) StreamURL(ctx context.Context, videoID string) string {
	u, err := g.extractor.StreamURL(ctx, videoID)
	if g.suppressed(opStreamURL, err, logrus.Fields{"video_id": videoID}) {
		return ""
	}
	return u
}

// Lyrics returns the lyrics text, NotFoundLyrics when the catalog has none,
// or FailedLyrics when the lookup failed.
func (g *Gateway) Lyrics(ctx context.Context, videoID string) string {
	text, found, err := g.lyrics(ctx, videoID)
	if g.suppressed(opLyrics, err, logrus.Fields{"video_id": videoID}) {
		return FailedLyrics
	}
	if !found {
		g.log.WithField("video_id", videoID).Debug("no lyrics reference")
		return NotFoundLyrics
	}
	return text
}

func (g *Gateway) lyrics(ctx context.Context, videoID string) (string, bool, error) {
	watch, err := g.catalog.GetWatchPlaylist(ctx, videoID)
	if err != nil {
		return "", false, err
	}
	browseID := watch.Get("lyrics")
	if browseID.Type == gjson.Null || browseID.String() == "" {
		return "", false, nil
	}

	doc, err := g.catalog.GetLyrics(ctx, browseID.String())
	if err != nil {
		return "", false, err
	}
	text, err := requireString(doc, "lyrics")
	if err != nil {
		if doc.Get("lyrics").Exists() {
			return "", false, nil
		}
		return "", false, err
	}
	if text == "" {
		return "", false, nil
	}
	return text, true, nil
}

// Suggestions returns search completions for a partial query.
func (g *Gateway) Suggestions(ctx context.Context, query string) []string {
	out, err := g.suggestions(ctx, query)
	if g.suppressed(opSuggestions, err, logrus.Fields{"query": query}) {
		return []string{}
	}
	return out
}

func (g *Gateway) suggestions(ctx context.Context, query string) ([]string, error) {
	res, err := g.catalog.SearchSuggestions(ctx, query)
	if err != nil {
		return nil, err
	}
	return projectSuggestions(res)
}
