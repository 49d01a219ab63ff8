// Package provider is the HTTP surface of the catalog gateway.
package provider

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"catalog-gateway/internal/gateway"
)

const serviceName = "catalog-gateway"

// Catalog is implemented by *gateway.Gateway. None of its methods fail; an
// upstream problem shows up as an empty value.
type Catalog interface {
	SearchMusic(ctx context.Context, query string) []gateway.TrackSummary
	HomeData(ctx context.Context) gateway.HomeFeed
	ArtistSongs(ctx context.Context, artistID string) []gateway.TrackSummary
	StreamURL(ctx context.Context, videoID string) string
	Lyrics(ctx context.Context, videoID string) string
	Suggestions(ctx context.Context, query string) []string
}

// Favorites is implemented by *favorites.Store.
type Favorites interface {
	List(ctx context.Context, userID string) ([]gateway.TrackSummary, error)
	Toggle(ctx context.Context, userID string, track gateway.TrackSummary) (bool, error)
}

type Server struct {
	catalog   Catalog
	favorites Favorites
	rdb       *redis.Client
	log       logrus.FieldLogger
	gatherer  prometheus.Gatherer
	httpStats *httpMetrics
}

type Option func(*Server)

func WithLogger(log logrus.FieldLogger) Option {
	return func(s *Server) { s.log = log }
}

// WithMetrics serves /metrics from reg and records request durations into it.
func WithMetrics(reg *prometheus.Registry) Option {
	return func(s *Server) {
		s.gatherer = reg
		s.httpStats = newHTTPMetrics(reg)
	}
}

func NewServer(c Catalog, f Favorites, rdb *redis.Client, opts ...Option) *Server {
	s := &Server{
		catalog:   c,
		favorites: f,
		rdb:       rdb,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.log == nil {
		l := logrus.New()
		l.SetLevel(logrus.PanicLevel)
		s.log = l
	}
	return s
}

// Router builds the chi router. Middlewares are applied in order before the
// request metrics middleware.
func (s *Server) Router(middlewares ...func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()

	for _, mw := range middlewares {
		r.Use(mw)
	}
	if s.httpStats != nil {
		r.Use(s.httpStats.middleware)
	}

	r.Get("/health", s.HandleHealth)
	r.Get("/home", s.HandleHome)
	r.Get("/music/search", s.HandleSearch)
	r.Get("/music/suggest", s.HandleSuggest)
	r.Get("/artists/{id}/songs", s.HandleArtistSongs)
	r.Get("/stream/{id}", s.HandleStream)
	r.Get("/lyrics/{id}", s.HandleLyrics)

	r.Route("/users/{userId}/favorites", func(r chi.Router) {
		r.Get("/", s.HandleListFavorites)
		r.Post("/", s.HandleToggleFavorite)
	})

	if s.gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	}

	return r
}

func (s *Server) HandleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"service": serviceName,
	})
}
