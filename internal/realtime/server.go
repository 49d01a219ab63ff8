// Package realtime serves the WebSocket protocol used by the mobile client
// and fans Redis broadcast events out to connected sockets.
package realtime

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"catalog-gateway/internal/gateway"
)

const (
	broadcastChannel = "broadcast"
	maxQueryLen      = 200
	maxEventBytes    = 64 << 10
)

// Catalog is implemented by *gateway.Gateway.
type Catalog interface {
	SearchMusic(ctx context.Context, query string) []gateway.TrackSummary
	HomeData(ctx context.Context) gateway.HomeFeed
	Lyrics(ctx context.Context, videoID string) string
	Suggestions(ctx context.Context, query string) []string
}

// Favorites is implemented by *favorites.Store.
type Favorites interface {
	List(ctx context.Context, userID string) ([]gateway.TrackSummary, error)
	Toggle(ctx context.Context, userID string, track gateway.TrackSummary) (bool, error)
}

type Server struct {
	hub       *Hub
	rdb       *redis.Client
	catalog   Catalog
	favorites Favorites
	log       logrus.FieldLogger

	allowedOrigins map[string]bool
	upgrader       websocket.Upgrader
}

type Option func(*Server)

// WithAllowedOrigins accepts browser connections from these origins in
// addition to the service's own host.
func WithAllowedOrigins(origins []string) Option {
	return func(s *Server) {
		for _, o := range origins {
			s.allowedOrigins[strings.TrimRight(strings.ToLower(o), "/")] = true
		}
	}
}

func NewServer(hub *Hub, rdb *redis.Client, c Catalog, f Favorites, log logrus.FieldLogger, opts ...Option) *Server {
	if log == nil {
		l := logrus.New()
		l.SetLevel(logrus.PanicLevel)
		log = l
	}
	s := &Server{
		hub:            hub,
		rdb:            rdb,
		catalog:        c,
		favorites:      f,
		log:            log,
		allowedOrigins: map[string]bool{},
	}
	for _, opt := range opts {
		opt(s)
	}
	s.upgrader = websocket.Upgrader{CheckOrigin: s.checkOrigin}
	return s
}

// checkOrigin lets native clients (no Origin header), same-host pages and
// configured origins through.
func (s *Server) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	if s.allowedOrigins[strings.TrimRight(strings.ToLower(origin), "/")] {
		return true
	}
	u, err := url.Parse(origin)
	if err != nil {
		return false
	}
	return strings.EqualFold(u.Host, r.Host)
}

// Routes registers the socket endpoint and the event publishing hook on r.
func (s *Server) Routes(r chi.Router) {
	r.Get("/ws", s.HandleWS)
	r.Post("/events", s.HandleEvents)
}

// RunRedisSubscriber forwards every message on the broadcast channel to the
// hub until ctx is cancelled.
func (s *Server) RunRedisSubscriber(ctx context.Context) error {
	sub := s.rdb.Subscribe(ctx, broadcastChannel)
	defer sub.Close()

	if _, err := sub.Receive(ctx); err != nil {
		return err
	}

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			s.hub.Broadcast([]byte(msg.Payload))
		}
	}
}

func (s *Server) HandleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.WithError(err).Warn("ws upgrade")
		return
	}

	client := newClient(s.hub, conn, s.log)
	s.hub.Register(client)
	client.log.Debug("ws connected")

	// The request context ends when the handler returns, so the pumps get
	// their own.
	go client.writePump()
	go client.readPump(context.WithoutCancel(r.Context()), s.dispatch)
}

// HandleEvents publishes an arbitrary JSON payload on the broadcast channel.
func (s *Server) HandleEvents(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()
	r.Body = http.MaxBytesReader(w, r.Body, maxEventBytes)

	var payload any
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	data, err := json.Marshal(payload)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "encode error")
		return
	}
	if err := s.rdb.Publish(r.Context(), broadcastChannel, string(data)).Err(); err != nil {
		s.log.WithError(err).Error("publish event")
		writeError(w, http.StatusInternalServerError, "redis error")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

func (s *Server) dispatch(ctx context.Context, c *Client, raw []byte) {
	var msg inbound
	if err := json.Unmarshal(raw, &msg); err != nil {
		s.replyError(c, "invalid message")
		return
	}
	log := c.log.WithField("type", msg.Type)

	switch msg.Type {
	case TypeInitHome:
		feed := s.catalog.HomeData(ctx)
		s.reply(c, TypeInitHome, wireHome{Rec: wireTracks(feed.Rec), New: wireTracks(feed.New)})

	case TypeSearch:
		q, ok := s.query(c, msg)
		if !ok {
			return
		}
		tracks := []gateway.TrackSummary{}
		if q != "" {
			tracks = s.catalog.SearchMusic(ctx, q)
		}
		s.reply(c, TypeSearchRes, wireTracks(tracks))

	case TypeSuggest:
		q, ok := s.query(c, msg)
		if !ok {
			return
		}
		out := []string{}
		if q != "" {
			out = s.catalog.Suggestions(ctx, q)
		}
		s.reply(c, TypeSuggestRes, out)

	case TypeGetFav:
		userID, ok := s.user(c, msg)
		if !ok {
			return
		}
		items, err := s.favorites.List(ctx, userID)
		if err != nil {
			log.WithError(err).Error("list favorites")
			s.replyError(c, "failed to load favorites")
			return
		}
		s.reply(c, TypeFavRes, wireTracks(items))

	case TypeLike:
		userID, ok := s.user(c, msg)
		if !ok {
			return
		}
		track := msg.track()
		if track.ID == "" {
			s.replyError(c, "id is required")
			return
		}
		liked, err := s.favorites.Toggle(ctx, userID, track)
		if err != nil {
			log.WithField("track_id", track.ID).WithError(err).Error("toggle favorite")
			s.replyError(c, "failed to update favorites")
			return
		}
		items, err := s.favorites.List(ctx, userID)
		if err != nil {
			log.WithError(err).Error("list favorites")
			s.replyError(c, "failed to load favorites")
			return
		}
		log.WithFields(logrus.Fields{"track_id": track.ID, "liked": liked}).Debug("favorite toggled")

		wire := wireTracks(items)
		s.reply(c, TypeFavRes, wire)
		s.publish(ctx, favoritesEvent{Type: TypeFavRes, UserID: userID, Origin: c.id, Data: wire})

	case TypeLyrics:
		id := strings.TrimSpace(msg.ID)
		if id == "" {
			s.replyError(c, "id is required")
			return
		}
		s.reply(c, TypeLyricsRes, s.catalog.Lyrics(ctx, id))

	default:
		log.Debug("unknown message type")
		s.replyError(c, "unknown message type")
	}
}

func (s *Server) query(c *Client, msg inbound) (string, bool) {
	q := strings.TrimSpace(msg.Query)
	if len(q) > maxQueryLen {
		s.replyError(c, "query is too long")
		return "", false
	}
	return q, true
}

func (s *Server) user(c *Client, msg inbound) (string, bool) {
	id := strings.TrimSpace(string(msg.UserID))
	if id == "" {
		s.replyError(c, "user_id is required")
		return "", false
	}
	c.setUserID(id)
	return id, true
}

func (s *Server) reply(c *Client, typ string, data any) {
	b, err := json.Marshal(reply{Type: typ, Data: data})
	if err != nil {
		c.log.WithError(err).Error("marshal reply")
		return
	}
	s.hub.Send(c, b)
}

func (s *Server) replyError(c *Client, msg string) {
	b, err := json.Marshal(errorReply{Type: TypeError, Error: msg})
	if err != nil {
		return
	}
	s.hub.Send(c, b)
}

func (s *Server) publish(ctx context.Context, event favoritesEvent) {
	if s.rdb == nil {
		return
	}
	data, err := json.Marshal(event)
	if err != nil {
		s.log.WithError(err).Error("marshal event")
		return
	}
	if err := s.rdb.Publish(ctx, broadcastChannel, string(data)).Err(); err != nil {
		s.log.WithError(err).Error("publish event")
	}
}
