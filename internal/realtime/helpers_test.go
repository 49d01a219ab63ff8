package realtime

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"

	"catalog-gateway/internal/gateway"
)

type stubCatalog struct {
	mu       sync.Mutex
	searches []string
	home     gateway.HomeFeed
	tracks   []gateway.TrackSummary
	suggest  []string
	lyrics   string
}

func (c *stubCatalog) SearchMusic(ctx context.Context, query string) []gateway.TrackSummary {
	c.mu.Lock()
	c.searches = append(c.searches, query)
	c.mu.Unlock()
	return c.tracks
}

func (c *stubCatalog) HomeData(ctx context.Context) gateway.HomeFeed { return c.home }

func (c *stubCatalog) Lyrics(ctx context.Context, videoID string) string { return c.lyrics }

func (c *stubCatalog) Suggestions(ctx context.Context, query string) []string { return c.suggest }

func (c *stubCatalog) searchCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.searches)
}

// memFavorites keeps favorites in memory, newest first.
type memFavorites struct {
	mu    sync.Mutex
	items map[string][]gateway.TrackSummary
}

func newMemFavorites() *memFavorites {
	return &memFavorites{items: map[string][]gateway.TrackSummary{}}
}

func (f *memFavorites) List(ctx context.Context, userID string) ([]gateway.TrackSummary, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]gateway.TrackSummary{}, f.items[userID]...), nil
}

func (f *memFavorites) Toggle(ctx context.Context, userID string, track gateway.TrackSummary) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	list := f.items[userID]
	for i, t := range list {
		if t.ID == track.ID {
			f.items[userID] = append(list[:i:i], list[i+1:]...)
			return false, nil
		}
	}
	f.items[userID] = append([]gateway.TrackSummary{track}, list...)
	return true, nil
}

type testEnv struct {
	hub    *Hub
	srv    *Server
	url    string
	cancel context.CancelFunc
}

func newTestEnv(t *testing.T, c Catalog, f Favorites, rdb *redis.Client) *testEnv {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	hub := NewHub()
	go hub.Run(ctx)

	srv := NewServer(hub, rdb, c, f, nil)
	r := chi.NewRouter()
	srv.Routes(r)
	ts := httptest.NewServer(r)
	t.Cleanup(func() {
		cancel()
		ts.Close()
	})

	return &testEnv{
		hub:    hub,
		srv:    srv,
		url:    "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws",
		cancel: cancel,
	}
}

func (e *testEnv) dial(t *testing.T) *websocket.Conn {
	t.Helper()
	ws, _, err := websocket.DefaultDialer.Dial(e.url, nil)
	if err != nil {
		t.Fatalf("Failed to dial: %v", err)
	}
	t.Cleanup(func() { ws.Close() })
	return ws
}

func send(t *testing.T, ws *websocket.Conn, msg string) {
	t.Helper()
	if err := ws.WriteMessage(websocket.TextMessage, []byte(msg)); err != nil {
		t.Fatalf("Failed to write: %v", err)
	}
}

func read(t *testing.T, ws *websocket.Conn) map[string]any {
	t.Helper()
	_ = ws.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := ws.ReadMessage()
	if err != nil {
		t.Fatalf("Failed to read: %v", err)
	}
	var out map[string]any
	if err := json.Unmarshal(data, &out); err != nil {
		t.Fatalf("Invalid JSON %s: %v", data, err)
	}
	return out
}

func expectType(t *testing.T, msg map[string]any, want string) {
	t.Helper()
	if msg["type"] != want {
		t.Fatalf("Expected type %s, got %v (%v)", want, msg["type"], msg)
	}
}
