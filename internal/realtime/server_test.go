package realtime

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"

	"catalog-gateway/internal/gateway"
)

func newMiniRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("Failed to start miniredis: %v", err)
	}
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() {
		rdb.Close()
		mr.Close()
	})
	return mr, rdb
}

func waitSubscribed(t *testing.T, rdb *redis.Client) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		n, err := rdb.PubSubNumSub(context.Background(), broadcastChannel).Result()
		if err == nil && n[broadcastChannel] > 0 {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("subscriber did not attach to broadcast channel")
}

func TestServer_InitHome(t *testing.T) {
	cat := &stubCatalog{home: gateway.HomeFeed{
		Rec: []gateway.TrackSummary{{ID: "r1", Title: "R", Artist: "A", Cover: "cov"}},
		New: []gateway.TrackSummary{},
	}}
	env := newTestEnv(t, cat, newMemFavorites(), nil)
	ws := env.dial(t)

	send(t, ws, `{"type":"INIT_HOME"}`)
	msg := read(t, ws)

	expectType(t, msg, TypeInitHome)
	data := msg["data"].(map[string]any)
	rec := data["rec"].([]any)
	if len(rec) != 1 {
		t.Fatalf("Expected 1 rec track, got %d", len(rec))
	}
	first := rec[0].(map[string]any)
	if first["thumb"] != "cov" || first["cover"] != "cov" {
		t.Errorf("Expected cover and thumb to be set, got %v", first)
	}
	if newList, ok := data["new"].([]any); !ok || len(newList) != 0 {
		t.Errorf("Expected empty new list, got %v", data["new"])
	}
}

func TestServer_Search(t *testing.T) {
	cat := &stubCatalog{
		tracks:  []gateway.TrackSummary{{ID: "s1", Title: "S", Artist: "A", Cover: "c"}},
		suggest: []string{"daft punk"},
	}
	env := newTestEnv(t, cat, newMemFavorites(), nil)
	ws := env.dial(t)

	send(t, ws, `{"type":"SEARCH","query":"daft"}`)
	msg := read(t, ws)
	expectType(t, msg, TypeSearchRes)
	if got := msg["data"].([]any); len(got) != 1 {
		t.Errorf("Expected 1 result, got %v", got)
	}

	send(t, ws, `{"type":"SUGGEST","query":"daf"}`)
	msg = read(t, ws)
	expectType(t, msg, TypeSuggestRes)
	if got := msg["data"].([]any); len(got) != 1 || got[0] != "daft punk" {
		t.Errorf("Unexpected suggestions %v", got)
	}

	send(t, ws, `{"type":"SEARCH","query":"   "}`)
	msg = read(t, ws)
	expectType(t, msg, TypeSearchRes)
	if got, ok := msg["data"].([]any); !ok || len(got) != 0 {
		t.Errorf("Expected empty list for blank query, got %v", msg["data"])
	}
	if n := cat.searchCount(); n != 1 {
		t.Errorf("Expected 1 catalog search, got %d", n)
	}
}

func TestServer_Lyrics(t *testing.T) {
	env := newTestEnv(t, &stubCatalog{lyrics: gateway.NotFoundLyrics}, newMemFavorites(), nil)
	ws := env.dial(t)

	send(t, ws, `{"type":"LYRICS","id":"abc"}`)
	msg := read(t, ws)
	expectType(t, msg, TypeLyricsRes)
	if msg["data"] != gateway.NotFoundLyrics {
		t.Errorf("Expected not found message, got %v", msg["data"])
	}

	send(t, ws, `{"type":"LYRICS"}`)
	expectType(t, read(t, ws), TypeError)
}

func TestServer_Errors(t *testing.T) {
	env := newTestEnv(t, &stubCatalog{}, newMemFavorites(), nil)
	ws := env.dial(t)

	send(t, ws, `not json`)
	msg := read(t, ws)
	expectType(t, msg, TypeError)
	if msg["error"] != "invalid message" {
		t.Errorf("Unexpected error %v", msg["error"])
	}

	send(t, ws, `{"type":"DANCE"}`)
	expectType(t, read(t, ws), TypeError)

	send(t, ws, `{"type":"GET_FAV"}`)
	msg = read(t, ws)
	expectType(t, msg, TypeError)
	if msg["error"] != "user_id is required" {
		t.Errorf("Unexpected error %v", msg["error"])
	}
}

func TestServer_LikeSyncsDevices(t *testing.T) {
	_, rdb := newMiniRedis(t)
	favs := newMemFavorites()
	env := newTestEnv(t, &stubCatalog{lyrics: "la"}, favs, rdb)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go env.srv.RunRedisSubscriber(ctx)
	waitSubscribed(t, rdb)

	phone := env.dial(t)
	tablet := env.dial(t)
	stranger := env.dial(t)

	// identify every connection
	send(t, phone, `{"type":"GET_FAV","user_id":1}`)
	expectType(t, read(t, phone), TypeFavRes)
	send(t, tablet, `{"type":"GET_FAV","user_id":"1"}`)
	expectType(t, read(t, tablet), TypeFavRes)
	send(t, stranger, `{"type":"GET_FAV","user_id":2}`)
	expectType(t, read(t, stranger), TypeFavRes)

	send(t, phone, `{"type":"LIKE","user_id":1,"id":"v1","title":"T","artist":"A","thumb":"http://img/1.jpg"}`)

	msg := read(t, phone)
	expectType(t, msg, TypeFavRes)
	items := msg["data"].([]any)
	if len(items) != 1 || items[0].(map[string]any)["cover"] != "http://img/1.jpg" {
		t.Fatalf("Unexpected favorites %v", items)
	}

	msg = read(t, tablet)
	expectType(t, msg, TypeFavRes)
	if msg["user_id"] != "1" {
		t.Errorf("Expected user_id 1 on broadcast, got %v", msg["user_id"])
	}

	// neither the origin nor another user sees the broadcast
	send(t, stranger, `{"type":"LYRICS","id":"x"}`)
	expectType(t, read(t, stranger), TypeLyricsRes)
	send(t, phone, `{"type":"LYRICS","id":"x"}`)
	expectType(t, read(t, phone), TypeLyricsRes)

	stored, _ := favs.List(context.Background(), "1")
	if len(stored) != 1 || stored[0].ID != "v1" {
		t.Errorf("Expected v1 stored, got %v", stored)
	}
}

func TestServer_LikeRequiresID(t *testing.T) {
	env := newTestEnv(t, &stubCatalog{}, newMemFavorites(), nil)
	ws := env.dial(t)

	send(t, ws, `{"type":"LIKE","user_id":1,"title":"T"}`)
	msg := read(t, ws)
	expectType(t, msg, TypeError)
	if msg["error"] != "id is required" {
		t.Errorf("Unexpected error %v", msg["error"])
	}
}

func TestServer_HandleEvents(t *testing.T) {
	_, rdb := newMiniRedis(t)
	s := NewServer(nil, rdb, nil, nil, nil)

	sub := rdb.Subscribe(context.Background(), broadcastChannel)
	defer sub.Close()
	if _, err := sub.Receive(context.Background()); err != nil {
		t.Fatalf("subscribe: %v", err)
	}

	payload := map[string]string{"event": "test_event"}
	body, _ := json.Marshal(payload)

	req := httptest.NewRequest("POST", "/events", bytes.NewBuffer(body))
	w := httptest.NewRecorder()
	s.HandleEvents(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status OK, got %v", w.Code)
	}

	select {
	case msg := <-sub.Channel():
		if msg.Payload != string(body) {
			t.Errorf("Expected %s, got %s", body, msg.Payload)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("no message published")
	}
}

func TestServer_HandleEvents_Errors(t *testing.T) {
	mr, rdb := newMiniRedis(t)
	s := NewServer(nil, rdb, nil, nil, nil)

	t.Run("Invalid JSON", func(t *testing.T) {
		req := httptest.NewRequest("POST", "/events", bytes.NewBufferString("invalid json"))
		w := httptest.NewRecorder()
		s.HandleEvents(w, req)
		if w.Code != http.StatusBadRequest {
			t.Errorf("Expected 400 Bad Request, got %v", w.Code)
		}
	})

	t.Run("Redis Error", func(t *testing.T) {
		mr.SetError("redis connection failed")
		defer mr.SetError("")

		req := httptest.NewRequest("POST", "/events", bytes.NewBufferString(`{"event":"test"}`))
		w := httptest.NewRecorder()
		s.HandleEvents(w, req)

		if w.Code != http.StatusInternalServerError {
			t.Errorf("Expected 500 Internal Server Error, got %v", w.Code)
		}
	})
}

func TestHub_ShutdownClosesClients(t *testing.T) {
	env := newTestEnv(t, &stubCatalog{}, newMemFavorites(), nil)
	ws := env.dial(t)

	// round trip so the client is registered before shutdown
	send(t, ws, `{"type":"DANCE"}`)
	expectType(t, read(t, ws), TypeError)

	env.cancel()

	_ = ws.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, _, err := ws.ReadMessage()
	if err == nil {
		t.Fatal("Expected connection to be closed after hub shutdown")
	}
	if ce, ok := err.(*websocket.CloseError); ok && ce.Code != websocket.CloseNormalClosure && ce.Code != websocket.CloseNoStatusReceived && ce.Code != websocket.CloseAbnormalClosure {
		t.Errorf("Unexpected close code %d", ce.Code)
	}
}

func TestServer_CheckOrigin(t *testing.T) {
	hub := NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go hub.Run(ctx)

	s := NewServer(hub, nil, &stubCatalog{}, newMemFavorites(), nil, WithAllowedOrigins([]string{"https://app.example/"}))
	server := httptest.NewServer(http.HandlerFunc(s.HandleWS))
	defer server.Close()
	url := "ws" + strings.TrimPrefix(server.URL, "http")

	dial := func(origin string) (*http.Response, error) {
		header := http.Header{}
		if origin != "" {
			header.Set("Origin", origin)
		}
		ws, resp, err := websocket.DefaultDialer.Dial(url, header)
		if err == nil {
			ws.Close()
		}
		return resp, err
	}

	t.Run("Native Client", func(t *testing.T) {
		if _, err := dial(""); err != nil {
			t.Fatalf("Expected dial without Origin to succeed: %v", err)
		}
	})

	t.Run("Allowed Origin", func(t *testing.T) {
		if _, err := dial("https://APP.example"); err != nil {
			t.Fatalf("Expected allowed origin to succeed: %v", err)
		}
	})

	t.Run("Same Host", func(t *testing.T) {
		if _, err := dial(server.URL); err != nil {
			t.Fatalf("Expected same-host origin to succeed: %v", err)
		}
	})

	t.Run("Forbidden Origin", func(t *testing.T) {
		resp, err := dial("http://evil.example")
		if err == nil {
			t.Fatal("Expected error dialing with bad origin, got nil")
		}
		if resp == nil || resp.StatusCode != http.StatusForbidden {
			t.Errorf("Expected 403 Forbidden, got %v", resp)
		}
	})
}

func TestServer_HandleEvents_TooLarge(t *testing.T) {
	_, rdb := newMiniRedis(t)
	s := NewServer(nil, rdb, nil, nil, nil)

	body := `{"blob":"` + strings.Repeat("a", maxEventBytes) + `"}`
	req := httptest.NewRequest("POST", "/events", strings.NewReader(body))
	w := httptest.NewRecorder()
	s.HandleEvents(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 Bad Request, got %v", w.Code)
	}
}
