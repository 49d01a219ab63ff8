package provider

import (
	"context"
	"encoding/json"
	"net"
	"net/http"

	"github.com/sirupsen/logrus"
)

const broadcastChannel = "broadcast"

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{
		"error": msg,
	})
}

// clientIP is the connection's peer address. Forwarding headers only count
// after RealIP has vetted them.
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// publishEvent sends an event to every connected WebSocket client through the
// Redis broadcast channel.
func (s *Server) publishEvent(ctx context.Context, event map[string]any) {
	if s.rdb == nil {
		return
	}
	data, err := json.Marshal(event)
	if err != nil {
		s.log.WithError(err).Error("marshal event")
		return
	}
	if err := s.rdb.Publish(ctx, broadcastChannel, string(data)).Err(); err != nil {
		s.log.WithFields(logrus.Fields{"type": event["type"]}).WithError(err).Error("publish event")
	}
}
