// Package favorites persists the tracks each user has liked.
package favorites

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"catalog-gateway/internal/gateway"
)

var (
	ErrInvalidUser  = errors.New("user id is required")
	ErrInvalidTrack = errors.New("track id is required")
)

// DB is implemented by *pgxpool.Pool and can be mocked for testing.
type DB interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type Store struct {
	db DB
}

func NewStore(db DB) *Store {
	return &Store{db: db}
}

// List returns the user's favorites, newest first.
func (s *Store) List(ctx context.Context, userID string) ([]gateway.TrackSummary, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, ErrInvalidUser
	}

	rows, err := s.db.Query(ctx, `
		SELECT track_id, title, artist, artist_id, cover, duration
		FROM favorites
		WHERE user_id = $1
		ORDER BY created_at DESC, track_id
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("list favorites: %w", err)
	}
	defer rows.Close()

	out := []gateway.TrackSummary{}
	for rows.Next() {
		var t gateway.TrackSummary
		if err := rows.Scan(&t.ID, &t.Title, &t.Artist, &t.ArtistID, &t.Cover, &t.Duration); err != nil {
			return nil, fmt.Errorf("scan favorite: %w", err)
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list favorites: %w", err)
	}
	return out, nil
}

// Toggle removes the track from the user's favorites if present and adds it
// otherwise. It reports whether the track is liked afterwards.
func (s *Store) Toggle(ctx context.Context, userID string, track gateway.TrackSummary) (bool, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return false, ErrInvalidUser
	}
	if strings.TrimSpace(track.ID) == "" {
		return false, ErrInvalidTrack
	}

	tag, err := s.db.Exec(ctx, `DELETE FROM favorites WHERE user_id = $1 AND track_id = $2`, userID, track.ID)
	if err != nil {
		return false, fmt.Errorf("unlike: %w", err)
	}
	if tag.RowsAffected() > 0 {
		return false, nil
	}

	if _, err := s.db.Exec(ctx, `
		INSERT INTO favorites (user_id, track_id, title, artist, artist_id, cover, duration)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (user_id, track_id) DO NOTHING
	`, userID, track.ID, track.Title, track.Artist, track.ArtistID, track.Cover, track.Duration); err != nil {
		return false, fmt.Errorf("like: %w", err)
	}
	return true, nil
}
