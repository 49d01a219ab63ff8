package provider

import (
	"context"

	"github.com/stretchr/testify/mock"

	"catalog-gateway/internal/gateway"
)

type MockCatalog struct {
	mock.Mock
}

func (m *MockCatalog) SearchMusic(ctx context.Context, query string) []gateway.TrackSummary {
	return m.Called(ctx, query).Get(0).([]gateway.TrackSummary)
}

func (m *MockCatalog) HomeData(ctx context.Context) gateway.HomeFeed {
	return m.Called(ctx).Get(0).(gateway.HomeFeed)
}

func (m *MockCatalog) ArtistSongs(ctx context.Context, artistID string) []gateway.TrackSummary {
	return m.Called(ctx, artistID).Get(0).([]gateway.TrackSummary)
}

func (m *MockCatalog) StreamURL(ctx context.Context, videoID string) string {
	return m.Called(ctx, videoID).String(0)
}

func (m *MockCatalog) Lyrics(ctx context.Context, videoID string) string {
	return m.Called(ctx, videoID).String(0)
}

func (m *MockCatalog) Suggestions(ctx context.Context, query string) []string {
	return m.Called(ctx, query).Get(0).([]string)
}

type MockFavorites struct {
	mock.Mock
}

func (m *MockFavorites) List(ctx context.Context, userID string) ([]gateway.TrackSummary, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]gateway.TrackSummary), args.Error(1)
}

func (m *MockFavorites) Toggle(ctx context.Context, userID string, track gateway.TrackSummary) (bool, error) {
	args := m.Called(ctx, userID, track)
	return args.Bool(0), args.Error(1)
}
