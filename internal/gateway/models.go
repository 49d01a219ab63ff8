package gateway

// TrackSummary is the flat record handed to clients for one song.
type TrackSummary struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	Artist   string `json:"artist"`
	ArtistID string `json:"artistId,omitempty"`
	Cover    string `json:"cover"`
	Duration int    `json:"duration,omitempty"` // seconds
}

// HomeFeed is the landing screen: recommended and new releases.
type HomeFeed struct {
	Rec []TrackSummary `json:"rec"`
	New []TrackSummary `json:"new"`
}

func emptyHomeFeed() HomeFeed {
	return HomeFeed{Rec: []TrackSummary{}, New: []TrackSummary{}}
}

const (
	NotFoundLyrics = "Lyrics not found"
	FailedLyrics   = "Failed to load lyrics"
)
