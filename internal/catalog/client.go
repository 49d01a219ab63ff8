// Package catalog talks to a ytmusicapi-compatible HTTP proxy. Responses are
// returned as raw JSON documents; shaping them is left to the caller.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/tidwall/gjson"
)

// ErrUpstream marks any failure to obtain a usable document from the catalog.
var ErrUpstream = errors.New("catalog upstream error")

// FilterSongs restricts a search to song results.
const FilterSongs = "songs"

const maxBodyBytes = 4 << 20

type Client struct {
	baseURL string
	http    *http.Client
}

func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		http: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// Search mirrors ytmusicapi's search and returns the result array.
func (c *Client) Search(ctx context.Context, query, filter string, limit int) (gjson.Result, error) {
	val := url.Values{}
	val.Set("query", query)
	if filter != "" {
		val.Set("filter", filter)
	}
	val.Set("limit", strconv.Itoa(limit))

	return c.get(ctx, "/search", val)
}

func (c *Client) SearchSuggestions(ctx context.Context, query string) (gjson.Result, error) {
	val := url.Values{}
	val.Set("query", query)
	return c.get(ctx, "/search/suggestions", val)
}

func (c *Client) GetArtist(ctx context.Context, browseID string) (gjson.Result, error) {
	return c.get(ctx, "/artists/"+url.PathEscape(browseID), nil)
}

// GetWatchPlaylist returns the watch-next panel for a video, which carries the
// lyrics browse id when the catalog has lyrics for it.
func (c *Client) GetWatchPlaylist(ctx context.Context, videoID string) (gjson.Result, error) {
	val := url.Values{}
	val.Set("videoId", videoID)
	return c.get(ctx, "/watch", val)
}

func (c *Client) GetLyrics(ctx context.Context, browseID string) (gjson.Result, error) {
	return c.get(ctx, "/lyrics/"+url.PathEscape(browseID), nil)
}

func (c *Client) get(ctx context.Context, path string, query url.Values) (gjson.Result, error) {
	reqURL := c.baseURL + path
	if len(query) > 0 {
		reqURL += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return gjson.Result{}, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return gjson.Result{}, fmt.Errorf("%w: %s: %v", ErrUpstream, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return gjson.Result{}, fmt.Errorf("%w: %s: status %d", ErrUpstream, path, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return gjson.Result{}, fmt.Errorf("%w: %s: read body: %v", ErrUpstream, path, err)
	}
	if !gjson.ValidBytes(body) {
		return gjson.Result{}, fmt.Errorf("%w: %s: invalid JSON body", ErrUpstream, path)
	}

	return gjson.ParseBytes(body), nil
}
