// Package jikan implements the Jikan (MyAnimeList mirror) metadata
// provider. Jikan catalogs manga; it exposes no per-issue records, so
// issue listings are always empty.
package jikan

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"helixio/internal/metadata"
	"helixio/internal/providers"
)

type mangaEntry struct {
	MalID  int64  `json:"mal_id"`
	Title  string `json:"title"`
	Titles []struct {
		Type  string `json:"type"`
		Title string `json:"title"`
	} `json:"titles"`
	Chapters  int    `json:"chapters"`
	Synopsis  string `json:"synopsis"`
	Published struct {
		From string `json:"from"`
	} `json:"published"`
	Authors []struct {
		Name string `json:"name"`
	} `json:"authors"`
	Serializations []struct {
		Name string `json:"name"`
	} `json:"serializations"`
}

type searchResponse struct {
	Data []mangaEntry `json:"data"`
}

// Client provides access to the Jikan REST API.
type Client struct {
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
}

var _ providers.Provider = (*Client)(nil)

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// New creates a Jikan client with the supplied request pacer.
func New(baseURL string, limiter *rate.Limiter, opts ...Option) (*Client, error) {
	baseURL = strings.TrimSpace(baseURL)
	if baseURL == "" {
		return nil, errors.New("jikan base url required")
	}
	if limiter == nil {
		limiter = providers.NewLimiter(0)
	}
	client := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 10 * time.Second},
		limiter:    limiter,
	}
	for _, opt := range opts {
		opt(client)
	}
	return client, nil
}

// Source identifies this provider.
func (c *Client) Source() metadata.Source {
	return metadata.SourceJikan
}

// CheckAvailability reports whether the client can serve requests.
// Jikan needs no credentials, so a configured client is always available.
func (c *Client) CheckAvailability(ctx context.Context) providers.Availability {
	return providers.Availability{Available: true}
}

// SearchSeries searches Jikan manga by name.
func (c *Client) SearchSeries(ctx context.Context, query metadata.SeriesQuery, opts metadata.SearchOptions) ([]metadata.SeriesMetadata, error) {
	name := strings.TrimSpace(query.Series)
	if name == "" {
		return nil, errors.New("query must not be empty")
	}
	limit := opts.Limit
	if limit <= 0 {
		limit = 10
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("jikan rate limit: %w", err)
	}

	endpoint, err := url.Parse(c.baseURL + "/manga")
	if err != nil {
		return nil, fmt.Errorf("parse jikan url: %w", err)
	}
	params := url.Values{}
	params.Set("q", name)
	params.Set("limit", strconv.Itoa(limit))
	endpoint.RawQuery = params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("build jikan request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("jikan request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("jikan responded with status %d", resp.StatusCode)
	}

	var payload searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode jikan response: %w", err)
	}

	out := make([]metadata.SeriesMetadata, 0, len(payload.Data))
	for _, entry := range payload.Data {
		out = append(out, mapManga(entry))
	}
	return out, nil
}

// SeriesIssues returns no results: Jikan has no issue-level catalog.
func (c *Client) SeriesIssues(ctx context.Context, seriesID string, opts metadata.IssueOptions) ([]metadata.IssueMetadata, error) {
	return nil, nil
}

func mapManga(entry mangaEntry) metadata.SeriesMetadata {
	series := metadata.SeriesMetadata{
		Source:     metadata.SourceJikan,
		SourceID:   strconv.FormatInt(entry.MalID, 10),
		Name:       entry.Title,
		IssueCount: entry.Chapters,
		Summary:    entry.Synopsis,
	}
	for _, title := range entry.Titles {
		alt := strings.TrimSpace(title.Title)
		if alt == "" || alt == series.Name {
			continue
		}
		series.Aliases = append(series.Aliases, alt)
	}
	if entry.Published.From != "" {
		if published, err := time.Parse(time.RFC3339, entry.Published.From); err == nil {
			series.StartYear = published.Year()
		}
	}
	for _, author := range entry.Authors {
		name := strings.TrimSpace(author.Name)
		if name != "" {
			series.Creators = append(series.Creators, metadata.Credit{Name: name})
		}
	}
	// Serialization magazines are the closest analog of a publisher.
	if len(entry.Serializations) > 0 {
		series.Publisher = entry.Serializations[0].Name
	}
	return series
}
