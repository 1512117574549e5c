// Package anilist implements the AniList metadata provider over its
// GraphQL endpoint. AniList catalogs manga; it exposes no per-issue
// records, so issue listings are always empty.
package anilist

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"helixio/internal/metadata"
	"helixio/internal/providers"
)

const searchQuery = `
query ($search: String, $perPage: Int) {
  Page(perPage: $perPage) {
    media(search: $search, type: MANGA) {
      id
      title { romaji english }
      synonyms
      startDate { year }
      chapters
      description(asHtml: false)
      staff(perPage: 8) {
        edges {
          role
          node { name { full } }
        }
      }
    }
  }
}`

type graphQLRequest struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables"`
}

type mediaEntry struct {
	ID    int64 `json:"id"`
	Title struct {
		Romaji  string `json:"romaji"`
		English string `json:"english"`
	} `json:"title"`
	Synonyms  []string `json:"synonyms"`
	StartDate struct {
		Year int `json:"year"`
	} `json:"startDate"`
	Chapters    int    `json:"chapters"`
	Description string `json:"description"`
	Staff       struct {
		Edges []struct {
			Role string `json:"role"`
			Node struct {
				Name struct {
					Full string `json:"full"`
				} `json:"name"`
			} `json:"node"`
		} `json:"edges"`
	} `json:"staff"`
}

type graphQLResponse struct {
	Data struct {
		Page struct {
			Media []mediaEntry `json:"media"`
		} `json:"Page"`
	} `json:"data"`
	Errors []struct {
		Message string `json:"message"`
	} `json:"errors"`
}

// Client provides access to the AniList GraphQL API.
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

// New creates an AniList client with the supplied request pacer.
func New(baseURL string, limiter *rate.Limiter, opts ...Option) (*Client, error) {
	baseURL = strings.TrimSpace(baseURL)
	if baseURL == "" {
		return nil, errors.New("anilist base url required")
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
	return metadata.SourceAniList
}

// CheckAvailability reports whether the client can serve requests.
// AniList needs no credentials, so a configured client is always available.
func (c *Client) CheckAvailability(ctx context.Context) providers.Availability {
	return providers.Availability{Available: true}
}

// SearchSeries searches AniList manga by name.
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
		return nil, fmt.Errorf("anilist rate limit: %w", err)
	}

	body, err := json.Marshal(graphQLRequest{
		Query: searchQuery,
		Variables: map[string]any{
			"search":  name,
			"perPage": limit,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("marshal anilist query: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build anilist request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("anilist request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("anilist responded with status %d", resp.StatusCode)
	}

	var payload graphQLResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode anilist response: %w", err)
	}
	if len(payload.Errors) > 0 {
		return nil, fmt.Errorf("anilist error: %s", payload.Errors[0].Message)
	}

	out := make([]metadata.SeriesMetadata, 0, len(payload.Data.Page.Media))
	for _, media := range payload.Data.Page.Media {
		out = append(out, mapMedia(media))
	}
	return out, nil
}

// SeriesIssues returns no results: AniList has no issue-level catalog.
func (c *Client) SeriesIssues(ctx context.Context, seriesID string, opts metadata.IssueOptions) ([]metadata.IssueMetadata, error) {
	return nil, nil
}

func mapMedia(media mediaEntry) metadata.SeriesMetadata {
	series := metadata.SeriesMetadata{
		Source:     metadata.SourceAniList,
		SourceID:   strconv.FormatInt(media.ID, 10),
		Name:       media.Title.English,
		StartYear:  media.StartDate.Year,
		IssueCount: media.Chapters,
		Summary:    media.Description,
	}
	if series.Name == "" {
		series.Name = media.Title.Romaji
	} else if media.Title.Romaji != "" && media.Title.Romaji != series.Name {
		series.Aliases = append(series.Aliases, media.Title.Romaji)
	}
	series.Aliases = append(series.Aliases, media.Synonyms...)

	for _, edge := range media.Staff.Edges {
		name := strings.TrimSpace(edge.Node.Name.Full)
		if name == "" {
			continue
		}
		series.Creators = append(series.Creators, metadata.Credit{
			Name: name,
			Role: strings.ToLower(strings.TrimSpace(edge.Role)),
		})
	}
	return series
}
