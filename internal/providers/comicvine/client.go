// Package comicvine implements the ComicVine metadata provider.
package comicvine

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

type volumeResult struct {
	ID            int64  `json:"id"`
	Name          string `json:"name"`
	StartYear     string `json:"start_year"`
	CountOfIssues int    `json:"count_of_issues"`
	Aliases       string `json:"aliases"`
	Deck          string `json:"deck"`
	Publisher     *struct {
		Name string `json:"name"`
	} `json:"publisher"`
}

type issueResult struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	IssueNumber string `json:"issue_number"`
	CoverDate   string `json:"cover_date"`
}

type apiResponse[T any] struct {
	StatusCode int    `json:"status_code"`
	Error      string `json:"error"`
	Results    []T    `json:"results"`
}

// check maps ComicVine's in-band status code (1 = OK) onto an error.
func (r apiResponse[T]) check() error {
	if r.StatusCode != 0 && r.StatusCode != 1 {
		return fmt.Errorf("comicvine error %d: %s", r.StatusCode, r.Error)
	}
	return nil
}

// Client provides access to the ComicVine API.
type Client struct {
	apiKey     string
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

// New creates a ComicVine client with the supplied request pacer.
func New(apiKey, baseURL string, limiter *rate.Limiter, opts ...Option) (*Client, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, errors.New("comicvine api key required")
	}
	baseURL = strings.TrimSpace(baseURL)
	if baseURL == "" {
		return nil, errors.New("comicvine base url required")
	}
	if limiter == nil {
		limiter = providers.NewLimiter(0)
	}
	client := &Client{
		apiKey:     apiKey,
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
	return metadata.SourceComicVine
}

// CheckAvailability reports whether the client is configured to serve requests.
func (c *Client) CheckAvailability(ctx context.Context) providers.Availability {
	if c.apiKey == "" {
		return providers.Availability{Detail: "api key not configured"}
	}
	return providers.Availability{Available: true}
}

// SearchSeries searches ComicVine volumes by name.
func (c *Client) SearchSeries(ctx context.Context, query metadata.SeriesQuery, opts metadata.SearchOptions) ([]metadata.SeriesMetadata, error) {
	name := strings.TrimSpace(query.Series)
	if name == "" {
		return nil, errors.New("query must not be empty")
	}
	limit := opts.Limit
	if limit <= 0 {
		limit = 10
	}

	params := url.Values{}
	params.Set("query", name)
	params.Set("resources", "volume")
	params.Set("limit", strconv.Itoa(limit))
	params.Set("field_list", "id,name,start_year,count_of_issues,aliases,deck,publisher")

	var payload apiResponse[volumeResult]
	if err := c.get(ctx, "/search/", params, &payload); err != nil {
		return nil, err
	}
	if err := payload.check(); err != nil {
		return nil, err
	}

	out := make([]metadata.SeriesMetadata, 0, len(payload.Results))
	for _, result := range payload.Results {
		series := metadata.SeriesMetadata{
			Source:     metadata.SourceComicVine,
			SourceID:   strconv.FormatInt(result.ID, 10),
			Name:       result.Name,
			IssueCount: result.CountOfIssues,
			Summary:    result.Deck,
			Aliases:    splitAliases(result.Aliases),
		}
		if result.Publisher != nil {
			series.Publisher = result.Publisher.Name
		}
		if year, err := strconv.Atoi(strings.TrimSpace(result.StartYear)); err == nil {
			series.StartYear = year
		}
		out = append(out, series)
	}
	return out, nil
}

// SeriesIssues lists the issues of a ComicVine volume.
func (c *Client) SeriesIssues(ctx context.Context, seriesID string, opts metadata.IssueOptions) ([]metadata.IssueMetadata, error) {
	seriesID = strings.TrimSpace(seriesID)
	if seriesID == "" {
		return nil, errors.New("series id must not be empty")
	}
	limit := opts.Limit
	if limit <= 0 {
		limit = 100
	}

	params := url.Values{}
	params.Set("filter", "volume:"+seriesID)
	params.Set("limit", strconv.Itoa(limit))
	params.Set("sort", "cover_date:asc")
	params.Set("field_list", "id,name,issue_number,cover_date")

	var payload apiResponse[issueResult]
	if err := c.get(ctx, "/issues/", params, &payload); err != nil {
		return nil, err
	}
	if err := payload.check(); err != nil {
		return nil, err
	}

	out := make([]metadata.IssueMetadata, 0, len(payload.Results))
	for _, result := range payload.Results {
		issue := metadata.IssueMetadata{
			Source:   metadata.SourceComicVine,
			SourceID: strconv.FormatInt(result.ID, 10),
			SeriesID: seriesID,
			Number:   result.IssueNumber,
			Title:    result.Name,
		}
		if date, err := time.Parse("2006-01-02", result.CoverDate); err == nil {
			issue.CoverYear = date.Year()
			issue.CoverMonth = int(date.Month())
		}
		out = append(out, issue)
	}
	return out, nil
}

func (c *Client) get(ctx context.Context, path string, params url.Values, payload any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("comicvine rate limit: %w", err)
	}

	endpoint, err := url.Parse(c.baseURL + path)
	if err != nil {
		return fmt.Errorf("parse comicvine url: %w", err)
	}
	params.Set("api_key", c.apiKey)
	params.Set("format", "json")
	endpoint.RawQuery = params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint.String(), nil)
	if err != nil {
		return fmt.Errorf("build comicvine request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("comicvine request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("comicvine responded with status %d", resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(payload); err != nil {
		return fmt.Errorf("decode comicvine response: %w", err)
	}
	return nil
}

// splitAliases breaks ComicVine's newline-separated alias field apart.
func splitAliases(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	lines := strings.Split(raw, "\n")
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line != "" {
			out = append(out, line)
		}
	}
	return out
}
