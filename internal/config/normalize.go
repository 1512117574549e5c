package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeSources()
	c.normalizeMatching()
	c.normalizeSimilarity()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.DataDir) == "" {
		c.Paths.DataDir = defaultDataDir
	}
	if c.Paths.DataDir, err = expandPath(c.Paths.DataDir); err != nil {
		return fmt.Errorf("paths.data_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	c.Paths.APIBind = strings.TrimSpace(c.Paths.APIBind)
	c.Paths.APIToken = strings.TrimSpace(c.Paths.APIToken)
	return nil
}

func (c *Config) normalizeSources() {
	if c.ComicVine.APIKey == "" {
		c.ComicVine.APIKey = strings.TrimSpace(os.Getenv("COMICVINE_API_KEY"))
	}
	normalizeSourceClient(&c.ComicVine, defaultComicVineBaseURL, defaultComicVineRequestsPerMin)
	normalizeSourceClient(&c.AniList, defaultAniListBaseURL, defaultAniListRequestsPerMin)
	normalizeSourceClient(&c.Jikan, defaultJikanBaseURL, defaultJikanRequestsPerMin)
}

func normalizeSourceClient(sc *SourceClient, baseURL string, requestsPerMinute int) {
	sc.APIKey = strings.TrimSpace(sc.APIKey)
	sc.BaseURL = strings.TrimRight(strings.TrimSpace(sc.BaseURL), "/")
	if sc.BaseURL == "" {
		sc.BaseURL = baseURL
	}
	if sc.RequestsPerMinute <= 0 {
		sc.RequestsPerMinute = requestsPerMinute
	}
}

func (c *Config) normalizeMatching() {
	sources := make([]string, 0, len(c.Matching.EnabledSources))
	for _, name := range c.Matching.EnabledSources {
		name = strings.ToLower(strings.TrimSpace(name))
		if name != "" {
			sources = append(sources, name)
		}
	}
	c.Matching.EnabledSources = sources
	if c.Matching.AutoMatchThreshold == 0 {
		c.Matching.AutoMatchThreshold = defaultAutoMatchThreshold
	}
	if c.Matching.IssueThreshold == 0 {
		c.Matching.IssueThreshold = defaultIssueThreshold
	}
}

func (c *Config) normalizeSimilarity() {
	if c.Similarity.IncrementalIntervalMinutes <= 0 {
		c.Similarity.IncrementalIntervalMinutes = defaultIncrementalIntervalMinutes
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
