package main

import (
	"log/slog"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"helixio/internal/config"
	"helixio/internal/library"
	"helixio/internal/logging"
	"helixio/internal/match"
	"helixio/internal/metadata"
	"helixio/internal/providers"
	"helixio/internal/providers/anilist"
	"helixio/internal/providers/comicvine"
	"helixio/internal/providers/jikan"
	"helixio/internal/similarity"
	"helixio/internal/store"
)

type commandContext struct {
	configFlag *string

	configOnce sync.Once
	config     *config.Config
	configErr  error
}

func newCommandContext(configFlag *string) *commandContext {
	return &commandContext{configFlag: configFlag}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, _, _, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

// runtime bundles the wired subsystems a command operates on. Close
// releases the store.
type runtime struct {
	cfg     *config.Config
	logger  *slog.Logger
	store   *store.Store
	library *library.Service
}

func (r *runtime) Close() error {
	if r.store != nil {
		return r.store.Close()
	}
	return nil
}

// openRuntime loads configuration, opens the store, and wires the
// provider registry, matcher, similarity engine, and library service.
func (c *commandContext) openRuntime() (*runtime, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}

	logger, err := logging.NewFileLogger(cfg.Logging.Level, cfg.Logging.Format, cfg.Paths.LogDir, "helixio.log")
	if err != nil {
		return nil, err
	}

	st, err := store.Open(cfg)
	if err != nil {
		return nil, err
	}

	registry, err := buildRegistry(cfg)
	if err != nil {
		st.Close()
		return nil, err
	}

	matcher := match.New(registry, cfg.EnabledSources(), cfg.Matching.AutoMatchThreshold, logger)
	engine := similarity.NewEngine(st, logger)
	svc := library.New(st, matcher, engine, cfg.Matching.IssueThreshold, logger)

	return &runtime{
		cfg:     cfg,
		logger:  logger,
		store:   st,
		library: svc,
	}, nil
}

// buildRegistry registers a client for every enabled source that has one.
// ComicVine is skipped without an API key so the remaining sources keep
// working on a fresh install.
func buildRegistry(cfg *config.Config) (*providers.Registry, error) {
	registry := providers.NewRegistry()
	for _, source := range cfg.EnabledSources() {
		switch source {
		case metadata.SourceComicVine:
			if strings.TrimSpace(cfg.ComicVine.APIKey) == "" {
				continue
			}
			client, err := comicvine.New(cfg.ComicVine.APIKey, cfg.ComicVine.BaseURL, providers.NewLimiter(cfg.ComicVine.RequestsPerMinute))
			if err != nil {
				return nil, err
			}
			registry.Register(client)
		case metadata.SourceAniList:
			client, err := anilist.New(cfg.AniList.BaseURL, providers.NewLimiter(cfg.AniList.RequestsPerMinute))
			if err != nil {
				return nil, err
			}
			registry.Register(client)
		case metadata.SourceJikan:
			client, err := jikan.New(cfg.Jikan.BaseURL, providers.NewLimiter(cfg.Jikan.RequestsPerMinute))
			if err != nil {
				return nil, err
			}
			registry.Register(client)
		}
	}
	return registry, nil
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}
