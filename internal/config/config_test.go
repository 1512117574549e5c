package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"helixio/internal/metadata"
)

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	t.Setenv("COMICVINE_API_KEY", "env-key")
	path := filepath.Join(t.TempDir(), "config.toml")

	cfg, resolved, exists, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if exists {
		t.Fatal("exists = true for a missing file")
	}
	if resolved != path {
		t.Fatalf("resolved = %q, want %q", resolved, path)
	}
	if cfg.Paths.APIBind != defaultAPIBind {
		t.Fatalf("APIBind = %q, want default", cfg.Paths.APIBind)
	}
	if cfg.Matching.AutoMatchThreshold != defaultAutoMatchThreshold {
		t.Fatalf("AutoMatchThreshold = %v", cfg.Matching.AutoMatchThreshold)
	}
	if cfg.Similarity.IncrementalIntervalMinutes != defaultIncrementalIntervalMinutes {
		t.Fatalf("IncrementalIntervalMinutes = %d", cfg.Similarity.IncrementalIntervalMinutes)
	}
}

func TestLoadParsesAndNormalizes(t *testing.T) {
	t.Setenv("COMICVINE_API_KEY", "")
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	content := `
[paths]
data_dir = "` + dir + `/data"
log_dir = "` + dir + `/logs"
api_bind = " 127.0.0.1:9000 "

[comicvine]
api_key = "abc123"
base_url = "https://example.test/api/"

[matching]
enabled_sources = [" ComicVine ", "anilist"]
auto_match_threshold = 0.9

[logging]
format = "JSON"
level = "Debug"
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, _, exists, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !exists {
		t.Fatal("exists = false for a present file")
	}
	if cfg.Paths.APIBind != "127.0.0.1:9000" {
		t.Fatalf("APIBind = %q", cfg.Paths.APIBind)
	}
	if cfg.ComicVine.BaseURL != "https://example.test/api" {
		t.Fatalf("BaseURL trailing slash kept: %q", cfg.ComicVine.BaseURL)
	}
	if cfg.Matching.AutoMatchThreshold != 0.9 {
		t.Fatalf("AutoMatchThreshold = %v", cfg.Matching.AutoMatchThreshold)
	}
	if cfg.Logging.Format != "json" || cfg.Logging.Level != "debug" {
		t.Fatalf("logging normalized to %q/%q", cfg.Logging.Format, cfg.Logging.Level)
	}

	sources := cfg.EnabledSources()
	if len(sources) != 2 || sources[0] != metadata.SourceComicVine || sources[1] != metadata.SourceAniList {
		t.Fatalf("EnabledSources = %v", sources)
	}
}

func TestLoadFallsBackToEnvAPIKey(t *testing.T) {
	t.Setenv("COMICVINE_API_KEY", "from-env")
	path := filepath.Join(t.TempDir(), "config.toml")

	cfg, _, _, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.ComicVine.APIKey != "from-env" {
		t.Fatalf("APIKey = %q, want env fallback", cfg.ComicVine.APIKey)
	}
}

func TestLoadRejectsEnabledComicVineWithoutKey(t *testing.T) {
	t.Setenv("COMICVINE_API_KEY", "")
	path := filepath.Join(t.TempDir(), "config.toml")

	_, _, _, err := Load(path)
	if err == nil {
		t.Fatal("expected an error when comicvine is enabled without a key")
	}
	if !strings.Contains(err.Error(), "comicvine.api_key") {
		t.Fatalf("err = %v, want an api key complaint", err)
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{
			name:   "threshold above one",
			mutate: func(c *Config) { c.Matching.AutoMatchThreshold = 1.5 },
			want:   "auto_match_threshold",
		},
		{
			name:   "negative issue threshold",
			mutate: func(c *Config) { c.Matching.IssueThreshold = -0.2 },
			want:   "issue_threshold",
		},
		{
			name:   "unknown source",
			mutate: func(c *Config) { c.Matching.EnabledSources = []string{"marvel-unlimited"} },
			want:   "unknown source",
		},
		{
			name:   "bad log format",
			mutate: func(c *Config) { c.Logging.Format = "yaml" },
			want:   "logging.format",
		},
		{
			name:   "bad log level",
			mutate: func(c *Config) { c.Logging.Level = "verbose" },
			want:   "logging.level",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Default()
			cfg.ComicVine.APIKey = "key"
			tc.mutate(&cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected a validation error")
			}
			if !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("err = %v, want mention of %q", err, tc.want)
			}
		})
	}
}

func TestPathsDeriveFromDataDir(t *testing.T) {
	cfg := Default()
	cfg.Paths.DataDir = "/var/lib/helixio"
	if got := cfg.DatabasePath(); got != "/var/lib/helixio/helixio.db" {
		t.Fatalf("DatabasePath = %q", got)
	}
	if got := cfg.LockPath(); got != "/var/lib/helixio/helixio.lock" {
		t.Fatalf("LockPath = %q", got)
	}
}

func TestExpandPathResolvesHome(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skipf("no home directory: %v", err)
	}
	got, err := ExpandPath("~/library/data")
	if err != nil {
		t.Fatalf("ExpandPath: %v", err)
	}
	if got != filepath.Join(home, "library", "data") {
		t.Fatalf("ExpandPath = %q", got)
	}
}

func TestEnsureDirectoriesCreatesPaths(t *testing.T) {
	base := t.TempDir()
	cfg := Default()
	cfg.Paths.DataDir = filepath.Join(base, "data")
	cfg.Paths.LogDir = filepath.Join(base, "logs", "nested")

	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories: %v", err)
	}
	for _, dir := range []string{cfg.Paths.DataDir, cfg.Paths.LogDir} {
		info, err := os.Stat(dir)
		if err != nil || !info.IsDir() {
			t.Fatalf("directory %q missing: %v", dir, err)
		}
	}
}
