package config

const (
	defaultDataDir                    = "~/.local/share/helixio"
	defaultLogDir                     = "~/.local/share/helixio/logs"
	defaultAPIBind                    = "127.0.0.1:7421"
	defaultComicVineBaseURL           = "https://comicvine.gamespot.com/api"
	defaultAniListBaseURL             = "https://graphql.anilist.co"
	defaultJikanBaseURL               = "https://api.jikan.moe/v4"
	defaultComicVineRequestsPerMin    = 60
	defaultAniListRequestsPerMin      = 90
	defaultJikanRequestsPerMin        = 60
	defaultAutoMatchThreshold         = 0.95
	defaultIssueThreshold             = 0.7
	defaultIncrementalIntervalMinutes = 60
	defaultLogFormat                  = "console"
	defaultLogLevel                   = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DataDir: defaultDataDir,
			LogDir:  defaultLogDir,
			APIBind: defaultAPIBind,
		},
		ComicVine: SourceClient{
			BaseURL:           defaultComicVineBaseURL,
			RequestsPerMinute: defaultComicVineRequestsPerMin,
		},
		AniList: SourceClient{
			BaseURL:           defaultAniListBaseURL,
			RequestsPerMinute: defaultAniListRequestsPerMin,
		},
		Jikan: SourceClient{
			BaseURL:           defaultJikanBaseURL,
			RequestsPerMinute: defaultJikanRequestsPerMin,
		},
		Matching: Matching{
			EnabledSources:     []string{"comicvine", "anilist", "jikan"},
			AutoMatchThreshold: defaultAutoMatchThreshold,
			IssueThreshold:     defaultIssueThreshold,
		},
		Similarity: Similarity{
			IncrementalIntervalMinutes: defaultIncrementalIntervalMinutes,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
