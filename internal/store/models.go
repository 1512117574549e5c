package store

import (
	"strings"
	"time"

	"helixio/internal/metadata"
)

// Series is a locally-known series row. The free-text fields hold
// comma-joined values as entered by the library scanner or metadata edits.
type Series struct {
	ID         string
	Name       string
	Publisher  string
	StartYear  int
	Genres     string
	Tags       string
	Characters string
	Teams      string
	Creators   string
	Writer     string
	Penciller  string
	Summary    string
	CreatedAt  time.Time
	UpdatedAt  time.Time
	DeletedAt  *time.Time
}

// Deleted reports whether the series is soft-deleted.
func (s Series) Deleted() bool {
	return s.DeletedAt != nil
}

// MatchMethod records how a cross-source mapping was established.
type MatchMethod string

const (
	MatchMethodAuto    MatchMethod = "auto"
	MatchMethodUser    MatchMethod = "user"
	MatchMethodAPILink MatchMethod = "api_link"
)

// CrossSourceMapping links a series record in one source to the
// corresponding record in another. The primary/matched assignment reflects
// which side initiated the search at write time; the relationship itself is
// symmetric and readers must not assume direction.
type CrossSourceMapping struct {
	ID              int64
	PrimarySource   metadata.Source
	PrimarySourceID string
	MatchedSource   metadata.Source
	MatchedSourceID string
	Confidence      float64
	MatchMethod     MatchMethod
	MatchFactors    string
	Verified        bool
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// SeriesSimilarity is one stored pair score. Rows are canonical:
// SourceSeriesID sorts lexicographically before TargetSeriesID.
type SeriesSimilarity struct {
	SourceSeriesID  string
	TargetSeriesID  string
	SimilarityScore float64
	GenreScore      float64
	TagScore        float64
	CharacterScore  float64
	TeamScore       float64
	CreatorScore    float64
	PublisherScore  float64
	KeywordScore    float64
	ComputedAt      time.Time
}

// SimilarEntry is a direction-normalized view of a similarity row: the
// other series relative to the queried one.
type SimilarEntry struct {
	SeriesID        string
	SimilarityScore float64
	GenreScore      float64
	TagScore        float64
	CharacterScore  float64
	TeamScore       float64
	CreatorScore    float64
	PublisherScore  float64
	KeywordScore    float64
}

// JobType distinguishes full rebuilds from incremental updates.
type JobType string

const (
	JobTypeFull        JobType = "full"
	JobTypeIncremental JobType = "incremental"
)

// JobStatus is the similarity job lifecycle state. Transitions are
// monotonic: pending → running → completed or failed.
type JobStatus string

const (
	JobStatusPending   JobStatus = "pending"
	JobStatusRunning   JobStatus = "running"
	JobStatusCompleted JobStatus = "completed"
	JobStatusFailed    JobStatus = "failed"
)

// ParseJobType converts a string into a known JobType.
func ParseJobType(value string) (JobType, bool) {
	switch JobType(strings.ToLower(strings.TrimSpace(value))) {
	case JobTypeFull:
		return JobTypeFull, true
	case JobTypeIncremental:
		return JobTypeIncremental, true
	default:
		return "", false
	}
}

// SimilarityJob tracks one similarity computation run.
type SimilarityJob struct {
	ID              string
	Type            JobType
	Status          JobStatus
	TotalPairs      int64
	ProcessedPairs  int64
	LastProcessedID string
	ErrorMessage    string
	CreatedAt       time.Time
	StartedAt       *time.Time
	CompletedAt     *time.Time
}

// SimilarityStats aggregates the similarity table for status output.
type SimilarityStats struct {
	PairCount    int64
	AverageScore float64
	LastComputed *time.Time
}
