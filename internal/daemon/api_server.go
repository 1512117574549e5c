package daemon

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"helixio/internal/config"
	"helixio/internal/library"
	"helixio/internal/logging"
	"helixio/internal/match"
	"helixio/internal/metadata"
	"helixio/internal/similarity"
	"helixio/internal/store"
)

const defaultSimilarLimit = 20

type apiServer struct {
	bind    string
	logger  *slog.Logger
	daemon  *Daemon
	library *library.Service

	listener net.Listener
	server   *http.Server

	// baseCtx outlives individual requests; background jobs launched
	// from handlers run against it so a closed connection cannot
	// cancel them.
	baseCtx context.Context
}

func newAPIServer(cfg *config.Config, d *Daemon, logger *slog.Logger) (*apiServer, error) {
	if cfg == nil || d == nil {
		return nil, nil
	}
	bind := strings.TrimSpace(cfg.Paths.APIBind)
	if bind == "" {
		return nil, nil
	}

	srv := &apiServer{
		bind:    bind,
		logger:  logger,
		daemon:  d,
		library: d.library,
	}

	token := strings.TrimSpace(cfg.Paths.APIToken)
	mux := http.NewServeMux()
	mux.HandleFunc("/api/health", srv.handleHealth)
	mux.HandleFunc("/api/status", authMiddleware(token, srv.handleStatus))
	mux.HandleFunc("/api/match", authMiddleware(token, srv.handleMatch))
	mux.HandleFunc("/api/mappings", authMiddleware(token, srv.handleMappings))
	mux.HandleFunc("/api/series/", authMiddleware(token, srv.handleSeries))
	mux.HandleFunc("/api/similarity/jobs", authMiddleware(token, srv.handleJobs))
	mux.HandleFunc("/api/similarity/stats", authMiddleware(token, srv.handleStats))

	srv.server = &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return srv, nil
}

func (s *apiServer) start(ctx context.Context) error {
	if s == nil {
		return nil
	}
	listener, err := net.Listen("tcp", s.bind)
	if err != nil {
		return fmt.Errorf("api listen: %w", err)
	}
	s.listener = listener
	s.baseCtx = ctx

	go func() {
		if err := s.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.log().Error("api server error", logging.Error(err))
		}
	}()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.server.Shutdown(shutdownCtx)
	}()

	s.log().Info("api server listening", logging.String("address", listener.Addr().String()))
	return nil
}

func (s *apiServer) stop() {
	if s == nil {
		return
	}
	if s.server != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.server.Shutdown(shutdownCtx)
	}
	if s.listener != nil {
		_ = s.listener.Close()
		s.listener = nil
	}
}

func (s *apiServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	if err := s.daemon.store.CheckHealth(r.Context()); err != nil {
		s.writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"status": "unhealthy",
			"error":  err.Error(),
		})
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *apiServer) handleStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	s.writeJSON(w, http.StatusOK, s.daemon.Status(r.Context()))
}

type matchRequest struct {
	Source     string   `json:"source"`
	SourceID   string   `json:"sourceId"`
	Name       string   `json:"name"`
	Publisher  string   `json:"publisher"`
	StartYear  int      `json:"startYear"`
	IssueCount int      `json:"issueCount"`
	Creators   []string `json:"creators"`
	Aliases    []string `json:"aliases"`
	Targets    []string `json:"targets"`
}

func (s *apiServer) handleMatch(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	var req matchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	source, ok := metadata.ParseSource(req.Source)
	if !ok {
		s.writeError(w, http.StatusBadRequest, fmt.Sprintf("unknown source %q", req.Source))
		return
	}
	if strings.TrimSpace(req.Name) == "" {
		s.writeError(w, http.StatusBadRequest, "series name is required")
		return
	}

	creators := make([]metadata.Credit, 0, len(req.Creators))
	for _, name := range req.Creators {
		creators = append(creators, metadata.Credit{Name: name})
	}
	primary := metadata.SeriesMetadata{
		Source:     source,
		SourceID:   req.SourceID,
		Name:       req.Name,
		Publisher:  req.Publisher,
		StartYear:  req.StartYear,
		IssueCount: req.IssueCount,
		Creators:   creators,
		Aliases:    req.Aliases,
	}
	var opts match.Options
	for _, target := range req.Targets {
		parsed, ok := metadata.ParseSource(target)
		if !ok {
			s.writeError(w, http.StatusBadRequest, fmt.Sprintf("unknown target source %q", target))
			return
		}
		opts.TargetSources = append(opts.TargetSources, parsed)
	}

	result, err := s.library.MatchSeries(r.Context(), primary, opts)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, result)
}

func (s *apiServer) handleMappings(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	query := r.URL.Query()
	source, ok := metadata.ParseSource(query.Get("source"))
	if !ok {
		s.writeError(w, http.StatusBadRequest, "source query parameter is required")
		return
	}
	sourceID := strings.TrimSpace(query.Get("id"))
	if sourceID == "" {
		s.writeError(w, http.StatusBadRequest, "id query parameter is required")
		return
	}
	mappings, err := s.library.Mappings(r.Context(), source, sourceID)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"mappings": mappings})
}

// handleSeries serves /api/series/{id}/similar.
func (s *apiServer) handleSeries(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	rest := strings.TrimPrefix(r.URL.Path, "/api/series/")
	seriesID, action, found := strings.Cut(rest, "/")
	if !found || seriesID == "" || action != "similar" {
		s.writeError(w, http.StatusNotFound, "not found")
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	if limit <= 0 {
		limit = defaultSimilarLimit
	}
	entries, err := s.library.SimilarSeries(r.Context(), seriesID, limit)
	if err != nil {
		if errors.Is(err, library.ErrSeriesNotFound) {
			s.writeError(w, http.StatusNotFound, "series not found")
			return
		}
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"seriesId": seriesID, "similar": entries})
}

type jobRequest struct {
	Type string `json:"type"`
}

func (s *apiServer) handleJobs(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
		if limit <= 0 {
			limit = 20
		}
		jobs, err := s.library.Jobs(r.Context(), limit)
		if err != nil {
			s.writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		s.writeJSON(w, http.StatusOK, map[string]any{"jobs": jobs})
	case http.MethodPost:
		var req jobRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			s.writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		jobType, ok := store.ParseJobType(req.Type)
		if !ok {
			s.writeError(w, http.StatusBadRequest, fmt.Sprintf("unknown job type %q", req.Type))
			return
		}
		// A full rebuild can outlast the write timeout, so the job runs
		// in the background and callers poll GET for its progress.
		job, err := s.library.StartSimilarityJob(s.jobContext(), jobType)
		if err != nil {
			if errors.Is(err, similarity.ErrJobAlreadyRunning) {
				s.writeError(w, http.StatusConflict, err.Error())
				return
			}
			s.writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		s.writeJSON(w, http.StatusAccepted, map[string]any{
			"jobId":  job.ID,
			"type":   job.Type,
			"status": job.Status,
		})
	default:
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (s *apiServer) handleStats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	stats, err := s.library.Stats(r.Context())
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, stats)
}

func (s *apiServer) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.log().Error("failed to encode response", logging.Error(err))
	}
}

func (s *apiServer) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, map[string]string{"error": message})
}

func (s *apiServer) jobContext() context.Context {
	if s.baseCtx != nil {
		return s.baseCtx
	}
	return context.Background()
}

func (s *apiServer) log() *slog.Logger {
	if s.logger != nil {
		return s.logger.With(logging.String(logging.FieldComponent, "api-server"))
	}
	return logging.NewNop()
}
