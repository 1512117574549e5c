package daemon

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"helixio/internal/library"
	"helixio/internal/logging"
	"helixio/internal/match"
	"helixio/internal/providers"
	"helixio/internal/similarity"
	"helixio/internal/store"
	"helixio/internal/testsupport"
)

func newTestAPI(t *testing.T) (*apiServer, *store.Store) {
	t.Helper()
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)

	registry := providers.NewRegistry()
	matcher := match.New(registry, cfg.EnabledSources(), cfg.Matching.AutoMatchThreshold, logging.NewNop())
	engine := similarity.NewEngine(st, logging.NewNop())
	svc := library.New(st, matcher, engine, cfg.Matching.IssueThreshold, logging.NewNop())

	d, err := New(cfg, st, svc, logging.NewNop())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if d.api == nil {
		t.Fatal("api server not configured")
	}
	return d.api, st
}

func (s *apiServer) serve(req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	s.server.Handler.ServeHTTP(rec, req)
	return rec
}

// waitForJob polls the job row until it leaves the pending and running
// states.
func waitForJob(t *testing.T, st *store.Store, jobID string) *store.SimilarityJob {
	t.Helper()
	deadline := time.Now().Add(10 * time.Second)
	for {
		job, err := st.GetJob(context.Background(), jobID)
		if err != nil {
			t.Fatalf("GetJob: %v", err)
		}
		if job.Status == store.JobStatusCompleted || job.Status == store.JobStatusFailed {
			return job
		}
		if time.Now().After(deadline) {
			t.Fatalf("job still %s after deadline", job.Status)
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestHealthEndpointReportsOK(t *testing.T) {
	api, _ := newTestAPI(t)

	rec := api.serve(httptest.NewRequest(http.MethodGet, "/api/health", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var body map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body["status"] != "ok" {
		t.Fatalf("body = %v", body)
	}
}

func TestHealthEndpointReportsUnhealthyStore(t *testing.T) {
	api, st := newTestAPI(t)
	if err := st.Close(); err != nil {
		t.Fatalf("close store: %v", err)
	}

	rec := api.serve(httptest.NewRequest(http.MethodGet, "/api/health", nil))
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", rec.Code)
	}
}

func TestMatchEndpointRejectsUnknownSource(t *testing.T) {
	api, _ := newTestAPI(t)

	body := strings.NewReader(`{"source":"librarything","name":"Saga"}`)
	rec := api.serve(httptest.NewRequest(http.MethodPost, "/api/match", body))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestMatchEndpointRequiresName(t *testing.T) {
	api, _ := newTestAPI(t)

	body := strings.NewReader(`{"source":"comicvine","sourceId":"cv-1"}`)
	rec := api.serve(httptest.NewRequest(http.MethodPost, "/api/match", body))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestSimilarEndpointUnknownSeriesReturns404(t *testing.T) {
	api, _ := newTestAPI(t)

	rec := api.serve(httptest.NewRequest(http.MethodGet, "/api/series/missing/similar", nil))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
}

func TestSimilarEndpointReturnsStoredNeighbors(t *testing.T) {
	api, st := newTestAPI(t)
	ctx := context.Background()

	testsupport.SeedSeries(t, st, &store.Series{
		ID: "a", Name: "Batman", Publisher: "DC Comics",
		Genres: "superhero", Characters: "Batman",
	})
	testsupport.SeedSeries(t, st, &store.Series{
		ID: "b", Name: "Nightwing", Publisher: "DC Comics",
		Genres: "superhero", Characters: "Batman, Nightwing",
	})
	if err := st.InsertSimilarityBatch(ctx, []*store.SeriesSimilarity{
		{SourceSeriesID: "a", TargetSeriesID: "b", SimilarityScore: 0.42},
	}); err != nil {
		t.Fatalf("InsertSimilarityBatch: %v", err)
	}

	rec := api.serve(httptest.NewRequest(http.MethodGet, "/api/series/a/similar", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
	}
	var body struct {
		SeriesID string               `json:"seriesId"`
		Similar  []store.SimilarEntry `json:"similar"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body.SeriesID != "a" || len(body.Similar) != 1 || body.Similar[0].SeriesID != "b" {
		t.Fatalf("body = %+v", body)
	}
}

func TestJobsEndpointAcceptsJobWithoutWaiting(t *testing.T) {
	api, st := newTestAPI(t)

	body := strings.NewReader(`{"type":"incremental"}`)
	rec := api.serve(httptest.NewRequest(http.MethodPost, "/api/similarity/jobs", body))
	if rec.Code != http.StatusAccepted {
		t.Fatalf("status = %d, want 202: %s", rec.Code, rec.Body.String())
	}
	var accepted struct {
		JobID  string `json:"jobId"`
		Type   string `json:"type"`
		Status string `json:"status"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &accepted); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if accepted.JobID == "" {
		t.Fatal("expected a job id in the accepted response")
	}
	if accepted.Type != string(store.JobTypeIncremental) {
		t.Fatalf("type = %q", accepted.Type)
	}

	// The response never waits for the run, so poll the row until the
	// background goroutine finishes it.
	job := waitForJob(t, st, accepted.JobID)
	if job.Status != store.JobStatusCompleted {
		t.Fatalf("job status = %s, want completed", job.Status)
	}

	listRec := api.serve(httptest.NewRequest(http.MethodGet, "/api/similarity/jobs", nil))
	if listRec.Code != http.StatusOK {
		t.Fatalf("list status = %d", listRec.Code)
	}
	var listing struct {
		Jobs []store.SimilarityJob `json:"jobs"`
	}
	if err := json.Unmarshal(listRec.Body.Bytes(), &listing); err != nil {
		t.Fatalf("decode listing: %v", err)
	}
	if len(listing.Jobs) != 1 {
		t.Fatalf("listed %d jobs, want 1", len(listing.Jobs))
	}
}

func TestJobsEndpointRejectsUnknownType(t *testing.T) {
	api, _ := newTestAPI(t)

	body := strings.NewReader(`{"type":"hourly"}`)
	rec := api.serve(httptest.NewRequest(http.MethodPost, "/api/similarity/jobs", body))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestMappingsEndpointRequiresQueryParameters(t *testing.T) {
	api, _ := newTestAPI(t)

	rec := api.serve(httptest.NewRequest(http.MethodGet, "/api/mappings", nil))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}

	rec = api.serve(httptest.NewRequest(http.MethodGet, "/api/mappings?source=comicvine&id=cv-1", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
}
