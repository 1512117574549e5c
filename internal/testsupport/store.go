package testsupport

import (
	"context"
	"testing"

	"helixio/internal/config"
	"helixio/internal/store"
)

// MustOpenStore opens a store for tests and registers cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) *store.Store {
	t.Helper()

	st, err := store.Open(cfg)
	if err != nil {
		t.Fatalf("store.Open: %v", err)
	}
	t.Cleanup(func() {
		st.Close()
	})
	return st
}

// SeedSeries inserts a series row for tests using the provided store.
func SeedSeries(t testing.TB, st *store.Store, series *store.Series) {
	t.Helper()

	if err := st.UpsertSeries(context.Background(), series); err != nil {
		t.Fatalf("store.UpsertSeries: %v", err)
	}
}
