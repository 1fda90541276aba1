package testsupport

import (
	"testing"

	"worthit/internal/config"
	"worthit/internal/state"
)

// MustOpenState opens the shared state database for a test config and closes
// it on cleanup.
func MustOpenState(t testing.TB, cfg *config.Config) *state.DB {
	t.Helper()
	db, err := state.Open(cfg)
	if err != nil {
		t.Fatalf("open state database: %v", err)
	}
	t.Cleanup(func() {
		if err := db.Close(); err != nil {
			t.Errorf("close state database: %v", err)
		}
	})
	return db
}
