package storagewatch

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/j-veylop/hpc-usage-report/internal/models"
	"github.com/j-veylop/hpc-usage-report/internal/roster"
	"github.com/j-veylop/hpc-usage-report/internal/services/usage"
)

func waitForEvent(t *testing.T, s *Service, want EventType) Event {
	t.Helper()
	timeout := time.After(3 * time.Second)
	for {
		select {
		case ev := <-s.Events():
			if ev.Type == want {
				return ev
			}
		case <-timeout:
			t.Fatalf("timed out waiting for event type %d", want)
		}
	}
}

func newStorageService(t *testing.T, listing string) *Service {
	t.Helper()
	resolver := roster.NewResolver(
		[]models.Group{{GID: "smith"}},
		[]models.User{{UID: "asmith", GID: "smith"}},
	)
	gen := usage.NewStorage([]models.StorageSource{{
		Path: listing, Format: models.StorageFormatReport, Tier: models.KeyDataStorage,
	}}, resolver, nil)

	s, err := New(gen, models.MonthOf(2024, time.May), []string{listing})
	if err != nil {
		t.Fatalf("New() failed: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestService_InitialLoad(t *testing.T) {
	listing := filepath.Join(t.TempDir(), "data_report")
	if err := os.WriteFile(listing, []byte("asmith,1 USR 0 0 10G\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	s := newStorageService(t, listing)
	ev := waitForEvent(t, s, EventStorageLoaded)
	if got := ev.Usage.Value(models.KeyDataStorage, "smith"); got != 10 {
		t.Errorf("initial smith storage = %v, want 10", got)
	}
}

func TestService_ReloadsOnWrite(t *testing.T) {
	listing := filepath.Join(t.TempDir(), "data_report")
	if err := os.WriteFile(listing, []byte("asmith,1 USR 0 0 10G\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	s := newStorageService(t, listing)
	waitForEvent(t, s, EventStorageLoaded)

	if err := os.WriteFile(listing, []byte("asmith,1 USR 0 0 25G\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	ev := waitForEvent(t, s, EventStorageChanged)
	if got := ev.Usage.Value(models.KeyDataStorage, "smith"); got != 25 {
		t.Errorf("reloaded smith storage = %v, want 25", got)
	}
	if filepath.Clean(ev.Path) != listing {
		t.Errorf("event path = %q, want %q", ev.Path, listing)
	}
}

func TestService_IgnoresOtherFiles(t *testing.T) {
	dir := t.TempDir()
	listing := filepath.Join(dir, "data_report")
	if err := os.WriteFile(listing, []byte("asmith,1 USR 0 0 10G\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	s := newStorageService(t, listing)
	waitForEvent(t, s, EventStorageLoaded)

	if err := os.WriteFile(filepath.Join(dir, "unrelated"), []byte("x"), 0o600); err != nil {
		t.Fatal(err)
	}

	select {
	case ev := <-s.Events():
		t.Errorf("unexpected event %+v", ev)
	case <-time.After(300 * time.Millisecond):
	}
}

type failingGenerator struct{}

func (failingGenerator) Name() string { return "failing" }
func (failingGenerator) Produce(context.Context, models.Month) (models.MonthlyUsage, error) {
	return nil, os.ErrNotExist
}

func TestService_ErrorEvent(t *testing.T) {
	dir := t.TempDir()
	s, err := New(failingGenerator{}, models.MonthOf(2024, time.May), []string{filepath.Join(dir, "gone")})
	if err != nil {
		t.Fatalf("New() failed: %v", err)
	}
	defer s.Close()

	ev := waitForEvent(t, s, EventError)
	if ev.Error == nil {
		t.Error("error event without error")
	}
}
