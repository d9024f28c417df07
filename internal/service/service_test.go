package service_test

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	_ "modernc.org/sqlite"

	"github.com/privalens/privalens/internal/analyzer"
	"github.com/privalens/privalens/internal/browser"
	"github.com/privalens/privalens/internal/model"
	"github.com/privalens/privalens/internal/scheduler"
	"github.com/privalens/privalens/internal/service"
	"github.com/privalens/privalens/internal/store"
	"github.com/privalens/privalens/internal/testutil"
)

// newService builds the service over an in-memory store. The scheduler is
// deliberately not started so queued jobs stay queued and tests control the
// lifecycle directly.
func newService(t *testing.T) (*service.Service, *store.Store) {
	t.Helper()

	db, err := sql.Open("sqlite", "file::memory:?cache=shared")
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	db.SetMaxOpenConns(1)
	logger := &testutil.DummyLogger{}
	st, err := store.New(db, logger)
	if err != nil {
		t.Fatalf("create store: %v", err)
	}
	t.Cleanup(func() { st.Close() })

	orch := analyzer.NewOrchestrator(st, nil, browser.Config{}, logger)
	sched := scheduler.New(orch, 1, scheduler.DefaultRetryPolicy(), logger)
	return service.New(st, orch, sched, logger), st
}

func TestStartAnalysisCreatesPendingScan(t *testing.T) {
	svc, st := newService(t)
	ctx := context.Background()

	scan, err := svc.StartAnalysis(ctx, "d1", "shop.example", nil, scheduler.PriorityNormal)
	if err != nil {
		t.Fatalf("StartAnalysis: %v", err)
	}
	if scan.ID == "" || scan.Status != model.StatusPending {
		t.Errorf("scan = %+v", scan)
	}
	if scan.Config.Depth != model.DefaultScanConfig().Depth {
		t.Errorf("nil config should fall back to defaults, got %+v", scan.Config)
	}

	stored, err := st.GetScan(ctx, scan.ID)
	if err != nil {
		t.Fatalf("scan not persisted: %v", err)
	}
	if stored.DomainID != "d1" || stored.Domain != "shop.example" {
		t.Errorf("stored = %+v", stored)
	}
}

func TestStartAnalysisFillsPartialConfig(t *testing.T) {
	svc, st := newService(t)
	ctx := context.Background()

	scan, err := svc.StartAnalysis(ctx, "d1", "shop.example", &model.ScanConfig{Depth: 5}, scheduler.PriorityNormal)
	if err != nil {
		t.Fatalf("StartAnalysis: %v", err)
	}

	// A depth-only config must not zero out the crawl bounds; a persisted
	// MaxURLs of zero would refuse even the seed page.
	stored, err := st.GetScan(ctx, scan.ID)
	if err != nil {
		t.Fatal(err)
	}
	def := model.DefaultScanConfig()
	if stored.Config.Depth != 5 {
		t.Errorf("Depth = %d, want 5", stored.Config.Depth)
	}
	if stored.Config.MaxURLs != def.MaxURLs {
		t.Errorf("MaxURLs = %d, want %d", stored.Config.MaxURLs, def.MaxURLs)
	}
	if stored.Config.NavigationTimeout != def.NavigationTimeout {
		t.Errorf("NavigationTimeout = %s, want %s", stored.Config.NavigationTimeout, def.NavigationTimeout)
	}
	if stored.Config.ViewportWidth != def.ViewportWidth || stored.Config.ViewportHeight != def.ViewportHeight {
		t.Errorf("viewport = %dx%d, want %dx%d",
			stored.Config.ViewportWidth, stored.Config.ViewportHeight, def.ViewportWidth, def.ViewportHeight)
	}
	if stored.Config.AcceptLanguages != def.AcceptLanguages {
		t.Errorf("AcceptLanguages = %q, want %q", stored.Config.AcceptLanguages, def.AcceptLanguages)
	}
}

func TestStartAnalysisValidation(t *testing.T) {
	svc, _ := newService(t)

	if _, err := svc.StartAnalysis(context.Background(), "", "shop.example", nil, scheduler.PriorityNormal); err == nil {
		t.Error("missing domainID should be rejected")
	}
	if _, err := svc.StartAnalysis(context.Background(), "d1", "", nil, scheduler.PriorityNormal); err == nil {
		t.Error("missing domain should be rejected")
	}
}

func TestStartAnalysisRejectsActiveDomain(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	if _, err := svc.StartAnalysis(ctx, "d1", "shop.example", nil, scheduler.PriorityNormal); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.StartAnalysis(ctx, "d1", "shop.example", nil, scheduler.PriorityNormal); !errors.Is(err, analyzer.ErrDomainBusy) {
		t.Errorf("err = %v, want ErrDomainBusy", err)
	}
}

func TestStartAnalysisAllowsStaleActiveScan(t *testing.T) {
	svc, st := newService(t)
	ctx := context.Background()

	old := time.Now().Add(-2 * time.Hour).UTC()
	stale := &model.Scan{
		ID: "stale", DomainID: "d1", Domain: "shop.example",
		Status: model.StatusRunning, Config: model.DefaultScanConfig(),
		CreatedAt: old, UpdatedAt: old,
	}
	if err := st.CreateScan(ctx, stale); err != nil {
		t.Fatal(err)
	}

	// The stale run is left for the orchestrator to force-fail at pickup.
	if _, err := svc.StartAnalysis(ctx, "d1", "shop.example", nil, scheduler.PriorityNormal); err != nil {
		t.Errorf("stale active scan should not block a new start: %v", err)
	}
}

func TestRunScheduledSkipsAnyActiveScan(t *testing.T) {
	svc, st := newService(t)
	ctx := context.Background()

	old := time.Now().Add(-2 * time.Hour).UTC()
	stale := &model.Scan{
		ID: "stale", DomainID: "d1", Domain: "shop.example",
		Status: model.StatusRunning, Config: model.DefaultScanConfig(),
		CreatedAt: old, UpdatedAt: old,
	}
	if err := st.CreateScan(ctx, stale); err != nil {
		t.Fatal(err)
	}

	// Unlike StartAnalysis, the unattended path skips even on stale scans.
	if _, err := svc.RunScheduled(ctx, "d1", "shop.example", nil); !errors.Is(err, service.ErrActiveScanExists) {
		t.Errorf("err = %v, want ErrActiveScanExists", err)
	}
}

func TestCancelQueuedScan(t *testing.T) {
	svc, st := newService(t)
	ctx := context.Background()

	scan, err := svc.StartAnalysis(ctx, "d1", "shop.example", nil, scheduler.PriorityNormal)
	if err != nil {
		t.Fatal(err)
	}

	if err := svc.Cancel(ctx, scan.ID); err != nil {
		t.Fatalf("Cancel: %v", err)
	}

	got, err := st.GetScan(ctx, scan.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Status != model.StatusCancelled {
		t.Errorf("status = %s, want cancelled", got.Status)
	}
}

func TestCancelTerminalScanRejected(t *testing.T) {
	svc, st := newService(t)
	ctx := context.Background()

	now := time.Now().UTC()
	done := &model.Scan{
		ID: "done", DomainID: "d1", Domain: "shop.example",
		Status: model.StatusCompleted, Config: model.DefaultScanConfig(),
		CreatedAt: now, UpdatedAt: now,
	}
	if err := st.CreateScan(ctx, done); err != nil {
		t.Fatal(err)
	}

	if err := svc.Cancel(ctx, "done"); !errors.Is(err, model.ErrTerminalState) {
		t.Errorf("err = %v, want ErrTerminalState", err)
	}
}

func TestCancelUnknownScan(t *testing.T) {
	svc, _ := newService(t)
	if err := svc.Cancel(context.Background(), "ghost"); !errors.Is(err, store.ErrScanNotFound) {
		t.Errorf("err = %v, want ErrScanNotFound", err)
	}
}
