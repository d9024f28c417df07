// Package service exposes the scan operations the HTTP layer consumes:
// starting, polling, cancelling and comparing scans, plus the unattended
// scheduled-run entry point.
package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/privalens/privalens/internal/analyzer"
	"github.com/privalens/privalens/internal/logging"
	"github.com/privalens/privalens/internal/model"
	"github.com/privalens/privalens/internal/report"
	"github.com/privalens/privalens/internal/scheduler"
	"github.com/privalens/privalens/internal/store"
)

// ErrActiveScanExists is returned by RunScheduled when the skip-if-active
// guard fires.
var ErrActiveScanExists = errors.New("domain already has an active scan")

type Service struct {
	store  *store.Store
	orch   *analyzer.Orchestrator
	sched  *scheduler.Scheduler
	logger logging.Logger
}

func New(st *store.Store, orch *analyzer.Orchestrator, sched *scheduler.Scheduler, logger logging.Logger) *Service {
	return &Service{store: st, orch: orch, sched: sched, logger: logger}
}

// StartAnalysis creates a pending scan record and queues it. Contention with
// a non-stale active scan is rejected here so the caller gets an immediate
// answer instead of a record that will fail at pickup.
func (s *Service) StartAnalysis(ctx context.Context, domainID, domain string, cfg *model.ScanConfig, priority scheduler.Priority) (*model.Scan, error) {
	if domainID == "" || domain == "" {
		return nil, fmt.Errorf("domainID and domain are required")
	}

	active, err := s.store.FindActiveScan(ctx, domainID)
	if err != nil && !errors.Is(err, store.ErrScanNotFound) {
		return nil, err
	}
	if active != nil && time.Since(active.CreatedAt) < analyzer.StaleLeaseAfter {
		return nil, analyzer.ErrDomainBusy
	}

	scanCfg := model.DefaultScanConfig()
	if cfg != nil {
		scanCfg = cfg.WithDefaults()
	}

	now := time.Now().UTC()
	scan := &model.Scan{
		ID:        uuid.New().String(),
		DomainID:  domainID,
		Domain:    domain,
		Status:    model.StatusPending,
		Config:    scanCfg,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.store.CreateScan(ctx, scan); err != nil {
		return nil, err
	}
	if err := s.sched.Enqueue(scan.ID, priority); err != nil {
		return nil, err
	}

	s.logger.Info("scan queued",
		logging.Field{Key: "scan_id", Value: scan.ID},
		logging.Field{Key: "domain", Value: domain},
		logging.Field{Key: "priority", Value: int(priority)})
	return scan, nil
}

// RunScheduled is the unattended entry point used for periodic runs. Unlike
// StartAnalysis it silently skips when any active scan exists, stale or not.
func (s *Service) RunScheduled(ctx context.Context, domainID, domain string, cfg *model.ScanConfig) (*model.Scan, error) {
	_, err := s.store.FindActiveScan(ctx, domainID)
	if err == nil {
		return nil, ErrActiveScanExists
	}
	if !errors.Is(err, store.ErrScanNotFound) {
		return nil, err
	}
	return s.StartAnalysis(ctx, domainID, domain, cfg, scheduler.PriorityLow)
}

// GetStatus returns the scan's status and its latest persisted progress.
func (s *Service) GetStatus(ctx context.Context, scanID string) (model.Status, model.Progress, error) {
	scan, err := s.store.GetScan(ctx, scanID)
	if err != nil {
		return "", model.Progress{}, err
	}
	return scan.Status, scan.Progress, nil
}

// GetResults returns the full record.
func (s *Service) GetResults(ctx context.Context, scanID string) (*model.Scan, error) {
	return s.store.GetScan(ctx, scanID)
}

// Cancel stops a pending or running scan. Cancelling a terminal scan is
// rejected with model.ErrTerminalState.
func (s *Service) Cancel(ctx context.Context, scanID string) error {
	scan, err := s.store.GetScan(ctx, scanID)
	if err != nil {
		return err
	}
	if scan.Status.Terminal() {
		return fmt.Errorf("%w: %s", model.ErrTerminalState, scan.Status)
	}

	state := s.sched.State(scanID)
	s.sched.Cancel(scanID)

	// A running job persists its own cancelled transition when it reaches the
	// next page boundary. Anything else is finalized here.
	if state == scheduler.JobRunning {
		return nil
	}
	if err := model.MarkCancelled(scan); err != nil {
		return err
	}
	return s.store.UpdateScan(ctx, scan)
}

// Compare diffs two completed scans: base is the reference, head the newer
// run.
func (s *Service) Compare(ctx context.Context, baseID, headID string) (*model.Changes, error) {
	base, err := s.store.GetScan(ctx, baseID)
	if err != nil {
		return nil, fmt.Errorf("base scan: %w", err)
	}
	head, err := s.store.GetScan(ctx, headID)
	if err != nil {
		return nil, fmt.Errorf("head scan: %w", err)
	}
	return report.Diff(base, head), nil
}

// Trends returns the per-domain compliance time series.
func (s *Service) Trends(ctx context.Context, domainID string, days int) ([]model.TrendPoint, error) {
	return s.store.Trends(ctx, domainID, days)
}

// ListScans returns recent scans for a domain, newest first.
func (s *Service) ListScans(ctx context.Context, domainID string, limit int) ([]*model.Scan, error) {
	return s.store.ListScans(ctx, domainID, limit)
}

// Events exposes the live progress stream of a running scan for streaming
// transports. Nil when no run is active.
func (s *Service) Events(scanID string) <-chan model.Progress {
	return s.orch.Events(scanID)
}
