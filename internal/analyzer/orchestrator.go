// Package analyzer drives one scan end to end: browser startup, discovery,
// per-page extraction and classification, aggregation and the derived
// statistics, diff and recommendations. It owns every status transition of
// the record it runs.
package analyzer

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/privalens/privalens/internal/browser"
	"github.com/privalens/privalens/internal/classifier"
	"github.com/privalens/privalens/internal/discoverer"
	"github.com/privalens/privalens/internal/extractor"
	"github.com/privalens/privalens/internal/logging"
	"github.com/privalens/privalens/internal/model"
	"github.com/privalens/privalens/internal/report"
	"github.com/privalens/privalens/internal/store"
	"github.com/privalens/privalens/internal/taxonomy"
	"github.com/privalens/privalens/internal/utils"
)

// StaleLeaseAfter is how old an active run must be before a new run on the
// same domain may force-fail it and take over. The service layer applies the
// same window when rejecting contended start requests.
const StaleLeaseAfter = time.Hour

// ErrDomainBusy is the contention rejection: another non-stale run is active
// for the domain. It is surfaced to the caller, never persisted as a failure.
var ErrDomainBusy = errors.New("an active scan already exists for this domain")

// Percent boundaries of each phase.
const (
	pctInitDone      = 10
	pctDiscoveryDone = 20
	pctAnalysisDone  = 80
	pctProcessing    = 80
	pctFinalization  = 95
)

// SessionFactory opens a browser session. Swapped out in tests.
type SessionFactory func(cfg browser.Config, logger logging.Logger) (browser.Session, error)

type Orchestrator struct {
	store      *store.Store
	logger     logging.Logger
	discoverer *discoverer.Discoverer
	extractor  *extractor.Extractor
	classifier *classifier.Classifier

	browserCfg browser.Config

	// NewSession opens the run's browser. Defaults to headless Chrome.
	NewSession SessionFactory

	eventsMu sync.Mutex
	events   map[string]chan model.Progress
}

func NewOrchestrator(st *store.Store, tax *taxonomy.Taxonomy, browserCfg browser.Config, logger logging.Logger) *Orchestrator {
	if tax == nil {
		tax = taxonomy.Default()
	}
	return &Orchestrator{
		store:      st,
		logger:     logger,
		discoverer: discoverer.New(logger),
		extractor:  extractor.New(tax, logger),
		classifier: classifier.New(tax),
		browserCfg: browserCfg,
		NewSession: func(cfg browser.Config, logger logging.Logger) (browser.Session, error) {
			return browser.NewChromeSession(cfg, logger)
		},
		events: make(map[string]chan model.Progress),
	}
}

// Events returns the progress stream of a running scan, or nil when no run is
// active for the id. The channel is closed when the run reaches a terminal
// state.
func (o *Orchestrator) Events(scanID string) <-chan model.Progress {
	o.eventsMu.Lock()
	defer o.eventsMu.Unlock()
	return o.events[scanID]
}

func (o *Orchestrator) openEvents(scanID string) {
	o.eventsMu.Lock()
	defer o.eventsMu.Unlock()
	o.events[scanID] = make(chan model.Progress, 16)
}

func (o *Orchestrator) closeEvents(scanID string) {
	o.eventsMu.Lock()
	ch := o.events[scanID]
	delete(o.events, scanID)
	o.eventsMu.Unlock()
	if ch != nil {
		close(ch)
	}
}

// emit sends a progress snapshot to any listener without ever blocking the
// run.
func (o *Orchestrator) emit(scanID string, progress model.Progress) {
	o.eventsMu.Lock()
	ch := o.events[scanID]
	o.eventsMu.Unlock()
	if ch == nil {
		return
	}
	select {
	case ch <- progress:
	default:
	}
}

// Run executes one scan to a terminal state. The caller (the scheduler worker)
// owns ctx; cancelling it is the cooperative cancellation signal checked
// between page analyses. The returned error is non-nil only for contention and
// infrastructure failures that should drive scheduler retries; per-URL errors
// never surface here.
func (o *Orchestrator) Run(ctx context.Context, scanID string) error {
	scan, err := o.store.GetScan(ctx, scanID)
	if err != nil {
		return err
	}
	if scan.Status.Terminal() {
		// Cancelled while still queued; nothing to do.
		return nil
	}

	if err := o.guardDomain(ctx, scan); err != nil {
		return err
	}

	if scan.Status == model.StatusPending {
		if err := model.MarkRunning(scan); err != nil {
			return err
		}
		scan.Progress.Percent = 0
	} else {
		// Scheduler retry of a run-fatal failure; the record stayed running.
		scan.Progress.Phase = model.PhaseInitialization
	}
	if err := o.store.UpdateScan(ctx, scan); err != nil {
		return err
	}

	o.openEvents(scan.ID)
	defer o.closeEvents(scan.ID)
	o.emit(scan.ID, scan.Progress)

	cfg := o.browserCfg
	cfg.ViewportWidth = scan.Config.ViewportWidth
	cfg.ViewportHeight = scan.Config.ViewportHeight
	cfg.AcceptLanguages = scan.Config.AcceptLanguages

	session, err := o.NewSession(cfg, o.logger)
	if err != nil {
		return o.fail(scan, fmt.Errorf("browser launch: %w", err))
	}
	defer session.Close()

	o.setProgress(ctx, scan, model.PhaseInitialization, pctInitDone, "")

	if err := o.runPhases(ctx, session, scan); err != nil {
		if errors.Is(err, context.Canceled) {
			return o.cancelled(scan)
		}
		return o.fail(scan, err)
	}

	if err := model.MarkCompleted(scan); err != nil {
		return err
	}
	if err := o.store.UpdateScan(context.Background(), scan); err != nil {
		return err
	}
	o.emit(scan.ID, scan.Progress)

	o.logger.Info("scan completed",
		logging.Field{Key: "scan_id", Value: scan.ID},
		logging.Field{Key: "domain", Value: scan.Domain},
		logging.Field{Key: "cookies", Value: scan.Statistics.TotalCookies})
	return nil
}

// guardDomain enforces run uniqueness per domain. A stale active run is
// force-failed so the new run can proceed.
func (o *Orchestrator) guardDomain(ctx context.Context, scan *model.Scan) error {
	active, err := o.store.FindActiveScan(ctx, scan.DomainID)
	if err != nil {
		if errors.Is(err, store.ErrScanNotFound) {
			return nil
		}
		return err
	}
	if active.ID == scan.ID {
		return nil
	}

	age := time.Since(active.CreatedAt)
	if !active.Progress.StartedAt.IsZero() {
		age = time.Since(active.Progress.StartedAt)
	}
	if age < StaleLeaseAfter {
		return ErrDomainBusy
	}

	o.logger.Warn("force-failing stale scan",
		logging.Field{Key: "scan_id", Value: active.ID},
		logging.Field{Key: "domain", Value: active.Domain},
		logging.Field{Key: "age", Value: age.String()})
	if err := model.MarkFailed(active, "scan exceeded the one-hour activity lease and was superseded"); err != nil {
		return err
	}
	return o.store.UpdateScan(ctx, active)
}

func (o *Orchestrator) runPhases(ctx context.Context, session browser.Session, scan *model.Scan) error {
	o.setProgress(ctx, scan, model.PhaseDiscovery, pctInitDone, "")

	discovered, err := o.discoverer.Discover(ctx, session, scan.Domain, scan.Config)
	if err != nil {
		return fmt.Errorf("discovery: %w", err)
	}
	if len(discovered) == 0 {
		return fmt.Errorf("discovery: no reachable pages for %s", scan.Domain)
	}

	scan.Progress.URLsDiscovered = len(discovered)
	scan.Progress.URLsTotal = len(discovered)
	o.setProgress(ctx, scan, model.PhaseAnalysis, pctDiscoveryDone, "")

	agg := newAggregator(o.classifier, utils.NormalizeDomain(scan.Domain))

	for i, target := range discovered {
		if err := ctx.Err(); err != nil {
			// Keep whatever was collected before the cancellation.
			agg.flushInto(scan)
			return err
		}

		o.setProgress(ctx, scan, model.PhaseAnalysis, analysisPercent(i, len(discovered)), target.URL)

		if err := o.analyzePage(ctx, session, agg, target.URL, scan.Config); err != nil {
			o.recordPageError(ctx, scan, target.URL, err)
		}

		scan.Progress.URLsAnalyzed = i + 1
	}

	agg.flushInto(scan)
	o.setProgress(ctx, scan, model.PhaseProcessing, pctProcessing, "")

	scan.Statistics = report.BuildStatistics(scan)

	baseline, err := o.store.FindLatestCompleted(ctx, scan.DomainID)
	if err != nil && !errors.Is(err, store.ErrScanNotFound) {
		return fmt.Errorf("loading diff baseline: %w", err)
	}
	scan.Changes = report.Diff(baseline, scan)
	scan.Recommendations = report.Recommend(scan)

	o.setProgress(ctx, scan, model.PhaseFinalization, pctFinalization, "")
	return nil
}

// analyzePage opens an isolated page context for one URL, extracts its raw
// signals and folds them into the aggregate. The page is always closed before
// returning so no cookie or storage state bleeds into the next URL.
func (o *Orchestrator) analyzePage(ctx context.Context, session browser.Session, agg *aggregator, url string, cfg model.ScanConfig) error {
	page, err := session.NewPage(ctx)
	if err != nil {
		return err
	}
	defer page.Close()

	if err := page.Navigate(ctx, url, cfg.NavigationTimeout); err != nil {
		return err
	}

	signals := o.extractor.Extract(ctx, page, url)
	agg.absorb(signals, time.Now().UTC())
	return nil
}

// analysisPercent maps per-URL progress onto the analysis phase's percent
// range. Monotonically increasing in analyzed for a fixed total.
func analysisPercent(analyzed, total int) int {
	if total <= 0 {
		return pctDiscoveryDone
	}
	return pctDiscoveryDone + (pctAnalysisDone-pctDiscoveryDone)*analyzed/total
}

// setProgress advances the in-memory record, persists the progress column and
// notifies stream listeners. Percent never moves backwards within a run.
func (o *Orchestrator) setProgress(ctx context.Context, scan *model.Scan, phase model.Phase, percent int, currentURL string) {
	scan.Progress.Phase = phase
	if percent > scan.Progress.Percent {
		scan.Progress.Percent = percent
	}
	scan.Progress.CurrentURL = currentURL

	if err := o.store.UpdateProgress(ctx, scan.ID, scan.Progress); err != nil && ctx.Err() == nil {
		o.logger.Warn("failed to persist progress",
			logging.Field{Key: "scan_id", Value: scan.ID},
			logging.Field{Key: "error", Value: err.Error()})
	}
	o.emit(scan.ID, scan.Progress)
}

// recordPageError logs one recoverable per-URL failure into the record and
// keeps going.
func (o *Orchestrator) recordPageError(ctx context.Context, scan *model.Scan, url string, err error) {
	o.logger.Warn("page analysis failed",
		logging.Field{Key: "scan_id", Value: scan.ID},
		logging.Field{Key: "url", Value: url},
		logging.Field{Key: "error", Value: err.Error()})

	scanErr := model.ScanError{URL: url, Message: err.Error(), At: time.Now().UTC()}
	scan.Progress.Errors = append(scan.Progress.Errors, scanErr)
	if persistErr := o.store.AppendError(ctx, scan.ID, scanErr); persistErr != nil && ctx.Err() == nil {
		o.logger.Warn("failed to persist scan error",
			logging.Field{Key: "scan_id", Value: scan.ID},
			logging.Field{Key: "error", Value: persistErr.Error()})
	}
}

// fail records a run-fatal error on the record and surfaces it to the
// scheduler, which decides between a whole-run retry and the terminal failed
// transition. Persistence uses a background context because the run context
// may already be dead.
func (o *Orchestrator) fail(scan *model.Scan, cause error) error {
	o.logger.Error("scan run failed",
		logging.Field{Key: "scan_id", Value: scan.ID},
		logging.Field{Key: "domain", Value: scan.Domain},
		logging.Field{Key: "error", Value: cause.Error()})

	scanErr := model.ScanError{Message: cause.Error(), At: time.Now().UTC()}
	scan.Progress.Errors = append(scan.Progress.Errors, scanErr)
	if err := o.store.AppendError(context.Background(), scan.ID, scanErr); err != nil {
		o.logger.Warn("failed to persist scan error",
			logging.Field{Key: "scan_id", Value: scan.ID},
			logging.Field{Key: "error", Value: err.Error()})
	}
	o.emit(scan.ID, scan.Progress)
	return cause
}

// Fail performs the terminal failed transition once the scheduler has
// exhausted its retries.
func (o *Orchestrator) Fail(ctx context.Context, scanID, msg string) error {
	scan, err := o.store.GetScan(ctx, scanID)
	if err != nil {
		return err
	}
	if scan.Status.Terminal() {
		return nil
	}
	if err := model.MarkFailed(scan, msg); err != nil {
		return err
	}
	if err := o.store.UpdateScan(ctx, scan); err != nil {
		return err
	}
	o.emit(scan.ID, scan.Progress)
	return nil
}

// cancelled finalizes a cooperatively cancelled run, keeping every signal
// collected so far.
func (o *Orchestrator) cancelled(scan *model.Scan) error {
	if err := model.MarkCancelled(scan); err != nil {
		return err
	}
	if err := o.store.UpdateScan(context.Background(), scan); err != nil {
		return err
	}
	o.emit(scan.ID, scan.Progress)

	o.logger.Info("scan cancelled",
		logging.Field{Key: "scan_id", Value: scan.ID},
		logging.Field{Key: "domain", Value: scan.Domain})
	return nil
}
