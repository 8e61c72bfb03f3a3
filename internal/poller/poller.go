// Package poller tracks the automation status of PMS ingestion jobs.
//
// Two loops run per watcher: a fast, strictly sequential loop that follows a
// job known to be in flight, and a slow background loop that only exists to
// notice jobs started from another surface. The fast loop suspends itself
// while a job waits on client approval, since nothing changes until the user
// acts.
package poller

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/chairside/pmsflow/internal/bus"
	"github.com/chairside/pmsflow/internal/gateway"
	"github.com/chairside/pmsflow/internal/model"
	"github.com/chairside/pmsflow/internal/service"
)

// Config holds watcher settings.
type Config struct {
	Domain             string
	FastInterval       time.Duration
	BackgroundInterval time.Duration
	StaleFlagMaxAge    time.Duration
}

func (c *Config) applyDefaults() {
	if c.FastInterval <= 0 {
		c.FastInterval = time.Second
	}
	if c.BackgroundInterval <= 0 {
		c.BackgroundInterval = 10 * time.Second
	}
	if c.StaleFlagMaxAge <= 0 {
		c.StaleFlagMaxAge = 24 * time.Hour
	}
}

// Hooks are optional callbacks fired from the watcher's own goroutines.
// Implementations must return promptly; a blocking hook stalls the loop that
// fired it (which also means hooks never observe out-of-order transitions).
type Hooks struct {
	// OnTransition fires when a tracked job's automation status changes.
	OnTransition func(jobID string, from, to model.AutomationStatus)
	// OnCompleted fires once when a tracked job completes, carrying the
	// refetched key data (nil when the refetch failed).
	OnCompleted func(jobID string, data *gateway.KeyData)
	// OnPromoted fires when the background loop adopts a job the fast loop
	// was not yet tracking.
	OnPromoted func(job model.Job)
}

// Snapshot is a point-in-time copy of the watcher's tracked state.
type Snapshot struct {
	JobID           string
	Status          *model.AutomationStatus
	ReferralPending bool
}

// Watcher polls a domain's automation status until jobs reach a terminal
// state. Start and Stop bracket its lifetime; after Stop returns, no
// callbacks fire and no goroutines remain.
type Watcher struct {
	gateway gateway.Gateway
	store   service.StateStore
	events  *bus.Bus
	logger  *slog.Logger
	hooks   Hooks
	cfg     Config

	cancel context.CancelFunc
	group  *errgroup.Group

	mu              sync.Mutex
	jobID           string
	status          *model.AutomationStatus
	referralPending bool
	started         bool
}

// New creates a watcher. store and events may be nil; the corresponding
// behaviors (flag persistence, upload notifications) are skipped.
func New(gw gateway.Gateway, store service.StateStore, events *bus.Bus, cfg Config, hooks Hooks) *Watcher {
	cfg.applyDefaults()
	return &Watcher{
		gateway: gw,
		store:   store,
		events:  events,
		cfg:     cfg,
		hooks:   hooks,
		logger:  slog.Default().With("component", "poller", "domain", cfg.Domain),
	}
}

// Start launches the polling loops. It is an error to start a running
// watcher.
func (w *Watcher) Start() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.started {
		return errAlreadyStarted
	}
	w.started = true

	ctx, cancel := context.WithCancel(context.Background())
	w.cancel = cancel
	w.group, ctx = errgroup.WithContext(ctx)

	w.group.Go(func() error {
		w.runFastLoop(ctx)
		return nil
	})
	w.group.Go(func() error {
		w.runBackgroundLoop(ctx)
		return nil
	})
	if w.events != nil {
		ch, unsubscribe := w.events.Subscribe(bus.TypeJobUploaded)
		w.group.Go(func() error {
			defer unsubscribe()
			w.consumeUploads(ctx, ch)
			return nil
		})
	}

	w.logger.Debug("watcher started",
		"fast_interval", w.cfg.FastInterval,
		"background_interval", w.cfg.BackgroundInterval)
	return nil
}

// Stop cancels both loops and waits for them to exit. Safe to call more than
// once.
func (w *Watcher) Stop() {
	w.mu.Lock()
	if !w.started {
		w.mu.Unlock()
		return
	}
	w.started = false
	cancel := w.cancel
	group := w.group
	w.mu.Unlock()

	cancel()
	_ = group.Wait()
	w.logger.Debug("watcher stopped")
}

// TrackJob points the fast loop at a specific job.
func (w *Watcher) TrackJob(jobID string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.jobID != jobID {
		w.jobID = jobID
		w.status = nil
	}
}

// NotifyUploaded records that an upload just happened: the fast loop starts
// hunting for the new job, and the processing flag is persisted so a restart
// remembers it.
func (w *Watcher) NotifyUploaded(ctx context.Context) {
	w.mu.Lock()
	w.referralPending = true
	w.mu.Unlock()

	if w.store != nil {
		if err := w.store.SetProcessingFlag(ctx, w.cfg.Domain, time.Now()); err != nil {
			w.logger.Warn("failed to persist processing flag", "error", err)
		}
	}
}

// State returns a snapshot of the tracked job.
func (w *Watcher) State() Snapshot {
	w.mu.Lock()
	defer w.mu.Unlock()
	snap := Snapshot{JobID: w.jobID, ReferralPending: w.referralPending}
	if w.status != nil {
		status := *w.status
		snap.Status = &status
	}
	return snap
}

// runFastLoop issues at most one status request per tick, and only after the
// previous one has fully resolved. Overlap is impossible by construction, so
// a slow response can never be applied over a fresher one.
func (w *Watcher) runFastLoop(ctx context.Context) {
	ticker := time.NewTicker(w.cfg.FastInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if !w.shouldFastPoll() {
				continue
			}
			w.pollOnce(ctx)
		}
	}
}

// shouldFastPoll is the polling gate: poll while an upload is pending or the
// tracked job is active, except when the job is parked on the client-approval
// step, where polling is suspended until the user acts.
func (w *Watcher) shouldFastPoll() bool {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.referralPending {
		return true
	}
	if w.status == nil {
		return w.jobID != ""
	}
	return w.status.Active() && !w.status.AwaitingClientApproval()
}

func (w *Watcher) pollOnce(ctx context.Context) {
	w.mu.Lock()
	jobID := w.jobID
	w.mu.Unlock()

	if jobID == "" {
		w.adoptActiveJob(ctx)
		return
	}

	status, err := w.gateway.GetAutomationStatus(ctx, jobID)
	if err != nil {
		if ctx.Err() == nil {
			w.logger.Warn("status poll failed", "job_id", jobID, "error", err)
		}
		return
	}
	w.applyStatus(ctx, jobID, status)
}

// adoptActiveJob finds the job a fresh upload produced. Until the backend
// registers it, there is nothing to track and the tick is a no-op.
func (w *Watcher) adoptActiveJob(ctx context.Context) {
	jobs, err := w.gateway.GetActiveJobs(ctx, w.cfg.Domain)
	if err != nil {
		if ctx.Err() == nil {
			w.logger.Warn("active job lookup failed", "error", err)
		}
		return
	}

	for _, job := range jobs {
		if job.Automation.Active() {
			w.mu.Lock()
			w.jobID = job.ID
			w.mu.Unlock()
			w.applyStatus(ctx, job.ID, job.Automation)
			return
		}
	}
}

func (w *Watcher) applyStatus(ctx context.Context, jobID string, status model.AutomationStatus) {
	// A response that lands after Stop is discarded, never applied.
	if ctx.Err() != nil {
		return
	}

	w.mu.Lock()
	if w.jobID != jobID {
		// The tracked job changed while this response was in flight.
		w.mu.Unlock()
		return
	}
	var from model.AutomationStatus
	changed := w.status == nil || *w.status != status
	if w.status != nil {
		from = *w.status
	}
	w.status = &status
	w.mu.Unlock()

	if changed {
		w.logger.Info("automation status changed",
			"job_id", jobID, "from", string(from.Status), "to", string(status.Status), "step", status.CurrentStep)
		if w.hooks.OnTransition != nil {
			w.hooks.OnTransition(jobID, from, status)
		}
	}

	if status.Terminal() {
		w.finishJob(ctx, jobID, status)
	}
}

// finishJob clears the tracked state and, on success, refetches the final
// key data exactly once.
func (w *Watcher) finishJob(ctx context.Context, jobID string, status model.AutomationStatus) {
	w.mu.Lock()
	w.referralPending = false
	w.status = nil
	w.jobID = ""
	w.mu.Unlock()

	if w.store != nil {
		if err := w.store.ClearProcessingFlag(ctx, w.cfg.Domain); err != nil {
			w.logger.Warn("failed to clear processing flag", "error", err)
		}
	}

	if status.Status != model.StateCompleted {
		w.logger.Warn("automation run ended without completing", "job_id", jobID, "status", string(status.Status))
		return
	}

	data, err := w.gateway.GetLatestKeyData(ctx, w.cfg.Domain)
	if err != nil {
		if ctx.Err() == nil {
			w.logger.Warn("final key data refetch failed", "job_id", jobID, "error", err)
		}
		data = nil
	}
	if w.hooks.OnCompleted != nil {
		w.hooks.OnCompleted(jobID, data)
	}
}

// runBackgroundLoop watches for jobs this watcher is not yet tracking, such
// as an automation run an admin kicked off from another surface. It trades up
// to one background interval of detection latency for not fast-polling when
// nothing is known to be in flight.
func (w *Watcher) runBackgroundLoop(ctx context.Context) {
	ticker := time.NewTicker(w.cfg.BackgroundInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.detectOnce(ctx)
		}
	}
}

func (w *Watcher) detectOnce(ctx context.Context) {
	jobs, err := w.gateway.GetActiveJobs(ctx, w.cfg.Domain)
	if err != nil {
		if ctx.Err() == nil {
			w.logger.Warn("background job scan failed", "error", err)
		}
		return
	}

	for _, job := range jobs {
		if !job.Automation.Active() {
			continue
		}

		w.mu.Lock()
		known := w.jobID == job.ID
		if !known {
			w.jobID = job.ID
			status := job.Automation
			w.status = &status
		}
		w.mu.Unlock()

		if !known {
			w.logger.Info("detected externally started job", "job_id", job.ID, "status", string(job.Automation.Status))
			if w.hooks.OnPromoted != nil {
				w.hooks.OnPromoted(job)
			}
		}
		return
	}

	w.reconcileStaleFlag(ctx)
}

// reconcileStaleFlag clears a persisted processing flag once it is old and no
// job exists to explain it.
func (w *Watcher) reconcileStaleFlag(ctx context.Context) {
	if w.store == nil {
		return
	}

	flag, err := w.store.GetProcessingFlag(ctx, w.cfg.Domain)
	if err != nil || flag == nil {
		return
	}
	if !flag.Stale(w.cfg.StaleFlagMaxAge, time.Now()) {
		return
	}

	w.mu.Lock()
	w.referralPending = false
	w.mu.Unlock()

	if err := w.store.ClearProcessingFlag(ctx, w.cfg.Domain); err != nil {
		w.logger.Warn("failed to clear stale processing flag", "error", err)
		return
	}
	w.logger.Info("cleared stale processing flag", "uploaded_at", flag.UploadedAt)
}

func (w *Watcher) consumeUploads(ctx context.Context, ch <-chan bus.Event) {
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-ch:
			if !ok {
				return
			}
			// Manual entries are saved directly and never spawn an
			// automation job, so there is nothing to poll for.
			if event.Type == bus.TypeJobUploaded && event.EntryType != bus.EntryManual {
				w.NotifyUploaded(ctx)
			}
		}
	}
}
