package dispatch

import (
	"context"
	stderrors "errors"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"git.home.luguber.info/inful/ytdlpd/internal/config"
	"git.home.luguber.info/inful/ytdlpd/internal/download"
	"git.home.luguber.info/inful/ytdlpd/internal/eventstore"
	"git.home.luguber.info/inful/ytdlpd/internal/foundation/errors"
	"git.home.luguber.info/inful/ytdlpd/internal/logfields"
	"git.home.luguber.info/inful/ytdlpd/internal/metrics"
	"git.home.luguber.info/inful/ytdlpd/internal/retry"
	"git.home.luguber.info/inful/ytdlpd/internal/store"
)

// DefaultHistorySize bounds the finished jobs kept in memory.
const DefaultHistorySize = 100

// ConfigSource resolves and normalizes stored yt-dlp configs.
type ConfigSource interface {
	Exists(name string) bool
	Path(name string) (string, error)
	Normalize(name string) (store.NormalizeResult, error)
}

// CookieSource resolves stored cookie files.
type CookieSource interface {
	Exists(name string) bool
	Path(name string) (string, error)
}

// ErrStopped is returned by Submit after Stop was called.
var ErrStopped = errors.NewError(errors.CategoryQueue, "dispatcher is stopped").Build()

// Dispatcher launches download jobs in the background and tracks them.
type Dispatcher struct {
	runner  download.Runner
	configs ConfigSource
	cookies CookieSource

	mu          sync.RWMutex
	active      map[string]*Job
	history     []*Job
	historySize int
	stopped     bool
	wg          sync.WaitGroup

	ctx       context.Context
	cancelAll context.CancelFunc

	retryPolicy retry.Policy
	recorder    metrics.Recorder
	emitter     EventEmitter
	newID       func() string
}

// New creates a dispatcher. cookies may be nil when cookie files are not served.
func New(runner download.Runner, configs ConfigSource, cookies CookieSource) *Dispatcher {
	if runner == nil {
		panic("dispatch.New: runner is required")
	}
	if configs == nil {
		panic("dispatch.New: config source is required")
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Dispatcher{
		runner:      runner,
		configs:     configs,
		cookies:     cookies,
		active:      make(map[string]*Job),
		history:     make([]*Job, 0),
		historySize: DefaultHistorySize,
		ctx:         ctx,
		cancelAll:   cancel,
		retryPolicy: retry.DefaultPolicy(),
		recorder:    metrics.NoopRecorder{},
		newID:       uuid.NewString,
	}
}

// ConfigureRetry updates the retry policy (should be called once after config load).
func (d *Dispatcher) ConfigureRetry(cfg config.YtDlpConfig) {
	d.retryPolicy = retry.FromConfig(cfg)
}

// SetHistorySize bounds the number of finished jobs kept for Snapshot and List.
func (d *Dispatcher) SetHistorySize(n int) {
	if n <= 0 {
		n = DefaultHistorySize
	}
	d.mu.Lock()
	d.historySize = n
	d.mu.Unlock()
}

// SetRecorder injects a metrics recorder (optional).
func (d *Dispatcher) SetRecorder(r metrics.Recorder) {
	if r == nil {
		r = metrics.NoopRecorder{}
	}
	d.recorder = r
}

// SetEventEmitter injects a lifecycle event emitter (optional).
func (d *Dispatcher) SetEventEmitter(emitter EventEmitter) {
	d.emitter = emitter
}

// Submit validates job and starts it in the background. It returns as soon
// as the job is registered; the job's ID, status and CreatedAt are filled in.
func (d *Dispatcher) Submit(job *Job) error {
	if job == nil {
		return errors.ValidationError("job cannot be nil").Build()
	}
	job.URL = strings.TrimSpace(job.URL)
	job.Config = strings.TrimSpace(job.Config)
	job.Cookie = strings.TrimSpace(job.Cookie)
	if job.URL == "" {
		return errors.ValidationError("url is required").Build()
	}
	if job.Config == "" {
		return errors.ValidationError("config name is required").Build()
	}
	if !d.configs.Exists(job.Config) {
		return errors.ValidationError("configuration not found").WithContext("config", job.Config).Build()
	}
	if job.Cookie != "" && (d.cookies == nil || !d.cookies.Exists(job.Cookie)) {
		return errors.ValidationError("cookie file not found").WithContext("cookie", job.Cookie).Build()
	}

	d.mu.Lock()
	if d.stopped {
		d.mu.Unlock()
		return ErrStopped
	}
	if job.ID == "" {
		job.ID = d.newID()
	}
	if _, dup := d.active[job.ID]; dup {
		d.mu.Unlock()
		return errors.AlreadyExistsError("job already running").WithContext("job_id", job.ID).Build()
	}
	job.Status = StatusQueued
	job.CreatedAt = time.Now()
	jobCtx, cancel := context.WithCancel(d.ctx)
	job.cancel = cancel
	d.active[job.ID] = job
	d.wg.Add(1)
	active := len(d.active)
	d.mu.Unlock()

	d.recorder.SetActiveDownloads(active)
	slog.Info("Download accepted and queued",
		logfields.JobID(job.ID),
		logfields.CorrelationID(job.CorrelationID),
		logfields.URL(job.URL),
		logfields.Config(job.Config))

	go func() {
		defer d.wg.Done()
		defer cancel()
		d.processJob(jobCtx, job)
	}()
	return nil
}

// Cancel stops a running job. It reports false when the job is not active.
func (d *Dispatcher) Cancel(id string) bool {
	d.mu.RLock()
	job, ok := d.active[id]
	d.mu.RUnlock()
	if !ok {
		return false
	}
	job.cancel()
	return true
}

// Snapshot returns a copy of a job (active first, then history).
func (d *Dispatcher) Snapshot(id string) (*Job, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if j, ok := d.active[id]; ok {
		return copyJob(j), true
	}
	for _, j := range d.history {
		if j.ID == id {
			return copyJob(j), true
		}
	}
	return nil, false
}

// List returns copies of active and recent jobs, newest first.
func (d *Dispatcher) List() []*Job {
	d.mu.RLock()
	out := make([]*Job, 0, len(d.active)+len(d.history))
	for _, j := range d.active {
		out = append(out, copyJob(j))
	}
	for _, j := range d.history {
		out = append(out, copyJob(j))
	}
	d.mu.RUnlock()

	sort.SliceStable(out, func(i, k int) bool { return out[i].CreatedAt.After(out[k].CreatedAt) })
	return out
}

// ActiveCount returns the number of jobs not yet finished.
func (d *Dispatcher) ActiveCount() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.active)
}

// Stop rejects new jobs, cancels running ones and waits for them to exit
// or for ctx to expire.
func (d *Dispatcher) Stop(ctx context.Context) error {
	d.mu.Lock()
	d.stopped = true
	d.mu.Unlock()
	d.cancelAll()

	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return errors.WrapError(ctx.Err(), errors.CategoryQueue, "timed out waiting for downloads to stop").
			WithContext("active", d.ActiveCount()).
			Build()
	}
}

func (d *Dispatcher) processJob(ctx context.Context, job *Job) {
	startTime := time.Now()
	d.mu.Lock()
	job.StartedAt = &startTime
	job.Status = StatusRunning
	d.mu.Unlock()
	d.recorder.IncDownloadStarted()

	slog.Info("Background download starting",
		logfields.JobID(job.ID),
		logfields.CorrelationID(job.CorrelationID),
		logfields.URL(job.URL))

	res, err := d.execute(ctx, job)

	status := d.markJobCompleted(ctx, job, res, err)
	d.recordOutcome(job, status)
	d.emitCompletionEvent(job, res, status)
}

// execute normalizes the job's config and runs yt-dlp, retrying transient
// failures according to the retry policy.
func (d *Dispatcher) execute(ctx context.Context, job *Job) (download.Result, error) {
	req, err := d.prepare(job)
	if err != nil {
		return download.Result{ExitCode: -1}, err
	}
	d.emitStartedEvent(ctx, job)

	policy := d.retryPolicy
	retries := 0
	for {
		d.mu.Lock()
		job.Attempts++
		attempt := job.Attempts
		d.mu.Unlock()

		res, err := d.runner.Run(ctx, req)
		if err == nil {
			return res, nil
		}
		if ctx.Err() != nil || !retryable(err) || retries >= policy.MaxRetries {
			return res, err
		}

		retries++
		d.recorder.IncDownloadRetry()
		delay := policy.Delay(retries)
		slog.Warn("Download attempt failed, retrying",
			logfields.JobID(job.ID),
			logfields.Attempt(attempt),
			slog.Int("max_retries", policy.MaxRetries),
			slog.Duration("delay", delay),
			logfields.ExitCode(res.ExitCode),
			logfields.Error(err))
		d.emitRetriedEvent(ctx, job, eventstore.DownloadRetriedMeta{
			Attempt:  attempt,
			Delay:    delay,
			ExitCode: res.ExitCode,
			Error:    err.Error(),
		})

		timer := time.NewTimer(delay)
		select {
		case <-timer.C:
		case <-ctx.Done():
			timer.Stop()
			return res, ctx.Err()
		}
	}
}

// prepare normalizes the stored config in place and resolves file paths.
func (d *Dispatcher) prepare(job *Job) (download.Request, error) {
	norm, err := d.configs.Normalize(job.Config)
	if err != nil {
		return download.Request{}, err
	}
	configPath, err := d.configs.Path(job.Config)
	if err != nil {
		return download.Request{}, err
	}
	req := download.Request{URL: job.URL, ConfigPath: configPath}
	if job.Cookie != "" && d.cookies != nil {
		cookiePath, err := d.cookies.Path(job.Cookie)
		if err != nil {
			return download.Request{}, err
		}
		req.CookiePath = cookiePath
	}

	d.mu.Lock()
	job.ConfigChanged = norm.Changed
	d.mu.Unlock()
	return req, nil
}

func retryable(err error) bool {
	if ce, ok := errors.AsClassified(err); ok {
		return ce.CanRetry()
	}
	return false
}

func (d *Dispatcher) markJobCompleted(ctx context.Context, job *Job, res download.Result, err error) Status {
	endTime := time.Now()
	d.mu.Lock()
	defer d.mu.Unlock()

	job.CompletedAt = &endTime
	if job.StartedAt != nil {
		job.Duration = endTime.Sub(*job.StartedAt)
	}
	job.ExitCode = res.ExitCode
	switch {
	case err == nil:
		job.Status = StatusCompleted
	case ctx.Err() != nil || stderrors.Is(err, context.Canceled):
		job.Status = StatusCanceled
		job.Error = err.Error()
	default:
		job.Status = StatusFailed
		job.Error = err.Error()
	}

	delete(d.active, job.ID)
	d.addToHistory(job)
	return job.Status
}

func (d *Dispatcher) recordOutcome(job *Job, status Status) {
	d.recorder.SetActiveDownloads(d.ActiveCount())
	d.recorder.ObserveDownloadDuration(job.Duration)

	attrs := []any{
		logfields.JobID(job.ID),
		logfields.CorrelationID(job.CorrelationID),
		logfields.URL(job.URL),
		logfields.Config(job.Config),
		logfields.JobStatus(string(status)),
		logfields.Attempt(job.Attempts),
		logfields.Duration(job.Duration),
	}
	switch status {
	case StatusCompleted:
		d.recorder.IncDownloadOutcome(metrics.OutcomeSuccess)
		slog.Info("Background download finished", attrs...)
	case StatusCanceled:
		d.recorder.IncDownloadOutcome(metrics.OutcomeCanceled)
		slog.Warn("Background download canceled", attrs...)
	default:
		d.recorder.IncDownloadOutcome(metrics.OutcomeFailed)
		attrs = append(attrs, logfields.ExitCode(job.ExitCode), slog.String("error", job.Error))
		slog.Error("Error during background download", attrs...)
	}
}

func (d *Dispatcher) addToHistory(job *Job) {
	d.history = append(d.history, job)
	if len(d.history) > d.historySize {
		copy(d.history, d.history[len(d.history)-d.historySize:])
		d.history = d.history[:d.historySize]
	}
}

func (d *Dispatcher) emitStartedEvent(ctx context.Context, job *Job) {
	if d.emitter == nil {
		return
	}
	d.mu.RLock()
	meta := eventstore.DownloadStartedMeta{
		URL:           job.URL,
		Config:        job.Config,
		Cookie:        job.Cookie,
		CorrelationID: job.CorrelationID,
		ConfigChanged: job.ConfigChanged,
	}
	d.mu.RUnlock()
	if err := d.emitter.EmitDownloadStarted(ctx, job.ID, meta); err != nil {
		slog.Warn("Failed to emit DownloadStarted event", logfields.JobID(job.ID), logfields.Error(err))
	}
}

func (d *Dispatcher) emitRetriedEvent(ctx context.Context, job *Job, meta eventstore.DownloadRetriedMeta) {
	if d.emitter == nil {
		return
	}
	if err := d.emitter.EmitDownloadRetried(ctx, job.ID, meta); err != nil {
		slog.Warn("Failed to emit DownloadRetried event", logfields.JobID(job.ID), logfields.Error(err))
	}
}

// emitCompletionEvent runs detached from the job context so canceled jobs
// are still recorded.
func (d *Dispatcher) emitCompletionEvent(job *Job, res download.Result, status Status) {
	if d.emitter == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	d.mu.RLock()
	snapshot := *job
	d.mu.RUnlock()

	var err error
	if status == StatusCompleted {
		err = d.emitter.EmitDownloadCompleted(ctx, job.ID, eventstore.DownloadCompletedMeta{
			Attempts: snapshot.Attempts,
			Duration: snapshot.Duration,
		})
	} else {
		err = d.emitter.EmitDownloadFailed(ctx, job.ID, eventstore.DownloadFailedMeta{
			Status:   string(status),
			Attempts: snapshot.Attempts,
			ExitCode: snapshot.ExitCode,
			Duration: snapshot.Duration,
			Error:    snapshot.Error,
			Stderr:   lastLines(res.Stderr, 20),
		})
	}
	if err != nil {
		slog.Warn("Failed to emit download completion event", logfields.JobID(job.ID), logfields.Error(err))
	}
}

func copyJob(j *Job) *Job {
	cp := *j
	cp.cancel = nil
	return &cp
}

// lastLines keeps at most n trailing lines of s.
func lastLines(s string, n int) string {
	s = strings.TrimRight(s, "\n")
	lines := strings.Split(s, "\n")
	if len(lines) <= n {
		return s
	}
	return strings.Join(lines[len(lines)-n:], "\n")
}
