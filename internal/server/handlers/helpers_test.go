package handlers

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/ytdlpd/internal/confnorm"
	"git.home.luguber.info/inful/ytdlpd/internal/dispatch"
	"git.home.luguber.info/inful/ytdlpd/internal/foundation/errors"
	"git.home.luguber.info/inful/ytdlpd/internal/store"
)

// fakeDispatcher records submitted jobs without running anything.
type fakeDispatcher struct {
	mu        sync.Mutex
	jobs      map[string]*dispatch.Job
	submitErr error
	nextID    int
}

func newFakeDispatcher() *fakeDispatcher {
	return &fakeDispatcher{jobs: map[string]*dispatch.Job{}}
}

func (f *fakeDispatcher) Submit(job *dispatch.Job) error {
	if f.submitErr != nil {
		return f.submitErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	job.ID = fmt.Sprintf("job-%d", f.nextID)
	job.Status = dispatch.StatusQueued
	job.CreatedAt = time.Now()
	f.jobs[job.ID] = job
	return nil
}

func (f *fakeDispatcher) Snapshot(id string) (*dispatch.Job, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	j, ok := f.jobs[id]
	return j, ok
}

func (f *fakeDispatcher) List() []*dispatch.Job {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]*dispatch.Job, 0, len(f.jobs))
	for _, j := range f.jobs {
		out = append(out, j)
	}
	return out
}

func (f *fakeDispatcher) Cancel(id string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	j, ok := f.jobs[id]
	if !ok || j.Status.Finished() {
		return false
	}
	j.Status = dispatch.StatusCanceled
	return true
}

func (f *fakeDispatcher) ActiveCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, j := range f.jobs {
		if !j.Status.Finished() {
			n++
		}
	}
	return n
}

type fakeDaemon struct {
	started  time.Time
	readyErr error
}

func (d *fakeDaemon) GetStatus() string       { return "running" }
func (d *fakeDaemon) GetStartTime() time.Time { return d.started }
func (d *fakeDaemon) ActiveDownloads() int    { return 2 }
func (d *fakeDaemon) Ready() error            { return d.readyErr }

var notReady = errors.DaemonError("configs directory missing").Build()

func newConfigStore(t *testing.T) *store.ConfigStore {
	t.Helper()
	n := confnorm.New(confnorm.Folders{Downloads: "/data/downloads/", Archive: "/data/archive/"})
	return store.NewConfigStore(t.TempDir(), n, nil)
}

// serve routes a single request through a mux so PathValue works.
func serve(t *testing.T, pattern string, h http.HandlerFunc, method, target, contentType, body string) *httptest.ResponseRecorder {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc(pattern, h)

	var rdr io.Reader
	if body != "" {
		rdr = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, rdr)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}
