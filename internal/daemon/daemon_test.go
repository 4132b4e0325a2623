package daemon

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/ytdlpd/internal/config"
	"git.home.luguber.info/inful/ytdlpd/internal/download"
	"git.home.luguber.info/inful/ytdlpd/internal/foundation/errors"
)

type countingRunner struct{ calls atomic.Int32 }

func (r *countingRunner) Run(context.Context, download.Request) (download.Result, error) {
	r.calls.Add(1)
	return download.Result{Duration: time.Millisecond}, nil
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	root := t.TempDir()
	cfg := config.Default()
	cfg.Paths.Configs = filepath.Join(root, "configs")
	cfg.Paths.Cookies = filepath.Join(root, "cookies") + "/"
	cfg.HTTP.Host = "127.0.0.1"
	cfg.HTTP.Port = 0
	cfg.Storage.EventsDB = filepath.Join(root, "data", "events.db")
	cfg.Monitoring.Metrics.Enabled = true
	cfg.Watch.Enabled = true
	cfg.Watch.Debounce = "20ms"
	return cfg
}

// startDaemon runs Start in the background and returns once the daemon is running.
func startDaemon(t *testing.T, d *Daemon) <-chan error {
	t.Helper()
	done := make(chan error, 1)
	go func() { done <- d.Start(t.Context()) }()
	require.Eventually(t, func() bool { return d.GetStatus() == string(StatusRunning) }, 5*time.Second, 10*time.Millisecond)
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = d.Stop(ctx)
	})
	return done
}

func request(t *testing.T, d *Daemon, method, path, body string) (int, string) {
	t.Helper()
	req, err := http.NewRequestWithContext(t.Context(), method, "http://"+d.Addr().String()+path, strings.NewReader(body))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "text/plain")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	b, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, string(b)
}

func TestDaemon_EndToEnd(t *testing.T) {
	runner := &countingRunner{}
	d, err := NewDaemon(testConfig(t), WithRunner(runner))
	require.NoError(t, err)
	done := startDaemon(t, d)

	code, _ := request(t, d, http.MethodGet, "/ready", "")
	require.Equal(t, http.StatusOK, code)

	code, body := request(t, d, http.MethodPost, "/api/configs/music", "-o clip.mp4")
	require.Equal(t, http.StatusCreated, code, body)

	code, body = request(t, d, http.MethodPost, "/api/downloads/download?confName=music", "https://example.com/v")
	require.Equal(t, http.StatusAccepted, code, body)
	var accepted struct {
		JobID string `json:"job_id"`
	}
	require.NoError(t, json.Unmarshal([]byte(body), &accepted))

	require.Eventually(t, func() bool {
		_, body := request(t, d, http.MethodGet, "/api/downloads/"+accepted.JobID, "")
		return strings.Contains(body, `"status":"completed"`)
	}, 5*time.Second, 20*time.Millisecond)
	require.Equal(t, int32(1), runner.calls.Load())

	require.Eventually(t, func() bool {
		code, body := request(t, d, http.MethodGet, "/api/downloads/"+accepted.JobID+"/events", "")
		return code == http.StatusOK && strings.Contains(body, "DownloadStarted") && strings.Contains(body, "DownloadCompleted")
	}, 5*time.Second, 20*time.Millisecond)

	code, body = request(t, d, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, code)
	require.Contains(t, body, "ytdlpd_")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, d.Stop(ctx))
	require.NoError(t, <-done)
	require.Equal(t, string(StatusStopped), d.GetStatus())
	require.Error(t, d.Ready())
}

func TestDaemon_WatcherNormalizesHandWrittenConfig(t *testing.T) {
	cfg := testConfig(t)
	d, err := NewDaemon(cfg, WithRunner(&countingRunner{}))
	require.NoError(t, err)
	startDaemon(t, d)

	path := filepath.Join(cfg.Paths.Configs, "manual.conf")
	require.NoError(t, os.WriteFile(path, []byte("-o clip.mp4 -x"), 0o644))

	require.Eventually(t, func() bool {
		b, err := os.ReadFile(path)
		return err == nil && string(b) == "-o \"/data/downloads/clip.mp4\"\n-x"
	}, 5*time.Second, 20*time.Millisecond)
}

func TestDaemon_HistorySurvivesRestart(t *testing.T) {
	cfg := testConfig(t)
	cfg.Watch.Enabled = false

	d, err := NewDaemon(cfg, WithRunner(&countingRunner{}))
	require.NoError(t, err)
	startDaemon(t, d)

	code, _ := request(t, d, http.MethodPost, "/api/configs/music", "-x")
	require.Equal(t, http.StatusCreated, code)
	_, body := request(t, d, http.MethodPost, "/api/downloads/download?confName=music", "https://example.com/v")
	var accepted struct {
		JobID string `json:"job_id"`
	}
	require.NoError(t, json.Unmarshal([]byte(body), &accepted))
	require.Eventually(t, func() bool { return d.ActiveDownloads() == 0 }, 5*time.Second, 10*time.Millisecond)

	// Completion events are written asynchronously after the job finishes.
	require.Eventually(t, func() bool {
		_, body := request(t, d, http.MethodGet, "/api/downloads/"+accepted.JobID+"/events", "")
		return strings.Contains(body, "DownloadCompleted")
	}, 5*time.Second, 10*time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, d.Stop(ctx))

	restarted, err := NewDaemon(cfg, WithRunner(&countingRunner{}))
	require.NoError(t, err)
	startDaemon(t, restarted)

	code, body = request(t, restarted, http.MethodGet, "/api/downloads/"+accepted.JobID, "")
	require.Equal(t, http.StatusOK, code, body)
	require.Contains(t, body, `"summary"`)
	require.Contains(t, body, `"status":"completed"`)
}

func TestDaemon_StartTwice(t *testing.T) {
	d, err := NewDaemon(testConfig(t), WithRunner(&countingRunner{}))
	require.NoError(t, err)
	startDaemon(t, d)

	err = d.Start(t.Context())
	require.True(t, errors.HasCategory(err, errors.CategoryDaemon))
}

func TestDaemon_ReadyBeforeStart(t *testing.T) {
	d, err := NewDaemon(testConfig(t), WithRunner(&countingRunner{}))
	require.NoError(t, err)
	t.Cleanup(func() { _ = d.Stop(context.Background()) })

	require.Error(t, d.Ready())
	require.Nil(t, d.Addr())
}

func TestNewDaemon_NilConfig(t *testing.T) {
	_, err := NewDaemon(nil)
	require.True(t, errors.HasCategory(err, errors.CategoryConfig))
}
