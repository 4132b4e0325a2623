// Package download launches the external yt-dlp process for a single URL.
package download

import (
	"bytes"
	"context"
	stderrors "errors"
	"log/slog"
	"os/exec"
	"strings"
	"time"

	"github.com/kballard/go-shellquote"

	"git.home.luguber.info/inful/ytdlpd/internal/config"
	"git.home.luguber.info/inful/ytdlpd/internal/foundation/errors"
	"git.home.luguber.info/inful/ytdlpd/internal/logfields"
)

// Request describes one yt-dlp invocation.
type Request struct {
	URL        string
	ConfigPath string
	CookiePath string // optional
}

// Result captures the outcome of a finished process.
type Result struct {
	ExitCode int           `json:"exit_code"`
	Stdout   string        `json:"stdout,omitempty"`
	Stderr   string        `json:"stderr,omitempty"`
	Duration time.Duration `json:"duration"`
}

// Runner executes download requests. The dispatcher depends on this
// interface so it can run without a real yt-dlp binary.
type Runner interface {
	Run(ctx context.Context, req Request) (Result, error)
}

// Launcher runs yt-dlp through os/exec.
type Launcher struct {
	binary      string
	timeout     time.Duration
	outputLimit int
	waitDelay   time.Duration
}

// NewLauncher creates a launcher from the ytdlp configuration section.
func NewLauncher(cfg config.YtDlpConfig) *Launcher {
	binary := cfg.Binary
	if binary == "" {
		binary = config.DefaultBinary
	}
	return &Launcher{
		binary:      binary,
		timeout:     cfg.TimeoutDuration(),
		outputLimit: cfg.OutputLimit,
		waitDelay:   5 * time.Second,
	}
}

// Binary returns the executable the launcher runs.
func (l *Launcher) Binary() string { return l.binary }

// Args returns the argument vector passed to yt-dlp for req.
func (l *Launcher) Args(req Request) []string {
	args := []string{req.URL, "--config-locations", req.ConfigPath}
	if req.CookiePath != "" {
		args = append(args, "--cookies", req.CookiePath)
	}
	return args
}

// CommandLine renders the full invocation as a shell-quoted string for logs.
func (l *Launcher) CommandLine(req Request) string {
	return shellquote.Join(append([]string{l.binary}, l.Args(req)...)...)
}

// Run starts yt-dlp and waits for it to exit. A non-zero exit status is
// returned as a process error together with the captured output.
func (l *Launcher) Run(ctx context.Context, req Request) (Result, error) {
	if err := validateRequest(req); err != nil {
		return Result{ExitCode: -1}, err
	}

	if l.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, l.timeout)
		defer cancel()
	}

	// #nosec G204 -- arguments are passed without a shell and the URL cannot start with '-'
	cmd := exec.CommandContext(ctx, l.binary, l.Args(req)...)
	cmd.WaitDelay = l.waitDelay
	stdout := newTailBuffer(l.outputLimit)
	stderr := newTailBuffer(l.outputLimit)
	cmd.Stdout = stdout
	cmd.Stderr = stderr

	slog.Debug("Launching yt-dlp", logfields.Command(l.CommandLine(req)))
	start := time.Now()
	err := cmd.Run()
	res := Result{
		ExitCode: exitCode(cmd, err),
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
		Duration: time.Since(start),
	}
	if err == nil {
		return res, nil
	}

	switch {
	case stderrors.Is(ctx.Err(), context.DeadlineExceeded):
		return res, errors.WrapError(ctx.Err(), errors.CategoryProcess, "yt-dlp timed out").
			Retryable().
			WithContext("timeout", l.timeout.String()).
			Build()
	case stderrors.Is(ctx.Err(), context.Canceled):
		return res, errors.WrapError(ctx.Err(), errors.CategoryProcess, "yt-dlp canceled").Build()
	}

	var exitErr *exec.ExitError
	if stderrors.As(err, &exitErr) {
		return res, errors.WrapError(err, errors.CategoryProcess, "yt-dlp exited with an error").
			Retryable().
			WithContext("exit_code", res.ExitCode).
			WithContext("stderr", lastLine(res.Stderr)).
			Build()
	}
	return res, errors.WrapError(err, errors.CategoryProcess, "failed to start yt-dlp").
		WithContext("binary", l.binary).
		Build()
}

func validateRequest(req Request) error {
	url := strings.TrimSpace(req.URL)
	switch {
	case url == "":
		return errors.ValidationError("url cannot be empty").Build()
	case strings.HasPrefix(url, "-"):
		return errors.ValidationError("url cannot start with '-'").WithContext("url", req.URL).Build()
	case req.ConfigPath == "":
		return errors.ValidationError("config path cannot be empty").Build()
	}
	return nil
}

func exitCode(cmd *exec.Cmd, err error) int {
	if cmd.ProcessState != nil {
		return cmd.ProcessState.ExitCode()
	}
	if err != nil {
		return -1
	}
	return 0
}

func lastLine(s string) string {
	s = strings.TrimRight(s, "\r\n")
	if i := strings.LastIndexAny(s, "\r\n"); i >= 0 {
		return s[i+1:]
	}
	return s
}

// tailBuffer keeps the last limit bytes written to it; limit <= 0 keeps everything.
type tailBuffer struct {
	limit int
	buf   bytes.Buffer
	cut   bool
}

func newTailBuffer(limit int) *tailBuffer {
	return &tailBuffer{limit: limit}
}

func (b *tailBuffer) Write(p []byte) (int, error) {
	n := len(p)
	if b.limit > 0 && len(p) >= b.limit {
		b.buf.Reset()
		p = p[len(p)-b.limit:]
		b.cut = true
	}
	b.buf.Write(p)
	if b.limit > 0 && b.buf.Len() > b.limit {
		drop := b.buf.Len() - b.limit
		b.buf.Next(drop)
		b.cut = true
	}
	return n, nil
}

func (b *tailBuffer) String() string {
	if b.cut {
		return "[...]" + b.buf.String()
	}
	return b.buf.String()
}
