package logfields

import (
	"log/slog"
	"time"
)

// Canonical log field name constants to avoid drift across packages.
const (
	KeyCorrelationID = "correlation_id"
	KeyJobID         = "job_id"
	KeyJobStatus     = "job_status"
	KeyAttempt       = "attempt"
	KeyConfig        = "config"
	KeyCookie        = "cookie"
	KeyURL           = "url"
	KeyPath          = "path"
	KeyCommand       = "command"
	KeyExitCode      = "exit_code"
	KeyMethod        = "method"
	KeyStatus        = "status"
	KeyUserAgent     = "user_agent"
	KeyRemoteAddr    = "remote_addr"
	KeyDurationMS    = "duration_ms"
	KeySchedule      = "schedule_name"
	KeySubject       = "subject"
	KeyError         = "error"
)

// Simple helpers returning slog.Attr. Keeping each granular means callers can compose.
func CorrelationID(id string) slog.Attr { return slog.String(KeyCorrelationID, id) }
func JobID(id string) slog.Attr         { return slog.String(KeyJobID, id) }
func JobStatus(s string) slog.Attr      { return slog.String(KeyJobStatus, s) }
func Attempt(n int) slog.Attr           { return slog.Int(KeyAttempt, n) }
func Config(name string) slog.Attr      { return slog.String(KeyConfig, name) }
func Cookie(name string) slog.Attr      { return slog.String(KeyCookie, name) }
func URL(u string) slog.Attr            { return slog.String(KeyURL, u) }
func Path(p string) slog.Attr           { return slog.String(KeyPath, p) }
func Command(c string) slog.Attr        { return slog.String(KeyCommand, c) }
func ExitCode(c int) slog.Attr          { return slog.Int(KeyExitCode, c) }
func Method(m string) slog.Attr         { return slog.String(KeyMethod, m) }
func Status(code int) slog.Attr         { return slog.Int(KeyStatus, code) }
func UserAgent(ua string) slog.Attr     { return slog.String(KeyUserAgent, ua) }
func RemoteAddr(a string) slog.Attr     { return slog.String(KeyRemoteAddr, a) }
func ScheduleName(n string) slog.Attr   { return slog.String(KeySchedule, n) }
func Subject(s string) slog.Attr        { return slog.String(KeySubject, s) }

// Duration reports d in milliseconds.
func Duration(d time.Duration) slog.Attr {
	return slog.Float64(KeyDurationMS, float64(d.Microseconds())/1000)
}

func Error(err error) slog.Attr {
	if err == nil {
		return slog.String(KeyError, "")
	}
	return slog.String(KeyError, err.Error())
}
