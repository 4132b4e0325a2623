package config

import (
	"fmt"
	"strings"
)

// NormalizationResult captures adjustments & warnings from normalization pass.
type NormalizationResult struct{ Warnings []string }

func (r *NormalizationResult) warn(msg string) {
	if msg != "" {
		r.Warnings = append(r.Warnings, msg)
	}
}

// NormalizeConfig canonicalizes enumerated and bounded fields prior to
// default application. It mutates c in place.
func NormalizeConfig(c *Config) *NormalizationResult {
	res := &NormalizationResult{}
	if c == nil {
		return res
	}

	c.Paths.Configs = strings.TrimSpace(c.Paths.Configs)
	c.Paths.Downloads = strings.TrimSpace(c.Paths.Downloads)
	c.Paths.Archive = strings.TrimSpace(c.Paths.Archive)
	c.Paths.Cookies = strings.TrimSpace(c.Paths.Cookies)

	var w string
	if c.Monitoring.Logging.Level != "" {
		c.Monitoring.Logging.Level, w = logLevelNormalizer.NormalizeField("monitoring.logging.level", string(c.Monitoring.Logging.Level))
		res.warn(w)
	}
	if c.Monitoring.Logging.Format != "" {
		c.Monitoring.Logging.Format, w = logFormatNormalizer.NormalizeField("monitoring.logging.format", string(c.Monitoring.Logging.Format))
		res.warn(w)
	}
	if c.YtDlp.RetryBackoff != "" {
		c.YtDlp.RetryBackoff, w = retryBackoffNormalizer.NormalizeField("ytdlp.retry_backoff", string(c.YtDlp.RetryBackoff))
		res.warn(w)
	}
	if c.Normalizer.LineEnding != "" {
		c.Normalizer.LineEnding, w = lineEndingNormalizer.NormalizeField("normalizer.line_ending", string(c.Normalizer.LineEnding))
		res.warn(w)
	}

	clamp := func(field string, v *int) {
		if *v < 0 {
			res.warn(fmt.Sprintf("%s cannot be negative (%d), using 0", field, *v))
			*v = 0
		}
	}
	clamp("ytdlp.max_retries", &c.YtDlp.MaxRetries)
	clamp("ytdlp.output_limit", &c.YtDlp.OutputLimit)
	clamp("http.max_connections", &c.HTTP.MaxConnections)
	clamp("storage.history_size", &c.Storage.HistorySize)

	return res
}
