package errors

import (
	stderrors "errors"
	"fmt"
	"testing"
)

func TestClassifiedError(t *testing.T) {
	t.Run("Basic error creation", func(t *testing.T) {
		err := NewError(CategoryConfig, "invalid configuration").
			WithSeverity(SeverityFatal).
			WithContext("file", "config.yaml").
			Build()

		if err.Category() != CategoryConfig {
			t.Errorf("expected category %s, got %s", CategoryConfig, err.Category())
		}
		if err.Severity() != SeverityFatal {
			t.Errorf("expected severity %s, got %s", SeverityFatal, err.Severity())
		}
		file, ok := err.Context().GetString("file")
		if !ok || file != "config.yaml" {
			t.Errorf("expected context file=config.yaml, got %v", file)
		}
	})

	t.Run("Wrapped chain", func(t *testing.T) {
		cause := stderrors.New("exit status 1")
		err := fmt.Errorf("job failed: %w", ProcessError("yt-dlp failed").Build())
		wrapped := WrapError(cause, CategoryProcess, "launch").Build()

		if !HasCategory(err, CategoryProcess) {
			t.Error("expected process category through fmt wrapping")
		}
		if !stderrors.Is(wrapped, cause) {
			t.Error("expected cause to be reachable")
		}
		if GetCategory(stderrors.New("plain")) != CategoryInternal {
			t.Error("expected plain errors to be internal")
		}
	})

	t.Run("WithContext copies", func(t *testing.T) {
		base := NotFoundError("config not found").Build()
		derived := base.WithContext("config", "music")

		if _, ok := base.Context().Get("config"); ok {
			t.Error("expected base context to be untouched")
		}
		if v, _ := derived.Context().GetString("config"); v != "music" {
			t.Errorf("expected derived config=music, got %q", v)
		}
	})

	t.Run("Retry semantics", func(t *testing.T) {
		if !ProcessError("x").Build().CanRetry() {
			t.Error("expected process errors to be retryable")
		}
		if ValidationError("x").Build().CanRetry() {
			t.Error("expected validation errors to need user action")
		}
	})
}
