package errors

import (
	"testing"
)

func TestIsTransient(t *testing.T) {
	if IsTransient(nil) {
		t.Error("nil error should not be transient")
	}
	if IsTransient(New("plain error")) {
		t.Error("plain error should not be transient")
	}
	if !IsTransient(ErrTransient) {
		t.Error("ErrTransient itself should be transient")
	}
	wrapped := Wrap(ErrTransient, "decode interrupted")
	if !IsTransient(wrapped) {
		t.Error("wrapped ErrTransient should be transient")
	}
	double := Wrapf(wrapped, "attempt %d", 3)
	if !IsTransient(double) {
		t.Error("doubly wrapped ErrTransient should be transient")
	}
}

func TestWrapTransient(t *testing.T) {
	cause := New("mmap failed: resource temporarily unavailable")
	err := WrapTransient(cause, "decode US5WA50M")

	if !IsTransient(err) {
		t.Error("WrapTransient result should satisfy IsTransient")
	}
	if err.Error() == "" {
		t.Error("expected non-empty error message")
	}
}

func TestSentinelsAreDistinct(t *testing.T) {
	sentinels := []error{ErrChartNotFound, ErrArchiveCorrupt, ErrIntegrityMismatch, ErrTransient}
	for i, a := range sentinels {
		for j, b := range sentinels {
			if i != j && Is(a, b) {
				t.Errorf("sentinel %v should not match sentinel %v", a, b)
			}
		}
	}
}

func TestHintsSurviveWrapping(t *testing.T) {
	err := WithHint(ErrIntegrityMismatch, "re-acquire the source archive")
	err = Wrap(err, "verify US5WA50M")

	hints := GetAllHints(err)
	if len(hints) != 1 || hints[0] != "re-acquire the source archive" {
		t.Errorf("expected hint to survive wrapping, got %v", hints)
	}
	if !Is(err, ErrIntegrityMismatch) {
		t.Error("sentinel identity should survive hint + wrap")
	}
}
