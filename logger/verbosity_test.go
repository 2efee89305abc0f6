package logger

import (
	"testing"

	"go.uber.org/zap/zapcore"
)

func TestVerbosityToLevel(t *testing.T) {
	cases := []struct {
		verbosity int
		want      zapcore.Level
	}{
		{VerbosityUser, zapcore.WarnLevel},
		{VerbosityInfo, zapcore.InfoLevel},
		{VerbosityDebug, zapcore.DebugLevel},
		{VerbosityTrace, zapcore.DebugLevel},
		{7, zapcore.DebugLevel},
	}

	for _, tc := range cases {
		if got := VerbosityToLevel(tc.verbosity); got != tc.want {
			t.Errorf("VerbosityToLevel(%d) = %v, want %v", tc.verbosity, got, tc.want)
		}
	}
}

func TestShouldShowDiagnostics(t *testing.T) {
	if ShouldShowDiagnostics(VerbosityUser) || ShouldShowDiagnostics(VerbosityInfo) {
		t.Error("diagnostics should be hidden below -vv")
	}
	if !ShouldShowDiagnostics(VerbosityDebug) || !ShouldShowDiagnostics(VerbosityTrace) {
		t.Error("diagnostics should be shown at -vv and above")
	}
}

func TestHelpersNilSafe(t *testing.T) {
	// Helpers must not panic before Initialize is called
	Infow("startup", "key", "value")
	Errorw("failure", "key", "value")
	Debugw("detail", "key", "value")
	Warnw("caution", "key", "value")
}
