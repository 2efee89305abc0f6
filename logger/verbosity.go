package logger

import "go.uber.org/zap/zapcore"

// Verbosity level constants for CLI flag counts.
//
// These levels control what categories of output are shown, not just log
// severity. Verbose diagnostics on load errors (raw paths, hash values,
// underlying decoder text) are gated on VerbosityDebug and above.
const (
	VerbosityUser  = 0 // No flags: results and errors only
	VerbosityInfo  = 1 // -v: + progress, queue transitions, registry writes
	VerbosityDebug = 2 // -vv: + candidate archive paths, hashes, timing
	VerbosityTrace = 3 // -vvv: + SQL, per-attempt decode detail
)

// VerbosityToLevel maps verbosity flags (-v, -vv, etc.) to zap log levels
//
// Mapping:
//
//	0 (none)  -> WarnLevel  (errors and warnings only)
//	1 (-v)    -> InfoLevel  (+ informational messages)
//	2+ (-vv)  -> DebugLevel (+ debug messages)
func VerbosityToLevel(verbosity int) zapcore.Level {
	switch verbosity {
	case VerbosityUser:
		return zapcore.WarnLevel
	case VerbosityInfo:
		return zapcore.InfoLevel
	default:
		return zapcore.DebugLevel
	}
}

// ShouldShowDiagnostics returns true for verbosity >= 2 (-vv).
// Load errors populate their technical detail only at this level.
func ShouldShowDiagnostics(verbosity int) bool {
	return verbosity >= VerbosityDebug
}
