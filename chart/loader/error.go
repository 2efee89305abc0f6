package loader

import (
	"fmt"
	"time"
)

// ErrorKind is the closed set of terminal load failure categories
type ErrorKind string

const (
	// KindIntegrityMismatch - the dataset hash disagrees with the trusted record
	KindIntegrityMismatch ErrorKind = "integrity_mismatch"
	// KindDecodeFailed - the dataset could not be decoded (after retries, if transient)
	KindDecodeFailed ErrorKind = "decode_failed"
	// KindExtractionFailed - the archive container could not be read
	KindExtractionFailed ErrorKind = "extraction_failed"
	// KindDatasetNotFound - the archive is readable but holds no dataset for the chart
	KindDatasetNotFound ErrorKind = "dataset_not_found"
)

// MaxMessageLength bounds the user-facing message on a load error
const MaxMessageLength = 200

// guidance maps each failure kind to fixed, actionable advice that is always
// safe to show to a non-technical user.
var guidance = map[ErrorKind]string{
	KindIntegrityMismatch: "The chart file differs from the copy loaded before. Re-acquire the source archive from your chart provider.",
	KindDecodeFailed:      "The chart data could not be decoded. Verify the chart format and edition, then try loading again.",
	KindExtractionFailed:  "The chart archive could not be read. Ensure the file is complete and re-copy or re-download it.",
	KindDatasetNotFound:   "This chart is not present in the selected archive. Check the chart identifier or pick a different archive.",
}

// Guidance returns the fixed actionable advice for the failure kind
func (k ErrorKind) Guidance() string {
	return guidance[k]
}

// LoadError is a terminal, classified load failure. Constructed exactly once
// at the point of failure and immutable afterwards; retry happens before an
// error is constructed, never on the error itself.
//
// Message is always safe to surface to an end user. TechnicalDetail carries
// raw paths, hashes, and underlying error text, and is populated only when
// verbose diagnostics are enabled - minimal by default, comprehensive on
// request.
type LoadError struct {
	Kind            ErrorKind `json:"kind"`
	ChartID         string    `json:"chart_id"`
	Message         string    `json:"message"`
	Guidance        string    `json:"guidance"`
	TechnicalDetail string    `json:"technical_detail,omitempty"`
	RetryCount      int       `json:"retry_count"`
	OccurredAt      time.Time `json:"occurred_at"`
}

// Error implements the error interface
func (e *LoadError) Error() string {
	return fmt.Sprintf("%s: %s (%s)", e.ChartID, e.Message, e.Kind)
}

// truncateMessage bounds a message to MaxMessageLength characters
func truncateMessage(msg string) string {
	if len(msg) <= MaxMessageLength {
		return msg
	}
	return msg[:MaxMessageLength-3] + "..."
}
