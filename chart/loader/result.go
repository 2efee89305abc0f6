package loader

import (
	"context"
	"time"

	"github.com/frye/navtool-sub009/chart"
)

// DecodedChart is the decoder collaborator's output: the verified dataset
// bytes plus whatever summary the decoder produced. Semantic S-57 feature
// decoding is outside this pipeline; the loader treats the payload as opaque.
type DecodedChart struct {
	ChartID string
	Data    []byte
	// FeatureCount is informational; decoders that do not count features
	// leave it zero
	FeatureCount int
}

// Decoder is the external dataset-parse collaborator. Implementations mark
// retry-eligible failures by wrapping errors.ErrTransient (see
// errors.WrapTransient); any other failure is permanent and short-circuits
// the retry loop.
type Decoder interface {
	Decode(ctx context.Context, chartID string, data []byte) (*DecodedChart, error)
}

// Result is the terminal outcome of one load request: either Chart is set
// (success) or Err is set (failure), never both.
type Result struct {
	Request    *chart.LoadRequest `json:"request"`
	Chart      *DecodedChart      `json:"chart,omitempty"`
	Err        *LoadError         `json:"error,omitempty"`
	RetryCount int                `json:"retry_count"`
	Duration   time.Duration      `json:"duration"`
}

// Succeeded reports whether the load produced a decoded chart
func (r *Result) Succeeded() bool {
	return r.Err == nil
}
