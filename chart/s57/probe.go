// Package s57 provides the built-in dataset decoder.
//
// Full S-57 semantic decoding (feature records, attributes, geometry) is an
// external collaborator's concern. The Probe decoder only validates that the
// dataset is structurally an ISO/IEC 8211 file, which is enough for the CLI
// to exercise the pipeline end to end against real exchange sets.
package s57

import (
	"context"

	"github.com/frye/navtool-sub009/chart/loader"
	"github.com/frye/navtool-sub009/errors"
)

// leaderSize is the fixed length of an ISO/IEC 8211 record leader
const leaderSize = 24

// Probe implements loader.Decoder with a structural leader check.
// Malformed datasets are permanent failures - re-reading identical bytes
// cannot change the verdict, so nothing here is marked transient.
type Probe struct{}

// NewProbe creates the structural probe decoder
func NewProbe() *Probe {
	return &Probe{}
}

// Decode validates the ISO/IEC 8211 leader of the dataset
func (p *Probe) Decode(ctx context.Context, chartID string, data []byte) (*loader.DecodedChart, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if len(data) < leaderSize {
		return nil, errors.Newf("dataset for %s is %d bytes, shorter than an ISO 8211 leader", chartID, len(data))
	}

	// Bytes 0-4: record length, ASCII digits
	for i := 0; i < 5; i++ {
		if data[i] < '0' || data[i] > '9' {
			return nil, errors.Newf("dataset for %s has a malformed record length field", chartID)
		}
	}

	// Byte 6: leader identifier, 'L' for the DDR of an S-57 dataset
	if data[6] != 'L' {
		return nil, errors.Newf("dataset for %s has leader identifier %q, expected 'L'", chartID, data[6])
	}

	return &loader.DecodedChart{
		ChartID: chartID,
		Data:    data,
	}, nil
}
