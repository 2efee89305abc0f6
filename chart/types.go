// Package chart defines the shared types of the chart loading pipeline.
package chart

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/frye/navtool-sub009/errors"
)

// DatasetExtension is the file extension of an ENC base cell dataset
const DatasetExtension = ".000"

// LoadRequest asks the pipeline to load one chart cell from a local archive.
// Created by the caller, immutable afterwards; owned by the queue while
// pending and by the loader while processing.
type LoadRequest struct {
	RequestID   string    `json:"request_id"`
	ChartID     string    `json:"chart_id"`
	ArchivePath string    `json:"archive_path"`
	EnqueuedAt  time.Time `json:"enqueued_at"`
}

// NewLoadRequest creates a load request for the given chart cell and archive.
// The chart ID is normalized to its canonical uppercase form.
func NewLoadRequest(chartID, archivePath string) (*LoadRequest, error) {
	chartID = NormalizeCellID(chartID)
	if chartID == "" {
		return nil, errors.New("chart ID cannot be empty")
	}
	if archivePath == "" {
		return nil, errors.New("archive path cannot be empty")
	}

	return &LoadRequest{
		RequestID:   uuid.NewString(),
		ChartID:     chartID,
		ArchivePath: archivePath,
		EnqueuedAt:  time.Now(),
	}, nil
}

// NormalizeCellID returns the canonical form of an ENC cell identifier:
// trimmed, uppercased, without a trailing dataset extension.
// Cell IDs compare case-insensitively everywhere in the pipeline.
func NormalizeCellID(chartID string) string {
	chartID = strings.TrimSpace(chartID)
	chartID = strings.TrimSuffix(chartID, DatasetExtension)
	return strings.ToUpper(chartID)
}
