// Package extract locates chart dataset files inside ZIP archives.
//
// ENC distributions vary in layout: some vendors place the dataset at the
// archive root, NOAA-style archives use ENC_ROOT/<cell>/<cell>.000, and some
// tools wrap the whole tree in extra directories. Extraction tries the known
// layouts in decreasing order of confidence and matches path segments
// case-insensitively, since archives produced by different tools disagree on
// casing.
package extract

import (
	"bytes"
	"io"
	"sort"
	"strings"

	"github.com/klauspost/compress/zip"

	"github.com/frye/navtool-sub009/chart"
	"github.com/frye/navtool-sub009/errors"
)

// encRootDir is the standard S-57 exchange set root directory
const encRootDir = "ENC_ROOT"

// entry is one archive member with its path split into segments
type entry struct {
	file     *zip.File
	segments []string
}

// ExtractDataset returns the dataset bytes for chartID inside archiveBytes.
//
// Candidate layouts are tried in decreasing order of confidence, stopping at
// the first match:
//
//  1. ENC_ROOT/{chartId}/{chartId}.000
//  2. {chartId}/{chartId}.000
//  3. any path whose final two segments are {chartId}/{chartId}.000
//  4. {chartId}.000 at the archive root
//
// A properly namespaced exchange set entry always wins over a loose,
// possibly coincidentally named root file.
//
// A readable archive without a matching entry yields (nil, nil) - absence is
// not an error. An archive whose container cannot be opened yields an error
// wrapping errors.ErrArchiveCorrupt.
func ExtractDataset(archiveBytes []byte, chartID string) ([]byte, error) {
	chartID = chart.NormalizeCellID(chartID)
	if chartID == "" {
		return nil, errors.New("chart ID cannot be empty")
	}

	entries, err := readEntries(archiveBytes)
	if err != nil {
		return nil, err
	}

	datasetName := strings.ToLower(chartID) + chart.DatasetExtension
	cellDir := strings.ToLower(chartID)

	matchers := []func(segs []string) bool{
		// Standard exchange set: ENC_ROOT/<cell>/<cell>.000
		func(segs []string) bool {
			return len(segs) == 3 &&
				segs[0] == strings.ToLower(encRootDir) &&
				segs[1] == cellDir &&
				segs[2] == datasetName
		},
		// Simple nested: <cell>/<cell>.000
		func(segs []string) bool {
			return len(segs) == 2 && segs[0] == cellDir && segs[1] == datasetName
		},
		// Arbitrary vendor wrapping: .../<cell>/<cell>.000
		func(segs []string) bool {
			n := len(segs)
			return n >= 2 && segs[n-2] == cellDir && segs[n-1] == datasetName
		},
		// Root-flat fallback
		func(segs []string) bool {
			return len(segs) == 1 && segs[0] == datasetName
		},
	}

	for _, matches := range matchers {
		for _, e := range entries {
			if matches(e.segments) {
				return readEntry(e.file)
			}
		}
	}

	return nil, nil
}

// ListDatasets returns the normalized cell IDs of every dataset file in the
// archive, sorted and deduplicated. Fails with an ErrArchiveCorrupt-wrapped
// error when the container cannot be opened.
func ListDatasets(archiveBytes []byte) ([]string, error) {
	entries, err := readEntries(archiveBytes)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]struct{})
	var cells []string
	for _, e := range entries {
		name := e.segments[len(e.segments)-1]
		if !strings.HasSuffix(name, chart.DatasetExtension) {
			continue
		}
		cell := chart.NormalizeCellID(name)
		if cell == "" {
			continue
		}
		if _, ok := seen[cell]; ok {
			continue
		}
		seen[cell] = struct{}{}
		cells = append(cells, cell)
	}

	sort.Strings(cells)
	return cells, nil
}

// readEntries opens the ZIP container and returns its file entries with
// lowercased path segments for case-insensitive matching.
func readEntries(archiveBytes []byte) ([]entry, error) {
	reader, err := zip.NewReader(bytes.NewReader(archiveBytes), int64(len(archiveBytes)))
	if err != nil {
		err = errors.Wrap(errors.ErrArchiveCorrupt, err.Error())
		return nil, errors.WithHint(err, "the archive container is unreadable; re-download or re-copy it")
	}

	entries := make([]entry, 0, len(reader.File))
	for _, f := range reader.File {
		if f.FileInfo().IsDir() {
			continue
		}
		// ZIP paths use forward slashes, but archives written by broken
		// tools occasionally carry backslashes
		name := strings.ReplaceAll(f.Name, `\`, "/")
		name = strings.Trim(name, "/")
		if name == "" {
			continue
		}
		entries = append(entries, entry{
			file:     f,
			segments: strings.Split(strings.ToLower(name), "/"),
		})
	}
	return entries, nil
}

// readEntry decompresses a single archive member
func readEntry(f *zip.File) ([]byte, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, errors.Wrapf(errors.ErrArchiveCorrupt, "open %s: %v", f.Name, err)
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, errors.Wrapf(errors.ErrArchiveCorrupt, "read %s: %v", f.Name, err)
	}
	return data, nil
}
