package extract_test

import (
	"bytes"
	"testing"

	"github.com/klauspost/compress/zip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/frye/navtool-sub009/chart/extract"
	"github.com/frye/navtool-sub009/errors"
)

// buildArchive creates an in-memory ZIP with the given path -> content entries
func buildArchive(t *testing.T, files map[string][]byte) []byte {
	t.Helper()

	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	for name, content := range files {
		f, err := w.Create(name)
		require.NoError(t, err)
		_, err = f.Write(content)
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	return buf.Bytes()
}

func TestExtractRootFlat(t *testing.T) {
	archive := buildArchive(t, map[string][]byte{
		"US5WA50M.000": []byte("root dataset"),
	})

	data, err := extract.ExtractDataset(archive, "US5WA50M")
	require.NoError(t, err)
	assert.Equal(t, []byte("root dataset"), data)
}

func TestExtractStandardExchangeSet(t *testing.T) {
	archive := buildArchive(t, map[string][]byte{
		"ENC_ROOT/US5WA50M/US5WA50M.000": []byte("exchange set dataset"),
		"ENC_ROOT/US5WA50M/US5WA50M.001": []byte("update file"),
		"ENC_ROOT/CATALOG.031":           []byte("catalog"),
	})

	data, err := extract.ExtractDataset(archive, "US5WA50M")
	require.NoError(t, err)
	assert.Equal(t, []byte("exchange set dataset"), data)
}

func TestExtractSimpleNested(t *testing.T) {
	archive := buildArchive(t, map[string][]byte{
		"US5WA50M/US5WA50M.000": []byte("nested dataset"),
	})

	data, err := extract.ExtractDataset(archive, "US5WA50M")
	require.NoError(t, err)
	assert.Equal(t, []byte("nested dataset"), data)
}

func TestExtractVendorWrapped(t *testing.T) {
	archive := buildArchive(t, map[string][]byte{
		"vendor_2026/week_35/ENC_ROOT/US5WA50M/US5WA50M.000": []byte("wrapped dataset"),
	})

	data, err := extract.ExtractDataset(archive, "US5WA50M")
	require.NoError(t, err)
	assert.Equal(t, []byte("wrapped dataset"), data)
}

func TestExtractPrecedenceEncRootBeatsRoot(t *testing.T) {
	// A coincidentally named root file must not shadow the properly
	// namespaced exchange set entry
	archive := buildArchive(t, map[string][]byte{
		"US5WA50M.000":                   []byte("root copy"),
		"ENC_ROOT/US5WA50M/US5WA50M.000": []byte("exchange set copy"),
	})

	data, err := extract.ExtractDataset(archive, "US5WA50M")
	require.NoError(t, err)
	assert.Equal(t, []byte("exchange set copy"), data, "exchange set entry outranks root-flat")
}

func TestExtractPrecedenceEncRootBeatsDeepNesting(t *testing.T) {
	archive := buildArchive(t, map[string][]byte{
		"mirror/backup/US5WA50M/US5WA50M.000": []byte("deep copy"),
		"ENC_ROOT/US5WA50M/US5WA50M.000":      []byte("exchange set copy"),
	})

	data, err := extract.ExtractDataset(archive, "US5WA50M")
	require.NoError(t, err)
	assert.Equal(t, []byte("exchange set copy"), data, "tier 2 outranks tier 4")
}

func TestExtractCaseInsensitive(t *testing.T) {
	archive := buildArchive(t, map[string][]byte{
		"enc_root/us5wa50m/us5wa50m.000": []byte("lowercase layout"),
	})

	data, err := extract.ExtractDataset(archive, "US5WA50M")
	require.NoError(t, err)
	assert.Equal(t, []byte("lowercase layout"), data)

	// Lowercase query against canonical casing works the same way
	archive = buildArchive(t, map[string][]byte{
		"ENC_ROOT/US5WA50M/US5WA50M.000": []byte("canonical layout"),
	})
	data, err = extract.ExtractDataset(archive, "us5wa50m")
	require.NoError(t, err)
	assert.Equal(t, []byte("canonical layout"), data)
}

func TestExtractAbsenceIsNotAnError(t *testing.T) {
	archive := buildArchive(t, map[string][]byte{
		"ENC_ROOT/US4AK4P0/US4AK4P0.000": []byte("some other cell"),
	})

	data, err := extract.ExtractDataset(archive, "US5WA50M")
	require.NoError(t, err, "missing chart is absence, not failure")
	assert.Nil(t, data)
}

func TestExtractCorruptArchive(t *testing.T) {
	data, err := extract.ExtractDataset([]byte("this is not a zip container"), "US5WA50M")
	require.Error(t, err)
	assert.Nil(t, data)
	assert.True(t, errors.IsArchiveCorrupt(err), "corruption must be distinguishable from absence")
}

func TestExtractUpdateFilesIgnored(t *testing.T) {
	// .001/.002 update files must never satisfy a base cell request
	archive := buildArchive(t, map[string][]byte{
		"ENC_ROOT/US5WA50M/US5WA50M.001": []byte("update 1"),
		"ENC_ROOT/US5WA50M/US5WA50M.002": []byte("update 2"),
	})

	data, err := extract.ExtractDataset(archive, "US5WA50M")
	require.NoError(t, err)
	assert.Nil(t, data)
}

func TestListDatasets(t *testing.T) {
	archive := buildArchive(t, map[string][]byte{
		"ENC_ROOT/US5WA50M/US5WA50M.000": []byte("a"),
		"ENC_ROOT/us4ak4p0/us4ak4p0.000": []byte("b"),
		"README.TXT":                     []byte("docs"),
		"US5WA50M.000":                   []byte("duplicate root copy"),
	})

	cells, err := extract.ListDatasets(archive)
	require.NoError(t, err)
	assert.Equal(t, []string{"US4AK4P0", "US5WA50M"}, cells)
}

func TestListDatasetsCorrupt(t *testing.T) {
	_, err := extract.ListDatasets([]byte{0x50, 0x4b, 0x00})
	require.Error(t, err)
	assert.True(t, errors.IsArchiveCorrupt(err))
}
