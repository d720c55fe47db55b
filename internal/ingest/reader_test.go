package ingest

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeRecording(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestReadTraceSniffsHeader(t *testing.T) {
	path := writeRecording(t, "m7_session1_export.csv", `recorded with acquisition suite v4
subject notes,cage 12
Time(s),GFP,tdTomato
0.0,5.1,2.0
0.5,5.2,2.1
1.0,5.3,2.2
`)

	trace, err := ReadTrace(path)
	require.NoError(t, err)

	assert.Equal(t, "m7", trace.Subject)
	require.Equal(t, 3, trace.Len())
	assert.InDelta(t, 0.5, trace.Time[1], 1e-12)
	assert.InDelta(t, 5.2, trace.Signal[1], 1e-12)
	assert.InDelta(t, 2.1, trace.Reference[1], 1e-12)
}

func TestReadTraceMapsColumnsByName(t *testing.T) {
	// Column order must not matter, and extra columns are ignored.
	path := writeRecording(t, "m1.csv", `tdTomato,frame,Time(s),GFP
2.0,1,0.0,5.0
2.5,2,1.0,6.0
`)

	trace, err := ReadTrace(path)
	require.NoError(t, err)

	require.Equal(t, 2, trace.Len())
	assert.InDelta(t, 1.0, trace.Time[1], 1e-12)
	assert.InDelta(t, 6.0, trace.Signal[1], 1e-12)
	assert.InDelta(t, 2.5, trace.Reference[1], 1e-12)
}

func TestReadTraceDropsBadRows(t *testing.T) {
	path := writeRecording(t, "m2.csv", `Time(s),GFP,tdTomato
0.0,5.0,2.0
1.0,NaN,2.1
2.0,,2.2
bad,5.3,2.3
3.0,5.4,+Inf
4.0,5.5,2.5
`)

	trace, err := ReadTrace(path)
	require.NoError(t, err)

	require.Equal(t, 2, trace.Len())
	assert.Equal(t, []float64{0, 4}, trace.Time)
	assert.Equal(t, []float64{5.0, 5.5}, trace.Signal)
}

func TestReadTraceHeaderBeyondScanLimitIsNotFound(t *testing.T) {
	path := writeRecording(t, "m3.csv", `junk
junk
junk
junk
junk
Time(s),GFP,tdTomato
0.0,5.0,2.0
`)

	_, err := ReadTrace(path)
	assert.ErrorIs(t, err, ErrNoHeader)
}

func TestReadTraceErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr error
	}{
		{
			name:    "no header at all",
			content: "0.0,5.0,2.0\n1.0,5.1,2.1\n",
			wantErr: ErrNoHeader,
		},
		{
			name:    "reference column missing",
			content: "Time(s),GFP,AIn-3\n0.0,5.0,2.0\n",
			wantErr: ErrMissingColumn,
		},
		{
			name:    "header without data",
			content: "Time(s),GFP,tdTomato\n",
			wantErr: ErrNoRows,
		},
		{
			name:    "every row unparsable",
			content: "Time(s),GFP,tdTomato\nx,y,z\n,,\n",
			wantErr: ErrNoRows,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeRecording(t, "bad.csv", tt.content)
			_, err := ReadTrace(path)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestReadTraceMissingFile(t *testing.T) {
	_, err := ReadTrace(filepath.Join(t.TempDir(), "absent.csv"))
	assert.Error(t, err)
}

func TestSubjectID(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{"m12_day3_export.csv", "m12"},
		{"control7.csv", "control7"},
		{filepath.Join("data", "raw", "k3_fed.csv"), "k3"},
		{"odd_name_with_many_parts.csv", "odd"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, SubjectID(tt.path), tt.path)
	}
}

func TestDiscover(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"b_two.csv", "a_one.csv", "notes.txt", "c_three.CSV"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("x"), 0644))
	}
	require.NoError(t, os.Mkdir(filepath.Join(dir, "nested"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "nested", "d_four.csv"), []byte("x"), 0644))

	files, err := Discover(dir)
	require.NoError(t, err)

	want := []string{
		filepath.Join(dir, "a_one.csv"),
		filepath.Join(dir, "b_two.csv"),
		filepath.Join(dir, "c_three.CSV"),
	}
	assert.Equal(t, want, files, "nested files and non-CSVs are skipped")
}

func TestDiscoverMissingDir(t *testing.T) {
	_, err := Discover(filepath.Join(t.TempDir(), "nope"))
	assert.Error(t, err)
}

func TestDiscoverProcessed(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"m1-processed.csv", "m2-processed.csv", "m1_raw.csv", "summary.csv"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("x"), 0644))
	}

	files, err := DiscoverProcessed(dir)
	require.NoError(t, err)

	want := []string{
		filepath.Join(dir, "m1-processed.csv"),
		filepath.Join(dir, "m2-processed.csv"),
	}
	assert.Equal(t, want, files)
}
