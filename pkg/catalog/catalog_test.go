package catalog

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gnsslab/tcgen/pkg/gnss"
)

const emptyCatalog = `function inf = testCases(n)
switch n
end
`

const populatedCatalog = `function inf = testCases(n)
switch n
	case 1
		inf.time.first=[2023;12;31;21;0;0];
		inf.time.last=[2024;1;1;3;0;0];
		nmeaFile='/data/A_2024_01_01_00_00_00.nmea';
		files.ob='/data/A_2024_01_01_00_00_00.24o';
		files.ep='/data/BRDM00DLR_S_20240010000_01D_MN.rnx';
		files.orbit='/data/GBM0MGXRAP_20240010000_01D_05M_ORB.SP3.gz';

	case 7
		inf.time.first=[2024;3;10;9;0;0];
		inf.time.last=[2024;3;10;15;0;0];
		nmeaFile='/data/B_2024_03_10_12_00_00.nmea';
		files.ob='/data/B_2024_03_10_12_00_00.24o';
		files.ep='/data/BRDM00DLR_S_20240700000_01D_MN.rnx';
		files.orbit='/data/GBM0MGXRAP_20240700000_01D_05M_ORB.SP3';

end
`

func writeCatalog(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "testCases.m")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func testRecord(caseNumber int) Record {
	primary := time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)
	return Record{
		CaseNumber: caseNumber,
		Window:     gnss.NewWindow(primary),
		NavPath:    "/data/C_2024_03_10_12_00_00.nmea",
		ObsPath:    "/data/C_2024_03_10_12_00_00.24o",
		EphPath:    "/data/BRDM00DLR_S_20240700000_01D_MN.rnx",
		OrbitPath:  "/data/GBM0MGXRAP_20240700000_01D_05M_ORB.SP3",
	}
}

func TestLatestCaseNumber(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    int
	}{
		{"empty catalog", emptyCatalog, 0},
		{"last case counts", populatedCatalog, 7},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := LatestCaseNumber(writeCatalog(t, tt.content))
			assert.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestLatestCaseNumberNotFound(t *testing.T) {
	_, err := LatestCaseNumber(filepath.Join(t.TempDir(), "missing.m"))
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestAppend(t *testing.T) {
	path := writeCatalog(t, emptyCatalog)
	w := NewWriter(path)

	written, err := w.Append(testRecord(1))
	require.NoError(t, err)
	assert.True(t, written)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	content := string(data)

	assert.Contains(t, content, "\tcase 1\n")
	assert.Contains(t, content, "\t\tinf.time.first=[2024;3;10;9;0;0];\n")
	assert.Contains(t, content, "\t\tinf.time.last=[2024;3;10;15;0;0];\n")
	assert.Contains(t, content, "\t\tnmeaFile='/data/C_2024_03_10_12_00_00.nmea';\n")
	assert.Contains(t, content, "\t\tfiles.orbit='/data/GBM0MGXRAP_20240700000_01D_05M_ORB.SP3';\n")

	// terminal end line stays the last content line
	lines := strings.Split(strings.TrimRight(content, "\n"), "\n")
	assert.Equal(t, "end", lines[len(lines)-1])

	latest, err := LatestCaseNumber(path)
	require.NoError(t, err)
	assert.Equal(t, 1, latest)
}

func TestAppendDuplicate(t *testing.T) {
	path := writeCatalog(t, emptyCatalog)
	w := NewWriter(path)

	written, err := w.Append(testRecord(1))
	require.NoError(t, err)
	require.True(t, written)

	before, err := os.ReadFile(path)
	require.NoError(t, err)

	// same navigation file again, even under a new case number
	written, err = w.Append(testRecord(2))
	require.NoError(t, err)
	assert.False(t, written)

	after, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, string(before), string(after), "duplicate append must not change the catalog")
	assert.Equal(t, 1, strings.Count(string(after), "nmeaFile='/data/C_2024_03_10_12_00_00.nmea';"))
}

func TestAppendKeepsExistingRecords(t *testing.T) {
	path := writeCatalog(t, populatedCatalog)
	w := NewWriter(path)

	written, err := w.Append(testRecord(8))
	require.NoError(t, err)
	assert.True(t, written)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	content := string(data)
	assert.Contains(t, content, "\tcase 7\n")
	assert.Contains(t, content, "\tcase 8\n")
	assert.Less(t, strings.Index(content, "\tcase 7\n"), strings.Index(content, "\tcase 8\n"))

	latest, err := LatestCaseNumber(path)
	require.NoError(t, err)
	assert.Equal(t, 8, latest)
}

func TestAppendCatalogNotFound(t *testing.T) {
	w := NewWriter(filepath.Join(t.TempDir(), "missing.m"))
	_, err := w.Append(testRecord(1))
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestAppendNoTerminalEnd(t *testing.T) {
	path := writeCatalog(t, "function inf = testCases(n)\nswitch n\n")
	w := NewWriter(path)
	_, err := w.Append(testRecord(1))
	assert.Error(t, err)
}

func TestRecordNavRef(t *testing.T) {
	rec := testRecord(1)
	assert.Equal(t, "nmeaFile='/data/C_2024_03_10_12_00_00.nmea';", rec.navRef())
}
