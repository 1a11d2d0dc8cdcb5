// Package catalog maintains the MATLAB-style test-case catalog consumed by
// the downstream simulation tool. The catalog is a plain text file: a
// prologue, a sequence of case blocks and a terminal "end" line. New records
// are always inserted directly before the terminal line.
package catalog

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gnsslab/tcgen/pkg/gnss"
)

const (
	// caseToken begins every case line.
	caseToken = "case"

	// endToken terminates the case list. The catalog must already contain it;
	// this package never creates a catalog from nothing.
	endToken = "end"
)

// errors
var (
	// ErrNotFound is returned when the catalog file does not exist.
	ErrNotFound = errors.New("catalog: file not found")
)

// Record is one test case: a measurement pair, its acquisition window and the
// reference products fetched for it. The navigation-file path is the record's
// natural key; a catalog never holds two records referencing the same one.
type Record struct {
	CaseNumber int
	Window     gnss.Window
	NavPath    string
	ObsPath    string
	EphPath    string
	OrbitPath  string
}

// navRef returns the serialized navigation-file reference used for duplicate
// suppression. Paths are always written with forward slashes.
func (r Record) navRef() string {
	return fmt.Sprintf("nmeaFile='%s';", filepath.ToSlash(r.NavPath))
}

// lines returns the serialized case block including its trailing blank line.
func (r Record) lines() []string {
	return []string{
		fmt.Sprintf("\tcase %d", r.CaseNumber),
		"\t\t" + timeVector("inf.time.first", r.Window.First),
		"\t\t" + timeVector("inf.time.last", r.Window.Last),
		"\t\t" + r.navRef(),
		fmt.Sprintf("\t\tfiles.ob='%s';", filepath.ToSlash(r.ObsPath)),
		fmt.Sprintf("\t\tfiles.ep='%s';", filepath.ToSlash(r.EphPath)),
		fmt.Sprintf("\t\tfiles.orbit='%s';", filepath.ToSlash(r.OrbitPath)),
		"",
	}
}

// timeVector formats t as a MATLAB datevec assignment. The fields are written
// unpadded, the form the downstream reader expects.
func timeVector(name string, t time.Time) string {
	return fmt.Sprintf("%s=[%d;%d;%d;%d;%d;%d];",
		name, t.Year(), int(t.Month()), t.Day(), t.Hour(), t.Minute(), t.Second())
}

// readLines loads the catalog as a line slice, without terminators.
func readLines(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		return nil, fmt.Errorf("catalog: read %s: %w", path, err)
	}
	return strings.Split(string(data), "\n"), nil
}

// LatestCaseNumber scans the catalog from the end for the last case line and
// returns its number. A catalog without records yields 0.
func LatestCaseNumber(path string) (int, error) {
	lines, err := readLines(path)
	if err != nil {
		return 0, err
	}

	for i := len(lines) - 1; i >= 0; i-- {
		fields := strings.Fields(lines[i])
		if len(fields) >= 2 && fields[0] == caseToken {
			n, err := strconv.Atoi(fields[1])
			if err != nil {
				return 0, fmt.Errorf("catalog: bad case line %q: %w", strings.TrimSpace(lines[i]), err)
			}
			return n, nil
		}
	}
	return 0, nil
}

// Writer appends records to one catalog file. Appends are serialized behind a
// mutex so that concurrent goroutines cannot interleave the read-modify-write
// cycle; single-writer discipline across processes remains the caller's job.
type Writer struct {
	path string
	mu   sync.Mutex
}

// NewWriter returns a writer for the catalog at path. The file must exist.
func NewWriter(path string) *Writer {
	return &Writer{path: path}
}

// Append inserts rec directly before the catalog's terminal end line and
// reports whether it was written. A record whose navigation file is already
// referenced in the catalog is skipped with (false, nil), leaving the file
// untouched.
func (w *Writer) Append(rec Record) (bool, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	lines, err := readLines(w.path)
	if err != nil {
		return false, err
	}

	ref := rec.navRef()
	for _, line := range lines {
		if strings.Contains(line, ref) {
			return false, nil
		}
	}

	endIdx := -1
	for i := len(lines) - 1; i >= 0; i-- {
		if strings.Contains(lines[i], endToken) {
			endIdx = i
			break
		}
	}
	if endIdx < 0 {
		return false, fmt.Errorf("catalog: %s: no terminal %q line", w.path, endToken)
	}

	block := rec.lines()
	updated := make([]string, 0, len(lines)+len(block))
	updated = append(updated, lines[:endIdx]...)
	updated = append(updated, block...)
	updated = append(updated, lines[endIdx:]...)

	if err := os.WriteFile(w.path, []byte(strings.Join(updated, "\n")), 0644); err != nil {
		return false, fmt.Errorf("catalog: write %s: %w", w.path, err)
	}
	return true, nil
}
