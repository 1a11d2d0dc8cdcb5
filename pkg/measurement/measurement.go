// Package measurement locates field-recorded measurement files and matches
// navigation-message files with the observation files recorded alongside them.
package measurement

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/gnsslab/tcgen/pkg/gnss"
)

// navExt is the extension of recorded navigation-message files.
const navExt = ".nmea"

// errors
var (
	// ErrMalformedFilename is returned for filenames without a valid embedded timestamp.
	ErrMalformedFilename = errors.New("measurement: malformed filename")

	// ErrDirectoryNotFound is returned when the data directory cannot be listed.
	ErrDirectoryNotFound = errors.New("measurement: directory not found")
)

// TimestampPattern is the regex for the timestamp embedded in measurement filenames.
var TimestampPattern = regexp.MustCompile(`(\d{4})_(\d{2})_(\d{2})_(\d{2})_(\d{2})_(\d{2})`)

// ExtractWindow parses the YYYY_MM_DD_HH_MM_SS timestamp embedded in filename
// and returns the acquisition window around it. The fields are taken as UTC
// verbatim, without any timezone conversion.
func ExtractWindow(filename string) (gnss.Window, error) {
	res := TimestampPattern.FindStringSubmatch(filename)
	if res == nil {
		return gnss.Window{}, fmt.Errorf("%w: %q contains no timestamp", ErrMalformedFilename, filename)
	}

	f := make([]int, 6)
	for i := range f {
		f[i], _ = strconv.Atoi(res[i+1]) // digits only, cannot fail
	}
	ts := time.Date(f[0], time.Month(f[1]), f[2], f[3], f[4], f[5], 0, time.UTC)
	if ts.Year() != f[0] || int(ts.Month()) != f[1] || ts.Day() != f[2] ||
		ts.Hour() != f[3] || ts.Minute() != f[4] || ts.Second() != f[5] {
		return gnss.Window{}, fmt.Errorf("%w: %q holds no valid date", ErrMalformedFilename, filename)
	}

	return gnss.NewWindow(ts), nil
}

// Pair is a navigation file matched with the observation file that was
// recorded alongside it. The navigation path identifies the pair.
type Pair struct {
	NavPath string
	ObsPath string
}

// FindPairs scans dir and matches every navigation file with its observation
// file. The observation extension follows the two-digit-year convention
// ("24o" for 2024) and is sniffed from the first navigation file whose name
// carries a timestamp; without any navigation file no pairs exist. Files
// lacking a counterpart are skipped silently. The returned pairs keep the
// directory listing order.
func FindPairs(dir string) ([]Pair, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrDirectoryNotFound, dir, err)
	}

	var obsExt string
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), navExt) {
			continue
		}
		win, err := ExtractWindow(entry.Name())
		if err != nil {
			continue
		}
		obsExt = fmt.Sprintf("%02do", win.Primary.Year()%100)
		break
	}
	if obsExt == "" {
		return nil, nil
	}

	var navNames []string
	obsNames := make(map[string]bool)
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		switch name := entry.Name(); {
		case strings.HasSuffix(name, navExt):
			navNames = append(navNames, name)
		case strings.HasSuffix(name, obsExt):
			obsNames[name] = true
		}
	}

	var pairs []Pair
	for _, nav := range navNames {
		obs := strings.TrimSuffix(nav, navExt) + "." + obsExt
		if obsNames[obs] {
			pairs = append(pairs, Pair{
				NavPath: filepath.Join(dir, nav),
				ObsPath: filepath.Join(dir, obs),
			})
		}
	}
	return pairs, nil
}
