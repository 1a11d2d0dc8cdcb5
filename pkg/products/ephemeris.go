package products

import (
	"fmt"
	"net/http"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/gnsslab/tcgen/pkg/gnss"
)

// DefaultEphemerisURL is the BKG archive serving the daily merged broadcast
// ephemeris files.
const DefaultEphemerisURL = "https://igs.bkg.bund.de"

// EphemerisSource downloads daily multi-GNSS broadcast ephemeris files
// (BRDM) over HTTP.
type EphemerisSource struct {
	baseURL string
	client  *http.Client
}

// NewEphemerisSource returns a source for the given archive URL. An empty
// baseURL selects the default BKG archive, a zero timeout the DefaultTimeout.
func NewEphemerisSource(baseURL string, timeout time.Duration) *EphemerisSource {
	if baseURL == "" {
		baseURL = DefaultEphemerisURL
	}
	if timeout == 0 {
		timeout = DefaultTimeout
	}
	return &EphemerisSource{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
	}
}

// URL returns the archive URL of the ephemeris file for coord.
func (s *EphemerisSource) URL(coord gnss.Coordinate) string {
	return fmt.Sprintf("%s/root_ftp/IGS/BRDC/%d/%03d/BRDM00DLR_S_%d%03d0000_01D_MN.rnx.gz",
		s.baseURL, coord.Year, coord.Doy, coord.Year, coord.Doy)
}

// Fetch implements Source. It streams the compressed file to dir, inflates it
// and removes the intermediate. An already inflated file short-circuits the
// download.
func (s *EphemerisSource) Fetch(coord gnss.Coordinate, dir string) (string, error) {
	url := s.URL(coord)
	gzPath := filepath.Join(dir, path.Base(url))
	target := strings.TrimSuffix(gzPath, ".gz")
	if fileExists(target) {
		return target, nil
	}

	resp, err := s.client.Get(url)
	if err != nil {
		return "", &FetchError{URL: url, Err: err}
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", &FetchError{URL: url, Err: fmt.Errorf("status %s", resp.Status)}
	}

	if err := downloadTo(gzPath, resp.Body); err != nil {
		return "", &FetchError{URL: url, Err: err}
	}
	return decompress(gzPath)
}
