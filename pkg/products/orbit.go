package products

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/jlaffaye/ftp"

	"github.com/gnsslab/tcgen/pkg/gnss"
)

const (
	// DefaultOrbitHost serves the GFZ multi-GNSS rapid orbit products.
	DefaultOrbitHost = "ftp.gfz-potsdam.de:21"

	// orbitProductDir is the product tree on the server.
	orbitProductDir = "GNSS/products/mgex"
)

// OrbitSource downloads rapid precise-orbit files (GBM, SP3 format) from the
// GFZ FTP archive. Login is anonymous.
type OrbitSource struct {
	host    string
	timeout time.Duration
}

// NewOrbitSource returns a source for the given FTP host ("host:port"). An
// empty host selects the GFZ archive, a zero timeout the DefaultTimeout.
func NewOrbitSource(host string, timeout time.Duration) *OrbitSource {
	if host == "" {
		host = DefaultOrbitHost
	}
	if timeout == 0 {
		timeout = DefaultTimeout
	}
	return &OrbitSource{host: host, timeout: timeout}
}

// Filename returns the name of the compressed orbit file for coord.
func (s *OrbitSource) Filename(coord gnss.Coordinate) string {
	return fmt.Sprintf("GBM0MGXRAP_%d%03d0000_01D_05M_ORB.SP3.gz", coord.Year, coord.Doy)
}

// WeekDir returns the weekly subdirectory holding the IGS20 products. IGS20
// solutions are preferred as they support multiple satellite systems.
func (s *OrbitSource) WeekDir(coord gnss.Coordinate) string {
	return fmt.Sprintf("%d_IGS20", coord.Week)
}

// Fetch implements Source. The weekly directory must be listed on the server
// before it is entered; a week without products yields ErrRemoteDirNotFound.
func (s *OrbitSource) Fetch(coord gnss.Coordinate, dir string) (string, error) {
	filename := s.Filename(coord)
	gzPath := filepath.Join(dir, filename)
	target := strings.TrimSuffix(gzPath, ".gz")
	if fileExists(target) {
		return target, nil
	}

	weekDir := s.WeekDir(coord)
	location := fmt.Sprintf("ftp://%s/%s/%s/%s", s.host, orbitProductDir, weekDir, filename)

	conn, err := ftp.Dial(s.host, ftp.DialWithTimeout(s.timeout))
	if err != nil {
		return "", &FetchError{URL: location, Err: err}
	}
	defer conn.Quit()

	if err := conn.Login("anonymous", "anonymous"); err != nil {
		return "", &FetchError{URL: location, Err: err}
	}
	if err := conn.ChangeDir(orbitProductDir); err != nil {
		return "", &FetchError{URL: location, Err: err}
	}

	names, err := conn.NameList("")
	if err != nil {
		return "", &FetchError{URL: location, Err: err}
	}
	if !containsName(names, weekDir) {
		return "", fmt.Errorf("%w: %s on %s", ErrRemoteDirNotFound, weekDir, s.host)
	}
	if err := conn.ChangeDir(weekDir); err != nil {
		return "", &FetchError{URL: location, Err: err}
	}

	resp, err := conn.Retr(filename)
	if err != nil {
		return "", &FetchError{URL: location, Err: err}
	}
	err = downloadTo(gzPath, resp)
	resp.Close()
	if err != nil {
		return "", &FetchError{URL: location, Err: err}
	}

	return decompress(gzPath)
}

// containsName reports whether the listing contains name. Servers may answer
// NLST with full paths, so only the last path element is compared.
func containsName(names []string, name string) bool {
	for _, n := range names {
		if n == name || strings.HasSuffix(n, "/"+name) {
			return true
		}
	}
	return false
}
