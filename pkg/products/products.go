// Package products retrieves the daily reference products a GNSS test case
// needs: broadcast ephemeris over HTTP and precise orbits over FTP. Products
// arrive gzip-compressed, are inflated into the output directory and the
// compressed intermediate is removed. The decompressed file itself is the
// cache: as long as it exists, a fetch for the same coordinate returns it
// without touching the network.
package products

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/mholt/archiver/v3"

	"github.com/gnsslab/tcgen/pkg/gnss"
)

// DefaultTimeout bounds a single download.
const DefaultTimeout = 30 * time.Second

// Kind of a reference product.
type Kind int

// Available product kinds.
const (
	Ephemeris Kind = iota + 1
	Orbit
)

func (k Kind) String() string {
	return [...]string{"", "ephemeris", "orbit"}[k]
}

// Source fetches one product kind, addressed by a calendar coordinate, into
// the given directory and returns the path of the decompressed file. Sources
// are idempotent: an already fetched product is returned without network
// access. Sources are not safe for concurrent fetches into the same directory.
type Source interface {
	Fetch(coord gnss.Coordinate, dir string) (string, error)
}

// NewSource returns the default source for kind: the BKG HTTP archive for
// ephemeris files, the GFZ FTP archive for orbit files.
func NewSource(kind Kind, timeout time.Duration) Source {
	switch kind {
	case Ephemeris:
		return NewEphemerisSource("", timeout)
	case Orbit:
		return NewOrbitSource("", timeout)
	}
	return nil
}

// errors
var (
	// ErrRemoteDirNotFound is returned when the weekly product directory is
	// not listed on the remote server.
	ErrRemoteDirNotFound = errors.New("products: remote directory not found")
)

// A FetchError reports a failed product download.
type FetchError struct {
	URL string // http URL or ftp location
	Err error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("products: download %s: %v", e.URL, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// A DecompressionError reports a downloaded file whose gzip stream could not
// be inflated.
type DecompressionError struct {
	Path string
	Err  error
}

func (e *DecompressionError) Error() string {
	return fmt.Sprintf("products: decompress %s: %v", e.Path, e.Err)
}

func (e *DecompressionError) Unwrap() error { return e.Err }

// fileExists reports whether path points to an existing file.
func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// downloadTo streams r into a new file at path. On a failed copy the partial
// file is removed.
func downloadTo(path string, r io.Reader) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		os.Remove(path)
		return err
	}
	return f.Close()
}

// decompress inflates the gzip file at gzPath next to itself, stripping the
// .gz suffix, and removes the compressed file on success. The stream is
// inflated under a temporary name first and renamed only once complete, so an
// aborted run never leaves a file the cache check would take for a finished
// product.
func decompress(gzPath string) (string, error) {
	target := strings.TrimSuffix(gzPath, ".gz")
	tmp := target + ".part"

	// OverwriteExisting clears leftovers of an aborted earlier run.
	fc := archiver.FileCompressor{Decompressor: archiver.NewGz(), OverwriteExisting: true}
	if err := fc.DecompressFile(gzPath, tmp); err != nil {
		os.Remove(tmp)
		return "", &DecompressionError{Path: gzPath, Err: err}
	}
	if err := os.Rename(tmp, target); err != nil {
		os.Remove(tmp)
		return "", fmt.Errorf("products: %w", err)
	}
	os.Remove(gzPath)

	return target, nil
}
