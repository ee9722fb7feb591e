// Package source resolves file paths and URLs into seekable byte sources.
// Remote transports download into a private temporary file so the rest of
// the code only ever random-accesses local bytes.
package source

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strings"
)

var (
	// ErrScheme reports a URL scheme with no registered transport.
	ErrScheme = errors.New("source: unsupported scheme")
	// ErrFetch reports a failed remote download.
	ErrFetch = errors.New("source: fetch failed")
)

// Source is a seekable, sized view of one file's bytes. Close releases any
// backing resources, including temporary files owned by remote transports.
type Source interface {
	io.ReadSeeker
	io.ReaderAt
	io.Closer

	// Size is the total length in bytes.
	Size() int64
	// Local reports whether the bytes live at a caller-visible path on
	// disk, as opposed to a private download.
	Local() bool
	// Name is the original path or URL, for error messages.
	Name() string
}

// Config carries transport settings shared by Open calls.
type Config struct {
	HTTP HTTPConfig `yaml:"http"`
	S3   S3Config   `yaml:"s3"`
}

// Open resolves spec into a Source. Plain paths and file:// URLs open the
// file directly; http(s):// and s3:// download to a temporary file first.
func Open(ctx context.Context, spec string, cfg Config) (Source, error) {
	scheme := ""
	if i := strings.Index(spec, "://"); i > 0 {
		scheme = strings.ToLower(spec[:i])
	}
	switch scheme {
	case "":
		return OpenFile(spec)
	case "file":
		u, err := url.Parse(spec)
		if err != nil {
			return nil, fmt.Errorf("source: parse %q: %w", spec, err)
		}
		return OpenFile(u.Path)
	case "http", "https":
		return OpenHTTP(ctx, spec, cfg.HTTP)
	case "s3":
		return OpenS3(ctx, spec, cfg.S3)
	}
	return nil, fmt.Errorf("%w: %q", ErrScheme, scheme)
}
