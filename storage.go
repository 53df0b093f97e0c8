package swiftdsv

import (
	"context"
	"io"
	"strings"

	"github.com/google/uuid"
	"github.com/klauspost/compress/gzip"
	"github.com/pkg/errors"
	"github.com/viant/afs"
	"github.com/viant/afs/file"
	"github.com/viant/afs/option"
)

const gzipExt = ".gz"

// LoadURL reads the object at URL with h. Any scheme registered with afs is
// accepted; a ".gz" suffix is decompressed on the fly.
func LoadURL[T any](ctx context.Context, URL string, cfg Config, h LoadHandler[T]) (T, error) {
	var zero T
	fs := afs.New()
	rc, err := fs.OpenURL(ctx, URL)
	if err != nil {
		return zero, errors.Wrapf(err, "swiftdsv: open %v", URL)
	}
	src := io.ReadCloser(rc)
	if strings.HasSuffix(URL, gzipExt) {
		gz, err := gzip.NewReader(rc)
		if err != nil {
			_ = rc.Close()
			return zero, errors.Wrapf(err, "swiftdsv: gzip %v", URL)
		}
		src = &readCloser{Reader: gz, closers: []io.Closer{gz, rc}}
	}
	return Load(src, cfg, h)
}

// SaveURL writes v to URL with h. The data goes to a temporary sibling first
// and is moved over URL only once everything was written; on failure the
// temporary object is deleted. A ".gz" suffix compresses the output.
func SaveURL[T any](ctx context.Context, URL string, cfg Config, v T, h SaveHandler[T]) error {
	fs := afs.New()
	tempURL := URL + "." + strings.ReplaceAll(uuid.New().String(), "-", "") + ".tmp"

	wc, err := fs.NewWriter(ctx, tempURL, file.DefaultFileOsMode, &option.SkipChecksum{Skip: true})
	if err != nil {
		return errors.Wrapf(err, "swiftdsv: create %v", tempURL)
	}
	if wc == nil {
		return errors.Errorf("swiftdsv: invalid writer location: %v", tempURL)
	}
	dst := io.WriteCloser(wc)
	if strings.HasSuffix(URL, gzipExt) {
		gz := gzip.NewWriter(wc)
		dst = &writeCloser{Writer: gz, closers: []io.Closer{gz, wc}}
	}

	if err := Save(dst, cfg, v, h); err != nil {
		_ = fs.Delete(ctx, tempURL)
		return err
	}
	if err := fs.Move(ctx, tempURL, URL); err != nil {
		_ = fs.Delete(ctx, tempURL)
		return errors.Wrapf(err, "swiftdsv: move %v to %v", tempURL, URL)
	}
	return nil
}

type readCloser struct {
	io.Reader
	closers []io.Closer
}

func (c *readCloser) Close() error {
	return closeAll(c.closers)
}

type writeCloser struct {
	io.Writer
	closers []io.Closer
}

func (c *writeCloser) Close() error {
	return closeAll(c.closers)
}

// closeAll closes every closer in order and returns the first error.
func closeAll(closers []io.Closer) error {
	var first error
	for _, c := range closers {
		if err := c.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}
