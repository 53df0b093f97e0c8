package swiftdsv

import (
	"io"
	"maps"
	"slices"
	"strconv"

	"github.com/pkg/errors"
)

// LoadHandler materializes the rows of a Reader into a T.
type LoadHandler[T any] interface {
	Load(r *Reader) (T, error)
}

// SaveHandler writes a T through a Writer.
type SaveHandler[T any] interface {
	Save(v T, w *Writer) error
}

// Load reads src under cfg with h. When src is an io.Closer it is closed
// before Load returns, also when the dialect is rejected.
func Load[T any](src io.Reader, cfg Config, h LoadHandler[T]) (T, error) {
	var zero T
	r, err := NewReader(src, cfg)
	if err != nil {
		closeStream(src)
		return zero, err
	}
	v, err := h.Load(r)
	if cerr := r.Close(); err == nil && cerr != nil {
		err = cerr
	}
	if err != nil {
		return zero, err
	}
	return v, nil
}

// Save writes v to dst under cfg with h, then flushes and closes the Writer.
// When dst is an io.Closer it is closed before Save returns, also when the
// dialect is rejected.
func Save[T any](dst io.Writer, cfg Config, v T, h SaveHandler[T]) error {
	w, err := NewWriter(dst, cfg)
	if err != nil {
		closeStream(dst)
		return err
	}
	err = h.Save(v, w)
	if cerr := w.Close(); err == nil {
		err = cerr
	}
	return err
}

// closeStream closes s if it is an io.Closer. The close error is dropped in
// favor of the error that made the caller give up.
func closeStream(s any) {
	if c, ok := s.(io.Closer); ok {
		_ = c.Close()
	}
}

// ValuesHandler loads and saves rows as [][]*string.
type ValuesHandler struct {
	// Offset skips that many rows before collecting.
	Offset int
	// Limit stops after that many rows; zero means no limit.
	Limit int
}

// Load collects the rows selected by Offset and Limit.
func (h ValuesHandler) Load(r *Reader) ([][]*string, error) {
	var rows [][]*string
	for i := 0; h.Limit <= 0 || len(rows) < h.Limit; i++ {
		row, err := r.ReadValues()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		if i < h.Offset {
			continue
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// Save writes every row in order.
func (h ValuesHandler) Save(rows [][]*string, w *Writer) error {
	return w.WriteAll(rows)
}

// TokensHandler loads and saves rows as [][]Token, keeping line spans and
// the enclosed flag.
type TokensHandler struct{}

// Load reads every remaining row.
func (TokensHandler) Load(r *Reader) ([][]Token, error) {
	return r.ReadAll()
}

// Save writes every row with WriteTokens.
func (TokensHandler) Save(rows [][]Token, w *Writer) error {
	for _, row := range rows {
		if err := w.WriteTokens(row); err != nil {
			return err
		}
	}
	return nil
}

// ColumnNameMapHandler treats the first row as a header and maps every
// following row by column name. On save the header is taken from Header, or
// from the sorted keys of the first map when Header is empty.
type ColumnNameMapHandler struct {
	Header []string
}

// Load reads the header, then one map per row. Missing trailing columns map to nil.
func (h ColumnNameMapHandler) Load(r *Reader) ([]map[string]*string, error) {
	header, err := r.ReadValues()
	if err == io.EOF {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	names := make([]string, len(header))
	for i, name := range header {
		if name == nil {
			names[i] = strconv.Itoa(i)
			continue
		}
		names[i] = *name
	}

	var rows []map[string]*string
	for {
		row, err := r.ReadValues()
		if err == io.EOF {
			return rows, nil
		}
		if err != nil {
			return nil, err
		}
		m := make(map[string]*string, len(names))
		for i, name := range names {
			if i < len(row) {
				m[name] = row[i]
			} else {
				m[name] = nil
			}
		}
		rows = append(rows, m)
	}
}

// Save writes the header, then each map in header order.
func (h ColumnNameMapHandler) Save(rows []map[string]*string, w *Writer) error {
	header := h.Header
	if len(header) == 0 && len(rows) > 0 {
		header = slices.Sorted(maps.Keys(rows[0]))
	}
	if len(header) == 0 {
		return nil
	}
	if err := w.WriteValues(Strings(header...)); err != nil {
		return errors.Wrap(err, "header")
	}
	row := make([]*string, len(header))
	for _, m := range rows {
		for i, name := range header {
			row[i] = m[name]
		}
		if err := w.WriteValues(row); err != nil {
			return err
		}
	}
	return nil
}
