package swiftdsv

import (
	"bufio"
	"io"
	"strings"
	"sync"
	"unicode/utf8"
)

// Writer serializes rows under a dialect with buffered output.
//
// A Writer owns its destination: Close flushes and closes it when it
// implements io.Closer. All methods are serialized by an internal lock.
type Writer struct {
	mu  sync.Mutex
	out io.Writer
	dst *bufio.Writer
	// tail flushes a charset transformer installed between dst and out.
	tail io.Closer
	cfg  Config

	line    []byte
	began   bool
	closed  bool
	columns int

	err error
}

// NewWriter returns a Writer over w with the default buffer size.
// It panics if w is nil and returns a *ConfigError for an invalid dialect.
func NewWriter(w io.Writer, cfg Config) (*Writer, error) {
	return NewWriterSize(w, defaultBufferSize, cfg)
}

// NewWriterSize is NewWriter with an explicit buffer size. A non-positive
// size selects the default.
func NewWriterSize(w io.Writer, size int, cfg Config) (*Writer, error) {
	if w == nil {
		panic("swiftdsv: writer destination cannot be nil")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if size <= 0 {
		size = defaultBufferSize
	}
	cfg = cfg.Clone()
	if cfg.LineSeparator == "" {
		cfg.LineSeparator = platformLineSeparator()
	}

	encoded, tail := encodeWriter(w, cfg.Encoding)
	return &Writer{
		out:  w,
		dst:  bufio.NewWriterSize(encoded, size),
		tail: tail,
		cfg:  cfg,
		line: make([]byte, 0, 256),
	}, nil
}

// WriteValues writes one row. A nil row writes a single empty line; an empty
// non-nil row writes nothing when IgnoreEmptyLines is set.
func (w *Writer) WriteValues(values []*string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.writeRow(Tokens(values), false)
}

// WriteTokens writes one row of tokens. Under QuoteColumn a token that was
// enclosed at the source stays enclosed.
func (w *Writer) WriteTokens(tokens []Token) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.writeRow(tokens, true)
}

// WriteAll writes multiple rows, stopping at the first error.
func (w *Writer) WriteAll(rows [][]*string) error {
	for _, row := range rows {
		if err := w.WriteValues(row); err != nil {
			return err
		}
	}
	return nil
}

// Flush flushes pending buffered data to the underlying writer.
func (w *Writer) Flush() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return ErrClosed
	}
	return w.flush()
}

// Error reports the first I/O error encountered by the writer.
func (w *Writer) Error() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.err
}

// Close flushes, closes the destination if it is an io.Closer and releases
// the dialect. A second Close returns ErrClosed.
func (w *Writer) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return ErrClosed
	}
	w.closed = true
	w.cfg = Config{}

	err := w.flush()
	if w.tail != nil {
		if cerr := w.tail.Close(); err == nil {
			err = ioError("close", cerr)
		}
	}
	if c, ok := w.out.(io.Closer); ok {
		if cerr := c.Close(); err == nil {
			err = ioError("close", cerr)
		}
	}
	return err
}

func (w *Writer) flush() error {
	if w.err != nil {
		return w.err
	}
	if err := w.dst.Flush(); err != nil {
		w.err = ioError("flush", err)
		return w.err
	}
	return nil
}

func (w *Writer) writeRow(tokens []Token, fromTokens bool) error {
	if w.closed {
		return ErrClosed
	}
	if w.err != nil {
		return w.err
	}
	if !w.began {
		w.began = true
		if w.cfg.UTF8BOMPolicy && IsUTF8(w.cfg.Encoding) {
			if _, err := w.dst.WriteRune(byteOrderMark); err != nil {
				w.err = ioError("write", err)
				return w.err
			}
		}
	}

	w.line = w.line[:0]
	if tokens != nil {
		if len(tokens) == 0 && w.cfg.IgnoreEmptyLines {
			return nil
		}
		if !w.cfg.VariableColumns {
			if w.columns == 0 {
				w.columns = len(tokens)
			} else if len(tokens) != w.columns {
				cerr := &ColumnCountError{Values: Values(tokens), Want: w.columns, Got: len(tokens)}
				if fromTokens {
					cerr.Tokens = tokens
				}
				return cerr
			}
		}
		for i := range tokens {
			if i > 0 {
				w.line = utf8.AppendRune(w.line, w.cfg.Separator)
			}
			if err := w.appendField(tokens[i]); err != nil {
				return err
			}
		}
	}
	w.line = append(w.line, w.cfg.LineSeparator...)

	if _, err := w.dst.Write(w.line); err != nil {
		w.err = ioError("write", err)
		return w.err
	}
	return nil
}

func (w *Writer) appendField(tok Token) error {
	if tok.Value == nil {
		if w.cfg.NullString != nil {
			w.line = append(w.line, *w.cfg.NullString...)
		}
		return nil
	}
	field := *tok.Value
	sep := w.cfg.Separator

	if !w.cfg.QuoteEnabled() {
		if !w.cfg.EscapeEnabled() {
			if strings.ContainsRune(field, sep) {
				return &IOError{Op: "write", Err: ErrUnescapable}
			}
			w.line = append(w.line, field...)
			return nil
		}
		escape := w.cfg.Escape
		for _, c := range field {
			if c == sep || c == escape {
				w.line = utf8.AppendRune(w.line, escape)
			}
			w.line = utf8.AppendRune(w.line, c)
		}
		return nil
	}

	quote := w.cfg.Quote
	var needsQuote bool
	switch w.cfg.QuotePolicy {
	case QuoteAll:
		needsQuote = true
	case QuoteColumn:
		needsQuote = tok.Enclosed || fieldNeedsQuote(field, sep, quote)
	default:
		needsQuote = fieldNeedsQuote(field, sep, quote)
	}
	if !needsQuote {
		w.line = append(w.line, field...)
		return nil
	}

	// Inside quotes a quote is prefixed with the escape character, or doubled
	// when escaping is off. The escape character itself is escaped too.
	escaping := w.cfg.EscapeEnabled()
	escape := quote
	if escaping {
		escape = w.cfg.Escape
	}
	w.line = utf8.AppendRune(w.line, quote)
	start := 0
	for i, c := range field {
		if c == quote || (escaping && c == escape) {
			w.line = append(w.line, field[start:i]...)
			w.line = utf8.AppendRune(w.line, escape)
			w.line = utf8.AppendRune(w.line, c)
			start = i + utf8.RuneLen(c)
		}
	}
	w.line = append(w.line, field[start:]...)
	w.line = utf8.AppendRune(w.line, quote)
	return nil
}

func fieldNeedsQuote(field string, sep, quote rune) bool {
	for _, c := range field {
		switch c {
		case sep, quote, '\n', '\r':
			return true
		}
	}
	return false
}
