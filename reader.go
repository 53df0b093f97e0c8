package swiftdsv

import (
	"bufio"
	"io"
	"log/slog"
	"regexp"
	"strings"
	"sync"
	"unicode"
	"unicode/utf8"
)

const defaultBufferSize = 1 << 12 // 4096 bytes

// fieldEnd tells how a field was terminated.
type fieldEnd int

const (
	endSeparator fieldEnd = iota
	endLine
	endInput
)

// Reader tokenizes a delimiter-separated stream into rows of Tokens.
//
// A Reader owns its source: Close closes it when it implements io.Closer.
// All methods are serialized by an internal lock.
type Reader struct {
	mu  sync.Mutex
	src io.Reader
	in  *bufio.Reader
	cfg Config
	log *slog.Logger

	// ignore holds IgnoreLinePatterns anchored to the whole line.
	ignore []*regexp.Regexp

	// pending is a physical line read ahead for pattern matching; it is
	// consumed before in.
	pending    []rune
	pendingPos int

	buf    []byte
	closed bool
	began  bool
	atEOF  bool

	// lines counts physical lines consumed so far.
	lines          int
	column         int
	lineHasContent bool

	startLine int
	endLine   int
	columns   int
	blank     bool
}

// NewReader returns a Reader over r with the default buffer size.
// It panics if r is nil and returns a *ConfigError for an invalid dialect.
//
// The source is decoded as UTF-8 unless cfg.Encoding says otherwise. Bytes
// that are not valid in that encoding are read as U+FFFD, so such input is
// not reproduced byte for byte by a Writer.
func NewReader(r io.Reader, cfg Config) (*Reader, error) {
	return NewReaderSize(r, defaultBufferSize, cfg)
}

// NewReaderSize is NewReader with an explicit buffer size. A non-positive
// size selects the default.
func NewReaderSize(r io.Reader, size int, cfg Config) (*Reader, error) {
	if r == nil {
		panic("swiftdsv: reader source cannot be nil")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if size <= 0 {
		size = defaultBufferSize
	}
	cfg = cfg.Clone()

	ignore := make([]*regexp.Regexp, 0, len(cfg.IgnoreLinePatterns))
	for _, p := range cfg.IgnoreLinePatterns {
		anchored, err := regexp.Compile(`^(?:` + p.String() + `)$`)
		if err != nil {
			return nil, &ConfigError{Field: "IgnoreLinePatterns", Message: err.Error()}
		}
		ignore = append(ignore, anchored)
	}

	return &Reader{
		src:    r,
		in:     bufio.NewReaderSize(decodeReader(r, cfg.Encoding), size),
		cfg:    cfg,
		log:    cfg.logger().With(slog.String("component", "reader")),
		ignore: ignore,
		buf:    make([]byte, 0, 256),
	}, nil
}

// ReadRow returns the next logical row. It returns nil, io.EOF when the
// stream is exhausted. When VariableColumns is disabled and the row width
// differs from the first row, the row is returned together with a
// *ColumnCountError.
func (r *Reader) ReadRow() ([]Token, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return nil, ErrClosed
	}
	return r.readRow()
}

// ReadValues is ReadRow with the tokens unwrapped to their values.
func (r *Reader) ReadValues() ([]*string, error) {
	row, err := r.ReadRow()
	return Values(row), err
}

// ReadAll reads rows until io.EOF and returns them, or nil and the first
// other error.
func (r *Reader) ReadAll() ([][]Token, error) {
	var rows [][]Token
	for {
		row, err := r.ReadRow()
		if err == io.EOF {
			return rows, nil
		}
		if err != nil {
			return nil, err
		}
		rows = append(rows, row)
	}
}

// LineNumber returns the number of physical lines consumed so far.
func (r *Reader) LineNumber() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.lines
}

// StartLineNumber returns the first physical line of the most recent row.
func (r *Reader) StartLineNumber() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.startLine
}

// EndLineNumber returns the last physical line of the most recent row.
func (r *Reader) EndLineNumber() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.endLine
}

// Close closes the underlying source if it is an io.Closer and releases the
// dialect. A second Close returns ErrClosed.
func (r *Reader) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return ErrClosed
	}
	r.closed = true
	r.cfg = Config{}
	r.ignore = nil
	r.pending = nil
	if c, ok := r.src.(io.Closer); ok {
		return ioError("close", c.Close())
	}
	return nil
}

func (r *Reader) readRow() ([]Token, error) {
	if !r.began {
		if err := r.begin(); err != nil {
			return nil, err
		}
	}

	for {
		if r.atEOF {
			return nil, io.EOF
		}
		if len(r.ignore) > 0 {
			skipped, err := r.skipIgnoredLine()
			if err != nil {
				return nil, err
			}
			if skipped {
				continue
			}
		}

		row, err := r.readRecord()
		if err != nil {
			return nil, err
		}
		if r.cfg.IgnoreEmptyLines && r.blank {
			r.log.Debug("empty line skipped", slog.Int("line", row[0].StartLine))
			continue
		}

		r.startLine = row[0].StartLine
		r.endLine = row[len(row)-1].EndLine

		if !r.cfg.VariableColumns {
			if r.columns == 0 {
				r.columns = len(row)
			} else if len(row) != r.columns {
				r.log.Warn("column count mismatch",
					slog.Int("line", r.endLine), slog.Int("got", len(row)), slog.Int("want", r.columns))
				return row, &ColumnCountError{Tokens: row, Line: r.endLine, Want: r.columns, Got: len(row)}
			}
		}
		return row, nil
	}
}

// begin strips a leading BOM and discards SkipLines physical lines.
func (r *Reader) begin() error {
	r.began = true

	c, err := r.peekRune()
	if err == io.EOF {
		return nil
	}
	if err != nil {
		return err
	}
	if c == byteOrderMark {
		if _, err := r.readRune(); err != nil {
			return err
		}
		r.log.Debug("byte order mark stripped")
	}

	for i := 0; i < r.cfg.SkipLines; i++ {
		line, term, err := r.readPhysicalLine()
		if err != nil {
			return err
		}
		if line == "" && term == "" {
			r.markEOF()
			break
		}
		r.lines++
		r.log.Debug("line skipped", slog.Int("line", r.lines))
		if term == "" {
			r.markEOF()
			break
		}
	}
	return nil
}

// skipIgnoredLine reads the next physical line ahead and drops it when it
// matches an ignore pattern. Otherwise the line is queued for tokenizing.
func (r *Reader) skipIgnoredLine() (bool, error) {
	line, term, err := r.readPhysicalLine()
	if err != nil {
		return false, err
	}
	if line == "" && term == "" {
		r.markEOF()
		return true, nil
	}
	for _, p := range r.ignore {
		if p.MatchString(line) {
			r.lines++
			r.log.Debug("ignored line skipped", slog.Int("line", r.lines), slog.String("pattern", p.String()))
			if term == "" {
				r.markEOF()
			}
			return true, nil
		}
	}
	r.pending = append(r.pending[:0], []rune(line+term)...)
	r.pendingPos = 0
	return false, nil
}

// readRecord tokenizes one logical row.
func (r *Reader) readRecord() ([]Token, error) {
	row := make([]Token, 0, max(r.columns, 8))
	r.blank = false
	for {
		tok, end, n, err := r.readField()
		if err != nil {
			return nil, err
		}
		if len(row) == 0 && n == 0 && end != endSeparator {
			if end == endInput {
				return nil, io.EOF
			}
			r.blank = true
		}
		row = append(row, tok)
		if end != endSeparator {
			return row, nil
		}
	}
}

// readField scans one field. n counts the runes consumed before the
// terminating separator, line break or end of input.
func (r *Reader) readField() (tok Token, end fieldEnd, n int, err error) {
	const (
		stateStart = iota
		stateUnquoted
		stateQuoted
		stateAfterQuote
	)

	sep := r.cfg.Separator
	quote := r.cfg.Quote
	escape := r.cfg.Escape
	quoting := r.cfg.QuoteEnabled()
	escaping := r.cfg.EscapeEnabled()

	r.buf = r.buf[:0]
	tok.StartLine = r.lines + 1
	tok.EndLine = tok.StartLine
	state := stateStart
	quotedLen := 0

scan:
	for {
		line := r.lines + 1
		c, err := r.next()
		if err == io.EOF {
			if state == stateQuoted {
				if r.cfg.StrictQuotes {
					column := r.column + 1
					r.markEOF()
					return tok, endInput, n, &ParseError{StartLine: tok.StartLine, Line: line, Column: column, Err: ErrUnterminatedQuote}
				}
				quotedLen = len(r.buf)
			}
			r.markEOF()
			end = endInput
			break scan
		}
		if err != nil {
			return tok, endInput, n, err
		}

		if state == stateQuoted {
			n++
			tok.EndLine = line
			switch {
			case c == quote:
				next, err := r.peekRune()
				if err != nil && err != io.EOF {
					return tok, endInput, n, err
				}
				if err == nil && next == quote {
					if _, err := r.next(); err != nil {
						return tok, endInput, n, err
					}
					n++
					r.buf = utf8.AppendRune(r.buf, quote)
					continue
				}
				state = stateAfterQuote
				quotedLen = len(r.buf)
			case escaping && c == escape:
				next, err := r.peekRune()
				if err != nil && err != io.EOF {
					return tok, endInput, n, err
				}
				if err == nil && (next == quote || next == escape) {
					if _, err := r.next(); err != nil {
						return tok, endInput, n, err
					}
					n++
					r.buf = utf8.AppendRune(r.buf, next)
					continue
				}
				r.buf = utf8.AppendRune(r.buf, c)
			case c == '\r' || c == '\n':
				lf, err := r.endPhysicalLine(c)
				if err != nil {
					return tok, endInput, n, err
				}
				if lf {
					n++
				}
				switch {
				case r.cfg.BreakString != nil:
					r.buf = append(r.buf, *r.cfg.BreakString...)
				case lf:
					r.buf = append(r.buf, '\r', '\n')
				default:
					r.buf = utf8.AppendRune(r.buf, c)
				}
			default:
				r.buf = utf8.AppendRune(r.buf, c)
			}
			continue
		}

		// Outside quotes the separator and line breaks end the field.
		if c == sep {
			end = endSeparator
			break scan
		}
		if c == '\r' || c == '\n' {
			if _, err := r.endPhysicalLine(c); err != nil {
				return tok, endInput, n, err
			}
			end = endLine
			break scan
		}
		n++
		tok.EndLine = line

		if state == stateStart {
			if r.cfg.IgnoreLeadingWhitespaces && unicode.IsSpace(c) {
				continue
			}
			if quoting && c == quote {
				tok.Enclosed = true
				state = stateQuoted
				continue
			}
			state = stateUnquoted
		}

		switch {
		case quoting && c == quote:
			if r.cfg.StrictQuotes {
				column := r.column
				if err := r.discardLine(); err != nil {
					return tok, endInput, n, err
				}
				return tok, endLine, n, &ParseError{StartLine: tok.StartLine, Line: line, Column: column, Err: ErrBareQuote}
			}
			r.buf = utf8.AppendRune(r.buf, c)
		case escaping && !quoting && c == escape:
			next, err := r.peekRune()
			if err != nil && err != io.EOF {
				return tok, endInput, n, err
			}
			if err == nil && (next == sep || next == escape || (quote != 0 && next == quote)) {
				if _, err := r.next(); err != nil {
					return tok, endInput, n, err
				}
				n++
				r.buf = utf8.AppendRune(r.buf, next)
				continue
			}
			r.buf = utf8.AppendRune(r.buf, c)
		case state == stateAfterQuote && r.cfg.StrictQuotes && !unicode.IsSpace(c):
			column := r.column
			if err := r.discardLine(); err != nil {
				return tok, endInput, n, err
			}
			return tok, endLine, n, &ParseError{StartLine: tok.StartLine, Line: line, Column: column, Err: ErrBareQuote}
		default:
			r.buf = utf8.AppendRune(r.buf, c)
		}
	}

	value := r.buf
	if r.cfg.IgnoreTrailingWhitespaces {
		floor := 0
		if tok.Enclosed {
			floor = quotedLen
		}
		value = trimTrailingSpace(value, floor)
	}
	s := string(value)
	if !tok.Enclosed && r.isNull(s) {
		return tok, end, n, nil
	}
	tok.Value = &s
	return tok, end, n, nil
}

func (r *Reader) isNull(s string) bool {
	null := r.cfg.NullString
	if null == nil {
		return false
	}
	if r.cfg.IgnoreCaseNullString {
		return strings.EqualFold(s, *null)
	}
	return s == *null
}

// next reads one rune and advances the column for anything but a line break.
func (r *Reader) next() (rune, error) {
	c, err := r.readRune()
	if err != nil {
		return c, err
	}
	if c != '\r' && c != '\n' {
		r.column++
		r.lineHasContent = true
	}
	return c, nil
}

// endPhysicalLine accounts for a line break whose first rune c was already
// read, consuming the LF of a CRLF pair. It reports whether a LF was joined.
func (r *Reader) endPhysicalLine(c rune) (bool, error) {
	joined := false
	if c == '\r' {
		next, err := r.peekRune()
		if err != nil && err != io.EOF {
			return false, err
		}
		if err == nil && next == '\n' {
			if _, err := r.readRune(); err != nil {
				return false, err
			}
			joined = true
		}
	}
	r.lines++
	r.column = 0
	r.lineHasContent = false
	return joined, nil
}

// markEOF counts an unterminated last line and stops further reads.
func (r *Reader) markEOF() {
	if r.lineHasContent {
		r.lines++
		r.lineHasContent = false
	}
	r.column = 0
	r.atEOF = true
}

// discardLine drops the rest of the current physical line.
func (r *Reader) discardLine() error {
	for {
		c, err := r.next()
		if err == io.EOF {
			r.markEOF()
			return nil
		}
		if err != nil {
			return err
		}
		if c == '\r' || c == '\n' {
			_, err := r.endPhysicalLine(c)
			return err
		}
	}
}

// readPhysicalLine reads raw text up to and including the next line break
// without touching the line counters. At EOF term is empty.
func (r *Reader) readPhysicalLine() (line, term string, err error) {
	var sb strings.Builder
	for {
		c, err := r.readRune()
		if err == io.EOF {
			return sb.String(), "", nil
		}
		if err != nil {
			return "", "", err
		}
		switch c {
		case '\n':
			return sb.String(), "\n", nil
		case '\r':
			next, err := r.peekRune()
			if err != nil && err != io.EOF {
				return "", "", err
			}
			if err == nil && next == '\n' {
				if _, err := r.readRune(); err != nil {
					return "", "", err
				}
				return sb.String(), "\r\n", nil
			}
			return sb.String(), "\r", nil
		default:
			sb.WriteRune(c)
		}
	}
}

func (r *Reader) readRune() (rune, error) {
	if r.pendingPos < len(r.pending) {
		c := r.pending[r.pendingPos]
		r.pendingPos++
		if r.pendingPos == len(r.pending) {
			r.pending = r.pending[:0]
			r.pendingPos = 0
		}
		return c, nil
	}
	c, _, err := r.in.ReadRune()
	if err != nil {
		return 0, ioError("read", err)
	}
	return c, nil
}

func (r *Reader) peekRune() (rune, error) {
	if r.pendingPos < len(r.pending) {
		return r.pending[r.pendingPos], nil
	}
	c, _, err := r.in.ReadRune()
	if err != nil {
		return 0, ioError("read", err)
	}
	if err := r.in.UnreadRune(); err != nil {
		return 0, ioError("read", err)
	}
	return c, nil
}

// trimTrailingSpace removes trailing white space from b, never cutting below floor.
func trimTrailingSpace(b []byte, floor int) []byte {
	for len(b) > floor {
		c, size := utf8.DecodeLastRune(b)
		if !unicode.IsSpace(c) {
			break
		}
		b = b[:len(b)-size]
	}
	return b
}
