package swiftdsv

import (
	"fmt"
	"log/slog"
	"regexp"
	"runtime"
	"slices"

	"golang.org/x/text/encoding"
)

const (
	defaultSeparator = ','
	defaultQuote     = '"'
	defaultEscape    = '\\'
)

// QuotePolicy governs when the writer encloses a value in quotes.
type QuotePolicy int

const (
	// QuoteAll encloses every non-null value.
	QuoteAll QuotePolicy = iota
	// QuoteMinimal encloses values containing the separator, the quote, CR or LF.
	QuoteMinimal
	// QuoteColumn encloses tokens that were enclosed at the source, and
	// otherwise falls back to QuoteMinimal.
	QuoteColumn
)

// String returns the lower-case policy name.
func (p QuotePolicy) String() string {
	switch p {
	case QuoteAll:
		return "all"
	case QuoteMinimal:
		return "minimal"
	case QuoteColumn:
		return "column"
	default:
		return fmt.Sprintf("QuotePolicy(%d)", int(p))
	}
}

// ParseQuotePolicy resolves a policy name as printed by QuotePolicy.String.
func ParseQuotePolicy(name string) (QuotePolicy, error) {
	switch name {
	case "all", "ALL":
		return QuoteAll, nil
	case "minimal", "MINIMAL":
		return QuoteMinimal, nil
	case "column", "COLUMN":
		return QuoteColumn, nil
	}
	return QuoteAll, &ConfigError{Field: "QuotePolicy", Message: fmt.Sprintf("unknown policy %q", name)}
}

// Config is a dialect: punctuation and policies shared by Reader and Writer.
//
// Build a Config with DefaultConfig or NewConfig and the With* methods. The
// methods have value receivers, so a Config handed to NewReader or NewWriter
// is a frozen copy and later changes to the caller's value do not leak into
// open streams.
type Config struct {
	// Separator is the field delimiter. Default is ','.
	Separator rune
	// Quote is the enclosing character. Zero disables quoting.
	Quote rune
	// Escape is the escape character. Zero disables escaping.
	Escape rune
	// QuoteDisabled turns quoting off regardless of Quote.
	QuoteDisabled bool
	// EscapeDisabled turns escaping off regardless of Escape.
	EscapeDisabled bool

	// BreakString, if set, replaces every line break embedded in a quoted field on read.
	BreakString *string
	// NullString, if set, is read back as a logical null and written for nulls.
	NullString *string
	// IgnoreCaseNullString matches NullString case-insensitively.
	IgnoreCaseNullString bool

	IgnoreLeadingWhitespaces  bool
	IgnoreTrailingWhitespaces bool
	// IgnoreEmptyLines skips lines that hold a single empty unquoted field.
	IgnoreEmptyLines bool
	// IgnoreLinePatterns skips lines whose raw text fully matches any pattern.
	IgnoreLinePatterns []*regexp.Regexp
	// SkipLines discards that many physical lines before parsing begins.
	SkipLines int

	// LineSeparator terminates rows on write. Default is the platform newline.
	LineSeparator string
	QuotePolicy   QuotePolicy
	// UTF8BOMPolicy makes the writer emit a BOM once when the output is UTF-8.
	UTF8BOMPolicy bool
	// VariableColumns allows rows of different widths. When false the first
	// row fixes the width.
	VariableColumns bool

	// StrictQuotes turns an unterminated quoted field at EOF and a bare quote
	// inside an unquoted field into a *ParseError.
	StrictQuotes bool
	// Encoding is the stream charset. Nil means UTF-8.
	Encoding encoding.Encoding
	// Logger receives debug events. Nil discards them.
	Logger *slog.Logger
}

// DefaultConfig returns the dialect of the no-argument form: comma separated,
// with the quote and escape characters set but both disabled.
func DefaultConfig() Config {
	return Config{
		Separator:       defaultSeparator,
		Quote:           defaultQuote,
		Escape:          defaultEscape,
		QuoteDisabled:   true,
		EscapeDisabled:  true,
		LineSeparator:   platformLineSeparator(),
		QuotePolicy:     QuoteAll,
		VariableColumns: true,
	}
}

// NewConfig returns a dialect with the given characters. Quoting and escaping
// are enabled unless the corresponding character is zero.
func NewConfig(separator, quote, escape rune) Config {
	cfg := DefaultConfig()
	cfg.Separator = separator
	cfg.Quote = quote
	cfg.Escape = escape
	cfg.QuoteDisabled = quote == 0
	cfg.EscapeDisabled = escape == 0
	return cfg
}

func platformLineSeparator() string {
	if runtime.GOOS == "windows" {
		return "\r\n"
	}
	return "\n"
}

// QuoteEnabled reports whether fields may be quote-delimited.
func (c Config) QuoteEnabled() bool {
	return !c.QuoteDisabled && c.Quote != 0
}

// EscapeEnabled reports whether the escape character is active.
func (c Config) EscapeEnabled() bool {
	return !c.EscapeDisabled && c.Escape != 0
}

// Validate checks the dialect for colliding or illegal characters.
func (c Config) Validate() error {
	if c.Separator == 0 || isLineBreak(c.Separator) {
		return &ConfigError{Field: "Separator", Message: "must not be NUL, CR or LF"}
	}
	if c.QuoteEnabled() {
		if isLineBreak(c.Quote) {
			return &ConfigError{Field: "Quote", Message: "must not be CR or LF"}
		}
		if c.Quote == c.Separator {
			return &ConfigError{Field: "Quote", Message: "same as separator"}
		}
	}
	if c.EscapeEnabled() {
		if isLineBreak(c.Escape) {
			return &ConfigError{Field: "Escape", Message: "must not be CR or LF"}
		}
		if c.Escape == c.Separator {
			return &ConfigError{Field: "Escape", Message: "same as separator"}
		}
	}
	if c.SkipLines < 0 {
		return &ConfigError{Field: "SkipLines", Message: "must not be negative"}
	}
	for i, p := range c.IgnoreLinePatterns {
		if p == nil {
			return &ConfigError{Field: "IgnoreLinePatterns", Message: fmt.Sprintf("pattern %d is nil", i)}
		}
	}
	return nil
}

// Clone returns a deep copy of c.
func (c Config) Clone() Config {
	clone := c
	if c.BreakString != nil {
		clone.BreakString = String(*c.BreakString)
	}
	if c.NullString != nil {
		clone.NullString = String(*c.NullString)
	}
	clone.IgnoreLinePatterns = slices.Clone(c.IgnoreLinePatterns)
	return clone
}

func (c Config) logger() *slog.Logger {
	if c.Logger == nil {
		return discardLogger
	}
	return c.Logger
}

func isLineBreak(r rune) bool {
	return r == '\r' || r == '\n'
}

// WithSeparator sets the field delimiter.
func (c Config) WithSeparator(separator rune) Config {
	c.Separator = separator
	return c
}

// WithQuote sets the quote character and enables quoting unless quote is zero.
func (c Config) WithQuote(quote rune) Config {
	c.Quote = quote
	c.QuoteDisabled = quote == 0
	return c
}

// WithEscape sets the escape character and enables escaping unless escape is zero.
func (c Config) WithEscape(escape rune) Config {
	c.Escape = escape
	c.EscapeDisabled = escape == 0
	return c
}

// WithQuoteDisabled turns quoting off or back on without touching Quote.
func (c Config) WithQuoteDisabled(disabled bool) Config {
	c.QuoteDisabled = disabled
	return c
}

// WithEscapeDisabled turns escaping off or back on without touching Escape.
func (c Config) WithEscapeDisabled(disabled bool) Config {
	c.EscapeDisabled = disabled
	return c
}

// WithBreakString rewrites line breaks inside quoted fields to s on read.
func (c Config) WithBreakString(s string) Config {
	c.BreakString = String(s)
	return c
}

// WithNullString sets the text that stands for a logical null.
func (c Config) WithNullString(s string) Config {
	c.NullString = String(s)
	return c
}

// WithIgnoreCaseNullString matches the null string case-insensitively.
func (c Config) WithIgnoreCaseNullString(ignoreCase bool) Config {
	c.IgnoreCaseNullString = ignoreCase
	return c
}

// WithIgnoreLeadingWhitespaces trims white space before unquoted content.
func (c Config) WithIgnoreLeadingWhitespaces(ignore bool) Config {
	c.IgnoreLeadingWhitespaces = ignore
	return c
}

// WithIgnoreTrailingWhitespaces trims white space after field content.
func (c Config) WithIgnoreTrailingWhitespaces(ignore bool) Config {
	c.IgnoreTrailingWhitespaces = ignore
	return c
}

// WithIgnoreEmptyLines drops blank lines on read and empty rows on write.
func (c Config) WithIgnoreEmptyLines(ignore bool) Config {
	c.IgnoreEmptyLines = ignore
	return c
}

// WithIgnoreLinePatterns appends patterns; it does not share the caller's slice.
func (c Config) WithIgnoreLinePatterns(patterns ...*regexp.Regexp) Config {
	c.IgnoreLinePatterns = append(slices.Clone(c.IgnoreLinePatterns), patterns...)
	return c
}

// WithSkipLines discards n physical lines before parsing.
func (c Config) WithSkipLines(n int) Config {
	c.SkipLines = n
	return c
}

// WithLineSeparator sets the row terminator used by the Writer.
func (c Config) WithLineSeparator(separator string) Config {
	c.LineSeparator = separator
	return c
}

// WithQuotePolicy sets when the Writer encloses values.
func (c Config) WithQuotePolicy(policy QuotePolicy) Config {
	c.QuotePolicy = policy
	return c
}

// WithUTF8BOMPolicy makes the Writer start UTF-8 output with a BOM.
func (c Config) WithUTF8BOMPolicy(bom bool) Config {
	c.UTF8BOMPolicy = bom
	return c
}

// WithVariableColumns allows or forbids rows of differing width.
func (c Config) WithVariableColumns(variable bool) Config {
	c.VariableColumns = variable
	return c
}

// WithStrictQuotes reports malformed quoting as *ParseError.
func (c Config) WithStrictQuotes(strict bool) Config {
	c.StrictQuotes = strict
	return c
}

// WithEncoding sets the stream charset; nil means UTF-8.
func (c Config) WithEncoding(enc encoding.Encoding) Config {
	c.Encoding = enc
	return c
}

// WithLogger sets the destination for debug events.
func (c Config) WithLogger(logger *slog.Logger) Config {
	c.Logger = logger
	return c
}
