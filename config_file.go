package swiftdsv

import (
	"context"
	"fmt"
	"regexp"
	"unicode/utf8"

	"github.com/pkg/errors"
	"github.com/viant/afs"
	"gopkg.in/yaml.v3"
)

// dialectFile is the YAML (or JSON) form of a Config. Absent keys keep the
// values of NewConfig(',', '"', '\\').
type dialectFile struct {
	Separator                 *string  `yaml:"separator" json:"separator"`
	Quote                     *string  `yaml:"quote" json:"quote"`
	Escape                    *string  `yaml:"escape" json:"escape"`
	QuoteDisabled             *bool    `yaml:"quoteDisabled" json:"quoteDisabled"`
	EscapeDisabled            *bool    `yaml:"escapeDisabled" json:"escapeDisabled"`
	BreakString               *string  `yaml:"breakString" json:"breakString"`
	NullString                *string  `yaml:"nullString" json:"nullString"`
	IgnoreCaseNullString      bool     `yaml:"ignoreCaseNullString" json:"ignoreCaseNullString"`
	IgnoreLeadingWhitespaces  bool     `yaml:"ignoreLeadingWhitespaces" json:"ignoreLeadingWhitespaces"`
	IgnoreTrailingWhitespaces bool     `yaml:"ignoreTrailingWhitespaces" json:"ignoreTrailingWhitespaces"`
	IgnoreEmptyLines          bool     `yaml:"ignoreEmptyLines" json:"ignoreEmptyLines"`
	IgnoreLinePatterns        []string `yaml:"ignoreLinePatterns" json:"ignoreLinePatterns"`
	SkipLines                 int      `yaml:"skipLines" json:"skipLines"`
	LineSeparator             *string  `yaml:"lineSeparator" json:"lineSeparator"`
	QuotePolicy               string   `yaml:"quotePolicy" json:"quotePolicy"`
	UTF8BOM                   bool     `yaml:"utf8BOM" json:"utf8BOM"`
	VariableColumns           *bool    `yaml:"variableColumns" json:"variableColumns"`
	StrictQuotes              bool     `yaml:"strictQuotes" json:"strictQuotes"`
	Charset                   string   `yaml:"charset" json:"charset"`
}

// ParseConfig decodes a YAML or JSON dialect document and validates it.
//
//	separator: ";"
//	nullString: "NULL"
//	ignoreLinePatterns: ["#.*"]
//	quotePolicy: minimal
//	charset: windows-1252
func ParseConfig(data []byte) (Config, error) {
	var f dialectFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return Config{}, errors.Wrap(err, "swiftdsv: decode dialect")
	}
	cfg, err := f.config()
	if err != nil {
		return Config{}, err
	}
	return cfg, cfg.Validate()
}

// LoadConfig downloads and parses the dialect document at URL.
func LoadConfig(ctx context.Context, URL string) (Config, error) {
	data, err := afs.New().DownloadWithURL(ctx, URL)
	if err != nil {
		return Config{}, errors.Wrapf(err, "swiftdsv: load dialect %v", URL)
	}
	return ParseConfig(data)
}

func (f *dialectFile) config() (Config, error) {
	cfg := NewConfig(defaultSeparator, defaultQuote, defaultEscape)

	if f.Separator != nil {
		c, err := singleRune("separator", *f.Separator)
		if err != nil {
			return Config{}, err
		}
		cfg = cfg.WithSeparator(c)
	}
	if f.Quote != nil {
		c, err := optionalRune("quote", *f.Quote)
		if err != nil {
			return Config{}, err
		}
		cfg = cfg.WithQuote(c)
	}
	if f.Escape != nil {
		c, err := optionalRune("escape", *f.Escape)
		if err != nil {
			return Config{}, err
		}
		cfg = cfg.WithEscape(c)
	}
	if f.QuoteDisabled != nil {
		cfg = cfg.WithQuoteDisabled(*f.QuoteDisabled)
	}
	if f.EscapeDisabled != nil {
		cfg = cfg.WithEscapeDisabled(*f.EscapeDisabled)
	}
	if f.BreakString != nil {
		cfg = cfg.WithBreakString(*f.BreakString)
	}
	if f.NullString != nil {
		cfg = cfg.WithNullString(*f.NullString)
	}
	for _, expr := range f.IgnoreLinePatterns {
		p, err := regexp.Compile(expr)
		if err != nil {
			return Config{}, &ConfigError{Field: "IgnoreLinePatterns", Message: err.Error()}
		}
		cfg = cfg.WithIgnoreLinePatterns(p)
	}
	if f.LineSeparator != nil {
		cfg = cfg.WithLineSeparator(*f.LineSeparator)
	}
	if f.QuotePolicy != "" {
		policy, err := ParseQuotePolicy(f.QuotePolicy)
		if err != nil {
			return Config{}, err
		}
		cfg = cfg.WithQuotePolicy(policy)
	}
	if f.VariableColumns != nil {
		cfg = cfg.WithVariableColumns(*f.VariableColumns)
	}
	if f.Charset != "" {
		enc, err := LookupEncoding(f.Charset)
		if err != nil {
			return Config{}, err
		}
		cfg = cfg.WithEncoding(enc)
	}

	return cfg.
		WithIgnoreCaseNullString(f.IgnoreCaseNullString).
		WithIgnoreLeadingWhitespaces(f.IgnoreLeadingWhitespaces).
		WithIgnoreTrailingWhitespaces(f.IgnoreTrailingWhitespaces).
		WithIgnoreEmptyLines(f.IgnoreEmptyLines).
		WithSkipLines(f.SkipLines).
		WithUTF8BOMPolicy(f.UTF8BOM).
		WithStrictQuotes(f.StrictQuotes), nil
}

func singleRune(field, s string) (rune, error) {
	if utf8.RuneCountInString(s) != 1 {
		return 0, &ConfigError{Field: field, Message: fmt.Sprintf("want exactly one character, got %q", s)}
	}
	c, _ := utf8.DecodeRuneInString(s)
	return c, nil
}

// optionalRune is singleRune where the empty string means disabled.
func optionalRune(field, s string) (rune, error) {
	if s == "" {
		return 0, nil
	}
	return singleRune(field, s)
}
