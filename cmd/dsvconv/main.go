// Command dsvconv converts delimiter-separated files from one dialect to another.
//
//	dsvconv --sep=';' --out-sep=tab --quote-policy=minimal in.csv out.tsv
//	dsvconv --config=excel.yaml --out-config=unix.yaml - -
package main

import (
	"context"
	"io"
	"log/slog"
	"os"
	"unicode/utf8"

	"github.com/pkg/errors"
	"github.com/viant/afs"
	"gopkg.in/alecthomas/kingpin.v2"

	"github.com/oleg578/swiftdsv"
)

var (
	app = kingpin.New("dsvconv", "Re-dialect delimiter-separated values.")

	inConfig     = app.Flag("config", "YAML dialect file (or URL) for the input.").String()
	outConfig    = app.Flag("out-config", "YAML dialect file (or URL) for the output. Defaults to the input dialect.").String()
	separator    = app.Flag("sep", "Input separator; 'tab' for a tab.").Short('s').String()
	outSeparator = app.Flag("out-sep", "Output separator; 'tab' for a tab.").Short('o').String()
	quotePolicy  = app.Flag("quote-policy", "Output quote policy: all, minimal or column.").Enum("all", "minimal", "column")
	nullString   = app.Flag("null", "Null string for both dialects.").String()
	skipLines    = app.Flag("skip", "Physical lines to skip before parsing.").Int()
	ignoreEmpty  = app.Flag("ignore-empty", "Drop blank lines.").Bool()
	strict       = app.Flag("strict", "Fail on unterminated and bare quotes.").Bool()
	fixedColumns = app.Flag("fixed-columns", "Fail when a row's width differs from the first row.").Bool()
	charset      = app.Flag("charset", "Input charset, an IANA name such as windows-1252.").String()
	debug        = app.Flag("debug", "Log skipped lines and other reader events to stderr.").Bool()

	input  = app.Arg("input", "Input file or URL, '-' for stdin.").Default("-").String()
	output = app.Arg("output", "Output file, '-' for stdout.").Default("-").String()
)

func main() {
	kingpin.MustParse(app.Parse(os.Args[1:]))

	level := slog.LevelWarn
	if *debug {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	ctx := context.Background()
	inCfg, outCfg, err := dialects(ctx, logger)
	app.FatalIfError(err, "dialect")

	src, err := openInput(ctx, *input)
	app.FatalIfError(err, "input")
	dst, err := openOutput(*output)
	app.FatalIfError(err, "output")

	n, err := convert(src, dst, inCfg, outCfg)
	app.FatalIfError(err, "convert")
	logger.Debug("done", slog.Int("rows", n))
}

func dialects(ctx context.Context, logger *slog.Logger) (swiftdsv.Config, swiftdsv.Config, error) {
	in := swiftdsv.NewConfig(',', '"', '\\')
	if *inConfig != "" {
		cfg, err := swiftdsv.LoadConfig(ctx, *inConfig)
		if err != nil {
			return in, in, err
		}
		in = cfg
	}
	if *separator != "" {
		c, err := parseSeparator(*separator)
		if err != nil {
			return in, in, err
		}
		in = in.WithSeparator(c)
	}
	if *nullString != "" {
		in = in.WithNullString(*nullString)
	}
	if *charset != "" {
		enc, err := swiftdsv.LookupEncoding(*charset)
		if err != nil {
			return in, in, err
		}
		in = in.WithEncoding(enc)
	}
	in = in.WithLogger(logger)
	if *skipLines > 0 {
		in = in.WithSkipLines(*skipLines)
	}
	if *ignoreEmpty {
		in = in.WithIgnoreEmptyLines(true)
	}
	if *strict {
		in = in.WithStrictQuotes(true)
	}
	if *fixedColumns {
		in = in.WithVariableColumns(false)
	}

	out := in.WithEncoding(nil).WithSkipLines(0).WithLineSeparator("\n")
	if *outConfig != "" {
		cfg, err := swiftdsv.LoadConfig(ctx, *outConfig)
		if err != nil {
			return in, in, err
		}
		out = cfg
	}
	if *outSeparator != "" {
		c, err := parseSeparator(*outSeparator)
		if err != nil {
			return in, in, err
		}
		out = out.WithSeparator(c)
	}
	if *quotePolicy != "" {
		policy, err := swiftdsv.ParseQuotePolicy(*quotePolicy)
		if err != nil {
			return in, in, err
		}
		out = out.WithQuotePolicy(policy)
	}
	if *nullString != "" {
		out = out.WithNullString(*nullString)
	}
	return in, out, nil
}

func parseSeparator(s string) (rune, error) {
	switch s {
	case "tab", `\t`:
		return '\t', nil
	}
	if utf8.RuneCountInString(s) != 1 {
		return 0, errors.Errorf("separator %q must be a single character", s)
	}
	c, _ := utf8.DecodeRuneInString(s)
	return c, nil
}

func openInput(ctx context.Context, location string) (io.ReadCloser, error) {
	if location == "-" {
		return io.NopCloser(os.Stdin), nil
	}
	return afs.New().OpenURL(ctx, location)
}

func openOutput(location string) (io.WriteCloser, error) {
	if location == "-" {
		return nopWriteCloser{os.Stdout}, nil
	}
	return os.Create(location)
}

// convert streams every row of src to dst and returns the number of rows written.
func convert(src io.ReadCloser, dst io.WriteCloser, in, out swiftdsv.Config) (int, error) {
	r, err := swiftdsv.NewReader(src, in)
	if err != nil {
		_ = src.Close()
		_ = dst.Close()
		return 0, err
	}
	defer r.Close()
	w, err := swiftdsv.NewWriter(dst, out)
	if err != nil {
		_ = dst.Close()
		return 0, err
	}

	n := 0
	for {
		row, err := r.ReadRow()
		if err == io.EOF {
			break
		}
		if err != nil {
			_ = w.Close()
			return n, err
		}
		if err := w.WriteTokens(row); err != nil {
			_ = w.Close()
			return n, errors.Wrapf(err, "row ending on line %d", r.EndLineNumber())
		}
		n++
	}
	return n, w.Close()
}

type nopWriteCloser struct {
	io.Writer
}

func (nopWriteCloser) Close() error { return nil }
