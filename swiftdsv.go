// # SwiftDSV: A Streaming Delimiter-Separated-Values Library for Go
//
// SwiftDSV reads and writes CSV, TSV and similar delimiter-separated formats under a configurable dialect. The reader turns a character stream into rows of tokens that remember whether they were quoted and which physical lines they came from; the writer performs the inverse with the dialect's quoting and escaping rules.
//
// # Features
//
// - Dialect `Config` with separator, quote and escape characters, null-string substitution, whitespace trimming, line skipping and ignore patterns.
// - Streaming `Reader` with embedded separators and newlines, break-string rewriting, BOM stripping and physical line tracking.
// - Buffered `Writer` with ALL, MINIMAL and COLUMN quote policies, escape-based quoting and an optional UTF-8 BOM.
// - Structured errors: `ConfigError`, `ColumnCountError`, `IOError`, `ParseError` and `ErrClosed`.
// - Load/Save handlers, reflection-free record binding and URL storage through afs.
//
// # Getting Started
//
// The module path is `github.com/oleg578/swiftdsv`.
//
//	r, err := swiftdsv.NewReader(file, swiftdsv.NewConfig(',', '"', '\\'))
//	if err != nil {
//		return err
//	}
//	defer r.Close()
//	for {
//		row, err := r.ReadRow()
//		if err == io.EOF {
//			break
//		}
//		...
//	}
package swiftdsv
