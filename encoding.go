package swiftdsv

import (
	"io"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/ianaindex"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// byteOrderMark is U+FEFF, written as EF BB BF in UTF-8.
const byteOrderMark = '\uFEFF'

// IsUTF8 reports whether enc is UTF-8. A nil encoding means UTF-8.
func IsUTF8(enc encoding.Encoding) bool {
	if enc == nil || enc == unicode.UTF8 || enc == unicode.UTF8BOM {
		return true
	}
	name, err := ianaindex.IANA.Name(enc)
	return err == nil && name == "UTF-8"
}

// LookupEncoding resolves an IANA charset name such as "windows-1252" or
// "Shift_JIS". The empty name resolves to UTF-8.
func LookupEncoding(name string) (encoding.Encoding, error) {
	if name == "" {
		return unicode.UTF8, nil
	}
	enc, err := ianaindex.IANA.Encoding(name)
	if err != nil {
		return nil, &ConfigError{Field: "Encoding", Message: err.Error()}
	}
	if enc == nil {
		return nil, &ConfigError{Field: "Encoding", Message: "unsupported charset " + name}
	}
	return enc, nil
}

// decodeReader converts src from enc to UTF-8.
func decodeReader(src io.Reader, enc encoding.Encoding) io.Reader {
	if IsUTF8(enc) {
		return src
	}
	return transform.NewReader(src, enc.NewDecoder())
}

// encodeWriter converts UTF-8 written to the returned writer into enc.
// The second result is non-nil when a transformer was installed and must be
// closed to flush its tail.
func encodeWriter(dst io.Writer, enc encoding.Encoding) (io.Writer, io.Closer) {
	if IsUTF8(enc) {
		return dst, nil
	}
	tw := transform.NewWriter(dst, enc.NewEncoder())
	return tw, tw
}
