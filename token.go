package swiftdsv

// Token is one parsed field.
type Token struct {
	// Value is nil for a logical null.
	Value *string
	// StartLine and EndLine are the first and last physical lines (1-indexed)
	// the field touched. They differ when a quoted field spans line breaks.
	StartLine int
	EndLine   int
	// Enclosed reports whether the source field was quote-delimited.
	Enclosed bool
}

// IsNull reports whether the token carries a logical null.
func (t Token) IsNull() bool {
	return t.Value == nil
}

// String returns the token value, or "" for a null.
func (t Token) String() string {
	if t.Value == nil {
		return ""
	}
	return *t.Value
}

// String returns a pointer to a copy of s, for building rows of []*string.
func String(s string) *string {
	return &s
}

// Strings converts plain values into a row where no value is null.
func Strings(values ...string) []*string {
	row := make([]*string, len(values))
	for i := range values {
		row[i] = String(values[i])
	}
	return row
}

// Values unwraps a token row into its values. A nil row stays nil.
func Values(tokens []Token) []*string {
	if tokens == nil {
		return nil
	}
	values := make([]*string, len(tokens))
	for i := range tokens {
		values[i] = tokens[i].Value
	}
	return values
}

// Tokens wraps values into tokens without line information.
func Tokens(values []*string) []Token {
	if values == nil {
		return nil
	}
	tokens := make([]Token, len(values))
	for i := range values {
		tokens[i] = Token{Value: values[i]}
	}
	return tokens
}
