package swiftdsv

import (
	"io"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
)

func TestParseErrorMessage(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  *ParseError
		want string
	}{
		{
			name: "singleLine",
			err:  &ParseError{StartLine: 3, Line: 3, Column: 7, Err: ErrBareQuote},
			want: "swiftdsv: parse error on line 3, column 7: swiftdsv: bare quote in non-quoted field",
		},
		{
			name: "multiLine",
			err:  &ParseError{StartLine: 2, Line: 5, Column: 1, Err: ErrUnterminatedQuote},
			want: "swiftdsv: parse error on line 5 (record started line 2), column 1: swiftdsv: unterminated quoted field",
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tc.want, tc.err.Error())
		})
	}

	var nilErr *ParseError
	assert.Empty(t, nilErr.Error())
	assert.NoError(t, nilErr.Unwrap())
}

func TestColumnCountErrorMessage(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "swiftdsv: wrong number of fields on line 4: got 2, want 3",
		(&ColumnCountError{Line: 4, Want: 3, Got: 2}).Error())
	assert.Equal(t, "swiftdsv: wrong number of fields: got 1, want 2",
		(&ColumnCountError{Want: 2, Got: 1}).Error())
}

func TestIOError(t *testing.T) {
	t.Parallel()

	assert.NoError(t, ioError("read", nil))
	assert.Equal(t, io.EOF, ioError("read", io.EOF))

	cause := errors.New("broken pipe")
	err := ioError("write", cause)
	assert.Equal(t, "swiftdsv: write: broken pipe", err.Error())
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, cause, errors.Cause(errors.Unwrap(err)))

	assert.Same(t, err, ioError("flush", err))
}
