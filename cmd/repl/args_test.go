package repl

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitArgs(t *testing.T) {
	tests := []struct {
		name string
		line string
		want []string
	}{
		{"empty", "", nil},
		{"blank", "   \t ", nil},
		{"plain", "set k v", []string{"set", "k", "v"}},
		{"extra whitespace", "  zadd\tz  1.5   a ", []string{"zadd", "z", "1.5", "a"}},
		{"quoted", `set greeting "hello world"`, []string{"set", "greeting", "hello world"}},
		{"escapes", `set k "a\"b\n"`, []string{"set", "k", "a\"b\n"}},
		{"empty quoted", `zquery z 0 "" 0 10`, []string{"zquery", "z", "0", "", "0", "10"}},
		{"quote inside word", `set k a"b`, []string{"set", "k", `a"b`}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := SplitArgs(tt.line)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSplitArgsErrors(t *testing.T) {
	_, err := SplitArgs(`set k "open`)
	assert.ErrorIs(t, err, ErrUnterminatedQuote)

	_, err = SplitArgs(`set k "trailing\`)
	assert.ErrorIs(t, err, ErrUnterminatedQuote)

	_, err = SplitArgs(`set k "\q"`)
	assert.Error(t, err)
}
