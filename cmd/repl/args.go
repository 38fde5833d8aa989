package repl

import (
	"errors"
	"strconv"
	"strings"
	"unicode"
)

var ErrUnterminatedQuote = errors.New("unterminated quote")

// SplitArgs splits a command line into arguments. Arguments are separated by
// whitespace. A double quoted argument may contain whitespace and Go escape
// sequences; "" yields an empty argument.
func SplitArgs(line string) ([]string, error) {
	var args []string
	i := 0
	for i < len(line) {
		r := rune(line[i])
		if unicode.IsSpace(r) {
			i++
			continue
		}

		if r == '"' {
			end := closingQuote(line, i+1)
			if end < 0 {
				return nil, ErrUnterminatedQuote
			}
			arg, err := strconv.Unquote(line[i : end+1])
			if err != nil {
				return nil, err
			}
			args = append(args, arg)
			i = end + 1
			continue
		}

		end := strings.IndexFunc(line[i:], unicode.IsSpace)
		if end < 0 {
			end = len(line) - i
		}
		args = append(args, line[i:i+end])
		i += end
	}
	return args, nil
}

// closingQuote returns the index of the quote ending the string that starts
// at from, skipping escaped characters
func closingQuote(line string, from int) int {
	for i := from; i < len(line); i++ {
		switch line[i] {
		case '\\':
			i++
		case '"':
			return i
		}
	}
	return -1
}
