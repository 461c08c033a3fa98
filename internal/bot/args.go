package bot

import (
	"errors"
	"strings"
	"unicode"
)

// errUnterminatedQuote is returned when an argument list has an open
// quote with no closing partner.
var errUnterminatedQuote = errors.New("unterminated quote")

// splitArgs splits s into arguments on whitespace, honoring single
// and double quotes so /sendmail can take a subject with spaces:
//
//	'New offer' Bob bob@gmail.com Bob bob@gmail.com target@yahoo.com
func splitArgs(s string) ([]string, error) {
	var args []string
	var cur strings.Builder
	var quote rune
	inArg := false

	for _, r := range s {
		switch {
		case quote != 0:
			if r == quote {
				quote = 0
			} else {
				cur.WriteRune(r)
			}
		case r == '\'' || r == '"':
			quote = r
			inArg = true
		case unicode.IsSpace(r):
			if inArg {
				args = append(args, cur.String())
				cur.Reset()
				inArg = false
			}
		default:
			cur.WriteRune(r)
			inArg = true
		}
	}

	if quote != 0 {
		return nil, errUnterminatedQuote
	}
	if inArg {
		args = append(args, cur.String())
	}

	return args, nil
}
