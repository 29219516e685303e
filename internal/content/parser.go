package content

import (
	"errors"
	"fmt"
	"strconv"
)

// ErrInvalidPattern is wrapped by every pattern parse failure.
var ErrInvalidPattern = errors.New("invalid content pattern")

// ParseError describes where and why a pattern failed to parse.
type ParseError struct {
	Pattern string
	Pos     int
	Reason  string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("invalid content pattern %q at offset %d: %s", e.Pattern, e.Pos, e.Reason)
}

func (e *ParseError) Unwrap() error { return ErrInvalidPattern }

// Parse tokenizes a pattern into its filters in source order, without
// merging literal runs.
//
//	pattern := token*
//	token   := literal | "!" literal | "*" | "<" digits ">"
//	literal := "'" ( "\\" ( "'" | "\\" ) | any byte except quote or backslash )* "'"
//
// Empty literals produce no filter.
func Parse(pattern string) ([]Filter, error) {
	fail := func(pos int, reason string) ([]Filter, error) {
		return nil, &ParseError{Pattern: pattern, Pos: pos, Reason: reason}
	}

	var (
		filters  []Filter
		text     []byte
		inText   bool
		escaped  bool
		negated  bool
		negAt    int
		quotedAt int
	)
	for i := 0; i < len(pattern); i++ {
		ch := pattern[i]
		if inText {
			switch {
			case escaped:
				if ch != '\'' && ch != '\\' {
					return fail(i, fmt.Sprintf("invalid escape sequence \\%c", ch))
				}
				text = append(text, ch)
				escaped = false
			case ch == '\\':
				escaped = true
			case ch == '\'':
				if len(text) > 0 {
					value := append([]byte(nil), text...)
					if negated {
						filters = append(filters, NewNotEquals(value))
					} else {
						filters = append(filters, NewEquals(value))
					}
				}
				text = text[:0]
				inText = false
				negated = false
			default:
				text = append(text, ch)
			}
			continue
		}

		switch ch {
		case '\'':
			inText = true
			quotedAt = i
		case '!':
			if negated {
				return fail(i, "'!' must be followed by a literal")
			}
			negated = true
			negAt = i
		case '*':
			if negated {
				return fail(negAt, "'!' must be followed by a literal")
			}
			filters = append(filters, NewAny())
		case '<':
			if negated {
				return fail(negAt, "'!' must be followed by a literal")
			}
			end := i + 1
			for end < len(pattern) && pattern[end] != '>' {
				end++
			}
			if end >= len(pattern) {
				return fail(i, "unterminated fixed skip")
			}
			n, err := parseSkipLength(pattern[i+1 : end])
			if err != nil {
				return fail(i, err.Error())
			}
			filters = append(filters, NewAnyFixed(n))
			i = end
		case '\\':
			return fail(i, "escape outside of a literal")
		default:
			return fail(i, fmt.Sprintf("unexpected character %q", ch))
		}
	}

	if inText {
		return fail(quotedAt, "unmatched quote")
	}
	if negated {
		return fail(negAt, "'!' must be followed by a literal")
	}
	return filters, nil
}

func parseSkipLength(digits string) (int64, error) {
	if digits == "" {
		return 0, errors.New("fixed skip needs a length")
	}
	for i := 0; i < len(digits); i++ {
		if digits[i] < '0' || digits[i] > '9' {
			return 0, fmt.Errorf("fixed skip length %q is not a number", digits)
		}
	}
	n, err := strconv.ParseInt(digits, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("fixed skip length %q out of range", digits)
	}
	return n, nil
}
