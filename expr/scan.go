package expr

import (
	"fmt"
	"strconv"
	"strings"
)

// rewrite replaces each variable path in src with a synthetic identifier
// v0, v1, ... numbered by first appearance. Function names (identifiers
// followed by an opening parenthesis) are kept as written.
func rewrite(src string) (string, []string, error) {
	var (
		out   strings.Builder
		vars  []string
		index = make(map[string]int)
	)
	out.Grow(len(src))

	for i := 0; i < len(src); {
		c := src[i]
		switch {
		case isDigit(c) || (c == '.' && i+1 < len(src) && isDigit(src[i+1])):
			end := scanNumber(src, i)
			out.WriteString(src[i:end])
			i = end

		case isIdentStart(c):
			end, err := scanPath(src, i)
			if err != nil {
				return "", nil, err
			}
			token := src[i:end]
			if isCall(src, end) {
				if strings.ContainsAny(token, ".@{") {
					return "", nil, fmt.Errorf("%w: invalid function name %q", ErrParse, token)
				}
				out.WriteString(token)
			} else {
				n, ok := index[token]
				if !ok {
					n = len(vars)
					index[token] = n
					vars = append(vars, token)
				}
				out.WriteString(syntheticName(n))
			}
			i = end

		default:
			out.WriteByte(c)
			i++
		}
	}
	return out.String(), vars, nil
}

func syntheticName(n int) string {
	return "v" + strconv.Itoa(n)
}

// scanPath consumes identifier characters, dots, '@', and {...} tag groups.
func scanPath(src string, start int) (int, error) {
	i := start
	for i < len(src) {
		c := src[i]
		switch {
		case isIdentStart(c) || isDigit(c) || c == '.' || c == '@':
			i++
		case c == '{':
			closing := strings.IndexByte(src[i:], '}')
			if closing < 0 {
				return 0, fmt.Errorf("%w: unbalanced '{' in %q", ErrParse, src[start:])
			}
			i += closing + 1
		default:
			return i, nil
		}
	}
	return i, nil
}

// scanNumber consumes a decimal literal with optional fraction and exponent.
func scanNumber(src string, start int) int {
	i := start
	for i < len(src) && (isDigit(src[i]) || src[i] == '.') {
		i++
	}
	if i < len(src) && (src[i] == 'e' || src[i] == 'E') {
		j := i + 1
		if j < len(src) && (src[j] == '+' || src[j] == '-') {
			j++
		}
		if j < len(src) && isDigit(src[j]) {
			for j < len(src) && isDigit(src[j]) {
				j++
			}
			i = j
		}
	}
	return i
}

func isCall(src string, end int) bool {
	for end < len(src) && (src[end] == ' ' || src[end] == '\t' || src[end] == '\n' || src[end] == '\r') {
		end++
	}
	return end < len(src) && src[end] == '('
}

func isIdentStart(c byte) bool {
	return c == '_' || (c >= 'A' && c <= 'Z') || (c >= 'a' && c <= 'z')
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}
