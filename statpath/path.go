package statpath

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/jonwraymond/statgauge/tags"
)

// TagResolver maps tag names to bits. *tags.Universe satisfies it.
type TagResolver interface {
	Lookup(name string) (tags.Mask, bool)
}

// Path is a parsed stat reference. The zero Path is invalid.
type Path struct {
	// Alias is the source alias on the querying entity, empty for local stats.
	Alias string

	// Stat is the stat name.
	Stat string

	// Part is the part name, empty for the stat total.
	Part string

	// Tags is the query tag mask; 0 when no tags were given.
	Tags tags.Mask
}

// Parse parses s using resolver for named tags. A nil resolver accepts only
// decimal tag tokens.
func Parse(s string, resolver TagResolver) (Path, error) {
	raw := strings.TrimSpace(s)
	if raw == "" {
		return Path{}, malformed(s, "empty path")
	}

	alias, body, err := splitAlias(raw)
	if err != nil {
		return Path{}, malformed(s, err.Error())
	}

	segments, err := splitSegments(body)
	if err != nil {
		return Path{}, malformed(s, err.Error())
	}

	var p Path
	p.Alias = alias
	p.Stat = segments[0]
	if !IsIdent(p.Stat) {
		return Path{}, malformed(s, fmt.Sprintf("invalid stat name %q", p.Stat))
	}

	rest := segments[1:]
	if len(rest) > 2 {
		return Path{}, malformed(s, "too many segments")
	}
	for i, seg := range rest {
		if isTagSegment(seg) {
			if i != len(rest)-1 {
				return Path{}, malformed(s, "tag segment must be last")
			}
			mask, err := parseTags(seg, resolver)
			if err != nil {
				return Path{}, malformed(s, err.Error())
			}
			p.Tags = mask
			continue
		}
		if i != 0 {
			return Path{}, malformed(s, fmt.Sprintf("unexpected segment %q after part", seg))
		}
		if !IsIdent(seg) {
			return Path{}, malformed(s, fmt.Sprintf("invalid part name %q", seg))
		}
		p.Part = seg
	}
	return p, nil
}

// MustParse is like Parse but panics on error.
func MustParse(s string, resolver TagResolver) Path {
	p, err := Parse(s, resolver)
	if err != nil {
		panic(err)
	}
	return p
}

// String returns the canonical form: alias prefix and decimal tag mask.
func (p Path) String() string {
	var b strings.Builder
	if p.Alias != "" {
		b.WriteString(p.Alias)
		b.WriteByte('@')
	}
	b.WriteString(p.Key())
	return b.String()
}

// Key returns the canonical form without the alias. It identifies the
// queried value within one entity.
func (p Path) Key() string {
	var b strings.Builder
	b.WriteString(p.Stat)
	if p.Part != "" {
		b.WriteByte('.')
		b.WriteString(p.Part)
	}
	if p.Tags != 0 {
		b.WriteByte('.')
		b.WriteString(strconv.FormatUint(uint64(p.Tags), 10))
	}
	return b.String()
}

// Local returns p without its alias.
func (p Path) Local() Path {
	p.Alias = ""
	return p
}

// WithoutTags returns p with a zero tag mask.
func (p Path) WithoutTags() Path {
	p.Tags = 0
	return p
}

// WithPart returns p narrowed to part.
func (p Path) WithPart(part string) Path {
	p.Part = part
	return p
}

// IsZero reports whether p is the zero Path.
func (p Path) IsZero() bool {
	return p == Path{}
}

// IsRemote reports whether p routes through a source alias.
func (p Path) IsRemote() bool {
	return p.Alias != ""
}

// Normalize parses and re-formats s.
func Normalize(s string, resolver TagResolver) (string, error) {
	p, err := Parse(s, resolver)
	if err != nil {
		return "", err
	}
	return p.String(), nil
}

// IsIdent reports whether s is a valid stat, part, or alias name.
func IsIdent(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c == '_', c >= 'A' && c <= 'Z', c >= 'a' && c <= 'z':
		case i > 0 && c >= '0' && c <= '9':
		default:
			return false
		}
	}
	return true
}

func malformed(s, reason string) error {
	return fmt.Errorf("%w: %q: %s", ErrMalformedPath, s, reason)
}

// splitAlias separates an alias in either prefix or suffix position.
func splitAlias(s string) (alias, body string, err error) {
	at := -1
	depth := 0
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '{':
			depth++
		case '}':
			depth--
		case '@':
			if depth != 0 {
				return "", "", fmt.Errorf("'@' inside tag group")
			}
			if at >= 0 {
				return "", "", fmt.Errorf("multiple '@'")
			}
			at = i
		}
	}
	if at < 0 {
		return "", s, nil
	}

	left, right := strings.TrimSpace(s[:at]), strings.TrimSpace(s[at+1:])
	if left == "" || right == "" {
		return "", "", fmt.Errorf("empty alias or stat around '@'")
	}
	if IsIdent(right) && strings.ContainsAny(left, ".{") {
		return right, left, nil
	}
	if !IsIdent(left) {
		return "", "", fmt.Errorf("invalid alias %q", left)
	}
	return left, right, nil
}

// splitSegments splits on dots outside tag groups and checks brace balance.
func splitSegments(s string) ([]string, error) {
	var segments []string
	depth, start := 0, 0
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '{':
			if depth > 0 {
				return nil, fmt.Errorf("nested '{'")
			}
			depth++
		case '}':
			if depth == 0 {
				return nil, fmt.Errorf("unbalanced '}'")
			}
			depth--
		case '.':
			if depth == 0 {
				segments = append(segments, strings.TrimSpace(s[start:i]))
				start = i + 1
			}
		}
	}
	if depth != 0 {
		return nil, fmt.Errorf("unbalanced '{'")
	}
	segments = append(segments, strings.TrimSpace(s[start:]))
	for _, seg := range segments {
		if seg == "" {
			return nil, fmt.Errorf("empty segment")
		}
	}
	return segments, nil
}

func isTagSegment(seg string) bool {
	if strings.HasPrefix(seg, "{") {
		return true
	}
	return isDigits(seg)
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

// parseTags parses a decimal mask or a {A|B} group.
func parseTags(seg string, resolver TagResolver) (tags.Mask, error) {
	if isDigits(seg) {
		return parseDecimal(seg)
	}
	if !strings.HasSuffix(seg, "}") {
		return 0, fmt.Errorf("tag group %q must end with '}'", seg)
	}
	inner := seg[1 : len(seg)-1]
	if strings.TrimSpace(inner) == "" {
		return 0, fmt.Errorf("empty tag group")
	}

	var mask tags.Mask
	for _, tok := range strings.Split(inner, "|") {
		tok = strings.TrimSpace(tok)
		switch {
		case tok == "":
			return 0, fmt.Errorf("empty tag token")
		case isDigits(tok):
			v, err := parseDecimal(tok)
			if err != nil {
				return 0, err
			}
			mask |= v
		default:
			if resolver == nil {
				return 0, fmt.Errorf("unknown tag %q", tok)
			}
			v, ok := resolver.Lookup(tok)
			if !ok {
				return 0, fmt.Errorf("unknown tag %q", tok)
			}
			mask |= v
		}
	}
	return mask, nil
}

func parseDecimal(s string) (tags.Mask, error) {
	v, err := strconv.ParseUint(s, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("tag mask %q out of range", s)
	}
	return tags.Mask(v), nil
}
