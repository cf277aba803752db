package namecodec

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Name is the metadata a canonical filename stem encodes. Time is truncated
// to whole seconds; SubSec keeps a single digit of extra precision to tell
// apart frames shot within the same second. Abbr is the device abbreviation
// (uppercase token), Author an optional lowercase tag, and Dup the collision
// ordinal assigned by the collision resolver (0 for the base name, 2 and up
// for later colliders).
type Name struct {
	Time   time.Time
	SubSec string
	Abbr   string
	Author string
	Dup    int
}

// WithDup returns a copy carrying the given collision ordinal.
func (n Name) WithDup(d int) Name {
	n.Dup = d
	return n
}

// ParseError reports a stem that the configured template did not produce.
type ParseError struct {
	Stem   string
	Detail string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse %q: %s", e.Stem, e.Detail)
}

const maxUnix = 9999999999 // largest timestamp the ten-digit field can carry

var (
	abbrRe   = regexp.MustCompile(`^[A-Z][A-Z0-9]*$`)
	authorRe = regexp.MustCompile(`^[a-z][a-z0-9]*$`)
	subSecRe = regexp.MustCompile(`^[0-9]$`)
)

// Template is the canonical filename grammar, configured once per run:
//
//	<prefix><unix10>[.<subsec>][_<ABBR>][_<author>][-<dup>]
//
// The abbreviation token is uppercase and the author token lowercase, which
// is what keeps decoding unambiguous when either is omitted. Encode and
// Decode are exact inverses on this alphabet; Decode rejects anything else.
type Template struct {
	prefix string
	re     *regexp.Regexp
}

// NewTemplate builds a template around a stem prefix (two to eight uppercase
// letters, "DSC" by default).
func NewTemplate(prefix string) (*Template, error) {
	if !regexp.MustCompile(`^[A-Z]{2,8}$`).MatchString(prefix) {
		return nil, fmt.Errorf("invalid stem prefix %q: want 2-8 uppercase letters", prefix)
	}
	re := regexp.MustCompile(`^` + regexp.QuoteMeta(prefix) +
		`([0-9]{10})` +
		`(?:\.([0-9]))?` +
		`(?:_([A-Z][A-Z0-9]*))?` +
		`(?:_([a-z][a-z0-9]*))?` +
		`(?:-([1-9][0-9]*))?$`)
	return &Template{prefix: prefix, re: re}, nil
}

// DefaultTemplate returns the stock "DSC" template.
func DefaultTemplate() *Template {
	t, err := NewTemplate("DSC")
	if err != nil {
		panic(err)
	}
	return t
}

// Prefix returns the configured stem prefix.
func (t *Template) Prefix() string { return t.prefix }

// Encode renders a canonical stem. It is deterministic and injective over
// valid names; out-of-alphabet tokens are rejected rather than mangled.
func (t *Template) Encode(n Name) (string, error) {
	unix := n.Time.Unix()
	if n.Time.IsZero() || unix < 0 || unix > maxUnix {
		return "", fmt.Errorf("timestamp %s outside encodable range", n.Time)
	}
	if n.SubSec != "" && !subSecRe.MatchString(n.SubSec) {
		return "", fmt.Errorf("subsecond %q: want a single digit", n.SubSec)
	}
	if n.Abbr != "" && !abbrRe.MatchString(n.Abbr) {
		return "", fmt.Errorf("abbreviation %q: want uppercase alphanumeric starting with a letter", n.Abbr)
	}
	if n.Author != "" && !authorRe.MatchString(n.Author) {
		return "", fmt.Errorf("author tag %q: want lowercase alphanumeric starting with a letter", n.Author)
	}
	if n.Dup == 1 || n.Dup < 0 {
		return "", fmt.Errorf("collision ordinal %d: want 0 or >= 2", n.Dup)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s%010d", t.prefix, unix)
	if n.SubSec != "" {
		b.WriteByte('.')
		b.WriteString(n.SubSec)
	}
	if n.Abbr != "" {
		b.WriteByte('_')
		b.WriteString(n.Abbr)
	}
	if n.Author != "" {
		b.WriteByte('_')
		b.WriteString(n.Author)
	}
	if n.Dup != 0 {
		fmt.Fprintf(&b, "-%d", n.Dup)
	}
	return b.String(), nil
}

// Decode parses a stem produced by Encode. Any other string yields a
// *ParseError; decode(encode(x)) == x for every valid x.
func (t *Template) Decode(stem string) (Name, error) {
	m := t.re.FindStringSubmatch(stem)
	if m == nil {
		return Name{}, &ParseError{Stem: stem, Detail: fmt.Sprintf("not a %s-structured name", t.prefix)}
	}
	unix, err := strconv.ParseInt(m[1], 10, 64)
	if err != nil {
		return Name{}, &ParseError{Stem: stem, Detail: "unparsable timestamp digits"}
	}

	n := Name{
		Time:   time.Unix(unix, 0).UTC(),
		SubSec: m[2],
		Abbr:   m[3],
		Author: m[4],
	}
	if m[5] != "" {
		dup, err := strconv.Atoi(m[5])
		if err != nil || dup < 2 {
			return Name{}, &ParseError{Stem: stem, Detail: fmt.Sprintf("collision ordinal %q below 2", m[5])}
		}
		n.Dup = dup
	}
	return n, nil
}

// AuthorTag normalizes a free-form author or modifier string into the
// lowercase filename token, or "" when nothing usable remains.
func AuthorTag(s string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(strings.TrimSpace(s)) {
		switch {
		case r >= 'a' && r <= 'z':
			b.WriteRune(r)
		case r >= '0' && r <= '9':
			if b.Len() > 0 { // token must start with a letter
				b.WriteRune(r)
			}
		}
	}
	return b.String()
}
