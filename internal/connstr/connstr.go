// Package connstr splits key=value connection strings: the
// semicolon-delimited ODBC/ADO form (values may be {braced} or quoted)
// and the space-delimited libpq form (values may be 'quoted').
package connstr

import "strings"

// Pair is one key=value entry. Start and End bound the raw value text in
// the source string, braces and quotes included.
type Pair struct {
	Key   string
	Value string
	Start int
	End   int
}

// Parse returns the pairs of s in order. Segments without '=' are skipped.
func Parse(s string) []Pair {
	sep := byte(';')
	if spaceSeparated(s) {
		sep = ' '
	}

	var pairs []Pair
	i := 0
	for i < len(s) {
		for i < len(s) && (s[i] == sep || s[i] == ' ' || s[i] == '\t') {
			i++
		}
		if i >= len(s) {
			break
		}
		eq := strings.IndexByte(s[i:], '=')
		if eq < 0 {
			break
		}
		if k := strings.IndexByte(s[i:i+eq], sep); k >= 0 {
			i += k + 1
			continue
		}
		key := strings.TrimSpace(s[i : i+eq])

		j := i + eq + 1
		for j < len(s) && (s[j] == ' ' || s[j] == '\t') {
			j++
		}
		start := j
		var val string
		switch {
		case j < len(s) && s[j] == '{' && sep == ';':
			val, j = readBraced(s, j)
		case j < len(s) && (s[j] == '\'' || (s[j] == '"' && sep == ';')):
			val, j = readQuoted(s, j, sep == ' ')
		default:
			end := strings.IndexByte(s[j:], sep)
			if end < 0 {
				end = len(s) - j
			}
			val = strings.TrimRight(s[j:j+end], " \t")
			j += len(val)
		}
		if key != "" {
			pairs = append(pairs, Pair{Key: key, Value: val, Start: start, End: j})
		}

		if k := strings.IndexByte(s[j:], sep); k >= 0 {
			i = j + k + 1
		} else {
			i = len(s)
		}
	}
	return pairs
}

// readBraced reads {value} starting at the opening brace; "}}" is a
// literal '}'. It returns the value and the index after the closing brace.
func readBraced(s string, j int) (string, int) {
	var b strings.Builder
	j++
	for j < len(s) {
		if s[j] == '}' {
			if j+1 < len(s) && s[j+1] == '}' {
				b.WriteByte('}')
				j += 2
				continue
			}
			return b.String(), j + 1
		}
		b.WriteByte(s[j])
		j++
	}
	return b.String(), j
}

// readQuoted reads a quoted value. ADO doubles the quote to escape it;
// libpq uses a backslash.
func readQuoted(s string, j int, backslash bool) (string, int) {
	var b strings.Builder
	q := s[j]
	j++
	for j < len(s) {
		switch {
		case backslash && s[j] == '\\' && j+1 < len(s):
			b.WriteByte(s[j+1])
			j += 2
			continue
		case s[j] == q:
			if !backslash && j+1 < len(s) && s[j+1] == q {
				b.WriteByte(q)
				j += 2
				continue
			}
			return b.String(), j + 1
		}
		b.WriteByte(s[j])
		j++
	}
	return b.String(), j
}

// spaceSeparated reports the libpq form: no semicolons and at least two
// whitespace-separated key= tokens.
func spaceSeparated(s string) bool {
	if strings.ContainsRune(s, ';') {
		return false
	}
	n := 0
	for _, f := range strings.Fields(s) {
		if strings.IndexByte(f, '=') > 0 {
			n++
		}
	}
	return n >= 2
}
