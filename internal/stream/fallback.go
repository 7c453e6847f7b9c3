package stream

import (
	"strconv"
	"strings"
	"unicode/utf16"
	"unicode/utf8"
)

// simpleEscapes is the substitution table of the lenient decode path.
var simpleEscapes = map[byte]byte{
	'"':  '"',
	'\\': '\\',
	'/':  '/',
	'n':  '\n',
	'r':  '\r',
	't':  '\t',
	'b':  '\b',
	'f':  '\f',
}

// unescapeFallback substitutes the escapes it recognises and keeps everything
// else as is. It never fails; it is used when the strict parse rejects the
// payload, e.g. because of an unknown escape such as `\x`.
func unescapeFallback(raw string) string {
	var b strings.Builder
	b.Grow(len(raw))
	for i := 0; i < len(raw); i++ {
		c := raw[i]
		if c != '\\' || i+1 >= len(raw) {
			b.WriteByte(c)
			continue
		}
		next := raw[i+1]
		if sub, ok := simpleEscapes[next]; ok {
			b.WriteByte(sub)
			i++
			continue
		}
		if next == 'u' {
			if r, n, ok := decodeUnicodeEscape(raw[i:]); ok {
				b.WriteRune(r)
				i += n - 1
				continue
			}
		}
		b.WriteByte(c)
	}
	return b.String()
}

// decodeUnicodeEscape decodes a \uXXXX escape at the start of s, joining a
// surrogate pair when both halves are present. It returns the rune and the
// number of bytes consumed.
func decodeUnicodeEscape(s string) (rune, int, bool) {
	if len(s) < 6 {
		return 0, 0, false
	}
	r, ok := parseHex4(s[2:6])
	if !ok {
		return 0, 0, false
	}
	if !utf16.IsSurrogate(r) {
		return r, 6, true
	}
	if isHighSurrogate(r) && len(s) >= 12 && s[6] == '\\' && s[7] == 'u' {
		if low, ok := parseHex4(s[8:12]); ok {
			if pair := utf16.DecodeRune(r, low); pair != utf8.RuneError {
				return pair, 12, true
			}
		}
	}
	return utf8.RuneError, 6, true
}

func parseHex4(s string) (rune, bool) {
	if len(s) != 4 || !isHex(s) {
		return 0, false
	}
	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return 0, false
	}
	return rune(v), true
}

func isHex(s string) bool {
	for i := 0; i < len(s); i++ {
		c := s[i]
		if !('0' <= c && c <= '9' || 'a' <= c && c <= 'f' || 'A' <= c && c <= 'F') {
			return false
		}
	}
	return true
}

func isHighSurrogate(r rune) bool {
	return r >= 0xD800 && r < 0xDC00
}
