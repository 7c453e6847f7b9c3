// Package stream reconstructs the document text carried inside the streamed
// response envelope of the drafting backend.
//
// The backend writes a single JSON-like object, `{"data":"<escaped text>"}`,
// and flushes it token by token. A Decoder accepts the raw body in arbitrary
// chunks and after each one yields the full, unescaped document decoded so
// far. The output is recomputed over the whole buffer on every chunk, so an
// escape sequence split across chunks never leaks into the result.
package stream

import (
	"encoding/json"
	"regexp"
	"strings"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// markerRe matches the opening of the payload field.
var markerRe = regexp.MustCompile(`"data"\s*:\s*"`)

// Decoder is not safe for concurrent use; one turn owns one Decoder.
type Decoder struct {
	text utf8Carry

	buf   strings.Builder
	start int // offset of the payload in buf, -1 until the marker is seen
	out   string

	fallbacks int
}

// NewDecoder returns a Decoder in the preamble state.
func NewDecoder() *Decoder {
	return &Decoder{
		text:  newUTF8Carry(),
		start: -1,
	}
}

// Feed consumes one chunk of the response body and returns the document decoded
// so far together with whether it differs from the previous output.
func (d *Decoder) Feed(chunk []byte) (string, bool) {
	return d.advance(d.text.decode(chunk, false))
}

// Close flushes any carried bytes. The returned text is the final document.
func (d *Decoder) Close() (string, bool) {
	return d.advance(d.text.decode(nil, true))
}

// Write implements io.Writer so a body can be copied straight into the decoder.
func (d *Decoder) Write(p []byte) (int, error) {
	d.Feed(p)
	return len(p), nil
}

// Output is the latest decoded document.
func (d *Decoder) Output() string { return d.out }

// PayloadStarted reports whether the payload marker has been located.
func (d *Decoder) PayloadStarted() bool { return d.start >= 0 }

// Fallbacks counts the decode steps that needed the lenient unescape path.
func (d *Decoder) Fallbacks() int { return d.fallbacks }

// DecodeAll decodes a complete envelope in one step.
func DecodeAll(body []byte) string {
	d := NewDecoder()
	d.Feed(body)
	out, _ := d.Close()
	return out
}

// utf8Carry decodes UTF-8 chunk by chunk, holding back an incomplete trailing
// sequence until the rest of it arrives.
type utf8Carry struct {
	t       transform.Transformer
	pending []byte
	scratch []byte
}

func newUTF8Carry() utf8Carry {
	return utf8Carry{t: unicode.UTF8.NewDecoder(), scratch: make([]byte, 4096)}
}

func (c *utf8Carry) decode(chunk []byte, atEOF bool) string {
	src := chunk
	if len(c.pending) > 0 {
		src = append(c.pending, chunk...)
		c.pending = nil
	}

	var out strings.Builder
	for {
		nDst, nSrc, err := c.t.Transform(c.scratch, src, atEOF)
		out.Write(c.scratch[:nDst])
		src = src[nSrc:]
		switch err {
		case transform.ErrShortDst:
			continue
		case transform.ErrShortSrc:
			c.pending = append([]byte(nil), src...)
		}
		return out.String()
	}
}

func (d *Decoder) advance(text string) (string, bool) {
	d.buf.WriteString(text)

	if d.start < 0 {
		loc := markerRe.FindStringIndex(d.buf.String())
		if loc == nil {
			return d.out, false
		}
		d.start = loc[1]
	}

	next, strict := render(d.buf.String()[d.start:])
	if !strict {
		d.fallbacks++
	}
	changed := next != d.out
	d.out = next
	return d.out, changed
}

// render turns the candidate payload into display text. The second result is
// false when the lenient path had to be used.
func render(payload string) (string, bool) {
	raw := holdBackIncompleteEscape(payloadBody(payload))
	if s, err := unescapeStrict(raw); err == nil {
		return s, true
	}
	return unescapeFallback(raw), false
}

// payloadBody cuts the payload at the closing quote of the field, if it has
// arrived. An unescaped quote cannot occur inside the payload.
func payloadBody(payload string) string {
	for i := 0; i < len(payload); i++ {
		switch payload[i] {
		case '\\':
			i++
		case '"':
			return payload[:i]
		}
	}
	return payload
}

// holdBackIncompleteEscape trims an escape sequence that is still waiting for
// the rest of its bytes: a lone trailing backslash, a truncated \uXXXX, or a
// high surrogate whose low half has not been received yet.
func holdBackIncompleteEscape(raw string) string {
	for i := 0; i < len(raw); i++ {
		if raw[i] != '\\' {
			continue
		}
		if i+1 >= len(raw) {
			return raw[:i]
		}
		if raw[i+1] != 'u' {
			i++
			continue
		}
		rest := raw[i+2:]
		if len(rest) < 4 {
			if isHex(rest) {
				return raw[:i]
			}
			i++
			continue
		}
		r, ok := parseHex4(rest[:4])
		if !ok {
			i++
			continue
		}
		if isHighSurrogate(r) && awaitingLowSurrogate(raw[i+6:]) {
			return raw[:i]
		}
		i += 5
	}
	return raw
}

// awaitingLowSurrogate reports whether tail is a (possibly empty) prefix of a
// \uXXXX escape that has not been completed yet.
func awaitingLowSurrogate(tail string) bool {
	if len(tail) >= 6 {
		return false
	}
	const prefix = `\u`
	if len(tail) <= len(prefix) {
		return strings.HasPrefix(prefix, tail)
	}
	return strings.HasPrefix(tail, prefix) && isHex(tail[2:])
}

// unescapeStrict parses raw as the interior of a JSON string. Raw control
// characters are escaped first; the backend only escapes quotes and
// backslashes, so literal newlines are part of a valid payload.
func unescapeStrict(raw string) (string, error) {
	var b strings.Builder
	b.Grow(len(raw) + 2)
	b.WriteByte('"')
	for i := 0; i < len(raw); i++ {
		c := raw[i]
		if c < 0x20 {
			b.WriteString(`\u00`)
			b.WriteByte(hexDigits[c>>4])
			b.WriteByte(hexDigits[c&0xf])
			continue
		}
		b.WriteByte(c)
	}
	b.WriteByte('"')

	var s string
	if err := json.Unmarshal([]byte(b.String()), &s); err != nil {
		return "", err
	}
	return s, nil
}

const hexDigits = "0123456789abcdef"
