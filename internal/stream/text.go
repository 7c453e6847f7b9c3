package stream

import "strings"

// TextDecoder accumulates a plain text body, such as the markdown streamed by
// the one-shot generate endpoint. It has no envelope; only UTF-8 sequences
// split across chunks need care.
type TextDecoder struct {
	text utf8Carry
	buf  strings.Builder
}

func NewTextDecoder() *TextDecoder {
	return &TextDecoder{text: newUTF8Carry()}
}

// Feed appends one chunk and returns the text so far and whether it grew.
func (d *TextDecoder) Feed(chunk []byte) (string, bool) {
	return d.append(d.text.decode(chunk, false))
}

// Close flushes a dangling partial sequence as U+FFFD.
func (d *TextDecoder) Close() (string, bool) {
	return d.append(d.text.decode(nil, true))
}

func (d *TextDecoder) Output() string { return d.buf.String() }

// PayloadStarted reports whether any text arrived.
func (d *TextDecoder) PayloadStarted() bool { return d.buf.Len() > 0 }

func (d *TextDecoder) append(text string) (string, bool) {
	d.buf.WriteString(text)
	return d.buf.String(), text != ""
}
