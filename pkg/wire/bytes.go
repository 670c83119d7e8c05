package wire

import (
	"encoding/binary"
	"errors"
)

// MaxNameLen bounds display names on the wire. Longer names are silently
// truncated on both encode and decode; this is a leniency policy, not an
// error (a peer sending a long name still interoperates).
const MaxNameLen = 32

// ErrNeedMoreData reports that the buffer holds only part of a message. The
// caller retries after more bytes arrive; the buffer is left untouched.
var ErrNeedMoreData = errors.New("wire: need more data")

// reader walks a byte slice without ever reading past its end. Any underflow
// sets short; decoders bail out with ErrNeedMoreData so a partial frame never
// consumes anything.
type reader struct {
	buf   []byte
	pos   int
	short bool
	bad   bool
}

func (r *reader) take(n int) []byte {
	if r.short || r.pos+n > len(r.buf) {
		r.short = true
		return nil
	}
	b := r.buf[r.pos : r.pos+n]
	r.pos += n
	return b
}

func (r *reader) u8() uint8 {
	b := r.take(1)
	if b == nil {
		return 0
	}
	return b[0]
}

func (r *reader) u16() uint16 {
	b := r.take(2)
	if b == nil {
		return 0
	}
	return binary.BigEndian.Uint16(b)
}

func (r *reader) u32() uint32 {
	b := r.take(4)
	if b == nil {
		return 0
	}
	return binary.BigEndian.Uint32(b)
}

// name reads a 1-byte length followed by that many UTF-8 bytes, truncating
// to MaxNameLen.
func (r *reader) name() string {
	n := int(r.u8())
	b := r.take(n)
	if b == nil {
		return ""
	}
	if len(b) > MaxNameLen {
		b = b[:MaxNameLen]
	}
	return string(b)
}

// blob reads a 4-byte length followed by that many raw bytes. A declared
// length above max marks the frame malformed rather than waiting forever for
// bytes that will never come.
func (r *reader) blob(max int) []byte {
	n := int(r.u32())
	if n > max {
		r.bad = true
		return nil
	}
	b := r.take(n)
	if b == nil {
		return nil
	}
	out := make([]byte, n)
	copy(out, b)
	return out
}

// bits reads n boolean flags packed LSB-first at one bit per flag, rounded up
// to whole bytes.
func (r *reader) bits(n int) []bool {
	b := r.take((n + 7) / 8)
	if b == nil {
		return nil
	}
	out := make([]bool, n)
	for i := 0; i < n; i++ {
		out[i] = b[i/8]&(1<<(i%8)) != 0
	}
	return out
}

// writer is the encode-side mirror of reader.
type writer struct {
	buf []byte
}

func (w *writer) u8(v uint8)   { w.buf = append(w.buf, v) }
func (w *writer) u16(v uint16) { w.buf = binary.BigEndian.AppendUint16(w.buf, v) }
func (w *writer) u32(v uint32) { w.buf = binary.BigEndian.AppendUint32(w.buf, v) }

func (w *writer) name(s string) {
	b := []byte(s)
	if len(b) > MaxNameLen {
		b = b[:MaxNameLen]
	}
	w.u8(uint8(len(b)))
	w.buf = append(w.buf, b...)
}

func (w *writer) blob(b []byte) {
	w.u32(uint32(len(b)))
	w.buf = append(w.buf, b...)
}

func (w *writer) bits(flags []bool) {
	packed := make([]byte, (len(flags)+7)/8)
	for i, f := range flags {
		if f {
			packed[i/8] |= 1 << (i % 8)
		}
	}
	w.buf = append(w.buf, packed...)
}
