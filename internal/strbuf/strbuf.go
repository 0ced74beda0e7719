// Package strbuf provides the growable byte buffer the renderer writes through.
//
// A Buffer grows by a fixed increment instead of doubling. Rendering appends
// a few bytes at a time (one escaped character, one tag), so a small fixed
// step keeps memory close to the size of one output line.
package strbuf

import (
	"io"
	"strconv"
)

const (
	// InitialSize is the capacity of a buffer created with New(0).
	InitialSize = 80
	// Increment is the minimum growth step.
	Increment = 80
)

// maxIntDigits covers a sign and the 19 digits of the largest int64.
const maxIntDigits = 20

// Buffer is a growable byte accumulator. The zero value is not usable; create
// buffers with New or NewWithIncrement.
//
// The backing slice always holds one byte more than the logical capacity so
// that CString can append a terminator without growing.
type Buffer struct {
	data      []byte
	n         int
	increment int
}

// New returns an empty buffer with at least initial bytes of capacity.
func New(initial int) *Buffer {
	return NewWithIncrement(initial, Increment)
}

// NewWithIncrement returns an empty buffer that grows in steps of at least
// increment bytes.
func NewWithIncrement(initial, increment int) *Buffer {
	if initial <= 0 {
		initial = InitialSize
	}
	if increment <= 0 {
		increment = Increment
	}
	return &Buffer{
		data:      make([]byte, initial+1),
		increment: increment,
	}
}

// Len returns the number of bytes written since the last Clear.
func (b *Buffer) Len() int { return b.n }

// Cap returns the logical capacity, excluding the terminator slot.
func (b *Buffer) Cap() int { return len(b.data) - 1 }

// Empty reports whether the buffer holds no bytes.
func (b *Buffer) Empty() bool { return b.n == 0 }

// Reserve makes sure the buffer can hold min bytes without reallocating.
// Growth is max(min-Cap(), increment); the buffer never shrinks.
func (b *Buffer) Reserve(min int) {
	capacity := b.Cap()
	if min <= capacity {
		return
	}
	grow := min - capacity
	if grow < b.increment {
		grow = b.increment
	}
	data := make([]byte, capacity+grow+1)
	copy(data, b.data[:b.n])
	b.data = data
}

// Clear resets the length to zero and keeps the capacity.
func (b *Buffer) Clear() { b.n = 0 }

// Append appends raw bytes.
func (b *Buffer) Append(p []byte) {
	b.Reserve(b.n + len(p))
	b.n += copy(b.data[b.n:], p)
}

// AppendSized appends exactly len(p) bytes, zero bytes included. Tag cache
// records use it because they carry embedded separators.
func (b *Buffer) AppendSized(p []byte) { b.Append(p) }

// AppendString appends s.
func (b *Buffer) AppendString(s string) {
	b.Reserve(b.n + len(s))
	b.n += copy(b.data[b.n:], s)
}

// PushBack appends one byte.
func (b *Buffer) PushBack(c byte) {
	b.Reserve(b.n + 1)
	b.data[b.n] = c
	b.n++
}

// AppendInt appends the decimal form of v.
func (b *Buffer) AppendInt(v int) {
	b.Reserve(b.n + maxIntDigits)
	out := strconv.AppendInt(b.data[b.n:b.n], int64(v), 10)
	b.n += len(out)
}

// AppendPadded appends v right-aligned in a field of width bytes, the way a
// "%<width>d" conversion does. Values wider than the field are not cut.
func (b *Buffer) AppendPadded(v, width int) {
	var tmp [maxIntDigits]byte
	digits := strconv.AppendInt(tmp[:0], int64(v), 10)
	pad := width - len(digits)
	if pad < 0 {
		pad = 0
	}
	b.Reserve(b.n + pad + len(digits))
	for i := 0; i < pad; i++ {
		b.data[b.n] = ' '
		b.n++
	}
	b.n += copy(b.data[b.n:], digits)
}

// CString returns the contents followed by a single zero byte. The length of
// the buffer is unchanged. The returned slice aliases the buffer and is
// invalidated by the next write that grows it.
func (b *Buffer) CString() []byte {
	b.data[b.n] = 0
	return b.data[:b.n+1]
}

// Bytes returns the contents. The slice aliases the buffer.
func (b *Buffer) Bytes() []byte { return b.data[:b.n] }

// String returns a copy of the contents.
func (b *Buffer) String() string { return string(b.data[:b.n]) }

// Write implements io.Writer. It never fails.
func (b *Buffer) Write(p []byte) (int, error) {
	b.Append(p)
	return len(p), nil
}

// WriteString implements io.StringWriter. It never fails.
func (b *Buffer) WriteString(s string) (int, error) {
	b.AppendString(s)
	return len(s), nil
}

// WriteByte implements io.ByteWriter. It never fails.
func (b *Buffer) WriteByte(c byte) error {
	b.PushBack(c)
	return nil
}

// WriteTo writes the contents to w. The buffer is left untouched.
func (b *Buffer) WriteTo(w io.Writer) (int64, error) {
	n, err := w.Write(b.data[:b.n])
	return int64(n), err
}
