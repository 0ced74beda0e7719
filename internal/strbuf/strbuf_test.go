package strbuf

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func TestCStringRoundTrip(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		chunks := rapid.SliceOf(rapid.SliceOf(rapid.Byte())).Draw(rt, "chunks")
		single := rapid.SliceOf(rapid.Bool()).Draw(rt, "single")

		b := New(rapid.IntRange(0, 200).Draw(rt, "initial"))
		write := func() []byte {
			var want []byte
			for i, chunk := range chunks {
				if i < len(single) && single[i] && len(chunk) > 0 {
					b.PushBack(chunk[0])
					want = append(want, chunk[0])
					continue
				}
				b.Append(chunk)
				want = append(want, chunk...)
			}
			return want
		}

		want := write()
		view := b.CString()
		if len(view) != len(want)+1 {
			rt.Fatalf("view length %d, want %d", len(view), len(want)+1)
		}
		if !bytes.Equal(view[:len(want)], want) {
			rt.Fatalf("view %q, want %q", view[:len(want)], want)
		}
		if view[len(want)] != 0 {
			rt.Fatalf("view not terminated: %q", view)
		}
		if b.Len() != len(want) {
			rt.Fatalf("CString changed length to %d", b.Len())
		}
		first := append([]byte(nil), view...)

		b.Clear()
		write()
		if !bytes.Equal(b.CString(), first) {
			rt.Fatalf("replay after Clear produced %q, want %q", b.CString(), first)
		}
	})
}

func TestGrowthUsesFixedIncrement(t *testing.T) {
	b := New(0)
	require.Equal(t, InitialSize, b.Cap())

	b.AppendString(strings.Repeat("x", InitialSize))
	assert.Equal(t, InitialSize, b.Cap())

	b.PushBack('y')
	assert.Equal(t, InitialSize+Increment, b.Cap())

	b.Append(bytes.Repeat([]byte("z"), 500))
	assert.Equal(t, InitialSize+1+500, b.Cap(), "large writes grow by the excess")
	assert.Equal(t, InitialSize+1+500, b.Len())
}

func TestReserveNeverShrinks(t *testing.T) {
	b := NewWithIncrement(10, 4)
	b.Reserve(12)
	assert.Equal(t, 14, b.Cap())
	b.Reserve(3)
	assert.Equal(t, 14, b.Cap())
	b.Clear()
	assert.Equal(t, 14, b.Cap())
}

func TestGrowthPreservesContents(t *testing.T) {
	b := NewWithIncrement(2, 1)
	for i := 0; i < 100; i++ {
		b.PushBack(byte('a' + i%26))
	}
	assert.Equal(t, strings.Repeat("abcdefghijklmnopqrstuvwxyz", 4)[:100], b.String())
}

func TestAppendSizedKeepsZeroBytes(t *testing.T) {
	b := New(4)
	record := []byte("42\x00F3\x00")
	b.AppendSized(record)
	assert.Equal(t, len(record), b.Len())
	assert.Equal(t, record, b.Bytes())
}

func TestAppendInt(t *testing.T) {
	tests := []struct {
		in   int
		want string
	}{
		{0, "0"},
		{7, "7"},
		{42, "42"},
		{-13, "-13"},
		{1234567890, "1234567890"},
	}
	for _, tt := range tests {
		b := New(1)
		b.AppendInt(tt.in)
		assert.Equal(t, tt.want, b.String())
	}
}

func TestAppendPadded(t *testing.T) {
	b := New(0)
	b.AppendPadded(42, 4)
	b.PushBack('|')
	b.AppendPadded(12345, 3)
	assert.Equal(t, "  42|12345", b.String())
}

func TestWriteTo(t *testing.T) {
	b := New(0)
	_, _ = b.WriteString("<b>int</b>")
	_ = b.WriteByte(' ')
	_, _ = b.Write([]byte("x;"))

	var out bytes.Buffer
	n, err := b.WriteTo(&out)
	require.NoError(t, err)
	assert.EqualValues(t, b.Len(), n)
	assert.Equal(t, "<b>int</b> x;", out.String())
	assert.Equal(t, "<b>int</b> x;", b.String(), "WriteTo leaves contents in place")
}
