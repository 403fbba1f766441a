package construct

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPointer(t *testing.T) {
	format := Pointer(Lit(2), R("pointer", UBInt8))

	t.Run("parse at offset", func(t *testing.T) {
		assert.Equal(t, 7, mustParse(t, format, []byte{0x00, 0x00, 0x07}))
	})

	t.Run("build at offset grows the stream", func(t *testing.T) {
		assert.Equal(t, []byte{0x00, 0x00, 0x07}, mustBuild(t, format, 7))
	})

	t.Run("occupies no bytes", func(t *testing.T) {
		assert.Equal(t, 0, mustSizeof(t, format))
	})

	t.Run("offset from an earlier field", func(t *testing.T) {
		indexed := Struct(
			R("offset", Byte),
			R("value", Pointer(ThisInt("offset"), Byte)),
		)
		assertValue(t, C("offset", 3, "value", 0xab),
			mustParse(t, indexed, []byte{0x03, 0x00, 0x00, 0xab}))
	})

	t.Run("negative offset counts from the end", func(t *testing.T) {
		last := Pointer(Lit(-1), Byte)
		assert.Equal(t, 9, mustParse(t, last, []byte{1, 2, 9}))
	})
}

func TestPeek(t *testing.T) {
	t.Run("does not consume", func(t *testing.T) {
		assert.Equal(t, 1, mustParse(t, Peek(UBInt8), []byte{0x01}))

		format := Struct(Peek(R("a", UBInt8)), R("b", UBInt16))
		assertValue(t, C("a", 1, "b", 0x0102), mustParse(t, format, []byte{0x01, 0x02}))
		assert.Equal(t, []byte{0x01, 0x02}, mustBuild(t, format, map[string]any{"a": 1, "b": 0x0102}))
	})

	t.Run("end of stream yields nil", func(t *testing.T) {
		assert.Nil(t, mustParse(t, Peek(UBInt8), nil))
	})

	t.Run("build writes nothing", func(t *testing.T) {
		assert.Equal(t, []byte(nil), mustBuild(t, Peek(UBInt8), 1))
		assert.Equal(t, []byte(nil), mustBuild(t, Peek(UBInt8), nil))
	})

	t.Run("stacked peeks", func(t *testing.T) {
		format := Struct(Peek(R("a", Byte)), Peek(R("b", UBInt16)))
		assertValue(t, C("a", 1, "b", 0x0102), mustParse(t, format, []byte{0x01, 0x02}))
		assert.Equal(t, []byte(nil), mustBuild(t, format, map[string]any{"a": 0, "b": 0x0102}))
		assert.Equal(t, 0, mustSizeof(t, format))
	})

	t.Run("occupies no bytes", func(t *testing.T) {
		assert.Equal(t, 0, mustSizeof(t, Peek(UBInt8)))
		assert.Equal(t, 0, mustSizeof(t, Peek(VarInt)))
	})
}

func TestAnchorRange(t *testing.T) {
	format := Struct(
		AnchorRange("span"),
		R("a", Byte),
		R("b", UBInt16),
		AnchorRange("span"),
		R("span_length", Computed(This("span", "length"))),
	)
	expected := C("a", 1, "b", 0x0203, "span_length", 3)
	assertValue(t, expected, mustParse(t, format, []byte{0x01, 0x02, 0x03}))
}

func TestPadding(t *testing.T) {
	t.Run("plain", func(t *testing.T) {
		assert.Nil(t, mustParse(t, Padding(4), []byte{0, 0, 0, 0}))
		assert.Equal(t, []byte{0, 0, 0, 0}, mustBuild(t, Padding(4), nil))
		assert.Equal(t, 4, mustSizeof(t, Padding(4)))
	})

	t.Run("strict verifies the pattern", func(t *testing.T) {
		strict := Padding(4, PadOpts{Strict: true})
		assert.Nil(t, mustParse(t, strict, []byte{0, 0, 0, 0}))
		_, err := Parse(strict, []byte("????"))
		assert.ErrorIs(t, err, ErrPadding)
	})

	t.Run("custom pattern", func(t *testing.T) {
		pad := Padding(4, PadOpts{Pattern: 'x', Strict: true})
		assert.Nil(t, mustParse(t, pad, []byte("xxxx")))
		_, err := Parse(pad, []byte("????"))
		assert.ErrorIs(t, err, ErrPadding)
		assert.Equal(t, []byte("xxxx"), mustBuild(t, pad, nil))
	})
}

func TestPadded(t *testing.T) {
	t.Run("plain", func(t *testing.T) {
		format := Padded(4, Byte)
		assert.Equal(t, 1, mustParse(t, format, []byte{0x01, 0x00, 0x00, 0x00}))
		assert.Equal(t, []byte{0x01, 0x00, 0x00, 0x00}, mustBuild(t, format, 1))
		assert.Equal(t, 4, mustSizeof(t, format))
	})

	t.Run("strict", func(t *testing.T) {
		format := Padded(4, Byte, PadOpts{Strict: true})
		assert.Equal(t, 1, mustParse(t, format, []byte{0x01, 0x00, 0x00, 0x00}))
		_, err := Parse(format, []byte("\x01???"))
		assert.ErrorIs(t, err, ErrPadding)
	})

	t.Run("custom pattern", func(t *testing.T) {
		format := Padded(4, Byte, PadOpts{Pattern: 'x', Strict: true})
		assert.Equal(t, 1, mustParse(t, format, []byte("\x01xxx")))
		_, err := Parse(format, []byte("\x01???"))
		assert.ErrorIs(t, err, ErrPadding)
	})
}

func TestAligned(t *testing.T) {
	t.Run("single field", func(t *testing.T) {
		format := Aligned(Byte, 4)
		assert.Equal(t, 1, mustParse(t, format, []byte{0x01, 0x00, 0x00, 0x00}))
		assert.Equal(t, []byte{0x01, 0x00, 0x00, 0x00}, mustBuild(t, format, 1))
		assert.Equal(t, 4, mustSizeof(t, format))
	})

	t.Run("inside a struct", func(t *testing.T) {
		format := Struct(Aligned(R("a", Byte), 4), R("b", Byte))
		assertValue(t, C("a", 1, "b", 2), mustParse(t, format, []byte{0x01, 0, 0, 0, 0x02}))
		assert.Equal(t, []byte{0x01, 0, 0, 0, 0x02}, mustBuild(t, format, C("a", 1, "b", 2)))
		assert.Equal(t, 5, mustSizeof(t, format))
	})

	t.Run("dynamic content aligns to the consumed size", func(t *testing.T) {
		format := Aligned(Struct(R("a", Byte), R("f", MetaBytes(ThisInt("a")))), 4)
		expected := C("a", 2, "f", []byte{0xab, 0xcd})
		assertValue(t, expected, mustParse(t, format, []byte{0x02, 0xab, 0xcd, 0x00}))
		assert.Equal(t, []byte{0x02, 0xab, 0xcd, 0x00}, mustBuild(t, format, expected))
	})

	t.Run("modulus validated", func(t *testing.T) {
		assert.Panics(t, func() { Aligned(Byte, 1) })
	})
}

func TestByteSwapped(t *testing.T) {
	t.Run("blob", func(t *testing.T) {
		format := ByteSwapped(Bytes(5))
		assert.Equal(t, []byte("54321"), mustParse(t, format, []byte("12345?????")))
		assert.Equal(t, []byte("54321"), mustBuild(t, format, []byte("12345")))
		assert.Equal(t, 5, mustSizeof(t, format))
	})

	t.Run("struct fields reverse", func(t *testing.T) {
		format := ByteSwapped(Struct(R("a", Byte), R("b", Byte)))
		assertValue(t, C("a", 2, "b", 1), mustParse(t, format, []byte{0x01, 0x02}))
		assert.Equal(t, []byte{0x01, 0x02}, mustBuild(t, format, C("a", 2, "b", 1)))
	})

	t.Run("explicit window narrower than the sub", func(t *testing.T) {
		format := ByteSwapped(Bytes(5), 4)
		_, err := Parse(format, []byte("54321"))
		assert.ErrorIs(t, err, ErrField)
	})
}

func TestPrefixed(t *testing.T) {
	t.Run("bounded fixed field", func(t *testing.T) {
		format := Prefixed(Byte, ULInt16)
		assert.Equal(t, 65535, mustParse(t, format, []byte("\x02\xff\xffgarbage")))
		assert.Equal(t, []byte{0x02, 0xff, 0xff}, mustBuild(t, format, 65535))
	})

	t.Run("bounded greedy field", func(t *testing.T) {
		format := Prefixed(VarInt, GreedyBytes)
		assert.Equal(t, []byte("abc"), mustParse(t, format, []byte("\x03abcgarbage")))
		assert.Equal(t, []byte("\x03abc"), mustBuild(t, format, []byte("abc")))
	})

	t.Run("no static size", func(t *testing.T) {
		_, err := Sizeof(Prefixed(Byte, ULInt16))
		assert.ErrorIs(t, err, ErrSizeof)
	})
}

func TestStream(t *testing.T) {
	t.Run("read past end", func(t *testing.T) {
		s := NewStream([]byte{1, 2})
		_, err := s.Read(3)
		assert.ErrorIs(t, err, ErrField)
	})

	t.Run("seek from end", func(t *testing.T) {
		s := NewStream([]byte{1, 2, 3, 4})
		pos, err := s.SeekTo(-1)
		require.NoError(t, err)
		assert.Equal(t, 3, pos)
		b, err := s.Read(1)
		require.NoError(t, err)
		assert.Equal(t, []byte{4}, b)
	})

	t.Run("write past end zero fills", func(t *testing.T) {
		s := NewStream(nil)
		_, err := s.SeekTo(2)
		require.NoError(t, err)
		require.NoError(t, s.Write([]byte{7}))
		assert.Equal(t, []byte{0, 0, 7}, s.Bytes())
	})
}
