package construct

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestString(t *testing.T) {
	t.Run("raw bytes", func(t *testing.T) {
		assert.Equal(t, []byte("hello"), mustParse(t, String(5), []byte("hello")))
		assert.Equal(t, []byte("hello"), mustBuild(t, String(5), []byte("hello")))
		assert.Equal(t, []byte{0, 0, 0, 0, 0}, mustBuild(t, String(5), []byte("")))
	})

	t.Run("under read", func(t *testing.T) {
		_, err := Parse(String(5), nil)
		assert.ErrorIs(t, err, ErrField)
	})

	t.Run("utf8", func(t *testing.T) {
		field := String(12, StringOpts{Encoding: "utf8"})
		assert.Equal(t, "hello johԃn", mustParse(t, field, []byte("hello joh\xd4\x83n")))
		assert.Equal(t, []byte("hello joh\xd4\x83n"), mustBuild(t, field, "hello johԃn"))
		assert.Equal(t, 12, mustSizeof(t, field))
	})

	t.Run("string without encoding rejected", func(t *testing.T) {
		_, err := Build(String(5), "hello")
		assert.ErrorIs(t, err, ErrString)
	})

	t.Run("padding directions", func(t *testing.T) {
		tests := []struct {
			name   string
			dir    PadDir
			padded []byte
		}{
			{"right", PadRight, []byte("helloXXXXX")},
			{"left", PadLeft, []byte("XXXXXhello")},
			{"center", PadCenter, []byte("XXhelloXXX")},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				field := String(10, StringOpts{PadChar: 'X', PadDir: tt.dir})
				assert.Equal(t, []byte("hello"), mustParse(t, field, tt.padded))
				assert.Equal(t, tt.padded, mustBuild(t, field, []byte("hello")))
			})
		}
	})

	t.Run("length from context", func(t *testing.T) {
		format := Struct(
			R("n", Byte),
			R("name", MetaString(ThisInt("n"), StringOpts{Encoding: "utf8"})),
		)
		assertValue(t, C("n", 5, "name", "hello"), mustParse(t, format, []byte("\x05helloXX")))
		assert.Equal(t, []byte("\x05hello"), mustBuild(t, format, C("n", 5, "name", "hello")))
	})

	t.Run("trim directions", func(t *testing.T) {
		assert.Equal(t, []byte("12345"),
			mustBuild(t, String(5, StringOpts{TrimDir: TrimRight}), []byte("1234567890")))
		assert.Equal(t, []byte("67890"),
			mustBuild(t, String(5, StringOpts{TrimDir: TrimLeft}), []byte("1234567890")))
	})
}

func TestCString(t *testing.T) {
	t.Run("null terminated", func(t *testing.T) {
		assert.Equal(t, []byte("hello"), mustParse(t, CString(), []byte("hello\x00")))
		assert.Equal(t, []byte("hello\x00"), mustBuild(t, CString(), []byte("hello")))
	})

	t.Run("utf8", func(t *testing.T) {
		field := CStringOpt([]byte{0}, "utf8")
		assert.Equal(t, "hello", mustParse(t, field, []byte("hello\x00")))
		assert.Equal(t, []byte("hello\x00"), mustBuild(t, field, "hello"))
	})

	t.Run("alternative terminators", func(t *testing.T) {
		field := CStringOpt([]byte("XYZ"), "utf8")
		for _, data := range []string{"helloX", "helloY", "helloZ"} {
			assert.Equal(t, "hello", mustParse(t, field, []byte(data)))
		}
		// the first terminator wins on build
		assert.Equal(t, []byte("helloX"), mustBuild(t, field, "hello"))
	})

	t.Run("missing terminator", func(t *testing.T) {
		_, err := Parse(CString(), []byte("hello"))
		assert.ErrorIs(t, err, ErrField)
	})

	t.Run("no static size", func(t *testing.T) {
		_, err := Sizeof(CString())
		assert.ErrorIs(t, err, ErrSizeof)
	})
}

func TestGreedyString(t *testing.T) {
	t.Run("raw", func(t *testing.T) {
		assert.Equal(t, []byte("hello\x00"), mustParse(t, GreedyString(""), []byte("hello\x00")))
		assert.Equal(t, []byte{}, mustParse(t, GreedyString(""), []byte{}))
		assert.Equal(t, []byte("hello\x00"), mustBuild(t, GreedyString(""), []byte("hello\x00")))
	})

	t.Run("utf8", func(t *testing.T) {
		assert.Equal(t, "hello\x00", mustParse(t, GreedyString("utf8"), []byte("hello\x00")))
		assert.Equal(t, "", mustParse(t, GreedyString("utf8"), []byte{}))
		assert.Equal(t, []byte("hello"), mustBuild(t, GreedyString("utf8"), "hello"))
	})
}

func TestPascalString(t *testing.T) {
	t.Run("byte length", func(t *testing.T) {
		field := PascalString(Byte, "")
		assert.Equal(t, []byte("hello"), mustParse(t, field, []byte("\x05hello????")))
		assert.Equal(t, []byte("\x05hello"), mustBuild(t, field, []byte("hello")))
	})

	t.Run("wide length field", func(t *testing.T) {
		field := PascalString(UBInt16, "utf8")
		assert.Equal(t, "hello", mustParse(t, field, []byte("\x00\x05hello????")))
		assert.Equal(t, []byte("\x00\x05hello"), mustBuild(t, field, "hello"))
	})

	t.Run("no static size", func(t *testing.T) {
		_, err := Sizeof(PascalString(Byte, ""))
		assert.ErrorIs(t, err, ErrSizeof)
	})
}
