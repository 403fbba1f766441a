package construct

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompressedZlib(t *testing.T) {
	payload := bytes.Repeat([]byte("0"), 100)

	t.Run("prefixed greedy roundtrip", func(t *testing.T) {
		format := Prefixed(Byte, Compressed(GreedyBytes, "zlib"))
		built := mustBuild(t, format, payload)
		assert.Less(t, len(built), len(payload))
		assert.Equal(t, payload, mustParse(t, format, built))
	})

	t.Run("parses a foreign zlib stream", func(t *testing.T) {
		// produced by another zlib implementation; trailing garbage
		// stays outside the prefix
		data := append([]byte{0x0c, 0x78, 0x9c, 0x33, 0x30, 0xa0, 0x3d, 0x00, 0x00, 0xb3, 0x71, 0x12, 0xc1}, []byte("?????")...)
		format := Prefixed(Byte, Compressed(GreedyBytes, "zlib"))
		assert.Equal(t, payload, mustParse(t, format, data))
	})

	t.Run("terminated string through the tunnel", func(t *testing.T) {
		format := Prefixed(Byte, Compressed(CString(), "zlib"))
		built := mustBuild(t, format, payload)
		assert.Equal(t, payload, mustParse(t, format, built))
	})

	t.Run("no static size", func(t *testing.T) {
		_, err := Sizeof(Compressed(GreedyBytes, "zlib"))
		assert.ErrorIs(t, err, ErrSizeof)
	})

	t.Run("corrupt stream", func(t *testing.T) {
		format := Prefixed(Byte, Compressed(GreedyBytes, "zlib"))
		_, err := Parse(format, []byte{0x04, 0xde, 0xad, 0xbe, 0xef})
		assert.ErrorIs(t, err, ErrString)
	})
}

func TestCompressedLz4(t *testing.T) {
	payload := bytes.Repeat([]byte("abcd"), 64)
	format := Prefixed(UBInt16, Compressed(GreedyBytes, "lz4"))

	built := mustBuild(t, format, payload)
	assert.Equal(t, payload, mustParse(t, format, built))
}

func TestTunnel(t *testing.T) {
	xor := func(data []byte) ([]byte, error) {
		out := make([]byte, len(data))
		for i, b := range data {
			out[i] = b ^ 0x5a
		}
		return out, nil
	}
	format := Tunnel(GreedyBytes, xor, xor)

	built := mustBuild(t, format, []byte("secret"))
	require.NotEqual(t, []byte("secret"), built)
	assert.Equal(t, []byte("secret"), mustParse(t, format, built))
}

func TestUnknownCodecPanics(t *testing.T) {
	assert.Panics(t, func() { Compressed(GreedyBytes, "snappy") })
}
