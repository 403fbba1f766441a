package construct

import (
	"crypto/sha1"
	"encoding/binary"
	"hash/crc32"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func crcDigest(data []byte) []byte {
	out := make([]byte, 4)
	binary.BigEndian.PutUint32(out, crc32.ChecksumIEEE(data))
	return out
}

func checksummed() Construct {
	return Struct(
		AnchorRange("payload"),
		R("a", Byte),
		R("data", Bytes(4)),
		AnchorRange("payload"),
		R("crc", Checksum(Bytes(4), crcDigest, "payload")),
	)
}

func TestChecksum(t *testing.T) {
	t.Run("build computes the digest", func(t *testing.T) {
		data, err := Build(checksummed(), map[string]any{"a": 7, "data": []byte("wxyz")})
		require.NoError(t, err)
		assert.Equal(t, append([]byte{0x07, 'w', 'x', 'y', 'z'}, crcDigest([]byte("\x07wxyz"))...), data)
	})

	t.Run("roundtrip", func(t *testing.T) {
		built, err := Build(checksummed(), map[string]any{"a": 7, "data": []byte("wxyz")})
		require.NoError(t, err)

		parsed := mustParse(t, checksummed(), built)
		con := parsed.(*Container)
		v, _ := con.Get("data")
		assert.Equal(t, []byte("wxyz"), v)
	})

	t.Run("corruption inside the range is detected", func(t *testing.T) {
		built, err := Build(checksummed(), map[string]any{"a": 7, "data": []byte("wxyz")})
		require.NoError(t, err)

		built[2] ^= 0xff
		_, err = Parse(checksummed(), built)
		assert.ErrorIs(t, err, ErrChecksum)
	})

	t.Run("missing anchors", func(t *testing.T) {
		format := Struct(R("crc", Checksum(Bytes(4), crcDigest, "payload")))
		_, err := Parse(format, []byte{0, 0, 0, 0})
		assert.ErrorIs(t, err, ErrChecksum)
	})

	t.Run("wider digests work the same", func(t *testing.T) {
		shaDigest := func(data []byte) []byte {
			sum := sha1.Sum(data)
			return sum[:]
		}
		format := Struct(
			AnchorRange("body"),
			R("data", Bytes(3)),
			AnchorRange("body"),
			R("sha", Checksum(Bytes(sha1.Size), shaDigest, "body")),
		)
		built, err := Build(format, map[string]any{"data": []byte("abc")})
		require.NoError(t, err)
		require.Len(t, built, 3+sha1.Size)

		_, err = Parse(format, built)
		assert.NoError(t, err)
	})
}
