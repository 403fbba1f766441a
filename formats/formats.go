// Package formats holds example format declarations built on the
// construct catalogue.  They double as living documentation and as
// the formats the binspect tool can decode.
package formats

import (
	"encoding/binary"
	"hash/crc32"

	"github.com/binwire/construct"
)

// Bitmap is a simplified BMP file: the classic two byte magic, the
// little-endian file header, the info header and raw pixel data.
var Bitmap = construct.Struct(
	construct.R("signature", construct.Const([]byte("BM"))),
	construct.R("file_size", construct.ULInt32),
	construct.Padding(4),
	construct.R("data_offset", construct.ULInt32),
	construct.R("header_size", construct.ULInt32),
	construct.R("width", construct.ULInt32),
	construct.R("height", construct.ULInt32),
	construct.R("planes", construct.ULInt16),
	construct.R("bpp", construct.ULInt16),
	construct.R("compression", construct.ULInt32),
	construct.R("image_size", construct.ULInt32),
	construct.R("pixels", construct.GreedyBytes),
)

// Chunk is a PNG-style chunk: a big-endian length, a four character
// type, the payload and a CRC-32 of type plus payload.
var Chunk = construct.Struct(
	construct.R("length", construct.UBInt32),
	construct.AnchorRange("body"),
	construct.R("ctype", construct.String(4, construct.StringOpts{Encoding: "ascii"})),
	construct.R("data", construct.MetaBytes(construct.ThisInt("length"))),
	construct.AnchorRange("body"),
	construct.R("crc", construct.Checksum(construct.Bytes(4), crcDigest, "body")),
)

// ChunkFile is a signature followed by chunks to end of file; a
// chunk that fails to decode surfaces as trailing bytes.
var ChunkFile = construct.Struct(
	construct.R("signature", construct.Const([]byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n'})),
	construct.R("chunks", construct.GreedyRange(Chunk)),
	construct.Terminator,
)

func crcDigest(data []byte) []byte {
	out := make([]byte, 4)
	binary.BigEndian.PutUint32(out, crc32.ChecksumIEEE(data))
	return out
}

// ListNode is a recursive linked list record: a payload byte and the
// absolute offset of the next node, zero meaning end of list.  The
// self reference goes through LazyBound.
var ListNode construct.Construct

func init() {
	ListNode = construct.Struct(
		construct.R("value", construct.Byte),
		construct.R("next_offset", construct.Byte),
		construct.R("next", construct.If(hasNext,
			construct.Pointer(construct.ThisInt("next_offset"),
				construct.LazyBound(func() construct.Construct { return ListNode })))),
	)
}

func hasNext(ctx *construct.Context) (bool, error) {
	offset, err := ctx.Int("next_offset")
	if err != nil {
		return false, err
	}
	return offset != 0, nil
}

// Registry names every format binspect can decode.
var Registry = map[string]construct.Construct{
	"bitmap": Bitmap,
	"chunks": ChunkFile,
	"list":   ListNode,
}
