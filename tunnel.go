package construct

import (
	"bytes"
	"compress/zlib"
	"io"

	"github.com/pierrec/lz4/v3"
)

// tunnel transforms the byte view its sub sees: parse decodes the
// remaining stream bytes and feeds the result to the sub, build
// renders the sub into a private buffer and encodes that into the
// outer stream.  A tunnel consumes to end of stream, so it is
// normally bounded by an enclosing Prefixed.
type tunnel struct {
	subcon
	decode func([]byte) ([]byte, error)
	encode func([]byte) ([]byte, error)
}

// Tunnel wraps sub in an invertible byte-to-byte transformation.
func Tunnel(sub Construct, decode, encode func([]byte) ([]byte, error)) Construct {
	return &tunnel{subcon: subcon{sub: sub}, decode: decode, encode: encode}
}

func (c *tunnel) Parse(s *Stream, ctx *Context) (any, error) {
	decoded, err := c.decode(s.ReadAll())
	if err != nil {
		return nil, err
	}
	return c.sub.Parse(NewStream(decoded), ctx)
}

func (c *tunnel) Build(v any, s *Stream, ctx *Context) (any, error) {
	scratch := NewStream(nil)
	if _, err := c.sub.Build(v, scratch, ctx); err != nil {
		return nil, err
	}
	encoded, err := c.encode(scratch.Bytes())
	if err != nil {
		return nil, err
	}
	return nil, s.Write(encoded)
}

func (c *tunnel) Sizeof(ctx *Context) (int, error) {
	return 0, newError(ErrSizeof, "tunnel size depends on the encoded data")
}

// Compressed tunnels sub through a compression codec.  Supported
// codecs: "zlib" and "lz4".
func Compressed(sub Construct, codec string) Construct {
	switch codec {
	case "zlib":
		return Tunnel(sub, zlibDecompress, zlibCompress)
	case "lz4":
		return Tunnel(sub, lz4Decompress, lz4Compress)
	}
	panic("construct: unknown compression codec " + codec)
}

func zlibCompress(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	zw := zlib.NewWriter(&buf)
	if _, err := zw.Write(data); err != nil {
		return nil, newError(ErrString, "zlib: %v", err)
	}
	if err := zw.Close(); err != nil {
		return nil, newError(ErrString, "zlib: %v", err)
	}
	return buf.Bytes(), nil
}

func zlibDecompress(data []byte) ([]byte, error) {
	zr, err := zlib.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, newError(ErrString, "zlib: %v", err)
	}
	defer zr.Close()
	out, err := io.ReadAll(zr)
	if err != nil {
		return nil, newError(ErrString, "zlib: %v", err)
	}
	return out, nil
}

func lz4Compress(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	zw := lz4.NewWriter(&buf)
	if _, err := zw.Write(data); err != nil {
		return nil, newError(ErrString, "lz4: %v", err)
	}
	if err := zw.Close(); err != nil {
		return nil, newError(ErrString, "lz4: %v", err)
	}
	return buf.Bytes(), nil
}

func lz4Decompress(data []byte) ([]byte, error) {
	out, err := io.ReadAll(lz4.NewReader(bytes.NewReader(data)))
	if err != nil {
		return nil, newError(ErrString, "lz4: %v", err)
	}
	return out, nil
}
