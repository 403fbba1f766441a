package construct

import (
	"bytes"
	"errors"
)

// pointer runs its sub at an absolute stream offset, restoring the
// cursor afterwards.  Negative offsets count from the end of the
// stream.
type pointer struct {
	subcon
	offsetFn LengthFunc
}

// Pointer parses and builds sub at offsetFn(ctx) instead of the
// current position.  It occupies zero bytes of its own.
func Pointer(offsetFn LengthFunc, sub Construct) Construct {
	return &pointer{subcon: subcon{sub: sub}, offsetFn: offsetFn}
}

func (c *pointer) Parse(s *Stream, ctx *Context) (any, error) {
	offset, err := c.offsetFn(ctx)
	if err != nil {
		return nil, err
	}
	saved := s.Tell()
	if _, err := s.SeekTo(offset); err != nil {
		return nil, err
	}
	v, err := c.sub.Parse(s, ctx)
	if _, serr := s.SeekTo(saved); serr != nil && err == nil {
		err = serr
	}
	if err != nil {
		return nil, err
	}
	return v, nil
}

func (c *pointer) Build(v any, s *Stream, ctx *Context) (any, error) {
	offset, err := c.offsetFn(ctx)
	if err != nil {
		return nil, err
	}
	saved := s.Tell()
	if _, err := s.SeekTo(offset); err != nil {
		return nil, err
	}
	_, err = c.sub.Build(v, s, ctx)
	if _, serr := s.SeekTo(saved); serr != nil && err == nil {
		err = serr
	}
	return nil, err
}

func (c *pointer) Sizeof(ctx *Context) (int, error) { return 0, nil }

// peek parses its sub and rewinds, so the bytes stay available to the
// next sibling.  Only under-reads are swallowed; every other failure
// propagates.
type peek struct {
	subcon
	performBuild bool
}

// Peek parses sub without consuming input.  At end of stream it
// yields nil instead of failing.  Build is a no-op.
func Peek(sub Construct) Construct {
	return &peek{subcon: subcon{sub: sub}}
}

// PeekPerformBuild is Peek whose build actually runs the sub and then
// rewinds, rolling back on failure.
func PeekPerformBuild(sub Construct) Construct {
	return &peek{subcon: subcon{sub: sub}, performBuild: true}
}

func (c *peek) Parse(s *Stream, ctx *Context) (any, error) {
	pos := s.Tell()
	v, err := c.sub.Parse(s, ctx)
	if _, serr := s.SeekTo(pos); serr != nil {
		return nil, serr
	}
	if err != nil {
		if isFieldErr(err) {
			return nil, nil
		}
		return nil, err
	}
	return v, nil
}

func (c *peek) Build(v any, s *Stream, ctx *Context) (any, error) {
	if !c.performBuild {
		return nil, nil
	}
	pos := s.Tell()
	if _, err := c.sub.Build(v, s, ctx); err != nil {
		if _, serr := s.SeekTo(pos); serr != nil {
			return nil, serr
		}
		return nil, nil
	}
	_, err := s.SeekTo(pos)
	return nil, err
}

func (c *peek) Flags() Flags { return c.sub.Flags() | FlagBuildNone }

func (c *peek) Sizeof(ctx *Context) (int, error) { return 0, nil }

// Anchor is the zero-byte construct that captures the current stream
// position.  Name it inside a struct to bind the position, and feed it
// to pointers, length fields and checksums.  A shared immutable
// singleton.
var Anchor Construct = anchorCon{}

type anchorCon struct{}

func (anchorCon) Name() string { return "" }
func (anchorCon) Flags() Flags { return FlagBuildNone }

func (anchorCon) Parse(s *Stream, ctx *Context) (any, error) {
	return s.Tell(), nil
}

func (anchorCon) Build(v any, s *Stream, ctx *Context) (any, error) {
	return s.Tell(), nil
}

func (anchorCon) Sizeof(ctx *Context) (int, error) { return 0, nil }

// anchorRange captures a byte range between two occurrences of the
// same key: the first occurrence records the start, the second the
// end and length.  The range container is published into the context
// under the key, where Checksum picks it up.
type anchorRange struct {
	key string
}

// AnchorRange marks one edge of a byte range named key.  Place one
// before and one after the spanned fields.
func AnchorRange(key string) Construct {
	return &anchorRange{key: key}
}

func (c *anchorRange) Name() string { return "" }
func (c *anchorRange) Flags() Flags { return FlagBuildNone }

func (c *anchorRange) mark(s *Stream, ctx *Context) (any, error) {
	pos := s.Tell()
	if prev, ok := ctx.Get(c.key); ok {
		if con, ok := prev.(*Container); ok && !con.Has("offset2") {
			start, _ := con.Get("offset1")
			startPos, err := toInt(start)
			if err != nil {
				return nil, err
			}
			con.Set("offset2", pos)
			con.Set("length", pos-startPos)
			return nil, nil
		}
	}
	con := NewContainer()
	con.Set("offset1", pos)
	ctx.Set(c.key, con)
	return nil, nil
}

func (c *anchorRange) Parse(s *Stream, ctx *Context) (any, error) {
	return c.mark(s, ctx)
}

func (c *anchorRange) Build(v any, s *Stream, ctx *Context) (any, error) {
	return c.mark(s, ctx)
}

func (c *anchorRange) Sizeof(ctx *Context) (int, error) { return 0, nil }

// PadOpts configures padding constructs: the fill byte and whether
// parse verifies it.
type PadOpts struct {
	Pattern byte
	Strict  bool
}

func padOpt(opts []PadOpts) PadOpts {
	if len(opts) > 0 {
		return opts[0]
	}
	return PadOpts{}
}

// padding reads or writes a run of fill bytes.
type padding struct {
	leaf
	length int
	opts   PadOpts
}

// Padding occupies length bytes of fill.  Parse discards them, or
// verifies them against the pattern when strict.
func Padding(length int, opts ...PadOpts) Construct {
	return &padding{leaf: leaf{flags: FlagBuildNone}, length: length, opts: padOpt(opts)}
}

func (c *padding) Parse(s *Stream, ctx *Context) (any, error) {
	data, err := s.Read(c.length)
	if err != nil {
		return nil, err
	}
	if c.opts.Strict && !padCheck(data, c.opts.Pattern) {
		return nil, newError(ErrPadding, "expected %d bytes of %#x", c.length, c.opts.Pattern)
	}
	return nil, nil
}

func (c *padding) Build(v any, s *Stream, ctx *Context) (any, error) {
	return nil, s.Write(bytes.Repeat([]byte{c.opts.Pattern}, c.length))
}

func (c *padding) Sizeof(ctx *Context) (int, error) {
	return c.length, nil
}

// padded pads its sub out to a fixed total length.
type padded struct {
	subcon
	length int
	opts   PadOpts
}

// Padded runs sub and then fills up to length bytes total.
func Padded(length int, sub Construct, opts ...PadOpts) Construct {
	return &padded{subcon: subcon{sub: sub}, length: length, opts: padOpt(opts)}
}

func (c *padded) Parse(s *Stream, ctx *Context) (any, error) {
	start := s.Tell()
	v, err := c.sub.Parse(s, ctx)
	if err != nil {
		return nil, err
	}
	pad := c.length - (s.Tell() - start)
	if pad < 0 {
		return nil, newError(ErrPadding, "content overflows %d byte pad", c.length)
	}
	data, err := s.Read(pad)
	if err != nil {
		return nil, err
	}
	if c.opts.Strict && !padCheck(data, c.opts.Pattern) {
		return nil, newError(ErrPadding, "expected %d bytes of %#x", pad, c.opts.Pattern)
	}
	return v, nil
}

func (c *padded) Build(v any, s *Stream, ctx *Context) (any, error) {
	start := s.Tell()
	ret, err := c.sub.Build(v, s, ctx)
	if err != nil {
		return nil, err
	}
	pad := c.length - (s.Tell() - start)
	if pad < 0 {
		return nil, newError(ErrPadding, "content overflows %d byte pad", c.length)
	}
	return ret, s.Write(bytes.Repeat([]byte{c.opts.Pattern}, pad))
}

func (c *padded) Sizeof(ctx *Context) (int, error) {
	return c.length, nil
}

// aligned pads its sub out to the next multiple of the modulus.
type aligned struct {
	subcon
	modulus int
	opts    PadOpts
}

// Aligned runs sub and then consumes or emits fill bytes until the
// consumed size is a multiple of modulus.
func Aligned(sub Construct, modulus int, opts ...PadOpts) Construct {
	if modulus < 2 {
		panic("construct: alignment modulus must be at least 2")
	}
	return &aligned{subcon: subcon{sub: sub}, modulus: modulus, opts: padOpt(opts)}
}

func (c *aligned) padLen(consumed int) int {
	return (c.modulus - consumed%c.modulus) % c.modulus
}

func (c *aligned) Parse(s *Stream, ctx *Context) (any, error) {
	start := s.Tell()
	v, err := c.sub.Parse(s, ctx)
	if err != nil {
		return nil, err
	}
	data, err := s.Read(c.padLen(s.Tell() - start))
	if err != nil {
		return nil, err
	}
	if c.opts.Strict && !padCheck(data, c.opts.Pattern) {
		return nil, newError(ErrPadding, "misaligned fill bytes")
	}
	return v, nil
}

func (c *aligned) Build(v any, s *Stream, ctx *Context) (any, error) {
	start := s.Tell()
	ret, err := c.sub.Build(v, s, ctx)
	if err != nil {
		return nil, err
	}
	pad := c.padLen(s.Tell() - start)
	return ret, s.Write(bytes.Repeat([]byte{c.opts.Pattern}, pad))
}

func (c *aligned) Sizeof(ctx *Context) (int, error) {
	n, err := c.sub.Sizeof(ctx)
	if err != nil {
		return 0, err
	}
	return n + c.padLen(n), nil
}

// byteSwapped reverses a fixed-size window of bytes before handing
// them to its sub, and mirrors the reversal on build.
type byteSwapped struct {
	subcon
	size int
}

// ByteSwapped feeds sub a byte-reversed view of its window.  The
// window defaults to the sub's static size; pass an explicit size for
// dynamic subs.
func ByteSwapped(sub Construct, size ...int) Construct {
	n := -1
	if len(size) > 0 {
		n = size[0]
	}
	return &byteSwapped{subcon: subcon{sub: sub}, size: n}
}

func (c *byteSwapped) window(ctx *Context) (int, error) {
	if c.size >= 0 {
		return c.size, nil
	}
	return c.sub.Sizeof(ctx)
}

func (c *byteSwapped) Parse(s *Stream, ctx *Context) (any, error) {
	n, err := c.window(ctx)
	if err != nil {
		return nil, err
	}
	data, err := s.Read(n)
	if err != nil {
		return nil, err
	}
	return c.sub.Parse(NewStream(reverseBytes(data)), ctx)
}

func (c *byteSwapped) Build(v any, s *Stream, ctx *Context) (any, error) {
	n, err := c.window(ctx)
	if err != nil {
		return nil, err
	}
	scratch := NewStream(nil)
	if _, err := c.sub.Build(v, scratch, ctx); err != nil {
		return nil, err
	}
	if scratch.Len() != n {
		return nil, newError(ErrField, "expected %d bytes from sub, got %d", n, scratch.Len())
	}
	return nil, s.Write(reverseBytes(scratch.Bytes()))
}

func (c *byteSwapped) Sizeof(ctx *Context) (int, error) {
	return c.window(ctx)
}

func reverseBytes(data []byte) []byte {
	out := make([]byte, len(data))
	for i, b := range data {
		out[len(data)-1-i] = b
	}
	return out
}

// prefixed bounds a possibly greedy sub with a length field.
type prefixed struct {
	subcon
	lengthField Construct
}

// Prefixed parses the length field, slices exactly that many bytes
// and hands them to sub as its whole stream.  Build renders sub into
// a private buffer and writes the length first.
func Prefixed(lengthField, sub Construct) Construct {
	return &prefixed{subcon: subcon{sub: sub}, lengthField: lengthField}
}

func (c *prefixed) Parse(s *Stream, ctx *Context) (any, error) {
	lv, err := c.lengthField.Parse(s, ctx)
	if err != nil {
		return nil, err
	}
	n, err := toInt(lv)
	if err != nil {
		return nil, err
	}
	data, err := s.Read(n)
	if err != nil {
		return nil, err
	}
	return c.sub.Parse(NewStream(data), ctx)
}

func (c *prefixed) Build(v any, s *Stream, ctx *Context) (any, error) {
	scratch := NewStream(nil)
	if _, err := c.sub.Build(v, scratch, ctx); err != nil {
		return nil, err
	}
	if _, err := c.lengthField.Build(scratch.Len(), s, ctx); err != nil {
		return nil, err
	}
	return nil, s.Write(scratch.Bytes())
}

func (c *prefixed) Sizeof(ctx *Context) (int, error) {
	return 0, newError(ErrSizeof, "prefixed size depends on the data")
}

// isFieldErr reports whether err is an under-read, the only kind Peek
// swallows.
func isFieldErr(err error) bool {
	return errors.Is(err, ErrField)
}
