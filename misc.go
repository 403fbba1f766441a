package construct

import "bytes"

// Pass is the zero-byte no-op.  Parsing yields nil, building writes
// nothing and tolerates whatever value it is handed.  It is a shared
// immutable singleton.
var Pass Construct = passCon{}

type passCon struct{}

func (passCon) Name() string { return "" }
func (passCon) Flags() Flags { return FlagBuildNone }

func (passCon) Parse(s *Stream, ctx *Context) (any, error) {
	return nil, nil
}

func (passCon) Build(v any, s *Stream, ctx *Context) (any, error) {
	return nil, nil
}

func (passCon) Sizeof(ctx *Context) (int, error) { return 0, nil }

// Terminator asserts the stream is exhausted.  A shared immutable
// singleton, like Pass.
var Terminator Construct = terminatorCon{}

type terminatorCon struct{}

func (terminatorCon) Name() string { return "" }
func (terminatorCon) Flags() Flags { return FlagBuildNone }

func (terminatorCon) Parse(s *Stream, ctx *Context) (any, error) {
	if s.Remaining() > 0 {
		return nil, newError(ErrTerminator, "%d bytes remain past the end of the format", s.Remaining())
	}
	return nil, nil
}

func (terminatorCon) Build(v any, s *Stream, ctx *Context) (any, error) {
	return nil, nil
}

func (terminatorCon) Sizeof(ctx *Context) (int, error) { return 0, nil }

// computed is the zero-byte field whose value comes from the context
// rather than the stream.
type computed struct {
	leaf
	fn CtxFunc
}

// Computed yields fn(ctx) on parse; on build it writes nothing and
// rebinds the computed value into the enclosing scope.
func Computed(fn CtxFunc) Construct {
	return &computed{leaf: leaf{flags: FlagBuildNone | FlagDynamic}, fn: fn}
}

func (c *computed) Parse(s *Stream, ctx *Context) (any, error) {
	return c.fn(ctx)
}

func (c *computed) Build(v any, s *Stream, ctx *Context) (any, error) {
	return c.fn(ctx)
}

func (c *computed) Sizeof(ctx *Context) (int, error) { return 0, nil }

// Alias republishes an earlier sibling under a second name.
func Alias(newName, oldName string) Construct {
	return Renamed(newName, Computed(This(oldName)))
}

// constCon pins a subconstruct to one expected value.
type constCon struct {
	sub      Construct
	expected any
}

// Const wraps a fixed byte literal, the usual magic-number form.
func Const(data []byte) Construct {
	return ConstOf(Bytes(len(data)), data)
}

// ConstOf pins any subconstruct to an expected value: parse fails on
// a mismatch, build writes the expected value no matter what it is
// handed.
func ConstOf(sub Construct, expected any) Construct {
	return &constCon{sub: sub, expected: expected}
}

func (c *constCon) Name() string { return c.sub.Name() }
func (c *constCon) Flags() Flags { return c.sub.Flags() | FlagBuildNone }

func (c *constCon) Parse(s *Stream, ctx *Context) (any, error) {
	v, err := c.sub.Parse(s, ctx)
	if err != nil {
		return nil, err
	}
	if !valueEqual(v, c.expected) {
		return nil, newError(ErrConst, "expected %v, parsed %v", c.expected, v)
	}
	return v, nil
}

func (c *constCon) Build(v any, s *Stream, ctx *Context) (any, error) {
	if _, err := c.sub.Build(c.expected, s, ctx); err != nil {
		return nil, err
	}
	return c.expected, nil
}

func (c *constCon) Sizeof(ctx *Context) (int, error) {
	return c.sub.Sizeof(ctx)
}

// rawCopy parses its sub while capturing the raw bytes and offsets it
// consumed.
type rawCopy struct {
	subcon
}

// RawCopy yields a container with the sub's parsed value alongside
// the raw data and the offsets it came from.  Build accepts either
// the raw data or the value.
func RawCopy(sub Construct) Construct {
	return &rawCopy{subcon: subcon{sub: sub}}
}

func (c *rawCopy) Name() string { return "" }

func (c *rawCopy) Parse(s *Stream, ctx *Context) (any, error) {
	offset1 := s.Tell()
	v, err := c.sub.Parse(s, ctx)
	if err != nil {
		return nil, err
	}
	offset2 := s.Tell()
	data, err := s.Slice(offset1, offset2)
	if err != nil {
		return nil, err
	}
	out := NewContainer()
	out.Set("data", append([]byte(nil), data...))
	out.Set("value", v)
	out.Set("offset1", offset1)
	out.Set("offset2", offset2)
	out.Set("length", offset2-offset1)
	return out, nil
}

func (c *rawCopy) Build(v any, s *Stream, ctx *Context) (any, error) {
	m, err := asMapping(v)
	if err != nil {
		return nil, err
	}
	if data, ok := m.Get("data"); ok {
		blob, ok := data.([]byte)
		if !ok {
			return nil, newError(ErrField, "raw data must be []byte, got %T", data)
		}
		return nil, s.Write(blob)
	}
	if val, ok := m.Get("value"); ok {
		return c.sub.Build(val, s, ctx)
	}
	return nil, newError(ErrField, "raw copy needs either data or value")
}

func (c *rawCopy) Sizeof(ctx *Context) (int, error) {
	return c.sub.Sizeof(ctx)
}

// padCheck reports whether every byte of data is the pad pattern.
func padCheck(data []byte, pattern byte) bool {
	return bytes.Count(data, []byte{pattern}) == len(data)
}
