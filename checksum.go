package construct

import "bytes"

// HashFunc digests a byte range into its stored form.
type HashFunc func(data []byte) []byte

// checksum validates a stored hash against the bytes between two
// anchored offsets.  The range must already be bound in the context
// by the time the checksum runs, which struct ordering guarantees
// when the anchors precede it.
type checksum struct {
	subcon
	hash     HashFunc
	rangeKey string
}

// Checksum reads or writes the digest of the byte range recorded
// under rangeKey by a pair of AnchorRange marks.  Parse compares the
// stored digest against a recomputation; build computes and writes
// it.
func Checksum(sub Construct, hash HashFunc, rangeKey string) Construct {
	return &checksum{subcon: subcon{sub: sub}, hash: hash, rangeKey: rangeKey}
}

func (c *checksum) rangeBounds(ctx *Context) (int, int, error) {
	v, err := ctx.Lookup(c.rangeKey)
	if err != nil {
		return 0, 0, newError(ErrChecksum, "anchor range %q is not bound", c.rangeKey)
	}
	con, ok := v.(*Container)
	if !ok {
		return 0, 0, newError(ErrChecksum, "anchor range %q holds %T", c.rangeKey, v)
	}
	start, err := intField(con, "offset1")
	if err != nil {
		return 0, 0, err
	}
	end, err := intField(con, "offset2")
	if err != nil {
		return 0, 0, err
	}
	return start, end, nil
}

func intField(con *Container, name string) (int, error) {
	v, ok := con.Get(name)
	if !ok {
		return 0, newError(ErrChecksum, "anchor range is missing %s", name)
	}
	return toInt(v)
}

func (c *checksum) digest(s *Stream, ctx *Context) ([]byte, error) {
	start, end, err := c.rangeBounds(ctx)
	if err != nil {
		return nil, err
	}
	data, err := s.Slice(start, end)
	if err != nil {
		return nil, err
	}
	return c.hash(data), nil
}

func (c *checksum) Parse(s *Stream, ctx *Context) (any, error) {
	stored, err := c.sub.Parse(s, ctx)
	if err != nil {
		return nil, err
	}
	want, err := c.digest(s, ctx)
	if err != nil {
		return nil, err
	}
	got, ok := stored.([]byte)
	if !ok {
		return nil, newError(ErrChecksum, "stored digest is %T, expected []byte", stored)
	}
	if !bytes.Equal(got, want) {
		return nil, newError(ErrChecksum, "digest mismatch: stored %x, computed %x", got, want)
	}
	return stored, nil
}

func (c *checksum) Build(v any, s *Stream, ctx *Context) (any, error) {
	want, err := c.digest(s, ctx)
	if err != nil {
		return nil, err
	}
	if _, err := c.sub.Build(want, s, ctx); err != nil {
		return nil, err
	}
	return want, nil
}

func (c *checksum) Flags() Flags {
	return c.sub.Flags() | FlagBuildNone
}

func (c *checksum) Sizeof(ctx *Context) (int, error) {
	return c.sub.Sizeof(ctx)
}
