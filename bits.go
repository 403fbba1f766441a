package construct

// restreamed materialises an intermediate byte view: the sub parses
// from a transformed copy of the outer bytes and builds into a private
// buffer that is transformed back.  The resizer maps the sub's
// declared size to outer bytes.
//
// Pointers must not be used inside a restreamed view; inner offsets
// have no correspondence to outer ones.
type restreamed struct {
	subcon
	decoder func([]byte) []byte
	encoder func([]byte) ([]byte, error)
	resizer func(innerSize int) (int, error)
}

// Restreamed wraps sub in a transformed byte view.  Bitwise is the
// canonical instantiation.
func Restreamed(sub Construct, decoder func([]byte) []byte, encoder func([]byte) ([]byte, error), resizer func(int) (int, error)) Construct {
	return &restreamed{subcon: subcon{sub: sub}, decoder: decoder, encoder: encoder, resizer: resizer}
}

func (c *restreamed) Parse(s *Stream, ctx *Context) (any, error) {
	innerSize, err := c.sub.Sizeof(ctx)
	if err != nil {
		return nil, err
	}
	outerSize, err := c.resizer(innerSize)
	if err != nil {
		return nil, err
	}
	data, err := s.Read(outerSize)
	if err != nil {
		return nil, err
	}
	return c.sub.Parse(NewStream(c.decoder(data)), ctx)
}

func (c *restreamed) Build(v any, s *Stream, ctx *Context) (any, error) {
	scratch := NewStream(nil)
	if _, err := c.sub.Build(v, scratch, ctx); err != nil {
		return nil, err
	}
	encoded, err := c.encoder(scratch.Bytes())
	if err != nil {
		return nil, err
	}
	return nil, s.Write(encoded)
}

func (c *restreamed) Sizeof(ctx *Context) (int, error) {
	innerSize, err := c.sub.Sizeof(ctx)
	if err != nil {
		return 0, err
	}
	return c.resizer(innerSize)
}

// Bitwise runs sub over a view with one byte per bit, MSB first:
// parsing 0xff shows the sub eight 0x01 bytes.
func Bitwise(sub Construct) Construct {
	return Restreamed(sub, bytesToBits, bitsToBytes, func(innerSize int) (int, error) {
		if innerSize%8 != 0 {
			return 0, newError(ErrSizeof, "bitwise view needs a multiple of 8 bits, has %d", innerSize)
		}
		return innerSize / 8, nil
	})
}

// BitStruct is a struct whose fields are measured in bits.
func BitStruct(subs ...Construct) Construct {
	return Bitwise(Struct(subs...))
}

func bytesToBits(data []byte) []byte {
	out := make([]byte, 0, len(data)*8)
	for _, b := range data {
		for i := 7; i >= 0; i-- {
			out = append(out, (b>>uint(i))&1)
		}
	}
	return out
}

func bitsToBytes(bits []byte) ([]byte, error) {
	if len(bits)%8 != 0 {
		return nil, newError(ErrBitInteger, "bit count %d is not a multiple of 8", len(bits))
	}
	out := make([]byte, len(bits)/8)
	for i, bit := range bits {
		if bit&1 != 0 {
			out[i/8] |= 1 << uint(7-i%8)
		}
	}
	return out, nil
}

// BitFieldOpts configures a bit-level integer.
type BitFieldOpts struct {
	// Signed interprets the top bit as a two's complement sign.
	Signed bool
	// Swapped reverses the order of ByteSize-bit groups before
	// assembling the value, for layouts that store bit groups
	// little-endian.
	Swapped bool
	// ByteSize is the group width Swapped operates on; 8 when zero.
	ByteSize int
}

// bitField assembles an integer out of bit-bytes inside a Bitwise
// view.
type bitField struct {
	leaf
	bits   int
	bitsFn LengthFunc
	opts   BitFieldOpts
}

// BitField reads bits single-bit bytes and assembles them MSB first.
// Only meaningful inside a Bitwise or BitStruct view.
func BitField(bits int, opts ...BitFieldOpts) Construct {
	o := BitFieldOpts{}
	if len(opts) > 0 {
		o = opts[0]
	}
	if o.ByteSize == 0 {
		o.ByteSize = 8
	}
	return &bitField{bits: bits, opts: o}
}

// MetaBitField is BitField with the width resolved from the context.
func MetaBitField(bitsFn LengthFunc) Construct {
	return &bitField{leaf: leaf{flags: FlagDynamic}, bitsFn: bitsFn, opts: BitFieldOpts{ByteSize: 8}}
}

// Bit, Nibble and Octet are the everyday bit-field widths.
var (
	Bit    = BitField(1)
	Nibble = BitField(4)
	Octet  = BitField(8)
)

func (c *bitField) width(ctx *Context) (int, error) {
	if c.bitsFn != nil {
		return c.bitsFn(ctx)
	}
	return c.bits, nil
}

func (c *bitField) swapGroups(bits []byte) ([]byte, error) {
	if len(bits)%c.opts.ByteSize != 0 {
		return nil, newError(ErrBitInteger, "width %d is not a multiple of group size %d", len(bits), c.opts.ByteSize)
	}
	out := make([]byte, 0, len(bits))
	for i := len(bits); i > 0; i -= c.opts.ByteSize {
		out = append(out, bits[i-c.opts.ByteSize:i]...)
	}
	return out, nil
}

func (c *bitField) Parse(s *Stream, ctx *Context) (any, error) {
	n, err := c.width(ctx)
	if err != nil {
		return nil, err
	}
	bits, err := s.Read(n)
	if err != nil {
		return nil, err
	}
	if c.opts.Swapped {
		if bits, err = c.swapGroups(bits); err != nil {
			return nil, err
		}
	}
	value := 0
	for _, bit := range bits {
		value = value<<1 | int(bit&1)
	}
	if c.opts.Signed && n > 0 && bits[0]&1 != 0 {
		value -= 1 << uint(n)
	}
	return value, nil
}

func (c *bitField) Build(v any, s *Stream, ctx *Context) (any, error) {
	n, err := c.width(ctx)
	if err != nil {
		return nil, err
	}
	value, err := toInt(v)
	if err != nil {
		return nil, err
	}
	shifted := value
	if c.opts.Signed {
		lo, hi := -(1 << uint(n-1)), 1<<uint(n-1)-1
		if value < lo || value > hi {
			return nil, newError(ErrBitInteger, "value %d out of range for %d bits", value, n)
		}
		if value < 0 {
			shifted = value + 1<<uint(n)
		}
	} else if value < 0 || value >= 1<<uint(n) {
		return nil, newError(ErrBitInteger, "value %d out of range for %d bits", value, n)
	}
	bits := make([]byte, n)
	for i := n - 1; i >= 0; i-- {
		bits[i] = byte(shifted & 1)
		shifted >>= 1
	}
	if c.opts.Swapped {
		if bits, err = c.swapGroups(bits); err != nil {
			return nil, err
		}
	}
	return nil, s.Write(bits)
}

func (c *bitField) Sizeof(ctx *Context) (int, error) {
	return c.width(ctx)
}
