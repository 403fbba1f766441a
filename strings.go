package construct

import (
	"bytes"
	"unicode/utf8"
)

// PadDir states which side of a fixed-length string carries padding.
type PadDir int

const (
	PadRight PadDir = iota
	PadLeft
	PadCenter
)

// TrimDir states which end of an overlong string is trimmed on build.
type TrimDir int

const (
	TrimRight TrimDir = iota
	TrimLeft
)

// StringOpts configures the fixed-length string field.  The zero
// value means raw bytes, NUL padding on the right, trimming on the
// right.
type StringOpts struct {
	// Encoding names a text codec.  With an encoding set the field
	// produces and accepts string values; without one it deals in raw
	// []byte.  Supported: "utf8", "ascii".
	Encoding string
	// PadChar is the single pad byte, NUL when zero.
	PadChar byte
	PadDir  PadDir
	TrimDir TrimDir
}

type stringField struct {
	leaf
	length   int
	lengthFn LengthFunc
	opts     StringOpts
}

// String is the fixed-length string field: always exactly length
// bytes on the wire, padded and trimmed per opts.
func String(length int, opts ...StringOpts) Construct {
	o := StringOpts{}
	if len(opts) > 0 {
		o = opts[0]
	}
	return &stringField{length: length, opts: o}
}

// MetaString is String with the length resolved from the context.
func MetaString(lengthFn LengthFunc, opts ...StringOpts) Construct {
	o := StringOpts{}
	if len(opts) > 0 {
		o = opts[0]
	}
	return &stringField{leaf: leaf{flags: FlagDynamic}, lengthFn: lengthFn, opts: o}
}

func (f *stringField) padChar() byte {
	return f.opts.PadChar
}

func (f *stringField) resolveLength(ctx *Context) (int, error) {
	if f.lengthFn != nil {
		return f.lengthFn(ctx)
	}
	return f.length, nil
}

func (f *stringField) Parse(s *Stream, ctx *Context) (any, error) {
	length, err := f.resolveLength(ctx)
	if err != nil {
		return nil, err
	}
	data, err := s.Read(length)
	if err != nil {
		return nil, err
	}
	pad := f.padChar()
	switch f.opts.PadDir {
	case PadRight:
		data = trimRightByte(data, pad)
	case PadLeft:
		data = trimLeftByte(data, pad)
	case PadCenter:
		data = trimLeftByte(trimRightByte(data, pad), pad)
	}
	return decodeText(data, f.opts.Encoding)
}

func (f *stringField) Build(v any, s *Stream, ctx *Context) (any, error) {
	length, err := f.resolveLength(ctx)
	if err != nil {
		return nil, err
	}
	data, err := encodeText(v, f.opts.Encoding)
	if err != nil {
		return nil, err
	}
	if len(data) > length {
		switch f.opts.TrimDir {
		case TrimRight:
			data = data[:length]
		case TrimLeft:
			data = data[len(data)-length:]
		}
	}
	if pad := length - len(data); pad > 0 {
		fill := bytes.Repeat([]byte{f.padChar()}, pad)
		switch f.opts.PadDir {
		case PadRight:
			data = append(data, fill...)
		case PadLeft:
			data = append(fill, data...)
		case PadCenter:
			left := pad / 2
			data = append(append(bytes.Repeat([]byte{f.padChar()}, left), data...), fill[:pad-left]...)
		}
	}
	return nil, s.Write(data)
}

func (f *stringField) Sizeof(ctx *Context) (int, error) {
	return f.resolveLength(ctx)
}

// cstring reads until one of the terminator bytes, consuming but not
// returning it.  Build appends the first terminator.
type cstring struct {
	leaf
	terminators []byte
	encoding    string
}

// CString is the zero-terminated string.
func CString() Construct {
	return CStringOpt([]byte{0}, "")
}

// CStringOpt is CString with an alternative terminator set and text
// encoding.  The first terminator is the one used on build.
func CStringOpt(terminators []byte, encoding string) Construct {
	if len(terminators) == 0 {
		panic("construct: CString requires at least one terminator byte")
	}
	return &cstring{terminators: terminators, encoding: encoding}
}

func (f *cstring) Parse(s *Stream, ctx *Context) (any, error) {
	var out []byte
	for {
		b, err := s.Read(1)
		if err != nil {
			return nil, err
		}
		if bytes.IndexByte(f.terminators, b[0]) >= 0 {
			break
		}
		out = append(out, b[0])
	}
	return decodeText(out, f.encoding)
}

func (f *cstring) Build(v any, s *Stream, ctx *Context) (any, error) {
	data, err := encodeText(v, f.encoding)
	if err != nil {
		return nil, err
	}
	if err := s.Write(data); err != nil {
		return nil, err
	}
	return nil, s.WriteByte(f.terminators[0])
}

func (f *cstring) Sizeof(ctx *Context) (int, error) {
	return 0, newError(ErrSizeof, "terminated string size depends on the value")
}

// greedyString is GreedyBytes plus a codec.
type greedyString struct {
	leaf
	encoding string
}

// GreedyString reads to end of stream, decoding per encoding when one
// is given.
func GreedyString(encoding string) Construct {
	return &greedyString{encoding: encoding}
}

func (f *greedyString) Parse(s *Stream, ctx *Context) (any, error) {
	return decodeText(s.ReadAll(), f.encoding)
}

func (f *greedyString) Build(v any, s *Stream, ctx *Context) (any, error) {
	data, err := encodeText(v, f.encoding)
	if err != nil {
		return nil, err
	}
	return nil, s.Write(data)
}

func (f *greedyString) Sizeof(ctx *Context) (int, error) {
	return 0, newError(ErrSizeof, "greedy string has no static size")
}

// pascalString is a length-prefixed string; the prefix is any integer
// field.
type pascalString struct {
	leaf
	lengthField Construct
	encoding    string
}

// PascalString reads a length through lengthField and then that many
// bytes of payload.
func PascalString(lengthField Construct, encoding string) Construct {
	return &pascalString{leaf: leaf{flags: FlagDynamic}, lengthField: lengthField, encoding: encoding}
}

func (f *pascalString) Parse(s *Stream, ctx *Context) (any, error) {
	lv, err := f.lengthField.Parse(s, ctx)
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
	return decodeText(data, f.encoding)
}

func (f *pascalString) Build(v any, s *Stream, ctx *Context) (any, error) {
	data, err := encodeText(v, f.encoding)
	if err != nil {
		return nil, err
	}
	if _, err := f.lengthField.Build(len(data), s, ctx); err != nil {
		return nil, err
	}
	return nil, s.Write(data)
}

func (f *pascalString) Sizeof(ctx *Context) (int, error) {
	return 0, newError(ErrSizeof, "length-prefixed string size depends on the value")
}

func trimRightByte(data []byte, pad byte) []byte {
	end := len(data)
	for end > 0 && data[end-1] == pad {
		end--
	}
	return data[:end]
}

func trimLeftByte(data []byte, pad byte) []byte {
	start := 0
	for start < len(data) && data[start] == pad {
		start++
	}
	return data[start:]
}

// decodeText turns raw bytes into the field's value: the bytes
// themselves without an encoding, a checked string with one.
func decodeText(data []byte, encoding string) (any, error) {
	switch encoding {
	case "":
		return data, nil
	case "utf8", "utf-8":
		if !utf8.Valid(data) {
			return nil, newError(ErrString, "invalid utf8 payload")
		}
		return string(data), nil
	case "ascii":
		for _, b := range data {
			if b > 0x7f {
				return nil, newError(ErrString, "byte %#x is not ascii", b)
			}
		}
		return string(data), nil
	}
	return nil, newError(ErrString, "unknown encoding %q", encoding)
}

// encodeText is the inverse: string values require an encoding, raw
// []byte passes through either way.
func encodeText(v any, encoding string) ([]byte, error) {
	switch val := v.(type) {
	case []byte:
		return val, nil
	case string:
		if encoding == "" {
			return nil, newError(ErrString, "string value requires an encoding")
		}
		if encoding == "ascii" {
			for _, r := range val {
				if r > 0x7f {
					return nil, newError(ErrString, "rune %q is not ascii", r)
				}
			}
		}
		return []byte(val), nil
	}
	return nil, newError(ErrString, "expected string or []byte, got %T", v)
}
