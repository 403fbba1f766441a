package construct

import (
	"sort"

	"github.com/samber/lo"
)

// AdapterFunc transforms a value on its way in or out of a
// subconstruct.
type AdapterFunc func(obj any, ctx *Context) (any, error)

// adapter transforms the sub's parsed value through decode and the
// supplied build value through encode.
type adapter struct {
	subcon
	decode AdapterFunc
	encode AdapterFunc
}

// ExprAdapter wraps sub with an asymmetric decode/encode pair, the
// general purpose value transformation.
func ExprAdapter(sub Construct, decode, encode AdapterFunc) Construct {
	return &adapter{subcon: subcon{sub: sub}, decode: decode, encode: encode}
}

// SymmetricAdapter wraps sub with a single transformation that is its
// own inverse.
func SymmetricAdapter(sub Construct, transform AdapterFunc) Construct {
	return ExprAdapter(sub, transform, transform)
}

func (c *adapter) Parse(s *Stream, ctx *Context) (any, error) {
	v, err := c.sub.Parse(s, ctx)
	if err != nil {
		return nil, err
	}
	return c.decode(v, ctx)
}

func (c *adapter) Build(v any, s *Stream, ctx *Context) (any, error) {
	encoded, err := c.encode(v, ctx)
	if err != nil {
		return nil, err
	}
	return c.sub.Build(encoded, s, ctx)
}

func (c *adapter) Sizeof(ctx *Context) (int, error) {
	return c.sub.Sizeof(ctx)
}

// Validate passes values through untouched when pred accepts them and
// raises a validation error otherwise, on both parse and build.
func Validate(sub Construct, pred func(obj any, ctx *Context) bool) Construct {
	return SymmetricAdapter(sub, func(obj any, ctx *Context) (any, error) {
		if !pred(obj, ctx) {
			return nil, newError(ErrValidation, "value %v rejected", obj)
		}
		return obj, nil
	})
}

// OneOf accepts only values from the given set.
func OneOf(sub Construct, valid ...any) Construct {
	return Validate(sub, func(obj any, _ *Context) bool {
		return memberOf(obj, valid)
	})
}

// NoneOf rejects every value from the given set.
func NoneOf(sub Construct, invalid ...any) Construct {
	return Validate(sub, func(obj any, _ *Context) bool {
		return !memberOf(obj, invalid)
	})
}

func memberOf(obj any, set []any) bool {
	return lo.ContainsBy(set, func(item any) bool {
		return valueEqual(obj, item)
	})
}

// Mapping wraps sub with a dictionary in each direction: decoding
// maps parsed values to produced ones, encoding the reverse.
func Mapping(sub Construct, decoding, encoding map[any]any) Construct {
	return ExprAdapter(sub,
		func(obj any, _ *Context) (any, error) {
			if out, ok := decoding[normKey(obj)]; ok {
				return out, nil
			}
			return nil, newError(ErrMapping, "no decoding for %v", obj)
		},
		func(obj any, _ *Context) (any, error) {
			if out, ok := encoding[normKey(obj)]; ok {
				return out, nil
			}
			return nil, newError(ErrMapping, "no encoding for %v", obj)
		})
}

// normKey folds sized integers to int so map lookups behave no matter
// which integer kind the caller used.
func normKey(v any) any {
	if n, err := toInt(v); err == nil {
		return n
	}
	return v
}

// EnumOpts configures Enum fallbacks.
type EnumOpts struct {
	// DefaultName is produced when parsing meets an unmapped integer.
	DefaultName any
	// DefaultValue is written when building an unmapped name.
	DefaultValue any
	// Passthrough lets unmapped values travel unchanged both ways.
	Passthrough bool
}

// Enum maps integers to symbolic names.  Without a fallback, an
// unmapped value in either direction is a mapping error.
func Enum(sub Construct, names map[string]int, opts ...EnumOpts) Construct {
	o := EnumOpts{}
	if len(opts) > 0 {
		o = opts[0]
	}
	values := lo.Invert(names)
	return ExprAdapter(sub,
		func(obj any, _ *Context) (any, error) {
			n, err := toInt(obj)
			if err != nil {
				return nil, err
			}
			if name, ok := values[n]; ok {
				return name, nil
			}
			if o.Passthrough {
				return n, nil
			}
			if o.DefaultName != nil {
				return o.DefaultName, nil
			}
			return nil, newError(ErrMapping, "no name for value %d", n)
		},
		func(obj any, _ *Context) (any, error) {
			if name, ok := obj.(string); ok {
				if n, ok := names[name]; ok {
					return n, nil
				}
				if o.DefaultValue != nil {
					return o.DefaultValue, nil
				}
				return nil, newError(ErrMapping, "no value for name %q", name)
			}
			if o.Passthrough {
				return obj, nil
			}
			if o.DefaultValue != nil {
				return o.DefaultValue, nil
			}
			return nil, newError(ErrMapping, "expected a name, got %T", obj)
		})
}

// FlagsEnum maps an integer to a container of booleans, one per named
// bit.  Parsing produces every name; building ORs the names set true,
// rejecting unknown ones.
func FlagsEnum(sub Construct, flags map[string]int) Construct {
	names := lo.Keys(flags)
	sort.Strings(names)
	return ExprAdapter(sub,
		func(obj any, _ *Context) (any, error) {
			n, err := toInt(obj)
			if err != nil {
				return nil, err
			}
			out := NewContainer()
			for _, name := range names {
				out.Set(name, n&flags[name] != 0)
			}
			return out, nil
		},
		func(obj any, _ *Context) (any, error) {
			set, err := flagSet(obj)
			if err != nil {
				return nil, err
			}
			value := 0
			for name, on := range set {
				bit, ok := flags[name]
				if !ok {
					return nil, newError(ErrMapping, "unknown flag %q", name)
				}
				if on {
					value |= bit
				}
			}
			return value, nil
		})
}

// flagSet folds the accepted build inputs of FlagsEnum into one
// shape.
func flagSet(v any) (map[string]bool, error) {
	out := map[string]bool{}
	switch m := v.(type) {
	case nil:
		return out, nil
	case map[string]bool:
		return m, nil
	case map[string]any:
		for name, val := range m {
			b, ok := val.(bool)
			out[name] = ok && b
		}
		return out, nil
	case *Container:
		for _, name := range m.Keys() {
			val, _ := m.Get(name)
			b, ok := val.(bool)
			out[name] = ok && b
		}
		return out, nil
	}
	return nil, newError(ErrField, "expected a container or map of flags, got %T", v)
}

// Slicing exposes a window of a fixed-count array: parse yields
// items[start:stop], build reassembles the full array with the filler
// in the hidden positions.
func Slicing(sub Construct, count, start, stop int, empty any) Construct {
	return ExprAdapter(sub,
		func(obj any, _ *Context) (any, error) {
			items, ok := asList(obj)
			if !ok || len(items) != count {
				return nil, newError(ErrAdaptation, "expected %d items to slice", count)
			}
			return ListContainer(items[start:stop]), nil
		},
		func(obj any, _ *Context) (any, error) {
			items, ok := asList(obj)
			if !ok || len(items) != stop-start {
				return nil, newError(ErrAdaptation, "expected %d items to splice", stop-start)
			}
			full := make(ListContainer, count)
			for i := range full {
				full[i] = empty
			}
			copy(full[start:stop], items)
			return full, nil
		})
}

// Indexing exposes a single element of a fixed-count array.
func Indexing(sub Construct, count, index int, empty any) Construct {
	return ExprAdapter(sub,
		func(obj any, _ *Context) (any, error) {
			items, ok := asList(obj)
			if !ok || len(items) != count {
				return nil, newError(ErrAdaptation, "expected %d items to index", count)
			}
			return items[index], nil
		},
		func(obj any, _ *Context) (any, error) {
			full := make(ListContainer, count)
			for i := range full {
				full[i] = empty
			}
			full[index] = obj
			return full, nil
		})
}
