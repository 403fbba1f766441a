// Package construct is a declarative, bidirectional binary-format
// engine.  A layout is described once by composing small construct
// values; the same description then parses raw bytes into structured
// containers and builds raw bytes back from them.
//
//	record := construct.Struct(
//		construct.R("length", construct.Byte),
//		construct.R("data", construct.MetaBytes(construct.ThisInt("length"))),
//	)
//	v, err := construct.Parse(record, input)
//	out, err := construct.Build(record, v)
package construct

import (
	"math"
	"reflect"
)

// Flags is the bitset every construct carries.  Flags set on an inner
// construct are visible to the enclosing composite, which is how a
// struct learns that a child wants to be embedded or that a repeater
// must hand each iteration a private context copy.
type Flags uint8

const (
	// FlagCopyContext makes repeaters pass a private copy of the
	// context to each iteration.  Lazy constructs snapshot the
	// context, so they must not observe later sibling bindings.
	FlagCopyContext Flags = 1 << iota

	// FlagDynamic marks size or behaviour as context dependent.
	FlagDynamic

	// FlagEmbed makes a struct or sequence merge the child's fields
	// into its own container instead of nesting them under the
	// child's name.
	FlagEmbed

	// FlagNesting is reserved.
	FlagNesting

	// FlagBuildNone marks constructs that ignore the supplied value on
	// build (padding, anchors, computed fields, checksums).  A struct
	// builds them with a nil value when the mapping has no entry.
	FlagBuildNone
)

// Construct is one node of a layout description.  Constructs are
// immutable after creation and safe to share between goroutines; all
// mutable state lives in the stream and context of a single call.
type Construct interface {
	// Name is the field name a composite binds the produced value
	// under, or "" for structural constructs.
	Name() string

	// Flags returns the construct's flag bitset.
	Flags() Flags

	// Parse reads the construct's bytes from the stream and returns
	// the produced value.
	Parse(s *Stream, ctx *Context) (any, error)

	// Build writes v into the stream.  The returned value, when not
	// nil, replaces v in the enclosing scope's binding; Anchor uses
	// this to publish the stream position and Computed its computed
	// value.
	Build(v any, s *Stream, ctx *Context) (any, error)

	// Sizeof reports the exact byte count the construct consumes and
	// produces, or an ErrSizeof when that depends on data the context
	// cannot supply.
	Sizeof(ctx *Context) (int, error)
}

// Parse runs c over data with a fresh context and returns the produced
// value.
func Parse(c Construct, data []byte) (any, error) {
	return ParseWithContext(c, data, NewContext(nil))
}

// ParseWithContext is Parse with a caller-seeded context.
func ParseWithContext(c Construct, data []byte, ctx *Context) (any, error) {
	return c.Parse(NewStream(data), ctx)
}

// ParseStream runs c over an existing stream at its current position.
func ParseStream(c Construct, s *Stream) (any, error) {
	return c.Parse(s, NewContext(nil))
}

// Build renders v through c and returns the produced bytes.
func Build(c Construct, v any) ([]byte, error) {
	return BuildWithContext(c, v, NewContext(nil))
}

// BuildWithContext is Build with a caller-seeded context.
func BuildWithContext(c Construct, v any, ctx *Context) ([]byte, error) {
	s := NewStream(nil)
	if _, err := c.Build(v, s, ctx); err != nil {
		return nil, err
	}
	return s.Bytes(), nil
}

// BuildStream renders v through c into an existing stream.
func BuildStream(c Construct, v any, s *Stream) error {
	_, err := c.Build(v, s, NewContext(nil))
	return err
}

// Sizeof reports c's static size.
func Sizeof(c Construct) (int, error) {
	return c.Sizeof(NewContext(nil))
}

// SizeofWithContext resolves context dependent sizes against a
// caller-seeded context.
func SizeofWithContext(c Construct, ctx *Context) (int, error) {
	return c.Sizeof(ctx)
}

// leaf is the base of primitives: no name, fixed flags.  Naming
// happens exclusively through Renamed.
type leaf struct {
	flags Flags
}

func (l leaf) Name() string { return "" }
func (l leaf) Flags() Flags { return l.flags }

// subcon is the base of wrappers.  A wrapper keeps its inner
// construct's name and flags so `Peek(R("a", Byte))` still binds
// under "a" in the enclosing struct.
type subcon struct {
	sub Construct
}

func (s subcon) Name() string { return s.sub.Name() }
func (s subcon) Flags() Flags { return s.sub.Flags() }

// renamed assigns a name to a construct and optionally edits its
// flags.  It replaces the naming operator of the declaration DSL.
type renamed struct {
	sub   Construct
	name  string
	set   Flags
	clear Flags
}

// Renamed gives sub a field name.  Renaming an already named
// construct keeps the outermost name, so R("new", R("old", Byte))
// binds under "new".
func Renamed(name string, sub Construct) Construct {
	return &renamed{sub: sub, name: name}
}

// R is the short form of Renamed; declarations read as
// R("width", UBInt16).
func R(name string, sub Construct) Construct {
	return Renamed(name, sub)
}

// Reconfig renames a construct and sets or clears flags in one step.
func Reconfig(name string, sub Construct, set, clear Flags) Construct {
	return &renamed{sub: sub, name: name, set: set, clear: clear}
}

// Embedded marks a child struct or sequence so the parent merges its
// fields flat instead of nesting them.
func Embedded(sub Construct) Construct {
	return &renamed{sub: sub, name: sub.Name(), set: FlagEmbed}
}

func (r *renamed) Name() string { return r.name }
func (r *renamed) Flags() Flags { return (r.sub.Flags() | r.set) &^ r.clear }

func (r *renamed) Parse(s *Stream, ctx *Context) (any, error) {
	return r.sub.Parse(s, ctx)
}

func (r *renamed) Build(v any, s *Stream, ctx *Context) (any, error) {
	return r.sub.Build(v, s, ctx)
}

func (r *renamed) Sizeof(ctx *Context) (int, error) {
	return r.sub.Sizeof(ctx)
}

// inheritFlags folds the subconstructs' flags into a composite,
// masking out FlagEmbed which only concerns the direct parent.
func inheritFlags(subs ...Construct) Flags {
	var f Flags
	for _, sub := range subs {
		f |= sub.Flags() &^ (FlagEmbed | FlagBuildNone)
	}
	return f
}

// toInt coerces any integer kind to int.  Fields accept what users
// naturally pass: int literals, sized ints from other fields, bytes.
func toInt(v any) (int, error) {
	switch n := v.(type) {
	case int:
		return n, nil
	case int8:
		return int(n), nil
	case int16:
		return int(n), nil
	case int32:
		return int(n), nil
	case int64:
		return int(n), nil
	case uint8:
		return int(n), nil
	case uint16:
		return int(n), nil
	case uint32:
		return int(n), nil
	case uint:
		if uint64(n) > math.MaxInt64 {
			return 0, newError(ErrField, "integer %d overflows int", n)
		}
		return int(n), nil
	case uint64:
		if n > math.MaxInt64 {
			return 0, newError(ErrField, "integer %d overflows int", n)
		}
		return int(n), nil
	}
	return 0, newError(ErrField, "expected an integer, got %T", v)
}

// mapping adapts the values users hand to struct builds: a Container,
// a LazyContainer, or a plain map.
type mapping interface {
	Get(name string) (any, bool)
}

type mapMapping map[string]any

func (m mapMapping) Get(name string) (any, bool) {
	v, ok := m[name]
	return v, ok
}

type emptyMapping struct{}

func (emptyMapping) Get(string) (any, bool) { return nil, false }

func asMapping(v any) (mapping, error) {
	switch m := v.(type) {
	case nil:
		return emptyMapping{}, nil
	case *Container:
		return m, nil
	case *LazyContainer:
		return m, nil
	case map[string]any:
		return mapMapping(m), nil
	}
	return nil, newError(ErrField, "expected a container or map, got %T", v)
}

// asList adapts the values users hand to repeater builds.  Any slice
// kind is accepted; []int literals are the common case in format
// declarations.
func asList(v any) ([]any, bool) {
	switch l := v.(type) {
	case ListContainer:
		return l, true
	case []any:
		return l, true
	case []byte:
		// byte blobs are field values, not item sequences
		return nil, false
	}
	rv := reflect.ValueOf(v)
	if !rv.IsValid() || rv.Kind() != reflect.Slice {
		return nil, false
	}
	out := make([]any, rv.Len())
	for i := range out {
		out[i] = rv.Index(i).Interface()
	}
	return out, true
}
