package construct

import "sync"

// OnDemandValue is the placeholder a lazy field parses into.  The
// first Value call reads the field from the captured stream offset;
// later calls return the cached result.
type OnDemandValue struct {
	once    sync.Once
	resolve func() (any, error)
	v       any
	err     error
}

// Value materialises the field, parsing it on first use.
func (o *OnDemandValue) Value() (any, error) {
	o.once.Do(func() {
		o.v, o.err = o.resolve()
	})
	return o.v, o.err
}

// onDemand defers parsing of its sub until the value is demanded.
type onDemand struct {
	subcon
	advance bool
}

// OnDemand skips over its sub at parse time and returns an
// OnDemandValue that reads it on first access.  The sub must have a
// resolvable size so the stream can move past it.
func OnDemand(sub Construct) Construct {
	return &onDemand{subcon: subcon{sub: sub}, advance: true}
}

// OnDemandPointer is OnDemand over a Pointer: zero bytes here, the
// deferred read happens at the pointed-to offset.
func OnDemandPointer(offsetFn LengthFunc, sub Construct) Construct {
	return &onDemand{subcon: subcon{sub: Pointer(offsetFn, sub)}}
}

func (c *onDemand) Flags() Flags {
	return c.sub.Flags() | FlagCopyContext
}

func (c *onDemand) Parse(s *Stream, ctx *Context) (any, error) {
	pos := s.Tell()
	snapshot := ctx.Copy()
	if c.advance {
		size, err := c.sub.Sizeof(ctx)
		if err != nil {
			return nil, err
		}
		if _, err := s.Read(size); err != nil {
			return nil, err
		}
	}
	return &OnDemandValue{resolve: func() (any, error) {
		saved := s.Tell()
		if _, err := s.SeekTo(pos); err != nil {
			return nil, err
		}
		v, err := c.sub.Parse(s, snapshot)
		if _, serr := s.SeekTo(saved); serr != nil && err == nil {
			err = serr
		}
		return v, err
	}}, nil
}

func (c *onDemand) Build(v any, s *Stream, ctx *Context) (any, error) {
	if odv, ok := v.(*OnDemandValue); ok {
		forced, err := odv.Value()
		if err != nil {
			return nil, err
		}
		v = forced
	}
	return c.sub.Build(v, s, ctx)
}

func (c *onDemand) Sizeof(ctx *Context) (int, error) {
	return c.sub.Sizeof(ctx)
}

// LazyContainer is the record a LazyStruct parses into: fields
// resolve from the stream on first access and stay cached.
type LazyContainer struct {
	mu        sync.Mutex
	keys      []string
	resolvers map[string]func() (any, error)
	cache     map[string]any
}

func newLazyContainer() *LazyContainer {
	return &LazyContainer{
		resolvers: make(map[string]func() (any, error)),
		cache:     make(map[string]any),
	}
}

func (c *LazyContainer) addEager(name string, v any) {
	c.keys = append(c.keys, name)
	c.cache[name] = v
}

func (c *LazyContainer) addDeferred(name string, resolve func() (any, error)) {
	c.keys = append(c.keys, name)
	c.resolvers[name] = resolve
}

// Keys returns the field names in declaration order.
func (c *LazyContainer) Keys() []string {
	out := make([]string, len(c.keys))
	copy(out, c.keys)
	return out
}

// Value materialises one field, parsing it on first access.
func (c *LazyContainer) Value(name string) (any, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if v, ok := c.cache[name]; ok {
		return v, nil
	}
	resolve, ok := c.resolvers[name]
	if !ok {
		return nil, newError(ErrField, "no field named %q", name)
	}
	v, err := resolve()
	if err != nil {
		return nil, err
	}
	c.cache[name] = v
	return v, nil
}

// Get implements the build mapping interface; resolution failures
// read as a missing field.
func (c *LazyContainer) Get(name string) (any, bool) {
	v, err := c.Value(name)
	if err != nil {
		return nil, false
	}
	return v, true
}

// Materialize resolves every remaining field and returns a plain
// Container.
func (c *LazyContainer) Materialize() (*Container, error) {
	out := NewContainer()
	for _, name := range c.keys {
		v, err := c.Value(name)
		if err != nil {
			return nil, err
		}
		out.Set(name, v)
	}
	return out, nil
}

// lazyStruct defers statically sized fields and parses the dynamic
// ones eagerly in declaration order.
type lazyStruct struct {
	subs  []Construct
	flags Flags
}

// LazyStruct is Struct returning a LazyContainer: fields whose size
// is known are skipped over and parsed on first access, the rest
// parse eagerly.
func LazyStruct(subs ...Construct) Construct {
	return &lazyStruct{subs: subs, flags: inheritFlags(subs...) | FlagCopyContext}
}

func (c *lazyStruct) Name() string { return "" }
func (c *lazyStruct) Flags() Flags { return c.flags }

func (c *lazyStruct) Parse(s *Stream, ctx *Context) (any, error) {
	out := newLazyContainer()
	sctx := ctx.Child()
	for _, sub := range c.subs {
		name := sub.Name()
		if size, err := sub.Sizeof(sctx); err == nil {
			pos := s.Tell()
			if _, err := s.Read(size); err != nil {
				return nil, err
			}
			if name == "" {
				continue
			}
			sub, snapshot := sub, sctx.Copy()
			out.addDeferred(name, func() (any, error) {
				saved := s.Tell()
				if _, err := s.SeekTo(pos); err != nil {
					return nil, err
				}
				v, err := sub.Parse(s, snapshot)
				if _, serr := s.SeekTo(saved); serr != nil && err == nil {
					err = serr
				}
				return v, err
			})
			continue
		}
		v, err := sub.Parse(s, sctx)
		if err != nil {
			return nil, err
		}
		if name != "" {
			sctx.Set(name, v)
			out.addEager(name, v)
		}
	}
	return out, nil
}

func (c *lazyStruct) Build(v any, s *Stream, ctx *Context) (any, error) {
	m, err := asMapping(v)
	if err != nil {
		return nil, err
	}
	sctx := ctx.Child()
	for _, sub := range c.subs {
		var sv any
		name := sub.Name()
		if name != "" {
			val, ok := m.Get(name)
			switch {
			case ok:
				sv = val
			case sub.Flags()&FlagBuildNone != 0:
				sv = nil
			default:
				return nil, newError(ErrField, "missing key %q", name)
			}
			sctx.Set(name, sv)
		}
		ret, err := sub.Build(sv, s, sctx)
		if err != nil {
			return nil, err
		}
		if name != "" && ret != nil {
			sctx.Set(name, ret)
		}
	}
	return nil, nil
}

func (c *lazyStruct) Sizeof(ctx *Context) (int, error) {
	total := 0
	for _, sub := range c.subs {
		n, err := sub.Sizeof(ctx)
		if err != nil {
			return 0, err
		}
		total += n
	}
	return total, nil
}

// lazyBound holds a thunk returning a construct, resolved once on
// first use.  It is the one mechanism for recursive formats.
type lazyBound struct {
	once     sync.Once
	fn       func() Construct
	resolved Construct
}

// LazyBound defers construction of its sub until first use, which
// lets a format refer to itself:
//
//	var node Construct
//	node = Struct(
//		R("value", Byte),
//		R("next", If(..., LazyBound(func() Construct { return node }))),
//	)
func LazyBound(fn func() Construct) Construct {
	return &lazyBound{fn: fn}
}

func (c *lazyBound) resolve() Construct {
	c.once.Do(func() {
		c.resolved = c.fn()
	})
	return c.resolved
}

func (c *lazyBound) Name() string { return "" }
func (c *lazyBound) Flags() Flags { return 0 }

func (c *lazyBound) Parse(s *Stream, ctx *Context) (any, error) {
	return c.resolve().Parse(s, ctx)
}

func (c *lazyBound) Build(v any, s *Stream, ctx *Context) (any, error) {
	return c.resolve().Build(v, s, ctx)
}

func (c *lazyBound) Sizeof(ctx *Context) (int, error) {
	return c.resolve().Sizeof(ctx)
}
