package construct

// structCon is the ordered sequence of named subconstructs.  Each
// named field binds into the current context before the next sibling
// runs, which is what lets a later field's length refer to an earlier
// field's value.
type structCon struct {
	subs           []Construct
	flags          Flags
	nested         bool
	allowOverwrite bool
}

// Struct parses into a Container and builds from a Container or map.
// Subconstructs see a fresh scope whose "_" is the enclosing one.
func Struct(subs ...Construct) Construct {
	return &structCon{subs: subs, flags: inheritFlags(subs...), nested: true}
}

// UnnestedStruct is Struct without the scope wrap: subconstructs see
// the caller's context directly.
func UnnestedStruct(subs ...Construct) Construct {
	return &structCon{subs: subs, flags: inheritFlags(subs...)}
}

// OverwritableStruct is Struct with duplicate field names allowed;
// later occurrences replace earlier bindings instead of failing.
func OverwritableStruct(subs ...Construct) Construct {
	return &structCon{subs: subs, flags: inheritFlags(subs...), nested: true, allowOverwrite: true}
}

func (c *structCon) Name() string { return "" }
func (c *structCon) Flags() Flags { return c.flags }

func (c *structCon) scope(ctx *Context) *Context {
	if c.nested {
		return ctx.Child()
	}
	return ctx
}

func (c *structCon) Parse(s *Stream, ctx *Context) (any, error) {
	con := NewContainer()
	sctx := c.scope(ctx)
	for _, sub := range c.subs {
		v, err := sub.Parse(s, sctx)
		if err != nil {
			return nil, err
		}
		if sub.Flags()&FlagEmbed != 0 {
			inner, ok := v.(*Container)
			if !ok {
				return nil, newError(ErrField, "cannot embed %T into a struct", v)
			}
			for _, k := range inner.Keys() {
				iv, _ := inner.Get(k)
				if con.Has(k) && !c.allowOverwrite {
					return nil, newError(ErrOverwrite, "duplicate key %q", k)
				}
				con.Set(k, iv)
				sctx.Set(k, iv)
			}
			continue
		}
		if name := sub.Name(); name != "" {
			if con.Has(name) && !c.allowOverwrite {
				return nil, newError(ErrOverwrite, "duplicate key %q", name)
			}
			con.Set(name, v)
			sctx.Set(name, v)
		}
	}
	return con, nil
}

func (c *structCon) Build(v any, s *Stream, ctx *Context) (any, error) {
	m, err := asMapping(v)
	if err != nil {
		return nil, err
	}
	sctx := c.scope(ctx)
	for _, sub := range c.subs {
		if sub.Flags()&FlagEmbed != 0 {
			if _, err := sub.Build(v, s, sctx); err != nil {
				return nil, err
			}
			continue
		}
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

func (c *structCon) Sizeof(ctx *Context) (int, error) {
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

// sequenceCon is the positional sibling of Struct: values are
// appended to a ListContainer in parse order and consumed positionally
// on build.  Structural subconstructs (unnamed padding, anchors,
// terminators) participate without contributing an item.
type sequenceCon struct {
	subs   []Construct
	flags  Flags
	nested bool
}

// Sequence parses into a ListContainer and builds from any sequence
// value.
func Sequence(subs ...Construct) Construct {
	return &sequenceCon{subs: subs, flags: inheritFlags(subs...), nested: true}
}

func (c *sequenceCon) Name() string { return "" }
func (c *sequenceCon) Flags() Flags { return c.flags }

// structural subconstructs carry no item of their own.
func structural(sub Construct) bool {
	return sub.Name() == "" && sub.Flags()&FlagBuildNone != 0
}

// consumeCount reports how many items of the build input this
// sequence takes, which is what an enclosing sequence needs to hand an
// embedded child its share.
func (c *sequenceCon) consumeCount() int {
	n := 0
	for _, sub := range c.subs {
		if sub.Flags()&FlagEmbed != 0 {
			if inner, ok := unwrap(sub).(*sequenceCon); ok {
				n += inner.consumeCount()
				continue
			}
		}
		if !structural(sub) {
			n++
		}
	}
	return n
}

func (c *sequenceCon) Parse(s *Stream, ctx *Context) (any, error) {
	out := ListContainer{}
	sctx := ctx
	if c.nested {
		sctx = ctx.Child()
	}
	for _, sub := range c.subs {
		v, err := sub.Parse(s, sctx)
		if err != nil {
			return nil, err
		}
		if sub.Flags()&FlagEmbed != 0 {
			inner, ok := v.(ListContainer)
			if !ok {
				return nil, newError(ErrField, "cannot embed %T into a sequence", v)
			}
			out = append(out, inner...)
			continue
		}
		if structural(sub) {
			continue
		}
		if name := sub.Name(); name != "" {
			sctx.Set(name, v)
		}
		out = append(out, v)
	}
	return out, nil
}

func (c *sequenceCon) Build(v any, s *Stream, ctx *Context) (any, error) {
	items, ok := asList(v)
	if !ok {
		return nil, newError(ErrField, "expected a sequence, got %T", v)
	}
	sctx := ctx
	if c.nested {
		sctx = ctx.Child()
	}
	pos := 0
	take := func(n int) ([]any, error) {
		if pos+n > len(items) {
			return nil, newError(ErrField, "sequence needs %d more items, has %d", n, len(items)-pos)
		}
		out := items[pos : pos+n]
		pos += n
		return out, nil
	}
	for _, sub := range c.subs {
		if sub.Flags()&FlagEmbed != 0 {
			inner, ok := unwrap(sub).(*sequenceCon)
			if !ok {
				return nil, newError(ErrField, "cannot embed %T into a sequence", unwrap(sub))
			}
			share, err := take(inner.consumeCount())
			if err != nil {
				return nil, err
			}
			if _, err := sub.Build(ListContainer(share), s, sctx); err != nil {
				return nil, err
			}
			continue
		}
		if structural(sub) {
			if _, err := sub.Build(nil, s, sctx); err != nil {
				return nil, err
			}
			continue
		}
		item, err := take(1)
		if err != nil {
			return nil, err
		}
		if name := sub.Name(); name != "" {
			sctx.Set(name, item[0])
		}
		ret, err := sub.Build(item[0], s, sctx)
		if err != nil {
			return nil, err
		}
		if name := sub.Name(); name != "" && ret != nil {
			sctx.Set(name, ret)
		}
	}
	return nil, nil
}

func (c *sequenceCon) Sizeof(ctx *Context) (int, error) {
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

// unwrap strips Renamed layers off a construct.
func unwrap(c Construct) Construct {
	for {
		r, ok := c.(*renamed)
		if !ok {
			return c
		}
		c = r.sub
	}
}
