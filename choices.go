package construct

// switchCon evaluates a key against the context and dispatches to the
// matching case.
type switchCon struct {
	keyFn      CtxFunc
	cases      map[any]Construct
	defaultSub Construct
	includeKey bool
}

// SwitchOpts configures Switch: an optional fallback case and whether
// the key travels with the value.
type SwitchOpts struct {
	// Default is used when no case matches; without one an unmatched
	// key is a switch error.
	Default Construct
	// IncludeKey makes parse return ListContainer{key, value} and
	// build expect the same pair, failing on a key mismatch.
	IncludeKey bool
}

// Switch selects a case construct by keyFn(ctx).
func Switch(keyFn CtxFunc, cases map[any]Construct, opts ...SwitchOpts) Construct {
	o := SwitchOpts{}
	if len(opts) > 0 {
		o = opts[0]
	}
	return &switchCon{keyFn: keyFn, cases: cases, defaultSub: o.Default, includeKey: o.IncludeKey}
}

func (c *switchCon) Name() string { return "" }
func (c *switchCon) Flags() Flags { return FlagDynamic }

func (c *switchCon) pick(ctx *Context) (any, Construct, error) {
	key, err := c.keyFn(ctx)
	if err != nil {
		return nil, nil, err
	}
	if sub, ok := c.cases[key]; ok {
		return key, sub, nil
	}
	if c.defaultSub != nil {
		return key, c.defaultSub, nil
	}
	return nil, nil, newError(ErrSwitch, "no case matches key %v", key)
}

func (c *switchCon) Parse(s *Stream, ctx *Context) (any, error) {
	key, sub, err := c.pick(ctx)
	if err != nil {
		return nil, err
	}
	v, err := sub.Parse(s, ctx)
	if err != nil {
		return nil, err
	}
	if c.includeKey {
		return ListContainer{key, v}, nil
	}
	return v, nil
}

func (c *switchCon) Build(v any, s *Stream, ctx *Context) (any, error) {
	key, sub, err := c.pick(ctx)
	if err != nil {
		return nil, err
	}
	if c.includeKey {
		pair, ok := asList(v)
		if !ok || len(pair) != 2 {
			return nil, newError(ErrSwitch, "expected a (key, value) pair, got %T", v)
		}
		if !valueEqual(pair[0], key) {
			return nil, newError(ErrSwitch, "supplied key %v does not match computed key %v", pair[0], key)
		}
		v = pair[1]
	}
	return sub.Build(v, s, ctx)
}

func (c *switchCon) Sizeof(ctx *Context) (int, error) {
	_, sub, err := c.pick(ctx)
	if err != nil {
		return 0, newError(ErrSizeof, "switch key is not statically known: %v", err)
	}
	return sub.Sizeof(ctx)
}

// selectCon tries each alternative in declaration order, rewinding
// the stream and discarding context mutations after a failed branch.
type selectCon struct {
	subs        []Construct
	includeName bool
}

// Select parses with the first alternative that accepts the input.
func Select(subs ...Construct) Construct {
	return &selectCon{subs: subs}
}

// SelectIncludeName is Select returning ListContainer{name, value};
// build takes the same pair and dispatches on the name.
func SelectIncludeName(subs ...Construct) Construct {
	return &selectCon{subs: subs, includeName: true}
}

func (c *selectCon) Name() string { return "" }
func (c *selectCon) Flags() Flags { return FlagDynamic }

func (c *selectCon) Parse(s *Stream, ctx *Context) (any, error) {
	for _, sub := range c.subs {
		pos := s.Tell()
		scratch := ctx.Copy()
		v, err := sub.Parse(s, scratch)
		if err != nil {
			if _, serr := s.SeekTo(pos); serr != nil {
				return nil, serr
			}
			continue
		}
		ctx.absorb(scratch)
		if c.includeName {
			return ListContainer{sub.Name(), v}, nil
		}
		return v, nil
	}
	return nil, newError(ErrSelect, "no alternative accepted the input")
}

func (c *selectCon) Build(v any, s *Stream, ctx *Context) (any, error) {
	if c.includeName {
		pair, ok := asList(v)
		if !ok || len(pair) != 2 {
			return nil, newError(ErrSelect, "expected a (name, value) pair, got %T", v)
		}
		name, ok := pair[0].(string)
		if !ok {
			return nil, newError(ErrSelect, "expected a string name, got %T", pair[0])
		}
		for _, sub := range c.subs {
			if sub.Name() == name {
				return sub.Build(pair[1], s, ctx)
			}
		}
		return nil, newError(ErrSelect, "no alternative is named %q", name)
	}
	for _, sub := range c.subs {
		scratch := NewStream(nil)
		if _, err := sub.Build(v, scratch, ctx.Copy()); err != nil {
			continue
		}
		return nil, s.Write(scratch.Bytes())
	}
	return nil, newError(ErrSelect, "no alternative accepted the value")
}

func (c *selectCon) Sizeof(ctx *Context) (int, error) {
	return 0, newError(ErrSizeof, "select size depends on the winning alternative")
}

// unionCon parses every alternative from the same stream position and
// returns a container holding all of them.
type unionCon struct {
	subs      []Construct
	buildFrom any
	flags     Flags
}

// Union overlays its alternatives over the same bytes.  The anonymous
// build writes through the first alternative that can render the
// supplied value.
func Union(subs ...Construct) Construct {
	return &unionCon{subs: subs, flags: inheritFlags(subs...)}
}

// UnionBuildFrom is Union with the writing alternative pinned by
// index (int) or name (string).
func UnionBuildFrom(sel any, subs ...Construct) Construct {
	return &unionCon{subs: subs, buildFrom: sel, flags: inheritFlags(subs...)}
}

func (c *unionCon) Name() string { return "" }
func (c *unionCon) Flags() Flags { return c.flags }

func (c *unionCon) Parse(s *Stream, ctx *Context) (any, error) {
	con := NewContainer()
	start := s.Tell()
	end := start
	for _, sub := range c.subs {
		if _, err := s.SeekTo(start); err != nil {
			return nil, err
		}
		v, err := sub.Parse(s, ctx)
		if err != nil {
			return nil, err
		}
		if s.Tell() > end {
			end = s.Tell()
		}
		if sub.Flags()&FlagEmbed != 0 {
			inner, ok := v.(*Container)
			if !ok {
				return nil, newError(ErrField, "cannot embed %T into a union", v)
			}
			for _, k := range inner.Keys() {
				iv, _ := inner.Get(k)
				con.Set(k, iv)
				ctx.Set(k, iv)
			}
			continue
		}
		if name := sub.Name(); name != "" {
			con.Set(name, v)
			ctx.Set(name, v)
		}
	}
	if _, err := s.SeekTo(end); err != nil {
		return nil, err
	}
	return con, nil
}

func (c *unionCon) pickBuilder() (Construct, error) {
	switch sel := c.buildFrom.(type) {
	case int:
		if sel < 0 || sel >= len(c.subs) {
			return nil, newError(ErrSelect, "union alternative %d out of range", sel)
		}
		return c.subs[sel], nil
	case string:
		for _, sub := range c.subs {
			if sub.Name() == sel {
				return sub, nil
			}
		}
		return nil, newError(ErrSelect, "no union alternative is named %q", sel)
	}
	return nil, nil
}

func (c *unionCon) Build(v any, s *Stream, ctx *Context) (any, error) {
	sub, err := c.pickBuilder()
	if err != nil {
		return nil, err
	}
	if sub != nil {
		sv, err := c.valueFor(sub, v)
		if err != nil {
			return nil, err
		}
		return sub.Build(sv, s, ctx)
	}
	for _, cand := range c.subs {
		sv, err := c.valueFor(cand, v)
		if err != nil {
			continue
		}
		scratch := NewStream(nil)
		if _, err := cand.Build(sv, scratch, ctx.Copy()); err != nil {
			continue
		}
		return nil, s.Write(scratch.Bytes())
	}
	return nil, newError(ErrSelect, "no union alternative accepted the value")
}

// valueFor extracts the slice of the build input a given alternative
// writes from: embedded alternatives see the whole mapping, named
// ones their own entry.
func (c *unionCon) valueFor(sub Construct, v any) (any, error) {
	if sub.Flags()&FlagEmbed != 0 {
		return v, nil
	}
	name := sub.Name()
	if name == "" {
		return v, nil
	}
	m, err := asMapping(v)
	if err != nil {
		return nil, err
	}
	val, ok := m.Get(name)
	if !ok {
		return nil, newError(ErrField, "missing key %q", name)
	}
	return val, nil
}

func (c *unionCon) Sizeof(ctx *Context) (int, error) {
	max := 0
	for _, sub := range c.subs {
		n, err := sub.Sizeof(ctx)
		if err != nil {
			return 0, err
		}
		if n > max {
			max = n
		}
	}
	return max, nil
}

// ifThenElse dispatches on a context predicate decided before any
// bytes are touched.
type ifThenElse struct {
	pred    BoolFunc
	thenSub Construct
	elseSub Construct
}

// IfThenElse picks thenSub when pred holds and elseSub otherwise.
func IfThenElse(pred BoolFunc, thenSub, elseSub Construct) Construct {
	return &ifThenElse{pred: pred, thenSub: thenSub, elseSub: elseSub}
}

// If is IfThenElse with a Pass else branch.
func If(pred BoolFunc, sub Construct) Construct {
	return IfThenElse(pred, sub, Pass)
}

func (c *ifThenElse) Name() string { return "" }
func (c *ifThenElse) Flags() Flags { return FlagDynamic }

func (c *ifThenElse) pick(ctx *Context) (Construct, error) {
	ok, err := c.pred(ctx)
	if err != nil {
		return nil, err
	}
	if ok {
		return c.thenSub, nil
	}
	return c.elseSub, nil
}

func (c *ifThenElse) Parse(s *Stream, ctx *Context) (any, error) {
	sub, err := c.pick(ctx)
	if err != nil {
		return nil, err
	}
	return sub.Parse(s, ctx)
}

func (c *ifThenElse) Build(v any, s *Stream, ctx *Context) (any, error) {
	sub, err := c.pick(ctx)
	if err != nil {
		return nil, err
	}
	return sub.Build(v, s, ctx)
}

func (c *ifThenElse) Sizeof(ctx *Context) (int, error) {
	return 0, newError(ErrSizeof, "conditional size depends on the context")
}

// Optional parses its sub if the input allows, yielding nil
// otherwise.
func Optional(sub Construct) Construct {
	return Select(sub, Pass)
}
