package construct

import "math"

// arrayCon repeats its subconstruct an exact number of times; the
// count is either fixed or resolved from the context at runtime.
type arrayCon struct {
	subcon
	count   int
	countFn LengthFunc
}

// Array repeats sub exactly count times.
func Array(count int, sub Construct) Construct {
	return &arrayCon{subcon: subcon{sub: sub}, count: count}
}

// MetaArray repeats sub countFn(ctx) times.
func MetaArray(countFn LengthFunc, sub Construct) Construct {
	return &arrayCon{subcon: subcon{sub: sub}, countFn: countFn}
}

func (c *arrayCon) Name() string { return "" }
func (c *arrayCon) Flags() Flags {
	f := c.sub.Flags() &^ (FlagEmbed | FlagBuildNone)
	if c.countFn != nil {
		f |= FlagDynamic
	}
	return f
}

func (c *arrayCon) resolveCount(ctx *Context) (int, error) {
	if c.countFn != nil {
		return c.countFn(ctx)
	}
	return c.count, nil
}

func (c *arrayCon) Parse(s *Stream, ctx *Context) (any, error) {
	count, err := c.resolveCount(ctx)
	if err != nil {
		return nil, err
	}
	out := make(ListContainer, 0, count)
	for i := 0; i < count; i++ {
		ictx := ctx
		if c.sub.Flags()&FlagCopyContext != 0 {
			ictx = ctx.Copy()
		}
		v, err := c.sub.Parse(s, ictx)
		if err != nil {
			return nil, newError(ErrArray, "expected %d items, found %d: %v", count, i, err)
		}
		out = append(out, v)
	}
	return out, nil
}

func (c *arrayCon) Build(v any, s *Stream, ctx *Context) (any, error) {
	count, err := c.resolveCount(ctx)
	if err != nil {
		return nil, err
	}
	items, ok := asList(v)
	if !ok {
		return nil, newError(ErrArray, "expected a sequence, got %T", v)
	}
	if len(items) != count {
		return nil, newError(ErrArray, "expected %d items, got %d", count, len(items))
	}
	for _, item := range items {
		ictx := ctx
		if c.sub.Flags()&FlagCopyContext != 0 {
			ictx = ctx.Copy()
		}
		if _, err := c.sub.Build(item, s, ictx); err != nil {
			return nil, err
		}
	}
	return nil, nil
}

func (c *arrayCon) Sizeof(ctx *Context) (int, error) {
	count, err := c.resolveCount(ctx)
	if err != nil {
		return 0, err
	}
	n, err := c.sub.Sizeof(ctx)
	if err != nil {
		return 0, err
	}
	return count * n, nil
}

// rangeCon parses greedily between a lower and upper bound,
// rewinding the stream after the first failed attempt.
type rangeCon struct {
	subcon
	min, max int
}

// Range repeats sub between min and max times.  Parsing stops at the
// first failure; fewer than min successes is a range error.  Bounds
// must satisfy 0 <= min <= max.
func Range(min, max int, sub Construct) Construct {
	if min < 0 || max < 0 || min > max {
		panic(newError(ErrRange, "invalid bounds %d..%d", min, max))
	}
	return &rangeCon{subcon: subcon{sub: sub}, min: min, max: max}
}

// GreedyRange repeats sub as long as it keeps succeeding, zero times
// included.
func GreedyRange(sub Construct) Construct {
	return Range(0, math.MaxInt, sub)
}

// OptionalGreedyRange is an alias of GreedyRange kept for symmetry
// with the historical macro names.
func OptionalGreedyRange(sub Construct) Construct {
	return GreedyRange(sub)
}

func (c *rangeCon) Name() string { return "" }
func (c *rangeCon) Flags() Flags {
	return c.sub.Flags()&^(FlagEmbed|FlagBuildNone) | FlagDynamic
}

func (c *rangeCon) Parse(s *Stream, ctx *Context) (any, error) {
	out := ListContainer{}
	for len(out) < c.max {
		pos := s.Tell()
		ictx := ctx
		if c.sub.Flags()&FlagCopyContext != 0 {
			ictx = ctx.Copy()
		}
		v, err := c.sub.Parse(s, ictx)
		if err != nil {
			if _, serr := s.SeekTo(pos); serr != nil {
				return nil, serr
			}
			break
		}
		out = append(out, v)
	}
	if len(out) < c.min {
		return nil, newError(ErrRange, "expected at least %d items, found %d", c.min, len(out))
	}
	return out, nil
}

func (c *rangeCon) Build(v any, s *Stream, ctx *Context) (any, error) {
	items, ok := asList(v)
	if !ok {
		return nil, newError(ErrRange, "expected a sequence, got %T", v)
	}
	if len(items) < c.min || len(items) > c.max {
		return nil, newError(ErrRange, "expected %d..%d items, got %d", c.min, c.max, len(items))
	}
	for _, item := range items {
		ictx := ctx
		if c.sub.Flags()&FlagCopyContext != 0 {
			ictx = ctx.Copy()
		}
		if _, err := c.sub.Build(item, s, ictx); err != nil {
			return nil, err
		}
	}
	return nil, nil
}

func (c *rangeCon) Sizeof(ctx *Context) (int, error) {
	if c.min == c.max {
		n, err := c.sub.Sizeof(ctx)
		if err != nil {
			return 0, err
		}
		return c.min * n, nil
	}
	return 0, newError(ErrSizeof, "ranged repeater size depends on the data")
}

// repeatUntil parses items until the predicate accepts one; the item
// that stopped the loop is kept.  Context mutations are scoped to each
// iteration on both parse and build.
type repeatUntil struct {
	subcon
	pred Predicate
}

// RepeatUntil repeats sub until pred holds for the produced item.
func RepeatUntil(pred Predicate, sub Construct) Construct {
	return &repeatUntil{subcon: subcon{sub: sub}, pred: pred}
}

func (c *repeatUntil) Name() string { return "" }
func (c *repeatUntil) Flags() Flags {
	return c.sub.Flags()&^(FlagEmbed|FlagBuildNone) | FlagDynamic
}

func (c *repeatUntil) Parse(s *Stream, ctx *Context) (any, error) {
	out := ListContainer{}
	for {
		v, err := c.sub.Parse(s, ctx.Copy())
		if err != nil {
			return nil, newError(ErrArray, "missing terminator after %d items: %v", len(out), err)
		}
		out = append(out, v)
		done, err := c.pred(v, ctx)
		if err != nil {
			return nil, err
		}
		if done {
			return out, nil
		}
	}
}

func (c *repeatUntil) Build(v any, s *Stream, ctx *Context) (any, error) {
	items, ok := asList(v)
	if !ok {
		return nil, newError(ErrArray, "expected a sequence, got %T", v)
	}
	for _, item := range items {
		if _, err := c.sub.Build(item, s, ctx.Copy()); err != nil {
			return nil, err
		}
		done, err := c.pred(item, ctx)
		if err != nil {
			return nil, err
		}
		if done {
			return nil, nil
		}
	}
	return nil, newError(ErrArray, "no item satisfied the terminator predicate")
}

func (c *repeatUntil) Sizeof(ctx *Context) (int, error) {
	return 0, newError(ErrSizeof, "repeat-until size depends on the data")
}

// prefixedArray reads a count through its length field, then that
// many items.
type prefixedArray struct {
	subcon
	lengthField Construct
}

// PrefixedArray parses a count through lengthField and then repeats
// sub exactly that many times.
func PrefixedArray(lengthField, sub Construct) Construct {
	return &prefixedArray{subcon: subcon{sub: sub}, lengthField: lengthField}
}

func (c *prefixedArray) Name() string { return "" }
func (c *prefixedArray) Flags() Flags {
	return c.sub.Flags()&^(FlagEmbed|FlagBuildNone) | FlagDynamic
}

func (c *prefixedArray) Parse(s *Stream, ctx *Context) (any, error) {
	lv, err := c.lengthField.Parse(s, ctx)
	if err != nil {
		return nil, newError(ErrArray, "count field: %v", err)
	}
	count, err := toInt(lv)
	if err != nil {
		return nil, err
	}
	out := make(ListContainer, 0, count)
	for i := 0; i < count; i++ {
		v, err := c.sub.Parse(s, ctx)
		if err != nil {
			return nil, newError(ErrArray, "expected %d items, found %d: %v", count, i, err)
		}
		out = append(out, v)
	}
	return out, nil
}

func (c *prefixedArray) Build(v any, s *Stream, ctx *Context) (any, error) {
	items, ok := asList(v)
	if !ok {
		return nil, newError(ErrArray, "expected a sequence, got %T", v)
	}
	if _, err := c.lengthField.Build(len(items), s, ctx); err != nil {
		return nil, err
	}
	for _, item := range items {
		if _, err := c.sub.Build(item, s, ctx); err != nil {
			return nil, err
		}
	}
	return nil, nil
}

func (c *prefixedArray) Sizeof(ctx *Context) (int, error) {
	return 0, newError(ErrSizeof, "prefixed array size depends on the data")
}
