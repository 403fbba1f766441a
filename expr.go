package construct

// The expression helpers replace the little attribute-path DSL users
// of the original write as `this.n` or `this._.length`.  A path is a
// sequence of names resolved against the current context, with "_"
// hopping to the enclosing scope.

// CtxFunc produces a value from the current context.  Computed and
// Switch keys take one.
type CtxFunc func(ctx *Context) (any, error)

// LengthFunc resolves a length or offset from the current context.
type LengthFunc func(ctx *Context) (int, error)

// BoolFunc is a context predicate, used by If and IfThenElse.
type BoolFunc func(ctx *Context) (bool, error)

// Predicate tests the value just produced by a repeater iteration.
type Predicate func(obj any, ctx *Context) (bool, error)

// This resolves a context path: This("n") reads the sibling n,
// This("_", "length") reads length from the enclosing scope.
func This(path ...string) CtxFunc {
	return func(ctx *Context) (any, error) {
		return ctx.Lookup(path...)
	}
}

// ThisInt is This with the result coerced to an int, ready to be a
// field length or a pointer offset.
func ThisInt(path ...string) LengthFunc {
	return func(ctx *Context) (int, error) {
		return ctx.Int(path...)
	}
}

// Lit is the constant LengthFunc.
func Lit(n int) LengthFunc {
	return func(*Context) (int, error) { return n, nil }
}

// SumOf adds the results of several length expressions, for fields
// like "data is outer length plus inner length bytes".
func SumOf(fns ...LengthFunc) LengthFunc {
	return func(ctx *Context) (int, error) {
		total := 0
		for _, fn := range fns {
			n, err := fn(ctx)
			if err != nil {
				return 0, err
			}
			total += n
		}
		return total, nil
	}
}

// Always is the constant predicate for If branches decided up front.
func Always(b bool) BoolFunc {
	return func(*Context) (bool, error) { return b, nil }
}

// ObjEquals is the RepeatUntil terminator predicate: stop when the
// parsed item equals want.
func ObjEquals(want any) Predicate {
	return func(obj any, _ *Context) (bool, error) {
		return valueEqual(obj, want), nil
	}
}
