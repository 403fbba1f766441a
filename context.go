package construct

// Context is the scoped mapping each construct parses and builds
// against.  Every named sibling that already ran is reachable by name,
// and the reserved name "_" hops to the enclosing scope.  Struct opens
// a child scope for its subconstructs; Select copies the scope so a
// failed branch can be rolled back without leaking bindings.
type Context struct {
	parent *Context
	keys   []string
	vals   map[string]any
}

// NewContext returns an empty scope.  Passing a parent makes "_"
// resolve into it.
func NewContext(parent *Context) *Context {
	return &Context{parent: parent, vals: make(map[string]any)}
}

// Child opens a nested scope whose "_" is this one.
func (c *Context) Child() *Context {
	return NewContext(c)
}

// Copy returns a scope with the same parent and a private copy of the
// bindings.  Mutations on the copy never reach the original, which is
// exactly what branch rollback needs.
func (c *Context) Copy() *Context {
	out := NewContext(c.parent)
	out.keys = append(out.keys, c.keys...)
	for k, v := range c.vals {
		out.vals[k] = v
	}
	return out
}

// absorb replaces this scope's bindings with the other scope's.  Used
// by Select to commit the winning branch's mutations.
func (c *Context) absorb(other *Context) {
	c.keys = other.keys
	c.vals = other.vals
}

// Set binds a value under name in this scope.
func (c *Context) Set(name string, v any) {
	if _, ok := c.vals[name]; !ok {
		c.keys = append(c.keys, name)
	}
	c.vals[name] = v
}

// Get resolves a single name in this scope.  "_" returns the parent
// scope.  Names missing here are not searched in the parent; a lookup
// that wants to climb spells the hop out with "_".
func (c *Context) Get(name string) (any, bool) {
	if name == "_" {
		if c.parent == nil {
			return nil, false
		}
		return c.parent, true
	}
	v, ok := c.vals[name]
	return v, ok
}

// Lookup walks a path of names, hopping scopes on "_" and descending
// into Containers and nested scopes for everything else.
func (c *Context) Lookup(path ...string) (any, error) {
	var cur any = c
	for _, name := range path {
		switch node := cur.(type) {
		case *Context:
			v, ok := node.Get(name)
			if !ok {
				return nil, newError(ErrField, "name %q is not bound in context", name)
			}
			cur = v
		case *Container:
			v, ok := node.Get(name)
			if !ok {
				return nil, newError(ErrField, "name %q is not present in container", name)
			}
			cur = v
		default:
			return nil, newError(ErrField, "cannot resolve %q inside %T", name, cur)
		}
	}
	return cur, nil
}

// Int resolves a path and coerces the result to an int.
func (c *Context) Int(path ...string) (int, error) {
	v, err := c.Lookup(path...)
	if err != nil {
		return 0, err
	}
	return toInt(v)
}
