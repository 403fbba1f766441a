package construct

import (
	"bytes"
	"fmt"
	"reflect"
	"strings"
)

// Container is the value a Struct produces: an insertion-ordered
// record keyed by field name.  Equality ignores insertion order, the
// way users expect two records with the same fields to compare equal.
type Container struct {
	keys []string
	vals map[string]any
}

// NewContainer returns an empty record.
func NewContainer() *Container {
	return &Container{vals: make(map[string]any)}
}

// C builds a container from alternating name/value pairs.  It is the
// literal syntax used throughout the tests:
//
//	C("a", 1, "b", C("c", 2))
func C(pairs ...any) *Container {
	if len(pairs)%2 != 0 {
		panic("construct: C requires name/value pairs")
	}
	out := NewContainer()
	for i := 0; i < len(pairs); i += 2 {
		name, ok := pairs[i].(string)
		if !ok {
			panic(fmt.Sprintf("construct: C key %v is not a string", pairs[i]))
		}
		out.Set(name, pairs[i+1])
	}
	return out
}

// Set binds a value under name, appending the key on first insertion.
func (c *Container) Set(name string, v any) {
	if _, ok := c.vals[name]; !ok {
		c.keys = append(c.keys, name)
	}
	c.vals[name] = v
}

// Get returns the value bound under name.
func (c *Container) Get(name string) (any, bool) {
	v, ok := c.vals[name]
	return v, ok
}

// Has reports whether name is bound.
func (c *Container) Has(name string) bool {
	_, ok := c.vals[name]
	return ok
}

// Delete removes a binding.
func (c *Container) Delete(name string) {
	if _, ok := c.vals[name]; !ok {
		return
	}
	delete(c.vals, name)
	for i, k := range c.keys {
		if k == name {
			c.keys = append(c.keys[:i], c.keys[i+1:]...)
			break
		}
	}
}

// Keys returns the field names in insertion order.
func (c *Container) Keys() []string {
	out := make([]string, len(c.keys))
	copy(out, c.keys)
	return out
}

// Len reports the number of bindings.
func (c *Container) Len() int { return len(c.keys) }

// Equal compares two containers field by field, ignoring insertion
// order and descending into nested containers and lists.
func (c *Container) Equal(other *Container) bool {
	if other == nil || len(c.keys) != len(other.keys) {
		return false
	}
	for k, v := range c.vals {
		ov, ok := other.vals[k]
		if !ok || !valueEqual(v, ov) {
			return false
		}
	}
	return true
}

// ListContainer is the value a Sequence produces.
type ListContainer []any

// Equal compares element-wise, descending like Container.Equal.
func (l ListContainer) Equal(other ListContainer) bool {
	if len(l) != len(other) {
		return false
	}
	for i := range l {
		if !valueEqual(l[i], other[i]) {
			return false
		}
	}
	return true
}

func valueEqual(a, b any) bool {
	if bv, ok := b.(*LazyContainer); ok {
		mat, err := bv.Materialize()
		if err != nil {
			return false
		}
		return valueEqual(a, mat)
	}
	switch av := a.(type) {
	case *Container:
		bv, ok := b.(*Container)
		return ok && av.Equal(bv)
	case ListContainer:
		bv, ok := b.(ListContainer)
		return ok && av.Equal(bv)
	case []byte:
		bv, ok := b.([]byte)
		return ok && bytes.Equal(av, bv)
	case *LazyContainer:
		mat, err := av.Materialize()
		if err != nil {
			return false
		}
		return valueEqual(mat, b)
	}
	if ai, err := toInt(a); err == nil {
		bi, berr := toInt(b)
		return berr == nil && ai == bi
	}
	return reflect.DeepEqual(a, b)
}

// String renders the container as an indented tree, one field per
// branch, nested records indented under their key.
func (c *Container) String() string {
	var s strings.Builder
	writeTree(&s, c, "")
	return s.String()
}

func writeTree(s *strings.Builder, v any, indent string) {
	switch node := v.(type) {
	case *Container:
		s.WriteString("Container:")
		for _, k := range node.keys {
			s.WriteString("\n" + indent + "    " + k + " = ")
			writeTree(s, node.vals[k], indent+"    ")
		}
	case ListContainer:
		fmt.Fprintf(s, "List<%d>:", len(node))
		for _, item := range node {
			s.WriteString("\n" + indent + "    - ")
			writeTree(s, item, indent+"    ")
		}
	case *LazyContainer:
		fmt.Fprintf(s, "LazyContainer<%d>", len(node.keys))
	case []byte:
		fmt.Fprintf(s, "%q", node)
	case string:
		fmt.Fprintf(s, "%q", node)
	default:
		fmt.Fprintf(s, "%v", node)
	}
}
