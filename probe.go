package construct

import "log"

// probe is a zero-byte debugging aid: it logs the stream position and
// a window of upcoming bytes every time parsing or building passes
// through it.
type probe struct {
	label  string
	window int
}

// Probe logs stream state under label whenever it runs.  Drop one
// between two fields of a struct to see where a parse goes wrong.
func Probe(label string) Construct {
	return &probe{label: label, window: 16}
}

func (c *probe) Name() string { return "" }
func (c *probe) Flags() Flags { return FlagBuildNone }

func (c *probe) report(op string, s *Stream) {
	end := s.Tell() + c.window
	if end > s.Len() {
		end = s.Len()
	}
	upcoming, _ := s.Slice(s.Tell(), end)
	log.Printf("probe %s: %s at %d/%d, next % x", c.label, op, s.Tell(), s.Len(), upcoming)
}

func (c *probe) Parse(s *Stream, ctx *Context) (any, error) {
	c.report("parse", s)
	return nil, nil
}

func (c *probe) Build(v any, s *Stream, ctx *Context) (any, error) {
	c.report("build", s)
	return nil, nil
}

func (c *probe) Sizeof(ctx *Context) (int, error) { return 0, nil }
