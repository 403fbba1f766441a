package construct

// Stream is a random-access byte cursor shared by parse and build.  A
// parse stream wraps the input bytes; a build stream starts empty and
// grows as constructs write into it.  Writing past the current end
// zero fills the gap, which is what lets Pointer place a field beyond
// everything built so far.
type Stream struct {
	data []byte
	pos  int
}

// NewStream wraps data in a cursor positioned at the start.  Pass nil
// to get an empty, growable stream for building.
func NewStream(data []byte) *Stream {
	return &Stream{data: data}
}

// Read returns exactly n bytes or an ErrField describing the
// under-read.
func (s *Stream) Read(n int) ([]byte, error) {
	if n < 0 {
		return nil, newError(ErrField, "cannot read %d bytes", n)
	}
	if s.pos+n > len(s.data) {
		return nil, newError(ErrField, "expected %d bytes at position %d, found %d", n, s.pos, len(s.data)-s.pos)
	}
	out := s.data[s.pos : s.pos+n]
	s.pos += n
	return out, nil
}

// ReadAll consumes everything between the cursor and the end of the
// stream.
func (s *Stream) ReadAll() []byte {
	out := s.data[s.pos:]
	s.pos = len(s.data)
	return out
}

// Write places p at the cursor, overwriting existing bytes and
// extending the stream as needed.
func (s *Stream) Write(p []byte) error {
	end := s.pos + len(p)
	if end > len(s.data) {
		grown := make([]byte, end)
		copy(grown, s.data)
		s.data = grown
	}
	copy(s.data[s.pos:end], p)
	s.pos = end
	return nil
}

// WriteByte is a convenience for single byte fields.
func (s *Stream) WriteByte(b byte) error {
	return s.Write([]byte{b})
}

// Tell reports the cursor position.
func (s *Stream) Tell() int { return s.pos }

// Len reports the current length of the underlying bytes.
func (s *Stream) Len() int { return len(s.data) }

// Remaining reports how many bytes are left between cursor and end.
func (s *Stream) Remaining() int { return len(s.data) - s.pos }

// SeekTo moves the cursor to an absolute offset.  Negative offsets
// count from the end of the stream.  Seeking past the end is allowed;
// the gap materialises as zeros on the next write.
func (s *Stream) SeekTo(offset int) (int, error) {
	if offset < 0 {
		offset = len(s.data) + offset
	}
	if offset < 0 {
		return 0, newError(ErrField, "seek before start of stream: %d", offset)
	}
	s.pos = offset
	return offset, nil
}

// Slice returns the bytes between two absolute offsets without moving
// the cursor.  Checksum uses it to hash an anchored range.
func (s *Stream) Slice(start, end int) ([]byte, error) {
	if start < 0 || end > len(s.data) || start > end {
		return nil, newError(ErrField, "invalid slice %d..%d of %d byte stream", start, end, len(s.data))
	}
	return s.data[start:end], nil
}

// Bytes returns the full contents of the stream regardless of cursor.
func (s *Stream) Bytes() []byte { return s.data }
