package protocol

// OutputBuffer receives encoded bytes. The frame encoder needs to patch the
// length byte after the payload is written, hence Update and DataSince.
type OutputBuffer interface {
	Output(data []byte)
	CurPosition() int
	Update(pos int, val byte)
	DataSince(pos int) []byte
}

// ScratchOutput holds outgoing frames in a fixed array so encoding does not
// allocate. Bytes past the array are dropped; EncodeFrame rejects frames
// long enough for that to matter.
type ScratchOutput struct {
	buf [FrameMax * 2]byte
	n   int
}

func NewScratchOutput() *ScratchOutput {
	return &ScratchOutput{}
}

func (s *ScratchOutput) Output(data []byte) {
	s.n += copy(s.buf[s.n:], data)
}

func (s *ScratchOutput) CurPosition() int { return s.n }

func (s *ScratchOutput) Update(pos int, val byte) {
	if pos >= 0 && pos < s.n {
		s.buf[pos] = val
	}
}

func (s *ScratchOutput) DataSince(pos int) []byte {
	if pos < 0 || pos > s.n {
		return nil
	}
	return s.buf[pos:s.n]
}

// Truncate drops everything written at or after pos.
func (s *ScratchOutput) Truncate(pos int) {
	if pos >= 0 && pos < s.n {
		s.n = pos
	}
}

// Result returns the bytes written so far. The slice is only valid until
// the next write.
func (s *ScratchOutput) Result() []byte { return s.buf[:s.n] }

func (s *ScratchOutput) Reset() { s.n = 0 }

// FifoBuffer collects bytes read from the link until the decoder consumes
// them. Unlike a ring, the pending bytes are always contiguous, so Data never
// copies; consumed space is reclaimed lazily on Write.
type FifoBuffer struct {
	buf  []byte
	head int
}

// NewFifoBuffer returns a buffer holding at most capacity bytes.
func NewFifoBuffer(capacity int) *FifoBuffer {
	return &FifoBuffer{buf: make([]byte, 0, capacity)}
}

// Write appends as much of data as fits and returns how much that was.
func (f *FifoBuffer) Write(data []byte) int {
	if f.head > 0 && len(f.buf)+len(data) > cap(f.buf) {
		n := copy(f.buf, f.buf[f.head:])
		f.buf = f.buf[:n]
		f.head = 0
	}
	if room := cap(f.buf) - len(f.buf); len(data) > room {
		data = data[:room]
	}
	f.buf = append(f.buf, data...)
	return len(data)
}

// Data returns the pending bytes without consuming them.
func (f *FifoBuffer) Data() []byte { return f.buf[f.head:] }

// Pop consumes n pending bytes.
func (f *FifoBuffer) Pop(n int) {
	if n > f.Available() {
		n = f.Available()
	}
	f.head += n
	if f.head == len(f.buf) {
		f.Reset()
	}
}

func (f *FifoBuffer) Available() int { return len(f.buf) - f.head }
func (f *FifoBuffer) Free() int      { return cap(f.buf) - f.Available() }
func (f *FifoBuffer) IsEmpty() bool  { return f.Available() == 0 }

func (f *FifoBuffer) Reset() {
	f.buf = f.buf[:0]
	f.head = 0
}
