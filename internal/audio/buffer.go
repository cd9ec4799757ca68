package audio

import (
	"context"
	"io"
	"sync"
)

// BufferMicrophone replays a recorded buffer as if it were live input. Each
// Read advances by hop samples and returns io.EOF once the recording is used
// up.
type BufferMicrophone struct {
	buffer *AudioBuffer
	hop    int
}

func NewBufferMicrophone(buffer *AudioBuffer, hop int) *BufferMicrophone {
	if hop <= 0 {
		hop = 1
	}
	return &BufferMicrophone{buffer: buffer, hop: hop}
}

// Open ignores the requested rate; the stream reports the recording's rate
func (m *BufferMicrophone) Open(ctx context.Context, _, windowSize int) (Stream, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return &bufferStream{buffer: m.buffer, hop: m.hop, cursor: windowSize}, nil
}

type bufferStream struct {
	mu     sync.Mutex
	buffer *AudioBuffer
	hop    int
	cursor int // one past the last sample of the next window
	closed bool
}

func (s *bufferStream) Read(buf []float32) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrStreamClosed
	}
	if s.cursor > len(s.buffer.Samples) {
		return io.EOF
	}

	start := s.cursor - len(buf)
	clear(buf)
	if start < 0 {
		copy(buf[-start:], s.buffer.Samples[:s.cursor])
	} else {
		copy(buf, s.buffer.Samples[start:s.cursor])
	}

	s.cursor += s.hop
	return nil
}

func (s *bufferStream) SampleRate() int {
	return s.buffer.SampleRate
}

func (s *bufferStream) Close() error {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	return nil
}
