package kfmt

import "io"

// ringBufferSize is the capacity of the early output buffer. It must be a
// power of 2 and is large enough to hold a full 80x25 screen of boot log.
const ringBufferSize = 2048

// ringBuffer keeps the most recent ringBufferSize bytes written to it. Once
// full, new writes overwrite the oldest data.
type ringBuffer struct {
	buffer      [ringBufferSize]byte
	start, size int
}

// Write appends p to the buffer, discarding the oldest bytes on overflow.
func (rb *ringBuffer) Write(p []byte) (int, error) {
	for _, b := range p {
		rb.buffer[(rb.start+rb.size)&(ringBufferSize-1)] = b
		if rb.size < ringBufferSize {
			rb.size++
			continue
		}
		rb.start = (rb.start + 1) & (ringBufferSize - 1)
	}

	return len(p), nil
}

// Read drains up to len(p) bytes. It returns io.EOF once the buffer is empty.
func (rb *ringBuffer) Read(p []byte) (int, error) {
	if rb.size == 0 {
		return 0, io.EOF
	}

	n := rb.size
	if tail := ringBufferSize - rb.start; n > tail {
		n = tail
	}
	if n > len(p) {
		n = len(p)
	}

	copy(p, rb.buffer[rb.start:rb.start+n])
	rb.start = (rb.start + n) & (ringBufferSize - 1)
	rb.size -= n

	return n, nil
}
