package kfmt

import (
	"bytes"
	"io"
)

// PrefixWriter wraps an io.Writer and injects Prefix at the start of every
// line written through it.
type PrefixWriter struct {
	// Sink receives the prefixed output. Output written while Sink is nil
	// is kept in the early print buffer.
	Sink io.Writer

	// Prefix is emitted before the first byte of each line.
	Prefix []byte

	// midLine is set once the prefix for the current line has been emitted.
	midLine bool
}

// Write writes p to the sink, emitting the prefix lazily before the first
// byte of each line. The returned count excludes prefix bytes.
func (w *PrefixWriter) Write(p []byte) (int, error) {
	var written int

	for len(p) != 0 {
		if !w.midLine {
			if _, err := w.write(w.Prefix); err != nil {
				return written, err
			}
			w.midLine = true
		}

		end := len(p)
		if nl := bytes.IndexByte(p, '\n'); nl >= 0 {
			end = nl + 1
		}

		n, err := w.write(p[:end])
		written += n
		if err != nil {
			return written, err
		}

		if p[end-1] == '\n' {
			w.midLine = false
		}
		p = p[end:]
	}

	return written, nil
}

func (w *PrefixWriter) write(p []byte) (int, error) {
	if w.Sink == nil {
		return earlyPrintBuffer.Write(p)
	}
	return w.Sink.Write(p)
}
