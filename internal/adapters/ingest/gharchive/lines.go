package gharchive

import (
	"bytes"
	"os"
)

const reverseChunk = 1 << 20

// ReverseLines iterates a raw line file from its last line to its first
// without loading the whole file. Blank lines are skipped.
// Slices returned by Line stay valid after subsequent calls to Next.
type ReverseLines struct {
	f     *os.File
	pos   int64
	buf   []byte
	line  []byte
	chunk int
	err   error
}

// OpenReverse opens path for reverse iteration
func OpenReverse(path string) (*ReverseLines, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	fi, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	return &ReverseLines{f: f, pos: fi.Size(), chunk: reverseChunk}, nil
}

// Next advances to the previous non-blank line
func (r *ReverseLines) Next() bool {
	if r.err != nil {
		return false
	}
	for {
		if i := bytes.LastIndexByte(r.buf, '\n'); i >= 0 {
			line := bytes.TrimSuffix(r.buf[i+1:], []byte{'\r'})
			r.buf = r.buf[:i]
			if len(line) == 0 {
				continue
			}
			r.line = line
			return true
		}
		if r.pos == 0 {
			line := bytes.TrimSuffix(r.buf, []byte{'\r'})
			r.buf = nil
			if len(line) == 0 {
				return false
			}
			r.line = line
			return true
		}
		n := int64(r.chunk)
		if n > r.pos {
			n = r.pos
		}
		r.pos -= n
		nb := make([]byte, int(n)+len(r.buf))
		if _, err := r.f.ReadAt(nb[:n], r.pos); err != nil {
			r.err = err
			return false
		}
		copy(nb[n:], r.buf)
		r.buf = nb
	}
}

// Line returns the current line without its terminator
func (r *ReverseLines) Line() []byte { return r.line }

// Err returns the first read error, if any
func (r *ReverseLines) Err() error { return r.err }

// Close releases the file handle
func (r *ReverseLines) Close() error { return r.f.Close() }
