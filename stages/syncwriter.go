package stages

import (
	"io"
	"sync"
)

// lockedWriter serializes writes from multiple stage goroutines onto a
// single underlying writer. spec.md §8's cross-stage timing note
// allows side effects from different stages to interleave line by
// line, but recommends locking around multi-byte writes so a single
// logical line is never itself torn apart (animatedprinter writes one
// byte at a time, which would otherwise interleave with another
// stage's output mid-line if both share stdout).
type lockedWriter struct {
	mu  sync.Mutex
	out io.Writer
}

func newLockedWriter(out io.Writer) *lockedWriter {
	return &lockedWriter{out: out}
}

func (w *lockedWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.out.Write(p)
}

// withLine holds the writer's lock for the duration of fn, so a
// transform that emits a line across several writes (animatedprinter)
// does not interleave with another stage's line.
func (w *lockedWriter) withLine(fn func(io.Writer)) {
	w.mu.Lock()
	defer w.mu.Unlock()
	fn(w.out)
}
