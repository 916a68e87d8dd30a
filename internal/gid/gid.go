// Package gid extracts the calling goroutine's runtime id so a stage
// can detect a caller trying to join its own worker (spec's
// CannotJoinSelf guard against a self-join deadlock).
package gid

import (
	"bytes"
	"runtime"
	"strconv"
)

// Current returns the id of the calling goroutine, parsed out of the
// header line of its own stack trace. This is the standard trick for
// goroutine-local identity in Go; it is only used here to reject a
// self-join, never for scheduling or synchronization.
func Current() uint64 {
	buf := make([]byte, 64)
	n := runtime.Stack(buf, false)
	buf = buf[:n]

	buf = bytes.TrimPrefix(buf, []byte("goroutine "))
	if idx := bytes.IndexByte(buf, ' '); idx >= 0 {
		buf = buf[:idx]
	}

	id, err := strconv.ParseUint(string(buf), 10, 64)
	if err != nil {
		return 0
	}
	return id
}
