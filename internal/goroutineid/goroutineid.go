// Package goroutineid identifies the calling goroutine, so the scripting
// runtime can tell whether it is already on its event loop.
package goroutineid

import (
	"bytes"
	"runtime"
	"strconv"
	"sync"
)

var stackBufPool = sync.Pool{
	New: func() any {
		b := make([]byte, 64)
		return &b
	},
}

var stackPrefix = []byte("goroutine ")

// Get returns the current goroutine's ID, or 0 if it cannot be determined.
func Get() int64 {
	bp := stackBufPool.Get().(*[]byte)
	defer stackBufPool.Put(bp)
	n := runtime.Stack(*bp, false)
	return parse((*bp)[:n])
}

// parse reads the ID from the "goroutine N [status]:" header of a stack
// trace. Only the header is needed, so a truncated trace is fine.
func parse(stack []byte) int64 {
	rest, ok := bytes.CutPrefix(stack, stackPrefix)
	if !ok {
		return 0
	}
	end := bytes.IndexFunc(rest, func(r rune) bool { return r < '0' || r > '9' })
	if end < 0 {
		end = len(rest)
	}
	id, err := strconv.ParseInt(string(rest[:end]), 10, 64)
	if err != nil {
		return 0
	}
	return id
}
