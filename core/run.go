// Package core holds process-wide crash handling shared by every goroutine
// the application spawns
package core

import (
	"fmt"
	"os"
	"runtime/debug"
	"sync/atomic"
)

// cleanup runs before the crash report so the terminal is restored to a
// sane state first
var cleanup atomic.Value // func()

// SetCleanup registers the function invoked before a crash report is
// printed, typically the terminal teardown
func SetCleanup(fn func()) {
	cleanup.Store(fn)
}

// HandleCrash is the unified panic handler: restore the terminal, print the
// stack trace, exit
func HandleCrash(r any) {
	if r == nil {
		return
	}

	if fn, ok := cleanup.Load().(func()); ok && fn != nil {
		fn()
	}

	os.Stdout.Sync()
	os.Stderr.Sync()

	fmt.Fprintf(os.Stderr, "\r\n\x1b[31mCRASH DETECTED: %v\x1b[0m\r\n", r)
	fmt.Fprintf(os.Stderr, "Stack Trace:\r\n%s\r\n", debug.Stack())
	os.Stderr.Sync()

	os.Exit(1)
}

// Go runs fn in a new goroutine with panic recovery.
// Use this instead of the 'go' keyword to ensure terminal cleanup on crash
func Go(fn func()) {
	go func() {
		defer func() {
			if r := recover(); r != nil {
				HandleCrash(r)
			}
		}()
		fn()
	}()
}
