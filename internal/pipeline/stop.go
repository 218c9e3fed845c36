package pipeline

import (
	"fmt"
	"io"
	"os"
	"os/signal"
	"sync"
	"sync/atomic"
)

// StopNotice is printed when a stop is first requested by a signal.
const StopNotice = "Quitting after this page"

// StopFlag requests cooperative cancellation of a Run. It can be set once and
// never cleared; the zero value is ready to use.
type StopFlag struct {
	requested atomic.Bool
}

// Request sets the flag. It reports whether this call was the one that set it.
func (f *StopFlag) Request() bool {
	return f.requested.CompareAndSwap(false, true)
}

// Requested reports whether a stop has been requested.
func (f *StopFlag) Requested() bool {
	return f.requested.Load()
}

// NotifyOnSignal sets flag and prints StopNotice to w the first time one of
// sigs (os.Interrupt if none are given) is received. It does not cancel any
// context: work already in flight keeps running. After the first signal the
// handler is removed, so a second one terminates the process as usual.
func NotifyOnSignal(flag *StopFlag, w io.Writer, sigs ...os.Signal) (stop func()) {
	if len(sigs) == 0 {
		sigs = []os.Signal{os.Interrupt}
	}

	ch := make(chan os.Signal, 1)
	signal.Notify(ch, sigs...)
	done := make(chan struct{})

	go func() {
		select {
		case <-ch:
			// A second signal gets the default behaviour.
			signal.Stop(ch)
			if flag.Request() {
				fmt.Fprintln(w, StopNotice)
			}
		case <-done:
		}
	}()

	var once sync.Once
	return func() {
		once.Do(func() {
			signal.Stop(ch)
			close(done)
		})
	}
}
