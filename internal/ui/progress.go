// progress.go implements the spinner shown while dbox waits on slow
// operations with no output of their own (manifest fetches, image pulls).
package ui

import (
	"fmt"
	"io"
	"time"
)

// Progress prints a lightweight ASCII spinner until the returned stop
// function is called. Stop prints [ok] or [failed] according to err.
func Progress(w io.Writer, message string) func(err error) {
	frames := []rune{'|', '/', '-', '\\'}
	done := make(chan struct{})
	go func() {
		defer fmt.Fprintf(w, "\r%s    \r", message)
		ticker := time.NewTicker(120 * time.Millisecond)
		defer ticker.Stop()
		idx := 0
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				fmt.Fprintf(w, "\r%s %c", message, frames[idx])
				idx = (idx + 1) % len(frames)
			}
		}
	}()
	return func(err error) {
		select {
		case <-done:
		default:
			close(done)
		}
		status := "[ok]"
		if err != nil {
			status = "[failed]"
		}
		fmt.Fprintf(w, "\r%s %s\n", message, status)
	}
}
