// Package notify carries the user-visible outcome of each operation.
// Exactly one notification is emitted per attempted operation.
package notify

import (
	"fmt"
	"io"
	"sync"
)

// Kind is the outcome of an operation.
type Kind int

const (
	Success Kind = iota
	Failure
)

func (k Kind) String() string {
	if k == Failure {
		return "failure"
	}
	return "success"
}

// Notification is a single toast message.
type Notification struct {
	Kind    Kind
	Message string
}

// Notifier receives notifications. Implementations must be safe for
// concurrent use.
type Notifier interface {
	Notify(n Notification)
}

// Func adapts a function to a Notifier.
type Func func(Notification)

// Notify implements Notifier.
func (f Func) Notify(n Notification) { f(n) }

// Discard drops every notification.
var Discard Notifier = Func(func(Notification) {})

// Succeeded is shorthand for a success notification.
func Succeeded(n Notifier, msg string) {
	n.Notify(Notification{Kind: Success, Message: msg})
}

// Failed is shorthand for a failure notification.
func Failed(n Notifier, msg string) {
	n.Notify(Notification{Kind: Failure, Message: msg})
}

// Writer prints success messages to out and failures to errOut.
// Success messages are suppressed in quiet mode.
type Writer struct {
	mu     sync.Mutex
	out    io.Writer
	errOut io.Writer
	quiet  bool
}

// NewWriter creates a Writer.
func NewWriter(out, errOut io.Writer, quiet bool) *Writer {
	return &Writer{out: out, errOut: errOut, quiet: quiet}
}

// Notify implements Notifier.
func (w *Writer) Notify(n Notification) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if n.Kind == Failure {
		fmt.Fprintf(w.errOut, "error: %s\n", n.Message)
		return
	}
	if !w.quiet {
		fmt.Fprintln(w.out, n.Message)
	}
}
