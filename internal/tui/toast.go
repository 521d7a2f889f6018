package tui

import (
	"sync"

	"lijstje/internal/notify"
)

// toastSink keeps the most recent notification. Operations run in tea.Cmd
// goroutines; the model reads the sink when their result message arrives.
type toastSink struct {
	mu   sync.Mutex
	last notify.Notification
	seq  int
}

func (s *toastSink) Notify(n notify.Notification) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.last = n
	s.seq++
}

// Last returns the latest notification and its sequence number, which is
// zero before the first one.
func (s *toastSink) Last() (notify.Notification, int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.last, s.seq
}
