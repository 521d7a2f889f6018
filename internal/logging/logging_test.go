package logging

import (
	"bytes"
	"strings"
	"testing"
)

func TestNew_Debug(t *testing.T) {
	var buf bytes.Buffer
	log := New(&buf, true)
	log.Debug("resolve session", "err", "no session")

	got := buf.String()
	if !strings.Contains(got, "level=DEBUG") {
		t.Errorf("expected debug level in output, got %q", got)
	}
	if !strings.Contains(got, `msg="resolve session"`) {
		t.Errorf("expected message in output, got %q", got)
	}
}

func TestNew_Discard(t *testing.T) {
	var buf bytes.Buffer
	log := New(&buf, false)
	log.Error("ignored")

	if buf.Len() != 0 {
		t.Errorf("expected no output without debug, got %q", buf.String())
	}
}
