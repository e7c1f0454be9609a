package logger

import (
	"bytes"
	"strings"
	"testing"
)

func TestWriterLoggerIsPlain(t *testing.T) {
	var buf bytes.Buffer
	l := NewWriter(&buf)
	l.SetFlags(0)

	l.Found("Found a key! %s", "abc")
	l.Warn("backpressure!")

	out := buf.String()
	if strings.Contains(out, "\x1b[") {
		t.Errorf("unexpected colour escapes in %q", out)
	}
	if out != "Found a key! abc\nbackpressure!\n" {
		t.Errorf("unexpected output %q", out)
	}
}
