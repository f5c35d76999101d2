package cli

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/log"
)

func TestLoggerFormat(t *testing.T) {
	var buf bytes.Buffer
	newLogger(&buf, log.InfoLevel).Warn("render failed", "mode", "hlil")

	out := buf.String()
	// "15:04:05.00 WARN render failed mode=hlil"
	stamp, rest, ok := strings.Cut(out, " ")
	if !ok || len(stamp) != len("15:04:05.00") || stamp[2] != ':' || stamp[8] != '.' {
		t.Errorf("timestamp = %q in %q", stamp, out)
	}
	if !strings.Contains(rest, "render failed") || !strings.Contains(rest, "mode=hlil") {
		t.Errorf("log line = %q", out)
	}
}

func TestSetLogLevel(t *testing.T) {
	var buf bytes.Buffer
	c := New(&buf, LogInfo)

	c.Logger.Debug("hidden")
	if buf.Len() != 0 {
		t.Fatalf("debug logged at info level: %q", buf.String())
	}

	c.SetLogLevel(LogDebug)
	c.Logger.Debug("shown")
	if !strings.Contains(buf.String(), "shown") {
		t.Errorf("debug not logged after SetLogLevel: %q", buf.String())
	}
}

func TestProgress(t *testing.T) {
	var buf bytes.Buffer
	prog := newProgress(newLogger(&buf, log.DebugLevel))

	time.Sleep(5 * time.Millisecond)
	prog.done("rendered sub")

	out := buf.String()
	if !strings.Contains(out, "rendered sub (") || !strings.Contains(out, "ms)") {
		t.Errorf("progress.done() output = %q", out)
	}
}

func TestProgressQuietAtInfo(t *testing.T) {
	var buf bytes.Buffer
	newProgress(newLogger(&buf, log.InfoLevel)).done("rendered sub")
	if buf.Len() != 0 {
		t.Errorf("progress should log at debug level, got %q", buf.String())
	}
}
