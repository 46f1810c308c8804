package journal

import (
	"bytes"
	"os"
	"strings"
	"testing"
)

func capture(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	SetOutput(&buf)
	SetColored(false)
	t.Cleanup(func() {
		SetOutput(os.Stderr)
		SetColored(true)
		SetLevel(LevelDebug)
	})
	return &buf
}

func TestRecordFormat(t *testing.T) {
	buf := capture(t)

	Message(App, "hello %s", "world")

	line := buf.String()
	if !strings.Contains(line, "I: [app] hello world") {
		t.Errorf("unexpected record %q", line)
	}
}

func TestLevelGate(t *testing.T) {
	buf := capture(t)
	SetLevel(LevelWarning)

	Debug(Render, "dropped")
	Verbose(Render, "dropped")
	Warning(Render, "kept")

	line := buf.String()
	if strings.Contains(line, "dropped") {
		t.Errorf("record below the level leaked: %q", line)
	}
	if !strings.Contains(line, "W: [render] kept") {
		t.Errorf("warning missing from %q", line)
	}
}

func TestColoredRecord(t *testing.T) {
	buf := capture(t)
	SetColored(true)

	Error(Vulkan, "boom")

	line := buf.String()
	if !strings.Contains(line, "\x1b[") {
		t.Errorf("no ANSI styling in %q", line)
	}
	if !strings.Contains(line, "E: [vulkan] boom") {
		t.Errorf("unexpected record %q", line)
	}
}
