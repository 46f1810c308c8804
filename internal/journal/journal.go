// Package journal is the structured console logger used by every subsystem.
// Lines carry a timestamp, a single-letter level and a subsystem tag:
//
//	2006/01/02 15:04:05 E: [vulkan] could not create swap chain
package journal

import (
	"fmt"
	"io"
	"log"
	"os"
)

// Tag names the subsystem a record originates from.
type Tag string

const (
	App     Tag = "app"
	Storage Tag = "storage"
	Render  Tag = "render"
	Vulkan  Tag = "vulkan"
	Window  Tag = "window"
)

type Level int

const (
	LevelCritical Level = iota
	LevelError
	LevelWarning
	LevelMessage
	LevelDebug
	LevelVerbose
)

const (
	styleReset    = "\x1b[0m"
	styleCritical = "\x1b[41;1m"
	styleError    = "\x1b[91m"
	styleWarning  = "\x1b[93m"
	styleMessage  = "\x1b[97m"
	styleDebug    = "\x1b[36m"
	styleVerbose  = "\x1b[34m"
)

var levelMarks = [...]struct {
	letter string
	style  string
}{
	LevelCritical: {"C", styleCritical},
	LevelError:    {"E", styleError},
	LevelWarning:  {"W", styleWarning},
	LevelMessage:  {"I", styleMessage},
	LevelDebug:    {"D", styleDebug},
	LevelVerbose:  {"V", styleVerbose},
}

var (
	minLevel = LevelDebug
	colored  = true
	out      = log.New(os.Stderr, "", log.Ldate|log.Ltime)
)

// SetLevel drops records below the given level.
func SetLevel(l Level) {
	minLevel = l
}

// SetOutput redirects the journal, primarily for tests.
func SetOutput(w io.Writer) {
	out.SetOutput(w)
}

// SetColored toggles ANSI styling of records.
func SetColored(enabled bool) {
	colored = enabled
}

func emit(l Level, tag Tag, format string, args ...interface{}) {
	if l > minLevel {
		return
	}
	m := levelMarks[l]
	text := fmt.Sprintf(format, args...)
	if colored {
		out.Printf("%s%s: [%s] %s%s", m.style, m.letter, tag, text, styleReset)
		return
	}
	out.Printf("%s: [%s] %s", m.letter, tag, text)
}

func Critical(tag Tag, format string, args ...interface{}) {
	emit(LevelCritical, tag, format, args...)
}

func Error(tag Tag, format string, args ...interface{}) {
	emit(LevelError, tag, format, args...)
}

func Warning(tag Tag, format string, args ...interface{}) {
	emit(LevelWarning, tag, format, args...)
}

func Message(tag Tag, format string, args ...interface{}) {
	emit(LevelMessage, tag, format, args...)
}

func Debug(tag Tag, format string, args ...interface{}) {
	emit(LevelDebug, tag, format, args...)
}

func Verbose(tag Tag, format string, args ...interface{}) {
	emit(LevelVerbose, tag, format, args...)
}
