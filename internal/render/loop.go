package render

import (
	"github.com/m1nuz/vulkan-renderer/internal/journal"
)

// Status classifies the outcome of an acquire, submit or present step.
type Status int

const (
	StatusOK Status = iota
	StatusSuboptimal
	StatusOutOfDate
	StatusFailed
)

func (s Status) String() string {
	switch s {
	case StatusOK:
		return "ok"
	case StatusSuboptimal:
		return "suboptimal"
	case StatusOutOfDate:
		return "out of date"
	case StatusFailed:
		return "failed"
	}
	return "unknown"
}

// FrameBackend performs the per-slot steps of one frame. The loop drives it
// in a fixed order and never skips a step, so a slot's fence is always
// re-armed even when an earlier step went wrong.
type FrameBackend interface {
	WaitFrame(slot int) error
	Acquire(slot int) (image uint32, status Status)
	Record(slot int, image uint32) error
	Submit(slot int, image uint32) Status
	Present(slot int, image uint32) Status
}

// Loop cycles a bounded ring of frame slots over a backend. With N slots at
// most N frames are ever in flight.
type Loop struct {
	backend FrameBackend
	frames  int
	current int
}

func NewLoop(backend FrameBackend, frames int) *Loop {
	if frames < 1 {
		frames = 1
	}
	return &Loop{backend: backend, frames: frames}
}

func (l *Loop) CurrentSlot() int {
	return l.current
}

// Iterate runs one frame through the current slot and advances the ring.
// Failures along the way are reported and swallowed; the remaining steps
// still run so the slot stays reusable.
func (l *Loop) Iterate() {
	slot := l.current

	if err := l.backend.WaitFrame(slot); err != nil {
		journal.Error(journal.Render, "problem occurred during frame wait: %v", err)
	}

	image, status := l.backend.Acquire(slot)
	switch status {
	case StatusSuboptimal:
		journal.Warning(journal.Render, "swap chain image acquisition returned a suboptimal image")
	case StatusOutOfDate, StatusFailed:
		journal.Error(journal.Render, "problem occurred during swap chain image acquisition")
	}

	if err := l.backend.Record(slot, image); err != nil {
		journal.Error(journal.Render, "problem occurred during command recording: %v", err)
	}

	switch l.backend.Submit(slot, image) {
	case StatusOutOfDate, StatusFailed:
		journal.Error(journal.Render, "problem occurred during queue submission")
	}

	switch l.backend.Present(slot, image) {
	case StatusSuboptimal:
		journal.Warning(journal.Render, "presentation returned a suboptimal result")
	case StatusOutOfDate, StatusFailed:
		journal.Error(journal.Render, "problem occurred during image presentation")
	}

	l.current = (l.current + 1) % l.frames
}
