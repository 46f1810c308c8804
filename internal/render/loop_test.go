package render

import (
	"testing"
)

type stubEvent struct {
	step  string
	slot  int
	image uint32
}

// stubBackend records the order of steps and can fail chosen iterations.
type stubBackend struct {
	events []stubEvent

	nextImage     uint32
	acquireStatus map[int]Status // keyed by iteration
	iteration     int
}

func newStubBackend() *stubBackend {
	return &stubBackend{acquireStatus: map[int]Status{}}
}

func (b *stubBackend) WaitFrame(slot int) error {
	b.events = append(b.events, stubEvent{step: "wait", slot: slot})
	return nil
}

func (b *stubBackend) Acquire(slot int) (uint32, Status) {
	image := b.nextImage
	b.nextImage++
	b.events = append(b.events, stubEvent{step: "acquire", slot: slot, image: image})
	if status, ok := b.acquireStatus[b.iteration]; ok {
		return image, status
	}
	return image, StatusOK
}

func (b *stubBackend) Record(slot int, image uint32) error {
	b.events = append(b.events, stubEvent{step: "record", slot: slot, image: image})
	return nil
}

func (b *stubBackend) Submit(slot int, image uint32) Status {
	b.events = append(b.events, stubEvent{step: "submit", slot: slot, image: image})
	return StatusOK
}

func (b *stubBackend) Present(slot int, image uint32) Status {
	b.events = append(b.events, stubEvent{step: "present", slot: slot, image: image})
	b.iteration++
	return StatusOK
}

func (b *stubBackend) steps(name string) []stubEvent {
	var out []stubEvent
	for _, e := range b.events {
		if e.step == name {
			out = append(out, e)
		}
	}
	return out
}

func TestLoopCyclesSlots(t *testing.T) {
	backend := newStubBackend()
	loop := NewLoop(backend, 2)

	for i := 0; i < 5; i++ {
		loop.Iterate()
	}

	waits := backend.steps("wait")
	wantSlots := []int{0, 1, 0, 1, 0}
	if len(waits) != len(wantSlots) {
		t.Fatalf("waits = %d, want %d", len(waits), len(wantSlots))
	}
	for i, w := range waits {
		if w.slot != wantSlots[i] {
			t.Errorf("wait %d on slot %d, want %d", i, w.slot, wantSlots[i])
		}
	}
	if loop.CurrentSlot() != 1 {
		t.Errorf("current slot = %d, want 1", loop.CurrentSlot())
	}
}

func TestLoopWaitsBeforeReuse(t *testing.T) {
	backend := newStubBackend()
	loop := NewLoop(backend, 2)

	for i := 0; i < 6; i++ {
		loop.Iterate()
	}

	// Between two submits on the same slot there must be a wait on it.
	lastSubmit := map[int]int{}
	for i, e := range backend.events {
		if e.step != "submit" {
			continue
		}
		if prev, ok := lastSubmit[e.slot]; ok {
			waited := false
			for _, between := range backend.events[prev:i] {
				if between.step == "wait" && between.slot == e.slot {
					waited = true
					break
				}
			}
			if !waited {
				t.Errorf("slot %d resubmitted at event %d without an intervening wait", e.slot, i)
			}
		}
		lastSubmit[e.slot] = i
	}
}

func TestLoopContinuesAfterAcquireFailure(t *testing.T) {
	backend := newStubBackend()
	backend.acquireStatus[2] = StatusOutOfDate
	loop := NewLoop(backend, 2)

	for i := 0; i < 5; i++ {
		loop.Iterate()
	}

	// The failed iteration still ran its remaining steps and the loop kept
	// advancing, so all five frames presented.
	presents := backend.steps("present")
	if len(presents) != 5 {
		t.Fatalf("presents = %d, want 5", len(presents))
	}
	submits := backend.steps("submit")
	if len(submits) != 5 {
		t.Fatalf("submits = %d, want 5", len(submits))
	}
}

func TestNewLoopClampsFrames(t *testing.T) {
	backend := newStubBackend()
	loop := NewLoop(backend, 0)

	loop.Iterate()
	loop.Iterate()

	for _, e := range backend.events {
		if e.slot != 0 {
			t.Fatalf("slot %d used, want only slot 0", e.slot)
		}
	}
}
