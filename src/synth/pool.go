package synth

// A slot is one playback channel: a queue of pending playbacks plus a
// paused flag settable from outside. Re-triggered notes append to the
// queue and only the head is audible, so a retrigger becomes audible when
// the current sound ends. A paused slot renders silence and is first in
// line for stealing.
type slot struct {
	queue  []*playback
	paused bool
}

func (s *slot) empty() bool {
	return len(s.queue) == 0
}

// pool is the fixed set of playback slots. It is owned by the Engine and
// only ever touched under the engine lock.
type pool struct {
	slots [maxPolyphony]slot
}

// allocate returns the index of a usable slot: any empty slot first, then
// any paused slot, reclaimed by discarding its queued sound. Failure means
// the polyphony ceiling was hit; it is not an error and never blocks.
func (p *pool) allocate() (int, bool) {
	for i := range p.slots {
		if p.slots[i].empty() {
			return i, true
		}
	}
	for i := range p.slots {
		if p.slots[i].paused {
			p.slots[i].queue = nil
			p.slots[i].paused = false
			return i, true
		}
	}
	return 0, false
}

func (p *pool) enqueue(idx int, pb *playback) {
	p.slots[idx].queue = append(p.slots[idx].queue, pb)
}

func (p *pool) pause(idx int) {
	p.slots[idx].paused = true
}

func (p *pool) isPaused(idx int) bool {
	return p.slots[idx].paused
}

// mix adds one sample per active slot head into out and drops playbacks
// whose release ramp has completed.
func (p *pool) mix(out []float64) {
	for i := range out {
		out[i] = 0
	}
	for i := range p.slots {
		s := &p.slots[i]
		if s.paused {
			continue
		}
		for j := range out {
			if len(s.queue) == 0 {
				break
			}
			head := s.queue[0]
			out[j] += head.next() * oscGain
			if head.done() {
				s.queue = s.queue[1:]
			}
		}
	}
}
