package synth

import (
	"math"
	"strconv"
)

// ----- ADSR Params ----- //

type adsrParams struct {
	attack  float64 // ms
	decay   float64 // ms
	sustain float64 // 0-1
	release float64 // ms
}

func (a *adsrParams) set(key string, value string) error {
	switch key {
	case "attack":
		value, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return err
		}
		a.attack = value
	case "decay":
		value, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return err
		}
		a.decay = value
	case "sustain":
		value, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return err
		}
		a.sustain = math.Min(math.Max(value, 0), 1)
	case "release":
		value, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return err
		}
		a.release = value
	}
	return nil
}

// ----- Envelope ----- //

const (
	phaseAttack = iota
	phaseDecay
	phaseSustain
	phaseRelease
	phaseSilent
)

/*
  1 +     x
    |    / \
  s +   /   x------x
    |  /            \
  0 +-+-----+------+--+--
    | a | d |      | r |
*/
// envelope drives a playback's amplitude multiplier. The render loop
// advances it in 1ms batches; step sizes are per sample, so the ramp
// resolution is the sample clock even though updates land at the batch
// cadence.
type envelope struct {
	attackSamples  int
	decaySamples   int
	releaseSamples int
	sustain        float64

	attackStep  float64
	decayStep   float64
	releaseStep float64

	phase      int
	pos        int // samples since note start
	releasePos int // pos at which release was first observed
	volume     float64
}

func newEnvelope(p adsrParams) *envelope {
	attackSamples := durationSamples(p.attack)
	decaySamples := durationSamples(p.decay)
	releaseSamples := durationSamples(p.release)
	return &envelope{
		attackSamples:  attackSamples,
		decaySamples:   decaySamples,
		releaseSamples: releaseSamples,
		sustain:        p.sustain,
		attackStep:     1.0 / float64(attackSamples),
		decayStep:      (1.0 - p.sustain) / float64(decaySamples),
		releaseStep:    p.sustain / float64(releaseSamples),
		phase:          phaseAttack,
	}
}

// durationSamples clamps to one sample so that degenerate ADSR settings
// can never divide by zero.
func durationSamples(ms float64) int {
	n := int(ms * msSamples)
	if n < 1 {
		n = 1
	}
	return n
}

func (e *envelope) advance(n int, releasing bool) {
	for i := 0; i < n; i++ {
		if e.phase == phaseSilent {
			return
		}
		e.stepOne(releasing)
	}
}

func (e *envelope) stepOne(releasing bool) {
	e.pos++
	if releasing && e.phase != phaseRelease {
		// The ramp steps down from whatever amplitude was reached, by the
		// sustain-derived step; releasing mid-attack therefore hits zero
		// early.
		e.phase = phaseRelease
		e.releasePos = e.pos
		return
	}
	switch e.phase {
	case phaseAttack:
		if e.pos < e.attackSamples {
			e.volume += e.attackStep
		} else {
			e.phase = phaseDecay
		}
	case phaseDecay:
		if e.pos-e.attackSamples < e.decaySamples {
			e.volume -= e.decayStep
		} else {
			e.phase = phaseSustain
		}
	case phaseSustain:
		// hold until release is requested
	case phaseRelease:
		if e.pos-e.releasePos < e.releaseSamples {
			e.volume -= e.releaseStep
			if e.volume < 0 {
				e.volume = 0
			}
		} else {
			e.phase = phaseSilent
			e.volume = 0
		}
	}
}

func (e *envelope) done() bool {
	return e.phase == phaseSilent
}
