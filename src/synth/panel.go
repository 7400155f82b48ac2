package synth

import (
	"log"
	"time"
)

// Panel input ids. The hardware side (which pin, which wire protocol)
// belongs to the collaborator feeding Trigger; these are the logical
// controls it can hit.
const (
	InputWaveSine = iota
	InputWaveTriangle
	InputWaveSquare
	InputWaveSaw
	InputSelectAttack
	InputSelectDecay
	InputSelectSustain
	InputSelectRelease
	InputIncrement
	InputDecrement
	numInputs
)

// Panel turns trigger events into settings mutations. A single dispatcher
// serves every input; re-triggers of one input inside the debounce window
// are dropped. Not safe for concurrent use; feed it from one loop.
type Panel struct {
	settings *Settings
	debounce time.Duration
	lastSeen [numInputs]time.Time
}

func NewPanel(settings *Settings, debounce time.Duration) *Panel {
	return &Panel{settings: settings, debounce: debounce}
}

// Trigger applies the action bound to input. at is the edge timestamp.
func (p *Panel) Trigger(input int, at time.Time) {
	if input < 0 || input >= numInputs {
		log.Printf("unknown panel input %d", input)
		return
	}
	if last := p.lastSeen[input]; !last.IsZero() && at.Sub(last) < p.debounce {
		return
	}
	p.lastSeen[input] = at
	switch input {
	case InputWaveSine:
		p.settings.SetWave(waveSine)
	case InputWaveTriangle:
		p.settings.SetWave(waveTriangle)
	case InputWaveSquare:
		p.settings.SetWave(waveSquare)
	case InputWaveSaw:
		p.settings.SetWave(waveSaw)
	case InputSelectAttack:
		p.settings.SelectParam(paramAttack)
	case InputSelectDecay:
		p.settings.SelectParam(paramDecay)
	case InputSelectSustain:
		p.settings.SelectParam(paramSustain)
	case InputSelectRelease:
		p.settings.SelectParam(paramRelease)
	case InputIncrement:
		p.settings.Adjust(envStepMs)
	case InputDecrement:
		p.settings.Adjust(-envStepMs)
	}
	log.Printf("panel input %d triggered", input)
}
