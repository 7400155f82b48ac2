package synth

import "sync"

// Which envelope parameter the panel's increment/decrement keys act on.
const (
	paramAttack = iota
	paramDecay
	paramSustain
	paramRelease
)

const (
	envMinMs  = 10
	envMaxMs  = 990
	envStepMs = 10
)

// Settings holds the process-wide waveform and envelope defaults. Each
// voice copies them at note-on; the panel and the command surface mutate
// them at runtime. One mutex guards the whole struct and is never held
// while another lock is taken.
type Settings struct {
	mu          sync.Mutex
	wave        int
	adsr        adsrParams
	activeParam int
}

func NewSettings() *Settings {
	return &Settings{
		wave: waveTriangle,
		adsr: adsrParams{attack: 10, decay: 10, sustain: 1.0, release: 10},
	}
}

// Snapshot returns the waveform and a copy of the envelope defaults, the
// values a voice created right now will carry for its whole life.
func (s *Settings) Snapshot() (int, adsrParams) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.wave, s.adsr
}

func (s *Settings) SetWave(kind int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.wave = kind
}

func (s *Settings) Wave() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.wave
}

func (s *Settings) SetADSR(key string, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.adsr.set(key, value)
}

func (s *Settings) ADSR() adsrParams {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.adsr
}

func (s *Settings) SelectParam(param int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.activeParam = param
}

// Adjust moves the selected envelope duration by diff milliseconds, clamped
// to [envMinMs, envMaxMs]. The sustain level is selectable but has no
// increment semantics, as on the hardware panel.
func (s *Settings) Adjust(diff float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var affected *float64
	switch s.activeParam {
	case paramAttack:
		affected = &s.adsr.attack
	case paramDecay:
		affected = &s.adsr.decay
	case paramRelease:
		affected = &s.adsr.release
	default:
		return
	}
	v := *affected + diff
	if v < envMinMs {
		v = envMinMs
	}
	if v > envMaxMs {
		v = envMaxMs
	}
	*affected = v
}
