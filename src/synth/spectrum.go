package synth

import (
	"math/cmplx"

	"github.com/maddyblue/go-dsp/fft"
)

const ringSize = 2048 // power of two, multiple of samplesPerCycle

// GetFFT returns the magnitude spectrum of the most recent ringSize output
// samples, oldest first.
func (e *Engine) GetFFT() []float64 {
	snapshot := make([]float64, ringSize)
	e.mu.Lock()
	// ring:     | 4 | 1 | 2 | 3 |
	// offset:       ^
	// snapshot: | 1 | 2 | 3 | 4 |
	offset := int(e.pos % ringSize)
	copy(snapshot, e.ring[offset:])
	copy(snapshot[ringSize-offset:], e.ring[:offset])
	e.mu.Unlock()

	result := fft.FFTReal(snapshot)
	magnitude := make([]float64, ringSize/2)
	for i := range magnitude {
		magnitude[i] = cmplx.Abs(result[i]) * 2 / ringSize
	}
	return magnitude
}
