package synth

import (
	"fmt"
	"math"
)

// ----- Wave Kind ----- //

const (
	waveSine = iota
	waveSquare
	waveSaw
	waveTriangle
)

func parseWaveKind(s string) (int, error) {
	switch s {
	case "sine":
		return waveSine, nil
	case "square":
		return waveSquare, nil
	case "saw":
		return waveSaw, nil
	case "triangle":
		return waveTriangle, nil
	}
	return 0, fmt.Errorf("unknown wave kind %q", s)
}

func waveKindName(kind int) string {
	switch kind {
	case waveSine:
		return "sine"
	case waveSquare:
		return "square"
	case waveSaw:
		return "saw"
	case waveTriangle:
		return "triangle"
	}
	return "unknown"
}

func noteToFreq(note int) float64 {
	return 440.0 * math.Pow(2, float64(note-69)/12)
}

// ----- OSC ----- //

// osc produces one sample in [-1, 1] per next() call. numSample only ever
// grows; freq may change between calls and the next sample uses the new
// value immediately.
type osc struct {
	kind      int
	freq      float64
	numSample int
	state     float64 // last value, keeps saw/triangle continuous across freq changes
}

func newOsc(kind int, freq float64) *osc {
	return &osc{kind: kind, freq: freq}
}

func (o *osc) next() float64 {
	o.numSample++
	period := 1 / o.freq * sampleRate
	if period < 1 {
		// a frequency above the sample rate has no representable cycle
		period = 1
	}
	n := float64(o.numSample)
	switch o.kind {
	case waveSine:
		return math.Sin(2 * math.Pi * o.freq * n / sampleRate)
	case waveSquare:
		if o.numSample%int(period) <= int(period/2) {
			return 1
		}
		return -1
	case waveSaw:
		o.state = 2 * (n/period - math.Floor(0.5+n/period))
	case waveTriangle:
		o.state = 2*math.Abs(2*(n/period-math.Floor(n/period+0.5))) - 1
	}
	return o.state
}
