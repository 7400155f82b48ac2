package synth

import (
	"math"
	"sync/atomic"
)

// Voice is one sounding or releasing note. The render loop owns the
// oscillator and envelope internals; the only state shared with the event
// side is the target frequency and the releasing flag, both atomics, so
// neither side ever holds one lock while taking another.
type Voice struct {
	wave   int
	ampEnv adsrParams
	slot   int

	targetFreq uint64 // math.Float64bits
	releasing  uint32
}

func newVoice(freq float64, wave int, ampEnv adsrParams, slot int) *Voice {
	v := &Voice{wave: wave, ampEnv: ampEnv, slot: slot}
	v.SetTargetFreq(freq)
	return v
}

// SetTargetFreq retunes the voice; the glide in the render loop chases the
// new target from wherever the oscillator currently is.
func (v *Voice) SetTargetFreq(freq float64) {
	atomic.StoreUint64(&v.targetFreq, math.Float64bits(freq))
}

func (v *Voice) TargetFreq() float64 {
	return math.Float64frombits(atomic.LoadUint64(&v.targetFreq))
}

// Release requests the release ramp. It does not stop sound synchronously;
// the render loop observes the flag on its next envelope tick and frees the
// slot once the ramp completes.
func (v *Voice) Release() {
	atomic.StoreUint32(&v.releasing, 1)
}

func (v *Voice) Releasing() bool {
	return atomic.LoadUint32(&v.releasing) == 1
}

// ----- Playback ----- //

// playback is the render-side half of a voice: an oscillator plus an
// amplitude envelope, stepped sample by sample by the slot that owns it.
type playback struct {
	voice     *Voice
	osc       *osc
	env       *envelope
	sinceTick int // samples since the last envelope tick
}

func newPlayback(v *Voice) *playback {
	return &playback{
		voice: v,
		osc:   newOsc(v.wave, v.TargetFreq()),
		env:   newEnvelope(v.ampEnv),
	}
}

// next renders one sample: glide the frequency one unit toward the target,
// advance the envelope at the 1ms cadence, scale the raw oscillator output.
func (pb *playback) next() float64 {
	target := pb.voice.TargetFreq()
	if pb.osc.freq != target {
		if pb.osc.freq > target {
			pb.osc.freq--
		} else {
			pb.osc.freq++
		}
	}
	pb.sinceTick++
	if pb.sinceTick >= msSamples {
		pb.env.advance(pb.sinceTick, pb.voice.Releasing())
		pb.sinceTick = 0
	}
	return pb.osc.next() * pb.env.volume
}

func (pb *playback) done() bool {
	return pb.env.done()
}
