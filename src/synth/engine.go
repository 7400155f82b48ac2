package synth

import (
	"context"
	"fmt"
	"io"
	"log"
	"sync"

	"github.com/hajimehoshi/oto"
)

const (
	sampleRate      = 44000
	channelNum      = 1
	bitDepthInBytes = 2
	samplesPerCycle = 2048
	maxPolyphony    = 16
)

const bytesPerSample = bitDepthInBytes * channelNum
const bufferSizeInBytes = samplesPerCycle * bytesPerSample // should be >= 4096
const msSamples = sampleRate / 1000
const oscGain = 0.07

const (
	sustainPedal = 64
	allSoundOff  = 120
	bendNeutral  = 64
)

// Engine routes note events into the voice pool and renders every active
// playback into the audio backend. It implements io.Reader; the backend
// pulls sample buffers at its own cadence, independent of event arrival.
type Engine struct {
	settings *Settings

	mu        sync.Mutex
	pool      pool
	playing   map[int]*Voice
	sustained map[int]struct{}
	pos       int64
	ring      []float64 // most recent output, ringSize samples
	mixBuf    []float64

	ctx context.Context
}

var _ io.Reader = (*Engine)(nil)

func NewEngine(settings *Settings) *Engine {
	return &Engine{
		settings:  settings,
		playing:   make(map[int]*Voice),
		sustained: make(map[int]struct{}),
		ring:      make([]float64, ringSize),
		mixBuf:    make([]float64, samplesPerCycle),
		ctx:       context.Background(),
	}
}

// ----- Event routing ----- //

// NoteOn starts a voice for note, or re-triggers the one already bound to
// it. When the pool is exhausted the note is dropped.
func (e *Engine) NoteOn(note int) {
	wave, ampEnv := e.settings.Snapshot()
	e.mu.Lock()
	defer e.mu.Unlock()
	if v, ok := e.playing[note]; ok {
		// restart into the same slot; the new sound queues behind the
		// current one
		e.pool.enqueue(v.slot, newPlayback(v))
		return
	}
	idx, ok := e.pool.allocate()
	if !ok {
		log.Printf("note %d dropped: max polyphony (%d) hit", note, maxPolyphony)
		return
	}
	v := newVoice(noteToFreq(note), wave, ampEnv, idx)
	e.pool.enqueue(idx, newPlayback(v))
	e.playing[note] = v
}

// NoteOff releases the voice bound to note, unless the sustain pedal is
// holding it. The slot stays busy until the release ramp completes.
func (e *Engine) NoteOff(note int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if _, held := e.sustained[note]; held {
		return // deferred until the pedal comes up
	}
	if v, ok := e.playing[note]; ok {
		v.Release()
		delete(e.playing, note)
	}
}

// Control handles control-change events. The sustain pedal defers note-offs
// while down; all-sound-off pauses every slot, which makes them stealable.
func (e *Engine) Control(controller, value int) {
	switch controller {
	case sustainPedal:
		e.mu.Lock()
		defer e.mu.Unlock()
		switch value {
		case 127:
			for note, v := range e.playing {
				if !e.pool.isPaused(v.slot) {
					e.sustained[note] = struct{}{}
				}
			}
		case 0:
			// the registry entries stay until the ramp completes; reap()
			// removes them once their slot falls silent
			for note := range e.sustained {
				if v, ok := e.playing[note]; ok {
					v.Release()
				}
			}
			e.sustained = make(map[int]struct{})
		}
	case allSoundOff:
		e.mu.Lock()
		defer e.mu.Unlock()
		for i := range e.pool.slots {
			e.pool.pause(i)
		}
		e.playing = make(map[int]*Voice)
		e.sustained = make(map[int]struct{})
	default:
		log.Printf("ignoring control change %d=%d", controller, value)
	}
}

// PitchBend recomputes every playing voice's target frequency relative to
// its natural pitch; the glide in the render loop chases it from there.
func (e *Engine) PitchBend(value int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	for note, v := range e.playing {
		v.SetTargetFreq(noteToFreq(note) + float64(value-bendNeutral))
	}
}

// HandleMIDI decodes one raw MIDI message and routes it.
func (e *Engine) HandleMIDI(data []byte) {
	if len(data) < 2 {
		return
	}
	status := data[0]
	switch {
	case status >= 0x90 && status <= 0x9F:
		if len(data) >= 3 && data[2] == 0 {
			// note-on with zero velocity is a note-off
			e.NoteOff(int(data[1]))
			return
		}
		e.NoteOn(int(data[1]))
	case status >= 0x80 && status <= 0x8F:
		e.NoteOff(int(data[1]))
	case status >= 0xB0 && status <= 0xBF:
		if len(data) >= 3 {
			e.Control(int(data[1]), int(data[2]))
		}
	case status >= 0xE0 && status <= 0xEF:
		if len(data) >= 3 {
			e.PitchBend(int(data[2]))
		}
	default:
		log.Printf("unhandled MIDI message % X", data)
	}
}

// ----- Render loop ----- //

func (e *Engine) Read(buf []byte) (int, error) {
	select {
	case <-e.ctx.Done():
		log.Println("Read() interrupted.")
		return 0, io.EOF
	default:
		e.mu.Lock()
		defer e.mu.Unlock()
		numSamples := len(buf) / bytesPerSample
		if numSamples > len(e.mixBuf) {
			numSamples = len(e.mixBuf)
			buf = buf[:numSamples*bytesPerSample]
		}
		out := e.mixBuf[:numSamples]
		e.pool.mix(out)
		writeBuffer(out, buf)
		for i, value := range out {
			e.ring[(e.pos+int64(i))%ringSize] = value
		}
		e.pos += int64(numSamples)
		e.reap()
		return len(buf), nil
	}
}

// reap drops registry entries whose voice finished its release ramp. Runs
// under the engine lock, so a freed slot can never be seen half-released
// by the event side.
func (e *Engine) reap() {
	for note, v := range e.playing {
		if e.pool.slots[v.slot].empty() {
			delete(e.playing, note)
		}
	}
}

func writeBuffer(out []float64, buf []byte) {
	const max = 32767
	for i, value := range out {
		if value > 1 {
			value = 1
		} else if value < -1 {
			value = -1
		}
		b := int16(value * max)
		buf[bytesPerSample*i] = byte(b)
		buf[bytesPerSample*i+1] = byte(b >> 8)
	}
}

// Start opens the audio device and streams samples until ctx is canceled.
func (e *Engine) Start(ctx context.Context) error {
	otoContext, err := oto.NewContext(sampleRate, channelNum, bitDepthInBytes, bufferSizeInBytes)
	if err != nil {
		return fmt.Errorf("failed to open audio device: %w", err)
	}
	defer func() {
		if err := otoContext.Close(); err != nil {
			log.Printf("error while closing audio device: %v", err)
		}
	}()
	p := otoContext.NewPlayer()
	defer func() {
		if err := p.Close(); err != nil {
			log.Printf("error while closing player: %v", err)
		}
	}()
	e.ctx = ctx

	// block until cancel() called
	if _, err := io.CopyBuffer(p, e, make([]byte, bufferSizeInBytes)); err != nil {
		return err
	}
	log.Println("Start() ended.")
	return nil
}
