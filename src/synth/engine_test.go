package synth

import (
	"math"
	"testing"
)

func newTestEngine() *Engine {
	return NewEngine(NewSettings())
}

func busySlots(e *Engine) int {
	busy := 0
	for i := range e.pool.slots {
		if !e.pool.slots[i].empty() {
			busy++
		}
	}
	return busy
}

func TestSeventeenNoteOnsDropOne(t *testing.T) {
	e := newTestEngine()
	for note := 30; note < 47; note++ {
		e.NoteOn(note)
	}
	if got := len(e.playing); got != maxPolyphony {
		t.Errorf("got %d live voices, want %d", got, maxPolyphony)
	}
	if got := busySlots(e); got != maxPolyphony {
		t.Errorf("got %d busy slots, want %d", got, maxPolyphony)
	}
}

func TestRetriggerReusesSlot(t *testing.T) {
	e := newTestEngine()
	e.NoteOn(60)
	v := e.playing[60]
	e.NoteOn(60)
	if e.playing[60] != v {
		t.Errorf("retrigger replaced the voice")
	}
	if got := len(e.pool.slots[v.slot].queue); got != 2 {
		t.Errorf("slot queue length = %d, want 2", got)
	}
	if got := busySlots(e); got != 1 {
		t.Errorf("got %d busy slots, want 1", got)
	}
}

func TestNoteOffReleasesAndUnregisters(t *testing.T) {
	e := newTestEngine()
	e.NoteOn(60)
	v := e.playing[60]
	e.NoteOff(60)
	if !v.Releasing() {
		t.Errorf("voice not releasing after note-off")
	}
	if _, ok := e.playing[60]; ok {
		t.Errorf("registry entry kept after note-off")
	}
	if busySlots(e) != 1 {
		t.Errorf("slot freed before the release ramp completed")
	}
}

func TestSustainDefersNoteOff(t *testing.T) {
	e := newTestEngine()
	e.NoteOn(60)
	v := e.playing[60]
	e.Control(sustainPedal, 127)
	e.NoteOff(60)
	if v.Releasing() {
		t.Fatalf("voice released while the sustain pedal was down")
	}
	if _, ok := e.playing[60]; !ok {
		t.Fatalf("registry entry dropped while sustained")
	}
	e.Control(sustainPedal, 0)
	if !v.Releasing() {
		t.Errorf("voice not released when the pedal came up")
	}
	if len(e.sustained) != 0 {
		t.Errorf("sustained set not cleared")
	}
}

func TestSustainOnlyHoldsNotesDownAtEngage(t *testing.T) {
	e := newTestEngine()
	e.NoteOn(60)
	e.Control(sustainPedal, 127)
	e.NoteOn(64)
	later := e.playing[64]
	e.NoteOff(64)
	if !later.Releasing() {
		t.Errorf("note started after engage should not be held")
	}
}

func TestPitchBend(t *testing.T) {
	e := newTestEngine()
	e.NoteOn(69)
	e.NoteOn(81)
	e.PitchBend(bendNeutral)
	if got := e.playing[69].TargetFreq(); math.Abs(got-440) > 1e-9 {
		t.Errorf("neutral bend target for note 69 = %v, want 440", got)
	}
	e.PitchBend(127)
	if got := e.playing[69].TargetFreq(); math.Abs(got-(440+63)) > 1e-9 {
		t.Errorf("full bend target for note 69 = %v, want 503", got)
	}
	if got := e.playing[81].TargetFreq(); math.Abs(got-(880+63)) > 1e-9 {
		t.Errorf("full bend target for note 81 = %v, want 943", got)
	}
}

func TestRenderFreesSlotAfterRelease(t *testing.T) {
	e := newTestEngine()
	e.NoteOn(60)
	v := e.playing[60]
	e.NoteOff(60)
	buf := make([]byte, bufferSizeInBytes)
	for i := 0; i < 10; i++ { // ~0.46s of audio, far beyond the 10ms ramp
		if _, err := e.Read(buf); err != nil {
			t.Fatalf("Read: %v", err)
		}
	}
	if !e.pool.slots[v.slot].empty() {
		t.Errorf("slot still busy after the release ramp")
	}
	if busySlots(e) != 0 {
		t.Errorf("expected an all-idle pool")
	}
}

func TestRenderReapsFinishedVoices(t *testing.T) {
	e := newTestEngine()
	e.NoteOn(60)
	e.Control(sustainPedal, 127)
	e.NoteOff(60)
	e.Control(sustainPedal, 0)
	buf := make([]byte, bufferSizeInBytes)
	for i := 0; i < 10; i++ {
		if _, err := e.Read(buf); err != nil {
			t.Fatalf("Read: %v", err)
		}
	}
	if got := len(e.playing); got != 0 {
		t.Errorf("%d registry entries left after everything went silent", got)
	}
}

func TestAllSoundOffMakesSlotsStealable(t *testing.T) {
	e := newTestEngine()
	for note := 30; note < 30+maxPolyphony; note++ {
		e.NoteOn(note)
	}
	e.Control(allSoundOff, 0)
	if len(e.playing) != 0 {
		t.Fatalf("registry not cleared by all-sound-off")
	}
	e.NoteOn(60)
	if len(e.playing) != 1 {
		t.Errorf("note-on after all-sound-off was dropped")
	}
	v := e.playing[60]
	if e.pool.isPaused(v.slot) {
		t.Errorf("stolen slot still paused")
	}
	if got := len(e.pool.slots[v.slot].queue); got != 1 {
		t.Errorf("stolen slot queue length = %d, want 1", got)
	}
}

func TestHandleMIDIDecodesStatusRanges(t *testing.T) {
	e := newTestEngine()
	e.HandleMIDI([]byte{0x90, 69, 100})
	if _, ok := e.playing[69]; !ok {
		t.Fatalf("note-on not decoded")
	}
	e.HandleMIDI([]byte{0xE0, 0, 127})
	if got := e.playing[69].TargetFreq(); math.Abs(got-(440+63)) > 1e-9 {
		t.Errorf("pitch bend not decoded: target = %v", got)
	}
	e.HandleMIDI([]byte{0x93, 72, 100}) // any channel
	if _, ok := e.playing[72]; !ok {
		t.Errorf("note-on on channel 3 not decoded")
	}
	e.HandleMIDI([]byte{0x90, 72, 0}) // zero velocity
	if _, ok := e.playing[72]; ok {
		t.Errorf("zero-velocity note-on not treated as note-off")
	}
	e.HandleMIDI([]byte{0x80, 69, 0})
	if _, ok := e.playing[69]; ok {
		t.Errorf("note-off not decoded")
	}
	e.HandleMIDI([]byte{0xF8}) // too short, must not panic
}

func TestNoteOnUsesCurrentSettings(t *testing.T) {
	settings := NewSettings()
	e := NewEngine(settings)
	settings.SetWave(waveSaw)
	if err := settings.SetADSR("attack", "200"); err != nil {
		t.Fatal(err)
	}
	e.NoteOn(60)
	v := e.playing[60]
	if v.wave != waveSaw {
		t.Errorf("voice wave = %v, want saw", waveKindName(v.wave))
	}
	if v.ampEnv.attack != 200 {
		t.Errorf("voice attack = %v, want 200", v.ampEnv.attack)
	}
	// later settings changes must not affect an existing voice
	settings.SetWave(waveSine)
	if v.wave != waveSaw {
		t.Errorf("voice wave changed after creation")
	}
}

func TestGetFFTShowsEnergyForActiveNote(t *testing.T) {
	e := newTestEngine()
	e.NoteOn(69)
	buf := make([]byte, bufferSizeInBytes)
	for i := 0; i < 4; i++ {
		if _, err := e.Read(buf); err != nil {
			t.Fatalf("Read: %v", err)
		}
	}
	spectrum := e.GetFFT()
	if len(spectrum) != ringSize/2 {
		t.Fatalf("spectrum length = %d, want %d", len(spectrum), ringSize/2)
	}
	total := 0.0
	for _, m := range spectrum {
		if math.IsNaN(m) {
			t.Fatalf("NaN in spectrum")
		}
		total += m
	}
	if total == 0 {
		t.Errorf("no energy in the spectrum of an active note")
	}
}
