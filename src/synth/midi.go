package synth

import (
	"context"
	"fmt"
	"log"

	"gitlab.com/gomidi/rtmididrv"
)

// ListenToMidiIn opens the first available MIDI IN port and forwards raw
// messages on the returned channel until ctx is canceled. Having no port to
// read from is fatal: the synth would be deaf.
func ListenToMidiIn(ctx context.Context) (<-chan []byte, error) {
	drv, err := rtmididrv.New()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize MIDI driver: %w", err)
	}
	ins, err := drv.Ins()
	if err != nil {
		drv.Close()
		return nil, fmt.Errorf("failed to get MIDI IN: %w", err)
	}
	log.Printf("MIDI IN: %v\n", ins)
	if len(ins) == 0 {
		drv.Close()
		return nil, fmt.Errorf("no MIDI IN port found")
	}
	in := ins[0]
	if err := in.Open(); err != nil {
		drv.Close()
		return nil, fmt.Errorf("failed to open MIDI IN: %w", err)
	}
	log.Println("opened " + in.String())

	ch := make(chan []byte, 65536)
	if err := in.SetListener(func(data []byte, deltaMicroseconds int64) {
		ch <- data
	}); err != nil {
		in.Close()
		drv.Close()
		return nil, fmt.Errorf("failed to set listener: %w", err)
	}
	log.Println("start listening MIDI IN...")
	go func() {
		<-ctx.Done()
		log.Println("stop listening MIDI IN...")
		if err := in.StopListening(); err != nil {
			log.Printf("failed to stop listening: %v", err)
		}
		if err := in.Close(); err != nil {
			log.Printf("failed to close MIDI IN: %v", err)
		}
		if err := drv.Close(); err != nil {
			log.Printf("failed to close MIDI driver: %v", err)
		}
		close(ch)
	}()
	return ch, nil
}
