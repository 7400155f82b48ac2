package synth

import (
	"fmt"
	"log"
	"strconv"
	"time"
)

// ProcessCommands consumes the command channel until it closes. A bad
// command is logged and ignored; nothing on this surface is fatal.
func ProcessCommands(e *Engine, panel *Panel, commandCh <-chan []string) {
	for command := range commandCh {
		if err := apply(e, panel, command); err != nil {
			log.Printf("command %v failed: %v", command, err)
		}
	}
	log.Println("ProcessCommands() ended.")
}

func apply(e *Engine, panel *Panel, command []string) error {
	if len(command) == 0 {
		return fmt.Errorf("empty command")
	}
	switch command[0] {
	case "note_on":
		note, err := parseDataByte(command, 1)
		if err != nil {
			return err
		}
		e.NoteOn(note)
	case "note_off":
		note, err := parseDataByte(command, 1)
		if err != nil {
			return err
		}
		e.NoteOff(note)
	case "control":
		controller, err := parseDataByte(command, 1)
		if err != nil {
			return err
		}
		value, err := parseDataByte(command, 2)
		if err != nil {
			return err
		}
		e.Control(controller, value)
	case "bend":
		value, err := parseDataByte(command, 1)
		if err != nil {
			return err
		}
		e.PitchBend(value)
	case "panel":
		input, err := parseValue(command, 1)
		if err != nil {
			return err
		}
		panel.Trigger(input, time.Now())
	case "set":
		if len(command) < 3 {
			return fmt.Errorf("invalid set command %v", command)
		}
		switch command[1] {
		case "wave":
			kind, err := parseWaveKind(command[2])
			if err != nil {
				return err
			}
			e.settings.SetWave(kind)
		case "adsr":
			if len(command) != 4 {
				return fmt.Errorf("invalid key-value pair %v", command[2:])
			}
			return e.settings.SetADSR(command[2], command[3])
		default:
			return fmt.Errorf("unknown set target %q", command[1])
		}
	default:
		return fmt.Errorf("unknown command %q", command[0])
	}
	return nil
}

func parseValue(command []string, index int) (int, error) {
	if index >= len(command) {
		return 0, fmt.Errorf("command %v: missing argument %d", command, index)
	}
	value, err := strconv.ParseInt(command[index], 10, 32)
	if err != nil {
		return 0, err
	}
	return int(value), nil
}

// parseDataByte reads an argument that stands in for a MIDI data byte.
// Notes, controllers and bend positions all live in 0-127; anything else
// never reaches the engine.
func parseDataByte(command []string, index int) (int, error) {
	value, err := parseValue(command, index)
	if err != nil {
		return 0, err
	}
	if value < 0 || value > 127 {
		return 0, fmt.Errorf("command %v: value %d out of range [0, 127]", command, value)
	}
	return value, nil
}
