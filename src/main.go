package main

import (
	"bufio"
	"context"
	"flag"
	"io"
	"log"
	"net"
	"net/url"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"picosynth/src/synth"
)

var sockFile = flag.String("sock", "/tmp/picosynth.sock", "path of the IPC socket")
var noMidi = flag.Bool("no-midi", false, "run without a MIDI input device")

func main() {
	flag.Parse()
	log.SetFlags(log.Lshortfile)

	ctx := context.Background()
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	settings := synth.NewSettings()
	engine := synth.NewEngine(settings)
	panel := synth.NewPanel(settings, 20*time.Millisecond)
	commandCh := make(chan []string, 256)

	signalCh := make(chan os.Signal, 1)
	signal.Notify(signalCh, os.Interrupt, syscall.SIGTERM)
	defer func() {
		signal.Stop(signalCh)
		cancel()
	}()
	go func() {
		sig := <-signalCh
		log.Printf("Caught signal %s: shutting down...\n", sig)
		cancel()
	}()

	var midiCh <-chan []byte
	if !*noMidi {
		var err error
		midiCh, err = synth.ListenToMidiIn(ctx)
		if err != nil {
			log.Fatalf("error: %v\n", err)
		}
	}

	go synth.ProcessCommands(engine, panel, commandCh)
	defer close(commandCh)

	err := withIPCConnection(ctx, func(conn net.Conn) error {
		g, ctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			return engine.Start(ctx)
		})
		g.Go(func() error {
			return routeMidi(ctx, midiCh, engine)
		})
		g.Go(func() error {
			return receiveCommands(ctx, conn, commandCh)
		})
		g.Go(func() error {
			return sendReports(ctx, conn, engine)
		})
		return g.Wait()
	})
	if err != nil {
		log.Fatalf("error: %v\n", err)
	}
	log.Println("main() ended.")
}

func routeMidi(ctx context.Context, ch <-chan []byte, engine *synth.Engine) error {
	if ch == nil {
		<-ctx.Done()
		return nil
	}
	for {
		select {
		case <-ctx.Done():
			log.Println("routeMidi() interrupted")
			return nil
		case data, ok := <-ch:
			if !ok {
				return nil
			}
			engine.HandleMIDI(data)
		}
	}
}

func withIPCConnection(ctx context.Context, f func(net.Conn) error) error {
	os.Remove(*sockFile)
	listener, err := new(net.ListenConfig).Listen(ctx, "unix", *sockFile)
	if err != nil {
		return err
	}
	defer func() {
		log.Println("Closing IPC...")
		err := listener.Close()
		if err != nil {
			log.Printf("error while closing listener: %v", err)
		}
		os.Remove(*sockFile)
	}()
	log.Printf("start listening...\n")
	conn, err := listener.Accept()
	if err != nil {
		return err
	}
	defer func() {
		err := conn.Close()
		if err != nil {
			log.Printf("error while closing connection: %v", err)
		}
	}()
	return f(conn)
}

func receiveCommands(ctx context.Context, conn net.Conn, commandCh chan<- []string) error {
	reader := bufio.NewReader(conn)
	var line []byte
loop:
	for {
		select {
		case <-ctx.Done():
			log.Println("Connection interrupted")
			break loop
		default:
		}
		next, isPrefix, err := reader.ReadLine()
		if err == io.EOF {
			break loop
		}
		if err != nil {
			return err
		}
		line = append(line, next...)
		if isPrefix {
			continue
		}
		command, err := parseCommand(string(line))
		if err != nil {
			return err
		}
		commandCh <- command
		log.Printf("received: %s\n", string(line))
		line = []byte{}
	}
	log.Println("receiveCommands() ended.")
	return nil
}

func parseCommand(line string) ([]string, error) {
	lineStr := strings.Split(line, " ")
	for i, item := range lineStr {
		escaped, err := url.QueryUnescape(item)
		if err != nil {
			return nil, err
		}
		lineStr[i] = escaped
	}
	return lineStr, nil
}

func sendReports(ctx context.Context, conn net.Conn, engine *synth.Engine) error {
	t := time.NewTicker(time.Second / 60)
	defer t.Stop()
loop:
	for {
		select {
		case <-ctx.Done():
			log.Println("sendReports() interrupted")
			break loop
		case <-t.C:
			result := engine.GetFFT()
			if result == nil {
				continue
			}
			s := "fft"
			for _, value := range result {
				s += " " + strconv.FormatFloat(value, 'f', 6, 64)
			}
			select {
			case <-ctx.Done():
				log.Println("sendReports() interrupted")
				break loop
			default:
				conn.Write([]byte(s + "\n"))
			}
		}
	}
	log.Println("sendReports() ended.")
	return nil
}
