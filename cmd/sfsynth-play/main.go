// Command sfsynth-play is a minimal host for the synth engine: it loads one
// or more SoundFonts, feeds a small scripted sequence of MIDI events
// through a Synthesizer, and writes the rendered interleaved float32
// stereo frames to stdout (or a file), throttled by internal/rtbuffer to
// stand in for a real audio backend's pull rate.
package main

import (
	"bufio"
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/pflag"

	"github.com/kestrelaudio/sfsynth/internal/config"
	"github.com/kestrelaudio/sfsynth/internal/logging"
	"github.com/kestrelaudio/sfsynth/internal/rtbuffer"
	"github.com/kestrelaudio/sfsynth/midi"
	"github.com/kestrelaudio/sfsynth/synth"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "sfsynth-play:", err)
		os.Exit(1)
	}
}

func run() error {
	var (
		soundFonts []string
		rate       int
		standard   string
		configPath string
		scriptPath string
		outPath    string
	)
	pflag.StringArrayVar(&soundFonts, "soundfont", nil, "path to an SF2 file to preload (repeatable)")
	pflag.IntVar(&rate, "rate", 0, "output sample rate in Hz (overrides --config)")
	pflag.StringVar(&standard, "standard", "", "initial MIDI standard: GM, GS, or XG (overrides --config)")
	pflag.StringVar(&configPath, "config", "", "YAML engine config file")
	pflag.StringVar(&scriptPath, "script", "", "scripted MIDI event file (defaults to stdin)")
	pflag.StringVar(&outPath, "out", "", "output raw float32 stereo file (defaults to stdout)")
	pflag.Parse()

	log := logging.Default()

	cfg := config.Default()
	if configPath != "" {
		var err error
		cfg, err = config.Load(configPath)
		if err != nil {
			return err
		}
	}
	if rate > 0 {
		cfg.SampleRate = rate
	}
	if standard != "" {
		cfg.InitialStandard = standard
	}
	cfg.SoundFonts = append(cfg.SoundFonts, soundFonts...)
	if err := cfg.Validate(); err != nil {
		return err
	}

	midiStandard, err := cfg.Standard()
	if err != nil {
		return err
	}

	s := synth.New(float64(cfg.SampleRate), cfg.Channels,
		synth.WithMIDIStandard(midiStandard, cfg.StandardFixed),
		synth.WithLogger(log))
	s.SetVolume(cfg.MasterVolume)

	for _, path := range cfg.SoundFonts {
		f, err := os.Open(path)
		if err != nil {
			return fmt.Errorf("sfsynth-play: opening %s: %w", path, err)
		}
		err = s.LoadSoundFont(f)
		f.Close()
		if err != nil {
			return err
		}
	}

	script, err := openScript(scriptPath)
	if err != nil {
		return err
	}
	defer script.Close()

	out, err := openOutput(outPath)
	if err != nil {
		return err
	}
	defer out.Close()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	events, err := parseScript(script)
	if err != nil {
		return err
	}
	log.Info("script loaded", "events", len(events))

	player := &scriptPlayer{events: events, sampleDuration: time.Second / time.Duration(cfg.SampleRate), synth: s, log: log}
	ring := rtbuffer.NewRing(cfg.SampleRate)
	pump := rtbuffer.NewPump(ring, float64(cfg.SampleRate), 256, time.Second)

	drained := make(chan error, 1)
	go func() { drained <- drainRing(ctx, ring, out) }()

	err = pump.Run(ctx, player.next)
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return <-drained
}

// scriptEvent is one line of the scripted MIDI source: fire msg after
// delay has elapsed since the previous event.
type scriptEvent struct {
	delay time.Duration
	msg   midi.ShortMessage
}

// parseScript reads "delay-ms note velocity channel on|off" lines.
func parseScript(r io.Reader) ([]scriptEvent, error) {
	var events []scriptEvent
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) != 5 {
			return nil, fmt.Errorf("sfsynth-play: malformed script line %q", line)
		}
		delayMS, err := strconv.Atoi(fields[0])
		if err != nil {
			return nil, fmt.Errorf("sfsynth-play: bad delay in %q: %w", line, err)
		}
		note, err := strconv.Atoi(fields[1])
		if err != nil {
			return nil, fmt.Errorf("sfsynth-play: bad note in %q: %w", line, err)
		}
		velocity, err := strconv.Atoi(fields[2])
		if err != nil {
			return nil, fmt.Errorf("sfsynth-play: bad velocity in %q: %w", line, err)
		}
		channelNum, err := strconv.Atoi(fields[3])
		if err != nil {
			return nil, fmt.Errorf("sfsynth-play: bad channel in %q: %w", line, err)
		}

		status := midi.StatusNoteOn
		switch fields[4] {
		case "on":
			status = midi.StatusNoteOn
		case "off":
			status = midi.StatusNoteOff
		default:
			return nil, fmt.Errorf("sfsynth-play: expected on|off in %q", line)
		}

		events = append(events, scriptEvent{
			delay: time.Duration(delayMS) * time.Millisecond,
			msg:   midi.PackShortMessage(status, uint8(channelNum), byte(note), byte(velocity)),
		})
	}
	return events, scanner.Err()
}

// scriptPlayer feeds parsed events into a Synthesizer as Pump's render
// callback advances sample-by-sample, firing each event once its
// cumulative delay has elapsed in rendered audio time.
type scriptPlayer struct {
	events  []scriptEvent
	index   int
	elapsed time.Duration
	sampleDuration time.Duration
	synth   *synth.Synthesizer
	log     logging.Logger
}

func (p *scriptPlayer) next() (float64, float64) {
	if p.sampleDuration == 0 {
		p.sampleDuration = time.Second / time.Duration(44100)
	}
	for p.index < len(p.events) && p.elapsed >= p.events[p.index].delay {
		ev := p.events[p.index]
		p.log.Debug("dispatching event", "channel", ev.msg.Channel(), "status", ev.msg.Status())
		if err := p.synth.ProcessShortMessage(ev.msg); err != nil {
			p.log.Warn("event dispatch failed", "error", err)
		}
		p.index++
		p.elapsed -= ev.delay
	}
	p.elapsed += p.sampleDuration
	out := p.synth.Render()
	return out.Left, out.Right
}

func openScript(path string) (io.ReadCloser, error) {
	if path == "" {
		return io.NopCloser(os.Stdin), nil
	}
	return os.Open(path)
}

func openOutput(path string) (io.WriteCloser, error) {
	if path == "" {
		return nopWriteCloser{os.Stdout}, nil
	}
	return os.Create(path)
}

type nopWriteCloser struct{ io.Writer }

func (nopWriteCloser) Close() error { return nil }

// drainRing pulls frames out of ring and writes them as little-endian
// interleaved float32 pairs until ctx is canceled.
func drainRing(ctx context.Context, ring *rtbuffer.Ring, w io.Writer) error {
	buf := bufio.NewWriter(w)
	defer buf.Flush()
	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}
		frame, ok := ring.Pop()
		if !ok {
			time.Sleep(time.Millisecond)
			continue
		}
		if err := binary.Write(buf, binary.LittleEndian, float32(frame.Left)); err != nil {
			return err
		}
		if err := binary.Write(buf, binary.LittleEndian, float32(frame.Right)); err != nil {
			return err
		}
	}
}
