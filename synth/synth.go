// Package synth is the top-level synthesizer: a fixed bank of MIDI
// channels, the loaded SoundFont stack they resolve presets against, and
// the short-message/SysEx entry points a transport layer feeds it from.
package synth

import (
	"errors"
	"fmt"
	"io"
	"math"

	"github.com/kestrelaudio/sfsynth/internal/channel"
	"github.com/kestrelaudio/sfsynth/internal/logging"
	"github.com/kestrelaudio/sfsynth/internal/stereo"
	"github.com/kestrelaudio/sfsynth/midi"
	"github.com/kestrelaudio/sfsynth/soundfont"
)

// ErrPresetNotFound is returned by FindPreset when no loaded SoundFont
// (and no fallback bank) can resolve a bank/program pair.
var ErrPresetNotFound = errors.New("synth: preset not found")

// DefaultNumChannels is the standard 16-channel MIDI port size.
const DefaultNumChannels = 16

// Synthesizer is a multi-channel SF2 renderer: it owns every loaded
// SoundFont and every channel's voice pool, and renders one interleaved
// stereo frame at a time.
type Synthesizer struct {
	channels   []*channel.Channel
	soundFonts []*soundfont.SoundFont
	volume     float64

	midiStandard        midi.Standard
	defaultMIDIStandard midi.Standard
	standardFixed       bool

	defaultPreset           *soundfont.Preset
	defaultPercussionPreset *soundfont.Preset

	log logging.Logger
}

// Option configures a Synthesizer at construction time.
type Option func(*Synthesizer)

// WithMIDIStandard sets the synthesizer's initial MIDI standard (GM/GS/XG)
// and, if fixed is true, prevents incoming SysEx from ever changing it.
func WithMIDIStandard(standard midi.Standard, fixed bool) Option {
	return func(s *Synthesizer) {
		s.midiStandard = standard
		s.defaultMIDIStandard = standard
		s.standardFixed = fixed
	}
}

// WithLogger sets the Logger New/LoadSoundFont report to. Defaults to
// logging.Nop.
func WithLogger(l logging.Logger) Option {
	return func(s *Synthesizer) { s.log = l }
}

// New returns a Synthesizer with numChannels channels, each silent until a
// SoundFont is loaded. outputRate is the sample rate every voice renders
// at. Channel midi.PercussionChannel is marked as the percussion channel.
func New(outputRate float64, numChannels int, opts ...Option) *Synthesizer {
	s := &Synthesizer{
		volume:       1.0,
		midiStandard: midi.StandardGM,
		log:          logging.Nop,
	}
	s.defaultMIDIStandard = s.midiStandard
	for _, opt := range opts {
		opt(s)
	}

	s.channels = make([]*channel.Channel, numChannels)
	for i := range s.channels {
		s.channels[i] = channel.New(outputRate, i == midi.PercussionChannel)
	}
	s.log.Info("synthesizer created", "sampleRate", outputRate, "channels", numChannels)
	return s
}

// LoadSoundFont parses r as an SF2 file and appends it to the
// synthesizer's SoundFont stack. The first SoundFont loaded seeds every
// channel's initial preset (GM Acoustic Grand Piano, or GM Percussion for
// the percussion channel when the font has one; otherwise the percussion
// channel starts with no preset).
func (s *Synthesizer) LoadSoundFont(r io.Reader) error {
	sf, err := soundfont.Load(r)
	if err != nil {
		s.log.Warn("sound font load failed", "error", err)
		return fmt.Errorf("synth: loading sound font: %w", err)
	}
	s.soundFonts = append(s.soundFonts, sf)
	s.log.Info("sound font loaded", "name", sf.Name,
		"presets", len(sf.Presets), "instruments", len(sf.Instruments), "samples", len(sf.Samples))

	if len(s.soundFonts) == 1 {
		var err error
		s.defaultPreset, err = s.FindPreset(0, 0)
		if err != nil {
			return err
		}
		s.defaultPercussionPreset, err = s.FindPreset(soundfont.PercussionBank, 0)
		if err != nil {
			s.log.Warn("no default percussion preset", "error", err)
		}
		s.log.Info("default presets resolved", "preset", s.defaultPreset.Name)
		for i, c := range s.channels {
			if i == midi.PercussionChannel {
				c.SetPreset(s.defaultPercussionPreset)
			} else {
				c.SetPreset(s.defaultPreset)
			}
		}
	}
	return nil
}

// SetVolume sets the synthesizer's master output gain. Negative values
// clamp to zero.
func (s *Synthesizer) SetVolume(volume float64) {
	s.volume = math.Max(0.0, volume)
}

// ProcessShortMessage dispatches a packed 3-byte MIDI channel voice
// message to its channel.
func (s *Synthesizer) ProcessShortMessage(msg midi.ShortMessage) error {
	channelNum := int(msg.Channel())
	if channelNum >= len(s.channels) {
		return fmt.Errorf("synth: channel %d out of range", channelNum)
	}
	c := s.channels[channelNum]

	switch msg.Status() {
	case midi.StatusNoteOff:
		c.NoteOff(msg.Data1())
	case midi.StatusNoteOn:
		if len(s.soundFonts) == 0 {
			return nil
		}
		c.NoteOn(msg.Data1(), msg.Data2(), s.soundFonts[len(s.soundFonts)-1])
	case midi.StatusKeyPressure:
		c.KeyPressure(msg.Data1(), msg.Data2())
	case midi.StatusControlChange:
		c.ControlChange(msg.Data1(), msg.Data2())
	case midi.StatusProgramChange:
		bank := c.Bank()
		var sfBank uint16
		switch s.midiStandard {
		case midi.StandardGM:
			sfBank = 0
		case midi.StandardGS:
			sfBank = uint16(bank.MSB)
		case midi.StandardXG:
			// XG voice-bank MSBs (e.g. SFX at MSB 64) are assumed not to
			// overlap normal voices' bank LSBs.
			if bank.MSB == 127 {
				sfBank = soundfont.PercussionBank
			} else {
				sfBank = uint16(bank.LSB)
			}
		}
		if channelNum == midi.PercussionChannel {
			sfBank = soundfont.PercussionBank
		}
		preset, err := s.FindPreset(sfBank, uint16(msg.Data1()))
		if err != nil {
			return err
		}
		c.SetPreset(preset)
	case midi.StatusChannelPressure:
		c.ChannelPressure(msg.Data1())
	case midi.StatusPitchBend:
		c.PitchBend(midi.JoinBits14(msg.Data2(), msg.Data1()))
	}
	return nil
}

// sysExPattern is a fixed-length SysEx byte sequence matched against
// incoming data, with the device-ID byte at index 2 treated as a
// wildcard.
type sysExPattern []byte

func matchSysEx(data []byte, pattern sysExPattern) bool {
	if len(data) != len(pattern) {
		return false
	}
	for i, want := range pattern {
		if i == 2 {
			continue
		}
		if data[i] != want {
			return false
		}
	}
	return true
}

var (
	gmSystemOn      = sysExPattern{0xf0, 0x7e, 0, 0x09, 0x01, 0xf7}
	gmSystemOff     = sysExPattern{0xf0, 0x7e, 0, 0x09, 0x02, 0xf7}
	gsReset         = sysExPattern{0xf0, 0x41, 0, 0x42, 0x12, 0x00, 0x00, 0x7f, 0x00, 0x41, 0xf7}
	gsSystemModeSet1 = sysExPattern{0xf0, 0x41, 0, 0x42, 0x12, 0x00, 0x00, 0x7f, 0x00, 0x01, 0xf7}
	gsSystemModeSet2 = sysExPattern{0xf0, 0x41, 0, 0x42, 0x12, 0x00, 0x00, 0x7f, 0x01, 0x00, 0xf7}
	xgSystemOn      = sysExPattern{0xf0, 0x43, 0, 0x4c, 0x00, 0x00, 0x7e, 0x00, 0xf7}
)

// ProcessSysEx inspects a raw SysEx message for the GM/GS/XG reset
// patterns and switches the synthesizer's active MIDI standard
// accordingly. No-op if the synthesizer was constructed with a fixed
// standard.
func (s *Synthesizer) ProcessSysEx(data []byte) {
	if s.standardFixed {
		return
	}
	switch {
	case matchSysEx(data, gmSystemOn):
		s.midiStandard = midi.StandardGM
	case matchSysEx(data, gmSystemOff):
		s.midiStandard = s.defaultMIDIStandard
	case matchSysEx(data, gsReset), matchSysEx(data, gsSystemModeSet1), matchSysEx(data, gsSystemModeSet2):
		s.midiStandard = midi.StandardGS
	case matchSysEx(data, xgSystemOn):
		s.midiStandard = midi.StandardXG
	}
}

// Render advances every channel by one sample and returns their summed,
// volume-scaled output.
func (s *Synthesizer) Render() stereo.Value {
	var sum stereo.Value
	for _, c := range s.channels {
		c.Update()
		sum = sum.Add(c.Render())
	}
	return sum.Scale(s.volume)
}

// FindPreset looks up a bank/program pair across every loaded SoundFont,
// in load order, then falls through the GM fallback ladder: the
// percussion bank falls back to the default percussion preset, any other
// missing bank falls back to GM bank 0, and a missing GM bank 0 preset
// falls back to the default (first-loaded) preset.
func (s *Synthesizer) FindPreset(bank, program uint16) (*soundfont.Preset, error) {
	for _, sf := range s.soundFonts {
		for i := range sf.Presets {
			p := &sf.Presets[i]
			if p.Bank == bank && p.Program == program {
				return p, nil
			}
		}
	}

	switch {
	case bank == soundfont.PercussionBank:
		if program != 0 && s.defaultPercussionPreset != nil {
			return s.defaultPercussionPreset, nil
		}
		return nil, fmt.Errorf("%w: 128:0 (GM Percussion)", ErrPresetNotFound)
	case bank != 0:
		return s.FindPreset(0, program)
	case s.defaultPreset != nil:
		return s.defaultPreset, nil
	default:
		return nil, fmt.Errorf("%w: 0:0 (GM Acoustic Grand Piano)", ErrPresetNotFound)
	}
}
