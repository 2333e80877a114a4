// Package channel holds one MIDI channel's voice pool and controller state:
// note on/off, control change (including RPN/NRPN data entry), pitch bend,
// and channel pressure, each fanning out to every active voice.
package channel

import (
	"sync"

	"github.com/kestrelaudio/sfsynth/internal/stereo"
	"github.com/kestrelaudio/sfsynth/internal/voice"
	"github.com/kestrelaudio/sfsynth/midi"
	"github.com/kestrelaudio/sfsynth/soundfont"
)

// dataEntryMode selects which registered-parameter namespace a DataEntryMSB
// message is interpreted against.
type dataEntryMode int

const (
	dataEntryRPN dataEntryMode = iota
	dataEntryNRPN
)

// Bank is a channel's current bank-select state.
type Bank struct {
	MSB, LSB uint8
}

// Channel is one MIDI channel: its current preset, controller state, and
// the voices its note-on events have spawned.
type Channel struct {
	outputRate float64
	percussion bool

	preset *soundfont.Preset

	mu                   sync.Mutex
	controllers          [midi.NumControllers]uint8
	dataEntryMode        dataEntryMode
	pitchBend            uint16
	channelPressure      uint8
	keyPressure          [midi.MaxKey + 1]uint8
	pitchBendSensitivity int16
	fineTuning           float64
	coarseTuning         float64
	voices               []*voice.Voice
	currentNoteID        uint64
}

// New returns a Channel ready to receive MIDI events. percussion marks this
// as the channel whose presets are looked up in the GM percussion bank.
func New(outputRate float64, percussion bool) *Channel {
	c := &Channel{
		outputRate:           outputRate,
		percussion:           percussion,
		dataEntryMode:        dataEntryRPN,
		pitchBend:            1 << 13,
		pitchBendSensitivity: 2,
	}
	c.controllers[midi.CCVolume] = 100
	c.controllers[midi.CCPan] = 64
	c.controllers[midi.CCExpression] = 127
	c.controllers[midi.CCRPNLSB] = 127
	c.controllers[midi.CCRPNMSB] = 127
	c.voices = make([]*voice.Voice, 0, 128)
	return c
}

// IsPercussionChannel reports whether this channel is the GM percussion
// channel.
func (c *Channel) IsPercussionChannel() bool { return c.percussion }

// Bank returns the channel's current bank-select state.
func (c *Channel) Bank() Bank {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Bank{MSB: c.controllers[midi.CCBankSelectMSB], LSB: c.controllers[midi.CCBankSelectLSB]}
}

// SetPreset assigns the preset new note-on events resolve against.
func (c *Channel) SetPreset(preset *soundfont.Preset) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.preset = preset
}

// NoteOn starts every preset/instrument zone pairing in range for key and
// velocity as its own voice. A velocity of zero is treated as NoteOff, per
// the MIDI running-status convention.
func (c *Channel) NoteOn(key, velocity uint8, soundFont *soundfont.SoundFont) {
	if velocity == 0 {
		c.NoteOff(key)
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.preset == nil {
		return
	}

	ik, iv := int8(key), int8(velocity)
	for _, presetZone := range c.preset.Zones {
		if !presetZone.InRange(ik, iv) {
			continue
		}
		instID := int(presetZone.Generators.GetOrDefault(soundfont.GenInstrument))
		if instID < 0 || instID >= len(soundFont.Instruments) {
			continue
		}
		inst := soundFont.Instruments[instID]
		for _, instZone := range inst.Zones {
			if !instZone.InRange(ik, iv) {
				continue
			}
			sampleID := int(instZone.Generators.GetOrDefault(soundfont.GenSampleID))
			if sampleID < 0 || sampleID >= len(soundFont.Samples) {
				continue
			}
			sample := soundFont.Samples[sampleID]

			generators := instZone.Generators
			generators.Add(presetZone.Generators)

			modparams := instZone.Modulators
			modparams.MergeAndAdd(presetZone.Modulators)
			modparams.Merge(soundfont.DefaultModulators())

			c.addVoice(voice.New(
				c.currentNoteID, c.outputRate, c.preset.Bank == soundfont.PercussionBank,
				sample, generators, modparams, key, velocity))
		}
	}
	c.currentNoteID++
}

// NoteOff releases every voice currently sounding key. If the sustain
// pedal is down, the voice moves to Sustained rather than Released.
func (c *Channel) NoteOff(key uint8) {
	c.mu.Lock()
	defer c.mu.Unlock()
	sustained := c.controllers[midi.CCSustain] >= 64
	for _, v := range c.voices {
		if v.ActualKey() == key {
			v.Release(sustained)
		}
	}
}

// ControlChange applies a MIDI control change, dispatching RPN/NRPN data
// entry, sustain-pedal release, and the all-sound-off/reset/all-notes-off
// panic messages, and otherwise forwarding the raw value to every voice.
func (c *Channel) ControlChange(controller, value uint8) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.controllers[controller] = value

	switch int(controller) {
	case midi.CCDataEntryMSB:
		if c.dataEntryMode == dataEntryRPN {
			rpn := midi.JoinBits14(c.controllers[midi.CCRPNMSB], c.controllers[midi.CCRPNLSB])
			data := int32(midi.JoinBits14(value, c.controllers[midi.CCDataEntryLSB]))

			switch int(rpn) {
			case midi.RPNPitchBendSensitivity:
				c.pitchBendSensitivity = int16(value)
				for _, v := range c.voices {
					v.UpdateSFController(soundfont.GeneralControllerPitchWheelSensitivity, int16(value))
				}
			case midi.RPNFineTuning:
				c.fineTuning = (float64(data) - 8192) / 81.92
				for _, v := range c.voices {
					v.UpdateFineTuning(c.fineTuning)
				}
			case midi.RPNCoarseTuning:
				c.coarseTuning = float64(int16(value) - 64)
				for _, v := range c.voices {
					v.UpdateCoarseTuning(c.coarseTuning)
				}
			}
		}
	case midi.CCSustain:
		if value < 64 {
			for _, v := range c.voices {
				if v.Status() == voice.Sustained {
					v.Release(false)
				}
			}
		}
	case midi.CCNRPNMSB, midi.CCNRPNLSB:
		c.dataEntryMode = dataEntryNRPN
	case midi.CCRPNMSB, midi.CCRPNLSB:
		c.dataEntryMode = dataEntryRPN
	case midi.CCAllSoundOff:
		c.voices = c.voices[:0]
	case midi.CCResetAllControllers:
		c.resetAllControllers()
	case midi.CCAllNotesOff:
		for _, v := range c.voices {
			v.Release(false)
		}
	default:
		for _, v := range c.voices {
			v.UpdateMIDIController(int(controller), value)
		}
	}
}

// resetAllControllers implements the MIDI "Reset All Controllers" message
// per the General MIDI System Level 1 guidelines' response table: pitch
// bend and channel pressure return to center/zero, most controllers reset
// to zero, a handful reset to full scale, and volume/pan/bank-select/
// all-sound-off are left untouched.
func (c *Channel) resetAllControllers() {
	c.pitchBend = 1 << 13
	c.channelPressure = 0
	for _, v := range c.voices {
		v.UpdateSFController(soundfont.GeneralControllerPitchWheel, int16(c.pitchBend))
		v.UpdateSFController(soundfont.GeneralControllerChannelPressure, int16(c.channelPressure))
	}

	for i := uint8(1); i < 122; i++ {
		if (91 <= i && i <= 95) || (70 <= i && i <= 79) {
			continue
		}
		switch int(i) {
		case midi.CCVolume, midi.CCPan, midi.CCBankSelectLSB, midi.CCAllSoundOff:
		case midi.CCExpression, midi.CCRPNLSB, midi.CCRPNMSB:
			c.controllers[i] = 127
			for _, v := range c.voices {
				v.UpdateMIDIController(int(i), 127)
			}
		default:
			c.controllers[i] = 0
			for _, v := range c.voices {
				v.UpdateMIDIController(int(i), 0)
			}
		}
	}
}

// PitchBend applies a 14-bit pitch bend wheel value to every voice.
func (c *Channel) PitchBend(value uint16) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pitchBend = value
	for _, v := range c.voices {
		v.UpdateSFController(soundfont.GeneralControllerPitchWheel, int16(value))
	}
}

// KeyPressure applies polyphonic (per-key) aftertouch to every voice
// currently sounding key, via the SF2 polyPressure general controller.
func (c *Channel) KeyPressure(key, value uint8) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.keyPressure[key] = value
	for _, v := range c.voices {
		if v.ActualKey() == key {
			v.UpdateSFController(soundfont.GeneralControllerPolyPressure, int16(value))
		}
	}
}

// ChannelPressure applies a channel (monophonic) aftertouch value to every
// voice.
func (c *Channel) ChannelPressure(value uint8) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.channelPressure = value
	for _, v := range c.voices {
		v.UpdateSFController(soundfont.GeneralControllerChannelPressure, int16(value))
	}
}

// Update advances every not-yet-finished voice by one sample.
func (c *Channel) Update() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, v := range c.voices {
		if v.Status() != voice.Finished {
			v.Update()
		}
	}
}

// Render sums one sample frame from every not-yet-finished voice.
func (c *Channel) Render() stereo.Value {
	c.mu.Lock()
	defer c.mu.Unlock()
	var sum stereo.Value
	for _, v := range c.voices {
		if v.Status() != voice.Finished {
			sum = sum.Add(v.Render())
		}
	}
	return sum
}

// addVoice seeds v with the channel's current controller state, chokes any
// other voice sharing its exclusive class, and places it into the first
// finished voice slot (or appends it if none is free). Callers must hold
// c.mu.
func (c *Channel) addVoice(v *voice.Voice) {
	v.UpdateSFController(soundfont.GeneralControllerPitchWheel, int16(c.pitchBend))
	v.UpdateSFController(soundfont.GeneralControllerChannelPressure, int16(c.channelPressure))
	v.UpdateSFController(soundfont.GeneralControllerPolyPressure, int16(c.keyPressure[v.ActualKey()]))
	v.UpdateSFController(soundfont.GeneralControllerPitchWheelSensitivity, c.pitchBendSensitivity)
	v.UpdateFineTuning(c.fineTuning)
	v.UpdateCoarseTuning(c.coarseTuning)
	for i := 0; i < midi.NumControllers; i++ {
		v.UpdateMIDIController(i, c.controllers[i])
	}

	if exclusiveClass := v.ExclusiveClass(); exclusiveClass != 0 {
		for _, other := range c.voices {
			if other.NoteID() != c.currentNoteID && other.ExclusiveClass() == exclusiveClass {
				other.Release(false)
			}
		}
	}

	for i, other := range c.voices {
		if other.Status() == voice.Finished {
			c.voices[i] = v
			return
		}
	}
	c.voices = append(c.voices, v)
}
