// Package midi holds the MIDI constants and short-message encoding the
// synthesizer's channel and transport layers share: status bytes,
// controller numbers, RPNs, and the packed short-message representation
// fed in from a sequencer or live input source.
package midi

import "github.com/kestrelaudio/sfsynth/internal/conv"

// PercussionChannel is the zero-based MIDI channel (channel 10 in 1-based
// terms) GM reserves for percussion.
const PercussionChannel = 9

// PercussionBank is the SF2 bank number reserved for GM percussion presets.
const PercussionBank = 128

// NumControllers is the number of addressable MIDI controller numbers.
const NumControllers = 128

// MaxKey is the highest valid MIDI key number.
const MaxKey = 127

// Standard selects which family of program-change/bank-select semantics a
// synthesizer interprets incoming messages under.
type Standard int

const (
	StandardGM Standard = iota
	StandardGS
	StandardXG
)

// Status is a MIDI channel voice message's status nibble (the high nibble
// of the first status byte, with the channel nibble masked off).
type Status uint8

const (
	StatusNoteOff         Status = 0x80
	StatusNoteOn          Status = 0x90
	StatusKeyPressure     Status = 0xa0
	StatusControlChange   Status = 0xb0
	StatusProgramChange   Status = 0xc0
	StatusChannelPressure Status = 0xd0
	StatusPitchBend       Status = 0xe0
)

// Controller numbers a channel's ControlChange handler treats specially.
const (
	CCBankSelectMSB       = 0
	CCModulation          = 1
	CCDataEntryMSB        = 6
	CCVolume              = 7
	CCPan                 = 10
	CCExpression          = 11
	CCBankSelectLSB       = 32
	CCDataEntryLSB        = 38
	CCSustain             = 64
	CCNRPNLSB             = 98
	CCNRPNMSB             = 99
	CCRPNLSB              = 100
	CCRPNMSB              = 101
	CCAllSoundOff         = 120
	CCResetAllControllers = 121
	CCAllNotesOff         = 123
)

// Registered parameter numbers (RPNs) a channel's data-entry handler
// recognizes.
const (
	RPNPitchBendSensitivity = 0
	RPNFineTuning           = 1
	RPNCoarseTuning         = 2
)

// Bank is a channel's current bank-select state, split into the MSB/LSB
// controller pair a program change resolves against.
type Bank struct {
	MSB, LSB uint8
}

// ShortMessage is a packed 3-byte MIDI channel voice message: status+channel
// in the low byte, then data1, then data2, matching the wire order a short
// message arrives in from a realtime MIDI source.
type ShortMessage uint32

// PackShortMessage builds a ShortMessage from its status, channel, and two
// data bytes. Messages that carry only one data byte (program change,
// channel pressure) should pass 0 for data2.
func PackShortMessage(status Status, channel uint8, data1, data2 byte) ShortMessage {
	return ShortMessage(uint32(byte(status)|(channel&0x0f)) | uint32(data1)<<8 | uint32(data2)<<16)
}

// Status returns the message's status nibble.
func (m ShortMessage) Status() Status { return Status(byte(m) & 0xf0) }

// Channel returns the message's zero-based channel number.
func (m ShortMessage) Channel() uint8 { return byte(m) & 0x0f }

// Data1 returns the message's first data byte.
func (m ShortMessage) Data1() byte { return byte(m >> 8) }

// Data2 returns the message's second data byte.
func (m ShortMessage) Data2() byte { return byte(m >> 16) }

// JoinBits14 combines two 7-bit MIDI data bytes (MSB, LSB) into a 14-bit
// value, as used for pitch bend and RPN/NRPN data-entry values.
func JoinBits14(msb, lsb byte) uint16 {
	return conv.Join7Bit(msb, lsb)
}
