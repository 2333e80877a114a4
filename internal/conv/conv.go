// Package conv holds the precomputed lookup tables and stateless unit
// conversions shared by every synthesis subsystem: centibel attenuation to
// linear amplitude, cents to Hz, and the handful of SF2 unit conversions
// (timecents, absolute cents, 7-bit controller pairs).
package conv

import "math"

// AttenTableLen is the number of centibel steps covered by attenToAmpTable.
// 1441 entries covers 0..1440 cB inclusive (0..144 dB), matching the
// reference implementation's table.
const AttenTableLen = 1441

// CentTableLen is the number of one-cent steps spanning one octave above
// 6.875 Hz.
const CentTableLen = 1200

var attenToAmpTable [AttenTableLen]float64
var centToHzTable [CentTableLen]float64

func init() {
	// Centibel-to-amplitude-ratio, compatibility factor of 2 baked in: the
	// table is built from i/-200 rather than the SF2-literal i/-100. Callers
	// compensate by scaling generator amounts by 960 cB (rather than the
	// spec-literal 480 cB) wherever the table is consulted. See DESIGN.md for
	// why this divergence is preserved rather than corrected.
	for i := range attenToAmpTable {
		attenToAmpTable[i] = math.Pow(10, float64(i)/-200.0)
	}
	for i := range centToHzTable {
		centToHzTable[i] = 6.875 * math.Exp2(float64(i)/1200.0)
	}
}

// AttenToAmp converts a centibel attenuation amount to a linear amplitude
// ratio via table lookup. Values at or below zero map to full amplitude;
// values at or beyond the table's range map to silence.
func AttenToAmp(cb float64) float64 {
	if cb <= 0 {
		return 1.0
	}
	if cb >= AttenTableLen {
		return 0.0
	}
	return attenToAmpTable[int(cb)]
}

// AmpToNormAtten is the inverse mapping used by the modulator shaping curves:
// -20/96 * log10(amp). Callers keep amp in (0, 1]; no clamping is applied.
func AmpToNormAtten(amp float64) float64 {
	return -20.0 / 96.0 * math.Log10(amp)
}

// KeyToHz converts a (possibly fractional) MIDI key number to frequency in
// Hz, by locating the one-octave bracket containing key*100 cents and
// indexing into centToHzTable, doubling the per-octave multiplier as the
// bracket search climbs.
func KeyToHz(key float64) float64 {
	if key < 0 {
		return 1.0
	}

	offset := 300
	threshold := 900
	ratio := 1.0
	for threshold < 14100 {
		if key*100 < float64(threshold) {
			idx := int(key*100) + offset
			if idx < 0 {
				idx = 0
			}
			if idx >= CentTableLen {
				idx = CentTableLen - 1
			}
			return ratio * centToHzTable[idx]
		}
		threshold += 1200
		offset -= 1200
		ratio *= 2.0
	}
	return 1.0
}

// TimecentToSecond converts an SF2 timecent value to seconds: 2^(tc/1200).
func TimecentToSecond(tc float64) float64 {
	return math.Exp2(tc / 1200.0)
}

// AbsoluteCentToHz converts an SF2 absolute-cent value to Hz, relative to
// 8.176 Hz (the frequency of MIDI key 0): 8.176 * 2^(ac/1200).
func AbsoluteCentToHz(ac float64) float64 {
	return 8.176 * math.Exp2(ac/1200.0)
}

// Join7Bit combines a 7-bit MSB and a 7-bit LSB into a 14-bit value, as used
// for MIDI pitch bend and RPN/NRPN addressing.
func Join7Bit(msb, lsb byte) uint16 {
	return uint16(msb)<<7 | uint16(lsb)
}
