// Package soundfont parses SoundFont2 (SF2) files into the entity graph a
// synthesizer renders from: samples, instruments, presets, and the
// generator/modulator zones that shape how each is played back. Loading is
// the package's only exported entry point; everything else is read-only
// data assembled once at load time.
package soundfont

import (
	"bytes"
	"fmt"
	"io"
	"math"
)

// PercussionBank is the SF2 bank number reserved for GM percussion presets.
const PercussionBank = 128

// Range is an inclusive byte range, used for a zone's key range and
// velocity range. The zero Range contains only 0; zones start from
// defaultRange (0..127).
type Range struct {
	Lo, Hi int8
}

// Contains reports whether value falls within the range.
func (r Range) Contains(value int8) bool {
	return r.Lo <= value && value <= r.Hi
}

func defaultRange() Range { return Range{Lo: 0, Hi: 127} }

// Zone is one preset/instrument zone: a key/velocity range gating when it
// applies, plus the generators and modulators it contributes.
type Zone struct {
	KeyRange      Range
	VelocityRange Range
	Generators    GeneratorSet
	Modulators    ModulatorParameterSet
}

// InRange reports whether the zone applies to the given key and velocity.
func (z Zone) InRange(key, velocity int8) bool {
	return z.KeyRange.Contains(key) && z.VelocityRange.Contains(velocity)
}

// Instrument is a named collection of zones, each typically keyed to one
// sample across a key/velocity range.
type Instrument struct {
	Name  string
	Zones []Zone
}

// Preset is a named, bank/program-addressed collection of zones, each
// typically referencing one Instrument across a key/velocity range.
type Preset struct {
	Name    string
	Bank    uint16
	Program uint16
	Zones   []Zone
}

// Sample is one recorded waveform: a half-open slice [Start, End) into the
// SoundFont's shared sample buffer, a loop region within it, and the pitch
// metadata needed to play it back at an arbitrary key.
type Sample struct {
	Name          string
	Buffer        []int16
	Start         uint32
	End           uint32
	StartLoop     uint32
	EndLoop       uint32
	SampleRate    uint32
	OriginalKey   int8
	Correction    int8
	// MinAttenuation is the normalised attenuation (a fraction of 96 dB,
	// -20/96 * log10(peak/32767)) implied by this sample's loudest frame.
	// Quiet samples (recorded at lower than full-scale level) report a
	// nonzero MinAttenuation so a voice can be told it need not apply
	// additional headroom to avoid clipping.
	MinAttenuation float64
}

// SoundFont is a fully parsed SF2 file: every sample, instrument, and
// preset it defines.
type SoundFont struct {
	Name        string
	Samples     []Sample
	Instruments []Instrument
	Presets     []Preset
}

func fourCC(h chunkHeader) string { return string(h.ID[:]) }

// Load parses an SF2 file read from r into a SoundFont.
func Load(r io.Reader) (*SoundFont, error) {
	riff, err := readChunkHeader(r)
	if err != nil {
		return nil, fmt.Errorf("soundfont: reading RIFF header: %w", err)
	}
	if !riff.is("RIFF") {
		return nil, ErrBadMagic
	}

	var riffType [4]byte
	if _, err := io.ReadFull(r, riffType[:]); err != nil {
		return nil, fmt.Errorf("soundfont: reading RIFF type: %w", err)
	}
	if string(riffType[:]) != "sfbk" {
		return nil, ErrBadMagic
	}

	sf := &SoundFont{}
	var sampleBuffer []int16
	var pdta pdtaChunks

	remaining := int64(riff.Size) - 4
	for remaining > 0 {
		h, err := readChunkHeader(r)
		if err != nil {
			return nil, fmt.Errorf("soundfont: reading chunk header: %w", err)
		}
		remaining -= 8 + int64(h.Size)

		if !h.is("LIST") {
			if _, err := io.CopyN(io.Discard, r, int64(h.Size)); err != nil {
				return nil, fmt.Errorf("%w: %v", ErrTruncated, err)
			}
			continue
		}

		var listType [4]byte
		if _, err := io.ReadFull(r, listType[:]); err != nil {
			return nil, fmt.Errorf("soundfont: reading LIST type: %w", err)
		}
		body := limited(r, h.Size-4)

		switch string(listType[:]) {
		case "INFO":
			if err := readInfoChunk(body, &sf.Name); err != nil {
				return nil, err
			}
		case "sdta":
			var err error
			sampleBuffer, err = readSdtaChunk(body)
			if err != nil {
				return nil, err
			}
		case "pdta":
			var err error
			pdta, err = readPdtaChunk(body)
			if err != nil {
				return nil, err
			}
		default:
			if _, err := io.Copy(io.Discard, body); err != nil {
				return nil, fmt.Errorf("%w: %v", ErrTruncated, err)
			}
		}
	}

	if err := pdta.validate(); err != nil {
		return nil, err
	}

	sf.Instruments = buildInstruments(pdta)
	sf.Presets = buildPresets(pdta)
	sf.Samples = buildSamples(pdta.shdr, sampleBuffer)

	return sf, nil
}

func readInfoChunk(r io.Reader, name *string) error {
	for {
		h, err := readChunkHeader(r)
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("soundfont: reading INFO sub-chunk: %w", err)
		}
		switch fourCC(h) {
		case "ifil":
			var ver rawVersionTag
			if err := readBinary(r, &ver); err != nil {
				return fmt.Errorf("soundfont: reading ifil: %w", err)
			}
			if ver.Major > 2 || (ver.Major == 2 && ver.Minor > 4) {
				return ErrUnsupportedVersion
			}
		case "INAM":
			buf := make([]byte, h.Size)
			if _, err := io.ReadFull(r, buf); err != nil {
				return fmt.Errorf("soundfont: reading INAM: %w", err)
			}
			*name = achToString(padTo20(buf))
		default:
			if _, err := io.CopyN(io.Discard, r, int64(h.Size)); err != nil {
				return fmt.Errorf("%w: %v", ErrTruncated, err)
			}
		}
	}
}

func padTo20(buf []byte) [20]byte {
	var out [20]byte
	copy(out[:], buf)
	return out
}

func readSdtaChunk(r io.Reader) ([]int16, error) {
	for {
		h, err := readChunkHeader(r)
		if err == io.EOF {
			return nil, nil
		}
		if err != nil {
			return nil, fmt.Errorf("soundfont: reading sdta sub-chunk: %w", err)
		}
		if fourCC(h) != "smpl" {
			if _, err := io.CopyN(io.Discard, r, int64(h.Size)); err != nil {
				return nil, fmt.Errorf("%w: %v", ErrTruncated, err)
			}
			continue
		}
		raw := make([]byte, h.Size)
		if _, err := io.ReadFull(r, raw); err != nil {
			return nil, fmt.Errorf("soundfont: reading smpl: %w", err)
		}
		samples := make([]int16, len(raw)/2)
		if err := readBinarySlice(bytes.NewReader(raw), samples); err != nil {
			return nil, fmt.Errorf("soundfont: decoding smpl: %w", err)
		}
		return samples, nil
	}
}

// pdtaChunks holds every pdta sub-chunk's raw records, decoded but not yet
// assembled into the public Instrument/Preset/Sample graph.
type pdtaChunks struct {
	phdr []rawPresetHeader
	pbag []rawBag
	pmod []rawModList
	pgen []rawGenList
	inst []rawInst
	ibag []rawBag
	imod []rawModList
	igen []rawGenList
	shdr []rawSample
}

func (p pdtaChunks) validate() error {
	switch {
	case len(p.phdr) < 1:
		return fmt.Errorf("%w: phdr", ErrMissingChunk)
	case len(p.pbag) < 1:
		return fmt.Errorf("%w: pbag", ErrMissingChunk)
	case len(p.pgen) < 1:
		return fmt.Errorf("%w: pgen", ErrMissingChunk)
	case len(p.inst) < 1:
		return fmt.Errorf("%w: inst", ErrMissingChunk)
	case len(p.ibag) < 1:
		return fmt.Errorf("%w: ibag", ErrMissingChunk)
	case len(p.igen) < 1:
		return fmt.Errorf("%w: igen", ErrMissingChunk)
	case len(p.shdr) < 1:
		return fmt.Errorf("%w: shdr", ErrMissingChunk)
	}
	return nil
}

func readPdtaChunk(r io.Reader) (pdtaChunks, error) {
	var p pdtaChunks
	for {
		h, err := readChunkHeader(r)
		if err == io.EOF {
			return p, nil
		}
		if err != nil {
			return p, fmt.Errorf("soundfont: reading pdta sub-chunk: %w", err)
		}
		var parseErr error
		switch fourCC(h) {
		case "phdr":
			p.phdr, parseErr = readRecordList[rawPresetHeader](r, h.Size, presetHeaderSize)
		case "pbag":
			p.pbag, parseErr = readRecordList[rawBag](r, h.Size, bagSize)
		case "pmod":
			p.pmod, parseErr = readModList(r, h.Size)
		case "pgen":
			p.pgen, parseErr = readRecordList[rawGenList](r, h.Size, genListSize)
		case "inst":
			p.inst, parseErr = readRecordList[rawInst](r, h.Size, instSize)
		case "ibag":
			p.ibag, parseErr = readRecordList[rawBag](r, h.Size, bagSize)
		case "imod":
			p.imod, parseErr = readModList(r, h.Size)
		case "igen":
			p.igen, parseErr = readRecordList[rawGenList](r, h.Size, genListSize)
		case "shdr":
			p.shdr, parseErr = readRecordList[rawSample](r, h.Size, sampleHeaderSize)
		default:
			_, parseErr = io.CopyN(io.Discard, r, int64(h.Size))
		}
		if parseErr != nil {
			return p, parseErr
		}
	}
}

// buildZonesFromBags resolves a bag range [bagBegin, bagEnd) against the
// owning generator/modulator lists into zones, merging a leading global
// zone's generators/modulators into every local zone it found. indexGen is
// the generator whose presence marks a bag as a local zone rather than the
// (at most one) leading global zone: GenInstrument for preset zones,
// GenSampleID for instrument zones.
func buildZonesFromBags(bags []rawBag, gens []rawGenList, mods []rawModList, indexGen Generator) []Zone {
	var zones []Zone
	var global Zone
	hasGlobal := false

	for i := 0; i+1 < len(bags); i++ {
		zone := Zone{KeyRange: defaultRange(), VelocityRange: defaultRange()}

		genBegin, genEnd := int(bags[i].GenNdx), int(bags[i+1].GenNdx)
		lastGen := Generator(0)
		hasLastGen := false
		for _, g := range gens[genBegin:genEnd] {
			gen := Generator(g.Oper)
			lastGen, hasLastGen = gen, true
			switch gen {
			case GenKeyRange:
				lo, hi := genRange(g.Amount)
				zone.KeyRange = Range{Lo: lo, Hi: hi}
			case GenVelRange:
				lo, hi := genRange(g.Amount)
				zone.VelocityRange = Range{Lo: lo, Hi: hi}
			default:
				zone.Generators.Set(gen, int16(g.Amount))
			}
		}

		modBegin, modEnd := int(bags[i].ModNdx), int(bags[i+1].ModNdx)
		for _, m := range mods[modBegin:modEnd] {
			zone.Modulators.Append(decodeModList(m))
		}

		isLocalZone := hasLastGen && lastGen == indexGen
		if isLocalZone {
			zones = append(zones, zone)
		} else if i == 0 && (genBegin != genEnd || modBegin != modEnd) {
			global = zone
			hasGlobal = true
		}
	}

	if hasGlobal {
		for i := range zones {
			zones[i].Generators.Merge(global.Generators)
			zones[i].Modulators.Merge(global.Modulators)
		}
	}
	return zones
}

func decodeModList(m rawModList) Modulator {
	return Modulator{
		Src:       DecodeSource(m.SrcOper),
		Dest:      Generator(m.DestOper),
		Amount:    m.Amount,
		AmtSrc:    DecodeSource(m.AmtSrcOper),
		Transform: TransformType(m.TransOper),
	}
}

func buildInstruments(p pdtaChunks) []Instrument {
	if len(p.inst) < 1 {
		return nil
	}
	out := make([]Instrument, 0, len(p.inst)-1)
	for i := 0; i+1 < len(p.inst); i++ {
		bagBegin, bagEnd := int(p.inst[i].InstBagNdx), int(p.inst[i+1].InstBagNdx)
		out = append(out, Instrument{
			Name:  achToString(p.inst[i].Name),
			Zones: buildZonesFromBags(p.ibag[bagBegin:bagEnd+1], p.igen, p.imod, GenSampleID),
		})
	}
	return out
}

func buildPresets(p pdtaChunks) []Preset {
	if len(p.phdr) < 1 {
		return nil
	}
	out := make([]Preset, 0, len(p.phdr)-1)
	for i := 0; i+1 < len(p.phdr); i++ {
		bagBegin, bagEnd := int(p.phdr[i].PresetBagNdx), int(p.phdr[i+1].PresetBagNdx)
		out = append(out, Preset{
			Name:    achToString(p.phdr[i].Name),
			Bank:    p.phdr[i].Bank,
			Program: p.phdr[i].Preset,
			Zones:   buildZonesFromBags(p.pbag[bagBegin:bagEnd+1], p.pgen, p.pmod, GenInstrument),
		})
	}
	return out
}

func buildSamples(shdr []rawSample, buffer []int16) []Sample {
	if len(shdr) < 1 {
		return nil
	}
	out := make([]Sample, 0, len(shdr)-1)
	for i := 0; i+1 < len(shdr); i++ {
		s := shdr[i]
		sample := Sample{
			Name:        achToString(s.Name),
			Buffer:      buffer,
			Start:       s.Start,
			End:         s.End,
			StartLoop:   s.StartLoop,
			EndLoop:     s.EndLoop,
			SampleRate:  s.SampleRate,
			OriginalKey: s.OriginalKey,
			Correction:  s.Correction,
		}
		sample.MinAttenuation = sampleMinAttenuation(buffer, s.Start, s.End)
		out = append(out, sample)
	}
	return out
}

// sampleMinAttenuation computes the normalised attenuation (a fraction of
// 96 dB) implied by the loudest frame in buffer[start:end]. A sample recorded below full scale reports a nonzero
// value here so playback can skip applying extra headroom it doesn't need.
func sampleMinAttenuation(buffer []int16, start, end uint32) float64 {
	if end > uint32(len(buffer)) {
		end = uint32(len(buffer))
	}
	peak := 0
	for i := start; i < end; i++ {
		if v := int(buffer[i]); v < 0 {
			v = -v
			if v > peak {
				peak = v
			}
		} else if v > peak {
			peak = v
		}
	}
	if peak == 0 {
		return 0
	}
	return -2.0 / 9.6 * math.Log10(float64(peak)/float64(math.MaxInt16))
}
