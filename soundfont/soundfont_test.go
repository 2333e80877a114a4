package soundfont

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// sf2Builder assembles a minimal but structurally valid SF2 byte stream for
// exercising Load's chunk walk and zone-resolution logic directly, without
// depending on a real SoundFont file.
type sf2Builder struct {
	t *testing.T
}

func (b sf2Builder) chunk(id string, body []byte) []byte {
	var c bytes.Buffer
	c.WriteString(id)
	require.NoError(b.t, binary.Write(&c, binary.LittleEndian, uint32(len(body))))
	c.Write(body)
	if len(body)%2 == 1 {
		c.WriteByte(0)
	}
	return c.Bytes()
}

func (b sf2Builder) name20(s string) []byte {
	out := make([]byte, 20)
	copy(out, s)
	return out
}

func (b sf2Builder) put(buf *bytes.Buffer, v any) {
	require.NoError(b.t, binary.Write(buf, binary.LittleEndian, v))
}

// build assembles one preset ("Piano", 0:0) with a global preset zone
// setting pan, over one instrument with two key-ranged local zones (each
// pointing at its own sample), exercising buildZonesFromBags' global-zone
// merge path.
func (b sf2Builder) build() []byte {
	samples := make([]int16, 64)
	for i := range samples {
		samples[i] = int16(i * 500)
	}
	var smplBody bytes.Buffer
	for _, v := range samples {
		b.put(&smplBody, v)
	}

	var sdtaBody bytes.Buffer
	sdtaBody.WriteString("sdta")
	sdtaBody.Write(b.chunk("smpl", smplBody.Bytes()))

	var infoBody bytes.Buffer
	infoBody.WriteString("INFO")
	var ifil bytes.Buffer
	b.put(&ifil, uint16(2))
	b.put(&ifil, uint16(1))
	infoBody.Write(b.chunk("ifil", ifil.Bytes()))
	infoBody.Write(b.chunk("INAM", []byte("TestFont")))

	// phdr: one preset + terminator.
	var phdr bytes.Buffer
	phdr.Write(b.name20("Piano"))
	b.put(&phdr, uint16(0)) // preset
	b.put(&phdr, uint16(0)) // bank
	b.put(&phdr, uint16(0)) // presetBagNdx
	b.put(&phdr, uint32(0))
	b.put(&phdr, uint32(0))
	b.put(&phdr, uint32(0))
	phdr.Write(b.name20("EOP"))
	b.put(&phdr, uint16(0))
	b.put(&phdr, uint16(0))
	b.put(&phdr, uint16(2))
	b.put(&phdr, uint32(0))
	b.put(&phdr, uint32(0))
	b.put(&phdr, uint32(0))

	// pbag: global zone (generators at [0,1)), local zone (generators at [1,2)).
	var pbag bytes.Buffer
	b.put(&pbag, uint16(0))
	b.put(&pbag, uint16(0))
	b.put(&pbag, uint16(1))
	b.put(&pbag, uint16(0))
	b.put(&pbag, uint16(2))
	b.put(&pbag, uint16(0))

	// pgen: global zone sets pan; local zone points at the instrument.
	var pgen bytes.Buffer
	b.put(&pgen, uint16(GenPan))
	b.put(&pgen, uint16(500))
	b.put(&pgen, uint16(GenInstrument))
	b.put(&pgen, uint16(0))

	var pmod bytes.Buffer

	// inst: one instrument + terminator.
	var inst bytes.Buffer
	inst.Write(b.name20("Piano"))
	b.put(&inst, uint16(0))
	inst.Write(b.name20("EOI"))
	b.put(&inst, uint16(2))

	// ibag: two local zones, each two generators (keyRange then sampleID).
	var ibag bytes.Buffer
	b.put(&ibag, uint16(0))
	b.put(&ibag, uint16(0))
	b.put(&ibag, uint16(2))
	b.put(&ibag, uint16(0))
	b.put(&ibag, uint16(4))
	b.put(&ibag, uint16(0))

	packRange := func(lo, hi uint8) uint16 {
		return uint16(lo) | uint16(hi)<<8
	}

	var igen bytes.Buffer
	b.put(&igen, uint16(GenKeyRange))
	b.put(&igen, packRange(0, 59))
	b.put(&igen, uint16(GenSampleID))
	b.put(&igen, uint16(0))
	b.put(&igen, uint16(GenKeyRange))
	b.put(&igen, packRange(60, 127))
	b.put(&igen, uint16(GenSampleID))
	b.put(&igen, uint16(1))

	var imod bytes.Buffer

	var shdr bytes.Buffer
	writeSample := func(name string, start, end, loopStart, loopEnd uint32) {
		shdr.Write(b.name20(name))
		b.put(&shdr, start)
		b.put(&shdr, end)
		b.put(&shdr, loopStart)
		b.put(&shdr, loopEnd)
		b.put(&shdr, uint32(44100))
		b.put(&shdr, uint8(60))
		b.put(&shdr, int8(0))
		b.put(&shdr, uint16(0))
		b.put(&shdr, uint16(0))
	}
	writeSample("Low", 0, 31, 2, 29)
	writeSample("High", 32, 63, 34, 61)
	shdr.Write(b.name20("EOS"))
	b.put(&shdr, uint32(0))
	b.put(&shdr, uint32(0))
	b.put(&shdr, uint32(0))
	b.put(&shdr, uint32(0))
	b.put(&shdr, uint32(0))
	b.put(&shdr, uint8(0))
	b.put(&shdr, int8(0))
	b.put(&shdr, uint16(0))
	b.put(&shdr, uint16(0))

	var pdtaBody bytes.Buffer
	pdtaBody.WriteString("pdta")
	pdtaBody.Write(b.chunk("phdr", phdr.Bytes()))
	pdtaBody.Write(b.chunk("pbag", pbag.Bytes()))
	pdtaBody.Write(b.chunk("pmod", pmod.Bytes()))
	pdtaBody.Write(b.chunk("pgen", pgen.Bytes()))
	pdtaBody.Write(b.chunk("inst", inst.Bytes()))
	pdtaBody.Write(b.chunk("ibag", ibag.Bytes()))
	pdtaBody.Write(b.chunk("imod", imod.Bytes()))
	pdtaBody.Write(b.chunk("igen", igen.Bytes()))
	pdtaBody.Write(b.chunk("shdr", shdr.Bytes()))

	var riffBody bytes.Buffer
	riffBody.WriteString("sfbk")
	riffBody.Write(b.chunk("LIST", infoBody.Bytes()))
	riffBody.Write(b.chunk("LIST", sdtaBody.Bytes()))
	riffBody.Write(b.chunk("LIST", pdtaBody.Bytes()))

	var out bytes.Buffer
	out.Write(b.chunk("RIFF", riffBody.Bytes()))

	return out.Bytes()
}

func TestLoadParsesNameAndCounts(t *testing.T) {
	sf, err := Load(bytes.NewReader(sf2Builder{t}.build()))
	require.NoError(t, err)
	assert.Equal(t, "TestFont", sf.Name)
	require.Len(t, sf.Presets, 1)
	require.Len(t, sf.Instruments, 1)
	require.Len(t, sf.Samples, 2)
}

func TestLoadResolvesGlobalPresetZoneOntoLocalPresetZone(t *testing.T) {
	sf, err := Load(bytes.NewReader(sf2Builder{t}.build()))
	require.NoError(t, err)

	preset := sf.Presets[0]
	require.Len(t, preset.Zones, 1)
	assert.EqualValues(t, 500, preset.Zones[0].Generators.GetOrDefault(GenPan))
	assert.EqualValues(t, 0, preset.Zones[0].Generators.GetOrDefault(GenInstrument))
}

func TestLoadBuildsKeyRangedInstrumentZones(t *testing.T) {
	sf, err := Load(bytes.NewReader(sf2Builder{t}.build()))
	require.NoError(t, err)

	inst := sf.Instruments[0]
	require.Len(t, inst.Zones, 2)
	assert.Equal(t, Range{Lo: 0, Hi: 59}, inst.Zones[0].KeyRange)
	assert.EqualValues(t, 0, inst.Zones[0].Generators.GetOrDefault(GenSampleID))
	assert.Equal(t, Range{Lo: 60, Hi: 127}, inst.Zones[1].KeyRange)
	assert.EqualValues(t, 1, inst.Zones[1].Generators.GetOrDefault(GenSampleID))
}

func TestLoadRejectsBadMagic(t *testing.T) {
	_, err := Load(bytes.NewReader([]byte("not an sf2 file at all")))
	assert.ErrorIs(t, err, ErrBadMagic)
}

func TestLoadRejectsTruncatedStream(t *testing.T) {
	full := sf2Builder{t}.build()
	_, err := Load(bytes.NewReader(full[:len(full)-40]))
	assert.Error(t, err)
}
