package soundfont

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeSourceUnpacksBitfield(t *testing.T) {
	// index=2 (note-on velocity), palette=general(0), direction=decreasing(1),
	// polarity=unipolar(0), type=concave(1): 0b000001_0_1_0000010
	raw := uint16(2) | uint16(0)<<7 | uint16(1)<<8 | uint16(0)<<9 | uint16(1)<<10
	src := DecodeSource(raw)
	assert.Equal(t, 2, src.Index)
	assert.Equal(t, PaletteGeneral, src.Palette)
	assert.Equal(t, DirectionDecreasing, src.Direction)
	assert.Equal(t, PolarityUnipolar, src.Polarity)
	assert.Equal(t, CurveConcave, src.Type)
}

func mkModulator(destAmount int16, destGen Generator) Modulator {
	return Modulator{
		Src:    Source{Index: GeneralControllerNoteOnVelocity, Palette: PaletteGeneral},
		Dest:   destGen,
		Amount: destAmount,
		AmtSrc: Source{Index: GeneralControllerNone, Palette: PaletteGeneral},
	}
}

func TestAppendDiscardsDuplicateIdentity(t *testing.T) {
	var s ModulatorParameterSet
	s.Append(mkModulator(100, GenPan))
	s.Append(mkModulator(200, GenPan))
	require.Len(t, s.Mods(), 1)
	assert.EqualValues(t, 100, s.Mods()[0].Amount)
}

func TestAddOrAppendSumsMatchingIdentity(t *testing.T) {
	var s ModulatorParameterSet
	s.AddOrAppend(mkModulator(100, GenPan))
	s.AddOrAppend(mkModulator(200, GenPan))
	require.Len(t, s.Mods(), 1)
	assert.EqualValues(t, 300, s.Mods()[0].Amount)
}

func TestAddOrAppendAppendsDistinctIdentity(t *testing.T) {
	var s ModulatorParameterSet
	s.AddOrAppend(mkModulator(100, GenPan))
	s.AddOrAppend(mkModulator(200, GenInitialAttenuation))
	assert.Len(t, s.Mods(), 2)
}

func TestMergeAddsOnlyMissingIdentities(t *testing.T) {
	var local, global ModulatorParameterSet
	local.Append(mkModulator(100, GenPan))
	global.Append(mkModulator(999, GenPan))
	global.Append(mkModulator(50, GenInitialAttenuation))

	local.Merge(global)

	require.Len(t, local.Mods(), 2)
	assert.EqualValues(t, 100, local.Mods()[0].Amount)
}

func TestMergeAndAddSumsMatchingIdentities(t *testing.T) {
	var local, global ModulatorParameterSet
	local.Append(mkModulator(100, GenPan))
	global.Append(mkModulator(50, GenPan))

	local.MergeAndAdd(global)

	require.Len(t, local.Mods(), 1)
	assert.EqualValues(t, 150, local.Mods()[0].Amount)
}

func TestDefaultModulatorsHasTenEntries(t *testing.T) {
	assert.Len(t, DefaultModulators().Mods(), 10)
}

func TestDefaultModulatorsIncludesVelocityToAttenuation(t *testing.T) {
	mods := DefaultModulators().Mods()
	found := false
	for _, m := range mods {
		if m.Dest == GenInitialAttenuation && m.Src.Index == GeneralControllerNoteOnVelocity {
			found = true
			assert.EqualValues(t, 960, m.Amount)
		}
	}
	assert.True(t, found)
}
