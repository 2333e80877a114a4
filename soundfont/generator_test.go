package soundfont

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGetOrDefaultReturnsSF2DefaultWhenUnused(t *testing.T) {
	var g GeneratorSet
	assert.EqualValues(t, 13500, g.GetOrDefault(GenInitialFilterFc))
	assert.EqualValues(t, -1, g.GetOrDefault(GenOverridingRootKey))
	assert.False(t, g.IsUsed(GenInitialFilterFc))
}

func TestSetOverridesDefault(t *testing.T) {
	var g GeneratorSet
	g.Set(GenPan, 250)
	assert.EqualValues(t, 250, g.GetOrDefault(GenPan))
	assert.True(t, g.IsUsed(GenPan))
}

func TestSetOverwritesPreviousValue(t *testing.T) {
	var g GeneratorSet
	g.Set(GenPan, 100)
	g.Set(GenPan, 200)
	assert.EqualValues(t, 200, g.GetOrDefault(GenPan))
}

func TestMergeFillsOnlyUnusedSlots(t *testing.T) {
	var local, global GeneratorSet
	local.Set(GenPan, 100)
	global.Set(GenPan, 999)
	global.Set(GenInitialAttenuation, 50)

	local.Merge(global)

	assert.EqualValues(t, 100, local.GetOrDefault(GenPan))
	assert.EqualValues(t, 50, local.GetOrDefault(GenInitialAttenuation))
}

func TestAddAccumulatesUsedSlots(t *testing.T) {
	var inst, preset GeneratorSet
	inst.Set(GenCoarseTune, 5)
	preset.Set(GenCoarseTune, 2)

	inst.Add(preset)

	assert.EqualValues(t, 7, inst.GetOrDefault(GenCoarseTune))
	assert.True(t, inst.IsUsed(GenCoarseTune))
}

func TestAddMarksUntouchedSlotsUsedOnlyWhenSourceUsed(t *testing.T) {
	var inst, preset GeneratorSet
	preset.Set(GenPan, 10)
	inst.Add(preset)
	assert.True(t, inst.IsUsed(GenPan))
	assert.False(t, inst.IsUsed(GenCoarseTune))
}
