package soundfont

// Generator identifies one of the SF2 synthesis parameters a zone can set.
// Values match the SF2 spec's sfGenOper enumeration exactly so that raw
// values read from a pgen/igen chunk can be cast directly.
type Generator uint16

// The well-known SF2 generators. Gaps (14, 18-20, 42, 49, 55) are reserved
// in the format and never set by a conforming file; NumGenerators sizes the
// GeneratorSet array to include them so index-by-Generator stays direct.
const (
	GenStartAddrsOffset             Generator = 0
	GenEndAddrsOffset                Generator = 1
	GenStartloopAddrsOffset          Generator = 2
	GenEndloopAddrsOffset            Generator = 3
	GenStartAddrsCoarseOffset        Generator = 4
	GenModLfoToPitch                 Generator = 5
	GenVibLfoToPitch                 Generator = 6
	GenModEnvToPitch                 Generator = 7
	GenInitialFilterFc               Generator = 8
	GenInitialFilterQ                Generator = 9
	GenModLfoToFilterFc              Generator = 10
	GenModEnvToFilterFc              Generator = 11
	GenEndAddrsCoarseOffset          Generator = 12
	GenModLfoToVolume                Generator = 13
	GenChorusEffectsSend             Generator = 15
	GenReverbEffectsSend             Generator = 16
	GenPan                           Generator = 17
	GenDelayModLFO                   Generator = 21
	GenFreqModLFO                    Generator = 22
	GenDelayVibLFO                   Generator = 23
	GenFreqVibLFO                    Generator = 24
	GenDelayModEnv                   Generator = 25
	GenAttackModEnv                  Generator = 26
	GenHoldModEnv                    Generator = 27
	GenDecayModEnv                   Generator = 28
	GenSustainModEnv                 Generator = 29
	GenReleaseModEnv                 Generator = 30
	GenKeynumToModEnvHold            Generator = 31
	GenKeynumToModEnvDecay           Generator = 32
	GenDelayVolEnv                   Generator = 33
	GenAttackVolEnv                  Generator = 34
	GenHoldVolEnv                    Generator = 35
	GenDecayVolEnv                   Generator = 36
	GenSustainVolEnv                 Generator = 37
	GenReleaseVolEnv                 Generator = 38
	GenKeynumToVolEnvHold            Generator = 39
	GenKeynumToVolEnvDecay           Generator = 40
	GenInstrument                    Generator = 41
	GenKeyRange                      Generator = 43
	GenVelRange                      Generator = 44
	GenStartloopAddrsCoarseOffset    Generator = 45
	GenKeynum                        Generator = 46
	GenVelocity                      Generator = 47
	GenInitialAttenuation            Generator = 48
	GenEndloopAddrsCoarseOffset      Generator = 50
	GenCoarseTune                    Generator = 51
	GenFineTune                      Generator = 52
	GenSampleID                      Generator = 53
	GenSampleModes                   Generator = 54
	GenScaleTuning                   Generator = 56
	GenExclusiveClass                Generator = 57
	GenOverridingRootKey             Generator = 58
	GenPitch                         Generator = 59
	GenEndOper                       Generator = 60
)

// NumGenerators sizes the GeneratorSet array: indices 0..59 are addressable,
// including the seven reserved slots that a conforming SF2 never sets.
const NumGenerators = int(GenEndOper)

// defaultGeneratorAmounts holds the SF2-mandated default amount for every
// generator slot, indexed by Generator. Transcribed from the reference
// implementation's DEFAULT_GENERATOR_VALUES table; see DESIGN.md.
var defaultGeneratorAmounts = [NumGenerators]int16{
	0,      // startAddrsOffset
	0,      // endAddrsOffset
	0,      // startloopAddrsOffset
	0,      // endloopAddrsOffset
	0,      // startAddrsCoarseOffset
	0,      // modLfoToPitch
	0,      // vibLfoToPitch
	0,      // modEnvToPitch
	13500,  // initialFilterFc
	0,      // initialFilterQ
	0,      // modLfoToFilterFc
	0,      // modEnvToFilterFc
	0,      // endAddrsCoarseOffset
	0,      // modLfoToVolume
	0,      // reserved
	0,      // chorusEffectsSend
	0,      // reverbEffectsSend
	0,      // pan
	0,      // reserved
	0,      // reserved
	0,      // reserved
	-12000, // delayModLFO
	0,      // freqModLFO
	-12000, // delayVibLFO
	0,      // freqVibLFO
	-12000, // delayModEnv
	-12000, // attackModEnv
	-12000, // holdModEnv
	-12000, // decayModEnv
	0,      // sustainModEnv
	-12000, // releaseModEnv
	0,      // keynumToModEnvHold
	0,      // keynumToModEnvDecay
	-12000, // delayVolEnv
	-12000, // attackVolEnv
	-12000, // holdVolEnv
	-12000, // decayVolEnv
	0,      // sustainVolEnv
	-12000, // releaseVolEnv
	0,      // keynumToVolEnvHold
	0,      // keynumToVolEnvDecay
	0,      // instrument
	0,      // reserved
	0,      // keyRange, N/A
	0,      // velRange, N/A
	0,      // startloopAddrsCoarseOffset
	-1,     // keynum
	-1,     // velocity
	0,      // initialAttenuation
	0,      // reserved
	0,      // endloopAddrsCoarseOffset
	0,      // coarseTune
	0,      // fineTune
	0,      // sampleID
	0,      // sampleModes
	0,      // reserved
	100,    // scaleTuning
	0,      // exclusiveClass
	-1,     // overridingRootKey
	0,      // pitch
}

// generatorSlot holds one generator's resolved state: whether a zone set it
// explicitly, and its amount (the SF2 default if unused).
type generatorSlot struct {
	used   bool
	amount int16
}

// GeneratorSet is a zone's fixed-size array of generator amounts, with
// value semantics (copying a GeneratorSet copies its whole array).
type GeneratorSet struct {
	slots [NumGenerators]generatorSlot
}

// NewGeneratorSet returns a GeneratorSet with every slot unused, reporting
// the SF2 default amount for any generator queried via GetOrDefault.
func NewGeneratorSet() GeneratorSet {
	return GeneratorSet{}
}

// GetOrDefault returns the zone's amount for gen, or the SF2-mandated
// default if the zone never set it.
func (g GeneratorSet) GetOrDefault(gen Generator) int16 {
	slot := g.slots[gen]
	if slot.used {
		return slot.amount
	}
	return defaultGeneratorAmounts[gen]
}

// IsUsed reports whether the zone explicitly set gen.
func (g GeneratorSet) IsUsed(gen Generator) bool {
	return g.slots[gen].used
}

// Set records an explicit amount for gen. A later Set call on the same
// generator (within the same bag) overwrites the earlier one, matching the
// SF2 "last write wins within a zone" rule.
func (g *GeneratorSet) Set(gen Generator, amount int16) {
	g.slots[gen] = generatorSlot{used: true, amount: amount}
}

// Merge fills every slot unused in g from the corresponding slot in other,
// provided other has it set. Used to apply a parent's global zone as
// defaults onto a local zone; non-commutative in general since it never
// overwrites an already-used slot — the instruction order keyRange/velRange
// aside, this is a first-writer-wins merge, not a union.
func (g *GeneratorSet) Merge(other GeneratorSet) {
	for i := 0; i < NumGenerators; i++ {
		if !g.slots[i].used && other.slots[i].used {
			g.slots[i] = other.slots[i]
		}
	}
}

// Add accumulates every used slot of other into g, marking the destination
// slot used. Used to combine an instrument-level zone with the owning
// preset-level zone (amounts sum, rather than the preset's winning
// outright).
func (g *GeneratorSet) Add(other GeneratorSet) {
	for i := 0; i < NumGenerators; i++ {
		if other.slots[i].used {
			g.slots[i].amount += other.slots[i].amount
			g.slots[i].used = true
		}
	}
}
