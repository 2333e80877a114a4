package soundfont

import (
	"encoding/binary"
	"fmt"
	"io"
)

// chunkHeader is the 8-byte RIFF chunk header: a four-character code
// followed by the chunk's payload size in bytes.
type chunkHeader struct {
	ID   [4]byte
	Size uint32
}

func readChunkHeader(r io.Reader) (chunkHeader, error) {
	var h chunkHeader
	err := binary.Read(r, binary.LittleEndian, &h)
	return h, err
}

func (h chunkHeader) is(fourCC string) bool {
	return string(h.ID[:]) == fourCC
}

// limited wraps an io.Reader so that readers of pdta sub-chunks never
// consume bytes belonging to the next chunk, matching the reference
// implementation's manual byte-accounting loops.
func limited(r io.Reader, n uint32) io.Reader {
	return io.LimitReader(r, int64(n))
}

// Fixed-width pdta record layouts. Field order and widths match the SF2
// spec's on-disk structs exactly; binary.Read decodes them directly.

type rawVersionTag struct {
	Major uint16
	Minor uint16
}

type rawPresetHeader struct {
	Name         [20]byte
	Preset       uint16
	Bank         uint16
	PresetBagNdx uint16
	Library      uint32
	Genre        uint32
	Morphology   uint32
}

const presetHeaderSize = 38

type rawBag struct {
	GenNdx uint16
	ModNdx uint16
}

const bagSize = 4

type rawModList struct {
	SrcOper    uint16
	DestOper   uint16
	Amount     int16
	AmtSrcOper uint16
	TransOper  uint16
}

const modListSize = 10

type rawGenList struct {
	Oper   uint16
	Amount uint16
}

const genListSize = 4

type rawInst struct {
	Name       [20]byte
	InstBagNdx uint16
}

const instSize = 22

type rawSample struct {
	Name        [20]byte
	Start       uint32
	End         uint32
	StartLoop   uint32
	EndLoop     uint32
	SampleRate  uint32
	OriginalKey int8
	Correction  int8
	SampleLink  uint16
	SampleType  uint16
}

const sampleHeaderSize = 46

// readRecordList reads a flat chunk of size totalSize as a sequence of
// fixed-width records and returns them as a slice. recordSize must equal
// binary.Size of T.
func readRecordList[T any](r io.Reader, totalSize uint32, recordSize int) ([]T, error) {
	if int(totalSize)%recordSize != 0 {
		return nil, fmt.Errorf("%w: size %d not a multiple of %d", ErrMisalignedChunk, totalSize, recordSize)
	}
	count := int(totalSize) / recordSize
	out := make([]T, count)
	for i := range out {
		if err := binary.Read(r, binary.LittleEndian, &out[i]); err != nil {
			return nil, fmt.Errorf("soundfont: reading record %d: %w", i, err)
		}
	}
	return out, nil
}

// readModList reads a pmod/imod chunk, which is already laid out as
// fixed-width rawModList records.
func readModList(r io.Reader, totalSize uint32) ([]rawModList, error) {
	return readRecordList[rawModList](r, totalSize, modListSize)
}

// achToString trims a fixed 20-byte SF2 name field at its first NUL.
func achToString(ach [20]byte) string {
	n := 0
	for n < len(ach) && ach[n] != 0 {
		n++
	}
	return string(ach[:n])
}

// genRange unpacks a GenList amount as the two signed byte range bounds
// used by the keyRange/velRange generators.
func genRange(amount uint16) (lo, hi int8) {
	return int8(amount & 0xFF), int8((amount >> 8) & 0xFF)
}

// readBinary decodes one little-endian fixed-width value from r.
func readBinary(r io.Reader, v any) error {
	return binary.Read(r, binary.LittleEndian, v)
}

// readBinarySlice decodes a slice of little-endian fixed-width values from
// r, filling every element of dst.
func readBinarySlice(r io.Reader, dst []int16) error {
	return binary.Read(r, binary.LittleEndian, dst)
}
