package midi

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPackShortMessageRoundTrip(t *testing.T) {
	m := PackShortMessage(StatusNoteOn, 3, 60, 100)
	assert.Equal(t, StatusNoteOn, m.Status())
	assert.Equal(t, uint8(3), m.Channel())
	assert.Equal(t, byte(60), m.Data1())
	assert.Equal(t, byte(100), m.Data2())
}

func TestPackShortMessageMasksChannel(t *testing.T) {
	m := PackShortMessage(StatusControlChange, 0xff, 7, 64)
	assert.Equal(t, uint8(0x0f), m.Channel())
}

func TestJoinBits14(t *testing.T) {
	assert.Equal(t, uint16(0), JoinBits14(0, 0))
	assert.Equal(t, uint16(0x3FFF), JoinBits14(0x7F, 0x7F))
}
