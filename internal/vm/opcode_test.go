package vm

import (
	"testing"

	"github.com/retroenv/retrogolib/assert"
)

func TestDecode(t *testing.T) {
	op := Decode(0xD3A7)

	assert.Equal(t, uint16(0xD3A7), op.Code)
	assert.Equal(t, uint16(0x3A7), op.NNN)
	assert.Equal(t, uint8(0xA7), op.NN)
	assert.Equal(t, uint8(0x7), op.N)
	assert.Equal(t, uint8(0x3), op.X)
	assert.Equal(t, uint8(0xA), op.Y)
}

func TestMnemonic(t *testing.T) {
	tests := []struct {
		code     uint16
		expected string
	}{
		{0x00E0, "cls"},
		{0x00EE, "rts"},
		{0x0123, "sys 0x0123"},
		{0x1208, "jmp 0x0208"},
		{0x2400, "jsr 0x0400"},
		{0x3A10, "skeq va, 16"},
		{0x5AB0, "skeq va, vb"},
		{0x5AB1, "unknown 0x5AB1"},
		{0x8AB4, "add va, vb"},
		{0x8AB8, "unknown 0x8AB8"},
		{0x9120, "skne v1, v2"},
		{0xA123, "mvi 0x0123"},
		{0xD125, "sprite v1, v2, 5"},
		{0xE39E, "skpr v3"},
		{0xE3A1, "skup v3"},
		{0xE3FF, "unknown 0xE3FF"},
		{0xF20A, "key v2"},
		{0xF21E, "adi v2"},
		{0xF555, "str v0-v5"},
		{0xF565, "ldr v0-v5"},
		{0xF5FF, "unknown 0xF5FF"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, Mnemonic(Decode(tt.code)))
	}
}
