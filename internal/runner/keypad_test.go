package runner

import (
	"testing"

	"github.com/retroenv/retrogolib/assert"

	"github.com/kapitanov/chip8/internal/vm"
)

func TestKeypadLatestHeldKeyWins(t *testing.T) {
	k := newKeypad()
	assert.Equal(t, vm.NoKey, k.current())

	k.press(vm.Key2)
	k.press(vm.KeyA)
	assert.Equal(t, vm.KeyA, k.current())

	k.release(vm.KeyA)
	assert.Equal(t, vm.Key2, k.current())

	k.release(vm.Key2)
	assert.Equal(t, vm.NoKey, k.current())
}

func TestKeypadIgnoresInvalidKeys(t *testing.T) {
	k := newKeypad()
	k.press(vm.NoKey)
	k.release(vm.NoKey)
	assert.Equal(t, vm.NoKey, k.current())
}
