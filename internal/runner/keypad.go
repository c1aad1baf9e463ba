package runner

import (
	"github.com/kapitanov/chip8/internal/vm"
)

// keypad tracks which keys are held. The machine only sees one key per
// tick: the most recently pressed one that is still down.
type keypad struct {
	down [vm.KeyCount]bool
	last vm.Key
}

func newKeypad() keypad {
	return keypad{last: vm.NoKey}
}

func (k *keypad) press(key vm.Key) {
	if !key.Pressed() {
		return
	}
	k.down[key] = true
	k.last = key
}

func (k *keypad) release(key vm.Key) {
	if !key.Pressed() {
		return
	}
	k.down[key] = false
	if k.last != key {
		return
	}

	k.last = vm.NoKey
	for i, held := range k.down {
		if held {
			k.last = vm.Key(i)
			break
		}
	}
}

func (k *keypad) current() vm.Key {
	return k.last
}
