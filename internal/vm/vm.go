package vm

import (
	"errors"
	"fmt"
	"log/slog"
)

const (
	MemorySize    = 4096
	StackSize     = 32
	RegisterCount = 16
	KeyCount      = 16

	ProgramStart    = uint16(0x200)
	InstructionSize = 2

	addressMask = 0x0FFF
	flagReg     = 0xF
)

var (
	ErrROMTooLarge = errors.New("rom too large")
	ErrHalted      = errors.New("machine halted")
)

type Key uint8

const (
	Key0 = Key(iota)
	Key1
	Key2
	Key3
	Key4
	Key5
	Key6
	Key7
	Key8
	Key9
	KeyA
	KeyB
	KeyC
	KeyD
	KeyE
	KeyF

	// NoKey is passed to Tick when nothing is pressed.
	NoKey = Key(0xFF)
)

func (k Key) Pressed() bool {
	return k < KeyCount
}

// TickResult describes what a call to Tick did.
type TickResult int

const (
	// TickExecuted means one instruction was executed.
	TickExecuted TickResult = iota
	// TickAwaitingKey means the machine is parked on FX0A and needs a key.
	TickAwaitingKey
)

func (r TickResult) String() string {
	switch r {
	case TickExecuted:
		return "executed"
	case TickAwaitingKey:
		return "awaiting key"
	default:
		return fmt.Sprintf("TickResult(%d)", int(r))
	}
}

type VM struct {
	memory    [MemorySize]uint8    // Memory (4k)
	registers [RegisterCount]uint8 // V registers (V0-VF)

	stack *Stack // Return addresses

	pc     uint16 // Program counter
	index  uint16 // Index register
	opcode Opcode // Last fetched opcode

	delayTimer uint8 // Delay timer
	soundTimer uint8 // Sound timer

	display Display

	keypress    Key  // Key supplied to the current tick
	awaitingKey bool // Parked on FX0A

	// registers touched by the last tick, one bit per register
	regRead  uint16
	regWrite uint16

	fault error // Fatal error, cleared by Reset

	random   RandomSource
	observer Observer
}

// New returns a machine with the font loaded and pc at ProgramStart.
// Instructions are reported to the default slog logger and CXNN draws
// from the runtime-seeded generator.
func New() *VM {
	vm := &VM{
		stack:    NewStack(StackSize),
		random:   NewRandomSource(),
		observer: NewLogObserver(slog.Default()),
	}
	vm.Reset()
	return vm
}

// SetRandom replaces the byte source used by CXNN.
func (vm *VM) SetRandom(src RandomSource) {
	vm.random = src
}

// SetObserver replaces the instruction observer. A nil observer disables
// reporting.
func (vm *VM) SetObserver(o Observer) {
	if o == nil {
		o = nopObserver{}
	}
	vm.observer = o
}

// Reset restores the state produced by New. The random source and the
// observer are kept.
func (vm *VM) Reset() {
	vm.memory = [MemorySize]uint8{}
	copy(vm.memory[FontAddress:], chip8Font)

	vm.registers = [RegisterCount]uint8{}
	vm.stack.reset()

	vm.pc = ProgramStart
	vm.index = 0
	vm.opcode = Decode(0)

	vm.delayTimer = 0
	vm.soundTimer = 0

	vm.display.reset()

	vm.keypress = NoKey
	vm.awaitingKey = false
	vm.regRead = 0
	vm.regWrite = 0
	vm.fault = nil
}

// LoadROM copies a raw program image into memory at ProgramStart.
func (vm *VM) LoadROM(rom []byte) error {
	if int(ProgramStart)+len(rom) > MemorySize {
		return fmt.Errorf("%w: %d bytes, %d available", ErrROMTooLarge, len(rom), MemorySize-int(ProgramStart))
	}

	copy(vm.memory[ProgramStart:], rom)
	return nil
}

// LoadProgram writes instructions big-endian starting at ProgramStart.
func (vm *VM) LoadProgram(words ...uint16) error {
	rom := make([]byte, 0, len(words)*InstructionSize)
	for _, w := range words {
		rom = append(rom, uint8(w>>8), uint8(w))
	}
	return vm.LoadROM(rom)
}

// Tick executes a single instruction. key is the currently pressed keypad
// key or NoKey. A returned error is fatal: the machine stays halted until
// Reset.
func (vm *VM) Tick(key Key) (TickResult, error) {
	if vm.fault != nil {
		return TickExecuted, fmt.Errorf("%w: %w", ErrHalted, vm.fault)
	}

	vm.keypress = key
	if vm.awaitingKey && !key.Pressed() {
		return TickAwaitingKey, nil
	}
	vm.awaitingKey = false

	vm.regRead = 0
	vm.regWrite = 0

	pc := vm.pc
	vm.opcode = Decode(vm.fetchOpcode())
	vm.pc += InstructionSize

	instr := lookup(vm.opcode)
	vm.observer.OnInstruction(pc, vm.opcode, instr.Name(vm.opcode))

	if err := instr.Execute(vm, vm.opcode); err != nil {
		var diag *diagnostic
		if errors.As(err, &diag) {
			vm.observer.OnDiagnostic(pc, vm.opcode, diag.err)
			return TickExecuted, nil
		}

		vm.fault = fmt.Errorf("exec 0x%04x at 0x%04x: %w", vm.opcode.Code, pc, err)
		return TickExecuted, vm.fault
	}

	if vm.awaitingKey {
		return TickAwaitingKey, nil
	}
	return TickExecuted, nil
}

// DecayTimers counts both timers one step toward zero. Call it at 60 Hz,
// independent of how many instructions are executed.
func (vm *VM) DecayTimers() {
	if vm.delayTimer > 0 {
		vm.delayTimer--
	}
	if vm.soundTimer > 0 {
		vm.soundTimer--
	}
}

func (vm *VM) fetchOpcode() uint16 {
	hi := vm.memory[vm.pc&addressMask]
	lo := vm.memory[(vm.pc+1)&addressMask]

	return uint16(hi)<<8 | uint16(lo)
}

func (vm *VM) readMem(addr uint16) uint8 {
	return vm.memory[addr&addressMask]
}

func (vm *VM) writeMem(addr uint16, v uint8) {
	vm.memory[addr&addressMask] = v
}

func (vm *VM) reg(x uint8) uint8 {
	vm.regRead |= 1 << x
	return vm.registers[x]
}

func (vm *VM) setReg(x uint8, v uint8) {
	vm.regWrite |= 1 << x
	vm.registers[x] = v
}

// setFlag must be the last register write of an instruction.
func (vm *VM) setFlag(set bool) {
	if set {
		vm.setReg(flagReg, 1)
	} else {
		vm.setReg(flagReg, 0)
	}
}

func (vm *VM) skipIf(cond bool) {
	if cond {
		vm.pc += InstructionSize
	}
}

func (vm *VM) PC() uint16 { return vm.pc }
func (vm *VM) Index() uint16 { return vm.index }
func (vm *VM) Opcode() Opcode { return vm.opcode }
func (vm *VM) DelayTimer() uint8 { return vm.delayTimer }
func (vm *VM) SoundTimer() uint8 { return vm.soundTimer }
func (vm *VM) Keypress() Key { return vm.keypress }
func (vm *VM) AwaitingKey() bool { return vm.awaitingKey }
func (vm *VM) Display() *Display { return &vm.display }
func (vm *VM) Redraw() bool { return vm.display.Redraw() }
func (vm *VM) ClearRedraw() { vm.display.ClearRedraw() }
func (vm *VM) StackDepth() int { return vm.stack.Len() }
func (vm *VM) Stack() []uint16 { return vm.stack.Entries() }
func (vm *VM) Fault() error { return vm.fault }
func (vm *VM) Mnemonic() string { return lookup(vm.opcode).Name(vm.opcode) }

func (vm *VM) Register(x int) uint8 {
	return vm.registers[x&0xF]
}

func (vm *VM) Registers() [RegisterCount]uint8 {
	return vm.registers
}

// Memory returns the byte at addr, masked to the 12-bit address space.
func (vm *VM) Memory(addr uint16) uint8 {
	return vm.readMem(addr)
}

// RegistersRead lists the registers the last tick read from.
func (vm *VM) RegistersRead() []uint8 {
	return maskToRegs(vm.regRead)
}

// RegistersWritten lists the registers the last tick wrote to.
func (vm *VM) RegistersWritten() []uint8 {
	return maskToRegs(vm.regWrite)
}

func maskToRegs(mask uint16) []uint8 {
	var out []uint8
	for i := uint8(0); i < RegisterCount; i++ {
		if mask&(1<<i) != 0 {
			out = append(out, i)
		}
	}
	return out
}
