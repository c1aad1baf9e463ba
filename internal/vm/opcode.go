package vm

import (
	"fmt"
)

// Opcode is a fetched instruction word split into its operand fields.
type Opcode struct {
	Code uint16 // Raw instruction word
	NNN  uint16 // Low 12 bits, an address
	NN   uint8  // Low byte
	N    uint8  // Low nibble
	X    uint8  // Bits 8-11, a register index
	Y    uint8  // Bits 4-7, a register index
}

// Decode splits word into its operand fields. Every word decodes; whether
// it names a known instruction is decided at dispatch.
func Decode(word uint16) Opcode {
	return Opcode{
		Code: word,
		NNN:  word & 0x0FFF,
		NN:   uint8(word & 0x00FF),
		N:    uint8(word & 0x000F),
		X:    uint8((word & 0x0F00) >> 8),
		Y:    uint8((word & 0x00F0) >> 4),
	}
}

func (op Opcode) String() string {
	return fmt.Sprintf("%04X", op.Code)
}

// Mnemonic returns the assembly form of op.
func Mnemonic(op Opcode) string {
	return lookup(op).Name(op)
}

type instruction struct {
	Name    func(op Opcode) string
	Execute func(vm *VM, op Opcode) error
}

// diagnostic marks a handler error as recoverable: the instruction is
// reported and skipped, the machine keeps running.
type diagnostic struct {
	err error
}

func (d *diagnostic) Error() string { return d.err.Error() }
func (d *diagnostic) Unwrap() error { return d.err }

func lookup(op Opcode) instruction {
	switch op.Code & 0xF000 {
	case 0x0000:
		switch op.Code {
		case 0x00E0:
			// 00E0 - Clear screen
			return clsInstruction

		case 0x00EE:
			// 00EE - Return from subroutine
			return rtsInstruction
		}

		// 0NNN - Call RCA 1802 machine code at NNN
		return sysInstruction

	case 0x1000:
		// 1NNN - Jumps to address NNN
		return jmpInstruction

	case 0x2000:
		// 2NNN - Calls subroutine at NNN
		return jsrInstruction

	case 0x3000:
		// 3XNN - Skips the next instruction if VX equals NN
		return skeq1Instruction

	case 0x4000:
		// 4XNN - Skips the next instruction if VX does not equal NN
		return skne1Instruction

	case 0x5000:
		// 5XY0 - Skips the next instruction if VX equals VY
		if op.N == 0 {
			return skeq2Instruction
		}

	case 0x6000:
		// 6XNN - Sets VX to NN
		return mov1Instruction

	case 0x7000:
		// 7XNN - Adds NN to VX, no carry
		return add1Instruction

	case 0x8000:
		switch op.N {
		case 0x0:
			// 8XY0 - Sets VX to the value of VY
			return mov2Instruction

		case 0x1:
			// 8XY1 - Sets VX to (VX OR VY)
			return orInstruction

		case 0x2:
			// 8XY2 - Sets VX to (VX AND VY)
			return andInstruction

		case 0x3:
			// 8XY3 - Sets VX to (VX XOR VY)
			return xorInstruction

		case 0x4:
			// 8XY4 - Adds VY to VX. VF is set to 1 when there's a carry, and to 0 when there isn't.
			return add2Instruction

		case 0x5:
			// 8XY5 - VY is subtracted from VX. VF is set to 0 when there's a borrow, and 1 when there isn't.
			return subInstruction

		case 0x6:
			// 8XY6 - Shifts VX right by one. VF is set to the value of the least significant bit of VX before the shift.
			return shrInstruction

		case 0x7:
			// 8XY7 - Sets VX to VY minus VX. VF is set to 0 when there's a borrow, and 1 when there isn't.
			return rsbInstruction

		case 0xE:
			// 8XYE - Shifts VX left by one. VF is set to the value of the most significant bit of VX before the shift.
			return shlInstruction
		}

	case 0x9000:
		// 9XY0 - Skips the next instruction if VX doesn't equal VY
		if op.N == 0 {
			return skne2Instruction
		}

	case 0xA000:
		// ANNN - Sets I to the address NNN
		return mviInstruction

	case 0xB000:
		// BNNN - Jumps to the address NNN plus V0
		return jmiInstruction

	case 0xC000:
		// CXNN - Sets VX to a random number, masked by NN
		return randInstruction

	case 0xD000:
		// DXYN - Draws an 8xN sprite from memory at I to (VX, VY).
		// VF is set to 1 if any screen pixels are flipped from set to
		// unset, and to 0 if that doesn't happen.
		return spriteInstruction

	case 0xE000:
		switch op.NN {
		case 0x9E:
			// EX9E - Skips the next instruction if the key stored in VX is pressed
			return skprInstruction

		case 0xA1:
			// EXA1 - Skips the next instruction if the key stored in VX isn't pressed
			return skupInstruction
		}

	case 0xF000:
		switch op.NN {
		case 0x07:
			// FX07 - Sets VX to the value of the delay timer
			return gdelayInstruction

		case 0x0A:
			// FX0A - A key press is awaited, and then stored in VX
			return keyInstruction

		case 0x15:
			// FX15 - Sets the delay timer to VX
			return sdelayInstruction

		case 0x18:
			// FX18 - Sets the sound timer to VX
			return ssoundInstruction

		case 0x1E:
			// FX1E - Adds VX to I, VF is not affected
			return adiInstruction

		case 0x29:
			// FX29 - Sets I to the location of the 4x5 font glyph for the digit in VX
			return fontInstruction

		case 0x33:
			// FX33 - Stores the BCD representation of VX at I, I+1 and I+2
			return bcdInstruction

		case 0x55:
			// FX55 - Stores V0 to VX in memory starting at address I
			return strInstruction

		case 0x65:
			// FX65 - Reads memory starting at address I into V0 to VX
			return ldrInstruction
		}
	}

	return unknownInstruction
}

var (
	// 00E0	cls	Clear the screen
	clsInstruction = instruction{
		Name: func(op Opcode) string {
			return "cls"
		},
		Execute: func(vm *VM, op Opcode) error {
			vm.display.Clear()
			return nil
		},
	}

	// 00EE	rts	return from subroutine call
	rtsInstruction = instruction{
		Name: func(op Opcode) string {
			return "rts"
		},
		Execute: func(vm *VM, op Opcode) error {
			pc, err := vm.stack.Pop()
			if err != nil {
				return err
			}
			vm.pc = pc
			return nil
		},
	}

	// 0xxx	sys xxx	call 1802 machine code, not emulated
	sysInstruction = instruction{
		Name: func(op Opcode) string {
			return fmt.Sprintf("sys 0x%04x", op.NNN)
		},
		Execute: func(vm *VM, op Opcode) error {
			return &diagnostic{err: fmt.Errorf("%w: 0x%04x", ErrMachineCall, op.NNN)}
		},
	}

	// 1xxx	jmp xxx	jump to address xxx
	jmpInstruction = instruction{
		Name: func(op Opcode) string {
			return fmt.Sprintf("jmp 0x%04x", op.NNN)
		},
		Execute: func(vm *VM, op Opcode) error {
			vm.pc = op.NNN
			return nil
		},
	}

	// 2xxx	jsr xxx	jump to subroutine at address xxx
	jsrInstruction = instruction{
		Name: func(op Opcode) string {
			return fmt.Sprintf("jsr 0x%04x", op.NNN)
		},
		Execute: func(vm *VM, op Opcode) error {
			if err := vm.stack.Push(vm.pc); err != nil {
				return err
			}
			vm.pc = op.NNN
			return nil
		},
	}

	// 3rxx	skeq vr,xx	skip if register r = constant
	skeq1Instruction = instruction{
		Name: func(op Opcode) string {
			return fmt.Sprintf("skeq v%x, %d", op.X, op.NN)
		},
		Execute: func(vm *VM, op Opcode) error {
			vm.skipIf(vm.reg(op.X) == op.NN)
			return nil
		},
	}

	// 4rxx	skne vr,xx	skip if register r <> constant
	skne1Instruction = instruction{
		Name: func(op Opcode) string {
			return fmt.Sprintf("skne v%x, %d", op.X, op.NN)
		},
		Execute: func(vm *VM, op Opcode) error {
			vm.skipIf(vm.reg(op.X) != op.NN)
			return nil
		},
	}

	// 5ry0	skeq vr,vy	skip if register r = register y
	skeq2Instruction = instruction{
		Name: func(op Opcode) string {
			return fmt.Sprintf("skeq v%x, v%x", op.X, op.Y)
		},
		Execute: func(vm *VM, op Opcode) error {
			vm.skipIf(vm.reg(op.X) == vm.reg(op.Y))
			return nil
		},
	}

	// 6rxx	mov vr,xx	move constant to register r
	mov1Instruction = instruction{
		Name: func(op Opcode) string {
			return fmt.Sprintf("mov v%x, %d", op.X, op.NN)
		},
		Execute: func(vm *VM, op Opcode) error {
			vm.setReg(op.X, op.NN)
			return nil
		},
	}

	// 7rxx	add vr,xx	add constant to register r	No carry generated
	add1Instruction = instruction{
		Name: func(op Opcode) string {
			return fmt.Sprintf("add v%x, %d", op.X, op.NN)
		},
		Execute: func(vm *VM, op Opcode) error {
			vm.setReg(op.X, vm.reg(op.X)+op.NN)
			return nil
		},
	}

	// 8ry0	mov vr,vy	move register vy into vr
	mov2Instruction = instruction{
		Name: func(op Opcode) string {
			return fmt.Sprintf("mov v%x, v%x", op.X, op.Y)
		},
		Execute: func(vm *VM, op Opcode) error {
			vm.setReg(op.X, vm.reg(op.Y))
			return nil
		},
	}

	// 8ry1	or rx,ry	or register vy into register vx
	orInstruction = instruction{
		Name: func(op Opcode) string {
			return fmt.Sprintf("or v%x, v%x", op.X, op.Y)
		},
		Execute: func(vm *VM, op Opcode) error {
			vm.setReg(op.X, vm.reg(op.X)|vm.reg(op.Y))
			return nil
		},
	}

	// 8ry2	and rx,ry	and register vy into register vx
	andInstruction = instruction{
		Name: func(op Opcode) string {
			return fmt.Sprintf("and v%x, v%x", op.X, op.Y)
		},
		Execute: func(vm *VM, op Opcode) error {
			vm.setReg(op.X, vm.reg(op.X)&vm.reg(op.Y))
			return nil
		},
	}

	// 8ry3	xor rx,ry	exclusive or register ry into register rx
	xorInstruction = instruction{
		Name: func(op Opcode) string {
			return fmt.Sprintf("xor v%x, v%x", op.X, op.Y)
		},
		Execute: func(vm *VM, op Opcode) error {
			vm.setReg(op.X, vm.reg(op.X)^vm.reg(op.Y))
			return nil
		},
	}

	// 8ry4	add vr,vy	add register vy to vr,carry in vf
	add2Instruction = instruction{
		Name: func(op Opcode) string {
			return fmt.Sprintf("add v%x, v%x", op.X, op.Y)
		},
		Execute: func(vm *VM, op Opcode) error {
			sum := uint16(vm.reg(op.X)) + uint16(vm.reg(op.Y))

			vm.setReg(op.X, uint8(sum))
			vm.setFlag(sum > 0xFF)
			return nil
		},
	}

	// 8ry5	sub vr,vy	subtract register vy from vr,borrow in vf	vf set to 0 if borrows
	subInstruction = instruction{
		Name: func(op Opcode) string {
			return fmt.Sprintf("sub v%x, v%x", op.X, op.Y)
		},
		Execute: func(vm *VM, op Opcode) error {
			x := vm.reg(op.X)
			y := vm.reg(op.Y)

			vm.setReg(op.X, x-y)
			vm.setFlag(x >= y)
			return nil
		},
	}

	// 8r06	shr vr	shift register vr right, bit 0 goes into register vf
	shrInstruction = instruction{
		Name: func(op Opcode) string {
			return fmt.Sprintf("shr v%x", op.X)
		},
		Execute: func(vm *VM, op Opcode) error {
			x := vm.reg(op.X)

			vm.setReg(op.X, x>>1)
			vm.setFlag(x&0x1 != 0)
			return nil
		},
	}

	// 8ry7	rsb vr,vy	subtract register vr from register vy, result in vr	vf set to 0 if borrows
	rsbInstruction = instruction{
		Name: func(op Opcode) string {
			return fmt.Sprintf("rsb v%x, v%x", op.X, op.Y)
		},
		Execute: func(vm *VM, op Opcode) error {
			x := vm.reg(op.X)
			y := vm.reg(op.Y)

			vm.setReg(op.X, y-x)
			vm.setFlag(y >= x)
			return nil
		},
	}

	// 8r0e	shl vr	shift register vr left,bit 7 goes into register vf
	shlInstruction = instruction{
		Name: func(op Opcode) string {
			return fmt.Sprintf("shl v%x", op.X)
		},
		Execute: func(vm *VM, op Opcode) error {
			x := vm.reg(op.X)

			vm.setReg(op.X, x<<1)
			vm.setFlag(x>>7 != 0)
			return nil
		},
	}

	// 9ry0	skne rx,ry	skip if register rx <> register ry
	skne2Instruction = instruction{
		Name: func(op Opcode) string {
			return fmt.Sprintf("skne v%x, v%x", op.X, op.Y)
		},
		Execute: func(vm *VM, op Opcode) error {
			vm.skipIf(vm.reg(op.X) != vm.reg(op.Y))
			return nil
		},
	}

	// axxx	mvi xxx	Load index register with constant xxx
	mviInstruction = instruction{
		Name: func(op Opcode) string {
			return fmt.Sprintf("mvi 0x%04x", op.NNN)
		},
		Execute: func(vm *VM, op Opcode) error {
			vm.index = op.NNN
			return nil
		},
	}

	// bxxx	jmi xxx	Jump to address xxx+register v0
	jmiInstruction = instruction{
		Name: func(op Opcode) string {
			return fmt.Sprintf("jmi 0x%04x", op.NNN)
		},
		Execute: func(vm *VM, op Opcode) error {
			vm.pc = (op.NNN + uint16(vm.reg(0))) & addressMask
			return nil
		},
	}

	// crxx	rand vr,xx	vr = random byte and xx
	randInstruction = instruction{
		Name: func(op Opcode) string {
			return fmt.Sprintf("rand v%x, %d", op.X, op.NN)
		},
		Execute: func(vm *VM, op Opcode) error {
			vm.setReg(op.X, vm.random.NextByte()&op.NN)
			return nil
		},
	}

	// drys	sprite rx,ry,s	Draw sprite at screen location rx,ry height s
	// Sprites stored in memory at location in index register, 8 bits wide.
	// If when drawn, clears a pixel, vf is set to 1 otherwise it is zero.
	// All drawing is xor drawing (e.g. it toggles the screen pixels)
	spriteInstruction = instruction{
		Name: func(op Opcode) string {
			return fmt.Sprintf("sprite v%x, v%x, %d", op.X, op.Y, op.N)
		},
		Execute: func(vm *VM, op Opcode) error {
			rows := make([]uint8, op.N)
			for i := range rows {
				rows[i] = vm.readMem(vm.index + uint16(i))
			}

			collision := vm.display.Draw(vm.reg(op.X), vm.reg(op.Y), rows)
			vm.setFlag(collision)
			return nil
		},
	}

	// ek9e	skpr k	skip if key (register rk) pressed
	skprInstruction = instruction{
		Name: func(op Opcode) string {
			return fmt.Sprintf("skpr v%x", op.X)
		},
		Execute: func(vm *VM, op Opcode) error {
			x := vm.reg(op.X)
			vm.skipIf(vm.keypress.Pressed() && uint8(vm.keypress) == x)
			return nil
		},
	}

	// eka1	skup k	skip if key (register rk) not pressed
	skupInstruction = instruction{
		Name: func(op Opcode) string {
			return fmt.Sprintf("skup v%x", op.X)
		},
		Execute: func(vm *VM, op Opcode) error {
			x := vm.reg(op.X)
			vm.skipIf(!vm.keypress.Pressed() || uint8(vm.keypress) != x)
			return nil
		},
	}

	// fr07	gdelay vr	get delay timer into vr
	gdelayInstruction = instruction{
		Name: func(op Opcode) string {
			return fmt.Sprintf("gdelay v%x", op.X)
		},
		Execute: func(vm *VM, op Opcode) error {
			vm.setReg(op.X, vm.delayTimer)
			return nil
		},
	}

	// fr0a	key vr	wait for for keypress,put key in register vr
	// Without a key the pc is moved back onto this instruction and the
	// machine parks until Tick is given one.
	keyInstruction = instruction{
		Name: func(op Opcode) string {
			return fmt.Sprintf("key v%x", op.X)
		},
		Execute: func(vm *VM, op Opcode) error {
			if !vm.keypress.Pressed() {
				vm.pc -= InstructionSize
				vm.awaitingKey = true
				return nil
			}

			vm.setReg(op.X, uint8(vm.keypress))
			return nil
		},
	}

	// fr15	sdelay vr	set the delay timer to vr
	sdelayInstruction = instruction{
		Name: func(op Opcode) string {
			return fmt.Sprintf("sdelay v%x", op.X)
		},
		Execute: func(vm *VM, op Opcode) error {
			vm.delayTimer = vm.reg(op.X)
			return nil
		},
	}

	// fr18	ssound vr	set the sound timer to vr
	ssoundInstruction = instruction{
		Name: func(op Opcode) string {
			return fmt.Sprintf("ssound v%x", op.X)
		},
		Execute: func(vm *VM, op Opcode) error {
			vm.soundTimer = vm.reg(op.X)
			return nil
		},
	}

	// fr1e	adi vr	add register vr to the index register
	adiInstruction = instruction{
		Name: func(op Opcode) string {
			return fmt.Sprintf("adi v%x", op.X)
		},
		Execute: func(vm *VM, op Opcode) error {
			vm.index = (vm.index + uint16(vm.reg(op.X))) & addressMask
			return nil
		},
	}

	// fr29	font vr	point I to the sprite for hexadecimal character in vr	Sprite is 5 bytes high
	fontInstruction = instruction{
		Name: func(op Opcode) string {
			return fmt.Sprintf("font v%x", op.X)
		},
		Execute: func(vm *VM, op Opcode) error {
			vm.index = FontAddress + FontGlyphSize*uint16(vm.reg(op.X))
			return nil
		},
	}

	// fr33	bcd vr	store the bcd representation of register vr at location I,I+1,I+2	Doesn't change I
	bcdInstruction = instruction{
		Name: func(op Opcode) string {
			return fmt.Sprintf("bcd v%x", op.X)
		},
		Execute: func(vm *VM, op Opcode) error {
			x := vm.reg(op.X)

			vm.writeMem(vm.index, x/100)
			vm.writeMem(vm.index+1, (x/10)%10)
			vm.writeMem(vm.index+2, x%10)
			return nil
		},
	}

	// fr55	str v0-vr	store registers v0-vr at location I onwards	I is unchanged
	strInstruction = instruction{
		Name: func(op Opcode) string {
			return fmt.Sprintf("str v0-v%x", op.X)
		},
		Execute: func(vm *VM, op Opcode) error {
			for i := uint8(0); i <= op.X; i++ {
				vm.writeMem(vm.index+uint16(i), vm.reg(i))
			}
			return nil
		},
	}

	// fr65	ldr v0-vr	load registers v0-vr from location I onwards	I is unchanged
	ldrInstruction = instruction{
		Name: func(op Opcode) string {
			return fmt.Sprintf("ldr v0-v%x", op.X)
		},
		Execute: func(vm *VM, op Opcode) error {
			for i := uint8(0); i <= op.X; i++ {
				vm.setReg(i, vm.readMem(vm.index+uint16(i)))
			}
			return nil
		},
	}

	unknownInstruction = instruction{
		Name: func(op Opcode) string {
			return fmt.Sprintf("unknown 0x%04X", op.Code)
		},
		Execute: func(vm *VM, op Opcode) error {
			return &diagnostic{err: fmt.Errorf("%w 0x%04X", ErrUnknownOpcode, op.Code)}
		},
	}
)
