// Copyright (C) 2021  Antonio Lassandro

// This program is free software: you can redistribute it and/or modify it
// under the terms of the GNU General Public License as published by the Free
// Software Foundation, either version 3 of the License, or (at your option)
// any later version.

// This program is distributed in the hope that it will be useful, but WITHOUT
// ANY WARRANTY; without even the implied warranty of MERCHANTABILITY or
// FITNESS FOR A PARTICULAR PURPOSE.  See the GNU General Public License for
// more details.

// You should have received a copy of the GNU General Public License along
// with this program.  If not, see <http://www.gnu.org/licenses/>.

package machine

// Fetch reads the instruction at PC into IR and advances PC.
func Fetch(state State, mem *Memory) (uint16, State) {
	instruction := mem.Read(state.PC)

	state.IR = instruction
	state.PC = (state.PC + 1) & MASK_12BIT

	return instruction, state
}

func pageAddress(instruction uint16, pc uint16) uint16 {
	var page uint16

	if instruction&BIT_CURRENTPAGE != 0 {
		page = pc & MASK_PAGE
	}

	return page | (instruction & MASK_OFFSET)
}

// OperandAddress resolves the effective address of a memory reference
// instruction located at pc. Operate and IOT instructions have no operand
// and resolve to zero.
func OperandAddress(instruction uint16, pc uint16, mem MemoryReader) uint16 {
	if (instruction&MASK_OPCODE)>>9 >= OP_IOT {
		return 0
	}

	addr := pageAddress(instruction, pc)

	if instruction&BIT_INDIRECT != 0 {
		addr = mem.Read(addr)
	}

	return addr & MASK_12BIT
}

// Exec executes an instruction against state. Current-page operands resolve
// against the page of origin, the address the instruction came from. Memory
// and device side effects happen in place, the new register state is
// returned.
func Exec(instruction uint16, origin uint16, state State, mem *Memory, devices *Devices) State {
	instruction &= MASK_12BIT
	addr := OperandAddress(instruction, origin&MASK_12BIT, mem)

	switch instruction >> 9 {
	// AND  |000|I|P|offset       | AC <- AC & M[addr]
	// ---- [ _ _ _ _ _ _ _ _ _ _ _ _ ]
	case OP_AND:
		state.Acc &= mem.Read(addr)

	// TAD  |001|I|P|offset       | L,AC <- L,AC + M[addr]
	// ---- [ _ _ _ _ _ _ _ _ _ _ _ _ ]
	case OP_TAD:
		sum := state.Acc + mem.Read(addr)

		if state.Link {
			sum += MASK_CARRY
		}

		state.Link = sum&MASK_CARRY != 0
		state.Acc = sum & MASK_12BIT

	// ISZ  |010|I|P|offset       | M[addr]++, skip if zero
	// ---- [ _ _ _ _ _ _ _ _ _ _ _ _ ]
	case OP_ISZ:
		value := (mem.Read(addr) + 1) & MASK_12BIT
		mem.Write(addr, value)

		if value == 0 {
			state.PC = (state.PC + 1) & MASK_12BIT
		}

	// DCA  |011|I|P|offset       | M[addr] <- AC, AC <- 0
	// ---- [ _ _ _ _ _ _ _ _ _ _ _ _ ]
	case OP_DCA:
		mem.Write(addr, state.Acc)
		state.Acc = 0

	// JMS  |100|I|P|offset       | M[addr] <- PC, PC <- addr + 1
	// ---- [ _ _ _ _ _ _ _ _ _ _ _ _ ]
	case OP_JMS:
		mem.Write(addr, state.PC)
		state.PC = (addr + 1) & MASK_12BIT

	// JMP  |101|I|P|offset       | PC <- addr
	// ---- [ _ _ _ _ _ _ _ _ _ _ _ _ ]
	case OP_JMP:
		state.PC = addr

	// IOT  |110|device     |fn   | Device transfer
	// ---- [ _ _ _ _ _ _ _ _ _ _ _ _ ]
	case OP_IOT:
		selector := uint8((instruction >> 3) & 0o77)

		if devices != nil {
			state = devices.Dispatch(selector, instruction&0o7, state)
		}

	// OPR  |111|0|CLA|CLL|CMA|CML|RAR|RAL|BSW|IAC | Group 1
	// OPR  |111|1|CLA|SMA|SZA|SNL|REV|OSR|HLT|0   | Group 2
	// ---- [ _ _ _ _ _ _ _ _ _ _ _ _ ]
	case OP_OPR:
		if instruction&G2_GROUP == 0 {
			state = group1(instruction, state)
		} else {
			state = group2(instruction, state)
		}
	}

	return state
}

func group1(instruction uint16, state State) State {
	if instruction&G1_CLA != 0 {
		state.Acc = 0
	}

	if instruction&G1_CLL != 0 {
		state.Link = false
	}

	if instruction&G1_CMA != 0 {
		state.Acc = ^state.Acc & MASK_12BIT
	}

	if instruction&G1_CML != 0 {
		state.Link = !state.Link
	}

	if instruction&G1_IAC != 0 {
		state.Acc = (state.Acc + 1) & MASK_12BIT
	}

	// RAR and RAL together are undefined on the hardware; right is applied
	// before left
	if instruction&G1_RAR != 0 {
		state = rotateRight(state)

		if instruction&G1_BSW != 0 {
			state = rotateRight(state)
		}
	}

	if instruction&G1_RAL != 0 {
		state = rotateLeft(state)

		if instruction&G1_BSW != 0 {
			state = rotateLeft(state)
		}
	}

	return state
}

func rotateRight(state State) State {
	carry := state.Acc&0x1 != 0

	state.Acc >>= 1

	if state.Link {
		state.Acc |= MASK_SIGN
	}

	state.Link = carry
	return state
}

func rotateLeft(state State) State {
	carry := state.Acc&MASK_SIGN != 0

	state.Acc = (state.Acc << 1) & MASK_12BIT

	if state.Link {
		state.Acc |= 0x1
	}

	state.Link = carry
	return state
}

func group2(instruction uint16, state State) State {
	skip := false

	if instruction&G2_SMA != 0 {
		skip = skip || state.Acc&MASK_SIGN != 0
	}

	if instruction&G2_SZA != 0 {
		skip = skip || state.Acc == 0
	}

	if instruction&G2_SNL != 0 {
		skip = skip || state.Link
	}

	if instruction&G2_REV != 0 {
		skip = !skip
	}

	if instruction&G2_CLA != 0 {
		state.Acc = 0
	}

	if instruction&G2_OSR != 0 {
		state.Acc = (state.Acc | state.RSW) & MASK_12BIT
	}

	if instruction&G2_HLT != 0 {
		state.Running = false
	}

	if skip {
		state.PC = (state.PC + 1) & MASK_12BIT
	}

	return state
}
