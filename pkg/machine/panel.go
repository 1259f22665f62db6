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

// Front panel console operations. Every operation is recorded in history
// like a step and is only permitted at the end of history.

// SetSwitches loads the left and right switch registers.
func (mc *Machine) SetSwitches(lsw, rsw uint16) error {
	return mc.ChangeState(func(state State, mem *Memory, devices *Devices) State {
		state.LSW = lsw & MASK_12BIT
		state.RSW = rsw & MASK_12BIT
		return state
	})
}

// Examine loads MA from the left switches, or advances it when step is set,
// and shows the addressed word in MB.
func (mc *Machine) Examine(lsw uint16, step bool) error {
	return mc.ChangeState(func(state State, mem *Memory, devices *Devices) State {
		if step {
			state.MA = (state.MA + 1) & MASK_12BIT
		} else {
			state.MA = lsw & MASK_12BIT
		}

		state.LSW = lsw & MASK_12BIT
		state.MB = mem.Read(state.MA)
		return state
	})
}

// Fill deposits the right switches at the address selected by the left
// switches, or at the next address when step is set.
func (mc *Machine) Fill(lsw, rsw uint16, step bool) error {
	return mc.ChangeState(func(state State, mem *Memory, devices *Devices) State {
		state.LSW = lsw & MASK_12BIT
		state.RSW = rsw & MASK_12BIT

		if step {
			state.MA = (state.MA + 1) & MASK_12BIT
		} else {
			state.MA = state.LSW
		}

		mem.Write(state.MA, state.RSW)
		state.MB = mem.Read(state.MA)
		return state
	})
}

// Do executes the left switches as a single instruction without fetching.
// Current-page operands resolve against the page PC points at.
func (mc *Machine) Do(lsw uint16) error {
	instruction := lsw & MASK_12BIT

	return mc.ChangeState(func(state State, mem *Memory, devices *Devices) State {
		state.IR = instruction
		state.LSW = instruction
		return Exec(instruction, state.PC, state, mem, devices)
	})
}

// Start sets PC and the run flag.
func (mc *Machine) Start(addr uint16) error {
	return mc.ChangeState(func(state State, mem *Memory, devices *Devices) State {
		state.PC = addr & MASK_12BIT
		state.Running = true
		return state
	})
}

// Stop clears the run flag.
func (mc *Machine) Stop() error {
	return mc.ChangeState(func(state State, mem *Memory, devices *Devices) State {
		state.Running = false
		return state
	})
}

// Deposit writes value at addr without touching the registers.
func (mc *Machine) Deposit(addr, value uint16) error {
	return mc.ChangeState(func(state State, mem *Memory, devices *Devices) State {
		mem.Write(addr, value)
		return state
	})
}

// SetRegisters replaces the accumulator, link and program counter.
func (mc *Machine) SetRegisters(acc uint16, link bool, pc uint16) error {
	return mc.ChangeState(func(state State, mem *Memory, devices *Devices) State {
		state.Acc = acc & MASK_12BIT
		state.Link = link
		state.PC = pc & MASK_12BIT
		return state
	})
}
