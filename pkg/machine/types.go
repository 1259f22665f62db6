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

import (
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

var (
	ErrNotAtTip      = errors.New("machine is not at the end of its history")
	ErrSelectorRange = errors.New("device selector out of range")
	ErrNoDevice      = errors.New("no device installed at selector")
	ErrWrongDevice   = errors.New("device at selector is of a different kind")
)

// State is the register file of the machine. It is replaced wholesale on
// every step and never shared by reference.
type State struct {
	Acc  uint16
	Link bool
	PC   uint16

	// Last fetched instruction, the top octal digit is the instruction
	// register proper
	IR uint16

	// Memory address and memory buffer registers
	MA uint16
	MB uint16

	// Left and right switch registers
	LSW uint16
	RSW uint16

	Running bool
}

// Device is a peripheral reachable through IOT instructions. The
// subfunction passed to IOT is the low three bits of the instruction.
type Device interface {
	Selector() uint8
	IOT(subfunction uint16, state State) State
}

type MemoryReader interface {
	Read(addr uint16) uint16
	Position() int
	Changes(from, to int) []Change
	Dump() [MEMORY_SIZE]uint16
}

type HistoryEntry struct {
	State State

	// Change log window written while producing State
	Begin    int
	Position int
}

type Machine struct {
	memory  *Memory
	devices *Devices
	history []HistoryEntry
	cursor  int
	log     *log.Logger
}
