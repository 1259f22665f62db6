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
	"fmt"
)

// Change is one entry of the memory change log.
type Change struct {
	Addr   uint16
	Before uint16
	After  uint16
}

// Memory is the 4096 word core plus an append-only log of every write made
// to it. The live image is always the base image with every change applied
// in order. Replaying history appends new records instead of rewinding, so a
// position taken from Position() stays valid forever.
//
// The log is never compacted and grows by one record per write, including
// writes made by undo and redo.
type Memory struct {
	base    [MEMORY_SIZE]uint16
	current [MEMORY_SIZE]uint16
	changes []Change
}

// NewMemory creates a memory preloaded with image. The preload is not part
// of the change log. A nil image yields zeroed memory.
func NewMemory(image *[MEMORY_SIZE]uint16) *Memory {
	mem := &Memory{}

	if image != nil {
		for i, word := range image {
			mem.base[i] = word & MASK_12BIT
		}
	}

	mem.current = mem.base
	return mem
}

func (mem *Memory) Read(addr uint16) uint16 {
	return mem.current[addr&MASK_12BIT]
}

func (mem *Memory) Write(addr uint16, value uint16) {
	addr &= MASK_12BIT
	value &= MASK_12BIT

	mem.changes = append(mem.changes, Change{
		Addr:   addr,
		Before: mem.current[addr],
		After:  value,
	})
	mem.current[addr] = value
}

// Position is the number of records in the change log.
func (mem *Memory) Position() int {
	return len(mem.changes)
}

// ReplayForward re-applies the value written by the record ending at
// position as a new record.
func (mem *Memory) ReplayForward(position int) {
	change := mem.record(position)
	mem.Write(change.Addr, change.After)
}

// ReplayBackward restores the value overwritten by the record ending at
// position as a new record.
func (mem *Memory) ReplayBackward(position int) {
	change := mem.record(position)
	mem.Write(change.Addr, change.Before)
}

func (mem *Memory) record(position int) Change {
	if position <= 0 || position > len(mem.changes) {
		panic(fmt.Sprintf("cannot replay memory position %d", position))
	}

	return mem.changes[position-1]
}

// Changes returns a copy of the records in [from, to).
func (mem *Memory) Changes(from, to int) []Change {
	if from < 0 {
		from = 0
	}

	if to > len(mem.changes) {
		to = len(mem.changes)
	}

	if from >= to {
		return nil
	}

	result := make([]Change, to-from)
	copy(result, mem.changes[from:to])
	return result
}

// At reconstructs the memory image as it was when the log had length
// position.
func (mem *Memory) At(position int) [MEMORY_SIZE]uint16 {
	if position < 0 || position > len(mem.changes) {
		panic(fmt.Sprintf("memory position %d out of range", position))
	}

	image := mem.base

	for _, change := range mem.changes[:position] {
		image[change.Addr] = change.After
	}

	return image
}

func (mem *Memory) Dump() [MEMORY_SIZE]uint16 {
	return mem.current
}
