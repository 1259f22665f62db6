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

package debugger

import (
	"io"
	"sync/atomic"

	"github.com/lassandro/gopdp12/pkg/assembler"
	"github.com/lassandro/gopdp12/pkg/machine"
)

type WatchpointType uint

const (
	ReadWatch WatchpointType = 1 << iota
	WriteWatch

	ReadWriteWatch = ReadWatch | WriteWatch
)

func (wtype WatchpointType) String() string {
	switch wtype {
	case ReadWatch:
		return "read"
	case WriteWatch:
		return "write"
	case ReadWriteWatch:
		return "readwrite"
	}

	return "none"
}

type Watchpoint struct {
	Addr uint16
	Type WatchpointType
}

type Breakpoint struct {
	Addr uint16
}

// Reason says why the debugger stopped the machine.
type Reason uint

const (
	NoStop Reason = iota
	BreakpointHit
	ReadHit
	WriteHit
	Halted
	Interrupted
)

func (reason Reason) String() string {
	switch reason {
	case BreakpointHit:
		return "breakpoint"
	case ReadHit:
		return "read watchpoint"
	case WriteHit:
		return "write watchpoint"
	case Halted:
		return "halted"
	case Interrupted:
		return "interrupted"
	}

	return "none"
}

// Event describes a stop. Before and After are only set for WriteHit.
type Event struct {
	Reason Reason
	Addr   uint16
	Before uint16
	After  uint16
}

type Debugger struct {
	Breakpoints []Breakpoint
	Watchpoints []Watchpoint

	Source   io.ReadSeeker
	SymTable *assembler.SymTable
	Output   io.Writer

	// Print without terminal colour codes
	Plain bool

	// Called after every instruction the debugger executes
	AfterStep func(*machine.Machine)

	interrupt atomic.Bool
}
