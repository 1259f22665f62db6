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
	"bufio"
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/mgutz/ansi"

	"github.com/lassandro/gopdp12/pkg/assembler"
	"github.com/lassandro/gopdp12/pkg/encoding"
	"github.com/lassandro/gopdp12/pkg/machine"
)

var (
	colorAddr  = ansi.ColorCode("default+b")
	colorFaint = ansi.ColorCode("black+h")
	colorPC    = ansi.ColorCode("green+b")
)

func (dbg *Debugger) paint(color, text string) string {
	if dbg.Plain {
		return text
	}

	return color + text + ansi.Reset
}

func New(output io.Writer) *Debugger {
	if output == nil {
		output = os.Stdout
	}

	return &Debugger{Output: output}
}

// Interrupt asks Run to stop before its next instruction. A pending
// interrupt is consumed by the next Run. It is safe to call from another
// goroutine.
func (dbg *Debugger) Interrupt() {
	dbg.interrupt.Store(true)
}

func (dbg *Debugger) AddBreakpoint(addr uint16) bool {
	addr &= machine.MASK_12BIT

	for _, breakpoint := range dbg.Breakpoints {
		if breakpoint.Addr == addr {
			return false
		}
	}

	dbg.Breakpoints = append(dbg.Breakpoints, Breakpoint{addr})
	return true
}

func (dbg *Debugger) AddWatchpoint(addr uint16, wtype WatchpointType) bool {
	addr &= machine.MASK_12BIT

	for _, watchpoint := range dbg.Watchpoints {
		if watchpoint.Addr == addr && watchpoint.Type == wtype {
			return false
		}
	}

	dbg.Watchpoints = append(dbg.Watchpoints, Watchpoint{addr, wtype})
	return true
}

func (dbg *Debugger) watching(addr uint16, wtype WatchpointType) bool {
	for _, watchpoint := range dbg.Watchpoints {
		if watchpoint.Type&wtype != 0 && watchpoint.Addr == addr {
			return true
		}
	}

	return false
}

// reads lists the data words the next instruction will read: the pointer of
// an indirect reference and the operand of AND, TAD and ISZ.
func reads(state machine.State, mem machine.MemoryReader) []uint16 {
	instruction := mem.Read(state.PC)
	opcode := instruction >> 9

	if opcode >= machine.OP_IOT {
		return nil
	}

	var result []uint16

	if instruction&machine.BIT_INDIRECT != 0 {
		result = append(result, machine.OperandAddress(
			instruction&^machine.BIT_INDIRECT, state.PC, mem,
		))
	}

	switch opcode {
	case machine.OP_AND, machine.OP_TAD, machine.OP_ISZ:
		result = append(result, machine.OperandAddress(instruction, state.PC, mem))
	}

	return result
}

// Check inspects the machine before its next instruction runs. A
// breakpoint on PC takes precedence over read watchpoints.
func (dbg *Debugger) Check(mc *machine.Machine) (Event, bool) {
	state, _ := mc.CurrentState()

	for _, breakpoint := range dbg.Breakpoints {
		if breakpoint.Addr == state.PC {
			return Event{Reason: BreakpointHit, Addr: state.PC}, true
		}
	}

	return dbg.checkReads(mc)
}

func (dbg *Debugger) checkReads(mc *machine.Machine) (Event, bool) {
	state, mem := mc.CurrentState()

	for _, addr := range reads(state, mem) {
		if dbg.watching(addr, ReadWatch) {
			return Event{Reason: ReadHit, Addr: addr}, true
		}
	}

	return Event{}, false
}

// CheckWrites inspects the change records in [begin, end) for write
// watchpoints.
func (dbg *Debugger) CheckWrites(mc *machine.Machine, begin, end int) (Event, bool) {
	for _, change := range mc.Memory().Changes(begin, end) {
		if dbg.watching(change.Addr, WriteWatch) {
			return Event{
				Reason: WriteHit,
				Addr:   change.Addr,
				Before: change.Before,
				After:  change.After,
			}, true
		}
	}

	return Event{}, false
}

// Next executes one instruction and reports any watchpoint it touched.
// Breakpoints are not consulted.
func (dbg *Debugger) Next(mc *machine.Machine) (Event, bool) {
	readEvent, readHit := dbg.checkReads(mc)

	begin := mc.Memory().Position()
	mc.Step()

	if dbg.AfterStep != nil {
		dbg.AfterStep(mc)
	}

	if event, hit := dbg.CheckWrites(mc, begin, mc.Memory().Position()); hit {
		return event, true
	}

	return readEvent, readHit
}

// Run steps the running machine at most limit times, stopping at
// breakpoints, watchpoints, a halt or an interrupt. The instruction at the
// starting PC is never stopped by a breakpoint so that a stopped machine
// can be continued.
func (dbg *Debugger) Run(mc *machine.Machine, limit int) (Event, bool) {
	for i := 0; i < limit; i++ {
		state, _ := mc.CurrentState()

		if !state.Running {
			return Event{Reason: Halted, Addr: state.PC}, true
		}

		if dbg.interrupt.Swap(false) {
			return Event{Reason: Interrupted, Addr: state.PC}, true
		}

		if i > 0 {
			for _, breakpoint := range dbg.Breakpoints {
				if breakpoint.Addr == state.PC {
					return Event{Reason: BreakpointHit, Addr: state.PC}, true
				}
			}
		}

		if event, hit := dbg.Next(mc); hit {
			return event, true
		}
	}

	return Event{}, false
}

func (dbg *Debugger) PrintEvent(event Event) {
	switch event.Reason {
	case WriteHit:
		fmt.Fprintf(
			dbg.Output, "Program stopped: %s [%04o] %04o -> %04o\n",
			event.Reason, event.Addr, event.Before, event.After,
		)
	case NoStop:
	default:
		fmt.Fprintf(dbg.Output, "Program stopped: %s [%04o]\n", event.Reason, event.Addr)
	}
}

func (dbg *Debugger) PrintState(state machine.State) {
	link := 0
	if state.Link {
		link = 1
	}

	run := "HLT"
	if state.Running {
		run = "RUN"
	}

	fmt.Fprintf(
		dbg.Output,
		"%s %04o (%d)  %s %d  %s %04o  %s %04o  %s %04o  %s %04o  %s %04o  %s %04o  %s\n",
		dbg.paint(colorAddr, "AC:"), state.Acc, encoding.SignExtend(state.Acc),
		dbg.paint(colorAddr, "L:"), link,
		dbg.paint(colorAddr, "PC:"), state.PC,
		dbg.paint(colorAddr, "IR:"), state.IR,
		dbg.paint(colorAddr, "MA:"), state.MA,
		dbg.paint(colorAddr, "MB:"), state.MB,
		dbg.paint(colorAddr, "LSW:"), state.LSW,
		dbg.paint(colorAddr, "RSW:"), state.RSW,
		run,
	)
}

func (dbg *Debugger) PrintSource(addr uint16, count uint16) {
	if dbg.Source == nil {
		fmt.Fprintln(dbg.Output, "No source file loaded")
		return
	}

	if dbg.SymTable == nil {
		fmt.Fprintln(dbg.Output, "No symbol table loaded")
		return
	}

	offset, exists := dbg.SymTable.Symbols[addr]

	if !exists {
		fmt.Fprintf(dbg.Output, "No instruction found at %04o\n", addr)
		return
	}

	if _, err := dbg.Source.Seek(offset, io.SeekStart); err != nil {
		fmt.Fprintln(dbg.Output, err)
		return
	}

	lines := make(map[int64]uint16, len(dbg.SymTable.Symbols))
	for lineaddr, linebyte := range dbg.SymTable.Symbols {
		lines[linebyte] = lineaddr
	}

	scanner := bufio.NewScanner(dbg.Source)
	scanner.Split(bufio.ScanLines)

	for i := uint16(0); i < count; i++ {
		if !scanner.Scan() {
			break
		}

		line := scanner.Text()

		if lineaddr, found := lines[offset]; found {
			color := colorAddr
			if lineaddr == addr {
				color = colorPC
			}
			fmt.Fprintf(dbg.Output, "%s ", dbg.paint(color, fmt.Sprintf("[%04o]", lineaddr)))
		} else {
			fmt.Fprintf(dbg.Output, "%s ", dbg.paint(colorFaint, "~~~~~~"))
		}

		fmt.Fprintln(dbg.Output, line)

		offset += int64(len(line) + 1)
	}

	if err := scanner.Err(); err != nil {
		fmt.Fprintln(dbg.Output, err)
	}
}

// PrintDisassembly lists count words from addr as instructions.
func (dbg *Debugger) PrintDisassembly(mem machine.MemoryReader, pc, addr, count uint16) {
	for i := uint16(0); i < count; i++ {
		at := (addr + i) & machine.MASK_12BIT
		word := mem.Read(at)

		color := colorAddr
		if at == pc {
			color = colorPC
		}

		label := ""
		if dbg.SymTable != nil {
			if name, ok := dbg.SymTable.Labels[at]; ok {
				label = name + ","
			}
		}

		fmt.Fprintf(
			dbg.Output, "%s %04o  %-8s%s\n",
			dbg.paint(color, fmt.Sprintf("[%04o]", at)),
			word, label, assembler.Disassemble(word, at),
		)
	}
}

func (dbg *Debugger) PrintMem(mem machine.MemoryReader, addr, count uint16) {
	for i := uint16(0); i < count; i++ {
		at := (addr + i) & machine.MASK_12BIT

		if i == 0 {
			fmt.Fprintf(dbg.Output, "%s ", dbg.paint(colorAddr, fmt.Sprintf("[%04o]", at)))
		} else if i%8 == 0 {
			fmt.Fprintln(dbg.Output)
			fmt.Fprintf(dbg.Output, "%s ", dbg.paint(colorAddr, fmt.Sprintf("[%04o]", at)))
		}

		word := mem.Read(at)

		if word == 0 {
			fmt.Fprintf(dbg.Output, "%s ", dbg.paint(colorFaint, "0000"))
		} else {
			fmt.Fprintf(dbg.Output, "%04o ", word)
		}
	}

	fmt.Fprintln(dbg.Output)
}

func (dbg *Debugger) PrintLabels() {
	if dbg.SymTable == nil {
		fmt.Fprintln(dbg.Output, "No symbol table loaded")
		return
	}

	keys := make([]uint16, 0, len(dbg.SymTable.Labels))
	for addr := range dbg.SymTable.Labels {
		keys = append(keys, addr)
	}

	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })

	for _, addr := range keys {
		fmt.Fprintf(
			dbg.Output, "%s %s\n",
			dbg.paint(colorAddr, fmt.Sprintf("[%04o]", addr)), dbg.SymTable.Labels[addr],
		)
	}
}
