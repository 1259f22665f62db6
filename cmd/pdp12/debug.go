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

package main

import (
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/chzyer/readline"
	"github.com/mgutz/ansi"
	"github.com/pkg/errors"
	"github.com/shibukawa/configdir"
	"github.com/spf13/cobra"

	"github.com/lassandro/gopdp12/pkg/debugger"
	"github.com/lassandro/gopdp12/pkg/encoding"
	"github.com/lassandro/gopdp12/pkg/machine"
)

const CONTINUE_LIMIT = 1 << 22

var debugCmd = &cobra.Command{
	Use:   "debug [flags] program",
	Short: "run a program under the interactive debugger.",
	Long: `Load a program and open a debugger prompt. The machine can be
	stepped forwards and backwards, and breakpoints and watchpoints stop
	execution. Type 'help' for the list of commands.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		mc, symtable, err := newMachine(cmd, args)
		if err != nil {
			return err
		}

		rl, err := readline.NewEx(&readline.Config{
			Prompt:          ansi.Color("(dbg)", "black+h") + " ",
			HistoryFile:     historyPath(),
			AutoComplete:    completer,
			InterruptPrompt: "^C",
		})
		if err != nil {
			return err
		}

		defer rl.Close()

		dbg := debugger.New(rl.Stdout())
		dbg.SymTable = symtable

		if symtable != nil && symtable.Source != "" {
			if file, err := os.Open(symtable.Source); err == nil {
				dbg.Source = file
				defer file.Close()
			}
		}

		session := &debugSession{cmd: cmd, dbg: dbg, mc: mc, rl: rl, out: rl.Stdout()}
		dbg.AfterStep = session.drainTeleprinter
		session.repl()

		return nil
	},
}

var completer = readline.NewPrefixCompleter(
	readline.PcItem("break", readline.PcItem("add"), readline.PcItem("list"),
		readline.PcItem("remove"), readline.PcItem("clear")),
	readline.PcItem("watch", readline.PcItem("add"), readline.PcItem("list"),
		readline.PcItem("remove"), readline.PcItem("clear")),
	readline.PcItem("step"),
	readline.PcItem("back"),
	readline.PcItem("continue"),
	readline.PcItem("registers"),
	readline.PcItem("memory"),
	readline.PcItem("disassemble"),
	readline.PcItem("source"),
	readline.PcItem("labels"),
	readline.PcItem("jump"),
	readline.PcItem("set"),
	readline.PcItem("examine"),
	readline.PcItem("fill"),
	readline.PcItem("do"),
	readline.PcItem("switches"),
	readline.PcItem("start"),
	readline.PcItem("stop"),
	readline.PcItem("key"),
	readline.PcItem("history"),
	readline.PcItem("save"),
	readline.PcItem("help"),
	readline.PcItem("quit"),
)

func historyPath() string {
	cacheDir := configdir.New("pdp12", "debug").QueryCacheFolder()

	if err := cacheDir.MkdirAll(); err != nil {
		return ""
	}

	return filepath.Join(cacheDir.Path, "history")
}

type debugSession struct {
	cmd *cobra.Command
	dbg *debugger.Debugger
	mc  *machine.Machine
	rl  *readline.Instance
	out io.Writer

	lastcmd []string
}

func (s *debugSession) println(a ...interface{}) {
	fmt.Fprintln(s.out, a...)
}

func (s *debugSession) printf(format string, a ...interface{}) {
	fmt.Fprintf(s.out, format, a...)
}

func (s *debugSession) drainTeleprinter(mc *machine.Machine) {
	tp, err := mc.Teleprinter()
	if err != nil {
		return
	}

	if char, ok := tp.Pop(); ok {
		s.out.Write([]byte{char})
	}
}

// parseAddr accepts a label or a number, octal unless prefixed.
func (s *debugSession) parseAddr(arg string) (uint16, error) {
	if s.dbg.SymTable != nil {
		if addr, ok := s.dbg.SymTable.Lookup(arg); ok {
			return addr, nil
		}
	}

	return encoding.DecodeWord(arg)
}

func parseCount(arg string) (uint16, error) {
	value, err := strconv.ParseUint(arg, 10, 12)
	return uint16(value), errors.Wrapf(err, "count %q", arg)
}

func (s *debugSession) state() (machine.State, machine.MemoryReader) {
	return s.mc.CurrentState()
}

func (s *debugSession) report(event debugger.Event, hit bool) {
	if hit {
		s.println()
		s.dbg.PrintEvent(event)
	}

	state, _ := s.state()
	s.dbg.PrintState(state)
}

func (s *debugSession) repl() {
	for {
		line, err := s.rl.Readline()

		if err == readline.ErrInterrupt {
			continue
		} else if err != nil {
			s.println()
			return
		}

		args := strings.Fields(line)

		if len(args) == 0 {
			if len(s.lastcmd) == 0 {
				continue
			}
			args = s.lastcmd
		} else {
			s.lastcmd = args
		}

		if !s.exec(args[0], args[1:]) {
			return
		}
	}
}

// exec runs one command and reports whether the prompt should continue.
func (s *debugSession) exec(cmd string, args []string) bool {
	var err error

	switch cmd {
	case "b", "bp", "break", "breakpoint":
		s.debugBreak(args)

	case "w", "wp", "watch", "watchpoint":
		s.debugWatch(args)

	case "n", "next", "s", "step":
		err = s.debugStep(args)

	case "u", "undo", "back":
		err = s.debugBack(args)

	case "c", "continue":
		s.debugContinue()

	case "r", "reg", "register", "registers":
		err = s.debugReg(args)

	case "m", "mem", "memory":
		err = s.debugMemory(args)

	case "d", "dis", "disassemble":
		err = s.debugDisassemble(args)

	case "src", "source":
		err = s.debugSource(args)

	case "l", "label", "labels":
		s.dbg.PrintLabels()

	case "j", "jmp", "jump":
		err = s.debugJump(args)

	case "set":
		err = s.debugSet(args)

	case "x", "ex", "examine":
		err = s.debugExamine(args)

	case "f", "fill":
		err = s.debugFill(args)

	case "do":
		err = s.debugDo(args)

	case "sw", "switches":
		err = s.debugSwitches(args)

	case "start":
		err = s.debugStart(args)

	case "stop":
		err = s.mc.Stop()

	case "k", "key":
		err = s.debugKey(args)

	case "hist", "history":
		s.printf("Entry %d of %d\n", s.mc.Cursor(), s.mc.Len()-1)

	case "save":
		if len(args) != 1 {
			s.println("save [name]")
			break
		}
		err = saveSnapshot(s.cmd, args[0], s.mc)

	case "clear":
		s.printf("\033[H\033[2J")

	case "h", "help":
		s.println(debugHelp)

	case "q", "quit", "exit":
		return false

	default:
		s.printf("error: '%s' is not a valid command\n", cmd)
	}

	if err != nil {
		s.printf("error: %v\n", err)
	}

	return true
}

const debugHelp = `step [#]              execute instructions
back [#]              undo instructions
continue              run until a breakpoint, watchpoint or halt
break add|list|rm     manage breakpoints
watch add|list|rm     manage watchpoints (read, write, readwrite)
registers [reg val]   show or set AC, L, PC, LSW, RSW
memory [addr] [#]     dump memory
disassemble [addr] [#]
source [addr] [#]     show source lines
labels                list labels
jump addr             set PC
set addr value        deposit a word
examine [addr]        front panel EXAM (next address without one)
fill [addr] value     front panel FILL (next address without one)
do word               front panel DO
switches lsw rsw      load the switch registers
start addr | stop     set or clear the run flag
key char|#code        type a key on the console keyboard
history               show the history position
save name             save a snapshot
quit`

func (s *debugSession) debugBreak(args []string) {
	const usage = "break [add|list|remove|clear]"

	if len(args) == 0 {
		args = append(args, "l")
	}

	cmd := args[0]
	args = args[1:]

	switch cmd {
	case "a", "add":
		if len(args) != 1 {
			s.println("break add [addr|label]")
			return
		}

		addr, err := s.parseAddr(args[0])
		if err != nil {
			s.println(err)
			return
		}

		if s.dbg.AddBreakpoint(addr) {
			s.printf("Breakpoint added [%04o]\n", addr)
		}

	case "l", "ls", "list":
		for i, breakpoint := range s.dbg.Breakpoints {
			s.printf("#%d: %04o\n", i, breakpoint.Addr)
		}

	case "r", "rm", "remove":
		if len(args) != 1 {
			s.println("break remove [#]")
			return
		}

		i, err := strconv.Atoi(args[0])
		if err != nil || i < 0 || i >= len(s.dbg.Breakpoints) {
			s.println("Invalid breakpoint number")
			return
		}

		s.dbg.Breakpoints = append(s.dbg.Breakpoints[:i], s.dbg.Breakpoints[i+1:]...)
		s.printf("Breakpoint removed [%d]\n", i)

	case "clear":
		s.dbg.Breakpoints = nil
		s.println("Breakpoints reset")

	default:
		s.println(usage)
	}
}

func (s *debugSession) debugWatch(args []string) {
	const usage = "watch [add|list|remove|clear]"

	if len(args) == 0 {
		args = append(args, "l")
	}

	cmd := args[0]
	args = args[1:]

	switch cmd {
	case "a", "add":
		const usage = "watch add [addr|label] [read|write|readwrite]"

		if len(args) != 2 {
			s.println(usage)
			return
		}

		addr, err := s.parseAddr(args[0])
		if err != nil {
			s.println(err)
			return
		}

		var wtype debugger.WatchpointType

		switch args[1] {
		case "r", "read":
			wtype = debugger.ReadWatch
		case "w", "write":
			wtype = debugger.WriteWatch
		case "rw", "readwrite":
			wtype = debugger.ReadWriteWatch
		default:
			s.println(usage)
			return
		}

		if s.dbg.AddWatchpoint(addr, wtype) {
			s.printf("Watchpoint added [%04o] (%s)\n", addr, wtype)
		}

	case "l", "ls", "list":
		for i, watchpoint := range s.dbg.Watchpoints {
			s.printf("#%d: %04o %s\n", i, watchpoint.Addr, watchpoint.Type)
		}

	case "r", "rm", "remove":
		if len(args) != 1 {
			s.println("watch remove [#]")
			return
		}

		i, err := strconv.Atoi(args[0])
		if err != nil || i < 0 || i >= len(s.dbg.Watchpoints) {
			s.println("Invalid watchpoint number")
			return
		}

		s.dbg.Watchpoints = append(s.dbg.Watchpoints[:i], s.dbg.Watchpoints[i+1:]...)
		s.printf("Watchpoint removed [%d]\n", i)

	case "clear":
		s.dbg.Watchpoints = nil
		s.println("Watchpoints reset")

	default:
		s.println(usage)
	}
}

func (s *debugSession) debugStep(args []string) error {
	count := uint16(1)

	if len(args) > 0 {
		var err error
		if count, err = parseCount(args[0]); err != nil {
			return err
		}
	}

	var event debugger.Event
	var hit bool

	for i := uint16(0); i < count && !hit; i++ {
		event, hit = s.dbg.Next(s.mc)
	}

	s.report(event, hit)

	state, mem := s.state()
	s.dbg.PrintDisassembly(mem, state.PC, state.PC, 1)
	return nil
}

func (s *debugSession) debugBack(args []string) error {
	count := uint16(1)

	if len(args) > 0 {
		var err error
		if count, err = parseCount(args[0]); err != nil {
			return err
		}
	}

	for i := uint16(0); i < count; i++ {
		if !s.mc.StepBack() {
			s.println("At the start of history")
			break
		}
	}

	s.report(debugger.Event{}, false)
	return nil
}

func (s *debugSession) debugContinue() {
	interrupts := make(chan os.Signal, 1)
	signal.Notify(interrupts, os.Interrupt)

	done := make(chan struct{})
	go func() {
		select {
		case <-interrupts:
			s.dbg.Interrupt()
		case <-done:
		}
	}()

	event, hit := s.dbg.Run(s.mc, CONTINUE_LIMIT)

	close(done)
	signal.Stop(interrupts)

	if !hit {
		s.printf("Stopped after %d instructions\n", CONTINUE_LIMIT)
	}

	s.report(event, hit)

	if event.Reason == debugger.BreakpointHit {
		s.dbg.PrintSource(event.Addr, 4)
	}
}

func (s *debugSession) debugReg(args []string) error {
	state, _ := s.state()

	if len(args) == 0 {
		s.dbg.PrintState(state)
		return nil
	}

	if len(args) != 2 {
		s.println("registers [AC|L|PC|LSW|RSW] [value]")
		return nil
	}

	value, err := encoding.DecodeWord(args[1])
	if err != nil {
		return err
	}

	switch strings.ToUpper(args[0]) {
	case "AC":
		err = s.mc.SetRegisters(value, state.Link, state.PC)
	case "L":
		err = s.mc.SetRegisters(state.Acc, value&1 != 0, state.PC)
	case "PC":
		err = s.mc.SetRegisters(state.Acc, state.Link, value)
	case "LSW":
		err = s.mc.SetSwitches(value, state.RSW)
	case "RSW":
		err = s.mc.SetSwitches(state.LSW, value)
	default:
		return errors.Errorf("invalid register %q", args[0])
	}

	if err != nil {
		return err
	}

	state, _ = s.state()
	s.dbg.PrintState(state)
	return nil
}

// addrCount parses the optional [addr] [#] arguments shared by the listing
// commands.
func (s *debugSession) addrCount(args []string, count uint16) (uint16, uint16, error) {
	state, _ := s.state()
	addr := state.PC

	if len(args) > 2 {
		return 0, 0, errors.New("too many arguments")
	}

	if len(args) > 0 {
		var err error
		if addr, err = s.parseAddr(args[0]); err != nil {
			return 0, 0, err
		}
	}

	if len(args) > 1 {
		var err error
		if count, err = parseCount(args[1]); err != nil {
			return 0, 0, err
		}
	}

	return addr, count, nil
}

func (s *debugSession) debugMemory(args []string) error {
	addr, count, err := s.addrCount(args, 8)
	if err != nil {
		return err
	}

	_, mem := s.state()
	s.dbg.PrintMem(mem, addr, count)
	return nil
}

func (s *debugSession) debugDisassemble(args []string) error {
	addr, count, err := s.addrCount(args, 8)
	if err != nil {
		return err
	}

	state, mem := s.state()
	s.dbg.PrintDisassembly(mem, state.PC, addr, count)
	return nil
}

func (s *debugSession) debugSource(args []string) error {
	addr, count, err := s.addrCount(args, 3)
	if err != nil {
		return err
	}

	s.dbg.PrintSource(addr, count)
	return nil
}

func (s *debugSession) debugJump(args []string) error {
	if len(args) != 1 {
		s.println("jump [addr|label]")
		return nil
	}

	addr, err := s.parseAddr(args[0])
	if err != nil {
		return err
	}

	state, _ := s.state()
	if err := s.mc.SetRegisters(state.Acc, state.Link, addr); err != nil {
		return err
	}

	s.printf("PC: %04o\n", addr)
	return nil
}

func (s *debugSession) debugSet(args []string) error {
	if len(args) != 2 {
		s.println("set [addr|label] [value]")
		return nil
	}

	addr, err := s.parseAddr(args[0])
	if err != nil {
		return err
	}

	value, err := encoding.DecodeWord(args[1])
	if err != nil {
		return err
	}

	if err := s.mc.Deposit(addr, value); err != nil {
		return err
	}

	_, mem := s.state()
	s.dbg.PrintMem(mem, addr, 1)
	return nil
}

func (s *debugSession) printPanel() {
	state, _ := s.state()
	s.printf("MA: %04o  MB: %04o\n", state.MA, state.MB)
}

func (s *debugSession) debugExamine(args []string) error {
	state, _ := s.state()
	var err error

	if len(args) == 0 {
		err = s.mc.Examine(state.LSW, true)
	} else {
		var addr uint16
		if addr, err = s.parseAddr(args[0]); err != nil {
			return err
		}
		err = s.mc.Examine(addr, false)
	}

	if err != nil {
		return err
	}

	s.printPanel()
	return nil
}

func (s *debugSession) debugFill(args []string) error {
	state, _ := s.state()

	switch len(args) {
	case 1:
		value, err := encoding.DecodeWord(args[0])
		if err != nil {
			return err
		}

		if err := s.mc.Fill(state.LSW, value, true); err != nil {
			return err
		}

	case 2:
		addr, err := s.parseAddr(args[0])
		if err != nil {
			return err
		}

		value, err := encoding.DecodeWord(args[1])
		if err != nil {
			return err
		}

		if err := s.mc.Fill(addr, value, false); err != nil {
			return err
		}

	default:
		s.println("fill [addr] [value]")
		return nil
	}

	s.printPanel()
	return nil
}

func (s *debugSession) debugDo(args []string) error {
	if len(args) != 1 {
		s.println("do [word]")
		return nil
	}

	word, err := encoding.DecodeWord(args[0])
	if err != nil {
		return err
	}

	if err := s.mc.Do(word); err != nil {
		return err
	}

	s.drainTeleprinter(s.mc)

	state, _ := s.state()
	s.dbg.PrintState(state)
	return nil
}

func (s *debugSession) debugSwitches(args []string) error {
	if len(args) != 2 {
		s.println("switches [lsw] [rsw]")
		return nil
	}

	lsw, err := encoding.DecodeWord(args[0])
	if err != nil {
		return err
	}

	rsw, err := encoding.DecodeWord(args[1])
	if err != nil {
		return err
	}

	return s.mc.SetSwitches(lsw, rsw)
}

func (s *debugSession) debugStart(args []string) error {
	state, _ := s.state()
	addr := state.PC

	if len(args) == 1 {
		var err error
		if addr, err = s.parseAddr(args[0]); err != nil {
			return err
		}
	}

	return s.mc.Start(addr)
}

func (s *debugSession) debugKey(args []string) error {
	if len(args) != 1 {
		s.println("key [char|#code]")
		return nil
	}

	kb, err := s.mc.Keyboard()
	if err != nil {
		return err
	}

	var key uint16

	if len(args[0]) == 1 {
		key = uint16(args[0][0])
	} else if key, err = encoding.DecodeWord(args[0]); err != nil {
		return err
	}

	if key > 0xFF {
		return errors.Errorf("key %#o does not fit in 8 bits", key)
	}

	kb.Push(uint8(key))
	return nil
}

func init() {
	rootCmd.AddCommand(debugCmd)
	addMachineFlags(debugCmd)
}
