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
	"io"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

func discardLogger() *log.Logger {
	logger := log.New()
	logger.SetOutput(io.Discard)
	logger.SetLevel(log.PanicLevel)
	return logger
}

// New creates a machine with an empty device registry. The initial state
// becomes history entry 0.
func New(state State, mem *Memory) *Machine {
	if mem == nil {
		mem = NewMemory(nil)
	}

	return &Machine{
		memory:  mem,
		devices: &Devices{},
		history: []HistoryEntry{{
			State:    state.Masked(),
			Begin:    mem.Position(),
			Position: mem.Position(),
		}},
		log: discardLogger(),
	}
}

// NewASR33 creates a machine with the console keyboard and teleprinter
// installed.
func NewASR33(state State, mem *Memory) *Machine {
	mc := New(state, mem)
	mc.devices = NewConsoleDevices()
	return mc
}

// Masked returns state with every register truncated to 12 bits.
func (state State) Masked() State {
	state.Acc &= MASK_12BIT
	state.PC &= MASK_12BIT
	state.IR &= MASK_12BIT
	state.MA &= MASK_12BIT
	state.MB &= MASK_12BIT
	state.LSW &= MASK_12BIT
	state.RSW &= MASK_12BIT
	return state
}

func (mc *Machine) SetLogger(logger *log.Logger) {
	if logger == nil {
		logger = discardLogger()
	}

	mc.log = logger
}

func (mc *Machine) RegisterDevice(device Device) error {
	if err := mc.devices.Register(device); err != nil {
		return err
	}

	mc.log.WithField("selector", device.Selector()).Debugf("registered %T", device)
	return nil
}

// Devices exposes the registry for lookups of devices at other selectors.
func (mc *Machine) Devices() *Devices {
	return mc.devices
}

func (mc *Machine) Keyboard() (*Keyboard, error) {
	return DeviceAs[*Keyboard](mc.devices, KEYBOARD_SELECTOR)
}

func (mc *Machine) Teleprinter() (*Teleprinter, error) {
	return DeviceAs[*Teleprinter](mc.devices, TELEPRINTER_SELECTOR)
}

// CurrentState returns the registers at the cursor and read access to
// memory.
func (mc *Machine) CurrentState() (State, MemoryReader) {
	return mc.history[mc.cursor].State, mc.memory
}

func (mc *Machine) Memory() MemoryReader {
	return mc.memory
}

// Cursor is the index of the current history entry.
func (mc *Machine) Cursor() int {
	return mc.cursor
}

// Len is the number of history entries, including the initial one.
func (mc *Machine) Len() int {
	return len(mc.history)
}

func (mc *Machine) History(i int) HistoryEntry {
	return mc.history[i]
}

func (mc *Machine) AtTip() bool {
	return mc.cursor == len(mc.history)-1
}

func (mc *Machine) push(state State, begin int) {
	mc.history = append(mc.history, HistoryEntry{
		State:    state.Masked(),
		Begin:    begin,
		Position: mc.memory.Position(),
	})
	mc.cursor = len(mc.history) - 1
}

// Step executes the next instruction. When the cursor has been moved back,
// Step instead redoes the memory effects of the next recorded entry without
// executing anything.
func (mc *Machine) Step() {
	if !mc.AtTip() {
		mc.cursor++
		entry := mc.history[mc.cursor]

		for position := entry.Begin + 1; position <= entry.Position; position++ {
			mc.memory.ReplayForward(position)
		}

		if mc.log.IsLevelEnabled(log.DebugLevel) {
			mc.log.WithFields(log.Fields{
				"cursor": mc.cursor,
				"pc":     entry.State.PC,
			}).Debug("redo")
		}

		return
	}

	begin := mc.memory.Position()
	instruction, state := Fetch(mc.history[mc.cursor].State, mc.memory)
	state = Exec(instruction, (state.PC-1)&MASK_12BIT, state, mc.memory, mc.devices)
	mc.push(state, begin)

	if mc.log.IsLevelEnabled(log.DebugLevel) {
		mc.log.WithFields(log.Fields{
			"cursor": mc.cursor,
			"ir":     instruction,
			"pc":     state.PC,
			"acc":    state.Acc,
			"link":   state.Link,
		}).Debug("step")
	}
}

// StepBack undoes the memory effects of the current entry and moves the
// cursor to the previous one. It reports false when already at the initial
// entry.
func (mc *Machine) StepBack() bool {
	if mc.cursor <= 0 {
		return false
	}

	entry := mc.history[mc.cursor]

	for position := entry.Position; position > entry.Begin; position-- {
		mc.memory.ReplayBackward(position)
	}

	mc.cursor--

	if mc.log.IsLevelEnabled(log.DebugLevel) {
		mc.log.WithFields(log.Fields{
			"cursor": mc.cursor,
			"pc":     mc.history[mc.cursor].State.PC,
		}).Debug("undo")
	}

	return true
}

// ChangeState applies an external mutation to the current state and memory
// and records the result as a new history entry. It is refused unless the
// cursor is at the end of history.
func (mc *Machine) ChangeState(f func(State, *Memory, *Devices) State) error {
	if !mc.AtTip() {
		return errors.Wrapf(
			ErrNotAtTip, "cursor %d of %d", mc.cursor, len(mc.history)-1,
		)
	}

	begin := mc.memory.Position()
	state := f(mc.history[mc.cursor].State, mc.memory, mc.devices)
	mc.push(state, begin)

	mc.log.WithField("cursor", mc.cursor).Debug("state changed")
	return nil
}
