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
)

// Devices maps the 64 IOT selectors to installed devices.
type Devices struct {
	slots [DEVICE_SLOTS]Device
}

// NewConsoleDevices returns a registry with the console keyboard and teleprinter
// installed at their conventional selectors.
func NewConsoleDevices() *Devices {
	devices := &Devices{}
	devices.slots[KEYBOARD_SELECTOR] = NewKeyboard()
	devices.slots[TELEPRINTER_SELECTOR] = NewTeleprinter()
	return devices
}

// Register installs device at its selector, replacing any previous occupant.
func (devices *Devices) Register(device Device) error {
	selector := device.Selector()

	if int(selector) >= DEVICE_SLOTS {
		return errors.Wrapf(ErrSelectorRange, "selector %#o", selector)
	}

	devices.slots[selector] = device
	return nil
}

// Dispatch hands an IOT to the device at selector. Empty slots leave the
// state untouched.
func (devices *Devices) Dispatch(selector uint8, subfunction uint16, state State) State {
	if int(selector) >= DEVICE_SLOTS || devices.slots[selector] == nil {
		return state
	}

	return devices.slots[selector].IOT(subfunction&0o7, state)
}

func (devices *Devices) At(selector uint8) (Device, error) {
	if int(selector) >= DEVICE_SLOTS {
		return nil, errors.Wrapf(ErrSelectorRange, "selector %#o", selector)
	}

	if devices.slots[selector] == nil {
		return nil, errors.Wrapf(ErrNoDevice, "selector %#o", selector)
	}

	return devices.slots[selector], nil
}

// DeviceAs returns the device at selector as the concrete kind D.
func DeviceAs[D Device](devices *Devices, selector uint8) (D, error) {
	var zero D

	device, err := devices.At(selector)

	if err != nil {
		return zero, err
	}

	typed, ok := device.(D)

	if !ok {
		return zero, errors.Wrapf(ErrWrongDevice, "selector %#o holds %T", selector, device)
	}

	return typed, nil
}

// Keyboard is the console keyboard. The host pushes keys, programs read them
// with KSF/KCC/KRS.
type Keyboard struct {
	selector uint8
	buffer   uint8
	ready    bool
}

func NewKeyboard() *Keyboard {
	return &Keyboard{selector: KEYBOARD_SELECTOR}
}

// NewKeyboardAt creates a keyboard answering to a non-default selector.
func NewKeyboardAt(selector uint8) *Keyboard {
	return &Keyboard{selector: selector}
}

func (kb *Keyboard) Selector() uint8 {
	return kb.selector
}

// Push latches key into the keyboard buffer and raises the ready flag.
func (kb *Keyboard) Push(key uint8) {
	kb.buffer = key
	kb.ready = true
}

func (kb *Keyboard) Ready() bool {
	return kb.ready
}

// KSF  |110|000011|001| Skip if keyboard flag
// KCC  |110|000011|010| Clear AC and keyboard flag
// KRS  |110|000011|100| Read keyboard buffer into AC
// KRB  |110|000011|110| KCC + KRS
func (kb *Keyboard) IOT(subfunction uint16, state State) State {
	if subfunction&IOT_SKIP != 0 && kb.ready {
		state.PC = (state.PC + 1) & MASK_12BIT
	}

	if subfunction&IOT_CLEAR != 0 {
		state.Acc = 0
		kb.ready = false
	}

	if subfunction&IOT_TRANSFER != 0 {
		state.Acc = uint16(kb.buffer)
		kb.ready = false
	}

	return state
}

// Teleprinter is the console printer. Programs load characters with TPC/TLS,
// the host pops them and thereby raises the printer flag again.
type Teleprinter struct {
	selector uint8
	buffer   uint8
	pending  bool
	ready    bool
}

func NewTeleprinter() *Teleprinter {
	return &Teleprinter{selector: TELEPRINTER_SELECTOR}
}

// NewTeleprinterAt creates a teleprinter answering to a non-default selector.
func NewTeleprinterAt(selector uint8) *Teleprinter {
	return &Teleprinter{selector: selector}
}

func (tp *Teleprinter) Selector() uint8 {
	return tp.selector
}

// Pop takes the pending character, if any, and marks the printer as done.
func (tp *Teleprinter) Pop() (uint8, bool) {
	tp.ready = true

	if !tp.pending {
		return 0, false
	}

	tp.pending = false
	return tp.buffer, true
}

// Pending reports whether a character is waiting to be popped.
func (tp *Teleprinter) Pending() bool {
	return tp.pending
}

func (tp *Teleprinter) Ready() bool {
	return tp.ready
}

// TSF  |110|000100|001| Skip if printer flag
// TCF  |110|000100|010| Clear printer flag
// TPC  |110|000100|100| Load printer buffer from AC
// TLS  |110|000100|110| TCF + TPC
func (tp *Teleprinter) IOT(subfunction uint16, state State) State {
	if subfunction&IOT_SKIP != 0 && tp.ready {
		state.PC = (state.PC + 1) & MASK_12BIT
	}

	if subfunction&IOT_CLEAR != 0 {
		tp.ready = false
	}

	if subfunction&IOT_TRANSFER != 0 {
		tp.buffer = uint8(state.Acc)
		tp.pending = true
	}

	return state
}
