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

package host

import (
	"context"
	"io"
	"time"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/lassandro/gopdp12/pkg/machine"
)

const (
	DEFAULT_FRAME    = 15 * time.Millisecond
	DEFAULT_INTERVAL = time.Second / 60
)

// Runner drives a machine in wall-clock bounded frames, the way a display
// loop would. It owns the machine while running; nothing else may touch it
// until Run returns.
type Runner struct {
	Machine *machine.Machine
	Input   io.Reader
	Output  io.Writer

	// Time spent stepping per frame and the period between frame starts
	Frame    time.Duration
	Interval time.Duration

	// Upper bound on instructions per frame, zero for no bound
	MaxSteps int

	Log *log.Logger

	keys chan byte
}

func NewRunner(mc *machine.Machine, input io.Reader, output io.Writer) *Runner {
	return &Runner{
		Machine:  mc,
		Input:    input,
		Output:   output,
		Frame:    DEFAULT_FRAME,
		Interval: DEFAULT_INTERVAL,
		Log:      log.StandardLogger(),
	}
}

// readInput forwards Input to keys until it fails or done is closed. A Read
// already blocked when done closes returns only when Input does.
func (r *Runner) readInput(keys chan<- byte, done <-chan struct{}) {
	defer close(keys)

	buffer := make([]byte, 64)

	for {
		n, err := r.Input.Read(buffer)

		for _, key := range buffer[:n] {
			select {
			case keys <- key:
			case <-done:
				return
			}
		}

		if err != nil {
			if err != io.EOF {
				r.Log.WithError(err).Warn("keyboard input closed")
			}
			return
		}
	}
}

func (r *Runner) feedKeyboard(kb *machine.Keyboard) {
	if kb == nil || r.keys == nil || kb.Ready() {
		return
	}

	select {
	case key, ok := <-r.keys:
		if !ok {
			r.keys = nil
			return
		}
		kb.Push(key)
	default:
	}
}

func (r *Runner) drainTeleprinter(tp *machine.Teleprinter) error {
	if tp == nil || r.Output == nil {
		return nil
	}

	if char, ok := tp.Pop(); ok {
		if _, err := r.Output.Write([]byte{char}); err != nil {
			return errors.Wrap(err, "teleprinter output")
		}
	}

	return nil
}

// RunFrame steps the machine until the frame budget is spent or it halts.
// It reports whether the machine is still running.
func (r *Runner) RunFrame() (bool, error) {
	kb, _ := r.Machine.Keyboard()
	tp, _ := r.Machine.Teleprinter()

	frame := r.Frame
	if frame <= 0 {
		frame = DEFAULT_FRAME
	}

	start := time.Now()
	count := 0

	for {
		if state, _ := r.Machine.CurrentState(); !state.Running {
			r.logFrame(count, start)
			return false, nil
		}

		if r.MaxSteps > 0 && count >= r.MaxSteps {
			break
		}

		if time.Since(start) >= frame {
			break
		}

		r.feedKeyboard(kb)
		r.Machine.Step()
		count++

		if err := r.drainTeleprinter(tp); err != nil {
			return false, err
		}
	}

	r.logFrame(count, start)
	return true, nil
}

func (r *Runner) logFrame(count int, start time.Time) {
	if r.Log != nil && r.Log.IsLevelEnabled(log.DebugLevel) {
		state, _ := r.Machine.CurrentState()
		r.Log.WithFields(log.Fields{
			"steps":   count,
			"elapsed": time.Since(start),
			"pc":      state.PC,
		}).Debug("frame")
	}
}

// Run repeats frames until the machine halts or ctx is done. Input is read
// on a separate goroutine and handed to the keyboard one byte at a time,
// only while the keyboard flag is clear.
func (r *Runner) Run(ctx context.Context) error {
	if r.Log == nil {
		r.Log = log.StandardLogger()
	}

	if r.Input != nil && r.keys == nil {
		done := make(chan struct{})
		defer close(done)

		r.keys = make(chan byte, 256)
		go r.readInput(r.keys, done)
	}

	interval := r.Interval
	if interval <= 0 {
		interval = DEFAULT_INTERVAL
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		running, err := r.RunFrame()

		if err != nil {
			return err
		} else if !running {
			return nil
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}
