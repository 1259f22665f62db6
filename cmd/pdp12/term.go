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
	"io"
	"os"
	"time"

	"github.com/pkg/errors"
	"golang.org/x/sys/unix"
	"golang.org/x/term"
)

const ETX = 0x03

type rawTerm struct {
	fd       int
	restore  *term.State
	nonblock bool
}

// enterRawTerm puts stdin in raw non-blocking mode. It does nothing when
// stdin is not a terminal.
func enterRawTerm() (*rawTerm, error) {
	rt := &rawTerm{fd: int(os.Stdin.Fd())}

	if !term.IsTerminal(rt.fd) {
		return rt, nil
	}

	state, err := term.MakeRaw(rt.fd)
	if err != nil {
		return nil, errors.Wrap(err, "entering raw terminal mode")
	}

	rt.restore = state

	if err := unix.SetNonblock(rt.fd, true); err != nil {
		term.Restore(rt.fd, rt.restore)
		return nil, errors.Wrap(err, "setting non-blocking stdin")
	}

	rt.nonblock = true
	return rt, nil
}

func (rt *rawTerm) Raw() bool {
	return rt.restore != nil
}

func (rt *rawTerm) Exit() {
	if rt.nonblock {
		unix.SetNonblock(rt.fd, false)
		rt.nonblock = false
	}

	if rt.restore != nil {
		term.Restore(rt.fd, rt.restore)
		rt.restore = nil
	}
}

// keyReader polls the raw terminal. Ctrl-C is not passed on to the machine
// but calls interrupt.
type keyReader struct {
	fd        int
	interrupt func()
	done      <-chan struct{}
}

func (kr *keyReader) Read(p []byte) (int, error) {
	for {
		n, err := unix.Read(kr.fd, p)

		if n > 0 {
			out := p[:0]

			for _, key := range p[:n] {
				if key == ETX {
					kr.interrupt()
					continue
				}
				out = append(out, key)
			}

			if len(out) > 0 {
				return len(out), nil
			}
			continue
		}

		if err == nil {
			return 0, io.EOF
		} else if err != unix.EAGAIN {
			return 0, err
		}

		select {
		case <-kr.done:
			return 0, io.EOF
		case <-time.After(5 * time.Millisecond):
		}
	}
}
