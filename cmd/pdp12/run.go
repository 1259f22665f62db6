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
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/lassandro/gopdp12/pkg/debugger"
	"github.com/lassandro/gopdp12/pkg/host"
	"github.com/lassandro/gopdp12/pkg/machine"
	"github.com/lassandro/gopdp12/pkg/store"
)

var runCmd = &cobra.Command{
	Use:   "run [flags] program",
	Short: "run a program with the console attached to the terminal.",
	Long: `Run a program until it halts or Ctrl-C is pressed. Keys typed
	on the terminal go to the console keyboard and the teleprinter
	prints to standard output.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		mc, _, err := newMachine(cmd, args)
		if err != nil {
			return err
		}

		frame, err := cmd.Flags().GetDuration("frame")
		if err != nil {
			return err
		}

		ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
		defer cancel()

		rt, err := enterRawTerm()
		if err != nil {
			return err
		}

		var input io.Reader = os.Stdin

		if rt.Raw() {
			input = &keyReader{fd: rt.fd, interrupt: cancel, done: ctx.Done()}
		}

		runner := host.NewRunner(mc, input, os.Stdout)
		runner.Frame = frame

		start := time.Now()
		err = runner.Run(ctx)
		rt.Exit()

		state, _ := mc.CurrentState()

		log.WithFields(log.Fields{
			"steps":   mc.Len() - 1,
			"elapsed": time.Since(start),
		}).Debug("stopped")

		if err != nil && err != context.Canceled {
			return err
		}

		if state.Running {
			fmt.Fprintln(os.Stderr)
			fmt.Fprintln(os.Stderr, "Program interrupted")
		}

		printState(os.Stderr, state)

		if name := getString(cmd, "save"); name != "" {
			return saveSnapshot(cmd, name, mc)
		}

		return nil
	},
}

func printState(writer io.Writer, state machine.State) {
	dbg := debugger.New(writer)
	dbg.Plain = true
	dbg.PrintState(state)
}

func saveSnapshot(cmd *cobra.Command, name string, mc *machine.Machine) error {
	st, err := openStore(cmd)
	if err != nil {
		return err
	}

	defer st.Close()

	if err := st.Save(name, store.Capture(mc)); err != nil {
		return err
	}

	log.WithField("name", name).Info("snapshot saved")
	return nil
}

func init() {
	rootCmd.AddCommand(runCmd)
	addMachineFlags(runCmd)
	runCmd.Flags().Duration("frame", host.DEFAULT_FRAME, "time spent executing per frame")
	runCmd.Flags().String("save", "", "save a snapshot under this name when the program stops")
}
