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
	"os"

	"github.com/spf13/cobra"
)

var snapshotCmd = &cobra.Command{
	Use:   "snapshot",
	Short: "manage saved machine snapshots.",
}

var snapshotSaveCmd = &cobra.Command{
	Use:   "save [flags] name [program]",
	Short: "save a program as a snapshot without running it.",
	Args:  cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		mc, _, err := newMachine(cmd, args[1:])
		if err != nil {
			return err
		}

		return saveSnapshot(cmd, args[0], mc)
	},
}

var snapshotListCmd = &cobra.Command{
	Use:   "list",
	Short: "list saved snapshots.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := openStore(cmd)
		if err != nil {
			return err
		}

		defer st.Close()

		names, err := st.List()
		if err != nil {
			return err
		}

		for _, name := range names {
			snap, err := st.Load(name)
			if err != nil {
				return err
			}

			status := "halted"
			if snap.State.Running {
				status = "running"
			}

			fmt.Printf("%-20s PC %04o %s\n", name, snap.State.PC, status)
		}

		return nil
	},
}

var snapshotShowCmd = &cobra.Command{
	Use:   "show name",
	Short: "print the registers of a snapshot.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := openStore(cmd)
		if err != nil {
			return err
		}

		defer st.Close()

		snap, err := st.Load(args[0])
		if err != nil {
			return err
		}

		printState(os.Stdout, snap.State)
		return nil
	},
}

var snapshotRemoveCmd = &cobra.Command{
	Use:     "rm name...",
	Aliases: []string{"remove", "delete"},
	Short:   "delete snapshots.",
	Args:    cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := openStore(cmd)
		if err != nil {
			return err
		}

		defer st.Close()

		for _, name := range args {
			if err := st.Delete(name); err != nil {
				return err
			}
		}

		return nil
	},
}

func init() {
	rootCmd.AddCommand(snapshotCmd)
	snapshotCmd.AddCommand(snapshotSaveCmd, snapshotListCmd, snapshotShowCmd, snapshotRemoveCmd)
	addMachineFlags(snapshotSaveCmd)
}
