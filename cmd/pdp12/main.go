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
	"encoding/gob"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/lassandro/gopdp12/pkg/assembler"
	"github.com/lassandro/gopdp12/pkg/encoding"
	"github.com/lassandro/gopdp12/pkg/image"
	"github.com/lassandro/gopdp12/pkg/machine"
	"github.com/lassandro/gopdp12/pkg/store"
)

const DEFAULT_STORE = ".pdp12-snapshots"

var rootCmd = &cobra.Command{
	Use:   "pdp12",
	Short: "A PDP-12 emulator running in 8-mode.",
	Long: `Runs 12-bit PDP-12 programs in 8-mode with the console
	keyboard and teleprinter attached. Programs are binary or JSON
	memory images, or assembler source.`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		log.SetOutput(os.Stderr)

		if getFlag(cmd, "verbose") {
			log.SetLevel(log.DebugLevel)
		}
	},
}

func init() {
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "increase logging verbosity")
	rootCmd.PersistentFlags().String("store", DEFAULT_STORE, "snapshot store directory")
}

func getFlag(cmd *cobra.Command, flag string) bool {
	r, err := cmd.Flags().GetBool(flag)
	if err != nil {
		log.Fatal(err)
	}

	return r
}

func getString(cmd *cobra.Command, flag string) string {
	r, err := cmd.Flags().GetString(flag)
	if err != nil {
		log.Fatal(err)
	}

	return r
}

// getWord reads a flag holding a 12-bit number, octal unless prefixed.
func getWord(cmd *cobra.Command, flag string) (uint16, error) {
	value, err := encoding.DecodeWord(getString(cmd, flag))
	return value, errors.Wrapf(err, "--%s", flag)
}

func openStore(cmd *cobra.Command) (*store.Store, error) {
	return store.Open(getString(cmd, "store"))
}

// loadProgram reads a memory image. Source files are assembled on the fly
// and yield their symbol table, binary images pick up a sibling .p12db.
func loadProgram(filename string, jsonFormat bool) (image.Image, *assembler.SymTable, error) {
	var result image.Image

	file, err := os.Open(filename)
	if err != nil {
		return result, nil, err
	}

	defer file.Close()

	switch ext := strings.ToLower(filepath.Ext(filename)); {
	case jsonFormat || ext == ".json":
		result, err = image.ReadJSON(file)
		return result, nil, errors.Wrap(err, filename)

	case ext == ".pal" || ext == ".asm":
		source, _ := filepath.Abs(filename)
		symtable := assembler.NewSymTable(source)

		program, errs := assembler.Assemble(file, symtable)

		if len(errs) > 0 {
			for _, err := range errs {
				log.Error(err)
			}

			return program, nil, errors.Errorf("%s: %d assembly errors", filename, len(errs))
		}

		return program, symtable, nil
	}

	result, err = image.ReadBinary(file)

	if err != nil {
		return result, nil, errors.Wrap(err, filename)
	}

	symtable, err := loadSymTable(symTablePath(filename))

	if err != nil && !os.IsNotExist(errors.Cause(err)) {
		log.WithError(err).Warn("ignoring symbol table")
	}

	return result, symtable, nil
}

func symTablePath(filename string) string {
	return strings.TrimSuffix(filename, filepath.Ext(filename)) + ".p12db"
}

func loadSymTable(filename string) (*assembler.SymTable, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, err
	}

	defer file.Close()

	var symtable assembler.SymTable

	if err := gob.NewDecoder(file).Decode(&symtable); err != nil {
		return nil, errors.Wrap(err, filename)
	}

	return &symtable, nil
}

// newMachine builds a machine from a program file, or from a saved
// snapshot when name is set.
func newMachine(cmd *cobra.Command, args []string) (*machine.Machine, *assembler.SymTable, error) {
	if name := getString(cmd, "snapshot"); name != "" {
		st, err := openStore(cmd)
		if err != nil {
			return nil, nil, err
		}

		defer st.Close()

		snap, err := st.Load(name)
		if err != nil {
			return nil, nil, err
		}

		mc := snap.Restore()
		mc.SetLogger(log.StandardLogger())
		return mc, nil, nil
	}

	if len(args) != 1 {
		return nil, nil, errors.New("expected a program file or --snapshot")
	}

	program, symtable, err := loadProgram(args[0], getFlag(cmd, "json"))
	if err != nil {
		return nil, nil, err
	}

	pc, err := getWord(cmd, "pc")
	if err != nil {
		return nil, nil, err
	}

	mc := machine.NewASR33(
		machine.State{PC: pc, Running: true}, machine.NewMemory(&program),
	)
	mc.SetLogger(log.StandardLogger())

	log.WithFields(log.Fields{
		"program": args[0],
		"pc":      encoding.FormatWord(pc),
	}).Debug("loaded")

	return mc, symtable, nil
}

func addMachineFlags(cmd *cobra.Command) {
	cmd.Flags().String("pc", "0200", "initial program counter")
	cmd.Flags().Bool("json", false, "read the program as a JSON memory image")
	cmd.Flags().String("snapshot", "", "start from a saved snapshot instead of a program")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
