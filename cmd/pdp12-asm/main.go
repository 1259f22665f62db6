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
	"bufio"
	"bytes"
	"encoding/gob"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/mgutz/ansi"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/lassandro/gopdp12/pkg/assembler"
	"github.com/lassandro/gopdp12/pkg/image"
)

var rootCmd = &cobra.Command{
	Use:   "pdp12-asm [flags] [file]",
	Short: "Assemble 8-mode source into a PDP-12 memory image.",
	Long: `Assemble 8-mode source into a memory image. Source is read from
	the named file, or from standard input when it is not a terminal.`,
	Args:         cobra.MaximumNArgs(1),
	SilenceUsage: true,
	RunE:         assemble,
}

func init() {
	rootCmd.Flags().BoolP("debug", "g", false,
		"write a symbol table next to the output, with extension '.p12db'")
	rootCmd.Flags().StringP("out", "o", "",
		"output filename, defaults to the input name with extension '.bin'")
	rootCmd.Flags().Bool("json", false, "write a JSON memory image")
	rootCmd.Flags().BoolP("verbose", "v", false, "increase logging verbosity")
}

// printErrors logs assembly errors, underlining the offending token when
// the source can be re-read.
func printErrors(errs []error, source io.ReadSeeker, prefix string) {
	for _, err := range errs {
		tokenErr, ok := err.(assembler.TokenError)

		if !ok || source == nil {
			log.Errorf("%s%v", prefix, err)
			continue
		}

		cursor := tokenErr.GetPosition()

		if _, err := source.Seek(cursor.LineByte, io.SeekStart); err != nil {
			log.Errorf("%s%v", prefix, tokenErr)
			continue
		}

		line, _ := bufio.NewReader(source).ReadString('\n')
		line = strings.TrimRight(line, "\r\n")

		underline := strings.Repeat(" ", int(cursor.Byte-cursor.LineByte)) +
			"^" + strings.Repeat("~", int(cursor.Size)-1)

		log.Errorf("%s%v\n%s\n%s", prefix, err, line, ansi.Color(underline, "red"))
	}
}

func assemble(cmd *cobra.Command, args []string) error {
	debug, _ := cmd.Flags().GetBool("debug")
	out, _ := cmd.Flags().GetString("out")
	jsonFormat, _ := cmd.Flags().GetBool("json")

	if verbose, _ := cmd.Flags().GetBool("verbose"); verbose {
		log.SetLevel(log.DebugLevel)
	}

	ext := ".bin"
	if jsonFormat {
		ext = ".json"
	}

	var input io.ReadSeeker
	var prefix string
	var symtable *assembler.SymTable

	if len(args) == 0 {
		if stat, _ := os.Stdin.Stat(); stat.Mode()&os.ModeCharDevice != 0 {
			return errors.New("no input file")
		}

		// stdin is not seekable, buffer it for error reporting
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return err
		}

		input = bytes.NewReader(data)
		prefix = "<stdin>: "

		if out == "" {
			out = "out" + ext
		}

		if debug {
			symtable = assembler.NewSymTable("")
		}
	} else {
		file, err := os.Open(args[0])
		if err != nil {
			return err
		}

		defer file.Close()

		if stat, err := file.Stat(); err != nil {
			return err
		} else if stat.IsDir() {
			return errors.Errorf("%s is not a valid 8-mode assembly file", args[0])
		}

		input = file
		prefix = filepath.Base(args[0]) + ": "

		if out == "" {
			out = strings.TrimSuffix(args[0], filepath.Ext(args[0])) + ext
		}

		if debug {
			source, err := filepath.Abs(args[0])
			if err != nil {
				log.WithError(err).Warn("source path unavailable to the debugger")
				source = ""
			}
			symtable = assembler.NewSymTable(source)
		}
	}

	result, errs := assembler.Assemble(input, symtable)

	if len(errs) > 0 {
		printErrors(errs, input, prefix)
		return errors.Errorf("%d assembly errors", len(errs))
	}

	buffer := new(bytes.Buffer)

	if jsonFormat {
		if err := image.WriteJSON(buffer, &result); err != nil {
			return err
		}
	} else if err := image.WriteBinary(buffer, &result); err != nil {
		return err
	}

	if err := os.WriteFile(out, buffer.Bytes(), 0666); err != nil {
		return errors.Wrap(err, "writing output file")
	}

	log.WithFields(log.Fields{"out": out, "bytes": buffer.Len()}).Debug("assembled")

	if symtable != nil {
		filename := strings.TrimSuffix(out, filepath.Ext(out)) + ".p12db"

		file, err := os.Create(filename)
		if err != nil {
			return errors.Wrap(err, "creating symbol table")
		}

		defer file.Close()

		if err := gob.NewEncoder(file).Encode(symtable); err != nil {
			return errors.Wrap(err, "writing symbol table")
		}

		log.WithField("symbols", filename).Debug("wrote symbol table")
	}

	return nil
}

func main() {
	log.SetOutput(os.Stderr)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
