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

package assembler

import (
	"fmt"
	"strings"

	"github.com/lassandro/gopdp12/pkg/machine"
)

var opcodeNames = [...]string{"AND", "TAD", "ISZ", "DCA", "JMS", "JMP"}

// Disassemble renders the word stored at addr in assembler syntax.
func Disassemble(word uint16, addr uint16) string {
	word &= machine.MASK_12BIT
	opcode := word >> 9

	switch opcode {
	case machine.OP_IOT:
		for name, value := range ioTransfer {
			if value == word {
				return name
			}
		}

		return fmt.Sprintf("IOT %02o %o", (word>>3)&0o77, word&0o7)

	case machine.OP_OPR:
		if word&machine.G2_GROUP == 0 {
			return disassembleGroup1(word)
		}

		return disassembleGroup2(word)
	}

	operand := word & machine.MASK_OFFSET

	if word&machine.BIT_CURRENTPAGE != 0 {
		operand |= addr & machine.MASK_PAGE
	}

	if word&machine.BIT_INDIRECT != 0 {
		return fmt.Sprintf("%s I %04o", opcodeNames[opcode], operand)
	}

	return fmt.Sprintf("%s %04o", opcodeNames[opcode], operand)
}

func disassembleGroup1(word uint16) string {
	var parts []string

	if word&machine.G1_CLA != 0 {
		parts = append(parts, "CLA")
	}
	if word&machine.G1_CLL != 0 {
		parts = append(parts, "CLL")
	}
	if word&machine.G1_CMA != 0 {
		parts = append(parts, "CMA")
	}
	if word&machine.G1_CML != 0 {
		parts = append(parts, "CML")
	}

	rotates := word&(machine.G1_RAR|machine.G1_RAL) != 0
	twice := word&machine.G1_BSW != 0

	if word&machine.G1_RAR != 0 {
		if twice {
			parts = append(parts, "RTR")
		} else {
			parts = append(parts, "RAR")
		}
	}
	if word&machine.G1_RAL != 0 {
		if twice {
			parts = append(parts, "RTL")
		} else {
			parts = append(parts, "RAL")
		}
	}
	if twice && !rotates {
		parts = append(parts, "BSW")
	}

	if word&machine.G1_IAC != 0 {
		parts = append(parts, "IAC")
	}

	if len(parts) == 0 {
		return "NOP"
	}

	return strings.Join(parts, " ")
}

func disassembleGroup2(word uint16) string {
	var parts []string

	reverse := word&machine.G2_REV != 0
	skips := []struct {
		bit           uint16
		plain, invert string
	}{
		{machine.G2_SMA, "SMA", "SPA"},
		{machine.G2_SZA, "SZA", "SNA"},
		{machine.G2_SNL, "SNL", "SZL"},
	}

	anySkip := false

	for _, skip := range skips {
		if word&skip.bit == 0 {
			continue
		}

		anySkip = true

		if reverse {
			parts = append(parts, skip.invert)
		} else {
			parts = append(parts, skip.plain)
		}
	}

	if reverse && !anySkip {
		parts = append(parts, "SKP")
	}

	if word&machine.G2_CLA != 0 {
		parts = append(parts, "CLA")
	}
	if word&machine.G2_OSR != 0 {
		parts = append(parts, "OSR")
	}
	if word&machine.G2_HLT != 0 {
		parts = append(parts, "HLT")
	}

	if len(parts) == 0 {
		return "NOP"
	}

	return strings.Join(parts, " ")
}
