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
	"github.com/lassandro/gopdp12/pkg/machine"
)

// Memory reference instructions, the operand supplies the low eight bits
var memoryReference = map[string]uint16{
	"AND": machine.OP_AND << 9,
	"TAD": machine.OP_TAD << 9,
	"ISZ": machine.OP_ISZ << 9,
	"DCA": machine.OP_DCA << 9,
	"JMS": machine.OP_JMS << 9,
	"JMP": machine.OP_JMP << 9,
}

// Console IOTs
var ioTransfer = map[string]uint16{
	"KSF": 0o6031,
	"KCC": 0o6032,
	"KRS": 0o6034,
	"KRB": 0o6036,
	"TSF": 0o6041,
	"TCF": 0o6042,
	"TPC": 0o6044,
	"TLS": 0o6046,
}

// Micro-instructions valid in either operate group
var operateCommon = map[string]uint16{
	"NOP": 0,
	"CLA": machine.G1_CLA,
}

var operateGroup1 = map[string]uint16{
	"CLL": machine.G1_CLL,
	"CMA": machine.G1_CMA,
	"CML": machine.G1_CML,
	"RAR": machine.G1_RAR,
	"RAL": machine.G1_RAL,
	"RTR": machine.G1_RAR | machine.G1_BSW,
	"RTL": machine.G1_RAL | machine.G1_BSW,
	"BSW": machine.G1_BSW,
	"IAC": machine.G1_IAC,
	"CIA": machine.G1_CMA | machine.G1_IAC,
	"STL": machine.G1_CLL | machine.G1_CML,
	"GLK": machine.G1_CLA | machine.G1_RAL,
}

var operateGroup2 = map[string]uint16{
	"SMA": machine.G2_SMA,
	"SZA": machine.G2_SZA,
	"SNL": machine.G2_SNL,
	"SPA": machine.G2_SMA | machine.G2_REV,
	"SNA": machine.G2_SZA | machine.G2_REV,
	"SZL": machine.G2_SNL | machine.G2_REV,
	"SKP": machine.G2_REV,
	"OSR": machine.G2_OSR,
	"HLT": machine.G2_HLT,
	"LAS": machine.G2_CLA | machine.G2_OSR,
}

const (
	DIRECTIVE_ADDRESS = ".ADDRESS"
	DIRECTIVE_DATA    = ".DATA"
	INDIRECT          = "I"
)
