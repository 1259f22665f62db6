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

const (
	MEMORY_SIZE  = 1 << 12
	DEVICE_SLOTS = 1 << 6
)

const (
	MASK_12BIT  uint16 = 0o7777
	MASK_OPCODE uint16 = 0o7000
	MASK_PAGE   uint16 = 0o7600
	MASK_OFFSET uint16 = 0o0177
	MASK_SIGN   uint16 = 0o4000
	MASK_CARRY  uint16 = 0o10000
)

// Memory reference addressing bits
const (
	BIT_INDIRECT    uint16 = 1 << 8
	BIT_CURRENTPAGE uint16 = 1 << 7
)

const (
	OP_AND uint16 = 0
	OP_TAD uint16 = 1
	OP_ISZ uint16 = 2
	OP_DCA uint16 = 3
	OP_JMS uint16 = 4
	OP_JMP uint16 = 5
	OP_IOT uint16 = 6
	OP_OPR uint16 = 7
)

// Operate group 1 (bit 8 clear)
const (
	G1_CLA uint16 = 1 << 7
	G1_CLL uint16 = 1 << 6
	G1_CMA uint16 = 1 << 5
	G1_CML uint16 = 1 << 4
	G1_RAR uint16 = 1 << 3
	G1_RAL uint16 = 1 << 2
	G1_BSW uint16 = 1 << 1 // doubles RAR/RAL into RTR/RTL
	G1_IAC uint16 = 1 << 0
)

// Operate group 2 (bit 8 set)
const (
	G2_GROUP uint16 = 1 << 8
	G2_CLA   uint16 = 1 << 7
	G2_SMA   uint16 = 1 << 6
	G2_SZA   uint16 = 1 << 5
	G2_SNL   uint16 = 1 << 4
	G2_REV   uint16 = 1 << 3
	G2_OSR   uint16 = 1 << 2
	G2_HLT   uint16 = 1 << 1
)

// IOT subfunction bits, applied in this order
const (
	IOT_SKIP     uint16 = 1 << 0
	IOT_CLEAR    uint16 = 1 << 1
	IOT_TRANSFER uint16 = 1 << 2
)

const (
	KEYBOARD_SELECTOR    uint8 = 0o03
	TELEPRINTER_SELECTOR uint8 = 0o04
)
