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

package assembler_test

import (
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lassandro/gopdp12/pkg/assembler"
)

type testCase struct {
	Name     string
	Input    string
	Output   map[uint16]uint16
	SymTable *assembler.SymTable
}

type failCase struct {
	Name  string
	Input string
	Error error
}

func testAssemblerSuccess(t *testing.T, test *testCase) {
	var symtarget *assembler.SymTable

	if test.SymTable != nil {
		symtarget = assembler.NewSymTable("")
	}

	result, errs := assembler.AssembleString(test.Input, symtarget)
	require.Empty(t, errs)

	for addr := range result {
		have := result[addr]
		want, exists := test.Output[uint16(addr)]

		if exists {
			require.Equalf(t, want, have, "result[%#o]", addr)
		} else {
			require.Zerof(t, have, "unexpected word at %#o", addr)
		}
	}

	if test.SymTable != nil {
		assert.Equal(t, test.SymTable.Labels, symtarget.Labels)

		for addr, want := range test.SymTable.Symbols {
			assert.Equalf(t, want, symtarget.Symbols[addr], "Symbols[%#o]", addr)
		}
	}
}

func testAssemblerFailure(t *testing.T, test *failCase) {
	_, errs := assembler.AssembleString(test.Input, nil)
	require.NotEmpty(t, errs)

	assert.Equal(t, reflect.TypeOf(test.Error), reflect.TypeOf(errs[0]))
	assert.Equal(t, test.Error, errs[0])
}

func testSuccess(t *testing.T, tests []testCase) {
	t.Run("Success", func(t *testing.T) {
		for _, test := range tests {
			test := test
			t.Run(test.Name, func(t *testing.T) {
				testAssemblerSuccess(t, &test)
			})
		}
	})
}

func testFailure(t *testing.T, tests []failCase) {
	t.Run("Failure", func(t *testing.T) {
		for _, test := range tests {
			test := test
			t.Run(test.Name, func(t *testing.T) {
				testAssemblerFailure(t, &test)
			})
		}
	})
}

func TestMemoryReference(t *testing.T) {
	testSuccess(t, []testCase{
		{
			Name: "Subroutine Program",
			Input: `.address 0
.data 5252
.data 6314
.address 200
JMS 350
DCA 2
HLT
.address 350
.data 0000
TAD 0
AND 1
JMP I 350`,
			Output: map[uint16]uint16{
				0o000: 0o5252,
				0o001: 0o6314,
				0o200: 0o4350,
				0o201: 0o3002,
				0o202: 0o7402,
				0o351: 0o1000,
				0o352: 0o0001,
				0o353: 0o5750,
			},
		},
		{
			Name:  "Page Zero Boundary",
			Input: "*1000\nTAD 177\nTAD 1000",
			Output: map[uint16]uint16{
				0o1000: 0o1177,
				0o1001: 0o1200,
			},
		},
		{
			Name:  "Lowercase Indirect",
			Input: "*200\nisz i 10",
			Output: map[uint16]uint16{
				0o200: 0o2410,
			},
		},
		{
			Name:  "Legacy Listing",
			Input: "0200 TAD 10\n0201 7402\n0010 0005",
			Output: map[uint16]uint16{
				0o010: 0o0005,
				0o200: 0o1010,
				0o201: 0o7402,
			},
		},
	})

	testFailure(t, []failCase{
		{
			Name:  "Off Page",
			Input: "*200\nJMP 400",
			Error: &assembler.PageError{
				Position: assembler.Cursor{
					Line: 2, Column: 5, Byte: 9, Size: 3, LineByte: 5,
				},
				Addr:    0o200,
				Operand: 0o400,
			},
		},
		{
			Name:  "Missing Operand",
			Input: "TAD I",
			Error: &assembler.InvalidNumArgumentsError{
				Position: assembler.Cursor{
					Line: 1, Column: 1, Byte: 0, Size: 3, LineByte: 0,
				},
				Required: 1,
				Received: 0,
			},
		},
		{
			Name:  "Unknown Label",
			Input: "JMP NOWHERE",
			Error: &assembler.UnknownIdentifierError{
				Position: assembler.Cursor{
					Line: 1, Column: 5, Byte: 4, Size: 7, LineByte: 0,
				},
				Received: "NOWHERE",
			},
		},
	})
}

func TestOperate(t *testing.T) {
	testSuccess(t, []testCase{
		{
			Name:  "Group 1",
			Input: "*200\nNOP\nCLA CLL\nCLA CMA\nCIA\nRTL\nRAR\nSTL\nCLA IAC",
			Output: map[uint16]uint16{
				0o200: 0o7000,
				0o201: 0o7300,
				0o202: 0o7240,
				0o203: 0o7041,
				0o204: 0o7006,
				0o205: 0o7010,
				0o206: 0o7120,
				0o207: 0o7201,
			},
		},
		{
			Name:  "Group 2",
			Input: "*200\nHLT\nSZA CLA\nSPA SNA\nSKP\nLAS\nSMA SZA SNL\nCLA HLT",
			Output: map[uint16]uint16{
				0o200: 0o7402,
				0o201: 0o7640,
				0o202: 0o7550,
				0o203: 0o7410,
				0o204: 0o7604,
				0o205: 0o7560,
				0o206: 0o7602,
			},
		},
		{
			Name:  "IOT",
			Input: "*200\nKSF\nKRB\nTSF\nTLS",
			Output: map[uint16]uint16{
				0o200: 0o6031,
				0o201: 0o6036,
				0o202: 0o6041,
				0o203: 0o6046,
			},
		},
	})

	testFailure(t, []failCase{
		{
			Name:  "Mixed Groups",
			Input: "CLL SZA",
			Error: &assembler.GroupConflictError{
				Position: assembler.Cursor{
					Line: 1, Column: 5, Byte: 4, Size: 3, LineByte: 0,
				},
				Received: "SZA",
			},
		},
	})
}

func TestLabels(t *testing.T) {
	testSuccess(t, []testCase{
		{
			Name: "Echo Loop",
			Input: `*200
START, KSF        / wait for a key
       JMP .-1
       KRB
       TLS
       TSF
       JMP .-1
       JMP START
PTR,   .data START
`,
			Output: map[uint16]uint16{
				0o200: 0o6031,
				0o201: 0o5200,
				0o202: 0o6036,
				0o203: 0o6046,
				0o204: 0o6041,
				0o205: 0o5204,
				0o206: 0o5200,
				0o207: 0o0200,
			},
			SymTable: &assembler.SymTable{
				Labels: map[uint16]string{
					0o200: "START",
					0o207: "PTR",
				},
				Symbols: map[uint16]int64{
					0o200: 5,
					0o201: 40,
				},
			},
		},
		{
			Name:  "Forward Reference",
			Input: "*200\nJMS SUB\nHLT\nSUB, 0\nJMP I SUB",
			Output: map[uint16]uint16{
				0o200: 0o4202,
				0o201: 0o7402,
				0o203: 0o5602,
			},
		},
	})

	testFailure(t, []failCase{
		{
			Name:  "Redeclared",
			Input: "A, 1\nA, 2",
			Error: &assembler.RedeclaredLabelError{
				Position: assembler.Cursor{
					Line: 2, Column: 1, Byte: 5, Size: 1, LineByte: 5,
				},
				Received: "A",
			},
		},
		{
			Name:  "Bad Character",
			Input: "TAD $10",
			Error: &assembler.UnexpectedCharacterError{
				Position: assembler.Cursor{
					Line: 1, Column: 5, Byte: 4, Size: 1, LineByte: 0,
				},
				Received: '$',
			},
		},
		{
			Name:  "Past End Of Memory",
			Input: "*7777\n1\n2",
			Error: &assembler.OversizedBinaryError{
				Position: assembler.Cursor{
					Line: 3, Column: 1, Byte: 8, Size: 1, LineByte: 8,
				},
			},
		},
	})
}
