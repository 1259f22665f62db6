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

package machine_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lassandro/gopdp12/pkg/machine"
)

type testMachineState struct {
	Acc     uint16
	Link    bool
	PC      uint16
	RSW     uint16
	Running bool
	Memory  map[uint16]uint16
}

type testCase struct {
	Name     string
	Steps    uint
	Keyboard []uint8
	Display  []uint8
	Input    testMachineState
	Output   testMachineState
}

func testMachineSuccess(t *testing.T, test *testCase) {
	if test.Input.Memory == nil {
		panic("No memory map provided")
	}

	var image [machine.MEMORY_SIZE]uint16

	for addr, value := range test.Input.Memory {
		image[addr] = value
	}

	mc := machine.NewASR33(machine.State{
		Acc:     test.Input.Acc,
		Link:    test.Input.Link,
		PC:      test.Input.PC,
		RSW:     test.Input.RSW,
		Running: test.Input.Running,
	}, machine.NewMemory(&image))

	if len(test.Keyboard) > 0 {
		kb, err := mc.Keyboard()
		require.NoError(t, err)

		for _, key := range test.Keyboard {
			kb.Push(key)
		}
	}

	if test.Steps == 0 {
		test.Steps = 1
	}

	for i := uint(0); i < test.Steps; i++ {
		mc.Step()
	}

	state, mem := mc.CurrentState()

	assert.Equal(t, test.Output.Acc, state.Acc, "accumulator %#o", state.Acc)
	assert.Equal(t, test.Output.Link, state.Link, "link")
	assert.Equal(t, test.Output.PC, state.PC, "program counter %#o", state.PC)
	assert.Equal(t, test.Output.Running, state.Running, "run flag")

	for i := uint16(0); i < machine.MEMORY_SIZE; i++ {
		value := mem.Read(i)
		input, expectingInput := test.Input.Memory[i]
		output, expectingOutput := test.Output.Memory[i]

		if expectingOutput {
			// Value was supposed to change
			require.Equalf(t, output, value, "memory[%#o]", i)
		} else if expectingInput {
			// Value was supposed to remain
			require.Equalf(t, input, value, "memory[%#o]", i)
		} else {
			require.Zerof(t, value, "memory[%#o] unexpectedly changed", i)
		}
	}

	if test.Display != nil {
		tp, err := mc.Teleprinter()
		require.NoError(t, err)

		var display []uint8
		if char, ok := tp.Pop(); ok {
			display = append(display, char)
		}

		assert.Equal(t, test.Display, display)
	}
}

func testSuccess(t *testing.T, tests []testCase) {
	t.Run("Success", func(t *testing.T) {
		for _, test := range tests {
			test := test
			t.Run(test.Name, func(t *testing.T) {
				testMachineSuccess(t, &test)
			})
		}
	})
}

// AND  |000|I|P|offset       | AC <- AC & M[addr]
// ---- [ _ _ _ _ _ _ _ _ _ _ _ _ ]
func TestAnd(t *testing.T) {
	testSuccess(t, []testCase{
		{
			Name: "AND Page Zero",
			Input: testMachineState{
				Acc: 0o7070,
				PC:  0o200,
				Memory: map[uint16]uint16{
					0o010: 0o0770,
					0o200: 0o0010,
				},
			},
			Output: testMachineState{
				Acc: 0o0070,
				PC:  0o201,
			},
		},
		{
			Name: "AND Current Page",
			Input: testMachineState{
				Acc:  0o7777,
				Link: true,
				PC:   0o1200,
				Memory: map[uint16]uint16{
					0o1200: 0o0377,
					0o1377: 0o5252,
				},
			},
			Output: testMachineState{
				Acc:  0o5252,
				Link: true,
				PC:   0o1201,
			},
		},
		{
			Name: "AND Last Word Of Page",
			Input: testMachineState{
				Acc: 0o7777,
				PC:  0o1377,
				Memory: map[uint16]uint16{
					0o1376: 0o0017,
					0o1377: 0o0376,
				},
			},
			Output: testMachineState{
				Acc: 0o0017,
				PC:  0o1400,
			},
		},
	})
}

// TAD  |001|I|P|offset       | L,AC <- L,AC + M[addr]
// ---- [ _ _ _ _ _ _ _ _ _ _ _ _ ]
func TestTad(t *testing.T) {
	testSuccess(t, []testCase{
		{
			Name: "TAD Carry Out",
			Input: testMachineState{
				Acc: 0o7777,
				PC:  0o200,
				Memory: map[uint16]uint16{
					0o010: 0o0001,
					0o200: 0o1010,
				},
			},
			Output: testMachineState{
				Acc:  0o0000,
				Link: true,
				PC:   0o201,
			},
		},
		{
			Name: "TAD Link Preserved",
			Input: testMachineState{
				Acc:  0o0001,
				Link: true,
				PC:   0o200,
				Memory: map[uint16]uint16{
					0o010: 0o0002,
					0o200: 0o1010,
				},
			},
			Output: testMachineState{
				Acc:  0o0003,
				Link: true,
				PC:   0o201,
			},
		},
		{
			Name: "TAD Carry Complements Link",
			Input: testMachineState{
				Acc:  0o7777,
				Link: true,
				PC:   0o200,
				Memory: map[uint16]uint16{
					0o010: 0o0001,
					0o200: 0o1010,
				},
			},
			Output: testMachineState{
				Acc:  0o0000,
				Link: false,
				PC:   0o201,
			},
		},
		{
			Name: "TAD Indirect",
			Input: testMachineState{
				Acc: 0o0001,
				PC:  0o200,
				Memory: map[uint16]uint16{
					0o010: 0o0300,
					0o300: 0o0005,
					0o200: 0o1410,
				},
			},
			Output: testMachineState{
				Acc: 0o0006,
				PC:  0o201,
			},
		},
	})
}

// ISZ  |010|I|P|offset       | M[addr]++, skip if zero
// ---- [ _ _ _ _ _ _ _ _ _ _ _ _ ]
func TestIsz(t *testing.T) {
	testSuccess(t, []testCase{
		{
			Name: "ISZ Skip",
			Input: testMachineState{
				PC: 0o200,
				Memory: map[uint16]uint16{
					0o010: 0o7777,
					0o200: 0o2010,
				},
			},
			Output: testMachineState{
				PC: 0o202,
				Memory: map[uint16]uint16{
					0o010: 0o0000,
				},
			},
		},
		{
			Name: "ISZ No Skip",
			Input: testMachineState{
				PC: 0o200,
				Memory: map[uint16]uint16{
					0o010: 0o0005,
					0o200: 0o2010,
				},
			},
			Output: testMachineState{
				PC: 0o201,
				Memory: map[uint16]uint16{
					0o010: 0o0006,
				},
			},
		},
		{
			Name: "ISZ Skip Wraps",
			Input: testMachineState{
				PC: 0o7776,
				Memory: map[uint16]uint16{
					0o010:  0o7777,
					0o7776: 0o2010,
				},
			},
			Output: testMachineState{
				PC: 0o0000,
				Memory: map[uint16]uint16{
					0o010: 0o0000,
				},
			},
		},
	})
}

// DCA  |011|I|P|offset       | M[addr] <- AC, AC <- 0
// ---- [ _ _ _ _ _ _ _ _ _ _ _ _ ]
func TestDca(t *testing.T) {
	testSuccess(t, []testCase{
		{
			Name: "DCA Page Zero",
			Input: testMachineState{
				Acc:  0o1234,
				Link: true,
				PC:   0o200,
				Memory: map[uint16]uint16{
					0o200: 0o3010,
				},
			},
			Output: testMachineState{
				Acc:  0o0000,
				Link: true,
				PC:   0o201,
				Memory: map[uint16]uint16{
					0o010: 0o1234,
				},
			},
		},
		{
			Name: "DCA Indirect",
			Input: testMachineState{
				Acc: 0o0777,
				PC:  0o200,
				Memory: map[uint16]uint16{
					0o200: 0o3750,
					0o350: 0o2000,
				},
			},
			Output: testMachineState{
				PC: 0o201,
				Memory: map[uint16]uint16{
					0o2000: 0o0777,
				},
			},
		},
	})
}

// JMS  |100|I|P|offset       | M[addr] <- PC, PC <- addr + 1
// JMP  |101|I|P|offset       | PC <- addr
// ---- [ _ _ _ _ _ _ _ _ _ _ _ _ ]
func TestJump(t *testing.T) {
	testSuccess(t, []testCase{
		{
			Name: "JMS Current Page",
			Input: testMachineState{
				PC: 0o200,
				Memory: map[uint16]uint16{
					0o200: 0o4250,
				},
			},
			Output: testMachineState{
				PC: 0o251,
				Memory: map[uint16]uint16{
					0o250: 0o0201,
				},
			},
		},
		{
			Name: "JMP Current Page",
			Input: testMachineState{
				PC: 0o200,
				Memory: map[uint16]uint16{
					0o200: 0o5277,
				},
			},
			Output: testMachineState{
				PC: 0o277,
			},
		},
		{
			Name: "JMP Indirect To Zero",
			Input: testMachineState{
				PC: 0o200,
				Memory: map[uint16]uint16{
					0o200: 0o5750,
					0o350: 0o0000,
				},
			},
			Output: testMachineState{
				PC: 0o000,
			},
		},
		{
			Name: "JMP Indirect",
			Input: testMachineState{
				PC: 0o200,
				Memory: map[uint16]uint16{
					0o200: 0o5410,
					0o010: 0o4321,
				},
			},
			Output: testMachineState{
				PC: 0o4321,
			},
		},
		{
			Name: "Fetch Wraps",
			Input: testMachineState{
				PC: 0o7777,
				Memory: map[uint16]uint16{
					0o7777: 0o7000,
				},
			},
			Output: testMachineState{
				PC: 0o0000,
			},
		},
	})
}

// OPR  |111|0|CLA|CLL|CMA|CML|RAR|RAL|BSW|IAC | Group 1
// ---- [ _ _ _ _ _ _ _ _ _ _ _ _ ]
func TestGroup1(t *testing.T) {
	group1 := func(name string, instruction uint16, acc uint16, link bool, wantAcc uint16, wantLink bool) testCase {
		return testCase{
			Name: name,
			Input: testMachineState{
				Acc:  acc,
				Link: link,
				PC:   0o200,
				Memory: map[uint16]uint16{
					0o200: instruction,
				},
			},
			Output: testMachineState{
				Acc:  wantAcc,
				Link: wantLink,
				PC:   0o201,
			},
		}
	}

	testSuccess(t, []testCase{
		group1("NOP", 0o7000, 0o1234, true, 0o1234, true),
		group1("CLA CLL", 0o7300, 0o1234, true, 0o0000, false),
		group1("CMA", 0o7040, 0o1234, false, 0o6543, false),
		group1("CML", 0o7020, 0o1234, false, 0o1234, true),
		group1("IAC Wraps", 0o7001, 0o7777, false, 0o0000, false),
		group1("CLA IAC", 0o7201, 0o1234, false, 0o0001, false),
		group1("CIA", 0o7041, 0o0005, false, 0o7773, false),
		group1("CLA CMA", 0o7240, 0o1234, false, 0o7777, false),
		group1("STL", 0o7120, 0o0000, false, 0o0000, true),
		group1("RAR", 0o7010, 0o0001, false, 0o0000, true),
		group1("RAR Link In", 0o7010, 0o0000, true, 0o4000, false),
		group1("RAL", 0o7004, 0o4000, false, 0o0000, true),
		group1("RAL Link In", 0o7004, 0o0000, true, 0o0001, false),
		group1("RTR", 0o7012, 0o0001, false, 0o4000, false),
		group1("RTL", 0o7006, 0o4000, false, 0o0001, false),
		group1("CLL RAL", 0o7104, 0o4001, true, 0o0002, true),
		group1("RAR RAL", 0o7014, 0o4001, false, 0o4001, false),
		group1("RTR RTL", 0o7016, 0o0003, true, 0o0003, true),
	})
}

// OPR  |111|1|CLA|SMA|SZA|SNL|REV|OSR|HLT|0   | Group 2
// ---- [ _ _ _ _ _ _ _ _ _ _ _ _ ]
func TestGroup2(t *testing.T) {
	group2 := func(name string, instruction uint16, acc uint16, link bool, wantAcc uint16, wantPC uint16) testCase {
		return testCase{
			Name: name,
			Input: testMachineState{
				Acc:  acc,
				Link: link,
				PC:   0o200,
				RSW:  0o0070,
				Memory: map[uint16]uint16{
					0o200: instruction,
				},
			},
			Output: testMachineState{
				Acc:  wantAcc,
				Link: link,
				PC:   wantPC,
			},
		}
	}

	testSuccess(t, []testCase{
		group2("SMA Skip", 0o7500, 0o4000, false, 0o4000, 0o202),
		group2("SMA No Skip", 0o7500, 0o3777, false, 0o3777, 0o201),
		group2("SZA Skip", 0o7440, 0o0000, false, 0o0000, 0o202),
		group2("SZA No Skip", 0o7440, 0o0001, false, 0o0001, 0o201),
		group2("SNL Skip", 0o7420, 0o0000, true, 0o0000, 0o202),
		group2("SNL No Skip", 0o7420, 0o0000, false, 0o0000, 0o201),
		group2("SPA No Skip", 0o7510, 0o4000, false, 0o4000, 0o201),
		group2("SPA Skip", 0o7510, 0o0001, false, 0o0001, 0o202),
		group2("SNA No Skip", 0o7450, 0o0000, false, 0o0000, 0o201),
		group2("SZL Skip", 0o7430, 0o0000, false, 0o0000, 0o202),
		group2("SKP", 0o7410, 0o0000, false, 0o0000, 0o202),
		group2("SMA SZA SNL", 0o7560, 0o0001, true, 0o0001, 0o202),
		group2("SZA CLA Tests Before Clear", 0o7640, 0o0000, false, 0o0000, 0o202),
		group2("SZA CLA No Skip", 0o7640, 0o0005, false, 0o0000, 0o201),
		group2("SMA CLA", 0o7700, 0o4000, false, 0o0000, 0o202),
		group2("OSR", 0o7404, 0o0700, false, 0o0770, 0o201),
		group2("LAS", 0o7604, 0o0700, false, 0o0070, 0o201),
	})

	testSuccess(t, []testCase{
		{
			Name: "HLT",
			Input: testMachineState{
				Acc:     0o0012,
				PC:      0o200,
				Running: true,
				Memory: map[uint16]uint16{
					0o200: 0o7402,
				},
			},
			Output: testMachineState{
				Acc:     0o0012,
				PC:      0o201,
				Running: false,
			},
		},
	})
}

// IOT  |110|device     |fn   | Device transfer
// ---- [ _ _ _ _ _ _ _ _ _ _ _ _ ]
func TestIot(t *testing.T) {
	testSuccess(t, []testCase{
		{
			Name: "IOT Empty Slot",
			Input: testMachineState{
				Acc:  0o1234,
				Link: true,
				PC:   0o200,
				Memory: map[uint16]uint16{
					0o200: 0o6107,
				},
			},
			Output: testMachineState{
				Acc:  0o1234,
				Link: true,
				PC:   0o201,
			},
		},
		{
			Name:     "KSF Ready",
			Keyboard: []uint8{0o301},
			Input: testMachineState{
				PC: 0o200,
				Memory: map[uint16]uint16{
					0o200: 0o6031,
				},
			},
			Output: testMachineState{
				PC: 0o202,
			},
		},
		{
			Name: "KSF Not Ready",
			Input: testMachineState{
				PC: 0o200,
				Memory: map[uint16]uint16{
					0o200: 0o6031,
				},
			},
			Output: testMachineState{
				PC: 0o201,
			},
		},
		{
			Name:     "KRB",
			Keyboard: []uint8{0o301},
			Input: testMachineState{
				PC: 0o200,
				Memory: map[uint16]uint16{
					0o200: 0o6036,
				},
			},
			Output: testMachineState{
				Acc: 0o301,
				PC:  0o201,
			},
		},
		{
			Name:     "KSF KRB Loop",
			Keyboard: []uint8{0o101},
			Steps:    2,
			Input: testMachineState{
				PC: 0o200,
				Memory: map[uint16]uint16{
					0o200: 0o6031,
					0o201: 0o5200,
					0o202: 0o6036,
				},
			},
			Output: testMachineState{
				Acc: 0o101,
				PC:  0o203,
			},
		},
		{
			Name:    "TLS",
			Display: []uint8{0o301},
			Input: testMachineState{
				Acc: 0o301,
				PC:  0o200,
				Memory: map[uint16]uint16{
					0o200: 0o6046,
				},
			},
			Output: testMachineState{
				Acc: 0o301,
				PC:  0o201,
			},
		},
		{
			Name: "TSF Not Ready",
			Input: testMachineState{
				PC: 0o200,
				Memory: map[uint16]uint16{
					0o200: 0o6041,
				},
			},
			Output: testMachineState{
				PC: 0o201,
			},
		},
	})
}

func TestProgram(t *testing.T) {
	testSuccess(t, []testCase{
		{
			Name:  "Subroutine And Mask",
			Steps: 6,
			Input: testMachineState{
				PC:      0o200,
				Running: true,
				Memory: map[uint16]uint16{
					0o000: 0o5252,
					0o001: 0o6314,
					0o200: 0o4350, // JMS 350
					0o201: 0o3002, // DCA 2
					0o202: 0o7402, // HLT
					0o350: 0o0000,
					0o351: 0o1000, // TAD 0
					0o352: 0o0001, // AND 1
					0o353: 0o5750, // JMP I 350
				},
			},
			Output: testMachineState{
				PC:      0o203,
				Running: false,
				Memory: map[uint16]uint16{
					0o002: 0o4210,
					0o350: 0o0201,
				},
			},
		},
	})
}
