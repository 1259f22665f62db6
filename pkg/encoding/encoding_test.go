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

package encoding_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lassandro/gopdp12/pkg/encoding"
)

func TestDecodeWord(t *testing.T) {
	tests := []struct {
		Input  string
		Output uint16
	}{
		{"7777", 0o7777},
		{"0o350", 0o350},
		{"o17", 0o17},
		{"0x1FF", 0x1FF},
		{"xFFF", 0xFFF},
		{"#100", 100},
		{"#-1", 0o7777},
		{"0", 0},
	}

	for _, test := range tests {
		t.Run(test.Input, func(t *testing.T) {
			have, err := encoding.DecodeWord(test.Input)
			require.NoError(t, err)
			assert.Equal(t, test.Output, have)
		})
	}
}

func TestDecodeWordFail(t *testing.T) {
	for _, input := range []string{"10000", "8", "0x1000", "#4096", "#-2049", "", "zz"} {
		t.Run(input, func(t *testing.T) {
			_, err := encoding.DecodeWord(input)
			assert.Error(t, err)
		})
	}
}

func TestFormatWord(t *testing.T) {
	assert.Equal(t, "0350", encoding.FormatWord(0o350))
	assert.Equal(t, "7777", encoding.FormatWord(0o17777))
}

func TestSignExtend(t *testing.T) {
	assert.Equal(t, int16(-1), encoding.SignExtend(0o7777))
	assert.Equal(t, int16(-2048), encoding.SignExtend(0o4000))
	assert.Equal(t, int16(2047), encoding.SignExtend(0o3777))
}
