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

package encoding

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

const wordMask = 0o7777

// Decodes an octal string in the formats: 0o7777, o7777, 7777
func DecodeOctal(s string) (uint16, error) {
	if len(s) > 1 && (s[:2] == "0o" || s[:2] == "0O") {
		s = s[2:]
	} else if strings.IndexAny(s, "oO") == 0 {
		s = s[1:]
	}

	result, err := strconv.ParseUint(s, 8, 16)

	if err != nil {
		return 0, errors.Wrapf(err, "invalid octal string %q", s)
	}

	return uint16(result), nil
}

// Decodes a hexidecimal string in the formats: 0xFFF, xFFF
func DecodeHex(s string) (uint16, error) {
	if i := strings.IndexAny(s, "xX"); i == 0 {
		s = "0" + s
	} else if i == -1 || i != 1 {
		return 0, errors.New("Invalid hex string")
	}

	result, err := strconv.ParseUint(s, 0, 16)

	if err != nil {
		return 0, errors.Wrapf(err, "invalid hex string %q", s)
	}

	return uint16(result), nil
}

// Decodes a base-10 string in the formats: #123, 123
func DecodeInt(s string) (int16, error) {
	if i := strings.Index(s, "#"); i == 0 {
		s = s[1:]
	}

	result, err := strconv.ParseInt(s, 10, 16)

	if err != nil {
		return 0, errors.Wrapf(err, "invalid decimal string %q", s)
	}

	return int16(result), nil
}

// DecodeWord accepts octal (the default), hex with an x prefix or decimal
// with a # prefix and fails on values that do not fit in 12 bits. Negative
// decimals are stored in two's complement.
func DecodeWord(s string) (uint16, error) {
	var result uint16

	switch {
	case strings.HasPrefix(s, "#"):
		value, err := DecodeInt(s)

		if err != nil {
			return 0, err
		}

		if value < -0o4000 || value > wordMask {
			return 0, errors.Errorf("%s does not fit in 12 bits", s)
		}

		return uint16(value) & wordMask, nil

	case strings.ContainsAny(s, "xX"):
		value, err := DecodeHex(s)

		if err != nil {
			return 0, err
		}

		result = value

	default:
		value, err := DecodeOctal(s)

		if err != nil {
			return 0, err
		}

		result = value
	}

	if result > wordMask {
		return 0, errors.Errorf("%s does not fit in 12 bits", s)
	}

	return result, nil
}

// FormatWord renders a 12-bit word as four octal digits.
func FormatWord(value uint16) string {
	return fmt.Sprintf("%04o", value&wordMask)
}

// SignExtend interprets a 12-bit word as a two's complement integer.
func SignExtend(value uint16) int16 {
	value &= wordMask

	if value&0o4000 != 0 {
		return int16(value) - 0o10000
	}

	return int16(value)
}
