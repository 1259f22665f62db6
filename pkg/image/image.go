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

package image

import (
	"encoding/binary"
	"encoding/json"
	"io"

	"github.com/pkg/errors"

	"github.com/lassandro/gopdp12/pkg/machine"
)

var (
	ErrOddLength  = errors.New("binary image has an odd number of bytes")
	ErrTooLarge   = errors.New("image is larger than memory")
	ErrWordRange  = errors.New("image word does not fit in 12 bits")
	ErrWrongCount = errors.New("image does not hold one word per address")
)

type Image = [machine.MEMORY_SIZE]uint16

// ReadBinary loads a big-endian image of at most 4096 words. Addresses past
// the end of a short image are zero.
func ReadBinary(reader io.Reader) (result Image, err error) {
	scratch := make([]byte, 2)
	index := 0

	for {
		n, err := io.ReadFull(reader, scratch)

		if err == io.EOF {
			return result, nil
		} else if err == io.ErrUnexpectedEOF && n == 1 {
			return result, errors.Wrapf(ErrOddLength, "word %d", index)
		} else if err != nil {
			return result, errors.Wrap(err, "reading binary image")
		}

		if index >= machine.MEMORY_SIZE {
			return result, errors.Wrapf(ErrTooLarge, "more than %d words", index)
		}

		word := binary.BigEndian.Uint16(scratch)

		if word > machine.MASK_12BIT {
			return result, errors.Wrapf(ErrWordRange, "%#o at %04o", word, index)
		}

		result[index] = word
		index++
	}
}

// WriteBinary writes the image up to its last non-zero word.
func WriteBinary(writer io.Writer, image *Image) error {
	end := len(image)

	for end > 0 && image[end-1] == 0 {
		end--
	}

	if err := binary.Write(writer, binary.BigEndian, image[:end]); err != nil {
		return errors.Wrap(err, "writing binary image")
	}

	return nil
}

// ReadJSON loads an image stored as a JSON array of exactly 4096 numbers.
func ReadJSON(reader io.Reader) (result Image, err error) {
	var words []uint16

	if err := json.NewDecoder(reader).Decode(&words); err != nil {
		return result, errors.Wrap(err, "decoding JSON image")
	}

	if len(words) != machine.MEMORY_SIZE {
		return result, errors.Wrapf(ErrWrongCount, "have %d words", len(words))
	}

	for i, word := range words {
		if word > machine.MASK_12BIT {
			return result, errors.Wrapf(ErrWordRange, "%#o at %04o", word, i)
		}

		result[i] = word
	}

	return result, nil
}

func WriteJSON(writer io.Writer, image *Image) error {
	if err := json.NewEncoder(writer).Encode(image[:]); err != nil {
		return errors.Wrap(err, "encoding JSON image")
	}

	return nil
}
