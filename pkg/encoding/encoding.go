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
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

var ErrImageTooLarge = errors.New("Image exceeds allowed size")

// Decodes a hexidecimal string in the formats: 0xFF, xFF, 0XFF, XFF
func DecodeHex(s string) (uint16, error) {
	if i := strings.IndexAny(s, "xX"); i == 0 {
		s = "0" + s
	} else if i != 1 || s[0] != '0' {
		return 0, errors.New("Invalid hex string")
	}

	result, err := strconv.ParseUint(s, 0, 16)

	if err != nil {
		return 0, err
	}

	return uint16(result), nil
}

// Decodes a base-10 string in the formats: #123, 123, #-12, -12
func DecodeInt(s string) (int32, error) {
	s = strings.TrimPrefix(s, "#")

	result, err := strconv.ParseInt(s, 10, 32)

	if err != nil {
		return 0, err
	}

	return int32(result), nil
}

// DecodeLiteral accepts either literal spelling. Hex literals are unsigned;
// decimal literals may carry a sign.
func DecodeLiteral(s string) (int32, error) {
	if strings.ContainsAny(s, "xX") {
		value, err := DecodeHex(s)
		return int32(value), err
	}

	return DecodeInt(s)
}

// DecodeWords parses a comma separated list of literals, each of which must
// fit a 16-bit word either as unsigned or as two's complement.
func DecodeWords(s string) ([]uint16, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}

	fields := strings.Split(s, ",")
	result := make([]uint16, 0, len(fields))

	for _, field := range fields {
		value, err := DecodeLiteral(strings.TrimSpace(field))

		if err != nil {
			return nil, err
		}

		if value < -(1<<15) || value > 0xFFFF {
			return nil, fmt.Errorf("%d does not fit in 16 bits", value)
		}

		result = append(result, uint16(value))
	}

	return result, nil
}

// ReadImage reads a stream of big-endian 16-bit words. A trailing odd byte
// is an error; more than limit words is ErrImageTooLarge.
func ReadImage(reader io.Reader, limit int) ([]uint16, error) {
	scratch := make([]byte, 2)
	result := make([]uint16, 0, limit)

	for {
		n, err := io.ReadFull(reader, scratch)

		if err == io.EOF {
			return result, nil
		} else if err == io.ErrUnexpectedEOF {
			return nil, fmt.Errorf("Error reading image: %d trailing byte", n)
		} else if err != nil {
			return nil, err
		}

		if len(result) == limit {
			return nil, ErrImageTooLarge
		}

		result = append(result, binary.BigEndian.Uint16(scratch))
	}
}

// WriteImage writes words as big-endian 16-bit values.
func WriteImage(writer io.Writer, words []uint16) error {
	return binary.Write(writer, binary.BigEndian, words)
}
