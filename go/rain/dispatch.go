// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package rain

import (
	"encoding/binary"
	"fmt"
)

// MaxOutputsUnbounded asks the interpreter to return the whole final stack.
const MaxOutputsUnbounded = 0xFFFF

// EncodedDispatch packs a reference to one source of a deployed expression
// into a single word:
//
//	bytes  0..8  zero
//	bytes  8..28 expression address
//	bytes 28..30 source index, big-endian
//	bytes 30..32 max outputs, big-endian
type EncodedDispatch Word

// EncodeDispatch packs the given dispatch into a single word.
func EncodeDispatch(expression Address, sourceIndex uint16, maxOutputs uint16) EncodedDispatch {
	var res EncodedDispatch
	copy(res[8:28], expression[:])
	binary.BigEndian.PutUint16(res[28:30], sourceIndex)
	binary.BigEndian.PutUint16(res[30:32], maxOutputs)
	return res
}

// Decode is the inverse of EncodeDispatch. It fails if the reserved upper
// bytes are not zero.
func (d EncodedDispatch) Decode() (expression Address, sourceIndex uint16, maxOutputs uint16, err error) {
	for i := 0; i < 8; i++ {
		if d[i] != 0 {
			return Address{}, 0, 0, fmt.Errorf("invalid dispatch %v: reserved byte %d is set", Word(d).Hex(), i)
		}
	}
	copy(expression[:], d[8:28])
	sourceIndex = binary.BigEndian.Uint16(d[28:30])
	maxOutputs = binary.BigEndian.Uint16(d[30:32])
	return
}

func (d EncodedDispatch) String() string {
	return Word(d).Hex()
}
