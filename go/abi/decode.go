// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package abi

import (
	"encoding/binary"
	"fmt"
)

// DecodeError reports return or call data that does not match the expected
// signature.
type DecodeError struct {
	Signature string
	Reason    string
}

func (e *DecodeError) Error() string {
	if e.Signature == "" {
		return "abi decoding failed: " + e.Reason
	}
	return fmt.Sprintf("abi decoding of %s failed: %s", e.Signature, e.Reason)
}

// Decode parses data as the ABI encoding of a tuple of the given types.
// Trailing bytes beyond the encoded values are ignored.
func Decode(types []Type, data []byte) ([]Value, error) {
	values, err := decodeSequence(types, data)
	if err != nil {
		return nil, &DecodeError{Signature: "(" + joinTypes(types) + ")", Reason: err.Error()}
	}
	return values, nil
}

func decodeSequence(types []Type, data []byte) ([]Value, error) {
	res := make([]Value, len(types))
	pos := 0
	for i, t := range types {
		var (
			v   Value
			err error
		)
		if t.IsDynamic() {
			offset, err := readLength(data, pos)
			if err != nil {
				return nil, err
			}
			if offset > len(data) {
				return nil, fmt.Errorf("offset %d of %v exceeds %d bytes of data", offset, t, len(data))
			}
			v, err = decodeValue(t, data[offset:])
			if err != nil {
				return nil, err
			}
			pos += 32
		} else {
			if pos > len(data) {
				return nil, fmt.Errorf("data too short for %v", t)
			}
			v, err = decodeValue(t, data[pos:])
			if err != nil {
				return nil, err
			}
			pos += t.headSize()
		}
		res[i] = v
	}
	return res, nil
}

func decodeValue(t Type, data []byte) (Value, error) {
	switch t.Kind {
	case UintKind, IntKind:
		w, err := readWord(data, t)
		if err != nil {
			return nil, err
		}
		if !fitsWidth(t, w) {
			return nil, fmt.Errorf("value out of range for %v", t)
		}
		return w, nil

	case AddressKind:
		w, err := readWord(data, t)
		if err != nil {
			return nil, err
		}
		for _, b := range w[:12] {
			if b != 0 {
				return nil, fmt.Errorf("dirty upper bytes in address")
			}
		}
		var res Addr
		copy(res[:], w[12:])
		return res, nil

	case BoolKind:
		w, err := readWord(data, t)
		if err != nil {
			return nil, err
		}
		for _, b := range w[:31] {
			if b != 0 {
				return nil, fmt.Errorf("invalid bool encoding")
			}
		}
		switch w[31] {
		case 0:
			return Boolean(false), nil
		case 1:
			return Boolean(true), nil
		}
		return nil, fmt.Errorf("invalid bool encoding")

	case FixedBytesKind:
		w, err := readWord(data, t)
		if err != nil {
			return nil, err
		}
		if !isZero(w[t.Size:]) {
			return nil, fmt.Errorf("dirty padding in %v", t)
		}
		return FixedBytes(append([]byte(nil), w[:t.Size]...)), nil

	case BytesKind, StringKind:
		n, err := readLength(data, 0)
		if err != nil {
			return nil, err
		}
		if n > len(data)-32 {
			return nil, fmt.Errorf("%v of length %d exceeds available data", t, n)
		}
		padded := (n + 31) / 32 * 32
		if padded > len(data)-32 {
			return nil, fmt.Errorf("%v of length %d misses its padding", t, n)
		}
		if !isZero(data[32+n : 32+padded]) {
			return nil, fmt.Errorf("dirty padding in %v", t)
		}
		content := append([]byte(nil), data[32:32+n]...)
		if t.Kind == StringKind {
			return Text(content), nil
		}
		return ByteString(content), nil

	case SliceKind:
		n, err := readLength(data, 0)
		if err != nil {
			return nil, err
		}
		// Every element takes at least one head slot.
		if size := t.Elem.headSize(); size > 0 && n > (len(data)-32)/size {
			return nil, fmt.Errorf("%v of length %d exceeds available data", t, n)
		}
		values, err := decodeSequence(repeatType(*t.Elem, n), data[32:])
		if err != nil {
			return nil, err
		}
		return Seq(values), nil

	case ArrayKind:
		if size := t.Elem.headSize(); size > 0 && t.Size > len(data)/size {
			return nil, fmt.Errorf("%v exceeds available data", t)
		}
		values, err := decodeSequence(repeatType(*t.Elem, t.Size), data)
		if err != nil {
			return nil, err
		}
		return Seq(values), nil

	case TupleKind:
		values, err := decodeSequence(t.Components, data)
		if err != nil {
			return nil, err
		}
		return Tuple(values), nil
	}
	return nil, fmt.Errorf("unsupported type %v", t)
}

func readWord(data []byte, t Type) (Word, error) {
	var res Word
	if len(data) < 32 {
		return res, fmt.Errorf("data too short for %v", t)
	}
	copy(res[:], data[:32])
	return res, nil
}

// readLength reads an offset or length word, which must fit a small int.
func readLength(data []byte, pos int) (int, error) {
	if pos+32 > len(data) {
		return 0, fmt.Errorf("data too short for length at %d", pos)
	}
	word := data[pos : pos+32]
	for _, b := range word[:24] {
		if b != 0 {
			return 0, fmt.Errorf("length at %d too large", pos)
		}
	}
	n := binary.BigEndian.Uint64(word[24:])
	if n > uint64(len(data)) {
		return 0, fmt.Errorf("length %d at %d exceeds %d bytes of data", n, pos, len(data))
	}
	return int(n), nil
}

func isZero(data []byte) bool {
	for _, b := range data {
		if b != 0 {
			return false
		}
	}
	return true
}
