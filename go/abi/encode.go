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

// EncodeError reports a value that does not match the type it was to be
// encoded as.
type EncodeError struct {
	Type   string
	Reason string
}

func (e *EncodeError) Error() string {
	return fmt.Sprintf("cannot encode %s: %s", e.Type, e.Reason)
}

func mismatch(t Type, v Value) error {
	return &EncodeError{Type: t.String(), Reason: fmt.Sprintf("unexpected value of type %T", v)}
}

// Encode produces the ABI encoding of values as a tuple of the given types,
// as used for call arguments and return data.
func Encode(types []Type, values []Value) ([]byte, error) {
	if len(types) != len(values) {
		return nil, &EncodeError{
			Type:   "(" + joinTypes(types) + ")",
			Reason: fmt.Sprintf("got %d values for %d types", len(values), len(types)),
		}
	}
	return encodeSequence(types, values)
}

func encodeSequence(types []Type, values []Value) ([]byte, error) {
	headSize := 0
	for _, t := range types {
		headSize += t.headSize()
	}
	head := make([]byte, 0, headSize)
	var tail []byte
	for i, t := range types {
		enc, err := encodeValue(t, values[i])
		if err != nil {
			return nil, err
		}
		if t.IsDynamic() {
			head = append(head, encodeLength(headSize+len(tail))...)
			tail = append(tail, enc...)
		} else {
			head = append(head, enc...)
		}
	}
	return append(head, tail...), nil
}

func encodeValue(t Type, v Value) ([]byte, error) {
	switch t.Kind {
	case UintKind, IntKind:
		w, ok := v.(Word)
		if !ok {
			return nil, mismatch(t, v)
		}
		if !fitsWidth(t, w) {
			return nil, &EncodeError{Type: t.String(), Reason: "value out of range"}
		}
		return w[:], nil

	case AddressKind:
		a, ok := v.(Addr)
		if !ok {
			return nil, mismatch(t, v)
		}
		res := make([]byte, 32)
		copy(res[12:], a[:])
		return res, nil

	case BoolKind:
		b, ok := v.(Boolean)
		if !ok {
			return nil, mismatch(t, v)
		}
		res := make([]byte, 32)
		if b {
			res[31] = 1
		}
		return res, nil

	case FixedBytesKind:
		b, ok := v.(FixedBytes)
		if !ok {
			return nil, mismatch(t, v)
		}
		if len(b) != t.Size {
			return nil, &EncodeError{Type: t.String(), Reason: fmt.Sprintf("got %d bytes", len(b))}
		}
		return padRight(b), nil

	case BytesKind:
		b, ok := v.(ByteString)
		if !ok {
			return nil, mismatch(t, v)
		}
		return append(encodeLength(len(b)), padRight(b)...), nil

	case StringKind:
		s, ok := v.(Text)
		if !ok {
			return nil, mismatch(t, v)
		}
		return append(encodeLength(len(s)), padRight([]byte(s))...), nil

	case SliceKind:
		seq, ok := v.(Seq)
		if !ok {
			return nil, mismatch(t, v)
		}
		enc, err := encodeSequence(repeatType(*t.Elem, len(seq)), seq)
		if err != nil {
			return nil, err
		}
		return append(encodeLength(len(seq)), enc...), nil

	case ArrayKind:
		seq, ok := v.(Seq)
		if !ok {
			return nil, mismatch(t, v)
		}
		if len(seq) != t.Size {
			return nil, &EncodeError{Type: t.String(), Reason: fmt.Sprintf("got %d elements", len(seq))}
		}
		return encodeSequence(repeatType(*t.Elem, t.Size), seq)

	case TupleKind:
		tuple, ok := v.(Tuple)
		if !ok {
			return nil, mismatch(t, v)
		}
		if len(tuple) != len(t.Components) {
			return nil, &EncodeError{Type: t.String(), Reason: fmt.Sprintf("got %d components", len(tuple))}
		}
		return encodeSequence(t.Components, tuple)
	}
	return nil, &EncodeError{Type: t.String(), Reason: "unsupported type"}
}

// fitsWidth checks that a word is a valid value of an integer type narrower
// than 256 bits: zero extended for unsigned and sign extended for signed.
func fitsWidth(t Type, w Word) bool {
	if t.Size >= 256 {
		return true
	}
	unused := 32 - t.Size/8
	var fill byte
	if t.Kind == IntKind && w[unused]&0x80 != 0 {
		fill = 0xFF
	}
	for _, b := range w[:unused] {
		if b != fill {
			return false
		}
	}
	return true
}

func encodeLength(n int) []byte {
	res := make([]byte, 32)
	binary.BigEndian.PutUint64(res[24:], uint64(n))
	return res
}

func padRight(data []byte) []byte {
	size := (len(data) + 31) / 32 * 32
	res := make([]byte, size)
	copy(res, data)
	return res
}
