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
	"fmt"
	"math/big"
	"strconv"
	"strings"

	"github.com/rainlanguage/rain.interpreter/go/rain"
)

// Value is an ABI value. It is implemented by Word, Addr, Boolean,
// ByteString, Text, FixedBytes, Seq and Tuple only.
type Value interface {
	abiValue()
}

type (
	// Word holds integers of any width, in two's complement for signed ones.
	Word rain.Word
	// Addr holds an address.
	Addr rain.Address
	// Boolean holds a bool.
	Boolean bool
	// ByteString holds a dynamic bytes value.
	ByteString []byte
	// Text holds a string value.
	Text string
	// FixedBytes holds a bytes<N> value of exactly N bytes.
	FixedBytes []byte
	// Seq holds the elements of a dynamic or fixed-size array.
	Seq []Value
	// Tuple holds the components of a tuple.
	Tuple []Value
)

func (Word) abiValue()       {}
func (Addr) abiValue()       {}
func (Boolean) abiValue()    {}
func (ByteString) abiValue() {}
func (Text) abiValue()       {}
func (FixedBytes) abiValue() {}
func (Seq) abiValue()        {}
func (Tuple) abiValue()      {}

// Words converts a sequence of words into a Seq.
func Words(words []rain.Word) Seq {
	res := make(Seq, len(words))
	for i, w := range words {
		res[i] = Word(w)
	}
	return res
}

// AsWords converts a Seq of Word values back into words.
func AsWords(v Value) ([]rain.Word, error) {
	seq, ok := v.(Seq)
	if !ok {
		return nil, fmt.Errorf("expected a sequence, got %T", v)
	}
	res := make([]rain.Word, len(seq))
	for i, cur := range seq {
		w, ok := cur.(Word)
		if !ok {
			return nil, fmt.Errorf("expected a word at index %d, got %T", i, cur)
		}
		res[i] = rain.Word(w)
	}
	return res, nil
}

// Format renders a value for humans, interpreting words according to t.
func Format(t Type, v Value) string {
	switch v := v.(type) {
	case Word:
		if t.Kind == IntKind && v[0]&0x80 != 0 {
			abs := new(big.Int).Sub(rain.Word(v).ToBig(), new(big.Int).Lsh(big.NewInt(1), 256))
			return abs.String()
		}
		return rain.Word(v).String()
	case Addr:
		return rain.Address(v).String()
	case Boolean:
		return strconv.FormatBool(bool(v))
	case ByteString:
		return fmt.Sprintf("0x%x", []byte(v))
	case FixedBytes:
		return fmt.Sprintf("0x%x", []byte(v))
	case Text:
		return strconv.Quote(string(v))
	case Seq:
		elem := Type{}
		if t.Elem != nil {
			elem = *t.Elem
		}
		parts := make([]string, len(v))
		for i, cur := range v {
			parts[i] = Format(elem, cur)
		}
		return "[" + strings.Join(parts, ", ") + "]"
	case Tuple:
		parts := make([]string, len(v))
		for i, cur := range v {
			var component Type
			if i < len(t.Components) {
				component = t.Components[i]
			}
			parts[i] = Format(component, cur)
		}
		return "(" + strings.Join(parts, ", ") + ")"
	}
	return fmt.Sprintf("%v", v)
}
