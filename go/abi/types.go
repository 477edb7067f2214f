// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

// Package abi implements the Ethereum contract ABI for the types used to
// talk to Rainlang contracts. Values are a closed set of Go types; decoding
// is always driven by an explicit Type.
package abi

import (
	"fmt"
	"math"
	"strings"
)

// Kind enumerates the supported ABI types.
type Kind int

const (
	UintKind Kind = iota
	IntKind
	AddressKind
	BoolKind
	FixedBytesKind
	BytesKind
	StringKind
	SliceKind
	ArrayKind
	TupleKind
)

// Type is the schema of an ABI value. Size is the bit width of integers,
// the length of fixed bytes and the length of fixed arrays.
type Type struct {
	Kind       Kind
	Size       int
	Elem       *Type
	Components []Type
}

var (
	Uint256 = Type{Kind: UintKind, Size: 256}
	Address = Type{Kind: AddressKind}
	Bool    = Type{Kind: BoolKind}
	Bytes   = Type{Kind: BytesKind}
	String  = Type{Kind: StringKind}
)

// SliceOf returns the type of a dynamic array of elem.
func SliceOf(elem Type) Type {
	return Type{Kind: SliceKind, Elem: &elem}
}

// ArrayOf returns the type of a fixed-size array of elem.
func ArrayOf(elem Type, size int) Type {
	return Type{Kind: ArrayKind, Size: size, Elem: &elem}
}

// TupleOf returns the type of a tuple with the given components.
func TupleOf(components ...Type) Type {
	return Type{Kind: TupleKind, Components: components}
}

// FixedBytesOf returns the type bytes<size>.
func FixedBytesOf(size int) Type {
	return Type{Kind: FixedBytesKind, Size: size}
}

// String renders the canonical name of the type as used in signatures.
func (t Type) String() string {
	switch t.Kind {
	case UintKind:
		return fmt.Sprintf("uint%d", t.Size)
	case IntKind:
		return fmt.Sprintf("int%d", t.Size)
	case AddressKind:
		return "address"
	case BoolKind:
		return "bool"
	case FixedBytesKind:
		return fmt.Sprintf("bytes%d", t.Size)
	case BytesKind:
		return "bytes"
	case StringKind:
		return "string"
	case SliceKind:
		return t.Elem.String() + "[]"
	case ArrayKind:
		return fmt.Sprintf("%v[%d]", t.Elem, t.Size)
	case TupleKind:
		return "(" + joinTypes(t.Components) + ")"
	}
	return fmt.Sprintf("Kind(%d)", int(t.Kind))
}

func joinTypes(types []Type) string {
	names := make([]string, len(types))
	for i, t := range types {
		names[i] = t.String()
	}
	return strings.Join(names, ",")
}

// IsDynamic reports whether the encoding of the type is referenced by an
// offset in the head of its enclosing sequence.
func (t Type) IsDynamic() bool {
	switch t.Kind {
	case BytesKind, StringKind, SliceKind:
		return true
	case ArrayKind:
		return t.Elem.IsDynamic()
	case TupleKind:
		for _, c := range t.Components {
			if c.IsDynamic() {
				return true
			}
		}
	}
	return false
}

// headSize is the number of bytes the type occupies in the head of its
// enclosing sequence.
func (t Type) headSize() int {
	if t.IsDynamic() {
		return 32
	}
	switch t.Kind {
	case ArrayKind:
		elem := t.Elem.headSize()
		if elem > 0 && t.Size > math.MaxInt/elem {
			return math.MaxInt
		}
		return t.Size * elem
	case TupleKind:
		size := 0
		for _, c := range t.Components {
			next := c.headSize()
			if size > math.MaxInt-next {
				return math.MaxInt
			}
			size += next
		}
		return size
	}
	return 32
}

func repeatType(t Type, n int) []Type {
	res := make([]Type, n)
	for i := range res {
		res[i] = t
	}
	return res
}
