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
	"bytes"
	"encoding/hex"
	"fmt"

	"github.com/rainlanguage/rain.interpreter/go/rain"
)

// Selector is the first four bytes of the hash of a function or error
// signature.
type Selector [4]byte

// SelectorOf computes the selector of a canonical signature.
func SelectorOf(signature string) Selector {
	var res Selector
	hash := rain.Keccak256([]byte(signature))
	copy(res[:], hash[:4])
	return res
}

func (s Selector) String() string {
	return "0x" + hex.EncodeToString(s[:])
}

// Function describes a contract function or custom error.
type Function struct {
	Name    string
	Inputs  []Type
	Outputs []Type
}

// Signature returns the canonical signature, e.g. "transfer(address,uint256)".
func (f Function) Signature() string {
	return f.Name + "(" + joinTypes(f.Inputs) + ")"
}

func (f Function) Selector() Selector {
	return SelectorOf(f.Signature())
}

// EncodeCall produces the call data invoking the function with args.
func (f Function) EncodeCall(args ...Value) ([]byte, error) {
	enc, err := Encode(f.Inputs, args)
	if err != nil {
		return nil, fmt.Errorf("encoding call to %s: %w", f.Signature(), err)
	}
	selector := f.Selector()
	return append(selector[:], enc...), nil
}

// DecodeCall parses call data of the function, checking its selector.
func (f Function) DecodeCall(data []byte) ([]Value, error) {
	selector := f.Selector()
	if len(data) < 4 || !bytes.Equal(data[:4], selector[:]) {
		return nil, &DecodeError{Signature: f.Signature(), Reason: "selector mismatch"}
	}
	values, err := decodeSequence(f.Inputs, data[4:])
	if err != nil {
		return nil, &DecodeError{Signature: f.Signature(), Reason: err.Error()}
	}
	return values, nil
}

// EncodeReturn produces the return data of the function.
func (f Function) EncodeReturn(values ...Value) ([]byte, error) {
	enc, err := Encode(f.Outputs, values)
	if err != nil {
		return nil, fmt.Errorf("encoding return of %s: %w", f.Signature(), err)
	}
	return enc, nil
}

// DecodeReturn parses the return data of the function.
func (f Function) DecodeReturn(data []byte) ([]Value, error) {
	values, err := decodeSequence(f.Outputs, data)
	if err != nil {
		return nil, &DecodeError{Signature: f.Signature(), Reason: err.Error()}
	}
	return values, nil
}
