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
	"context"
	"fmt"
	"strings"

	"github.com/rainlanguage/rain.interpreter/go/rain"
)

var (
	// ErrorFunction is the standard Error(string) revert payload.
	ErrorFunction = Function{Name: "Error", Inputs: []Type{String}}
	// PanicFunction is the standard Panic(uint256) revert payload.
	PanicFunction = Function{Name: "Panic", Inputs: []Type{Uint256}}
)

// RevertError is a decoded revert payload. At most one of Reason, Panic and
// Signature is set; if none is, the payload could not be identified.
type RevertError struct {
	Data      []byte
	Reason    string
	Panic     *rain.Word
	Signature string
	Args      []Value
	args      []Type
}

// Selector returns the first four bytes of the payload, if present.
func (e *RevertError) Selector() (Selector, bool) {
	var res Selector
	if len(e.Data) < 4 {
		return res, false
	}
	copy(res[:], e.Data)
	return res, true
}

func (e *RevertError) Error() string {
	switch {
	case e.Panic != nil:
		return fmt.Sprintf("execution reverted: panic 0x%x", e.Panic.ToBig())
	case e.Signature != "":
		parts := make([]string, len(e.Args))
		for i, arg := range e.Args {
			var t Type
			if i < len(e.args) {
				t = e.args[i]
			}
			parts[i] = Format(t, arg)
		}
		name, _, _ := strings.Cut(e.Signature, "(")
		return fmt.Sprintf("execution reverted: %s(%s)", name, strings.Join(parts, ", "))
	case e.Reason != "" || bytes.HasPrefix(e.Data, errorSelector[:]):
		return "execution reverted: " + e.Reason
	}
	if selector, ok := e.Selector(); ok {
		return fmt.Sprintf("execution reverted with unknown error %v (0x%x)", selector, e.Data)
	}
	if len(e.Data) == 0 {
		return "execution reverted"
	}
	return fmt.Sprintf("execution reverted with malformed payload 0x%x", e.Data)
}

var (
	errorSelector = ErrorFunction.Selector()
	panicSelector = PanicFunction.Selector()
)

// DecodeRevert interprets a revert payload. Error(string) and
// Panic(uint256) are recognized directly; other selectors are resolved
// through the registry, if any. Registry failures leave the payload raw.
func DecodeRevert(ctx context.Context, data []byte, registry Registry) *RevertError {
	res := &RevertError{Data: bytes.Clone(data)}
	selector, ok := res.Selector()
	if !ok {
		return res
	}
	switch selector {
	case errorSelector:
		if values, err := ErrorFunction.DecodeCall(data); err == nil {
			res.Reason = string(values[0].(Text))
		}
		return res
	case panicSelector:
		if values, err := PanicFunction.DecodeCall(data); err == nil {
			code := rain.Word(values[0].(Word))
			res.Panic = &code
		}
		return res
	}
	if registry == nil {
		return res
	}
	candidates, err := registry.Lookup(ctx, selector)
	if err != nil {
		return res
	}
	for _, signature := range candidates {
		fn, err := ParseSignature(signature)
		if err != nil || fn.Selector() != selector {
			continue
		}
		values, err := fn.DecodeCall(data)
		if err != nil {
			continue
		}
		res.Signature = fn.Signature()
		res.Args = values
		res.args = fn.Inputs
		return res
	}
	return res
}
