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
	"context"
	"errors"
	"sync"
)

// Registry resolves selectors to candidate signatures.
type Registry interface {
	Lookup(ctx context.Context, selector Selector) ([]string, error)
}

// StaticRegistry is an in-memory registry of known signatures.
type StaticRegistry struct {
	mu         sync.RWMutex
	signatures map[Selector][]string
}

func NewStaticRegistry(signatures ...string) *StaticRegistry {
	res := &StaticRegistry{signatures: map[Selector][]string{}}
	for _, signature := range signatures {
		res.Add(signature)
	}
	return res
}

// Add registers a canonical signature.
func (r *StaticRegistry) Add(signature string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	selector := SelectorOf(signature)
	r.signatures[selector] = append(r.signatures[selector], signature)
}

func (r *StaticRegistry) Lookup(_ context.Context, selector Selector) ([]string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.signatures[selector], nil
}

// BuiltinRegistry returns a registry of the errors raised by the Rainlang
// parser and integrity checks.
func BuiltinRegistry() *StaticRegistry {
	return NewStaticRegistry(rainErrors...)
}

var rainErrors = []string{
	"UnexpectedOperand()",
	"UnexpectedOperandValue()",
	"ExpectedOperand()",
	"OperandValuesOverflow(uint256)",
	"UnclosedOperand(uint256)",
	"UnsupportedLiteralType(uint256)",
	"StringTooLong(uint256)",
	"UnclosedStringLiteral(uint256)",
	"HexLiteralOverflow(uint256)",
	"ZeroLengthHexLiteral(uint256)",
	"OddLengthHexLiteral(uint256)",
	"MalformedHexLiteral(uint256)",
	"MalformedExponentDigits(uint256)",
	"MalformedDecimalPoint(uint256)",
	"MissingFinalSemi(uint256)",
	"UnexpectedLHSChar(uint256)",
	"UnexpectedRHSChar(uint256)",
	"ExpectedLeftParen(uint256)",
	"UnexpectedRightParen(uint256)",
	"UnclosedLeftParen(uint256)",
	"UnexpectedComment(uint256)",
	"UnclosedComment(uint256)",
	"MalformedCommentStart(uint256)",
	"DuplicateLHSItem(uint256)",
	"ExcessLHSItems(uint256)",
	"NotAcceptingInputs(uint256)",
	"ExcessRHSItems(uint256)",
	"WordSize(string)",
	"UnknownWord()",
	"MaxSources()",
	"DanglingSource()",
	"ParserOutOfBounds()",
	"ParseStackOverflow()",
	"ParseStackUnderflow()",
	"ParenOverflow()",
	"NoWhitespaceAfterUsingWordsFrom(uint256)",
	"InvalidSubParser(uint256)",
	"UnclosedSubParseableLiteral(uint256)",
	"SubParseableMissingDispatch(uint256)",
	"BadSubParserResult(bytes)",
	"OpcodeIOOverflow(uint256)",
	"StackUnderflow(uint256,uint256,uint256)",
	"StackUnderflowHighwater(uint256,uint256,uint256)",
	"StackAllocationMismatch(uint256,uint256)",
	"StackOutputsMismatch(uint256,uint256)",
	"OutOfBoundsConstantRead(uint256,uint256,uint256)",
	"OutOfBoundsStackRead(uint256,uint256,uint256)",
	"BadOpInputsLength(uint256,uint256,uint256)",
	"BadOpOutputsLength(uint256,uint256,uint256)",
	"SourceIndexOutOfBounds(bytes,uint256)",
	"UnsupportedBytecodeVersion(uint256)",
}

// Registries consults a list of registries in order and returns the first
// non-empty answer. Errors are reported only if no registry answered.
type Registries []Registry

func (rs Registries) Lookup(ctx context.Context, selector Selector) ([]string, error) {
	var errs []error
	for _, r := range rs {
		res, err := r.Lookup(ctx, selector)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if len(res) > 0 {
			return res, nil
		}
	}
	return nil, errors.Join(errs...)
}
