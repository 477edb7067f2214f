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
	"strconv"
	"strings"
)

// Limits on parsed types. Signatures may come from untrusted registries, so
// types whose encoding could never fit into call data are rejected.
const (
	MaxArraySize = 1 << 16
	MaxHeadSize  = 1 << 24
)

// ParseType parses a type name such as "uint256", "bytes32[2]" or
// "(address,uint256[])". The aliases "uint" and "int" expand to 256 bits.
func ParseType(s string) (Type, error) {
	p := typeParser{input: s}
	t, err := p.parseType()
	if err != nil {
		return Type{}, err
	}
	if p.pos != len(s) {
		return Type{}, p.errorf("unexpected trailing input")
	}
	return t, nil
}

// ParseSignature parses a function or error signature such as
// "Error(string)". Parameter names are not supported.
func ParseSignature(signature string) (Function, error) {
	open := strings.IndexByte(signature, '(')
	if open <= 0 {
		return Function{}, fmt.Errorf("invalid signature %q: missing name or parameter list", signature)
	}
	name := signature[:open]
	for i, r := range name {
		if !(r == '_' || r == '$' || ('a' <= r && r <= 'z') || ('A' <= r && r <= 'Z') || (i > 0 && '0' <= r && r <= '9')) {
			return Function{}, fmt.Errorf("invalid signature %q: bad name", signature)
		}
	}
	params, err := ParseType(signature[open:])
	if err != nil {
		return Function{}, fmt.Errorf("invalid signature %q: %w", signature, err)
	}
	if params.Kind != TupleKind {
		return Function{}, fmt.Errorf("invalid signature %q: parameters are not a list", signature)
	}
	return Function{Name: name, Inputs: params.Components}, nil
}

type typeParser struct {
	input string
	pos   int
}

func (p *typeParser) errorf(format string, args ...any) error {
	return fmt.Errorf("invalid type %q at %d: %s", p.input, p.pos, fmt.Sprintf(format, args...))
}

func (p *typeParser) parseType() (Type, error) {
	var (
		t   Type
		err error
	)
	if strings.HasPrefix(p.input[p.pos:], "(") {
		t, err = p.parseTuple()
	} else {
		t, err = p.parseElementary()
	}
	if err != nil {
		return Type{}, err
	}
	for p.pos < len(p.input) && p.input[p.pos] == '[' {
		end := strings.IndexByte(p.input[p.pos:], ']')
		if end < 0 {
			return Type{}, p.errorf("unclosed array bracket")
		}
		size := p.input[p.pos+1 : p.pos+end]
		p.pos += end + 1
		if size == "" {
			t = SliceOf(t)
			continue
		}
		n, err := strconv.Atoi(size)
		if err != nil || n <= 0 || n > MaxArraySize {
			return Type{}, p.errorf("invalid array size %q", size)
		}
		t = ArrayOf(t, n)
		if t.headSize() > MaxHeadSize {
			return Type{}, p.errorf("array too large")
		}
	}
	return t, nil
}

func (p *typeParser) parseTuple() (Type, error) {
	p.pos++ // (
	var components []Type
	if p.pos < len(p.input) && p.input[p.pos] == ')' {
		p.pos++
		return TupleOf(), nil
	}
	for {
		t, err := p.parseType()
		if err != nil {
			return Type{}, err
		}
		components = append(components, t)
		if p.pos >= len(p.input) {
			return Type{}, p.errorf("unclosed tuple")
		}
		switch p.input[p.pos] {
		case ',':
			p.pos++
		case ')':
			p.pos++
			t := TupleOf(components...)
			if t.headSize() > MaxHeadSize {
				return Type{}, p.errorf("tuple too large")
			}
			return t, nil
		default:
			return Type{}, p.errorf("unexpected %q", p.input[p.pos])
		}
	}
}

func (p *typeParser) parseElementary() (Type, error) {
	start := p.pos
	for p.pos < len(p.input) && isIdentChar(p.input[p.pos]) {
		p.pos++
	}
	name := p.input[start:p.pos]
	switch name {
	case "":
		return Type{}, p.errorf("missing type name")
	case "address":
		return Address, nil
	case "bool":
		return Bool, nil
	case "bytes":
		return Bytes, nil
	case "string":
		return String, nil
	case "uint":
		return Uint256, nil
	case "int":
		return Type{Kind: IntKind, Size: 256}, nil
	}
	for _, prefix := range []struct {
		name string
		kind Kind
	}{{"uint", UintKind}, {"int", IntKind}, {"bytes", FixedBytesKind}} {
		suffix, found := strings.CutPrefix(name, prefix.name)
		if !found {
			continue
		}
		n, err := strconv.Atoi(suffix)
		if err != nil {
			break
		}
		if prefix.kind == FixedBytesKind {
			if n < 1 || n > 32 {
				return Type{}, p.errorf("invalid size of %s", name)
			}
		} else if n < 8 || n > 256 || n%8 != 0 {
			return Type{}, p.errorf("invalid width of %s", name)
		}
		return Type{Kind: prefix.kind, Size: n}, nil
	}
	return Type{}, p.errorf("unknown type %q", name)
}

func isIdentChar(c byte) bool {
	return ('a' <= c && c <= 'z') || ('A' <= c && c <= 'Z') || ('0' <= c && c <= '9') || c == '_'
}
