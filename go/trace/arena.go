// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

// Package trace records the tree of calls made during an EVM execution and
// extracts the stack snapshots the interpreter emits to the tracer address.
package trace

import (
	"bytes"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/tracing"
	geth "github.com/ethereum/go-ethereum/core/vm"
	"github.com/rainlanguage/rain.interpreter/go/rain"
)

// CallKind is the opcode that entered a call frame.
type CallKind byte

const (
	Call         = CallKind(geth.CALL)
	StaticCall   = CallKind(geth.STATICCALL)
	DelegateCall = CallKind(geth.DELEGATECALL)
	CallCode     = CallKind(geth.CALLCODE)
	Create       = CallKind(geth.CREATE)
	Create2      = CallKind(geth.CREATE2)
)

func (k CallKind) String() string {
	return geth.OpCode(k).String()
}

// Node is a single call frame.
type Node struct {
	Kind     CallKind
	From     rain.Address
	Address  rain.Address
	Input    []byte
	Output   []byte
	Depth    uint16
	Reverted bool
}

// Arena is the ordered sequence of call frames entered during an execution,
// in the order they were entered. An Arena is filled by the hooks it hands
// out and is not safe for concurrent use.
type Arena struct {
	nodes []Node
	open  []int
}

func NewArena() *Arena {
	return &Arena{}
}

// Hooks returns the tracing hooks recording frames into this arena.
func (a *Arena) Hooks() *tracing.Hooks {
	return &tracing.Hooks{
		OnEnter: a.onEnter,
		OnExit:  a.onExit,
	}
}

func (a *Arena) onEnter(depth int, typ byte, from common.Address, to common.Address, input []byte, gas uint64, value *big.Int) {
	// The input may alias EVM memory that is reused later on.
	a.open = append(a.open, len(a.nodes))
	a.nodes = append(a.nodes, Node{
		Kind:    CallKind(typ),
		From:    rain.Address(from),
		Address: rain.Address(to),
		Input:   bytes.Clone(input),
		Depth:   uint16(depth),
	})
}

func (a *Arena) onExit(depth int, output []byte, gasUsed uint64, err error, reverted bool) {
	if len(a.open) == 0 {
		return
	}
	index := a.open[len(a.open)-1]
	a.open = a.open[:len(a.open)-1]
	a.nodes[index].Output = bytes.Clone(output)
	a.nodes[index].Reverted = reverted
}

// Nodes returns the recorded frames in the order they were entered.
func (a *Arena) Nodes() []Node {
	if a == nil {
		return nil
	}
	return a.nodes
}

func (a *Arena) Len() int {
	if a == nil {
		return 0
	}
	return len(a.nodes)
}

// Append adds a frame, used to build arenas outside of an EVM run.
func (a *Arena) Append(node Node) {
	a.nodes = append(a.nodes, node)
}
