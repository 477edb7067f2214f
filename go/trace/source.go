// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package trace

import (
	"encoding/binary"
	"fmt"
	"slices"

	"github.com/rainlanguage/rain.interpreter/go/rain"
)

// SourceTrace is the stack of a single source at the end of its evaluation
// together with the source that called it. Top level sources name
// themselves as parent.
type SourceTrace struct {
	ParentSource uint16
	Source       uint16
	Stack        []rain.Word
}

const sourceTraceHeaderSize = 4

// ParseSourceTrace decodes the call data the interpreter sends to the tracer
// address:
//
//	parent source (2 bytes) || source (2 bytes) || stack words (32 bytes each)
//
// Inputs not of this shape are rejected.
func ParseSourceTrace(input []byte) (SourceTrace, bool) {
	if len(input) < sourceTraceHeaderSize || (len(input)-sourceTraceHeaderSize)%32 != 0 {
		return SourceTrace{}, false
	}
	res := SourceTrace{
		ParentSource: binary.BigEndian.Uint16(input[0:2]),
		Source:       binary.BigEndian.Uint16(input[2:4]),
		Stack:        make([]rain.Word, (len(input)-sourceTraceHeaderSize)/32),
	}
	for i := range res.Stack {
		start := sourceTraceHeaderSize + i*32
		copy(res.Stack[i][:], input[start:start+32])
	}
	return res, true
}

// Encode produces the call data for this trace as sent by the interpreter.
func (t SourceTrace) Encode() []byte {
	res := make([]byte, sourceTraceHeaderSize, sourceTraceHeaderSize+32*len(t.Stack))
	binary.BigEndian.PutUint16(res[0:2], t.ParentSource)
	binary.BigEndian.PutUint16(res[2:4], t.Source)
	for _, word := range t.Stack {
		res = append(res, word[:]...)
	}
	return res
}

// IsRoot reports whether the trace belongs to a top level source.
func (t SourceTrace) IsRoot() bool {
	return t.ParentSource == t.Source
}

func (t SourceTrace) String() string {
	return fmt.Sprintf("%d.%d%v", t.ParentSource, t.Source, t.Stack)
}

// SourceTraces extracts the traces sent to the tracer address. Sources emit
// their trace when they finish, so nested sources are recorded before their
// callers; the result is reversed to list callers first.
func SourceTraces(nodes []Node) []SourceTrace {
	var res []SourceTrace
	for _, node := range nodes {
		if node.Address != rain.TracerAddress {
			continue
		}
		if trace, ok := ParseSourceTrace(node.Input); ok {
			res = append(res, trace)
		}
	}
	slices.Reverse(res)
	return res
}
