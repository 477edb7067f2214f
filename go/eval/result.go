// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package eval

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/rainlanguage/rain.interpreter/go/rain"
	"github.com/rainlanguage/rain.interpreter/go/trace"
)

// EvalResult is the outcome of an evaluation. Stack and Writes are empty if
// the evaluation reverted. Traces list callers before the sources they
// called.
type EvalResult struct {
	Reverted bool
	Stack    []rain.Word
	Writes   []rain.Word
	Traces   []trace.SourceTrace
}

// Lookup resolves a trace path to a stack item. The path starts with a top
// level source, descends through called sources and ends with an index
// into the stack of the last source, counted from the top. For example
// "0.1.3" is the fourth item from the top of source 1 as called by
// source 0.
func (r *EvalResult) Lookup(path string) (rain.Word, error) {
	parts := strings.Split(path, ".")
	if len(parts) < 2 {
		return rain.Word{}, &BadTracePath{Path: path}
	}
	sources := make([]uint16, len(parts)-1)
	for i, part := range parts[:len(parts)-1] {
		source, err := strconv.ParseUint(part, 10, 16)
		if err != nil {
			return rain.Word{}, &BadTracePath{Path: path}
		}
		sources[i] = uint16(source)
	}
	index, err := strconv.ParseUint(parts[len(parts)-1], 10, 32)
	if err != nil {
		return rain.Word{}, &BadTracePath{Path: path}
	}

	parent := sources[0]
	current, found := r.find(parent, sources[0])
	if !found {
		return rain.Word{}, &TraceNotFound{Detail: fmt.Sprintf("trace with parent %d.%d not found", parent, sources[0])}
	}
	for _, source := range sources[1:] {
		parent = current.Source
		if current, found = r.find(parent, source); !found {
			return rain.Word{}, &TraceNotFound{Detail: fmt.Sprintf("trace with parent %d.%d not found", parent, source)}
		}
	}

	if index >= uint64(len(current.Stack)) {
		return rain.Word{}, &TraceNotFound{
			Detail: fmt.Sprintf("stack index %d out of bounds in trace %d.%d", index, current.ParentSource, current.Source),
		}
	}
	return current.Stack[len(current.Stack)-int(index)-1], nil
}

func (r *EvalResult) find(parent, source uint16) (trace.SourceTrace, bool) {
	for _, t := range r.Traces {
		if t.ParentSource == parent && t.Source == source {
			return t, true
		}
	}
	return trace.SourceTrace{}, false
}

// EvalResults is a batch of evaluations of the same expression.
type EvalResults []*EvalResult

// Table flattens the traces of a batch into a table with one row per
// result and one column per traced stack item, top of stack first. Column
// names are trace paths derived from the first result, e.g. "0.1.2" for
// the third item of source 1 called by source 0. A source whose caller was
// not traced is named "<parent>?.<source>".
func (rs EvalResults) Table() (columns []string, rows [][]rain.Word) {
	if len(rs) == 0 {
		return nil, nil
	}

	var paths []string
	for _, t := range rs[0].Traces {
		path := strconv.Itoa(int(t.Source))
		if !t.IsRoot() {
			path = fmt.Sprintf("%d?.%d", t.ParentSource, t.Source)
			parent := strconv.Itoa(int(t.ParentSource))
			for i := len(paths) - 1; i >= 0; i-- {
				if paths[i] == parent || strings.HasSuffix(paths[i], "."+parent) {
					path = paths[i] + "." + strconv.Itoa(int(t.Source))
					break
				}
			}
		}
		for i := range t.Stack {
			columns = append(columns, path+"."+strconv.Itoa(i))
		}
		paths = append(paths, path)
	}

	rows = make([][]rain.Word, len(rs))
	for i, r := range rs {
		row := []rain.Word{}
		for _, t := range r.Traces {
			for j := len(t.Stack) - 1; j >= 0; j-- {
				row = append(row, t.Stack[j])
			}
		}
		rows[i] = row
	}
	return columns, rows
}
