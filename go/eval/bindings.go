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

import "github.com/rainlanguage/rain.interpreter/go/abi"

var (
	words       = abi.SliceOf(abi.Uint256)
	wordColumns = abi.SliceOf(words)

	parseFunction = abi.Function{
		Name:    "parse",
		Inputs:  []abi.Type{abi.Bytes},
		Outputs: []abi.Type{abi.Bytes, words},
	}
	deployFunction = abi.Function{
		Name:    "deployExpression2",
		Inputs:  []abi.Type{abi.Bytes, words},
		Outputs: []abi.Type{abi.Address, abi.Address, abi.Address, abi.Bytes},
	}
	evalFunction = abi.Function{
		Name:    "eval2",
		Inputs:  []abi.Type{abi.Address, abi.Uint256, abi.Uint256, wordColumns, words},
		Outputs: []abi.Type{words, words},
	}
	storeSetFunction = abi.Function{
		Name:   "set",
		Inputs: []abi.Type{abi.Uint256, words},
	}
	storeGetFunction = abi.Function{
		Name:    "get",
		Inputs:  []abi.Type{abi.Uint256, abi.Uint256},
		Outputs: []abi.Type{abi.Uint256},
	}
)

// ArtifactType is the ABI type of an encoded expression artifact, the
// output of the parse command.
var ArtifactType = []abi.Type{abi.Bytes, words}

// ResultType is the ABI type of an encoded evaluation, the stack followed
// by the writes.
var ResultType = []abi.Type{words, words}
