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
	"context"
	"fmt"

	"github.com/dsnet/golib/unitconv"
	"github.com/rainlanguage/rain.interpreter/go/abi"
	"github.com/rainlanguage/rain.interpreter/go/host"
	"github.com/rainlanguage/rain.interpreter/go/rain"
	"github.com/rainlanguage/rain.interpreter/go/trace"
	"github.com/sirupsen/logrus"
)

// StorageOverride sets a storage slot of the fork before an evaluation.
type StorageOverride struct {
	Address rain.Address
	Slot    rain.Word
	Value   rain.Word
}

// ForkEvalArgs are the arguments of ForkEval.
type ForkEvalArgs struct {
	Rainlang    []byte
	SourceIndex uint16
	Deployer    rain.Address
	// Namespace is passed to the interpreter as is; it must already be
	// qualified with the sender, see rain.QualifyNamespace.
	Namespace rain.Word
	Context   [][]rain.Word
	Inputs    []rain.Word
	// StateOverrides are written into the fork before the evaluation and
	// persist after it.
	StateOverrides []StorageOverride
}

// ForkParse compiles Rainlang with the parser of the given deployer and
// checks the result with the deployer's integrity check. Neither step
// modifies the fork.
func (f *Fork) ForkParse(ctx context.Context, rainlang []byte, deployer rain.Address) (rain.ExpressionArtifact, error) {
	if err := f.acquire(); err != nil {
		return rain.ExpressionArtifact{}, err
	}
	defer f.mu.Unlock()

	disp, err := f.discoverer.Discover(ctx, deployer)
	if err != nil {
		return rain.ExpressionArtifact{}, err
	}
	return f.parse(ctx, disp, rainlang)
}

// ForkEval parses, deploys and evaluates Rainlang on the fork. A reverting
// evaluation is not an error; it is reported by EvalResult.Reverted along
// with the traces recorded before the revert.
func (f *Fork) ForkEval(ctx context.Context, args ForkEvalArgs) (*EvalResult, error) {
	if err := f.acquire(); err != nil {
		return nil, err
	}
	defer f.mu.Unlock()

	if len(args.StateOverrides) > 0 {
		overlay := f.host.Overlay()
		for _, override := range args.StateOverrides {
			overlay.SetStorage(override.Address, override.Slot, override.Value)
		}
	}

	disp, err := f.discoverer.Discover(ctx, args.Deployer)
	if err != nil {
		return nil, err
	}
	artifact, err := f.parse(ctx, disp, args.Rainlang)
	if err != nil {
		return nil, err
	}

	expression, err := f.deploy(ctx, disp, artifact)
	if err != nil {
		return nil, err
	}
	dispatch := rain.EncodeDispatch(expression, args.SourceIndex, rain.MaxOutputsUnbounded)

	columns := make(abi.Seq, len(args.Context))
	for i, column := range args.Context {
		columns[i] = abi.Words(column)
	}
	input, err := evalFunction.EncodeCall(
		abi.Addr(disp.Store),
		abi.Word(args.Namespace),
		abi.Word(dispatch),
		columns,
		abi.Words(args.Inputs),
	)
	if err != nil {
		return nil, err
	}
	result, err := f.host.Call(ctx, f.sender, disp.Interpreter, input, rain.Word{})
	if err != nil {
		return nil, err
	}
	if err := result.Err(); err != nil {
		return nil, fmt.Errorf("evaluating %v: %w", expression, err)
	}

	res := &EvalResult{
		Reverted: result.Exit.Kind == host.Revert,
		Traces:   trace.SourceTraces(result.Trace.Nodes()),
	}
	f.log.WithFields(logrus.Fields{
		"expression": expression,
		"source":     args.SourceIndex,
		"reverted":   res.Reverted,
		"traces":     len(res.Traces),
		"gas":        unitconv.FormatPrefix(float64(result.GasUsed), unitconv.SI, 0),
	}).Debug("Evaluated expression")
	if res.Reverted {
		return res, nil
	}

	values, err := evalFunction.DecodeReturn(result.Output)
	if err != nil {
		return nil, err
	}
	if res.Stack, err = abi.AsWords(values[0]); err != nil {
		return nil, err
	}
	if res.Writes, err = abi.AsWords(values[1]); err != nil {
		return nil, err
	}
	return res, nil
}

// parse runs the parser and the integrity check as reads.
func (f *Fork) parse(ctx context.Context, disp rain.DispSet, rainlang []byte) (rain.ExpressionArtifact, error) {
	input, err := parseFunction.EncodeCall(abi.ByteString(rainlang))
	if err != nil {
		return rain.ExpressionArtifact{}, err
	}
	result, err := f.host.Call(ctx, f.sender, disp.Parser, input, rain.Word{})
	if err != nil {
		return rain.ExpressionArtifact{}, err
	}
	if err := f.check(ctx, result); err != nil {
		return rain.ExpressionArtifact{}, fmt.Errorf("parsing: %w", err)
	}
	values, err := parseFunction.DecodeReturn(result.Output)
	if err != nil {
		return rain.ExpressionArtifact{}, err
	}
	artifact := rain.ExpressionArtifact{Bytecode: []byte(values[0].(abi.ByteString))}
	if artifact.Constants, err = abi.AsWords(values[1]); err != nil {
		return rain.ExpressionArtifact{}, err
	}

	input, err = deployCall(artifact)
	if err != nil {
		return rain.ExpressionArtifact{}, err
	}
	result, err = f.host.Call(ctx, f.sender, disp.Deployer, input, rain.Word{})
	if err != nil {
		return rain.ExpressionArtifact{}, err
	}
	if err := f.check(ctx, result); err != nil {
		return rain.ExpressionArtifact{}, fmt.Errorf("integrity check: %w", err)
	}
	if _, err := deployFunction.DecodeReturn(result.Output); err != nil {
		return rain.ExpressionArtifact{}, err
	}
	return artifact, nil
}

// deploy installs the expression in the fork and returns its address,
// the third element of the deployer's return tuple.
func (f *Fork) deploy(ctx context.Context, disp rain.DispSet, artifact rain.ExpressionArtifact) (rain.Address, error) {
	input, err := deployCall(artifact)
	if err != nil {
		return rain.Address{}, err
	}
	result, err := f.host.Commit(ctx, f.sender, disp.Deployer, input, rain.Word{})
	if err != nil {
		return rain.Address{}, err
	}
	if err := f.check(ctx, result); err != nil {
		return rain.Address{}, fmt.Errorf("deploying expression: %w", err)
	}
	values, err := deployFunction.DecodeReturn(result.Output)
	if err != nil {
		return rain.Address{}, err
	}
	return rain.Address(values[2].(abi.Addr)), nil
}

func deployCall(artifact rain.ExpressionArtifact) ([]byte, error) {
	return deployFunction.EncodeCall(abi.ByteString(artifact.Bytecode), abi.Words(artifact.Constants))
}
