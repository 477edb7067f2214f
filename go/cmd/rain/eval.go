// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package main

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/rainlanguage/rain.interpreter/go/abi"
	"github.com/rainlanguage/rain.interpreter/go/eval"
	"github.com/rainlanguage/rain.interpreter/go/rain"
	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
)

var EvalCmd = cli.Command{
	Action: doEval,
	Name:   "eval",
	Usage:  "Evaluate Rainlang and write the ABI encoded stack and writes",
	Flags: append([]cli.Flag{
		SourceIndexFlag.GetFlag(),
		NamespaceFlag.GetFlag(),
		ContextFlag.GetFlag(),
		InputFlag.GetFlag(),
		TraceTableFlag.GetFlag(),
	}, forkFlags...),

	OnUsageError: onUsageError,
}

func doEval(context *cli.Context) error {
	rainlang, err := RainlangFlag.Fetch(context)
	if err != nil {
		return err
	}
	deployer, err := DeployerFlag.Fetch(context)
	if err != nil {
		return err
	}
	sourceIndex, err := SourceIndexFlag.Fetch(context)
	if err != nil {
		return err
	}
	namespace, err := NamespaceFlag.Fetch(context)
	if err != nil {
		return err
	}
	columns, err := ContextFlag.Fetch(context)
	if err != nil {
		return err
	}
	inputs, err := InputFlag.Fetch(context)
	if err != nil {
		return err
	}
	encode, err := OutputEncodingFlag.Fetch(context)
	if err != nil {
		return err
	}
	path, err := OutputPathFlag.Fetch(context)
	if err != nil {
		return err
	}

	fork, log, err := openFork(context)
	if err != nil {
		return err
	}
	defer fork.Close()

	result, err := fork.ForkEval(context.Context, eval.ForkEvalArgs{
		Rainlang:    []byte(rainlang),
		SourceIndex: sourceIndex,
		Deployer:    deployer,
		Namespace:   rain.QualifyNamespace(namespace, fork.Sender()),
		Context:     columns,
		Inputs:      inputs,
	})
	if err != nil {
		return err
	}
	for _, trace := range result.Traces {
		log.WithFields(logrus.Fields{
			"parent": trace.ParentSource,
			"source": trace.Source,
		}).Infof("Trace %v", trace.Stack)
	}
	if result.Reverted {
		return errReverted
	}

	if TraceTableFlag.Fetch(context) {
		return writeOutput(path, formatTable(eval.EvalResults{result}))
	}
	data, err := abi.Encode(eval.ResultType, []abi.Value{abi.Words(result.Stack), abi.Words(result.Writes)})
	if err != nil {
		return err
	}
	return writeOutput(path, encode(data))
}

// formatTable renders a trace table as comma separated lines, the column
// names first.
func formatTable(results eval.EvalResults) []byte {
	columns, rows := results.Table()
	var out bytes.Buffer
	fmt.Fprintln(&out, strings.Join(columns, ","))
	for _, row := range rows {
		values := make([]string, len(row))
		for i, word := range row {
			values[i] = word.String()
		}
		fmt.Fprintln(&out, strings.Join(values, ","))
	}
	return out.Bytes()
}
