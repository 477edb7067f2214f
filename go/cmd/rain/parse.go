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
	"github.com/rainlanguage/rain.interpreter/go/abi"
	"github.com/rainlanguage/rain.interpreter/go/eval"
	"github.com/urfave/cli/v2"
)

var ParseCmd = cli.Command{
	Action: doParse,
	Name:   "parse",
	Usage:  "Parse Rainlang and write the ABI encoded bytecode and constants",
	Flags:  forkFlags,

	OnUsageError: onUsageError,
}

func doParse(context *cli.Context) error {
	rainlang, err := RainlangFlag.Fetch(context)
	if err != nil {
		return err
	}
	deployer, err := DeployerFlag.Fetch(context)
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

	fork, _, err := openFork(context)
	if err != nil {
		return err
	}
	defer fork.Close()

	artifact, err := fork.ForkParse(context.Context, []byte(rainlang), deployer)
	if err != nil {
		return err
	}
	data, err := abi.Encode(eval.ArtifactType, []abi.Value{
		abi.ByteString(artifact.Bytecode),
		abi.Words(artifact.Constants),
	})
	if err != nil {
		return err
	}
	return writeOutput(path, encode(data))
}
