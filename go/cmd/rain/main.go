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
	"errors"
	"fmt"
	"os"

	"github.com/rainlanguage/rain.interpreter/go/abi"
	"github.com/rainlanguage/rain.interpreter/go/eval"
	"github.com/urfave/cli/v2"
)

func main() {
	if err := newApp().Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(exitCode(err))
	}
}

// newApp creates the command line application. Slice flags are not split on
// commas since --context uses them to separate the values of a column.
func newApp() *cli.App {
	return &cli.App{
		Name:  "rain",
		Usage: "Parse and evaluate Rainlang against a fork of a live chain",
		Commands: []*cli.Command{
			&EvalCmd,
			&ParseCmd,
		},
		DisableSliceFlagSeparator: true,
		OnUsageError:              onUsageError,
	}
}

// usageError marks errors caused by the invocation rather than by the
// network or the tool itself.
type usageError struct {
	err error
}

func (e *usageError) Error() string {
	return e.err.Error()
}

func (e *usageError) Unwrap() error {
	return e.err
}

func onUsageError(_ *cli.Context, err error, _ bool) error {
	return &usageError{err}
}

func usageErrorf(format string, args ...any) error {
	return &usageError{fmt.Errorf(format, args...)}
}

// errReverted is reported when the evaluated expression reverts.
var errReverted = errors.New("evaluation reverted")

// exitCode is 1 for user errors, including reverting expressions, and 2 for
// everything else.
func exitCode(err error) int {
	if err == nil {
		return 0
	}
	var (
		usage  *usageError
		revert *abi.RevertError
		path   *eval.BadTracePath
	)
	if errors.As(err, &usage) || errors.As(err, &revert) || errors.As(err, &path) || errors.Is(err, errReverted) {
		return 1
	}
	return 2
}
