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
	"fmt"
	"strconv"
	"strings"

	"github.com/rainlanguage/rain.interpreter/go/rain"
	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

type stringFlagType struct {
	flag     cli.StringFlag
	required bool
}

var (
	ForkURLFlag = stringFlagType{flag: cli.StringFlag{
		Name:  "fork-url",
		Usage: "RPC url of the chain to fork",
	}}
	RainlangFlag = stringFlagType{flag: cli.StringFlag{
		Name:  "rainlang-string",
		Usage: "the Rainlang expression",
	}, required: true}
	OutputPathFlag = stringFlagType{flag: cli.StringFlag{
		Name:  "output-path",
		Usage: "file to write the output to, stdout if empty",
	}}
	ConfigFlag = stringFlagType{flag: cli.StringFlag{
		Name:  "config",
		Usage: "YAML config file, flags take precedence",
	}}
	RedisAddressFlag = stringFlagType{flag: cli.StringFlag{
		Name:  "redis-address",
		Usage: "redis server caching fetched state across runs",
	}}
)

func (f *stringFlagType) GetFlag() cli.Flag {
	return &f.flag
}

func (f *stringFlagType) Fetch(context *cli.Context) (string, error) {
	value := context.String(f.flag.Name)
	if f.required && value == "" {
		return "", usageErrorf("missing required flag --%s", f.flag.Name)
	}
	return value, nil
}

type blockNumberFlagType struct {
	flag cli.Uint64Flag
}

var ForkBlockNumberFlag = blockNumberFlagType{cli.Uint64Flag{
	Name:  "fork-block-number",
	Usage: "block to fork at, the latest block if not set",
}}

func (f *blockNumberFlagType) GetFlag() cli.Flag {
	return &f.flag
}

// Fetch returns nil if the flag is not set.
func (f *blockNumberFlagType) Fetch(context *cli.Context) *uint64 {
	if !context.IsSet(f.flag.Name) {
		return nil
	}
	res := context.Uint64(f.flag.Name)
	return &res
}

type addressFlagType struct {
	flag cli.StringFlag
}

var DeployerFlag = addressFlagType{cli.StringFlag{
	Name:  "deployer",
	Usage: "address of the expression deployer",
}}

func (f *addressFlagType) GetFlag() cli.Flag {
	return &f.flag
}

func (f *addressFlagType) Fetch(context *cli.Context) (rain.Address, error) {
	value := context.String(f.flag.Name)
	if value == "" {
		return rain.Address{}, usageErrorf("missing required flag --%s", f.flag.Name)
	}
	res, err := rain.ParseAddress(value)
	if err != nil {
		return rain.Address{}, usageErrorf("invalid --%s %q: %v", f.flag.Name, value, err)
	}
	return res, nil
}

type sourceIndexFlagType struct {
	flag cli.UintFlag
}

var SourceIndexFlag = sourceIndexFlagType{cli.UintFlag{
	Name:  "source-index",
	Usage: "index of the source to evaluate",
	Value: 0,
}}

func (f *sourceIndexFlagType) GetFlag() cli.Flag {
	return &f.flag
}

func (f *sourceIndexFlagType) Fetch(context *cli.Context) (uint16, error) {
	value := context.Uint(f.flag.Name)
	if value > 0xFFFF {
		return 0, usageErrorf("--%s %d out of range", f.flag.Name, value)
	}
	return uint16(value), nil
}

type wordFlagType struct {
	flag cli.StringFlag
}

var NamespaceFlag = wordFlagType{cli.StringFlag{
	Name:  "namespace",
	Usage: "state namespace, qualified with the sender before use",
	Value: "0",
}}

func (f *wordFlagType) GetFlag() cli.Flag {
	return &f.flag
}

func (f *wordFlagType) Fetch(context *cli.Context) (rain.Word, error) {
	value := context.String(f.flag.Name)
	res, err := rain.ParseWord(value)
	if err != nil {
		return rain.Word{}, usageErrorf("invalid --%s %q: %v", f.flag.Name, value, err)
	}
	return res, nil
}

type wordsFlagType struct {
	flag cli.StringSliceFlag
}

var InputFlag = wordsFlagType{cli.StringSliceFlag{
	Name:  "input",
	Usage: "input word passed to the evaluated source, may be repeated",
}}

func (f *wordsFlagType) GetFlag() cli.Flag {
	return &f.flag
}

func (f *wordsFlagType) Fetch(context *cli.Context) ([]rain.Word, error) {
	var res []rain.Word
	for _, value := range context.StringSlice(f.flag.Name) {
		word, err := rain.ParseWord(strings.TrimSpace(value))
		if err != nil {
			return nil, usageErrorf("invalid --%s %q: %v", f.flag.Name, value, err)
		}
		res = append(res, word)
	}
	return res, nil
}

type contextFlagType struct {
	flag cli.StringSliceFlag
}

var ContextFlag = contextFlagType{cli.StringSliceFlag{
	Name:  "context",
	Usage: "context column as KEY=v1,v2,... where KEY is the column index, may be repeated",
}}

func (f *contextFlagType) GetFlag() cli.Flag {
	return &f.flag
}

func (f *contextFlagType) Fetch(context *cli.Context) ([][]rain.Word, error) {
	return parseContext(context.StringSlice(f.flag.Name))
}

// parseContext turns KEY=v1,v2,... entries into columns ordered by KEY.
func parseContext(entries []string) ([][]rain.Word, error) {
	columns := map[uint64][]rain.Word{}
	for _, entry := range entries {
		key, values, found := strings.Cut(entry, "=")
		if !found {
			return nil, usageErrorf("invalid context %q, expected KEY=v1,v2,...", entry)
		}
		index, err := strconv.ParseUint(strings.TrimSpace(key), 10, 16)
		if err != nil {
			return nil, usageErrorf("invalid context key %q", key)
		}
		if _, found := columns[index]; found {
			return nil, usageErrorf("duplicate context key %d", index)
		}
		column := []rain.Word{}
		if values = strings.TrimSpace(values); values != "" {
			for _, value := range strings.Split(values, ",") {
				word, err := rain.ParseWord(strings.TrimSpace(value))
				if err != nil {
					return nil, usageErrorf("invalid context value %q: %v", value, err)
				}
				column = append(column, word)
			}
		}
		columns[index] = column
	}

	keys := maps.Keys(columns)
	slices.Sort(keys)
	res := make([][]rain.Word, 0, len(keys))
	for _, key := range keys {
		res = append(res, columns[key])
	}
	return res, nil
}

type boolFlagType struct {
	flag cli.BoolFlag
}

var TraceTableFlag = boolFlagType{cli.BoolFlag{
	Name:  "trace-table",
	Usage: "write the flattened trace table instead of the ABI encoded result",
}}

func (f *boolFlagType) GetFlag() cli.Flag {
	return &f.flag
}

func (f *boolFlagType) Fetch(context *cli.Context) bool {
	return context.Bool(f.flag.Name)
}

type logLevelFlagType struct {
	flag cli.StringFlag
}

var LogLevelFlag = logLevelFlagType{cli.StringFlag{
	Name:  "log-level",
	Usage: "one of panic, fatal, error, warn, info, debug, trace",
	Value: "info",
}}

func (f *logLevelFlagType) GetFlag() cli.Flag {
	return &f.flag
}

func (f *logLevelFlagType) Fetch(context *cli.Context) (logrus.Level, error) {
	value := context.String(f.flag.Name)
	level, err := logrus.ParseLevel(value)
	if err != nil {
		return 0, usageErrorf("invalid --%s: %v", f.flag.Name, err)
	}
	return level, nil
}

type encodingFlagType struct {
	flag cli.StringFlag
}

var OutputEncodingFlag = encodingFlagType{cli.StringFlag{
	Name:  "output-encoding",
	Usage: fmt.Sprintf("encoding of the output, one of %s", strings.Join(encodingNames(), ", ")),
	Value: "hex",
}}

func (f *encodingFlagType) GetFlag() cli.Flag {
	return &f.flag
}

func (f *encodingFlagType) Fetch(context *cli.Context) (encoding, error) {
	value := context.String(f.flag.Name)
	res, found := encodings[value]
	if !found {
		return nil, usageErrorf("unsupported --%s %q, expected one of %s", f.flag.Name, value, strings.Join(encodingNames(), ", "))
	}
	return res, nil
}
