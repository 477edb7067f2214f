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
	"os"

	"github.com/rainlanguage/rain.interpreter/go/eval"
	"github.com/rainlanguage/rain.interpreter/go/fetcher"
	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
)

// forkFlags are shared by all commands creating a fork.
var forkFlags = []cli.Flag{
	ForkURLFlag.GetFlag(),
	ForkBlockNumberFlag.GetFlag(),
	DeployerFlag.GetFlag(),
	RainlangFlag.GetFlag(),
	OutputPathFlag.GetFlag(),
	OutputEncodingFlag.GetFlag(),
	LogLevelFlag.GetFlag(),
	ConfigFlag.GetFlag(),
	RedisAddressFlag.GetFlag(),
}

func newLogger(context *cli.Context) (*logrus.Logger, error) {
	level, err := LogLevelFlag.Fetch(context)
	if err != nil {
		return nil, err
	}
	log := logrus.New()
	log.SetOutput(os.Stderr)
	log.SetLevel(level)
	return log, nil
}

// loadConfig combines the config file, if any, with the flags.
func loadConfig(context *cli.Context) (*eval.Config, error) {
	file, err := ConfigFlag.Fetch(context)
	if err != nil {
		return nil, err
	}
	var config *eval.Config
	if file != "" {
		config, err = eval.LoadConfig(file)
		if err != nil {
			return nil, usageErrorf("%v", err)
		}
	} else if config, err = eval.DefaultConfig(); err != nil {
		return nil, err
	}

	url, err := ForkURLFlag.Fetch(context)
	if err != nil {
		return nil, err
	}
	if url != "" {
		config.Fetcher.URL = url
	}
	if block := ForkBlockNumberFlag.Fetch(context); block != nil {
		config.Fetcher.BlockNumber = block
	}
	redisAddress, err := RedisAddressFlag.Fetch(context)
	if err != nil {
		return nil, err
	}
	if redisAddress != "" {
		config.Fetcher.Redis.Address = redisAddress
	}

	if err := config.Validate(); err != nil {
		if errors.Is(err, fetcher.ErrNoEndpoint) {
			return nil, usageErrorf("missing --%s", ForkURLFlag.flag.Name)
		}
		return nil, &usageError{err}
	}
	return config, nil
}

// openFork creates the fork described by the flags.
func openFork(context *cli.Context) (*eval.Fork, logrus.FieldLogger, error) {
	log, err := newLogger(context)
	if err != nil {
		return nil, nil, err
	}
	config, err := loadConfig(context)
	if err != nil {
		return nil, nil, err
	}
	fork, err := eval.NewFork(context.Context, log, config)
	if err != nil {
		return nil, nil, err
	}
	return fork, log, nil
}
