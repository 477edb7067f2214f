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
	"errors"
	"fmt"
	"net/url"
	"os"

	"github.com/creasty/defaults"
	"github.com/rainlanguage/rain.interpreter/go/fetcher"
	"github.com/rainlanguage/rain.interpreter/go/rain"
	"gopkg.in/yaml.v3"
)

// Config configures a Fork.
type Config struct {
	Fetcher fetcher.Config `yaml:"fetcher"`
	// GasLimit is the gas available to every call issued by the fork.
	GasLimit uint64 `yaml:"gasLimit" default:"9223372036854775808"`
	// Sender is the account all calls originate from.
	Sender rain.Address `yaml:"sender"`
	// DecodeErrors resolves custom errors of reverts into signatures.
	DecodeErrors bool `yaml:"decodeErrors" default:"true"`
	// SignatureLookupURL is an OpenChain compatible signature database
	// consulted for custom errors unknown to the builtin registry. Remote
	// lookups are disabled when empty.
	SignatureLookupURL string `yaml:"signatureLookupUrl"`
}

// DefaultConfig returns a config with all defaults applied.
func DefaultConfig() (*Config, error) {
	config := &Config{}
	if err := defaults.Set(config); err != nil {
		return nil, err
	}
	return config, nil
}

// LoadConfig reads a YAML config file on top of the defaults.
func LoadConfig(file string) (*Config, error) {
	config, err := DefaultConfig()
	if err != nil {
		return nil, err
	}

	yamlFile, err := os.ReadFile(file)
	if err != nil {
		return nil, err
	}

	type plain Config

	if err := yaml.Unmarshal(yamlFile, (*plain)(config)); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", file, err)
	}

	return config, nil
}

func (c *Config) Validate() error {
	if err := c.Fetcher.Validate(); err != nil {
		return err
	}
	if c.GasLimit == 0 {
		return errors.New("gas limit must be positive")
	}
	if c.SignatureLookupURL != "" {
		if _, err := url.ParseRequestURI(c.SignatureLookupURL); err != nil {
			return fmt.Errorf("invalid signature lookup url: %w", err)
		}
	}
	return nil
}
