// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package fetcher

import (
	"fmt"
	"net/url"
	"strings"
)

// Config describes the remote chain a fetcher reads state from.
type Config struct {
	// URL of the JSON-RPC endpoint, http(s) or ws(s).
	URL string `yaml:"url"`
	// BlockNumber pins the fork to the given block; the latest block is
	// used when absent.
	BlockNumber *uint64 `yaml:"blockNumber"`
	// Headers are added to every HTTP request sent to the endpoint.
	Headers map[string]string `yaml:"headers"`
	// Redis configures an optional persistent second-tier cache.
	Redis RedisConfig `yaml:"redis"`
}

// RedisConfig configures the redis cache tier. An empty address disables it.
type RedisConfig struct {
	Address string `yaml:"address"`
	Prefix  string `yaml:"prefix" default:"rain"`
}

func (c *Config) Validate() error {
	if c.URL == "" {
		return ErrNoEndpoint
	}
	u, err := url.Parse(c.URL)
	if err != nil {
		return fmt.Errorf("invalid fork url: %w", err)
	}
	switch u.Scheme {
	case "http", "https", "ws", "wss":
	default:
		return fmt.Errorf("unsupported fork url scheme %q", u.Scheme)
	}
	return c.Redis.Validate()
}

func (c *RedisConfig) Validate() error {
	if c.Address == "" {
		return nil
	}
	if strings.ContainsAny(c.Prefix, " \t\n") {
		return fmt.Errorf("redis prefix %q must not contain whitespace", c.Prefix)
	}
	return nil
}
