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
	"context"
	"fmt"
	"net/http"

	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/ethereum/go-ethereum/rpc"
	"github.com/sirupsen/logrus"
)

// Dial connects to the configured endpoint and creates a fetcher pinned to
// the configured block. The returned fetcher owns the RPC client.
func Dial(ctx context.Context, log logrus.FieldLogger, config *Config, metrics *Metrics) (*Fetcher, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	headers := http.Header{}
	for key, value := range config.Headers {
		headers.Set(key, value)
	}
	httpClient := http.Client{}
	rpcClient, err := rpc.DialOptions(ctx, config.URL,
		rpc.WithHTTPClient(&httpClient),
		rpc.WithHeaders(headers),
	)
	if err != nil {
		return nil, &FetchError{Endpoint: config.URL, Key: "connection", Cause: err}
	}
	backend := ethclient.NewClient(rpcClient)

	opts := Options{
		BlockNumber: config.BlockNumber,
		Metrics:     metrics,
	}
	redisCache, err := NewRedisCacheFromConfig(&config.Redis)
	if err != nil {
		backend.Close()
		return nil, err
	}
	if redisCache != nil {
		opts.Cache = redisCache
	}

	fetcher, err := New(ctx, log, config.URL, backend, opts)
	if err != nil {
		backend.Close()
		if redisCache != nil {
			redisCache.Close()
		}
		return nil, fmt.Errorf("failed to create fork of %s: %w", config.URL, err)
	}
	return fetcher, nil
}
