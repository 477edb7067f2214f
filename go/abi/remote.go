// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package abi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/cenkalti/backoff/v4"
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/sirupsen/logrus"
)

// DefaultSignatureLookupURL is the public OpenChain signature database.
const DefaultSignatureLookupURL = "https://api.openchain.xyz/signature-database/v1/lookup"

// RemoteRegistry resolves selectors through an OpenChain compatible
// signature database. Answers, including empty ones, are cached.
type RemoteRegistry struct {
	log        logrus.FieldLogger
	url        string
	client     *http.Client
	cache      *lru.Cache[Selector, []string]
	maxRetries uint64
	retryDelay time.Duration
}

func NewRemoteRegistry(log logrus.FieldLogger, lookupURL string, client *http.Client, cacheSize int) (*RemoteRegistry, error) {
	if _, err := url.Parse(lookupURL); err != nil {
		return nil, fmt.Errorf("invalid signature lookup url: %w", err)
	}
	cache, err := lru.New[Selector, []string](cacheSize)
	if err != nil {
		return nil, err
	}
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	return &RemoteRegistry{
		log:        log.WithField("component", "abi/registry"),
		url:        lookupURL,
		client:     client,
		cache:      cache,
		maxRetries: 3,
		retryDelay: 200 * time.Millisecond,
	}, nil
}

type lookupResponse struct {
	Ok     bool `json:"ok"`
	Result struct {
		Function map[string][]struct {
			Name string `json:"name"`
		} `json:"function"`
	} `json:"result"`
}

func (r *RemoteRegistry) Lookup(ctx context.Context, selector Selector) ([]string, error) {
	if res, found := r.cache.Get(selector); found {
		return res, nil
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = r.retryDelay
	b.MaxInterval = 10 * r.retryDelay

	var res []string
	operation := func() error {
		var err error
		res, err = r.fetch(ctx, selector)
		if err != nil {
			r.log.WithError(err).WithField("selector", selector).Debug("Signature lookup failed")
		}
		return err
	}
	if err := backoff.Retry(operation, backoff.WithContext(backoff.WithMaxRetries(b, r.maxRetries), ctx)); err != nil {
		return nil, err
	}
	r.cache.Add(selector, res)
	return res, nil
}

func (r *RemoteRegistry) fetch(ctx context.Context, selector Selector) ([]string, error) {
	query := url.Values{}
	query.Set("function", selector.String())
	query.Set("filter", "true")
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.url+"?"+query.Encode(), nil)
	if err != nil {
		return nil, backoff.Permanent(err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
		return nil, fmt.Errorf("signature lookup: unexpected status %s", resp.Status)
	case resp.StatusCode != http.StatusOK:
		return nil, backoff.Permanent(fmt.Errorf("signature lookup: unexpected status %s", resp.Status))
	}

	var body lookupResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, backoff.Permanent(fmt.Errorf("signature lookup: %w", err))
	}
	if !body.Ok {
		return nil, backoff.Permanent(fmt.Errorf("signature lookup: request rejected"))
	}
	var res []string
	for _, entry := range body.Result.Function[selector.String()] {
		res = append(res, entry.Name)
	}
	return res, nil
}
