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
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	statusError   = "error"
	statusSuccess = "success"
)

// Metrics collects RPC and cache statistics of fetchers. A nil *Metrics is
// valid and records nothing.
type Metrics struct {
	rpcCalls    *prometheus.CounterVec
	rpcDuration *prometheus.HistogramVec
	cacheHits   *prometheus.CounterVec
}

// NewMetrics creates the fetcher metrics and registers them with the given
// registerer, if any. Collectors already registered by another fetcher are
// shared.
func NewMetrics(namespace string, registerer prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		rpcCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fetcher_rpc_calls_total",
			Help:      "Total RPC calls made to fork endpoints",
		}, []string{"method", "status"}),
		rpcDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "fetcher_rpc_duration_seconds",
			Help:      "Duration of RPC calls made to fork endpoints",
			Buckets:   prometheus.ExponentialBuckets(0.01, 2, 12),
		}, []string{"method"}),
		cacheHits: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fetcher_cache_hits_total",
			Help:      "Total remote state reads served from a cache",
		}, []string{"kind", "tier"}),
	}
	if registerer == nil {
		return m, nil
	}

	var err error
	if m.rpcCalls, err = register(registerer, m.rpcCalls); err != nil {
		return nil, err
	}
	if m.rpcDuration, err = register(registerer, m.rpcDuration); err != nil {
		return nil, err
	}
	if m.cacheHits, err = register(registerer, m.cacheHits); err != nil {
		return nil, err
	}
	return m, nil
}

func register[C prometheus.Collector](registerer prometheus.Registerer, collector C) (C, error) {
	if err := registerer.Register(collector); err != nil {
		var already prometheus.AlreadyRegisteredError
		if errors.As(err, &already) {
			if existing, ok := already.ExistingCollector.(C); ok {
				return existing, nil
			}
		}
		return collector, err
	}
	return collector, nil
}

func (m *Metrics) observeRPC(method string, start time.Time, err error) {
	if m == nil {
		return
	}
	status := statusSuccess
	if err != nil {
		status = statusError
	}
	m.rpcDuration.WithLabelValues(method).Observe(time.Since(start).Seconds())
	m.rpcCalls.WithLabelValues(method, status).Inc()
}

func (m *Metrics) cacheHit(kind, tier string) {
	if m == nil {
		return
	}
	m.cacheHits.WithLabelValues(kind, tier).Inc()
}
