// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

// Package eval runs Rainlang expressions against a fork of a live chain:
// it discovers the deployer's contracts, parses and deploys the expression
// into the fork and evaluates it, reporting the stack, the store writes and
// the per-source traces.
package eval

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rainlanguage/rain.interpreter/go/abi"
	"github.com/rainlanguage/rain.interpreter/go/dispair"
	"github.com/rainlanguage/rain.interpreter/go/fetcher"
	"github.com/rainlanguage/rain.interpreter/go/host"
	"github.com/rainlanguage/rain.interpreter/go/rain"
	"github.com/rainlanguage/rain.interpreter/go/state"
	"github.com/sirupsen/logrus"
)

// Fork is an in-memory EVM state layered over a remote chain at a pinned
// block. A fork serializes its operations; using it from two goroutines at
// once is a programmer error reported as ErrReentrancy. Distinct forks are
// independent.
type Fork struct {
	log        logrus.FieldLogger
	host       Host
	fetcher    *fetcher.Fetcher
	discoverer *dispair.Discoverer
	registry   abi.Registry
	sender     rain.Address

	mu     sync.Mutex
	closed bool
}

// Option customizes a fork created by NewFork.
type Option func(*options)

type options struct {
	registerer prometheus.Registerer
	registry   abi.Registry
}

// WithRegisterer registers the fetcher metrics of the fork.
func WithRegisterer(registerer prometheus.Registerer) Option {
	return func(o *options) {
		o.registerer = registerer
	}
}

// WithRegistry replaces the error registry derived from the config.
func WithRegistry(registry abi.Registry) Option {
	return func(o *options) {
		o.registry = registry
	}
}

// NewFork connects to the configured endpoint and creates a fork at the
// configured block, the latest one if none is set.
func NewFork(ctx context.Context, log logrus.FieldLogger, config *Config, opts ...Option) (*Fork, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	o := options{}
	for _, opt := range opts {
		opt(&o)
	}

	var metrics *fetcher.Metrics
	if o.registerer != nil {
		var err error
		metrics, err = fetcher.NewMetrics("rain", o.registerer)
		if err != nil {
			return nil, err
		}
	}

	registry := o.registry
	if registry == nil && config.DecodeErrors {
		registries := abi.Registries{abi.BuiltinRegistry()}
		if config.SignatureLookupURL != "" {
			remote, err := abi.NewRemoteRegistry(log, config.SignatureLookupURL, nil, 1024)
			if err != nil {
				return nil, err
			}
			registries = append(registries, remote)
		}
		registry = registries
	}

	source, err := fetcher.Dial(ctx, log, &config.Fetcher, metrics)
	if err != nil {
		return nil, err
	}
	overlay := state.NewOverlay(source)
	h := host.New(log, overlay, source.ChainID(), source.Header(), config.GasLimit)

	fork := newFork(log, h, registry, config.Sender)
	fork.fetcher = source
	fork.log.WithFields(logrus.Fields{
		"endpoint": source.Endpoint(),
		"block":    source.BlockNumber(),
		"chain_id": source.ChainID(),
	}).Info("Created fork")
	return fork, nil
}

func newFork(log logrus.FieldLogger, h Host, registry abi.Registry, sender rain.Address) *Fork {
	return &Fork{
		log:        log.WithField("component", "fork"),
		host:       h,
		discoverer: dispair.NewDiscoverer(log, h, sender, registry),
		registry:   registry,
		sender:     sender,
	}
}

// acquire takes exclusive ownership of the fork for one operation.
func (f *Fork) acquire() error {
	if !f.mu.TryLock() {
		return ErrReentrancy
	}
	if f.closed {
		f.mu.Unlock()
		return ErrForkClosed
	}
	return nil
}

// Close releases the connection to the remote endpoint. Further operations
// fail with ErrForkClosed.
func (f *Fork) Close() error {
	if err := f.acquire(); err != nil {
		if errors.Is(err, ErrForkClosed) {
			return nil
		}
		return err
	}
	defer f.mu.Unlock()
	f.closed = true
	if f.fetcher != nil {
		f.fetcher.Close()
	}
	return nil
}

// Block returns the number of the block the fork is pinned to.
func (f *Fork) Block() uint64 {
	if f.fetcher == nil {
		return 0
	}
	return f.fetcher.BlockNumber()
}

// Sender returns the account the fork issues its calls from.
func (f *Fork) Sender() rain.Address {
	return f.sender
}

// Discover returns the DispSet of a deployer.
func (f *Fork) Discover(ctx context.Context, deployer rain.Address) (rain.DispSet, error) {
	if err := f.acquire(); err != nil {
		return rain.DispSet{}, err
	}
	defer f.mu.Unlock()
	return f.discoverer.Discover(ctx, deployer)
}

// Call issues a read-only call from the fork's sender.
func (f *Fork) Call(ctx context.Context, to rain.Address, input []byte) (*host.CallResult, error) {
	if err := f.acquire(); err != nil {
		return nil, err
	}
	defer f.mu.Unlock()
	return f.host.Call(ctx, f.sender, to, input, rain.Word{})
}

// Commit issues a call from the fork's sender whose effects are kept if it
// succeeds.
func (f *Fork) Commit(ctx context.Context, to rain.Address, input []byte) (*host.CallResult, error) {
	if err := f.acquire(); err != nil {
		return nil, err
	}
	defer f.mu.Unlock()
	return f.host.Commit(ctx, f.sender, to, input, rain.Word{})
}

// StoreGet reads a key of a store. The namespace must be fully qualified.
func (f *Fork) StoreGet(ctx context.Context, store rain.Address, namespace, key rain.Word) (rain.Word, error) {
	if err := f.acquire(); err != nil {
		return rain.Word{}, err
	}
	defer f.mu.Unlock()

	input, err := storeGetFunction.EncodeCall(abi.Word(namespace), abi.Word(key))
	if err != nil {
		return rain.Word{}, err
	}
	result, err := f.host.Call(ctx, f.sender, store, input, rain.Word{})
	if err != nil {
		return rain.Word{}, err
	}
	if err := f.check(ctx, result); err != nil {
		return rain.Word{}, fmt.Errorf("reading store %v: %w", store, err)
	}
	values, err := storeGetFunction.DecodeReturn(result.Output)
	if err != nil {
		return rain.Word{}, err
	}
	return rain.Word(values[0].(abi.Word)), nil
}

// StoreSet writes key/value pairs into a store. The store qualifies the
// namespace with the fork's sender, so the writes are visible to
// evaluations using QualifyNamespace(namespace, Sender()).
func (f *Fork) StoreSet(ctx context.Context, store rain.Address, namespace rain.Word, kvs []rain.Word) error {
	if len(kvs)%2 != 0 {
		return fmt.Errorf("store writes must be key/value pairs, got %d words", len(kvs))
	}
	if err := f.acquire(); err != nil {
		return err
	}
	defer f.mu.Unlock()

	input, err := storeSetFunction.EncodeCall(abi.Word(namespace), abi.Words(kvs))
	if err != nil {
		return err
	}
	result, err := f.host.Commit(ctx, f.sender, store, input, rain.Word{})
	if err != nil {
		return err
	}
	if err := f.check(ctx, result); err != nil {
		return fmt.Errorf("writing store %v: %w", store, err)
	}
	return nil
}

// check converts reverted and halted results into errors.
func (f *Fork) check(ctx context.Context, result *host.CallResult) error {
	switch result.Exit.Kind {
	case host.Revert:
		return abi.DecodeRevert(ctx, result.Output, f.registry)
	case host.Halt:
		return result.Err()
	}
	return nil
}
