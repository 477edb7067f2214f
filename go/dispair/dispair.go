// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

// Package dispair discovers the interpreter, store and parser an
// expression deployer is bound to.
package dispair

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/rainlanguage/rain.interpreter/go/abi"
	"github.com/rainlanguage/rain.interpreter/go/host"
	"github.com/rainlanguage/rain.interpreter/go/rain"
	"github.com/sirupsen/logrus"
)

//go:generate mockgen -source dispair.go -destination dispair_mock.go -package dispair

// Caller issues read-only calls against a fork.
type Caller interface {
	Call(ctx context.Context, from, to rain.Address, input []byte, value rain.Word) (*host.CallResult, error)
}

var (
	IStore       = abi.Function{Name: "iStore", Outputs: []abi.Type{abi.Address}}
	IInterpreter = abi.Function{Name: "iInterpreter", Outputs: []abi.Type{abi.Address}}
	IParser      = abi.Function{Name: "iParser", Outputs: []abi.Type{abi.Address}}
)

// ErrNotDeployer is reported when an address does not answer the deployer
// queries.
var ErrNotDeployer = errors.New("not an expression deployer")

// Discoverer resolves deployers into DispSets. Results are cached for the
// lifetime of the Discoverer, which matches the lifetime of its fork.
type Discoverer struct {
	log      logrus.FieldLogger
	caller   Caller
	sender   rain.Address
	registry abi.Registry

	mu    sync.Mutex
	known map[rain.Address]rain.DispSet
}

// NewDiscoverer creates a discoverer issuing calls from sender. The
// registry, which may be nil, resolves custom errors of reverted calls.
func NewDiscoverer(log logrus.FieldLogger, caller Caller, sender rain.Address, registry abi.Registry) *Discoverer {
	return &Discoverer{
		log:      log.WithField("component", "dispair"),
		caller:   caller,
		sender:   sender,
		registry: registry,
		known:    map[rain.Address]rain.DispSet{},
	}
}

// Discover returns the DispSet of the given deployer.
func (d *Discoverer) Discover(ctx context.Context, deployer rain.Address) (rain.DispSet, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if res, found := d.known[deployer]; found {
		return res, nil
	}

	res := rain.DispSet{Deployer: deployer}
	for _, query := range []struct {
		fn     abi.Function
		target *rain.Address
	}{
		{IStore, &res.Store},
		{IInterpreter, &res.Interpreter},
		{IParser, &res.Parser},
	} {
		address, err := d.read(ctx, deployer, query.fn)
		if err != nil {
			return rain.DispSet{}, err
		}
		*query.target = address
	}

	d.log.WithFields(logrus.Fields{
		"deployer":    deployer,
		"interpreter": res.Interpreter,
		"store":       res.Store,
		"parser":      res.Parser,
	}).Debug("Discovered DISP set")
	d.known[deployer] = res
	return res, nil
}

func (d *Discoverer) read(ctx context.Context, deployer rain.Address, fn abi.Function) (rain.Address, error) {
	input, err := fn.EncodeCall()
	if err != nil {
		return rain.Address{}, err
	}
	result, err := d.caller.Call(ctx, d.sender, deployer, input, rain.Word{})
	if err != nil {
		return rain.Address{}, err
	}
	switch result.Exit.Kind {
	case host.Halt:
		return rain.Address{}, fmt.Errorf("%w: %v on %v: %w", ErrNotDeployer, fn.Signature(), deployer, result.Err())
	case host.Revert:
		revert := abi.DecodeRevert(ctx, result.Output, d.registry)
		return rain.Address{}, fmt.Errorf("%w: %v on %v: %w", ErrNotDeployer, fn.Signature(), deployer, revert)
	}
	values, err := fn.DecodeReturn(result.Output)
	if err != nil {
		return rain.Address{}, fmt.Errorf("%w: %v on %v: %w", ErrNotDeployer, fn.Signature(), deployer, err)
	}
	return rain.Address(values[0].(abi.Addr)), nil
}
