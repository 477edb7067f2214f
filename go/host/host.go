// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

// Package host executes EVM calls against a state overlay using geth's
// interpreter, one transaction at a time.
package host

import (
	"context"
	"fmt"
	"math/big"

	"github.com/dsnet/golib/unitconv"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	geth "github.com/ethereum/go-ethereum/core/vm"
	"github.com/ethereum/go-ethereum/params"
	"github.com/rainlanguage/rain.interpreter/go/rain"
	"github.com/rainlanguage/rain.interpreter/go/state"
	"github.com/rainlanguage/rain.interpreter/go/trace"
	"github.com/sirupsen/logrus"
)

// DefaultGasLimit is the gas available to each call unless configured
// otherwise. It is large enough for any evaluation to never run out.
const DefaultGasLimit = uint64(1) << 63

// Host runs calls against an overlay. Calls must not be issued
// concurrently; a Host is owned by a single fork.
type Host struct {
	log         logrus.FieldLogger
	overlay     *state.Overlay
	chainConfig params.ChainConfig
	header      *types.Header
	gasLimit    uint64
}

// New creates a host executing calls in the context of the given block.
// A zero gas limit selects DefaultGasLimit.
func New(log logrus.FieldLogger, overlay *state.Overlay, chainID *big.Int, header *types.Header, gasLimit uint64) *Host {
	if gasLimit == 0 {
		gasLimit = DefaultGasLimit
	}
	return &Host{
		log:         log.WithField("component", "host"),
		overlay:     overlay,
		chainConfig: MakeChainConfig(*params.AllEthashProtocolChanges, chainID),
		header:      header,
		gasLimit:    gasLimit,
	}
}

// Overlay returns the state the host runs against.
func (h *Host) Overlay() *state.Overlay {
	return h.overlay
}

// Call executes a call as a read: all state changes are dropped on return.
func (h *Host) Call(ctx context.Context, from, to rain.Address, input []byte, value rain.Word) (*CallResult, error) {
	return h.run(ctx, from, to, input, value, false)
}

// Commit executes a call like a transaction: if it succeeds, its state
// changes are folded into the overlay and seen by subsequent calls. Reverted
// or halted calls leave the overlay untouched.
func (h *Host) Commit(ctx context.Context, from, to rain.Address, input []byte, value rain.Word) (*CallResult, error) {
	return h.run(ctx, from, to, input, value, true)
}

func (h *Host) run(ctx context.Context, from, to rain.Address, input []byte, value rain.Word, commit bool) (*CallResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	gas, err := chargeIntrinsicGas(h.gasLimit, input)
	if err != nil {
		return nil, err
	}

	journal := h.overlay.Begin(ctx)
	defer journal.Discard()

	arena := trace.NewArena()
	blockCtx := newBlockContext(h.header, journal.BlockHash)
	txCtx := geth.TxContext{
		Origin:   common.Address(from),
		GasPrice: new(big.Int),
	}
	evm := geth.NewEVM(blockCtx, txCtx, journal, &h.chainConfig, geth.Config{
		Tracer:    arena.Hooks(),
		NoBaseFee: true,
	})
	journal.OnError(evm.Cancel)
	stop := context.AfterFunc(ctx, evm.Cancel)
	defer stop()

	sender := common.Address(from)
	recipient := common.Address(to)
	rules := h.chainConfig.Rules(blockCtx.BlockNumber, blockCtx.Random != nil, blockCtx.Time)
	journal.Prepare(rules, sender, blockCtx.Coinbase, &recipient, geth.ActivePrecompiles(rules), nil)

	// Increment the nonce as a transaction would.
	journal.SetNonce(sender, journal.GetNonce(sender)+1)

	output, gasLeft, vmErr := evm.Call(geth.AccountRef(sender), recipient, input, gas, value.ToUint256())
	if err := journal.Err(); err != nil {
		return nil, err
	}
	if evm.Cancelled() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
	}

	result := &CallResult{
		Exit:    exitReason(vmErr),
		Output:  output,
		Trace:   arena,
		GasUsed: h.gasLimit - gasLeft,
	}

	log := h.log.WithFields(logrus.Fields{
		"from":     from,
		"to":       to,
		"exit":     result.Exit,
		"gas_used": unitconv.FormatPrefix(float64(result.GasUsed), unitconv.SI, 1),
		"frames":   arena.Len(),
	})
	if commit && result.Succeeded() {
		if err := journal.Commit(); err != nil {
			return nil, fmt.Errorf("failed to commit call to %v: %w", to, err)
		}
		log.Debug("Committed call")
	} else {
		log.Debug("Executed call")
	}
	return result, nil
}
