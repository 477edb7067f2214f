// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package host

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/tracing"
	"github.com/ethereum/go-ethereum/core/types"
	geth "github.com/ethereum/go-ethereum/core/vm"
	"github.com/ethereum/go-ethereum/params"
	"github.com/holiman/uint256"
)

// MakeChainConfig returns a chain config for the given chain ID with every
// revision up to Cancun active from genesis. The baseline config is used as a
// starting point so any prefilled configuration from go-ethereum's params
// package can be used. The chain ID needs to be set as it may be read by the
// CHAINID opcode.
func MakeChainConfig(baseline params.ChainConfig, chainID *big.Int) params.ChainConfig {
	zero := uint64(0)

	chainConfig := baseline
	chainConfig.ChainID = new(big.Int).Set(chainID)
	chainConfig.ByzantiumBlock = big.NewInt(0)
	chainConfig.IstanbulBlock = big.NewInt(0)
	chainConfig.BerlinBlock = big.NewInt(0)
	chainConfig.LondonBlock = big.NewInt(0)
	chainConfig.MergeNetsplitBlock = big.NewInt(0)
	chainConfig.TerminalTotalDifficulty = big.NewInt(0)
	chainConfig.ShanghaiTime = &zero
	chainConfig.CancunTime = &zero
	chainConfig.PragueTime = nil
	chainConfig.VerkleTime = nil
	return chainConfig
}

// newBlockContext describes the pinned block to the EVM. A non-nil random
// value signals a post-merge revision to geth.
func newBlockContext(header *types.Header, getHash geth.GetHashFunc) geth.BlockContext {
	random := header.MixDigest
	return geth.BlockContext{
		CanTransfer: canTransferFunc,
		Transfer:    transferFunc,
		GetHash:     getHash,
		Coinbase:    header.Coinbase,
		GasLimit:    header.GasLimit,
		BlockNumber: new(big.Int).Set(header.Number),
		Time:        header.Time,
		Difficulty:  bigOrZero(header.Difficulty),
		BaseFee:     bigOrZero(header.BaseFee),
		BlobBaseFee: new(big.Int),
		Random:      &random,
	}
}

func bigOrZero(value *big.Int) *big.Int {
	if value == nil {
		return new(big.Int)
	}
	return new(big.Int).Set(value)
}

// transferFunc subtracts amount from sender and adds amount to recipient.
func transferFunc(stateDB geth.StateDB, callerAddress common.Address, to common.Address, value *uint256.Int) {
	stateDB.SubBalance(callerAddress, value, tracing.BalanceChangeTransfer)
	stateDB.AddBalance(to, value, tracing.BalanceChangeTransfer)
}

// canTransferFunc checks whether the caller can afford the transfer.
func canTransferFunc(stateDB geth.StateDB, callerAddress common.Address, value *uint256.Int) bool {
	return stateDB.GetBalance(callerAddress).Cmp(value) >= 0
}
