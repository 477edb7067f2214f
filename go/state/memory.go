// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package state

import (
	"context"
	"fmt"

	"github.com/rainlanguage/rain.interpreter/go/rain"
)

// MemorySource is a Source holding a fixed genesis state in memory. It
// allows simulations without a remote chain.
type MemorySource struct {
	accounts map[rain.Address]rain.AccountInfo
	storage  map[slotKey]rain.Word
}

func NewMemorySource() *MemorySource {
	return &MemorySource{
		accounts: map[rain.Address]rain.AccountInfo{},
		storage:  map[slotKey]rain.Word{},
	}
}

// SetAccount installs an account in the genesis state.
func (s *MemorySource) SetAccount(address rain.Address, info rain.AccountInfo) {
	s.accounts[address] = info
}

// SetCode installs a contract with the given code and no balance.
func (s *MemorySource) SetCode(address rain.Address, code rain.Code) {
	info := s.accounts[address]
	s.accounts[address] = rain.NewAccountInfo(info.Balance, info.Nonce, code)
}

// SetStorage sets a storage slot of the genesis state.
func (s *MemorySource) SetStorage(address rain.Address, slot rain.Word, value rain.Word) {
	s.storage[slotKey{address, slot}] = value
}

func (s *MemorySource) GetAccount(_ context.Context, address rain.Address) (*rain.AccountInfo, error) {
	info, found := s.accounts[address]
	if !found {
		return nil, nil
	}
	return &info, nil
}

func (s *MemorySource) GetStorage(_ context.Context, address rain.Address, slot rain.Word) (rain.Word, error) {
	return s.storage[slotKey{address, slot}], nil
}

// GetBlockHash derives a deterministic hash from the block number.
func (s *MemorySource) GetBlockHash(_ context.Context, number uint64) (rain.Hash, error) {
	return rain.Keccak256([]byte(fmt.Sprint(number))), nil
}
