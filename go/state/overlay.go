// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

// Package state layers mutable in-memory EVM state over a remote chain.
//
// The Overlay is the fork layer: it pulls accounts and storage from a Source
// on first use and keeps them for its lifetime. A Journal is the transaction
// layer on top of it: it buffers the writes of a single EVM transaction and
// is either committed into the overlay or discarded.
package state

import (
	"context"

	"github.com/rainlanguage/rain.interpreter/go/rain"
)

//go:generate mockgen -source overlay.go -destination overlay_mock.go -package state

// Source provides the state below the fork layer, typically a remote chain
// at a pinned block.
type Source interface {
	// GetAccount returns the account at the given address or nil if it
	// does not exist.
	GetAccount(ctx context.Context, address rain.Address) (*rain.AccountInfo, error)
	GetStorage(ctx context.Context, address rain.Address, slot rain.Word) (rain.Word, error)
	GetBlockHash(ctx context.Context, number uint64) (rain.Hash, error)
}

// Overlay is the fork layer of the state. Every address is fetched from the
// source at most once; written values shadow the source forever.
// An Overlay is not safe for concurrent use.
type Overlay struct {
	source   Source
	accounts map[rain.Address]*rain.AccountInfo
	storage  map[rain.Address]map[rain.Word]rain.Word
	cleared  map[rain.Address]bool
	hashes   map[uint64]rain.Hash
}

func NewOverlay(source Source) *Overlay {
	return &Overlay{
		source:   source,
		accounts: map[rain.Address]*rain.AccountInfo{},
		storage:  map[rain.Address]map[rain.Word]rain.Word{},
		cleared:  map[rain.Address]bool{},
		hashes:   map[uint64]rain.Hash{},
	}
}

// Account returns the account at the given address, nil if it does not
// exist. The tracer address never exists and is never fetched.
func (o *Overlay) Account(ctx context.Context, address rain.Address) (*rain.AccountInfo, error) {
	if address == rain.TracerAddress {
		return nil, nil
	}
	if info, found := o.accounts[address]; found {
		return info, nil
	}
	info, err := o.source.GetAccount(ctx, address)
	if err != nil {
		return nil, err
	}
	o.accounts[address] = info
	return info, nil
}

// Storage returns the value of the given slot.
func (o *Overlay) Storage(ctx context.Context, address rain.Address, slot rain.Word) (rain.Word, error) {
	if slots, found := o.storage[address]; found {
		if value, found := slots[slot]; found {
			return value, nil
		}
	}
	if o.cleared[address] || address == rain.TracerAddress {
		return rain.Word{}, nil
	}
	value, err := o.source.GetStorage(ctx, address, slot)
	if err != nil {
		return rain.Word{}, err
	}
	o.setStorage(address, slot, value)
	return value, nil
}

// BlockHash returns the hash of the block with the given number.
func (o *Overlay) BlockHash(ctx context.Context, number uint64) (rain.Hash, error) {
	if hash, found := o.hashes[number]; found {
		return hash, nil
	}
	hash, err := o.source.GetBlockHash(ctx, number)
	if err != nil {
		return rain.Hash{}, err
	}
	o.hashes[number] = hash
	return hash, nil
}

// SetAccount replaces the account at the given address. A nil account
// deletes it.
func (o *Overlay) SetAccount(address rain.Address, info *rain.AccountInfo) {
	o.accounts[address] = info
}

// SetStorage overrides the value of a single slot.
func (o *Overlay) SetStorage(address rain.Address, slot rain.Word, value rain.Word) {
	o.setStorage(address, slot, value)
}

// ClearStorage drops all storage of the given address, including the
// remote one.
func (o *Overlay) ClearStorage(address rain.Address) {
	delete(o.storage, address)
	o.cleared[address] = true
}

func (o *Overlay) setStorage(address rain.Address, slot rain.Word, value rain.Word) {
	slots, found := o.storage[address]
	if !found {
		slots = map[rain.Word]rain.Word{}
		o.storage[address] = slots
	}
	slots[slot] = value
}

// Begin starts a new transaction layer on top of the overlay. Reads the
// journal issues against the source use the given context.
func (o *Overlay) Begin(ctx context.Context) *Journal {
	return newJournal(ctx, o)
}
