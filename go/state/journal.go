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

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/stateless"
	"github.com/ethereum/go-ethereum/core/tracing"
	"github.com/ethereum/go-ethereum/core/types"
	geth "github.com/ethereum/go-ethereum/core/vm"
	"github.com/ethereum/go-ethereum/params"
	"github.com/ethereum/go-ethereum/trie/utils"
	"github.com/holiman/uint256"
	"github.com/rainlanguage/rain.interpreter/go/rain"
)

// Journal buffers the state changes of a single transaction on top of an
// Overlay. It implements geth's StateDB so an EVM can run against it.
//
// StateDB methods cannot report errors. A failure reading the fork layer is
// therefore latched: the read yields a zero value, the registered abort
// function is invoked to stop the EVM and Err reports the failure after
// the EVM returned.
type Journal struct {
	ctx  context.Context
	base *Overlay

	accounts  map[rain.Address]*account
	storage   map[slotKey]rain.Word
	transient map[slotKey]rain.Word

	accessedAccounts map[rain.Address]struct{}
	accessedSlots    map[slotKey]struct{}

	refund uint64
	logs   []*types.Log

	undo  []func()
	done  bool
	err   error
	abort func()
}

type slotKey struct {
	address rain.Address
	slot    rain.Word
}

// account is the transaction-local view of an account.
type account struct {
	exists         bool
	balance        uint256.Int
	nonce          uint64
	code           []byte
	codeHash       rain.Hash
	dirty          bool
	created        bool
	selfDestructed bool
	storageCleared bool
}

var _ geth.StateDB = (*Journal)(nil)

func newJournal(ctx context.Context, base *Overlay) *Journal {
	return &Journal{
		ctx:              ctx,
		base:             base,
		accounts:         map[rain.Address]*account{},
		storage:          map[slotKey]rain.Word{},
		transient:        map[slotKey]rain.Word{},
		accessedAccounts: map[rain.Address]struct{}{},
		accessedSlots:    map[slotKey]struct{}{},
	}
}

// OnError registers a function invoked once when a read of the fork layer
// fails.
func (j *Journal) OnError(abort func()) {
	j.abort = abort
}

// Err returns the first failure reading the fork layer, if any.
func (j *Journal) Err() error {
	return j.err
}

func (j *Journal) fail(err error) {
	if j.err != nil {
		return
	}
	j.err = err
	if j.abort != nil {
		j.abort()
	}
}

// Commit folds the buffered changes into the overlay. The journal must not
// be used afterwards.
func (j *Journal) Commit() error {
	if j.done {
		return fmt.Errorf("journal already closed")
	}
	if j.err != nil {
		return fmt.Errorf("cannot commit journal after failure: %w", j.err)
	}
	j.done = true

	for address, acc := range j.accounts {
		if !acc.dirty {
			continue
		}
		if acc.selfDestructed {
			j.base.SetAccount(address, nil)
			j.base.ClearStorage(address)
			continue
		}
		if acc.storageCleared {
			j.base.ClearStorage(address)
		}
		if !acc.exists {
			continue
		}
		j.base.SetAccount(address, &rain.AccountInfo{
			Balance:  rain.WordFromUint256(&acc.balance),
			Nonce:    acc.nonce,
			CodeHash: acc.codeHash,
			Code:     acc.code,
		})
	}
	for key, value := range j.storage {
		if acc, found := j.accounts[key.address]; found && acc.selfDestructed {
			continue
		}
		j.base.SetStorage(key.address, key.slot, value)
	}
	return nil
}

// Discard drops all buffered changes.
func (j *Journal) Discard() {
	j.done = true
}

// BlockHash resolves the hash of a block through the overlay. Failures are
// latched like any other failed read.
func (j *Journal) BlockHash(number uint64) common.Hash {
	hash, err := j.base.BlockHash(j.ctx, number)
	if err != nil {
		j.fail(err)
		return common.Hash{}
	}
	return common.Hash(hash)
}

// Logs returns the logs emitted so far.
func (j *Journal) Logs() []*types.Log {
	return j.logs
}

// get returns the transaction-local view of the given account, loading it
// from the overlay on first access.
func (j *Journal) get(addr common.Address) *account {
	address := rain.Address(addr)
	if acc, found := j.accounts[address]; found {
		return acc
	}
	acc := &account{codeHash: rain.EmptyCodeHash}
	info, err := j.base.Account(j.ctx, address)
	if err != nil {
		j.fail(err)
	} else if info != nil {
		acc.exists = true
		acc.balance = *info.Balance.ToUint256()
		acc.nonce = info.Nonce
		acc.code = info.Code
		acc.codeHash = info.CodeHash
	}
	j.accounts[address] = acc
	return acc
}

// modify applies a change to an account and records how to undo it.
func (j *Journal) modify(addr common.Address, change func(*account)) {
	acc := j.get(addr)
	prev := *acc
	j.undo = append(j.undo, func() { *acc = prev })
	change(acc)
	acc.dirty = true
}

func (j *Journal) CreateAccount(addr common.Address) {
	j.modify(addr, func(acc *account) {
		acc.exists = true
		acc.nonce = 0
		acc.code = nil
		acc.codeHash = rain.EmptyCodeHash
		acc.storageCleared = true
		acc.selfDestructed = false
	})
}

func (j *Journal) CreateContract(addr common.Address) {
	j.modify(addr, func(acc *account) {
		acc.created = true
	})
}

func (j *Journal) SubBalance(addr common.Address, diff *uint256.Int, _ tracing.BalanceChangeReason) {
	if diff.IsZero() {
		return
	}
	j.modify(addr, func(acc *account) {
		acc.balance.Sub(&acc.balance, diff)
	})
}

func (j *Journal) AddBalance(addr common.Address, diff *uint256.Int, _ tracing.BalanceChangeReason) {
	// Adding zero only touches the account, it must not bring it into
	// existence.
	if diff.IsZero() {
		j.get(addr)
		return
	}
	j.modify(addr, func(acc *account) {
		acc.exists = true
		acc.balance.Add(&acc.balance, diff)
	})
}

func (j *Journal) GetBalance(addr common.Address) *uint256.Int {
	acc := j.get(addr)
	return new(uint256.Int).Set(&acc.balance)
}

func (j *Journal) GetNonce(addr common.Address) uint64 {
	return j.get(addr).nonce
}

func (j *Journal) SetNonce(addr common.Address, nonce uint64) {
	j.modify(addr, func(acc *account) {
		acc.exists = true
		acc.nonce = nonce
	})
}

func (j *Journal) GetCodeHash(addr common.Address) common.Hash {
	acc := j.get(addr)
	if !acc.exists {
		return common.Hash{}
	}
	return common.Hash(acc.codeHash)
}

func (j *Journal) GetCode(addr common.Address) []byte {
	if rain.Address(addr) == rain.TracerAddress {
		return nil
	}
	return j.get(addr).code
}

func (j *Journal) SetCode(addr common.Address, code []byte) {
	j.modify(addr, func(acc *account) {
		acc.exists = true
		acc.code = code
		acc.codeHash = rain.Keccak256(code)
	})
}

func (j *Journal) GetCodeSize(addr common.Address) int {
	return len(j.GetCode(addr))
}

func (j *Journal) AddRefund(value uint64) {
	prev := j.refund
	j.undo = append(j.undo, func() { j.refund = prev })
	j.refund += value
}

func (j *Journal) SubRefund(value uint64) {
	prev := j.refund
	j.undo = append(j.undo, func() { j.refund = prev })
	if value > j.refund {
		panic(fmt.Sprintf("refund counter below zero (gas: %d > refund %d)", value, j.refund))
	}
	j.refund -= value
}

func (j *Journal) GetRefund() uint64 {
	return j.refund
}

func (j *Journal) GetCommittedState(addr common.Address, key common.Hash) common.Hash {
	acc := j.get(addr)
	if acc.storageCleared {
		return common.Hash{}
	}
	value, err := j.base.Storage(j.ctx, rain.Address(addr), rain.Word(key))
	if err != nil {
		j.fail(err)
		return common.Hash{}
	}
	return common.Hash(value)
}

func (j *Journal) GetState(addr common.Address, key common.Hash) common.Hash {
	if value, found := j.storage[slotKey{rain.Address(addr), rain.Word(key)}]; found {
		return common.Hash(value)
	}
	return j.GetCommittedState(addr, key)
}

func (j *Journal) SetState(addr common.Address, key common.Hash, value common.Hash) {
	slot := slotKey{rain.Address(addr), rain.Word(key)}
	prev, found := j.storage[slot]
	j.undo = append(j.undo, func() {
		if found {
			j.storage[slot] = prev
		} else {
			delete(j.storage, slot)
		}
	})
	j.storage[slot] = rain.Word(value)
}

func (j *Journal) GetStorageRoot(common.Address) common.Hash {
	// Storage roots of remote accounts are not known; no contract is ever
	// deployed over existing storage in a simulation.
	return common.Hash{}
}

func (j *Journal) GetTransientState(addr common.Address, key common.Hash) common.Hash {
	return common.Hash(j.transient[slotKey{rain.Address(addr), rain.Word(key)}])
}

func (j *Journal) SetTransientState(addr common.Address, key, value common.Hash) {
	slot := slotKey{rain.Address(addr), rain.Word(key)}
	prev, found := j.transient[slot]
	j.undo = append(j.undo, func() {
		if found {
			j.transient[slot] = prev
		} else {
			delete(j.transient, slot)
		}
	})
	j.transient[slot] = rain.Word(value)
}

func (j *Journal) SelfDestruct(addr common.Address) {
	j.modify(addr, func(acc *account) {
		acc.selfDestructed = true
		acc.balance.Clear()
	})
}

func (j *Journal) HasSelfDestructed(addr common.Address) bool {
	return j.get(addr).selfDestructed
}

func (j *Journal) Selfdestruct6780(addr common.Address) {
	if j.get(addr).created {
		j.SelfDestruct(addr)
	}
}

func (j *Journal) Exist(addr common.Address) bool {
	return j.get(addr).exists
}

func (j *Journal) Empty(addr common.Address) bool {
	acc := j.get(addr)
	return !acc.exists || (acc.balance.IsZero() && acc.nonce == 0 && len(acc.code) == 0)
}

func (j *Journal) AddressInAccessList(addr common.Address) bool {
	_, found := j.accessedAccounts[rain.Address(addr)]
	return found
}

func (j *Journal) SlotInAccessList(addr common.Address, slot common.Hash) (addressOk bool, slotOk bool) {
	_, slotOk = j.accessedSlots[slotKey{rain.Address(addr), rain.Word(slot)}]
	return j.AddressInAccessList(addr), slotOk
}

func (j *Journal) AddAddressToAccessList(addr common.Address) {
	address := rain.Address(addr)
	if _, found := j.accessedAccounts[address]; found {
		return
	}
	j.accessedAccounts[address] = struct{}{}
	j.undo = append(j.undo, func() { delete(j.accessedAccounts, address) })
}

func (j *Journal) AddSlotToAccessList(addr common.Address, slot common.Hash) {
	j.AddAddressToAccessList(addr)
	key := slotKey{rain.Address(addr), rain.Word(slot)}
	if _, found := j.accessedSlots[key]; found {
		return
	}
	j.accessedSlots[key] = struct{}{}
	j.undo = append(j.undo, func() { delete(j.accessedSlots, key) })
}

func (j *Journal) PointCache() *utils.PointCache {
	// Only needed by verkle revisions, which forks never run.
	return nil
}

// Prepare resets the access list and the transient storage for a new
// transaction. The tracer address is always warm so emitting a trace costs
// the same as calling any other warm account.
func (j *Journal) Prepare(rules params.Rules, sender, coinbase common.Address, dest *common.Address, precompiles []common.Address, txAccesses types.AccessList) {
	j.accessedAccounts = map[rain.Address]struct{}{}
	j.accessedSlots = map[slotKey]struct{}{}
	j.transient = map[slotKey]rain.Word{}

	if !rules.IsBerlin {
		return
	}
	j.AddAddressToAccessList(sender)
	if dest != nil {
		j.AddAddressToAccessList(*dest)
	}
	for _, addr := range precompiles {
		j.AddAddressToAccessList(addr)
	}
	for _, el := range txAccesses {
		j.AddAddressToAccessList(el.Address)
		for _, key := range el.StorageKeys {
			j.AddSlotToAccessList(el.Address, key)
		}
	}
	if rules.IsShanghai {
		j.AddAddressToAccessList(coinbase)
	}
	j.AddAddressToAccessList(common.Address(rain.TracerAddress))
}

func (j *Journal) RevertToSnapshot(snapshot int) {
	if snapshot < 0 || snapshot > len(j.undo) {
		panic(fmt.Sprintf("invalid snapshot %d, journal has %d entries", snapshot, len(j.undo)))
	}
	for i := len(j.undo) - 1; i >= snapshot; i-- {
		j.undo[i]()
	}
	j.undo = j.undo[:snapshot]
}

func (j *Journal) Snapshot() int {
	return len(j.undo)
}

func (j *Journal) AddLog(log *types.Log) {
	size := len(j.logs)
	j.undo = append(j.undo, func() { j.logs = j.logs[:size] })
	j.logs = append(j.logs, log)
}

func (j *Journal) AddPreimage(common.Hash, []byte) {
	// preimages are not recorded
}

func (j *Journal) Witness() *stateless.Witness {
	return nil
}
