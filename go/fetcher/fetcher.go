// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

// Package fetcher reads account and storage state of a remote chain at a
// pinned block. Every key is fetched at most once per fetcher; later reads
// are served from memory.
package fetcher

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math/big"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/rainlanguage/rain.interpreter/go/rain"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"
)

// Options customize a fetcher created by New.
type Options struct {
	// BlockNumber pins the fetcher; the latest block is used when nil.
	BlockNumber *uint64
	// Cache is an optional persistent tier consulted before the endpoint.
	Cache Cache
	// Metrics records RPC statistics, may be nil.
	Metrics *Metrics
}

// Fetcher is a read-through cache of remote chain state at a pinned block.
// It is safe for concurrent use.
type Fetcher struct {
	log      logrus.FieldLogger
	endpoint string
	backend  Backend
	cache    Cache
	metrics  *Metrics

	chainID *big.Int
	header  *types.Header
	block   *big.Int

	mu       sync.Mutex
	accounts map[rain.Address]*rain.AccountInfo
	storage  map[slotKey]rain.Word
	hashes   map[uint64]rain.Hash
	inflight singleflight.Group
}

type slotKey struct {
	address rain.Address
	slot    rain.Word
}

// New creates a fetcher reading through the given backend. It resolves the
// pinned block and the chain id eagerly, so an unreachable endpoint or an
// unknown block is reported here.
func New(ctx context.Context, log logrus.FieldLogger, endpoint string, backend Backend, opts Options) (*Fetcher, error) {
	f := &Fetcher{
		log:      log.WithField("component", "fetcher"),
		endpoint: endpoint,
		backend:  backend,
		cache:    opts.Cache,
		metrics:  opts.Metrics,
		accounts: map[rain.Address]*rain.AccountInfo{},
		storage:  map[slotKey]rain.Word{},
		hashes:   map[uint64]rain.Hash{},
	}

	var number uint64
	if opts.BlockNumber != nil {
		number = *opts.BlockNumber
	} else {
		start := time.Now()
		latest, err := backend.BlockNumber(ctx)
		f.metrics.observeRPC("eth_blockNumber", start, err)
		if err != nil {
			return nil, f.fetchError("latest block number", err)
		}
		number = latest
	}
	f.block = new(big.Int).SetUint64(number)

	start := time.Now()
	header, err := backend.HeaderByNumber(ctx, f.block)
	f.metrics.observeRPC("eth_getBlockByNumber", start, err)
	if err != nil {
		return nil, f.fetchError(fmt.Sprintf("header of block %d", number), err)
	}
	if header == nil {
		return nil, f.fetchError(fmt.Sprintf("header of block %d", number), ErrBlockUnavailable)
	}
	f.header = header

	start = time.Now()
	chainID, err := backend.ChainID(ctx)
	f.metrics.observeRPC("eth_chainId", start, err)
	if err != nil {
		return nil, f.fetchError("chain id", err)
	}
	f.chainID = chainID

	f.log.WithFields(logrus.Fields{
		"block":    number,
		"chain_id": chainID,
	}).Debug("Fetcher pinned to block")
	return f, nil
}

// Endpoint returns the URL of the remote endpoint.
func (f *Fetcher) Endpoint() string {
	return f.endpoint
}

// BlockNumber returns the pinned block number.
func (f *Fetcher) BlockNumber() uint64 {
	return f.block.Uint64()
}

// ChainID returns the id of the remote chain.
func (f *Fetcher) ChainID() *big.Int {
	return new(big.Int).Set(f.chainID)
}

// Header returns the header of the pinned block. The result must not be
// modified.
func (f *Fetcher) Header() *types.Header {
	return f.header
}

// Close releases the connection to the endpoint and the cache, if the
// cache can be closed.
func (f *Fetcher) Close() {
	f.backend.Close()
	if closer, ok := f.cache.(io.Closer); ok {
		if err := closer.Close(); err != nil {
			f.log.WithError(err).Warn("Failed to close cache")
		}
	}
}

// GetAccount returns the state of the given account at the pinned block, or
// nil if the account is empty there. The result is shared and must not be
// modified.
func (f *Fetcher) GetAccount(ctx context.Context, address rain.Address) (*rain.AccountInfo, error) {
	f.mu.Lock()
	info, found := f.accounts[address]
	f.mu.Unlock()
	if found {
		f.metrics.cacheHit("account", "memory")
		return info, nil
	}

	res, err, _ := f.inflight.Do("account:"+address.String(), func() (any, error) {
		f.mu.Lock()
		info, found := f.accounts[address]
		f.mu.Unlock()
		if found {
			return info, nil
		}
		info, err := f.loadAccount(ctx, address)
		if err != nil {
			return nil, err
		}
		f.mu.Lock()
		f.accounts[address] = info
		f.mu.Unlock()
		return info, nil
	})
	if err != nil {
		return nil, err
	}
	return res.(*rain.AccountInfo), nil
}

// GetStorage returns the value of a storage slot at the pinned block. Unset
// slots are zero.
func (f *Fetcher) GetStorage(ctx context.Context, address rain.Address, slot rain.Word) (rain.Word, error) {
	key := slotKey{address, slot}
	f.mu.Lock()
	value, found := f.storage[key]
	f.mu.Unlock()
	if found {
		f.metrics.cacheHit("storage", "memory")
		return value, nil
	}

	res, err, _ := f.inflight.Do("storage:"+address.String()+":"+slot.Hex(), func() (any, error) {
		f.mu.Lock()
		value, found := f.storage[key]
		f.mu.Unlock()
		if found {
			return value, nil
		}
		value, err := f.loadStorage(ctx, address, slot)
		if err != nil {
			return nil, err
		}
		f.mu.Lock()
		f.storage[key] = value
		f.mu.Unlock()
		return value, nil
	})
	if err != nil {
		return rain.Word{}, err
	}
	return res.(rain.Word), nil
}

// GetBlockHash returns the hash of the block with the given number.
func (f *Fetcher) GetBlockHash(ctx context.Context, number uint64) (rain.Hash, error) {
	f.mu.Lock()
	hash, found := f.hashes[number]
	f.mu.Unlock()
	if found {
		f.metrics.cacheHit("block_hash", "memory")
		return hash, nil
	}

	res, err, _ := f.inflight.Do(fmt.Sprintf("hash:%d", number), func() (any, error) {
		f.mu.Lock()
		hash, found := f.hashes[number]
		f.mu.Unlock()
		if found {
			return hash, nil
		}
		hash, err := f.loadBlockHash(ctx, number)
		if err != nil {
			return nil, err
		}
		f.mu.Lock()
		f.hashes[number] = hash
		f.mu.Unlock()
		return hash, nil
	})
	if err != nil {
		return rain.Hash{}, err
	}
	return res.(rain.Hash), nil
}

// cachedAccount is the persistent encoding of an account.
type cachedAccount struct {
	Balance rain.Word     `json:"balance"`
	Nonce   uint64        `json:"nonce"`
	Code    hexutil.Bytes `json:"code"`
}

func (f *Fetcher) loadAccount(ctx context.Context, address rain.Address) (*rain.AccountInfo, error) {
	key := f.cacheKey("account", address.String())
	if data, found := f.cacheGet(ctx, key); found {
		var cached *cachedAccount
		if err := json.Unmarshal(data, &cached); err == nil {
			f.metrics.cacheHit("account", "persistent")
			if cached == nil {
				return nil, nil
			}
			info := rain.NewAccountInfo(cached.Balance, cached.Nonce, rain.Code(cached.Code))
			return &info, nil
		}
		f.log.WithField("key", key).Warn("Ignoring malformed cache entry")
	}

	var (
		balance *big.Int
		nonce   uint64
		code    []byte
	)
	account := common.Address(address)
	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		var err error
		start := time.Now()
		balance, err = f.backend.BalanceAt(groupCtx, account, f.block)
		f.metrics.observeRPC("eth_getBalance", start, err)
		return err
	})
	group.Go(func() error {
		var err error
		start := time.Now()
		nonce, err = f.backend.NonceAt(groupCtx, account, f.block)
		f.metrics.observeRPC("eth_getTransactionCount", start, err)
		return err
	})
	group.Go(func() error {
		var err error
		start := time.Now()
		code, err = f.backend.CodeAt(groupCtx, account, f.block)
		f.metrics.observeRPC("eth_getCode", start, err)
		return err
	})
	if err := group.Wait(); err != nil {
		return nil, f.fetchError("account "+address.String(), err)
	}

	value, err := rain.WordFromBig(balance)
	if err != nil {
		return nil, f.fetchError("account "+address.String(), err)
	}

	f.log.WithFields(logrus.Fields{
		"address":   address,
		"nonce":     nonce,
		"code_size": len(code),
	}).Debug("Fetched account")

	var info *rain.AccountInfo
	if value != (rain.Word{}) || nonce != 0 || len(code) != 0 {
		fetched := rain.NewAccountInfo(value, nonce, code)
		info = &fetched
	}

	var cached *cachedAccount
	if info != nil {
		cached = &cachedAccount{Balance: info.Balance, Nonce: info.Nonce, Code: hexutil.Bytes(info.Code)}
	}
	if data, err := json.Marshal(cached); err == nil {
		f.cacheSet(ctx, key, data)
	}
	return info, nil
}

func (f *Fetcher) loadStorage(ctx context.Context, address rain.Address, slot rain.Word) (rain.Word, error) {
	key := f.cacheKey("storage", address.String(), slot.Hex())
	if data, found := f.cacheGet(ctx, key); found && len(data) == len(rain.Word{}) {
		f.metrics.cacheHit("storage", "persistent")
		return rain.Word(data), nil
	}

	start := time.Now()
	data, err := f.backend.StorageAt(ctx, common.Address(address), common.Hash(slot), f.block)
	f.metrics.observeRPC("eth_getStorageAt", start, err)
	if err != nil {
		return rain.Word{}, f.fetchError(fmt.Sprintf("storage %v[%v]", address, slot.Hex()), err)
	}
	value := rain.Word(common.BytesToHash(data))
	f.cacheSet(ctx, key, value[:])
	return value, nil
}

func (f *Fetcher) loadBlockHash(ctx context.Context, number uint64) (rain.Hash, error) {
	if number == f.block.Uint64() {
		return rain.Hash(f.header.Hash()), nil
	}
	key := f.cacheKey("hash", fmt.Sprint(number))
	if data, found := f.cacheGet(ctx, key); found && len(data) == len(rain.Hash{}) {
		f.metrics.cacheHit("block_hash", "persistent")
		return rain.Hash(data), nil
	}

	start := time.Now()
	header, err := f.backend.HeaderByNumber(ctx, new(big.Int).SetUint64(number))
	f.metrics.observeRPC("eth_getBlockByNumber", start, err)
	if err == nil && header == nil {
		err = ErrBlockUnavailable
	}
	if err != nil {
		return rain.Hash{}, f.fetchError(fmt.Sprintf("hash of block %d", number), err)
	}
	hash := rain.Hash(header.Hash())
	f.cacheSet(ctx, key, hash[:])
	return hash, nil
}

func (f *Fetcher) cacheKey(kind string, parts ...string) string {
	key := fmt.Sprintf("%v:%v:%s", f.chainID, f.block, kind)
	for _, part := range parts {
		key += ":" + part
	}
	return key
}

// cacheGet reads from the persistent tier. Failures of the tier are logged
// and treated as misses since the endpoint remains authoritative.
func (f *Fetcher) cacheGet(ctx context.Context, key string) ([]byte, bool) {
	if f.cache == nil {
		return nil, false
	}
	data, found, err := f.cache.Get(ctx, key)
	if err != nil {
		f.log.WithError(err).WithField("key", key).Warn("Failed to read from cache")
		return nil, false
	}
	return data, found
}

func (f *Fetcher) cacheSet(ctx context.Context, key string, data []byte) {
	if f.cache == nil {
		return
	}
	if err := f.cache.Set(ctx, key, data); err != nil {
		f.log.WithError(err).WithField("key", key).Warn("Failed to write to cache")
	}
}

func (f *Fetcher) fetchError(key string, cause error) *FetchError {
	return &FetchError{Endpoint: f.endpoint, Key: key, Cause: cause}
}
