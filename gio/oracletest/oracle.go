// Copyright (c) 2025 Sonic Operations Ltd
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at soniclabs.com/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

// Package oracletest provides an in-process GIO oracle serving a fixed set of
// answers. It is intended for tests and local development.
package oracletest

import (
	"sync"

	"github.com/0xsoniclabs/gio-evm/gio"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/rlp"
)

// Response codes produced by the Oracle besides gio.StatusOK.
const (
	StatusBadRequest = 400
	// StatusNotHinted is returned for a GetImage query that was not
	// announced by a matching PreimageHint.
	StatusNotHinted = 403
	StatusNotFound  = 404
)

// Request is a query received by the Oracle.
type Request struct {
	Domain  gio.Domain
	Payload []byte
}

// Oracle answers GIO queries from in-memory tables. Accounts and slots that
// were never set are answered with zero values. All methods are safe for
// concurrent use.
type Oracle struct {
	mu        sync.Mutex
	accounts  map[string][]byte
	storage   map[string][]byte
	preimages map[common.Hash][]byte
	failures  map[gio.Domain]uint32
	hinted    bool
	requests  []Request
}

func New() *Oracle {
	return &Oracle{
		accounts:  map[string][]byte{},
		storage:   map[string][]byte{},
		preimages: map[common.Hash][]byte{},
		failures:  map[gio.Domain]uint32{},
	}
}

// SetAccount registers the answer for a GetAccount query.
func (o *Oracle) SetAccount(block common.Hash, address common.Address, account gio.AccountData) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.accounts[string(gio.EncodeAccountQuery(block, address))] = account.Encode()
}

// SetStorage registers the answer for a GetStorage query.
func (o *Oracle) SetStorage(block common.Hash, address common.Address, slot, value common.Hash) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.storage[string(gio.EncodeStorageQuery(block, address, slot))] = value.Bytes()
}

// SetPreimage registers data as the preimage of the given hash. The hash is
// not checked to match the data.
func (o *Oracle) SetPreimage(hash common.Hash, data []byte) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.preimages[hash] = append([]byte(nil), data...)
}

// AddHeader registers the RLP encoding of the header as a preimage and
// returns the header's hash.
func (o *Oracle) AddHeader(header *types.Header) common.Hash {
	data, err := rlp.EncodeToBytes(header)
	if err != nil {
		panic(err)
	}
	hash := gio.Keccak256.Sum(data)
	o.SetPreimage(hash, data)
	return hash
}

// FailDomain makes all subsequent queries of the given domain fail with the
// given code.
func (o *Oracle) FailDomain(domain gio.Domain, code uint32) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.failures[domain] = code
}

// Requests returns all queries received so far in arrival order.
func (o *Oracle) Requests() []Request {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]Request(nil), o.requests...)
}

// Count returns the number of received queries of the given domain.
func (o *Oracle) Count(domain gio.Domain) int {
	o.mu.Lock()
	defer o.mu.Unlock()
	res := 0
	for _, r := range o.requests {
		if r.Domain == domain {
			res++
		}
	}
	return res
}

// Answer processes a single query and returns the response code and the
// answer payload.
func (o *Oracle) Answer(domain gio.Domain, payload []byte) (uint32, []byte) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.requests = append(o.requests, Request{Domain: domain, Payload: append([]byte(nil), payload...)})

	if code, found := o.failures[domain]; found {
		return code, nil
	}

	switch domain {
	case gio.GetAccount:
		if len(payload) != common.HashLength+common.AddressLength {
			return StatusBadRequest, nil
		}
		if account, found := o.accounts[string(payload)]; found {
			return gio.StatusOK, account
		}
		empty := gio.AccountData{}
		return gio.StatusOK, empty.Encode()

	case gio.GetStorage:
		if len(payload) != common.HashLength+common.AddressLength+gio.WordSize {
			return StatusBadRequest, nil
		}
		if value, found := o.storage[string(payload)]; found {
			return gio.StatusOK, value
		}
		return gio.StatusOK, make([]byte, gio.WordSize)

	case gio.PreimageHint:
		if !isValidHint(payload) {
			return StatusBadRequest, nil
		}
		o.hinted = true
		return gio.StatusOK, nil

	case gio.GetImage:
		if len(payload) != 1+common.HashLength || gio.HashAlgorithm(payload[0]) != gio.Keccak256 {
			return StatusBadRequest, nil
		}
		if !o.hinted {
			return StatusNotHinted, nil
		}
		o.hinted = false
		data, found := o.preimages[common.BytesToHash(payload[1:])]
		if !found {
			return StatusNotFound, nil
		}
		return gio.StatusOK, data
	}
	return StatusBadRequest, nil
}

func isValidHint(payload []byte) bool {
	if len(payload) == 0 {
		return false
	}
	switch gio.Hint(payload[0]) {
	case gio.EthCodePreimage:
		return len(payload) == 1+common.HashLength+common.AddressLength
	case gio.EthBlockPreimage:
		return len(payload) == 1+common.HashLength
	}
	return false
}
