// Copyright (c) 2025 Sonic Operations Ltd
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at soniclabs.com/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package evm

import (
	"context"
	"fmt"

	"github.com/0xsoniclabs/gio-evm/state"
	"github.com/ethereum/go-ethereum/common"
	gethstate "github.com/ethereum/go-ethereum/core/state"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/holiman/uint256"
)

// database is a go-ethereum state database whose readers serve the content
// of a state.State. All other functionality is provided by an empty
// in-memory database.
type database struct {
	gethstate.Database
	reader *reader
}

func (db *database) Reader(common.Hash) (gethstate.Reader, error) {
	return db.reader, nil
}

// reader adapts a state.State to the go-ethereum state reader interface.
// Lookups are forwarded one by one; the only retained data is the code of
// accounts already fetched, since code is delivered along with its account.
// The first failure is recorded and aborts the ongoing execution.
type reader struct {
	gethstate.Reader
	ctx   context.Context
	state state.State
	codes map[common.Hash][]byte
	err   error
	abort func()
}

func newDatabase(ctx context.Context, st state.State) (*database, error) {
	empty := gethstate.NewDatabaseForTesting()
	base, err := empty.Reader(types.EmptyRootHash)
	if err != nil {
		return nil, err
	}
	return &database{
		Database: empty,
		reader: &reader{
			Reader: base,
			ctx:    ctx,
			state:  st,
			codes:  map[common.Hash][]byte{},
		},
	}, nil
}

func (r *reader) fail(err error) error {
	if r.err == nil {
		r.err = err
		if r.abort != nil {
			r.abort()
		}
	}
	return err
}

func (r *reader) Account(addr common.Address) (*types.StateAccount, error) {
	account, err := r.state.GetAccount(r.ctx, addr)
	if err != nil {
		return nil, r.fail(err)
	}
	if account.IsEmpty() {
		return nil, nil
	}

	codeHash := types.EmptyCodeHash
	if len(account.Code) > 0 {
		codeHash = account.CodeHash
		if codeHash == (common.Hash{}) {
			codeHash = crypto.Keccak256Hash(account.Code)
		}
		r.codes[codeHash] = account.Code
	}
	root := types.EmptyRootHash
	if account.StorageRoot != nil && *account.StorageRoot != (common.Hash{}) {
		root = *account.StorageRoot
	}
	return &types.StateAccount{
		Nonce:    account.Nonce,
		Balance:  new(uint256.Int).Set(&account.Balance),
		Root:     root,
		CodeHash: codeHash.Bytes(),
	}, nil
}

func (r *reader) Storage(addr common.Address, slot common.Hash) (common.Hash, error) {
	value, err := r.state.GetStorage(r.ctx, addr, slot)
	if err != nil {
		return common.Hash{}, r.fail(err)
	}
	return common.Hash(value.Bytes32()), nil
}

func (r *reader) Has(_ common.Address, codeHash common.Hash) bool {
	_, found := r.codes[codeHash]
	return found
}

func (r *reader) Code(addr common.Address, codeHash common.Hash) ([]byte, error) {
	if codeHash == types.EmptyCodeHash {
		return nil, nil
	}
	if code, found := r.codes[codeHash]; found {
		return code, nil
	}
	// Code is only known after the account was resolved.
	if _, err := r.Account(addr); err != nil {
		return nil, err
	}
	if code, found := r.codes[codeHash]; found {
		return code, nil
	}
	return nil, r.fail(fmt.Errorf("code %v of account %v is not available", codeHash, addr))
}

func (r *reader) CodeSize(addr common.Address, codeHash common.Hash) (int, error) {
	code, err := r.Code(addr, codeHash)
	return len(code), err
}
