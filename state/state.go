// Copyright (c) 2025 Sonic Operations Ltd
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at soniclabs.com/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package state

//go:generate mockgen -source state.go -destination state_mocks.go -package state

import (
	"context"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/holiman/uint256"
)

// State is a read-only view on the world state as of a fixed block. It
// offers the lookups an EVM needs to replay a call in that block.
//
// Implementations are not required to be safe for concurrent use. A State
// is meant to be owned by a single call in progress.
type State interface {
	// BlockHash returns the hash of the block all lookups are scoped to.
	BlockHash() common.Hash

	// GetAccount returns the account at the given address, including its
	// code. Non-existing accounts are reported as the zero account.
	GetAccount(ctx context.Context, address common.Address) (*Account, error)

	// GetStorage returns the value of the given storage slot.
	GetStorage(ctx context.Context, address common.Address, slot common.Hash) (uint256.Int, error)

	// GetCodeByHash looks up code by its hash. Code is only obtained as
	// part of GetAccount, implementations may panic if this is called.
	GetCodeByHash(ctx context.Context, hash common.Hash) ([]byte, error)

	// GetBlockHash resolves the hash of the ancestor block with the given
	// number.
	GetBlockHash(ctx context.Context, number uint64) (common.Hash, error)

	// GetHeader fetches the header of the block with the given hash.
	GetHeader(ctx context.Context, hash common.Hash) (*types.Header, error)
}

// Account summarizes the information retained for a single account.
type Account struct {
	Balance  uint256.Int
	Nonce    uint64
	CodeHash common.Hash
	Code     []byte
	// StorageRoot is nil if the source does not provide it.
	StorageRoot *common.Hash
}

// IsEmpty is true for accounts with zero balance, zero nonce and no code.
func (a *Account) IsEmpty() bool {
	return a.Nonce == 0 && a.Balance.IsZero() && len(a.Code) == 0
}
