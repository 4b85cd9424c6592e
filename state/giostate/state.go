// Copyright (c) 2025 Sonic Operations Ltd
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at soniclabs.com/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

// Package giostate implements a state.State backed by a GIO oracle. Every
// lookup is translated into one or more oracle round trips; nothing is
// cached.
package giostate

import (
	"context"
	"fmt"

	"github.com/0xsoniclabs/gio-evm/common"
	"github.com/0xsoniclabs/gio-evm/gio"
	"github.com/0xsoniclabs/gio-evm/state"
	gethcommon "github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/log"
	"github.com/ethereum/go-ethereum/rlp"
	"github.com/holiman/uint256"
)

// ErrUnsupported is the panic value of operations this state does not offer.
const ErrUnsupported = common.ConstError("operation not supported by GIO state")

// Oracle is the query interface the State is built on. It is implemented
// by *gio.Client.
type Oracle interface {
	Emit(ctx context.Context, domain gio.Domain, payload []byte) ([]byte, error)
}

// Parameters configure a State.
type Parameters struct {
	// BlockHash is the block all lookups are scoped to.
	BlockHash gethcommon.Hash
	// VerifyPreimages enables checking that fetched preimages hash to the
	// key they were requested with, including account code.
	VerifyPreimages bool
	// MaxWalkDepth limits the number of headers fetched by GetBlockHash.
	// Zero means no limit.
	MaxWalkDepth uint64
}

// State is a state.State answering all lookups through an Oracle.
type State struct {
	oracle Oracle
	params Parameters
}

var _ state.State = &State{}

func NewState(oracle Oracle, params Parameters) *State {
	return &State{
		oracle: oracle,
		params: params,
	}
}

func (s *State) BlockHash() gethcommon.Hash {
	return s.params.BlockHash
}

func (s *State) GetAccount(ctx context.Context, address gethcommon.Address) (*state.Account, error) {
	payload, err := s.oracle.Emit(ctx, gio.GetAccount, gio.EncodeAccountQuery(s.params.BlockHash, address))
	if err != nil {
		return nil, fmt.Errorf("failed to fetch account %v: %w", address, err)
	}
	data, err := gio.ParseAccount(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to decode account %v: %w", address, err)
	}

	var code []byte
	if hasCode(data.CodeHash) {
		code, err = s.fetchPreimage(ctx, gio.EncodeCodeHint(s.params.BlockHash, address), data.CodeHash)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch code of %v: %w", address, err)
		}
	}

	log.Trace("Fetched account", "address", address, "nonce", data.Nonce, "balance", &data.Balance, "code", len(code))
	return &state.Account{
		Balance:     data.Balance,
		Nonce:       data.Nonce,
		CodeHash:    data.CodeHash,
		Code:        code,
		StorageRoot: data.StorageRoot,
	}, nil
}

// hasCode is false for hashes known to stand for empty code. The zero hash
// is used by oracles for accounts without code.
func hasCode(codeHash gethcommon.Hash) bool {
	return codeHash != (gethcommon.Hash{}) && codeHash != types.EmptyCodeHash
}

func (s *State) GetStorage(ctx context.Context, address gethcommon.Address, slot gethcommon.Hash) (uint256.Int, error) {
	payload, err := s.oracle.Emit(ctx, gio.GetStorage, gio.EncodeStorageQuery(s.params.BlockHash, address, slot))
	if err != nil {
		return uint256.Int{}, fmt.Errorf("failed to fetch slot %v of %v: %w", slot, address, err)
	}
	value, err := gio.ParseWord(payload)
	if err != nil {
		return uint256.Int{}, fmt.Errorf("failed to decode slot %v of %v: %w", slot, address, err)
	}
	return value, nil
}

// GetCodeByHash is not supported; code is only available through GetAccount.
// Calling it panics.
func (s *State) GetCodeByHash(context.Context, gethcommon.Hash) ([]byte, error) {
	panic(fmt.Errorf("%w: code can only be fetched along with its account", ErrUnsupported))
}

func (s *State) GetHeader(ctx context.Context, hash gethcommon.Hash) (*types.Header, error) {
	data, err := s.fetchPreimage(ctx, gio.EncodeBlockHint(hash), hash)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch header %v: %w", hash, err)
	}
	header := new(types.Header)
	if err := rlp.DecodeBytes(data, header); err != nil {
		return nil, &gio.ProtocolError{Reason: fmt.Sprintf("invalid header encoding for %v", hash), Err: err}
	}
	if header.Number == nil {
		return nil, &gio.ProtocolError{Reason: fmt.Sprintf("header %v lacks a number", hash)}
	}
	return header, nil
}

// fetchPreimage announces a preimage fetch with the given hint and fetches
// the Keccak256 preimage of hash afterwards.
func (s *State) fetchPreimage(ctx context.Context, hint []byte, hash gethcommon.Hash) ([]byte, error) {
	if _, err := s.oracle.Emit(ctx, gio.PreimageHint, hint); err != nil {
		return nil, err
	}
	data, err := s.oracle.Emit(ctx, gio.GetImage, gio.EncodePreimageQuery(gio.Keccak256, hash))
	if err != nil {
		return nil, err
	}
	if s.params.VerifyPreimages {
		if got := gio.Keccak256.Sum(data); got != hash {
			return nil, &gio.ProtocolError{Reason: fmt.Sprintf("preimage of %v hashes to %v", hash, got)}
		}
	}
	return data, nil
}
