// Copyright (c) 2025 Sonic Operations Ltd
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at soniclabs.com/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package giostate

import (
	"context"
	"fmt"

	"github.com/0xsoniclabs/gio-evm/gio"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/log"
)

// BlockNotFoundError reports that a block number could not be resolved by
// walking back from the start block.
type BlockNotFoundError struct {
	Number uint64
	Start  common.Hash
	Reason string
}

func (e *BlockNotFoundError) Error() string {
	return fmt.Sprintf("block %d not reachable from %v: %s", e.Number, e.Start, e.Reason)
}

// GetBlockHash resolves the hash of the block with the given number by
// following parent links starting at the state's block. Each visited block
// costs one hint and one preimage fetch.
func (s *State) GetBlockHash(ctx context.Context, number uint64) (common.Hash, error) {
	start := s.params.BlockHash
	current := start
	var previous uint64
	for depth := uint64(0); ; depth++ {
		if limit := s.params.MaxWalkDepth; limit > 0 && depth >= limit {
			return common.Hash{}, &BlockNotFoundError{Number: number, Start: start, Reason: fmt.Sprintf("walk limit of %d headers exceeded", limit)}
		}
		if err := ctx.Err(); err != nil {
			return common.Hash{}, err
		}

		header, err := s.GetHeader(ctx, current)
		if err != nil {
			return common.Hash{}, err
		}
		if !header.Number.IsUint64() {
			return common.Hash{}, &gio.ProtocolError{Reason: fmt.Sprintf("header %v has out-of-range number %v", current, header.Number)}
		}
		height := header.Number.Uint64()

		// Heights must strictly decrease along the walk, which bounds it
		// by the distance between the start and the target.
		if depth > 0 && height >= previous {
			return common.Hash{}, &gio.ProtocolError{Reason: fmt.Sprintf("header %v at height %d does not precede height %d", current, height, previous)}
		}

		if height == number {
			log.Debug("Resolved block hash", "number", number, "hash", current, "headers", depth+1)
			return current, nil
		}
		if height < number {
			reason := fmt.Sprintf("chain skips from height %d to %d", previous, height)
			if depth == 0 {
				reason = fmt.Sprintf("start block is at height %d", height)
			}
			return common.Hash{}, &BlockNotFoundError{Number: number, Start: start, Reason: reason}
		}

		previous = height
		current = header.ParentHash
	}
}
