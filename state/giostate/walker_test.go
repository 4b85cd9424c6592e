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
	"math/big"
	"testing"

	"github.com/0xsoniclabs/gio-evm/gio"
	"github.com/0xsoniclabs/gio-evm/gio/oracletest"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/rlp"
	"github.com/stretchr/testify/require"
)

// addChain registers headers with the given heights, each the parent of the
// previous one, and returns their hashes in the same order.
func addChain(oracle *oracletest.Oracle, heights ...uint64) []common.Hash {
	hashes := make([]common.Hash, len(heights))
	parent := common.Hash{0xff}
	for i := len(heights) - 1; i >= 0; i-- {
		parent = oracle.AddHeader(&types.Header{
			Number:     new(big.Int).SetUint64(heights[i]),
			ParentHash: parent,
			Difficulty: new(big.Int),
		})
		hashes[i] = parent
	}
	return hashes
}

func TestBlockWalker_FindsParentAfterTwoFetches(t *testing.T) {
	require := require.New(t)
	oracle := oracletest.New()
	chain := addChain(oracle, 10, 9, 8)

	state := newTestState(t, oracle, Parameters{BlockHash: chain[0]})
	hash, err := state.GetBlockHash(context.Background(), 9)
	require.NoError(err)
	require.Equal(chain[1], hash)

	require.Equal(2, oracle.Count(gio.GetImage))
	require.Equal(2, oracle.Count(gio.PreimageHint))
	require.Equal([]oracletest.Request{
		{Domain: gio.PreimageHint, Payload: gio.EncodeBlockHint(chain[0])},
		{Domain: gio.GetImage, Payload: gio.EncodePreimageQuery(gio.Keccak256, chain[0])},
		{Domain: gio.PreimageHint, Payload: gio.EncodeBlockHint(chain[1])},
		{Domain: gio.GetImage, Payload: gio.EncodePreimageQuery(gio.Keccak256, chain[1])},
	}, oracle.Requests())
}

func TestBlockWalker_ResultHasRequestedNumber(t *testing.T) {
	oracle := oracletest.New()
	chain := addChain(oracle, 20, 19, 18, 17, 16, 15)
	state := newTestState(t, oracle, Parameters{BlockHash: chain[0]})

	for i, hash := range chain {
		number := uint64(20 - i)
		got, err := state.GetBlockHash(context.Background(), number)
		require.NoError(t, err)
		require.Equal(t, hash, got)

		header, err := state.GetHeader(context.Background(), got)
		require.NoError(t, err)
		require.Equal(t, number, header.Number.Uint64())
	}
}

func TestBlockWalker_StartBlockIsResolvedWithSingleFetch(t *testing.T) {
	require := require.New(t)
	oracle := oracletest.New()
	chain := addChain(oracle, 10, 9)

	state := newTestState(t, oracle, Parameters{BlockHash: chain[0]})
	hash, err := state.GetBlockHash(context.Background(), 10)
	require.NoError(err)
	require.Equal(chain[0], hash)
	require.Equal(1, oracle.Count(gio.GetImage))
}

func TestBlockWalker_FutureBlocksAreNotFound(t *testing.T) {
	require := require.New(t)
	oracle := oracletest.New()
	chain := addChain(oracle, 10, 9, 8)

	state := newTestState(t, oracle, Parameters{BlockHash: chain[0]})
	_, err := state.GetBlockHash(context.Background(), 11)
	var notFound *BlockNotFoundError
	require.ErrorAs(err, &notFound)
	require.Equal(uint64(11), notFound.Number)
	require.Equal(chain[0], notFound.Start)
	require.Equal(1, oracle.Count(gio.GetImage))
}

func TestBlockWalker_GenesisCanBeResolved(t *testing.T) {
	oracle := oracletest.New()
	chain := addChain(oracle, 2, 1, 0)
	state := newTestState(t, oracle, Parameters{BlockHash: chain[0]})
	hash, err := state.GetBlockHash(context.Background(), 0)
	require.NoError(t, err)
	require.Equal(t, chain[2], hash)
}

func TestBlockWalker_GapInChainIsNotFound(t *testing.T) {
	oracle := oracletest.New()
	chain := addChain(oracle, 10, 7, 6)
	state := newTestState(t, oracle, Parameters{BlockHash: chain[0]})
	_, err := state.GetBlockHash(context.Background(), 8)
	var notFound *BlockNotFoundError
	require.ErrorAs(t, err, &notFound)
	require.Equal(t, 2, oracle.Count(gio.GetImage))
}

func TestBlockWalker_NonDecreasingHeightsAreProtocolError(t *testing.T) {
	oracle := oracletest.New()
	chain := addChain(oracle, 5, 7, 3)
	state := newTestState(t, oracle, Parameters{BlockHash: chain[0]})
	_, err := state.GetBlockHash(context.Background(), 3)
	var protocolErr *gio.ProtocolError
	require.ErrorAs(t, err, &protocolErr)
}

func TestBlockWalker_WalkDepthCanBeLimited(t *testing.T) {
	require := require.New(t)
	oracle := oracletest.New()
	chain := addChain(oracle, 10, 9, 8, 7)
	state := newTestState(t, oracle, Parameters{BlockHash: chain[0], MaxWalkDepth: 2})

	hash, err := state.GetBlockHash(context.Background(), 9)
	require.NoError(err)
	require.Equal(chain[1], hash)

	_, err = state.GetBlockHash(context.Background(), 7)
	var notFound *BlockNotFoundError
	require.ErrorAs(err, &notFound)
}

func TestBlockWalker_MissingHeaderIsOracleError(t *testing.T) {
	oracle := oracletest.New()
	state := newTestState(t, oracle, Parameters{BlockHash: common.Hash{0x01}})
	_, err := state.GetBlockHash(context.Background(), 1)
	var oracleErr *gio.OracleError
	require.ErrorAs(t, err, &oracleErr)
	require.Equal(t, uint32(oracletest.StatusNotFound), oracleErr.Code)
}

func TestBlockWalker_MalformedHeaderIsProtocolError(t *testing.T) {
	oracle := oracletest.New()
	oracle.SetPreimage(common.Hash{0x01}, []byte{0x01, 0x02})
	state := newTestState(t, oracle, Parameters{BlockHash: common.Hash{0x01}})
	_, err := state.GetBlockHash(context.Background(), 1)
	var protocolErr *gio.ProtocolError
	require.ErrorAs(t, err, &protocolErr)
}

func TestBlockWalker_HeadersAreVerifiedIfEnabled(t *testing.T) {
	require := require.New(t)
	data, err := rlp.EncodeToBytes(&types.Header{Number: big.NewInt(4), Difficulty: new(big.Int)})
	require.NoError(err)
	bogus := common.Hash{0x01}
	oracle := oracletest.New()
	oracle.SetPreimage(bogus, data)

	state := newTestState(t, oracle, Parameters{BlockHash: bogus})
	hash, err := state.GetBlockHash(context.Background(), 4)
	require.NoError(err)
	require.Equal(bogus, hash)

	state = newTestState(t, oracle, Parameters{BlockHash: bogus, VerifyPreimages: true})
	_, err = state.GetBlockHash(context.Background(), 4)
	var protocolErr *gio.ProtocolError
	require.ErrorAs(err, &protocolErr)
}

func TestBlockWalker_CancelledContextStopsWalk(t *testing.T) {
	oracle := oracletest.New()
	chain := addChain(oracle, 10, 9)
	state := newTestState(t, oracle, Parameters{BlockHash: chain[0]})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := state.GetBlockHash(ctx, 9)
	require.ErrorIs(t, err, context.Canceled)
	require.Empty(t, oracle.Requests())
}

func TestBlockNotFoundError_DescribesTarget(t *testing.T) {
	err := &BlockNotFoundError{Number: 12, Start: common.Hash{}, Reason: "start block is at height 10"}
	require.Contains(t, err.Error(), "block 12 not reachable")
	require.Contains(t, err.Error(), "start block is at height 10")
}
