// Copyright (c) 2025 Sonic Operations Ltd
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at soniclabs.com/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package oracletest

import (
	"math/big"
	"os"
	"path/filepath"
	"testing"

	"github.com/0xsoniclabs/gio-evm/gio"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/rlp"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/require"
)

func TestOracle_UnknownAccountsAndSlotsAreZero(t *testing.T) {
	require := require.New(t)
	oracle := New()

	code, answer := oracle.Answer(gio.GetAccount, gio.EncodeAccountQuery(common.Hash{1}, common.Address{2}))
	require.Equal(uint32(gio.StatusOK), code)
	require.Equal(make([]byte, gio.AccountPayloadSize), answer)

	code, answer = oracle.Answer(gio.GetStorage, gio.EncodeStorageQuery(common.Hash{1}, common.Address{2}, common.Hash{3}))
	require.Equal(uint32(gio.StatusOK), code)
	require.Equal(make([]byte, gio.WordSize), answer)
}

func TestOracle_AccountsAreScopedByBlock(t *testing.T) {
	require := require.New(t)
	oracle := New()
	address := common.Address{2}
	oracle.SetAccount(common.Hash{1}, address, gio.AccountData{Nonce: 7})

	_, answer := oracle.Answer(gio.GetAccount, gio.EncodeAccountQuery(common.Hash{1}, address))
	account, err := gio.ParseAccount(answer)
	require.NoError(err)
	require.Equal(uint64(7), account.Nonce)

	_, answer = oracle.Answer(gio.GetAccount, gio.EncodeAccountQuery(common.Hash{9}, address))
	account, err = gio.ParseAccount(answer)
	require.NoError(err)
	require.Equal(uint64(0), account.Nonce)
}

func TestOracle_ImagesRequireHint(t *testing.T) {
	require := require.New(t)
	oracle := New()
	hash := common.Hash{0xaa}
	oracle.SetPreimage(hash, []byte{0x60, 0x01})

	code, _ := oracle.Answer(gio.GetImage, gio.EncodePreimageQuery(gio.Keccak256, hash))
	require.Equal(uint32(StatusNotHinted), code)

	code, _ = oracle.Answer(gio.PreimageHint, gio.EncodeBlockHint(hash))
	require.Equal(uint32(gio.StatusOK), code)
	code, answer := oracle.Answer(gio.GetImage, gio.EncodePreimageQuery(gio.Keccak256, hash))
	require.Equal(uint32(gio.StatusOK), code)
	require.Equal([]byte{0x60, 0x01}, answer)

	// a hint covers a single fetch
	code, _ = oracle.Answer(gio.GetImage, gio.EncodePreimageQuery(gio.Keccak256, hash))
	require.Equal(uint32(StatusNotHinted), code)
}

func TestOracle_MalformedQueriesAreRejected(t *testing.T) {
	oracle := New()
	queries := []Request{
		{gio.GetAccount, []byte{1, 2}},
		{gio.GetStorage, gio.EncodeAccountQuery(common.Hash{}, common.Address{})},
		{gio.PreimageHint, nil},
		{gio.PreimageHint, []byte{3, 1, 2}},
		{gio.PreimageHint, gio.EncodeHintQuery(gio.EthBlockPreimage, []byte{1})},
		{gio.GetImage, gio.EncodePreimageQuery(gio.HashAlgorithm(1), common.Hash{})},
		{gio.Domain(0x99), nil},
	}
	for _, query := range queries {
		code, _ := oracle.Answer(query.Domain, query.Payload)
		require.Equal(t, uint32(StatusBadRequest), code, "query %v %x", query.Domain, query.Payload)
	}
}

func TestOracle_MissingImagesAreNotFound(t *testing.T) {
	oracle := New()
	oracle.Answer(gio.PreimageHint, gio.EncodeBlockHint(common.Hash{1}))
	code, _ := oracle.Answer(gio.GetImage, gio.EncodePreimageQuery(gio.Keccak256, common.Hash{1}))
	require.Equal(t, uint32(StatusNotFound), code)
}

func TestOracle_FailuresCanBeInjectedPerDomain(t *testing.T) {
	require := require.New(t)
	oracle := New()
	oracle.FailDomain(gio.GetStorage, 503)
	code, _ := oracle.Answer(gio.GetStorage, gio.EncodeStorageQuery(common.Hash{}, common.Address{}, common.Hash{}))
	require.Equal(uint32(503), code)
	code, _ = oracle.Answer(gio.GetAccount, gio.EncodeAccountQuery(common.Hash{}, common.Address{}))
	require.Equal(uint32(gio.StatusOK), code)
}

func TestOracle_RequestsAreRecorded(t *testing.T) {
	require := require.New(t)
	oracle := New()
	oracle.Answer(gio.GetAccount, []byte{1})
	oracle.Answer(gio.GetStorage, []byte{2})
	oracle.Answer(gio.GetAccount, []byte{3})

	require.Equal([]Request{
		{gio.GetAccount, []byte{1}},
		{gio.GetStorage, []byte{2}},
		{gio.GetAccount, []byte{3}},
	}, oracle.Requests())
	require.Equal(2, oracle.Count(gio.GetAccount))
	require.Equal(1, oracle.Count(gio.GetStorage))
	require.Equal(0, oracle.Count(gio.GetImage))
}

func TestOracle_HeadersAreKeyedByTheirHash(t *testing.T) {
	require := require.New(t)
	oracle := New()
	header := &types.Header{Number: big.NewInt(12), Difficulty: new(big.Int)}
	hash := oracle.AddHeader(header)
	require.Equal(header.Hash(), hash)

	oracle.Answer(gio.PreimageHint, gio.EncodeBlockHint(hash))
	_, answer := oracle.Answer(gio.GetImage, gio.EncodePreimageQuery(gio.Keccak256, hash))
	var decoded types.Header
	require.NoError(rlp.DecodeBytes(answer, &decoded))
	require.Equal(uint64(12), decoded.Number.Uint64())
}

func TestFixture_CanBeLoadedAndApplied(t *testing.T) {
	require := require.New(t)
	path := filepath.Join(t.TempDir(), "fixture.yaml")
	content := `
headers:
  - number: 9
  - number: 10
    gasLimit: 30000000
    baseFee: "7"
accounts:
  - address: "0x00000000000000000000000000000000000000aa"
    balance: "1000"
    nonce: 3
    code: "0x6001"
    storage:
      "0x01": "0x2a"
preimages:
  "0x00000000000000000000000000000000000000000000000000000000000000ff": "0xbeef"
`
	require.NoError(os.WriteFile(path, []byte(content), 0600))

	fixture, err := LoadFixture(path)
	require.NoError(err)
	oracle := New()
	hashes, err := fixture.Apply(oracle)
	require.NoError(err)
	require.Len(hashes, 2)
	head := hashes[1]

	// headers are linked
	oracle.Answer(gio.PreimageHint, gio.EncodeBlockHint(head))
	_, answer := oracle.Answer(gio.GetImage, gio.EncodePreimageQuery(gio.Keccak256, head))
	var header types.Header
	require.NoError(rlp.DecodeBytes(answer, &header))
	require.Equal(hashes[0], header.ParentHash)
	require.Equal(uint64(30000000), header.GasLimit)
	require.Equal(int64(7), header.BaseFee.Int64())

	// accounts are placed in the head block
	address := common.HexToAddress("0xaa")
	_, answer = oracle.Answer(gio.GetAccount, gio.EncodeAccountQuery(head, address))
	account, err := gio.ParseAccount(answer)
	require.NoError(err)
	require.Equal(*uint256.NewInt(1000), account.Balance)
	require.Equal(uint64(3), account.Nonce)
	require.Equal(gio.Keccak256.Sum([]byte{0x60, 0x01}), account.CodeHash)

	oracle.Answer(gio.PreimageHint, gio.EncodeCodeHint(head, address))
	_, answer = oracle.Answer(gio.GetImage, gio.EncodePreimageQuery(gio.Keccak256, account.CodeHash))
	require.Equal([]byte{0x60, 0x01}, answer)

	_, answer = oracle.Answer(gio.GetStorage, gio.EncodeStorageQuery(head, address, common.Hash{31: 1}))
	require.Equal(common.Hash{31: 0x2a}.Bytes(), answer)

	oracle.Answer(gio.PreimageHint, gio.EncodeBlockHint(common.Hash{31: 0xff}))
	_, answer = oracle.Answer(gio.GetImage, gio.EncodePreimageQuery(gio.Keccak256, common.Hash{31: 0xff}))
	require.Equal([]byte{0xbe, 0xef}, answer)
}

func TestFixture_InvalidValuesAreReported(t *testing.T) {
	fixtures := []Fixture{
		{Headers: []HeaderFixture{{BaseFee: "abc"}}},
		{Accounts: []AccountFixture{{Balance: "-1"}}},
		{Accounts: []AccountFixture{{Code: "0x1"}}},
		{Preimages: map[string]string{"0x01": "zz"}},
	}
	for _, fixture := range fixtures {
		_, err := fixture.Apply(New())
		require.Error(t, err)
	}
}
