// Copyright (c) 2025 Sonic Operations Ltd
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at soniclabs.com/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package gio

import (
	"encoding/binary"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"golang.org/x/crypto/sha3"
)

// Domain identifies the kind of query sent to the oracle.
type Domain uint32

const (
	GetStorage   Domain = 0x27
	GetAccount   Domain = 0x29
	GetImage     Domain = 0x2a
	PreimageHint Domain = 0x2e
)

var domainNames = map[Domain]string{
	GetStorage:   "GetStorage",
	GetAccount:   "GetAccount",
	GetImage:     "GetImage",
	PreimageHint: "PreimageHint",
}

func (d Domain) String() string {
	if name, found := domainNames[d]; found {
		return name
	}
	return fmt.Sprintf("Domain(0x%x)", uint32(d))
}

// Hint qualifies a PreimageHint query. It occupies a single byte on the wire.
type Hint uint8

const (
	EthCodePreimage  Hint = 1
	EthBlockPreimage Hint = 2
)

func (h Hint) String() string {
	switch h {
	case EthCodePreimage:
		return "EthCodePreimage"
	case EthBlockPreimage:
		return "EthBlockPreimage"
	}
	return fmt.Sprintf("Hint(%d)", uint8(h))
}

// HashAlgorithm qualifies the key of a GetImage query.
type HashAlgorithm uint8

const (
	Keccak256 HashAlgorithm = 2
)

func (a HashAlgorithm) String() string {
	if a == Keccak256 {
		return "Keccak256"
	}
	return fmt.Sprintf("HashAlgorithm(%d)", uint8(a))
}

// Sum computes the digest of the given data under this algorithm. It panics
// for unknown algorithms.
func (a HashAlgorithm) Sum(data []byte) common.Hash {
	if a != Keccak256 {
		panic(fmt.Sprintf("unsupported hash algorithm %v", a))
	}
	hasher := sha3.NewLegacyKeccak256()
	hasher.Write(data)
	var res common.Hash
	hasher.Sum(res[:0])
	return res
}

const (
	accountQuerySize  = common.HashLength + common.AddressLength
	storageQuerySize  = accountQuerySize + 32
	preimageQuerySize = 1 + common.HashLength

	// AccountPayloadSize is the size of a GetAccount answer:
	// balance(32) ‖ nonce(8) ‖ codeHash(32).
	AccountPayloadSize = 32 + 8 + common.HashLength
	// AccountPayloadWithRootSize is the size of a GetAccount answer carrying
	// the optional trailing storage root.
	AccountPayloadWithRootSize = AccountPayloadSize + common.HashLength
	// WordSize is the size of a GetStorage answer.
	WordSize = 32
)

// EncodeAccountQuery produces blockHash ‖ address.
func EncodeAccountQuery(block common.Hash, address common.Address) []byte {
	res := make([]byte, 0, accountQuerySize)
	res = append(res, block[:]...)
	return append(res, address[:]...)
}

// EncodeStorageQuery produces blockHash ‖ address ‖ slot, with the slot
// encoded as a 32-byte big-endian word.
func EncodeStorageQuery(block common.Hash, address common.Address, slot common.Hash) []byte {
	res := make([]byte, 0, storageQuerySize)
	res = append(res, block[:]...)
	res = append(res, address[:]...)
	return append(res, slot[:]...)
}

// EncodePreimageQuery produces algorithm ‖ hash.
func EncodePreimageQuery(alg HashAlgorithm, hash common.Hash) []byte {
	res := make([]byte, 0, preimageQuerySize)
	res = append(res, byte(alg))
	return append(res, hash[:]...)
}

// EncodeHintQuery produces hint ‖ payload.
func EncodeHintQuery(hint Hint, payload []byte) []byte {
	res := make([]byte, 0, 1+len(payload))
	res = append(res, byte(hint))
	return append(res, payload...)
}

// EncodeCodeHint announces the fetch of the code of the given account.
func EncodeCodeHint(block common.Hash, address common.Address) []byte {
	return EncodeHintQuery(EthCodePreimage, EncodeAccountQuery(block, address))
}

// EncodeBlockHint announces the fetch of the header with the given hash.
func EncodeBlockHint(hash common.Hash) []byte {
	return EncodeHintQuery(EthBlockPreimage, hash[:])
}

// AccountData is the decoded answer to a GetAccount query.
type AccountData struct {
	Balance  uint256.Int
	Nonce    uint64
	CodeHash common.Hash
	// StorageRoot is only present if the oracle appended it to the answer.
	StorageRoot *common.Hash
}

// ParseAccount decodes a GetAccount answer. The payload must either be
// exactly AccountPayloadSize bytes or carry a trailing storage root.
func ParseAccount(payload []byte) (AccountData, error) {
	var res AccountData
	if len(payload) != AccountPayloadSize && len(payload) != AccountPayloadWithRootSize {
		return res, &ProtocolError{Reason: fmt.Sprintf("invalid account payload length %d, expected %d or %d", len(payload), AccountPayloadSize, AccountPayloadWithRootSize)}
	}
	res.Balance.SetBytes32(payload[0:32])
	res.Nonce = binary.BigEndian.Uint64(payload[32:40])
	copy(res.CodeHash[:], payload[40:72])
	if len(payload) == AccountPayloadWithRootSize {
		root := common.BytesToHash(payload[72:104])
		res.StorageRoot = &root
	}
	return res, nil
}

// Encode produces the wire format parsed by ParseAccount.
func (a *AccountData) Encode() []byte {
	res := make([]byte, AccountPayloadSize, AccountPayloadWithRootSize)
	balance := a.Balance.Bytes32()
	copy(res[0:32], balance[:])
	binary.BigEndian.PutUint64(res[32:40], a.Nonce)
	copy(res[40:72], a.CodeHash[:])
	if a.StorageRoot != nil {
		res = append(res, a.StorageRoot[:]...)
	}
	return res
}

// ParseWord decodes a GetStorage answer, a 32-byte big-endian word.
func ParseWord(payload []byte) (uint256.Int, error) {
	var res uint256.Int
	if len(payload) != WordSize {
		return res, &ProtocolError{Reason: fmt.Sprintf("invalid word length %d, expected %d", len(payload), WordSize)}
	}
	res.SetBytes32(payload)
	return res, nil
}
