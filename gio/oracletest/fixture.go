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
	"fmt"
	"math/big"
	"os"
	"slices"
	"strings"

	"github.com/0xsoniclabs/gio-evm/gio"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/holiman/uint256"
	"golang.org/x/exp/maps"
	"gopkg.in/yaml.v3"
)

// Fixture describes the content of an Oracle in YAML form, e.g.
//
//	headers:
//	  - number: 9
//	  - number: 10
//	    gasLimit: 30000000
//	accounts:
//	  - address: 0x00000000000000000000000000000000000000aa
//	    balance: "1000"
//	    code: 0x600160005260206000f3
//	    storage:
//	      0x00: 0x2a
//
// Headers are listed oldest first. A header without parentHash is linked to
// the previous header. Accounts without block are placed in the last header.
type Fixture struct {
	Headers   []HeaderFixture   `yaml:"headers"`
	Accounts  []AccountFixture  `yaml:"accounts"`
	Preimages map[string]string `yaml:"preimages"`
}

type HeaderFixture struct {
	Number     uint64 `yaml:"number"`
	ParentHash string `yaml:"parentHash"`
	Coinbase   string `yaml:"coinbase"`
	GasLimit   uint64 `yaml:"gasLimit"`
	Time       uint64 `yaml:"time"`
	BaseFee    string `yaml:"baseFee"`
}

type AccountFixture struct {
	Block    string            `yaml:"block"`
	Address  string            `yaml:"address"`
	Balance  string            `yaml:"balance"`
	Nonce    uint64            `yaml:"nonce"`
	Code     string            `yaml:"code"`
	CodeHash string            `yaml:"codeHash"`
	Storage  map[string]string `yaml:"storage"`
}

// LoadFixture reads a fixture from a YAML file.
func LoadFixture(path string) (*Fixture, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	res := &Fixture{}
	if err := yaml.Unmarshal(data, res); err != nil {
		return nil, fmt.Errorf("failed to parse fixture %s: %w", path, err)
	}
	return res, nil
}

// Apply registers the fixture's content with the oracle. It returns the
// hashes of all headers in the order they are listed.
func (f *Fixture) Apply(o *Oracle) ([]common.Hash, error) {
	var hashes []common.Hash
	var parent common.Hash
	for i, h := range f.Headers {
		header := &types.Header{
			Number:     new(big.Int).SetUint64(h.Number),
			ParentHash: parent,
			Coinbase:   common.HexToAddress(h.Coinbase),
			GasLimit:   h.GasLimit,
			Time:       h.Time,
			Difficulty: new(big.Int),
		}
		if h.ParentHash != "" {
			header.ParentHash = common.HexToHash(h.ParentHash)
		}
		if h.BaseFee != "" {
			fee, err := parseUint256(h.BaseFee)
			if err != nil {
				return nil, fmt.Errorf("header %d: invalid base fee: %w", i, err)
			}
			header.BaseFee = fee.ToBig()
		}
		parent = o.AddHeader(header)
		hashes = append(hashes, parent)
	}

	for i, a := range f.Accounts {
		block := parent
		if a.Block != "" {
			block = common.HexToHash(a.Block)
		}
		address := common.HexToAddress(a.Address)

		account := gio.AccountData{Nonce: a.Nonce}
		if a.Balance != "" {
			balance, err := parseUint256(a.Balance)
			if err != nil {
				return nil, fmt.Errorf("account %d: invalid balance: %w", i, err)
			}
			account.Balance = *balance
		}
		if a.Code != "" {
			code, err := hexutil.Decode(a.Code)
			if err != nil {
				return nil, fmt.Errorf("account %d: invalid code: %w", i, err)
			}
			account.CodeHash = gio.Keccak256.Sum(code)
			o.SetPreimage(account.CodeHash, code)
		}
		if a.CodeHash != "" {
			account.CodeHash = common.HexToHash(a.CodeHash)
		}
		o.SetAccount(block, address, account)

		for slot, value := range a.Storage {
			o.SetStorage(block, address, common.HexToHash(slot), common.HexToHash(value))
		}
	}

	keys := maps.Keys(f.Preimages)
	slices.Sort(keys)
	for _, key := range keys {
		data, err := hexutil.Decode(f.Preimages[key])
		if err != nil {
			return nil, fmt.Errorf("invalid preimage of %s: %w", key, err)
		}
		o.SetPreimage(common.HexToHash(key), data)
	}
	return hashes, nil
}

func parseUint256(s string) (*uint256.Int, error) {
	if strings.HasPrefix(s, "0x") {
		return uint256.FromHex(s)
	}
	return uint256.FromDecimal(s)
}
