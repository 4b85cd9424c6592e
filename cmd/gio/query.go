// Copyright (c) 2025 Sonic Operations Ltd
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at soniclabs.com/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package main

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/urfave/cli/v2"
)

var Account = cli.Command{
	Action:    account,
	Name:      "account",
	Usage:     "fetches an account including its code",
	ArgsUsage: "<address>",
}

var Storage = cli.Command{
	Action:    storage,
	Name:      "storage",
	Usage:     "fetches the value of a storage slot",
	ArgsUsage: "<address> <slot>",
}

var BlockHash = cli.Command{
	Action:    blockHash,
	Name:      "block-hash",
	Usage:     "resolves the hash of an ancestor of the configured block",
	ArgsUsage: "<number>",
}

var Header = cli.Command{
	Action:    header,
	Name:      "header",
	Usage:     "fetches a block header, by default the one of the configured block",
	ArgsUsage: "[<hash>]",
}

type accountResult struct {
	Balance     *hexutil.Big   `json:"balance"`
	Nonce       hexutil.Uint64 `json:"nonce"`
	CodeHash    common.Hash    `json:"codeHash"`
	Code        hexutil.Bytes  `json:"code"`
	StorageRoot *common.Hash   `json:"storageRoot,omitempty"`
}

func account(ctx *cli.Context) error {
	if ctx.Args().Len() != 1 {
		return fmt.Errorf("expected a single address argument")
	}
	address, err := parseAddress(ctx.Args().Get(0))
	if err != nil {
		return err
	}
	st, err := openState(ctx)
	if err != nil {
		return err
	}
	acc, err := st.GetAccount(ctx.Context, address)
	if err != nil {
		return err
	}
	return printJSON(ctx, accountResult{
		Balance:     (*hexutil.Big)(acc.Balance.ToBig()),
		Nonce:       hexutil.Uint64(acc.Nonce),
		CodeHash:    acc.CodeHash,
		Code:        acc.Code,
		StorageRoot: acc.StorageRoot,
	})
}

func storage(ctx *cli.Context) error {
	if ctx.Args().Len() != 2 {
		return fmt.Errorf("expected an address and a slot argument")
	}
	address, err := parseAddress(ctx.Args().Get(0))
	if err != nil {
		return err
	}
	slot, err := parseWord(ctx.Args().Get(1))
	if err != nil {
		return fmt.Errorf("invalid slot: %w", err)
	}
	st, err := openState(ctx)
	if err != nil {
		return err
	}
	value, err := st.GetStorage(ctx.Context, address, slot.Bytes32())
	if err != nil {
		return err
	}
	return printJSON(ctx, common.Hash(value.Bytes32()))
}

func blockHash(ctx *cli.Context) error {
	if ctx.Args().Len() != 1 {
		return fmt.Errorf("expected a single block number argument")
	}
	number, err := strconv.ParseUint(ctx.Args().Get(0), 0, 64)
	if err != nil {
		return fmt.Errorf("invalid block number: %w", err)
	}
	st, err := openState(ctx)
	if err != nil {
		return err
	}
	hash, err := st.GetBlockHash(ctx.Context, number)
	if err != nil {
		return err
	}
	return printJSON(ctx, hash)
}

func header(ctx *cli.Context) error {
	if ctx.Args().Len() > 1 {
		return fmt.Errorf("expected at most one block hash argument")
	}
	st, err := openState(ctx)
	if err != nil {
		return err
	}
	hash := st.BlockHash()
	if ctx.Args().Len() == 1 {
		if hash, err = parseHash(ctx.Args().Get(0)); err != nil {
			return fmt.Errorf("invalid block hash: %w", err)
		}
	}
	h, err := st.GetHeader(ctx.Context, hash)
	if err != nil {
		return err
	}
	return printJSON(ctx, h)
}

func printJSON(ctx *cli.Context, value any) error {
	encoder := json.NewEncoder(ctx.App.Writer)
	encoder.SetIndent("", "  ")
	return encoder.Encode(value)
}
