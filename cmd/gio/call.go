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
	"fmt"

	"github.com/0xsoniclabs/gio-evm/evm"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/urfave/cli/v2"
)

var (
	fromFlag = cli.StringFlag{
		Name:  "from",
		Usage: "address of the caller",
		Value: "0x0000000000000000000000000000000000000000",
	}
	toFlag = cli.StringFlag{
		Name:     "to",
		Usage:    "address of the called contract",
		Required: true,
	}
	gasFlag = cli.Uint64Flag{
		Name:  "gas",
		Usage: "gas limit of the call, 0 for the block gas limit",
	}
	valueFlag = cli.StringFlag{
		Name:  "value",
		Usage: "wei transferred with the call",
		Value: "0",
	}
	dataFlag = cli.StringFlag{
		Name:  "data",
		Usage: "hex encoded call data",
		Value: "0x",
	}
)

var Call = cli.Command{
	Action: call,
	Name:   "call",
	Usage:  "replays a message call in the configured block",
	Flags: []cli.Flag{
		&fromFlag,
		&toFlag,
		&gasFlag,
		&valueFlag,
		&dataFlag,
	},
}

type callResult struct {
	ReturnData hexutil.Bytes  `json:"returnData"`
	GasUsed    hexutil.Uint64 `json:"gasUsed"`
}

func call(ctx *cli.Context) error {
	from, err := parseAddress(ctx.String(fromFlag.Name))
	if err != nil {
		return fmt.Errorf("invalid --%s: %w", fromFlag.Name, err)
	}
	to, err := parseAddress(ctx.String(toFlag.Name))
	if err != nil {
		return fmt.Errorf("invalid --%s: %w", toFlag.Name, err)
	}
	value, err := parseWord(ctx.String(valueFlag.Name))
	if err != nil {
		return fmt.Errorf("invalid --%s: %w", valueFlag.Name, err)
	}
	data, err := hexutil.Decode(ctx.String(dataFlag.Name))
	if err != nil {
		return fmt.Errorf("invalid --%s: %w", dataFlag.Name, err)
	}
	chain, err := chainConfig(ctx)
	if err != nil {
		return err
	}
	st, err := openState(ctx)
	if err != nil {
		return err
	}

	runner := evm.NewRunner(st, evm.Config{ChainConfig: chain})
	res, err := runner.Call(ctx.Context, evm.Message{
		From:  from,
		To:    to,
		Gas:   ctx.Uint64(gasFlag.Name),
		Value: value,
		Data:  data,
	})
	if err != nil {
		return err
	}
	return printJSON(ctx, callResult{
		ReturnData: res.ReturnData,
		GasUsed:    hexutil.Uint64(res.GasUsed),
	})
}
