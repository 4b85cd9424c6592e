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
	"slices"
	"strings"

	"github.com/0xsoniclabs/gio-evm/gio"
	"github.com/0xsoniclabs/gio-evm/state/giostate"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/params"
	"github.com/holiman/uint256"
	"github.com/urfave/cli/v2"
	"golang.org/x/exp/maps"
)

var (
	oracleFlag = cli.StringFlag{
		Name:    "oracle",
		Usage:   "URL of the GIO endpoint",
		EnvVars: []string{"GIO_ORACLE_URL"},
		Value:   "http://127.0.0.1:5004/gio",
	}
	blockFlag = cli.StringFlag{
		Name:    "block",
		Usage:   "hash of the block all state is read from",
		EnvVars: []string{"GIO_BLOCK"},
	}
	timeoutFlag = cli.DurationFlag{
		Name:    "timeout",
		Usage:   "timeout of a single oracle round trip",
		EnvVars: []string{"GIO_TIMEOUT"},
		Value:   gio.DefaultTimeout,
	}
	transportFlag = cli.StringFlag{
		Name:    "transport",
		Usage:   fmt.Sprintf("HTTP client implementation, one of %v", gio.TransportNames()),
		EnvVars: []string{"GIO_TRANSPORT"},
		Value:   "http",
	}
	verifyFlag = cli.BoolFlag{
		Name:    "verify",
		Usage:   "check that fetched code and headers hash to their keys",
		EnvVars: []string{"GIO_VERIFY"},
	}
	maxWalkFlag = cli.Uint64Flag{
		Name:    "max-walk",
		Usage:   "maximum number of headers fetched to resolve a block number, 0 for no limit",
		EnvVars: []string{"GIO_MAX_WALK"},
	}
	chainFlag = cli.StringFlag{
		Name:    "chain",
		Usage:   fmt.Sprintf("chain rules used for execution, one of %v", chainNames()),
		EnvVars: []string{"GIO_CHAIN"},
		Value:   "mainnet",
	}
	verbosityFlag = cli.IntFlag{
		Name:  "verbosity",
		Usage: "log level, 0=silent 1=error 2=warn 3=info 4=debug 5=trace",
		Value: 3,
	}
	configFlag = cli.StringFlag{
		Name:    "config",
		Usage:   "YAML file providing values for the flags above",
		EnvVars: []string{"GIO_CONFIG"},
	}
)

var chains = map[string]*params.ChainConfig{
	"mainnet": params.MainnetChainConfig,
	"sepolia": params.SepoliaChainConfig,
	"dev":     params.AllDevChainProtocolChanges,
}

func chainNames() []string {
	names := maps.Keys(chains)
	slices.Sort(names)
	return names
}

func chainConfig(ctx *cli.Context) (*params.ChainConfig, error) {
	name := ctx.String(chainFlag.Name)
	config, found := chains[name]
	if !found {
		return nil, fmt.Errorf("unknown chain %q, supported are %v", name, chainNames())
	}
	return config, nil
}

// openState creates a GIO backed state from the global flags.
func openState(ctx *cli.Context) (*giostate.State, error) {
	block, err := parseHash(ctx.String(blockFlag.Name))
	if err != nil {
		return nil, fmt.Errorf("invalid --%s: %w", blockFlag.Name, err)
	}
	transport, err := gio.NewTransport(ctx.String(transportFlag.Name))
	if err != nil {
		return nil, err
	}
	client := gio.NewClient(transport, gio.Config{
		URL:     ctx.String(oracleFlag.Name),
		Timeout: ctx.Duration(timeoutFlag.Name),
	})
	return giostate.NewState(client, giostate.Parameters{
		BlockHash:       block,
		VerifyPreimages: ctx.Bool(verifyFlag.Name),
		MaxWalkDepth:    ctx.Uint64(maxWalkFlag.Name),
	}), nil
}

func parseHash(s string) (common.Hash, error) {
	data, err := hexutil.Decode(s)
	if err != nil {
		return common.Hash{}, err
	}
	if len(data) != common.HashLength {
		return common.Hash{}, fmt.Errorf("expected %d bytes, got %d", common.HashLength, len(data))
	}
	return common.BytesToHash(data), nil
}

func parseAddress(s string) (common.Address, error) {
	if !common.IsHexAddress(s) {
		return common.Address{}, fmt.Errorf("invalid address %q", s)
	}
	return common.HexToAddress(s), nil
}

// parseWord accepts decimal numbers and 0x-prefixed hex numbers.
func parseWord(s string) (*uint256.Int, error) {
	if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
		data, err := hexutil.Decode(s)
		if err != nil {
			// allow odd-length quantities like 0x1
			return uint256.FromHex(s)
		}
		if len(data) > 32 {
			return nil, fmt.Errorf("value %s exceeds 256 bits", s)
		}
		return new(uint256.Int).SetBytes(data), nil
	}
	return uint256.FromDecimal(s)
}
