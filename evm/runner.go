// Copyright (c) 2025 Sonic Operations Ltd
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at soniclabs.com/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

// Package evm replays single message calls on the go-ethereum EVM using a
// state.State as the source of all world state.
package evm

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/0xsoniclabs/gio-evm/state"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/consensus/misc/eip4844"
	"github.com/ethereum/go-ethereum/core"
	gethstate "github.com/ethereum/go-ethereum/core/state"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/core/vm"
	"github.com/ethereum/go-ethereum/log"
	"github.com/ethereum/go-ethereum/params"
	"github.com/holiman/uint256"
)

// Config defines the parameters of a Runner.
type Config struct {
	// ChainConfig selects the fork rules; defaults to mainnet.
	ChainConfig *params.ChainConfig
	// VMConfig is passed to the EVM. Base fee checks are always disabled
	// since calls are executed with a zero gas price.
	VMConfig vm.Config
}

// Message describes the call to be replayed.
type Message struct {
	From common.Address
	To   common.Address
	// Gas is the gas limit of the call; zero selects the block's gas limit.
	Gas   uint64
	Value *uint256.Int
	Data  []byte
}

// Result is the outcome of a successful call.
type Result struct {
	ReturnData []byte
	GasUsed    uint64
}

// ExecutionError reports a call the EVM terminated abnormally, e.g. by a
// revert, running out of gas, or an invalid instruction.
type ExecutionError struct {
	Err        error
	Reason     string
	ReturnData []byte
}

func newExecutionError(err error, ret []byte) *ExecutionError {
	res := &ExecutionError{Err: err, ReturnData: ret}
	if errors.Is(err, vm.ErrExecutionReverted) {
		if reason, unpackErr := abi.UnpackRevert(ret); unpackErr == nil {
			res.Reason = reason
		}
	}
	return res
}

func (e *ExecutionError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("execution failed: %v: %s", e.Err, e.Reason)
	}
	return fmt.Sprintf("execution failed: %v", e.Err)
}

func (e *ExecutionError) Unwrap() error {
	return e.Err
}

// Runner executes calls in the block a state.State is scoped to.
type Runner struct {
	state  state.State
	config Config
}

func NewRunner(st state.State, config Config) *Runner {
	if config.ChainConfig == nil {
		config.ChainConfig = params.MainnetChainConfig
	}
	config.VMConfig.NoBaseFee = true
	return &Runner{
		state:  st,
		config: config,
	}
}

// Call executes the given message. Either the call completes and its
// return data is produced, or an error is returned. Failures of the
// underlying state abort the execution and are reported as they are, EVM
// failures are reported as *ExecutionError. Cancelling ctx aborts the call.
func (r *Runner) Call(ctx context.Context, msg Message) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	start := time.Now()
	blockHash := r.state.BlockHash()
	header, err := r.state.GetHeader(ctx, blockHash)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch header of block %v: %w", blockHash, err)
	}

	db, err := newDatabase(ctx, r.state)
	if err != nil {
		return nil, err
	}
	statedb, err := gethstate.New(types.EmptyRootHash, db)
	if err != nil {
		return nil, err
	}

	chainConfig := r.config.ChainConfig
	reader := db.reader
	getHash := func(number uint64) common.Hash {
		hash, err := r.state.GetBlockHash(ctx, number)
		if err != nil {
			reader.fail(fmt.Errorf("failed to resolve hash of block %d: %w", number, err))
			return common.Hash{}
		}
		return hash
	}
	blockCtx := newBlockContext(chainConfig, header, getHash)
	evm := vm.NewEVM(blockCtx, statedb, chainConfig, r.config.VMConfig)
	reader.abort = evm.Cancel

	gas := msg.Gas
	if gas == 0 {
		gas = header.GasLimit
	}
	value := msg.Value
	if value == nil {
		value = new(uint256.Int)
	}
	to := msg.To
	evm.SetTxContext(core.NewEVMTxContext(&core.Message{
		From:      msg.From,
		To:        &to,
		Value:     value.ToBig(),
		GasLimit:  gas,
		GasPrice:  new(big.Int),
		GasFeeCap: new(big.Int),
		GasTipCap: new(big.Int),
		Data:      msg.Data,
	}))

	rules := chainConfig.Rules(blockCtx.BlockNumber, blockCtx.Random != nil, blockCtx.Time)
	statedb.Prepare(rules, msg.From, blockCtx.Coinbase, &to, vm.ActivePrecompiles(rules), types.AccessList{})

	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			evm.Cancel()
		case <-done:
		}
	}()

	ret, gasLeft, err := evm.Call(msg.From, to, msg.Data, gas, value)

	if reader.err != nil {
		return nil, reader.err
	}
	if evm.Cancelled() {
		return nil, fmt.Errorf("call aborted: %w", context.Cause(ctx))
	}
	if dbErr := statedb.Error(); dbErr != nil {
		return nil, fmt.Errorf("state access failed: %w", dbErr)
	}
	if err != nil {
		log.Debug("Call failed", "from", msg.From, "to", to, "block", header.Number, "err", err)
		return nil, newExecutionError(err, ret)
	}

	res := &Result{ReturnData: ret, GasUsed: gas - gasLeft}
	log.Debug("Call executed", "from", msg.From, "to", to, "block", header.Number, "gas", res.GasUsed, "elapsed", common.PrettyDuration(time.Since(start)))
	return res, nil
}

// newBlockContext derives the EVM block environment from a header.
func newBlockContext(config *params.ChainConfig, header *types.Header, getHash vm.GetHashFunc) vm.BlockContext {
	res := vm.BlockContext{
		CanTransfer: core.CanTransfer,
		Transfer:    core.Transfer,
		GetHash:     getHash,
		Coinbase:    header.Coinbase,
		GasLimit:    header.GasLimit,
		BlockNumber: new(big.Int).Set(header.Number),
		Time:        header.Time,
		Difficulty:  new(big.Int),
		BaseFee:     new(big.Int),
		BlobBaseFee: new(big.Int),
	}
	if header.Difficulty != nil {
		res.Difficulty.Set(header.Difficulty)
	}
	if header.BaseFee != nil {
		res.BaseFee.Set(header.BaseFee)
	}
	if res.Difficulty.Sign() == 0 {
		random := header.MixDigest
		res.Random = &random
	}
	if header.ExcessBlobGas != nil {
		res.BlobBaseFee = eip4844.CalcBlobFee(config, header)
	}
	return res
}
