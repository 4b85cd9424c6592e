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
	"os"

	"github.com/ethereum/go-ethereum/log"
	"github.com/mattn/go-isatty"
	"github.com/urfave/cli/v2"
	"github.com/urfave/cli/v2/altsrc"
)

func main() {
	if err := newApp().Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
}

func newApp() *cli.App {
	flags := []cli.Flag{
		altsrc.NewStringFlag(&oracleFlag),
		altsrc.NewStringFlag(&blockFlag),
		altsrc.NewDurationFlag(&timeoutFlag),
		altsrc.NewStringFlag(&transportFlag),
		altsrc.NewBoolFlag(&verifyFlag),
		altsrc.NewUint64Flag(&maxWalkFlag),
		altsrc.NewStringFlag(&chainFlag),
		altsrc.NewIntFlag(&verbosityFlag),
		&configFlag,
	}
	loadConfig := altsrc.InitInputSourceWithContext(flags, altsrc.NewYamlSourceFromFlagFunc(configFlag.Name))
	return &cli.App{
		Name:  "gio",
		Usage: "replays EVM calls against state served by a GIO oracle",
		Flags: flags,
		Before: func(ctx *cli.Context) error {
			if err := loadConfig(ctx); err != nil {
				return err
			}
			setupLogging(ctx)
			return nil
		},
		Commands: []*cli.Command{
			&Call,
			&Account,
			&Storage,
			&BlockHash,
			&Header,
			&Serve,
		},
	}
}

func setupLogging(ctx *cli.Context) {
	level := log.FromLegacyLevel(ctx.Int(verbosityFlag.Name))
	useColor := isatty.IsTerminal(os.Stderr.Fd()) && os.Getenv("TERM") != "dumb"
	log.SetDefault(log.NewLogger(log.NewTerminalHandlerWithLevel(os.Stderr, level, useColor)))
}
