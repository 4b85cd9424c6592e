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
	"os"
	"os/signal"
	"syscall"

	"github.com/0xsoniclabs/gio-evm/gio/oracletest"
	"github.com/ethereum/go-ethereum/log"
	"github.com/urfave/cli/v2"
)

var (
	fixtureFlag = cli.PathFlag{
		Name:     "fixture",
		Usage:    "YAML file describing headers, accounts, and preimages to serve",
		Required: true,
	}
	listenFlag = cli.StringFlag{
		Name:  "listen",
		Usage: "TCP address to serve the oracle on",
		Value: "127.0.0.1:5004",
	}
)

var Serve = cli.Command{
	Action: serve,
	Name:   "serve",
	Usage:  "runs a local GIO oracle serving a fixture, for development",
	Flags: []cli.Flag{
		&fixtureFlag,
		&listenFlag,
	},
}

func serve(ctx *cli.Context) error {
	fixture, err := oracletest.LoadFixture(ctx.Path(fixtureFlag.Name))
	if err != nil {
		return err
	}
	oracle := oracletest.New()
	hashes, err := fixture.Apply(oracle)
	if err != nil {
		return err
	}
	for i, hash := range hashes {
		log.Info("Serving header", "number", fixture.Headers[i].Number, "hash", hash)
	}

	server, err := oracle.Listen(ctx.String(listenFlag.Name))
	if err != nil {
		return err
	}
	log.Info("GIO oracle started", "url", server.URL())

	stop, cancel := signal.NotifyContext(ctx.Context, os.Interrupt, syscall.SIGTERM)
	defer cancel()
	<-stop.Done()

	log.Info("GIO oracle stopping", "requests", len(oracle.Requests()))
	return server.Close()
}
