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
	"encoding/json"
	"net"
	"testing"

	"github.com/0xsoniclabs/gio-evm/gio"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/fasthttp/router"
	"github.com/valyala/fasthttp"
)

// Path is the route the oracle serves queries on.
const Path = "/gio"

type request struct {
	Domain *uint32 `json:"domain"`
	ID     string  `json:"id"`
}

type response struct {
	ResponseCode uint32 `json:"responseCode"`
	Response     string `json:"response"`
}

// Handler returns a fasthttp handler serving the oracle on Path.
func (o *Oracle) Handler() fasthttp.RequestHandler {
	r := router.New()
	r.POST(Path, o.handle)
	return r.Handler
}

func (o *Oracle) handle(ctx *fasthttp.RequestCtx) {
	var req request
	if err := json.Unmarshal(ctx.PostBody(), &req); err != nil || req.Domain == nil {
		ctx.Error("malformed GIO request", fasthttp.StatusBadRequest)
		return
	}
	payload, err := hexutil.Decode(req.ID)
	if err != nil {
		ctx.Error("malformed GIO request id: "+err.Error(), fasthttp.StatusBadRequest)
		return
	}
	code, answer := o.Answer(gio.Domain(*req.Domain), payload)
	body, err := json.Marshal(response{
		ResponseCode: code,
		Response:     hexutil.Encode(answer),
	})
	if err != nil {
		ctx.Error(err.Error(), fasthttp.StatusInternalServerError)
		return
	}
	ctx.SetContentType("application/json")
	ctx.SetBody(body)
}

// Server is an Oracle served over HTTP.
type Server struct {
	server   *fasthttp.Server
	listener net.Listener
}

// Listen starts serving the oracle on the given TCP address in the
// background. Use port 0 to pick a free port.
func (o *Oracle) Listen(addr string) (*Server, error) {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}
	server := &fasthttp.Server{
		Name:    "gio-oracle",
		Handler: o.Handler(),
	}
	go func() {
		_ = server.Serve(listener)
	}()
	return &Server{server: server, listener: listener}, nil
}

// URL returns the endpoint clients should post queries to.
func (s *Server) URL() string {
	return "http://" + s.listener.Addr().String() + Path
}

// Close stops the server and waits for open connections to be closed.
func (s *Server) Close() error {
	return s.server.Shutdown()
}

// Start serves the oracle on a free local port for the duration of the test
// and returns the URL to query it.
func Start(t testing.TB, o *Oracle) string {
	t.Helper()
	server, err := o.Listen("127.0.0.1:0")
	if err != nil {
		t.Fatalf("failed to start oracle: %v", err)
	}
	t.Cleanup(func() {
		_ = server.Close()
	})
	return server.URL()
}
