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
	"context"
	"fmt"

	"github.com/0xsoniclabs/gio-evm/common/future"
	"github.com/valyala/fasthttp"
)

type fastHTTPTransport struct {
	client *fasthttp.Client
}

// NewFastHTTPTransport creates a transport based on fasthttp. If client is
// nil, a client with default settings is created.
func NewFastHTTPTransport(client *fasthttp.Client) Transport {
	if client == nil {
		client = &fasthttp.Client{Name: "gio-evm"}
	}
	return &fastHTTPTransport{client: client}
}

func (t *fastHTTPTransport) Post(ctx context.Context, url string, body []byte) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	req := fasthttp.AcquireRequest()
	req.SetRequestURI(url)
	req.Header.SetMethod(fasthttp.MethodPost)
	req.Header.SetContentType("application/json")
	req.SetBody(body)

	// fasthttp has no notion of a context, the exchange is run in the
	// background so that cancellation can be observed.
	done := make(chan future.Result[[]byte], 1)
	go func() {
		done <- t.exchange(ctx, req)
	}()

	select {
	case res := <-done:
		return res.Get()
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// exchange performs a request and releases it. The returned body is a copy
// owned by the caller.
func (t *fastHTTPTransport) exchange(ctx context.Context, req *fasthttp.Request) future.Result[[]byte] {
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	var err error
	if deadline, ok := ctx.Deadline(); ok {
		err = t.client.DoDeadline(req, resp, deadline)
	} else {
		err = t.client.Do(req, resp)
	}
	if err != nil {
		return future.Err[[]byte](err)
	}
	if code := resp.StatusCode(); !isSuccessStatus(code) {
		return future.Err[[]byte](fmt.Errorf("%w: %d %s", ErrUnexpectedStatus, code, fasthttp.StatusMessage(code)))
	}
	return future.Ok(append([]byte(nil), resp.Body()...))
}
