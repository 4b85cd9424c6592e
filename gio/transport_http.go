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
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
)

type httpTransport struct {
	client *http.Client
}

// NewHTTPTransport creates a transport based on net/http. If client is nil,
// http.DefaultClient is used.
func NewHTTPTransport(client *http.Client) Transport {
	if client == nil {
		client = http.DefaultClient
	}
	return &httpTransport{client: client}
}

func (t *httpTransport) Post(ctx context.Context, url string, body []byte) (_ []byte, err error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() {
		err = errors.Join(err, resp.Body.Close())
	}()

	if !isSuccessStatus(resp.StatusCode) {
		return nil, fmt.Errorf("%w: %s", ErrUnexpectedStatus, resp.Status)
	}
	return io.ReadAll(resp.Body)
}
