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
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/log"
	"github.com/ethereum/go-ethereum/metrics"
)

// StatusOK is the only response code signalling a successful query.
const StatusOK = 200

// DefaultTimeout bounds a single round trip if no timeout is configured.
const DefaultTimeout = 30 * time.Second

// Config defines the parameters of a Client.
type Config struct {
	// URL is the endpoint all queries are posted to, e.g.
	// http://127.0.0.1:5004/gio.
	URL string
	// Timeout bounds each round trip. Zero selects DefaultTimeout, a
	// negative value disables the bound.
	Timeout time.Duration
}

// Client issues GIO queries to an oracle. Each call to Emit is exactly one
// round trip; nothing is retried or cached.
type Client struct {
	transport Transport
	url       string
	timeout   time.Duration
}

func NewClient(transport Transport, config Config) *Client {
	timeout := config.Timeout
	if timeout == 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		transport: transport,
		url:       config.URL,
		timeout:   timeout,
	}
}

// URL returns the endpoint queries are sent to.
func (c *Client) URL() string {
	return c.url
}

type request struct {
	Domain uint32 `json:"domain"`
	ID     string `json:"id"`
}

type response struct {
	ResponseCode *uint32 `json:"responseCode"`
	Response     string  `json:"response"`
}

// Emit sends the payload under the given domain to the oracle and returns
// the decoded answer.
func (c *Client) Emit(ctx context.Context, domain Domain, payload []byte) ([]byte, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	body, err := json.Marshal(request{
		Domain: uint32(domain),
		ID:     hexutil.Encode(payload),
	})
	if err != nil {
		return nil, err
	}

	start := time.Now()
	metrics.GetOrRegisterCounter(metricName(domain, "requests"), nil).Inc(1)
	reply, err := c.transport.Post(ctx, c.url, body)
	if err == nil {
		reply, err = decodeResponse(domain, reply)
	} else {
		err = &TransportError{Domain: domain, Err: err}
	}
	elapsed := time.Since(start)
	metrics.GetOrRegisterTimer(metricName(domain, "latency"), nil).Update(elapsed)

	if err != nil {
		metrics.GetOrRegisterCounter(metricName(domain, "failures"), nil).Inc(1)
		log.Debug("GIO query failed", "domain", domain, "query", len(payload), "elapsed", common.PrettyDuration(elapsed), "err", err)
		return nil, err
	}
	log.Trace("GIO query served", "domain", domain, "query", len(payload), "answer", len(reply), "elapsed", common.PrettyDuration(elapsed))
	return reply, nil
}

func decodeResponse(domain Domain, body []byte) ([]byte, error) {
	var resp response
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, &ProtocolError{Reason: "invalid JSON reply", Err: err}
	}
	if resp.ResponseCode == nil {
		return nil, &ProtocolError{Reason: "reply lacks responseCode"}
	}
	if code := *resp.ResponseCode; code != StatusOK {
		return nil, &OracleError{Domain: domain, Code: code}
	}
	payload := resp.Response
	if !strings.HasPrefix(payload, "0x") && !strings.HasPrefix(payload, "0X") {
		payload = "0x" + payload
	}
	res, err := hexutil.Decode(payload)
	if err != nil {
		return nil, &ProtocolError{Reason: fmt.Sprintf("invalid hex answer %q", resp.Response), Err: err}
	}
	return res, nil
}

func metricName(domain Domain, kind string) string {
	return "gio/" + strings.ToLower(domain.String()) + "/" + kind
}
