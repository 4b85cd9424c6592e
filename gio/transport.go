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

//go:generate mockgen -source transport.go -destination transport_mocks.go -package gio

import (
	"context"
	"fmt"
	"slices"

	"golang.org/x/exp/maps"
)

// Transport performs a single HTTP POST exchange with the oracle.
type Transport interface {
	// Post sends the given JSON body to url and returns the body of the
	// reply. Replies with a non-2xx status are reported as errors wrapping
	// ErrUnexpectedStatus. Implementations must give up once ctx is done.
	Post(ctx context.Context, url string, body []byte) ([]byte, error)
}

var transports = map[string]func() Transport{
	"http":     func() Transport { return NewHTTPTransport(nil) },
	"fasthttp": func() Transport { return NewFastHTTPTransport(nil) },
}

// TransportNames lists the names accepted by NewTransport in sorted order.
func TransportNames() []string {
	names := maps.Keys(transports)
	slices.Sort(names)
	return names
}

// NewTransport creates a transport with default settings by name.
func NewTransport(name string) (Transport, error) {
	factory, found := transports[name]
	if !found {
		return nil, fmt.Errorf("%w %q, supported are %v", ErrUnknownTransport, name, TransportNames())
	}
	return factory(), nil
}

func isSuccessStatus(code int) bool {
	return code >= 200 && code < 300
}
