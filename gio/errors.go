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
	"fmt"

	"github.com/0xsoniclabs/gio-evm/common"
)

const (
	// ErrUnexpectedStatus is reported by transports for non-2xx HTTP replies.
	ErrUnexpectedStatus = common.ConstError("unexpected HTTP status")
	// ErrUnknownTransport is returned by NewTransport for unregistered names.
	ErrUnknownTransport = common.ConstError("unknown transport")
)

// TransportError reports that a round trip with the oracle could not be
// completed. This includes timeouts and cancellation.
type TransportError struct {
	Domain Domain
	Err    error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("gio transport failure for %v: %v", e.Domain, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// ProtocolError reports a reply that violates the GIO wire format.
type ProtocolError struct {
	Reason string
	Err    error
}

func (e *ProtocolError) Error() string {
	if e.Err == nil {
		return "gio protocol violation: " + e.Reason
	}
	return fmt.Sprintf("gio protocol violation: %s: %v", e.Reason, e.Err)
}

func (e *ProtocolError) Unwrap() error {
	return e.Err
}

// OracleError reports a well-formed reply carrying a non-success code.
type OracleError struct {
	Domain Domain
	Code   uint32
}

func (e *OracleError) Error() string {
	return fmt.Sprintf("oracle answered %v query with code %d", e.Domain, e.Code)
}
