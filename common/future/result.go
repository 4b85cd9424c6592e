// Copyright (c) 2025 Sonic Operations Ltd
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at soniclabs.com/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package future

// Result pairs the value of an operation with the error it failed with. It
// lets a single channel carry the outcome of work done in the background.
type Result[T any] struct {
	Value T
	Error error
}

// Ok wraps a successful outcome.
func Ok[T any](value T) Result[T] {
	return Result[T]{Value: value}
}

// Err wraps a failed outcome.
func Err[T any](err error) Result[T] {
	return Result[T]{Error: err}
}

// Get unpacks the result into the usual value/error pair.
func (r Result[T]) Get() (T, error) {
	return r.Value, r.Error
}
