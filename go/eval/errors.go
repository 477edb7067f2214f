// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package eval

import (
	"errors"
	"fmt"
)

var (
	// ErrReentrancy is reported when a fork is used by a second goroutine
	// while an operation is in flight. Forks must not be shared.
	ErrReentrancy = errors.New("fork is already in use")
	// ErrForkClosed is reported for operations on a closed fork.
	ErrForkClosed = errors.New("fork is closed")
)

// BadTracePath reports a trace path that is not a dot separated list of at
// least two integers.
type BadTracePath struct {
	Path string
}

func (e *BadTracePath) Error() string {
	return fmt.Sprintf("bad trace path: %q", e.Path)
}

// TraceNotFound reports a trace path naming a source or a stack item that
// was not recorded.
type TraceNotFound struct {
	Detail string
}

func (e *TraceNotFound) Error() string {
	return "trace not found: " + e.Detail
}
