// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package host

import (
	"errors"
	"fmt"

	geth "github.com/ethereum/go-ethereum/core/vm"
	"github.com/rainlanguage/rain.interpreter/go/trace"
)

// ExitKind classifies how a call ended.
type ExitKind int

const (
	// Success means the call ended with STOP, RETURN or SELFDESTRUCT.
	Success ExitKind = iota
	// Revert means the call ended with REVERT; its output is the payload.
	Revert
	// Halt means the EVM terminated the call abnormally.
	Halt
)

func (k ExitKind) String() string {
	switch k {
	case Success:
		return "success"
	case Revert:
		return "revert"
	case Halt:
		return "halt"
	}
	return fmt.Sprintf("ExitKind(%d)", int(k))
}

// ExitReason is the way a call ended. Cause is set for halts only.
type ExitReason struct {
	Kind  ExitKind
	Cause error
}

func (r ExitReason) String() string {
	if r.Kind == Halt && r.Cause != nil {
		return fmt.Sprintf("halt(%v)", r.Cause)
	}
	return r.Kind.String()
}

// CallResult is the outcome of a single call into the EVM. Reverts and
// halts are reported here rather than as errors.
type CallResult struct {
	Exit    ExitReason
	Output  []byte
	Trace   *trace.Arena
	GasUsed uint64
}

func (r *CallResult) Succeeded() bool {
	return r.Exit.Kind == Success
}

// HaltError reports a call the EVM terminated abnormally, together with the
// frames recorded up to that point.
type HaltError struct {
	Cause error
	Trace *trace.Arena
}

func (e *HaltError) Error() string {
	return fmt.Sprintf("execution halted: %v", e.Cause)
}

func (e *HaltError) Unwrap() error {
	return e.Cause
}

// Err converts a halted result into a HaltError, nil otherwise.
func (r *CallResult) Err() error {
	if r.Exit.Kind != Halt {
		return nil
	}
	return &HaltError{Cause: r.Exit.Cause, Trace: r.Trace}
}

// exitReason classifies the error returned by geth's EVM.Call.
func exitReason(err error) ExitReason {
	if err == nil {
		return ExitReason{Kind: Success}
	}
	if errors.Is(err, geth.ErrExecutionReverted) {
		return ExitReason{Kind: Revert}
	}
	return ExitReason{Kind: Halt, Cause: err}
}
