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
	"context"

	"github.com/rainlanguage/rain.interpreter/go/host"
	"github.com/rainlanguage/rain.interpreter/go/rain"
	"github.com/rainlanguage/rain.interpreter/go/state"
)

//go:generate mockgen -source host.go -destination host_mock.go -package eval

// Host executes calls on behalf of a fork. It is implemented by *host.Host.
type Host interface {
	Call(ctx context.Context, from, to rain.Address, input []byte, value rain.Word) (*host.CallResult, error)
	Commit(ctx context.Context, from, to rain.Address, input []byte, value rain.Word) (*host.CallResult, error)
	Overlay() *state.Overlay
}

var _ Host = (*host.Host)(nil)
