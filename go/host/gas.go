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
	"math"

	"github.com/ethereum/go-ethereum/params"
)

var (
	// ErrGasUintOverflow is returned when calculating gas usage.
	ErrGasUintOverflow = errors.New("gas uint64 overflow")

	// ErrIntrinsicGas is returned if the gas limit of a call is below the
	// intrinsic gas of its input.
	ErrIntrinsicGas = errors.New("intrinsic gas too low")
)

// IntrinsicGas computes the gas charged for a transaction carrying the given
// input before any code is run.
func IntrinsicGas(input []byte) (uint64, error) {
	gas := params.TxGas
	if len(input) == 0 {
		return gas, nil
	}
	// Zero and non-zero bytes are priced differently
	var nz uint64
	for _, byt := range input {
		if byt != 0 {
			nz++
		}
	}
	// Make sure we don't exceed uint64 for all data combinations
	if (math.MaxUint64-gas)/params.TxDataNonZeroGasEIP2028 < nz {
		return 0, ErrGasUintOverflow
	}
	gas += nz * params.TxDataNonZeroGasEIP2028

	z := uint64(len(input)) - nz
	if (math.MaxUint64-gas)/params.TxDataZeroGas < z {
		return 0, ErrGasUintOverflow
	}
	gas += z * params.TxDataZeroGas
	return gas, nil
}

func chargeIntrinsicGas(gasLimit uint64, input []byte) (uint64, error) {
	intrinsic, err := IntrinsicGas(input)
	if err != nil {
		return 0, err
	}
	if gasLimit < intrinsic {
		return 0, fmt.Errorf("%w: have %d, want %d", ErrIntrinsicGas, gasLimit, intrinsic)
	}
	return gasLimit - intrinsic, nil
}
