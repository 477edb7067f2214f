// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package fetcher

import (
	"errors"
	"fmt"
)

var (
	// ErrNoEndpoint indicates that no RPC endpoint was configured.
	ErrNoEndpoint = errors.New("fork endpoint is required")

	// ErrBlockUnavailable indicates the pinned block is not known to the endpoint.
	ErrBlockUnavailable = errors.New("pinned block unavailable")
)

// FetchError reports a failed read of remote state. Fetch errors are never
// retried by the fetcher and no default value is substituted for the
// missing data.
type FetchError struct {
	Endpoint string
	Key      string
	Cause    error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("failed to fetch %s from %s: %v", e.Key, e.Endpoint, e.Cause)
}

func (e *FetchError) Unwrap() error {
	return e.Cause
}
