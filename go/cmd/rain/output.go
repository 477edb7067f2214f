// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package main

import (
	"encoding/hex"
	"os"
	"strings"

	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

// encoding frames raw output bytes.
type encoding func([]byte) []byte

var encodings = map[string]encoding{
	"binary": func(data []byte) []byte {
		return data
	},
	"hex": func(data []byte) []byte {
		return []byte("0x" + hex.EncodeToString(data))
	},
	"utf8": func(data []byte) []byte {
		return []byte(strings.ToValidUTF8(string(data), "�"))
	},
}

func encodingNames() []string {
	names := maps.Keys(encodings)
	slices.Sort(names)
	return names
}

// writeOutput writes data to the given file, or to stdout if path is empty.
func writeOutput(path string, data []byte) error {
	if path == "" {
		_, err := os.Stdout.Write(data)
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
