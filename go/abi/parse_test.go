// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package abi

import "testing"

func TestParseType_CanonicalNamesRoundTrip(t *testing.T) {
	tests := map[string]string{
		"uint":                      "uint256",
		"int":                       "int256",
		"uint8":                     "uint8",
		"int64":                     "int64",
		"address":                   "address",
		"bool":                      "bool",
		"bytes":                     "bytes",
		"bytes32":                   "bytes32",
		"string":                    "string",
		"uint256[]":                 "uint256[]",
		"uint256[][]":               "uint256[][]",
		"bytes4[3][]":               "bytes4[3][]",
		"(address,uint256)":         "(address,uint256)",
		"(uint,(bool,string[]))[2]": "(uint256,(bool,string[]))[2]",
		"()":                        "()",
	}
	for input, want := range tests {
		t.Run(input, func(t *testing.T) {
			got, err := ParseType(input)
			if err != nil {
				t.Fatalf("failed to parse: %v", err)
			}
			if got.String() != want {
				t.Errorf("unexpected type, wanted %s, got %s", want, got)
			}
		})
	}
}

func TestParseType_RejectsInvalidNames(t *testing.T) {
	tests := []string{
		"", "uint7", "uint264", "bytes0", "bytes33", "foo", "uint256[", "uint256[0]",
		"uint256[x]", "(uint256", "(uint256;bool)", "uint256 x", "uint8x",
	}
	for _, input := range tests {
		if _, err := ParseType(input); err == nil {
			t.Errorf("expected %q to be rejected", input)
		}
	}
}

func TestParseSignature(t *testing.T) {
	fn, err := ParseSignature("MissingFinalSemi(uint256)")
	if err != nil {
		t.Fatalf("failed to parse: %v", err)
	}
	if fn.Name != "MissingFinalSemi" || len(fn.Inputs) != 1 || fn.Inputs[0].String() != "uint256" {
		t.Errorf("unexpected function %+v", fn)
	}
	if got, want := fn.Signature(), "MissingFinalSemi(uint256)"; got != want {
		t.Errorf("unexpected signature, wanted %s, got %s", want, got)
	}

	for _, input := range []string{"", "(uint256)", "foo", "foo uint256", "1foo()", "foo(uint256)x"} {
		if _, err := ParseSignature(input); err == nil {
			t.Errorf("expected %q to be rejected", input)
		}
	}
}

func TestParseType_RejectsOversizedTypes(t *testing.T) {
	for _, input := range []string{
		"uint256[100000000000000]",
		"uint256[65537]",
		"uint256[65536][65536]",
		"(uint256[65536],uint256[65536],uint256[65536],uint256[65536],uint256[65536],uint256[65536],uint256[65536],uint256[65536],uint256)",
	} {
		if _, err := ParseType(input); err == nil {
			t.Errorf("expected %q to be rejected", input)
		}
	}
	if _, err := ParseType("uint256[65536]"); err != nil {
		t.Errorf("unexpected error for the largest array: %v", err)
	}
	if _, err := ParseSignature("Boom(uint256[100000000000000])"); err == nil {
		t.Errorf("expected the signature to be rejected")
	}
}
