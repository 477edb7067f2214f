// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package rain

import (
	"encoding/json"
	"testing"

	"github.com/holiman/uint256"
)

func TestKeccak256_EmptyInput(t *testing.T) {
	want := "0xc5d2460186f7233c927e7db2dcc703c0e500b653ca82273b7bfad8045d85a470"
	if got := EmptyCodeHash.String(); want != got {
		t.Errorf("unexpected hash of empty input, wanted %v, got %v", want, got)
	}
}

func TestAddress_JSON_RoundTrip(t *testing.T) {
	tests := map[string]struct {
		address Address
		json    string
	}{
		"zero":   {Address{}, "\"0x0000000000000000000000000000000000000000\""},
		"one":    {Address{1}, "\"0x0100000000000000000000000000000000000000\""},
		"tracer": {TracerAddress, "\"0xf06cd48c98d7321649db7d8b2c396a81a2046555\""},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			encoded, err := json.Marshal(test.address)
			if err != nil {
				t.Fatalf("failed to encode into JSON: %v", err)
			}
			if want, got := test.json, string(encoded); want != got {
				t.Errorf("unexpected JSON encoding, wanted %v, got %v", want, got)
			}
			var restored Address
			if err := json.Unmarshal(encoded, &restored); err != nil {
				t.Fatalf("failed to restore address: %v", err)
			}
			if test.address != restored {
				t.Errorf("unexpected restored value, wanted %v, got %v", test.address, restored)
			}
		})
	}
}

func TestParseAddress_InvalidInputFails(t *testing.T) {
	tests := map[string]string{
		"empty":         "",
		"no hex prefix": "0000000000000000000000000000000000000000",
		"too short":     "0x00000000000000000000000000000000000000",
		"too long":      "0x000000000000000000000000000000000000000000",
		"invalid hex":   "0x0g00000000000000000000000000000000000000",
	}
	for name, input := range tests {
		t.Run(name, func(t *testing.T) {
			if _, err := ParseAddress(input); err == nil {
				t.Errorf("expected parsing of %q to fail", input)
			}
		})
	}
}

func TestParseWord(t *testing.T) {
	tests := map[string]struct {
		input string
		want  Word
	}{
		"zero decimal":      {"0", Word{}},
		"small decimal":     {"123", NewWord(123)},
		"hex":               {"0x7b", NewWord(123)},
		"hex leading zeros": {"0x007b", NewWord(123)},
		"hex zero":          {"0x", Word{}},
		"large":             {"18446744073709551616", NewWord(1, 0)},
		"whitespace":        {" 5 ", NewWord(5)},
	}
	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			got, err := ParseWord(test.input)
			if err != nil {
				t.Fatalf("failed to parse %q: %v", test.input, err)
			}
			if got != test.want {
				t.Errorf("unexpected result, wanted %v, got %v", test.want, got)
			}
		})
	}
}

func TestParseWord_InvalidInputFails(t *testing.T) {
	for _, input := range []string{"abc", "-1", "0xzz", "0x10000000000000000000000000000000000000000000000000000000000000000"} {
		if _, err := ParseWord(input); err == nil {
			t.Errorf("expected parsing of %q to fail", input)
		}
	}
}

func TestWord_Conversions(t *testing.T) {
	w := NewWord(1, 2)
	if want, got := uint256.NewInt(0).Add(uint256.NewInt(2), new(uint256.Int).Lsh(uint256.NewInt(1), 64)), w.ToUint256(); want.Cmp(got) != 0 {
		t.Errorf("unexpected uint256, wanted %v, got %v", want, got)
	}
	if want, got := w, WordFromUint256(w.ToUint256()); want != got {
		t.Errorf("uint256 round trip failed, wanted %v, got %v", want, got)
	}
	back, err := WordFromBig(w.ToBig())
	if err != nil || back != w {
		t.Errorf("big round trip failed, wanted %v, got %v (%v)", w, back, err)
	}
	if NewWord(7).Uint64() != 7 || !NewWord(7).IsUint64() || NewWord(1, 0).IsUint64() {
		t.Errorf("unexpected uint64 conversion")
	}
	if want, got := "0x000000000000000000000000000000000000000000000000000000000000000a", NewWord(10).Hex(); want != got {
		t.Errorf("unexpected hex, wanted %v, got %v", want, got)
	}
	if want, got := "10", NewWord(10).String(); want != got {
		t.Errorf("unexpected string, wanted %v, got %v", want, got)
	}
}

func TestAccountInfo_IsEmpty(t *testing.T) {
	empty := NewAccountInfo(Word{}, 0, nil)
	if !empty.IsEmpty() || empty.CodeHash != EmptyCodeHash {
		t.Errorf("expected account to be empty with empty code hash")
	}
	nonEmpty := NewAccountInfo(Word{}, 1, nil)
	if nonEmpty.IsEmpty() {
		t.Errorf("account with nonce must not be empty")
	}
}
