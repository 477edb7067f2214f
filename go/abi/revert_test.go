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

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/rainlanguage/rain.interpreter/go/rain"
)

type failingRegistry struct{}

func (failingRegistry) Lookup(context.Context, Selector) ([]string, error) {
	return nil, errors.New("injected")
}

func TestDecodeRevert_StandardPayloads(t *testing.T) {
	reason, err := ErrorFunction.EncodeCall(Text("not enough balance"))
	if err != nil {
		t.Fatalf("failed to encode: %v", err)
	}
	panicked, err := PanicFunction.EncodeCall(Word(rain.NewWord(0x11)))
	if err != nil {
		t.Fatalf("failed to encode: %v", err)
	}

	tests := map[string]struct {
		data []byte
		want string
	}{
		"empty":     {nil, "execution reverted"},
		"reason":    {reason, "execution reverted: not enough balance"},
		"panic":     {panicked, "execution reverted: panic 0x11"},
		"unknown":   {[]byte{1, 2, 3, 4, 5}, "execution reverted with unknown error 0x01020304 (0x0102030405)"},
		"malformed": {[]byte{1, 2}, "execution reverted with malformed payload 0x0102"},
	}
	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			got := DecodeRevert(context.Background(), test.data, nil)
			if got.Error() != test.want {
				t.Errorf("unexpected message, wanted %q, got %q", test.want, got.Error())
			}
		})
	}
}

func TestDecodeRevert_ResolvesCustomErrorsThroughRegistry(t *testing.T) {
	fn, err := ParseSignature("MissingFinalSemi(uint256)")
	if err != nil {
		t.Fatalf("failed to parse: %v", err)
	}
	data, err := fn.EncodeCall(Word(rain.NewWord(13)))
	if err != nil {
		t.Fatalf("failed to encode: %v", err)
	}

	got := DecodeRevert(context.Background(), data, BuiltinRegistry())
	if got.Signature != "MissingFinalSemi(uint256)" {
		t.Fatalf("unexpected signature %q", got.Signature)
	}
	if want := "execution reverted: MissingFinalSemi(13)"; got.Error() != want {
		t.Errorf("unexpected message, wanted %q, got %q", want, got.Error())
	}

	raw := DecodeRevert(context.Background(), data, failingRegistry{})
	if raw.Signature != "" || !strings.Contains(raw.Error(), "unknown error") {
		t.Errorf("registry failures should leave the payload raw, got %v", raw)
	}
}

func TestDecodeRevert_SkipsCandidatesThatDoNotDecode(t *testing.T) {
	fn := Function{Name: "WordSize", Inputs: []Type{String}}
	selector := fn.Selector()
	// The selector matches but the payload is truncated.
	data := append(selector[:], make([]byte, 16)...)
	got := DecodeRevert(context.Background(), data, BuiltinRegistry())
	if got.Signature != "" {
		t.Errorf("malformed payload should not be attributed to %s", got.Signature)
	}
}

func TestRegistries_FirstAnswerWins(t *testing.T) {
	selector := SelectorOf("Foo(uint256)")
	first := NewStaticRegistry()
	second := NewStaticRegistry("Foo(uint256)")
	third := NewStaticRegistry("Foo(uint256)", "Bar()")

	got, err := Registries{failingRegistry{}, first, second, third}.Lookup(context.Background(), selector)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 1 || got[0] != "Foo(uint256)" {
		t.Errorf("unexpected candidates %v", got)
	}

	if _, err := (Registries{failingRegistry{}}).Lookup(context.Background(), selector); err == nil {
		t.Errorf("expected the error of the only registry")
	}
	if got, err := (Registries{first}).Lookup(context.Background(), selector); err != nil || got != nil {
		t.Errorf("expected no answer and no error, got %v, %v", got, err)
	}
}

func TestBuiltinRegistry_SignaturesAreValid(t *testing.T) {
	for _, signature := range rainErrors {
		fn, err := ParseSignature(signature)
		if err != nil {
			t.Errorf("invalid builtin signature %q: %v", signature, err)
			continue
		}
		if fn.Signature() != signature {
			t.Errorf("builtin signature %q is not canonical", signature)
		}
	}
}
