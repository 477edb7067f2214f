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
	"bytes"
	"testing"

	"pgregory.net/rand"
)

func TestEncodeDispatch_BitLayout(t *testing.T) {
	var expression Address
	for i := range expression {
		expression[i] = 0x01
	}
	dispatch := EncodeDispatch(expression, 123, 456)

	if want, got := make([]byte, 8), dispatch[0:8]; !bytes.Equal(want, got) {
		t.Errorf("unexpected reserved bytes, wanted %x, got %x", want, got)
	}
	if want, got := bytes.Repeat([]byte{0x01}, 20), dispatch[8:28]; !bytes.Equal(want, got) {
		t.Errorf("unexpected address bytes, wanted %x, got %x", want, got)
	}
	if want, got := []byte{0x00, 0x7B}, dispatch[28:30]; !bytes.Equal(want, got) {
		t.Errorf("unexpected source index bytes, wanted %x, got %x", want, got)
	}
	if want, got := []byte{0x01, 0xC8}, dispatch[30:32]; !bytes.Equal(want, got) {
		t.Errorf("unexpected max outputs bytes, wanted %x, got %x", want, got)
	}
}

func TestEncodeDispatch_RoundTripsRandomInputs(t *testing.T) {
	rnd := rand.New(0)
	for i := 0; i < 1000; i++ {
		var expression Address
		rnd.Read(expression[:])
		index := uint16(rnd.Uint32())
		outputs := uint16(rnd.Uint32())

		dispatch := EncodeDispatch(expression, index, outputs)
		if dispatch[0] != 0 || !bytes.Equal(dispatch[0:8], make([]byte, 8)) {
			t.Fatalf("upper bytes of %v are not zero", dispatch)
		}

		gotExpression, gotIndex, gotOutputs, err := dispatch.Decode()
		if err != nil {
			t.Fatalf("failed to decode %v: %v", dispatch, err)
		}
		if gotExpression != expression || gotIndex != index || gotOutputs != outputs {
			t.Errorf("round trip failed, wanted (%v,%d,%d), got (%v,%d,%d)",
				expression, index, outputs, gotExpression, gotIndex, gotOutputs)
		}
	}
}

func TestEncodeDispatch_IsInjective(t *testing.T) {
	seen := map[EncodedDispatch]struct{}{}
	addresses := []Address{{}, {1}, {19: 1}, {0xff, 0xff}}
	for _, address := range addresses {
		for _, index := range []uint16{0, 1, 0xFFFF} {
			for _, outputs := range []uint16{0, 1, 0xFFFF} {
				dispatch := EncodeDispatch(address, index, outputs)
				if _, found := seen[dispatch]; found {
					t.Fatalf("collision for (%v,%d,%d)", address, index, outputs)
				}
				seen[dispatch] = struct{}{}
			}
		}
	}
}

func TestEncodedDispatch_DecodeRejectsDirtyReservedBytes(t *testing.T) {
	for i := 0; i < 8; i++ {
		dispatch := EncodeDispatch(Address{1}, 1, 1)
		dispatch[i] = 1
		if _, _, _, err := dispatch.Decode(); err == nil {
			t.Errorf("expected decoding to fail with byte %d set", i)
		}
	}
}
