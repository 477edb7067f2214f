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

func TestQualifyNamespace_KnownVector(t *testing.T) {
	var namespace Word
	for i := range namespace {
		namespace[i] = 0x01
	}
	var sender Address
	for i := range sender {
		sender[i] = 0x02
	}

	want, err := ParseWord("0x92f6b29736bf07627a27ffec88dbcb964f312685ab557770ad73f67336b9aee8")
	if err != nil {
		t.Fatalf("failed to parse expected value: %v", err)
	}
	if got := QualifyNamespace(namespace, sender); want != got {
		t.Errorf("unexpected qualified namespace, wanted %v, got %v", want.Hex(), got.Hex())
	}
}

func TestQualifyNamespace_HashesPaddedConcatenation(t *testing.T) {
	rnd := rand.New(0)
	for i := 0; i < 100; i++ {
		var namespace Word
		var sender Address
		rnd.Read(namespace[:])
		rnd.Read(sender[:])

		preimage := make([]byte, 0, 64)
		preimage = append(preimage, namespace[:]...)
		preimage = append(preimage, make([]byte, 12)...)
		preimage = append(preimage, sender[:]...)

		want := Keccak256(preimage)
		got := QualifyNamespace(namespace, sender)
		if !bytes.Equal(want[:], got[:]) {
			t.Errorf("unexpected result for (%v,%v), wanted %v, got %v", namespace.Hex(), sender, want, got.Hex())
		}
	}
}

func TestQualifyNamespace_DifferentSendersDoNotClash(t *testing.T) {
	namespace := NewWord(42)
	a := QualifyNamespace(namespace, Address{1})
	b := QualifyNamespace(namespace, Address{2})
	if a == b {
		t.Errorf("different senders produced the same namespace %v", a.Hex())
	}
}
