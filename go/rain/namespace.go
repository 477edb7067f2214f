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

// QualifyNamespace derives the fully qualified storage namespace the store
// uses for writes of the given sender. It hashes the 64 byte preimage
//
//	namespace (32 bytes) || 12 zero bytes || sender (20 bytes)
//
// matching the on-chain qualification so that keys written during a
// simulated evaluation coincide with those of a real caller.
func QualifyNamespace(namespace Word, sender Address) Word {
	padded := AddressToWord(sender)
	return Word(Keccak256(namespace[:], padded[:]))
}
