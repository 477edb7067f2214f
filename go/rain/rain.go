// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

// Package rain defines the value types shared by the components simulating
// Rainlang evaluation on a forked EVM chain.
package rain

// Address represents the 160-bit (20 bytes) address of an account.
type Address [20]byte

// Word represents an arbitrary 256-bit (32 byte) word in the EVM. Words are
// interpreted as big-endian unsigned integers wherever arithmetic is needed.
type Word [32]byte

// Hash represents the 256-bit (32 bytes) hash of a code, a block or similar
// sequence of cryptographic summary information.
type Hash [32]byte

// Code represents the byte-code of a contract.
type Code []byte

// AccountInfo is the complete state of an account apart from its storage.
// It is immutable once installed in a state layer; updates replace it.
type AccountInfo struct {
	Balance  Word
	Nonce    uint64
	CodeHash Hash
	Code     Code
}

// EmptyCodeHash is the hash of an empty code, keccak256("").
var EmptyCodeHash = Keccak256(nil)

// NewAccountInfo creates an account with the given properties and the code
// hash derived from the code.
func NewAccountInfo(balance Word, nonce uint64, code Code) AccountInfo {
	return AccountInfo{
		Balance:  balance,
		Nonce:    nonce,
		CodeHash: Keccak256(code),
		Code:     code,
	}
}

// IsEmpty reports whether the account is empty in the sense of EIP-161.
func (a *AccountInfo) IsEmpty() bool {
	return a.Balance == (Word{}) && a.Nonce == 0 && len(a.Code) == 0
}

// DispSet names the four cooperating contracts of a Rainlang deployment.
// It is never stored; it is obtained from the deployer on each fork.
type DispSet struct {
	Deployer    Address
	Interpreter Address
	Store       Address
	Parser      Address
}

// ExpressionArtifact is the output of the parser: the compiled bytecode and
// the constants referenced by it.
type ExpressionArtifact struct {
	Bytecode  []byte
	Constants []Word
}

// TracerAddress is the code-less account the interpreter calls to emit a
// snapshot of a source's stack. No contract inhabits it on any target chain.
var TracerAddress = Address{
	0xF0, 0x6C, 0xd4, 0x8c, 0x98, 0xd7, 0x32, 0x16, 0x49, 0xdB,
	0x7D, 0x8b, 0x2C, 0x39, 0x6A, 0x81, 0xA2, 0x04, 0x65, 0x55,
}
