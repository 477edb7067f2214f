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
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"math/big"
	"strings"

	"github.com/holiman/uint256"
	"golang.org/x/crypto/sha3"
)

// Keccak256 computes the legacy Keccak-256 hash of the concatenated inputs.
func Keccak256(data ...[]byte) (res Hash) {
	hasher := sha3.NewLegacyKeccak256()
	for _, cur := range data {
		hasher.Write(cur)
	}
	hasher.Sum(res[:0])
	return
}

func (a Address) String() string {
	return fmt.Sprintf("0x%x", a[:])
}

func (a Address) MarshalText() ([]byte, error) {
	return bytesToText(a[:])
}

func (a *Address) UnmarshalText(data []byte) error {
	return textToBytes(a[:], data)
}

// ParseAddress parses a 0x-prefixed hex string of exactly 20 bytes.
func ParseAddress(s string) (Address, error) {
	var res Address
	return res, res.UnmarshalText([]byte(s))
}

func (h Hash) String() string {
	return fmt.Sprintf("0x%x", h[:])
}

func (h Hash) MarshalText() ([]byte, error) {
	return bytesToText(h[:])
}

func (h *Hash) UnmarshalText(data []byte) error {
	return textToBytes(h[:], data)
}

// NewWord creates a new Word from up to 4 uint64 arguments. The arguments
// are given in the order from most significant to least significant by
// padding leading zeros as needed. No argument results in a value of zero.
func NewWord(args ...uint64) (result Word) {
	if len(args) > 4 {
		panic("Too many arguments")
	}
	offset := 4 - len(args)
	for i := 0; i < len(args); i++ {
		start := (offset * 8) + i*8
		binary.BigEndian.PutUint64(result[start:start+8], args[i])
	}
	return
}

// WordFromUint256 converts a *uint256.Int to a Word. A nil input is zero.
func WordFromUint256(value *uint256.Int) Word {
	if value == nil {
		return Word{}
	}
	return value.Bytes32()
}

// WordFromBig converts a non-negative big integer of at most 256 bits.
func WordFromBig(value *big.Int) (Word, error) {
	if value == nil {
		return Word{}, nil
	}
	v, overflow := uint256.FromBig(value)
	if overflow || value.Sign() < 0 {
		return Word{}, fmt.Errorf("value %v does not fit into a word", value)
	}
	return v.Bytes32(), nil
}

// ParseWord parses a decimal or 0x-prefixed hexadecimal number. Hex input
// shorter than 32 bytes is left padded with zeros.
func ParseWord(s string) (Word, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Word{}, fmt.Errorf("empty word")
	}
	if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
		v, err := uint256.FromHex(normalizeHex(s))
		if err != nil {
			return Word{}, fmt.Errorf("invalid hex word %q: %w", s, err)
		}
		return v.Bytes32(), nil
	}
	v, err := uint256.FromDecimal(s)
	if err != nil {
		return Word{}, fmt.Errorf("invalid decimal word %q: %w", s, err)
	}
	return v.Bytes32(), nil
}

// normalizeHex strips leading zeros since uint256.FromHex rejects them.
func normalizeHex(s string) string {
	digits := strings.TrimLeft(s[2:], "0")
	if digits == "" {
		digits = "0"
	}
	return "0x" + digits
}

// AddressToWord right-aligns the address in a word, the way the EVM
// represents addresses on the stack.
func AddressToWord(a Address) (res Word) {
	copy(res[12:], a[:])
	return
}

func (w Word) ToUint256() *uint256.Int {
	return new(uint256.Int).SetBytes(w[:])
}

func (w Word) ToBig() *big.Int {
	return new(big.Int).SetBytes(w[:])
}

// IsUint64 reports whether the word fits into a uint64.
func (w Word) IsUint64() bool {
	return w.ToUint256().IsUint64()
}

// Uint64 returns the lowest 64 bits of the word.
func (w Word) Uint64() uint64 {
	return binary.BigEndian.Uint64(w[24:])
}

func (w Word) Cmp(o Word) int {
	return bytes.Compare(w[:], o[:])
}

// String renders the word as a decimal number.
func (w Word) String() string {
	return w.ToUint256().Dec()
}

// Hex renders all 32 bytes as 0x-prefixed hex.
func (w Word) Hex() string {
	return fmt.Sprintf("0x%x", w[:])
}

func (w Word) MarshalText() ([]byte, error) {
	return bytesToText(w[:])
}

func (w *Word) UnmarshalText(data []byte) error {
	return textToBytes(w[:], data)
}

func bytesToText(data []byte) ([]byte, error) {
	return []byte(fmt.Sprintf("0x%x", data)), nil
}

func textToBytes(trg []byte, data []byte) error {
	s := string(data)
	if !strings.HasPrefix(s, "0x") {
		return fmt.Errorf("invalid format, does not start with 0x: %v", s)
	}
	data, err := hex.DecodeString(s[2:])
	if err != nil {
		return err
	}
	if want, got := len(trg), len(data); want != got {
		return fmt.Errorf("invalid format, wanted %d bytes, got %d", want, got)
	}
	copy(trg, data)
	return nil
}
