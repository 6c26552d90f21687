package entities

import (
	"encoding/hex"
	"strings"

	domainerrors "custodia/contexts/asset-core/token-ledger/domain/errors"
)

// AddressLength is the fixed byte width of an account identity.
const AddressLength = 20

// Address is an opaque, comparable account identity. The zero value is the
// null identity and is never a valid participant.
type Address [AddressLength]byte

// ZeroAddress is the null identity.
var ZeroAddress Address

// ParseAddress decodes a 0x-prefixed 40-digit hex string.
func ParseAddress(raw string) (Address, error) {
	value := strings.TrimSpace(raw)
	value = strings.TrimPrefix(value, "0x")
	value = strings.TrimPrefix(value, "0X")
	if len(value) != AddressLength*2 {
		return Address{}, domainerrors.ErrInvalidAddress
	}
	decoded, err := hex.DecodeString(value)
	if err != nil {
		return Address{}, domainerrors.ErrInvalidAddress
	}
	var addr Address
	copy(addr[:], decoded)
	return addr, nil
}

func (a Address) Hex() string {
	return "0x" + hex.EncodeToString(a[:])
}

func (a Address) IsZero() bool {
	return a == ZeroAddress
}

func (a Address) String() string {
	return a.Hex()
}
