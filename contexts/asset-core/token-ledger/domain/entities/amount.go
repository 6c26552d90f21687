package entities

import (
	"strings"

	domainerrors "custodia/contexts/asset-core/token-ledger/domain/errors"

	"github.com/holiman/uint256"
)

// Amounts are 256-bit unsigned integers. All arithmetic is checked: an
// operation that would wrap fails instead of saturating or truncating.

// ParseAmount decodes an unsigned decimal string.
func ParseAmount(raw string) (*uint256.Int, error) {
	value := strings.TrimSpace(raw)
	if value == "" {
		return nil, domainerrors.ErrInvalidAmount
	}
	amount, err := uint256.FromDecimal(value)
	if err != nil {
		return nil, domainerrors.ErrInvalidAmount
	}
	return amount, nil
}

// CheckedAdd returns a+b or ErrOverflow.
func CheckedAdd(a, b *uint256.Int) (*uint256.Int, error) {
	sum, overflow := new(uint256.Int).AddOverflow(a, b)
	if overflow {
		return nil, domainerrors.ErrOverflow
	}
	return sum, nil
}

// CheckedSub returns a-b or ErrUnderflow.
func CheckedSub(a, b *uint256.Int) (*uint256.Int, error) {
	diff, underflow := new(uint256.Int).SubOverflow(a, b)
	if underflow {
		return nil, domainerrors.ErrUnderflow
	}
	return diff, nil
}

// ZeroAmount returns a fresh zero value so callers never share a mutable zero.
func ZeroAmount() *uint256.Int {
	return new(uint256.Int)
}

// CloneAmount copies an amount, treating nil as zero.
func CloneAmount(a *uint256.Int) *uint256.Int {
	if a == nil {
		return new(uint256.Int)
	}
	return new(uint256.Int).Set(a)
}

// FormatAmount renders an amount as an unsigned decimal string.
func FormatAmount(a *uint256.Int) string {
	if a == nil {
		return "0"
	}
	return a.Dec()
}
