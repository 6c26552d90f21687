package entities

import (
	"strings"

	domainerrors "custodia/contexts/asset-core/token-ledger/domain/errors"

	"github.com/holiman/uint256"
)

// TokenMetadata is opaque descriptive metadata fixed at initialization.
// The core never interprets it.
type TokenMetadata struct {
	Name   string
	Symbol string
}

func NewTokenMetadata(name string, symbol string) (TokenMetadata, error) {
	name = strings.TrimSpace(name)
	symbol = strings.TrimSpace(symbol)
	if name == "" || symbol == "" {
		return TokenMetadata{}, domainerrors.ErrInvalidMetadata
	}
	return TokenMetadata{Name: name, Symbol: symbol}, nil
}

// AccountView is the read model for a single account.
type AccountView struct {
	Address  Address
	Balance  *uint256.Int
	Locked   *uint256.Int
	Unlocked *uint256.Int
}
