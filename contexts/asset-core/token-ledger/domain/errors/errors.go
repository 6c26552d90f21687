package errors

import "errors"

var (
	ErrUnauthorized          = errors.New("caller is not the ledger owner")
	ErrZeroAddress           = errors.New("account is the zero address")
	ErrInvalidAccount        = errors.New("account identity is invalid")
	ErrInvalidAddress        = errors.New("address is not a valid hex address")
	ErrInvalidAmount         = errors.New("amount is not a valid unsigned decimal")
	ErrInvalidMetadata       = errors.New("token name and symbol are required")
	ErrAlreadyListed         = errors.New("account is already on the list")
	ErrNotListed             = errors.New("account is not on the list")
	ErrBlacklisted           = errors.New("account is blacklisted")
	ErrLockedFunds           = errors.New("unlocked balance is insufficient")
	ErrInsufficientBalance   = errors.New("account balance is insufficient")
	ErrInsufficientLocked    = errors.New("locked balance is insufficient")
	ErrInsufficientAllowance = errors.New("spender allowance is insufficient")
	ErrLengthMismatch        = errors.New("recipients and amounts differ in length")
	ErrOverflow              = errors.New("amount arithmetic overflowed")
	ErrUnderflow             = errors.New("amount arithmetic underflowed")
	ErrAlreadyInitialized    = errors.New("ledger is already initialized")
	ErrNotInitialized        = errors.New("ledger is not initialized")
	ErrNotFound              = errors.New("record not found")
	ErrInvalidEvent          = errors.New("event envelope is invalid")
)
