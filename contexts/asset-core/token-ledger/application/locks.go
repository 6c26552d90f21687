package application

import (
	"context"

	"custodia/contexts/asset-core/token-ledger/domain/entities"
	domainerrors "custodia/contexts/asset-core/token-ledger/domain/errors"
	"custodia/contexts/asset-core/token-ledger/ports"

	"github.com/holiman/uint256"
)

// Lock reserves amount of the account's balance. Locking is additive against
// the gross balance: the cumulative locked amount may exceed the current
// unlocked remainder, but never the balance itself (lock bound invariant).
func (s *Service) Lock(ctx context.Context, caller entities.Address, account entities.Address, amount *uint256.Int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.requireOwner(ctx, caller); err != nil {
		return err
	}
	if account.IsZero() {
		return domainerrors.ErrZeroAddress
	}

	locked, err := s.Store.LockedOf(ctx, account)
	if err != nil {
		return err
	}
	newLocked, err := entities.CheckedAdd(locked, amount)
	if err != nil {
		return err
	}
	balance, err := s.Store.BalanceOf(ctx, account)
	if err != nil {
		return err
	}
	if balance.Lt(newLocked) {
		return domainerrors.ErrInsufficientBalance
	}

	event, err := s.newEvent(ctx, eventTypeTokensLocked, "account", account.Hex(), map[string]any{
		"account": account.Hex(),
		"amount":  entities.FormatAmount(amount),
	})
	if err != nil {
		return err
	}
	if err := s.Store.Apply(ctx, ports.ChangeSet{
		Locked: map[entities.Address]*uint256.Int{account: newLocked},
		Events: []ports.EventEnvelope{event},
	}); err != nil {
		return err
	}

	resolveLogger(s.Logger).Info("tokens locked",
		"event", "ledger_tokens_locked",
		"module", "asset-core/token-ledger",
		"layer", "application",
		"account", account.Hex(),
		"amount", entities.FormatAmount(amount),
		"locked_total", entities.FormatAmount(newLocked),
	)
	return nil
}

// Unlock releases amount of the account's locked balance.
func (s *Service) Unlock(ctx context.Context, caller entities.Address, account entities.Address, amount *uint256.Int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.requireOwner(ctx, caller); err != nil {
		return err
	}
	if account.IsZero() {
		return domainerrors.ErrZeroAddress
	}

	locked, err := s.Store.LockedOf(ctx, account)
	if err != nil {
		return err
	}
	if locked.Lt(amount) {
		return domainerrors.ErrInsufficientLocked
	}
	newLocked, err := entities.CheckedSub(locked, amount)
	if err != nil {
		return err
	}

	event, err := s.newEvent(ctx, eventTypeTokensUnlocked, "account", account.Hex(), map[string]any{
		"account": account.Hex(),
		"amount":  entities.FormatAmount(amount),
	})
	if err != nil {
		return err
	}
	if err := s.Store.Apply(ctx, ports.ChangeSet{
		Locked: map[entities.Address]*uint256.Int{account: newLocked},
		Events: []ports.EventEnvelope{event},
	}); err != nil {
		return err
	}

	resolveLogger(s.Logger).Info("tokens unlocked",
		"event", "ledger_tokens_unlocked",
		"module", "asset-core/token-ledger",
		"layer", "application",
		"account", account.Hex(),
		"amount", entities.FormatAmount(amount),
		"locked_total", entities.FormatAmount(newLocked),
	)
	return nil
}
