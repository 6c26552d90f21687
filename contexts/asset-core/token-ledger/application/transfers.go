package application

import (
	"context"

	"custodia/contexts/asset-core/token-ledger/domain/entities"
	domainerrors "custodia/contexts/asset-core/token-ledger/domain/errors"
	"custodia/contexts/asset-core/token-ledger/ports"

	"github.com/holiman/uint256"
)

// Mint creates amount new tokens for to. Owner only; the recipient must not
// be blacklisted. There is no supply cap beyond the 256-bit range.
func (s *Service) Mint(ctx context.Context, caller entities.Address, to entities.Address, amount *uint256.Int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.requireOwner(ctx, caller); err != nil {
		return err
	}
	if to.IsZero() {
		return domainerrors.ErrZeroAddress
	}
	if err := s.rejectBlacklisted(ctx, to); err != nil {
		return err
	}

	balance, err := s.Store.BalanceOf(ctx, to)
	if err != nil {
		return err
	}
	newBalance, err := entities.CheckedAdd(balance, amount)
	if err != nil {
		return err
	}
	supply, err := s.Store.TotalSupply(ctx)
	if err != nil {
		return err
	}
	newSupply, err := entities.CheckedAdd(supply, amount)
	if err != nil {
		return err
	}

	event, err := s.newEvent(ctx, eventTypeMinted, "account", to.Hex(), map[string]any{
		"account": to.Hex(),
		"amount":  entities.FormatAmount(amount),
	})
	if err != nil {
		return err
	}
	if err := s.Store.Apply(ctx, ports.ChangeSet{
		Balances:    map[entities.Address]*uint256.Int{to: newBalance},
		TotalSupply: newSupply,
		Events:      []ports.EventEnvelope{event},
	}); err != nil {
		return err
	}

	resolveLogger(s.Logger).Info("tokens minted",
		"event", "ledger_minted",
		"module", "asset-core/token-ledger",
		"layer", "application",
		"account", to.Hex(),
		"amount", entities.FormatAmount(amount),
	)
	return nil
}

// Burn destroys amount of the caller's own tokens. Only the unlocked
// remainder may be burned.
func (s *Service) Burn(ctx context.Context, caller entities.Address, amount *uint256.Int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if caller.IsZero() {
		return domainerrors.ErrZeroAddress
	}
	if err := s.rejectBlacklisted(ctx, caller); err != nil {
		return err
	}
	return s.burnLocked(ctx, caller, amount)
}

// BurnFrom destroys amount from account by spending the caller's allowance.
// It is allowance-gated, not owner-gated.
func (s *Service) BurnFrom(ctx context.Context, caller entities.Address, account entities.Address, amount *uint256.Int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if caller.IsZero() || account.IsZero() {
		return domainerrors.ErrZeroAddress
	}
	if err := s.rejectBlacklisted(ctx, account); err != nil {
		return err
	}
	if err := s.checkUnlocked(ctx, account, amount); err != nil {
		return err
	}

	allowance, err := s.Store.AllowanceOf(ctx, account, caller)
	if err != nil {
		return err
	}
	if allowance.Lt(amount) {
		return domainerrors.ErrInsufficientAllowance
	}
	newAllowance, err := entities.CheckedSub(allowance, amount)
	if err != nil {
		return err
	}
	return s.burnLocked(ctx, account, amount, allowanceChange{
		key:   ports.AllowanceKey{Owner: account, Spender: caller},
		value: newAllowance,
	})
}

type allowanceChange struct {
	key   ports.AllowanceKey
	value *uint256.Int
}

// burnLocked performs the shared burn path. Callers hold s.mu and have done
// the blacklist check; the unlocked check is repeated here because Burn and
// BurnFrom enter with different precondition orders.
func (s *Service) burnLocked(ctx context.Context, account entities.Address, amount *uint256.Int, allowances ...allowanceChange) error {
	if err := s.checkUnlocked(ctx, account, amount); err != nil {
		return err
	}

	balance, err := s.Store.BalanceOf(ctx, account)
	if err != nil {
		return err
	}
	newBalance, err := entities.CheckedSub(balance, amount)
	if err != nil {
		return err
	}
	supply, err := s.Store.TotalSupply(ctx)
	if err != nil {
		return err
	}
	newSupply, err := entities.CheckedSub(supply, amount)
	if err != nil {
		return err
	}

	event, err := s.newEvent(ctx, eventTypeBurned, "account", account.Hex(), map[string]any{
		"account": account.Hex(),
		"amount":  entities.FormatAmount(amount),
	})
	if err != nil {
		return err
	}

	changes := ports.ChangeSet{
		Balances:    map[entities.Address]*uint256.Int{account: newBalance},
		TotalSupply: newSupply,
		Events:      []ports.EventEnvelope{event},
	}
	if len(allowances) > 0 {
		changes.Allowances = make(map[ports.AllowanceKey]*uint256.Int, len(allowances))
		for _, change := range allowances {
			changes.Allowances[change.key] = change.value
		}
	}
	if err := s.Store.Apply(ctx, changes); err != nil {
		return err
	}

	resolveLogger(s.Logger).Info("tokens burned",
		"event", "ledger_burned",
		"module", "asset-core/token-ledger",
		"layer", "application",
		"account", account.Hex(),
		"amount", entities.FormatAmount(amount),
	)
	return nil
}

// Transfer moves amount from the caller to to. Only the paying side is
// checked against the blacklist; the recipient is deliberately not.
func (s *Service) Transfer(ctx context.Context, caller entities.Address, to entities.Address, amount *uint256.Int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if caller.IsZero() || to.IsZero() {
		return domainerrors.ErrZeroAddress
	}
	if err := s.rejectBlacklisted(ctx, caller); err != nil {
		return err
	}
	return s.moveLocked(ctx, caller, to, amount, nil)
}

// TransferFrom moves amount from from to to by spending the caller's
// allowance. The blacklist check applies to the paying account only.
func (s *Service) TransferFrom(ctx context.Context, caller entities.Address, from entities.Address, to entities.Address, amount *uint256.Int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if caller.IsZero() || from.IsZero() || to.IsZero() {
		return domainerrors.ErrZeroAddress
	}
	if err := s.rejectBlacklisted(ctx, from); err != nil {
		return err
	}
	if err := s.checkUnlocked(ctx, from, amount); err != nil {
		return err
	}

	allowance, err := s.Store.AllowanceOf(ctx, from, caller)
	if err != nil {
		return err
	}
	if allowance.Lt(amount) {
		return domainerrors.ErrInsufficientAllowance
	}
	newAllowance, err := entities.CheckedSub(allowance, amount)
	if err != nil {
		return err
	}
	return s.moveLocked(ctx, from, to, amount, &allowanceChange{
		key:   ports.AllowanceKey{Owner: from, Spender: caller},
		value: newAllowance,
	})
}

// moveLocked performs the shared transfer path under s.mu.
func (s *Service) moveLocked(ctx context.Context, from entities.Address, to entities.Address, amount *uint256.Int, allowance *allowanceChange) error {
	if err := s.checkUnlocked(ctx, from, amount); err != nil {
		return err
	}

	balances := make(map[entities.Address]*uint256.Int, 2)
	if from == to {
		// A self-transfer passes every check and changes nothing.
		current, err := s.Store.BalanceOf(ctx, from)
		if err != nil {
			return err
		}
		balances[from] = current
	} else {
		fromBalance, err := s.Store.BalanceOf(ctx, from)
		if err != nil {
			return err
		}
		newFrom, err := entities.CheckedSub(fromBalance, amount)
		if err != nil {
			return err
		}
		toBalance, err := s.Store.BalanceOf(ctx, to)
		if err != nil {
			return err
		}
		newTo, err := entities.CheckedAdd(toBalance, amount)
		if err != nil {
			return err
		}
		balances[from] = newFrom
		balances[to] = newTo
	}

	event, err := s.newEvent(ctx, eventTypeTransferred, "account", from.Hex(), map[string]any{
		"account": from.Hex(),
		"to":      to.Hex(),
		"amount":  entities.FormatAmount(amount),
	})
	if err != nil {
		return err
	}

	changes := ports.ChangeSet{
		Balances: balances,
		Events:   []ports.EventEnvelope{event},
	}
	if allowance != nil {
		changes.Allowances = map[ports.AllowanceKey]*uint256.Int{
			allowance.key: allowance.value,
		}
	}
	if err := s.Store.Apply(ctx, changes); err != nil {
		return err
	}

	resolveLogger(s.Logger).Info("tokens transferred",
		"event", "ledger_transferred",
		"module", "asset-core/token-ledger",
		"layer", "application",
		"from", from.Hex(),
		"to", to.Hex(),
		"amount", entities.FormatAmount(amount),
	)
	return nil
}

// Approve sets the spender's allowance over the caller's balance outright.
func (s *Service) Approve(ctx context.Context, caller entities.Address, spender entities.Address, amount *uint256.Int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if caller.IsZero() || spender.IsZero() {
		return domainerrors.ErrZeroAddress
	}

	event, err := s.newEvent(ctx, eventTypeApprovalSet, "account", caller.Hex(), map[string]any{
		"account": caller.Hex(),
		"spender": spender.Hex(),
		"amount":  entities.FormatAmount(amount),
	})
	if err != nil {
		return err
	}
	if err := s.Store.Apply(ctx, ports.ChangeSet{
		Allowances: map[ports.AllowanceKey]*uint256.Int{
			{Owner: caller, Spender: spender}: entities.CloneAmount(amount),
		},
		Events: []ports.EventEnvelope{event},
	}); err != nil {
		return err
	}

	resolveLogger(s.Logger).Info("allowance approved",
		"event", "ledger_approval_set",
		"module", "asset-core/token-ledger",
		"layer", "application",
		"account", caller.Hex(),
		"spender", spender.Hex(),
		"amount", entities.FormatAmount(amount),
	)
	return nil
}

// rejectBlacklisted fails with ErrBlacklisted when the account is listed.
func (s *Service) rejectBlacklisted(ctx context.Context, account entities.Address) error {
	listed, err := s.Store.IsBlacklisted(ctx, account)
	if err != nil {
		return err
	}
	if listed {
		return domainerrors.ErrBlacklisted
	}
	return nil
}

// checkUnlocked fails with ErrLockedFunds when balance minus locked cannot
// cover amount.
func (s *Service) checkUnlocked(ctx context.Context, account entities.Address, amount *uint256.Int) error {
	balance, err := s.Store.BalanceOf(ctx, account)
	if err != nil {
		return err
	}
	locked, err := s.Store.LockedOf(ctx, account)
	if err != nil {
		return err
	}
	unlocked, err := entities.CheckedSub(balance, locked)
	if err != nil {
		return err
	}
	if unlocked.Lt(amount) {
		return domainerrors.ErrLockedFunds
	}
	return nil
}
