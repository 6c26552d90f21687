package application

import (
	"context"

	"custodia/contexts/asset-core/token-ledger/domain/entities"
	domainerrors "custodia/contexts/asset-core/token-ledger/domain/errors"
	"custodia/contexts/asset-core/token-ledger/ports"

	"github.com/holiman/uint256"
)

// Airdrop mints amounts[i] to recipients[i] as one all-or-nothing batch.
// Every recipient is validated before any balance changes: one invalid or
// blacklisted recipient rejects the whole batch. The batch authorizes as
// owner once; per-element mints skip the owner re-check.
func (s *Service) Airdrop(
	ctx context.Context,
	caller entities.Address,
	recipients []entities.Address,
	amounts []*uint256.Int,
) (*uint256.Int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.requireOwner(ctx, caller); err != nil {
		return nil, err
	}
	if len(recipients) != len(amounts) {
		return nil, domainerrors.ErrLengthMismatch
	}

	// Pass one: validate everything and stage the new balances. Duplicated
	// recipients accumulate within the staged map.
	staged := make(map[entities.Address]*uint256.Int, len(recipients))
	total := entities.ZeroAmount()
	for i, recipient := range recipients {
		if recipient.IsZero() {
			return nil, domainerrors.ErrZeroAddress
		}
		listed, err := s.Store.IsBlacklisted(ctx, recipient)
		if err != nil {
			return nil, err
		}
		if listed {
			return nil, domainerrors.ErrBlacklisted
		}

		current, ok := staged[recipient]
		if !ok {
			current, err = s.Store.BalanceOf(ctx, recipient)
			if err != nil {
				return nil, err
			}
		}
		newBalance, err := entities.CheckedAdd(current, amounts[i])
		if err != nil {
			return nil, err
		}
		staged[recipient] = newBalance

		total, err = entities.CheckedAdd(total, amounts[i])
		if err != nil {
			return nil, err
		}
	}

	supply, err := s.Store.TotalSupply(ctx)
	if err != nil {
		return nil, err
	}
	newSupply, err := entities.CheckedAdd(supply, total)
	if err != nil {
		return nil, err
	}

	event, err := s.newEvent(ctx, eventTypeAirdropCompleted, "caller", caller.Hex(), map[string]any{
		"caller":          caller.Hex(),
		"total_amount":    entities.FormatAmount(total),
		"recipient_count": len(recipients),
	})
	if err != nil {
		return nil, err
	}

	// Pass two: apply the staged batch atomically.
	if err := s.Store.Apply(ctx, ports.ChangeSet{
		Balances:    staged,
		TotalSupply: newSupply,
		Events:      []ports.EventEnvelope{event},
	}); err != nil {
		return nil, err
	}

	resolveLogger(s.Logger).Info("airdrop completed",
		"event", "ledger_airdrop_completed",
		"module", "asset-core/token-ledger",
		"layer", "application",
		"caller", caller.Hex(),
		"total_amount", entities.FormatAmount(total),
		"recipient_count", len(recipients),
	)
	return total, nil
}
