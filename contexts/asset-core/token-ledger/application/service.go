package application

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"custodia/contexts/asset-core/token-ledger/domain/entities"
	domainerrors "custodia/contexts/asset-core/token-ledger/domain/errors"
	"custodia/contexts/asset-core/token-ledger/ports"

	"github.com/holiman/uint256"
)

// Service is the guarded-ledger state machine. Every mutating operation runs
// under a single mutex: operations observe and change state as if globally
// serialized, and a failed operation leaves state unchanged because every
// precondition is validated before the ChangeSet is applied.
type Service struct {
	Store  ports.LedgerStore
	Clock  ports.Clock
	IDGen  ports.IDGenerator
	Logger *slog.Logger

	mu sync.Mutex
}

// Initialize seeds the ledger: the deploying identity becomes owner and
// receives the entire initial supply. It is a no-op error after first use.
func (s *Service) Initialize(
	ctx context.Context,
	metadata entities.TokenMetadata,
	owner entities.Address,
	initialSupply *uint256.Int,
) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	initialized, err := s.Store.Initialized(ctx)
	if err != nil {
		return err
	}
	if initialized {
		return domainerrors.ErrAlreadyInitialized
	}
	if owner.IsZero() {
		return domainerrors.ErrZeroAddress
	}
	supply := entities.CloneAmount(initialSupply)

	event, err := s.newEvent(ctx, eventTypeMinted, "account", owner.Hex(), map[string]any{
		"account": owner.Hex(),
		"amount":  entities.FormatAmount(supply),
		"genesis": true,
	})
	if err != nil {
		return err
	}

	if err := s.Store.Apply(ctx, ports.ChangeSet{
		Owner:       &owner,
		Metadata:    &metadata,
		TotalSupply: supply,
		Balances: map[entities.Address]*uint256.Int{
			owner: entities.CloneAmount(supply),
		},
		Events: []ports.EventEnvelope{event},
	}); err != nil {
		return err
	}

	resolveLogger(s.Logger).Info("ledger initialized",
		"event", "ledger_initialized",
		"module", "asset-core/token-ledger",
		"layer", "application",
		"owner", owner.Hex(),
		"initial_supply", entities.FormatAmount(supply),
		"token_name", metadata.Name,
		"token_symbol", metadata.Symbol,
	)
	return nil
}

// TransferOwnership reassigns the single authority in one atomic step.
func (s *Service) TransferOwnership(ctx context.Context, caller entities.Address, newOwner entities.Address) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.requireOwner(ctx, caller); err != nil {
		return err
	}
	if newOwner.IsZero() {
		return domainerrors.ErrZeroAddress
	}

	event, err := s.newEvent(ctx, eventTypeOwnershipTransferred, "account", newOwner.Hex(), map[string]any{
		"previous_owner": caller.Hex(),
		"account":        newOwner.Hex(),
	})
	if err != nil {
		return err
	}
	if err := s.Store.Apply(ctx, ports.ChangeSet{
		Owner:  &newOwner,
		Events: []ports.EventEnvelope{event},
	}); err != nil {
		return err
	}

	resolveLogger(s.Logger).Info("ownership transferred",
		"event", "ledger_ownership_transferred",
		"module", "asset-core/token-ledger",
		"layer", "application",
		"previous_owner", caller.Hex(),
		"new_owner", newOwner.Hex(),
	)
	return nil
}

// OwnerAddress is a pure read of the current authority.
func (s *Service) OwnerAddress(ctx context.Context) (entities.Address, error) {
	return s.Store.OwnerAddress(ctx)
}

func (s *Service) Metadata(ctx context.Context) (entities.TokenMetadata, error) {
	return s.Store.Metadata(ctx)
}

func (s *Service) TotalSupply(ctx context.Context) (*uint256.Int, error) {
	return s.Store.TotalSupply(ctx)
}

func (s *Service) BalanceOf(ctx context.Context, account entities.Address) (*uint256.Int, error) {
	return s.Store.BalanceOf(ctx, account)
}

func (s *Service) LockedBalanceOf(ctx context.Context, account entities.Address) (*uint256.Int, error) {
	return s.Store.LockedOf(ctx, account)
}

// UnlockedBalanceOf is balance minus locked. The lock bound invariant keeps
// the subtraction from underflowing.
func (s *Service) UnlockedBalanceOf(ctx context.Context, account entities.Address) (*uint256.Int, error) {
	balance, err := s.Store.BalanceOf(ctx, account)
	if err != nil {
		return nil, err
	}
	locked, err := s.Store.LockedOf(ctx, account)
	if err != nil {
		return nil, err
	}
	return entities.CheckedSub(balance, locked)
}

// Account assembles the full read model for one account.
func (s *Service) Account(ctx context.Context, account entities.Address) (entities.AccountView, error) {
	balance, err := s.Store.BalanceOf(ctx, account)
	if err != nil {
		return entities.AccountView{}, err
	}
	locked, err := s.Store.LockedOf(ctx, account)
	if err != nil {
		return entities.AccountView{}, err
	}
	unlocked, err := entities.CheckedSub(balance, locked)
	if err != nil {
		return entities.AccountView{}, err
	}
	return entities.AccountView{
		Address:  account,
		Balance:  balance,
		Locked:   locked,
		Unlocked: unlocked,
	}, nil
}

func (s *Service) Allowance(ctx context.Context, owner entities.Address, spender entities.Address) (*uint256.Int, error) {
	return s.Store.AllowanceOf(ctx, owner, spender)
}

func (s *Service) IsBlacklisted(ctx context.Context, account entities.Address) (bool, error) {
	return s.Store.IsBlacklisted(ctx, account)
}

func (s *Service) IsWhitelisted(ctx context.Context, account entities.Address) (bool, error) {
	return s.Store.IsWhitelisted(ctx, account)
}

// requireOwner gates every privileged mutation. Side-effect-free on success.
func (s *Service) requireOwner(ctx context.Context, caller entities.Address) error {
	owner, err := s.Store.OwnerAddress(ctx)
	if err != nil {
		return err
	}
	if caller.IsZero() || caller != owner {
		return domainerrors.ErrUnauthorized
	}
	return nil
}

func (s *Service) now() time.Time {
	if s.Clock == nil {
		return time.Now().UTC()
	}
	return s.Clock.Now().UTC()
}

func resolveLogger(logger *slog.Logger) *slog.Logger {
	if logger == nil {
		return slog.Default()
	}
	return logger
}
