package application

import (
	"context"

	"custodia/contexts/asset-core/token-ledger/domain/entities"
	domainerrors "custodia/contexts/asset-core/token-ledger/domain/errors"
	"custodia/contexts/asset-core/token-ledger/ports"
)

// AddToBlacklist marks the account ineligible to pay, burn, or receive mints.
func (s *Service) AddToBlacklist(ctx context.Context, caller entities.Address, account entities.Address) error {
	return s.setListMembership(ctx, caller, account, listBlacklist, true)
}

func (s *Service) RemoveFromBlacklist(ctx context.Context, caller entities.Address, account entities.Address) error {
	return s.setListMembership(ctx, caller, account, listBlacklist, false)
}

// AddToWhitelist records membership only. No balance-mutating path consults
// the whitelist; it is bookkeeping reserved for future gating.
func (s *Service) AddToWhitelist(ctx context.Context, caller entities.Address, account entities.Address) error {
	return s.setListMembership(ctx, caller, account, listWhitelist, true)
}

func (s *Service) RemoveFromWhitelist(ctx context.Context, caller entities.Address, account entities.Address) error {
	return s.setListMembership(ctx, caller, account, listWhitelist, false)
}

type listKind string

const (
	listBlacklist listKind = "blacklist"
	listWhitelist listKind = "whitelist"
)

func (s *Service) setListMembership(
	ctx context.Context,
	caller entities.Address,
	account entities.Address,
	list listKind,
	member bool,
) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.requireOwner(ctx, caller); err != nil {
		return err
	}
	if member && account.IsZero() {
		return domainerrors.ErrInvalidAccount
	}

	var current bool
	var err error
	switch list {
	case listBlacklist:
		current, err = s.Store.IsBlacklisted(ctx, account)
	case listWhitelist:
		current, err = s.Store.IsWhitelisted(ctx, account)
	}
	if err != nil {
		return err
	}
	if member && current {
		return domainerrors.ErrAlreadyListed
	}
	if !member && !current {
		return domainerrors.ErrNotListed
	}

	event, err := s.newEvent(ctx, listEventType(list, member), "account", account.Hex(), map[string]any{
		"account": account.Hex(),
	})
	if err != nil {
		return err
	}

	changes := ports.ChangeSet{Events: []ports.EventEnvelope{event}}
	switch list {
	case listBlacklist:
		changes.Blacklist = map[entities.Address]bool{account: member}
	case listWhitelist:
		changes.Whitelist = map[entities.Address]bool{account: member}
	}
	if err := s.Store.Apply(ctx, changes); err != nil {
		return err
	}

	resolveLogger(s.Logger).Info("list membership changed",
		"event", "ledger_list_membership_changed",
		"module", "asset-core/token-ledger",
		"layer", "application",
		"list", string(list),
		"account", account.Hex(),
		"member", member,
	)
	return nil
}

func listEventType(list listKind, member bool) string {
	switch {
	case list == listBlacklist && member:
		return eventTypeBlacklistAdded
	case list == listBlacklist && !member:
		return eventTypeBlacklistRemoved
	case list == listWhitelist && member:
		return eventTypeWhitelistAdded
	default:
		return eventTypeWhitelistRemoved
	}
}
