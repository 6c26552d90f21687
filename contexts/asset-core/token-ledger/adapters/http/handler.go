package httpadapter

import (
	"context"
	"log/slog"

	"custodia/contexts/asset-core/token-ledger/application"
	"custodia/contexts/asset-core/token-ledger/domain/entities"
	httptransport "custodia/contexts/asset-core/token-ledger/transport/http"

	"github.com/holiman/uint256"
)

// Handler translates transport DTOs into service calls. Address and amount
// parsing happens here; domain errors pass through for the server to map.
type Handler struct {
	Service *application.Service
	Logger  *slog.Logger
}

func (h Handler) MetaHandler(ctx context.Context) (httptransport.TokenMetaResponse, error) {
	meta, err := h.Service.Metadata(ctx)
	if err != nil {
		return httptransport.TokenMetaResponse{}, err
	}
	owner, err := h.Service.OwnerAddress(ctx)
	if err != nil {
		return httptransport.TokenMetaResponse{}, err
	}
	resp := httptransport.TokenMetaResponse{Status: "success"}
	resp.Data.Name = meta.Name
	resp.Data.Symbol = meta.Symbol
	resp.Data.Owner = owner.Hex()
	return resp, nil
}

func (h Handler) SupplyHandler(ctx context.Context) (httptransport.SupplyResponse, error) {
	supply, err := h.Service.TotalSupply(ctx)
	if err != nil {
		return httptransport.SupplyResponse{}, err
	}
	resp := httptransport.SupplyResponse{Status: "success"}
	resp.Data.TotalSupply = entities.FormatAmount(supply)
	return resp, nil
}

func (h Handler) AccountHandler(ctx context.Context, address string) (httptransport.AccountResponse, error) {
	account, err := entities.ParseAddress(address)
	if err != nil {
		return httptransport.AccountResponse{}, err
	}
	view, err := h.Service.Account(ctx, account)
	if err != nil {
		return httptransport.AccountResponse{}, err
	}
	return httptransport.AccountResponse{
		Status: "success",
		Data: httptransport.AccountDTO{
			Address:  view.Address.Hex(),
			Balance:  entities.FormatAmount(view.Balance),
			Locked:   entities.FormatAmount(view.Locked),
			Unlocked: entities.FormatAmount(view.Unlocked),
		},
	}, nil
}

func (h Handler) MintHandler(ctx context.Context, caller string, req httptransport.MintRequest) (httptransport.AckResponse, error) {
	callerAddr, to, amount, err := parsePair(caller, req.To, req.Amount)
	if err != nil {
		return httptransport.AckResponse{}, err
	}
	if err := h.Service.Mint(ctx, callerAddr, to, amount); err != nil {
		return httptransport.AckResponse{}, err
	}
	return httptransport.AckResponse{Status: "success"}, nil
}

func (h Handler) BurnHandler(ctx context.Context, caller string, req httptransport.BurnRequest) (httptransport.AckResponse, error) {
	callerAddr, err := entities.ParseAddress(caller)
	if err != nil {
		return httptransport.AckResponse{}, err
	}
	amount, err := entities.ParseAmount(req.Amount)
	if err != nil {
		return httptransport.AckResponse{}, err
	}
	if err := h.Service.Burn(ctx, callerAddr, amount); err != nil {
		return httptransport.AckResponse{}, err
	}
	return httptransport.AckResponse{Status: "success"}, nil
}

func (h Handler) BurnFromHandler(ctx context.Context, caller string, req httptransport.BurnFromRequest) (httptransport.AckResponse, error) {
	callerAddr, account, amount, err := parsePair(caller, req.Account, req.Amount)
	if err != nil {
		return httptransport.AckResponse{}, err
	}
	if err := h.Service.BurnFrom(ctx, callerAddr, account, amount); err != nil {
		return httptransport.AckResponse{}, err
	}
	return httptransport.AckResponse{Status: "success"}, nil
}

func (h Handler) TransferHandler(ctx context.Context, caller string, req httptransport.TransferRequest) (httptransport.AckResponse, error) {
	callerAddr, to, amount, err := parsePair(caller, req.To, req.Amount)
	if err != nil {
		return httptransport.AckResponse{}, err
	}
	if err := h.Service.Transfer(ctx, callerAddr, to, amount); err != nil {
		return httptransport.AckResponse{}, err
	}
	return httptransport.AckResponse{Status: "success"}, nil
}

func (h Handler) TransferFromHandler(ctx context.Context, caller string, req httptransport.TransferFromRequest) (httptransport.AckResponse, error) {
	callerAddr, from, amount, err := parsePair(caller, req.From, req.Amount)
	if err != nil {
		return httptransport.AckResponse{}, err
	}
	to, err := entities.ParseAddress(req.To)
	if err != nil {
		return httptransport.AckResponse{}, err
	}
	if err := h.Service.TransferFrom(ctx, callerAddr, from, to, amount); err != nil {
		return httptransport.AckResponse{}, err
	}
	return httptransport.AckResponse{Status: "success"}, nil
}

func (h Handler) ApproveHandler(ctx context.Context, caller string, req httptransport.ApproveRequest) (httptransport.AckResponse, error) {
	callerAddr, spender, amount, err := parsePair(caller, req.Spender, req.Amount)
	if err != nil {
		return httptransport.AckResponse{}, err
	}
	if err := h.Service.Approve(ctx, callerAddr, spender, amount); err != nil {
		return httptransport.AckResponse{}, err
	}
	return httptransport.AckResponse{Status: "success"}, nil
}

func (h Handler) AllowanceHandler(ctx context.Context, owner string, spender string) (httptransport.AllowanceResponse, error) {
	ownerAddr, err := entities.ParseAddress(owner)
	if err != nil {
		return httptransport.AllowanceResponse{}, err
	}
	spenderAddr, err := entities.ParseAddress(spender)
	if err != nil {
		return httptransport.AllowanceResponse{}, err
	}
	allowance, err := h.Service.Allowance(ctx, ownerAddr, spenderAddr)
	if err != nil {
		return httptransport.AllowanceResponse{}, err
	}
	resp := httptransport.AllowanceResponse{Status: "success"}
	resp.Data.Owner = ownerAddr.Hex()
	resp.Data.Spender = spenderAddr.Hex()
	resp.Data.Allowance = entities.FormatAmount(allowance)
	return resp, nil
}

func (h Handler) LockHandler(ctx context.Context, caller string, address string, req httptransport.LockRequest) (httptransport.AckResponse, error) {
	callerAddr, account, amount, err := parsePair(caller, address, req.Amount)
	if err != nil {
		return httptransport.AckResponse{}, err
	}
	if err := h.Service.Lock(ctx, callerAddr, account, amount); err != nil {
		return httptransport.AckResponse{}, err
	}
	return httptransport.AckResponse{Status: "success"}, nil
}

func (h Handler) UnlockHandler(ctx context.Context, caller string, address string, req httptransport.UnlockRequest) (httptransport.AckResponse, error) {
	callerAddr, account, amount, err := parsePair(caller, address, req.Amount)
	if err != nil {
		return httptransport.AckResponse{}, err
	}
	if err := h.Service.Unlock(ctx, callerAddr, account, amount); err != nil {
		return httptransport.AckResponse{}, err
	}
	return httptransport.AckResponse{Status: "success"}, nil
}

func (h Handler) AddToBlacklistHandler(ctx context.Context, caller string, req httptransport.ListMembershipRequest) (httptransport.AckResponse, error) {
	return h.listMutation(ctx, caller, req.Account, h.Service.AddToBlacklist)
}

func (h Handler) RemoveFromBlacklistHandler(ctx context.Context, caller string, address string) (httptransport.AckResponse, error) {
	return h.listMutation(ctx, caller, address, h.Service.RemoveFromBlacklist)
}

func (h Handler) AddToWhitelistHandler(ctx context.Context, caller string, req httptransport.ListMembershipRequest) (httptransport.AckResponse, error) {
	return h.listMutation(ctx, caller, req.Account, h.Service.AddToWhitelist)
}

func (h Handler) RemoveFromWhitelistHandler(ctx context.Context, caller string, address string) (httptransport.AckResponse, error) {
	return h.listMutation(ctx, caller, address, h.Service.RemoveFromWhitelist)
}

func (h Handler) BlacklistMembershipHandler(ctx context.Context, address string) (httptransport.ListMembershipResponse, error) {
	return h.listMembership(ctx, address, "blacklist", h.Service.IsBlacklisted)
}

func (h Handler) WhitelistMembershipHandler(ctx context.Context, address string) (httptransport.ListMembershipResponse, error) {
	return h.listMembership(ctx, address, "whitelist", h.Service.IsWhitelisted)
}

func (h Handler) AirdropHandler(ctx context.Context, caller string, req httptransport.AirdropRequest) (httptransport.AirdropResponse, error) {
	callerAddr, err := entities.ParseAddress(caller)
	if err != nil {
		return httptransport.AirdropResponse{}, err
	}
	recipients := make([]entities.Address, 0, len(req.Recipients))
	for _, raw := range req.Recipients {
		recipient, err := entities.ParseAddress(raw)
		if err != nil {
			return httptransport.AirdropResponse{}, err
		}
		recipients = append(recipients, recipient)
	}
	amounts := make([]*uint256.Int, 0, len(req.Amounts))
	for _, raw := range req.Amounts {
		amount, err := entities.ParseAmount(raw)
		if err != nil {
			return httptransport.AirdropResponse{}, err
		}
		amounts = append(amounts, amount)
	}

	total, err := h.Service.Airdrop(ctx, callerAddr, recipients, amounts)
	if err != nil {
		return httptransport.AirdropResponse{}, err
	}
	resp := httptransport.AirdropResponse{Status: "success"}
	resp.Data.TotalAmount = entities.FormatAmount(total)
	resp.Data.RecipientCount = len(recipients)
	return resp, nil
}

func (h Handler) TransferOwnershipHandler(ctx context.Context, caller string, req httptransport.TransferOwnershipRequest) (httptransport.AckResponse, error) {
	callerAddr, err := entities.ParseAddress(caller)
	if err != nil {
		return httptransport.AckResponse{}, err
	}
	newOwner, err := entities.ParseAddress(req.NewOwner)
	if err != nil {
		return httptransport.AckResponse{}, err
	}
	if err := h.Service.TransferOwnership(ctx, callerAddr, newOwner); err != nil {
		return httptransport.AckResponse{}, err
	}
	return httptransport.AckResponse{Status: "success"}, nil
}

func (h Handler) OwnerHandler(ctx context.Context) (httptransport.OwnerResponse, error) {
	owner, err := h.Service.OwnerAddress(ctx)
	if err != nil {
		return httptransport.OwnerResponse{}, err
	}
	resp := httptransport.OwnerResponse{Status: "success"}
	resp.Data.Owner = owner.Hex()
	return resp, nil
}

func (h Handler) listMutation(
	ctx context.Context,
	caller string,
	address string,
	op func(context.Context, entities.Address, entities.Address) error,
) (httptransport.AckResponse, error) {
	callerAddr, err := entities.ParseAddress(caller)
	if err != nil {
		return httptransport.AckResponse{}, err
	}
	account, err := entities.ParseAddress(address)
	if err != nil {
		return httptransport.AckResponse{}, err
	}
	if err := op(ctx, callerAddr, account); err != nil {
		return httptransport.AckResponse{}, err
	}
	return httptransport.AckResponse{Status: "success"}, nil
}

func (h Handler) listMembership(
	ctx context.Context,
	address string,
	list string,
	read func(context.Context, entities.Address) (bool, error),
) (httptransport.ListMembershipResponse, error) {
	account, err := entities.ParseAddress(address)
	if err != nil {
		return httptransport.ListMembershipResponse{}, err
	}
	member, err := read(ctx, account)
	if err != nil {
		return httptransport.ListMembershipResponse{}, err
	}
	resp := httptransport.ListMembershipResponse{Status: "success"}
	resp.Data.Account = account.Hex()
	resp.Data.List = list
	resp.Data.Member = member
	return resp, nil
}

func parsePair(caller string, other string, rawAmount string) (entities.Address, entities.Address, *uint256.Int, error) {
	callerAddr, err := entities.ParseAddress(caller)
	if err != nil {
		return entities.Address{}, entities.Address{}, nil, err
	}
	otherAddr, err := entities.ParseAddress(other)
	if err != nil {
		return entities.Address{}, entities.Address{}, nil, err
	}
	amount, err := entities.ParseAmount(rawAmount)
	if err != nil {
		return entities.Address{}, entities.Address{}, nil, err
	}
	return callerAddr, otherAddr, amount, nil
}
