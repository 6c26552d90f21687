package unit

import (
	"context"
	"errors"
	"testing"

	tokenledger "custodia/contexts/asset-core/token-ledger"
	"custodia/contexts/asset-core/token-ledger/domain/entities"
	domainerrors "custodia/contexts/asset-core/token-ledger/domain/errors"
	httptransport "custodia/contexts/asset-core/token-ledger/transport/http"
)

const (
	ownerHex     = "0x0000000000000000000000000000000000000001"
	holderHex    = "0x0000000000000000000000000000000000000002"
	recipientHex = "0x0000000000000000000000000000000000000003"
)

func newLedgerModule(t *testing.T) tokenledger.Module {
	t.Helper()
	module := tokenledger.NewInMemoryModule(nil)

	owner, err := entities.ParseAddress(ownerHex)
	if err != nil {
		t.Fatalf("owner address: %v", err)
	}
	supply, err := entities.ParseAmount("1000")
	if err != nil {
		t.Fatalf("initial supply: %v", err)
	}
	meta, err := entities.NewTokenMetadata("Custodia Token", "CSTD")
	if err != nil {
		t.Fatalf("metadata: %v", err)
	}
	if err := module.Service.Initialize(context.Background(), meta, owner, supply); err != nil {
		t.Fatalf("initialize: %v", err)
	}
	return module
}

func TestMintHandlerRequiresOwner(t *testing.T) {
	module := newLedgerModule(t)

	_, err := module.Handler.MintHandler(
		context.Background(),
		holderHex,
		httptransport.MintRequest{To: holderHex, Amount: "10"},
	)
	if !errors.Is(err, domainerrors.ErrUnauthorized) {
		t.Fatalf("expected unauthorized, got %v", err)
	}

	_, err = module.Handler.MintHandler(
		context.Background(),
		ownerHex,
		httptransport.MintRequest{To: holderHex, Amount: "10"},
	)
	if err != nil {
		t.Fatalf("owner mint should succeed: %v", err)
	}
}

func TestTransferHandlerRespectsLockedBalance(t *testing.T) {
	module := newLedgerModule(t)
	ctx := context.Background()

	if _, err := module.Handler.TransferHandler(ctx, ownerHex, httptransport.TransferRequest{
		To: holderHex, Amount: "100",
	}); err != nil {
		t.Fatalf("fund holder: %v", err)
	}
	if _, err := module.Handler.LockHandler(ctx, ownerHex, holderHex, httptransport.LockRequest{
		Amount: "80",
	}); err != nil {
		t.Fatalf("lock: %v", err)
	}

	_, err := module.Handler.TransferHandler(ctx, holderHex, httptransport.TransferRequest{
		To: recipientHex, Amount: "30",
	})
	if !errors.Is(err, domainerrors.ErrLockedFunds) {
		t.Fatalf("expected locked funds, got %v", err)
	}

	if _, err := module.Handler.TransferHandler(ctx, holderHex, httptransport.TransferRequest{
		To: recipientHex, Amount: "20",
	}); err != nil {
		t.Fatalf("transfer within unlocked remainder should succeed: %v", err)
	}

	account, err := module.Handler.AccountHandler(ctx, holderHex)
	if err != nil {
		t.Fatalf("account read: %v", err)
	}
	if account.Data.Balance != "80" || account.Data.Locked != "80" || account.Data.Unlocked != "0" {
		t.Fatalf("unexpected account view: %+v", account.Data)
	}
}

func TestAirdropHandlerReportsTotals(t *testing.T) {
	module := newLedgerModule(t)

	resp, err := module.Handler.AirdropHandler(context.Background(), ownerHex, httptransport.AirdropRequest{
		Recipients: []string{holderHex, recipientHex, holderHex},
		Amounts:    []string{"10", "20", "5"},
	})
	if err != nil {
		t.Fatalf("airdrop: %v", err)
	}
	if resp.Data.TotalAmount != "35" {
		t.Fatalf("expected total 35, got %s", resp.Data.TotalAmount)
	}
	if resp.Data.RecipientCount != 3 {
		t.Fatalf("expected recipient count 3, got %d", resp.Data.RecipientCount)
	}

	account, err := module.Handler.AccountHandler(context.Background(), holderHex)
	if err != nil {
		t.Fatalf("account read: %v", err)
	}
	if account.Data.Balance != "15" {
		t.Fatalf("duplicate recipients must accumulate, got %s", account.Data.Balance)
	}

	supply, err := module.Handler.SupplyHandler(context.Background())
	if err != nil {
		t.Fatalf("supply read: %v", err)
	}
	if supply.Data.TotalSupply != "1035" {
		t.Fatalf("expected supply 1035, got %s", supply.Data.TotalSupply)
	}
}

func TestAirdropHandlerRejectsWholeBatch(t *testing.T) {
	module := newLedgerModule(t)
	ctx := context.Background()

	if _, err := module.Handler.AddToBlacklistHandler(ctx, ownerHex, httptransport.ListMembershipRequest{
		Account: recipientHex,
	}); err != nil {
		t.Fatalf("blacklist: %v", err)
	}

	_, err := module.Handler.AirdropHandler(ctx, ownerHex, httptransport.AirdropRequest{
		Recipients: []string{holderHex, recipientHex},
		Amounts:    []string{"10", "20"},
	})
	if !errors.Is(err, domainerrors.ErrBlacklisted) {
		t.Fatalf("expected blacklisted, got %v", err)
	}

	account, err := module.Handler.AccountHandler(ctx, holderHex)
	if err != nil {
		t.Fatalf("account read: %v", err)
	}
	if account.Data.Balance != "0" {
		t.Fatalf("rejected airdrop must not credit anyone, got %s", account.Data.Balance)
	}
}

func TestBlacklistHandlerFlow(t *testing.T) {
	module := newLedgerModule(t)
	ctx := context.Background()

	if _, err := module.Handler.AddToBlacklistHandler(ctx, ownerHex, httptransport.ListMembershipRequest{
		Account: holderHex,
	}); err != nil {
		t.Fatalf("blacklist add: %v", err)
	}

	membership, err := module.Handler.BlacklistMembershipHandler(ctx, holderHex)
	if err != nil {
		t.Fatalf("membership read: %v", err)
	}
	if !membership.Data.Member || membership.Data.List != "blacklist" {
		t.Fatalf("expected blacklist membership, got %+v", membership.Data)
	}

	_, err = module.Handler.AddToBlacklistHandler(ctx, ownerHex, httptransport.ListMembershipRequest{
		Account: holderHex,
	})
	if !errors.Is(err, domainerrors.ErrAlreadyListed) {
		t.Fatalf("expected already listed, got %v", err)
	}

	if _, err := module.Handler.RemoveFromBlacklistHandler(ctx, ownerHex, holderHex); err != nil {
		t.Fatalf("blacklist remove: %v", err)
	}
	_, err = module.Handler.RemoveFromBlacklistHandler(ctx, ownerHex, holderHex)
	if !errors.Is(err, domainerrors.ErrNotListed) {
		t.Fatalf("expected not listed, got %v", err)
	}
}

func TestApproveAndAllowanceHandlers(t *testing.T) {
	module := newLedgerModule(t)
	ctx := context.Background()

	if _, err := module.Handler.ApproveHandler(ctx, ownerHex, httptransport.ApproveRequest{
		Spender: holderHex, Amount: "40",
	}); err != nil {
		t.Fatalf("approve: %v", err)
	}
	if _, err := module.Handler.TransferFromHandler(ctx, holderHex, httptransport.TransferFromRequest{
		From: ownerHex, To: recipientHex, Amount: "25",
	}); err != nil {
		t.Fatalf("transfer from: %v", err)
	}

	allowance, err := module.Handler.AllowanceHandler(ctx, ownerHex, holderHex)
	if err != nil {
		t.Fatalf("allowance read: %v", err)
	}
	if allowance.Data.Allowance != "15" {
		t.Fatalf("expected remaining allowance 15, got %s", allowance.Data.Allowance)
	}
}

func TestHandlerRejectsMalformedInput(t *testing.T) {
	module := newLedgerModule(t)
	ctx := context.Background()

	_, err := module.Handler.TransferHandler(ctx, "not-an-address", httptransport.TransferRequest{
		To: holderHex, Amount: "1",
	})
	if !errors.Is(err, domainerrors.ErrInvalidAddress) {
		t.Fatalf("expected invalid address, got %v", err)
	}

	_, err = module.Handler.TransferHandler(ctx, ownerHex, httptransport.TransferRequest{
		To: holderHex, Amount: "ten",
	})
	if !errors.Is(err, domainerrors.ErrInvalidAmount) {
		t.Fatalf("expected invalid amount, got %v", err)
	}
}

func TestOwnershipTransferHandler(t *testing.T) {
	module := newLedgerModule(t)
	ctx := context.Background()

	if _, err := module.Handler.TransferOwnershipHandler(ctx, ownerHex, httptransport.TransferOwnershipRequest{
		NewOwner: holderHex,
	}); err != nil {
		t.Fatalf("transfer ownership: %v", err)
	}

	owner, err := module.Handler.OwnerHandler(ctx)
	if err != nil {
		t.Fatalf("owner read: %v", err)
	}
	if owner.Data.Owner != holderHex {
		t.Fatalf("expected owner %s, got %s", holderHex, owner.Data.Owner)
	}

	_, err = module.Handler.MintHandler(ctx, ownerHex, httptransport.MintRequest{
		To: recipientHex, Amount: "1",
	})
	if !errors.Is(err, domainerrors.ErrUnauthorized) {
		t.Fatalf("previous owner should lose privileges, got %v", err)
	}
}

func TestMetaHandler(t *testing.T) {
	module := newLedgerModule(t)

	meta, err := module.Handler.MetaHandler(context.Background())
	if err != nil {
		t.Fatalf("meta read: %v", err)
	}
	if meta.Data.Name != "Custodia Token" || meta.Data.Symbol != "CSTD" || meta.Data.Owner != ownerHex {
		t.Fatalf("unexpected metadata: %+v", meta.Data)
	}
}
