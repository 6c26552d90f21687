package memory_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"custodia/contexts/asset-core/token-ledger/adapters/memory"
	"custodia/contexts/asset-core/token-ledger/domain/entities"
	domainerrors "custodia/contexts/asset-core/token-ledger/domain/errors"
	"custodia/contexts/asset-core/token-ledger/ports"

	"github.com/holiman/uint256"
)

func storeAddr(t *testing.T, raw string) entities.Address {
	t.Helper()
	addr, err := entities.ParseAddress(raw)
	if err != nil {
		t.Fatalf("parse address: %v", err)
	}
	return addr
}

func envelope(id string, occurredAt time.Time) ports.EventEnvelope {
	return ports.EventEnvelope{
		EventID:          id,
		EventType:        "ledger.minted",
		OccurredAt:       occurredAt,
		SourceService:    "token-ledger",
		TraceID:          id,
		SchemaVersion:    1,
		PartitionKeyPath: "account",
		PartitionKey:     "0x0000000000000000000000000000000000000001",
		Data:             []byte(`{"amount":"1"}`),
	}
}

func TestApplyCommitsStateAndOutboxTogether(t *testing.T) {
	store := memory.NewStore()
	account := storeAddr(t, "0x0000000000000000000000000000000000000001")
	ctx := context.Background()

	err := store.Apply(ctx, ports.ChangeSet{
		Balances:    map[entities.Address]*uint256.Int{account: uint256.NewInt(42)},
		TotalSupply: uint256.NewInt(42),
		Events:      []ports.EventEnvelope{envelope("evt-1", time.Now())},
	})
	if err != nil {
		t.Fatalf("apply: %v", err)
	}

	balance, err := store.BalanceOf(ctx, account)
	if err != nil {
		t.Fatalf("balance: %v", err)
	}
	if balance.Uint64() != 42 {
		t.Fatalf("expected 42, got %d", balance.Uint64())
	}

	pending, err := store.ListPendingOutbox(ctx, 10)
	if err != nil {
		t.Fatalf("list pending: %v", err)
	}
	if len(pending) != 1 || pending[0].OutboxID != "evt-1" {
		t.Fatalf("expected one pending row evt-1, got %+v", pending)
	}
	if pending[0].EventType != "ledger.minted" {
		t.Fatalf("unexpected event type %s", pending[0].EventType)
	}
}

func TestApplyRejectsEventWithoutID(t *testing.T) {
	store := memory.NewStore()
	account := storeAddr(t, "0x0000000000000000000000000000000000000001")
	ctx := context.Background()

	err := store.Apply(ctx, ports.ChangeSet{
		Balances: map[entities.Address]*uint256.Int{account: uint256.NewInt(1)},
		Events:   []ports.EventEnvelope{envelope("   ", time.Now())},
	})
	if !errors.Is(err, domainerrors.ErrInvalidEvent) {
		t.Fatalf("expected invalid event, got %v", err)
	}

	// A rejected changeset must not leave partial state behind.
	balance, err := store.BalanceOf(ctx, account)
	if err != nil {
		t.Fatalf("balance: %v", err)
	}
	if !balance.IsZero() {
		t.Fatalf("balance should be untouched, got %d", balance.Uint64())
	}
}

func TestListPendingOutboxOrderAndLimit(t *testing.T) {
	store := memory.NewStore()
	ctx := context.Background()
	base := time.Now()

	err := store.Apply(ctx, ports.ChangeSet{Events: []ports.EventEnvelope{
		envelope("evt-late", base.Add(2*time.Second)),
		envelope("evt-early", base),
		envelope("evt-mid", base.Add(time.Second)),
	}})
	if err != nil {
		t.Fatalf("apply: %v", err)
	}

	pending, err := store.ListPendingOutbox(ctx, 2)
	if err != nil {
		t.Fatalf("list pending: %v", err)
	}
	if len(pending) != 2 {
		t.Fatalf("expected limit of 2, got %d", len(pending))
	}
	if pending[0].OutboxID != "evt-early" || pending[1].OutboxID != "evt-mid" {
		t.Fatalf("expected oldest first, got %s then %s", pending[0].OutboxID, pending[1].OutboxID)
	}
}

func TestMarkOutboxSent(t *testing.T) {
	store := memory.NewStore()
	ctx := context.Background()

	err := store.Apply(ctx, ports.ChangeSet{Events: []ports.EventEnvelope{
		envelope("evt-1", time.Now()),
	}})
	if err != nil {
		t.Fatalf("apply: %v", err)
	}

	if err := store.MarkOutboxSent(ctx, "evt-1", time.Now()); err != nil {
		t.Fatalf("mark sent: %v", err)
	}
	pending, err := store.ListPendingOutbox(ctx, 10)
	if err != nil {
		t.Fatalf("list pending: %v", err)
	}
	if len(pending) != 0 {
		t.Fatalf("sent rows must leave the pending set, got %d", len(pending))
	}

	err = store.MarkOutboxSent(ctx, "evt-missing", time.Now())
	if !errors.Is(err, domainerrors.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestReadsBeforeInitialization(t *testing.T) {
	store := memory.NewStore()
	ctx := context.Background()

	if _, err := store.Metadata(ctx); !errors.Is(err, domainerrors.ErrNotInitialized) {
		t.Fatalf("expected not initialized, got %v", err)
	}
	if _, err := store.OwnerAddress(ctx); !errors.Is(err, domainerrors.ErrNotInitialized) {
		t.Fatalf("expected not initialized, got %v", err)
	}

	supply, err := store.TotalSupply(ctx)
	if err != nil {
		t.Fatalf("total supply: %v", err)
	}
	if !supply.IsZero() {
		t.Fatalf("supply should start at zero")
	}
}

func TestBalanceReadsDoNotAliasStoreState(t *testing.T) {
	store := memory.NewStore()
	account := storeAddr(t, "0x0000000000000000000000000000000000000001")
	ctx := context.Background()

	err := store.Apply(ctx, ports.ChangeSet{
		Balances: map[entities.Address]*uint256.Int{account: uint256.NewInt(5)},
		Events:   []ports.EventEnvelope{envelope("evt-1", time.Now())},
	})
	if err != nil {
		t.Fatalf("apply: %v", err)
	}

	balance, err := store.BalanceOf(ctx, account)
	if err != nil {
		t.Fatalf("balance: %v", err)
	}
	balance.Add(balance, uint256.NewInt(100))

	again, err := store.BalanceOf(ctx, account)
	if err != nil {
		t.Fatalf("balance: %v", err)
	}
	if again.Uint64() != 5 {
		t.Fatalf("callers must not be able to mutate store state, got %d", again.Uint64())
	}
}
