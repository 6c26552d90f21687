package ports

import (
	"context"
	"time"

	"custodia/contexts/asset-core/token-ledger/domain/entities"
	contractsv1 "custodia/contracts/gen/events/v1"

	"github.com/holiman/uint256"
)

// EventEnvelope is the canonical envelope written to the outbox.
type EventEnvelope = contractsv1.Envelope

// AllowanceKey identifies a delegated-spend grant.
type AllowanceKey struct {
	Owner   entities.Address
	Spender entities.Address
}

// ChangeSet is the full effect of one ledger operation. Absent maps mean
// "no change"; present entries carry the absolute new value for that record.
// Events commit together with the state change or not at all.
type ChangeSet struct {
	Balances    map[entities.Address]*uint256.Int
	Locked      map[entities.Address]*uint256.Int
	Allowances  map[AllowanceKey]*uint256.Int
	Blacklist   map[entities.Address]bool
	Whitelist   map[entities.Address]bool
	TotalSupply *uint256.Int
	Owner       *entities.Address
	Metadata    *entities.TokenMetadata
	Events      []EventEnvelope
}

// StateReader exposes point reads of ledger state. Absent records read as
// zero/false; reads never mutate.
type StateReader interface {
	Initialized(ctx context.Context) (bool, error)
	Metadata(ctx context.Context) (entities.TokenMetadata, error)
	OwnerAddress(ctx context.Context) (entities.Address, error)
	TotalSupply(ctx context.Context) (*uint256.Int, error)
	BalanceOf(ctx context.Context, account entities.Address) (*uint256.Int, error)
	LockedOf(ctx context.Context, account entities.Address) (*uint256.Int, error)
	AllowanceOf(ctx context.Context, owner entities.Address, spender entities.Address) (*uint256.Int, error)
	IsBlacklisted(ctx context.Context, account entities.Address) (bool, error)
	IsWhitelisted(ctx context.Context, account entities.Address) (bool, error)
}

// StateWriter applies one ChangeSet atomically: either every record and every
// outbox event lands, or none do.
type StateWriter interface {
	Apply(ctx context.Context, changes ChangeSet) error
}

// LedgerStore is the storage collaborator of the ledger state machine.
type LedgerStore interface {
	StateReader
	StateWriter
}

type OutboxMessage struct {
	OutboxID     string
	EventType    string
	PartitionKey string
	Payload      []byte
	CreatedAt    time.Time
}

// OutboxRepository feeds the relay worker.
type OutboxRepository interface {
	ListPendingOutbox(ctx context.Context, limit int) ([]OutboxMessage, error)
	MarkOutboxSent(ctx context.Context, outboxID string, sentAt time.Time) error
}

// EventPublisher delivers envelopes to the message bus.
type EventPublisher interface {
	Publish(ctx context.Context, topic string, event EventEnvelope) error
}

type Clock interface {
	Now() time.Time
}

type IDGenerator interface {
	NewID(ctx context.Context) (string, error)
}
