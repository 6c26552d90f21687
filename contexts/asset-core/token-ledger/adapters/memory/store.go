package memory

import (
	"context"
	"encoding/json"
	"sort"
	"strings"
	"sync"
	"time"

	"custodia/contexts/asset-core/token-ledger/domain/entities"
	domainerrors "custodia/contexts/asset-core/token-ledger/domain/errors"
	"custodia/contexts/asset-core/token-ledger/ports"

	"github.com/google/uuid"
	"github.com/holiman/uint256"
)

// Store is the in-process ledger state. A ChangeSet applies under one lock,
// so state and outbox commit together.
type Store struct {
	mu sync.RWMutex

	initialized bool
	metadata    entities.TokenMetadata
	owner       entities.Address
	totalSupply *uint256.Int
	balances    map[entities.Address]*uint256.Int
	locked      map[entities.Address]*uint256.Int
	allowances  map[ports.AllowanceKey]*uint256.Int
	blacklist   map[entities.Address]bool
	whitelist   map[entities.Address]bool
	outbox      map[string]outboxRecord
}

type outboxRecord struct {
	Message ports.OutboxMessage
	Status  string
	SentAt  *time.Time
}

const (
	outboxStatusPending = "pending"
	outboxStatusSent    = "sent"
)

func NewStore() *Store {
	return &Store{
		totalSupply: new(uint256.Int),
		balances:    make(map[entities.Address]*uint256.Int),
		locked:      make(map[entities.Address]*uint256.Int),
		allowances:  make(map[ports.AllowanceKey]*uint256.Int),
		blacklist:   make(map[entities.Address]bool),
		whitelist:   make(map[entities.Address]bool),
		outbox:      make(map[string]outboxRecord),
	}
}

func (s *Store) Initialized(_ context.Context) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.initialized, nil
}

func (s *Store) Metadata(_ context.Context) (entities.TokenMetadata, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.initialized {
		return entities.TokenMetadata{}, domainerrors.ErrNotInitialized
	}
	return s.metadata, nil
}

func (s *Store) OwnerAddress(_ context.Context) (entities.Address, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.initialized {
		return entities.Address{}, domainerrors.ErrNotInitialized
	}
	return s.owner, nil
}

func (s *Store) TotalSupply(_ context.Context) (*uint256.Int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return entities.CloneAmount(s.totalSupply), nil
}

func (s *Store) BalanceOf(_ context.Context, account entities.Address) (*uint256.Int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return entities.CloneAmount(s.balances[account]), nil
}

func (s *Store) LockedOf(_ context.Context, account entities.Address) (*uint256.Int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return entities.CloneAmount(s.locked[account]), nil
}

func (s *Store) AllowanceOf(_ context.Context, owner entities.Address, spender entities.Address) (*uint256.Int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return entities.CloneAmount(s.allowances[ports.AllowanceKey{Owner: owner, Spender: spender}]), nil
}

func (s *Store) IsBlacklisted(_ context.Context, account entities.Address) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.blacklist[account], nil
}

func (s *Store) IsWhitelisted(_ context.Context, account entities.Address) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.whitelist[account], nil
}

func (s *Store) Apply(_ context.Context, changes ports.ChangeSet) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Outbox rows are validated first so a malformed event cannot leave a
	// partially applied change behind.
	staged := make([]outboxRecord, 0, len(changes.Events))
	for _, envelope := range changes.Events {
		outboxID := strings.TrimSpace(envelope.EventID)
		if outboxID == "" {
			return domainerrors.ErrInvalidEvent
		}
		payload, err := json.Marshal(envelope)
		if err != nil {
			return err
		}
		staged = append(staged, outboxRecord{
			Message: ports.OutboxMessage{
				OutboxID:     outboxID,
				EventType:    envelope.EventType,
				PartitionKey: envelope.PartitionKey,
				Payload:      payload,
				CreatedAt:    envelope.OccurredAt.UTC(),
			},
			Status: outboxStatusPending,
		})
	}

	if changes.Owner != nil {
		s.owner = *changes.Owner
	}
	if changes.Metadata != nil {
		s.metadata = *changes.Metadata
		s.initialized = true
	}
	if changes.TotalSupply != nil {
		s.totalSupply = entities.CloneAmount(changes.TotalSupply)
	}
	for account, balance := range changes.Balances {
		s.balances[account] = entities.CloneAmount(balance)
	}
	for account, locked := range changes.Locked {
		s.locked[account] = entities.CloneAmount(locked)
	}
	for key, amount := range changes.Allowances {
		s.allowances[key] = entities.CloneAmount(amount)
	}
	for account, member := range changes.Blacklist {
		s.blacklist[account] = member
	}
	for account, member := range changes.Whitelist {
		s.whitelist[account] = member
	}
	for _, record := range staged {
		s.outbox[record.Message.OutboxID] = record
	}
	return nil
}

func (s *Store) ListPendingOutbox(_ context.Context, limit int) ([]ports.OutboxMessage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit <= 0 {
		limit = 100
	}
	items := make([]ports.OutboxMessage, 0)
	for _, row := range s.outbox {
		if row.Status == outboxStatusPending {
			items = append(items, row.Message)
		}
	}
	sort.Slice(items, func(i, j int) bool {
		return items[i].CreatedAt.Before(items[j].CreatedAt)
	})
	if len(items) > limit {
		items = items[:limit]
	}
	return items, nil
}

func (s *Store) MarkOutboxSent(_ context.Context, outboxID string, sentAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	row, ok := s.outbox[strings.TrimSpace(outboxID)]
	if !ok {
		return domainerrors.ErrNotFound
	}
	ts := sentAt.UTC()
	row.Status = outboxStatusSent
	row.SentAt = &ts
	s.outbox[strings.TrimSpace(outboxID)] = row
	return nil
}

func (s *Store) Now() time.Time {
	return time.Now().UTC()
}

func (s *Store) NewID(_ context.Context) (string, error) {
	return uuid.NewString(), nil
}
