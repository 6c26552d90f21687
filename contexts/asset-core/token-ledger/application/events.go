package application

import (
	"context"
	"encoding/json"
	"strings"

	"custodia/contexts/asset-core/token-ledger/ports"
)

const sourceService = "token-ledger"

const (
	eventTypeMinted               = "ledger.minted"
	eventTypeBurned               = "ledger.burned"
	eventTypeTransferred          = "ledger.transferred"
	eventTypeApprovalSet          = "ledger.approval_set"
	eventTypeTokensLocked         = "ledger.tokens_locked"
	eventTypeTokensUnlocked       = "ledger.tokens_unlocked"
	eventTypeBlacklistAdded       = "ledger.blacklist_added"
	eventTypeBlacklistRemoved     = "ledger.blacklist_removed"
	eventTypeWhitelistAdded       = "ledger.whitelist_added"
	eventTypeWhitelistRemoved     = "ledger.whitelist_removed"
	eventTypeAirdropCompleted     = "ledger.airdrop_completed"
	eventTypeOwnershipTransferred = "ledger.ownership_transferred"
)

func (s *Service) newEvent(
	ctx context.Context,
	eventType string,
	partitionKeyPath string,
	partitionKey string,
	data map[string]any,
) (ports.EventEnvelope, error) {
	eventID, err := s.newID(ctx)
	if err != nil {
		return ports.EventEnvelope{}, err
	}
	raw, err := json.Marshal(data)
	if err != nil {
		return ports.EventEnvelope{}, err
	}
	return ports.EventEnvelope{
		EventID:          strings.TrimSpace(eventID),
		EventType:        eventType,
		OccurredAt:       s.now(),
		SourceService:    sourceService,
		TraceID:          strings.TrimSpace(eventID),
		SchemaVersion:    1,
		PartitionKeyPath: partitionKeyPath,
		PartitionKey:     partitionKey,
		Data:             raw,
	}, nil
}

func (s *Service) newID(ctx context.Context) (string, error) {
	return s.IDGen.NewID(ctx)
}
