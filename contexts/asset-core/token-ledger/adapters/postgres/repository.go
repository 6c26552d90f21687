package postgresadapter

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"custodia/contexts/asset-core/token-ledger/domain/entities"
	domainerrors "custodia/contexts/asset-core/token-ledger/domain/errors"
	"custodia/contexts/asset-core/token-ledger/ports"

	"github.com/google/uuid"
	"github.com/holiman/uint256"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	outboxStatusPending = "pending"
	outboxStatusSent    = "sent"
)

// Repository persists ledger state in Postgres. A ChangeSet applies inside
// one transaction together with its outbox rows.
type Repository struct {
	db     *gorm.DB
	logger *slog.Logger
}

func NewRepository(db *gorm.DB, logger *slog.Logger) *Repository {
	if logger == nil {
		logger = slog.Default()
	}
	return &Repository{
		db:     db,
		logger: logger,
	}
}

func (r *Repository) Initialized(ctx context.Context) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&ledgerMetaModel{}).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *Repository) Metadata(ctx context.Context) (entities.TokenMetadata, error) {
	row, err := r.metaRow(ctx)
	if err != nil {
		return entities.TokenMetadata{}, err
	}
	return entities.TokenMetadata{Name: row.Name, Symbol: row.Symbol}, nil
}

func (r *Repository) OwnerAddress(ctx context.Context) (entities.Address, error) {
	row, err := r.metaRow(ctx)
	if err != nil {
		return entities.Address{}, err
	}
	return entities.ParseAddress(row.OwnerAddress)
}

func (r *Repository) TotalSupply(ctx context.Context) (*uint256.Int, error) {
	row, err := r.metaRow(ctx)
	if err != nil {
		if errors.Is(err, domainerrors.ErrNotInitialized) {
			return entities.ZeroAmount(), nil
		}
		return nil, err
	}
	return entities.ParseAmount(row.TotalSupply)
}

func (r *Repository) BalanceOf(ctx context.Context, account entities.Address) (*uint256.Int, error) {
	row, found, err := r.balanceRow(ctx, account)
	if err != nil {
		return nil, err
	}
	if !found {
		return entities.ZeroAmount(), nil
	}
	return entities.ParseAmount(row.Balance)
}

func (r *Repository) LockedOf(ctx context.Context, account entities.Address) (*uint256.Int, error) {
	row, found, err := r.balanceRow(ctx, account)
	if err != nil {
		return nil, err
	}
	if !found {
		return entities.ZeroAmount(), nil
	}
	return entities.ParseAmount(row.Locked)
}

func (r *Repository) AllowanceOf(ctx context.Context, owner entities.Address, spender entities.Address) (*uint256.Int, error) {
	var row allowanceModel
	err := r.db.WithContext(ctx).
		Where("owner_address = ? AND spender_address = ?", owner.Hex(), spender.Hex()).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.ZeroAmount(), nil
		}
		return nil, err
	}
	return entities.ParseAmount(row.Amount)
}

func (r *Repository) IsBlacklisted(ctx context.Context, account entities.Address) (bool, error) {
	return r.isListed(ctx, account, listEntryBlacklist)
}

func (r *Repository) IsWhitelisted(ctx context.Context, account entities.Address) (bool, error) {
	return r.isListed(ctx, account, listEntryWhitelist)
}

func (r *Repository) Apply(ctx context.Context, changes ports.ChangeSet) error {
	now := time.Now().UTC()
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if changes.Metadata != nil {
			owner := ""
			if changes.Owner != nil {
				owner = changes.Owner.Hex()
			}
			supply := "0"
			if changes.TotalSupply != nil {
				supply = entities.FormatAmount(changes.TotalSupply)
			}
			row := ledgerMetaModel{
				ID:           ledgerMetaRowID,
				Name:         changes.Metadata.Name,
				Symbol:       changes.Metadata.Symbol,
				OwnerAddress: owner,
				TotalSupply:  supply,
				CreatedAt:    now,
				UpdatedAt:    now,
			}
			if err := tx.Create(&row).Error; err != nil {
				if isUniqueViolation(err) {
					return domainerrors.ErrAlreadyInitialized
				}
				return err
			}
		} else {
			updates := map[string]any{}
			if changes.Owner != nil {
				updates["owner_address"] = changes.Owner.Hex()
			}
			if changes.TotalSupply != nil {
				updates["total_supply"] = entities.FormatAmount(changes.TotalSupply)
			}
			if len(updates) > 0 {
				updates["updated_at"] = now
				result := tx.Model(&ledgerMetaModel{}).
					Where("id = ?", ledgerMetaRowID).
					Updates(updates)
				if result.Error != nil {
					return result.Error
				}
				if result.RowsAffected == 0 {
					return domainerrors.ErrNotInitialized
				}
			}
		}

		for account, balance := range changes.Balances {
			row := balanceModel{
				Address:   account.Hex(),
				Balance:   entities.FormatAmount(balance),
				Locked:    "0",
				UpdatedAt: now,
			}
			if err := tx.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "address"}},
				DoUpdates: clause.AssignmentColumns([]string{"balance", "updated_at"}),
			}).Create(&row).Error; err != nil {
				return err
			}
		}
		for account, locked := range changes.Locked {
			row := balanceModel{
				Address:   account.Hex(),
				Balance:   "0",
				Locked:    entities.FormatAmount(locked),
				UpdatedAt: now,
			}
			if err := tx.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "address"}},
				DoUpdates: clause.AssignmentColumns([]string{"locked", "updated_at"}),
			}).Create(&row).Error; err != nil {
				return err
			}
		}
		for key, amount := range changes.Allowances {
			row := allowanceModel{
				OwnerAddress:   key.Owner.Hex(),
				SpenderAddress: key.Spender.Hex(),
				Amount:         entities.FormatAmount(amount),
				UpdatedAt:      now,
			}
			if err := tx.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "owner_address"}, {Name: "spender_address"}},
				DoUpdates: clause.AssignmentColumns([]string{"amount", "updated_at"}),
			}).Create(&row).Error; err != nil {
				return err
			}
		}
		if err := applyListChanges(tx, changes.Blacklist, listEntryBlacklist, now); err != nil {
			return err
		}
		if err := applyListChanges(tx, changes.Whitelist, listEntryWhitelist, now); err != nil {
			return err
		}

		for _, envelope := range changes.Events {
			payload, err := json.Marshal(envelope)
			if err != nil {
				return err
			}
			if envelope.EventID == "" {
				return domainerrors.ErrInvalidEvent
			}
			row := outboxModel{
				OutboxID:     envelope.EventID,
				EventType:    envelope.EventType,
				PartitionKey: envelope.PartitionKey,
				Payload:      payload,
				Status:       outboxStatusPending,
				CreatedAt:    envelope.OccurredAt.UTC(),
			}
			if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&row).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *Repository) ListPendingOutbox(ctx context.Context, limit int) ([]ports.OutboxMessage, error) {
	if limit <= 0 {
		limit = 100
	}
	var rows []outboxModel
	if err := r.db.WithContext(ctx).
		Where("status = ?", outboxStatusPending).
		Order("created_at ASC").
		Limit(limit).
		Find(&rows).
		Error; err != nil {
		return nil, err
	}
	items := make([]ports.OutboxMessage, 0, len(rows))
	for _, row := range rows {
		items = append(items, ports.OutboxMessage{
			OutboxID:     row.OutboxID,
			EventType:    row.EventType,
			PartitionKey: row.PartitionKey,
			Payload:      row.Payload,
			CreatedAt:    row.CreatedAt,
		})
	}
	return items, nil
}

func (r *Repository) MarkOutboxSent(ctx context.Context, outboxID string, sentAt time.Time) error {
	ts := sentAt.UTC()
	result := r.db.WithContext(ctx).
		Model(&outboxModel{}).
		Where("outbox_id = ?", outboxID).
		Updates(map[string]any{
			"status":  outboxStatusSent,
			"sent_at": &ts,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domainerrors.ErrNotFound
	}
	return nil
}

func (r *Repository) metaRow(ctx context.Context) (ledgerMetaModel, error) {
	var row ledgerMetaModel
	err := r.db.WithContext(ctx).
		Where("id = ?", ledgerMetaRowID).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ledgerMetaModel{}, domainerrors.ErrNotInitialized
		}
		return ledgerMetaModel{}, err
	}
	return row, nil
}

func (r *Repository) balanceRow(ctx context.Context, account entities.Address) (balanceModel, bool, error) {
	var row balanceModel
	err := r.db.WithContext(ctx).
		Where("address = ?", account.Hex()).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return balanceModel{}, false, nil
		}
		return balanceModel{}, false, err
	}
	return row, true, nil
}

func (r *Repository) isListed(ctx context.Context, account entities.Address, list string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&listEntryModel{}).
		Where("address = ? AND list = ?", account.Hex(), list).
		Count(&count).
		Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func applyListChanges(tx *gorm.DB, changes map[entities.Address]bool, list string, now time.Time) error {
	for account, member := range changes {
		if member {
			row := listEntryModel{
				Address:   account.Hex(),
				List:      list,
				CreatedAt: now,
			}
			if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&row).Error; err != nil {
				return err
			}
			continue
		}
		if err := tx.
			Where("address = ? AND list = ?", account.Hex(), list).
			Delete(&listEntryModel{}).
			Error; err != nil {
			return err
		}
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

// SystemClock satisfies ports.Clock with wall-clock time.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now().UTC() }

// UUIDGenerator satisfies ports.IDGenerator.
type UUIDGenerator struct{}

func (UUIDGenerator) NewID(_ context.Context) (string, error) {
	return uuid.NewString(), nil
}
