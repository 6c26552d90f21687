package postgresadapter

import (
	"time"
)

// ledgerMetaModel is a single-row table carrying token metadata, the current
// owner, and the running total supply.
type ledgerMetaModel struct {
	ID           int    `gorm:"primaryKey"`
	Name         string `gorm:"size:128;not null"`
	Symbol       string `gorm:"size:32;not null"`
	OwnerAddress string `gorm:"size:42;not null"`
	TotalSupply  string `gorm:"type:numeric(78,0);not null;default:0"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func (ledgerMetaModel) TableName() string { return "ledger_meta" }

const ledgerMetaRowID = 1

// balanceModel keeps gross balance and locked amount side by side so the
// lock bound can be inspected per row.
type balanceModel struct {
	Address   string `gorm:"primaryKey;size:42"`
	Balance   string `gorm:"type:numeric(78,0);not null;default:0"`
	Locked    string `gorm:"type:numeric(78,0);not null;default:0"`
	UpdatedAt time.Time
}

func (balanceModel) TableName() string { return "ledger_balances" }

type allowanceModel struct {
	OwnerAddress   string `gorm:"primaryKey;size:42"`
	SpenderAddress string `gorm:"primaryKey;size:42"`
	Amount         string `gorm:"type:numeric(78,0);not null;default:0"`
	UpdatedAt      time.Time
}

func (allowanceModel) TableName() string { return "ledger_allowances" }

type listEntryModel struct {
	Address   string `gorm:"primaryKey;size:42"`
	List      string `gorm:"primaryKey;size:16"`
	CreatedAt time.Time
}

func (listEntryModel) TableName() string { return "ledger_list_entries" }

const (
	listEntryBlacklist = "blacklist"
	listEntryWhitelist = "whitelist"
)

type outboxModel struct {
	OutboxID     string `gorm:"primaryKey;size:36"`
	EventType    string `gorm:"size:64;not null;index"`
	PartitionKey string `gorm:"size:64"`
	Payload      []byte `gorm:"not null"`
	Status       string `gorm:"size:16;not null;index"`
	CreatedAt    time.Time
	SentAt       *time.Time
}

func (outboxModel) TableName() string { return "ledger_outbox" }

// Models lists every table for migration at bootstrap.
func Models() []any {
	return []any{
		&ledgerMetaModel{},
		&balanceModel{},
		&allowanceModel{},
		&listEntryModel{},
		&outboxModel{},
	}
}
