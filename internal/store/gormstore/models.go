package gormstore

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Account represents the accounts table. UsernameKey holds the lowercase
// form and carries the uniqueness constraint, so lookups stay
// case-insensitive regardless of the database collation.
type Account struct {
	AccountID         string         `gorm:"type:uuid;primaryKey"`
	Username          string         `gorm:"not null"`
	UsernameKey       string         `gorm:"not null;index:uniq_accounts_username_key,unique"`
	FullName          string         `gorm:""`
	Email             string         `gorm:""`
	PasswordHash      string         `gorm:"not null"`
	PinHash           string         `gorm:""`
	Role              string         `gorm:"not null"`
	BalanceMinorUnits int64          `gorm:"not null"`
	Currency          string         `gorm:"not null"`
	TransactionIDs    datatypes.JSON `gorm:"not null"`
	OrderIDs          datatypes.JSON `gorm:"not null"`
	FailedLoginCount  int            `gorm:"not null"`
	LockedUntil       *time.Time     `gorm:""`
	CreatedAt         time.Time      `gorm:"not null"`
}

func (Account) TableName() string { return "accounts" }

func (account *Account) BeforeCreate(tx *gorm.DB) error {
	if account.AccountID == "" {
		account.AccountID = uuid.NewString()
	}
	return nil
}

// Product represents the products table.
type Product struct {
	ProductID       string    `gorm:"type:uuid;primaryKey"`
	Name            string    `gorm:"not null"`
	PriceMinorUnits int64     `gorm:"not null"`
	Currency        string    `gorm:"not null"`
	Stock           int64     `gorm:"not null"`
	Category        string    `gorm:"not null;index:idx_products_category"`
	Description     string    `gorm:""`
	CreatedAt       time.Time `gorm:"not null"`
	UpdatedAt       time.Time `gorm:"not null"`
}

func (Product) TableName() string { return "products" }

func (product *Product) BeforeCreate(tx *gorm.DB) error {
	if product.ProductID == "" {
		product.ProductID = uuid.NewString()
	}
	return nil
}

// Transaction represents the transactions table. Resulting balances are
// snapshots taken when the record was written.
type Transaction struct {
	TransactionID               string    `gorm:"type:uuid;primaryKey"`
	SourceAccountID             string    `gorm:"type:uuid;not null;index:idx_transactions_source_created,priority:1"`
	DestinationAccountID        string    `gorm:"type:uuid;index:idx_transactions_destination"`
	Kind                        string    `gorm:"not null"`
	AmountMinorUnits            int64     `gorm:"not null"`
	Currency                    string    `gorm:"not null"`
	Note                        string    `gorm:""`
	Timestamp                   time.Time `gorm:"not null;index:idx_transactions_source_created,priority:2"`
	ResultingSourceBalance      int64     `gorm:"not null"`
	ResultingDestinationBalance *int64    `gorm:""`
}

func (Transaction) TableName() string { return "transactions" }

func (transaction *Transaction) BeforeCreate(tx *gorm.DB) error {
	if transaction.TransactionID == "" {
		transaction.TransactionID = uuid.NewString()
	}
	return nil
}

// Order represents the orders table. Lines hold the priced cart snapshot
// as JSON so reports survive later catalog edits.
type Order struct {
	OrderID         string         `gorm:"type:uuid;primaryKey"`
	BuyerAccountID  string         `gorm:"type:uuid;not null;index:idx_orders_buyer"`
	Lines           datatypes.JSON `gorm:"not null"`
	TotalMinorUnits int64          `gorm:"not null"`
	Currency        string         `gorm:"not null"`
	PaymentMethod   string         `gorm:"not null"`
	Status          string         `gorm:"not null"`
	Timestamp       time.Time      `gorm:"not null"`
}

func (Order) TableName() string { return "orders" }

func (order *Order) BeforeCreate(tx *gorm.DB) error {
	if order.OrderID == "" {
		order.OrderID = uuid.NewString()
	}
	return nil
}

// SystemConfig represents the singleton configuration row.
type SystemConfig struct {
	ConfigID          string         `gorm:"primaryKey"`
	StoreName         string         `gorm:"not null"`
	Categories        datatypes.JSON `gorm:"not null"`
	AdminBootstrapped bool           `gorm:"not null"`
	SetupComplete     bool           `gorm:"not null"`
	MaintenanceActive bool           `gorm:"not null"`
	MaintenanceUntil  *time.Time     `gorm:""`
}

func (SystemConfig) TableName() string { return "system_configs" }

// Models lists every table for migration.
func Models() []any {
	return []any{&Account{}, &Product{}, &Transaction{}, &Order{}, &SystemConfig{}}
}
