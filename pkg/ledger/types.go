package ledger

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/vianovi/Mart-Bank-Project/pkg/money"
)

// Role is the closed set of account roles.
type Role string

const (
	RoleCustomer Role = "CUSTOMER"
	RoleAdmin    Role = "ADMIN"
	// RoleAdminPrimary is the distinguished bootstrap admin.
	RoleAdminPrimary Role = "ADMIN_PRIMARY"
)

// ParseRole validates a stored role string.
func ParseRole(raw string) (Role, error) {
	switch Role(raw) {
	case RoleCustomer, RoleAdmin, RoleAdminPrimary:
		return Role(raw), nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidRole, raw)
}

// String returns the stored form.
func (role Role) String() string {
	return string(role)
}

// CanAccessAdminPanel reports whether the role may open the admin panel.
func (role Role) CanAccessAdminPanel() bool {
	return role == RoleAdmin || role == RoleAdminPrimary
}

// CanAccessGatewayMenu reports whether the role sees the dual-mode
// admin/customer gateway menu.
func (role Role) CanAccessGatewayMenu() bool {
	return role == RoleAdminPrimary
}

// TransactionKind enumerates ledger record kinds. Direction is conveyed by
// the kind and by which account histories reference the record, never by
// the sign of the amount.
type TransactionKind string

const (
	KindDeposit      TransactionKind = "DEPOSIT"
	KindWithdraw     TransactionKind = "WITHDRAW"
	KindTransfer     TransactionKind = "TRANSFER"
	KindStorePayment TransactionKind = "STORE_PAYMENT"
)

// ParseTransactionKind validates a stored kind string.
func ParseTransactionKind(raw string) (TransactionKind, error) {
	switch TransactionKind(raw) {
	case KindDeposit, KindWithdraw, KindTransfer, KindStorePayment:
		return TransactionKind(raw), nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidTransactionKind, raw)
}

// String returns the stored form.
func (kind TransactionKind) String() string {
	return string(kind)
}

var usernamePattern = regexp.MustCompile(`^[A-Za-z0-9_]{3,20}$`)

// NormalizeUsername validates the username shape and returns the trimmed
// original plus the lowercase lookup key.
func NormalizeUsername(raw string) (string, string, error) {
	trimmed := strings.TrimSpace(raw)
	if !usernamePattern.MatchString(trimmed) {
		return "", "", fmt.Errorf("%w: 3-20 alphanumeric or underscore characters", ErrInvalidUsername)
	}
	return trimmed, strings.ToLower(trimmed), nil
}

var emailPattern = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

// ValidateEmail accepts an empty email (optional field) or a well-formed one.
func ValidateEmail(raw string) (string, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return "", nil
	}
	if !emailPattern.MatchString(trimmed) {
		return "", fmt.Errorf("%w: %q", ErrInvalidEmail, trimmed)
	}
	return trimmed, nil
}

// Account is a user of the bank and store. Balance never persists negative;
// histories are append-only.
type Account struct {
	AccountID        string
	Username         string
	FullName         string
	Email            string
	PasswordHash     string
	PinHash          string
	Role             Role
	Balance          money.Value
	TransactionIDs   []string
	OrderIDs         []string
	FailedLoginCount int
	LockedUntil      *time.Time
	CreatedAt        time.Time
}

// HasPin reports whether a transaction PIN has been set.
func (account Account) HasPin() bool {
	return account.PinHash != ""
}

// IsLocked reports whether the account is under a login lockout at the
// given instant. Expired locks behave as unlocked without any transition.
func (account Account) IsLocked(now time.Time) bool {
	return account.LockedUntil != nil && now.Before(*account.LockedUntil)
}

// RemainingLock returns how much lockout time is left, zero when unlocked.
func (account Account) RemainingLock(now time.Time) time.Duration {
	if !account.IsLocked(now) {
		return 0
	}
	return account.LockedUntil.Sub(now)
}

// Product is a catalog entry. Stock never persists negative.
type Product struct {
	ProductID   string
	Name        string
	Price       money.Value
	Stock       int64
	Category    string
	Description string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// TransactionRecord is an immutable ledger line. Amount is always positive.
type TransactionRecord struct {
	TransactionID               string
	SourceAccountID             string
	DestinationAccountID        string
	Kind                        TransactionKind
	Amount                      money.Value
	Note                        string
	Timestamp                   time.Time
	ResultingSourceBalance      money.Value
	ResultingDestinationBalance *money.Value
}

// OrderRecord is an immutable store order. Line snapshots are decoupled
// from live products so history survives later edits and deletions.
type OrderRecord struct {
	OrderID        string
	BuyerAccountID string
	Lines          []CartLine
	Total          money.Value
	PaymentMethod  string
	Status         string
	Timestamp      time.Time
}

// PinAuthorizer gates risk-bearing operations behind PIN re-entry. The
// console implementation prompts interactively; tests substitute stubs.
type PinAuthorizer interface {
	AuthorizePin(ctx context.Context, account Account, purpose string) error
}

// Store is the persistence contract used by Service and its collaborators.
type Store interface {
	WithTx(ctx context.Context, fn func(ctx context.Context, txStore Store) error) error

	GetAccount(ctx context.Context, accountID string) (Account, error)
	GetAccountByUsername(ctx context.Context, username string) (Account, error)
	ListAccounts(ctx context.Context) ([]Account, error)
	InsertAccount(ctx context.Context, account Account) error
	SaveAccount(ctx context.Context, account Account) error

	GetProduct(ctx context.Context, productID string) (Product, error)
	ListProducts(ctx context.Context) ([]Product, error)
	InsertProduct(ctx context.Context, product Product) error
	SaveProduct(ctx context.Context, product Product) error
	DeleteProduct(ctx context.Context, productID string) (bool, error)

	InsertTransaction(ctx context.Context, record TransactionRecord) error
	GetTransaction(ctx context.Context, transactionID string) (TransactionRecord, error)
	ListTransactions(ctx context.Context) ([]TransactionRecord, error)

	InsertOrder(ctx context.Context, record OrderRecord) error
	GetOrder(ctx context.Context, orderID string) (OrderRecord, error)
	ListOrders(ctx context.Context) ([]OrderRecord, error)
}
