// Package memstore provides an in-memory ledger.Store. It backs tests and
// keeps transaction semantics honest: WithTx snapshots state and rolls back
// on error, so partial-effect bugs surface the same way they would against
// the real store.
package memstore

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/vianovi/Mart-Bank-Project/pkg/ledger"
)

// Store implements ledger.Store over process memory.
type Store struct {
	mutex        sync.Mutex
	accounts     map[string]ledger.Account
	products     map[string]ledger.Product
	transactions map[string]ledger.TransactionRecord
	orders       map[string]ledger.OrderRecord
	inTx         bool
}

// New returns an empty Store.
func New() *Store {
	return &Store{
		accounts:     make(map[string]ledger.Account),
		products:     make(map[string]ledger.Product),
		transactions: make(map[string]ledger.TransactionRecord),
		orders:       make(map[string]ledger.OrderRecord),
	}
}

func copyAccount(account ledger.Account) ledger.Account {
	duplicate := account
	duplicate.TransactionIDs = append([]string(nil), account.TransactionIDs...)
	duplicate.OrderIDs = append([]string(nil), account.OrderIDs...)
	return duplicate
}

func (store *Store) snapshot() (map[string]ledger.Account, map[string]ledger.Product, map[string]ledger.TransactionRecord, map[string]ledger.OrderRecord) {
	accounts := make(map[string]ledger.Account, len(store.accounts))
	for key, account := range store.accounts {
		accounts[key] = copyAccount(account)
	}
	products := make(map[string]ledger.Product, len(store.products))
	for key, product := range store.products {
		products[key] = product
	}
	transactions := make(map[string]ledger.TransactionRecord, len(store.transactions))
	for key, record := range store.transactions {
		transactions[key] = record
	}
	orders := make(map[string]ledger.OrderRecord, len(store.orders))
	for key, order := range store.orders {
		orders[key] = order
	}
	return accounts, products, transactions, orders
}

// WithTx runs fn against the store, restoring the pre-call state when fn
// returns an error.
func (store *Store) WithTx(ctx context.Context, fn func(ctx context.Context, txStore ledger.Store) error) error {
	store.mutex.Lock()
	accounts, products, transactions, orders := store.snapshot()
	store.inTx = true
	store.mutex.Unlock()
	err := fn(ctx, store)
	store.mutex.Lock()
	defer store.mutex.Unlock()
	store.inTx = false
	if err != nil {
		store.accounts = accounts
		store.products = products
		store.transactions = transactions
		store.orders = orders
	}
	return err
}

// GetAccount looks an account up by id.
func (store *Store) GetAccount(_ context.Context, accountID string) (ledger.Account, error) {
	store.mutex.Lock()
	defer store.mutex.Unlock()
	account, found := store.accounts[accountID]
	if !found {
		return ledger.Account{}, fmt.Errorf("%w: %q", ledger.ErrUnknownAccount, accountID)
	}
	return copyAccount(account), nil
}

// GetAccountByUsername looks an account up case-insensitively.
func (store *Store) GetAccountByUsername(_ context.Context, username string) (ledger.Account, error) {
	store.mutex.Lock()
	defer store.mutex.Unlock()
	needle := strings.TrimSpace(username)
	for _, account := range store.accounts {
		if strings.EqualFold(account.Username, needle) {
			return copyAccount(account), nil
		}
	}
	return ledger.Account{}, fmt.Errorf("%w: %q", ledger.ErrUnknownAccount, username)
}

// ListAccounts returns every account.
func (store *Store) ListAccounts(_ context.Context) ([]ledger.Account, error) {
	store.mutex.Lock()
	defer store.mutex.Unlock()
	accounts := make([]ledger.Account, 0, len(store.accounts))
	for _, account := range store.accounts {
		accounts = append(accounts, copyAccount(account))
	}
	return accounts, nil
}

// InsertAccount adds a new account, refusing duplicate usernames.
func (store *Store) InsertAccount(_ context.Context, account ledger.Account) error {
	store.mutex.Lock()
	defer store.mutex.Unlock()
	for _, existing := range store.accounts {
		if strings.EqualFold(existing.Username, account.Username) {
			return fmt.Errorf("%w: %q", ledger.ErrDuplicateUsername, account.Username)
		}
	}
	store.accounts[account.AccountID] = copyAccount(account)
	return nil
}

// SaveAccount upserts an account.
func (store *Store) SaveAccount(_ context.Context, account ledger.Account) error {
	store.mutex.Lock()
	defer store.mutex.Unlock()
	store.accounts[account.AccountID] = copyAccount(account)
	return nil
}

// GetProduct looks a product up by id.
func (store *Store) GetProduct(_ context.Context, productID string) (ledger.Product, error) {
	store.mutex.Lock()
	defer store.mutex.Unlock()
	product, found := store.products[productID]
	if !found {
		return ledger.Product{}, fmt.Errorf("%w: %q", ledger.ErrUnknownProduct, productID)
	}
	return product, nil
}

// ListProducts returns every product.
func (store *Store) ListProducts(_ context.Context) ([]ledger.Product, error) {
	store.mutex.Lock()
	defer store.mutex.Unlock()
	products := make([]ledger.Product, 0, len(store.products))
	for _, product := range store.products {
		products = append(products, product)
	}
	return products, nil
}

// InsertProduct adds a product.
func (store *Store) InsertProduct(_ context.Context, product ledger.Product) error {
	store.mutex.Lock()
	defer store.mutex.Unlock()
	store.products[product.ProductID] = product
	return nil
}

// SaveProduct upserts a product.
func (store *Store) SaveProduct(_ context.Context, product ledger.Product) error {
	store.mutex.Lock()
	defer store.mutex.Unlock()
	store.products[product.ProductID] = product
	return nil
}

// DeleteProduct removes a product, reporting whether it existed.
func (store *Store) DeleteProduct(_ context.Context, productID string) (bool, error) {
	store.mutex.Lock()
	defer store.mutex.Unlock()
	if _, found := store.products[productID]; !found {
		return false, nil
	}
	delete(store.products, productID)
	return true, nil
}

// InsertTransaction appends an immutable transaction record.
func (store *Store) InsertTransaction(_ context.Context, record ledger.TransactionRecord) error {
	store.mutex.Lock()
	defer store.mutex.Unlock()
	store.transactions[record.TransactionID] = record
	return nil
}

// GetTransaction looks a transaction record up by id.
func (store *Store) GetTransaction(_ context.Context, transactionID string) (ledger.TransactionRecord, error) {
	store.mutex.Lock()
	defer store.mutex.Unlock()
	record, found := store.transactions[transactionID]
	if !found {
		return ledger.TransactionRecord{}, fmt.Errorf("%w: %q", ledger.ErrUnknownTransaction, transactionID)
	}
	return record, nil
}

// ListTransactions returns every transaction record.
func (store *Store) ListTransactions(_ context.Context) ([]ledger.TransactionRecord, error) {
	store.mutex.Lock()
	defer store.mutex.Unlock()
	records := make([]ledger.TransactionRecord, 0, len(store.transactions))
	for _, record := range store.transactions {
		records = append(records, record)
	}
	return records, nil
}

// InsertOrder appends an immutable order record.
func (store *Store) InsertOrder(_ context.Context, record ledger.OrderRecord) error {
	store.mutex.Lock()
	defer store.mutex.Unlock()
	store.orders[record.OrderID] = record
	return nil
}

// GetOrder looks an order record up by id.
func (store *Store) GetOrder(_ context.Context, orderID string) (ledger.OrderRecord, error) {
	store.mutex.Lock()
	defer store.mutex.Unlock()
	order, found := store.orders[orderID]
	if !found {
		return ledger.OrderRecord{}, fmt.Errorf("%w: %q", ledger.ErrUnknownOrder, orderID)
	}
	return order, nil
}

// ListOrders returns every order record.
func (store *Store) ListOrders(_ context.Context) ([]ledger.OrderRecord, error) {
	store.mutex.Lock()
	defer store.mutex.Unlock()
	orders := make([]ledger.OrderRecord, 0, len(store.orders))
	for _, order := range store.orders {
		orders = append(orders, order)
	}
	return orders, nil
}
