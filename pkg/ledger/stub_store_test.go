package ledger

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/vianovi/Mart-Bank-Project/pkg/money"
)

// stubStore is an in-memory Store with snapshot-rollback WithTx so tests can
// observe that failed operations leave no partial state behind.
type stubStore struct {
	accounts     map[string]Account
	products     map[string]Product
	transactions map[string]TransactionRecord
	orders       map[string]OrderRecord
	failOn       map[string]error
}

func newStubStore() *stubStore {
	return &stubStore{
		accounts:     make(map[string]Account),
		products:     make(map[string]Product),
		transactions: make(map[string]TransactionRecord),
		orders:       make(map[string]OrderRecord),
		failOn:       make(map[string]error),
	}
}

func copyAccount(account Account) Account {
	duplicate := account
	duplicate.TransactionIDs = append([]string(nil), account.TransactionIDs...)
	duplicate.OrderIDs = append([]string(nil), account.OrderIDs...)
	return duplicate
}

func (store *stubStore) snapshot() *stubStore {
	clone := newStubStore()
	for key, account := range store.accounts {
		clone.accounts[key] = copyAccount(account)
	}
	for key, product := range store.products {
		clone.products[key] = product
	}
	for key, record := range store.transactions {
		clone.transactions[key] = record
	}
	for key, order := range store.orders {
		clone.orders[key] = order
	}
	return clone
}

func (store *stubStore) restore(snapshot *stubStore) {
	store.accounts = snapshot.accounts
	store.products = snapshot.products
	store.transactions = snapshot.transactions
	store.orders = snapshot.orders
}

func (store *stubStore) WithTx(ctx context.Context, fn func(ctx context.Context, txStore Store) error) error {
	snapshot := store.snapshot()
	if err := fn(ctx, store); err != nil {
		store.restore(snapshot)
		return err
	}
	return nil
}

func (store *stubStore) GetAccount(_ context.Context, accountID string) (Account, error) {
	if err := store.failOn["GetAccount"]; err != nil {
		return Account{}, err
	}
	account, found := store.accounts[accountID]
	if !found {
		return Account{}, fmt.Errorf("%w: %q", ErrUnknownAccount, accountID)
	}
	return copyAccount(account), nil
}

func (store *stubStore) GetAccountByUsername(_ context.Context, username string) (Account, error) {
	for _, account := range store.accounts {
		if strings.EqualFold(account.Username, strings.TrimSpace(username)) {
			return copyAccount(account), nil
		}
	}
	return Account{}, fmt.Errorf("%w: %q", ErrUnknownAccount, username)
}

func (store *stubStore) ListAccounts(_ context.Context) ([]Account, error) {
	accounts := make([]Account, 0, len(store.accounts))
	for _, account := range store.accounts {
		accounts = append(accounts, copyAccount(account))
	}
	return accounts, nil
}

func (store *stubStore) InsertAccount(_ context.Context, account Account) error {
	for _, existing := range store.accounts {
		if strings.EqualFold(existing.Username, account.Username) {
			return ErrDuplicateUsername
		}
	}
	store.accounts[account.AccountID] = copyAccount(account)
	return nil
}

func (store *stubStore) SaveAccount(_ context.Context, account Account) error {
	if err := store.failOn["SaveAccount"]; err != nil {
		return err
	}
	store.accounts[account.AccountID] = copyAccount(account)
	return nil
}

func (store *stubStore) GetProduct(_ context.Context, productID string) (Product, error) {
	product, found := store.products[productID]
	if !found {
		return Product{}, fmt.Errorf("%w: %q", ErrUnknownProduct, productID)
	}
	return product, nil
}

func (store *stubStore) ListProducts(_ context.Context) ([]Product, error) {
	products := make([]Product, 0, len(store.products))
	for _, product := range store.products {
		products = append(products, product)
	}
	return products, nil
}

func (store *stubStore) InsertProduct(_ context.Context, product Product) error {
	store.products[product.ProductID] = product
	return nil
}

func (store *stubStore) SaveProduct(_ context.Context, product Product) error {
	if err := store.failOn["SaveProduct"]; err != nil {
		return err
	}
	store.products[product.ProductID] = product
	return nil
}

func (store *stubStore) DeleteProduct(_ context.Context, productID string) (bool, error) {
	if _, found := store.products[productID]; !found {
		return false, nil
	}
	delete(store.products, productID)
	return true, nil
}

func (store *stubStore) InsertTransaction(_ context.Context, record TransactionRecord) error {
	if err := store.failOn["InsertTransaction"]; err != nil {
		return err
	}
	store.transactions[record.TransactionID] = record
	return nil
}

func (store *stubStore) GetTransaction(_ context.Context, transactionID string) (TransactionRecord, error) {
	record, found := store.transactions[transactionID]
	if !found {
		return TransactionRecord{}, fmt.Errorf("%w: %q", ErrUnknownTransaction, transactionID)
	}
	return record, nil
}

func (store *stubStore) ListTransactions(_ context.Context) ([]TransactionRecord, error) {
	records := make([]TransactionRecord, 0, len(store.transactions))
	for _, record := range store.transactions {
		records = append(records, record)
	}
	return records, nil
}

func (store *stubStore) InsertOrder(_ context.Context, record OrderRecord) error {
	if err := store.failOn["InsertOrder"]; err != nil {
		return err
	}
	store.orders[record.OrderID] = record
	return nil
}

func (store *stubStore) GetOrder(_ context.Context, orderID string) (OrderRecord, error) {
	order, found := store.orders[orderID]
	if !found {
		return OrderRecord{}, fmt.Errorf("%w: %q", ErrUnknownOrder, orderID)
	}
	return order, nil
}

func (store *stubStore) ListOrders(_ context.Context) ([]OrderRecord, error) {
	orders := make([]OrderRecord, 0, len(store.orders))
	for _, order := range store.orders {
		orders = append(orders, order)
	}
	return orders, nil
}

// stubAuthorizer approves or rejects PIN checks and counts how often it is
// consulted, so tests can assert the check order of preconditions.
type stubAuthorizer struct {
	err   error
	calls int
}

func (authorizer *stubAuthorizer) AuthorizePin(_ context.Context, _ Account, _ string) error {
	authorizer.calls++
	return authorizer.err
}

func mustMoney(test *testing.T, amount int64) money.Value {
	test.Helper()
	value, err := money.New(amount, money.IDR)
	if err != nil {
		test.Fatalf("money: %v", err)
	}
	return value
}

func mustNewService(test *testing.T, store Store, authorizer PinAuthorizer, options ...ServiceOption) *Service {
	test.Helper()
	service, err := NewService(store, func() time.Time { return time.Unix(1700000000, 0).UTC() }, authorizer, options...)
	if err != nil {
		test.Fatalf("service init: %v", err)
	}
	return service
}

func seedAccount(test *testing.T, store *stubStore, username string, balance int64) Account {
	test.Helper()
	account := Account{
		AccountID: uuid.NewString(),
		Username:  username,
		Role:      RoleCustomer,
		Balance:   mustMoney(test, balance),
		PinHash:   "stub-pin-hash",
		CreatedAt: time.Unix(1690000000, 0).UTC(),
	}
	store.accounts[account.AccountID] = account
	return account
}

func seedProduct(test *testing.T, store *stubStore, name string, price int64, stock int64) Product {
	test.Helper()
	product := Product{
		ProductID: uuid.NewString(),
		Name:      name,
		Price:     mustMoney(test, price),
		Stock:     stock,
		Category:  "Groceries",
		CreatedAt: time.Unix(1690000000, 0).UTC(),
		UpdatedAt: time.Unix(1690000000, 0).UTC(),
	}
	store.products[product.ProductID] = product
	return product
}
