// Package gormstore implements the persistence layer over GORM, targeting
// sqlite for local runs and postgres for shared deployments.
package gormstore

import (
	"context"
	"encoding/json"
	"errors"

	gosqlite "github.com/glebarez/go-sqlite"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/vianovi/Mart-Bank-Project/pkg/ledger"
	"github.com/vianovi/Mart-Bank-Project/pkg/money"
)

const (
	pgUniqueViolationCode = "23505"
	sqliteConstraintCode  = 19

	errorOperationStore    = "store"
	errorSubjectAccount    = "account"
	errorSubjectProduct    = "product"
	errorSubjectRecord     = "transaction"
	errorSubjectOrder      = "order"
	errorCodeDecode        = "decode"
	errorCodeDelete        = "delete"
	errorCodeDuplicate     = "duplicate"
	errorCodeEncode        = "encode"
	errorCodeInsert        = "insert"
	errorCodeList          = "list"
	errorCodeLookup        = "lookup"
	errorCodeUpdate        = "update"
)

// Store implements ledger.Store using GORM.
type Store struct {
	db *gorm.DB
}

// New returns a Store backed by gorm.DB.
func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

// AutoMigrate creates or upgrades every table.
func (store *Store) AutoMigrate() error {
	return store.db.AutoMigrate(Models()...)
}

// WithTx executes fn within a transaction.
func (store *Store) WithTx(ctx context.Context, fn func(ctx context.Context, txStore ledger.Store) error) error {
	return store.db.WithContext(ctx).Transaction(func(transaction *gorm.DB) error {
		return fn(ctx, &Store{db: transaction})
	})
}

func (store *Store) GetAccount(ctx context.Context, accountID string) (ledger.Account, error) {
	var model Account
	err := store.db.WithContext(ctx).Where("account_id = ?", accountID).Take(&model).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ledger.Account{}, wrapStoreError(errorSubjectAccount, errorCodeLookup, ledger.ErrUnknownAccount)
	}
	if err != nil {
		return ledger.Account{}, wrapStoreError(errorSubjectAccount, errorCodeLookup, err)
	}
	return mapAccount(model)
}

func (store *Store) GetAccountByUsername(ctx context.Context, username string) (ledger.Account, error) {
	_, key, err := ledger.NormalizeUsername(username)
	if err != nil {
		return ledger.Account{}, wrapStoreError(errorSubjectAccount, errorCodeLookup, err)
	}
	var model Account
	lookupErr := store.db.WithContext(ctx).Where("username_key = ?", key).Take(&model).Error
	if errors.Is(lookupErr, gorm.ErrRecordNotFound) {
		return ledger.Account{}, wrapStoreError(errorSubjectAccount, errorCodeLookup, ledger.ErrUnknownAccount)
	}
	if lookupErr != nil {
		return ledger.Account{}, wrapStoreError(errorSubjectAccount, errorCodeLookup, lookupErr)
	}
	return mapAccount(model)
}

func (store *Store) ListAccounts(ctx context.Context) ([]ledger.Account, error) {
	var models []Account
	if err := store.db.WithContext(ctx).Order("username_key").Find(&models).Error; err != nil {
		return nil, wrapStoreError(errorSubjectAccount, errorCodeList, err)
	}
	accounts := make([]ledger.Account, 0, len(models))
	for _, model := range models {
		account, err := mapAccount(model)
		if err != nil {
			return nil, err
		}
		accounts = append(accounts, account)
	}
	return accounts, nil
}

func (store *Store) InsertAccount(ctx context.Context, account ledger.Account) error {
	model, err := accountModel(account)
	if err != nil {
		return err
	}
	insertErr := store.db.WithContext(ctx).Create(&model).Error
	if isUniqueViolation(insertErr) {
		return wrapStoreError(errorSubjectAccount, errorCodeDuplicate, ledger.ErrDuplicateUsername)
	}
	if insertErr != nil {
		return wrapStoreError(errorSubjectAccount, errorCodeInsert, insertErr)
	}
	return nil
}

func (store *Store) SaveAccount(ctx context.Context, account ledger.Account) error {
	model, err := accountModel(account)
	if err != nil {
		return err
	}
	result := store.db.WithContext(ctx).Model(&Account{}).
		Where("account_id = ?", account.AccountID).
		Select("*").Omit("account_id", "created_at").
		Updates(&model)
	if result.Error != nil {
		return wrapStoreError(errorSubjectAccount, errorCodeUpdate, result.Error)
	}
	if result.RowsAffected == 0 {
		return wrapStoreError(errorSubjectAccount, errorCodeUpdate, ledger.ErrUnknownAccount)
	}
	return nil
}

func (store *Store) GetProduct(ctx context.Context, productID string) (ledger.Product, error) {
	var model Product
	err := store.db.WithContext(ctx).Where("product_id = ?", productID).Take(&model).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ledger.Product{}, wrapStoreError(errorSubjectProduct, errorCodeLookup, ledger.ErrUnknownProduct)
	}
	if err != nil {
		return ledger.Product{}, wrapStoreError(errorSubjectProduct, errorCodeLookup, err)
	}
	return mapProduct(model)
}

func (store *Store) ListProducts(ctx context.Context) ([]ledger.Product, error) {
	var models []Product
	if err := store.db.WithContext(ctx).Order("name").Find(&models).Error; err != nil {
		return nil, wrapStoreError(errorSubjectProduct, errorCodeList, err)
	}
	products := make([]ledger.Product, 0, len(models))
	for _, model := range models {
		product, err := mapProduct(model)
		if err != nil {
			return nil, err
		}
		products = append(products, product)
	}
	return products, nil
}

func (store *Store) InsertProduct(ctx context.Context, product ledger.Product) error {
	model := productModel(product)
	if err := store.db.WithContext(ctx).Create(&model).Error; err != nil {
		return wrapStoreError(errorSubjectProduct, errorCodeInsert, err)
	}
	return nil
}

func (store *Store) SaveProduct(ctx context.Context, product ledger.Product) error {
	model := productModel(product)
	result := store.db.WithContext(ctx).Model(&Product{}).
		Where("product_id = ?", product.ProductID).
		Select("*").Omit("product_id", "created_at").
		Updates(&model)
	if result.Error != nil {
		return wrapStoreError(errorSubjectProduct, errorCodeUpdate, result.Error)
	}
	if result.RowsAffected == 0 {
		return wrapStoreError(errorSubjectProduct, errorCodeUpdate, ledger.ErrUnknownProduct)
	}
	return nil
}

func (store *Store) DeleteProduct(ctx context.Context, productID string) (bool, error) {
	result := store.db.WithContext(ctx).Where("product_id = ?", productID).Delete(&Product{})
	if result.Error != nil {
		return false, wrapStoreError(errorSubjectProduct, errorCodeDelete, result.Error)
	}
	return result.RowsAffected > 0, nil
}

func (store *Store) InsertTransaction(ctx context.Context, record ledger.TransactionRecord) error {
	model := transactionModel(record)
	if err := store.db.WithContext(ctx).Create(&model).Error; err != nil {
		return wrapStoreError(errorSubjectRecord, errorCodeInsert, err)
	}
	return nil
}

func (store *Store) GetTransaction(ctx context.Context, transactionID string) (ledger.TransactionRecord, error) {
	var model Transaction
	err := store.db.WithContext(ctx).Where("transaction_id = ?", transactionID).Take(&model).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ledger.TransactionRecord{}, wrapStoreError(errorSubjectRecord, errorCodeLookup, ledger.ErrUnknownTransaction)
	}
	if err != nil {
		return ledger.TransactionRecord{}, wrapStoreError(errorSubjectRecord, errorCodeLookup, err)
	}
	return mapTransaction(model)
}

func (store *Store) ListTransactions(ctx context.Context) ([]ledger.TransactionRecord, error) {
	var models []Transaction
	if err := store.db.WithContext(ctx).Order("timestamp DESC").Find(&models).Error; err != nil {
		return nil, wrapStoreError(errorSubjectRecord, errorCodeList, err)
	}
	records := make([]ledger.TransactionRecord, 0, len(models))
	for _, model := range models {
		record, err := mapTransaction(model)
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	return records, nil
}

func (store *Store) InsertOrder(ctx context.Context, record ledger.OrderRecord) error {
	model, err := orderModel(record)
	if err != nil {
		return err
	}
	if insertErr := store.db.WithContext(ctx).Create(&model).Error; insertErr != nil {
		return wrapStoreError(errorSubjectOrder, errorCodeInsert, insertErr)
	}
	return nil
}

func (store *Store) GetOrder(ctx context.Context, orderID string) (ledger.OrderRecord, error) {
	var model Order
	err := store.db.WithContext(ctx).Where("order_id = ?", orderID).Take(&model).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ledger.OrderRecord{}, wrapStoreError(errorSubjectOrder, errorCodeLookup, ledger.ErrUnknownOrder)
	}
	if err != nil {
		return ledger.OrderRecord{}, wrapStoreError(errorSubjectOrder, errorCodeLookup, err)
	}
	return mapOrder(model)
}

func (store *Store) ListOrders(ctx context.Context) ([]ledger.OrderRecord, error) {
	var models []Order
	if err := store.db.WithContext(ctx).Order("timestamp DESC").Find(&models).Error; err != nil {
		return nil, wrapStoreError(errorSubjectOrder, errorCodeList, err)
	}
	orders := make([]ledger.OrderRecord, 0, len(models))
	for _, model := range models {
		order, err := mapOrder(model)
		if err != nil {
			return nil, err
		}
		orders = append(orders, order)
	}
	return orders, nil
}

func wrapStoreError(subject string, code string, err error) error {
	return ledger.WrapError(errorOperationStore, subject, code, err)
}

func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgUniqueViolationCode
	}
	var sqliteErr *gosqlite.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.Code()&0xFF == sqliteConstraintCode
	}
	return false
}

func accountModel(account ledger.Account) (Account, error) {
	_, key, err := ledger.NormalizeUsername(account.Username)
	if err != nil {
		return Account{}, wrapStoreError(errorSubjectAccount, errorCodeEncode, err)
	}
	transactionIDs, err := encodeStrings(account.TransactionIDs)
	if err != nil {
		return Account{}, wrapStoreError(errorSubjectAccount, errorCodeEncode, err)
	}
	orderIDs, err := encodeStrings(account.OrderIDs)
	if err != nil {
		return Account{}, wrapStoreError(errorSubjectAccount, errorCodeEncode, err)
	}
	return Account{
		AccountID:         account.AccountID,
		Username:          account.Username,
		UsernameKey:       key,
		FullName:          account.FullName,
		Email:             account.Email,
		PasswordHash:      account.PasswordHash,
		PinHash:           account.PinHash,
		Role:              string(account.Role),
		BalanceMinorUnits: account.Balance.Amount(),
		Currency:          string(account.Balance.Currency()),
		TransactionIDs:    transactionIDs,
		OrderIDs:          orderIDs,
		FailedLoginCount:  account.FailedLoginCount,
		LockedUntil:       account.LockedUntil,
		CreatedAt:         account.CreatedAt,
	}, nil
}

func mapAccount(model Account) (ledger.Account, error) {
	role, err := ledger.ParseRole(model.Role)
	if err != nil {
		return ledger.Account{}, wrapStoreError(errorSubjectAccount, errorCodeDecode, err)
	}
	balance, err := money.New(model.BalanceMinorUnits, money.Currency(model.Currency))
	if err != nil {
		return ledger.Account{}, wrapStoreError(errorSubjectAccount, errorCodeDecode, err)
	}
	transactionIDs, err := decodeStrings(model.TransactionIDs)
	if err != nil {
		return ledger.Account{}, wrapStoreError(errorSubjectAccount, errorCodeDecode, err)
	}
	orderIDs, err := decodeStrings(model.OrderIDs)
	if err != nil {
		return ledger.Account{}, wrapStoreError(errorSubjectAccount, errorCodeDecode, err)
	}
	return ledger.Account{
		AccountID:        model.AccountID,
		Username:         model.Username,
		FullName:         model.FullName,
		Email:            model.Email,
		PasswordHash:     model.PasswordHash,
		PinHash:          model.PinHash,
		Role:             role,
		Balance:          balance,
		TransactionIDs:   transactionIDs,
		OrderIDs:         orderIDs,
		FailedLoginCount: model.FailedLoginCount,
		LockedUntil:      model.LockedUntil,
		CreatedAt:        model.CreatedAt,
	}, nil
}

func productModel(product ledger.Product) Product {
	return Product{
		ProductID:       product.ProductID,
		Name:            product.Name,
		PriceMinorUnits: product.Price.Amount(),
		Currency:        string(product.Price.Currency()),
		Stock:           product.Stock,
		Category:        product.Category,
		Description:     product.Description,
		CreatedAt:       product.CreatedAt,
		UpdatedAt:       product.UpdatedAt,
	}
}

func mapProduct(model Product) (ledger.Product, error) {
	price, err := money.New(model.PriceMinorUnits, money.Currency(model.Currency))
	if err != nil {
		return ledger.Product{}, wrapStoreError(errorSubjectProduct, errorCodeDecode, err)
	}
	return ledger.Product{
		ProductID:   model.ProductID,
		Name:        model.Name,
		Price:       price,
		Stock:       model.Stock,
		Category:    model.Category,
		Description: model.Description,
		CreatedAt:   model.CreatedAt,
		UpdatedAt:   model.UpdatedAt,
	}, nil
}

func transactionModel(record ledger.TransactionRecord) Transaction {
	var destinationBalance *int64
	if record.ResultingDestinationBalance != nil {
		value := record.ResultingDestinationBalance.Amount()
		destinationBalance = &value
	}
	return Transaction{
		TransactionID:               record.TransactionID,
		SourceAccountID:             record.SourceAccountID,
		DestinationAccountID:        record.DestinationAccountID,
		Kind:                        string(record.Kind),
		AmountMinorUnits:            record.Amount.Amount(),
		Currency:                    string(record.Amount.Currency()),
		Note:                        record.Note,
		Timestamp:                   record.Timestamp,
		ResultingSourceBalance:      record.ResultingSourceBalance.Amount(),
		ResultingDestinationBalance: destinationBalance,
	}
}

func mapTransaction(model Transaction) (ledger.TransactionRecord, error) {
	kind, err := ledger.ParseTransactionKind(model.Kind)
	if err != nil {
		return ledger.TransactionRecord{}, wrapStoreError(errorSubjectRecord, errorCodeDecode, err)
	}
	currency := money.Currency(model.Currency)
	amount, err := money.New(model.AmountMinorUnits, currency)
	if err != nil {
		return ledger.TransactionRecord{}, wrapStoreError(errorSubjectRecord, errorCodeDecode, err)
	}
	sourceBalance, err := money.New(model.ResultingSourceBalance, currency)
	if err != nil {
		return ledger.TransactionRecord{}, wrapStoreError(errorSubjectRecord, errorCodeDecode, err)
	}
	var destinationBalance *money.Value
	if model.ResultingDestinationBalance != nil {
		value, convertErr := money.New(*model.ResultingDestinationBalance, currency)
		if convertErr != nil {
			return ledger.TransactionRecord{}, wrapStoreError(errorSubjectRecord, errorCodeDecode, convertErr)
		}
		destinationBalance = &value
	}
	return ledger.TransactionRecord{
		TransactionID:               model.TransactionID,
		SourceAccountID:             model.SourceAccountID,
		DestinationAccountID:        model.DestinationAccountID,
		Kind:                        kind,
		Amount:                      amount,
		Note:                        model.Note,
		Timestamp:                   model.Timestamp,
		ResultingSourceBalance:      sourceBalance,
		ResultingDestinationBalance: destinationBalance,
	}, nil
}

// orderLine is the JSON shape of one priced cart line.
type orderLine struct {
	ProductID           string `json:"product_id"`
	ProductName         string `json:"product_name"`
	UnitPriceMinorUnits int64  `json:"unit_price"`
	Currency            string `json:"currency"`
	Quantity            int64  `json:"quantity"`
}

func orderModel(record ledger.OrderRecord) (Order, error) {
	lines := make([]orderLine, 0, len(record.Lines))
	for _, line := range record.Lines {
		lines = append(lines, orderLine{
			ProductID:           line.ProductID,
			ProductName:         line.ProductName,
			UnitPriceMinorUnits: line.UnitPrice.Amount(),
			Currency:            string(line.UnitPrice.Currency()),
			Quantity:            line.Quantity,
		})
	}
	encoded, err := json.Marshal(lines)
	if err != nil {
		return Order{}, wrapStoreError(errorSubjectOrder, errorCodeEncode, err)
	}
	return Order{
		OrderID:         record.OrderID,
		BuyerAccountID:  record.BuyerAccountID,
		Lines:           datatypes.JSON(encoded),
		TotalMinorUnits: record.Total.Amount(),
		Currency:        string(record.Total.Currency()),
		PaymentMethod:   record.PaymentMethod,
		Status:          record.Status,
		Timestamp:       record.Timestamp,
	}, nil
}

func mapOrder(model Order) (ledger.OrderRecord, error) {
	var encodedLines []orderLine
	if err := json.Unmarshal(model.Lines, &encodedLines); err != nil {
		return ledger.OrderRecord{}, wrapStoreError(errorSubjectOrder, errorCodeDecode, err)
	}
	lines := make([]ledger.CartLine, 0, len(encodedLines))
	for _, encoded := range encodedLines {
		unitPrice, err := money.New(encoded.UnitPriceMinorUnits, money.Currency(encoded.Currency))
		if err != nil {
			return ledger.OrderRecord{}, wrapStoreError(errorSubjectOrder, errorCodeDecode, err)
		}
		lines = append(lines, ledger.CartLine{
			ProductID:   encoded.ProductID,
			ProductName: encoded.ProductName,
			UnitPrice:   unitPrice,
			Quantity:    encoded.Quantity,
		})
	}
	total, err := money.New(model.TotalMinorUnits, money.Currency(model.Currency))
	if err != nil {
		return ledger.OrderRecord{}, wrapStoreError(errorSubjectOrder, errorCodeDecode, err)
	}
	return ledger.OrderRecord{
		OrderID:        model.OrderID,
		BuyerAccountID: model.BuyerAccountID,
		Lines:          lines,
		Total:          total,
		PaymentMethod:  model.PaymentMethod,
		Status:         model.Status,
		Timestamp:      model.Timestamp,
	}, nil
}

func encodeStrings(values []string) (datatypes.JSON, error) {
	if values == nil {
		values = []string{}
	}
	encoded, err := json.Marshal(values)
	if err != nil {
		return nil, err
	}
	return datatypes.JSON(encoded), nil
}

func decodeStrings(raw datatypes.JSON) ([]string, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	var values []string
	if err := json.Unmarshal(raw, &values); err != nil {
		return nil, err
	}
	return values, nil
}
