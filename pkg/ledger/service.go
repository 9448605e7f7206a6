package ledger

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/vianovi/Mart-Bank-Project/pkg/money"
)

// Service contains the money-movement domain logic over a Store. Every
// multi-document mutation runs inside a store transaction and under a
// single service-wide mutex, so transfers and checkouts stay atomic even
// when the underlying store is shared.
type Service struct {
	store      Store
	nowFn      func() time.Time
	authorizer PinAuthorizer
	logger     OperationLogger
	mutex      sync.Mutex
}

// NewService wires a Service.
func NewService(store Store, now func() time.Time, authorizer PinAuthorizer, options ...ServiceOption) (*Service, error) {
	if store == nil {
		return nil, fmt.Errorf("%w: store dependency is nil", ErrInvalidServiceConfig)
	}
	if now == nil {
		return nil, fmt.Errorf("%w: clock dependency is nil", ErrInvalidServiceConfig)
	}
	if authorizer == nil {
		return nil, fmt.Errorf("%w: pin authorizer dependency is nil", ErrInvalidServiceConfig)
	}
	service := &Service{store: store, nowFn: now, authorizer: authorizer}
	for _, option := range options {
		if option != nil {
			option(service)
		}
	}
	return service, nil
}

// Balance returns the current balance of an account.
func (service *Service) Balance(ctx context.Context, accountID string) (money.Value, error) {
	account, err := service.store.GetAccount(ctx, accountID)
	if err != nil {
		return money.Value{}, err
	}
	return account.Balance, nil
}

// Deposit credits an account. Deposits require no PIN: putting money in is
// not treated as risk-bearing, an intentional asymmetry with Withdraw.
func (service *Service) Deposit(ctx context.Context, accountID string, amount money.Value) (TransactionRecord, error) {
	var record TransactionRecord
	operationError := func() error {
		if !amount.IsPositive() {
			return fmt.Errorf("%w: deposit must be greater than zero", ErrInvalidAmount)
		}
		service.mutex.Lock()
		defer service.mutex.Unlock()
		return service.store.WithTx(ctx, func(ctx context.Context, transactionStore Store) error {
			account, err := transactionStore.GetAccount(ctx, accountID)
			if err != nil {
				return err
			}
			newBalance, err := account.Balance.Add(amount)
			if err != nil {
				return err
			}
			record = service.newRecord(account.AccountID, "", KindDeposit, amount, noteDeposit, newBalance, nil)
			account.Balance = newBalance
			account.TransactionIDs = append(account.TransactionIDs, record.TransactionID)
			if err := transactionStore.InsertTransaction(ctx, record); err != nil {
				return err
			}
			return transactionStore.SaveAccount(ctx, account)
		})
	}()
	service.logOperation(ctx, OperationLog{
		Operation:        operationDeposit,
		SourceAccountID:  accountID,
		Kind:             KindDeposit,
		AmountMinorUnits: amount.Amount(),
		TransactionID:    record.TransactionID,
		Error:            operationError,
	})
	if operationError != nil {
		return TransactionRecord{}, operationError
	}
	return record, nil
}

// Withdraw debits an account after, in order: amount validation, balance
// check, PIN authorization. Any failure leaves state untouched.
func (service *Service) Withdraw(ctx context.Context, accountID string, amount money.Value) (TransactionRecord, error) {
	var record TransactionRecord
	operationError := func() error {
		if !amount.IsPositive() {
			return fmt.Errorf("%w: withdrawal must be greater than zero", ErrInvalidAmount)
		}
		account, err := service.store.GetAccount(ctx, accountID)
		if err != nil {
			return err
		}
		insufficient, err := account.Balance.LessThan(amount)
		if err != nil {
			return err
		}
		if insufficient {
			return ErrInsufficientFunds
		}
		if err := service.authorizer.AuthorizePin(ctx, account, purposeWithdrawal); err != nil {
			return err
		}
		service.mutex.Lock()
		defer service.mutex.Unlock()
		return service.store.WithTx(ctx, func(ctx context.Context, transactionStore Store) error {
			current, err := transactionStore.GetAccount(ctx, accountID)
			if err != nil {
				return err
			}
			newBalance, err := current.Balance.Sub(amount)
			if err != nil {
				return err
			}
			if newBalance.IsNegative() {
				return ErrInsufficientFunds
			}
			record = service.newRecord(current.AccountID, "", KindWithdraw, amount, noteWithdraw, newBalance, nil)
			current.Balance = newBalance
			current.TransactionIDs = append(current.TransactionIDs, record.TransactionID)
			if err := transactionStore.InsertTransaction(ctx, record); err != nil {
				return err
			}
			return transactionStore.SaveAccount(ctx, current)
		})
	}()
	service.logOperation(ctx, OperationLog{
		Operation:        operationWithdraw,
		SourceAccountID:  accountID,
		Kind:             KindWithdraw,
		AmountMinorUnits: amount.Amount(),
		TransactionID:    record.TransactionID,
		Error:            operationError,
	})
	if operationError != nil {
		return TransactionRecord{}, operationError
	}
	return record, nil
}

// Transfer moves money between two accounts. Exactly one record is created
// and referenced by both histories; the sum of the two balances is
// unchanged by the operation.
func (service *Service) Transfer(ctx context.Context, sourceAccountID string, destinationUsername string, amount money.Value) (TransactionRecord, error) {
	var record TransactionRecord
	var destinationAccountID string
	operationError := func() error {
		source, err := service.store.GetAccount(ctx, sourceAccountID)
		if err != nil {
			return err
		}
		if strings.EqualFold(strings.TrimSpace(destinationUsername), source.Username) {
			return ErrSelfTransfer
		}
		destination, err := service.store.GetAccountByUsername(ctx, destinationUsername)
		if err != nil {
			return err
		}
		destinationAccountID = destination.AccountID
		if !amount.IsPositive() {
			return fmt.Errorf("%w: transfer must be greater than zero", ErrInvalidAmount)
		}
		insufficient, err := source.Balance.LessThan(amount)
		if err != nil {
			return err
		}
		if insufficient {
			return ErrInsufficientFunds
		}
		if err := service.authorizer.AuthorizePin(ctx, source, purposeTransfer); err != nil {
			return err
		}
		service.mutex.Lock()
		defer service.mutex.Unlock()
		return service.store.WithTx(ctx, func(ctx context.Context, transactionStore Store) error {
			currentSource, err := transactionStore.GetAccount(ctx, sourceAccountID)
			if err != nil {
				return err
			}
			currentDestination, err := transactionStore.GetAccount(ctx, destination.AccountID)
			if err != nil {
				return err
			}
			newSourceBalance, err := currentSource.Balance.Sub(amount)
			if err != nil {
				return err
			}
			if newSourceBalance.IsNegative() {
				return ErrInsufficientFunds
			}
			newDestinationBalance, err := currentDestination.Balance.Add(amount)
			if err != nil {
				return err
			}
			note := noteTransferTo + currentDestination.Username
			record = service.newRecord(currentSource.AccountID, currentDestination.AccountID, KindTransfer, amount, note, newSourceBalance, &newDestinationBalance)
			currentSource.Balance = newSourceBalance
			currentDestination.Balance = newDestinationBalance
			currentSource.TransactionIDs = append(currentSource.TransactionIDs, record.TransactionID)
			currentDestination.TransactionIDs = append(currentDestination.TransactionIDs, record.TransactionID)
			if err := transactionStore.InsertTransaction(ctx, record); err != nil {
				return err
			}
			if err := transactionStore.SaveAccount(ctx, currentSource); err != nil {
				return err
			}
			return transactionStore.SaveAccount(ctx, currentDestination)
		})
	}()
	service.logOperation(ctx, OperationLog{
		Operation:            operationTransfer,
		SourceAccountID:      sourceAccountID,
		DestinationAccountID: destinationAccountID,
		Kind:                 KindTransfer,
		AmountMinorUnits:     amount.Amount(),
		TransactionID:        record.TransactionID,
		Error:                operationError,
	})
	if operationError != nil {
		return TransactionRecord{}, operationError
	}
	return record, nil
}

// TransactionHistory returns the account's transaction records newest first.
func (service *Service) TransactionHistory(ctx context.Context, accountID string) ([]TransactionRecord, error) {
	account, err := service.store.GetAccount(ctx, accountID)
	if err != nil {
		return nil, err
	}
	records := make([]TransactionRecord, 0, len(account.TransactionIDs))
	for _, transactionID := range account.TransactionIDs {
		record, err := service.store.GetTransaction(ctx, transactionID)
		if err != nil {
			continue
		}
		records = append(records, record)
	}
	sort.Slice(records, func(left, right int) bool {
		return records[left].Timestamp.After(records[right].Timestamp)
	})
	return records, nil
}

// OrderHistory returns the account's store orders newest first.
func (service *Service) OrderHistory(ctx context.Context, accountID string) ([]OrderRecord, error) {
	account, err := service.store.GetAccount(ctx, accountID)
	if err != nil {
		return nil, err
	}
	orders := make([]OrderRecord, 0, len(account.OrderIDs))
	for _, orderID := range account.OrderIDs {
		order, err := service.store.GetOrder(ctx, orderID)
		if err != nil {
			continue
		}
		orders = append(orders, order)
	}
	sort.Slice(orders, func(left, right int) bool {
		return orders[left].Timestamp.After(orders[right].Timestamp)
	})
	return orders, nil
}

func (service *Service) newRecord(sourceAccountID string, destinationAccountID string, kind TransactionKind, amount money.Value, note string, resultingSource money.Value, resultingDestination *money.Value) TransactionRecord {
	return TransactionRecord{
		TransactionID:               uuid.NewString(),
		SourceAccountID:             sourceAccountID,
		DestinationAccountID:        destinationAccountID,
		Kind:                        kind,
		Amount:                      amount,
		Note:                        note,
		Timestamp:                   service.nowFn(),
		ResultingSourceBalance:      resultingSource,
		ResultingDestinationBalance: resultingDestination,
	}
}

func (service *Service) logOperation(ctx context.Context, entry OperationLog) {
	if service.logger == nil {
		return
	}
	if entry.Status == "" {
		if entry.Error != nil {
			entry.Status = operationStatusError
		} else {
			entry.Status = operationStatusOK
		}
	}
	service.logger.LogOperation(ctx, entry)
}
