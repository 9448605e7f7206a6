package ledger

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

// Checkout turns a cart into a paid order. The amount check, PIN check, and
// the live stock re-check all happen before any mutation; the debit, the
// stock decrements, and both records then commit together or not at all.
// The cart is cleared only after persistence succeeds.
func (service *Service) Checkout(ctx context.Context, buyerAccountID string, cart *Cart) (TransactionRecord, OrderRecord, error) {
	var record TransactionRecord
	var order OrderRecord
	var totalAmount int64
	operationError := func() error {
		if cart == nil || cart.IsEmpty() {
			return ErrEmptyCart
		}
		total, err := cart.Total()
		if err != nil {
			return err
		}
		totalAmount = total.Amount()
		buyer, err := service.store.GetAccount(ctx, buyerAccountID)
		if err != nil {
			return err
		}
		insufficient, err := buyer.Balance.LessThan(total)
		if err != nil {
			return err
		}
		if insufficient {
			return ErrInsufficientFunds
		}
		if err := service.authorizer.AuthorizePin(ctx, buyer, purposePayment); err != nil {
			return err
		}
		service.mutex.Lock()
		defer service.mutex.Unlock()
		return service.store.WithTx(ctx, func(ctx context.Context, transactionStore Store) error {
			currentBuyer, err := transactionStore.GetAccount(ctx, buyerAccountID)
			if err != nil {
				return err
			}
			newBalance, err := currentBuyer.Balance.Sub(total)
			if err != nil {
				return err
			}
			if newBalance.IsNegative() {
				return ErrInsufficientFunds
			}
			lines := cart.Lines()
			// All-or-nothing stock re-check across the whole cart before
			// any product is touched. Prices stay snapshotted; stock does not.
			liveProducts := make([]Product, 0, len(lines))
			for _, line := range lines {
				liveProduct, err := transactionStore.GetProduct(ctx, line.ProductID)
				if err != nil {
					return fmt.Errorf("%w: %q no longer available", ErrInsufficientStock, line.ProductName)
				}
				if liveProduct.Stock < line.Quantity {
					return fmt.Errorf("%w: %q has %d left, cart wants %d", ErrInsufficientStock, line.ProductName, liveProduct.Stock, line.Quantity)
				}
				liveProducts = append(liveProducts, liveProduct)
			}
			now := service.nowFn()
			record = service.newRecord(currentBuyer.AccountID, "", KindStorePayment, total, noteStoreOrder, newBalance, nil)
			order = OrderRecord{
				OrderID:        uuid.NewString(),
				BuyerAccountID: currentBuyer.AccountID,
				Lines:          lines,
				Total:          total,
				PaymentMethod:  PaymentMethodLabel,
				Status:         OrderStatusCompleted,
				Timestamp:      now,
			}
			currentBuyer.Balance = newBalance
			currentBuyer.TransactionIDs = append(currentBuyer.TransactionIDs, record.TransactionID)
			currentBuyer.OrderIDs = append(currentBuyer.OrderIDs, order.OrderID)
			if err := transactionStore.InsertTransaction(ctx, record); err != nil {
				return err
			}
			if err := transactionStore.InsertOrder(ctx, order); err != nil {
				return err
			}
			if err := transactionStore.SaveAccount(ctx, currentBuyer); err != nil {
				return err
			}
			for index, liveProduct := range liveProducts {
				liveProduct.Stock -= lines[index].Quantity
				liveProduct.UpdatedAt = now
				if err := transactionStore.SaveProduct(ctx, liveProduct); err != nil {
					return err
				}
			}
			return nil
		})
	}()
	service.logOperation(ctx, OperationLog{
		Operation:        operationCheckout,
		SourceAccountID:  buyerAccountID,
		Kind:             KindStorePayment,
		AmountMinorUnits: totalAmount,
		TransactionID:    record.TransactionID,
		OrderID:          order.OrderID,
		Error:            operationError,
	})
	if operationError != nil {
		return TransactionRecord{}, OrderRecord{}, operationError
	}
	cart.Clear()
	return record, order, nil
}
