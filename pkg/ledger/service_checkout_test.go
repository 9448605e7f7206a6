package ledger

import (
	"context"
	"errors"
	"testing"
)

func TestCheckoutDebitsBalanceStockAndCreatesBothRecords(test *testing.T) {
	test.Parallel()
	store := newStubStore()
	buyer := seedAccount(test, store, "citra", 100000)
	milk := seedProduct(test, store, "UHT Milk 1L", 18500, 10)
	rice := seedProduct(test, store, "Rice 5kg", 75000, 4)
	service := mustNewService(test, store, &stubAuthorizer{})

	cart := NewCart()
	if err := cart.AddItem(milk, 2); err != nil {
		test.Fatalf("add item: %v", err)
	}
	if err := cart.AddItem(rice, 1); err != nil {
		test.Fatalf("add item: %v", err)
	}

	record, order, err := service.Checkout(context.Background(), buyer.AccountID, cart)
	if err != nil {
		test.Fatalf("checkout: %v", err)
	}

	expectedTotal := int64(2*18500 + 75000)
	if record.Amount.Amount() != expectedTotal {
		test.Fatalf("expected payment %d, got %d", expectedTotal, record.Amount.Amount())
	}
	if record.Kind != KindStorePayment {
		test.Fatalf("expected store payment kind, got %s", record.Kind)
	}
	buyerAfter := store.accounts[buyer.AccountID]
	if buyerAfter.Balance.Amount() != 100000-expectedTotal {
		test.Fatalf("expected balance %d, got %d", 100000-expectedTotal, buyerAfter.Balance.Amount())
	}
	if store.products[milk.ProductID].Stock != 8 || store.products[rice.ProductID].Stock != 3 {
		test.Fatalf("stock not decremented: milk=%d rice=%d", store.products[milk.ProductID].Stock, store.products[rice.ProductID].Stock)
	}
	if len(store.transactions) != 1 || len(store.orders) != 1 {
		test.Fatalf("expected one transaction and one order, got %d and %d", len(store.transactions), len(store.orders))
	}
	if order.Total.Amount() != expectedTotal || len(order.Lines) != 2 {
		test.Fatalf("unexpected order snapshot: %+v", order)
	}
	if order.Status != OrderStatusCompleted || order.PaymentMethod != PaymentMethodLabel {
		test.Fatalf("unexpected order labels: %+v", order)
	}
	if len(buyerAfter.TransactionIDs) != 1 || len(buyerAfter.OrderIDs) != 1 {
		test.Fatalf("record ids not appended to buyer history")
	}
	if !cart.IsEmpty() {
		test.Fatalf("cart not cleared after successful checkout")
	}
}

func TestCheckoutInsufficientStockAbortsWholeCart(test *testing.T) {
	test.Parallel()
	store := newStubStore()
	buyer := seedAccount(test, store, "citra", 500000)
	milk := seedProduct(test, store, "UHT Milk 1L", 18500, 5)
	apple := seedProduct(test, store, "Fuji Apple kg", 35000, 2)
	service := mustNewService(test, store, &stubAuthorizer{})

	cart := NewCart()
	if err := cart.AddItem(milk, 1); err != nil {
		test.Fatalf("add item: %v", err)
	}
	if err := cart.AddItem(apple, 3); err != nil {
		test.Fatalf("add item: %v", err)
	}

	_, _, err := service.Checkout(context.Background(), buyer.AccountID, cart)
	if !errors.Is(err, ErrInsufficientStock) {
		test.Fatalf("expected ErrInsufficientStock, got %v", err)
	}
	if store.products[milk.ProductID].Stock != 5 || store.products[apple.ProductID].Stock != 2 {
		test.Fatalf("stock changed on aborted checkout")
	}
	if store.accounts[buyer.AccountID].Balance.Amount() != 500000 {
		test.Fatalf("balance changed on aborted checkout")
	}
	if len(store.orders) != 0 || len(store.transactions) != 0 {
		test.Fatalf("records created on aborted checkout")
	}
	if cart.IsEmpty() {
		test.Fatalf("cart cleared on aborted checkout")
	}
}

func TestCheckoutProductDeletedBetweenBrowseAndPay(test *testing.T) {
	test.Parallel()
	store := newStubStore()
	buyer := seedAccount(test, store, "citra", 500000)
	milk := seedProduct(test, store, "UHT Milk 1L", 18500, 5)
	service := mustNewService(test, store, &stubAuthorizer{})

	cart := NewCart()
	if err := cart.AddItem(milk, 1); err != nil {
		test.Fatalf("add item: %v", err)
	}
	delete(store.products, milk.ProductID)

	_, _, err := service.Checkout(context.Background(), buyer.AccountID, cart)
	if !errors.Is(err, ErrInsufficientStock) {
		test.Fatalf("expected ErrInsufficientStock for vanished product, got %v", err)
	}
	if store.accounts[buyer.AccountID].Balance.Amount() != 500000 {
		test.Fatalf("balance changed on aborted checkout")
	}
}

func TestCheckoutInsufficientBalanceRejectedBeforePin(test *testing.T) {
	test.Parallel()
	store := newStubStore()
	buyer := seedAccount(test, store, "citra", 10000)
	rice := seedProduct(test, store, "Rice 5kg", 75000, 4)
	authorizer := &stubAuthorizer{}
	service := mustNewService(test, store, authorizer)

	cart := NewCart()
	if err := cart.AddItem(rice, 1); err != nil {
		test.Fatalf("add item: %v", err)
	}

	_, _, err := service.Checkout(context.Background(), buyer.AccountID, cart)
	if !errors.Is(err, ErrInsufficientFunds) {
		test.Fatalf("expected ErrInsufficientFunds, got %v", err)
	}
	if authorizer.calls != 0 {
		test.Fatalf("pin authorizer consulted despite insufficient balance")
	}
}

func TestCheckoutEmptyCartRejected(test *testing.T) {
	test.Parallel()
	store := newStubStore()
	buyer := seedAccount(test, store, "citra", 10000)
	service := mustNewService(test, store, &stubAuthorizer{})

	if _, _, err := service.Checkout(context.Background(), buyer.AccountID, NewCart()); !errors.Is(err, ErrEmptyCart) {
		test.Fatalf("expected ErrEmptyCart, got %v", err)
	}
}

func TestCheckoutPersistFailureRollsBackEverything(test *testing.T) {
	test.Parallel()
	store := newStubStore()
	buyer := seedAccount(test, store, "citra", 100000)
	milk := seedProduct(test, store, "UHT Milk 1L", 18500, 5)
	store.failOn["InsertOrder"] = errors.New("disk full")
	service := mustNewService(test, store, &stubAuthorizer{})

	cart := NewCart()
	if err := cart.AddItem(milk, 2); err != nil {
		test.Fatalf("add item: %v", err)
	}

	_, _, err := service.Checkout(context.Background(), buyer.AccountID, cart)
	if err == nil {
		test.Fatalf("expected persistence failure")
	}
	if store.accounts[buyer.AccountID].Balance.Amount() != 100000 {
		test.Fatalf("balance leaked from failed checkout")
	}
	if store.products[milk.ProductID].Stock != 5 {
		test.Fatalf("stock leaked from failed checkout")
	}
	if len(store.transactions) != 0 {
		test.Fatalf("transaction leaked from failed checkout")
	}
	if cart.IsEmpty() {
		test.Fatalf("cart cleared despite failed checkout")
	}
}

func TestCheckoutPriceSnapshotSurvivesCatalogEdit(test *testing.T) {
	test.Parallel()
	store := newStubStore()
	buyer := seedAccount(test, store, "citra", 100000)
	milk := seedProduct(test, store, "UHT Milk 1L", 18500, 5)
	service := mustNewService(test, store, &stubAuthorizer{})

	cart := NewCart()
	if err := cart.AddItem(milk, 2); err != nil {
		test.Fatalf("add item: %v", err)
	}

	// Price rises after the shopper added the line; the cart pays what it saw.
	repriced := store.products[milk.ProductID]
	repriced.Price = mustMoney(test, 25000)
	store.products[milk.ProductID] = repriced

	record, _, err := service.Checkout(context.Background(), buyer.AccountID, cart)
	if err != nil {
		test.Fatalf("checkout: %v", err)
	}
	if record.Amount.Amount() != 2*18500 {
		test.Fatalf("expected snapshot price total %d, got %d", 2*18500, record.Amount.Amount())
	}
}
