package console

import (
	"context"
	"strings"

	"github.com/vianovi/Mart-Bank-Project/internal/catalog"
	"github.com/vianovi/Mart-Bank-Project/internal/session"
	"github.com/vianovi/Mart-Bank-Project/pkg/ledger"
)

func (console *Console) customerMenu(ctx context.Context, current *session.Session) error {
	for {
		console.printf("\n--- Main Menu (%s) ---\n1. Store\n2. Bank\n3. Account settings\n0. Logout\n", current.Username)
		choice, err := console.promptLine("Select: ")
		if err != nil {
			return err
		}
		switch choice {
		case "1":
			if err := console.storeMenu(ctx, current); err != nil {
				return err
			}
		case "2":
			if err := console.bankMenu(ctx, current); err != nil {
				return err
			}
		case "3":
			if err := console.settingsMenu(ctx, current); err != nil {
				return err
			}
		case "0":
			current.Cart.Clear()
			console.printf("Logged out.\n")
			return nil
		default:
			console.printf("Unknown option %q.\n", choice)
		}
	}
}

func (console *Console) storeMenu(ctx context.Context, current *session.Session) error {
	for {
		console.printf("\n--- Store ---\n1. Browse products\n2. Search products\n3. Add to cart\n4. View cart\n5. Update cart item\n6. Checkout\n0. Back\n")
		choice, err := console.promptLine("Select: ")
		if err != nil {
			return err
		}
		switch choice {
		case "1":
			err = console.browseProducts(ctx)
		case "2":
			err = console.searchProducts(ctx)
		case "3":
			err = console.addToCart(ctx, current)
		case "4":
			console.renderCart(current)
		case "5":
			err = console.updateCartItem(ctx, current)
		case "6":
			err = console.checkoutFlow(ctx, current)
		case "0":
			return nil
		default:
			console.printf("Unknown option %q.\n", choice)
		}
		if err != nil {
			return err
		}
	}
}

func (console *Console) browseProducts(ctx context.Context) error {
	category, err := console.promptLine("Category (blank for all): ")
	if err != nil {
		return err
	}
	products, err := console.catalogService.ListProducts(ctx, catalog.ListFilter{Category: category})
	if err != nil {
		console.printf("Could not list products: %v\n", err)
		return nil
	}
	console.renderProducts(products)
	return nil
}

func (console *Console) searchProducts(ctx context.Context) error {
	keyword, err := console.promptLine("Keyword: ")
	if err != nil {
		return err
	}
	products, err := console.catalogService.ListProducts(ctx, catalog.ListFilter{Keyword: keyword})
	if err != nil {
		console.printf("Search failed: %v\n", err)
		return nil
	}
	console.renderProducts(products)
	return nil
}

func (console *Console) renderProducts(products []ledger.Product) {
	if len(products) == 0 {
		console.printf("No products found.\n")
		return
	}
	for index, product := range products {
		console.printf("%d. %s | %s | stock %d | %s\n",
			index+1, product.Name, product.Price.Format(), product.Stock, product.Category)
		console.printf("   id: %s\n", product.ProductID)
	}
}

func (console *Console) addToCart(ctx context.Context, current *session.Session) error {
	productID, err := console.promptLine("Product id: ")
	if err != nil {
		return err
	}
	product, lookupErr := console.catalogService.GetProduct(ctx, productID)
	if lookupErr != nil {
		console.printf("Product not found: %v\n", lookupErr)
		return nil
	}
	quantity, err := console.promptQuantity("Quantity: ")
	if err != nil {
		console.printf("Invalid quantity: %v\n", err)
		return nil
	}
	if quantity > product.Stock {
		console.printf("Only %d units of %q in stock.\n", product.Stock, product.Name)
		return nil
	}
	if addErr := current.Cart.AddItem(product, quantity); addErr != nil {
		console.printf("Could not add item: %v\n", addErr)
		return nil
	}
	console.printf("Added %d x %s to the cart.\n", quantity, product.Name)
	return nil
}

func (console *Console) renderCart(current *session.Session) {
	if current.Cart.IsEmpty() {
		console.printf("The cart is empty.\n")
		return
	}
	for _, line := range current.Cart.Lines() {
		subtotal, err := line.Subtotal()
		if err != nil {
			console.printf("%s: %v\n", line.ProductName, err)
			continue
		}
		console.printf("- %s x%d @ %s = %s\n", line.ProductName, line.Quantity, line.UnitPrice.Format(), subtotal.Format())
	}
	total, err := current.Cart.Total()
	if err != nil {
		console.printf("Cart total unavailable: %v\n", err)
		return
	}
	console.printf("Total: %s\n", total.Format())
}

func (console *Console) updateCartItem(ctx context.Context, current *session.Session) error {
	productID, err := console.promptLine("Product id (from the cart): ")
	if err != nil {
		return err
	}
	quantity, err := console.promptQuantity("New quantity (0 removes): ")
	if err != nil {
		console.printf("Invalid quantity: %v\n", err)
		return nil
	}
	if setErr := current.Cart.SetQuantity(productID, quantity); setErr != nil {
		console.printf("Could not update the cart: %v\n", setErr)
		return nil
	}
	console.printf("Cart updated.\n")
	return nil
}

func (console *Console) checkoutFlow(ctx context.Context, current *session.Session) error {
	console.renderCart(current)
	if current.Cart.IsEmpty() {
		return nil
	}
	confirm, err := console.promptLine("Pay with Mart Bank balance? (y/n): ")
	if err != nil {
		return err
	}
	if !strings.EqualFold(confirm, "y") {
		console.printf("Checkout cancelled.\n")
		return nil
	}
	record, order, checkoutErr := console.ledgerService.Checkout(ctx, current.AccountID, current.Cart)
	if checkoutErr != nil {
		console.printf("Checkout failed: %v\n", checkoutErr)
		return nil
	}
	console.printf("Payment complete. Order %s, transaction %s, paid %s.\n",
		order.OrderID, record.TransactionID, order.Total.Format())
	return nil
}

func (console *Console) bankMenu(ctx context.Context, current *session.Session) error {
	for {
		console.printf("\n--- Mart Bank ---\n1. Balance\n2. Deposit\n3. Withdraw\n4. Transfer\n5. Transaction history\n6. Order history\n0. Back\n")
		choice, err := console.promptLine("Select: ")
		if err != nil {
			return err
		}
		switch choice {
		case "1":
			balance, balanceErr := console.ledgerService.Balance(ctx, current.AccountID)
			if balanceErr != nil {
				console.printf("Balance unavailable: %v\n", balanceErr)
				continue
			}
			console.printf("Current balance: %s\n", balance.Format())
		case "2":
			err = console.depositFlow(ctx, current)
		case "3":
			err = console.withdrawFlow(ctx, current)
		case "4":
			err = console.transferFlow(ctx, current)
		case "5":
			err = console.historyFlow(ctx, current)
		case "6":
			err = console.orderHistoryFlow(ctx, current)
		case "0":
			return nil
		default:
			console.printf("Unknown option %q.\n", choice)
		}
		if err != nil {
			return err
		}
	}
}

func (console *Console) depositFlow(ctx context.Context, current *session.Session) error {
	amount, err := console.promptAmount("Deposit amount (Rp): ")
	if err != nil {
		console.printf("Invalid amount: %v\n", err)
		return nil
	}
	record, depositErr := console.ledgerService.Deposit(ctx, current.AccountID, amount)
	if depositErr != nil {
		console.printf("Deposit failed: %v\n", depositErr)
		return nil
	}
	console.printf("Deposited %s. New balance: %s\n", amount.Format(), record.ResultingSourceBalance.Format())
	return nil
}

func (console *Console) withdrawFlow(ctx context.Context, current *session.Session) error {
	amount, err := console.promptAmount("Withdrawal amount (Rp): ")
	if err != nil {
		console.printf("Invalid amount: %v\n", err)
		return nil
	}
	record, withdrawErr := console.ledgerService.Withdraw(ctx, current.AccountID, amount)
	if withdrawErr != nil {
		console.printf("Withdrawal failed: %v\n", withdrawErr)
		return nil
	}
	console.printf("Withdrew %s. New balance: %s\n", amount.Format(), record.ResultingSourceBalance.Format())
	return nil
}

func (console *Console) transferFlow(ctx context.Context, current *session.Session) error {
	destination, err := console.promptLine("Destination username: ")
	if err != nil {
		return err
	}
	amount, err := console.promptAmount("Transfer amount (Rp): ")
	if err != nil {
		console.printf("Invalid amount: %v\n", err)
		return nil
	}
	record, transferErr := console.ledgerService.Transfer(ctx, current.AccountID, destination, amount)
	if transferErr != nil {
		console.printf("Transfer failed: %v\n", transferErr)
		return nil
	}
	console.printf("Transferred %s to %s. New balance: %s\n",
		amount.Format(), destination, record.ResultingSourceBalance.Format())
	return nil
}

func (console *Console) historyFlow(ctx context.Context, current *session.Session) error {
	records, err := console.ledgerService.TransactionHistory(ctx, current.AccountID)
	if err != nil {
		console.printf("History unavailable: %v\n", err)
		return nil
	}
	if len(records) == 0 {
		console.printf("No transactions yet.\n")
		return nil
	}
	for _, record := range records {
		console.printf("%s | %s | %s | %s\n",
			record.Timestamp.Format(ledger.TimestampLayout), record.Kind, record.Amount.Format(), record.Note)
	}
	return nil
}

func (console *Console) orderHistoryFlow(ctx context.Context, current *session.Session) error {
	orders, err := console.ledgerService.OrderHistory(ctx, current.AccountID)
	if err != nil {
		console.printf("Order history unavailable: %v\n", err)
		return nil
	}
	if len(orders) == 0 {
		console.printf("No orders yet.\n")
		return nil
	}
	for _, order := range orders {
		console.printf("%s | order %s | %s | %s\n",
			order.Timestamp.Format(ledger.TimestampLayout), order.OrderID, order.Total.Format(), order.Status)
		for _, line := range order.Lines {
			console.printf("   %s x%d @ %s\n", line.ProductName, line.Quantity, line.UnitPrice.Format())
		}
	}
	return nil
}

func (console *Console) settingsMenu(ctx context.Context, current *session.Session) error {
	for {
		console.printf("\n--- Account Settings ---\n1. Change password\n2. Set transaction PIN\n3. Update profile\n0. Back\n")
		choice, err := console.promptLine("Select: ")
		if err != nil {
			return err
		}
		switch choice {
		case "1":
			oldPassword, promptErr := console.promptLine("Current password: ")
			if promptErr != nil {
				return promptErr
			}
			newPassword, promptErr := console.promptLine("New password: ")
			if promptErr != nil {
				return promptErr
			}
			if changeErr := console.authService.ChangePassword(ctx, current.AccountID, oldPassword, newPassword); changeErr != nil {
				console.printf("Password change failed: %v\n", changeErr)
				continue
			}
			console.printf("Password changed.\n")
		case "2":
			newPin, promptErr := console.promptLine("New 6-digit PIN: ")
			if promptErr != nil {
				return promptErr
			}
			if setErr := console.authService.SetPin(ctx, current.AccountID, newPin); setErr != nil {
				console.printf("PIN update failed: %v\n", setErr)
				continue
			}
			console.printf("PIN updated.\n")
		case "3":
			fullName, promptErr := console.promptLine("Full name: ")
			if promptErr != nil {
				return promptErr
			}
			email, promptErr := console.promptLine("Email (optional): ")
			if promptErr != nil {
				return promptErr
			}
			if updateErr := console.authService.UpdateProfile(ctx, current.AccountID, fullName, email); updateErr != nil {
				console.printf("Profile update failed: %v\n", updateErr)
				continue
			}
			console.printf("Profile updated.\n")
		case "0":
			return nil
		default:
			console.printf("Unknown option %q.\n", choice)
		}
	}
}
