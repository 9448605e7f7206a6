package ledger

import (
	"fmt"
	"sort"

	"github.com/vianovi/Mart-Bank-Project/pkg/money"
)

// CartLine snapshots a product at add-time: the price a shopper saw is the
// price they pay for the lifetime of the cart.
type CartLine struct {
	ProductID   string
	ProductName string
	UnitPrice   money.Value
	Quantity    int64
}

// Subtotal returns unit price times quantity.
func (line CartLine) Subtotal() (money.Value, error) {
	return line.UnitPrice.Mul(line.Quantity)
}

// Cart is the session-scoped shopping cart. It is never persisted; only a
// successful checkout turns its lines into an order snapshot.
type Cart struct {
	lines map[string]CartLine
}

// NewCart returns an empty cart.
func NewCart() *Cart {
	return &Cart{lines: make(map[string]CartLine)}
}

// AddItem adds quantity of a product, merging into an existing line. The
// unit price is snapshotted from the product on first add.
func (cart *Cart) AddItem(product Product, quantity int64) error {
	if quantity <= 0 {
		return fmt.Errorf("%w: must be greater than zero", ErrInvalidQuantity)
	}
	existing, found := cart.lines[product.ProductID]
	if found {
		existing.Quantity += quantity
		cart.lines[product.ProductID] = existing
		return nil
	}
	cart.lines[product.ProductID] = CartLine{
		ProductID:   product.ProductID,
		ProductName: product.Name,
		UnitPrice:   product.Price,
		Quantity:    quantity,
	}
	return nil
}

// RemoveItem drops a line, reporting whether it existed.
func (cart *Cart) RemoveItem(productID string) bool {
	if _, found := cart.lines[productID]; !found {
		return false
	}
	delete(cart.lines, productID)
	return true
}

// SetQuantity changes a line's quantity. Zero removes the line; negative
// quantities are rejected.
func (cart *Cart) SetQuantity(productID string, quantity int64) error {
	if _, found := cart.lines[productID]; !found {
		return fmt.Errorf("%w: %q not in cart", ErrUnknownProduct, productID)
	}
	if quantity < 0 {
		return fmt.Errorf("%w: must not be negative", ErrInvalidQuantity)
	}
	if quantity == 0 {
		delete(cart.lines, productID)
		return nil
	}
	line := cart.lines[productID]
	line.Quantity = quantity
	cart.lines[productID] = line
	return nil
}

// Lines returns the cart contents ordered by product name for stable display.
func (cart *Cart) Lines() []CartLine {
	lines := make([]CartLine, 0, len(cart.lines))
	for _, line := range cart.lines {
		lines = append(lines, line)
	}
	sort.Slice(lines, func(left, right int) bool {
		return lines[left].ProductName < lines[right].ProductName
	})
	return lines
}

// Total sums all line subtotals.
func (cart *Cart) Total() (money.Value, error) {
	total := money.Zero(money.IDR)
	for _, line := range cart.lines {
		subtotal, err := line.Subtotal()
		if err != nil {
			return money.Value{}, err
		}
		total, err = total.Add(subtotal)
		if err != nil {
			return money.Value{}, err
		}
	}
	return total, nil
}

// IsEmpty reports whether the cart holds no lines.
func (cart *Cart) IsEmpty() bool {
	return len(cart.lines) == 0
}

// Len returns the number of distinct lines.
func (cart *Cart) Len() int {
	return len(cart.lines)
}

// Clear empties the cart.
func (cart *Cart) Clear() {
	cart.lines = make(map[string]CartLine)
}
