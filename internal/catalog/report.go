package catalog

import (
	"context"
	"sort"

	"github.com/vianovi/Mart-Bank-Project/pkg/ledger"
	"github.com/vianovi/Mart-Bank-Project/pkg/money"
)

// ProductSales aggregates units sold and revenue for one product, built
// from order line snapshots so deleted products still report correctly.
type ProductSales struct {
	ProductID   string
	ProductName string
	UnitsSold   int64
	Revenue     money.Value
}

// SalesReport summarizes completed store orders.
type SalesReport struct {
	OrderCount   int
	GrossRevenue money.Value
	TopProducts  []ProductSales
}

// BuildSalesReport aggregates every order into a store-wide report. Top
// products are ordered by units sold, ties broken by name.
func (service *Service) BuildSalesReport(ctx context.Context) (SalesReport, error) {
	orders, err := service.store.ListOrders(ctx)
	if err != nil {
		return SalesReport{}, ledger.WrapError("catalog", "report", "sales", err)
	}
	report := SalesReport{GrossRevenue: money.Zero(money.IDR)}
	perProduct := make(map[string]*ProductSales)
	for _, order := range orders {
		report.OrderCount++
		total, err := report.GrossRevenue.Add(order.Total)
		if err != nil {
			return SalesReport{}, ledger.WrapError("catalog", "report", "sales", err)
		}
		report.GrossRevenue = total
		for _, line := range order.Lines {
			sales, ok := perProduct[line.ProductID]
			if !ok {
				sales = &ProductSales{
					ProductID:   line.ProductID,
					ProductName: line.ProductName,
					Revenue:     money.Zero(money.IDR),
				}
				perProduct[line.ProductID] = sales
			}
			sales.UnitsSold += line.Quantity
			subtotal, err := line.Subtotal()
			if err != nil {
				return SalesReport{}, ledger.WrapError("catalog", "report", "sales", err)
			}
			revenue, err := sales.Revenue.Add(subtotal)
			if err != nil {
				return SalesReport{}, ledger.WrapError("catalog", "report", "sales", err)
			}
			sales.Revenue = revenue
		}
	}
	for _, sales := range perProduct {
		report.TopProducts = append(report.TopProducts, *sales)
	}
	sort.Slice(report.TopProducts, func(i, j int) bool {
		if report.TopProducts[i].UnitsSold != report.TopProducts[j].UnitsSold {
			return report.TopProducts[i].UnitsSold > report.TopProducts[j].UnitsSold
		}
		return report.TopProducts[i].ProductName < report.TopProducts[j].ProductName
	})
	return report, nil
}

// AccountOverview is the admin view of one account.
type AccountOverview struct {
	Account ledger.Account
	Locked  bool
}

// ListAccountOverviews returns every account with its current lock status,
// sorted by username.
func (service *Service) ListAccountOverviews(ctx context.Context) ([]AccountOverview, error) {
	accounts, err := service.store.ListAccounts(ctx)
	if err != nil {
		return nil, ledger.WrapError("catalog", "report", "accounts", err)
	}
	now := service.nowFn()
	overviews := make([]AccountOverview, 0, len(accounts))
	for _, account := range accounts {
		overviews = append(overviews, AccountOverview{
			Account: account,
			Locked:  account.IsLocked(now),
		})
	}
	sort.Slice(overviews, func(i, j int) bool {
		return overviews[i].Account.Username < overviews[j].Account.Username
	})
	return overviews, nil
}

// ListAllTransactions returns every transaction in the system, newest first.
func (service *Service) ListAllTransactions(ctx context.Context) ([]ledger.TransactionRecord, error) {
	records, err := service.store.ListTransactions(ctx)
	if err != nil {
		return nil, ledger.WrapError("catalog", "report", "transactions", err)
	}
	sort.Slice(records, func(i, j int) bool {
		return records[i].Timestamp.After(records[j].Timestamp)
	})
	return records, nil
}
