package catalog

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/vianovi/Mart-Bank-Project/internal/config"
	"github.com/vianovi/Mart-Bank-Project/internal/store/memstore"
	"github.com/vianovi/Mart-Bank-Project/pkg/ledger"
	"github.com/vianovi/Mart-Bank-Project/pkg/money"
)

type memoryConfigRepository struct {
	document *config.Document
}

func (repository *memoryConfigRepository) Load(_ context.Context) (config.Document, bool, error) {
	if repository.document == nil {
		return config.Document{}, false, nil
	}
	return *repository.document, true, nil
}

func (repository *memoryConfigRepository) Save(_ context.Context, document config.Document) error {
	repository.document = &document
	return nil
}

type catalogFixture struct {
	service *Service
	store   *memstore.Store
	clock   func() time.Time
}

func newCatalogFixture(test *testing.T) catalogFixture {
	test.Helper()
	clock := func() time.Time { return time.Unix(1700000000, 0).UTC() }
	configService, err := config.NewService(&memoryConfigRepository{}, clock, nil)
	if err != nil {
		test.Fatalf("config service init: %v", err)
	}
	store := memstore.New()
	service, err := NewService(store, configService, clock, nil)
	if err != nil {
		test.Fatalf("catalog service init: %v", err)
	}
	return catalogFixture{service: service, store: store, clock: clock}
}

func mustPrice(test *testing.T, amount int64) money.Value {
	test.Helper()
	value, err := money.NewPositive(amount, money.IDR)
	if err != nil {
		test.Fatalf("price %d: %v", amount, err)
	}
	return value
}

func TestCreateProductValidation(test *testing.T) {
	test.Parallel()
	fixture := newCatalogFixture(test)
	ctx := context.Background()

	cases := []struct {
		name  string
		input ProductInput
		want  error
	}{
		{"empty name", ProductInput{Name: " ", Price: mustPrice(test, 1000), Category: "Snacks"}, ledger.ErrInvalidProduct},
		{"negative stock", ProductInput{Name: "Crackers", Price: mustPrice(test, 1000), Stock: -1, Category: "Snacks"}, ledger.ErrInvalidQuantity},
		{"unknown category", ProductInput{Name: "Crackers", Price: mustPrice(test, 1000), Category: "Weapons"}, ledger.ErrInvalidCategory},
	}
	for _, testCase := range cases {
		if _, err := fixture.service.CreateProduct(ctx, testCase.input); !errors.Is(err, testCase.want) {
			test.Errorf("%s: expected %v, got %v", testCase.name, testCase.want, err)
		}
	}

	product, err := fixture.service.CreateProduct(ctx, ProductInput{
		Name:     "Crackers 200g",
		Price:    mustPrice(test, 9500),
		Stock:    30,
		Category: "Snacks",
	})
	if err != nil {
		test.Fatalf("valid product rejected: %v", err)
	}
	if product.ProductID == "" {
		test.Fatalf("product id not assigned")
	}
	if !product.CreatedAt.Equal(fixture.clock()) || !product.UpdatedAt.Equal(fixture.clock()) {
		test.Fatalf("timestamps not stamped from clock")
	}
}

func TestUpdateProductBumpsTimestamp(test *testing.T) {
	test.Parallel()
	current := time.Unix(1700000000, 0).UTC()
	clock := func() time.Time { return current }
	configService, err := config.NewService(&memoryConfigRepository{}, clock, nil)
	if err != nil {
		test.Fatalf("config service init: %v", err)
	}
	store := memstore.New()
	service, err := NewService(store, configService, clock, nil)
	if err != nil {
		test.Fatalf("catalog service init: %v", err)
	}
	ctx := context.Background()

	product, err := service.CreateProduct(ctx, ProductInput{
		Name:     "UHT Milk 1L",
		Price:    mustPrice(test, 18500),
		Stock:    10,
		Category: "Beverages",
	})
	if err != nil {
		test.Fatalf("create: %v", err)
	}

	current = current.Add(time.Hour)
	updated, err := service.UpdateProduct(ctx, product.ProductID, ProductInput{
		Name:     "UHT Milk 1L",
		Price:    mustPrice(test, 19000),
		Stock:    12,
		Category: "Beverages",
	})
	if err != nil {
		test.Fatalf("update: %v", err)
	}
	if updated.Price.Amount() != 19000 || updated.Stock != 12 {
		test.Fatalf("fields not updated: %+v", updated)
	}
	if !updated.UpdatedAt.After(updated.CreatedAt) {
		test.Fatalf("updated-at not bumped")
	}
}

func TestAdjustStockRejectsUnderflow(test *testing.T) {
	test.Parallel()
	fixture := newCatalogFixture(test)
	ctx := context.Background()
	product, err := fixture.service.CreateProduct(ctx, ProductInput{
		Name: "Rice 5kg", Price: mustPrice(test, 75000), Stock: 5, Category: "Staples",
	})
	if err != nil {
		test.Fatalf("create: %v", err)
	}
	if _, err := fixture.service.AdjustStock(ctx, product.ProductID, -6); !errors.Is(err, ledger.ErrInvalidQuantity) {
		test.Fatalf("expected underflow rejection, got %v", err)
	}
	adjusted, err := fixture.service.AdjustStock(ctx, product.ProductID, 20)
	if err != nil {
		test.Fatalf("restock: %v", err)
	}
	if adjusted.Stock != 25 {
		test.Fatalf("expected stock 25, got %d", adjusted.Stock)
	}
}

func TestListProductsFilterAndSearch(test *testing.T) {
	test.Parallel()
	fixture := newCatalogFixture(test)
	ctx := context.Background()
	seeds := []ProductInput{
		{Name: "Potato Chips", Price: mustPrice(test, 12000), Stock: 5, Category: "Snacks", Description: "crispy"},
		{Name: "Corn Chips", Price: mustPrice(test, 11000), Stock: 5, Category: "Snacks", Description: "salty"},
		{Name: "Green Tea", Price: mustPrice(test, 8000), Stock: 5, Category: "Beverages", Description: "refreshing"},
	}
	for _, seed := range seeds {
		if _, err := fixture.service.CreateProduct(ctx, seed); err != nil {
			test.Fatalf("seed %q: %v", seed.Name, err)
		}
	}

	snacks, err := fixture.service.ListProducts(ctx, ListFilter{Category: "snacks"})
	if err != nil {
		test.Fatalf("list: %v", err)
	}
	if len(snacks) != 2 || snacks[0].Name != "Corn Chips" || snacks[1].Name != "Potato Chips" {
		test.Fatalf("unexpected category listing: %+v", snacks)
	}

	matches, err := fixture.service.ListProducts(ctx, ListFilter{Keyword: "CHIPS"})
	if err != nil {
		test.Fatalf("search: %v", err)
	}
	if len(matches) != 2 {
		test.Fatalf("case-insensitive keyword expected 2 matches, got %d", len(matches))
	}

	byDescription, err := fixture.service.ListProducts(ctx, ListFilter{Keyword: "refreshing"})
	if err != nil {
		test.Fatalf("search: %v", err)
	}
	if len(byDescription) != 1 || byDescription[0].Name != "Green Tea" {
		test.Fatalf("description keyword not matched: %+v", byDescription)
	}
}

func TestCategoryAddAndRemove(test *testing.T) {
	test.Parallel()
	fixture := newCatalogFixture(test)
	ctx := context.Background()

	if err := fixture.service.AddCategory(ctx, "Frozen Food"); err != nil {
		test.Fatalf("add: %v", err)
	}
	if err := fixture.service.AddCategory(ctx, "frozen food"); !errors.Is(err, ledger.ErrInvalidCategory) {
		test.Fatalf("duplicate category accepted: %v", err)
	}

	if _, err := fixture.service.CreateProduct(ctx, ProductInput{
		Name: "Frozen Dumplings", Price: mustPrice(test, 25000), Stock: 8, Category: "Frozen Food",
	}); err != nil {
		test.Fatalf("product in new category rejected: %v", err)
	}

	if err := fixture.service.RemoveCategory(ctx, "Frozen Food"); !errors.Is(err, ledger.ErrInvalidCategory) {
		test.Fatalf("in-use category removal accepted: %v", err)
	}

	categories := fixture.service.Categories(ctx)
	found := false
	for _, category := range categories {
		if category == "Frozen Food" {
			found = true
		}
	}
	if !found {
		test.Fatalf("category vanished despite refused removal: %v", categories)
	}

	if err := fixture.service.AddCategory(ctx, "Stationery"); err != nil {
		test.Fatalf("add: %v", err)
	}
	if err := fixture.service.RemoveCategory(ctx, "Stationery"); err != nil {
		test.Fatalf("unused category removal refused: %v", err)
	}
}

func TestDeleteProduct(test *testing.T) {
	test.Parallel()
	fixture := newCatalogFixture(test)
	ctx := context.Background()
	product, err := fixture.service.CreateProduct(ctx, ProductInput{
		Name: "LED Bulb", Price: mustPrice(test, 22000), Stock: 3, Category: "Home Electronics",
	})
	if err != nil {
		test.Fatalf("create: %v", err)
	}
	if err := fixture.service.DeleteProduct(ctx, product.ProductID); err != nil {
		test.Fatalf("delete: %v", err)
	}
	if err := fixture.service.DeleteProduct(ctx, product.ProductID); !errors.Is(err, ledger.ErrUnknownProduct) {
		test.Fatalf("expected unknown product, got %v", err)
	}
	if _, err := fixture.service.GetProduct(ctx, product.ProductID); !errors.Is(err, ledger.ErrUnknownProduct) {
		test.Fatalf("deleted product still readable: %v", err)
	}
}

func seedOrder(test *testing.T, store *memstore.Store, lines []ledger.CartLine, at time.Time) {
	test.Helper()
	total := money.Zero(money.IDR)
	for _, line := range lines {
		subtotal, err := line.Subtotal()
		if err != nil {
			test.Fatalf("subtotal: %v", err)
		}
		total, err = total.Add(subtotal)
		if err != nil {
			test.Fatalf("total: %v", err)
		}
	}
	order := ledger.OrderRecord{
		OrderID:        uuid.NewString(),
		BuyerAccountID: uuid.NewString(),
		Lines:          lines,
		Total:          total,
		PaymentMethod:  ledger.PaymentMethodLabel,
		Status:         ledger.OrderStatusCompleted,
		Timestamp:      at,
	}
	if err := store.InsertOrder(context.Background(), order); err != nil {
		test.Fatalf("insert order: %v", err)
	}
}

func TestBuildSalesReport(test *testing.T) {
	test.Parallel()
	fixture := newCatalogFixture(test)
	at := fixture.clock()

	milkLine := ledger.CartLine{ProductID: "p-milk", ProductName: "UHT Milk", UnitPrice: mustPrice(test, 18500), Quantity: 2}
	riceLine := ledger.CartLine{ProductID: "p-rice", ProductName: "Rice 5kg", UnitPrice: mustPrice(test, 75000), Quantity: 1}
	seedOrder(test, fixture.store, []ledger.CartLine{milkLine, riceLine}, at)
	seedOrder(test, fixture.store, []ledger.CartLine{{ProductID: "p-milk", ProductName: "UHT Milk", UnitPrice: mustPrice(test, 18500), Quantity: 3}}, at)

	report, err := fixture.service.BuildSalesReport(context.Background())
	if err != nil {
		test.Fatalf("report: %v", err)
	}
	if report.OrderCount != 2 {
		test.Fatalf("expected 2 orders, got %d", report.OrderCount)
	}
	wantGross := int64(2*18500 + 75000 + 3*18500)
	if report.GrossRevenue.Amount() != wantGross {
		test.Fatalf("expected gross %d, got %d", wantGross, report.GrossRevenue.Amount())
	}
	if len(report.TopProducts) != 2 {
		test.Fatalf("expected 2 product rows, got %d", len(report.TopProducts))
	}
	top := report.TopProducts[0]
	if top.ProductID != "p-milk" || top.UnitsSold != 5 || top.Revenue.Amount() != 5*18500 {
		test.Fatalf("unexpected top product: %+v", top)
	}
}

func TestSalesReportSurvivesProductDeletion(test *testing.T) {
	test.Parallel()
	fixture := newCatalogFixture(test)
	ctx := context.Background()
	product, err := fixture.service.CreateProduct(ctx, ProductInput{
		Name: "Fuji Apples", Price: mustPrice(test, 35000), Stock: 10, Category: "Fresh Produce",
	})
	if err != nil {
		test.Fatalf("create: %v", err)
	}
	seedOrder(test, fixture.store, []ledger.CartLine{{
		ProductID: product.ProductID, ProductName: product.Name, UnitPrice: product.Price, Quantity: 4,
	}}, fixture.clock())
	if err := fixture.service.DeleteProduct(ctx, product.ProductID); err != nil {
		test.Fatalf("delete: %v", err)
	}

	report, err := fixture.service.BuildSalesReport(ctx)
	if err != nil {
		test.Fatalf("report: %v", err)
	}
	if len(report.TopProducts) != 1 || report.TopProducts[0].ProductName != "Fuji Apples" {
		test.Fatalf("snapshot rows lost after deletion: %+v", report.TopProducts)
	}
}

func TestListAccountOverviewsReportsLockStatus(test *testing.T) {
	test.Parallel()
	fixture := newCatalogFixture(test)
	ctx := context.Background()
	lockedUntil := fixture.clock().Add(5 * time.Minute)
	accounts := []ledger.Account{
		{AccountID: uuid.NewString(), Username: "zara", Role: ledger.RoleCustomer, Balance: money.Zero(money.IDR), LockedUntil: &lockedUntil},
		{AccountID: uuid.NewString(), Username: "andi", Role: ledger.RoleCustomer, Balance: money.Zero(money.IDR)},
	}
	for _, account := range accounts {
		if err := fixture.store.InsertAccount(ctx, account); err != nil {
			test.Fatalf("insert account: %v", err)
		}
	}

	overviews, err := fixture.service.ListAccountOverviews(ctx)
	if err != nil {
		test.Fatalf("overviews: %v", err)
	}
	if len(overviews) != 2 || overviews[0].Account.Username != "andi" {
		test.Fatalf("expected username order, got %+v", overviews)
	}
	if overviews[0].Locked || !overviews[1].Locked {
		test.Fatalf("lock status wrong: %+v", overviews)
	}
}
