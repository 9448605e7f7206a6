// Package catalog implements product and category management plus the
// administrative reporting views over accounts, transactions, and orders.
package catalog

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/vianovi/Mart-Bank-Project/internal/config"
	"github.com/vianovi/Mart-Bank-Project/pkg/ledger"
	"github.com/vianovi/Mart-Bank-Project/pkg/money"
)

// Service manages the product catalog. Category membership is validated
// against the configured category set, so the config service is a hard
// dependency alongside the store.
type Service struct {
	store         ledger.Store
	configService *config.Service
	nowFn         func() time.Time
	logger        *zap.Logger
}

// NewService wires a catalog Service.
func NewService(store ledger.Store, configService *config.Service, now func() time.Time, logger *zap.Logger) (*Service, error) {
	if store == nil || configService == nil || now == nil {
		return nil, fmt.Errorf("%w: missing catalog dependency", ledger.ErrInvalidServiceConfig)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{store: store, configService: configService, nowFn: now, logger: logger}, nil
}

// ProductInput carries the admin-editable product fields.
type ProductInput struct {
	Name        string
	Price       money.Value
	Stock       int64
	Category    string
	Description string
}

func (service *Service) validateProductInput(ctx context.Context, input ProductInput) (ProductInput, error) {
	input.Name = strings.TrimSpace(input.Name)
	input.Category = strings.TrimSpace(input.Category)
	input.Description = strings.TrimSpace(input.Description)
	if input.Name == "" {
		return input, fmt.Errorf("%w: name must not be empty", ledger.ErrInvalidProduct)
	}
	if !input.Price.IsPositive() {
		return input, fmt.Errorf("%w: price must be positive", ledger.ErrInvalidAmount)
	}
	if input.Stock < 0 {
		return input, fmt.Errorf("%w: stock must not be negative", ledger.ErrInvalidQuantity)
	}
	if !service.categoryExists(ctx, input.Category) {
		return input, fmt.Errorf("%w: unknown category %q", ledger.ErrInvalidCategory, input.Category)
	}
	return input, nil
}

func (service *Service) categoryExists(ctx context.Context, category string) bool {
	for _, known := range service.configService.Load(ctx).Categories {
		if strings.EqualFold(known, category) {
			return true
		}
	}
	return false
}

// CreateProduct validates and inserts a new product.
func (service *Service) CreateProduct(ctx context.Context, input ProductInput) (ledger.Product, error) {
	input, err := service.validateProductInput(ctx, input)
	if err != nil {
		return ledger.Product{}, err
	}
	now := service.nowFn()
	product := ledger.Product{
		ProductID:   uuid.NewString(),
		Name:        input.Name,
		Price:       input.Price,
		Stock:       input.Stock,
		Category:    input.Category,
		Description: input.Description,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := service.store.InsertProduct(ctx, product); err != nil {
		return ledger.Product{}, ledger.WrapError("catalog", "product", "create", err)
	}
	service.logger.Info("product created",
		zap.String("product_id", product.ProductID),
		zap.String("name", product.Name))
	return product, nil
}

// UpdateProduct replaces the editable fields of an existing product and
// bumps its updated-at timestamp.
func (service *Service) UpdateProduct(ctx context.Context, productID string, input ProductInput) (ledger.Product, error) {
	input, err := service.validateProductInput(ctx, input)
	if err != nil {
		return ledger.Product{}, err
	}
	product, err := service.store.GetProduct(ctx, productID)
	if err != nil {
		return ledger.Product{}, ledger.WrapError("catalog", "product", "update", err)
	}
	product.Name = input.Name
	product.Price = input.Price
	product.Stock = input.Stock
	product.Category = input.Category
	product.Description = input.Description
	product.UpdatedAt = service.nowFn()
	if err := service.store.SaveProduct(ctx, product); err != nil {
		return ledger.Product{}, ledger.WrapError("catalog", "product", "update", err)
	}
	service.logger.Info("product updated", zap.String("product_id", product.ProductID))
	return product, nil
}

// AdjustStock adds delta to the product's stock. Negative adjustments may
// not push stock below zero.
func (service *Service) AdjustStock(ctx context.Context, productID string, delta int64) (ledger.Product, error) {
	product, err := service.store.GetProduct(ctx, productID)
	if err != nil {
		return ledger.Product{}, ledger.WrapError("catalog", "product", "restock", err)
	}
	next := product.Stock + delta
	if next < 0 {
		return ledger.Product{}, fmt.Errorf("%w: adjustment leaves %d units", ledger.ErrInvalidQuantity, next)
	}
	product.Stock = next
	product.UpdatedAt = service.nowFn()
	if err := service.store.SaveProduct(ctx, product); err != nil {
		return ledger.Product{}, ledger.WrapError("catalog", "product", "restock", err)
	}
	return product, nil
}

// DeleteProduct removes a product from the catalog. Historical order lines
// keep their snapshots, so reports are unaffected.
func (service *Service) DeleteProduct(ctx context.Context, productID string) error {
	deleted, err := service.store.DeleteProduct(ctx, productID)
	if err != nil {
		return ledger.WrapError("catalog", "product", "delete", err)
	}
	if !deleted {
		return fmt.Errorf("%w: %s", ledger.ErrUnknownProduct, productID)
	}
	service.logger.Info("product deleted", zap.String("product_id", productID))
	return nil
}

// GetProduct returns a single product by id.
func (service *Service) GetProduct(ctx context.Context, productID string) (ledger.Product, error) {
	product, err := service.store.GetProduct(ctx, productID)
	if err != nil {
		return ledger.Product{}, ledger.WrapError("catalog", "product", "lookup", err)
	}
	return product, nil
}

// ListFilter narrows a catalog listing. Zero value lists everything.
type ListFilter struct {
	Category string
	Keyword  string
}

// ListProducts returns the catalog sorted by name, optionally narrowed to
// one category and a case-insensitive keyword over name and description.
func (service *Service) ListProducts(ctx context.Context, filter ListFilter) ([]ledger.Product, error) {
	products, err := service.store.ListProducts(ctx)
	if err != nil {
		return nil, ledger.WrapError("catalog", "product", "list", err)
	}
	keyword := strings.ToLower(strings.TrimSpace(filter.Keyword))
	filtered := make([]ledger.Product, 0, len(products))
	for _, product := range products {
		if filter.Category != "" && !strings.EqualFold(product.Category, filter.Category) {
			continue
		}
		if keyword != "" &&
			!strings.Contains(strings.ToLower(product.Name), keyword) &&
			!strings.Contains(strings.ToLower(product.Description), keyword) {
			continue
		}
		filtered = append(filtered, product)
	}
	sort.Slice(filtered, func(i, j int) bool { return filtered[i].Name < filtered[j].Name })
	return filtered, nil
}

// Categories returns the configured category list.
func (service *Service) Categories(ctx context.Context) []string {
	return service.configService.Load(ctx).Categories
}

// AddCategory appends a new unique category to the configured set.
func (service *Service) AddCategory(ctx context.Context, name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return fmt.Errorf("%w: category name must not be empty", ledger.ErrInvalidCategory)
	}
	document := service.configService.Load(ctx)
	for _, known := range document.Categories {
		if strings.EqualFold(known, name) {
			return fmt.Errorf("%w: %q already exists", ledger.ErrInvalidCategory, name)
		}
	}
	document.Categories = append(document.Categories, name)
	if err := service.configService.Save(ctx, document); err != nil {
		return ledger.WrapError("catalog", "category", "add", err)
	}
	service.logger.Info("category added", zap.String("category", name))
	return nil
}

// RemoveCategory deletes a category from the configured set. Removal is
// refused while any product still uses the category.
func (service *Service) RemoveCategory(ctx context.Context, name string) error {
	products, err := service.store.ListProducts(ctx)
	if err != nil {
		return ledger.WrapError("catalog", "category", "remove", err)
	}
	for _, product := range products {
		if strings.EqualFold(product.Category, name) {
			return fmt.Errorf("%w: %q is still used by %q", ledger.ErrInvalidCategory, name, product.Name)
		}
	}
	document := service.configService.Load(ctx)
	remaining := make([]string, 0, len(document.Categories))
	found := false
	for _, known := range document.Categories {
		if strings.EqualFold(known, name) {
			found = true
			continue
		}
		remaining = append(remaining, known)
	}
	if !found {
		return fmt.Errorf("%w: unknown category %q", ledger.ErrInvalidCategory, name)
	}
	document.Categories = remaining
	if err := service.configService.Save(ctx, document); err != nil {
		return ledger.WrapError("catalog", "category", "remove", err)
	}
	service.logger.Info("category removed", zap.String("category", name))
	return nil
}
