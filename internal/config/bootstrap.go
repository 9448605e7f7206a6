package config

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/vianovi/Mart-Bank-Project/internal/auth"
	"github.com/vianovi/Mart-Bank-Project/pkg/ledger"
	"github.com/vianovi/Mart-Bank-Project/pkg/money"
)

// Well-known bootstrap admin credentials. The first login should change them.
const (
	DefaultAdminUsername = "admin"
	DefaultAdminPassword = "Adminpinter123!"
	DefaultAdminPin      = "123456"
	defaultAdminFullName = "Primary Administrator"
	defaultAdminEmail    = "admin@novimart.system"
)

type seedProduct struct {
	name        string
	price       int64
	stock       int64
	category    string
	description string
}

var seedProducts = []seedProduct{
	{"Original Potato Chips 100g", 12000, 80, "Snacks", "Crispy and savory."},
	{"Anti-Dandruff Shampoo 250ml", 28000, 60, "Toiletries", "Clears dandruff effectively."},
	{"UHT Full Cream Milk 1L", 18500, 150, "Beverages", "Fresh quality UHT milk."},
	{"Pandan Wangi Rice 5kg", 75000, 40, "Staples", "Premium rice with pandan aroma."},
	{"Fuji Apples per kg", 35000, 25, "Fresh Produce", "Fresh apples, sweet and crisp."},
	{"LED Bulb 10W", 22000, 50, "Home Electronics", "Energy-saving bulb."},
}

// Bootstrap runs the idempotent first-start sequence: ensure the default
// primary admin exists, seed the catalog when empty, and mark setup
// complete. Safe to run on every process start.
func Bootstrap(ctx context.Context, store ledger.Store, configService *Service, verifier auth.CredentialVerifier, now func() time.Time, logger *zap.Logger) error {
	if logger == nil {
		logger = zap.NewNop()
	}
	document := configService.Load(ctx)

	if err := ensureDefaultAdmin(ctx, store, verifier, now, logger); err != nil {
		return err
	}
	document.AdminBootstrapped = true

	if !document.SetupComplete {
		if err := seedCatalogIfEmpty(ctx, store, now, logger); err != nil {
			return err
		}
		document.SetupComplete = true
	}
	return configService.Save(ctx, document)
}

func ensureDefaultAdmin(ctx context.Context, store ledger.Store, verifier auth.CredentialVerifier, now func() time.Time, logger *zap.Logger) error {
	existing, err := store.GetAccountByUsername(ctx, DefaultAdminUsername)
	if err == nil && existing.Role == ledger.RoleAdminPrimary {
		return nil
	}
	if err == nil {
		// Username taken by a non-primary account; leave it alone.
		logger.Warn("default admin username held by non-admin account",
			zap.String("username", DefaultAdminUsername))
		return nil
	}
	passwordHash, err := verifier.Hash(DefaultAdminPassword)
	if err != nil {
		return err
	}
	pinHash, err := verifier.Hash(DefaultAdminPin)
	if err != nil {
		return err
	}
	admin := ledger.Account{
		AccountID:    uuid.NewString(),
		Username:     DefaultAdminUsername,
		FullName:     defaultAdminFullName,
		Email:        defaultAdminEmail,
		PasswordHash: passwordHash,
		PinHash:      pinHash,
		Role:         ledger.RoleAdminPrimary,
		Balance:      money.Zero(money.IDR),
		CreatedAt:    now(),
	}
	if err := store.InsertAccount(ctx, admin); err != nil {
		return err
	}
	logger.Info("default admin account created", zap.String("username", DefaultAdminUsername))
	return nil
}

func seedCatalogIfEmpty(ctx context.Context, store ledger.Store, now func() time.Time, logger *zap.Logger) error {
	products, err := store.ListProducts(ctx)
	if err != nil {
		return err
	}
	if len(products) > 0 {
		return nil
	}
	for _, seed := range seedProducts {
		price, err := money.NewPositive(seed.price, money.IDR)
		if err != nil {
			return err
		}
		product := ledger.Product{
			ProductID:   uuid.NewString(),
			Name:        seed.name,
			Price:       price,
			Stock:       seed.stock,
			Category:    seed.category,
			Description: seed.description,
			CreatedAt:   now(),
			UpdatedAt:   now(),
		}
		if err := store.InsertProduct(ctx, product); err != nil {
			return err
		}
	}
	logger.Info("seed products created", zap.Int("count", len(seedProducts)))
	return nil
}
