package config

import (
	"context"
	"errors"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/vianovi/Mart-Bank-Project/internal/auth"
	"github.com/vianovi/Mart-Bank-Project/internal/store/memstore"
	"github.com/vianovi/Mart-Bank-Project/pkg/ledger"
)

type fakeRepository struct {
	document *Document
	loadErr  error
	saves    int
}

func (repository *fakeRepository) Load(_ context.Context) (Document, bool, error) {
	if repository.loadErr != nil {
		return Document{}, false, repository.loadErr
	}
	if repository.document == nil {
		return Document{}, false, nil
	}
	return *repository.document, true, nil
}

func (repository *fakeRepository) Save(_ context.Context, document Document) error {
	repository.saves++
	repository.document = &document
	return nil
}

func newTestConfigService(test *testing.T, repository Repository, now func() time.Time) *Service {
	test.Helper()
	service, err := NewService(repository, now, nil)
	if err != nil {
		test.Fatalf("config service init: %v", err)
	}
	return service
}

func fixedClock(test *testing.T) func() time.Time {
	test.Helper()
	instant := time.Unix(1700000000, 0).UTC()
	return func() time.Time { return instant }
}

func TestLoadCreatesDefaultDocumentOnFirstAccess(test *testing.T) {
	test.Parallel()
	repository := &fakeRepository{}
	service := newTestConfigService(test, repository, fixedClock(test))

	document := service.Load(context.Background())
	if document.ConfigID != ConfigKey {
		test.Fatalf("expected fixed key %q, got %q", ConfigKey, document.ConfigID)
	}
	if document.StoreName != DefaultStoreName {
		test.Fatalf("expected default store name, got %q", document.StoreName)
	}
	if len(document.Categories) != len(DefaultCategories) {
		test.Fatalf("expected default categories, got %v", document.Categories)
	}
	if repository.saves != 1 {
		test.Fatalf("expected one initialization save, got %d", repository.saves)
	}
}

func TestLoadMergesMissingFieldsOverDefaults(test *testing.T) {
	test.Parallel()
	repository := &fakeRepository{document: &Document{ConfigID: ConfigKey, SetupComplete: true}}
	service := newTestConfigService(test, repository, fixedClock(test))

	document := service.Load(context.Background())
	if document.StoreName != DefaultStoreName {
		test.Fatalf("missing store name not defaulted: %q", document.StoreName)
	}
	if len(document.Categories) == 0 {
		test.Fatalf("missing category list not defaulted")
	}
	if !document.SetupComplete {
		test.Fatalf("persisted field lost in merge")
	}
}

func TestLoadFallsBackToDefaultsOnReadFailure(test *testing.T) {
	test.Parallel()
	repository := &fakeRepository{loadErr: errors.New("corrupt file")}
	service := newTestConfigService(test, repository, fixedClock(test))

	document := service.Load(context.Background())
	if document.StoreName != DefaultStoreName {
		test.Fatalf("expected in-memory defaults on read failure")
	}
	if repository.saves != 0 {
		test.Fatalf("should not write while the store is failing")
	}
}

func TestMaintenanceWindowAutoDeactivatesAfterExpiry(test *testing.T) {
	test.Parallel()
	current := time.Unix(1700000000, 0).UTC()
	clock := func() time.Time { return current }
	repository := &fakeRepository{}
	service := newTestConfigService(test, repository, clock)

	until, err := service.StartMaintenance(context.Background(), 10*time.Minute)
	if err != nil {
		test.Fatalf("start maintenance: %v", err)
	}
	active, reportedUntil := service.MaintenanceActive(context.Background())
	if !active || !reportedUntil.Equal(until) {
		test.Fatalf("expected active window until %s, got %v %s", until, active, reportedUntil)
	}

	current = current.Add(11 * time.Minute)
	active, _ = service.MaintenanceActive(context.Background())
	if active {
		test.Fatalf("expired window still reported active")
	}
	if repository.document.MaintenanceActive {
		test.Fatalf("expired window not persisted as deactivated")
	}
}

func TestStartMaintenanceRejectsNonPositiveDuration(test *testing.T) {
	test.Parallel()
	service := newTestConfigService(test, &fakeRepository{}, fixedClock(test))
	if _, err := service.StartMaintenance(context.Background(), 0); err == nil {
		test.Fatalf("expected rejection of zero duration")
	}
}

func TestBootstrapIsIdempotent(test *testing.T) {
	test.Parallel()
	store := memstore.New()
	repository := &fakeRepository{}
	clock := fixedClock(test)
	service := newTestConfigService(test, repository, clock)
	verifier := auth.NewBcryptVerifierWithCost(bcrypt.MinCost)

	for round := 0; round < 2; round++ {
		if err := Bootstrap(context.Background(), store, service, verifier, clock, nil); err != nil {
			test.Fatalf("bootstrap round %d: %v", round+1, err)
		}
	}

	admin, err := store.GetAccountByUsername(context.Background(), DefaultAdminUsername)
	if err != nil {
		test.Fatalf("default admin missing: %v", err)
	}
	if admin.Role != ledger.RoleAdminPrimary {
		test.Fatalf("expected primary admin role, got %s", admin.Role)
	}
	accounts, err := store.ListAccounts(context.Background())
	if err != nil {
		test.Fatalf("list accounts: %v", err)
	}
	if len(accounts) != 1 {
		test.Fatalf("bootstrap duplicated the admin: %d accounts", len(accounts))
	}
	products, err := store.ListProducts(context.Background())
	if err != nil {
		test.Fatalf("list products: %v", err)
	}
	if len(products) != len(seedProducts) {
		test.Fatalf("expected %d seed products, got %d", len(seedProducts), len(products))
	}
	if !repository.document.SetupComplete || !repository.document.AdminBootstrapped {
		test.Fatalf("bootstrap flags not persisted: %+v", repository.document)
	}
}

func TestBootstrapDoesNotReseedAfterCatalogCleared(test *testing.T) {
	test.Parallel()
	store := memstore.New()
	repository := &fakeRepository{}
	clock := fixedClock(test)
	service := newTestConfigService(test, repository, clock)
	verifier := auth.NewBcryptVerifierWithCost(bcrypt.MinCost)

	if err := Bootstrap(context.Background(), store, service, verifier, clock, nil); err != nil {
		test.Fatalf("bootstrap: %v", err)
	}
	products, _ := store.ListProducts(context.Background())
	for _, product := range products {
		if _, err := store.DeleteProduct(context.Background(), product.ProductID); err != nil {
			test.Fatalf("delete product: %v", err)
		}
	}
	if err := Bootstrap(context.Background(), store, service, verifier, clock, nil); err != nil {
		test.Fatalf("second bootstrap: %v", err)
	}
	products, _ = store.ListProducts(context.Background())
	if len(products) != 0 {
		test.Fatalf("setup-complete catalog reseeded: %d products", len(products))
	}
}
