package console

import (
	"context"
	"errors"
	"io"
	"strings"
	"time"

	"github.com/vianovi/Mart-Bank-Project/internal/catalog"
	"github.com/vianovi/Mart-Bank-Project/internal/session"
	"github.com/vianovi/Mart-Bank-Project/pkg/ledger"
)

func (console *Console) adminMenu(ctx context.Context, current *session.Session) error {
	for {
		console.printf("\n--- Admin Panel (%s) ---\n1. Manage products\n2. Manage categories\n3. Sales report\n4. Accounts overview\n5. All transactions\n6. Maintenance mode\n7. Rename store\n0. Back\n", current.Username)
		choice, err := console.promptLine("Select: ")
		if err != nil {
			return err
		}
		switch choice {
		case "1":
			err = console.productAdminMenu(ctx)
		case "2":
			err = console.categoryAdminMenu(ctx)
		case "3":
			err = console.salesReportView(ctx)
		case "4":
			err = console.accountsView(ctx)
		case "5":
			err = console.transactionsView(ctx)
		case "6":
			err = console.maintenanceMenu(ctx)
		case "7":
			err = console.renameStore(ctx)
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

func (console *Console) productAdminMenu(ctx context.Context) error {
	for {
		console.printf("\n--- Products ---\n1. List\n2. Add\n3. Edit\n4. Restock\n5. Delete\n0. Back\n")
		choice, err := console.promptLine("Select: ")
		if err != nil {
			return err
		}
		switch choice {
		case "1":
			products, listErr := console.catalogService.ListProducts(ctx, catalog.ListFilter{})
			if listErr != nil {
				console.printf("Could not list products: %v\n", listErr)
				continue
			}
			console.renderProducts(products)
		case "2":
			err = console.addProductFlow(ctx)
		case "3":
			err = console.editProductFlow(ctx)
		case "4":
			err = console.restockFlow(ctx)
		case "5":
			err = console.deleteProductFlow(ctx)
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

func (console *Console) promptProductInput(ctx context.Context) (catalog.ProductInput, error) {
	input := catalog.ProductInput{}
	var err error
	if input.Name, err = console.promptLine("Name: "); err != nil {
		return input, err
	}
	if input.Price, err = console.promptAmount("Price (Rp): "); err != nil {
		if errors.Is(err, io.EOF) {
			return input, err
		}
		console.printf("Invalid price: %v\n", err)
		return input, errSkipStep
	}
	if input.Stock, err = console.promptQuantity("Stock: "); err != nil {
		if errors.Is(err, io.EOF) {
			return input, err
		}
		console.printf("Invalid stock: %v\n", err)
		return input, errSkipStep
	}
	console.printf("Categories: %s\n", strings.Join(console.catalogService.Categories(ctx), ", "))
	if input.Category, err = console.promptLine("Category: "); err != nil {
		return input, err
	}
	if input.Description, err = console.promptLine("Description: "); err != nil {
		return input, err
	}
	return input, nil
}

func (console *Console) addProductFlow(ctx context.Context) error {
	input, err := console.promptProductInput(ctx)
	if err != nil {
		return swallowSkip(err)
	}
	product, createErr := console.catalogService.CreateProduct(ctx, input)
	if createErr != nil {
		console.printf("Could not create product: %v\n", createErr)
		return nil
	}
	console.printf("Product %q created with id %s.\n", product.Name, product.ProductID)
	return nil
}

func (console *Console) editProductFlow(ctx context.Context) error {
	productID, err := console.promptLine("Product id: ")
	if err != nil {
		return err
	}
	existing, lookupErr := console.catalogService.GetProduct(ctx, productID)
	if lookupErr != nil {
		console.printf("Product not found: %v\n", lookupErr)
		return nil
	}
	console.printf("Editing %q (%s, stock %d).\n", existing.Name, existing.Price.Format(), existing.Stock)
	input, err := console.promptProductInput(ctx)
	if err != nil {
		return swallowSkip(err)
	}
	updated, updateErr := console.catalogService.UpdateProduct(ctx, productID, input)
	if updateErr != nil {
		console.printf("Could not update product: %v\n", updateErr)
		return nil
	}
	console.printf("Product %q updated.\n", updated.Name)
	return nil
}

func (console *Console) restockFlow(ctx context.Context) error {
	productID, err := console.promptLine("Product id: ")
	if err != nil {
		return err
	}
	raw, err := console.promptLine("Stock adjustment (negative removes): ")
	if err != nil {
		return err
	}
	delta, parseErr := parseSignedQuantity(raw)
	if parseErr != nil {
		console.printf("Invalid adjustment: %v\n", parseErr)
		return nil
	}
	product, adjustErr := console.catalogService.AdjustStock(ctx, productID, delta)
	if adjustErr != nil {
		console.printf("Could not adjust stock: %v\n", adjustErr)
		return nil
	}
	console.printf("%q now has %d units.\n", product.Name, product.Stock)
	return nil
}

func (console *Console) deleteProductFlow(ctx context.Context) error {
	productID, err := console.promptLine("Product id: ")
	if err != nil {
		return err
	}
	if deleteErr := console.catalogService.DeleteProduct(ctx, productID); deleteErr != nil {
		console.printf("Could not delete product: %v\n", deleteErr)
		return nil
	}
	console.printf("Product deleted.\n")
	return nil
}

func (console *Console) categoryAdminMenu(ctx context.Context) error {
	for {
		console.printf("\n--- Categories ---\n1. List\n2. Add\n3. Remove\n0. Back\n")
		choice, err := console.promptLine("Select: ")
		if err != nil {
			return err
		}
		switch choice {
		case "1":
			for _, category := range console.catalogService.Categories(ctx) {
				console.printf("- %s\n", category)
			}
		case "2":
			name, promptErr := console.promptLine("New category: ")
			if promptErr != nil {
				return promptErr
			}
			if addErr := console.catalogService.AddCategory(ctx, name); addErr != nil {
				console.printf("Could not add category: %v\n", addErr)
				continue
			}
			console.printf("Category %q added.\n", name)
		case "3":
			name, promptErr := console.promptLine("Category to remove: ")
			if promptErr != nil {
				return promptErr
			}
			if removeErr := console.catalogService.RemoveCategory(ctx, name); removeErr != nil {
				console.printf("Could not remove category: %v\n", removeErr)
				continue
			}
			console.printf("Category %q removed.\n", name)
		case "0":
			return nil
		default:
			console.printf("Unknown option %q.\n", choice)
		}
	}
}

func (console *Console) salesReportView(ctx context.Context) error {
	report, err := console.catalogService.BuildSalesReport(ctx)
	if err != nil {
		console.printf("Report unavailable: %v\n", err)
		return nil
	}
	console.printf("Orders: %d\nGross revenue: %s\n", report.OrderCount, report.GrossRevenue.Format())
	if len(report.TopProducts) == 0 {
		console.printf("No sales yet.\n")
		return nil
	}
	console.printf("Top products by units sold:\n")
	for index, sales := range report.TopProducts {
		console.printf("%d. %s | %d units | %s\n", index+1, sales.ProductName, sales.UnitsSold, sales.Revenue.Format())
	}
	return nil
}

func (console *Console) accountsView(ctx context.Context) error {
	overviews, err := console.catalogService.ListAccountOverviews(ctx)
	if err != nil {
		console.printf("Accounts unavailable: %v\n", err)
		return nil
	}
	now := console.nowFn()
	for _, overview := range overviews {
		status := "active"
		if overview.Locked {
			status = "locked for " + overview.Account.RemainingLock(now).Round(time.Second).String()
		}
		console.printf("%s | %s | %s | %s\n",
			overview.Account.Username, overview.Account.Role, overview.Account.Balance.Format(), status)
	}
	return nil
}

func (console *Console) transactionsView(ctx context.Context) error {
	records, err := console.catalogService.ListAllTransactions(ctx)
	if err != nil {
		console.printf("Transactions unavailable: %v\n", err)
		return nil
	}
	if len(records) == 0 {
		console.printf("No transactions yet.\n")
		return nil
	}
	for _, record := range records {
		console.printf("%s | %s | %s | %s -> %s\n",
			record.Timestamp.Format(ledger.TimestampLayout), record.Kind, record.Amount.Format(),
			record.SourceAccountID, record.DestinationAccountID)
	}
	return nil
}

func (console *Console) maintenanceMenu(ctx context.Context) error {
	active, until := console.configService.MaintenanceActive(ctx)
	if active {
		console.printf("Maintenance is active until %s.\n", until.Format(ledger.TimestampLayout))
		choice, err := console.promptLine("Deactivate now? (y/n): ")
		if err != nil {
			return err
		}
		if strings.EqualFold(choice, "y") {
			if stopErr := console.configService.StopMaintenance(ctx); stopErr != nil {
				console.printf("Could not stop maintenance: %v\n", stopErr)
				return nil
			}
			console.printf("Maintenance deactivated.\n")
		}
		return nil
	}
	minutes, err := console.promptQuantity("Maintenance duration in minutes (0 cancels): ")
	if err != nil {
		console.printf("Invalid duration: %v\n", err)
		return nil
	}
	if minutes == 0 {
		return nil
	}
	deadline, startErr := console.configService.StartMaintenance(ctx, time.Duration(minutes)*time.Minute)
	if startErr != nil {
		console.printf("Could not start maintenance: %v\n", startErr)
		return nil
	}
	console.printf("Maintenance active until %s. Customers are blocked.\n", deadline.Format(ledger.TimestampLayout))
	return nil
}

func (console *Console) renameStore(ctx context.Context) error {
	name, err := console.promptLine("New store name: ")
	if err != nil {
		return err
	}
	if strings.TrimSpace(name) == "" {
		console.printf("Store name must not be empty.\n")
		return nil
	}
	document := console.configService.Load(ctx)
	document.StoreName = name
	if saveErr := console.configService.Save(ctx, document); saveErr != nil {
		console.printf("Could not rename the store: %v\n", saveErr)
		return nil
	}
	console.printf("Store renamed to %q.\n", name)
	return nil
}
