// Package console implements the interactive menu shell. Menu loops stay
// thin: they parse input, call the services, and render the result.
package console

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/vianovi/Mart-Bank-Project/internal/auth"
	"github.com/vianovi/Mart-Bank-Project/internal/catalog"
	"github.com/vianovi/Mart-Bank-Project/internal/config"
	"github.com/vianovi/Mart-Bank-Project/internal/session"
	"github.com/vianovi/Mart-Bank-Project/pkg/ledger"
	"github.com/vianovi/Mart-Bank-Project/pkg/money"
)

// errSkipStep aborts the current form without leaving the menu.
var errSkipStep = errors.New("step aborted")

func swallowSkip(err error) error {
	if errors.Is(err, errSkipStep) {
		return nil
	}
	return err
}

func parseSignedQuantity(raw string) (int64, error) {
	value, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ledger.ErrInvalidQuantity, raw)
	}
	return value, nil
}

// Terminal wraps the shared input and output streams. It is built before
// the services so the PIN prompt can read from the same buffered input as
// the menus.
type Terminal struct {
	reader *bufio.Reader
	writer io.Writer
}

// NewTerminal wraps the given streams.
func NewTerminal(input io.Reader, output io.Writer) *Terminal {
	return &Terminal{reader: bufio.NewReader(input), writer: output}
}

func (terminal *Terminal) printf(format string, args ...any) {
	fmt.Fprintf(terminal.writer, format, args...)
}

// promptLine prints the prompt and reads one trimmed line.
func (terminal *Terminal) promptLine(prompt string) (string, error) {
	fmt.Fprint(terminal.writer, prompt)
	line, err := terminal.reader.ReadString('\n')
	if err != nil && line == "" {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

// PinPrompt returns an interactive prompt suitable for the PIN gate.
func (terminal *Terminal) PinPrompt() auth.PinPrompt {
	return func(purpose string, attempt int, limit int) (string, error) {
		return terminal.promptLine(fmt.Sprintf("Enter PIN to authorize %s (attempt %d/%d): ", purpose, attempt, limit))
	}
}

// Console bundles the services behind the interactive shell.
type Console struct {
	*Terminal

	authService    *auth.Service
	ledgerService  *ledger.Service
	catalogService *catalog.Service
	configService  *config.Service
	store          ledger.Store
	nowFn          func() time.Time
	logger         *zap.Logger
}

// New wires a Console over the given services and terminal.
func New(
	terminal *Terminal,
	authService *auth.Service,
	ledgerService *ledger.Service,
	catalogService *catalog.Service,
	configService *config.Service,
	store ledger.Store,
	now func() time.Time,
	logger *zap.Logger,
) (*Console, error) {
	if terminal == nil || authService == nil || ledgerService == nil ||
		catalogService == nil || configService == nil || store == nil || now == nil {
		return nil, fmt.Errorf("%w: missing console dependency", ledger.ErrInvalidServiceConfig)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Console{
		Terminal:       terminal,
		authService:    authService,
		ledgerService:  ledgerService,
		catalogService: catalogService,
		configService:  configService,
		store:          store,
		nowFn:          now,
		logger:         logger,
	}, nil
}

// Run drives the guest menu until the user exits or input ends.
func (console *Console) Run(ctx context.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		document := console.configService.Load(ctx)
		console.printf("\n===== %s =====\n", document.StoreName)
		if active, until := console.configService.MaintenanceActive(ctx); active {
			console.printf("!! Maintenance in progress until %s. Customer access is closed. !!\n",
				until.Format(ledger.TimestampLayout))
		}
		console.printf("1. Login\n2. Register\n0. Exit\n")
		choice, err := console.promptLine("Select: ")
		if err != nil {
			return console.finish(err)
		}
		switch choice {
		case "1":
			err = console.loginFlow(ctx)
		case "2":
			err = console.registerFlow(ctx)
		case "0":
			console.printf("Goodbye.\n")
			return nil
		default:
			console.printf("Unknown option %q.\n", choice)
			continue
		}
		if err != nil {
			if unwound := console.finish(err); unwound != nil {
				return unwound
			}
			return nil
		}
	}
}

// finish maps end-of-input to a clean exit.
func (console *Console) finish(err error) error {
	if errors.Is(err, io.EOF) {
		return nil
	}
	return err
}

func (console *Console) loginFlow(ctx context.Context) error {
	username, err := console.promptLine("Username: ")
	if err != nil {
		return err
	}
	password, err := console.promptLine("Password: ")
	if err != nil {
		return err
	}
	account, err := console.authService.Login(ctx, username, password)
	if err != nil {
		console.printf("Login failed: %v\n", err)
		return nil
	}
	if blocked, until := console.customerBlocked(ctx, account); blocked {
		console.printf("The system is under maintenance until %s. Please come back later.\n",
			until.Format(ledger.TimestampLayout))
		return nil
	}
	console.printf("Welcome back, %s!\n", account.Username)
	return console.runSession(ctx, session.New(account))
}

// customerBlocked reports whether maintenance mode denies this account.
// Admin accounts always pass.
func (console *Console) customerBlocked(ctx context.Context, account ledger.Account) (bool, time.Time) {
	if account.Role.CanAccessAdminPanel() {
		return false, time.Time{}
	}
	active, until := console.configService.MaintenanceActive(ctx)
	return active, until
}

func (console *Console) registerFlow(ctx context.Context) error {
	if active, until := console.configService.MaintenanceActive(ctx); active {
		console.printf("Registration is closed during maintenance (until %s).\n",
			until.Format(ledger.TimestampLayout))
		return nil
	}
	input := auth.RegistrationInput{}
	var err error
	if input.Username, err = console.promptLine("Username (3-20 letters, digits, underscore): "); err != nil {
		return err
	}
	if input.Password, err = console.promptLine("Password (8-30 chars, upper, lower, digit, symbol): "); err != nil {
		return err
	}
	if input.Pin, err = console.promptLine("6-digit transaction PIN: "); err != nil {
		return err
	}
	if input.FullName, err = console.promptLine("Full name: "); err != nil {
		return err
	}
	if input.Email, err = console.promptLine("Email (optional): "); err != nil {
		return err
	}
	account, err := console.authService.Register(ctx, input)
	if err != nil {
		console.printf("Registration failed: %v\n", err)
		return nil
	}
	console.printf("Account %q created. You can log in now.\n", account.Username)
	return nil
}

// runSession dispatches to the menu matching the account's role.
func (console *Console) runSession(ctx context.Context, current *session.Session) error {
	switch {
	case current.IsPrimaryAdmin():
		return console.gatewayMenu(ctx, current)
	case current.IsAdmin():
		return console.adminMenu(ctx, current)
	default:
		return console.customerMenu(ctx, current)
	}
}

// gatewayMenu lets a primary admin switch between both worlds.
func (console *Console) gatewayMenu(ctx context.Context, current *session.Session) error {
	for {
		console.printf("\n--- Gateway (%s) ---\n1. Customer mode\n2. Admin panel\n0. Logout\n", current.Username)
		choice, err := console.promptLine("Select: ")
		if err != nil {
			return err
		}
		switch choice {
		case "1":
			if err := console.customerMenu(ctx, current); err != nil {
				return err
			}
		case "2":
			if err := console.adminMenu(ctx, current); err != nil {
				return err
			}
		case "0":
			console.printf("Logged out.\n")
			return nil
		default:
			console.printf("Unknown option %q.\n", choice)
		}
	}
}

// promptAmount reads a positive rupiah amount.
func (terminal *Terminal) promptAmount(prompt string) (money.Value, error) {
	raw, err := terminal.promptLine(prompt)
	if err != nil {
		return money.Value{}, err
	}
	amount, parseErr := strconv.ParseInt(raw, 10, 64)
	if parseErr != nil {
		return money.Value{}, fmt.Errorf("%w: %q is not a number", ledger.ErrInvalidAmount, raw)
	}
	return money.NewPositive(amount, money.IDR)
}

// promptQuantity reads a non-negative integer quantity.
func (terminal *Terminal) promptQuantity(prompt string) (int64, error) {
	raw, err := terminal.promptLine(prompt)
	if err != nil {
		return 0, err
	}
	quantity, parseErr := strconv.ParseInt(raw, 10, 64)
	if parseErr != nil || quantity < 0 {
		return 0, fmt.Errorf("%w: %q", ledger.ErrInvalidQuantity, raw)
	}
	return quantity, nil
}
