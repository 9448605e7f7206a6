package auth

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/vianovi/Mart-Bank-Project/pkg/ledger"
	"github.com/vianovi/Mart-Bank-Project/pkg/money"
)

const (
	// LoginAttemptLimit failed passwords in a row lock the account.
	LoginAttemptLimit = 3
	// LockDuration is how long a lockout lasts. Expiry is passive: the lock
	// is only checked on the next attempt, never purged proactively.
	LockDuration = 5 * time.Minute

	passwordMinLength = 8
	passwordMaxLength = 30
	passwordSymbols   = "@$!%*?&_"
	pinLength         = 6
)

// RegistrationInput carries validated-at-the-edge registration fields.
type RegistrationInput struct {
	Username string
	Password string
	Pin      string
	FullName string
	Email    string
}

// Service handles registration, the login state machine, and account
// settings changes.
type Service struct {
	store    ledger.Store
	verifier CredentialVerifier
	nowFn    func() time.Time
	logger   *zap.Logger
}

// NewService wires an auth Service.
func NewService(store ledger.Store, verifier CredentialVerifier, now func() time.Time, logger *zap.Logger) (*Service, error) {
	if store == nil || verifier == nil || now == nil {
		return nil, fmt.Errorf("%w: missing auth dependency", ledger.ErrInvalidServiceConfig)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{store: store, verifier: verifier, nowFn: now, logger: logger}, nil
}

// ValidatePassword enforces the password policy: 8-30 characters with at
// least one lowercase, one uppercase, one digit, and one symbol.
func ValidatePassword(password string) error {
	if len(password) < passwordMinLength || len(password) > passwordMaxLength {
		return fmt.Errorf("%w: must be %d-%d characters", ledger.ErrInvalidPassword, passwordMinLength, passwordMaxLength)
	}
	var hasLower, hasUpper, hasDigit, hasSymbol bool
	for _, character := range password {
		switch {
		case character >= 'a' && character <= 'z':
			hasLower = true
		case character >= 'A' && character <= 'Z':
			hasUpper = true
		case character >= '0' && character <= '9':
			hasDigit = true
		case strings.ContainsRune(passwordSymbols, character):
			hasSymbol = true
		default:
			return fmt.Errorf("%w: character %q not allowed", ledger.ErrInvalidPassword, character)
		}
	}
	if !hasLower || !hasUpper || !hasDigit || !hasSymbol {
		return fmt.Errorf("%w: needs upper, lower, digit, and one of %s", ledger.ErrInvalidPassword, passwordSymbols)
	}
	return nil
}

// ValidatePin enforces the 6-digit PIN shape.
func ValidatePin(pin string) error {
	if len(pin) != pinLength {
		return fmt.Errorf("%w: must be %d digits", ledger.ErrInvalidPin, pinLength)
	}
	for _, character := range pin {
		if character < '0' || character > '9' {
			return fmt.Errorf("%w: digits only", ledger.ErrInvalidPin)
		}
	}
	return nil
}

// Register creates a customer account. Username uniqueness is
// case-insensitive; email is optional but validated when present.
func (service *Service) Register(ctx context.Context, input RegistrationInput) (ledger.Account, error) {
	username, _, err := ledger.NormalizeUsername(input.Username)
	if err != nil {
		return ledger.Account{}, err
	}
	if _, err := service.store.GetAccountByUsername(ctx, username); err == nil {
		return ledger.Account{}, fmt.Errorf("%w: %q", ledger.ErrDuplicateUsername, username)
	}
	if err := ValidatePassword(input.Password); err != nil {
		return ledger.Account{}, err
	}
	if err := ValidatePin(input.Pin); err != nil {
		return ledger.Account{}, err
	}
	email, err := ledger.ValidateEmail(input.Email)
	if err != nil {
		return ledger.Account{}, err
	}
	passwordHash, err := service.verifier.Hash(input.Password)
	if err != nil {
		return ledger.Account{}, err
	}
	pinHash, err := service.verifier.Hash(input.Pin)
	if err != nil {
		return ledger.Account{}, err
	}
	account := ledger.Account{
		AccountID:    uuid.NewString(),
		Username:     username,
		FullName:     strings.TrimSpace(input.FullName),
		Email:        email,
		PasswordHash: passwordHash,
		PinHash:      pinHash,
		Role:         ledger.RoleCustomer,
		Balance:      money.Zero(money.IDR),
		CreatedAt:    service.nowFn(),
	}
	if err := service.store.InsertAccount(ctx, account); err != nil {
		return ledger.Account{}, err
	}
	service.logger.Info("account registered",
		zap.String("account_id", account.AccountID),
		zap.String("username", account.Username))
	return account, nil
}

// Login runs the password state machine: a lockout check first, then
// verification; success resets the failure counter and clears the lock,
// the third consecutive failure locks the account for LockDuration.
func (service *Service) Login(ctx context.Context, username string, password string) (ledger.Account, error) {
	account, err := service.store.GetAccountByUsername(ctx, username)
	if err != nil {
		service.logger.Warn("login failed, unknown username", zap.String("username", username))
		return ledger.Account{}, err
	}
	now := service.nowFn()
	if account.IsLocked(now) {
		service.logger.Warn("login attempt on locked account",
			zap.String("username", account.Username),
			zap.Duration("remaining", account.RemainingLock(now)))
		return ledger.Account{}, fmt.Errorf("%w: try again in %s", ledger.ErrAccountLocked, account.RemainingLock(now).Round(time.Second))
	}
	if service.verifier.Verify(password, account.PasswordHash) {
		account.FailedLoginCount = 0
		account.LockedUntil = nil
		if err := service.store.SaveAccount(ctx, account); err != nil {
			return ledger.Account{}, err
		}
		service.logger.Info("login succeeded",
			zap.String("username", account.Username),
			zap.String("role", account.Role.String()))
		return account, nil
	}
	account.FailedLoginCount++
	if account.FailedLoginCount >= LoginAttemptLimit {
		lockedUntil := now.Add(LockDuration)
		account.LockedUntil = &lockedUntil
		if err := service.store.SaveAccount(ctx, account); err != nil {
			return ledger.Account{}, err
		}
		service.logger.Warn("account locked after repeated failures",
			zap.String("username", account.Username),
			zap.Time("locked_until", lockedUntil))
		return ledger.Account{}, fmt.Errorf("%w: locked for %s", ledger.ErrAccountLocked, LockDuration)
	}
	if err := service.store.SaveAccount(ctx, account); err != nil {
		return ledger.Account{}, err
	}
	remaining := LoginAttemptLimit - account.FailedLoginCount
	service.logger.Warn("wrong password",
		zap.String("username", account.Username),
		zap.Int("attempts_remaining", remaining))
	return ledger.Account{}, fmt.Errorf("%w: %d attempts remaining", ledger.ErrWrongPassword, remaining)
}

// ChangePassword verifies the old password before installing the new one.
func (service *Service) ChangePassword(ctx context.Context, accountID string, oldPassword string, newPassword string) error {
	account, err := service.store.GetAccount(ctx, accountID)
	if err != nil {
		return err
	}
	if !service.verifier.Verify(oldPassword, account.PasswordHash) {
		return ledger.ErrWrongPassword
	}
	if err := ValidatePassword(newPassword); err != nil {
		return err
	}
	handle, err := service.verifier.Hash(newPassword)
	if err != nil {
		return err
	}
	account.PasswordHash = handle
	if err := service.store.SaveAccount(ctx, account); err != nil {
		return err
	}
	service.logger.Info("password changed", zap.String("username", account.Username))
	return nil
}

// SetPin installs or replaces the transaction PIN.
func (service *Service) SetPin(ctx context.Context, accountID string, newPin string) error {
	if err := ValidatePin(newPin); err != nil {
		return err
	}
	account, err := service.store.GetAccount(ctx, accountID)
	if err != nil {
		return err
	}
	handle, err := service.verifier.Hash(newPin)
	if err != nil {
		return err
	}
	account.PinHash = handle
	if err := service.store.SaveAccount(ctx, account); err != nil {
		return err
	}
	service.logger.Info("pin updated", zap.String("username", account.Username))
	return nil
}

// UpdateProfile changes the optional display fields.
func (service *Service) UpdateProfile(ctx context.Context, accountID string, fullName string, email string) error {
	validatedEmail, err := ledger.ValidateEmail(email)
	if err != nil {
		return err
	}
	account, err := service.store.GetAccount(ctx, accountID)
	if err != nil {
		return err
	}
	account.FullName = strings.TrimSpace(fullName)
	account.Email = validatedEmail
	if err := service.store.SaveAccount(ctx, account); err != nil {
		return err
	}
	service.logger.Info("profile updated", zap.String("username", account.Username))
	return nil
}
