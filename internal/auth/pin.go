package auth

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/vianovi/Mart-Bank-Project/pkg/ledger"
)

// PinAttemptLimit is how many PIN entries an authorization allows. PIN
// failures never touch the login lockout state.
const PinAttemptLimit = 3

// PinPrompt collects one PIN entry from the user. The console implements
// it interactively; tests substitute canned answers.
type PinPrompt func(purpose string, attempt int, limit int) (string, error)

// PinGate implements ledger.PinAuthorizer over a CredentialVerifier and an
// interactive prompt.
type PinGate struct {
	verifier CredentialVerifier
	prompt   PinPrompt
	logger   *zap.Logger
}

// NewPinGate wires a PinGate.
func NewPinGate(verifier CredentialVerifier, prompt PinPrompt, logger *zap.Logger) (*PinGate, error) {
	if verifier == nil || prompt == nil {
		return nil, fmt.Errorf("%w: missing pin gate dependency", ledger.ErrInvalidServiceConfig)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PinGate{verifier: verifier, prompt: prompt, logger: logger}, nil
}

// AuthorizePin denies outright when no PIN is set, otherwise allows up to
// PinAttemptLimit entries before rejecting the whole action.
func (gate *PinGate) AuthorizePin(ctx context.Context, account ledger.Account, purpose string) error {
	if !account.HasPin() {
		return fmt.Errorf("%w: set a PIN in account settings first", ledger.ErrPinNotSet)
	}
	for attempt := 1; attempt <= PinAttemptLimit; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		candidate, err := gate.prompt(purpose, attempt, PinAttemptLimit)
		if err != nil {
			return err
		}
		if gate.verifier.Verify(candidate, account.PinHash) {
			return nil
		}
	}
	gate.logger.Warn("pin rejected after repeated attempts",
		zap.String("username", account.Username),
		zap.String("purpose", purpose))
	return fmt.Errorf("%w: %d attempts used", ledger.ErrPinRejected, PinAttemptLimit)
}
