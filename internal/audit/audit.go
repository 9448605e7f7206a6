// Package audit records ledger operations to the structured log.
package audit

import (
	"context"

	"go.uber.org/zap"

	"github.com/vianovi/Mart-Bank-Project/pkg/ledger"
)

// Recorder writes one structured log entry per ledger operation.
type Recorder struct {
	logger *zap.Logger
}

// NewRecorder wires a Recorder. A nil logger records nothing.
func NewRecorder(logger *zap.Logger) *Recorder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Recorder{logger: logger.Named("audit")}
}

// LogOperation implements ledger.OperationLogger.
func (recorder *Recorder) LogOperation(_ context.Context, entry ledger.OperationLog) {
	fields := []zap.Field{
		zap.String("operation", entry.Operation),
		zap.String("status", entry.Status),
		zap.String("source_account_id", entry.SourceAccountID),
		zap.Int64("amount", entry.AmountMinorUnits),
	}
	if entry.DestinationAccountID != "" {
		fields = append(fields, zap.String("destination_account_id", entry.DestinationAccountID))
	}
	if entry.Kind != "" {
		fields = append(fields, zap.String("kind", string(entry.Kind)))
	}
	if entry.TransactionID != "" {
		fields = append(fields, zap.String("transaction_id", entry.TransactionID))
	}
	if entry.OrderID != "" {
		fields = append(fields, zap.String("order_id", entry.OrderID))
	}
	if entry.Error != nil {
		fields = append(fields, zap.Error(entry.Error))
		recorder.logger.Warn("ledger operation failed", fields...)
		return
	}
	recorder.logger.Info("ledger operation", fields...)
}
