package ledger

// TimestampLayout is the fixed textual form for timestamps shown to users
// and written to reports.
const TimestampLayout = "2006-01-02 15:04:05"

const (
	// PaymentMethodLabel tags store orders paid from the bank balance.
	PaymentMethodLabel = "Mart Bank balance"
	// OrderStatusCompleted is the terminal status of a paid order.
	OrderStatusCompleted = "COMPLETED"
)

const (
	operationDeposit  = "deposit"
	operationWithdraw = "withdraw"
	operationTransfer = "transfer"
	operationCheckout = "checkout"

	operationStatusOK    = "ok"
	operationStatusError = "error"

	noteDeposit    = "Deposit to account"
	noteWithdraw   = "Withdrawal from account"
	noteTransferTo = "Transfer to "
	noteStoreOrder = "Store purchase"

	purposeWithdrawal = "for this withdrawal"
	purposeTransfer   = "for this transfer"
	purposePayment    = "for this payment"
)
