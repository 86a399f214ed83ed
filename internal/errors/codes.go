package errors

const (
	CodeInvalidRequest      = "INVALID_REQUEST"
	CodeInsufficientBalance = "INSUFFICIENT_BALANCE"
	CodeRecordNotAmendable  = "RECORD_NOT_AMENDABLE"
	CodeRecordPending       = "RECORD_PENDING"

	CodeCardNotFound     = "CARD_NOT_FOUND"
	CodeMerchantNotFound = "MERCHANT_NOT_FOUND"
	CodeSaldoNotFound    = "SALDO_NOT_FOUND"
	CodeTopupNotFound    = "TOPUP_NOT_FOUND"
	CodeWithdrawNotFound = "WITHDRAW_NOT_FOUND"
	CodeTransferNotFound = "TRANSFER_NOT_FOUND"
	CodeTxNotFound       = "TRANSACTION_NOT_FOUND"

	CodeLookupFailed       = "LOOKUP_FAILED"
	CodeRecordWriteFailed  = "RECORD_WRITE_FAILED"
	CodeLedgerReadFailed   = "LEDGER_READ_FAILED"
	CodeLedgerWriteFailed  = "LEDGER_WRITE_FAILED"
	CodeLedgerContended    = "LEDGER_CONTENDED"
	CodeStatusNotFinalized = "STATUS_NOT_FINALIZED"
	CodeLockTimeout        = "LOCK_TIMEOUT"
)
