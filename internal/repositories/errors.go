package repositories

import "errors"

var (
	ErrCardNotFound     = errors.New("card not found")
	ErrMerchantNotFound = errors.New("merchant not found")
	ErrSaldoNotFound    = errors.New("saldo not found")
	ErrRecordNotFound   = errors.New("record not found")
	ErrBalanceConflict  = errors.New("balance changed since it was read")
	ErrNegativeBalance  = errors.New("balance cannot be negative")
)
