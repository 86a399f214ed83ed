package memory

import (
	"dompet/internal/models"
	"dompet/internal/repositories"
)

var (
	_ repositories.CardRepository        = (*CardRepository)(nil)
	_ repositories.MerchantRepository    = (*MerchantRepository)(nil)
	_ repositories.SaldoRepository       = (*SaldoRepository)(nil)
	_ repositories.TopupRepository       = (*MutationRepository[models.Topup, *models.Topup])(nil)
	_ repositories.WithdrawRepository    = (*MutationRepository[models.Withdraw, *models.Withdraw])(nil)
	_ repositories.TransferRepository    = (*MutationRepository[models.Transfer, *models.Transfer])(nil)
	_ repositories.TransactionRepository = (*TransactionRepository)(nil)
)
