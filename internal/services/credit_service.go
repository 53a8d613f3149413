package services

import (
	"context"

	"iconforge/internal/common"
	"iconforge/internal/models"
	"iconforge/internal/repositories"
)

// CreditService is the ledger facade. Debit is the only spend path and is
// backed by a single conditional update, so a zero balance can never be
// overdrawn by concurrent generations.
type CreditService interface {
	Balance(ctx context.Context, userID string) (int, error)
	Debit(ctx context.Context, userID string) error
	Credit(ctx context.Context, userID string, amount int) error
	Account(ctx context.Context, userID string) (*models.CreditAccount, error)
}

type creditService struct {
	creditRepo repositories.CreditRepository
}

func NewCreditService(creditRepo repositories.CreditRepository) CreditService {
	return &creditService{creditRepo: creditRepo}
}

func (s *creditService) Balance(ctx context.Context, userID string) (int, error) {
	return s.creditRepo.GetBalance(ctx, userID)
}

func (s *creditService) Debit(ctx context.Context, userID string) error {
	applied, err := s.creditRepo.Decrement(ctx, userID)
	if err != nil {
		return err
	}
	if !applied {
		return common.ErrInsufficientCredits
	}
	return nil
}

func (s *creditService) Credit(ctx context.Context, userID string, amount int) error {
	return s.creditRepo.Credit(ctx, userID, amount)
}

func (s *creditService) Account(ctx context.Context, userID string) (*models.CreditAccount, error) {
	return s.creditRepo.Get(ctx, userID)
}
