package services

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"iconforge/internal/common"
	"iconforge/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

type MockCreditRepository struct {
	mock.Mock
}

func (m *MockCreditRepository) GetBalance(ctx context.Context, userID string) (int, error) {
	args := m.Called(ctx, userID)
	return args.Int(0), args.Error(1)
}

func (m *MockCreditRepository) Decrement(ctx context.Context, userID string) (bool, error) {
	args := m.Called(ctx, userID)
	return args.Bool(0), args.Error(1)
}

func (m *MockCreditRepository) Credit(ctx context.Context, userID string, amount int) error {
	args := m.Called(ctx, userID, amount)
	return args.Error(0)
}

func (m *MockCreditRepository) Get(ctx context.Context, userID string) (*models.CreditAccount, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.CreditAccount), args.Error(1)
}

func TestCreditService_DebitApplied(t *testing.T) {
	repo := &MockCreditRepository{}
	repo.On("Decrement", mock.Anything, "user_abc").Return(true, nil)

	service := NewCreditService(repo)
	assert.NoError(t, service.Debit(context.Background(), "user_abc"))
}

func TestCreditService_DebitInsufficient(t *testing.T) {
	repo := &MockCreditRepository{}
	repo.On("Decrement", mock.Anything, "user_broke").Return(false, nil)

	service := NewCreditService(repo)
	err := service.Debit(context.Background(), "user_broke")
	assert.ErrorIs(t, err, common.ErrInsufficientCredits)
}

func TestCreditService_DebitPropagatesStorageError(t *testing.T) {
	repo := &MockCreditRepository{}
	storageErr := errors.New("connection reset")
	repo.On("Decrement", mock.Anything, "user_abc").Return(false, storageErr)

	service := NewCreditService(repo)
	err := service.Debit(context.Background(), "user_abc")
	assert.ErrorIs(t, err, storageErr)
	assert.NotErrorIs(t, err, common.ErrInsufficientCredits)
}

func TestNewBlobKey_Format(t *testing.T) {
	key := newBlobKey()
	assert.Regexp(t, regexp.MustCompile(`^\d{13}-[a-z0-9]{13}\.png$`), key)

	// Two keys generated back to back must differ.
	assert.NotEqual(t, key, newBlobKey())
}
