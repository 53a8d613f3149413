package repositories

import (
	"context"
	"errors"

	"iconforge/internal/models"

	"github.com/jackc/pgx/v5"
)

type CreditRepository interface {
	GetBalance(ctx context.Context, userID string) (int, error)
	// Decrement applies a single conditional decrement. It reports false when
	// no row with a positive balance exists, so two concurrent callers can
	// never drive the balance negative.
	Decrement(ctx context.Context, userID string) (bool, error)
	Credit(ctx context.Context, userID string, amount int) error
	Get(ctx context.Context, userID string) (*models.CreditAccount, error)
}

type creditRepo struct {
	db Database
}

func NewCreditRepo(db Database) CreditRepository {
	return &creditRepo{db: db}
}

func (r *creditRepo) GetBalance(ctx context.Context, userID string) (int, error) {
	var credits int
	query := `SELECT credits FROM credit_accounts WHERE user_id = $1`
	err := r.db.QueryRow(ctx, query, userID).Scan(&credits)
	if errors.Is(err, pgx.ErrNoRows) {
		// Accounts exist implicitly with a zero balance.
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return credits, nil
}

func (r *creditRepo) Decrement(ctx context.Context, userID string) (bool, error) {
	query := `
		UPDATE credit_accounts
		SET credits = credits - 1, updated_at = NOW()
		WHERE user_id = $1 AND credits > 0
	`
	tag, err := r.db.Exec(ctx, query, userID)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (r *creditRepo) Credit(ctx context.Context, userID string, amount int) error {
	query := `
		INSERT INTO credit_accounts (user_id, credits, updated_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (user_id) DO UPDATE
		SET credits = credit_accounts.credits + EXCLUDED.credits, updated_at = NOW()
	`
	_, err := r.db.Exec(ctx, query, userID, amount)
	return err
}

func (r *creditRepo) Get(ctx context.Context, userID string) (*models.CreditAccount, error) {
	account := &models.CreditAccount{}
	query := `SELECT user_id, credits, updated_at FROM credit_accounts WHERE user_id = $1`
	err := r.db.QueryRow(ctx, query, userID).Scan(&account.UserID, &account.Credits, &account.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return &models.CreditAccount{UserID: userID, Credits: 0}, nil
	}
	if err != nil {
		return nil, err
	}
	return account, nil
}
