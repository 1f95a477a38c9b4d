package repository

import (
	"context"
	"errors"

	"bigspin/internal/models"

	"gorm.io/gorm"
)

// AccountRepository defines persistence operations for linked casino accounts.
type AccountRepository interface {
	GetByUserAndCasino(ctx context.Context, userID, casinoID uint) (*models.CasinoAccount, error)
	ListByUser(ctx context.Context, userID uint) ([]models.CasinoAccount, error)
	Create(ctx context.Context, account *models.CasinoAccount) error
	Update(ctx context.Context, account *models.CasinoAccount) error
}

type accountRepository struct {
	db *gorm.DB
}

// NewAccountRepository returns a new AccountRepository implementation.
func NewAccountRepository(db *gorm.DB) AccountRepository {
	return &accountRepository{db: db}
}

func (r *accountRepository) GetByUserAndCasino(ctx context.Context, userID, casinoID uint) (*models.CasinoAccount, error) {
	var account models.CasinoAccount
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND casino_id = ?", userID, casinoID).
		First(&account).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, models.NewInternalError(err)
	}
	return &account, nil
}

func (r *accountRepository) ListByUser(ctx context.Context, userID uint) ([]models.CasinoAccount, error) {
	var accounts []models.CasinoAccount
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).Find(&accounts).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return accounts, nil
}

func (r *accountRepository) Create(ctx context.Context, account *models.CasinoAccount) error {
	if err := r.db.WithContext(ctx).Create(account).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *accountRepository) Update(ctx context.Context, account *models.CasinoAccount) error {
	if err := r.db.WithContext(ctx).Save(account).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}
