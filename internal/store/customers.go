package store

import (
	"context"
	"errors"
	"time"

	"github.com/coursekit/commerce/internal/domain"
	"github.com/coursekit/commerce/pkg/common"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// MerchantCustomerRepository handles database operations for provider customers
type MerchantCustomerRepository interface {
	// FindOrCreate resolves the provider customer record for a user,
	// creating it when absent. Safe under concurrent creation.
	FindOrCreate(ctx context.Context, userID int64, identifier string, merchantAccountID int64) (*domain.MerchantCustomer, error)
}

// GormMerchantCustomerRepository is the GORM implementation of MerchantCustomerRepository
type GormMerchantCustomerRepository struct {
	db *gorm.DB
}

func NewGormMerchantCustomerRepository(db *gorm.DB) *GormMerchantCustomerRepository {
	return &GormMerchantCustomerRepository{db: db}
}

func (r *GormMerchantCustomerRepository) FindOrCreate(ctx context.Context, userID int64, identifier string, merchantAccountID int64) (*domain.MerchantCustomer, error) {
	var existing domain.MerchantCustomer
	err := r.db.WithContext(ctx).Where("identifier = ?", identifier).First(&existing).Error
	if err == nil {
		return &existing, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	mc := domain.MerchantCustomer{
		ID:                common.UUIDint64(),
		UserID:            userID,
		MerchantAccountID: merchantAccountID,
		Identifier:        identifier,
		CreatedAt:         time.Now(),
	}
	res := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "identifier"}}, DoNothing: true}).
		Create(&mc)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		if err := r.db.WithContext(ctx).Where("identifier = ?", identifier).First(&existing).Error; err != nil {
			return nil, err
		}
		return &existing, nil
	}
	return &mc, nil
}
