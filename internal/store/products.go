package store

import (
	"context"
	"errors"

	"github.com/coursekit/commerce/internal/domain"
	"gorm.io/gorm"
)

// ProductRepository handles database operations for catalog products
type ProductRepository interface {
	GetByID(ctx context.Context, id int64) (*domain.Product, error)
	GetBySlug(ctx context.Context, slug string) (*domain.Product, error)

	// GetMerchantProductByIdentifier resolves a provider product identifier.
	// Returns (nil, nil) when no mapping exists.
	GetMerchantProductByIdentifier(ctx context.Context, identifier string) (*domain.MerchantProduct, error)

	// UpgradePathsTo lists all products that can upgrade into productID.
	UpgradePathsTo(ctx context.Context, productID int64) ([]domain.UpgradePath, error)
}

// GormProductRepository is the GORM implementation of ProductRepository
type GormProductRepository struct {
	db *gorm.DB
}

func NewGormProductRepository(db *gorm.DB) *GormProductRepository {
	return &GormProductRepository{db: db}
}

func (r *GormProductRepository) GetByID(ctx context.Context, id int64) (*domain.Product, error) {
	var p domain.Product
	err := r.db.WithContext(ctx).First(&p, id).Error
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *GormProductRepository) GetBySlug(ctx context.Context, slug string) (*domain.Product, error) {
	var p domain.Product
	err := r.db.WithContext(ctx).Where("slug = ?", slug).First(&p).Error
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *GormProductRepository) GetMerchantProductByIdentifier(ctx context.Context, identifier string) (*domain.MerchantProduct, error) {
	var mp domain.MerchantProduct
	err := r.db.WithContext(ctx).Where("identifier = ?", identifier).First(&mp).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &mp, nil
}

func (r *GormProductRepository) UpgradePathsTo(ctx context.Context, productID int64) ([]domain.UpgradePath, error) {
	var paths []domain.UpgradePath
	err := r.db.WithContext(ctx).Where("upgradable_to_id = ?", productID).Find(&paths).Error
	return paths, err
}
