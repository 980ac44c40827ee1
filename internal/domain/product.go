package domain

import "time"

// Product is a sellable catalog entry. Immutable once created; the content
// modules it unlocks live in the content API and are referenced by slug.
type Product struct {
	ID          int64     `json:"id,string" form:"id"`
	Name        string    `gorm:"index" json:"name" form:"name"`
	Slug        string    `gorm:"uniqueIndex;size:255" json:"slug" form:"slug"`
	UnitAmount  int64     `json:"unit_amount" form:"unit_amount"` // price in cents
	ModuleSlugs string    `json:"module_slugs" form:"module_slugs"`
	Status      string    `gorm:"size:32" json:"status" form:"status"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func (Product) TableName() string {
	return "products"
}

// MerchantProduct links a payment-provider product identifier to a catalog
// product. A charge for an identifier with no row here cannot be recorded.
type MerchantProduct struct {
	ID                int64     `json:"id,string"`
	MerchantAccountID int64     `gorm:"index" json:"merchant_account_id,string"`
	ProductID         int64     `gorm:"index" json:"product_id,string"`
	Identifier        string    `gorm:"uniqueIndex;size:255" json:"identifier"`
	Status            string    `gorm:"size:32" json:"status"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

func (MerchantProduct) TableName() string {
	return "merchant_products"
}

// UpgradePath declares that owners of UpgradableFromID may purchase
// UpgradableToID at a reduced price. Paths are operator-managed and acyclic.
type UpgradePath struct {
	ID               int64     `json:"id,string"`
	UpgradableFromID int64     `gorm:"index:idx_upgrade_from_to,unique" json:"upgradable_from_id,string"`
	UpgradableToID   int64     `gorm:"index:idx_upgrade_from_to,unique" json:"upgradable_to_id,string"`
	CreatedAt        time.Time `json:"created_at"`
}

func (UpgradePath) TableName() string {
	return "upgrade_paths"
}
