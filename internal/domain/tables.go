package domain

var Tables = []interface{}{
	// System
	&SysConfig{},
	// Catalog
	&Product{},
	&MerchantProduct{},
	&UpgradePath{},
	// Coupons
	&MerchantCoupon{},
	&Coupon{},
	// Commerce
	&User{},
	&Purchase{},
	&MerchantCharge{},
	&MerchantCustomer{},
	&WebhookEvent{},
	// Learning
	&LessonProgress{},
}
