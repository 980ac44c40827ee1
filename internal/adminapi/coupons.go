package adminapi

import (
	"net/http"
	"strings"
	"time"

	"github.com/araddon/dateparse"
	"github.com/coursekit/commerce/internal/domain"
	"github.com/coursekit/commerce/internal/webserver"
	"github.com/coursekit/commerce/pkg/common"
	"github.com/labstack/echo/v4"
	"github.com/spf13/cast"
)

type merchantCouponPayload struct {
	Identifier          string  `json:"identifier" validate:"required"`
	Type                string  `json:"type" validate:"required,oneof=ppp site-wide bulk special"`
	PercentageDiscount  float64 `json:"percentage_discount" validate:"gte=0,lte=1"`
	RestrictedProductID string  `json:"restricted_product_id"`
	Status              string  `json:"status"`
}

type couponPayload struct {
	Code             string `json:"code" validate:"required,min=3,max=64"`
	MerchantCouponID string `json:"merchant_coupon_id" validate:"required"`
	Default          bool   `json:"default"`
	Expires          string `json:"expires"`
	MaxUses          int    `json:"max_uses" validate:"gte=0"`
}

// registerCouponRoutes registers operator coupon management endpoints
func registerCouponRoutes(secret echo.MiddlewareFunc) {
	webserver.ApiGET("/admin/merchant-coupons", listMerchantCoupons, secret)
	webserver.ApiPOST("/admin/merchant-coupons", createMerchantCoupon, secret)
	webserver.ApiGET("/admin/coupons", listCoupons, secret)
	webserver.ApiPOST("/admin/coupons", createCoupon, secret)
	webserver.ApiDELETE("/admin/coupons/:id", disableCoupon, secret)
}

func listMerchantCoupons(c echo.Context) error {
	page, pageSize := parsePagination(c)

	db := deps.DB.WithContext(c.Request().Context()).Model(&domain.MerchantCoupon{})
	if t := strings.TrimSpace(c.QueryParam("type")); t != "" {
		db = db.Where("type = ?", t)
	}

	var total int64
	if err := db.Count(&total).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to query merchant coupons", err.Error())
	}
	var rows []domain.MerchantCoupon
	if err := db.Order("id DESC").Offset((page - 1) * pageSize).Limit(pageSize).Find(&rows).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to query merchant coupons", err.Error())
	}
	return paged(c, rows, total, page, pageSize)
}

func createMerchantCoupon(c echo.Context) error {
	var payload merchantCouponPayload
	if err := c.Bind(&payload); err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Unable to parse merchant coupon", err.Error())
	}
	if err := c.Validate(&payload); err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Invalid merchant coupon", err.Error())
	}

	now := time.Now()
	mc := domain.MerchantCoupon{
		ID:                  common.UUIDint64(),
		Identifier:          strings.TrimSpace(payload.Identifier),
		Type:                payload.Type,
		PercentageDiscount:  payload.PercentageDiscount,
		RestrictedProductID: cast.ToInt64(payload.RestrictedProductID),
		Status:              common.IfEmptyStr(payload.Status, common.ENABLED),
		CreatedAt:           now,
		UpdatedAt:           now,
	}
	if err := deps.DB.WithContext(c.Request().Context()).Create(&mc).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to create merchant coupon", err.Error())
	}
	return ok(c, mc)
}

func listCoupons(c echo.Context) error {
	page, pageSize := parsePagination(c)

	db := deps.DB.WithContext(c.Request().Context()).Model(&domain.Coupon{})
	var total int64
	if err := db.Count(&total).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to query coupons", err.Error())
	}
	var rows []domain.Coupon
	if err := db.Order("created_at DESC").Offset((page - 1) * pageSize).Limit(pageSize).Find(&rows).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to query coupons", err.Error())
	}
	return paged(c, rows, total, page, pageSize)
}

func createCoupon(c echo.Context) error {
	var payload couponPayload
	if err := c.Bind(&payload); err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Unable to parse coupon", err.Error())
	}
	if err := c.Validate(&payload); err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Invalid coupon", err.Error())
	}

	var expires *time.Time
	if payload.Expires != "" {
		t, err := dateparse.ParseAny(payload.Expires)
		if err != nil {
			return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Unparseable expiry", payload.Expires)
		}
		expires = &t
	}

	now := time.Now()
	coupon := domain.Coupon{
		ID:               common.UUIDint64(),
		Code:             strings.TrimSpace(payload.Code),
		MerchantCouponID: cast.ToInt64(payload.MerchantCouponID),
		Default:          payload.Default,
		Expires:          expires,
		MaxUses:          payload.MaxUses,
		Status:           common.ENABLED,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if err := deps.DB.WithContext(c.Request().Context()).Create(&coupon).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to create coupon", err.Error())
	}
	return ok(c, coupon)
}

// disableCoupon soft-disables instead of deleting: purchases may still
// reference the row.
func disableCoupon(c echo.Context) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_ID", "Invalid coupon ID", nil)
	}
	res := deps.DB.WithContext(c.Request().Context()).
		Model(&domain.Coupon{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{"status": common.DISABLED, "updated_at": time.Now()})
	if res.Error != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to disable coupon", res.Error.Error())
	}
	if res.RowsAffected == 0 {
		return fail(c, http.StatusNotFound, "NOT_FOUND", "Coupon not found", nil)
	}
	return ok(c, echo.Map{"id": id, "status": common.DISABLED})
}
