package adminapi

import (
	"errors"
	"net/http"

	"github.com/coursekit/commerce/internal/pricing"
	"github.com/labstack/echo/v4"
	"github.com/spf13/cast"
	"gorm.io/gorm"
)

type pricingFormattedPayload struct {
	ProductID             string `json:"productId" validate:"required"`
	UserID                string `json:"userId"`
	Quantity              int    `json:"quantity" validate:"gte=0,lte=100"`
	CouponID              string `json:"couponId"`
	MerchantCouponID      string `json:"merchantCouponId"`
	UpgradeFromPurchaseID string `json:"upgradeFromPurchaseId"`
	Code                  string `json:"code"`
}

// pricingFormatted implements pricing.formatted: the single price endpoint
// the UI calls to render a product's buy box.
func pricingFormatted(c echo.Context) error {
	var payload pricingFormattedPayload
	if err := c.Bind(&payload); err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Unable to parse pricing input", nil)
	}
	if err := c.Validate(&payload); err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Invalid pricing input", err.Error())
	}

	country := c.Request().Header.Get("x-country")
	if country == "" && deps.Settings != nil {
		country = deps.Settings.GetSettingsStringValue("pricing", "DefaultCountry")
	}
	if country == "" {
		country = "US"
	}

	quantity := payload.Quantity
	if quantity == 0 {
		quantity = 1
	}

	formatted, err := deps.Formatter.FormatPricesForProduct(c.Request().Context(), pricing.FormatInput{
		ProductID:             cast.ToInt64(payload.ProductID),
		Country:               country,
		Quantity:              quantity,
		Code:                  payload.Code,
		CouponID:              cast.ToInt64(payload.CouponID),
		MerchantCouponID:      cast.ToInt64(payload.MerchantCouponID),
		UpgradeFromPurchaseID: cast.ToInt64(payload.UpgradeFromPurchaseID),
		UserID:                cast.ToInt64(payload.UserID),
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fail(c, http.StatusNotFound, "NOT_FOUND", "Product not found", nil)
		}
		return fail(c, http.StatusInternalServerError, "PRICING_ERROR", "Failed to format price", err.Error())
	}
	return ok(c, formatted)
}

func getPurchaseByID(c echo.Context) error {
	id := cast.ToInt64(c.QueryParam("id"))
	if id == 0 {
		return fail(c, http.StatusBadRequest, "INVALID_ID", "Invalid purchase ID", nil)
	}
	p, err := deps.Purchases.GetByID(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fail(c, http.StatusNotFound, "NOT_FOUND", "Purchase not found", nil)
		}
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to query purchase", err.Error())
	}
	return ok(c, p)
}

// moduleProgress is the completion summary for one user in one module.
type moduleProgress struct {
	ModuleSlug       string  `json:"module_slug"`
	TotalLessons     int     `json:"total_lessons"`
	CompletedLessons int     `json:"completed_lessons"`
	PercentComplete  float64 `json:"percent_complete"`
	NextLessonSlug   string  `json:"next_lesson_slug,omitempty"`
}

func moduleProgressBySlug(c echo.Context) error {
	slug := c.QueryParam("slug")
	userID := cast.ToInt64(c.QueryParam("userId"))
	if slug == "" || userID == 0 {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "slug and userId are required", nil)
	}

	ctx := c.Request().Context()
	module, err := deps.Content.GetModule(ctx, slug)
	if err != nil {
		return fail(c, http.StatusInternalServerError, "CONTENT_API_ERROR", "Failed to load module", err.Error())
	}
	if module == nil {
		return fail(c, http.StatusNotFound, "NOT_FOUND", "Module not found", nil)
	}

	rows, err := deps.Progress.ListForUserModule(ctx, userID, slug)
	if err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to query progress", err.Error())
	}

	completed := make(map[string]bool, len(rows))
	for _, row := range rows {
		if row.CompletedAt != nil {
			completed[row.LessonSlug] = true
		}
	}

	progress := moduleProgress{ModuleSlug: slug, TotalLessons: len(module.Lessons)}
	for _, lesson := range module.Lessons {
		if completed[lesson.Slug] {
			progress.CompletedLessons++
		} else if progress.NextLessonSlug == "" {
			progress.NextLessonSlug = lesson.Slug
		}
	}
	if progress.TotalLessons > 0 {
		progress.PercentComplete = float64(progress.CompletedLessons) / float64(progress.TotalLessons)
	}
	return ok(c, progress)
}

type completeLessonPayload struct {
	UserID     string `json:"userId" validate:"required"`
	ModuleSlug string `json:"moduleSlug" validate:"required"`
	LessonSlug string `json:"lessonSlug" validate:"required"`
}

func moduleProgressComplete(c echo.Context) error {
	var payload completeLessonPayload
	if err := c.Bind(&payload); err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Unable to parse progress input", nil)
	}
	if err := c.Validate(&payload); err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Invalid progress input", err.Error())
	}
	err := deps.Progress.Complete(c.Request().Context(),
		cast.ToInt64(payload.UserID), payload.ModuleSlug, payload.LessonSlug)
	if err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to record progress", err.Error())
	}
	return ok(c, echo.Map{"completed": true})
}
