package adminapi

import (
	"net/http"
	"strings"
	"time"

	"github.com/coursekit/commerce/internal/domain"
	"github.com/coursekit/commerce/internal/webserver"
	"github.com/coursekit/commerce/pkg/common"
	"github.com/labstack/echo/v4"
)

type productPayload struct {
	Name        string `json:"name" validate:"required,min=1,max=200"`
	Slug        string `json:"slug" validate:"required,min=1,max=200"`
	UnitAmount  int64  `json:"unit_amount" validate:"gte=0"`
	ModuleSlugs string `json:"module_slugs"`
	Status      string `json:"status"`
}

// registerProductRoutes registers catalog product CRUD endpoints
func registerProductRoutes(secret echo.MiddlewareFunc) {
	webserver.ApiGET("/admin/products", listProducts, secret)
	webserver.ApiGET("/admin/products/:id", getProduct, secret)
	webserver.ApiPOST("/admin/products", createProduct, secret)
	webserver.ApiPOST("/admin/products/import", importProduct, secret)
	webserver.ApiPUT("/admin/products/:id", updateProduct, secret)
}

func listProducts(c echo.Context) error {
	page, pageSize := parsePagination(c)

	q := strings.TrimSpace(c.QueryParam("q"))

	sortField := strings.TrimSpace(c.QueryParam("sort"))
	order := strings.ToUpper(strings.TrimSpace(c.QueryParam("order")))
	if order != "ASC" && order != "DESC" {
		order = "DESC"
	}

	// whitelist allowed sort columns to avoid SQL injection
	allowed := map[string]string{
		"id":          "id",
		"name":        "name",
		"unit_amount": "unit_amount",
		"created_at":  "created_at",
	}
	sortCol, okCol := allowed[sortField]
	if !okCol {
		sortCol = "id"
	}

	db := deps.DB.WithContext(c.Request().Context()).Model(&domain.Product{})
	if q != "" {
		db = db.Where("LOWER(name) LIKE ?", "%"+strings.ToLower(q)+"%")
	}

	var total int64
	if err := db.Count(&total).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to query products", err.Error())
	}

	var rows []domain.Product
	if err := db.Order(sortCol + " " + order).Offset((page - 1) * pageSize).Limit(pageSize).Find(&rows).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to query products", err.Error())
	}
	return paged(c, rows, total, page, pageSize)
}

func getProduct(c echo.Context) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_ID", "Invalid product ID", nil)
	}
	var p domain.Product
	if err := deps.DB.WithContext(c.Request().Context()).Where("id = ?", id).First(&p).Error; err != nil {
		return fail(c, http.StatusNotFound, "NOT_FOUND", "Product not found", nil)
	}
	return ok(c, p)
}

func createProduct(c echo.Context) error {
	var payload productPayload
	if err := c.Bind(&payload); err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Unable to parse product", err.Error())
	}
	if err := c.Validate(&payload); err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Invalid product", err.Error())
	}

	now := time.Now()
	p := domain.Product{
		ID:          common.UUIDint64(),
		Name:        strings.TrimSpace(payload.Name),
		Slug:        strings.TrimSpace(payload.Slug),
		UnitAmount:  payload.UnitAmount,
		ModuleSlugs: payload.ModuleSlugs,
		Status:      common.IfEmptyStr(payload.Status, "active"),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := deps.DB.WithContext(c.Request().Context()).Create(&p).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to create product", err.Error())
	}
	return ok(c, p)
}

type importProductPayload struct {
	Slug string `json:"slug" validate:"required,min=1,max=200"`
}

// importProduct creates a catalog product from its CMS document, so
// products authored by the content team don't have to be re-keyed here.
func importProduct(c echo.Context) error {
	var payload importProductPayload
	if err := c.Bind(&payload); err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Unable to parse import input", err.Error())
	}
	if err := c.Validate(&payload); err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Invalid import input", err.Error())
	}

	ctx := c.Request().Context()
	doc, err := deps.Content.GetProduct(ctx, payload.Slug)
	if err != nil {
		return fail(c, http.StatusInternalServerError, "CONTENT_API_ERROR", "Failed to load product document", err.Error())
	}
	if doc == nil {
		return fail(c, http.StatusNotFound, "NOT_FOUND", "Product document not found", nil)
	}

	var count int64
	if err := deps.DB.WithContext(ctx).Model(&domain.Product{}).
		Where("slug = ?", doc.Slug).Count(&count).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to query products", err.Error())
	}
	if count > 0 {
		return fail(c, http.StatusConflict, "ALREADY_EXISTS", "Product already imported", nil)
	}

	now := time.Now()
	p := domain.Product{
		ID:          common.UUIDint64(),
		Name:        doc.Title,
		Slug:        doc.Slug,
		UnitAmount:  doc.UnitAmount,
		ModuleSlugs: strings.Join(doc.ModuleSlugs, ","),
		Status:      common.IfEmptyStr(doc.State, "active"),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := deps.DB.WithContext(ctx).Create(&p).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to create product", err.Error())
	}
	return ok(c, p)
}

// updateProduct only touches mutable presentation fields; price and slug
// stay fixed once a product has been sold.
func updateProduct(c echo.Context) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_ID", "Invalid product ID", nil)
	}
	var p domain.Product
	if err := deps.DB.WithContext(c.Request().Context()).Where("id = ?", id).First(&p).Error; err != nil {
		return fail(c, http.StatusNotFound, "NOT_FOUND", "Product not found", nil)
	}

	var payload productPayload
	if err := c.Bind(&payload); err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Unable to parse product", err.Error())
	}

	p.Name = common.IfEmptyStr(strings.TrimSpace(payload.Name), p.Name)
	p.ModuleSlugs = common.IfEmptyStr(payload.ModuleSlugs, p.ModuleSlugs)
	p.Status = common.IfEmptyStr(payload.Status, p.Status)
	p.UpdatedAt = time.Now()

	if err := deps.DB.WithContext(c.Request().Context()).Save(&p).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to update product", err.Error())
	}
	return ok(c, p)
}
