// Package contentapi is a read-only client for the headless CMS query
// endpoint. Responses are decoded and validated at the boundary; documents
// failing validation are fatal for the request.
package contentapi

import (
	"context"
	"fmt"
	"time"

	"github.com/araddon/dateparse"
	"github.com/go-playground/validator/v10"
	"github.com/guonaihong/gout"
	"github.com/mitchellh/mapstructure"
	"github.com/pkg/errors"
)

// LessonDoc is one lesson inside a module document.
type LessonDoc struct {
	Title string `mapstructure:"title" validate:"required"`
	Slug  string `mapstructure:"slug" validate:"required"`
	Free  bool   `mapstructure:"free"`
}

// ModuleDoc is a course module document.
type ModuleDoc struct {
	Title   string      `mapstructure:"title" validate:"required"`
	Slug    string      `mapstructure:"slug" validate:"required"`
	Free    bool        `mapstructure:"free"`
	Lessons []LessonDoc `mapstructure:"lessons" validate:"dive"`
}

// ProductDoc is a product document as authored in the CMS.
type ProductDoc struct {
	Title       string   `mapstructure:"title" validate:"required"`
	Slug        string   `mapstructure:"slug" validate:"required"`
	State       string   `mapstructure:"state"`
	UnitAmount  int64    `mapstructure:"unitAmount" validate:"gte=0"`
	ModuleSlugs []string `mapstructure:"modules"`
}

// SaleDoc describes a running site-wide sale.
type SaleDoc struct {
	CouponIdentifier   string  `mapstructure:"couponId" validate:"required"`
	PercentageDiscount float64 `mapstructure:"percentageDiscount" validate:"gte=0,lte=1"`
	ExpiresRaw         string  `mapstructure:"expires"`
	// excluded from decoding: mapstructure matches untagged field names
	// case-insensitively, and the raw "expires" string must bind to
	// ExpiresRaw only
	Expires *time.Time `mapstructure:"-"`
}

// Client queries the content API over HTTP.
type Client struct {
	baseURL  string
	dataset  string
	token    string
	validate *validator.Validate
}

func NewClient(baseURL, dataset, token string) *Client {
	return &Client{
		baseURL:  baseURL,
		dataset:  dataset,
		token:    token,
		validate: validator.New(),
	}
}

type queryResponse struct {
	Result interface{} `json:"result"`
}

func (c *Client) query(ctx context.Context, q string, out interface{}) error {
	var resp queryResponse
	var code int
	err := gout.GET(fmt.Sprintf("%s/v1/data/query/%s", c.baseURL, c.dataset)).
		WithContext(ctx).
		SetQuery(gout.H{"query": q}).
		SetHeader(gout.H{"Authorization": "Bearer " + c.token}).
		Code(&code).
		BindJSON(&resp).
		Do()
	if err != nil {
		return errors.Wrap(err, "content api query")
	}
	if code != 200 {
		return errors.Errorf("content api query: status %d", code)
	}
	if resp.Result == nil {
		return nil
	}
	if err := mapstructure.Decode(resp.Result, out); err != nil {
		return errors.Wrap(err, "decode content document")
	}
	return nil
}

// GetModule fetches a module document by slug, with its lessons.
func (c *Client) GetModule(ctx context.Context, slug string) (*ModuleDoc, error) {
	var doc ModuleDoc
	q := fmt.Sprintf(`*[_type == "module" && slug.current == %q][0]{title, "slug": slug.current, free, lessons[]->{title, "slug": slug.current, free}}`, slug)
	if err := c.query(ctx, q, &doc); err != nil {
		return nil, err
	}
	if doc.Slug == "" {
		return nil, nil
	}
	if err := c.validate.Struct(&doc); err != nil {
		return nil, errors.Wrapf(err, "invalid module document %s", slug)
	}
	return &doc, nil
}

// GetProduct fetches a product document by slug.
func (c *Client) GetProduct(ctx context.Context, slug string) (*ProductDoc, error) {
	var doc ProductDoc
	q := fmt.Sprintf(`*[_type == "product" && slug.current == %q][0]{title, "slug": slug.current, state, unitAmount, "modules": modules[]->slug.current}`, slug)
	if err := c.query(ctx, q, &doc); err != nil {
		return nil, err
	}
	if doc.Slug == "" {
		return nil, nil
	}
	if err := c.validate.Struct(&doc); err != nil {
		return nil, errors.Wrapf(err, "invalid product document %s", slug)
	}
	return &doc, nil
}

// GetActiveSale fetches the currently running site-wide sale, if any.
// Expiry strings are authored by hand in the CMS, so parsing is lenient.
func (c *Client) GetActiveSale(ctx context.Context) (*SaleDoc, error) {
	var doc SaleDoc
	q := `*[_type == "sale" && active == true][0]{couponId, percentageDiscount, expires}`
	if err := c.query(ctx, q, &doc); err != nil {
		return nil, err
	}
	if doc.CouponIdentifier == "" {
		return nil, nil
	}
	if err := c.validate.Struct(&doc); err != nil {
		return nil, errors.Wrap(err, "invalid sale document")
	}
	if doc.ExpiresRaw != "" {
		t, err := dateparse.ParseAny(doc.ExpiresRaw)
		if err != nil {
			return nil, errors.Wrapf(err, "invalid sale expiry %q", doc.ExpiresRaw)
		}
		doc.Expires = &t
	}
	if doc.Expires != nil && doc.Expires.Before(time.Now()) {
		return nil, nil
	}
	return &doc, nil
}
