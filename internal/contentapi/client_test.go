package contentapi

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func contentServer(t *testing.T, result string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer token-1", r.Header.Get("Authorization"))
		assert.NotEmpty(t, r.URL.Query().Get("query"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"result": ` + result + `}`))
	}))
}

func TestGetModule(t *testing.T) {
	srv := contentServer(t, `{
		"title": "Advanced Patterns",
		"slug": "advanced-patterns",
		"free": false,
		"lessons": [
			{"title": "Intro", "slug": "intro", "free": true},
			{"title": "Deep Dive", "slug": "deep-dive", "free": false}
		]
	}`)
	defer srv.Close()

	c := NewClient(srv.URL, "production", "token-1")
	doc, err := c.GetModule(context.Background(), "advanced-patterns")
	require.NoError(t, err)
	require.NotNil(t, doc)
	assert.Equal(t, "Advanced Patterns", doc.Title)
	require.Len(t, doc.Lessons, 2)
	assert.True(t, doc.Lessons[0].Free)
	assert.Equal(t, "deep-dive", doc.Lessons[1].Slug)
}

func TestGetModuleNotFound(t *testing.T) {
	srv := contentServer(t, `null`)
	defer srv.Close()

	c := NewClient(srv.URL, "production", "token-1")
	doc, err := c.GetModule(context.Background(), "missing")
	require.NoError(t, err)
	assert.Nil(t, doc)
}

func TestGetModuleInvalidDocument(t *testing.T) {
	// lesson missing its slug fails boundary validation
	srv := contentServer(t, `{
		"title": "Broken",
		"slug": "broken",
		"lessons": [{"title": "No Slug"}]
	}`)
	defer srv.Close()

	c := NewClient(srv.URL, "production", "token-1")
	_, err := c.GetModule(context.Background(), "broken")
	require.Error(t, err)
}

func TestGetProduct(t *testing.T) {
	srv := contentServer(t, `{
		"title": "Pro Bundle",
		"slug": "pro-bundle",
		"state": "active",
		"unitAmount": 19900,
		"modules": ["basics", "advanced-patterns"]
	}`)
	defer srv.Close()

	c := NewClient(srv.URL, "production", "token-1")
	doc, err := c.GetProduct(context.Background(), "pro-bundle")
	require.NoError(t, err)
	require.NotNil(t, doc)
	assert.Equal(t, int64(19900), doc.UnitAmount)
	assert.Equal(t, []string{"basics", "advanced-patterns"}, doc.ModuleSlugs)
}

func TestGetActiveSale(t *testing.T) {
	expires := time.Now().Add(48 * time.Hour).Format(time.RFC3339)
	srv := contentServer(t, `{
		"couponId": "summer-sale",
		"percentageDiscount": 0.25,
		"expires": "`+expires+`"
	}`)
	defer srv.Close()

	c := NewClient(srv.URL, "production", "token-1")
	doc, err := c.GetActiveSale(context.Background())
	require.NoError(t, err)
	require.NotNil(t, doc)
	assert.Equal(t, "summer-sale", doc.CouponIdentifier)
	assert.Equal(t, 0.25, doc.PercentageDiscount)
	require.NotNil(t, doc.Expires)
}

func TestGetActiveSaleExpired(t *testing.T) {
	srv := contentServer(t, `{
		"couponId": "old-sale",
		"percentageDiscount": 0.25,
		"expires": "2020-01-01T00:00:00Z"
	}`)
	defer srv.Close()

	c := NewClient(srv.URL, "production", "token-1")
	doc, err := c.GetActiveSale(context.Background())
	require.NoError(t, err)
	assert.Nil(t, doc)
}

func TestGetActiveSaleNone(t *testing.T) {
	srv := contentServer(t, `null`)
	defer srv.Close()

	c := NewClient(srv.URL, "production", "token-1")
	doc, err := c.GetActiveSale(context.Background())
	require.NoError(t, err)
	assert.Nil(t, doc)
}
