package product

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wichananm65/pet-shop-admin/internal/resource"
)

func TestUnmarshalCoercesNumbers(t *testing.T) {
	var fromString, fromNumber Product
	require.NoError(t, json.Unmarshal([]byte(`{"name":"Kibble","price":"29.99","quantity":"3","rating":"4.5"}`), &fromString))
	require.NoError(t, json.Unmarshal([]byte(`{"name":"Kibble","price":29.99,"quantity":3,"rating":4.5}`), &fromNumber))

	want := decimal.RequireFromString("29.99")
	assert.True(t, fromString.Price.Equal(want))
	assert.True(t, fromNumber.Price.Equal(want))
	assert.Equal(t, 3, fromString.Quantity)
	assert.Equal(t, fromNumber.Quantity, fromString.Quantity)
	assert.Equal(t, 4.5, fromString.Rating)
	assert.True(t, fromString.InStock)
}

func TestUnmarshalRejectsBadNumbers(t *testing.T) {
	var p Product
	err := json.Unmarshal([]byte(`{"name":"Kibble","price":"1","quantity":"lots","reviews_count":2.5}`), &p)

	var verr *resource.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "must be a whole number", verr.Fields["quantity"])
	assert.Equal(t, "must be a whole number", verr.Fields["reviews_count"])
}

func TestUnmarshalWholeNumbersAreDecimal(t *testing.T) {
	var p Product
	require.NoError(t, json.Unmarshal([]byte(`{"name":"Kibble","price":"1","quantity":"010","reviews_count":" 007 "}`), &p))
	assert.Equal(t, 10, p.Quantity)
	assert.Equal(t, 7, p.ReviewsCount)

	err := json.Unmarshal([]byte(`{"name":"Kibble","price":"1","quantity":"0x10"}`), &p)
	var verr *resource.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "must be a whole number", verr.Fields["quantity"])
}

func TestUnmarshalIgnoresDerivedFields(t *testing.T) {
	var p Product
	require.NoError(t, json.Unmarshal([]byte(`{"name":"Kibble","price":1,"quantity":0,"in_stock":true,"brand_name":"Fake","category_id":""}`), &p))
	assert.False(t, p.InStock)
	assert.Nil(t, p.BrandName)
	assert.Nil(t, p.CategoryID)
}

func TestValidateProduct(t *testing.T) {
	p := Product{Name: "", Price: decimal.NewFromInt(-1), Quantity: -2, Rating: 6}
	err := resource.Validate(p)

	var verr *resource.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "is required", verr.Fields["name"])
	assert.Equal(t, "must be >= 0", verr.Fields["price"])
	assert.Equal(t, "must be >= 0", verr.Fields["quantity"])
	assert.Equal(t, "must be <= 5", verr.Fields["rating"])
}
