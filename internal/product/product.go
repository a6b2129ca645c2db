package product

import (
	"encoding/json"

	"github.com/shopspring/decimal"
	"github.com/spf13/cast"

	"github.com/wichananm65/pet-shop-admin/internal/database"
	"github.com/wichananm65/pet-shop-admin/internal/resource"
)

// Product maps to the products table. in_stock and the *_name fields are
// resolved by the database layer and ignored on input.
type Product struct {
	ID            string                  `json:"id" db:"id"`
	Name          string                  `json:"name" db:"name" validate:"required,max=255,no_xss"`
	Description   string                  `json:"description" db:"description"`
	Price         decimal.Decimal         `json:"price" db:"price" validate:"gte=0"`
	OriginalPrice decimal.NullDecimal     `json:"original_price" db:"original_price"`
	Weight        *string                 `json:"weight" db:"weight" validate:"omitempty,max=64"`
	Dimensions    *string                 `json:"dimensions" db:"dimensions" validate:"omitempty,max=128"`
	Quantity      int                     `json:"quantity" db:"quantity" validate:"gte=0"`
	InStock       bool                    `json:"in_stock" db:"in_stock"`
	Images        database.JSON[[]string] `json:"images" db:"images"`
	Rating        float64                 `json:"rating" db:"rating" validate:"gte=0,lte=5"`
	ReviewsCount  int                     `json:"reviews_count" db:"reviews_count" validate:"gte=0"`
	CategoryID    *string                 `json:"category_id" db:"category_id"`
	BrandID       *string                 `json:"brand_id" db:"brand_id"`
	PetTypeID     *string                 `json:"pet_type_id" db:"pet_type_id"`
	UserID        *string                 `json:"user_id" db:"user_id"`
	Version       int                     `json:"version" db:"version"`
	CreatedAt     string                  `json:"created_at" db:"created_at"`

	CategoryName *string `json:"category_name,omitempty" db:"category_name"`
	BrandName    *string `json:"brand_name,omitempty" db:"brand_name"`
	PetTypeName  *string `json:"pet_type_name,omitempty" db:"pet_type_name"`
}

func (p Product) RecordID() string   { return p.ID }
func (p Product) RecordVersion() int { return p.Version }

func (p Product) WithID(id string) Product {
	p.ID = id
	return p
}

func (p Product) WithVersion(v int) Product {
	p.Version = v
	return p
}

func (p Product) ImageList() []string { return p.Images.V }

func (p Product) Brand() string {
	if p.BrandName == nil {
		return ""
	}
	return *p.BrandName
}

// UnmarshalJSON accepts numbers or numeric strings for the numeric fields,
// so "29.99" and 29.99 decode to the same price.
func (p *Product) UnmarshalJSON(b []byte) error {
	type plain Product
	aux := struct {
		*plain
		Quantity     any `json:"quantity"`
		Rating       any `json:"rating"`
		ReviewsCount any `json:"reviews_count"`
	}{plain: (*plain)(p)}
	if err := json.Unmarshal(b, &aux); err != nil {
		return err
	}

	var err error
	fields := map[string]string{}
	if p.Quantity, err = resource.WholeNumber(aux.Quantity); err != nil {
		fields["quantity"] = "must be a whole number"
	}
	if p.ReviewsCount, err = resource.WholeNumber(aux.ReviewsCount); err != nil {
		fields["reviews_count"] = "must be a whole number"
	}
	if aux.Rating != nil {
		if p.Rating, err = cast.ToFloat64E(aux.Rating); err != nil {
			fields["rating"] = "must be a number"
		}
	}
	if len(fields) > 0 {
		return &resource.ValidationError{Fields: fields}
	}

	p.InStock = p.Quantity > 0
	p.CategoryName, p.BrandName, p.PetTypeName = nil, nil, nil
	for _, ptr := range []**string{&p.CategoryID, &p.BrandID, &p.PetTypeID, &p.UserID, &p.Weight, &p.Dimensions} {
		if *ptr != nil && **ptr == "" {
			*ptr = nil
		}
	}
	return nil
}
