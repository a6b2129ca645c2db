package taxonomy

import (
	"encoding/json"

	"github.com/wichananm65/pet-shop-admin/internal/resource"
)

// Kind describes one taxonomy table and how it is exposed.
type Kind struct {
	Table      string
	Path       string
	Plural     string
	Singular   string
	Title      string
	ImageKey   string // column and JSON key of the image
	ForeignKey string // products column referencing this table

	RequireImageOnCreate bool
}

func (k Kind) Names() resource.Names {
	return resource.Names{Path: k.Path, Plural: k.Plural, Singular: k.Singular}
}

type Spec interface {
	Kind() Kind
}

type BrandKind struct{}
type CategoryKind struct{}
type PetTypeKind struct{}

func (BrandKind) Kind() Kind {
	return Kind{
		Table: "brands", Path: "brands", Plural: "brands", Singular: "brand", Title: "Brands",
		ImageKey: "logo_url", ForeignKey: "brand_id",
	}
}

func (CategoryKind) Kind() Kind {
	return Kind{
		Table: "categories", Path: "categories", Plural: "categories", Singular: "category", Title: "Categories",
		ImageKey: "image_url", ForeignKey: "category_id", RequireImageOnCreate: true,
	}
}

func (PetTypeKind) Kind() Kind {
	return Kind{
		Table: "pet_types", Path: "pet-types", Plural: "pet_types", Singular: "pet_type", Title: "Pet types",
		ImageKey: "image_url", ForeignKey: "pet_type_id",
	}
}

func KindOf[K Spec]() Kind {
	var k K
	return k.Kind()
}

// Taxonomy is a named, optionally illustrated grouping of products.
type Taxonomy[K Spec] struct {
	ID           string  `db:"id"`
	Name         string  `db:"name" validate:"required,max=255,no_xss"`
	ImageURL     *string `db:"image_url" validate:"omitempty,uri"`
	ProductCount int     `db:"product_count"`
	Version      int     `db:"version"`
	CreatedAt    string  `db:"created_at"`
}

type (
	Brand    = Taxonomy[BrandKind]
	Category = Taxonomy[CategoryKind]
	PetType  = Taxonomy[PetTypeKind]
)

func (t Taxonomy[K]) RecordID() string   { return t.ID }
func (t Taxonomy[K]) RecordVersion() int { return t.Version }

func (t Taxonomy[K]) WithID(id string) Taxonomy[K] {
	t.ID = id
	return t
}

func (t Taxonomy[K]) WithVersion(v int) Taxonomy[K] {
	t.Version = v
	return t
}

func (t Taxonomy[K]) Image() string {
	if t.ImageURL == nil {
		return ""
	}
	return *t.ImageURL
}

func (t Taxonomy[K]) MarshalJSON() ([]byte, error) {
	out := map[string]any{
		"id":            t.ID,
		"name":          t.Name,
		"product_count": t.ProductCount,
		"version":       t.Version,
		"created_at":    t.CreatedAt,
	}
	out[KindOf[K]().ImageKey] = t.ImageURL
	return json.Marshal(out)
}

// UnmarshalJSON accepts logo_url or image_url for any kind; product_count is read-only.
func (t *Taxonomy[K]) UnmarshalJSON(b []byte) error {
	var in struct {
		ID       string  `json:"id"`
		Name     string  `json:"name"`
		ImageURL *string `json:"image_url"`
		LogoURL  *string `json:"logo_url"`
		Version  int     `json:"version"`
	}
	if err := json.Unmarshal(b, &in); err != nil {
		return err
	}
	t.ID = in.ID
	t.Name = in.Name
	t.Version = in.Version
	t.ImageURL = in.ImageURL
	if in.LogoURL != nil {
		t.ImageURL = in.LogoURL
	}
	if t.ImageURL != nil && *t.ImageURL == "" {
		t.ImageURL = nil
	}
	return nil
}
