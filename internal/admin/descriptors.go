package admin

import (
	"context"
	"fmt"
	"html/template"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	"github.com/spf13/cast"

	"github.com/wichananm65/pet-shop-admin/internal/database"
	"github.com/wichananm65/pet-shop-admin/internal/logger"
	"github.com/wichananm65/pet-shop-admin/internal/product"
	"github.com/wichananm65/pet-shop-admin/internal/resource"
	"github.com/wichananm65/pet-shop-admin/internal/taxonomy"
	"github.com/wichananm65/pet-shop-admin/internal/user"
)

func optional(v string) *string {
	v = strings.TrimSpace(v)
	if v == "" {
		return nil
	}
	return &v
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// checked reads an HTML checkbox, which posts "on" when ticked.
func checked(c *fiber.Ctx, name string) bool {
	v := c.FormValue(name)
	return v == "on" || cast.ToBool(v)
}

func selectField(name, label string, opts []Option, current *string) Field {
	out := make([]Option, 0, len(opts)+1)
	out = append(out, Option{Value: "", Label: "None", Selected: current == nil})
	for _, o := range opts {
		o.Selected = current != nil && *current == o.Value
		out = append(out, o)
	}
	return Field{Name: name, Label: label, Type: "select", Options: out}
}

func TaxonomyDescriptor[K taxonomy.Spec]() Descriptor[taxonomy.Taxonomy[K]] {
	kind := taxonomy.KindOf[K]()
	imageLabel := "Image URL"
	if kind.ImageKey == "logo_url" {
		imageLabel = "Logo URL"
	}
	uploadHelp := "png, jpg, gif, webp, svg or avif"
	if kind.RequireImageOnCreate {
		uploadHelp = "required for new " + kind.Plural + " unless a URL is given"
	}

	return Descriptor[taxonomy.Taxonomy[K]]{
		Path:     kind.Path,
		Title:    kind.Title,
		Singular: strings.ReplaceAll(kind.Singular, "_", " "),
		Columns:  []string{"Image", "Name", "Products", "Created"},
		Row: func(t taxonomy.Taxonomy[K]) []Cell {
			return []Cell{
				{Image: t.Image()},
				{Text: t.Name},
				{Text: humanize.Comma(int64(t.ProductCount))},
				{Text: Ago(t.CreatedAt)},
			}
		},
		Label: func(t taxonomy.Taxonomy[K]) string { return t.Name },
		Fields: func(_ context.Context, t taxonomy.Taxonomy[K]) ([]Field, error) {
			return []Field{
				{Name: "name", Label: "Name", Type: "text", Value: t.Name, Required: true},
				{Name: "image_url", Label: imageLabel, Type: "url", Value: t.Image()},
				{Name: "image", Label: "Upload image", Type: "file", Help: uploadHelp},
			}, nil
		},
		Decode: func(c *fiber.Ctx, t taxonomy.Taxonomy[K]) (taxonomy.Taxonomy[K], error) {
			t.Name = strings.TrimSpace(c.FormValue("name"))
			t.ImageURL = optional(c.FormValue("image_url"))
			return t, nil
		},
		Image: &ImageSlot[taxonomy.Taxonomy[K]]{
			Field: "image",
			Attach: func(t taxonomy.Taxonomy[K], url string) taxonomy.Taxonomy[K] {
				t.ImageURL = &url
				return t
			},
		},
	}
}

// Choices lists the rows a select input offers.
type Choices func(ctx context.Context) ([]Option, error)

func ChoicesOf[K taxonomy.Spec](svc *taxonomy.Service[K]) Choices {
	return func(ctx context.Context) ([]Option, error) {
		rows, err := svc.List(ctx)
		if err != nil {
			return nil, err
		}
		opts := make([]Option, 0, len(rows))
		for _, r := range rows {
			opts = append(opts, Option{Value: r.ID, Label: r.Name})
		}
		return opts, nil
	}
}

type ProductChoices struct {
	Categories Choices
	Brands     Choices
	PetTypes   Choices
}

func (pc ProductChoices) load(ctx context.Context) (cats, brands, pets []Option, err error) {
	for _, l := range []struct {
		fn  Choices
		dst *[]Option
	}{{pc.Categories, &cats}, {pc.Brands, &brands}, {pc.PetTypes, &pets}} {
		if l.fn == nil {
			continue
		}
		if *l.dst, err = l.fn(ctx); err != nil {
			return nil, nil, nil, err
		}
	}
	return cats, brands, pets, nil
}

func ProductDescriptor(choices ProductChoices) Descriptor[product.Product] {
	return Descriptor[product.Product]{
		Path:     product.Names.Path,
		Title:    "Products",
		Singular: "product",
		Columns:  []string{"Image", "Name", "Price", "Stock", "Category", "Brand", "Pet type", "Rating", "Description", "Created"},
		Row: func(p product.Product) []Cell {
			var img string
			if list := p.ImageList(); len(list) > 0 {
				img = list[0]
			}
			stock := "out of stock"
			if p.InStock {
				stock = humanize.Comma(int64(p.Quantity)) + " in stock"
			}
			return []Cell{
				{Image: img},
				{Text: p.Name},
				{Text: "$" + p.Price.StringFixed(2)},
				{Text: stock},
				{Text: deref(p.CategoryName)},
				{Text: p.Brand()},
				{Text: deref(p.PetTypeName)},
				{Text: fmt.Sprintf("%.1f (%d)", p.Rating, p.ReviewsCount)},
				// rich text is authored by admins and shown as written
				{HTML: template.HTML(p.Description)},
				{Text: Ago(p.CreatedAt)},
			}
		},
		Label: func(p product.Product) string { return p.Name },
		Fields: func(ctx context.Context, p product.Product) ([]Field, error) {
			cats, brands, pets, err := choices.load(ctx)
			if err != nil {
				return nil, err
			}
			var original string
			if p.OriginalPrice.Valid {
				original = p.OriginalPrice.Decimal.String()
			}
			return []Field{
				{Name: "name", Label: "Name", Type: "text", Value: p.Name, Required: true},
				{Name: "description", Label: "Description", Type: "textarea", Value: p.Description, Help: "HTML is allowed"},
				{Name: "price", Label: "Price", Type: "number", Value: p.Price.String(), Required: true},
				{Name: "original_price", Label: "Original price", Type: "number", Value: original, Help: "shown struck through when higher than the price"},
				{Name: "quantity", Label: "Quantity", Type: "number", Value: cast.ToString(p.Quantity)},
				{Name: "weight", Label: "Weight", Type: "text", Value: deref(p.Weight)},
				{Name: "dimensions", Label: "Dimensions", Type: "text", Value: deref(p.Dimensions)},
				{Name: "rating", Label: "Rating", Type: "number", Value: cast.ToString(p.Rating)},
				{Name: "reviews_count", Label: "Reviews", Type: "number", Value: cast.ToString(p.ReviewsCount)},
				selectField("category_id", "Category", cats, p.CategoryID),
				selectField("brand_id", "Brand", brands, p.BrandID),
				selectField("pet_type_id", "Pet type", pets, p.PetTypeID),
				{Name: "images", Label: "Image URLs", Type: "textarea", Value: strings.Join(p.ImageList(), "\n"), Help: "one per line"},
				{Name: "image", Label: "Add image", Type: "file"},
			}, nil
		},
		Decode: decodeProduct,
		Image: &ImageSlot[product.Product]{
			Field: "image",
			Attach: func(p product.Product, url string) product.Product {
				images := make([]string, 0, len(p.ImageList())+1)
				p.Images = database.NewJSON(append(append(images, p.ImageList()...), url))
				return p
			},
		},
	}
}

func decodeProduct(c *fiber.Ctx, p product.Product) (product.Product, error) {
	bad := map[string]string{}

	p.Name = strings.TrimSpace(c.FormValue("name"))
	p.Description = c.FormValue("description")

	if v := strings.TrimSpace(c.FormValue("price")); v == "" {
		bad["price"] = "is required"
	} else if d, err := decimal.NewFromString(v); err != nil {
		bad["price"] = "must be a number"
	} else {
		p.Price = d
	}

	p.OriginalPrice = decimal.NullDecimal{}
	if v := strings.TrimSpace(c.FormValue("original_price")); v != "" {
		if d, err := decimal.NewFromString(v); err != nil {
			bad["original_price"] = "must be a number"
		} else {
			p.OriginalPrice = decimal.NewNullDecimal(d)
		}
	}

	var err error
	if p.Quantity, err = resource.WholeNumber(c.FormValue("quantity")); err != nil {
		bad["quantity"] = "must be a whole number"
	}
	if p.ReviewsCount, err = resource.WholeNumber(c.FormValue("reviews_count")); err != nil {
		bad["reviews_count"] = "must be a whole number"
	}
	if v := strings.TrimSpace(c.FormValue("rating")); v == "" {
		p.Rating = 0
	} else if p.Rating, err = cast.ToFloat64E(v); err != nil {
		bad["rating"] = "must be a number"
	}

	p.Weight = optional(c.FormValue("weight"))
	p.Dimensions = optional(c.FormValue("dimensions"))
	p.CategoryID = optional(c.FormValue("category_id"))
	p.BrandID = optional(c.FormValue("brand_id"))
	p.PetTypeID = optional(c.FormValue("pet_type_id"))
	p.CategoryName, p.BrandName, p.PetTypeName = nil, nil, nil

	var images []string
	for _, line := range strings.Split(c.FormValue("images"), "\n") {
		if line = strings.TrimSpace(line); line != "" {
			images = append(images, line)
		}
	}
	p.Images = database.NewJSON(images)
	p.InStock = p.Quantity > 0

	if p.UserID == nil {
		if actor, ok := c.Locals(logger.ActorKey).(string); ok && actor != "" {
			p.UserID = &actor
		}
	}

	if len(bad) > 0 {
		return p, &resource.ValidationError{Fields: bad}
	}
	return p, nil
}

func UserDescriptor() Descriptor[user.User] {
	return Descriptor[user.User]{
		Path:     user.Names.Path,
		Title:    "Users",
		Singular: "user",
		Columns:  []string{"Name", "Phone", "Admin", "Pets", "Newsletter", "Created"},
		Row: func(u user.User) []Cell {
			admin := ""
			if u.IsAdmin {
				admin = "admin"
			}
			pets := deref(u.HasPets)
			if n := len(u.Pets.V); n > 0 {
				pets = fmt.Sprintf("%d", n)
			}
			newsletter := "no"
			if u.Newsletter {
				newsletter = "yes"
			}
			return []Cell{
				{Text: u.FullName()},
				{Text: deref(u.Phone)},
				{Text: admin},
				{Text: pets},
				{Text: newsletter},
				{Text: Ago(u.CreatedAt)},
			}
		},
		Label: func(u user.User) string { return u.FullName() },
		Fields: func(_ context.Context, u user.User) ([]Field, error) {
			prefs := u.Preferences.V
			return []Field{
				{Name: "id", Label: "Account id", Type: "text", Value: u.ID, Help: "generated when blank, ignored when editing"},
				{Name: "first_name", Label: "First name", Type: "text", Value: u.FirstName, Required: true},
				{Name: "last_name", Label: "Last name", Type: "text", Value: u.LastName, Required: true},
				{Name: "phone", Label: "Phone", Type: "text", Value: deref(u.Phone)},
				{Name: "is_admin", Label: "Administrator", Type: "checkbox", Checked: u.IsAdmin},
				selectField("has_pets", "Has pets", []Option{{Value: "yes", Label: "Yes"}, {Value: "no", Label: "No"}}, u.HasPets),
				{Name: "pets", Label: "Pets", Type: "textarea", Value: formatPets(u.Pets.V), Help: "one per line: name, type, breed, age (puppy, young, adult or senior)"},
				{Name: "interests", Label: "Interests", Type: "text", Value: strings.Join(u.Interests.V, ", "), Help: "comma separated"},
				{Name: "newsletter", Label: "Newsletter", Type: "checkbox", Checked: u.Newsletter},
				{Name: "pref_email", Label: "Email notifications", Type: "checkbox", Checked: prefs.Email},
				{Name: "pref_sms", Label: "SMS notifications", Type: "checkbox", Checked: prefs.SMS},
				{Name: "pref_push", Label: "Push notifications", Type: "checkbox", Checked: prefs.Push},
				{Name: "pref_order_updates", Label: "Order updates", Type: "checkbox", Checked: prefs.OrderUpdates},
				{Name: "pref_promotions", Label: "Promotions", Type: "checkbox", Checked: prefs.Promotions},
			}, nil
		},
		Decode: decodeUser,
	}
}

func decodeUser(c *fiber.Ctx, u user.User) (user.User, error) {
	if u.ID == "" {
		u.ID = strings.TrimSpace(c.FormValue("id"))
	}
	u.FirstName = strings.TrimSpace(c.FormValue("first_name"))
	u.LastName = strings.TrimSpace(c.FormValue("last_name"))
	u.Phone = optional(c.FormValue("phone"))
	u.IsAdmin = checked(c, "is_admin")
	u.HasPets = optional(c.FormValue("has_pets"))
	u.Newsletter = checked(c, "newsletter")
	u.Preferences = database.NewJSON(user.Preferences{
		Email:        checked(c, "pref_email"),
		SMS:          checked(c, "pref_sms"),
		Push:         checked(c, "pref_push"),
		OrderUpdates: checked(c, "pref_order_updates"),
		Promotions:   checked(c, "pref_promotions"),
	})

	var interests []string
	for _, s := range strings.Split(c.FormValue("interests"), ",") {
		if s = strings.TrimSpace(s); s != "" {
			interests = append(interests, s)
		}
	}
	u.Interests = database.NewJSON(interests)

	pets, err := parsePets(c.FormValue("pets"))
	u.Pets = database.NewJSON(pets)
	return u, err
}

func formatPets(pets []user.Pet) string {
	lines := make([]string, 0, len(pets))
	for _, p := range pets {
		lines = append(lines, strings.TrimRight(strings.Join([]string{p.Name, p.Type, p.Breed, p.Age}, ", "), ", "))
	}
	return strings.Join(lines, "\n")
}

func parsePets(raw string) ([]user.Pet, error) {
	var pets []user.Pet
	for i, line := range strings.Split(raw, "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		parts := strings.SplitN(line, ",", 4)
		for len(parts) < 4 {
			parts = append(parts, "")
		}
		pet := user.Pet{
			Name:  strings.TrimSpace(parts[0]),
			Type:  strings.TrimSpace(parts[1]),
			Breed: strings.TrimSpace(parts[2]),
			Age:   strings.ToLower(strings.TrimSpace(parts[3])),
		}
		if pet.Name == "" {
			return pets, resource.Invalid("pets", fmt.Sprintf("line %d needs a name", i+1))
		}
		pets = append(pets, pet)
	}
	return pets, nil
}
