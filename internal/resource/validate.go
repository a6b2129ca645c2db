package resource

import (
	"errors"
	"fmt"
	"math"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	"github.com/spf13/cast"
)

var validate = newValidator()

var scriptPattern = regexp.MustCompile(`(?i)<\s*/?\s*(script|iframe|object|embed)|javascript:|on\w+\s*=`)

func newValidator() *validator.Validate {
	v := validator.New()

	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		for _, tag := range []string{"json", "db"} {
			name := strings.SplitN(f.Tag.Get(tag), ",", 2)[0]
			if name == "-" {
				return ""
			}
			if name != "" {
				return name
			}
		}
		return f.Name
	})

	v.RegisterCustomTypeFunc(func(field reflect.Value) any {
		if d, ok := field.Interface().(decimal.Decimal); ok {
			f, _ := d.Float64()
			return f
		}
		return nil
	}, decimal.Decimal{})

	// Plain-text fields must not carry markup that executes.
	_ = v.RegisterValidation("no_xss", func(fl validator.FieldLevel) bool {
		return !scriptPattern.MatchString(fl.Field().String())
	})
	return v
}

// Validate runs struct tags and returns a *ValidationError keyed by json name.
func Validate(rec any) error {
	err := validate.Struct(rec)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	fields := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		fields[fieldPath(fe)] = message(fe)
	}
	return &ValidationError{Fields: fields}
}

// fieldPath drops the struct name: "Product.images[0]" becomes "images[0]".
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.Index(ns, "."); i >= 0 {
		return ns[i+1:]
	}
	return fe.Field()
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "max":
		return "must be at most " + fe.Param()
	case "min":
		return "must be at least " + fe.Param()
	case "gte":
		return "must be >= " + fe.Param()
	case "lte":
		return "must be <= " + fe.Param()
	case "url", "uri":
		return "must be a valid URL"
	case "oneof":
		return "must be one of: " + fe.Param()
	case "no_xss":
		return "must not contain markup"
	}
	return "failed " + fe.Tag()
}

// WholeNumber reads an integer from a JSON number or a base-10 string.
// Blank input is zero; "010" is ten.
func WholeNumber(v any) (int, error) {
	switch x := v.(type) {
	case nil:
		return 0, nil
	case string:
		x = strings.TrimSpace(x)
		if x == "" {
			return 0, nil
		}
		d, err := decimal.NewFromString(x)
		if err != nil || !d.IsInteger() {
			return 0, fmt.Errorf("%q is not a whole number", x)
		}
		return int(d.IntPart()), nil
	case float64:
		if x != math.Trunc(x) {
			return 0, fmt.Errorf("%v is not a whole number", x)
		}
	}
	return cast.ToIntE(v)
}
