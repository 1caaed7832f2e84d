package validation

import (
	"bytes"
	"encoding/json"
	"errors"
	"reflect"
	"strconv"
	"strings"

	"catalog/internal/models"

	"github.com/go-playground/validator/v10"
)

// Error reports every violated field of a product payload.
type Error struct {
	Details []string
}

func (e *Error) Error() string {
	return "validation failed: " + strings.Join(e.Details, "; ")
}

// ErrMalformedBody is returned when the body is not a JSON object.
var ErrMalformedBody = errors.New("request body must be a JSON object")

// productPayload holds the raw decoded JSON values so that type mismatches
// are reported per field instead of failing the whole decode.
type productPayload struct {
	Name        any `validate:"nonblank,trimmed_maxlen=100"`
	Description any `validate:"nonblank,maxlen=500"`
	Price       any `validate:"nonnegative"`
	Category    any `validate:"nonblank"`
	InStock     any `validate:"omitempty,boolean_value"`
}

// messages maps field and failed tag to the client-facing message.
var messages = map[string]map[string]string{
	"Name": {
		"":               "Name is required and must be a non-empty string",
		"trimmed_maxlen": "Product name cannot exceed 100 characters",
	},
	"Description": {
		"":       "Description is required and must be a non-empty string",
		"maxlen": "Description cannot exceed 500 characters",
	},
	"Price": {
		"": "Price is required and must be a non-negative number",
	},
	"Category": {
		"": "Category is required and must be a non-empty string",
	},
	"InStock": {
		"": "inStock must be a boolean",
	},
}

// ProductValidator checks create and update payloads.
type ProductValidator struct {
	validate *validator.Validate
}

// NewProductValidator registers the payload rules on a fresh validator.
func NewProductValidator() *ProductValidator {
	v := validator.New()
	_ = v.RegisterValidation("nonblank", func(fl validator.FieldLevel) bool {
		f := fl.Field()
		return f.Kind() == reflect.String && strings.TrimSpace(f.String()) != ""
	})
	// maxlen measures the value as stored; trimmed_maxlen is for fields stored trimmed.
	_ = v.RegisterValidation("maxlen", maxLength(false))
	_ = v.RegisterValidation("trimmed_maxlen", maxLength(true))
	_ = v.RegisterValidation("nonnegative", func(fl validator.FieldLevel) bool {
		f := fl.Field()
		return f.Kind() == reflect.Float64 && f.Float() >= 0
	})
	_ = v.RegisterValidation("boolean_value", func(fl validator.FieldLevel) bool {
		return fl.Field().Kind() == reflect.Bool
	})
	return &ProductValidator{validate: v}
}

func maxLength(trim bool) validator.Func {
	return func(fl validator.FieldLevel) bool {
		f := fl.Field()
		if f.Kind() != reflect.String {
			return false
		}
		limit, err := strconv.Atoi(fl.Param())
		if err != nil {
			return false
		}
		s := f.String()
		if trim {
			s = strings.TrimSpace(s)
		}
		return len([]rune(s)) <= limit
	}
}

// Validate decodes body and checks every field, collecting all violations.
// On success the trimmed input is returned.
func (pv *ProductValidator) Validate(body []byte) (models.ProductInput, error) {
	var raw map[string]any
	dec := json.NewDecoder(bytes.NewReader(body))
	if err := dec.Decode(&raw); err != nil || raw == nil {
		return models.ProductInput{}, ErrMalformedBody
	}

	payload := productPayload{
		Name:        raw["name"],
		Description: raw["description"],
		Price:       raw["price"],
		Category:    raw["category"],
		InStock:     raw["inStock"],
	}
	if err := pv.validate.Struct(payload); err != nil {
		var fieldErrs validator.ValidationErrors
		if !errors.As(err, &fieldErrs) {
			return models.ProductInput{}, err
		}
		details := make([]string, 0, len(fieldErrs))
		for _, fe := range fieldErrs {
			details = append(details, message(fe.Field(), fe.Tag()))
		}
		return models.ProductInput{}, &Error{Details: details}
	}

	input := models.ProductInput{
		Name:        strings.TrimSpace(payload.Name.(string)),
		Description: payload.Description.(string),
		Price:       payload.Price.(float64),
		Category:    strings.TrimSpace(payload.Category.(string)),
	}
	if b, ok := payload.InStock.(bool); ok {
		input.InStock = &b
	}
	return input, nil
}

func message(field, tag string) string {
	if m, ok := messages[field][tag]; ok {
		return m
	}
	return messages[field][""]
}
