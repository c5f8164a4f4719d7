package handler

import (
	"errors"
	"fmt"
	"maps"
	"net/url"
	"reflect"
	"slices"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/homescore/homescore/internal/amenity"
	"github.com/homescore/homescore/internal/api/models"
	"github.com/homescore/homescore/internal/routing"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	// Report the wire name of a field rather than the Go name.
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		for _, tag := range []string{"query", "json"} {
			name, _, _ := strings.Cut(f.Tag.Get(tag), ",")
			if name != "" && name != "-" {
				return name
			}
		}
		return f.Name
	})

	_ = v.RegisterValidation("transport_mode", func(fl validator.FieldLevel) bool {
		_, ok := routing.ParseMode(fl.Field().String())
		return ok
	})
	_ = v.RegisterValidation("amenity_category", func(fl validator.FieldLevel) bool {
		return amenity.Category(strings.ToLower(fl.Field().String())).Valid()
	})

	return v
}

// validateStruct returns the field errors of s, or nil when s is valid.
func validateStruct(s any) []models.FieldError {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return []models.FieldError{{Field: "", Message: err.Error(), Code: "invalid"}}
	}

	out := make([]models.FieldError, 0, len(verrs))
	for _, fe := range verrs {
		out = append(out, models.FieldError{
			Field:   fe.Field(),
			Message: fieldMessage(fe),
			Code:    fe.Tag(),
		})
	}
	return out
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "required_without":
		return "is required when " + fe.Param() + " is not set"
	case "max":
		return "must be at most " + fe.Param() + " characters"
	case "gte":
		return "must be at least " + fe.Param()
	case "lte":
		return "must be at most " + fe.Param()
	case "transport_mode":
		return "must be one of auto, driving, cycling, walking, bus"
	case "amenity_category":
		return "must be one of school, hospital, supermarket, cafe, restaurant"
	default:
		return fmt.Sprintf("failed %q validation", fe.Tag())
	}
}

// floatParam parses an optional float query parameter. A malformed value is
// reported as a field error.
func floatParam(q url.Values, name string) (*float64, *models.FieldError) {
	raw := strings.TrimSpace(q.Get(name))
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil, &models.FieldError{Field: name, Message: "must be a number", Code: "number"}
	}
	return &v, nil
}

// floatParams parses several float query parameters into their destinations.
func floatParams(q url.Values, params map[string]**float64) []models.FieldError {
	var errs []models.FieldError
	for _, name := range slices.Sorted(maps.Keys(params)) {
		v, ferr := floatParam(q, name)
		if ferr != nil {
			errs = append(errs, *ferr)
			continue
		}
		*params[name] = v
	}
	return errs
}
