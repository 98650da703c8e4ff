package models

import (
	"errors"
	"fmt"
	"math"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

// Validator returns the shared struct validator. Field names in errors
// follow the json/yaml tags so messages match what users type.
func Validator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
			for _, key := range []string{"yaml", "json"} {
				name := strings.SplitN(fld.Tag.Get(key), ",", 2)[0]
				if name == "-" {
					return ""
				}
				if name != "" {
					return name
				}
			}
			return fld.Name
		})
	})
	return validate
}

// ValidateStruct runs the struct validator and converts the first failure
// into a ValidationError. The namespace prefix is dropped so nested fields
// read as dotted keys ("length.penalty_step").
func ValidateStruct(s any) error {
	err := Validator().Struct(s)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return &ValidationError{Message: err.Error()}
	}

	fe := verrs[0]
	field := fe.Namespace()
	if idx := strings.Index(field, "."); idx >= 0 {
		field = field[idx+1:]
	}
	return &ValidationError{Field: field, Message: describe(fe)}
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "gt":
		return fmt.Sprintf("must be greater than %s, got %v", fe.Param(), fe.Value())
	case "gte":
		return fmt.Sprintf("must be at least %s, got %v", fe.Param(), fe.Value())
	case "lte":
		return fmt.Sprintf("must be at most %s, got %v", fe.Param(), fe.Value())
	case "datetime":
		return fmt.Sprintf("must be a date in YYYY-MM-DD form, got %q", fe.Value())
	default:
		return fmt.Sprintf("failed %q check", fe.Tag())
	}
}

// Validate checks a book before it is written to the catalog
func (b Book) Validate() error {
	if strings.TrimSpace(b.Title) == "" {
		return NewValidationError("title", "is required")
	}
	if math.IsNaN(b.Rating) || math.IsInf(b.Rating, 0) {
		return NewValidationError("rating", "must be a finite number")
	}
	if err := ValidateStruct(b); err != nil {
		var verr *ValidationError
		if errors.As(err, &verr) {
			verr.Message = fmt.Sprintf("%s (book %q)", verr.Message, b.Title)
		}
		return err
	}
	return nil
}
