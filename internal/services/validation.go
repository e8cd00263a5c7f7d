package services

import (
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strings"

	"catalog/internal/apperrors"
	"catalog/internal/repositories"

	"github.com/go-playground/validator/v10"
	"gorm.io/gorm"
)

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// validateStruct runs the struct tags of input and reports every failing field
// as a single InvalidArgument error.
func validateStruct(v *validator.Validate, input interface{}) error {
	err := v.Struct(input)
	if err == nil {
		return nil
	}
	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return apperrors.Wrap(apperrors.InvalidArgument, err, "Invalid input")
	}
	messages := make([]string, 0, len(validationErrors))
	for _, e := range validationErrors {
		messages = append(messages, fmt.Sprintf("Field '%s' failed on the '%s' tag", e.Namespace(), e.Tag()))
	}
	sort.Strings(messages)
	return apperrors.New(apperrors.InvalidArgument, "Validation failed: %s", strings.Join(messages, "; "))
}

// translate maps repository errors onto application error kinds.
// Errors that already carry a kind pass through untouched.
func translate(err error, notFound string) error {
	if err == nil {
		return nil
	}
	var appErr *apperrors.Error
	switch {
	case errors.As(err, &appErr):
		return err
	case errors.Is(err, repositories.ErrProductNotFound):
		return apperrors.Wrap(apperrors.NotFound, err, "%s", notFound)
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return apperrors.Wrap(apperrors.Conflict, err, "A record with the same unique key already exists")
	default:
		return apperrors.Wrap(apperrors.Internal, err, "Internal server error")
	}
}

func uniqueStrings(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
