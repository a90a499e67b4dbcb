/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package models

import (
	"errors"
	"fmt"

	"github.com/go-openapi/strfmt"
	"github.com/go-playground/validator/v10"

	apperrors "github.com/im-danwu/earn-up/errors"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// isodate accepts a full-date ("2024-05-01") or a date-time ("2024-05-01T10:00:00Z").
	_ = v.RegisterValidation("isodate", func(fl validator.FieldLevel) bool {
		s := fl.Field().String()
		return strfmt.IsDate(s) || strfmt.IsDateTime(s)
	})
	return v
}

// Validate checks a request body against its validate tags. The first failing field is
// reported as an errors.ValidationError.
func Validate(req any) error {
	err := validate.Struct(req)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
		fe := fieldErrs[0]
		return apperrors.NewValidationError(fe.Field(), describe(fe))
	}
	return apperrors.NewValidationError("", err.Error())
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "isodate":
		return "must be an ISO 8601 date or date-time"
	case "max":
		return fmt.Sprintf("must be at most %s characters", fe.Param())
	case "min":
		return fmt.Sprintf("must contain at least %s items", fe.Param())
	case "gte":
		return fmt.Sprintf("must be at least %s", fe.Param())
	default:
		return fmt.Sprintf("failed %q check", fe.Tag())
	}
}
