package validator

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"stayhub/pkg/logger"
	"stayhub/pkg/model"
)

type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (v ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", v.Field, v.Message)
}

type ValidationErrors []ValidationError

func (v ValidationErrors) Error() string {
	if len(v) == 0 {
		return ""
	}
	var messages []string
	for _, err := range v {
		messages = append(messages, err.Error())
	}
	return fmt.Sprintf("validation failed: %d error(s): [%s]", len(v), strings.Join(messages, "; "))
}

func (v ValidationErrors) Fields() map[string]any {
	fields := make(map[string]any, len(v))
	for _, err := range v {
		fields[err.Field] = err.Message
	}
	return fields
}

type PropertyValidator struct {
	validate *validator.Validate
	logger   *logger.Logger
}

func NewPropertyValidator(log *logger.Logger) *PropertyValidator {
	return &PropertyValidator{
		validate: validator.New(),
		logger:   log,
	}
}

func (v *PropertyValidator) Validate(property *model.Property) error {
	return v.translate(v.validate.Struct(property))
}

func (v *PropertyValidator) ValidateUpdate(update *model.PropertyUpdate) error {
	return v.translate(v.validate.Struct(update))
}

func (v *PropertyValidator) ValidateFilter(filter *model.PropertyFilter) error {
	if err := v.translate(v.validate.Struct(filter)); err != nil {
		return err
	}

	if filter.CheckIn != nil && filter.CheckOut != nil && !filter.CheckOut.After(*filter.CheckIn) {
		return ValidationErrors{ValidationError{
			Field:   "CheckOut",
			Message: "check_out must be after check_in",
		}}
	}
	if (filter.CheckIn == nil) != (filter.CheckOut == nil) {
		return ValidationErrors{ValidationError{
			Field:   "CheckIn",
			Message: "check_in and check_out must be provided together",
		}}
	}

	return nil
}

func (v *PropertyValidator) translate(err error) error {
	if err == nil {
		return nil
	}

	var validationErrs validator.ValidationErrors
	if !errors.As(err, &validationErrs) {
		return err
	}

	var result ValidationErrors
	for _, fieldErr := range validationErrs {
		message := fieldErr.Error()

		switch fieldErr.Tag() {
		case "required":
			message = fmt.Sprintf("%s is required", fieldErr.Field())
		case "min":
			message = fmt.Sprintf("%s must be at least %s", fieldErr.Field(), fieldErr.Param())
		case "max":
			message = fmt.Sprintf("%s must be at most %s", fieldErr.Field(), fieldErr.Param())
		case "gt":
			message = fmt.Sprintf("%s must be greater than %s", fieldErr.Field(), fieldErr.Param())
		case "url":
			message = fmt.Sprintf("%s must contain valid URLs", fieldErr.Field())
		case "mongodb":
			message = fmt.Sprintf("%s must be a valid object ID", fieldErr.Field())
		}

		result = append(result, ValidationError{Field: fieldErr.Field(), Message: message})
	}

	return result
}
