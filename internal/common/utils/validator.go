// internal/common/utils/validator.go
// Input validation using struct tags

package utils

import (
    "errors"
    "fmt"
    "regexp"
    "strings"

    "github.com/go-playground/validator/v10"
)

var kenyanPhone = regexp.MustCompile(`^(?:\+?254|0)(7|1)\d{8}$`)

// Global validator instance
var validate = newValidator()

func newValidator() *validator.Validate {
    v := validator.New()
    v.RegisterValidation("ke_phone", func(fl validator.FieldLevel) bool {
        return kenyanPhone.MatchString(fl.Field().String())
    })
    return v
}

// ValidateStruct validates a struct based on its tags
func ValidateStruct(s interface{}) error {
    err := validate.Struct(s)
    if err == nil {
        return nil
    }

    var validationErrors validator.ValidationErrors
    if !errors.As(err, &validationErrors) {
        return err
    }

    messages := make([]string, 0, len(validationErrors))
    for _, fe := range validationErrors {
        messages = append(messages, formatFieldError(fe))
    }
    return errors.New(strings.Join(messages, ", "))
}

// NormalizeKenyanPhone converts 07XXXXXXXX / +2547XXXXXXXX to 2547XXXXXXXX
func NormalizeKenyanPhone(phone string) (string, error) {
    phone = strings.TrimSpace(phone)
    if !kenyanPhone.MatchString(phone) {
        return "", fmt.Errorf("invalid phone number: %s", phone)
    }
    phone = strings.TrimPrefix(phone, "+")
    if strings.HasPrefix(phone, "0") {
        phone = "254" + phone[1:]
    }
    return phone, nil
}

// formatFieldError converts validator errors to human-readable messages
func formatFieldError(fe validator.FieldError) string {
    field := fe.Field()

    switch fe.Tag() {
    case "required":
        return fmt.Sprintf("%s is required", field)
    case "email":
        return fmt.Sprintf("%s must be a valid email", field)
    case "min":
        return fmt.Sprintf("%s must be at least %s", field, fe.Param())
    case "max":
        return fmt.Sprintf("%s must be at most %s", field, fe.Param())
    case "gt":
        return fmt.Sprintf("%s must be greater than %s", field, fe.Param())
    case "gte":
        return fmt.Sprintf("%s must be %s or more", field, fe.Param())
    case "oneof":
        return fmt.Sprintf("%s must be one of [%s]", field, fe.Param())
    case "url":
        return fmt.Sprintf("%s must be a valid URL", field)
    case "ke_phone":
        return fmt.Sprintf("%s must be a valid Safaricom/Airtel number", field)
    case "eqfield":
        return fmt.Sprintf("%s must match %s", field, fe.Param())
    default:
        return fmt.Sprintf("%s is invalid", field)
    }
}
