package app

import (
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"classroom_sync/internal/domain/user"
)

var validate = newValidator()

const roleTag = "role"

func newValidator() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation(roleTag, roleValidation)
	v.RegisterTagNameFunc(jsonFieldName)
	return v
}

// roleValidation checks the field holds a known user role.
func roleValidation(fl validator.FieldLevel) bool {
	switch r := fl.Field().Interface().(type) {
	case user.Role:
		return r.Valid()
	case string:
		return user.Role(r).Valid()
	}
	return false
}

func jsonFieldName(fld reflect.StructField) string {
	name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
	if name == "-" {
		return ""
	}
	return name
}
