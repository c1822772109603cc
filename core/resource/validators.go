package resource

import (
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/tutorcraft/tutorcraft/core"
)

var (
	categoryTag  = "category"
	categoryText = "invalid category"
)

// InitValidators registers the resource validations and their translations on validate.
func InitValidators(validate *validator.Validate, translator ut.Translator) {
	_ = validate.RegisterValidation(categoryTag, categoryValidation)
	core.RegisterCustomTranslation(validate, translator, categoryTag, categoryText)
}

func categoryValidation(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	for _, c := range Categories {
		if c.Value == value {
			return true
		}
	}
	return false
}
