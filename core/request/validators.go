package request

import (
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/camposdev/unipagos/core"
)

var (
	constanciaTypeTag  = "constanciatype"
	constanciaTypeText = "unknown constancia type"
)

// InitValidators registers the request validators & translations.
func InitValidators(validate *validator.Validate, translator ut.Translator) {
	_ = validate.RegisterValidation(constanciaTypeTag, constanciaTypeValidation)
	core.RegisterCustomTranslation(validate, translator, constanciaTypeTag, constanciaTypeText)
}

func constanciaTypeValidation(fl validator.FieldLevel) bool {
	_, ok := typeInfo(fl.Field().String())
	return ok
}
