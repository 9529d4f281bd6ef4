package language

import (
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/camposdev/unipagos/core"
)

var (
	examLevelTag  = "examlevel"
	examLevelText = "unknown exam level"
)

// InitValidators registers the language-center validators & translations.
func InitValidators(validate *validator.Validate, translator ut.Translator) {
	_ = validate.RegisterValidation(examLevelTag, examLevelValidation)
	core.RegisterCustomTranslation(validate, translator, examLevelTag, examLevelText)
}

func examLevelValidation(fl validator.FieldLevel) bool {
	_, ok := levelInfo(fl.Field().String())
	return ok
}
