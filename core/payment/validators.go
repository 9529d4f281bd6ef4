package payment

import (
	"strings"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/camposdev/unipagos/core"
)

var (
	conceptTag  = "concept"
	conceptText = "unknown payment concept"

	assignableConcepts = []string{ConceptMensualidad, ConceptInscripcion}
)

// InitValidators registers the payment validators & translations.
func InitValidators(validate *validator.Validate, translator ut.Translator) {
	_ = validate.RegisterValidation(conceptTag, conceptValidation)
	core.RegisterCustomTranslation(validate, translator, conceptTag, conceptText)
}

// conceptValidation checks that the concept is one of the fixed assignable ones.
func conceptValidation(fl validator.FieldLevel) bool {
	val := fl.Field().String()
	for _, c := range assignableConcepts {
		if strings.EqualFold(val, c) {
			return true
		}
	}
	return false
}
