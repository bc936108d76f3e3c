package assessment

import (
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/trezcool/milestone/core"
)

var (
	answerTag  = "answer"
	answerText = "{0} must be one of can, cannot, emerging, not_observed"
)

// InitValidators registers the assessment validators & their translations.
func InitValidators(validate *validator.Validate, translator ut.Translator) {
	_ = validate.RegisterValidation(answerTag, answerValidation)
	core.RegisterCustomTranslation(validate, translator, answerTag, answerText)
}

func answerValidation(fl validator.FieldLevel) bool {
	return Answer(fl.Field().String()).Valid()
}
