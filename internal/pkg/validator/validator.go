package validator

import (
	"github.com/go-playground/validator/v10"

	"github.com/geoclaim/internal/domain"
)

var validate *validator.Validate

func init() {
	validate = validator.New()

	// chatmode - одно из значений domain.ChatMode
	_ = validate.RegisterValidation("chatmode", func(fl validator.FieldLevel) bool {
		return domain.ChatMode(fl.Field().String()).IsValid()
	})
	// baselayer / overlay - ключ из каталога слоёв
	_ = validate.RegisterValidation("baselayer", func(fl validator.FieldLevel) bool {
		_, ok := domain.FindBaseLayer(fl.Field().String())
		return ok
	})
	_ = validate.RegisterValidation("overlay", func(fl validator.FieldLevel) bool {
		_, ok := domain.FindOverlay(fl.Field().String())
		return ok
	})
	_ = validate.RegisterValidation("localitytype", func(fl validator.FieldLevel) bool {
		return domain.LocalityType(fl.Field().String()).IsValid()
	})
}

// Validate - валидация структуры
func Validate(s interface{}) error {
	return validate.Struct(s)
}

// GetValidator - получить валидатор для кастомной конфигурации
func GetValidator() *validator.Validate {
	return validate
}

// Fields собирает ошибки валидации в карту поле -> правило
func Fields(err error) map[string]interface{} {
	details := make(map[string]interface{})
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		details["error"] = err.Error()
		return details
	}
	for _, fe := range verrs {
		details[fe.Field()] = fe.Tag()
	}
	return details
}
