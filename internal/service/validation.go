package service

import (
	"order-service/pkg/validator"
)

const defaultInvalidMessage = "Datos incompletos o inválidos"

// worded is implemented by inputs that phrase their own validation failures
type worded interface {
	validationMessage(field, tag string) string
}

// InputError turns a failed struct-tag check on in into a validation error
// carrying the message API users see for that input
func InputError(in interface{}, err error) error {
	field, tag, ok := validator.FirstFailure(err)
	if ok {
		if w, isWorded := in.(worded); isWorded {
			return newError(ErrValidation, w.validationMessage(field, tag))
		}
	}
	return newError(ErrValidation, defaultInvalidMessage)
}

func validateInput(v *validator.Validator, in interface{}) error {
	if err := v.Validate(in); err != nil {
		return InputError(in, err)
	}
	return nil
}

func (ClientInput) validationMessage(_, tag string) string {
	if tag == "email" {
		return "El email no es valido"
	}
	return "Todos los datos son requeridos"
}

func (ClientPatch) validationMessage(field, tag string) string {
	return ClientInput{}.validationMessage(field, tag)
}

func (ProductInput) validationMessage(field, tag string) string {
	switch {
	case field == "Price" && tag == "gte":
		return "El precio no puede ser negativo"
	case field == "Price" && tag == "lte":
		return "El precio excede el máximo permitido"
	case field == "Stock":
		return "El stock no puede ser negativo"
	}
	return "Nombre y precio son requeridos"
}

func (ProductPatch) validationMessage(field, tag string) string {
	return ProductInput{}.validationMessage(field, tag)
}

func (RegisterInput) validationMessage(field, tag string) string {
	switch {
	case tag == "email":
		return "El email no es valido"
	case field == "Password" && tag == "min":
		return "La contraseña debe tener al menos 6 caracteres"
	case field == "Role":
		return "Rol inválido"
	}
	return "Email y contraseña son requeridos"
}
