package shared

import (
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// ValidateStruct runs struct tag validation against input.
func ValidateStruct(input any) error {
	return validate.Struct(input)
}

// FieldMessages flattens validator errors into a field -> message map for
// per-item validation responses.
func FieldMessages(err error) map[string]string {
	fields := map[string]string{}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		fields["general"] = UserSafeMessage(ErrValidation)
		return fields
	}
	for _, fe := range verrs {
		name := strings.ToLower(fe.Field())
		switch fe.Tag() {
		case "required":
			fields[name] = "Wajib diisi"
		case "gt", "gte", "min":
			fields[name] = "Nilai terlalu kecil"
		case "lt", "lte", "max":
			fields[name] = "Nilai terlalu besar"
		default:
			fields[name] = "Tidak valid"
		}
	}
	return fields
}
