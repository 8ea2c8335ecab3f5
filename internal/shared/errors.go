package shared

import "errors"

var (
	// ErrNotFound indicates the referenced resource does not exist.
	ErrNotFound = errors.New("not found")
	// ErrValidation indicates malformed or missing input.
	ErrValidation = errors.New("validation failed")
	// ErrDuplicate indicates a uniqueness constraint violation.
	ErrDuplicate = errors.New("duplicate entry")
)

// UserSafeMessage converts an error into a message suitable for end users.
// Internal details are logged by the caller, never surfaced.
func UserSafeMessage(err error) string {
	switch {
	case errors.Is(err, ErrNotFound):
		return "Data tidak ditemukan"
	case errors.Is(err, ErrDuplicate):
		return "Data sudah terdaftar"
	case errors.Is(err, ErrValidation):
		return "Input tidak valid"
	default:
		return "Terjadi kesalahan. Silakan coba lagi."
	}
}
