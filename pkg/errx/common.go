package errx

// Validation creates an uncoded validation error, for input rejected before
// any registry applies
func Validation(message string) *Error {
	return New(message, TypeValidation)
}
