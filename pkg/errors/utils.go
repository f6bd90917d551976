package errors

// Internal convenience constructors for the common codes. Package-level
// errors should normally define and use their own Code via MustNewCode;
// these are for call sites that don't belong to a specific package.

func Internal(message string) *Error     { return New(CommonInternal, message, nil) }
func NotFound(message string) *Error     { return New(CommonNotFound, message, nil) }
func Validation(message string) *Error   { return New(CommonValidation, message, nil) }
func Timeout(message string) *Error      { return New(CommonTimeout, message, nil) }
func Unauthorized(message string) *Error { return New(CommonUnauthorized, message, nil) }
func Forbidden(message string) *Error    { return New(CommonForbidden, message, nil) }
func Conflict(message string) *Error     { return New(CommonConflict, message, nil) }
func Unsupported(message string) *Error  { return New(CommonUnsupported, message, nil) }
func InvalidInput(message string) *Error { return New(CommonInvalidInput, message, nil) }
func AlreadyExists(message string) *Error {
	return New(CommonAlreadyExists, message, nil)
}

// Is reports whether err is this module's error type.
func Is(err error) bool {
	_, ok := err.(*Error)
	return ok
}
