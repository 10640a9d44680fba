package errors

// ErrorUnknown is returned to clients in place of server errors that must
// not leak to them.
type ErrorUnknown struct{}

func (eu *ErrorUnknown) Error() string {
	return "an unknown server error occurred, please try again later"
}
