package db

import (
	"errors"
	"fmt"
)

// ErrorInvalidRequest is a user facing error returned by repositories. Every
// error kind below wraps it, so callers at the boundary only need to check
// for ErrorInvalidRequest to decide whether an error message is safe to show.
var ErrorInvalidRequest = errors.New("invalid request")

var (
	// ErrorNotFound is returned when a referenced student does not exist.
	ErrorNotFound = fmt.Errorf("%w: not found", ErrorInvalidRequest)
	// ErrorNoSuchCourse is returned when a student exists but has no grade
	// recorded for the requested course.
	ErrorNoSuchCourse = fmt.Errorf("%w: no such course", ErrorInvalidRequest)
	// ErrorInvalidInput is returned for malformed names, courses or grades.
	ErrorInvalidInput = fmt.Errorf("%w: invalid input", ErrorInvalidRequest)
)
