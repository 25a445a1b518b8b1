package errors

import (
	"errors"
)

func Is(err, target error) bool {
	if err == nil {
		return false
	}
	return errors.Is(err, target)
}

func As[T error](err error, target *T) bool {
	return err != nil && errors.As(err, target)
}

func Unwrap(err error) error {
	return errors.Unwrap(err)
}

// Join drops nil errors and returns nil when nothing is left.
func Join(errs ...error) error {
	return errors.Join(errs...)
}

// CodeOf returns the code of the outermost coded error in err's chain, or
// an empty code.
func CodeOf(err error) Code {
	var e *Error
	if As(err, &e) {
		return e.Code
	}
	return ""
}

// KindOf follows the Kind links of the outermost coded error in err's
// chain to the root kind. A coded error without a kind is its own kind;
// an uncoded err has none.
func KindOf(err error) *Error {
	var e *Error
	if !As(err, &e) {
		return nil
	}
	for e.Kind != nil {
		e = e.Kind
	}
	return e
}
