package core

import "errors"

// ValidationError reports a schema or option that cannot be turned into
// generated code. Field names the offending property as "<Type>.<key>" and
// is empty for problems that concern the whole request.
type ValidationError struct {
	Problem string
	Field   string
}

func (v ValidationError) Error() string {
	if v.Field == "" {
		return v.Problem
	}
	return "In field " + v.Field + ": " + v.Problem
}

// Errors returned by LiveObject.
var (
	ErrUnknownKey   = errors.New("unknown property")
	ErrReadOnly     = errors.New("property is read-only")
	ErrInvalidValue = errors.New("invalid value")
)
