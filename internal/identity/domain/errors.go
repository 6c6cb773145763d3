package domain

import (
	"errors"
	"fmt"
)

// ErrRuleViolation is the kind shared by every domain error. Match it with
// errors.Is; the message is for humans only.
var ErrRuleViolation = errors.New("domain rule violation")

// Error reports a broken business rule.
type Error struct {
	Message string
}

func (e *Error) Error() string { return e.Message }

// Is makes every *Error match ErrRuleViolation.
func (e *Error) Is(target error) bool { return target == ErrRuleViolation }

func violation(format string, args ...any) error {
	return &Error{Message: fmt.Sprintf(format, args...)}
}

// IsRuleViolation reports whether err (or anything it wraps) is a domain error.
func IsRuleViolation(err error) bool {
	return errors.Is(err, ErrRuleViolation)
}
