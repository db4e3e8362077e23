package account

import (
	"errors"
	"sort"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

var (
	ErrDuplicateEmail     = errors.New("email already in use")
	ErrNotFound           = errors.New("account not found")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrAccountLocked      = errors.New("account locked, contact an administrator")
	ErrAccountInactive    = errors.New("account not activated, check your e-mail")
	ErrWrongPassword      = errors.New("current password is incorrect")
)

// ErrInvalidOrExpiredCode covers every recovery code mismatch. It is also an
// ErrInvalidCredentials.
var ErrInvalidOrExpiredCode error = codeError{}

type codeError struct{}

func (codeError) Error() string { return "invalid or expired code" }

func (codeError) Is(target error) bool { return target == ErrInvalidCredentials }

// CredentialsError is a failed password check on an existing account that
// still has attempts left.
type CredentialsError struct {
	Remaining int
}

func (e *CredentialsError) Error() string { return ErrInvalidCredentials.Error() }

func (e *CredentialsError) Unwrap() error { return ErrInvalidCredentials }

// ValidationError reports malformed input. Errors lists every violated rule.
type ValidationError struct {
	Message string
	Errors  []string
}

func (e *ValidationError) Error() string {
	if len(e.Errors) == 0 {
		return e.Message
	}
	return e.Message + ": " + strings.Join(e.Errors, "; ")
}

func newPolicyError(errs []string) *ValidationError {
	return &ValidationError{
		Message: "password does not meet the security requirements",
		Errors:  errs,
	}
}

// fromValidation turns ozzo field errors into a ValidationError.
func fromValidation(err error) error {
	if err == nil {
		return nil
	}
	var fields validation.Errors
	if !errors.As(err, &fields) {
		return &ValidationError{Message: err.Error()}
	}
	list := make([]string, 0, len(fields))
	for name, ferr := range fields {
		list = append(list, name+": "+ferr.Error())
	}
	sort.Strings(list)
	return &ValidationError{Message: "invalid request", Errors: list}
}
