package engine

import "errors"

var (
	ErrItemNotFound       = errors.New("item not found")
	ErrLoanNotFound       = errors.New("loan not found")
	ErrItemUnavailable    = errors.New("item is not available for borrowing")
	ErrDuplicateUsername  = errors.New("username already exists")
	ErrLastAdmin          = errors.New("cannot delete the last admin")
	ErrSelfDeletion       = errors.New("cannot delete yourself")
	ErrForbidden          = errors.New("insufficient permissions")
	ErrInvalidInput       = errors.New("invalid input")
	ErrInvalidCredentials = errors.New("invalid credentials")
)
