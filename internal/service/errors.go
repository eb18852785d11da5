package service

import "errors"

// Operation errors returned to the handler layer. Handlers match these with
// errors.Is and translate them to HTTP status codes; anything else is a
// storage failure and maps to a generic 500 with nothing committed.
var (
	ErrValidation       = errors.New("validation failed")
	ErrDuplicate        = errors.New("duplicate value")
	ErrPermissionDenied = errors.New("permission denied")
	ErrNotFound         = errors.New("not found")
	ErrAlreadyPending   = errors.New("content already pending moderation")
	ErrAlreadyResolved  = errors.New("queue item already resolved")
	ErrInvalidAdminRole = errors.New("account is not eligible to administer a tenant")
	ErrBanned           = errors.New("account is banned or inactive")
)
