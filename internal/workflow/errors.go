package workflow

import "errors"

var (
	ErrNotFound          = errors.New("record not found")
	ErrForbidden         = errors.New("not authorized to access this record")
	ErrReadOnlyRole      = errors.New("admin role has read-only access to caregiver schedules")
	ErrProactiveDisabled = errors.New("caregivers are not allowed to schedule proactively")
	ErrNotEditable       = errors.New("service request can no longer be edited")
	ErrInvalidStatus     = errors.New("status not allowed for this role")
	ErrInvalidTransition = errors.New("status transition not allowed")
	ErrValidation        = errors.New("validation failed")
	ErrNoActiveCaregiver = errors.New("patient has no active caregiver assignment")
)
