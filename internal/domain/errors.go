package domain

import "fmt"

// ProtectedClaimError rejects any attempt to mutate confidence or status on
// a protected claim outside the guard paths. Callers must be able to tell
// "nothing needed to change" apart from "this claim is structurally immune",
// so this is a typed error rather than a silent skip.
type ProtectedClaimError struct {
	ID string
	Op string
}

func (e *ProtectedClaimError) Error() string {
	return fmt.Sprintf("claim %s is protected: %s not permitted", e.ID, e.Op)
}

// ValidationError reports a value that normalization could not rescue.
// Values that have a safe correction rule (clamping, compression) are
// corrected in place and never produce this error.
type ValidationError struct {
	Field string
	Value any
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %v", e.Field, e.Value)
}
