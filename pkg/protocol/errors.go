package protocol

import "fmt"

// AlreadyRunningError reports an initialize attempt against a specialist
// whose session is already live. It enables typed discrimination via
// errors.As so callers can treat it as backpressure, not failure.
type AlreadyRunningError struct {
	Specialist SpecialistType
}

func (e *AlreadyRunningError) Error() string {
	return fmt.Sprintf("specialist %s is already running (session %s exists)",
		e.Specialist, e.Specialist.SessionName())
}

// AlreadyInitializedError reports an initialize attempt when a continuity
// record already exists. Initialize is for first-time bring-up only; a
// stored session identifier means wake should resume instead.
type AlreadyInitializedError struct {
	Specialist SpecialistType
	SessionID  string
}

func (e *AlreadyInitializedError) Error() string {
	return fmt.Sprintf("specialist %s is already initialized (session id %s); use wake to resume",
		e.Specialist, e.SessionID)
}

// NotRunningError reports a wake attempt against a dead session when the
// caller did not allow starting one.
type NotRunningError struct {
	Specialist SpecialistType
}

func (e *NotRunningError) Error() string {
	return fmt.Sprintf("specialist %s is not running and start-if-not-running was not requested", e.Specialist)
}

// NotFoundError reports a registry operation against an unknown specialist.
type NotFoundError struct {
	Specialist SpecialistType
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("specialist %s not found in registry", e.Specialist)
}
