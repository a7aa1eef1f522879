package access

// DeniedError is the error form of a denying Decision, for call sites
// that flow authorization failures through error returns.
type DeniedError struct {
	Reason Reason
}

func (e *DeniedError) Error() string {
	return "access denied: " + string(e.Reason)
}

// Err converts a Decision to an error: nil when allowed, *DeniedError
// carrying the failed predicate otherwise.
func (d Decision) Err() error {
	if d.Allowed {
		return nil
	}
	return &DeniedError{Reason: d.Reason}
}
