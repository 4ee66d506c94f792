package hwprobe

import "fmt"

// probeFailedError reports that a single hardware subsystem could not be
// resolved. This is non-fatal as long as GPU and RAM both
// succeed; the orchestrator decides fatality, this type only carries the
// fact.
type probeFailedError struct {
	Field string
	Cause error
}

func (e probeFailedError) Error() string {
	return fmt.Sprintf("probe failed for %s: %v", e.Field, e.Cause)
}

func (e probeFailedError) Unwrap() error { return e.Cause }

// ErrProbeFailed constructs a probeFailedError for the named field.
func ErrProbeFailed(field string, cause error) error {
	return probeFailedError{Field: field, Cause: cause}
}

// IsProbeFailed reports whether err is a probe failure, and for which field.
func IsProbeFailed(err error) (field string, ok bool) {
	pf, ok := err.(probeFailedError)
	if !ok {
		return "", false
	}
	return pf.Field, true
}
