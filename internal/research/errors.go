package research

import "fmt"

// DegradedError reports that research failed and an empty context was used instead.
// It is a soft warning: generation proceeds with the empty context.
type DegradedError struct {
	Company string
	Cause   error
}

func (e *DegradedError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("employer research degraded for %q: %v", e.Company, e.Cause)
	}
	return fmt.Sprintf("employer research degraded for %q", e.Company)
}

func (e *DegradedError) Unwrap() error {
	return e.Cause
}
