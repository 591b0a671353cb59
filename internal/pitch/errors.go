package pitch

import "fmt"

// GenerationSchemaError reports a generation call that failed outright or
// returned a payload that does not match the pitch response schema.
// No partial artifact is ever returned alongside it.
type GenerationSchemaError struct {
	Company string
	Field   string
	Message string
	Cause   error
}

func (e *GenerationSchemaError) Error() string {
	msg := fmt.Sprintf("pitch generation for %q failed: %s", e.Company, e.Message)
	if e.Field != "" {
		msg = fmt.Sprintf("pitch generation for %q failed at %s: %s", e.Company, e.Field, e.Message)
	}
	if e.Cause != nil {
		return msg + ": " + e.Cause.Error()
	}
	return msg
}

func (e *GenerationSchemaError) Unwrap() error {
	return e.Cause
}
